package playbook

import (
	"fmt"
	"sort"
	"sync"

	"fnol/internal/claim"
	"fnol/internal/config"
	"fnol/internal/logging"
)

// Registry holds all known playbooks and coordinates detection, question
// aggregation, validation, and flag collection across the active set.
type Registry struct {
	mu         sync.RWMutex
	playbooks  map[string]Playbook
	order      []string
	byCategory map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		playbooks:  map[string]Playbook{},
		byCategory: map[string][]string{},
	}
}

// Register adds a playbook. Registering a duplicate ID is an error.
func (r *Registry) Register(p Playbook) error {
	if p.ID() == "" {
		return fmt.Errorf("playbook has no ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.playbooks[p.ID()]; exists {
		return fmt.Errorf("playbook %q already registered", p.ID())
	}
	r.playbooks[p.ID()] = p
	r.order = append(r.order, p.ID())
	cat := p.Category()
	if cat == "" {
		cat = CategoryOther
	}
	r.byCategory[cat] = append(r.byCategory[cat], p.ID())
	return nil
}

// Get returns a playbook by ID.
func (r *Registry) Get(id string) (Playbook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.playbooks[id]
	return p, ok
}

// All returns every registered playbook in registration order.
func (r *Registry) All() []Playbook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Playbook, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.playbooks[id])
	}
	return out
}

// ByCategory returns the playbooks in a category.
func (r *Registry) ByCategory(category string) []Playbook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Playbook
	for _, id := range r.byCategory[category] {
		out = append(out, r.playbooks[id])
	}
	return out
}

// Detect scores every playbook against the conversation and returns the
// activations at or above threshold, ordered by confidence descending, then
// priority ascending, then ID for a stable total order. Detection is a full
// recomputation each call; the active set never accumulates across turns.
func (r *Registry) Detect(st *claim.ConversationState, threshold float64) []claim.ActivePlaybook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []claim.ActivePlaybook
	for _, id := range r.order {
		p := r.playbooks[id]
		conf := p.Detect(st)
		if conf >= threshold {
			active = append(active, claim.ActivePlaybook{
				ID:         id,
				Category:   p.Category(),
				Confidence: conf,
				Priority:   p.Priority(),
			})
		}
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Confidence != active[j].Confidence {
			return active[i].Confidence > active[j].Confidence
		}
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	if len(active) > 0 {
		logging.PlaybookDebug("detected %d active playbooks, lead %s (%.2f)", len(active), active[0].ID, active[0].Confidence)
	}
	return active
}

// QuestionsForState aggregates questions from the active playbooks for the
// given state, sorted by priority. Duplicate question IDs keep the first
// contribution; the activation order decides which playbook wins.
func (r *Registry) QuestionsForState(active []claim.ActivePlaybook, current claim.State, st *claim.ConversationState) []claim.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var questions []claim.Question
	seen := map[string]bool{}
	for _, ap := range active {
		p, ok := r.playbooks[ap.ID]
		if !ok {
			continue
		}
		for _, q := range p.Questions(current, st) {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			questions = append(questions, q)
		}
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Priority < questions[j].Priority
	})
	return questions
}

// ValidateAll runs validation across the active playbooks, prefixing each
// finding with its playbook ID.
func (r *Registry) ValidateAll(active []claim.ActivePlaybook, st *claim.ConversationState) ValidationResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	combined := ValidationResult{Valid: true}
	for _, ap := range active {
		p, ok := r.playbooks[ap.ID]
		if !ok {
			continue
		}
		res := p.Validate(st)
		for _, e := range res.Errors {
			combined.Errors = append(combined.Errors, fmt.Sprintf("[%s] %s", ap.ID, e))
		}
		for _, w := range res.Warnings {
			combined.Warnings = append(combined.Warnings, fmt.Sprintf("[%s] %s", ap.ID, w))
		}
	}
	combined.Valid = len(combined.Errors) == 0
	return combined
}

// CollectFlags unions the triage flags of the active playbooks, preserving
// first-seen order so the result is deterministic across runs.
func (r *Registry) CollectFlags(active []claim.ActivePlaybook, st *claim.ConversationState) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var flags []string
	seen := map[string]bool{}
	for _, ap := range active {
		p, ok := r.playbooks[ap.ID]
		if !ok {
			continue
		}
		for _, f := range p.TriageFlags(st) {
			if !seen[f] {
				seen[f] = true
				flags = append(flags, f)
			}
		}
	}
	return flags
}

// CollectEvidence unions the evidence requirements of the active playbooks,
// deduplicated by type and description.
func (r *Registry) CollectEvidence(active []claim.ActivePlaybook, st *claim.ConversationState) []Evidence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var evidence []Evidence
	seen := map[string]bool{}
	for _, ap := range active {
		p, ok := r.playbooks[ap.ID]
		if !ok {
			continue
		}
		for _, ev := range p.RequiredEvidence(st) {
			key := ev.Type + ":" + ev.Description
			if !seen[key] {
				seen[key] = true
				evidence = append(evidence, ev)
			}
		}
	}
	return evidence
}

// RequiredStates unions the module states the active playbooks need,
// returned in canonical flow order.
func (r *Registry) RequiredStates(active []claim.ActivePlaybook) []claim.State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	need := map[claim.State]bool{}
	for _, ap := range active {
		p, ok := r.playbooks[ap.ID]
		if !ok {
			continue
		}
		for _, s := range p.RequiredStates() {
			need[s] = true
		}
	}

	var out []claim.State
	for _, s := range claim.StateOrder {
		if need[s] {
			out = append(out, s)
		}
	}
	return out
}

// NewDefaultRegistry builds the registry with every shipped scenario.
func NewDefaultRegistry(w *config.WeightStore) *Registry {
	r := NewRegistry()
	for _, p := range []Playbook{
		// Collision
		newTwoVehicle(w),
		newSingleVehicle(w),
		newMultiVehicle(w),
		newHitAndRun(w),
		newUninsured(w),
		newParkingLot(w),
		newAnimalStrike(w),
		// Weather
		newHail(w),
		newFlood(w),
		newWindTree(w),
		// Theft
		newVehicleTheft(w),
		newAttemptedTheft(w),
		// Other
		newVandalism(w),
		newGlassOnly(w),
		newFire(w),
		newTowing(w),
		newCommercialRideshare(w),
		newRental(w),
		newOutOfState(w),
		newInjury(w),
		newSevereInjury(w),
		newPoliceDUI(w),
	} {
		if err := r.Register(p); err != nil {
			// Registration only fails on programmer error (duplicate IDs).
			panic(err)
		}
	}
	return r
}
