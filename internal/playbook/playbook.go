// Package playbook implements scenario playbooks for claim intake. Each
// playbook recognizes one loss scenario (hit-and-run, hail, vehicle theft,
// and so on), contributes follow-up questions for the states it cares about,
// validates the collected data, and raises flags that steer triage routing.
package playbook

import (
	"strings"

	"fnol/internal/claim"
	"fnol/internal/config"
)

// Playbook is the contract every scenario implements. Detect is pure with
// respect to the conversation state and returns a confidence in [0,1];
// everything else is read-only too. Mutation of state is the driver's job.
type Playbook interface {
	ID() string
	Category() string
	Priority() int
	RequiredStates() []claim.State
	Detect(st *claim.ConversationState) float64
	Questions(current claim.State, st *claim.ConversationState) []claim.Question
	Validate(st *claim.ConversationState) ValidationResult
	TriageFlags(st *claim.ConversationState) []string
	RequiredEvidence(st *claim.ConversationState) []Evidence
}

// ValidationResult reports scenario-specific data gaps.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Evidence is one photo or document a scenario needs.
type Evidence struct {
	Type        string
	Description string
}

// Categories.
const (
	CategoryCollision = "collision"
	CategoryWeather   = "weather"
	CategoryTheft     = "theft"
	CategoryOther     = "other"
)

// Definition is the concrete playbook implementation. Scenarios are built
// as configured Definitions: static metadata plus optional function hooks
// for detection, questions, validation, flags, and evidence. Hooks left nil
// fall back to keyword scoring, static question lists, and static flags.
type Definition struct {
	id             string
	category       string
	priority       int
	requiredStates []claim.State
	keywords       []string
	lossType       string
	staticFlags    []string
	staticQs       []claim.Question
	staticEvidence []Evidence
	weights        *config.WeightStore

	detectFn   func(d *Definition, st *claim.ConversationState) float64
	validateFn func(st *claim.ConversationState) ValidationResult
	flagsFn    func(st *claim.ConversationState) []string
	evidenceFn func(st *claim.ConversationState) []Evidence
}

func (d *Definition) ID() string                    { return d.id }
func (d *Definition) Category() string              { return d.category }
func (d *Definition) Priority() int                 { return d.priority }
func (d *Definition) RequiredStates() []claim.State { return d.requiredStates }

// Detect runs the scenario's detection hook, or the default keyword and
// loss-type scoring when none is set.
func (d *Definition) Detect(st *claim.ConversationState) float64 {
	if d.detectFn != nil {
		return clamp01(d.detectFn(d, st))
	}
	score := 0.0
	if d.lossType != "" && st.Incident.LossType == d.lossType {
		score += d.weight("loss_type", 0.4)
	}
	if n := countMatches(narrative(st), d.keywords); n > 0 {
		score += minF(0.6, float64(n)*d.weight("keyword", 0.2))
	}
	return clamp01(score)
}

// Questions returns the scenario's questions bound to the given state,
// tagged with the contributing playbook ID.
func (d *Definition) Questions(current claim.State, st *claim.ConversationState) []claim.Question {
	var out []claim.Question
	for _, q := range d.staticQs {
		if q.State == current {
			q.Playbook = d.id
			out = append(out, q)
		}
	}
	return out
}

func (d *Definition) Validate(st *claim.ConversationState) ValidationResult {
	if d.validateFn != nil {
		return d.validateFn(st)
	}
	return ValidationResult{Valid: true}
}

func (d *Definition) TriageFlags(st *claim.ConversationState) []string {
	if d.flagsFn != nil {
		return d.flagsFn(st)
	}
	return append([]string(nil), d.staticFlags...)
}

func (d *Definition) RequiredEvidence(st *claim.ConversationState) []Evidence {
	if d.evidenceFn != nil {
		return d.evidenceFn(st)
	}
	return append([]Evidence(nil), d.staticEvidence...)
}

// weight looks up a tunable scoring weight, falling back to the built-in
// default when no weight table is loaded or the signal is not overridden.
func (d *Definition) weight(signal string, def float64) float64 {
	if d.weights == nil {
		return def
	}
	return d.weights.Weight(d.id, signal, def)
}

// narrative builds the lowercase text every keyword check runs against:
// the incident description plus the turn's raw input.
func narrative(st *claim.ConversationState) string {
	return strings.ToLower(st.Incident.Description + " " + st.CurrentInput)
}

func hasAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func warnResult(warnings ...string) ValidationResult {
	return ValidationResult{Valid: true, Warnings: warnings}
}
