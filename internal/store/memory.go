package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fnol/internal/claim"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// MemoryStore implements the same contracts as SQLiteStore without
// persistence, for tests and the in-process demo.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionRow
	drafts      map[string]*ClaimDraft
	policies    map[string]memoryPolicy
	escalations []Escalation
}

type sessionRow struct {
	version int64
	payload []byte
}

type memoryPolicy struct {
	PolicyNumber string
	HolderName   string
	HolderState  string
	Phone        string
	LastName     string
	ZIP          string
}

// Escalation is one queued handoff snapshot.
type Escalation struct {
	ThreadID  string
	Reason    string
	State     *claim.ConversationState
	CreatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionRow),
		drafts:   make(map[string]*ClaimDraft),
		policies: make(map[string]memoryPolicy),
	}
}

// Load fetches a deep copy of the stored state.
func (m *MemoryStore) Load(ctx context.Context, threadID string) (*claim.ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.sessions[threadID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", threadID, ErrNotFound)
	}
	var st claim.ConversationState
	if err := json.Unmarshal(row.payload, &st); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	st.Version = row.version
	return &st, nil
}

// Save stores the state guarded by its version, same contract as SQLite.
func (m *MemoryStore) Save(ctx context.Context, st *claim.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := st.Version
	row, exists := m.sessions[st.ThreadID]
	if exists && row.version != expected {
		return fmt.Errorf("session %s: %w", st.ThreadID, ErrVersionConflict)
	}
	if !exists && expected != 0 {
		return fmt.Errorf("session %s: %w", st.ThreadID, ErrVersionConflict)
	}

	st.Version = expected + 1
	st.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(st)
	if err != nil {
		st.Version = expected
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	m.sessions[st.ThreadID] = &sessionRow{version: st.Version, payload: payload}
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, threadID)
	return nil
}

// SeedPolicy registers a policy for lookup.
func (m *MemoryStore) SeedPolicy(ctx context.Context, policyNumber, holderName, holderState, phone, lastName, zip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizePolicyNumber(policyNumber)
	m.policies[key] = memoryPolicy{
		PolicyNumber: strings.ToUpper(strings.TrimSpace(policyNumber)),
		HolderName:   holderName,
		HolderState:  holderState,
		Phone:        phone,
		LastName:     lastName,
		ZIP:          zip,
	}
	return nil
}

// MatchPolicy resolves identity the same way the SQLite matcher does.
func (m *MemoryStore) MatchPolicy(ctx context.Context, crit MatchCriteria) (*claim.PolicyMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if crit.PolicyNumber != "" {
		p, ok := m.policies[NormalizePolicyNumber(crit.PolicyNumber)]
		if !ok {
			return nil, fmt.Errorf("policy match: %w", ErrNotFound)
		}
		return &claim.PolicyMatch{
			PolicyNumber: p.PolicyNumber,
			HolderName:   p.HolderName,
			HolderState:  p.HolderState,
			Verified:     true,
		}, nil
	}
	if crit.Phone != "" && crit.LastName != "" && crit.ZIP != "" {
		for _, p := range m.policies {
			if p.Phone == crit.Phone && strings.EqualFold(p.LastName, crit.LastName) && p.ZIP == crit.ZIP {
				return &claim.PolicyMatch{
					PolicyNumber: p.PolicyNumber,
					HolderName:   p.HolderName,
					HolderState:  p.HolderState,
					Verified:     true,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("policy match: %w", ErrNotFound)
}

// CreateOrGetDraft creates at most one draft per thread.
func (m *MemoryStore) CreateOrGetDraft(ctx context.Context, threadID string, payload []byte) (*ClaimDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.drafts[threadID]; ok {
		return existing, nil
	}
	draft := &ClaimDraft{
		ID:          uuid.NewString(),
		ThreadID:    threadID,
		ClaimNumber: NewClaimNumber(),
		Payload:     append([]byte(nil), payload...),
		CreatedAt:   time.Now().UTC(),
	}
	m.drafts[threadID] = draft
	return draft, nil
}

// Enqueue records an escalation snapshot.
func (m *MemoryStore) Enqueue(ctx context.Context, st *claim.ConversationState, reason string) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode escalation snapshot: %w", err)
	}
	var snapshot claim.ConversationState
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("failed to copy escalation snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations = append(m.escalations, Escalation{
		ThreadID:  st.ThreadID,
		Reason:    reason,
		State:     &snapshot,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Escalations returns a copy of the queued escalations.
func (m *MemoryStore) Escalations() []Escalation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Escalation(nil), m.escalations...)
}
