// Package store defines the persistence contracts for intake sessions,
// claim drafts, policy lookup, and the escalation queue, with SQLite and
// in-memory implementations.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"fnol/internal/claim"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned when a save carries a stale version.
	// The caller saw a state that another writer has since replaced.
	ErrVersionConflict = errors.New("store: version conflict")
)

// =============================================================================
// CONTRACTS
// =============================================================================

// SessionStore persists conversation state with optimistic concurrency.
// Save compares the state's Version against the stored row and increments
// it on success; a mismatch returns ErrVersionConflict.
type SessionStore interface {
	Load(ctx context.Context, threadID string) (*claim.ConversationState, error)
	Save(ctx context.Context, st *claim.ConversationState) error
	Delete(ctx context.Context, threadID string) error
}

// NormalizePolicyNumber canonicalizes a policy number for comparison:
// uppercase with spaces and dashes removed, so "auto-123456" and
// "AUTO 123456" both resolve the same policy.
func NormalizePolicyNumber(pn string) string {
	pn = strings.ToUpper(strings.TrimSpace(pn))
	return strings.NewReplacer("-", "", " ", "").Replace(pn)
}

// MatchCriteria identifies a policyholder by policy number or by the
// phone + last name + ZIP triple.
type MatchCriteria struct {
	PolicyNumber string
	Phone        string
	LastName     string
	ZIP          string
}

// PolicyMatcher resolves identity against the policy book. A criteria set
// that matches nothing returns ErrNotFound.
type PolicyMatcher interface {
	MatchPolicy(ctx context.Context, crit MatchCriteria) (*claim.PolicyMatch, error)
}

// ClaimDraft is a persisted claim submission, at most one per thread.
type ClaimDraft struct {
	ID          string
	ThreadID    string
	ClaimNumber string
	Payload     []byte
	CreatedAt   time.Time
}

// ClaimStore creates claim drafts idempotently: repeated calls for the
// same thread return the first-created draft.
type ClaimStore interface {
	CreateOrGetDraft(ctx context.Context, threadID string, payload []byte) (*ClaimDraft, error)
}

// EscalationQueue records handoffs to human adjusters with the full state
// snapshot.
type EscalationQueue interface {
	Enqueue(ctx context.Context, st *claim.ConversationState, reason string) error
}
