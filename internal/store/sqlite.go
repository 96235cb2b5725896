package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fnol/internal/claim"
	"fnol/internal/logging"
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore implements SessionStore, PolicyMatcher, ClaimStore, and
// EscalationQueue on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema.
func OpenSQLite(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc's driver serializes writes per connection.
	db.SetMaxOpenConns(1)

	if busyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logging.Store("sqlite store opened: path=%s", path)
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		thread_id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS claim_drafts (
		id TEXT PRIMARY KEY,
		thread_id TEXT UNIQUE NOT NULL,
		claim_number TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS policies (
		policy_number TEXT PRIMARY KEY,
		holder_name TEXT NOT NULL,
		holder_state TEXT NOT NULL,
		phone TEXT,
		last_name TEXT,
		zip TEXT
	);

	CREATE TABLE IF NOT EXISTS escalations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_escalations_thread ON escalations(thread_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Load fetches the state for a thread. Missing threads return ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*claim.ConversationState, error) {
	var version int64
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, state_json FROM sessions WHERE thread_id = ?", threadID,
	).Scan(&version, &stateJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var st claim.ConversationState
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	st.Version = version
	return &st, nil
}

// Save upserts the state guarded by its version. Version 0 inserts a new
// row; anything else must match the stored version exactly.
func (s *SQLiteStore) Save(ctx context.Context, st *claim.ConversationState) error {
	expected := st.Version
	st.Version = expected + 1
	st.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(st)
	if err != nil {
		st.Version = expected
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	if expected == 0 {
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO sessions (thread_id, version, state_json, updated_at) VALUES (?, ?, ?, ?)",
			st.ThreadID, st.Version, string(payload), st.UpdatedAt,
		)
		if err != nil {
			st.Version = expected
			if strings.Contains(err.Error(), "UNIQUE") {
				return fmt.Errorf("session %s: %w", st.ThreadID, ErrVersionConflict)
			}
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET version = ?, state_json = ?, updated_at = ? WHERE thread_id = ? AND version = ?",
		st.Version, string(payload), st.UpdatedAt, st.ThreadID, expected,
	)
	if err != nil {
		st.Version = expected
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		st.Version = expected
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		st.Version = expected
		return fmt.Errorf("session %s: %w", st.ThreadID, ErrVersionConflict)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// =============================================================================
// POLICY MATCHER
// =============================================================================

// SeedPolicy inserts or replaces a policy row for lookup.
func (s *SQLiteStore) SeedPolicy(ctx context.Context, policyNumber, holderName, holderState, phone, lastName, zip string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO policies (policy_number, holder_name, holder_state, phone, last_name, zip) VALUES (?, ?, ?, ?, ?, ?)",
		policyNumber, holderName, holderState, phone, lastName, zip,
	)
	if err != nil {
		return fmt.Errorf("failed to seed policy: %w", err)
	}
	return nil
}

// MatchPolicy resolves identity by policy number, or by phone + last name
// + ZIP when no policy number is supplied.
func (s *SQLiteStore) MatchPolicy(ctx context.Context, crit MatchCriteria) (*claim.PolicyMatch, error) {
	var row *sql.Row
	if crit.PolicyNumber != "" {
		row = s.db.QueryRowContext(ctx,
			"SELECT policy_number, holder_name, holder_state FROM policies WHERE REPLACE(REPLACE(UPPER(policy_number), '-', ''), ' ', '') = ?",
			NormalizePolicyNumber(crit.PolicyNumber),
		)
	} else if crit.Phone != "" && crit.LastName != "" && crit.ZIP != "" {
		row = s.db.QueryRowContext(ctx,
			"SELECT policy_number, holder_name, holder_state FROM policies WHERE phone = ? AND LOWER(last_name) = LOWER(?) AND zip = ?",
			crit.Phone, crit.LastName, crit.ZIP,
		)
	} else {
		return nil, fmt.Errorf("policy match: %w", ErrNotFound)
	}

	var m claim.PolicyMatch
	err := row.Scan(&m.PolicyNumber, &m.HolderName, &m.HolderState)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("policy match: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match policy: %w", err)
	}
	m.Verified = true
	return &m, nil
}

// =============================================================================
// CLAIM STORE
// =============================================================================

// CreateOrGetDraft inserts a claim draft for the thread, or returns the
// existing one. The UNIQUE constraint on thread_id makes the insert-then-
// select race-safe.
func (s *SQLiteStore) CreateOrGetDraft(ctx context.Context, threadID string, payload []byte) (*ClaimDraft, error) {
	draft := &ClaimDraft{
		ID:          uuid.NewString(),
		ThreadID:    threadID,
		ClaimNumber: NewClaimNumber(),
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO claim_drafts (id, thread_id, claim_number, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		draft.ID, draft.ThreadID, draft.ClaimNumber, string(payload), draft.CreatedAt,
	)
	if err == nil {
		logging.Store("claim draft created: thread=%s number=%s", threadID, draft.ClaimNumber)
		return draft, nil
	}
	if !strings.Contains(err.Error(), "UNIQUE") {
		return nil, fmt.Errorf("failed to create claim draft: %w", err)
	}

	// A draft already exists for this thread.
	existing := &ClaimDraft{ThreadID: threadID}
	var payloadStr string
	err = s.db.QueryRowContext(ctx,
		"SELECT id, claim_number, payload, created_at FROM claim_drafts WHERE thread_id = ?", threadID,
	).Scan(&existing.ID, &existing.ClaimNumber, &payloadStr, &existing.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing claim draft: %w", err)
	}
	existing.Payload = []byte(payloadStr)
	return existing, nil
}

// NewClaimNumber generates a human-readable claim number, FNOL-YYYY-NNNNNN.
func NewClaimNumber() string {
	seq := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("FNOL-%d-%s", time.Now().UTC().Year(), seq)
}

// =============================================================================
// ESCALATION QUEUE
// =============================================================================

// Enqueue appends the state snapshot to the escalation table.
func (s *SQLiteStore) Enqueue(ctx context.Context, st *claim.ConversationState, reason string) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode escalation snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO escalations (thread_id, reason, state_json) VALUES (?, ?, ?)",
		st.ThreadID, reason, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue escalation: %w", err)
	}
	logging.Store("escalation enqueued: thread=%s reason=%s", st.ThreadID, reason)
	return nil
}
