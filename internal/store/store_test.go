package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/claim"
)

// Everything below runs against both implementations; the contract is the
// same in memory and on disk.
type testStore interface {
	SessionStore
	PolicyMatcher
	ClaimStore
	EscalationQueue
	SeedPolicy(ctx context.Context, policyNumber, holderName, holderState, phone, lastName, zip string) error
}

func eachStore(t *testing.T, fn func(t *testing.T, s testStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "fnol.db"), time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestLoadMissingSession(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		_, err := s.Load(context.Background(), "no-such-thread")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		st := claim.NewConversationState("thread-1", "user-1")
		st.Incident.LossType = "collision"
		st.SetField("incident.time", "14:00")
		st.AddMessage("user", "I was in an accident")

		require.NoError(t, s.Save(ctx, st))
		assert.Equal(t, int64(1), st.Version)

		loaded, err := s.Load(ctx, "thread-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.Version)
		if diff := cmp.Diff(st.Incident, loaded.Incident); diff != "" {
			t.Errorf("incident changed across save/load (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(st.Messages, loaded.Messages); diff != "" {
			t.Errorf("transcript changed across save/load (-want +got):\n%s", diff)
		}
	})
}

func TestSaveDetectsVersionConflict(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		st := claim.NewConversationState("thread-1", "")
		require.NoError(t, s.Save(ctx, st))

		// A second writer loads the same version and wins the race.
		other, err := s.Load(ctx, "thread-1")
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, other))

		err = s.Save(ctx, st)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestSaveStaleVersionOnFreshThread(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		st := claim.NewConversationState("thread-1", "")
		st.Version = 7
		err := s.Save(context.Background(), st)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestDeleteSession(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		st := claim.NewConversationState("thread-1", "")
		require.NoError(t, s.Save(ctx, st))
		require.NoError(t, s.Delete(ctx, "thread-1"))

		_, err := s.Load(ctx, "thread-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMatchPolicy(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		require.NoError(t, s.SeedPolicy(ctx, "AUTO-123456", "John Smith", "TX", "5125550123", "Smith", "78701"))

		t.Run("by policy number", func(t *testing.T) {
			m, err := s.MatchPolicy(ctx, MatchCriteria{PolicyNumber: "AUTO-123456"})
			require.NoError(t, err)
			assert.Equal(t, "John Smith", m.HolderName)
			assert.Equal(t, "TX", m.HolderState)
			assert.True(t, m.Verified)
		})

		t.Run("policy number is case insensitive", func(t *testing.T) {
			m, err := s.MatchPolicy(ctx, MatchCriteria{PolicyNumber: " auto-123456 "})
			require.NoError(t, err)
			assert.Equal(t, "AUTO-123456", m.PolicyNumber)
		})

		t.Run("policy number ignores dashes and spaces", func(t *testing.T) {
			m, err := s.MatchPolicy(ctx, MatchCriteria{PolicyNumber: "AUTO123456"})
			require.NoError(t, err)
			assert.Equal(t, "AUTO-123456", m.PolicyNumber)
		})

		t.Run("by phone name zip", func(t *testing.T) {
			m, err := s.MatchPolicy(ctx, MatchCriteria{Phone: "5125550123", LastName: "smith", ZIP: "78701"})
			require.NoError(t, err)
			assert.Equal(t, "AUTO-123456", m.PolicyNumber)
		})

		t.Run("partial criteria never match", func(t *testing.T) {
			_, err := s.MatchPolicy(ctx, MatchCriteria{Phone: "5125550123", LastName: "Smith"})
			assert.ErrorIs(t, err, ErrNotFound)
		})

		t.Run("unknown policy", func(t *testing.T) {
			_, err := s.MatchPolicy(ctx, MatchCriteria{PolicyNumber: "AUTO-999999"})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	})
}

func TestCreateOrGetDraftIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		first, err := s.CreateOrGetDraft(ctx, "thread-1", []byte(`{"loss":"collision"}`))
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.NotEmpty(t, first.ClaimNumber)

		// Retries and duplicate submissions land on the same draft.
		second, err := s.CreateOrGetDraft(ctx, "thread-1", []byte(`{"loss":"changed"}`))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.ClaimNumber, second.ClaimNumber)
		assert.Equal(t, first.Payload, second.Payload)

		other, err := s.CreateOrGetDraft(ctx, "thread-2", []byte(`{}`))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})
}

func TestCreateOrGetDraftConcurrent(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		const workers = 8

		results := make(chan *ClaimDraft, workers)
		errs := make(chan error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := s.CreateOrGetDraft(ctx, "thread-1", []byte(`{"loss":"collision"}`))
				if err != nil {
					errs <- err
					return
				}
				results <- d
			}()
		}
		wg.Wait()
		close(results)
		close(errs)

		for err := range errs {
			t.Fatalf("concurrent draft creation failed: %v", err)
		}
		numbers := map[string]bool{}
		for d := range results {
			numbers[d.ClaimNumber] = true
		}
		assert.Len(t, numbers, 1, "racing creators must land on one draft")
	})
}

func TestEnqueueEscalation(t *testing.T) {
	eachStore(t, func(t *testing.T, s testStore) {
		st := claim.NewConversationState("thread-1", "")
		st.Escalate("severe injury reported")
		require.NoError(t, s.Enqueue(context.Background(), st, "severe injury reported"))
	})
}

func TestEscalationSnapshotIsDetached(t *testing.T) {
	m := NewMemoryStore()
	st := claim.NewConversationState("thread-1", "")
	require.NoError(t, m.Enqueue(context.Background(), st, "test"))

	st.Incident.LossType = "collision"
	escs := m.Escalations()
	require.Len(t, escs, 1)
	assert.Empty(t, escs[0].State.Incident.LossType)
	assert.Equal(t, "test", escs[0].Reason)
}

func TestNewClaimNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^FNOL-\d{4}-[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := NewClaimNumber()
		assert.Regexp(t, re, n)
		assert.False(t, seen[n], "claim number %s repeated", n)
		seen[n] = true
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fnol.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, time.Second)
	require.NoError(t, err)
	st := claim.NewConversationState("thread-1", "")
	st.Incident.LossType = "theft"
	require.NoError(t, s.Save(ctx, st))
	draft, err := s.CreateOrGetDraft(ctx, "thread-1", []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path, time.Second)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "theft", loaded.Incident.LossType)

	again, err := s2.CreateOrGetDraft(ctx, "thread-1", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID)
}

func TestStoreErrorsAreSentinels(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrVersionConflict))
	assert.NotNil(t, ErrNotFound)
	assert.NotNil(t, ErrVersionConflict)
}
