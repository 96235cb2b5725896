package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/claim"
)

func TestDefaultRegistryShipsAllScenarios(t *testing.T) {
	r := NewDefaultRegistry(nil)
	assert.Len(t, r.All(), 22)

	assert.Len(t, r.ByCategory(CategoryCollision), 7)
	assert.Len(t, r.ByCategory(CategoryWeather), 3)
	assert.Len(t, r.ByCategory(CategoryTheft), 2)
	assert.Len(t, r.ByCategory(CategoryOther), 10)

	for _, id := range []string{"two_vehicle", "hit_and_run", "vehicle_theft", "hail", "glass_only", "severe_injury", "police_dui"} {
		_, ok := r.Get(id)
		assert.True(t, ok, "missing playbook %s", id)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	p := &Definition{id: "dup", category: CategoryOther, priority: 1}
	require.NoError(t, r.Register(p))
	assert.Error(t, r.Register(p))
}

func TestRegisterEmptyIDFails(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&Definition{}))
}

func TestDetectOrdering(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "the other driver hit me and fled the scene, just drove off"

	active := r.Detect(st, 0.5)
	require.NotEmpty(t, active)
	assert.Equal(t, "hit_and_run", active[0].ID)

	// Confidence descending, then priority ascending, then ID.
	for i := 1; i < len(active); i++ {
		prev, cur := active[i-1], active[i]
		if prev.Confidence == cur.Confidence {
			if prev.Priority == cur.Priority {
				assert.Less(t, prev.ID, cur.ID)
			} else {
				assert.Less(t, prev.Priority, cur.Priority)
			}
		} else {
			assert.Greater(t, prev.Confidence, cur.Confidence)
		}
	}
}

func TestDetectThresholdMonotonic(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "theft"
	st.Incident.Description = "my car was stolen from the parking lot, it's just gone"

	low := r.Detect(st, 0.3)
	high := r.Detect(st, 0.7)
	assert.GreaterOrEqual(t, len(low), len(high))
	for _, a := range high {
		assert.GreaterOrEqual(t, a.Confidence, 0.7)
	}
}

func TestDetectRecomputesEachCall(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "someone fled the scene after hitting my car"

	first := r.Detect(st, 0.5)
	require.NotEmpty(t, first)

	// A rewritten narrative drops the stale activation.
	st.Incident.LossType = "glass"
	st.Incident.Description = "a rock hit my windshield and left a chip"
	second := r.Detect(st, 0.5)
	require.NotEmpty(t, second)
	assert.Equal(t, "glass_only", second[0].ID)
	for _, a := range second {
		assert.NotEqual(t, "hit_and_run", a.ID)
	}
}

func TestQuestionsForStateDedupAndOrder(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "hit and run, the driver took off before I could react"

	active := r.Detect(st, 0.5)
	qs := r.QuestionsForState(active, claim.StateThirdParties, st)
	require.NotEmpty(t, qs)

	seen := map[string]bool{}
	for i, q := range qs {
		assert.False(t, seen[q.ID], "duplicate question %s", q.ID)
		seen[q.ID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, q.Priority, qs[i-1].Priority)
		}
	}
	assert.True(t, seen["hit_run_vehicle_desc"])
	assert.True(t, seen["hit_run_police"])
}

func TestCollectFlagsDeduplicates(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "hit and run, they fled and I think the driver was drunk, police arrested him"
	st.Incident.DUISuspected = true

	active := r.Detect(st, 0.5)
	flags := r.CollectFlags(active, st)
	counts := map[string]int{}
	for _, f := range flags {
		counts[f]++
	}
	for f, n := range counts {
		assert.Equal(t, 1, n, "flag %s repeated", f)
	}
	assert.Contains(t, flags, "hit_and_run")
}

func TestRequiredStatesCanonicalOrder(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "a hit and run driver fled, and my neck hurts, going to the doctor"
	st.Injuries = []claim.Injury{{Person: "me", Severity: "minor"}}

	active := r.Detect(st, 0.5)
	states := r.RequiredStates(active)
	require.NotEmpty(t, states)

	// Canonical flow order regardless of activation order.
	pos := map[claim.State]int{}
	for i, s := range claim.StateOrder {
		pos[s] = i
	}
	for i := 1; i < len(states); i++ {
		assert.Less(t, pos[states[i-1]], pos[states[i]])
	}
}

func TestCollectEvidenceDeduplicates(t *testing.T) {
	r := NewDefaultRegistry(nil)
	st := claim.NewConversationState("t1", "")
	st.Incident.LossType = "collision"
	st.Incident.Description = "hit and run, the other car sped away"

	active := r.Detect(st, 0.5)
	evidence := r.CollectEvidence(active, st)
	seen := map[string]bool{}
	for _, ev := range evidence {
		key := ev.Type + ":" + ev.Description
		assert.False(t, seen[key])
		seen[key] = true
	}
}
