package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/claim"
)

func stateWith(fn func(st *claim.ConversationState)) *claim.ConversationState {
	st := claim.NewConversationState("thread-1", "")
	if fn != nil {
		fn(st)
	}
	return st
}

func TestDetectScores(t *testing.T) {
	tests := []struct {
		name     string
		playbook string
		setup    func(st *claim.ConversationState)
		want     float64
	}{
		{
			name:     "hit and run from loss type and keyword",
			playbook: "hit_and_run",
			setup: func(st *claim.ConversationState) {
				st.Incident.LossType = "collision"
				st.Incident.Description = "the other car fled the scene"
			},
			want: 0.9,
		},
		{
			name:     "hit and run explicit field",
			playbook: "hit_and_run",
			setup: func(st *claim.ConversationState) {
				st.SetField("incident.hit_and_run", "yes")
			},
			want: 0.8,
		},
		{
			name:     "hit and run fled party adds half",
			playbook: "hit_and_run",
			setup: func(st *claim.ConversationState) {
				st.Parties = append(st.Parties, claim.Party{Role: "tp_driver", Fled: true})
			},
			want: 0.5,
		},
		{
			name:     "towing keyword only",
			playbook: "towing",
			setup: func(st *claim.ConversationState) {
				st.Incident.Description = "my car was damaged during tow to the yard"
			},
			want: 0.7,
		},
		{
			name:     "towing silent without keywords",
			playbook: "towing",
			setup: func(st *claim.ConversationState) {
				st.Incident.Description = "I hit a deer on the highway"
			},
			want: 0,
		},
		{
			name:     "out of state mismatch plus keyword clamps to one",
			playbook: "out_of_state",
			setup: func(st *claim.ConversationState) {
				st.PolicyMatch = &claim.PolicyMatch{HolderState: "TX"}
				st.Incident.LocationState = "CA"
				st.Incident.Description = "we were on a road trip when it happened"
			},
			want: 1.0,
		},
		{
			name:     "out of state needs a policy state to compare",
			playbook: "out_of_state",
			setup: func(st *claim.ConversationState) {
				st.Incident.LocationState = "CA"
			},
			want: 0,
		},
		{
			name:     "glass only full signal clamps to one",
			playbook: "glass_only",
			setup: func(st *claim.ConversationState) {
				st.Incident.LossType = "glass"
				st.Incident.Description = "a rock hit my windshield"
				st.Damages = append(st.Damages, claim.Damage{Area: "windshield", GlassOnly: true})
			},
			want: 1.0,
		},
		{
			name:     "two vehicle backs off on fled language",
			playbook: "two_vehicle",
			setup: func(st *claim.ConversationState) {
				st.Incident.LossType = "collision"
				st.Incident.Description = "the other driver hit me and fled"
			},
			want: 0.3,
		},
		{
			name:     "rental ownership beats keywords",
			playbook: "rental",
			setup: func(st *claim.ConversationState) {
				st.Vehicles = append(st.Vehicles, claim.Vehicle{Ownership: "rental"})
			},
			want: 0.8,
		},
		{
			name:     "commercial use at time of loss clamps to one",
			playbook: "commercial_rideshare",
			setup: func(st *claim.ConversationState) {
				st.Incident.Description = "I was driving for uber"
				st.Vehicles = append(st.Vehicles, claim.Vehicle{UseAtTime: "rideshare"})
			},
			want: 1.0,
		},
	}

	r := NewDefaultRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := r.Get(tt.playbook)
			require.True(t, ok)
			st := stateWith(tt.setup)
			assert.InDelta(t, tt.want, p.Detect(st), 0.001)
		})
	}
}

func TestHitAndRunFlags(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("hit_and_run")
	require.True(t, ok)

	st := stateWith(nil)
	flags := p.TriageFlags(st)
	assert.Contains(t, flags, "hit_and_run")
	assert.Contains(t, flags, "police_report_pending")
	assert.NotContains(t, flags, "police_report_filed")

	st.Police.ReportFiled = true
	flags = p.TriageFlags(st)
	assert.Contains(t, flags, "police_report_filed")
	assert.NotContains(t, flags, "police_report_pending")
}

func TestTowingFlags(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("towing")
	require.True(t, ok)

	st := stateWith(nil)
	assert.Equal(t, []string{"towing_incident"}, p.TriageFlags(st))

	st.SetField("incident.tow_type", "damage")
	assert.Contains(t, p.TriageFlags(st), "subrogation_potential")
}

func TestOutOfStateFlags(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("out_of_state")
	require.True(t, ok)

	st := stateWith(nil)
	assert.Equal(t, []string{"out_of_state"}, p.TriageFlags(st))

	st.SetField("incident.out_of_state_reason", "moving")
	assert.Contains(t, p.TriageFlags(st), "potential_address_change")
}

func TestGlassOnlyValidation(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("glass_only")
	require.True(t, ok)

	st := stateWith(nil)
	res := p.Validate(st)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)

	st.SetField("damage.other_damage_present", "yes")
	res = p.Validate(st)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "glass-only")
}

func TestQuestionsCarryPlaybookID(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("glass_only")
	require.True(t, ok)

	st := stateWith(nil)
	qs := p.Questions(claim.StateIncidentCore, st)
	require.NotEmpty(t, qs)
	for _, q := range qs {
		assert.Equal(t, "glass_only", q.Playbook)
	}
}

func TestQuestionsFilterByState(t *testing.T) {
	r := NewDefaultRegistry(nil)
	p, ok := r.Get("glass_only")
	require.True(t, ok)

	st := stateWith(nil)
	for _, q := range p.Questions(claim.StateDamageEvidence, st) {
		assert.Equal(t, claim.StateDamageEvidence, q.State)
	}
}
