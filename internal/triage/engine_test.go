package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/claim"
	"fnol/internal/config"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultConfig().Triage)
}

func TestDecidePrecedenceChain(t *testing.T) {
	tests := []struct {
		name       string
		flags      []string
		amount     float64
		confidence float64
		route      string
		reasons    []string
	}{
		{
			name:       "clean claim auto approves",
			flags:      nil,
			amount:     500,
			confidence: 0.95,
			route:      claim.RouteAutoApprove,
			reasons:    []string{"auto_approval_criteria_met"},
		},
		{
			name:       "safety flag escalates regardless of amount",
			flags:      []string{"severe_injury"},
			amount:     100,
			confidence: 1.0,
			route:      claim.RouteEscalateUrgent,
			reasons:    []string{"safety_flag:severe_injury"},
		},
		{
			name:       "all safety flags collected",
			flags:      []string{"severe_injury", "dui_involvement"},
			amount:     100,
			confidence: 1.0,
			route:      claim.RouteEscalateUrgent,
			reasons:    []string{"safety_flag:severe_injury", "safety_flag:dui_involvement"},
		},
		{
			name:       "safety outranks amount gate",
			flags:      []string{"fire_damage"},
			amount:     100000,
			confidence: 0.1,
			route:      claim.RouteEscalateUrgent,
			reasons:    []string{"safety_flag:fire_damage"},
		},
		{
			name:       "amount over limit needs review",
			flags:      nil,
			amount:     30000,
			confidence: 0.95,
			route:      claim.RouteStandardReview,
			reasons:    []string{"amount_exceeds_limit"},
		},
		{
			name:       "low confidence needs review",
			flags:      nil,
			amount:     500,
			confidence: 0.5,
			route:      claim.RouteStandardReview,
			reasons:    []string{"low_ai_confidence"},
		},
		{
			name:       "amount and confidence reasons co-occur",
			flags:      nil,
			amount:     30000,
			confidence: 0.5,
			route:      claim.RouteStandardReview,
			reasons:    []string{"amount_exceeds_limit", "low_ai_confidence"},
		},
		{
			name:       "review gate outranks moderate flags",
			flags:      []string{"hit_and_run"},
			amount:     30000,
			confidence: 0.95,
			route:      claim.RouteStandardReview,
			reasons:    []string{"amount_exceeds_limit"},
		},
		{
			name:       "moderate flag fast tracks",
			flags:      []string{"hit_and_run"},
			amount:     500,
			confidence: 0.95,
			route:      claim.RouteFastTrack,
			reasons:    []string{"risk_flag:hit_and_run"},
		},
		{
			name:       "all moderate flags collected",
			flags:      []string{"hit_and_run", "uninsured_motorist"},
			amount:     500,
			confidence: 0.95,
			route:      claim.RouteFastTrack,
			reasons:    []string{"risk_flag:hit_and_run", "risk_flag:uninsured_motorist"},
		},
		{
			name:       "unknown flags do not block auto approval",
			flags:      []string{"photos_promised", "glass_only"},
			amount:     400,
			confidence: 1.0,
			route:      claim.RouteAutoApprove,
			reasons:    []string{"auto_approval_criteria_met"},
		},
		{
			name:       "amount exactly at limit still auto approves",
			flags:      nil,
			amount:     25000,
			confidence: 0.95,
			route:      claim.RouteAutoApprove,
			reasons:    []string{"auto_approval_criteria_met"},
		},
		{
			name:       "confidence exactly at threshold passes",
			flags:      nil,
			amount:     500,
			confidence: 0.7,
			route:      claim.RouteAutoApprove,
			reasons:    []string{"auto_approval_criteria_met"},
		},
	}

	engine := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(tt.flags, tt.amount, tt.confidence)
			assert.Equal(t, tt.route, d.Route)
			assert.Equal(t, tt.reasons, d.ReasonCodes)
			assert.False(t, d.EvaluatedAt.IsZero())
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	engine := newTestEngine()
	flags := []string{"hit_and_run", "vehicle_not_drivable"}
	first := engine.Decide(flags, 12000, 0.9)
	for i := 0; i < 10; i++ {
		d := engine.Decide(flags, 12000, 0.9)
		assert.Equal(t, first.Route, d.Route)
		assert.Equal(t, first.ReasonCodes, d.ReasonCodes)
	}
}

func TestEvaluateRecordsOnce(t *testing.T) {
	engine := newTestEngine()
	st := claim.NewConversationState("t1", "")
	st.AppendFlags("hit_and_run")
	st.LossAmount = 3000

	first, err := engine.Evaluate(st)
	require.NoError(t, err)
	assert.Equal(t, claim.RouteFastTrack, first.Route)
	assert.Same(t, first, st.TriageResult)

	// Later signals never change a recorded decision.
	st.AppendFlags("severe_injury")
	again, err := engine.Evaluate(st)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, claim.RouteFastTrack, again.Route)
}

func TestEvaluateNilState(t *testing.T) {
	_, err := newTestEngine().Evaluate(nil)
	require.Error(t, err)
}
