// Package triage routes completed intakes through a fixed precedence chain.
// The decision is metadata for downstream handling: it never blocks claim
// draft creation.
package triage

import (
	"fmt"
	"time"

	"fnol/internal/claim"
	"fnol/internal/config"
	"fnol/internal/logging"
)

// Decision is the outcome of one triage evaluation.
type Decision struct {
	Route       string
	ReasonCodes []string
	Flags       []string
	EvaluatedAt time.Time
}

// Engine evaluates aggregated intake signals against the precedence chain.
// The chain is first-match: safety-critical flags, then amount/confidence
// review gates, then moderate-risk flags, then auto-approval.
type Engine struct {
	autoApprovalLimit   float64
	confidenceThreshold float64
	safetyCritical      map[string]bool
	moderateRisk        map[string]bool
}

// NewEngine builds an engine from injected triage config.
func NewEngine(cfg config.TriageConfig) *Engine {
	e := &Engine{
		autoApprovalLimit:   cfg.AutoApprovalLimit,
		confidenceThreshold: cfg.ConfidenceThreshold,
		safetyCritical:      make(map[string]bool, len(cfg.SafetyCriticalFlags)),
		moderateRisk:        make(map[string]bool, len(cfg.ModerateRiskFlags)),
	}
	for _, f := range cfg.SafetyCriticalFlags {
		e.safetyCritical[f] = true
	}
	for _, f := range cfg.ModerateRiskFlags {
		e.moderateRisk[f] = true
	}
	return e
}

// Decide runs the precedence chain. It is pure and total: every input maps
// to exactly one route with at least one reason code.
func (e *Engine) Decide(flags []string, lossAmount, aiConfidence float64) Decision {
	d := Decision{
		Flags:       append([]string(nil), flags...),
		EvaluatedAt: time.Now().UTC(),
	}

	// 1. Safety-critical flags escalate unconditionally.
	for _, f := range flags {
		if e.safetyCritical[f] {
			d.Route = claim.RouteEscalateUrgent
			d.ReasonCodes = append(d.ReasonCodes, "safety_flag:"+f)
		}
	}
	if d.Route != "" {
		logging.Triage("route=%s reasons=%v", d.Route, d.ReasonCodes)
		return d
	}

	// 2. Amount and confidence gates require adjuster review.
	if lossAmount > e.autoApprovalLimit {
		d.ReasonCodes = append(d.ReasonCodes, "amount_exceeds_limit")
	}
	if aiConfidence < e.confidenceThreshold {
		d.ReasonCodes = append(d.ReasonCodes, "low_ai_confidence")
	}
	if len(d.ReasonCodes) > 0 {
		d.Route = claim.RouteStandardReview
		logging.Triage("route=%s reasons=%v", d.Route, d.ReasonCodes)
		return d
	}

	// 3. Moderate-risk flags get the expedited human lane.
	for _, f := range flags {
		if e.moderateRisk[f] {
			d.Route = claim.RouteFastTrack
			d.ReasonCodes = append(d.ReasonCodes, "risk_flag:"+f)
		}
	}
	if d.Route != "" {
		logging.Triage("route=%s reasons=%v", d.Route, d.ReasonCodes)
		return d
	}

	// 4. Nothing matched: straight-through processing.
	d.Route = claim.RouteAutoApprove
	d.ReasonCodes = []string{"auto_approval_criteria_met"}
	logging.Triage("route=%s reasons=%v", d.Route, d.ReasonCodes)
	return d
}

// Evaluate decides for a full conversation state, summing damage estimates
// into the loss amount and recording the result on the state. A result
// already present is returned unchanged.
func (e *Engine) Evaluate(st *claim.ConversationState) (*claim.TriageResult, error) {
	if st == nil {
		return nil, fmt.Errorf("triage: nil state")
	}
	if st.TriageResult != nil {
		return st.TriageResult, nil
	}
	d := e.Decide(st.TriageFlags, st.LossAmount, st.AIConfidence)
	st.TriageResult = &claim.TriageResult{
		Route:       d.Route,
		ReasonCodes: d.ReasonCodes,
		Flags:       d.Flags,
		EvaluatedAt: d.EvaluatedAt,
	}
	return st.TriageResult, nil
}
