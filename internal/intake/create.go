package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fnol/internal/ai"
	"fnol/internal/claim"
	"fnol/internal/logging"
	"fnol/internal/store"
)

// handleTriage evaluates the routing decision. No user interaction happens
// here; the result is recorded and the flow always continues into claim
// creation.
func (m *Machine) handleTriage(ctx context.Context, st *claim.ConversationState) error {
	m.refreshDetection(st)
	result, err := m.deps.Triage.Evaluate(st)
	if err != nil {
		// Routing is metadata; losing it must not lose the claim.
		logging.StoreError("triage evaluation failed thread=%s: %v", st.ThreadID, err)
		st.TriageResult = &claim.TriageResult{
			Route:       claim.RouteStandardReview,
			ReasonCodes: []string{"triage_error"},
			EvaluatedAt: time.Now().UTC(),
		}
	} else {
		logging.Triage("thread=%s route=%s reasons=%v", st.ThreadID, result.Route, result.ReasonCodes)
	}
	return st.TransitionTo(claim.StateClaimCreate, "triage evaluated")
}

func (m *Machine) handleClaimCreate(ctx context.Context, st *claim.ConversationState) error {
	switch st.Step {
	case "":
		st.Step = "awaiting_confirmation"
		respond(st, ai.ConfirmationText(st), "claim_confirmation", "claim_confirmed",
			claim.Option{Value: "yes", Label: "Yes, submit my claim"},
			claim.Option{Value: "edit", Label: "I need to change something"},
			claim.Option{Value: "cancel", Label: "Cancel, I'd rather talk to someone"},
		)
		return nil

	case "awaiting_confirmation":
		choice, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if choice == "" {
			if yes, ok := parseYesNo(st.CurrentInput); ok && yes {
				choice = "yes"
			}
		}
		switch choice {
		case "yes":
			return m.createDraft(ctx, st)
		case "cancel":
			st.Escalate("user requested a representative before submission")
			return nil
		default:
			st.Step = "awaiting_edit_section"
			respond(st, "Of course. **Which part needs a correction?**",
				"edit_section", "edit.section",
				claim.Option{Value: "incident", Label: "When/where it happened"},
				claim.Option{Value: "vehicle", Label: "Vehicle details"},
				claim.Option{Value: "parties", Label: "Other people involved"},
				claim.Option{Value: "injuries", Label: "Injuries"},
				claim.Option{Value: "damage", Label: "Damage description"},
			)
			return nil
		}

	case "awaiting_edit_section":
		section, ok := matchOption(st.CurrentInput, st.PendingOptions)
		if !ok {
			section = "incident"
		}
		st.SetField("edit.section", section)
		st.Step = "awaiting_edit_detail"
		respond(st, "**What should it say instead?**", "edit_detail", "edit.detail")
		return nil

	case "awaiting_edit_detail":
		section := st.Field("edit.section")
		correction := strings.TrimSpace(st.CurrentInput)
		st.SetField("edit."+section, correction)
		applyCorrection(st, section, correction)
		st.Step = "awaiting_confirmation"
		respond(st, "Updated.\n\n"+ai.ConfirmationText(st), "claim_confirmation", "claim_confirmed",
			claim.Option{Value: "yes", Label: "Yes, submit my claim"},
			claim.Option{Value: "edit", Label: "Something else needs a change"},
		)
		return nil

	}

	st.Step = ""
	return m.handleClaimCreate(ctx, st)
}

// applyCorrection folds an edit back into the structured record where the
// mapping is unambiguous; everything else stays in the edit field map for
// the adjuster.
func applyCorrection(st *claim.ConversationState, section, correction string) {
	switch section {
	case "incident":
		st.Incident.Description = correction
	case "damage":
		st.SetField("damage.correction", correction)
	}
}

// createDraft runs the idempotent draft creation: singleflight collapses
// concurrent attempts for the same thread, the store deduplicates on thread
// ID, and transient failures retry with exponential backoff.
func (m *Machine) createDraft(ctx context.Context, st *claim.ConversationState) error {
	payload, err := json.Marshal(claimPayload(st))
	if err != nil {
		return fmt.Errorf("failed to marshal claim payload: %w", err)
	}

	v, err, _ := m.creating.Do(st.ThreadID, func() (interface{}, error) {
		return m.createWithRetry(ctx, st.ThreadID, payload)
	})
	if err != nil {
		// Exhausting the retry budget is a hard stop: the claim goes to a
		// human, it does not loop back for another round.
		logging.StoreError("claim creation exhausted thread=%s: %v", st.ThreadID, err)
		st.Escalate("claim creation failed after repeated attempts")
		return nil
	}

	draft := v.(*store.ClaimDraft)
	st.ClaimDraftID = draft.ID
	st.ClaimNumber = draft.ClaimNumber
	logging.Flow("claim draft created thread=%s number=%s", st.ThreadID, draft.ClaimNumber)
	return st.TransitionTo(claim.StateNextSteps, "claim draft created")
}

func (m *Machine) createWithRetry(ctx context.Context, threadID string, payload []byte) (*store.ClaimDraft, error) {
	attempts := m.cfg.ClaimCreateMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(i-1)) * 200 * time.Millisecond):
			}
		}
		draft, err := m.deps.Claims.CreateOrGetDraft(ctx, threadID, payload)
		if err == nil {
			return draft, nil
		}
		lastErr = err
		logging.StoreError("claim creation attempt %d/%d failed thread=%s: %v", i+1, attempts, threadID, err)
	}
	return nil, lastErr
}

// claimPayload is the durable draft body: the structured facts without the
// conversational transcript.
func claimPayload(st *claim.ConversationState) map[string]interface{} {
	return map[string]interface{}{
		"thread_id":     st.ThreadID,
		"policy_match":  st.PolicyMatch,
		"incident":      st.Incident,
		"vehicles":      st.Vehicles,
		"parties":       st.Parties,
		"injuries":      st.Injuries,
		"damages":       st.Damages,
		"evidence":      st.Evidence,
		"police":        st.Police,
		"answers":       st.CollectedAnswers,
		"triage_result": st.TriageResult,
		"triage_flags":  st.TriageFlags,
		"loss_amount":   st.LossAmount,
		"ai_confidence": st.AIConfidence,
	}
}
