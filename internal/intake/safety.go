package intake

import (
	"context"
	"strings"

	"fnol/internal/claim"
)

// Phrases that mean emergency services are needed right now, checked on
// every safety-check input regardless of step.
var emergencyKeywords = []string{
	"trapped", "on fire", "fire!", "can't move", "cant move",
	"unconscious", "not breathing", "bleeding heavily", "chest pain",
	"help us", "send help", "dying", "dead",
}

// Phrases that escalate an injury answer to severe.
var severeInjuryKeywords = []string{
	"ambulance", "hospital", "unconscious", "bleeding heavily",
	"can't breathe", "cant breathe", "chest pain", "dying", "dead", "fatal",
}

func (m *Machine) handleSafetyCheck(ctx context.Context, st *claim.ConversationState) error {
	input := strings.ToLower(st.CurrentInput)

	if hasAnyPhrase(input, emergencyKeywords) {
		st.EmergencyDetected = true
		st.Escalate("emergency services needed")
		return nil
	}

	switch st.Step {
	case "", stepAwaitingSafety:
		if st.Step == "" {
			st.Step = stepAwaitingSafety
			respond(st, "Before we begin: **are you and everyone involved currently in a safe location?**",
				"safety_confirmation", "safety_confirmed",
				claim.Option{Value: "yes", Label: "Yes, everyone is safe"},
				claim.Option{Value: "no", Label: "No, we need help"},
			)
			return nil
		}
		safe, ok := parseYesNo(st.CurrentInput)
		if !ok {
			respond(st, "I want to make sure everyone is okay first. Are you in a safe location right now?",
				"safety_confirmation", "safety_confirmed")
			return nil
		}
		if !safe {
			st.Step = "unsafe_guidance"
			respond(st,
				"Your safety comes first. If you're in or near traffic, please move "+
					"to a safe spot away from the road if you can do so safely. "+
					"**If anyone is in danger, call 911 now.**\n\n"+
					"Let me know once you're in a safe place.",
				"safety_confirmation", "safety_confirmed")
			return nil
		}
		st.Step = "awaiting_injury_check"
		respond(st, "I'm glad everyone is safe. **Was anyone injured in the incident?**",
			"injury_check", "anyone_injured",
			claim.Option{Value: "no", Label: "No injuries"},
			claim.Option{Value: "minor", Label: "Minor injuries"},
			claim.Option{Value: "serious", Label: "Someone is seriously hurt"},
		)
		return nil

	case "unsafe_guidance":
		// Any reply after the guidance moves on to the injury check; the
		// emergency keyword scan above already caught the bad cases.
		st.Step = "awaiting_injury_check"
		respond(st, "Thank you. **Was anyone injured in the incident?**",
			"injury_check", "anyone_injured",
			claim.Option{Value: "no", Label: "No injuries"},
			claim.Option{Value: "minor", Label: "Minor injuries"},
			claim.Option{Value: "serious", Label: "Someone is seriously hurt"},
		)
		return nil

	case "awaiting_injury_check":
		if hasAnyPhrase(input, severeInjuryKeywords) || strings.Contains(input, "serious") || strings.Contains(input, "severe") {
			st.AppendFlags("severe_injury", "emergency_priority")
			st.Step = "awaiting_emergency_services"
			respond(st, "I'm sorry to hear that. **Has 911 been called?**",
				"emergency_services", "emergency_services_called",
				claim.Option{Value: "yes", Label: "Yes, help is on the way"},
				claim.Option{Value: "no", Label: "Not yet"},
			)
			return nil
		}
		if injured, ok := parseYesNo(st.CurrentInput); ok && injured || strings.Contains(input, "minor") {
			st.Injuries = append(st.Injuries, claim.Injury{Severity: "minor"})
			st.AppendFlags("injury_claim")
		}
		st.SafetyConfirmed = true
		return st.TransitionTo(claim.StateIdentityMatch, "safety confirmed")

	case "awaiting_emergency_services":
		st.EmergencyDetected = true
		st.Escalate("severe injury reported during safety check")
		return nil
	}

	// Unknown step, restart the check rather than guess.
	st.Step = ""
	return m.handleSafetyCheck(ctx, st)
}

func hasAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
