package intake

import (
	"context"
	"fmt"
	"strings"

	"fnol/internal/claim"
)

func (m *Machine) handleInjuries(ctx context.Context, st *claim.ConversationState) error {
	if m.recordQuestionAnswer(st, claim.StateInjuries) {
		return m.finishInjuries(st)
	}

	switch st.Step {
	case "":
		st.Step = "awaiting_any"
		respond(st, "**Was anyone injured, even slightly?** Soreness that shows up later counts too.",
			"any_injuries", "injuries.any",
			claim.Option{Value: "yes", Label: "Yes"},
			claim.Option{Value: "no", Label: "No, everyone's fine"},
		)
		return nil

	case "awaiting_any":
		injured, ok := parseYesNo(st.CurrentInput)
		if ok && !injured {
			return m.finishInjuries(st)
		}
		st.Step = "awaiting_who"
		respond(st, "I'm sorry to hear that. **Who was injured?** You can say \"me\", a name, or \"the other driver\".",
			"injured_who", "injuries.person")
		return nil

	case "awaiting_who":
		person := strings.TrimSpace(st.CurrentInput)
		low := strings.ToLower(person)
		if low == "me" || low == "myself" || strings.Contains(low, "i was") {
			person = "policyholder"
		}
		st.Injuries = append(st.Injuries, claim.Injury{Person: person})
		st.Step = "awaiting_severity"
		respond(st, "**How serious are their injuries?**",
			"injury_severity", "injuries.severity",
			claim.Option{Value: "minor", Label: "Minor (bruises, soreness)"},
			claim.Option{Value: "moderate", Label: "Moderate (needed a doctor)"},
			claim.Option{Value: "severe", Label: "Severe (hospitalized)"},
			claim.Option{Value: "fatal", Label: "Someone passed away"},
		)
		return nil

	case "awaiting_severity":
		severity, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if severity == "" {
			if hasAnyPhrase(strings.ToLower(st.CurrentInput), severeInjuryKeywords) {
				severity = "severe"
			} else {
				severity = "minor"
			}
		}
		idx := len(st.Injuries) - 1
		st.Injuries[idx].Severity = severity
		if severity == "fatal" {
			st.Injuries[idx].Fatal = true
		}
		if severity == "severe" || severity == "fatal" {
			st.Injuries[idx].Hospitalized = true
			st.AppendFlags("severe_injury", "emergency_priority", "immediate_escalation")
			st.Escalate(fmt.Sprintf("%s injury reported", severity))
			return nil
		}
		st.AppendFlags("injury_claim")
		st.Step = "awaiting_treatment"
		respond(st, "**What treatment did they receive, if any?**",
			"injury_treatment", "injuries.treatment",
			claim.Option{Value: "none", Label: "None so far"},
			claim.Option{Value: "first_aid", Label: "First aid at the scene"},
			claim.Option{Value: "doctor", Label: "Saw a doctor / urgent care"},
			claim.Option{Value: "planned", Label: "Planning to get checked"},
		)
		return nil

	case "awaiting_treatment":
		treatment, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if treatment == "" {
			treatment = strings.TrimSpace(st.CurrentInput)
		}
		if idx := len(st.Injuries) - 1; idx >= 0 {
			st.Injuries[idx].TreatmentGiven = treatment
		}
		st.Step = "awaiting_more"
		respond(st, "**Was anyone else injured?**",
			"more_injuries", "injuries.more",
			claim.Option{Value: "yes", Label: "Yes, someone else"},
			claim.Option{Value: "no", Label: "No, that's everyone"},
		)
		return nil

	case "awaiting_more":
		more, ok := parseYesNo(st.CurrentInput)
		if ok && more {
			st.Step = "awaiting_who"
			respond(st, "**Who else was injured?**", "injured_who", "injuries.person")
			return nil
		}
		return m.finishInjuries(st)
	}

	st.Step = ""
	return m.handleInjuries(ctx, st)
}

func (m *Machine) finishInjuries(st *claim.ConversationState) error {
	m.refreshDetection(st)
	if m.askNextQuestion(st, claim.StateInjuries) {
		return nil
	}
	return m.leaveModule(st, claim.StateInjuries)
}
