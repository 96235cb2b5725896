package intake

import (
	"context"
	"fmt"
	"strings"

	"fnol/internal/ai"
	"fnol/internal/claim"
	"fnol/internal/logging"
)

// =============================================================================
// NEXT_STEPS
// =============================================================================

var finalOptions = []claim.Option{
	{Value: "done", Label: "I'm all set, thank you"},
	{Value: "documents", Label: "How do I submit documents?"},
	{Value: "timeline", Label: "What's the timeline?"},
	{Value: "questions", Label: "I have a question"},
}

var followUpOptions = []claim.Option{
	{Value: "done", Label: "Got it, I'm all set"},
	{Value: "questions", Label: "I have more questions"},
}

func (m *Machine) handleNextSteps(ctx context.Context, st *claim.ConversationState) error {
	switch st.Step {
	case "":
		st.Step = "awaiting_questions"
		respond(st, m.nextStepsMessage(ctx, st), "final_questions", "has_questions", finalOptions...)
		return nil

	case "awaiting_questions":
		choice, _ := matchOption(st.CurrentInput, finalOptions)
		low := strings.ToLower(st.CurrentInput)
		switch {
		case choice == "done" || strings.Contains(low, "thank") || strings.Contains(low, "all set"):
			st.Completed = true
			say(st, "You're welcome! Your claim has been submitted successfully and we'll be in touch soon. Take care and drive safely!")
			return nil
		case choice == "documents" || strings.Contains(low, "upload") || strings.Contains(low, "photo"):
			respond(st, documentInstructions(st), "final_questions", "has_questions", followUpOptions...)
			return nil
		case choice == "timeline" || strings.Contains(low, "when") || strings.Contains(low, "how long"):
			respond(st, timelineInfo(st), "final_questions", "has_questions", followUpOptions...)
			return nil
		case choice == "questions" || strings.Contains(low, "question"):
			st.Step = "specific_question"
			respond(st, "I'd be happy to help. **What would you like to know about your claim?**\n\n"+
				"You can also reach us directly:\n"+
				"• **Phone**: 1-800-CLAIMS (1-800-252-4670)\n"+
				"• **Hours**: Monday through Friday, 8am to 8pm EST",
				"specific_question", "question_text")
			return nil
		default:
			st.Completed = true
			say(st, "If anything else comes up, call us at 1-800-CLAIMS. Your claim is in and you'll hear from us soon. Thank you!")
			return nil
		}

	case "specific_question":
		low := strings.ToLower(st.CurrentInput)
		var answer string
		switch {
		case strings.Contains(low, "rental"):
			answer = "If your policy includes rental coverage, we'll arrange a rental car while yours is in the shop. " +
				"Your adjuster will confirm the coverage and daily limit when they reach out."
		case strings.Contains(low, "tow"):
			answer = "If the vehicle isn't drivable, we can arrange towing to an approved shop at no upfront cost to you. " +
				"Call 1-800-CLAIMS and reference your claim number."
		case strings.Contains(low, "repair") || strings.Contains(low, "shop"):
			answer = "You can use any licensed repair shop. Our network shops offer guaranteed workmanship and direct billing, " +
				"and your adjuster can share nearby options."
		default:
			answer = "That's a good question, and the answer depends on your specific policy. " +
				"One of our claims representatives can give you a precise answer at 1-800-CLAIMS (1-800-252-4670), " +
				"Monday through Friday, 8am to 8pm EST."
		}
		st.Step = "awaiting_questions"
		respond(st, answer+"\n\n**Anything else I can help with?**", "final_questions", "has_questions",
			claim.Option{Value: "done", Label: "No, I'm all set"},
			claim.Option{Value: "questions", Label: "One more question"},
		)
		return nil
	}

	st.Step = ""
	return m.handleNextSteps(ctx, st)
}

// nextStepsMessage is the claim confirmation: number, route-appropriate
// timeline, summary, and the evidence checklist.
func (m *Machine) nextStepsMessage(ctx context.Context, st *claim.ConversationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your claim has been submitted.\n\n**Claim number: %s**\nPlease keep this for your records.\n\n", st.ClaimNumber)

	b.WriteString(routeTimeline(st) + "\n\n")

	if summary := m.summarize(ctx, st); summary != "" {
		b.WriteString(summary + "\n\n")
	}
	if checklist := m.evidenceChecklist(st); checklist != "" {
		b.WriteString(checklist + "\n")
	}
	b.WriteString("**Is there anything else I can help you with?**")
	return b.String()
}

func (m *Machine) summarize(ctx context.Context, st *claim.ConversationState) string {
	summarizer := m.deps.Summarizer
	if summarizer == nil {
		summarizer = ai.NewTemplateSummarizer(nil)
	}
	sctx, cancel := m.aiContext(ctx)
	defer cancel()
	summary, err := summarizer.Summarize(sctx, st)
	if err != nil {
		logging.AIWarn("summarization failed thread=%s: %v", st.ThreadID, err)
		summary, err = ai.NewTemplateSummarizer(nil).Summarize(ctx, st)
		if err != nil {
			return ""
		}
	}
	return summary.Full
}

func routeTimeline(st *claim.ConversationState) string {
	route := ""
	if st.TriageResult != nil {
		route = st.TriageResult.Route
	}
	switch route {
	case claim.RouteAutoApprove:
		return "Good news: your claim qualifies for **fast processing**. Expect an approval decision within 1-2 business days."
	case claim.RouteFastTrack:
		return "Your claim is on our **fast track**. An adjuster will review it and you should hear back within 2-3 business days."
	case claim.RouteEscalateUrgent:
		return "Your claim has been marked **priority**. A specialist will contact you as soon as possible, typically within hours."
	default:
		return "An adjuster will be assigned to your claim and will contact you within **1 business day** to walk through next steps."
	}
}

func documentInstructions(st *claim.ConversationState) string {
	return fmt.Sprintf(
		"Submitting documents is easy:\n\n"+
			"1. **Online**: log in at claims.example-insurance.com and open claim %s\n"+
			"2. **Mobile app**: tap your claim, then \"Upload documents\"\n"+
			"3. **Email**: send files to claims@example-insurance.com with your claim number in the subject\n\n"+
			"Photos of the damage, the police report, and any repair estimates all help.",
		st.ClaimNumber)
}

func timelineInfo(st *claim.ConversationState) string {
	return routeTimeline(st) + "\n\nIn general:\n" +
		"• **Within 1 business day**: your adjuster makes contact\n" +
		"• **2-5 business days**: damage review and estimate\n" +
		"• **After approval**: repairs scheduled or payment issued"
}

// =============================================================================
// HANDOFF_ESCALATION
// =============================================================================

type escalationConfig struct {
	priority   string
	queue      string
	message    string
	slaMinutes int
}

var escalationConfigs = map[string]escalationConfig{
	"emergency": {
		priority: "critical",
		queue:    "emergency",
		message: "I understand this is an emergency. I'm connecting you with our emergency response team right now.\n\n" +
			"**If anyone needs immediate medical attention, please call 911.**\n\n" +
			"A specialist will be with you shortly. Please stay on the line.",
		slaMinutes: 2,
	},
	"severe_injury": {
		priority: "high",
		queue:    "injury_claims",
		message: "I'm so sorry to hear about the injuries. I'm connecting you with a specialized claims representative " +
			"who will make sure you get the care and support you need.\n\nPlease hold for just a moment.",
		slaMinutes: 5,
	},
	"siu_review": {
		priority: "normal",
		queue:    "review",
		message: "Thank you for providing all that information. I need to connect you with a claims specialist " +
			"who can complete the review of your claim.\n\nPlease hold while I transfer you.",
		slaMinutes: 15,
	},
	"technical_issue": {
		priority: "normal",
		queue:    "general",
		message: "I apologize for the technical difficulty. I'm connecting you with a representative who can " +
			"finish your claim.\n\nEverything you've told me so far has been saved.",
		slaMinutes: 10,
	},
	"policy_issue": {
		priority: "normal",
		queue:    "policy_services",
		message: "I'm having trouble locating your policy information, so let me connect you with our policy " +
			"services team.\n\nPlease hold for a moment.",
		slaMinutes: 10,
	},
	"user_request": {
		priority: "normal",
		queue:    "general",
		message: "No problem! I'll connect you with one of our claims representatives.\n\n" +
			"The current wait is around 5 minutes. Please hold while I transfer you.",
		slaMinutes: 10,
	},
}

func (m *Machine) handleHandoffEscalation(ctx context.Context, st *claim.ConversationState) error {
	switch st.Step {
	case "":
		kind := escalationType(st)
		cfg := escalationConfigs[kind]

		if err := m.deps.Escalations.Enqueue(ctx, st, st.EscalationReason); err != nil {
			// The conversation still ends at a human either way.
			logging.StoreError("failed to enqueue escalation thread=%s: %v", st.ThreadID, err)
		}
		logging.Flow("escalation thread=%s type=%s queue=%s priority=%s", st.ThreadID, kind, cfg.queue, cfg.priority)
		st.SetField("handoff.type", kind)
		st.SetField("handoff.queue", cfg.queue)

		if kind == "emergency" {
			st.Completed = true
			say(st, cfg.message)
			return nil
		}
		st.Step = "awaiting_hold"
		respond(st, cfg.message, "hold_confirmation", "will_hold",
			claim.Option{Value: "hold", Label: "I'll hold"},
			claim.Option{Value: "callback", Label: "Please call me back"},
		)
		return nil

	case "awaiting_hold":
		if choice, _ := matchOption(st.CurrentInput, st.PendingOptions); choice == "callback" {
			return m.askCallbackNumber(st)
		}
		st.Step = "holding"
		respond(st, "Thank you for holding. A representative will be with you shortly, and your place in the queue is being held.",
			"still_holding", "hold_status",
			claim.Option{Value: "holding", Label: "Still holding"},
			claim.Option{Value: "callback", Label: "Actually, call me back instead"},
		)
		return nil

	case "awaiting_callback":
		phone := extractPhoneDigits(st.CurrentInput)
		if phone == "" {
			respond(st, "Please share a valid 10-digit phone number where we can reach you.",
				"callback_number", "callback_phone")
			return nil
		}
		formatted := fmt.Sprintf("(%s) %s-%s", phone[:3], phone[3:6], phone[6:])
		st.SetField("handoff.callback_phone", formatted)
		st.Completed = true
		kind := st.Field("handoff.type")
		sla := escalationConfigs[kind].slaMinutes
		if sla == 0 {
			sla = 15
		}
		say(st, fmt.Sprintf(
			"Got it! We'll call you at %s.\n\n**Expected callback:** within %d minutes\n**Reference:** %s\n\n"+
				"If you don't hear from us in that window, please call 1-800-CLAIMS. Thank you for your patience, and take care!",
			formatted, sla, escalationReference(st)))
		return nil

	case "holding":
		if choice, _ := matchOption(st.CurrentInput, st.PendingOptions); choice == "callback" {
			return m.askCallbackNumber(st)
		}
		respond(st, "Thanks for continuing to hold, a representative should be with you very soon. We appreciate your patience!",
			"still_holding", "hold_status",
			claim.Option{Value: "holding", Label: "I'll keep holding"},
			claim.Option{Value: "callback", Label: "Call me back instead"},
		)
		return nil
	}

	st.Step = ""
	return m.handleHandoffEscalation(ctx, st)
}

func (m *Machine) askCallbackNumber(st *claim.ConversationState) error {
	st.Step = "awaiting_callback"
	respond(st, "We'll call you back as soon as a representative is free. **What's the best number to reach you?**",
		"callback_number", "callback_phone")
	return nil
}

// escalationType picks the queue from the strongest signal present.
func escalationType(st *claim.ConversationState) string {
	reason := strings.ToLower(st.EscalationReason)
	switch {
	case st.EmergencyDetected:
		return "emergency"
	case st.HasFlag("severe_injury") || strings.Contains(reason, "injury"):
		return "severe_injury"
	case st.HasFlag("siu_review_required") || strings.Contains(reason, "fraud") || strings.Contains(reason, "suspicious"):
		return "siu_review"
	case strings.Contains(reason, "technical") || strings.Contains(reason, "failed") || strings.Contains(reason, "error"):
		return "technical_issue"
	case strings.Contains(reason, "policy") || strings.Contains(reason, "coverage"):
		return "policy_issue"
	default:
		return "user_request"
	}
}

func escalationReference(st *claim.ConversationState) string {
	if st.ClaimNumber != "" {
		return st.ClaimNumber
	}
	if len(st.ClaimDraftID) >= 8 {
		return strings.ToUpper(st.ClaimDraftID[:8])
	}
	return strings.ToUpper(st.ThreadID)
}
