package intake

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fnol/internal/claim"
	"fnol/internal/logging"
	"fnol/internal/store"
)

var (
	rePolicyNumber = regexp.MustCompile(`\b(?:AUTO[-\s]?\w{4,}|[A-Z]{2,4}[-\s]?\d{6,10})\b`)
	reDigits       = regexp.MustCompile(`\d`)
)

func extractPolicyNumber(text string) string {
	match := rePolicyNumber.FindString(strings.ToUpper(text))
	return strings.ReplaceAll(strings.ReplaceAll(match, " ", ""), "-", "")
}

func extractPhoneDigits(text string) string {
	digits := strings.Join(reDigits.FindAllString(text, -1), "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) == 10 {
		return digits
	}
	return ""
}

func (m *Machine) handleIdentityMatch(ctx context.Context, st *claim.ConversationState) error {
	switch st.Step {
	case "":
		// A policy number volunteered in the opening turns skips the menu.
		if pn := extractPolicyNumber(st.CurrentInput); pn != "" {
			return m.lookupByPolicyNumber(ctx, st, pn)
		}
		st.Step = "awaiting_id_method"
		respond(st,
			"Next, let's pull up your policy. **Do you have your policy number handy?**",
			"id_method", "id_method",
			claim.Option{Value: "policy", Label: "Yes, I have my policy number"},
			claim.Option{Value: "phone", Label: "No, look me up by phone number"},
			claim.Option{Value: "none", Label: "I'm not the policyholder"},
		)
		return nil

	case "awaiting_id_method":
		choice, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if pn := extractPolicyNumber(st.CurrentInput); pn != "" {
			return m.lookupByPolicyNumber(ctx, st, pn)
		}
		switch choice {
		case "policy":
			st.Step = "awaiting_policy_number"
			respond(st, "Great. **What's your policy number?** It's on your insurance card, usually starting with letters.",
				"policy_number", "policy_number")
		case "none":
			return m.enterGuestMode(st, "caller is not the policyholder")
		default:
			st.Step = "awaiting_phone"
			respond(st, "No problem. **What's the phone number on the policy?**",
				"policy_phone", "phone")
		}
		return nil

	case "awaiting_policy_number":
		pn := extractPolicyNumber(st.CurrentInput)
		if pn == "" {
			return m.recordIdentityMiss(st, "I couldn't read a policy number there. It looks like **AUTO-123456** or similar. Could you try again?",
				"policy_number", "policy_number")
		}
		return m.lookupByPolicyNumber(ctx, st, pn)

	case "awaiting_phone":
		phone := extractPhoneDigits(st.CurrentInput)
		if phone == "" {
			return m.recordIdentityMiss(st, "That doesn't look like a complete phone number. Please share the 10-digit number on the policy.",
				"policy_phone", "phone")
		}
		st.SetField("identity.phone", phone)
		st.Step = "awaiting_name"
		respond(st, "Thanks. **And the policyholder's last name?**", "policy_last_name", "last_name")
		return nil

	case "awaiting_name":
		name := strings.TrimSpace(st.CurrentInput)
		if name == "" {
			respond(st, "**What's the last name on the policy?**", "policy_last_name", "last_name")
			return nil
		}
		st.SetField("identity.last_name", name)
		st.Step = "awaiting_zip"
		respond(st, "Almost there. **What's the ZIP code on the policy?**", "policy_zip", "zip")
		return nil

	case "awaiting_zip":
		zip := strings.TrimSpace(st.CurrentInput)
		crit := store.MatchCriteria{
			Phone:    st.Field("identity.phone"),
			LastName: st.Field("identity.last_name"),
			ZIP:      zip,
		}
		match, err := m.deps.Policies.MatchPolicy(ctx, crit)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			logging.StoreError("policy lookup failed thread=%s: %v", st.ThreadID, err)
		}
		if match == nil {
			return m.recordIdentityMiss(st,
				"I couldn't find a policy with those details. Let's double-check: **what's the phone number on the policy?**",
				"policy_phone", "phone", "awaiting_phone")
		}
		return m.confirmMatch(st, match)

	case "awaiting_verification":
		yes, ok := parseYesNo(st.CurrentInput)
		if ok && yes {
			st.PolicyMatch.Verified = true
			logging.Flow("identity verified thread=%s policy=%s", st.ThreadID, st.PolicyMatch.PolicyNumber)
			return st.TransitionTo(claim.StateIncidentCore, "identity verified")
		}
		st.PolicyMatch = nil
		return m.recordIdentityMiss(st,
			"Sorry about that, let's try again. **What's your policy number?**",
			"policy_number", "policy_number", "awaiting_policy_number")
	}

	st.Step = ""
	return m.handleIdentityMatch(ctx, st)
}

// lookupByPolicyNumber resolves a policy number against the matcher and
// either asks for confirmation or counts the miss.
func (m *Machine) lookupByPolicyNumber(ctx context.Context, st *claim.ConversationState, pn string) error {
	match, err := m.deps.Policies.MatchPolicy(ctx, store.MatchCriteria{PolicyNumber: pn})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.StoreError("policy lookup failed thread=%s: %v", st.ThreadID, err)
	}
	if match == nil {
		return m.recordIdentityMiss(st,
			fmt.Sprintf("I couldn't find a policy matching **%s**. Could you double-check the number?", pn),
			"policy_number", "policy_number", "awaiting_policy_number")
	}
	return m.confirmMatch(st, match)
}

func (m *Machine) confirmMatch(st *claim.ConversationState, match *claim.PolicyMatch) error {
	st.PolicyMatch = match
	st.Step = "awaiting_verification"
	respond(st,
		fmt.Sprintf("I found a policy for **%s** (policy %s). **Is that you?**", match.HolderName, match.PolicyNumber),
		"identity_verification", "verified",
		claim.Option{Value: "yes", Label: "Yes, that's me"},
		claim.Option{Value: "no", Label: "No, that's not right"},
	)
	return nil
}

// recordIdentityMiss counts a failed verification attempt. Within the
// attempt budget it re-prompts; past it the conversation hands off to
// policy services rather than guessing at a match.
func (m *Machine) recordIdentityMiss(st *claim.ConversationState, prompt, question, field string, step ...string) error {
	st.IdentityAttempts++
	if st.IdentityAttempts >= m.maxIdentityAttempts() {
		logging.Flow("identity attempts exhausted thread=%s", st.ThreadID)
		st.Escalate("could not locate the caller's policy after repeated attempts")
		return nil
	}
	if len(step) > 0 {
		st.Step = step[0]
	}
	respond(st, prompt, question, field)
	return nil
}

func (m *Machine) enterGuestMode(st *claim.ConversationState, reason string) error {
	st.PolicyMatch = &claim.PolicyMatch{GuestMode: true}
	st.AppendFlags("guest_mode")
	logging.Flow("guest mode thread=%s: %s", st.ThreadID, reason)
	st.Response = "That's okay, we can still record the claim now and our team will link it " +
		"to the right policy afterward.\n\n"
	return st.TransitionTo(claim.StateIncidentCore, "guest mode: "+reason)
}

func (m *Machine) maxIdentityAttempts() int {
	if m.cfg.MaxIdentityAttempts > 0 {
		return m.cfg.MaxIdentityAttempts
	}
	return 3
}
