package intake

import (
	"context"
	"strings"

	"fnol/internal/claim"
)

func (m *Machine) handleThirdParties(ctx context.Context, st *claim.ConversationState) error {
	if m.recordQuestionAnswer(st, claim.StateThirdParties) {
		return m.finishThirdParties(st)
	}

	switch st.Step {
	case "":
		if playbookActive(st, "hit_and_run") || st.Field("collision.other_party_fled") == "true" {
			st.Step = "awaiting_fleeing_desc"
			respond(st, "**Can you describe the vehicle that left the scene?** Color, make, plate, anything you remember.",
				"fleeing_vehicle", "third_party.fleeing_description")
			return nil
		}
		st.Step = "awaiting_other_name"
		respond(st, "Let's get the other party's details. **What's the other driver's name?** Say \"unknown\" if you didn't get it.",
			"other_driver_name", "third_party.name")
		return nil

	case "awaiting_fleeing_desc":
		desc := strings.TrimSpace(st.CurrentInput)
		st.SetField("third_party.fleeing_description", desc)
		if !hasFledParty(st) {
			st.Parties = append(st.Parties, claim.Party{Role: "driver", Fled: true, Unknown: true})
		}
		return m.askWitnesses(st)

	case "awaiting_other_name":
		name := strings.TrimSpace(st.CurrentInput)
		if strings.EqualFold(name, "unknown") || name == "" {
			st.Parties = append(st.Parties, claim.Party{Role: "driver", Unknown: true})
			return m.askWitnesses(st)
		}
		st.Parties = append(st.Parties, claim.Party{Name: name, Role: "driver"})
		st.Step = "awaiting_other_contact"
		respond(st, "**Do you have a phone number for them?** Say \"no\" if not.",
			"other_driver_contact", "third_party.contact")
		return nil

	case "awaiting_other_contact":
		if phone := extractPhoneDigits(st.CurrentInput); phone != "" && len(st.Parties) > 0 {
			st.Parties[len(st.Parties)-1].Contact = phone
		}
		st.Step = "awaiting_other_insurance"
		respond(st, "**Did they share their insurance information?**",
			"other_driver_insurance", "third_party.insurance",
			claim.Option{Value: "yes", Label: "Yes, I have it"},
			claim.Option{Value: "no_insurance", Label: "They said they're uninsured"},
			claim.Option{Value: "unknown", Label: "I don't know"},
		)
		return nil

	case "awaiting_other_insurance":
		choice, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if len(st.Parties) > 0 {
			st.Parties[len(st.Parties)-1].InsuranceStatus = choice
		}
		if choice == "no_insurance" {
			st.AppendFlags("uninsured_motorist")
		}
		return m.askWitnesses(st)

	case "awaiting_witnesses":
		yes, ok := parseYesNo(st.CurrentInput)
		if ok && yes {
			st.Step = "awaiting_witness_info"
			respond(st, "**Could you share their names, or how many witnesses there were?**",
				"witness_info", "third_party.witnesses")
			return nil
		}
		return m.finishThirdParties(st)

	case "awaiting_witness_info":
		info := strings.TrimSpace(st.CurrentInput)
		st.SetField("third_party.witnesses", info)
		for _, name := range strings.Split(info, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				st.Parties = append(st.Parties, claim.Party{Name: name, Role: "witness"})
			}
		}
		return m.finishThirdParties(st)
	}

	st.Step = ""
	return m.handleThirdParties(ctx, st)
}

func (m *Machine) askWitnesses(st *claim.ConversationState) error {
	st.Step = "awaiting_witnesses"
	respond(st, "**Did anyone witness what happened?**",
		"witnesses", "third_party.has_witnesses",
		claim.Option{Value: "yes", Label: "Yes"},
		claim.Option{Value: "no", Label: "No"},
	)
	return nil
}

func (m *Machine) finishThirdParties(st *claim.ConversationState) error {
	m.refreshDetection(st)
	if m.askNextQuestion(st, claim.StateThirdParties) {
		return nil
	}
	return m.leaveModule(st, claim.StateThirdParties)
}

func hasFledParty(st *claim.ConversationState) bool {
	for _, p := range st.Parties {
		if p.Fled {
			return true
		}
	}
	return false
}
