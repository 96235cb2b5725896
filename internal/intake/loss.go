package intake

import (
	"context"
	"fmt"
	"strings"

	"fnol/internal/claim"
	"fnol/internal/logging"
)

func (m *Machine) handleLossModule(ctx context.Context, st *claim.ConversationState) error {
	switch st.Step {
	case "":
		m.refreshDetection(st)
		if len(st.ActivePlaybooks) > 0 {
			lead := st.ActivePlaybooks[0]
			logging.Playbook("thread=%s lead scenario %s (%.2f), %d active",
				st.ThreadID, lead.ID, lead.Confidence, len(st.ActivePlaybooks))
		}
		st.Step = "awaiting_confirmation"
		respond(st, lossSummary(st), "loss_confirmation", "loss_confirmed",
			claim.Option{Value: "yes", Label: "Yes, that's right"},
			claim.Option{Value: "no", Label: "No, something's off"},
		)
		return nil

	case "awaiting_confirmation":
		yes, ok := parseYesNo(st.CurrentInput)
		if ok && yes {
			next := m.nextModuleState(st, claim.StateLossModule)
			return st.TransitionTo(next, "loss summary confirmed")
		}
		st.Step = "awaiting_correction"
		respond(st, "Let's fix that. **What should I correct?**",
			"loss_correction", "loss_correction",
			claim.Option{Value: "loss_type", Label: "The type of incident"},
			claim.Option{Value: "date", Label: "The date"},
			claim.Option{Value: "location", Label: "The location"},
			claim.Option{Value: "description", Label: "What happened"},
		)
		return nil

	case "awaiting_correction":
		choice, _ := matchOption(st.CurrentInput, st.PendingOptions)
		switch choice {
		case "loss_type":
			st.Step = "correcting_loss_type"
			respond(st, "**Which best describes the incident?**", "loss_type", "incident.loss_type", lossTypeOptions...)
		case "date":
			st.Step = "correcting_date"
			respond(st, "**What's the correct date?**", "incident_date", "incident.date")
		case "location":
			st.Step = "correcting_location"
			respond(st, "**Where did it actually happen?**", "incident_location", "incident.location")
		default:
			st.Step = "correcting_description"
			respond(st, "**Tell me again what happened.**", "incident_description", "incident.description")
		}
		return nil

	case "correcting_loss_type":
		if choice, ok := matchOption(st.CurrentInput, lossTypeOptions); ok {
			st.Incident.LossType = choice
		}
		return m.reconfirmLoss(st)
	case "correcting_date":
		if ents := m.extractInto(ctx, st, st.CurrentInput, nil); ents != nil && ents.Date != nil {
			st.Incident.OccurredAt = ents.Date.Value
		} else {
			st.Incident.OccurredAt = strings.TrimSpace(st.CurrentInput)
		}
		return m.reconfirmLoss(st)
	case "correcting_location":
		if loc := strings.TrimSpace(st.CurrentInput); loc != "" {
			st.Incident.Location = loc
		}
		return m.reconfirmLoss(st)
	case "correcting_description":
		if desc := strings.TrimSpace(st.CurrentInput); desc != "" {
			st.Incident.Description = desc
		}
		return m.reconfirmLoss(st)
	}

	st.Step = ""
	return m.handleLossModule(ctx, st)
}

// reconfirmLoss re-runs detection over the corrected facts and asks again.
func (m *Machine) reconfirmLoss(st *claim.ConversationState) error {
	m.refreshDetection(st)
	st.Step = "awaiting_confirmation"
	respond(st, lossSummary(st), "loss_confirmation", "loss_confirmed",
		claim.Option{Value: "yes", Label: "Yes, that's right"},
		claim.Option{Value: "no", Label: "No, something's off"},
	)
	return nil
}

func lossSummary(st *claim.ConversationState) string {
	kind := strings.ReplaceAll(st.Incident.LossType, "_", " ")
	if kind == "" {
		kind = "vehicle incident"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I have so far: you're reporting a **%s**", kind)
	if st.Incident.OccurredAt != "" {
		fmt.Fprintf(&b, " that occurred on **%s**", st.Incident.OccurredAt)
	}
	if st.Incident.Location != "" {
		fmt.Fprintf(&b, " at **%s**", st.Incident.Location)
	}
	b.WriteString(".\n\n**Is this correct?**")
	return b.String()
}
