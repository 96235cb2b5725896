package intake

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fnol/internal/ai"
	"fnol/internal/claim"
	"fnol/internal/logging"
)

var lossTypeOptions = []claim.Option{
	{Value: "collision", Label: "Collision with another vehicle or object"},
	{Value: "theft", Label: "Theft or break-in"},
	{Value: "weather", Label: "Weather damage (hail, flood, wind)"},
	{Value: "vandalism", Label: "Vandalism"},
	{Value: "glass", Label: "Glass damage only"},
	{Value: "fire", Label: "Fire"},
	{Value: "other", Label: "Something else"},
}

func (m *Machine) handleIncidentCore(ctx context.Context, st *claim.ConversationState) error {
	if m.recordQuestionAnswer(st, claim.StateIncidentCore) {
		return m.finishIncidentCore(st)
	}

	switch st.Step {
	case "":
		// Mine the conversation so far before asking anything.
		m.extractInto(ctx, st, st.CurrentInput, nil)
		if st.Incident.LossType != "" {
			st.Step = "awaiting_date"
			respond(st, "**When did this happen?** A date like 03/15 or \"yesterday\" works.",
				"incident_date", "incident.date")
			return nil
		}
		st.Step = "awaiting_loss_type"
		respond(st, "Now let's talk about what happened. **Which best describes the incident?**",
			"loss_type", "incident.loss_type", lossTypeOptions...)
		return nil

	case "awaiting_loss_type":
		choice, ok := matchOption(st.CurrentInput, lossTypeOptions)
		if !ok {
			// Fall back to extraction over free text.
			if ents := m.extractInto(ctx, st, st.CurrentInput, []string{"loss_type"}); ents != nil && ents.LossType != nil {
				choice, ok = ents.LossType.Value, true
			}
		}
		if !ok {
			respond(st, "I didn't catch that. **Which of these best describes what happened?**",
				"loss_type", "incident.loss_type", lossTypeOptions...)
			return nil
		}
		st.Incident.LossType = choice
		st.Step = "awaiting_date"
		respond(st, "**When did this happen?**", "incident_date", "incident.date")
		return nil

	case "awaiting_date":
		ents := m.extractInto(ctx, st, st.CurrentInput, nil)
		date := st.Incident.OccurredAt
		if ents != nil && ents.Date != nil {
			date = ents.Date.Value
		}
		if date == "" {
			respond(st, "I need a date to file the claim. **What day did this happen?** For example, 03/15/2026 or \"last Tuesday\".",
				"incident_date", "incident.date")
			return nil
		}
		if parsed, err := time.Parse("2006-01-02", date); err == nil && parsed.After(time.Now()) {
			respond(st, "That date is in the future. **Could you double-check when the incident happened?**",
				"incident_date", "incident.date")
			return nil
		}
		st.Incident.OccurredAt = date
		st.Step = "awaiting_time"
		respond(st, "**About what time?** Say \"skip\" if you're not sure.", "incident_time", "incident.time")
		return nil

	case "awaiting_time":
		input := strings.ToLower(strings.TrimSpace(st.CurrentInput))
		if input != "" && input != "skip" && !strings.Contains(input, "not sure") && !strings.Contains(input, "don't know") {
			if ents := m.extractInto(ctx, st, st.CurrentInput, nil); ents != nil && ents.Time != nil {
				st.SetField("incident.time", ents.Time.Value)
			} else {
				st.SetField("incident.time", strings.TrimSpace(st.CurrentInput))
			}
		}
		st.Step = "awaiting_location"
		respond(st, "**Where did this happen?** A street address, intersection, or landmark is fine.",
			"incident_location", "incident.location")
		return nil

	case "awaiting_location":
		loc := strings.TrimSpace(st.CurrentInput)
		if len(loc) < 5 {
			respond(st, "Could you give me a bit more detail on the location? An intersection or address helps us a lot.",
				"incident_location", "incident.location")
			return nil
		}
		st.Incident.Location = loc
		if ents := m.extractInto(ctx, st, st.CurrentInput, []string{"location"}); ents != nil && ents.State != nil {
			st.Incident.LocationState = ents.State.Value
		}
		st.Step = "awaiting_description"
		respond(st, "**Tell me what happened, in your own words.** A couple of sentences is perfect.",
			"incident_description", "incident.description")
		return nil

	case "awaiting_description":
		desc := strings.TrimSpace(st.CurrentInput)
		if len(desc) < 20 {
			respond(st, "Could you add a little more detail? What you were doing, what happened, and what was damaged.",
				"incident_description", "incident.description")
			return nil
		}
		st.Incident.Description = desc
		m.extractInto(ctx, st, desc, nil)
		return m.askSubtype(st)

	case "awaiting_vehicle_count":
		n := 2
		if v, ok := matchOption(st.CurrentInput, st.PendingOptions); ok {
			n, _ = strconv.Atoi(v)
		} else if f := strings.Fields(st.CurrentInput); len(f) > 0 {
			if parsed, err := strconv.Atoi(f[0]); err == nil {
				n = parsed
			}
		}
		if n < 1 {
			n = 1
		}
		st.Incident.VehicleCount = n
		st.Step = "awaiting_other_party"
		respond(st, "**Did the other party stay at the scene?**",
			"other_party", "collision.other_party_present",
			claim.Option{Value: "yes", Label: "Yes, we exchanged information"},
			claim.Option{Value: "no", Label: "No, they left the scene"},
			claim.Option{Value: "na", Label: "There was no other party"},
		)
		return nil

	case "awaiting_other_party":
		choice, _ := matchOption(st.CurrentInput, st.PendingOptions)
		if choice == "no" {
			st.SetField("collision.other_party_fled", "true")
			st.Parties = append(st.Parties, claim.Party{Role: "driver", Fled: true, Unknown: true})
		}
		return m.finishIncidentCore(st)

	case "awaiting_weather_type":
		if w, ok := matchOption(st.CurrentInput, st.PendingOptions); ok {
			st.Incident.WeatherType = w
		} else {
			st.Incident.WeatherType = strings.ToLower(strings.TrimSpace(st.CurrentInput))
		}
		return m.finishIncidentCore(st)

	case "awaiting_theft_type":
		if t, ok := matchOption(st.CurrentInput, st.PendingOptions); ok {
			st.Incident.TheftType = t
		}
		return m.finishIncidentCore(st)
	}

	st.Step = ""
	return m.handleIncidentCore(ctx, st)
}

// askSubtype asks the loss-type specific follow-up, or moves on when the
// loss type has none.
func (m *Machine) askSubtype(st *claim.ConversationState) error {
	switch st.Incident.LossType {
	case "collision":
		st.Step = "awaiting_vehicle_count"
		respond(st, "**How many vehicles were involved, including yours?**",
			"vehicle_count", "incident.vehicle_count",
			claim.Option{Value: "1", Label: "Just mine"},
			claim.Option{Value: "2", Label: "Two vehicles"},
			claim.Option{Value: "3", Label: "Three or more"},
		)
		return nil
	case "weather":
		st.Step = "awaiting_weather_type"
		respond(st, "**What kind of weather caused the damage?**",
			"weather_type", "incident.weather_type",
			claim.Option{Value: "hail", Label: "Hail"},
			claim.Option{Value: "flood", Label: "Flood or standing water"},
			claim.Option{Value: "wind", Label: "Wind or falling tree"},
			claim.Option{Value: "other", Label: "Other"},
		)
		return nil
	case "theft":
		st.Step = "awaiting_theft_type"
		respond(st, "**Was the vehicle itself stolen, or was it broken into?**",
			"theft_type", "incident.theft_type",
			claim.Option{Value: "vehicle_stolen", Label: "The vehicle was stolen"},
			claim.Option{Value: "break_in", Label: "Broken into / attempted theft"},
		)
		return nil
	}
	return m.finishIncidentCore(st)
}

// finishIncidentCore drains playbook questions bound to this state, then
// advances once the core facts are in.
func (m *Machine) finishIncidentCore(st *claim.ConversationState) error {
	// Early detection pass so scenario questions for this state can fire.
	m.refreshDetection(st)
	if m.askNextQuestion(st, claim.StateIncidentCore) {
		return nil
	}
	if st.Incident.OccurredAt == "" || st.Incident.Location == "" || st.Incident.Description == "" {
		// A follow-up path skipped a core fact; ask for the first gap.
		switch {
		case st.Incident.OccurredAt == "":
			st.Step = "awaiting_date"
			respond(st, "**When did this happen?**", "incident_date", "incident.date")
		case st.Incident.Location == "":
			st.Step = "awaiting_location"
			respond(st, "**Where did this happen?**", "incident_location", "incident.location")
		default:
			st.Step = "awaiting_description"
			respond(st, "**Tell me what happened, in your own words.**", "incident_description", "incident.description")
		}
		return nil
	}
	return st.TransitionTo(claim.StateLossModule, "incident core complete")
}

// extractInto runs the entity extractor over text and folds high-signal
// results into the incident record without overwriting confirmed fields.
// Extraction failure is advisory; the flow keeps asking directly.
func (m *Machine) extractInto(ctx context.Context, st *claim.ConversationState, text string, targets []string) *ai.Entities {
	if m.deps.Extractor == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	ectx, cancel := m.aiContext(ctx)
	defer cancel()
	ents, err := m.deps.Extractor.Extract(ectx, text, targets)
	if err != nil {
		logging.AIWarn("extraction failed thread=%s: %v", st.ThreadID, err)
		return nil
	}
	if ents == nil || !ents.HasAny() {
		return ents
	}
	if ents.Date != nil && st.Incident.OccurredAt == "" {
		st.Incident.OccurredAt = ents.Date.Value
		st.ObserveConfidence(ents.Date.Confidence)
	}
	if ents.LossType != nil && st.Incident.LossType == "" {
		st.Incident.LossType = ents.LossType.Value
		st.ObserveConfidence(ents.LossType.Confidence)
	}
	if ents.State != nil && st.Incident.LocationState == "" {
		st.Incident.LocationState = ents.State.Value
	}
	if ents.Phone != nil && st.Field("contact.phone") == "" {
		st.SetField("contact.phone", ents.Phone.Value)
	}
	if ents.Email != nil && st.Field("contact.email") == "" {
		st.SetField("contact.email", ents.Email.Value)
	}
	return ents
}
