package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fnol/internal/claim"
)

// =============================================================================
// TEMPLATE SUMMARIZER
// =============================================================================

var lossTypeDescriptions = map[string]string{
	"collision": "vehicle collision",
	"theft":     "vehicle theft",
	"weather":   "weather-related damage",
	"glass":     "glass damage",
	"fire":      "fire damage",
	"vandalism": "vandalism",
}

// TemplateSummarizer renders deterministic factual summaries. An optional
// rephraser (typically Gemini-backed) may polish the prose; the template
// text is always the fallback.
type TemplateSummarizer struct {
	rephraser Summarizer
}

// NewTemplateSummarizer builds a summarizer with an optional rephraser.
func NewTemplateSummarizer(rephraser Summarizer) *TemplateSummarizer {
	return &TemplateSummarizer{rephraser: rephraser}
}

// Summarize never fails: a rephraser error falls back to the template.
func (s *TemplateSummarizer) Summarize(ctx context.Context, st *claim.ConversationState) (Summary, error) {
	sum := Summary{
		Incident: summarizeIncident(st),
		Vehicles: summarizeVehicles(st),
		Parties:  summarizeParties(st),
		Damages:  summarizeDamages(st),
	}
	sum.Full = strings.Join([]string{
		"**Incident:**", sum.Incident, "",
		"**Vehicles Involved:**", sum.Vehicles, "",
		"**Parties:**", sum.Parties, "",
		"**Damages:**", sum.Damages,
	}, "\n")
	sum.WordCount = len(strings.Fields(sum.Full))

	if s.rephraser != nil {
		if polished, err := s.rephraser.Summarize(ctx, st); err == nil && polished.Full != "" {
			polished.WordCount = len(strings.Fields(polished.Full))
			return polished, nil
		}
	}
	return sum, nil
}

func summarizeIncident(st *claim.ConversationState) string {
	lossDesc := lossTypeDescriptions[st.Incident.LossType]
	if lossDesc == "" {
		if st.Incident.LossType != "" {
			lossDesc = st.Incident.LossType
		} else {
			lossDesc = "incident"
		}
	}

	parts := []string{fmt.Sprintf("A %s occurred", lossDesc)}
	if st.Incident.OccurredAt != "" {
		if d, err := time.Parse("2006-01-02", st.Incident.OccurredAt); err == nil {
			parts = append(parts, "on "+d.Format("January 02, 2006"))
		} else {
			parts = append(parts, "on "+st.Incident.OccurredAt)
		}
	}
	if t := st.Field("incident.time"); t != "" {
		parts = append(parts, "at approximately "+t)
	}
	if st.Incident.Location != "" {
		parts = append(parts, "at "+st.Incident.Location)
	}

	out := strings.Join(parts, " ") + "."
	if st.Incident.Description != "" {
		out += " " + st.Incident.Description
	}
	return out
}

func summarizeVehicles(st *claim.ConversationState) string {
	if len(st.Vehicles) == 0 {
		return "No vehicle information provided."
	}
	var summaries []string
	for i, v := range st.Vehicles {
		label := "Other vehicle:"
		if i == 0 || v.IsInsured {
			label = "Insured vehicle:"
		}
		var desc []string
		if v.Year != "" {
			desc = append(desc, v.Year)
		}
		if v.Make != "" {
			desc = append(desc, v.Make)
		}
		if v.Model != "" {
			desc = append(desc, v.Model)
		}
		parts := []string{label}
		if len(desc) > 0 {
			parts = append(parts, strings.Join(desc, " "))
		} else {
			parts = append(parts, "details not provided")
		}
		if v.Drivable {
			parts = append(parts, "- drivable")
		} else {
			parts = append(parts, "- not drivable")
		}
		summaries = append(summaries, strings.Join(parts, " "))
	}
	return strings.Join(summaries, " ")
}

func summarizeParties(st *claim.ConversationState) string {
	if len(st.Parties) == 0 && len(st.Injuries) == 0 {
		return "No party information provided."
	}

	var insured, thirdParty []string
	passengers, witnesses := 0, 0
	for _, p := range st.Parties {
		name := p.Name
		if p.Unknown || name == "" {
			name = "Unknown party"
		}
		switch {
		case p.Role == "insured" || p.Role == "insured_driver":
			insured = append(insured, name)
		case p.Role == "third_party_driver":
			thirdParty = append(thirdParty, name)
		case strings.Contains(p.Role, "passenger"):
			passengers++
		case p.Role == "witness":
			witnesses++
		}
	}

	var parts []string
	if len(insured) > 0 {
		parts = append(parts, "Driver: "+strings.Join(insured, ", "))
	}
	if len(thirdParty) > 0 {
		label := "Other driver"
		if len(thirdParty) > 1 {
			label = "Other drivers"
		}
		parts = append(parts, label+": "+strings.Join(thirdParty, ", "))
	}
	if passengers > 0 {
		parts = append(parts, fmt.Sprintf("%d passenger(s)", passengers))
	}
	if witnesses > 0 {
		parts = append(parts, fmt.Sprintf("%d witness(es)", witnesses))
	}

	injuryCount := 0
	for _, inj := range st.Injuries {
		if inj.Severity != "" && inj.Severity != "none" {
			injuryCount++
		}
	}
	if injuryCount > 0 {
		parts = append(parts, fmt.Sprintf("Injuries reported: %d", injuryCount))
	} else {
		parts = append(parts, "No injuries reported")
	}
	return strings.Join(parts, ". ") + "."
}

func summarizeDamages(st *claim.ConversationState) string {
	if len(st.Damages) == 0 {
		return "Damage details pending assessment."
	}
	var parts []string
	seen := map[string]bool{}
	var areas []string
	for _, d := range st.Damages {
		if d.Area != "" && !seen[d.Area] {
			seen[d.Area] = true
			areas = append(areas, strings.ReplaceAll(d.Area, "_", " "))
		}
	}
	if len(areas) > 0 {
		parts = append(parts, "Vehicle damage areas: "+strings.Join(areas, ", "))
	}
	if st.LossAmount > 0 {
		parts = append(parts, fmt.Sprintf("Estimated damage: $%.2f", st.LossAmount))
	}
	if len(parts) == 0 {
		return "Damage details pending."
	}
	return strings.Join(parts, ". ") + "."
}

// ConfirmationText renders the pre-submission review prompt.
func ConfirmationText(st *claim.ConversationState) string {
	lossDesc := lossTypeDescriptions[st.Incident.LossType]
	if lossDesc == "" {
		lossDesc = "incident"
	}
	lines := []string{"Please review and confirm your claim details:", ""}
	lines = append(lines, "- Type: "+titleWord(lossDesc))
	if st.Incident.OccurredAt != "" {
		lines = append(lines, "- Date: "+st.Incident.OccurredAt)
	} else {
		lines = append(lines, "- Date: Not specified")
	}
	if st.Incident.Location != "" {
		lines = append(lines, "- Location: "+st.Incident.Location)
	}
	if len(st.Vehicles) > 0 {
		v := st.Vehicles[0]
		desc := strings.TrimSpace(strings.Join([]string{v.Year, v.Make, v.Model}, " "))
		if desc != "" {
			lines = append(lines, "- Your vehicle: "+desc)
		}
		if others := len(st.Vehicles) - 1; others > 0 {
			lines = append(lines, fmt.Sprintf("- Other vehicles involved: %d", others))
		}
	}
	injured := "No"
	for _, inj := range st.Injuries {
		if inj.Severity != "" && inj.Severity != "none" {
			injured = "Yes"
			break
		}
	}
	lines = append(lines, "- Injuries reported: "+injured)
	lines = append(lines, "", "Is this information correct?")
	return strings.Join(lines, "\n")
}
