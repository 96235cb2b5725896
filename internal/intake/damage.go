package intake

import (
	"context"
	"strings"

	"fnol/internal/claim"
)

// damageAreaTerms maps user phrasing to canonical damage areas.
var damageAreaTerms = map[string]string{
	"front":         "front",
	"bumper":        "front",
	"hood":          "hood",
	"rear":          "rear",
	"back":          "rear",
	"trunk":         "rear",
	"driver side":   "driver_side",
	"driver's":      "driver_side",
	"passenger":     "passenger_side",
	"roof":          "roof",
	"windshield":    "windshield",
	"window":        "glass",
	"glass":         "glass",
	"mirror":        "glass",
	"undercarriage": "undercarriage",
	"underneath":    "undercarriage",
	"interior":      "interior",
	"inside":        "interior",
}

// severityEstimates are the rough repair figures behind the loss amount.
var severityEstimates = map[string]float64{
	"minor":    500,
	"moderate": 3000,
	"major":    10000,
	"total":    20000,
}

func (m *Machine) handleDamageEvidence(ctx context.Context, st *claim.ConversationState) error {
	if m.recordQuestionAnswer(st, claim.StateDamageEvidence) {
		return m.finishDamageEvidence(st)
	}

	switch st.Step {
	case "":
		st.Step = "awaiting_areas"
		respond(st, "Almost done. **Where is the vehicle damaged?** For example, \"front bumper and hood\".",
			"damage_areas", "damage.areas")
		return nil

	case "awaiting_areas":
		areas := parseDamageAreas(st.CurrentInput)
		glassOnly := len(areas) > 0
		for _, area := range areas {
			d := claim.Damage{Area: area}
			if area == "glass" || area == "windshield" {
				d.GlassOnly = true
			} else {
				glassOnly = false
			}
			st.Damages = append(st.Damages, d)
		}
		if glassOnly {
			st.AppendFlags("glass_only")
		}
		st.Step = "awaiting_severity"
		respond(st, "**How bad is the damage overall?**",
			"damage_severity", "damage.severity",
			claim.Option{Value: "minor", Label: "Minor (scratches, small dents)"},
			claim.Option{Value: "moderate", Label: "Moderate (needs body work)"},
			claim.Option{Value: "major", Label: "Major (significant damage)"},
			claim.Option{Value: "total", Label: "It looks totaled"},
		)
		return nil

	case "awaiting_severity":
		severity, ok := matchOption(st.CurrentInput, st.PendingOptions)
		if !ok {
			severity = "moderate"
		}
		for i := range st.Damages {
			if st.Damages[i].Severity == "" {
				st.Damages[i].Severity = severity
			}
		}
		st.LossAmount += severityEstimates[severity]
		st.SetField("damage.severity", severity)
		if severity == "total" {
			st.AppendFlags("potential_total_loss")
		}
		st.Step = "awaiting_property"
		respond(st, "**Was anything damaged besides the vehicles?** A fence, mailbox, building, that kind of thing.",
			"property_damage", "damage.other_property",
			claim.Option{Value: "yes", Label: "Yes"},
			claim.Option{Value: "no", Label: "No, just vehicles"},
		)
		return nil

	case "awaiting_property":
		yes, ok := parseYesNo(st.CurrentInput)
		if ok && yes {
			st.SetField("damage.other_damage_present", "true")
			st.Step = "awaiting_property_details"
			respond(st, "**What was damaged, and roughly how badly?**",
				"property_details", "damage.property_details")
			return nil
		}
		return m.askPhotos(st)

	case "awaiting_property_details":
		st.SetField("damage.property_details", strings.TrimSpace(st.CurrentInput))
		st.AppendFlags("property_damage")
		return m.askPhotos(st)

	case "awaiting_photos":
		yes, ok := parseYesNo(st.CurrentInput)
		if ok && yes {
			st.Evidence = append(st.Evidence,
				claim.EvidenceItem{Kind: "photo", Reference: "damage"},
				claim.EvidenceItem{Kind: "photo", Reference: "scene"},
			)
			st.SetField("damage.photos_promised", "true")
		}
		return m.finishDamageEvidence(st)
	}

	st.Step = ""
	return m.handleDamageEvidence(ctx, st)
}

func (m *Machine) askPhotos(st *claim.ConversationState) error {
	st.Step = "awaiting_photos"
	respond(st, "Photos speed things up a lot. **Can you take photos of the damage and the scene to upload later?**",
		"photos", "damage.photos_promised",
		claim.Option{Value: "yes", Label: "Yes, I'll take photos"},
		claim.Option{Value: "no", Label: "I can't right now"},
	)
	return nil
}

func (m *Machine) finishDamageEvidence(st *claim.ConversationState) error {
	m.refreshDetection(st)
	if m.askNextQuestion(st, claim.StateDamageEvidence) {
		return nil
	}
	return m.leaveModule(st, claim.StateDamageEvidence)
}

// parseDamageAreas pulls canonical damage areas from free text, keeping
// first-mention order. Unrecognized descriptions fall back to "other".
func parseDamageAreas(text string) []string {
	low := strings.ToLower(text)
	var areas []string
	seen := map[string]bool{}
	for _, term := range []string{
		"windshield", "driver side", "driver's", "passenger", "front", "bumper",
		"hood", "rear", "back", "trunk", "roof", "window", "glass", "mirror",
		"undercarriage", "underneath", "interior", "inside",
	} {
		if strings.Contains(low, term) {
			area := damageAreaTerms[term]
			if !seen[area] {
				seen[area] = true
				areas = append(areas, area)
			}
		}
	}
	if len(areas) == 0 && strings.TrimSpace(text) != "" {
		areas = append(areas, "other")
	}
	return areas
}
