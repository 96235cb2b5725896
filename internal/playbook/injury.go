package playbook

import (
	"strings"

	"fnol/internal/claim"
	"fnol/internal/config"
)

// newInjury covers minor to moderate injury claims.
func newInjury(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "injury",
		category:       CategoryOther,
		priority:       25,
		requiredStates: []claim.State{claim.StateInjuries},
		weights:        w,
		keywords: []string{
			"hurt", "injured", "injury", "pain", "hospital", "doctor",
			"medical", "treatment", "sore", "ache", "whiplash",
		},
		staticQs: []claim.Question{
			{
				ID: "injury_treatment_sought", State: claim.StateInjuries, Priority: 30,
				Text:  "Has medical treatment been sought?",
				Field: "injuries.treatment_sought", Required: true,
				Options: []claim.Option{
					{Value: "yes_er", Label: "Yes, at emergency room"},
					{Value: "yes_urgent", Label: "Yes, at urgent care"},
					{Value: "yes_doctor", Label: "Yes, at doctor's office"},
					{Value: "planned", Label: "Planning to see a doctor"},
					{Value: "no", Label: "No treatment needed"},
				},
			},
			{
				ID: "injury_ongoing", State: claim.StateInjuries, Priority: 35,
				Text:  "Is treatment ongoing?",
				Field: "injuries.treatment_ongoing", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticEvidence: []Evidence{
			{Type: "document", Description: "Medical records/bills"},
			{Type: "document", Description: "Police report"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		n := 0
		for _, inj := range st.Injuries {
			if inj.Severity != "" && inj.Severity != "none" {
				n++
			}
		}
		if n > 0 {
			score += d.weight("injury_present", 0.8)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.3)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"injury_claim", "adjuster_required"}
		if fieldTrue(st, "injuries.treatment_ongoing") {
			flags = append(flags, "treatment_ongoing")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if len(st.Injuries) == 0 {
			return warnResult("Injury details not fully captured")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newSevereInjury covers severe or fatal injuries. Highest priority of any
// playbook since these must reach a human immediately.
func newSevereInjury(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "severe_injury",
		category:       CategoryOther,
		priority:       5,
		requiredStates: []claim.State{claim.StateInjuries},
		weights:        w,
		keywords: []string{
			"fatal", "fatality", "death", "died", "dead", "critical",
			"hospitalized", "admitted", "icu", "intensive care", "surgery",
			"life-threatening", "serious injury", "severe",
		},
		staticQs: []claim.Question{
			{
				ID: "severe_hospital_name", State: claim.StateInjuries, Priority: 10,
				Text:  "Which hospital is the injured person at?",
				Field: "injuries.hospital_name", Required: true,
			},
			{
				ID: "severe_family_contact", State: claim.StateInjuries, Priority: 15,
				Text:     "Is there a family member or representative we should contact?",
				HelpText: "Name and phone number",
				Field:    "injuries.family_contact",
			},
		},
		staticEvidence: []Evidence{
			{Type: "document", Description: "Police report"},
			{Type: "document", Description: "Medical records"},
			{Type: "document", Description: "Hospital admission records"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		for _, inj := range st.Injuries {
			switch {
			case inj.Fatal || inj.Severity == "fatal":
				score += d.weight("fatal", 1.0)
			case inj.Severity == "severe":
				score += d.weight("severe", 0.8)
			case inj.Hospitalized:
				score += d.weight("admitted", 0.7)
			}
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.5)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"severe_injury", "emergency_priority", "immediate_escalation"}
		for _, inj := range st.Injuries {
			if inj.Fatal || inj.Severity == "fatal" {
				flags = append(flags, "fatality")
				break
			}
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		severe := false
		for _, inj := range st.Injuries {
			if inj.Fatal || inj.Severity == "severe" || inj.Severity == "fatal" {
				severe = true
				break
			}
		}
		if severe && st.Field("injuries.hospital_name") == "" {
			return warnResult("Hospital information recommended for severe injuries")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newPoliceDUI covers DUI, arrests, and citations. Very high priority since
// the answers carry coverage implications.
func newPoliceDUI(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "police_dui",
		category:       CategoryOther,
		priority:       10,
		requiredStates: []claim.State{claim.StateIncidentCore},
		weights:        w,
		keywords: []string{
			"dui", "dwi", "drunk", "drinking", "intoxicated", "arrested",
			"arrest", "citation", "ticket", "police", "charged", "breathalyzer",
			"blood test", "impaired", "under the influence",
		},
		staticQs: []claim.Question{
			{
				ID: "dui_arrest", State: claim.StateIncidentCore, Priority: 20,
				Text:  "Was anyone arrested at the scene?",
				Field: "police_info.arrest_made", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "dui_charges", State: claim.StateIncidentCore, Priority: 25,
				Text:  "What charges, if any, were filed?",
				Field: "police_info.charges", Required: true,
				Options: []claim.Option{
					{Value: "dui", Label: "DUI/DWI"},
					{Value: "reckless", Label: "Reckless driving"},
					{Value: "hit_run", Label: "Hit and run"},
					{Value: "speeding", Label: "Speeding"},
					{Value: "other", Label: "Other"},
					{Value: "none", Label: "No charges filed"},
					{Value: "pending", Label: "Charges pending"},
				},
			},
			{
				ID: "dui_who", State: claim.StateIncidentCore, Priority: 28,
				Text:  "Who was involved in the arrest or citation?",
				Field: "police_info.charged_party", Required: true,
				Options: []claim.Option{
					{Value: "insured", Label: "The insured driver"},
					{Value: "other_driver", Label: "The other driver"},
					{Value: "both", Label: "Both drivers"},
					{Value: "passenger", Label: "A passenger"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "document", Description: "Police report (required)"},
			{Type: "document", Description: "Citation/arrest documents"},
			{Type: "document", Description: "Court documents (if applicable)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.DUISuspected {
			score += d.weight("dui_suspected", 0.9)
		}
		if st.Police.ArrestMade || fieldTrue(st, "police_info.arrest_made") {
			score += d.weight("arrest", 0.5)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.6)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"police_involvement"}
		charges := st.Field("police_info.charges")
		if strings.Contains(charges, "dui") {
			flags = append(flags, "dui_involvement")
			if st.Field("police_info.charged_party") == "insured" {
				flags = append(flags, "insured_dui", "siu_review_required", "coverage_issue")
			}
		}
		if st.Police.ArrestMade || fieldTrue(st, "police_info.arrest_made") {
			flags = append(flags, "arrest_made")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if strings.Contains(st.Field("police_info.charges"), "dui") &&
			st.Field("police_info.charged_party") == "insured" {
			return warnResult("DUI by insured driver may affect coverage")
		}
		return ValidationResult{Valid: true}
	}
	return d
}
