package playbook

import (
	"strings"

	"fnol/internal/claim"
	"fnol/internal/config"
)

// newVandalism covers intentional third-party damage.
func newVandalism(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "vandalism",
		category:       CategoryOther,
		priority:       50,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"vandalized", "vandalism", "keyed", "scratched", "spray paint",
			"graffiti", "slashed", "tires slashed", "smashed", "broken into",
			"egged", "dented", "intentional", "someone damaged",
		},
		staticQs: []claim.Question{
			{
				ID: "vandalism_type", State: claim.StateIncidentCore, Priority: 30,
				Text:  "What type of vandalism occurred?",
				Field: "incident.vandalism_type", Required: true,
				Options: []claim.Option{
					{Value: "keyed", Label: "Keyed/scratched paint"},
					{Value: "broken_glass", Label: "Broken windows/glass"},
					{Value: "tires", Label: "Slashed tires"},
					{Value: "dents", Label: "Dents/body damage"},
					{Value: "spray_paint", Label: "Spray paint/graffiti"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "vandalism_suspect", State: claim.StateIncidentCore, Priority: 35,
				Text:  "Do you know or suspect who did this?",
				Field: "incident.suspect_status", Required: true,
				Options: []claim.Option{
					{Value: "unknown", Label: "No, completely unknown"},
					{Value: "suspect", Label: "Yes, I have a suspicion"},
					{Value: "known", Label: "Yes, I know who did it"},
				},
			},
			{
				ID: "vandalism_police", State: claim.StateIncidentCore, Priority: 40,
				Text:  "Have you filed a police report?",
				Field: "police_info.report_filed", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticFlags: []string{"vandalism", "comprehensive_claim"},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of all vandalism damage"},
			{Type: "photo", Description: "Wide shot showing location"},
			{Type: "document", Description: "Police report (recommended)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "vandalism" {
			score += d.weight("loss_type", 0.6)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.5)
		}
		return score
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if !st.Police.ReportFiled && !fieldTrue(st, "police_info.report_filed") {
			return warnResult("Police report recommended for vandalism claims")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newGlassOnly covers windshield and window-only damage, the prime
// straight-through-processing candidate.
func newGlassOnly(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "glass_only",
		category:       CategoryOther,
		priority:       70,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"windshield", "window", "glass", "crack", "chip", "rock hit",
			"stone chip", "cracked windshield", "broken window", "shattered",
		},
		staticQs: []claim.Question{
			{
				ID: "glass_type", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Which glass is damaged?",
				Field: "incident.glass_type", Required: true,
				Options: []claim.Option{
					{Value: "windshield", Label: "Windshield"},
					{Value: "rear_window", Label: "Rear window"},
					{Value: "side_window", Label: "Side window"},
					{Value: "sunroof", Label: "Sunroof/moonroof"},
					{Value: "multiple", Label: "Multiple pieces of glass"},
				},
			},
			{
				ID: "glass_damage_type", State: claim.StateIncidentCore, Priority: 33,
				Text:  "What type of damage is it?",
				Field: "incident.glass_damage_type", Required: true,
				Options: []claim.Option{
					{Value: "chip", Label: "Small chip"},
					{Value: "crack", Label: "Crack"},
					{Value: "shattered", Label: "Shattered/broken"},
				},
			},
			{
				ID: "glass_cause", State: claim.StateIncidentCore, Priority: 36,
				Text:  "What caused the glass damage?",
				Field: "incident.glass_cause", Required: true,
				Options: []claim.Option{
					{Value: "road_debris", Label: "Rock/debris from road"},
					{Value: "unknown", Label: "Unknown"},
					{Value: "weather", Label: "Weather (hail, etc.)"},
					{Value: "vandalism", Label: "Vandalism"},
					{Value: "collision", Label: "Collision/accident"},
				},
			},
			{
				ID: "glass_other_damage", State: claim.StateDamageEvidence, Priority: 20,
				Text:  "Is there any other damage to the vehicle besides the glass?",
				Field: "damage.other_damage_present", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photo of the damaged glass"},
			{Type: "photo", Description: "Close-up of the damage (chip/crack)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "glass" {
			score += d.weight("loss_type", 0.7)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.4)
		}
		if len(st.Damages) > 0 {
			allGlass := true
			for _, dm := range st.Damages {
				if !dm.GlassOnly {
					allGlass = false
					break
				}
			}
			if allGlass {
				score += d.weight("all_glass", 0.3)
			}
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"glass_only", "comprehensive_claim"}
		for _, ev := range st.Evidence {
			if ev.Kind == "photo" {
				flags = append(flags, "stp_candidate")
				break
			}
		}
		if st.Field("incident.glass_damage_type") == "chip" {
			flags = append(flags, "repair_candidate")
		}
		if st.Field("incident.glass_cause") == "vandalism" {
			flags = append(flags, "vandalism")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if fieldTrue(st, "damage.other_damage_present") {
			return warnResult("Other damage present - may not qualify for glass-only claim")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newFire covers vehicle fire damage.
func newFire(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "fire",
		category:       CategoryOther,
		priority:       25,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"fire", "burned", "burning", "flames", "smoke", "caught fire",
			"on fire", "engine fire", "electrical fire", "arson",
		},
		staticQs: []claim.Question{
			{
				ID: "fire_origin", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Where did the fire start?",
				Field: "incident.fire_origin", Required: true,
				Options: []claim.Option{
					{Value: "engine", Label: "Engine compartment"},
					{Value: "interior", Label: "Interior/cabin"},
					{Value: "external", Label: "External fire (spread to vehicle)"},
					{Value: "unknown", Label: "Unknown"},
				},
			},
			{
				ID: "fire_cause", State: claim.StateIncidentCore, Priority: 33,
				Text:  "Do you know what caused the fire?",
				Field: "incident.fire_cause", Required: true,
				Options: []claim.Option{
					{Value: "mechanical", Label: "Mechanical/electrical failure"},
					{Value: "accident", Label: "Result of collision"},
					{Value: "arson", Label: "Suspected arson"},
					{Value: "wildfire", Label: "Wildfire/brush fire"},
					{Value: "unknown", Label: "Unknown"},
				},
			},
			{
				ID: "fire_department", State: claim.StateIncidentCore, Priority: 36,
				Text:  "Was the fire department called?",
				Field: "incident.fire_department_called", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "fire_extent", State: claim.StateVehicleDriver, Priority: 40,
				Text:  "How much of the vehicle was damaged by fire?",
				Field: "vehicle.fire_extent", Required: true,
				Options: []claim.Option{
					{Value: "minor", Label: "Minor - small area"},
					{Value: "moderate", Label: "Moderate - one section (engine or interior)"},
					{Value: "severe", Label: "Severe - multiple areas"},
					{Value: "total", Label: "Total loss - entire vehicle"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of fire damage"},
			{Type: "document", Description: "Fire department report (if available)"},
			{Type: "document", Description: "Police report (if arson suspected)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "fire" {
			score += d.weight("loss_type", 0.7)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.5)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"fire_damage", "comprehensive_claim"}
		switch st.Field("vehicle.fire_extent") {
		case "severe", "total":
			flags = append(flags, "likely_total_loss")
		}
		if st.Field("incident.fire_cause") == "arson" {
			flags = append(flags, "siu_review_arson")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if st.Field("incident.fire_cause") == "arson" {
			return warnResult("Suspected arson - police report required")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newTowing covers impounds, unauthorized tows, and tow damage.
func newTowing(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "towing",
		category:       CategoryOther,
		priority:       60,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"tow", "towed", "towing", "impound", "impounded", "tow truck",
			"tow yard", "damaged during tow", "tow company",
		},
		staticQs: []claim.Question{
			{
				ID: "tow_type", State: claim.StateIncidentCore, Priority: 30,
				Text:  "What type of towing incident is this?",
				Field: "incident.tow_type", Required: true,
				Options: []claim.Option{
					{Value: "damage", Label: "Vehicle damaged during towing"},
					{Value: "impound", Label: "Vehicle impounded"},
					{Value: "unauthorized", Label: "Unauthorized tow"},
					{Value: "recovery", Label: "Breakdown/recovery tow"},
				},
			},
			{
				ID: "tow_company", State: claim.StateIncidentCore, Priority: 35,
				Text:  "Do you know the tow company name?",
				Field: "incident.tow_company",
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of any damage"},
			{Type: "document", Description: "Tow receipt/documentation"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		if hasAny(narrative(st), d.keywords) {
			return d.weight("keyword", 0.7)
		}
		return 0
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"towing_incident"}
		if st.Field("incident.tow_type") == "damage" {
			flags = append(flags, "subrogation_potential")
		}
		return flags
	}
	return d
}

// newCommercialRideshare covers commercial and rideshare use at loss time.
func newCommercialRideshare(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "commercial_rideshare",
		category:       CategoryOther,
		priority:       20,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"uber", "lyft", "rideshare", "ride share", "passenger", "delivery",
			"doordash", "grubhub", "instacart", "amazon", "commercial",
			"work", "business use", "for hire",
		},
		staticQs: []claim.Question{
			{
				ID: "commercial_type", State: claim.StateIncidentCore, Priority: 20,
				Text:  "What type of commercial/rideshare activity were you doing?",
				Field: "incident.commercial_type", Required: true,
				Options: []claim.Option{
					{Value: "uber", Label: "Uber/Lyft (with passenger)"},
					{Value: "uber_waiting", Label: "Uber/Lyft (waiting for ride)"},
					{Value: "delivery", Label: "Food delivery (DoorDash, etc.)"},
					{Value: "package", Label: "Package delivery (Amazon, etc.)"},
					{Value: "business", Label: "Business/work use"},
					{Value: "other", Label: "Other commercial use"},
				},
			},
			{
				ID: "commercial_passenger", State: claim.StateIncidentCore, Priority: 25,
				Text:  "Did you have a paying passenger at the time?",
				Field: "incident.had_passenger", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "commercial_app", State: claim.StateIncidentCore, Priority: 28,
				Text:  "Was the app active/logged in at the time of the incident?",
				Field: "incident.app_active", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of damage"},
			{Type: "document", Description: "Rideshare app trip history/screenshot"},
			{Type: "document", Description: "Rideshare company incident report (if filed)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.7)
		}
		for _, v := range st.Vehicles {
			switch v.UseAtTime {
			case "rideshare", "delivery", "commercial":
				score += d.weight("use_at_time", 0.8)
			}
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"commercial_use", "coverage_review_required"}
		if fieldTrue(st, "incident.had_passenger") {
			flags = append(flags, "rideshare_with_passenger")
		}
		if fieldTrue(st, "incident.app_active") {
			flags = append(flags, "app_active_at_time")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		return warnResult("Coverage may differ for commercial use - adjuster review required")
	}
	return d
}

// newRental covers losses involving a rental vehicle.
func newRental(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "rental",
		category:       CategoryOther,
		priority:       35,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"rental", "rented", "rental car", "hertz", "enterprise", "avis",
			"budget", "national", "alamo", "renting", "hired car",
		},
		staticQs: []claim.Question{
			{
				ID: "rental_company", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Which rental company did you rent from?",
				Field: "vehicle.rental_company", Required: true,
				Options: []claim.Option{
					{Value: "enterprise", Label: "Enterprise"},
					{Value: "hertz", Label: "Hertz"},
					{Value: "avis", Label: "Avis"},
					{Value: "budget", Label: "Budget"},
					{Value: "national", Label: "National"},
					{Value: "alamo", Label: "Alamo"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "rental_insurance", State: claim.StateIncidentCore, Priority: 35,
				Text:  "Did you purchase insurance through the rental company?",
				Field: "vehicle.rental_insurance", Required: true,
				Options: []claim.Option{
					{Value: "yes_full", Label: "Yes, full coverage"},
					{Value: "yes_partial", Label: "Yes, partial coverage"},
					{Value: "no", Label: "No, using my own insurance"},
					{Value: "unsure", Label: "Not sure"},
				},
			},
			{
				ID: "rental_reported", State: claim.StateIncidentCore, Priority: 38,
				Text:  "Have you reported this to the rental company?",
				Field: "vehicle.rental_notified", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of damage"},
			{Type: "document", Description: "Rental agreement"},
			{Type: "document", Description: "Rental company incident report"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.7)
		}
		for _, v := range st.Vehicles {
			if v.Ownership == "rental" {
				score += d.weight("ownership", 0.8)
			}
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"rental_vehicle"}
		if strings.HasPrefix(st.Field("vehicle.rental_insurance"), "yes") {
			flags = append(flags, "rental_insurance_active")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if !fieldTrue(st, "vehicle.rental_notified") {
			return warnResult("Please notify the rental company of the incident")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newOutOfState covers incidents outside the policyholder's home state.
func newOutOfState(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "out_of_state",
		category:       CategoryOther,
		priority:       55,
		requiredStates: []claim.State{claim.StateIncidentCore},
		weights:        w,
		keywords: []string{
			"out of state", "another state", "traveling", "vacation",
			"road trip", "visiting", "different state",
		},
		staticQs: []claim.Question{
			{
				ID: "out_state_reason", State: claim.StateIncidentCore, Priority: 40,
				Text:  "Why were you in this state?",
				Field: "incident.out_of_state_reason",
				Options: []claim.Option{
					{Value: "vacation", Label: "Vacation/Travel"},
					{Value: "business", Label: "Business trip"},
					{Value: "visiting", Label: "Visiting family/friends"},
					{Value: "moving", Label: "Moving/Relocating"},
					{Value: "other", Label: "Other"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of damage"},
			{Type: "document", Description: "Police report (if applicable)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		incidentState := strings.ToUpper(st.Incident.LocationState)
		if st.PolicyMatch != nil {
			policyState := strings.ToUpper(st.PolicyMatch.HolderState)
			if incidentState != "" && policyState != "" && incidentState != policyState {
				score += d.weight("state_mismatch", 0.8)
			}
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.4)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"out_of_state"}
		if st.Field("incident.out_of_state_reason") == "moving" {
			flags = append(flags, "potential_address_change")
		}
		return flags
	}
	return d
}
