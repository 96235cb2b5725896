package playbook

import (
	"fnol/internal/claim"
	"fnol/internal/config"
)

// fieldTrue reports whether a collected incident field holds an affirmative
// answer.
func fieldTrue(st *claim.ConversationState, path string) bool {
	v := st.Field(path)
	return v == "yes" || v == "true"
}

// newTwoVehicle covers the standard collision between two vehicles.
func newTwoVehicle(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "two_vehicle",
		category:       CategoryCollision,
		priority:       50,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver, claim.StateThirdParties},
		weights:        w,
		keywords: []string{
			"hit", "collision", "crash", "accident", "rear-ended", "rear ended",
			"t-boned", "sideswiped", "sideswipe", "other car", "other vehicle",
			"their car", "another car", "other driver",
		},
		staticQs: []claim.Question{
			{
				ID: "two_vehicle_impact_type", State: claim.StateIncidentCore, Priority: 30,
				Text:  "How did the vehicles collide?",
				Field: "incident.impact_type", Required: true,
				Options: []claim.Option{
					{Value: "rear_end", Label: "Rear-end collision"},
					{Value: "t_bone", Label: "T-bone/Side impact"},
					{Value: "sideswipe", Label: "Sideswipe"},
					{Value: "head_on", Label: "Head-on collision"},
					{Value: "angle", Label: "Angle collision"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "two_vehicle_fault", State: claim.StateThirdParties, Priority: 50,
				Text:     "In your opinion, who was at fault for this collision?",
				HelpText: "This is just for our records - fault determination will be made during the claims process.",
				Field:    "incident.fault_opinion",
				Options: []claim.Option{
					{Value: "other_driver", Label: "The other driver"},
					{Value: "me", Label: "I was at fault"},
					{Value: "shared", Label: "Shared responsibility"},
					{Value: "unsure", Label: "I'm not sure"},
				},
			},
		},
		staticFlags: []string{"standard_collision"},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of damage to your vehicle"},
			{Type: "photo", Description: "Photos of damage to the other vehicle"},
			{Type: "photo", Description: "Photos of the accident scene"},
			{Type: "photo", Description: "Photo of the other driver's license plate"},
			{Type: "document", Description: "Police report (if available)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.4)
		}
		if len(st.Vehicles) == 2 || st.Incident.VehicleCount == 2 {
			score += d.weight("vehicle_count", 0.5)
		}
		text := narrative(st)
		if hasAny(text, d.keywords) {
			score += d.weight("keyword", 0.2)
		}
		// Back off when fled-scene language appears; hit-and-run owns those.
		if hasAny(text, []string{"left", "fled", "ran", "unknown"}) {
			score -= d.weight("fled_penalty", 0.3)
		}
		return score
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		var warnings []string
		if len(st.Vehicles) < 2 {
			warnings = append(warnings, "Other vehicle information not yet collected")
		}
		hasOtherDriver := false
		for _, p := range st.Parties {
			if p.Role == "tp_driver" {
				hasOtherDriver = true
			}
		}
		if !hasOtherDriver {
			warnings = append(warnings, "Other driver information not yet collected")
		}
		return ValidationResult{Valid: true, Warnings: warnings}
	}
	return d
}

// newSingleVehicle covers collisions involving only the insured vehicle.
func newSingleVehicle(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "single_vehicle",
		category:       CategoryCollision,
		priority:       50,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"hit a", "ran into", "crashed into", "slid", "lost control",
			"off the road", "off road", "ditch", "pole", "tree", "guardrail",
			"barrier", "fence", "wall", "curb", "pothole", "rolled",
			"flipped", "only my", "just my", "no other",
		},
		staticQs: []claim.Question{
			{
				ID: "single_vehicle_object", State: claim.StateIncidentCore, Priority: 30,
				Text:  "What did you hit or collide with?",
				Field: "incident.collision_object", Required: true,
				Options: []claim.Option{
					{Value: "tree", Label: "Tree"},
					{Value: "pole", Label: "Pole/Post"},
					{Value: "guardrail", Label: "Guardrail/Barrier"},
					{Value: "curb", Label: "Curb"},
					{Value: "ditch", Label: "Ditch/Embankment"},
					{Value: "building", Label: "Building/Structure"},
					{Value: "pothole", Label: "Pothole"},
					{Value: "rollover", Label: "Vehicle rolled over"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "single_vehicle_cause", State: claim.StateIncidentCore, Priority: 35,
				Text:  "What caused you to lose control or collide?",
				Field: "incident.collision_cause",
				Options: []claim.Option{
					{Value: "weather", Label: "Weather conditions (ice, rain, snow)"},
					{Value: "road", Label: "Road conditions (debris, pothole)"},
					{Value: "avoidance", Label: "Swerved to avoid something"},
					{Value: "tire", Label: "Tire blowout"},
					{Value: "mechanical", Label: "Mechanical failure"},
					{Value: "distraction", Label: "Distraction"},
					{Value: "other", Label: "Other/Not sure"},
				},
			},
		},
		staticFlags: []string{"single_vehicle"},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of vehicle damage"},
			{Type: "photo", Description: "Photos of the collision scene"},
			{Type: "photo", Description: "Photos of what was hit (tree, pole, etc.)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.3)
		}
		if len(st.Vehicles) == 1 {
			score += d.weight("one_vehicle", 0.4)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.4)
		}
		if st.Incident.VehicleCount == 1 {
			score += d.weight("vehicle_count", 0.3)
		}
		return score
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if st.Field("incident.collision_object") == "" {
			return warnResult("Object of collision not specified")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newMultiVehicle covers pileups with three or more vehicles.
func newMultiVehicle(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "multi_vehicle",
		category:       CategoryCollision,
		priority:       30,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver, claim.StateThirdParties, claim.StateInjuries},
		weights:        w,
		keywords: []string{
			"pile up", "pileup", "pile-up", "chain reaction", "multiple",
			"several cars", "three cars", "four cars", "many vehicles",
			"multiple vehicles", "3 cars", "4 cars", "5 cars",
		},
		staticQs: []claim.Question{
			{
				ID: "multi_vehicle_count", State: claim.StateIncidentCore, Priority: 25,
				Text:  "How many vehicles were involved in this collision?",
				Field: "incident.vehicle_count", Required: true,
				Options: []claim.Option{
					{Value: "3", Label: "3 vehicles"},
					{Value: "4", Label: "4 vehicles"},
					{Value: "5", Label: "5 vehicles"},
					{Value: "6+", Label: "6 or more vehicles"},
				},
			},
			{
				ID: "multi_vehicle_position", State: claim.StateIncidentCore, Priority: 28,
				Text:     "What position was your vehicle in the collision sequence?",
				HelpText: "For example, if you were rear-ended then pushed into another car, you were in the middle.",
				Field:    "incident.vehicle_position",
				Options: []claim.Option{
					{Value: "first", Label: "First in chain (front)"},
					{Value: "middle", Label: "Middle of chain"},
					{Value: "last", Label: "Last in chain (rear)"},
					{Value: "unsure", Label: "Not sure"},
				},
			},
			{
				ID: "multi_vehicle_info_count", State: claim.StateThirdParties, Priority: 10,
				Text:  "How many of the other drivers' information were you able to get?",
				Field: "third_parties.info_collected", Required: true,
				Options: []claim.Option{
					{Value: "all", Label: "All of them"},
					{Value: "some", Label: "Some of them"},
					{Value: "none", Label: "None of them"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of your vehicle damage"},
			{Type: "photo", Description: "Wide shots showing all vehicles"},
			{Type: "photo", Description: "Photos of the accident scene"},
			{Type: "document", Description: "Police report (highly recommended)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.2)
		}
		if len(st.Vehicles) >= 3 {
			score += d.weight("three_plus", 0.7)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.4)
		}
		if st.Incident.VehicleCount >= 3 {
			score += d.weight("vehicle_count", 0.5)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"multi_vehicle", "complex_claim"}
		for _, inj := range st.Injuries {
			if inj.Severity != "" && inj.Severity != "none" {
				flags = append(flags, "multi_vehicle_with_injuries")
				break
			}
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		var warnings []string
		if st.Field("incident.vehicle_count") == "" && st.Incident.VehicleCount < 3 {
			warnings = append(warnings, "Number of vehicles not specified")
		}
		if len(st.Vehicles) < 3 {
			warnings = append(warnings, "Full vehicle information not yet collected")
		}
		return ValidationResult{Valid: true, Warnings: warnings}
	}
	return d
}

// newHitAndRun covers collisions where the other driver fled the scene.
func newHitAndRun(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "hit_and_run",
		category:       CategoryCollision,
		priority:       20,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver, claim.StateThirdParties},
		weights:        w,
		keywords: []string{
			"hit and run", "hit-and-run", "fled", "left the scene", "ran away",
			"drove off", "drove away", "didn't stop", "unknown driver",
			"never stopped", "took off", "sped away", "disappeared",
		},
		staticQs: []claim.Question{
			{
				ID: "hit_run_partial_info", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Were you able to get any information about the other vehicle?",
				Field: "incident.partial_info_obtained", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "hit_run_vehicle_desc", State: claim.StateThirdParties, Priority: 15,
				Text:  "Can you describe the vehicle that hit you? (Make, model, color, any part of license plate)",
				Field: "third_parties.fleeing_vehicle_description",
			},
			{
				ID: "hit_run_direction", State: claim.StateThirdParties, Priority: 20,
				Text:  "Which direction did the vehicle go after the collision?",
				Field: "third_parties.flee_direction",
			},
			{
				ID: "hit_run_witnesses", State: claim.StateThirdParties, Priority: 25,
				Text:  "Were there any witnesses who might have seen more?",
				Field: "third_parties.has_witnesses", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "hit_run_police", State: claim.StateThirdParties, Priority: 30,
				Text:     "Have you filed a police report?",
				HelpText: "A police report is strongly recommended for hit-and-run claims.",
				Field:    "police_info.report_status", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes, I filed a report"},
					{Value: "will", Label: "I will file one"},
					{Value: "no", Label: "No"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of all damage to your vehicle"},
			{Type: "photo", Description: "Photos of the accident scene"},
			{Type: "document", Description: "Police report (required)"},
			{Type: "photo", Description: "Photos of any debris left by other vehicle"},
			{Type: "document", Description: "Witness statements (if available)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.2)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.7)
		}
		if fieldTrue(st, "incident.hit_and_run") {
			score += d.weight("explicit", 0.8)
		}
		for _, p := range st.Parties {
			if p.Unknown || p.Fled {
				score += d.weight("fled_party", 0.5)
			}
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"hit_and_run"}
		if st.Police.ReportFiled || st.Field("police_info.report_status") == "yes" {
			flags = append(flags, "police_report_filed")
		} else {
			flags = append(flags, "police_report_pending")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if !st.Police.ReportFiled && st.Field("police_info.report_status") != "yes" {
			return warnResult("Police report strongly recommended for hit-and-run claims")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newUninsured covers collisions against drivers with no or lapsed coverage.
func newUninsured(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "uninsured",
		category:       CategoryCollision,
		priority:       25,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateThirdParties},
		weights:        w,
		keywords: []string{
			"no insurance", "uninsured", "underinsured", "not insured",
			"doesn't have insurance", "no coverage", "lapsed", "expired insurance",
			"fake insurance", "invalid insurance", "minimum coverage",
		},
		staticQs: []claim.Question{
			{
				ID: "uninsured_status", State: claim.StateThirdParties, Priority: 40,
				Text:  "What is the insurance status of the other driver?",
				Field: "third_parties.other_insurance_status", Required: true,
				Options: []claim.Option{
					{Value: "uninsured", Label: "No insurance"},
					{Value: "expired", Label: "Expired insurance"},
					{Value: "underinsured", Label: "Minimum/insufficient coverage"},
					{Value: "unknown", Label: "Unknown - they didn't provide info"},
					{Value: "valid", Label: "They have valid insurance"},
				},
			},
			{
				ID: "uninsured_verification", State: claim.StateThirdParties, Priority: 45,
				Text:  "How did you find out about their insurance status?",
				Field: "third_parties.insurance_verification_method",
				Options: []claim.Option{
					{Value: "told_me", Label: "They told me"},
					{Value: "card", Label: "Their insurance card was expired/fake"},
					{Value: "police", Label: "Police verified"},
					{Value: "carrier", Label: "Their insurance company confirmed"},
					{Value: "assumed", Label: "I'm assuming based on the situation"},
				},
			},
		},
		staticFlags: []string{"uninsured_motorist", "um_coverage_check_needed"},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of all vehicle damage"},
			{Type: "photo", Description: "Photo of other driver's license"},
			{Type: "photo", Description: "Photo of other vehicle's license plate"},
			{Type: "document", Description: "Police report"},
			{Type: "document", Description: "Copy of other driver's invalid/expired insurance card (if available)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.2)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.6)
		}
		for _, p := range st.Parties {
			switch p.InsuranceStatus {
			case "none", "uninsured", "unknown", "expired":
				score += d.weight("party_status", 0.7)
			}
		}
		if fieldTrue(st, "incident.other_driver_uninsured") {
			score += d.weight("explicit", 0.8)
		}
		return score
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		for _, p := range st.Parties {
			if p.Role == "tp_driver" {
				return ValidationResult{Valid: true}
			}
		}
		return warnResult("Other driver information not collected")
	}
	return d
}

// newParkingLot covers incidents in parking lots and garages.
func newParkingLot(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "parking_lot",
		category:       CategoryCollision,
		priority:       60,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"parking lot", "parking garage", "parked", "parking structure",
			"while parked", "backing out", "backing up", "pulled out",
			"shopping center", "mall", "store parking", "parking space",
			"grocery store", "retail", "backed into",
		},
		staticQs: []claim.Question{
			{
				ID: "parking_lot_type", State: claim.StateIncidentCore, Priority: 32,
				Text:  "What type of parking area was this?",
				Field: "incident.parking_type",
				Options: []claim.Option{
					{Value: "outdoor_lot", Label: "Outdoor parking lot"},
					{Value: "garage", Label: "Parking garage"},
					{Value: "street", Label: "Street parking"},
					{Value: "private", Label: "Private property/driveway"},
				},
			},
			{
				ID: "parking_lot_situation", State: claim.StateIncidentCore, Priority: 35,
				Text:  "What was the situation when the collision occurred?",
				Field: "incident.parking_situation", Required: true,
				Options: []claim.Option{
					{Value: "parked_hit", Label: "My car was parked and was hit"},
					{Value: "backing_out", Label: "I was backing out of a space"},
					{Value: "other_backing", Label: "Another car backed into me"},
					{Value: "both_moving", Label: "Both vehicles were moving"},
					{Value: "door_ding", Label: "Door ding/shopping cart damage"},
				},
			},
			{
				ID: "parking_lot_other_party", State: claim.StateIncidentCore, Priority: 38,
				Text:  "Did you get the other party's information?",
				Field: "incident.other_party_info_status", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes, I have their info"},
					{Value: "note", Label: "They left a note"},
					{Value: "no", Label: "No, they left without leaving info"},
					{Value: "unknown", Label: "I don't know who did it"},
				},
			},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.2)
		}
		text := narrative(st) + " " + st.Incident.Location
		if n := countMatches(text, d.keywords); n > 0 {
			score += minF(d.weight("keyword_cap", 0.7), float64(n)*d.weight("keyword", 0.25))
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"parking_lot"}
		if st.LossAmount > 0 && st.LossAmount < 2000 {
			flags = append(flags, "stp_candidate")
		}
		switch st.Field("incident.other_party_info_status") {
		case "no", "unknown":
			flags = append(flags, "hit_and_run")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		switch st.Field("incident.other_party_info_status") {
		case "no", "unknown":
			return warnResult("Consider filing police report for unknown other party")
		}
		return ValidationResult{Valid: true}
	}
	d.evidenceFn = func(st *claim.ConversationState) []Evidence {
		evidence := []Evidence{
			{Type: "photo", Description: "Photos of your vehicle damage"},
			{Type: "photo", Description: "Wide shot of the parking area"},
		}
		if st.Field("incident.other_party_info_status") == "note" {
			evidence = append(evidence, Evidence{Type: "photo", Description: "Photo of the note left by other party"})
		}
		switch st.Field("incident.other_party_info_status") {
		case "no", "unknown":
			evidence = append(evidence, Evidence{Type: "document", Description: "Police report (recommended)"})
		}
		return evidence
	}
	return d
}

// newAnimalStrike covers collisions with animals.
func newAnimalStrike(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "animal_strike",
		category:       CategoryCollision,
		priority:       55,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"deer", "animal", "dog", "cat", "elk", "moose", "raccoon",
			"hit a deer", "hit an animal", "struck an animal", "wildlife",
			"ran out", "jumped out", "came out of nowhere",
		},
		staticQs: []claim.Question{
			{
				ID: "animal_type", State: claim.StateIncidentCore, Priority: 30,
				Text:  "What type of animal did you hit?",
				Field: "incident.animal_type", Required: true,
				Options: []claim.Option{
					{Value: "deer", Label: "Deer"},
					{Value: "moose", Label: "Moose/Elk"},
					{Value: "dog", Label: "Dog"},
					{Value: "cat", Label: "Cat"},
					{Value: "bird", Label: "Bird"},
					{Value: "small", Label: "Small animal (raccoon, possum, etc.)"},
					{Value: "livestock", Label: "Livestock (cow, horse, etc.)"},
					{Value: "other", Label: "Other/Unknown"},
				},
			},
			{
				ID: "animal_outcome", State: claim.StateIncidentCore, Priority: 35,
				Text:  "What happened to the animal?",
				Field: "incident.animal_outcome",
				Options: []claim.Option{
					{Value: "fled", Label: "It ran away"},
					{Value: "on_scene", Label: "It's still at the scene"},
					{Value: "deceased", Label: "It didn't survive"},
					{Value: "unknown", Label: "I don't know"},
				},
			},
			{
				ID: "animal_swerve", State: claim.StateIncidentCore, Priority: 38,
				Text:     "Did you swerve to avoid the animal?",
				HelpText: "This can affect whether the damage is considered collision or comprehensive coverage.",
				Field:    "incident.swerved_to_avoid", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "collision" {
			score += d.weight("loss_type", 0.2)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.7)
		}
		if fieldTrue(st, "incident.animal_strike") {
			score += d.weight("explicit", 0.8)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"animal_strike"}
		animal := st.Field("incident.animal_type")
		switch animal {
		case "deer", "moose", "livestock":
			flags = append(flags, "large_animal")
		}
		if st.Field("incident.swerved_to_avoid") != "yes" {
			flags = append(flags, "comprehensive_eligible")
		}
		if animal == "livestock" {
			flags = append(flags, "possible_third_party")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		var warnings []string
		if st.Field("incident.animal_type") == "" {
			warnings = append(warnings, "Animal type not specified")
		}
		if st.Field("incident.swerved_to_avoid") == "yes" && st.Field("incident.collision_object") != "" {
			warnings = append(warnings, "Review whether this is animal strike or single-vehicle collision")
		}
		return ValidationResult{Valid: true, Warnings: warnings}
	}
	d.evidenceFn = func(st *claim.ConversationState) []Evidence {
		evidence := []Evidence{
			{Type: "photo", Description: "Photos of vehicle damage"},
			{Type: "photo", Description: "Photos of the accident scene"},
		}
		switch st.Field("incident.animal_outcome") {
		case "on_scene", "deceased":
			evidence = append(evidence, Evidence{Type: "photo", Description: "Photos showing the animal (for documentation)"})
		}
		if st.Field("incident.animal_type") == "livestock" {
			evidence = append(evidence, Evidence{Type: "document", Description: "Police report (recommended for livestock)"})
		}
		return evidence
	}
	return d
}
