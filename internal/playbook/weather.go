package playbook

import (
	"strings"

	"fnol/internal/claim"
	"fnol/internal/config"
)

// newHail covers hailstorm damage.
func newHail(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "hail",
		category:       CategoryWeather,
		priority:       50,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"hail", "hailstorm", "hail storm", "hail damage", "dents from hail",
			"storm damage", "hail dents", "pockmarks",
		},
		staticQs: []claim.Question{
			{
				ID: "hail_size", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Approximately how large was the hail?",
				Field: "incident.hail_size",
				Options: []claim.Option{
					{Value: "pea", Label: "Pea-sized (1/4 inch)"},
					{Value: "marble", Label: "Marble-sized (1/2 inch)"},
					{Value: "quarter", Label: "Quarter-sized (1 inch)"},
					{Value: "golf_ball", Label: "Golf ball-sized (1.75 inches)"},
					{Value: "larger", Label: "Larger than golf ball"},
					{Value: "unknown", Label: "I'm not sure"},
				},
			},
			{
				ID: "hail_location", State: claim.StateIncidentCore, Priority: 32,
				Text:  "Where was your vehicle when the hail hit?",
				Field: "incident.vehicle_location_during_hail", Required: true,
				Options: []claim.Option{
					{Value: "parked_outside", Label: "Parked outside"},
					{Value: "driving", Label: "I was driving"},
					{Value: "parking_lot", Label: "In a parking lot"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "hail_glass_damage", State: claim.StateDamageEvidence, Priority: 20,
				Text:  "Is there any glass damage (windshield, windows)?",
				Field: "damage.glass_damage", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos of hail damage on hood/roof"},
			{Type: "photo", Description: "Close-up photos of individual dents"},
			{Type: "photo", Description: "Photos of any glass damage"},
			{Type: "photo", Description: "Wide shot showing overall damage pattern"},
		},
	}
	d.detectFn = weatherDetect(d, "hail", nil)
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"hail_damage", "comprehensive_claim"}
		switch st.Field("incident.hail_size") {
		case "golf_ball", "larger":
			flags = append(flags, "severe_hail")
		}
		for _, dm := range st.Damages {
			area := strings.ToLower(dm.Area)
			if strings.Contains(area, "glass") || strings.Contains(area, "windshield") {
				flags = append(flags, "glass_damage")
				break
			}
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if st.Incident.OccurredAt == "" {
			return warnResult("Incident date needed for hail storm verification")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newFlood covers flood and water damage.
func newFlood(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "flood",
		category:       CategoryWeather,
		priority:       40,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"flood", "flooded", "flooding", "underwater", "submerged",
			"water damage", "flash flood", "rising water", "water level",
			"high water", "drove through water",
		},
		staticQs: []claim.Question{
			{
				ID: "flood_water_level", State: claim.StateIncidentCore, Priority: 30,
				Text:  "How high did the water get on your vehicle?",
				Field: "incident.water_level", Required: true,
				Options: []claim.Option{
					{Value: "tires", Label: "Up to the tires/wheels"},
					{Value: "doors", Label: "Up to the doors"},
					{Value: "windows", Label: "Up to or above the windows"},
					{Value: "submerged", Label: "Vehicle was fully submerged"},
					{Value: "unknown", Label: "I'm not sure"},
				},
			},
			{
				ID: "flood_running", State: claim.StateIncidentCore, Priority: 33,
				Text:     "Was the vehicle running when it was flooded?",
				HelpText: "This is important for assessing potential engine damage.",
				Field:    "incident.engine_status_during_flood", Required: true,
				Options: []claim.Option{
					{Value: "running", Label: "Yes, engine was running"},
					{Value: "off", Label: "No, engine was off"},
					{Value: "stalled", Label: "Engine stalled in the water"},
					{Value: "unknown", Label: "I don't know"},
				},
			},
			{
				ID: "flood_interior", State: claim.StateVehicleDriver, Priority: 40,
				Text:  "Did water get inside the vehicle?",
				Field: "vehicle.water_inside", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "flood_start", State: claim.StateVehicleDriver, Priority: 45,
				Text:     "Have you tried to start the vehicle since the flooding?",
				HelpText: "Important: Do NOT try to start a flooded vehicle - this can cause additional damage.",
				Field:    "vehicle.attempted_start_after_flood", Required: true,
				Options: []claim.Option{
					{Value: "no", Label: "No, I haven't tried"},
					{Value: "yes_worked", Label: "Yes, it started"},
					{Value: "yes_failed", Label: "Yes, but it won't start"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "photo", Description: "Photos showing water damage exterior"},
			{Type: "photo", Description: "Photos of vehicle interior (water lines, mud)"},
			{Type: "photo", Description: "Photos of engine compartment"},
			{Type: "photo", Description: "Photos showing high water marks on vehicle"},
		},
	}
	d.detectFn = weatherDetect(d, "flood", nil)
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"flood_damage", "comprehensive_claim"}
		switch st.Field("incident.water_level") {
		case "windows", "submerged":
			flags = append(flags, "likely_total_loss")
		case "doors":
			flags = append(flags, "potential_total_loss")
		}
		switch st.Field("incident.engine_status_during_flood") {
		case "running", "stalled":
			flags = append(flags, "engine_damage_likely")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		switch st.Field("incident.water_level") {
		case "windows", "submerged":
			return warnResult("Vehicle may be a total loss - do not attempt to start")
		}
		return ValidationResult{Valid: true}
	}
	return d
}

// newWindTree covers wind, fallen-tree, and debris damage.
func newWindTree(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "wind_tree",
		category:       CategoryWeather,
		priority:       50,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"tree", "branch", "wind", "tornado", "hurricane", "storm",
			"fell on", "blown", "debris", "limb", "power line", "pole fell",
			"windstorm", "high winds",
		},
		staticQs: []claim.Question{
			{
				ID: "wind_damage_source", State: claim.StateIncidentCore, Priority: 30,
				Text:  "What caused the damage?",
				Field: "incident.damage_source", Required: true,
				Options: []claim.Option{
					{Value: "tree", Label: "Fallen tree"},
					{Value: "branch", Label: "Fallen branch/limb"},
					{Value: "debris", Label: "Flying debris"},
					{Value: "power_line", Label: "Power line/pole"},
					{Value: "wind_direct", Label: "Direct wind damage"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "wind_tree_location", State: claim.StateIncidentCore, Priority: 33,
				Text:  "Where was your vehicle when this happened?",
				Field: "incident.vehicle_location", Required: true,
				Options: []claim.Option{
					{Value: "home", Label: "At home (driveway/property)"},
					{Value: "parking_lot", Label: "In a parking lot"},
					{Value: "street", Label: "Parked on the street"},
					{Value: "driving", Label: "I was driving"},
					{Value: "other", Label: "Other location"},
				},
			},
			{
				ID: "wind_tree_removed", State: claim.StateIncidentCore, Priority: 36,
				Text:  "Has the tree/debris been removed from the vehicle?",
				Field: "incident.debris_status", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes, it's been removed"},
					{Value: "no", Label: "No, it's still on the vehicle"},
					{Value: "partial", Label: "Partially removed"},
				},
			},
			{
				ID: "wind_property_owner", State: claim.StateDamageEvidence, Priority: 50,
				Text:     "Do you know who owns the property where the tree/debris came from?",
				HelpText: "This may be relevant if the damage was from a neighbor's tree.",
				Field:    "incident.tree_owner",
				Options: []claim.Option{
					{Value: "my_property", Label: "It was on my property"},
					{Value: "neighbor", Label: "Neighbor's property"},
					{Value: "city", Label: "City/Public property"},
					{Value: "unknown", Label: "I don't know"},
				},
			},
		},
	}
	d.detectFn = weatherDetect(d, "", []string{"wind", "tree"})
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"wind_tree_damage", "comprehensive_claim"}
		if st.Field("incident.damage_source") == "tree" {
			flags = append(flags, "full_tree")
		}
		if st.Field("incident.tree_owner") == "neighbor" {
			flags = append(flags, "subrogation_potential")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		if st.Field("incident.debris_status") == "no" {
			return warnResult("Take photos before removing debris if possible")
		}
		return ValidationResult{Valid: true}
	}
	d.evidenceFn = func(st *claim.ConversationState) []Evidence {
		evidence := []Evidence{
			{Type: "photo", Description: "Photos of vehicle damage"},
			{Type: "photo", Description: "Photos showing the tree/debris (if still present)"},
			{Type: "photo", Description: "Wide shot showing vehicle and surroundings"},
		}
		switch st.Field("incident.tree_owner") {
		case "neighbor", "city":
			evidence = append(evidence, Evidence{Type: "photo", Description: "Photos showing where the tree/debris came from"})
		}
		return evidence
	}
	return d
}

// weatherDetect builds the shared weather scoring: weather loss type, the
// scenario's keywords (matched against description, input, and the extracted
// weather type), and an exact weather-type match.
func weatherDetect(d *Definition, weatherType string, weatherTypes []string) func(*Definition, *claim.ConversationState) float64 {
	return func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "weather" {
			score += d.weight("loss_type", 0.3)
		}
		text := narrative(st) + " " + strings.ToLower(st.Incident.WeatherType)
		if hasAny(text, d.keywords) {
			score += d.weight("keyword", 0.7)
		}
		matched := st.Incident.WeatherType == weatherType && weatherType != ""
		for _, wt := range weatherTypes {
			if st.Incident.WeatherType == wt {
				matched = true
			}
		}
		if matched {
			score += d.weight("weather_type", 0.6)
		}
		return score
	}
}
