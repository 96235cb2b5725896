package playbook

import (
	"strings"

	"fnol/internal/claim"
	"fnol/internal/config"
)

// newVehicleTheft covers complete theft of the vehicle.
func newVehicleTheft(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "vehicle_theft",
		category:       CategoryTheft,
		priority:       20,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateVehicleDriver},
		weights:        w,
		keywords: []string{
			"stolen", "theft", "stole", "missing", "gone", "taken",
			"car was stolen", "vehicle stolen", "disappeared",
		},
		staticQs: []claim.Question{
			{
				ID: "theft_last_seen", State: claim.StateIncidentCore, Priority: 25,
				Text: "When did you last see the vehicle?", HelpText: "Approximate date and time",
				Field: "incident.theft_last_seen", Required: true,
			},
			{
				ID: "theft_discovered", State: claim.StateIncidentCore, Priority: 28,
				Text: "When did you discover it was missing?", HelpText: "Approximate date and time",
				Field: "incident.theft_discovered", Required: true,
			},
			{
				ID: "theft_location", State: claim.StateIncidentCore, Priority: 30,
				Text:  "Where was the vehicle when it was stolen?",
				Field: "incident.theft_location_type", Required: true,
				Options: []claim.Option{
					{Value: "home", Label: "At home (driveway/garage)"},
					{Value: "work", Label: "At work"},
					{Value: "parking_lot", Label: "In a parking lot"},
					{Value: "street", Label: "On the street"},
					{Value: "other", Label: "Other location"},
				},
			},
			{
				ID: "theft_keys", State: claim.StateIncidentCore, Priority: 35,
				Text:  "Where were the keys at the time of theft?",
				Field: "incident.keys_location", Required: true,
				Options: []claim.Option{
					{Value: "with_me", Label: "With me"},
					{Value: "in_vehicle", Label: "In the vehicle"},
					{Value: "at_home", Label: "At home"},
					{Value: "lost", Label: "Keys were lost/stolen too"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID: "theft_police", State: claim.StateIncidentCore, Priority: 40,
				Text:     "Have you filed a police report?",
				HelpText: "A police report is required for theft claims.",
				Field:    "police_info.report_status", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes, I have a report number"},
					{Value: "pending", Label: "I've reported it, waiting for number"},
					{Value: "no", Label: "Not yet"},
				},
			},
			{
				ID: "theft_contents", State: claim.StateVehicleDriver, Priority: 45,
				Text:     "Were there any valuable items in the vehicle?",
				HelpText: "Personal belongings may be covered separately.",
				Field:    "vehicle.valuable_contents", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "theft_tracking", State: claim.StateVehicleDriver, Priority: 48,
				Text:  "Does the vehicle have any tracking devices (GPS, LoJack, OnStar)?",
				Field: "vehicle.has_tracking", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes"},
					{Value: "no", Label: "No"},
					{Value: "unknown", Label: "I'm not sure"},
				},
			},
		},
		staticEvidence: []Evidence{
			{Type: "document", Description: "Police report (required)"},
			{Type: "document", Description: "Vehicle title or registration"},
			{Type: "document", Description: "Both sets of keys (if available)"},
			{Type: "photo", Description: "Photo of spare key (to prove possession)"},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "theft" {
			score += d.weight("loss_type", 0.5)
		}
		text := narrative(st)
		if hasAny(text, d.keywords) {
			score += d.weight("keyword", 0.5)
		}
		// Distinguishes a complete theft from an attempted one.
		if strings.Contains(text, "whole") || strings.Contains(text, "entire") || strings.Contains(text, "completely") {
			score += d.weight("complete", 0.2)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"vehicle_theft", "comprehensive_claim", "police_report_required"}
		if st.Field("incident.keys_location") == "in_vehicle" {
			flags = append(flags, "siu_review_keys")
			if st.Field("incident.theft_location_type") == "home" {
				flags = append(flags, "siu_review_indicator")
			}
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		res := ValidationResult{Valid: true}
		if st.Field("police_info.report_status") == "no" {
			res.Errors = append(res.Errors, "Police report is required for theft claims")
			res.Valid = false
		}
		if st.Field("incident.keys_location") == "in_vehicle" {
			res.Warnings = append(res.Warnings, "Keys left in vehicle - coverage may be affected")
		}
		return res
	}
	return d
}

// newAttemptedTheft covers break-ins where the vehicle was not taken.
func newAttemptedTheft(w *config.WeightStore) *Definition {
	d := &Definition{
		id:             "attempted_theft",
		category:       CategoryTheft,
		priority:       30,
		requiredStates: []claim.State{claim.StateIncidentCore, claim.StateDamageEvidence},
		weights:        w,
		keywords: []string{
			"attempted", "tried to steal", "break in", "break-in", "broken into",
			"forced entry", "damaged lock", "ignition damage", "hotwire",
			"window broken", "door pried", "steering column",
		},
		staticQs: []claim.Question{
			{
				ID: "attempted_entry_method", State: claim.StateIncidentCore, Priority: 30,
				Text:  "How did they try to get into or steal the vehicle?",
				Field: "incident.entry_method", Required: true,
				Options: []claim.Option{
					{Value: "window_broken", Label: "Broke a window"},
					{Value: "door_forced", Label: "Forced door open/lock damaged"},
					{Value: "ignition", Label: "Damaged ignition/steering column"},
					{Value: "hotwire", Label: "Tried to hotwire"},
					{Value: "key_fob", Label: "Electronic/key fob signal relay"},
					{Value: "unknown", Label: "Not sure"},
				},
			},
			{
				ID: "attempted_contents", State: claim.StateIncidentCore, Priority: 35,
				Text:  "Was anything stolen from inside the vehicle?",
				Field: "incident.contents_stolen", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "attempted_police", State: claim.StateIncidentCore, Priority: 40,
				Text:     "Have you filed a police report?",
				HelpText: "Recommended for attempted theft.",
				Field:    "police_info.report_status", Required: true,
				Options: []claim.Option{
					{Value: "yes", Label: "Yes"},
					{Value: "no", Label: "No"},
					{Value: "will", Label: "I will file one"},
				},
			},
			{
				ID: "attempted_drivable", State: claim.StateDamageEvidence, Priority: 25,
				Text:  "Is the vehicle drivable after the attempted theft?",
				Field: "vehicle.drivable_after_attempt", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
			{
				ID: "attempted_secure", State: claim.StateDamageEvidence, Priority: 28,
				Text:  "Is the vehicle currently secure (can it be locked)?",
				Field: "vehicle.currently_secure", Required: true,
				Options: []claim.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
			},
		},
	}
	d.detectFn = func(d *Definition, st *claim.ConversationState) float64 {
		score := 0.0
		if st.Incident.LossType == "theft" {
			score += d.weight("loss_type", 0.3)
		}
		if hasAny(narrative(st), d.keywords) {
			score += d.weight("keyword", 0.6)
		}
		if st.Incident.TheftType == "attempted" {
			score += d.weight("theft_type", 0.7)
		}
		// Vehicle details on file means the car is still here.
		if len(st.Vehicles) > 0 && st.Incident.LossType == "theft" {
			score += d.weight("vehicle_present", 0.2)
		}
		return score
	}
	d.flagsFn = func(st *claim.ConversationState) []string {
		flags := []string{"attempted_theft", "comprehensive_claim"}
		if fieldTrue(st, "incident.contents_stolen") {
			flags = append(flags, "contents_stolen")
		}
		if strings.Contains(st.Field("incident.entry_method"), "ignition") {
			flags = append(flags, "ignition_damage")
		}
		return flags
	}
	d.validateFn = func(st *claim.ConversationState) ValidationResult {
		var warnings []string
		if st.Field("police_info.report_status") == "no" {
			warnings = append(warnings, "Police report recommended for attempted theft")
		}
		if st.Field("vehicle.currently_secure") == "no" {
			warnings = append(warnings, "Vehicle may need to be secured to prevent further attempts")
		}
		return ValidationResult{Valid: true, Warnings: warnings}
	}
	d.evidenceFn = func(st *claim.ConversationState) []Evidence {
		evidence := []Evidence{
			{Type: "photo", Description: "Photos of forced entry damage"},
			{Type: "photo", Description: "Photos of interior damage"},
		}
		entry := st.Field("incident.entry_method")
		if strings.Contains(entry, "window_broken") {
			evidence = append(evidence, Evidence{Type: "photo", Description: "Photos of broken window"})
		}
		if strings.Contains(entry, "ignition") {
			evidence = append(evidence, Evidence{Type: "photo", Description: "Photos of ignition/steering column damage"})
		}
		return evidence
	}
	return d
}
