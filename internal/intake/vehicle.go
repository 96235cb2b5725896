package intake

import (
	"context"
	"strings"

	"fnol/internal/claim"
)

func (m *Machine) handleVehicleDriver(ctx context.Context, st *claim.ConversationState) error {
	if m.recordQuestionAnswer(st, claim.StateVehicleDriver) {
		return m.finishVehicleDriver(st)
	}

	switch st.Step {
	case "":
		st.Step = "awaiting_vehicle"
		respond(st, "Now, about your vehicle. **What's the year, make, and model?** For example, \"2022 Honda Accord\".",
			"vehicle_details", "vehicle.details")
		return nil

	case "awaiting_vehicle":
		v := claim.Vehicle{IsInsured: true, Drivable: true}
		if ents := m.extractInto(ctx, st, st.CurrentInput, []string{"vehicle"}); ents != nil {
			if ents.VehicleYear != nil {
				v.Year = ents.VehicleYear.Value
			}
			if ents.VehicleMake != nil {
				v.Make = ents.VehicleMake.Value
			}
			if ents.VehicleModel != nil {
				v.Model = ents.VehicleModel.Value
			}
			if ents.LicensePlate != nil {
				v.Plate = ents.LicensePlate.Value
			}
		}
		if v.Year == "" && v.Make == "" && v.Model == "" {
			v.Model = strings.TrimSpace(st.CurrentInput)
		}
		st.Vehicles = append(st.Vehicles, v)
		st.Step = "awaiting_drivable"
		respond(st, "Got it. **Is the vehicle drivable?**",
			"vehicle_drivable", "vehicle.drivable",
			claim.Option{Value: "yes", Label: "Yes, it drives fine"},
			claim.Option{Value: "no", Label: "No, it can't be driven"},
		)
		return nil

	case "awaiting_drivable":
		drivable, ok := parseYesNo(st.CurrentInput)
		if ok && !drivable && len(st.Vehicles) > 0 {
			st.Vehicles[len(st.Vehicles)-1].Drivable = false
			st.AppendFlags("vehicle_not_drivable")
			st.Step = "awaiting_vehicle_location"
			respond(st, "**Where is the vehicle now, and do you need us to arrange a tow?**",
				"vehicle_location", "vehicle.current_location")
			return nil
		}
		return m.askDriver(st)

	case "awaiting_vehicle_location":
		st.SetField("vehicle.current_location", strings.TrimSpace(st.CurrentInput))
		yes, ok := parseYesNo(st.CurrentInput)
		if strings.Contains(strings.ToLower(st.CurrentInput), "tow") || (ok && yes) {
			st.SetField("vehicle.tow_needed", "true")
			st.AppendFlags("towing_incident")
		}
		return m.askDriver(st)

	case "awaiting_driver":
		insured, ok := parseYesNo(st.CurrentInput)
		if ok && insured {
			st.SetField("driver.is_policyholder", "true")
			return m.finishVehicleDriver(st)
		}
		st.Step = "awaiting_driver_name"
		respond(st, "**Who was driving?** Their full name, please.", "driver_name", "driver.name")
		return nil

	case "awaiting_driver_name":
		st.SetField("driver.name", strings.TrimSpace(st.CurrentInput))
		st.Step = "awaiting_permission"
		respond(st, "**Did they have your permission to drive the vehicle?**",
			"driver_permission", "driver.had_permission",
			claim.Option{Value: "yes", Label: "Yes"},
			claim.Option{Value: "no", Label: "No"},
		)
		return nil

	case "awaiting_permission":
		if yes, ok := parseYesNo(st.CurrentInput); ok {
			if yes {
				st.SetField("driver.had_permission", "true")
			} else {
				st.SetField("driver.had_permission", "false")
				st.AppendFlags("coverage_review_required")
			}
		}
		return m.finishVehicleDriver(st)
	}

	st.Step = ""
	return m.handleVehicleDriver(ctx, st)
}

func (m *Machine) askDriver(st *claim.ConversationState) error {
	st.Step = "awaiting_driver"
	respond(st, "**Were you the one driving at the time?**",
		"driver_confirmation", "driver.is_policyholder",
		claim.Option{Value: "yes", Label: "Yes, I was driving"},
		claim.Option{Value: "no", Label: "No, someone else was"},
	)
	return nil
}

func (m *Machine) finishVehicleDriver(st *claim.ConversationState) error {
	m.refreshDetection(st)
	if m.askNextQuestion(st, claim.StateVehicleDriver) {
		return nil
	}
	return m.leaveModule(st, claim.StateVehicleDriver)
}
