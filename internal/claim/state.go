// Package claim defines the shared domain types for the FNOL intake engine:
// the conversation state record threaded through the state machine, the
// question/answer structures contributed by playbooks, and the declared set
// of FSM states with their legal transitions.
package claim

// State identifies a position in the 12-state FNOL conversation flow.
type State string

const (
	StateSafetyCheck       State = "SAFETY_CHECK"
	StateIdentityMatch     State = "IDENTITY_MATCH"
	StateIncidentCore      State = "INCIDENT_CORE"
	StateLossModule        State = "LOSS_MODULE"
	StateVehicleDriver     State = "VEHICLE_DRIVER"
	StateThirdParties      State = "THIRD_PARTIES"
	StateInjuries          State = "INJURIES"
	StateDamageEvidence    State = "DAMAGE_EVIDENCE"
	StateTriage            State = "TRIAGE"
	StateClaimCreate       State = "CLAIM_CREATE"
	StateNextSteps         State = "NEXT_STEPS"
	StateHandoffEscalation State = "HANDOFF_ESCALATION"
)

// Transitions declares the legal next states for every FSM state.
// HANDOFF_ESCALATION is additionally reachable from any state as an
// absorbing terminal; the driver enforces that separately.
var Transitions = map[State][]State{
	StateSafetyCheck:       {StateIdentityMatch, StateHandoffEscalation},
	StateIdentityMatch:     {StateIncidentCore, StateHandoffEscalation},
	StateIncidentCore:      {StateLossModule, StateHandoffEscalation},
	StateLossModule:        {StateVehicleDriver, StateThirdParties, StateInjuries, StateDamageEvidence, StateTriage, StateHandoffEscalation},
	StateVehicleDriver:     {StateThirdParties, StateInjuries, StateDamageEvidence, StateTriage, StateHandoffEscalation},
	StateThirdParties:      {StateInjuries, StateDamageEvidence, StateTriage, StateHandoffEscalation},
	StateInjuries:          {StateDamageEvidence, StateTriage, StateHandoffEscalation},
	StateDamageEvidence:    {StateTriage, StateHandoffEscalation},
	StateTriage:            {StateClaimCreate, StateHandoffEscalation},
	StateClaimCreate:       {StateNextSteps, StateHandoffEscalation},
	StateNextSteps:         {},
	StateHandoffEscalation: {},
}

// StateOrder lists the states on the normal completion path, in order.
// Used for progress tracking; HANDOFF_ESCALATION is excluded because it is
// terminal without being completion.
var StateOrder = []State{
	StateSafetyCheck,
	StateIdentityMatch,
	StateIncidentCore,
	StateLossModule,
	StateVehicleDriver,
	StateThirdParties,
	StateInjuries,
	StateDamageEvidence,
	StateTriage,
	StateClaimCreate,
	StateNextSteps,
}

// GatedStates are the module states visited only when at least one active
// playbook requires them.
var GatedStates = []State{
	StateVehicleDriver,
	StateThirdParties,
	StateInjuries,
	StateDamageEvidence,
}

// IsDeclared reports whether s is one of the twelve declared FSM states.
func (s State) IsDeclared() bool {
	_, ok := Transitions[s]
	return ok
}

// IsTerminal reports whether s is a terminal state.
func (s State) IsTerminal() bool {
	return s == StateNextSteps || s == StateHandoffEscalation
}

// CanTransition reports whether moving from s to next is legal.
// Escalation is always legal.
func (s State) CanTransition(next State) bool {
	if next == StateHandoffEscalation {
		return next.IsDeclared()
	}
	for _, t := range Transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Progress returns the completion percentage for the given position in the
// flow. Escalation reports progress from the states completed before it.
func Progress(completed []State, current State) int {
	total := len(StateOrder)
	if current == StateHandoffEscalation {
		return len(completed) * 100 / total
	}
	for i, s := range StateOrder {
		if s == current {
			return i * 100 / total
		}
	}
	return 0
}
