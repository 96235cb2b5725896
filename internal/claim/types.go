package claim

import (
	"fmt"
	"time"
)

// =============================================================================
// QUESTIONS AND PLAYBOOK ACTIVATION
// =============================================================================

// Option is one choice for a select-style question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is a single follow-up question contributed by a playbook.
// ID is globally unique across playbooks; the driver asks each ID at most
// once per conversation regardless of which playbook re-contributes it.
type Question struct {
	ID       string   `json:"id"`
	State    State    `json:"state"`
	Priority int      `json:"priority"`
	Text     string   `json:"text"`
	HelpText string   `json:"help_text,omitempty"`
	Field    string   `json:"field"`
	Options  []Option `json:"options,omitempty"`
	Required bool     `json:"required"`
	Playbook string   `json:"playbook,omitempty"`
}

// ActivePlaybook records one playbook activation in the current detection
// pass, with the confidence that produced it.
type ActivePlaybook struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Priority   int     `json:"priority"`
}

// =============================================================================
// TRIAGE
// =============================================================================

// Triage route constants, in precedence order.
const (
	RouteEscalateUrgent = "ESCALATE_URGENT"
	RouteStandardReview = "STANDARD_REVIEW"
	RouteFastTrack      = "FAST_TRACK"
	RouteAutoApprove    = "AUTO_APPROVE"
)

// TriageResult is the routing decision for a completed intake.
type TriageResult struct {
	Route       string    `json:"route"`
	ReasonCodes []string  `json:"reason_codes"`
	Flags       []string  `json:"flags"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// =============================================================================
// INCIDENT RECORDS
// =============================================================================

// Incident holds the core who/what/when/where facts gathered early in the
// flow. Fields is the open-ended key space playbook questions write into via
// dotted field paths.
type Incident struct {
	LossType     string            `json:"loss_type,omitempty"`
	WeatherType  string            `json:"weather_type,omitempty"`
	TheftType    string            `json:"theft_type,omitempty"`
	OccurredAt   string            `json:"occurred_at,omitempty"`
	Location     string            `json:"location,omitempty"`
	LocationState string           `json:"location_state,omitempty"`
	Description  string            `json:"description,omitempty"`
	VehicleCount int               `json:"vehicle_count,omitempty"`
	DUISuspected bool              `json:"dui_suspected,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
}

// PolicyMatch is the outcome of identity verification against the policy
// store.
type PolicyMatch struct {
	PolicyNumber string `json:"policy_number"`
	HolderName   string `json:"holder_name"`
	HolderState  string `json:"holder_state,omitempty"`
	Verified     bool   `json:"verified"`
	GuestMode    bool   `json:"guest_mode,omitempty"`
}

// Vehicle describes one vehicle involved in the loss.
type Vehicle struct {
	Year      string `json:"year,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Plate     string `json:"plate,omitempty"`
	Ownership string `json:"ownership,omitempty"`
	UseAtTime string `json:"use_at_time,omitempty"`
	Drivable  bool   `json:"drivable"`
	IsInsured bool   `json:"is_insured"`
}

// Party is a third party involved in the incident.
type Party struct {
	Name            string `json:"name,omitempty"`
	Role            string `json:"role,omitempty"`
	InsuranceStatus string `json:"insurance_status,omitempty"`
	Fled            bool   `json:"fled,omitempty"`
	Unknown         bool   `json:"unknown,omitempty"`
	Contact         string `json:"contact,omitempty"`
}

// Injury records one reported injury.
type Injury struct {
	Person         string `json:"person,omitempty"`
	Severity       string `json:"severity,omitempty"`
	Fatal          bool   `json:"fatal,omitempty"`
	Hospitalized   bool   `json:"hospitalized,omitempty"`
	TreatmentGiven string `json:"treatment_given,omitempty"`
}

// Damage describes one damage area on a vehicle.
type Damage struct {
	Area        string `json:"area"`
	Severity    string `json:"severity,omitempty"`
	GlassOnly   bool   `json:"glass_only,omitempty"`
	Vandalism   bool   `json:"vandalism,omitempty"`
	Description string `json:"description,omitempty"`
}

// EvidenceItem is a requested or collected piece of supporting evidence.
type EvidenceItem struct {
	Kind      string `json:"kind"`
	Collected bool   `json:"collected"`
	Reference string `json:"reference,omitempty"`
}

// PoliceInfo captures law-enforcement involvement.
type PoliceInfo struct {
	ReportFiled  bool   `json:"report_filed"`
	ReportNumber string `json:"report_number,omitempty"`
	Agency       string `json:"agency,omitempty"`
	ArrestMade   bool   `json:"arrest_made,omitempty"`
}

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// Message is one turn of the conversation transcript.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// AuditEvent records one state transition for the audit trail.
type AuditEvent struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// ConversationState is the full durable record for one intake thread. It is
// loaded, mutated by exactly one handler pass, and saved with optimistic
// version checking on every turn.
type ConversationState struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id,omitempty"`
	Version  int64  `json:"version"`

	CurrentState  State  `json:"current_state"`
	PreviousState State  `json:"previous_state,omitempty"`
	Step          string `json:"step,omitempty"`

	StateHistory []AuditEvent `json:"state_history,omitempty"`
	Messages     []Message    `json:"messages,omitempty"`
	CurrentInput string       `json:"current_input,omitempty"`
	Response     string       `json:"response,omitempty"`

	// Turn prompt bookkeeping. NeedsUserInput stops the handler loop;
	// PendingQuestion/PendingField name what the next input answers.
	NeedsUserInput  bool     `json:"needs_user_input,omitempty"`
	PendingQuestion string   `json:"pending_question,omitempty"`
	PendingField    string   `json:"pending_field,omitempty"`
	PendingOptions  []Option `json:"pending_options,omitempty"`

	Incident         Incident     `json:"incident"`
	PolicyMatch      *PolicyMatch `json:"policy_match,omitempty"`
	IdentityAttempts int          `json:"identity_attempts,omitempty"`

	Vehicles []Vehicle      `json:"vehicles,omitempty"`
	Parties  []Party        `json:"parties,omitempty"`
	Injuries []Injury       `json:"injuries,omitempty"`
	Damages  []Damage       `json:"damages,omitempty"`
	Evidence []EvidenceItem `json:"evidence,omitempty"`
	Police   PoliceInfo     `json:"police"`

	CollectedAnswers map[string]string `json:"collected_answers,omitempty"`
	AskedQuestions   []string          `json:"asked_questions,omitempty"`

	ActivePlaybooks []ActivePlaybook `json:"active_playbooks,omitempty"`
	TriageFlags     []string         `json:"triage_flags,omitempty"`

	AIConfidence float64 `json:"ai_confidence"`
	LossAmount   float64 `json:"loss_amount,omitempty"`

	ClaimDraftID string        `json:"claim_draft_id,omitempty"`
	ClaimNumber  string        `json:"claim_number,omitempty"`
	TriageResult *TriageResult `json:"triage_result,omitempty"`

	SafetyConfirmed   bool   `json:"safety_confirmed,omitempty"`
	EmergencyDetected bool   `json:"emergency_detected,omitempty"`
	Escalated         bool   `json:"escalated,omitempty"`
	EscalationReason  string `json:"escalation_reason,omitempty"`
	Completed         bool   `json:"completed,omitempty"`

	CompletedStates []State `json:"completed_states,omitempty"`
	ProgressPercent int     `json:"progress_percent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState returns a fresh state positioned at SAFETY_CHECK.
func NewConversationState(threadID, userID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		ThreadID:         threadID,
		UserID:           userID,
		CurrentState:     StateSafetyCheck,
		Incident:         Incident{Fields: map[string]string{}},
		CollectedAnswers: map[string]string{},
		AIConfidence:     1.0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AppendFlags adds any flags not already present. Flags are append-only;
// nothing ever removes one.
func (c *ConversationState) AppendFlags(flags ...string) {
	for _, f := range flags {
		if !c.HasFlag(f) {
			c.TriageFlags = append(c.TriageFlags, f)
		}
	}
}

// HasFlag reports whether the flag has been raised on this conversation.
func (c *ConversationState) HasFlag(flag string) bool {
	for _, f := range c.TriageFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// WasAsked reports whether the question ID has already been put to the user.
func (c *ConversationState) WasAsked(id string) bool {
	for _, q := range c.AskedQuestions {
		if q == id {
			return true
		}
	}
	return false
}

// MarkAsked records that a question has been asked so it is never repeated.
func (c *ConversationState) MarkAsked(id string) {
	if !c.WasAsked(id) {
		c.AskedQuestions = append(c.AskedQuestions, id)
	}
}

// RecordAnswer stores an answer under its question ID. Answers are never
// overwritten; the first answer for an ID wins.
func (c *ConversationState) RecordAnswer(id, answer string) {
	if c.CollectedAnswers == nil {
		c.CollectedAnswers = map[string]string{}
	}
	if _, ok := c.CollectedAnswers[id]; !ok {
		c.CollectedAnswers[id] = answer
	}
}

// Answer returns the collected answer for a question ID, if any.
func (c *ConversationState) Answer(id string) (string, bool) {
	v, ok := c.CollectedAnswers[id]
	return v, ok
}

// SetField writes a value under a dotted field path in the incident record.
func (c *ConversationState) SetField(path, value string) {
	if c.Incident.Fields == nil {
		c.Incident.Fields = map[string]string{}
	}
	c.Incident.Fields[path] = value
}

// Field reads a value from the incident field map.
func (c *ConversationState) Field(path string) string {
	return c.Incident.Fields[path]
}

// ObserveConfidence folds an extraction confidence into the running minimum.
func (c *ConversationState) ObserveConfidence(conf float64) {
	if conf < c.AIConfidence {
		c.AIConfidence = conf
	}
}

// TransitionTo moves the conversation to the next state, recording the audit
// event and progress. It returns an error when the transition is not legal.
func (c *ConversationState) TransitionTo(next State, reason string) error {
	if !next.IsDeclared() {
		return fmt.Errorf("transition to undeclared state %q", next)
	}
	if !c.CurrentState.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", c.CurrentState, next)
	}
	c.StateHistory = append(c.StateHistory, AuditEvent{
		From:   c.CurrentState,
		To:     next,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	c.markCompleted(c.CurrentState)
	c.PreviousState = c.CurrentState
	c.CurrentState = next
	c.Step = ""
	c.ProgressPercent = Progress(c.CompletedStates, next)
	return nil
}

// Escalate moves the conversation to HANDOFF_ESCALATION and records why.
func (c *ConversationState) Escalate(reason string) {
	if c.CurrentState == StateHandoffEscalation {
		return
	}
	c.StateHistory = append(c.StateHistory, AuditEvent{
		From:   c.CurrentState,
		To:     StateHandoffEscalation,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	c.PreviousState = c.CurrentState
	c.CurrentState = StateHandoffEscalation
	c.Escalated = true
	c.EscalationReason = reason
	c.Step = ""
	c.ProgressPercent = Progress(c.CompletedStates, StateHandoffEscalation)
}

func (c *ConversationState) markCompleted(s State) {
	for _, done := range c.CompletedStates {
		if done == s {
			return
		}
	}
	c.CompletedStates = append(c.CompletedStates, s)
}

// AddMessage appends one transcript turn.
func (c *ConversationState) AddMessage(role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content, At: time.Now().UTC()})
}
