// Package ai holds the bounded model adapters used by the intake driver.
// Every adapter is advisory: output is constrained to a fixed enum or
// schema, and any failure degrades to "no signal" rather than blocking
// the conversation.
package ai

import (
	"context"
	"errors"

	"fnol/internal/claim"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrExtractionFailed is returned when model output does not satisfy
	// the expected schema.
	ErrExtractionFailed = errors.New("ai: extraction output failed schema validation")

	// ErrUnavailable is returned when no model backend is configured.
	ErrUnavailable = errors.New("ai: model backend unavailable")
)

// =============================================================================
// INTENT
// =============================================================================

// Intent is one of the seven fixed conversation intents.
type Intent string

const (
	IntentReportAccident Intent = "report_accident"
	IntentProvideInfo    Intent = "provide_info"
	IntentConfirmYes     Intent = "confirm_yes"
	IntentConfirmNo      Intent = "confirm_no"
	IntentAskQuestion    Intent = "ask_question"
	IntentRequestHuman   Intent = "request_human"
	IntentUnclear        Intent = "unclear"
)

// ValidIntents lists every accepted intent value, used to constrain model
// output.
var ValidIntents = []Intent{
	IntentReportAccident, IntentProvideInfo, IntentConfirmYes,
	IntentConfirmNo, IntentAskQuestion, IntentRequestHuman, IntentUnclear,
}

// IntentContext carries conversational hints into classification.
type IntentContext struct {
	State           claim.State
	PendingQuestion string
}

// IntentResult is a classified intent with its confidence.
type IntentResult struct {
	Intent     Intent
	Confidence float64
}

// IntentDetector classifies one user utterance.
type IntentDetector interface {
	Classify(ctx context.Context, text string, ictx IntentContext) (IntentResult, error)
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Value is one extracted field with provenance.
type Value struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"source_text,omitempty"`
}

// Entities is the schema-constrained extraction result. Nil pointers mean
// the field was not found.
type Entities struct {
	Date     *Value `json:"date,omitempty"`
	Time     *Value `json:"time,omitempty"`
	Location *Value `json:"location,omitempty"`
	State    *Value `json:"state,omitempty"`
	ZipCode  *Value `json:"zip_code,omitempty"`

	VehicleYear  *Value `json:"vehicle_year,omitempty"`
	VehicleMake  *Value `json:"vehicle_make,omitempty"`
	VehicleModel *Value `json:"vehicle_model,omitempty"`
	VehicleColor *Value `json:"vehicle_color,omitempty"`
	VehicleVIN   *Value `json:"vehicle_vin,omitempty"`
	LicensePlate *Value `json:"license_plate,omitempty"`

	FullName *Value `json:"full_name,omitempty"`
	Phone    *Value `json:"phone,omitempty"`
	Email    *Value `json:"email,omitempty"`

	LossType        *Value  `json:"loss_type,omitempty"`
	InjuryMentioned *Value  `json:"injury_mentioned,omitempty"`
	DamageAreas     []Value `json:"damage_areas,omitempty"`
}

// HasAny reports whether any entity was found.
func (e *Entities) HasAny() bool {
	if e == nil {
		return false
	}
	return e.Date != nil || e.Time != nil || e.Location != nil ||
		e.State != nil || e.ZipCode != nil || e.VehicleYear != nil ||
		e.VehicleMake != nil || e.VehicleModel != nil || e.VehicleColor != nil ||
		e.VehicleVIN != nil || e.LicensePlate != nil || e.FullName != nil ||
		e.Phone != nil || e.Email != nil || e.LossType != nil ||
		e.InjuryMentioned != nil || len(e.DamageAreas) > 0
}

// Extractor pulls structured entities out of one user utterance. The
// targets slice limits extraction to named groups (vehicle, location,
// name, loss_type, injury, damage); empty means extract everything.
type Extractor interface {
	Extract(ctx context.Context, text string, targets []string) (*Entities, error)
}

// =============================================================================
// SUMMARIZATION
// =============================================================================

// Summary is the structured closing summary of a claim.
type Summary struct {
	Incident  string
	Vehicles  string
	Parties   string
	Damages   string
	Full      string
	WordCount int
}

// Summarizer produces a factual claim summary from collected state.
// Implementations must never emit coverage or liability language.
type Summarizer interface {
	Summarize(ctx context.Context, st *claim.ConversationState) (Summary, error)
}
