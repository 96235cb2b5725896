package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedExtractor() *RegexExtractor {
	x := NewRegexExtractor(nil)
	x.now = func() time.Time {
		return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	}
	return x
}

func extract(t *testing.T, text string, targets ...string) *Entities {
	t.Helper()
	e, err := fixedExtractor().Extract(context.Background(), text, targets)
	require.NoError(t, err)
	return e
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"slash format", "it happened on 3/12/2026", "2026-03-12"},
		{"two digit year", "on 3/12/26 around noon", "2026-03-12"},
		{"iso format", "2026-03-12 is when it happened", "2026-03-12"},
		{"yesterday", "it happened yesterday evening", "2026-03-14"},
		{"today", "this happened today", "2026-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extract(t, tt.text)
			require.NotNil(t, e.Date)
			assert.Equal(t, tt.want, e.Date.Value)
		})
	}
}

func TestExtractDateRejectsImpossible(t *testing.T) {
	e := extract(t, "it was on 13/45/2026")
	assert.Nil(t, e.Date)
}

func TestExtractTime(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"pm clock", "around 3:30 pm", "15:30"},
		{"am clock", "at 8:15am", "08:15"},
		{"noon special case", "12:00 pm sharp", "12:00"},
		{"midnight special case", "12:30 am", "00:30"},
		{"natural word", "sometime in the evening", "18:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extract(t, tt.text)
			require.NotNil(t, e.Time)
			assert.Equal(t, tt.want, e.Time.Value)
		})
	}
}

func TestExtractContact(t *testing.T) {
	e := extract(t, "call me at (512) 555-0123 or jane.doe@example.com, zip 78701")
	require.NotNil(t, e.Phone)
	assert.Equal(t, "5125550123", e.Phone.Value)
	require.NotNil(t, e.Email)
	assert.Equal(t, "jane.doe@example.com", e.Email.Value)
	require.NotNil(t, e.ZipCode)
	assert.Equal(t, "78701", e.ZipCode.Value)
}

func TestExtractState(t *testing.T) {
	e := extract(t, "I was driving through TX at the time")
	require.NotNil(t, e.State)
	assert.Equal(t, "TX", e.State.Value)

	// Lowercase words never read as state codes.
	e = extract(t, "it was in that area")
	assert.Nil(t, e.State)
}

func TestExtractVehicle(t *testing.T) {
	e := extract(t, "a blue 2022 Toyota sedan", "vehicle")
	require.NotNil(t, e.VehicleYear)
	assert.Equal(t, "2022", e.VehicleYear.Value)
	require.NotNil(t, e.VehicleMake)
	assert.Equal(t, "Toyota", e.VehicleMake.Value)
	require.NotNil(t, e.VehicleColor)
	assert.Equal(t, "Blue", e.VehicleColor.Value)
}

func TestExtractVehicleMakeAliases(t *testing.T) {
	e := extract(t, "it was a chevy pickup", "vehicle")
	require.NotNil(t, e.VehicleMake)
	assert.Equal(t, "Chevrolet", e.VehicleMake.Value)
}

func TestExtractLossType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"someone rear-ended me at a light", "collision"},
		{"my car was stolen overnight", "theft"},
		{"hail destroyed my hood", "weather"},
		{"somebody keyed my door", "vandalism"},
		{"a rock cracked my windshield", "glass"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			e := extract(t, tt.text, "loss_type")
			require.NotNil(t, e.LossType)
			assert.Equal(t, tt.want, e.LossType.Value)
		})
	}
}

func TestExtractInjuryMention(t *testing.T) {
	e := extract(t, "my neck really hurt afterwards", "injury")
	require.NotNil(t, e.InjuryMentioned)

	e = extract(t, "everyone walked away fine", "injury")
	assert.Nil(t, e.InjuryMentioned)
}

func TestExtractTargetsFilter(t *testing.T) {
	// Vehicle details are skipped when only loss_type is requested.
	e := extract(t, "my 2022 Toyota was stolen", "loss_type")
	require.NotNil(t, e.LossType)
	assert.Nil(t, e.VehicleMake)
}

type stubExtractor struct {
	entities *Entities
	err      error
}

func (s *stubExtractor) Extract(ctx context.Context, text string, targets []string) (*Entities, error) {
	return s.entities, s.err
}

func TestExtractFallbackFillsGapsOnly(t *testing.T) {
	x := NewRegexExtractor(&stubExtractor{entities: &Entities{
		Date:     &Value{Value: "1999-01-01", Confidence: 0.5},
		Location: &Value{Value: "the parking garage on 5th", Confidence: 0.6},
	}})
	e, err := x.Extract(context.Background(), "it happened on 3/12/2026 downtown", nil)
	require.NoError(t, err)
	// Regex result wins, fallback only fills what regex missed.
	assert.Equal(t, "2026-03-12", e.Date.Value)
	require.NotNil(t, e.Location)
	assert.Equal(t, "the parking garage on 5th", e.Location.Value)
}

func TestExtractFallbackErrorKeepsRegexResults(t *testing.T) {
	x := NewRegexExtractor(&stubExtractor{err: context.DeadlineExceeded})
	e, err := x.Extract(context.Background(), "call 512-555-0123", nil)
	assert.Error(t, err)
	require.NotNil(t, e)
	require.NotNil(t, e.Phone)
	assert.Equal(t, "5125550123", e.Phone.Value)
}
