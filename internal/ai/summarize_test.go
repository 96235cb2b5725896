package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/claim"
)

func claimState() *claim.ConversationState {
	st := claim.NewConversationState("thread-1", "")
	st.Incident.LossType = "collision"
	st.Incident.OccurredAt = "2026-03-12"
	st.Incident.Location = "I-35 near downtown Austin"
	st.Incident.Description = "Rear-ended at a red light."
	st.Vehicles = []claim.Vehicle{
		{Year: "2022", Make: "Toyota", Model: "Camry", IsInsured: true, Drivable: true},
		{Make: "Honda", Model: "Civic", Drivable: true},
	}
	st.Parties = []claim.Party{
		{Name: "John Smith", Role: "insured_driver"},
		{Name: "Sam Lee", Role: "third_party_driver"},
		{Role: "witness"},
	}
	st.Damages = []claim.Damage{{Area: "rear", Severity: "moderate"}}
	st.LossAmount = 3000
	return st
}

func TestSummarizeTemplate(t *testing.T) {
	s := NewTemplateSummarizer(nil)
	sum, err := s.Summarize(context.Background(), claimState())
	require.NoError(t, err)

	assert.Contains(t, sum.Incident, "vehicle collision")
	assert.Contains(t, sum.Incident, "March 12, 2026")
	assert.Contains(t, sum.Incident, "I-35 near downtown Austin")
	assert.Contains(t, sum.Incident, "Rear-ended at a red light.")

	assert.Contains(t, sum.Vehicles, "Insured vehicle: 2022 Toyota Camry - drivable")
	assert.Contains(t, sum.Vehicles, "Other vehicle: Honda Civic")

	assert.Contains(t, sum.Parties, "Driver: John Smith")
	assert.Contains(t, sum.Parties, "Other driver: Sam Lee")
	assert.Contains(t, sum.Parties, "1 witness(es)")
	assert.Contains(t, sum.Parties, "No injuries reported")

	assert.Contains(t, sum.Damages, "rear")
	assert.Contains(t, sum.Damages, "$3000.00")

	assert.Contains(t, sum.Full, "**Incident:**")
	assert.Positive(t, sum.WordCount)
}

func TestSummarizeEmptyState(t *testing.T) {
	s := NewTemplateSummarizer(nil)
	sum, err := s.Summarize(context.Background(), claim.NewConversationState("t", ""))
	require.NoError(t, err)
	assert.Contains(t, sum.Incident, "incident occurred")
	assert.Equal(t, "No vehicle information provided.", sum.Vehicles)
	assert.Equal(t, "No party information provided.", sum.Parties)
	assert.Equal(t, "Damage details pending assessment.", sum.Damages)
}

type stubSummarizer struct {
	sum Summary
	err error
}

func (s *stubSummarizer) Summarize(ctx context.Context, st *claim.ConversationState) (Summary, error) {
	return s.sum, s.err
}

func TestSummarizeRephraserPolishes(t *testing.T) {
	s := NewTemplateSummarizer(&stubSummarizer{sum: Summary{Full: "A short polished recap."}})
	sum, err := s.Summarize(context.Background(), claimState())
	require.NoError(t, err)
	assert.Equal(t, "A short polished recap.", sum.Full)
	assert.Equal(t, 4, sum.WordCount)
}

func TestSummarizeRephraserFailureFallsBack(t *testing.T) {
	s := NewTemplateSummarizer(&stubSummarizer{err: context.DeadlineExceeded})
	sum, err := s.Summarize(context.Background(), claimState())
	require.NoError(t, err)
	assert.Contains(t, sum.Full, "**Incident:**")
}

func TestConfirmationText(t *testing.T) {
	text := ConfirmationText(claimState())
	assert.Contains(t, text, "Type: Vehicle collision")
	assert.Contains(t, text, "Date: 2026-03-12")
	assert.Contains(t, text, "Location: I-35 near downtown Austin")
	assert.Contains(t, text, "Your vehicle: 2022 Toyota Camry")
	assert.Contains(t, text, "Other vehicles involved: 1")
	assert.Contains(t, text, "Injuries reported: No")
	assert.Contains(t, text, "Is this information correct?")
}

func TestConfirmationTextReportsInjuries(t *testing.T) {
	st := claimState()
	st.Injuries = []claim.Injury{{Person: "passenger", Severity: "minor"}}
	assert.Contains(t, ConfirmationText(st), "Injuries reported: Yes")
}
