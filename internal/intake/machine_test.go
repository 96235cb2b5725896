package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnol/internal/ai"
	"fnol/internal/claim"
	"fnol/internal/config"
	"fnol/internal/playbook"
	"fnol/internal/store"
	"fnol/internal/triage"
)

func newTestMachine(t *testing.T) (*Machine, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SeedPolicy(context.Background(),
		"AUTO-123456", "John Smith", "TX", "5125550123", "Smith", "78701"))

	cfg := config.DefaultConfig()
	m := NewMachine(cfg.Intake, Deps{
		Sessions:    mem,
		Claims:      mem,
		Policies:    mem,
		Escalations: mem,
		Registry:    playbook.NewDefaultRegistry(nil),
		Triage:      triage.NewEngine(cfg.Triage),
		Intents:     ai.NewRuleIntentDetector(nil),
		Extractor:   ai.NewRegexExtractor(nil),
		Summarizer:  ai.NewTemplateSummarizer(nil),
	})
	return m, mem
}

// send runs one user turn and fails the test on any driver error.
func send(t *testing.T, m *Machine, threadID, text string) *claim.ConversationState {
	t.Helper()
	st, err := m.ProcessMessage(context.Background(), threadID, text)
	require.NoError(t, err, "turn %q", text)
	return st
}

func TestCreateSession(t *testing.T) {
	m, _ := newTestMachine(t)
	st, err := m.CreateSession(context.Background(), "t1", "u1")
	require.NoError(t, err)

	assert.Equal(t, claim.StateSafetyCheck, st.CurrentState)
	assert.Contains(t, st.Response, "safe location")
	assert.True(t, st.NeedsUserInput)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, roleAssistant, st.Messages[0].Role)
}

func TestCreateSessionDuplicate(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.CreateSession(context.Background(), "t1", "")
	require.NoError(t, err)
	_, err = m.CreateSession(context.Background(), "t1", "")
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestProcessMessageUnknownState(t *testing.T) {
	m, mem := newTestMachine(t)
	st := claim.NewConversationState("t1", "")
	st.CurrentState = claim.State("LIMBO")
	require.NoError(t, mem.Save(context.Background(), st))

	_, err := m.ProcessMessage(context.Background(), "t1", "hello")
	assert.ErrorIs(t, err, ErrUnknownState)
}

// The full glass-only walk: verified identity, gated module skipping, the
// scenario question drain, triage, draft creation, and the goodbye.
func TestGlassClaimEndToEnd(t *testing.T) {
	m, mem := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	st := send(t, m, "t1", "yes")
	assert.Contains(t, st.Response, "injured")

	st = send(t, m, "t1", "no one was hurt")
	assert.True(t, st.SafetyConfirmed)
	assert.Equal(t, claim.StateIdentityMatch, st.CurrentState)

	st = send(t, m, "t1", "AUTO-123456")
	assert.Contains(t, st.Response, "John Smith")

	st = send(t, m, "t1", "yes")
	require.NotNil(t, st.PolicyMatch)
	assert.True(t, st.PolicyMatch.Verified)
	assert.Equal(t, claim.StateIncidentCore, st.CurrentState)

	st = send(t, m, "t1", "glass")
	assert.Equal(t, "glass", st.Incident.LossType)

	st = send(t, m, "t1", "it happened yesterday")
	assert.NotEmpty(t, st.Incident.OccurredAt)

	st = send(t, m, "t1", "skip")
	st = send(t, m, "t1", "I-35 near downtown Austin, TX")
	assert.Equal(t, "TX", st.Incident.LocationState)

	st = send(t, m, "t1", "A rock flew off a truck and cracked my windshield while I was driving")
	// Scenario detection fires and its incident questions drain first.
	require.NotEmpty(t, st.ActivePlaybooks)
	assert.Equal(t, "glass_only", st.ActivePlaybooks[0].ID)
	assert.Contains(t, st.Response, "Which glass is damaged?")

	st = send(t, m, "t1", "windshield")
	assert.Equal(t, "windshield", st.Field("incident.glass_type"))

	st = send(t, m, "t1", "crack")
	st = send(t, m, "t1", "road_debris")
	assert.Equal(t, claim.StateLossModule, st.CurrentState)
	assert.Contains(t, st.Response, "Is this correct?")

	// Confirming the summary skips the modules glass does not need.
	st = send(t, m, "t1", "yes")
	assert.Equal(t, claim.StateDamageEvidence, st.CurrentState)
	assert.NotContains(t, st.CompletedStates, claim.StateVehicleDriver)
	assert.NotContains(t, st.CompletedStates, claim.StateInjuries)

	st = send(t, m, "t1", "just the windshield")
	require.NotEmpty(t, st.Damages)
	assert.True(t, st.Damages[0].GlassOnly)
	assert.Contains(t, st.TriageFlags, "glass_only")

	st = send(t, m, "t1", "minor")
	assert.Equal(t, float64(500), st.LossAmount)

	st = send(t, m, "t1", "no")
	st = send(t, m, "t1", "yes")
	assert.Contains(t, st.Response, "other damage")

	// Answering the last scenario question rolls through triage and into
	// the claim confirmation in the same turn.
	st = send(t, m, "t1", "no")
	assert.Equal(t, claim.StateClaimCreate, st.CurrentState)
	require.NotNil(t, st.TriageResult)
	assert.Equal(t, claim.RouteAutoApprove, st.TriageResult.Route)
	assert.Contains(t, st.Response, "Is this information correct?")

	st = send(t, m, "t1", "yes")
	assert.Equal(t, claim.StateNextSteps, st.CurrentState)
	assert.Regexp(t, `^FNOL-\d{4}-[0-9A-F]{6}$`, st.ClaimNumber)
	assert.Contains(t, st.Response, st.ClaimNumber)

	st = send(t, m, "t1", "I'm all set, thank you")
	assert.True(t, st.Completed)

	draft, err := mem.CreateOrGetDraft(ctx, "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, st.ClaimNumber, draft.ClaimNumber)
	assert.Contains(t, string(draft.Payload), `"glass"`)
}

// brokenClaims simulates a claims backend that is down for every attempt.
type brokenClaims struct{ *store.MemoryStore }

func (brokenClaims) CreateOrGetDraft(ctx context.Context, threadID string, payload []byte) (*store.ClaimDraft, error) {
	return nil, errors.New("claims backend unavailable")
}

func TestDraftExhaustionEscalates(t *testing.T) {
	mem := store.NewMemoryStore()
	cfg := config.DefaultConfig()
	cfg.Intake.ClaimCreateMaxAttempts = 1
	m := NewMachine(cfg.Intake, Deps{
		Sessions:    mem,
		Claims:      brokenClaims{mem},
		Policies:    mem,
		Escalations: mem,
		Registry:    playbook.NewDefaultRegistry(nil),
		Triage:      triage.NewEngine(cfg.Triage),
		Intents:     ai.NewRuleIntentDetector(nil),
		Extractor:   ai.NewRegexExtractor(nil),
		Summarizer:  ai.NewTemplateSummarizer(nil),
	})

	ctx := context.Background()
	st := claim.NewConversationState("t1", "")
	st.CurrentState = claim.StateClaimCreate
	st.Step = "awaiting_confirmation"
	require.NoError(t, mem.Save(ctx, st))

	st = send(t, m, "t1", "yes")
	assert.Equal(t, claim.StateHandoffEscalation, st.CurrentState)
	assert.True(t, st.Escalated)
	assert.Equal(t, "technical_issue", st.Field("handoff.type"))
	assert.Contains(t, st.Response, "technical difficulty")
	assert.Empty(t, st.ClaimNumber)

	require.Len(t, mem.Escalations(), 1)
}

// stalledIntents blocks until its context is cancelled, like a hung model
// backend would.
type stalledIntents struct{}

func (stalledIntents) Classify(ctx context.Context, text string, ictx ai.IntentContext) (ai.IntentResult, error) {
	<-ctx.Done()
	return ai.IntentResult{Intent: ai.IntentUnclear}, ctx.Err()
}

func TestAdapterCallsAreBounded(t *testing.T) {
	mem := store.NewMemoryStore()
	cfg := config.DefaultConfig()
	m := NewMachine(cfg.Intake, Deps{
		Sessions:    mem,
		Claims:      mem,
		Policies:    mem,
		Escalations: mem,
		Registry:    playbook.NewDefaultRegistry(nil),
		Triage:      triage.NewEngine(cfg.Triage),
		Intents:     stalledIntents{},
		Extractor:   ai.NewRegexExtractor(nil),
		Summarizer:  ai.NewTemplateSummarizer(nil),
		AITimeout:   20 * time.Millisecond,
	})

	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	start := time.Now()
	st := send(t, m, "t1", "yes")
	assert.Less(t, time.Since(start), time.Second)
	// The hung classifier is advisory; the turn still advances.
	assert.Contains(t, st.Response, "injured")
	assert.False(t, st.Escalated)
}

func TestSevereInjuryEscalates(t *testing.T) {
	m, mem := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	st := send(t, m, "t1", "yes")
	st = send(t, m, "t1", "my wife is in the hospital")
	assert.Contains(t, st.TriageFlags, "severe_injury")
	assert.Contains(t, st.Response, "911")

	st = send(t, m, "t1", "yes")
	assert.Equal(t, claim.StateHandoffEscalation, st.CurrentState)
	assert.True(t, st.EmergencyDetected)
	assert.True(t, st.Completed)
	assert.Contains(t, st.Response, "emergency")

	escs := mem.Escalations()
	require.Len(t, escs, 1)
	assert.Equal(t, "t1", escs[0].ThreadID)
}

func TestEmergencyKeywordShortCircuits(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.CreateSession(context.Background(), "t1", "")
	require.NoError(t, err)

	st := send(t, m, "t1", "my son is trapped in the car")
	assert.Equal(t, claim.StateHandoffEscalation, st.CurrentState)
	assert.True(t, st.EmergencyDetected)
	assert.Contains(t, st.Response, "911")
}

func TestUserRequestsHumanMidFlow(t *testing.T) {
	m, mem := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	send(t, m, "t1", "yes")
	send(t, m, "t1", "no")

	st := send(t, m, "t1", "get me an agent")
	assert.Equal(t, claim.StateHandoffEscalation, st.CurrentState)
	assert.Equal(t, "user_request", st.Field("handoff.type"))
	assert.False(t, st.Completed)

	st = send(t, m, "t1", "please call me back")
	assert.Contains(t, st.Response, "best number")

	st = send(t, m, "t1", "512-555-0123")
	assert.True(t, st.Completed)
	assert.Equal(t, "(512) 555-0123", st.Field("handoff.callback_phone"))

	require.Len(t, mem.Escalations(), 1)
}

func TestIdentityExhaustionEscalates(t *testing.T) {
	m, mem := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	send(t, m, "t1", "yes")
	send(t, m, "t1", "no")

	st := send(t, m, "t1", "AUTO-999999")
	assert.Contains(t, st.Response, "double-check")
	assert.Equal(t, 1, st.IdentityAttempts)

	send(t, m, "t1", "AUTO-999999")
	st = send(t, m, "t1", "AUTO-999999")
	assert.Equal(t, claim.StateHandoffEscalation, st.CurrentState)
	assert.True(t, st.Escalated)
	assert.Equal(t, "policy_issue", st.Field("handoff.type"))
	assert.Contains(t, st.Response, "policy services")

	require.Len(t, mem.Escalations(), 1)
}

func TestGuestModeForNonPolicyholder(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	send(t, m, "t1", "yes")
	send(t, m, "t1", "no")

	st := send(t, m, "t1", "none")
	require.NotNil(t, st.PolicyMatch)
	assert.True(t, st.PolicyMatch.GuestMode)
	assert.Contains(t, st.TriageFlags, "guest_mode")
	assert.Equal(t, claim.StateIncidentCore, st.CurrentState)
	// The guest-mode reassurance and the next prompt land in one message.
	assert.Contains(t, st.Response, "still record the claim")
	assert.Contains(t, st.Response, "what happened")
}

func TestUnsafeAnswerGivesGuidance(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.CreateSession(context.Background(), "t1", "")
	require.NoError(t, err)

	st := send(t, m, "t1", "no")
	assert.Contains(t, st.Response, "call 911")
	assert.Equal(t, claim.StateSafetyCheck, st.CurrentState)

	st = send(t, m, "t1", "we moved off the road")
	assert.Contains(t, st.Response, "injured")
}

func TestLossSummaryCorrection(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)

	send(t, m, "t1", "yes")
	send(t, m, "t1", "no")
	send(t, m, "t1", "AUTO-123456")
	send(t, m, "t1", "yes")
	send(t, m, "t1", "vandalism")
	send(t, m, "t1", "3/12/2026")
	send(t, m, "t1", "skip")
	send(t, m, "t1", "outside my apartment on Oak Street")
	st := send(t, m, "t1", "somebody keyed the whole driver side overnight while it was parked")
	// Vandalism asks its own follow-ups before the summary.
	for i := 0; i < 8 && st.CurrentState == claim.StateIncidentCore; i++ {
		st = send(t, m, "t1", "no")
	}
	require.Equal(t, claim.StateLossModule, st.CurrentState)

	st = send(t, m, "t1", "no, something's off")
	assert.Contains(t, st.Response, "What should I correct?")

	st = send(t, m, "t1", "the date")
	st = send(t, m, "t1", "3/10/2026")
	assert.Equal(t, "2026-03-10", st.Incident.OccurredAt)
	assert.Contains(t, st.Response, "Is this correct?")
	assert.Equal(t, claim.StateLossModule, st.CurrentState)
}

func TestProgressAdvances(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.CreateSession(context.Background(), "t1", "")
	require.NoError(t, err)

	st := send(t, m, "t1", "yes")
	first := st.ProgressPercent
	st = send(t, m, "t1", "no")
	assert.Greater(t, st.ProgressPercent, first)
}

func TestTurnsArePersisted(t *testing.T) {
	m, mem := newTestMachine(t)
	ctx := context.Background()
	_, err := m.CreateSession(ctx, "t1", "")
	require.NoError(t, err)
	send(t, m, "t1", "yes")

	loaded, err := mem.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, claim.StateSafetyCheck, loaded.CurrentState)
	assert.Equal(t, "awaiting_injury_check", loaded.Step)
	// Opening message, user turn, assistant reply.
	assert.Len(t, loaded.Messages, 3)
	assert.Empty(t, loaded.CurrentInput)
}
