// Package intake drives the FNOL conversation: it owns the state machine
// that walks a caller from the safety check through claim creation, one
// handler per state, with durable session state loaded and saved around
// every turn.
package intake

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fnol/internal/ai"
	"fnol/internal/claim"
	"fnol/internal/config"
	"fnol/internal/logging"
	"fnol/internal/playbook"
	"fnol/internal/store"
	"fnol/internal/triage"
)

var (
	// ErrUnknownState means the persisted state names an FSM state the
	// machine has no handler for. This is a fail-fast condition; the
	// machine never guesses a default.
	ErrUnknownState = errors.New("intake: no handler for state")

	// ErrSessionExists is returned by CreateSession for a thread that
	// already has a session.
	ErrSessionExists = errors.New("intake: session already exists")
)

const lockStripes = 64

// handlerFunc processes one iteration for a single state. Handlers mutate
// the state record in place: they set Response and NeedsUserInput to end
// the turn, or transition and leave NeedsUserInput false to let the loop
// continue into the next state's handler.
type handlerFunc func(ctx context.Context, st *claim.ConversationState) error

// Deps bundles the machine's collaborators.
type Deps struct {
	Sessions    store.SessionStore
	Claims      store.ClaimStore
	Policies    store.PolicyMatcher
	Escalations store.EscalationQueue
	Registry    *playbook.Registry
	Triage      *triage.Engine
	Intents     ai.IntentDetector
	Extractor   ai.Extractor
	Summarizer  ai.Summarizer

	// AITimeout bounds every adapter call so a hung model backend can
	// never stall a turn. Zero means the 30s default.
	AITimeout time.Duration
}

// Machine is the conversation driver. One Machine serves many concurrent
// threads; per-thread locking guarantees at most one in-flight transition
// per thread while distinct threads proceed in parallel.
type Machine struct {
	cfg  config.IntakeConfig
	deps Deps

	handlers map[claim.State]handlerFunc
	locks    [lockStripes]sync.Mutex
	creating singleflight.Group
}

// NewMachine wires the handler table and returns a ready machine.
func NewMachine(cfg config.IntakeConfig, deps Deps) *Machine {
	m := &Machine{cfg: cfg, deps: deps}
	m.handlers = map[claim.State]handlerFunc{
		claim.StateSafetyCheck:       m.handleSafetyCheck,
		claim.StateIdentityMatch:     m.handleIdentityMatch,
		claim.StateIncidentCore:      m.handleIncidentCore,
		claim.StateLossModule:        m.handleLossModule,
		claim.StateVehicleDriver:     m.handleVehicleDriver,
		claim.StateThirdParties:      m.handleThirdParties,
		claim.StateInjuries:          m.handleInjuries,
		claim.StateDamageEvidence:    m.handleDamageEvidence,
		claim.StateTriage:            m.handleTriage,
		claim.StateClaimCreate:       m.handleClaimCreate,
		claim.StateNextSteps:         m.handleNextSteps,
		claim.StateHandoffEscalation: m.handleHandoffEscalation,
	}
	return m
}

// aiContext derives the bounded context all adapter calls run under.
func (m *Machine) aiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	d := m.deps.AITimeout
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (m *Machine) lockFor(threadID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(threadID))
	return &m.locks[h.Sum32()%lockStripes]
}

// CreateSession starts a new conversation thread positioned at the safety
// check and returns the state carrying the opening message.
func (m *Machine) CreateSession(ctx context.Context, threadID, userID string) (*claim.ConversationState, error) {
	mu := m.lockFor(threadID)
	mu.Lock()
	defer mu.Unlock()

	if existing, err := m.deps.Sessions.Load(ctx, threadID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, threadID)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing session: %w", err)
	}

	st := claim.NewConversationState(threadID, userID)
	st.Step = stepAwaitingSafety
	respond(st,
		"Hello! I'm here to help you report an auto insurance claim. "+
			"I'll guide you through this step by step, and it usually takes "+
			"about 10 minutes.\n\n"+
			"First, the most important thing: **are you and everyone involved "+
			"currently in a safe location?**",
		"safety_confirmation", "safety_confirmed",
		claim.Option{Value: "yes", Label: "Yes, everyone is safe"},
		claim.Option{Value: "no", Label: "No, we need help"},
	)
	st.AddMessage(roleAssistant, st.Response)

	if err := m.deps.Sessions.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}
	logging.Flow("session created thread=%s", threadID)
	return st, nil
}

// ProcessMessage runs one user turn through the handler loop and persists
// the result. The returned state carries the assistant Response for this
// turn.
func (m *Machine) ProcessMessage(ctx context.Context, threadID, text string) (*claim.ConversationState, error) {
	mu := m.lockFor(threadID)
	mu.Lock()
	defer mu.Unlock()

	st, err := m.deps.Sessions.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", threadID, err)
	}

	st.CurrentInput = text
	st.Response = ""
	st.NeedsUserInput = false
	st.AddMessage(roleUser, text)

	// "Get me a person" works from anywhere. Classification is advisory;
	// an error just means the state handlers read the input themselves.
	if m.deps.Intents != nil && !st.CurrentState.IsTerminal() {
		ictx := ai.IntentContext{State: st.CurrentState, PendingQuestion: st.PendingQuestion}
		cctx, cancel := m.aiContext(ctx)
		res, cerr := m.deps.Intents.Classify(cctx, text, ictx)
		cancel()
		if cerr == nil && res.Intent == ai.IntentRequestHuman && res.Confidence >= 0.8 {
			st.Escalate("user requested a human representative")
		}
	}

	maxIter := m.cfg.MaxHandlerIterations
	if maxIter <= 0 {
		maxIter = 20
	}
	for i := 0; i < maxIter; i++ {
		handler, ok := m.handlers[st.CurrentState]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownState, st.CurrentState)
		}
		before := st.CurrentState
		if err := handler(ctx, st); err != nil {
			return nil, fmt.Errorf("handler %s: %w", before, err)
		}
		if before != st.CurrentState {
			logging.Flow("thread=%s %s -> %s", threadID, before, st.CurrentState)
		}
		if st.NeedsUserInput || st.Completed {
			break
		}
		if st.CurrentState.IsTerminal() && st.CurrentState == before {
			break
		}
	}

	if st.Response != "" {
		st.AddMessage(roleAssistant, st.Response)
	}
	st.ProgressPercent = claim.Progress(st.CompletedStates, st.CurrentState)
	st.CurrentInput = ""

	if err := m.save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// save persists with the optimistic version check, retrying once on a
// conflict by rebasing onto the stored version. A second conflict means a
// racing writer and surfaces as an error.
func (m *Machine) save(ctx context.Context, st *claim.ConversationState) error {
	err := m.deps.Sessions.Save(ctx, st)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrVersionConflict) {
		return fmt.Errorf("failed to save session: %w", err)
	}

	logging.StoreError("version conflict on thread=%s, rebasing once", st.ThreadID)
	latest, loadErr := m.deps.Sessions.Load(ctx, st.ThreadID)
	if loadErr != nil {
		return fmt.Errorf("failed to reload after version conflict: %w", loadErr)
	}
	st.Version = latest.Version
	if err := m.deps.Sessions.Save(ctx, st); err != nil {
		return fmt.Errorf("failed to save session after rebase: %w", err)
	}
	return nil
}
