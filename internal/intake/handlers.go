package intake

import (
	"fmt"
	"strings"
	"unicode"

	"fnol/internal/claim"
	"fnol/internal/logging"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Step name constants shared across handlers. Steps that exist in only one
// handler stay as literals in that file.
const (
	stepAwaitingSafety = "awaiting_safety"
	stepQuestionPrefix = "question:"
)

// respond ends the current handler pass with a prompt for the user. Text
// already queued this turn (a transition message from an earlier handler)
// is kept and the prompt appended.
func respond(st *claim.ConversationState, text, question, field string, options ...claim.Option) {
	appendResponse(st, text)
	st.NeedsUserInput = true
	st.PendingQuestion = question
	st.PendingField = field
	st.PendingOptions = options
}

// say queues a message without requesting input, for text delivered on the
// way into a terminal step.
func say(st *claim.ConversationState, text string) {
	appendResponse(st, text)
	st.PendingQuestion = ""
	st.PendingField = ""
	st.PendingOptions = nil
}

func appendResponse(st *claim.ConversationState, text string) {
	if st.Response == "" {
		st.Response = text
		return
	}
	st.Response = strings.TrimRight(st.Response, "\n") + "\n\n" + text
}

var (
	negativeWords = map[string]bool{
		"no": true, "nope": true, "nah": true, "not": true, "negative": true,
		"none": true, "don't": true, "didn't": true, "can't": true, "false": true,
	}
	affirmativeWords = map[string]bool{
		"yes": true, "yeah": true, "yep": true, "yup": true, "correct": true,
		"right": true, "sure": true, "ok": true, "okay": true, "safe": true,
		"fine": true, "affirmative": true, "true": true,
	}
)

// parseYesNo reads an affirmative or negative out of free text, matching on
// whole words so "someone" never reads as "no". Negation wins when both
// appear ("not okay"). The second return is false when neither reading is
// safe.
func parseYesNo(text string) (bool, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	var pos, neg bool
	for _, w := range words {
		if negativeWords[w] {
			neg = true
		}
		if affirmativeWords[w] {
			pos = true
		}
	}
	if neg {
		return false, true
	}
	if pos {
		return true, true
	}
	return false, false
}

// matchOption resolves free text against a select question's options,
// preferring value matches over label matches.
func matchOption(text string, options []claim.Option) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, o := range options {
		if t == strings.ToLower(o.Value) {
			return o.Value, true
		}
	}
	for _, o := range options {
		if strings.Contains(t, strings.ToLower(o.Value)) || strings.Contains(t, strings.ToLower(o.Label)) {
			return o.Value, true
		}
	}
	return "", false
}

// askNextQuestion drains the next unasked playbook question bound to the
// given state. It returns true when a question was put to the user; the
// step is set so the answer lands back on the right question ID.
func (m *Machine) askNextQuestion(st *claim.ConversationState, state claim.State) bool {
	qs := m.deps.Registry.QuestionsForState(st.ActivePlaybooks, state, st)
	for _, q := range qs {
		if st.WasAsked(q.ID) {
			continue
		}
		st.MarkAsked(q.ID)
		st.Step = stepQuestionPrefix + q.ID
		text := q.Text
		if q.HelpText != "" {
			text += "\n\n_" + q.HelpText + "_"
		}
		respond(st, text, q.ID, q.Field, q.Options...)
		return true
	}
	return false
}

// recordQuestionAnswer stores the answer for a step of the form
// "question:<id>". Select questions normalize to the matched option value.
// Returns true when the step was a playbook question.
func (m *Machine) recordQuestionAnswer(st *claim.ConversationState, state claim.State) bool {
	if !strings.HasPrefix(st.Step, stepQuestionPrefix) {
		return false
	}
	id := strings.TrimPrefix(st.Step, stepQuestionPrefix)
	answer := strings.TrimSpace(st.CurrentInput)
	if len(st.PendingOptions) > 0 {
		if v, ok := matchOption(answer, st.PendingOptions); ok {
			answer = v
		}
	}
	st.RecordAnswer(id, answer)
	if st.PendingField != "" {
		st.SetField(st.PendingField, answer)
	}
	st.Step = ""
	return true
}

// nextModuleState picks the state after `from`: the first gated module some
// active playbook requires, or TRIAGE when none remain.
func (m *Machine) nextModuleState(st *claim.ConversationState, from claim.State) claim.State {
	required := map[claim.State]bool{}
	for _, s := range m.deps.Registry.RequiredStates(st.ActivePlaybooks) {
		required[s] = true
	}
	reached := from == claim.StateLossModule
	for _, s := range claim.GatedStates {
		if s == from {
			reached = true
			continue
		}
		if reached && required[s] {
			return s
		}
	}
	return claim.StateTriage
}

// leaveModule validates the active playbooks for data gaps, folds warnings
// into the outgoing response, and transitions to the next required state.
// Validation errors hold the current state and ask the user to fill the gap.
func (m *Machine) leaveModule(st *claim.ConversationState, from claim.State) error {
	res := m.deps.Registry.ValidateAll(st.ActivePlaybooks, st)
	if !res.Valid {
		respond(st, res.Errors[0], "validation", "")
		return nil
	}
	for _, w := range res.Warnings {
		logging.Playbook("validation warning thread=%s: %s", st.ThreadID, w)
	}
	if len(res.Warnings) > 0 {
		st.SetField("validation.warnings", strings.Join(res.Warnings, "; "))
	}
	next := m.nextModuleState(st, from)
	return st.TransitionTo(next, strings.ToLower(string(from))+" complete")
}

// refreshDetection recomputes the active playbook set and folds in the
// resulting triage flags. Flags are append-only; a scenario dropping out of
// the active set never retracts a raised flag.
func (m *Machine) refreshDetection(st *claim.ConversationState) {
	st.ActivePlaybooks = m.deps.Registry.Detect(st, m.activationThreshold())
	st.AppendFlags(m.deps.Registry.CollectFlags(st.ActivePlaybooks, st)...)
}

func (m *Machine) activationThreshold() float64 {
	if m.cfg.ActivationThreshold > 0 {
		return m.cfg.ActivationThreshold
	}
	return 0.5
}

// evidenceChecklist renders the outstanding evidence requests as a bullet
// list, or empty when no active playbook needs anything.
func (m *Machine) evidenceChecklist(st *claim.ConversationState) string {
	evidence := m.deps.Registry.CollectEvidence(st.ActivePlaybooks, st)
	if len(evidence) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("To help process your claim faster, please gather:\n")
	for _, ev := range evidence {
		fmt.Fprintf(&b, "• %s\n", ev.Description)
	}
	return b.String()
}

// playbookActive reports whether a scenario is in the current active set.
func playbookActive(st *claim.ConversationState, id string) bool {
	for _, ap := range st.ActivePlaybooks {
		if ap.ID == id {
			return true
		}
	}
	return false
}
