package ai

import (
	"context"
	"regexp"
	"strings"
)

// =============================================================================
// RULE-BASED INTENT CLASSIFIER
// =============================================================================

// Pattern groups, checked in priority order. Human requests win over
// everything, then yes/no, then questions, then report phrasing.
var (
	yesPatterns = compileAll(
		`^y(es)?$`, `^yeah?$`, `^yep$`, `^yup$`, `^sure$`,
		`^ok(ay)?$`, `^correct$`, `^right$`, `^affirmative$`,
		`^that'?s (right|correct|me)$`, `^i (am|do|did|was|have)$`,
		`^definitely$`, `^absolutely$`, `^of course$`,
	)

	noPatterns = compileAll(
		`^no?$`, `^nope$`, `^nah$`, `^negative$`,
		`^not (yet|now|really)$`, `^i (don'?t|didn'?t|wasn'?t|haven'?t)$`,
		`^never$`, `^none$`,
	)

	humanPatterns = compileAll(
		`(speak|talk).*(human|person|agent|representative|someone)`,
		`(real|actual|live) (person|human|agent)`,
		`transfer me`,
		`get me (a |an )?(human|person|agent)`,
		`i (want|need) (a |an )?(human|person|agent)`,
	)

	questionPatterns = compileAll(
		`^(what|when|where|why|how|who|which|can|could|would|should|is|are|do|does|did)\b`,
		`\?$`,
		`^(i )?don'?t (understand|know)`,
		`^(can|could) you (explain|tell|help)`,
	)

	reportPatterns = compileAll(
		`(report|file|make|submit).*(claim|accident|incident)`,
		`(had|was in|got in).*(accident|crash|collision|incident)`,
		`(car|vehicle).*(hit|damaged|stolen|broken)`,
		`(need|want) to (report|file|claim)`,
	)

	dataPatterns = compileAll(
		`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`,
		`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`,
		`\d{1,2}:\d{2}\s*(am|pm)?`,
		`[A-HJ-NPR-Z0-9]{17}`,
	)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// RuleIntentDetector is the deterministic fast path. A fallback detector
// may be attached for inputs the rules cannot place.
type RuleIntentDetector struct {
	fallback IntentDetector
}

// NewRuleIntentDetector builds a detector with an optional fallback for
// ambiguous input. A nil fallback keeps classification fully offline.
func NewRuleIntentDetector(fallback IntentDetector) *RuleIntentDetector {
	return &RuleIntentDetector{fallback: fallback}
}

// Classify maps an utterance to one of the fixed intents. Never returns an
// error: ambiguity degrades to unclear.
func (d *RuleIntentDetector) Classify(ctx context.Context, text string, ictx IntentContext) (IntentResult, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	if lower == "" {
		return IntentResult{Intent: IntentUnclear, Confidence: 1.0}, nil
	}
	if matchesAny(lower, humanPatterns) {
		return IntentResult{Intent: IntentRequestHuman, Confidence: 0.95}, nil
	}
	if matchesAny(lower, yesPatterns) {
		return IntentResult{Intent: IntentConfirmYes, Confidence: 0.95}, nil
	}
	if matchesAny(lower, noPatterns) {
		return IntentResult{Intent: IntentConfirmNo, Confidence: 0.95}, nil
	}
	if matchesAny(lower, questionPatterns) {
		return IntentResult{Intent: IntentAskQuestion, Confidence: 0.85}, nil
	}
	if matchesAny(lower, reportPatterns) {
		return IntentResult{Intent: IntentReportAccident, Confidence: 0.9}, nil
	}

	// Answers to a pending question are providing info.
	if ictx.PendingQuestion != "" {
		return IntentResult{Intent: IntentProvideInfo, Confidence: 0.7}, nil
	}
	if matchesAny(text, dataPatterns) {
		return IntentResult{Intent: IntentProvideInfo, Confidence: 0.75}, nil
	}

	if d.fallback != nil {
		res, err := d.fallback.Classify(ctx, text, ictx)
		if err == nil && validIntent(res.Intent) {
			return res, nil
		}
	}

	if len(lower) > 10 {
		return IntentResult{Intent: IntentProvideInfo, Confidence: 0.5}, nil
	}
	return IntentResult{Intent: IntentUnclear, Confidence: 0.5}, nil
}

func validIntent(in Intent) bool {
	for _, v := range ValidIntents {
		if in == v {
			return true
		}
	}
	return false
}
