package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleIntentClassify(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		ictx    IntentContext
		want    Intent
		minConf float64
	}{
		{name: "empty input is unclear", text: "", want: IntentUnclear, minConf: 1.0},
		{name: "whitespace only", text: "   ", want: IntentUnclear, minConf: 1.0},
		{name: "bare yes", text: "yes", want: IntentConfirmYes, minConf: 0.9},
		{name: "yeah variant", text: "Yeah", want: IntentConfirmYes, minConf: 0.9},
		{name: "thats correct", text: "that's correct", want: IntentConfirmYes, minConf: 0.9},
		{name: "bare no", text: "no", want: IntentConfirmNo, minConf: 0.9},
		{name: "not yet", text: "not yet", want: IntentConfirmNo, minConf: 0.9},
		{name: "contraction negative", text: "I didn't", want: IntentConfirmNo, minConf: 0.9},
		{name: "speak to a human", text: "I want to speak to a real person", want: IntentRequestHuman, minConf: 0.9},
		{name: "transfer me", text: "just transfer me already", want: IntentRequestHuman, minConf: 0.9},
		{name: "get me an agent", text: "get me an agent", want: IntentRequestHuman, minConf: 0.9},
		{name: "human wins over question mark", text: "can I talk to a human?", want: IntentRequestHuman, minConf: 0.9},
		{name: "wh question", text: "what happens next", want: IntentAskQuestion, minConf: 0.8},
		{name: "question mark", text: "my deductible applies here?", want: IntentAskQuestion, minConf: 0.8},
		{name: "dont understand", text: "I don't understand", want: IntentAskQuestion, minConf: 0.8},
		{name: "accident report", text: "I was in an accident this morning", want: IntentReportAccident, minConf: 0.85},
		{name: "stolen car report", text: "my car got stolen", want: IntentReportAccident, minConf: 0.85},
		{name: "answer to pending question", text: "blue sedan, maybe a honda", ictx: IntentContext{PendingQuestion: "vehicle_desc"}, want: IntentProvideInfo, minConf: 0.6},
		{name: "date without pending question", text: "03/15/2026", want: IntentProvideInfo, minConf: 0.7},
		{name: "phone number", text: "512-555-0123", want: IntentProvideInfo, minConf: 0.7},
		{name: "long free text defaults to info", text: "it all happened so fast near the exit", want: IntentProvideInfo, minConf: 0.4},
		{name: "short noise is unclear", text: "hmm", want: IntentUnclear, minConf: 0.4},
	}

	d := NewRuleIntentDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := d.Classify(context.Background(), tt.text, tt.ictx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Intent)
			assert.GreaterOrEqual(t, res.Confidence, tt.minConf)
		})
	}
}

type stubDetector struct {
	res IntentResult
	err error
}

func (s *stubDetector) Classify(ctx context.Context, text string, ictx IntentContext) (IntentResult, error) {
	return s.res, s.err
}

func TestClassifyFallback(t *testing.T) {
	d := NewRuleIntentDetector(&stubDetector{res: IntentResult{Intent: IntentReportAccident, Confidence: 0.8}})
	res, err := d.Classify(context.Background(), "uhh so like the thing", IntentContext{})
	require.NoError(t, err)
	assert.Equal(t, IntentReportAccident, res.Intent)
}

func TestClassifyFallbackInvalidIntentIgnored(t *testing.T) {
	d := NewRuleIntentDetector(&stubDetector{res: IntentResult{Intent: Intent("made_up"), Confidence: 0.99}})
	res, err := d.Classify(context.Background(), "hmm", IntentContext{})
	require.NoError(t, err)
	assert.Equal(t, IntentUnclear, res.Intent)
}

func TestClassifyFallbackErrorDegrades(t *testing.T) {
	d := NewRuleIntentDetector(&stubDetector{err: context.DeadlineExceeded})
	res, err := d.Classify(context.Background(), "some longer rambling message here", IntentContext{})
	require.NoError(t, err)
	assert.Equal(t, IntentProvideInfo, res.Intent)
}
