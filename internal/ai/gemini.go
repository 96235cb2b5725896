package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"fnol/internal/claim"
	"fnol/internal/config"
	"fnol/internal/logging"
)

// =============================================================================
// GEMINI-BACKED ADAPTERS
// =============================================================================

// GeminiClient implements the three adapter interfaces against the Gemini
// API. Responses are schema-constrained JSON: anything that does not parse
// into the expected shape is treated as no signal.
type GeminiClient struct {
	client  *genai.Client
	model   string
	retries int
}

// NewGeminiClient creates a Gemini-backed adapter from AI config.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model, retries: cfg.MaxRetries}, nil
}

func (g *GeminiClient) generateJSON(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			lastErr = err
			continue
		}
		text := resp.Text()
		if text == "" {
			lastErr = fmt.Errorf("empty response")
			continue
		}
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrExtractionFailed, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("gemini generate failed: %w", lastErr)
}

// Classify implements IntentDetector with the output constrained to the
// seven intent values.
func (g *GeminiClient) Classify(ctx context.Context, text string, ictx IntentContext) (IntentResult, error) {
	intentValues := make([]string, len(ValidIntents))
	for i, v := range ValidIntents {
		intentValues[i] = string(v)
	}
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent":     {Type: genai.TypeString, Enum: intentValues},
			"confidence": {Type: genai.TypeNumber},
		},
		Required: []string{"intent"},
	}

	prompt := fmt.Sprintf(
		"Classify the user's message into exactly one intent.\n"+
			"Intents: report_accident (wants to report an incident), provide_info "+
			"(answering a question), confirm_yes, confirm_no, ask_question, "+
			"request_human, unclear.\n"+
			"Pending question: %q\nUser message: %q",
		ictx.PendingQuestion, text,
	)

	var raw struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := g.generateJSON(ctx, prompt, schema, &raw); err != nil {
		logging.AIWarn("intent classification failed: %v", err)
		return IntentResult{Intent: IntentUnclear, Confidence: 0.3}, err
	}
	in := Intent(raw.Intent)
	if !validIntent(in) {
		return IntentResult{Intent: IntentUnclear, Confidence: 0.3}, ErrExtractionFailed
	}
	conf := raw.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.8
	}
	return IntentResult{Intent: in, Confidence: conf}, nil
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date":          {Type: genai.TypeString, Description: "ISO date YYYY-MM-DD"},
		"time":          {Type: genai.TypeString, Description: "24h time HH:MM"},
		"location":      {Type: genai.TypeString},
		"state":         {Type: genai.TypeString, Description: "two-letter US state"},
		"zip_code":      {Type: genai.TypeString},
		"vehicle_year":  {Type: genai.TypeString},
		"vehicle_make":  {Type: genai.TypeString},
		"vehicle_model": {Type: genai.TypeString},
		"vehicle_color": {Type: genai.TypeString},
		"full_name":     {Type: genai.TypeString},
		"phone":         {Type: genai.TypeString},
		"loss_type": {Type: genai.TypeString, Enum: []string{
			"collision", "theft", "weather", "vandalism", "glass", "fire",
		}},
		"damage_areas": {Type: genai.TypeArray, Items: &genai.Schema{
			Type: genai.TypeString,
		}},
	},
}

// Extract implements Extractor via schema-constrained JSON generation.
// Output failing the schema returns ErrExtractionFailed.
func (g *GeminiClient) Extract(ctx context.Context, text string, targets []string) (*Entities, error) {
	prompt := fmt.Sprintf(
		"Extract insurance claim entities from the user's message. Only "+
			"include fields explicitly present in the text. Targets: %s.\n"+
			"User message: %q",
		strings.Join(targets, ", "), text,
	)

	var raw map[string]any
	if err := g.generateJSON(ctx, prompt, extractionSchema, &raw); err != nil {
		return nil, err
	}

	e := &Entities{}
	val := func(key string) *Value {
		s, _ := raw[key].(string)
		if s == "" {
			return nil
		}
		return &Value{Value: s, Confidence: 0.8}
	}
	e.Date = val("date")
	e.Time = val("time")
	e.Location = val("location")
	e.State = val("state")
	e.ZipCode = val("zip_code")
	e.VehicleYear = val("vehicle_year")
	e.VehicleMake = val("vehicle_make")
	e.VehicleModel = val("vehicle_model")
	e.VehicleColor = val("vehicle_color")
	e.FullName = val("full_name")
	e.Phone = val("phone")
	e.LossType = val("loss_type")
	if areas, ok := raw["damage_areas"].([]any); ok {
		for _, a := range areas {
			if s, ok := a.(string); ok && s != "" {
				e.DamageAreas = append(e.DamageAreas, Value{Value: s, Confidence: 0.8})
			}
		}
	}
	return e, nil
}

// Summarize implements Summarizer: the deterministic template is rendered
// first and Gemini only rephrases it, so the facts cannot drift.
func (g *GeminiClient) Summarize(ctx context.Context, st *claim.ConversationState) (Summary, error) {
	base, _ := NewTemplateSummarizer(nil).Summarize(ctx, st)

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
		},
		Required: []string{"summary"},
	}
	prompt := fmt.Sprintf(
		"Rewrite this insurance claim summary in clear, neutral prose. "+
			"State facts only. Never add coverage, fault, or liability "+
			"language. Keep every factual detail.\n\n%s",
		base.Full,
	)

	var raw struct {
		Summary string `json:"summary"`
	}
	if err := g.generateJSON(ctx, prompt, schema, &raw); err != nil {
		logging.AIWarn("summary rephrase failed, using template: %v", err)
		return base, nil
	}
	if strings.TrimSpace(raw.Summary) == "" {
		return base, nil
	}
	out := base
	out.Full = raw.Summary
	out.WordCount = len(strings.Fields(raw.Summary))
	return out, nil
}
