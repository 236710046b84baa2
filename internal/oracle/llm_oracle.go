package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/llm"
	"github.com/jonathan/posting-assistant/internal/prompts"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

// invalidMarker is the value the oracle returns when an answer holds no
// usable value.
const invalidMarker = "INVALID"

// LLMOracle implements Oracle with prompt templates sent to an llm.Client.
// All tolerance for malformed model output lives here.
type LLMOracle struct {
	client llm.Client
	logger *zap.Logger
}

var _ Oracle = (*LLMOracle)(nil)

// NewLLMOracle creates an oracle on top of client. A nil logger disables logging.
func NewLLMOracle(client llm.Client, logger *zap.Logger) *LLMOracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMOracle{client: client, logger: logger}
}

type languageResponse struct {
	Language string `json:"language"`
}

// DetectLanguage returns the language code of text.
func (o *LLMOracle) DetectLanguage(ctx context.Context, text string) (string, error) {
	const op = "detect-language"
	raw, err := o.generateJSON(ctx, op, llm.TierLite, map[string]string{"Text": text})
	if err != nil {
		return "", err
	}

	var resp languageResponse
	if err := decodeObject(raw, &resp); err != nil {
		// Some models answer with the bare code.
		code := strings.Trim(strings.TrimSpace(raw), `"'.`)
		if len(code) >= 2 && len(code) <= 3 && !strings.ContainsAny(code, " {}") {
			return strings.ToLower(code), nil
		}
		return "", &ExtractionFailure{Op: op, Message: "no language in response", Raw: raw, Cause: err}
	}
	code := strings.ToLower(strings.TrimSpace(resp.Language))
	if len(code) < 2 || len(code) > 3 {
		return "", &ExtractionFailure{Op: op, Message: fmt.Sprintf("invalid language code %q", resp.Language), Raw: raw}
	}
	return code, nil
}

type intentResponse struct {
	Intention     string          `json:"intention"`
	FieldToModify string          `json:"field_to_modify"`
	Value         json.RawMessage `json:"value"`
	Confidence    json.RawMessage `json:"confidence"`
}

// ClassifyIntent classifies a user turn.
func (o *LLMOracle) ClassifyIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	const op = "classify-intent"
	raw, err := o.generateJSON(ctx, op, llm.TierLite, map[string]string{
		"Text":     req.Text,
		"Field":    string(req.Field),
		"Question": req.Question,
		"Filled":   recordJSON(req.Record),
		"Summary":  orNone(req.Summary),
		"Fields":   joinFields(req.Fields),
	})
	if err != nil {
		return IntentResult{}, err
	}

	var resp intentResponse
	if err := decodeObject(raw, &resp); err != nil {
		return IntentResult{}, &ExtractionFailure{Op: op, Message: "malformed intent", Raw: raw, Cause: err}
	}
	if strings.TrimSpace(resp.Intention) == "" {
		return IntentResult{}, &ExtractionFailure{Op: op, Message: "missing intention", Raw: raw}
	}

	return IntentResult{
		Intention:     resp.Intention,
		FieldToModify: strings.TrimSpace(resp.FieldToModify),
		Value:         scalarString(resp.Value),
		Confidence:    parseConfidence(resp.Confidence),
	}, nil
}

type resolveResponse struct {
	Field string `json:"field"`
}

// ResolveField asks the model to pick one of req.Fields.
func (o *LLMOracle) ResolveField(ctx context.Context, req ResolveRequest) (string, error) {
	const op = "resolve-field"
	raw, err := o.generateJSON(ctx, op, llm.TierLite, map[string]string{
		"Text":   req.Text,
		"Fields": joinFields(req.Fields),
	})
	if err != nil {
		return "", err
	}

	var resp resolveResponse
	if err := decodeObject(raw, &resp); err != nil {
		return "", &ExtractionFailure{Op: op, Message: "malformed field resolution", Raw: raw, Cause: err}
	}
	return strings.TrimSpace(resp.Field), nil
}

type extractResponse struct {
	Value json.RawMessage `json:"value"`
	Error string          `json:"error"`
}

// Extract pulls a value for one field out of an answer.
func (o *LLMOracle) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	const op = "extract-value"
	raw, err := o.generateJSON(ctx, op, llm.TierStandard, map[string]string{
		"Field":       string(req.Field),
		"Description": req.Description,
		"TypeHint":    req.TypeHint,
		"Enum":        orNone(strings.Join(req.Enum, ", ")),
		"Question":    req.Question,
		"Filled":      recordJSON(req.Record),
		"Summary":     orNone(req.Summary),
		"Language":    languageOrDefault(req.Language),
		"Text":        req.Text,
	})
	if err != nil {
		return ExtractResult{}, err
	}

	var resp extractResponse
	if err := decodeObject(raw, &resp); err != nil {
		return ExtractResult{}, &ExtractionFailure{Op: op, Message: "malformed extraction", Raw: raw, Cause: err}
	}

	value := json.RawMessage(strings.TrimSpace(string(resp.Value)))
	if len(value) == 0 || string(value) == "null" {
		if resp.Error != "" {
			return ExtractResult{Invalid: true, Error: resp.Error}, nil
		}
		return ExtractResult{}, &ExtractionFailure{Op: op, Message: "no value in response", Raw: raw}
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil && strings.EqualFold(strings.TrimSpace(s), invalidMarker) {
		return ExtractResult{Invalid: true, Error: resp.Error}, nil
	}
	return ExtractResult{Value: value}, nil
}

// CheckGeography looks for a geographic contradiction between a new value
// and the record.
func (o *LLMOracle) CheckGeography(ctx context.Context, req GeoCheckRequest) (GeoCheckResult, error) {
	const op = "check-geography"
	raw, err := o.generateJSON(ctx, op, llm.TierStandard, map[string]string{
		"Field":    string(req.Field),
		"Value":    req.Value.String(),
		"Record":   recordJSON(req.Record),
		"Language": languageOrDefault(req.Language),
	})
	if err != nil {
		return GeoCheckResult{}, err
	}

	var resp GeoCheckResult
	if err := decodeObject(raw, &resp); err != nil {
		return GeoCheckResult{}, &ExtractionFailure{Op: op, Message: "malformed geography check", Raw: raw, Cause: err}
	}
	return resp, nil
}

// ExtractFacts returns the durable facts stated in text.
func (o *LLMOracle) ExtractFacts(ctx context.Context, text string) (map[string]string, error) {
	const op = "extract-facts"
	raw, err := o.generateJSON(ctx, op, llm.TierLite, map[string]string{"Text": text})
	if err != nil {
		return nil, err
	}

	var resp map[string]json.RawMessage
	if err := decodeObject(raw, &resp); err != nil {
		return nil, &ExtractionFailure{Op: op, Message: "malformed facts", Raw: raw, Cause: err}
	}
	facts := make(map[string]string, len(resp))
	for k, v := range resp {
		if s := scalarString(v); s != "" {
			facts[k] = s
		}
	}
	return facts, nil
}

// Summarize condenses a transcript.
func (o *LLMOracle) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	return o.generateText(ctx, "summarize", llm.TierLite, map[string]string{
		"Text":     req.Transcript,
		"Language": languageOrDefault(req.Language),
	})
}

// Compose writes a user-facing message.
func (o *LLMOracle) Compose(ctx context.Context, req ComposeRequest) (string, error) {
	data := map[string]string{
		"Language":    languageOrDefault(req.Language),
		"Field":       string(req.Field),
		"Text":        req.Text,
		"Question":    req.Question,
		"Value":       req.Value,
		"Error":       req.Error,
		"Summary":     orNone(req.Summary),
		"Filled":      recordJSON(req.Record),
		"Record":      recordJSON(req.Record),
		"Description": "(none)",
		"TypeHint":    "(none)",
		"Enum":        "(none)",
	}
	if spec, ok := schema.Lookup(req.Field); ok {
		data["Description"] = spec.Description
		data["TypeHint"] = spec.TypeHint
		data["Enum"] = orNone(strings.Join(spec.Enum, ", "))
	}
	return o.generateText(ctx, "compose-"+string(req.Kind), llm.TierStandard, data)
}

// Translate translates text into lang.
func (o *LLMOracle) Translate(ctx context.Context, text, lang string) (string, error) {
	return o.generateText(ctx, "translate", llm.TierLite, map[string]string{
		"Text":     text,
		"Language": languageOrDefault(lang),
	})
}

func (o *LLMOracle) generateJSON(ctx context.Context, key string, tier llm.ModelTier, data map[string]string) (string, error) {
	prompt, err := o.render(key, data)
	if err != nil {
		return "", err
	}
	raw, err := o.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		o.logger.Warn("oracle call failed", zap.String("op", key), zap.Error(err))
		return "", &UnavailableError{Op: key, Cause: err}
	}
	return llm.CleanJSONBlock(raw), nil
}

func (o *LLMOracle) generateText(ctx context.Context, key string, tier llm.ModelTier, data map[string]string) (string, error) {
	prompt, err := o.render(key, data)
	if err != nil {
		return "", err
	}
	text, err := o.client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		o.logger.Warn("oracle call failed", zap.String("op", key), zap.Error(err))
		return "", &UnavailableError{Op: key, Cause: err}
	}
	text = strings.Trim(strings.TrimSpace(text), `"`)
	if text == "" {
		return "", &ExtractionFailure{Op: key, Message: "empty response"}
	}
	return text, nil
}

// render fills the prompt for key. Recruiter text is quoted for the ops
// that take it, and logged when it looks like an injection attempt.
func (o *LLMOracle) render(key string, data map[string]string) (string, error) {
	if text, ok := data["Text"]; ok && quotedOps[key] {
		if found := suspiciousPhrases(text); len(found) > 0 {
			injectionSuspected.WithLabelValues(key).Inc()
			o.logger.Warn("possible prompt injection in recruiter message",
				zap.String("op", key),
				zap.Strings("matches", found),
			)
		}
		data["Text"] = quoteUserText(text)
	}
	prompt, err := prompts.Render(prompts.Dialogue, key, data)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return prompt, nil
}

// decodeObject unmarshals the first balanced JSON object found in raw.
func decodeObject(raw string, v any) error {
	obj := llm.ExtractJSONObject(raw)
	if obj == "" {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(obj), v)
}

// scalarString renders a JSON scalar as plain text. Objects and arrays are
// returned as compact JSON.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// parseConfidence accepts numbers and numeric strings and clamps to 0..1.
// A missing confidence counts as certain.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 1
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f); err != nil {
			return 1
		}
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func recordJSON(r types.Record) string {
	data, err := json.MarshalIndent(r.Export(), "", "  ")
	if err != nil || string(data) == "{}" {
		return "(none)"
	}
	return string(data)
}

func joinFields(fields []types.FieldKey) string {
	if len(fields) == 0 {
		fields = types.AllFields
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return "fr"
	}
	return lang
}
