package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Scripted is a deterministic in-memory Oracle for tests and offline use.
// Each hook overrides one method; nil hooks fall back to simple defaults:
//
//   - DetectLanguage returns Language, or "fr".
//   - ClassifyIntent returns DIRECT_ANSWER with full confidence.
//   - Extract treats the text as a JSON value when it parses, else as a
//     JSON string.
//   - CheckGeography and ExtractFacts find nothing.
//   - Summarize, Compose and Translate fail with *UnavailableError so that
//     callers use their static fallbacks.
type Scripted struct {
	Language string

	ClassifyIntentFunc func(IntentRequest) (IntentResult, error)
	ResolveFieldFunc   func(ResolveRequest) (string, error)
	ExtractFunc        func(ExtractRequest) (ExtractResult, error)
	CheckGeographyFunc func(GeoCheckRequest) (GeoCheckResult, error)
	ExtractFactsFunc   func(string) (map[string]string, error)
	SummarizeFunc      func(SummaryRequest) (string, error)
	ComposeFunc        func(ComposeRequest) (string, error)

	mu    sync.Mutex
	calls []string
}

var _ Oracle = (*Scripted)(nil)

var errScripted = errors.New("no script")

// Calls returns the names of the methods called so far, in order.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many times a method was called.
func (s *Scripted) CallCount(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (s *Scripted) record(method string) {
	s.mu.Lock()
	s.calls = append(s.calls, method)
	s.mu.Unlock()
}

// DetectLanguage implements Oracle.
func (s *Scripted) DetectLanguage(_ context.Context, _ string) (string, error) {
	s.record("DetectLanguage")
	if s.Language == "" {
		return "fr", nil
	}
	return s.Language, nil
}

// ClassifyIntent implements Oracle.
func (s *Scripted) ClassifyIntent(_ context.Context, req IntentRequest) (IntentResult, error) {
	s.record("ClassifyIntent")
	if s.ClassifyIntentFunc != nil {
		return s.ClassifyIntentFunc(req)
	}
	return IntentResult{Intention: string(types.IntentDirectAnswer), Confidence: 1}, nil
}

// ResolveField implements Oracle.
func (s *Scripted) ResolveField(_ context.Context, req ResolveRequest) (string, error) {
	s.record("ResolveField")
	if s.ResolveFieldFunc != nil {
		return s.ResolveFieldFunc(req)
	}
	return "", nil
}

// Extract implements Oracle.
func (s *Scripted) Extract(_ context.Context, req ExtractRequest) (ExtractResult, error) {
	s.record("Extract")
	if s.ExtractFunc != nil {
		return s.ExtractFunc(req)
	}
	text := strings.TrimSpace(req.Text)
	if json.Valid([]byte(text)) {
		return ExtractResult{Value: json.RawMessage(text)}, nil
	}
	data, err := json.Marshal(text)
	if err != nil {
		return ExtractResult{}, &ExtractionFailure{Op: "extract-value", Message: "cannot encode text", Cause: err}
	}
	return ExtractResult{Value: data}, nil
}

// CheckGeography implements Oracle.
func (s *Scripted) CheckGeography(_ context.Context, req GeoCheckRequest) (GeoCheckResult, error) {
	s.record("CheckGeography")
	if s.CheckGeographyFunc != nil {
		return s.CheckGeographyFunc(req)
	}
	return GeoCheckResult{}, nil
}

// ExtractFacts implements Oracle.
func (s *Scripted) ExtractFacts(_ context.Context, text string) (map[string]string, error) {
	s.record("ExtractFacts")
	if s.ExtractFactsFunc != nil {
		return s.ExtractFactsFunc(text)
	}
	return nil, nil
}

// Summarize implements Oracle.
func (s *Scripted) Summarize(_ context.Context, req SummaryRequest) (string, error) {
	s.record("Summarize")
	if s.SummarizeFunc != nil {
		return s.SummarizeFunc(req)
	}
	return "", &UnavailableError{Op: "summarize", Cause: errScripted}
}

// Compose implements Oracle.
func (s *Scripted) Compose(_ context.Context, req ComposeRequest) (string, error) {
	s.record("Compose")
	if s.ComposeFunc != nil {
		return s.ComposeFunc(req)
	}
	return "", &UnavailableError{Op: "compose-" + string(req.Kind), Cause: errScripted}
}

// Translate implements Oracle.
func (s *Scripted) Translate(_ context.Context, _, _ string) (string, error) {
	s.record("Translate")
	return "", &UnavailableError{Op: "translate", Cause: errScripted}
}
