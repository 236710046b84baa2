// Package oracle defines the semantic-interpretation contract used by the
// dialogue engine and an implementation backed by an LLM client.
package oracle

import (
	"context"
	"encoding/json"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Oracle turns free text into typed results. Every method may fail with
// *ExtractionFailure (unusable output) or *UnavailableError (transport).
type Oracle interface {
	// DetectLanguage returns a two or three letter language code.
	DetectLanguage(ctx context.Context, text string) (string, error)
	// ClassifyIntent classifies a user turn.
	ClassifyIntent(ctx context.Context, req IntentRequest) (IntentResult, error)
	// ResolveField maps a loose field reference onto one of req.Fields.
	ResolveField(ctx context.Context, req ResolveRequest) (string, error)
	// Extract pulls a typed value for one field out of an answer.
	Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error)
	// CheckGeography looks for non-obvious geographic contradictions.
	CheckGeography(ctx context.Context, req GeoCheckRequest) (GeoCheckResult, error)
	// ExtractFacts returns durable facts stated in a message, by category.
	ExtractFacts(ctx context.Context, text string) (map[string]string, error)
	// Summarize condenses a conversation transcript.
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
	// Compose writes a user-facing message.
	Compose(ctx context.Context, req ComposeRequest) (string, error)
	// Translate translates a message into lang.
	Translate(ctx context.Context, text, lang string) (string, error)
}

// IntentRequest is the input of ClassifyIntent.
type IntentRequest struct {
	Text     string
	Field    types.FieldKey
	Question string
	Record   types.Record
	Summary  string
	Fields   []types.FieldKey
}

// IntentResult is the raw classification returned by the oracle.
type IntentResult struct {
	Intention     string  `json:"intention"`
	FieldToModify string  `json:"field_to_modify"`
	Value         string  `json:"value"`
	Confidence    float64 `json:"confidence"`
}

// ResolveRequest is the input of ResolveField.
type ResolveRequest struct {
	Text   string
	Fields []types.FieldKey
}

// ExtractRequest is the input of Extract.
type ExtractRequest struct {
	Field       types.FieldKey
	Text        string
	Description string
	TypeHint    string
	Enum        []string
	Record      types.Record
	Summary     string
	Question    string
	Language    string
}

// ExtractResult is the oracle's answer to Extract. Value holds raw JSON when
// Invalid is false.
type ExtractResult struct {
	Value   json.RawMessage
	Invalid bool
	Error   string
}

// GeoCheckRequest is the input of CheckGeography.
type GeoCheckRequest struct {
	Field    types.FieldKey
	Value    types.Value
	Record   types.Record
	Language string
}

// GeoCheckResult reports a geographic contradiction.
type GeoCheckResult struct {
	Contradiction bool   `json:"contradiction"`
	Message       string `json:"message"`
}

// SummaryRequest is the input of Summarize.
type SummaryRequest struct {
	Transcript string
	Language   string
}

// ComposeKind selects the message Compose writes.
type ComposeKind string

// Message kinds.
const (
	ComposeWelcome     ComposeKind = "welcome"
	ComposeQuestion    ComposeKind = "question"
	ComposeModify      ComposeKind = "modify"
	ComposeReformulate ComposeKind = "reformulate"
	ComposeClarify     ComposeKind = "clarify"
	ComposeStatus      ComposeKind = "status"
	ComposeFinal       ComposeKind = "final"
)

// ComposeRequest is the input of Compose. Only the members relevant to Kind
// are read.
type ComposeRequest struct {
	Kind     ComposeKind
	Language string
	Field    types.FieldKey
	Text     string
	Question string
	Value    string
	Error    string
	Summary  string
	Record   types.Record
}
