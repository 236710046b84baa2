// Package schemas checks exported job posting records against their JSON
// Schema. The same document is produced by finalization, stored by the
// repository and read back by the validate command.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// RecordSchema is the JSON Schema of an exported record.
//
//go:embed record.schema.json
var RecordSchema string

const recordSchemaName = "record.schema.json"

// FieldError is one schema violation. Field is a dotted path such as
// "skills.0.name", or "(root)" for the document itself.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err)
	}
	return sb.String()
}

// Fields returns the paths of the invalid fields.
func (ve *ValidationError) Fields() []string {
	out := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		out[i] = err.Field
	}
	return out
}

// Problems returns one "field: message" line per violation.
func (ve *ValidationError) Problems() []string {
	out := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		out[i] = err.String()
	}
	return out
}

// SchemaLoadError reports an embedded schema that does not compile.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var recordSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(RecordSchema))
})

// ValidateRecord validates an exported record document. Documents that are
// not JSON fail with a plain error, schema violations with *ValidationError.
func ValidateRecord(data []byte) error {
	schema, err := recordSchema()
	if err != nil {
		return &SchemaLoadError{Path: recordSchemaName, Cause: err}
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to read record document: %w", err)
	}
	return resultError(result)
}

// ValidateExport marshals v and validates it as a record document.
func ValidateExport(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return ValidateRecord(data)
}

// resultError sorts violations by field so reports are stable.
func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	sort.SliceStable(ve.Errors, func(i, j int) bool {
		return ve.Errors[i].Field < ve.Errors[j].Field
	})
	return ve
}
