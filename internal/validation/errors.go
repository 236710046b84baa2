// Package validation provides the checks a field value must pass before it is
// committed to a job posting record.
package validation

import (
	"fmt"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Code classifies a validation failure.
type Code string

// Validation failure codes.
const (
	CodeShape       Code = "shape"
	CodeEmpty       Code = "empty"
	CodeEnum        Code = "enum"
	CodeNegative    Code = "negative"
	CodeBound       Code = "bound"
	CodeRange       Code = "range"
	CodeUnknown     Code = "unknown_place"
	CodeContainment Code = "containment"
	CodeInvalid     Code = "invalid_answer"
)

// ValidationError is a recoverable rejection of a candidate value. The record
// is never changed when one is returned.
type ValidationError struct {
	Field   types.FieldKey
	Code    Code
	Message string
	// Offending names the entry at fault, for list and place fields.
	Offending string
	// Counterpart is the field the value conflicts with, for range errors.
	Counterpart types.FieldKey
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%s): %s", e.Field, e.Code, e.Message)
}

// RecordError reports struct-level problems found in a whole record.
type RecordError struct {
	Message string
	Cause   error
}

func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("record error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("record error: %s", e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}
