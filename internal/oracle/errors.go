package oracle

import "fmt"

// ExtractionFailure is returned when the oracle answered but its output could
// not be used. It is recoverable: the question is asked again.
type ExtractionFailure struct {
	Op      string
	Message string
	Raw     string
	Cause   error
}

func (e *ExtractionFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Cause
}

// UnavailableError is returned when the oracle could not be reached, after
// any retries configured on the client.
type UnavailableError struct {
	Op    string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: oracle unavailable: %v", e.Op, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}
