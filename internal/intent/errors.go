package intent

import "fmt"

// AmbiguousError is returned when a modify request names no resolvable field.
type AmbiguousError struct {
	Name  string
	Cause error
}

func (e *AmbiguousError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot tell which field %q refers to: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("cannot tell which field %q refers to", e.Name)
}

func (e *AmbiguousError) Unwrap() error {
	return e.Cause
}
