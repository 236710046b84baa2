package session

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// StoreError reports a failure of the session store. The turn that hit it
// is aborted and the stored session is left unchanged.
type StoreError struct {
	Op    string
	ID    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s %s: %v", e.Op, e.ID, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
