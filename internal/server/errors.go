// Package server provides the HTTP API for posting dialogue sessions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/posting-assistant/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the HTTP status code for an error returned while
// serving a request.
func HTTPStatus(err error) int {
	var ve *ErrValidation
	var se *session.StoreError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.As(err, &se):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text shown to API clients. Internal causes
// stay in the logs.
func publicMessage(err error) string {
	var ve *ErrValidation
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch HTTPStatus(err) {
	case http.StatusNotFound:
		return "session not found"
	case http.StatusGatewayTimeout:
		return "request timed out"
	case http.StatusServiceUnavailable:
		return "session store unavailable"
	}
	return "internal error"
}
