package server

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
}

// TurnRequest is the body of POST /sessions/{id}/turns. An empty text is a
// valid turn; a missing one is not.
type TurnRequest struct {
	Text *string `json:"text" validate:"required,max=4000"`
}

// handleCreateSession starts a session and issues its token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.manager.CreateSession(r.Context())
	if err != nil {
		s.failRequest(w, r, err)
		return
	}

	resp := CreateSessionResponse{SessionID: id}
	if s.jwtService != nil {
		token, err := s.jwtService.GenerateToken(id)
		if err != nil {
			s.failRequest(w, r, err)
			return
		}
		resp.Token = token
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handlePostTurn runs one dialogue turn.
func (s *Server) handlePostTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.failRequest(w, r, err)
		return
	}

	text := s.sanitize(*req.Text)
	result, err := s.manager.PostTurn(r.Context(), r.PathValue("id"), text)
	if err != nil {
		s.failRequest(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleGetSession returns a session snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failRequest(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleResetSession restarts a session and returns its fresh snapshot.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.ResetSession(r.Context(), id); err != nil {
		s.failRequest(w, r, err)
		return
	}
	snap, err := s.manager.Snapshot(r.Context(), id)
	if err != nil {
		s.failRequest(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleHealth reports server health and the state of each dependency.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))
	for name, checker := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := checker.Ping(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	s.jsonResponse(w, status, map[string]any{"status": overall, "checks": checks})
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &ErrValidation{Field: "body", Message: "request body too large"}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Field(), Message: "failed on " + verrs[0].Tag()}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// sanitize strips markup from user text. The engine works on plain text,
// so entities are decoded back.
func (s *Server) sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

// jsonFieldName reports struct fields by their JSON name in validation
// errors.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
