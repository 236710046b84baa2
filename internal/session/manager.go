package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/db"
	"github.com/jonathan/posting-assistant/internal/dialogue"
	"github.com/jonathan/posting-assistant/internal/types"
)

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	DisplayText  string         `json:"display_text"`
	Messages     []string       `json:"messages"`
	CurrentField types.FieldKey `json:"current_field,omitempty"`
	IsComplete   bool           `json:"is_complete"`
	IsTerminal   bool           `json:"is_terminal"`
	Record       types.Record   `json:"record"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID           string           `json:"session_id"`
	Phase        dialogue.Phase   `json:"phase"`
	CurrentField types.FieldKey   `json:"current_field,omitempty"`
	Language     string           `json:"language"`
	Record       types.Record     `json:"record"`
	Missing      []types.FieldKey `json:"missing"`
	Deferred     []types.FieldKey `json:"deferred,omitempty"`
	Complete     bool             `json:"complete"`
	Terminal     bool             `json:"terminal"`
	Iterations   int              `json:"iterations"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Manager runs dialogue turns against stored sessions. Turns of one session
// are serialized; different sessions run in parallel.
type Manager struct {
	store  Store
	engine *dialogue.Engine
	repo   db.Repository
	locks  *keyedMutex
	logger *zap.Logger
	now    func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRepository saves finalized postings to repo.
func WithRepository(repo db.Repository) ManagerOption {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithManagerClock replaces the manager's time source.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager. A nil logger disables logging.
func NewManager(store Store, engine *dialogue.Engine, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:  store,
		engine: engine,
		locks:  newKeyedMutex(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession starts a new session and returns its id.
func (m *Manager) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := m.store.Put(ctx, dialogue.NewState(id, m.now())); err != nil {
		return "", storeErr("put", id, err)
	}
	sessionsCreated.Inc()
	m.logger.Info("session created", zap.String("session_id", id))
	return id, nil
}

// PostTurn processes one user message. On any error the stored session is
// left as it was before the turn.
func (m *Manager) PostTurn(ctx context.Context, id, text string) (TurnResult, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return TurnResult{}, storeErr("get", id, err)
	}

	next, reply, err := m.engine.HandleTurn(ctx, s, text)
	if err != nil {
		return TurnResult{}, err
	}
	if err := m.store.Put(ctx, next); err != nil {
		return TurnResult{}, storeErr("put", id, err)
	}

	if next.Terminal && !s.Terminal {
		m.savePosting(ctx, next)
	}

	return TurnResult{
		DisplayText:  reply.Text(),
		Messages:     reply.Messages,
		CurrentField: reply.Field,
		IsComplete:   reply.Complete,
		IsTerminal:   reply.Terminal,
		Record:       next.Export(),
	}, nil
}

// savePosting writes a finalized session to the repository. Failures are
// logged; the dialogue result stands.
func (m *Manager) savePosting(ctx context.Context, s dialogue.State) {
	if m.repo == nil {
		return
	}
	missing := make([]string, 0)
	for _, f := range s.Missing() {
		missing = append(missing, string(f))
	}
	outcome := db.OutcomeOf(s.Complete, s.Forced)
	if s.Inconsistency != "" {
		outcome = db.OutcomeInconsistent
		m.logger.Warn("saving inconsistent posting",
			zap.String("session_id", s.ID),
			zap.String("inconsistency", s.Inconsistency),
		)
	}
	p, err := m.repo.SavePosting(ctx, &db.PostingInput{
		SessionID: s.ID,
		Language:  s.Language,
		Outcome:   outcome,
		Missing:   missing,
		Record:    s.Record,
	})
	if err != nil {
		postingsSaved.WithLabelValues("error").Inc()
		m.logger.Error("failed to save finalized posting",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		return
	}
	postingsSaved.WithLabelValues("ok").Inc()
	m.logger.Info("finalized posting saved",
		zap.String("session_id", s.ID),
		zap.String("posting_id", p.ID.String()),
		zap.String("outcome", p.Outcome),
	)
}

// Busy reports whether a turn or reset of session id is running or waiting.
func (m *Manager) Busy(id string) bool {
	return m.locks.held(id)
}

// ResetSession restarts a session from scratch under the same id.
func (m *Manager) ResetSession(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	if _, err := m.store.Get(ctx, id); err != nil {
		return storeErr("get", id, err)
	}
	if err := m.store.Put(ctx, dialogue.NewState(id, m.now())); err != nil {
		return storeErr("put", id, err)
	}
	m.logger.Info("session reset", zap.String("session_id", id))
	return nil
}

// Snapshot returns a read-only view of a session.
func (m *Manager) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Snapshot{}, storeErr("get", id, err)
	}
	var deferred []types.FieldKey
	for _, f := range types.AllFields {
		if s.Deferred.Has(f) || s.Abandoned.Has(f) {
			deferred = append(deferred, f)
		}
	}
	missing := s.Missing()
	if missing == nil {
		missing = []types.FieldKey{}
	}
	return Snapshot{
		ID:           s.ID,
		Phase:        s.Phase,
		CurrentField: s.CurrentField,
		Language:     s.Language,
		Record:       s.Export(),
		Missing:      missing,
		Deferred:     deferred,
		Complete:     len(missing) == 0,
		Terminal:     s.Terminal,
		Iterations:   s.Iterations,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

// storeErr passes ErrSessionNotFound and StoreError through and wraps
// anything else.
func storeErr(op, id string, err error) error {
	var se *StoreError
	if errors.Is(err, ErrSessionNotFound) || errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, ID: id, Cause: err}
}
