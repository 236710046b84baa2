package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/contradiction"
	"github.com/jonathan/posting-assistant/internal/extraction"
	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/intent"
	"github.com/jonathan/posting-assistant/internal/memory"
	"github.com/jonathan/posting-assistant/internal/observability"
	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

// Reply is what the user sees after a turn.
type Reply struct {
	Messages []string       `json:"messages"`
	Field    types.FieldKey `json:"field,omitempty"`
	Complete bool           `json:"complete"`
	Terminal bool           `json:"terminal"`
}

// Text joins the messages of the reply.
func (r Reply) Text() string {
	return strings.Join(r.Messages, "\n\n")
}

// Engine performs the effects of the dialogue. It holds no session state and
// is safe for concurrent use across sessions.
type Engine struct {
	oracle     oracle.Oracle
	router     *intent.Router
	extractor  *extraction.Extractor
	detector   *contradiction.Detector
	summarizer *memory.Summarizer
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over an oracle. A nil geography service uses
// the embedded dataset and a nil logger disables logging.
func NewEngine(o oracle.Oracle, g *geo.Service, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		oracle:     o,
		router:     intent.NewRouter(o, logger),
		extractor:  extraction.New(o, g, logger),
		detector:   contradiction.NewDetector(o, logger),
		summarizer: memory.NewSummarizer(o, logger),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// turn caches what is computed at most once per user turn.
type turn struct {
	reply      Reply
	summary    string
	summarized bool
}

func (t *turn) say(msg string) {
	if msg = strings.TrimSpace(msg); msg != "" {
		t.reply.Messages = append(t.reply.Messages, msg)
	}
}

// HandleTurn processes one user message and returns the next state and the
// reply. Recoverable problems (invalid answers, oracle failures) become
// reformulated questions. An error is returned only when the context ends
// or the state cannot take input; s is then returned unchanged.
func (e *Engine) HandleTurn(ctx context.Context, s State, text string) (State, Reply, error) {
	start := time.Now()
	defer func() {
		turnDuration.Observe(time.Since(start).Seconds())
	}()

	if s.Terminal {
		return s, e.terminalReply(s), nil
	}
	if s.Phase != PhaseAwaitingFirstInput && s.Phase != PhaseAwaitUserInput {
		return s, Reply{}, fmt.Errorf("session %s cannot take input in phase %s", s.ID, s.Phase)
	}

	original := s
	t := &turn{}
	next := Transition(s, Event{Kind: EventUserInput, Text: text, At: e.now()})

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return original, Reply{}, err
		}
		if step >= maxStepsPerTurn && !next.Terminal {
			e.logger.Warn("turn step limit reached, forcing finalization",
				zap.String("session_id", next.ID),
				zap.String("phase", string(next.Phase)),
				zap.String("field", string(next.CurrentField)),
			)
			next = Transition(next, Event{Kind: EventForceFinalize, At: e.now()})
		}

		var err error
		switch next.Phase {
		case PhaseAwaitUserInput:
			return next, e.finishReply(t, next), nil
		case PhaseFinalize:
			next = e.finalize(ctx, t, next)
			return next, e.finishReply(t, next), nil
		case PhaseProcessingFirstInput:
			next = e.greet(ctx, t, next)
		case PhaseSelectNextField:
			next = Transition(next, Event{Kind: EventSelect, At: e.now()})
		case PhaseAskQuestion:
			q := e.question(ctx, t, next)
			t.say(q)
			next = Transition(next, Event{Kind: EventQuestionAsked, Text: q, At: e.now()})
		case PhaseProcessInput:
			next, err = e.processInput(ctx, t, next)
		case PhaseChangeField:
			if next.InlineValue == "" {
				next = Transition(next, Event{Kind: EventContinue, At: e.now()})
				break
			}
			var ev Event
			ev, err = e.answer(ctx, t, next, next.CurrentField, next.InlineValue)
			if err == nil {
				next = e.apply(next, ev)
			}
		case PhaseShowStatus:
			t.say(e.status(ctx, t, next))
			next = Transition(next, Event{Kind: EventContinue, At: e.now()})
		case PhaseCommitSuccess, PhaseHandleError:
			next = Transition(next, Event{Kind: EventContinue, At: e.now()})
		default:
			return original, Reply{}, fmt.Errorf("session %s reached unexpected phase %s", next.ID, next.Phase)
		}
		if err != nil {
			return original, Reply{}, err
		}
	}
}

func (e *Engine) finishReply(t *turn, s State) Reply {
	r := t.reply
	r.Complete = s.Complete
	r.Terminal = s.Terminal
	if !s.Terminal {
		r.Field = s.CurrentField
	}
	return r
}

// terminalReply answers a finished session with its closing summary.
func (e *Engine) terminalReply(s State) Reply {
	msg := s.FinalMessage
	if msg == "" {
		msg = closingFallback(s)
	}
	return Reply{Messages: []string{msg}, Complete: s.Complete, Terminal: true}
}

// greet detects the user's language and welcomes them.
func (e *Engine) greet(ctx context.Context, t *turn, s State) State {
	lang, err := e.oracle.DetectLanguage(ctx, s.PendingText)
	if err != nil || lang == "" {
		e.logger.Debug("language detection failed, using default", zap.Error(err))
		lang = defaultLanguage
	}
	lang = strings.ToLower(strings.TrimSpace(lang))

	t.say(e.compose(ctx, oracle.ComposeRequest{
		Kind:     oracle.ComposeWelcome,
		Language: lang,
		Text:     s.PendingText,
	}, fallback(lang, msgWelcome)))
	return Transition(s, Event{Kind: EventLanguageDetected, Language: lang, At: e.now()})
}

func (e *Engine) summary(ctx context.Context, t *turn, s State) string {
	if !t.summarized {
		t.summary = e.summarizer.Summary(ctx, s.Memory, s.Language)
		t.summarized = true
	}
	return t.summary
}

// processInput classifies the pending text and dispatches on the intent.
func (e *Engine) processInput(ctx context.Context, t *turn, s State) (State, error) {
	if facts := e.summarizer.Facts(ctx, s.PendingText); len(facts) > 0 {
		s = Transition(s, Event{Kind: EventFactsLearned, Facts: facts, At: e.now()})
	}

	in := e.router.Classify(ctx, intent.Request{
		Text:       s.PendingText,
		Field:      s.CurrentField,
		Question:   s.CurrentQuestion,
		Record:     s.Record,
		Summary:    e.summary(ctx, t, s),
		SkipModify: s.SkipModify,
	})
	turnsTotal.WithLabelValues(string(in.Kind)).Inc()
	e.logger.Info("turn classified",
		zap.String("session_id", s.ID),
		zap.String("phase", string(s.Phase)),
		zap.String("field", string(s.CurrentField)),
		zap.String("intent", string(in.Kind)),
		zap.String("target", string(in.Target)),
		zap.Float64("confidence", in.Confidence),
	)

	field := s.CurrentField
	switch in.Kind {
	case types.IntentModifyField:
		return Transition(s, Event{Kind: EventModify, Field: in.Target, Text: in.Value, At: e.now()}), nil
	case types.IntentShowStatus:
		return Transition(s, Event{Kind: EventStatus, Field: in.Target, At: e.now()}), nil
	case types.IntentClarification:
		return Transition(s, Event{Kind: EventClarify, At: e.now()}), nil
	case types.IntentRefuse:
		return Transition(s, Event{Kind: EventRefused, At: e.now()}), nil
	case types.IntentEmpty:
		return Transition(s, Event{Kind: EventEmpty, At: e.now()}), nil
	case types.IntentConfusion:
		return e.apply(s, e.failure(field, "confusion", fallback(s.Language, msgConfusion), nil)), nil
	case types.IntentNoPreference:
		v, ok := e.extractor.Default(field, s.Record)
		if !ok {
			return e.apply(s, e.failure(field, "no_default", fallback(s.Language, msgNoDefault), nil)), nil
		}
		if err := e.extractor.Validator().Validate(s.Record, field, v); err != nil {
			return e.apply(s, e.failure(field, "validation", userMessage(s.Language, err), nil)), nil
		}
		ev, err := e.commit(ctx, s, field, v)
		if err != nil {
			return s, err
		}
		return e.apply(s, ev), nil
	}

	ev, err := e.answer(ctx, t, s, field, s.PendingText)
	if err != nil {
		return s, err
	}
	return e.apply(s, ev), nil
}

// answer extracts and checks a value for field and returns the resulting
// commit or failure event.
func (e *Engine) answer(ctx context.Context, t *turn, s State, field types.FieldKey, text string) (Event, error) {
	v, err := e.extractor.Extract(ctx, field, text, extraction.Context{
		Record:   s.Record,
		Summary:  e.summary(ctx, t, s),
		Question: s.CurrentQuestion,
		Language: s.Language,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Event{}, ctxErr
		}
		var se *schema.SchemaError
		if errors.As(err, &se) {
			return Event{}, err
		}
		if v, ok := numericConflict(err); ok {
			c, cerr := e.detector.Check(ctx, field, v, s.Record, s.Language)
			if cerr != nil {
				return Event{}, cerr
			}
			if c != nil {
				return e.failure(field, "contradiction", c.Message, c), nil
			}
		}
		return e.failure(field, failureReason(err), userMessage(s.Language, err), nil), nil
	}
	return e.commit(ctx, s, field, v)
}

// commit runs the contradiction checks and builds the updated record.
func (e *Engine) commit(ctx context.Context, s State, field types.FieldKey, v types.Value) (Event, error) {
	c, err := e.detector.Check(ctx, field, v, s.Record, s.Language)
	if err != nil {
		return Event{}, err
	}
	if c != nil {
		return e.failure(field, "contradiction", c.Message, c), nil
	}

	r, err := s.Record.With(field, v)
	if err != nil {
		return e.failure(field, "validation", userMessage(s.Language, err), nil), nil
	}
	return Event{Kind: EventCommitted, Field: field, Record: r, At: e.now()}, nil
}

func (e *Engine) failure(field types.FieldKey, reason, message string, c *contradiction.Contradiction) Event {
	failuresTotal.WithLabelValues(string(field), reason).Inc()
	return Event{Kind: EventFailed, Field: field, Reason: message, Contradiction: c, At: e.now()}
}

// apply feeds an answer outcome to Transition and records its effects in
// logs and metrics.
func (e *Engine) apply(s State, ev Event) State {
	next := Transition(s, ev)
	field := s.CurrentField

	switch ev.Kind {
	case EventCommitted:
		commitsTotal.WithLabelValues(string(ev.Field)).Inc()
		e.logger.Debug("field committed",
			zap.String("session_id", s.ID),
			zap.String("field", string(ev.Field)),
		)
	case EventFailed:
		e.logger.Info("answer rejected",
			zap.String("session_id", s.ID),
			zap.String("field", string(field)),
			zap.Int("failures", next.Failures[field]),
			zap.String("reason", ev.Reason),
		)
		if next.Deferred.Has(field) || next.Abandoned.Has(field) {
			deferralsTotal.WithLabelValues(string(field)).Inc()
			e.logger.Warn("field deferred after repeated failures",
				zap.String("session_id", s.ID),
				zap.String("field", string(field)),
				zap.Int("deferrals", next.Deferrals[field]),
				zap.Bool("abandoned", next.Abandoned.Has(field)),
			)
		}
	}
	return next
}

// question phrases the question for the current field.
func (e *Engine) question(ctx context.Context, t *turn, s State) string {
	field := s.CurrentField
	spec := schema.MustLookup(field)
	base := spec.Question(s.Language)
	current := s.CurrentQuestion
	if current == "" {
		current = base
	}

	switch s.Ask {
	case AskRepeat:
		return current
	case AskModify:
		value := observability.FormatField(s.Record, field, s.Language)
		return e.compose(ctx, oracle.ComposeRequest{
			Kind:     oracle.ComposeModify,
			Language: s.Language,
			Field:    field,
			Value:    value,
			Record:   s.Record,
		}, fallback(s.Language, msgModify, field, value))
	case AskReformulate:
		last, _ := s.Memory.LastUserTurn()
		return e.compose(ctx, oracle.ComposeRequest{
			Kind:     oracle.ComposeReformulate,
			Language: s.Language,
			Field:    field,
			Text:     last,
			Question: current,
			Error:    s.LastError,
			Summary:  e.summary(ctx, t, s),
		}, fallback(s.Language, msgReformulate, s.LastError, current))
	case AskClarify:
		return e.compose(ctx, oracle.ComposeRequest{
			Kind:     oracle.ComposeClarify,
			Language: s.Language,
			Field:    field,
			Question: current,
		}, fallback(s.Language, msgClarify, spec.Description, spec.TypeHint, current))
	}

	return e.compose(ctx, oracle.ComposeRequest{
		Kind:     oracle.ComposeQuestion,
		Language: s.Language,
		Field:    field,
		Question: base,
		Summary:  e.summary(ctx, t, s),
		Record:   s.Record,
	}, base)
}

// status renders the filled fields, or one field when the request targeted
// it.
func (e *Engine) status(ctx context.Context, t *turn, s State) string {
	if s.StatusTarget != "" {
		return e.localize(ctx, s.Language, fallback(s.Language, msgStatusField,
			s.StatusTarget, observability.FormatField(s.Record, s.StatusTarget, s.Language)))
	}

	var b strings.Builder
	b.WriteString(fallback(s.Language, msgStatus))
	filled := s.Record.FilledFields()
	if len(filled) == 0 {
		b.WriteString("\n- " + observability.FormatValue("", types.Value{}, s.Language))
	}
	for _, f := range filled {
		b.WriteString("\n- " + fallback(s.Language, msgStatusField, f, observability.FormatField(s.Record, f, s.Language)))
	}
	local := b.String()

	return e.compose(ctx, oracle.ComposeRequest{
		Kind:     oracle.ComposeStatus,
		Language: s.Language,
		Summary:  local,
		Record:   s.Record,
	}, local)
}

// finalize composes the closing message once and records the outcome.
func (e *Engine) finalize(ctx context.Context, t *turn, s State) State {
	if s.FinalMessage != "" {
		t.say(s.FinalMessage)
		return s
	}

	outcome := "incomplete"
	switch {
	case s.Forced:
		outcome = "forced"
	case s.Complete:
		outcome = "complete"
	}
	finalizationsTotal.WithLabelValues(outcome).Inc()

	var inconsistency string
	if err := e.extractor.Validator().CheckRecord(s.Record); err != nil {
		inconsistency = err.Error()
		inconsistentRecordsTotal.Inc()
		e.logger.Warn("finalized record is inconsistent",
			zap.String("session_id", s.ID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
	e.logger.Info("session finalized",
		zap.String("session_id", s.ID),
		zap.String("outcome", outcome),
		zap.Int("iterations", s.Iterations),
		zap.Strings("missing", fieldNames(s.Missing())),
	)

	msg := e.compose(ctx, oracle.ComposeRequest{
		Kind:     oracle.ComposeFinal,
		Language: s.Language,
		Summary:  joinFields(s.Missing()),
		Record:   s.Export(),
	}, closingFallback(s))
	t.say(msg)
	return Transition(s, Event{Kind: EventFinalized, Text: msg, Reason: inconsistency, At: e.now()})
}

func closingFallback(s State) string {
	if missing := s.Missing(); len(missing) > 0 {
		return fallback(s.Language, msgIncomplete, joinFields(missing))
	}
	return fallback(s.Language, msgComplete)
}

// compose asks the oracle for a message and falls back to static text.
func (e *Engine) compose(ctx context.Context, req oracle.ComposeRequest, fallbackText string) string {
	text, err := e.oracle.Compose(ctx, req)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if err != nil {
		e.logger.Debug("compose failed, using static text",
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
	}
	return e.localize(ctx, req.Language, fallbackText)
}

// localize translates static text for languages that have none of their
// own.
func (e *Engine) localize(ctx context.Context, lang, text string) string {
	if hasFallbacks(lang) || lang == "" {
		return text
	}
	translated, err := e.oracle.Translate(ctx, text, lang)
	if err != nil || strings.TrimSpace(translated) == "" {
		return text
	}
	return strings.TrimSpace(translated)
}

// failureReason labels an extraction error for metrics.
func failureReason(err error) string {
	var ve *validation.ValidationError
	var unavailable *oracle.UnavailableError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &unavailable):
		return "unavailable"
	}
	return "extraction"
}

// numericConflict recovers the value behind a bounds or weekly-hours
// rejection so that the contradiction detector can report it.
func numericConflict(err error) (types.Value, bool) {
	var ve *validation.ValidationError
	if !errors.As(err, &ve) {
		return types.Value{}, false
	}
	if ve.Code != validation.CodeRange && !(ve.Code == validation.CodeBound && ve.Field == types.FieldWeeklyHours) {
		return types.Value{}, false
	}
	n, err := strconv.ParseFloat(ve.Offending, 64)
	if err != nil {
		return types.Value{}, false
	}
	return types.NumberValue(n), true
}

// userMessage turns an error into text fit for the user. Only validation
// messages are shown; everything else is reported as unreadable.
func userMessage(lang string, err error) string {
	var ve *validation.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return fallback(lang, msgUnreadable)
}

func fieldNames(fields []types.FieldKey) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
