// Package intent classifies user turns and resolves the field a modify
// request refers to.
package intent

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

// FallbackConfidence is the confidence given to the DIRECT_ANSWER assumed
// when the classifier cannot be used.
const FallbackConfidence = 0.5

// Request is one user turn to classify.
type Request struct {
	Text     string
	Field    types.FieldKey
	Question string
	Record   types.Record
	Summary  string
	// SkipModify is set right after a modify prompt: the turn is the new
	// value, not another modify request.
	SkipModify bool
}

// Router classifies user turns with the oracle and owns the fallback and
// repair policy around it.
type Router struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

// NewRouter creates a router. A nil logger disables logging.
func NewRouter(o oracle.Oracle, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{oracle: o, logger: logger}
}

// Classify returns the intent of a user turn. It never fails: classifier
// errors fall back to a low-confidence DIRECT_ANSWER and unresolvable modify
// targets are downgraded to CONFUSION.
func (r *Router) Classify(ctx context.Context, req Request) types.Intent {
	if strings.TrimSpace(req.Text) == "" {
		return types.Intent{Kind: types.IntentEmpty, Confidence: 1}
	}

	res, err := r.oracle.ClassifyIntent(ctx, oracle.IntentRequest{
		Text:     req.Text,
		Field:    req.Field,
		Question: req.Question,
		Record:   req.Record,
		Summary:  req.Summary,
		Fields:   types.AllFields,
	})
	if err != nil {
		r.logger.Debug("intent classification failed, assuming a direct answer", zap.Error(err))
		return types.Intent{
			Kind:       types.IntentDirectAnswer,
			Confidence: FallbackConfidence,
			Reason:     err.Error(),
		}
	}

	in := types.Intent{
		Kind:       types.ParseIntentKind(res.Intention),
		Value:      res.Value,
		Confidence: res.Confidence,
	}
	if in.Kind == types.IntentConfusion && !strings.EqualFold(strings.TrimSpace(res.Intention), string(types.IntentConfusion)) {
		in.Reason = "unknown intention " + res.Intention
	}

	switch in.Kind {
	case types.IntentEmpty:
		// Only blank text is empty; anything else is treated as an answer.
		in.Kind = types.IntentDirectAnswer
	case types.IntentModifyField:
		if req.SkipModify {
			in.Kind = types.IntentDirectAnswer
			in.Value = ""
			break
		}
		name := res.FieldToModify
		if name == "" {
			name = req.Text
		}
		target, err := r.Resolve(ctx, name, req.Record)
		if err != nil {
			r.logger.Debug("modify target unresolved", zap.String("name", name), zap.Error(err))
			return types.Intent{Kind: types.IntentConfusion, Confidence: in.Confidence, Reason: err.Error()}
		}
		in.Target = target
	case types.IntentShowStatus:
		if res.FieldToModify != "" {
			if target, ok := r.resolveLocal(res.FieldToModify, req.Record); ok {
				in.Target = target
			}
		}
	}
	return in
}

// Resolve maps a loose field name onto a field key: exact names first, then
// the synonym table, then an oracle query constrained to the field keys. It
// returns *AmbiguousError when nothing matches.
func (r *Router) Resolve(ctx context.Context, name string, record types.Record) (types.FieldKey, error) {
	if target, ok := r.resolveLocal(name, record); ok {
		return target, nil
	}

	answer, err := r.oracle.ResolveField(ctx, oracle.ResolveRequest{Text: name, Fields: types.AllFields})
	if err != nil {
		return "", &AmbiguousError{Name: name, Cause: err}
	}
	for _, k := range types.AllFields {
		if string(k) == strings.TrimSpace(answer) {
			return k, nil
		}
	}
	return "", &AmbiguousError{Name: name, Cause: errors.New("no field matches")}
}

func (r *Router) resolveLocal(name string, record types.Record) (types.FieldKey, bool) {
	if k, err := schema.Parse(name); err == nil {
		return k, true
	}
	return synonymTarget(name, record)
}
