// Package extraction turns a free-text answer into a typed, validated value
// for one field of a job posting.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

// Context is what the extractor knows about the conversation.
type Context struct {
	Record   types.Record
	Summary  string
	Question string
	Language string
}

// Extractor runs the per-kind extraction policy.
type Extractor struct {
	oracle    oracle.Oracle
	validator *validation.Engine
	geo       *geo.Service
	logger    *zap.Logger
}

// New creates an extractor. A nil geography service uses the embedded
// dataset and a nil logger disables logging.
func New(o oracle.Oracle, g *geo.Service, logger *zap.Logger) *Extractor {
	if g == nil {
		g = geo.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		oracle:    o,
		validator: validation.New(g),
		geo:       g,
		logger:    logger,
	}
}

// Validator returns the validation engine used by the extractor.
func (e *Extractor) Validator() *validation.Engine {
	return e.validator
}

// Extract returns the value of field found in raw, validated against the
// record in c. Errors are *schema.SchemaError for unknown fields,
// *validation.ValidationError for rejected values, and the oracle's
// *oracle.ExtractionFailure or *oracle.UnavailableError.
func (e *Extractor) Extract(ctx context.Context, field types.FieldKey, raw string, c Context) (types.Value, error) {
	spec, ok := schema.Lookup(field)
	if !ok {
		return types.Value{}, &schema.SchemaError{Name: string(field), Message: "unknown field"}
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return types.Value{}, &validation.ValidationError{Field: field, Code: validation.CodeEmpty, Message: "no answer given"}
	}

	v, ok, err := e.deterministic(field, spec, text, c.Record)
	if err != nil {
		return types.Value{}, err
	}
	if !ok {
		v, err = e.fromOracle(ctx, field, spec, text, c)
		if err != nil {
			return types.Value{}, err
		}
	}

	if err := e.validator.Validate(c.Record, field, v); err != nil {
		e.logger.Debug("extracted value rejected",
			zap.String("field", string(field)),
			zap.String("value", v.String()),
			zap.Error(err),
		)
		return types.Value{}, err
	}
	return v, nil
}

// deterministic handles answers that need no oracle call: availability
// durations, enumeration synonyms and "all" answers to geographic lists.
func (e *Extractor) deterministic(field types.FieldKey, spec schema.Spec, text string, r types.Record) (types.Value, bool, error) {
	switch {
	case field == types.FieldAvailability:
		if weeks, ok := ParseAvailability(text); ok {
			return types.NumberValue(weeks), true, nil
		}
	case spec.Kind == types.KindEnum:
		if v, ok := matchEnum(field, spec.Enum, text); ok {
			return types.EnumValue(v), true, nil
		}
	case spec.Kind == types.KindPlaces && isAllAnswer(text):
		places, err := e.canonicalizePlaces(field, r, []types.Place{{Name: types.AllMarker}})
		if err != nil {
			return types.Value{}, false, err
		}
		return types.PlacesValue(places), true, nil
	}
	return types.Value{}, false, nil
}

func (e *Extractor) fromOracle(ctx context.Context, field types.FieldKey, spec schema.Spec, text string, c Context) (types.Value, error) {
	res, err := e.oracle.Extract(ctx, oracle.ExtractRequest{
		Field:       field,
		Text:        text,
		Description: spec.Description,
		TypeHint:    spec.TypeHint,
		Enum:        spec.Enum,
		Record:      c.Record,
		Summary:     c.Summary,
		Question:    c.Question,
		Language:    c.Language,
	})
	if err != nil {
		return types.Value{}, err
	}
	if res.Invalid {
		msg := res.Error
		if msg == "" {
			msg = "the answer holds no usable value"
		}
		return types.Value{}, &validation.ValidationError{Field: field, Code: validation.CodeInvalid, Message: msg}
	}

	v, err := e.coerce(field, spec, res.Value, c.Record)
	if err != nil {
		var ce *coerceError
		if errors.As(err, &ce) {
			return types.Value{}, &oracle.ExtractionFailure{
				Op:      "extract-value",
				Message: "value does not fit the field",
				Raw:     string(res.Value),
				Cause:   err,
			}
		}
		return types.Value{}, err
	}
	return v, nil
}

// coerce converts an oracle JSON value to the field's native type.
func (e *Extractor) coerce(field types.FieldKey, spec schema.Spec, raw json.RawMessage, r types.Record) (types.Value, error) {
	switch spec.Kind {
	case types.KindText:
		s, err := decodeText(raw)
		if err != nil {
			return types.Value{}, err
		}
		return types.TextValue(s), nil

	case types.KindNumber:
		if field == types.FieldAvailability {
			if s, err := decodeText(raw); err == nil {
				if weeks, ok := ParseAvailability(s); ok {
					return types.NumberValue(weeks), nil
				}
			}
		}
		n, err := decodeNumber(raw)
		if err != nil {
			return types.Value{}, err
		}
		return types.NumberValue(n), nil

	case types.KindEnum:
		s, err := decodeText(raw)
		if err != nil {
			return types.Value{}, err
		}
		if v, ok := matchEnum(field, spec.Enum, s); ok {
			return types.EnumValue(v), nil
		}
		return types.EnumValue(strings.ToUpper(s)), nil

	case types.KindTimeZone:
		tz, err := decodeTimeZone(raw)
		if err != nil {
			return types.Value{}, err
		}
		return types.TimeZoneValue(tz), nil

	case types.KindPlace:
		places, err := decodePlaces(raw)
		if err != nil {
			return types.Value{}, err
		}
		if len(places) == 0 {
			return types.Value{}, &validation.ValidationError{Field: field, Code: validation.CodeEmpty, Message: "no country given"}
		}
		p, err := e.canonicalPlace(field, r, places[0])
		if err != nil {
			return types.Value{}, err
		}
		return types.PlaceValue(p), nil

	case types.KindLanguages:
		langs, err := decodeLanguages(raw)
		if err != nil {
			return types.Value{}, err
		}
		return types.LanguagesValue(langs), nil

	case types.KindSkills:
		skills, err := decodeSkills(raw)
		if err != nil {
			return types.Value{}, err
		}
		return types.SkillsValue(skills), nil

	case types.KindPlaces:
		places, err := decodePlaces(raw)
		if err != nil {
			return types.Value{}, err
		}
		places, err = e.canonicalizePlaces(field, r, places)
		if err != nil {
			return types.Value{}, err
		}
		return types.PlacesValue(places), nil
	}
	return types.Value{}, &coerceError{kind: spec.Kind, raw: string(raw)}
}

// Default returns the value applied when the user has no preference for a
// field. It returns false for fields that cannot be defaulted.
func (e *Extractor) Default(field types.FieldKey, r types.Record) (types.Value, bool) {
	spec, ok := schema.Lookup(field)
	if !ok || !spec.HasDefault {
		return types.Value{}, false
	}
	switch field {
	case types.FieldAvailability:
		return types.NumberValue(0), true
	case types.FieldContinents:
		return types.PlacesValue(e.allContinents()), true
	case types.FieldCountries:
		return types.PlacesValue([]types.Place{{Name: types.AllMarker}}), true
	case types.FieldRegions:
		return types.PlacesValue(e.allRegions(r, nil)), true
	case types.FieldTimeZone:
		return types.TimeZoneValue(types.TimeZone{Name: "ANY", Overlap: 0}), true
	}
	return types.Value{}, false
}
