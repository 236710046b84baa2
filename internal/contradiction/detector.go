// Package contradiction detects candidate values that conflict with what the
// record already holds.
package contradiction

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

// Sources of a contradiction.
const (
	SourceBounds    = "bounds"
	SourceHours     = "hours"
	SourceGeography = "geography"
)

// Contradiction is a user-facing conflict between a candidate value and the
// record.
type Contradiction struct {
	Field       types.FieldKey `json:"field"`
	Counterpart types.FieldKey `json:"counterpart,omitempty"`
	Value       string         `json:"value"`
	Source      string         `json:"source"`
	Message     string         `json:"message"`
}

// Detector runs the deterministic range checks and asks the oracle about
// geography.
type Detector struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

// NewDetector creates a detector. A nil oracle disables geography checks and
// a nil logger disables logging.
func NewDetector(o oracle.Oracle, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{oracle: o, logger: logger}
}

var geoFields = map[types.FieldKey]bool{
	types.FieldContinents: true,
	types.FieldCountries:  true,
	types.FieldRegions:    true,
	types.FieldCountry:    true,
	types.FieldCity:       true,
}

// Check returns the contradiction v would introduce into r, or nil. Oracle
// failures count as no contradiction; only context cancellation is
// returned as an error.
func (d *Detector) Check(ctx context.Context, field types.FieldKey, v types.Value, r types.Record, lang string) (*Contradiction, error) {
	if v.Kind == types.KindNumber {
		if c := checkBounds(field, v.Number, r, lang); c != nil {
			return c, nil
		}
		if field == types.FieldWeeklyHours && v.Number > types.MaxWeeklyHours {
			return &Contradiction{
				Field:   field,
				Value:   formatNumber(v.Number),
				Source:  SourceHours,
				Message: fmt.Sprintf(message(lang, msgHours), formatNumber(v.Number), types.MaxWeeklyHours),
			}, nil
		}
		return nil, nil
	}

	if !geoFields[field] || d.oracle == nil {
		return nil, nil
	}
	res, err := d.oracle.CheckGeography(ctx, oracle.GeoCheckRequest{
		Field:    field,
		Value:    v,
		Record:   r,
		Language: lang,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		d.logger.Debug("geography check unavailable, assuming no contradiction",
			zap.String("field", string(field)),
			zap.Error(err),
		)
		return nil, nil
	}
	if !res.Contradiction {
		return nil, nil
	}

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf(message(lang, msgGeography), v.String())
	}
	return &Contradiction{
		Field:   field,
		Value:   v.String(),
		Source:  SourceGeography,
		Message: msg,
	}, nil
}

func checkBounds(field types.FieldKey, n float64, r types.Record, lang string) *Contradiction {
	other, ok := validation.Counterpart(field)
	if !ok {
		return nil
	}
	existing, ok := r.Number(other)
	if !ok {
		return nil
	}

	_, isMin := validation.Bounds[field]
	if (isMin && n <= existing) || (!isMin && n >= existing) {
		return nil
	}

	key := msgMaxBelowMin
	if isMin {
		key = msgMinAboveMax
	}
	return &Contradiction{
		Field:       field,
		Counterpart: other,
		Value:       formatNumber(n),
		Source:      SourceBounds,
		Message: fmt.Sprintf(message(lang, key),
			label(lang, field), formatNumber(n), label(lang, other), formatNumber(existing)),
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
