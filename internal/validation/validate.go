package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

// Bounds pairs each minimum field with its maximum.
var Bounds = map[types.FieldKey]types.FieldKey{
	types.FieldMinHourlyRate:     types.FieldMaxHourlyRate,
	types.FieldMinFullTimeSalary: types.FieldMaxFullTimeSalary,
	types.FieldMinPartTimeSalary: types.FieldMaxPartTimeSalary,
}

// Counterpart returns the other end of a min/max pair.
func Counterpart(field types.FieldKey) (types.FieldKey, bool) {
	if hi, ok := Bounds[field]; ok {
		return hi, true
	}
	for lo, hi := range Bounds {
		if hi == field {
			return lo, true
		}
	}
	return "", false
}

func isMin(field types.FieldKey) bool {
	_, ok := Bounds[field]
	return ok
}

// Engine validates candidate values against the current record. It holds no
// mutable state.
type Engine struct {
	geo *geo.Service
}

// New creates an engine backed by the given geography service.
func New(g *geo.Service) *Engine {
	if g == nil {
		g = geo.Default()
	}
	return &Engine{geo: g}
}

// Validate checks that v can be stored in field given the rest of r.
// It returns nil or a *ValidationError.
func (e *Engine) Validate(r types.Record, field types.FieldKey, v types.Value) error {
	spec, ok := schema.Lookup(field)
	if !ok {
		return &ValidationError{Field: field, Code: CodeShape, Message: "unknown field"}
	}
	if v.Kind != spec.Kind {
		return &ValidationError{
			Field:   field,
			Code:    CodeShape,
			Message: fmt.Sprintf("expected a %s value, got %s", spec.Kind, v.Kind),
		}
	}

	switch v.Kind {
	case types.KindText:
		if strings.TrimSpace(v.Text) == "" {
			return &ValidationError{Field: field, Code: CodeEmpty, Message: "value is empty"}
		}
		if field == types.FieldCity {
			return e.validateCity(r, v.Text)
		}
	case types.KindEnum:
		if !spec.AllowsEnum(v.Text) {
			return &ValidationError{
				Field:     field,
				Code:      CodeEnum,
				Message:   fmt.Sprintf("must be one of %s", strings.Join(spec.Enum, ", ")),
				Offending: v.Text,
			}
		}
	case types.KindNumber:
		return validateNumber(r, field, v.Number)
	case types.KindTimeZone:
		if strings.TrimSpace(v.TimeZone.Name) == "" {
			return &ValidationError{Field: field, Code: CodeEmpty, Message: "time zone name is empty"}
		}
		if v.TimeZone.Overlap < 0 || v.TimeZone.Overlap > 24 {
			return &ValidationError{Field: field, Code: CodeBound, Message: "overlap must be between 0 and 24 hours"}
		}
	case types.KindPlace:
		if err := e.validateCountry(field, *v.Place); err != nil {
			return err
		}
		if field == types.FieldCountry {
			return e.validateStoredCity(r, v.Place.Name)
		}
	case types.KindLanguages, types.KindSkills, types.KindPlaces:
		names := v.Names()
		if len(names) == 0 {
			return &ValidationError{Field: field, Code: CodeEmpty, Message: "list is empty"}
		}
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				return &ValidationError{Field: field, Code: CodeEmpty, Message: "list item has no name"}
			}
		}
		switch field {
		case types.FieldContinents:
			return e.validateContinents(r, v.Places)
		case types.FieldCountries:
			return e.validateCountries(r, v.Places)
		case types.FieldRegions:
			return e.validateRegions(r, v.Places)
		}
	}
	return nil
}

func validateNumber(r types.Record, field types.FieldKey, n float64) error {
	if n < 0 {
		return &ValidationError{Field: field, Code: CodeNegative, Message: "value cannot be negative"}
	}
	if field == types.FieldWeeklyHours && n > types.MaxWeeklyHours {
		return &ValidationError{
			Field:   field,
			Code:      CodeBound,
			Message:   fmt.Sprintf("a week has only %d hours", types.MaxWeeklyHours),
			Offending: strconv.FormatFloat(n, 'f', -1, 64),
		}
	}

	other, ok := Counterpart(field)
	if !ok {
		return nil
	}
	existing, ok := r.Number(other)
	if !ok {
		return nil
	}
	if isMin(field) && n > existing {
		return &ValidationError{
			Field:       field,
			Code:        CodeRange,
			Message:     fmt.Sprintf("minimum %v is above the maximum %v", n, existing),
			Offending:   strconv.FormatFloat(n, 'f', -1, 64),
			Counterpart: other,
		}
	}
	if !isMin(field) && n < existing {
		return &ValidationError{
			Field:       field,
			Code:        CodeRange,
			Message:     fmt.Sprintf("maximum %v is below the minimum %v", n, existing),
			Offending:   strconv.FormatFloat(n, 'f', -1, 64),
			Counterpart: other,
		}
	}
	return nil
}

func (e *Engine) validateContinents(r types.Record, places []types.Place) error {
	allowed := make(map[string]bool, len(places))
	for _, p := range places {
		c, ok := e.geo.ResolveContinent(p.Name)
		if !ok {
			return &ValidationError{
				Field:     types.FieldContinents,
				Code:      CodeUnknown,
				Message:   fmt.Sprintf("%q is not a continent", p.Name),
				Offending: p.Name,
			}
		}
		allowed[c.Code] = true
	}

	// Stored countries must stay inside the new selection.
	for _, p := range r.Countries {
		if p.Name == types.AllMarker {
			continue
		}
		c, err := e.geo.ResolveCountry(p.Name)
		if err != nil || allowed[c.Continent] {
			continue
		}
		return &ValidationError{
			Field:       types.FieldContinents,
			Code:        CodeContainment,
			Message:     fmt.Sprintf("the selected countries include %s, which is outside these continents; change the countries first", c.Name),
			Offending:   c.Name,
			Counterpart: types.FieldCountries,
		}
	}
	return nil
}

// selectedContinents returns the continent codes of the record, or nil when
// no continent restriction applies.
func (e *Engine) selectedContinents(r types.Record) map[string]bool {
	if len(r.Continents) == 0 {
		return nil
	}
	out := make(map[string]bool)
	for _, p := range r.Continents {
		if c, ok := e.geo.ResolveContinent(p.Name); ok {
			out[c.Code] = true
		}
	}
	return out
}

func (e *Engine) validateCountries(r types.Record, places []types.Place) error {
	allowed := e.selectedContinents(r)
	for _, p := range places {
		if p.Name == types.AllMarker {
			continue
		}
		c, err := e.geo.ResolveCountry(p.Name)
		if err != nil {
			return &ValidationError{
				Field:     types.FieldCountries,
				Code:      CodeUnknown,
				Message:   fmt.Sprintf("%q is not a known country", p.Name),
				Offending: p.Name,
			}
		}
		if allowed != nil && !allowed[c.Continent] {
			return &ValidationError{
				Field:     types.FieldCountries,
				Code:      CodeContainment,
				Message:   fmt.Sprintf("%s is outside the selected continents", c.Name),
				Offending: c.Name,
			}
		}
	}
	return e.checkStoredRegions(r, places)
}

// checkStoredRegions rejects a new country list that would leave a stored
// region without its country.
func (e *Engine) checkStoredRegions(r types.Record, places []types.Place) error {
	selected := make(map[string]bool, len(places))
	for _, p := range places {
		if p.Name == types.AllMarker {
			return nil
		}
		if c, err := e.geo.ResolveCountry(p.Name); err == nil {
			selected[c.Code] = true
		}
	}

	for _, p := range r.Regions {
		if p.Country == "" || p.Country == types.AllMarker {
			if p.Name == types.AllMarker {
				return &ValidationError{
					Field:       types.FieldCountries,
					Code:        CodeContainment,
					Message:     "the selected regions are unrestricted and need an unrestricted country list; change the regions first",
					Offending:   p.Name,
					Counterpart: types.FieldRegions,
				}
			}
			continue
		}
		c, err := e.geo.ResolveCountry(p.Country)
		if err != nil || selected[c.Code] {
			continue
		}
		return &ValidationError{
			Field:       types.FieldCountries,
			Code:        CodeContainment,
			Message:     fmt.Sprintf("the selected regions include %s in %s, which is not in this list; change the regions first", p.Name, c.Name),
			Offending:   p.Name,
			Counterpart: types.FieldRegions,
		}
	}
	return nil
}

// SelectedCountryCodes returns the ISO codes of the record's countries and
// whether the list is unrestricted (empty or holding the ALL marker).
func (e *Engine) SelectedCountryCodes(r types.Record) ([]string, bool) {
	if len(r.Countries) == 0 {
		return nil, true
	}
	var codes []string
	unrestricted := false
	for _, p := range r.Countries {
		if p.Name == types.AllMarker {
			unrestricted = true
			continue
		}
		if c, err := e.geo.ResolveCountry(p.Name); err == nil {
			codes = append(codes, c.Code)
		}
	}
	return codes, unrestricted
}

func (e *Engine) validateRegions(r types.Record, places []types.Place) error {
	codes, unrestricted := e.SelectedCountryCodes(r)
	selected := make(map[string]bool, len(codes))
	for _, c := range codes {
		selected[c] = true
	}

	for _, p := range places {
		if p.Name == types.AllMarker && (p.Country == "" || p.Country == types.AllMarker) {
			if !unrestricted {
				return &ValidationError{
					Field:     types.FieldRegions,
					Code:      CodeShape,
					Message:   "an unrestricted region needs a country",
					Offending: p.Name,
				}
			}
			continue
		}
		if p.Country == "" {
			return &ValidationError{
				Field:     types.FieldRegions,
				Code:      CodeShape,
				Message:   fmt.Sprintf("region %q has no country", p.Name),
				Offending: p.Name,
			}
		}
		country, err := e.geo.ResolveCountry(p.Country)
		if err != nil {
			return &ValidationError{
				Field:     types.FieldRegions,
				Code:      CodeUnknown,
				Message:   fmt.Sprintf("%q is not a known country", p.Country),
				Offending: p.Country,
			}
		}
		if !unrestricted && !selected[country.Code] {
			return &ValidationError{
				Field:     types.FieldRegions,
				Code:      CodeContainment,
				Message:   fmt.Sprintf("%s is not one of the selected countries", country.Name),
				Offending: p.Name,
			}
		}
		if p.Name == types.AllMarker {
			continue
		}
		if _, err := e.geo.ResolveSubdivision(p.Name, []string{country.Code}); err != nil {
			return &ValidationError{
				Field:     types.FieldRegions,
				Code:      CodeContainment,
				Message:   fmt.Sprintf("%s is not a region of %s", p.Name, country.Name),
				Offending: p.Name,
			}
		}
	}
	return nil
}

func (e *Engine) validateCountry(field types.FieldKey, p types.Place) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: field, Code: CodeEmpty, Message: "country is empty"}
	}
	if _, err := e.geo.ResolveCountry(p.Name); err != nil {
		return &ValidationError{
			Field:     field,
			Code:      CodeUnknown,
			Message:   fmt.Sprintf("%q is not a known country", p.Name),
			Offending: p.Name,
		}
	}
	return nil
}

// validateStoredCity rejects a country that does not hold the stored city.
func (e *Engine) validateStoredCity(r types.Record, country string) error {
	if r.City == nil || strings.TrimSpace(*r.City) == "" {
		return nil
	}
	c, err := e.geo.ResolveCountry(country)
	if err != nil {
		return nil
	}
	if code, ok := e.geo.CountryOfCity(*r.City); ok && code != c.Code {
		return &ValidationError{
			Field:       types.FieldCountry,
			Code:        CodeContainment,
			Message:     fmt.Sprintf("the city %s is not in %s; change the city first", *r.City, c.Name),
			Offending:   *r.City,
			Counterpart: types.FieldCity,
		}
	}
	return nil
}

func (e *Engine) validateCity(r types.Record, city string) error {
	if r.Country == nil {
		return nil
	}
	country, err := e.geo.ResolveCountry(r.Country.Name)
	if err != nil {
		return nil
	}
	if code, ok := e.geo.CountryOfCity(city); ok && code != country.Code {
		return &ValidationError{
			Field:     types.FieldCity,
			Code:      CodeContainment,
			Message:   fmt.Sprintf("%s is not in %s", city, country.Name),
			Offending: city,
		}
	}
	return nil
}

// CheckRecord runs struct-level checks on a whole record: tag constraints,
// min/max ordering and geographic containment.
func (e *Engine) CheckRecord(r types.Record) error {
	if err := r.Validate(); err != nil {
		return &RecordError{Message: "constraint violation", Cause: err}
	}
	for minField, maxField := range Bounds {
		lo, okLo := r.Number(minField)
		hi, okHi := r.Number(maxField)
		if okLo && okHi && lo > hi {
			return &RecordError{Message: fmt.Sprintf("%s is above %s", minField, maxField)}
		}
	}
	for _, f := range []types.FieldKey{types.FieldCountries, types.FieldRegions, types.FieldCity} {
		v, ok := r.Get(f)
		if !ok {
			continue
		}
		if err := e.Validate(r, f, v); err != nil {
			return &RecordError{Message: "inconsistent geography", Cause: err}
		}
	}
	return nil
}
