package extraction

import (
	"fmt"

	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

// allContinents lists every continent by canonical name.
func (e *Extractor) allContinents() []types.Place {
	var out []types.Place
	for _, c := range e.geo.Continents() {
		out = append(out, types.Place{Name: c.Name})
	}
	return out
}

// concreteCountries returns the record's explicitly selected countries.
func (e *Extractor) concreteCountries(r types.Record) []types.Place {
	var out []types.Place
	for _, p := range r.Countries {
		if p.Name == types.AllMarker {
			continue
		}
		if c, err := e.geo.ResolveCountry(p.Name); err == nil {
			out = append(out, types.Place{Name: c.Name, Country: c.Code})
		}
	}
	return out
}

// allRegions returns one ALL marker per selected country without an explicit
// region in explicit, or a single unrestricted marker when no country is
// selected.
func (e *Extractor) allRegions(r types.Record, explicit []types.Place) []types.Place {
	countries := e.concreteCountries(r)
	if len(countries) == 0 {
		return []types.Place{{Name: types.AllMarker, Country: types.AllMarker}}
	}
	covered := make(map[string]bool)
	for _, p := range explicit {
		covered[p.Country] = true
	}
	var out []types.Place
	for _, c := range countries {
		if !covered[c.Name] {
			out = append(out, types.Place{Name: types.AllMarker, Country: c.Name})
		}
	}
	return out
}

// canonicalizePlaces resolves each entry of a geographic list against the
// reference data and expands all tokens. Explicit entries are always kept;
// unknown entries are rejected by name.
func (e *Extractor) canonicalizePlaces(field types.FieldKey, r types.Record, places []types.Place) ([]types.Place, error) {
	var explicit []types.Place
	sawAll := false
	for _, p := range places {
		if isAllToken(p.Name) {
			sawAll = true
			continue
		}
		canon, err := e.canonicalPlace(field, r, p)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, canon)
	}

	out := dedupePlaces(explicit)
	if !sawAll {
		return out, nil
	}
	switch field {
	case types.FieldContinents:
		return dedupePlaces(append(out, e.allContinents()...)), nil
	case types.FieldCountries:
		return append(out, types.Place{Name: types.AllMarker}), nil
	case types.FieldRegions:
		return append(out, e.allRegions(r, out)...), nil
	}
	return out, nil
}

func (e *Extractor) canonicalPlace(field types.FieldKey, r types.Record, p types.Place) (types.Place, error) {
	switch field {
	case types.FieldContinents:
		c, ok := e.geo.ResolveContinent(p.Name)
		if !ok {
			return types.Place{}, unknownPlace(field, p.Name, "is not a continent")
		}
		return types.Place{Name: c.Name}, nil

	case types.FieldCountries, types.FieldCountry:
		c, err := e.geo.ResolveCountry(p.Name)
		if err != nil {
			return types.Place{}, unknownPlace(field, p.Name, "is not a known country")
		}
		return types.Place{Name: c.Name}, nil

	case types.FieldRegions:
		return e.canonicalRegion(r, p)
	}
	return p, nil
}

func (e *Extractor) canonicalRegion(r types.Record, p types.Place) (types.Place, error) {
	var codes []string
	if p.Country != "" && p.Country != types.AllMarker {
		c, err := e.geo.ResolveCountry(p.Country)
		if err != nil {
			return types.Place{}, unknownPlace(types.FieldRegions, p.Country, "is not a known country")
		}
		codes = []string{c.Code}
	} else {
		for _, c := range e.concreteCountries(r) {
			codes = append(codes, c.Country)
		}
		if len(codes) == 0 {
			for _, c := range e.geo.Countries() {
				codes = append(codes, c.Code)
			}
		}
	}

	sub, err := e.geo.ResolveSubdivision(p.Name, codes)
	if err != nil {
		return types.Place{}, &validation.ValidationError{
			Field:     types.FieldRegions,
			Code:      validation.CodeContainment,
			Message:   fmt.Sprintf("%s is not a region of the selected countries", p.Name),
			Offending: p.Name,
		}
	}
	country, _ := e.geo.CountryByCode(sub.Country)
	return types.Place{Name: sub.Name, Country: country.Name}, nil
}

func unknownPlace(field types.FieldKey, name, reason string) error {
	return &validation.ValidationError{
		Field:     field,
		Code:      validation.CodeUnknown,
		Message:   fmt.Sprintf("%q %s", name, reason),
		Offending: name,
	}
}

func dedupePlaces(in []types.Place) []types.Place {
	seen := make(map[types.Place]bool, len(in))
	var out []types.Place
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
