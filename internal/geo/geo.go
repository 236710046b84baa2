// Package geo provides the geographic reference data used to canonicalise
// place names and check that countries sit inside continents and regions
// inside countries.
package geo

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed data/world.yaml
var worldData []byte

// Continent is a continent with its code.
type Continent struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Subdivision is a first-level administrative region of a country.
type Subdivision struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Cities  []string `yaml:"cities"`
	// Country is the ISO code of the parent country.
	Country string `yaml:"-"`
	// Unverified marks a region accepted for a country with no subdivision data.
	Unverified bool `yaml:"-"`
}

// Country is a country with its continent and known subdivisions.
type Country struct {
	Code         string        `yaml:"code"`
	Name         string        `yaml:"name"`
	Continent    string        `yaml:"continent"`
	Aliases      []string      `yaml:"aliases"`
	Subdivisions []Subdivision `yaml:"subdivisions"`
}

// Open reports whether the dataset holds no subdivisions for the country.
func (c Country) Open() bool {
	return len(c.Subdivisions) == 0
}

type dataset struct {
	Continents []Continent `yaml:"continents"`
	Countries  []Country   `yaml:"countries"`
}

// Service answers geographic lookups. It is immutable after Load and safe
// for concurrent use.
type Service struct {
	continents   []Continent
	continentIdx map[string]int
	countries    []Country
	countryIdx   map[string]int
	byCode       map[string]int
	cityIdx      map[string]cityRef
}

type cityRef struct {
	country     string
	subdivision string
}

var (
	defaultOnce    sync.Once
	defaultService *Service
)

// Default returns the service built from the embedded dataset.
func Default() *Service {
	defaultOnce.Do(func() {
		s, err := Load(worldData)
		if err != nil {
			panic(fmt.Sprintf("embedded geography dataset is invalid: %v", err))
		}
		defaultService = s
	})
	return defaultService
}

// Load builds a service from a YAML dataset.
func Load(data []byte) (*Service, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse geography dataset: %w", err)
	}

	s := &Service{
		continents:   ds.Continents,
		continentIdx: make(map[string]int),
		countries:    ds.Countries,
		countryIdx:   make(map[string]int),
		byCode:       make(map[string]int),
		cityIdx:      make(map[string]cityRef),
	}

	for i, c := range s.continents {
		for _, name := range append([]string{c.Code, c.Name}, c.Aliases...) {
			s.continentIdx[Normalize(name)] = i
		}
	}

	for i := range s.countries {
		c := &s.countries[i]
		if _, ok := s.continentByCode(c.Continent); !ok {
			return nil, fmt.Errorf("country %s references unknown continent %q", c.Code, c.Continent)
		}
		if _, dup := s.byCode[c.Code]; dup {
			return nil, fmt.Errorf("country code %s defined twice", c.Code)
		}
		s.byCode[c.Code] = i
		for _, name := range append([]string{c.Code, c.Name}, c.Aliases...) {
			s.countryIdx[Normalize(name)] = i
		}
		for j := range c.Subdivisions {
			sub := &c.Subdivisions[j]
			sub.Country = c.Code
			for _, city := range sub.Cities {
				s.cityIdx[Normalize(city)] = cityRef{country: c.Code, subdivision: sub.Name}
			}
			// A region sharing its name with its main city, e.g. Berlin.
			s.cityIdx[Normalize(sub.Name)] = cityRef{country: c.Code, subdivision: sub.Name}
		}
	}
	return s, nil
}

// Continents returns all continents.
func (s *Service) Continents() []Continent {
	return append([]Continent(nil), s.continents...)
}

// ResolveContinent canonicalises a continent name.
func (s *Service) ResolveContinent(name string) (Continent, bool) {
	i, ok := s.continentIdx[Normalize(name)]
	if !ok {
		return Continent{}, false
	}
	return s.continents[i], true
}

// ResolveCountry canonicalises a country name or ISO code.
func (s *Service) ResolveCountry(name string) (Country, error) {
	i, ok := s.countryIdx[Normalize(name)]
	if !ok {
		return Country{}, &NotFoundError{Kind: "country", Name: name}
	}
	return s.countries[i], nil
}

// Countries returns every known country.
func (s *Service) Countries() []Country {
	return append([]Country(nil), s.countries...)
}

// CountryByCode returns the country for an ISO code.
func (s *Service) CountryByCode(code string) (Country, bool) {
	i, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return Country{}, false
	}
	return s.countries[i], true
}

// ContinentOf returns the continent code of a country code.
func (s *Service) ContinentOf(countryCode string) (string, bool) {
	c, ok := s.CountryByCode(countryCode)
	if !ok {
		return "", false
	}
	return c.Continent, true
}

// SubdivisionsOf returns the subdivision names of a country code.
func (s *Service) SubdivisionsOf(countryCode string) []string {
	c, ok := s.CountryByCode(countryCode)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(c.Subdivisions))
	for _, sub := range c.Subdivisions {
		out = append(out, sub.Name)
	}
	return out
}

// ResolveSubdivision finds a subdivision of one of the given countries. A
// name matching a known city resolves to the city's region. When no known
// subdivision matches and exactly one of the countries has no subdivision
// data, the name is accepted for that country and marked unverified.
func (s *Service) ResolveSubdivision(name string, countryCodes []string) (Subdivision, error) {
	key := Normalize(name)
	if key == "" {
		return Subdivision{}, &NotFoundError{Kind: "region", Name: name}
	}

	var open []string
	for _, code := range countryCodes {
		c, ok := s.CountryByCode(code)
		if !ok {
			continue
		}
		if c.Open() {
			open = append(open, c.Code)
			continue
		}
		for _, sub := range c.Subdivisions {
			if matches(key, sub.Name, sub.Aliases) {
				return sub, nil
			}
		}
		if ref, ok := s.cityIdx[key]; ok && ref.country == c.Code {
			for _, sub := range c.Subdivisions {
				if sub.Name == ref.subdivision {
					return sub, nil
				}
			}
		}
	}

	if len(open) == 1 {
		return Subdivision{Name: strings.TrimSpace(name), Country: open[0], Unverified: true}, nil
	}
	return Subdivision{}, &NotFoundError{Kind: "region", Name: name, Within: countryCodes}
}

// CountryOfCity returns the country code of a known city.
func (s *Service) CountryOfCity(name string) (string, bool) {
	ref, ok := s.cityIdx[Normalize(name)]
	if !ok {
		return "", false
	}
	return ref.country, true
}

func (s *Service) continentByCode(code string) (Continent, bool) {
	for _, c := range s.continents {
		if c.Code == code {
			return c, true
		}
	}
	return Continent{}, false
}

func matches(key, name string, aliases []string) bool {
	if Normalize(name) == key {
		return true
	}
	for _, a := range aliases {
		if Normalize(a) == key {
			return true
		}
	}
	return false
}

// Normalize lower-cases a name, strips accents and punctuation separators
// and collapses whitespace.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, name)
	if err != nil {
		out = name
	}
	out = strings.ToLower(out)
	out = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '\'', '’', '.', ',':
			return ' '
		}
		return r
	}, out)
	return strings.Join(strings.Fields(out), " ")
}
