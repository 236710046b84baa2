// Package types provides type definitions for structured data used throughout the posting assistant.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldKey identifies one field of a job posting record.
type FieldKey string

// Field keys, in the order they appear in an exported record.
const (
	FieldTitle             FieldKey = "title"
	FieldDescription       FieldKey = "description"
	FieldDiscipline        FieldKey = "discipline"
	FieldAvailability      FieldKey = "availability"
	FieldSeniority         FieldKey = "seniority"
	FieldLanguages         FieldKey = "languages"
	FieldSkills            FieldKey = "skills"
	FieldJobType           FieldKey = "jobType"
	FieldWorkMode          FieldKey = "workMode"
	FieldMinHourlyRate     FieldKey = "minHourlyRate"
	FieldMaxHourlyRate     FieldKey = "maxHourlyRate"
	FieldWeeklyHours       FieldKey = "weeklyHours"
	FieldEstimatedWeeks    FieldKey = "estimatedWeeks"
	FieldMinFullTimeSalary FieldKey = "minFullTimeSalary"
	FieldMaxFullTimeSalary FieldKey = "maxFullTimeSalary"
	FieldMinPartTimeSalary FieldKey = "minPartTimeSalary"
	FieldMaxPartTimeSalary FieldKey = "maxPartTimeSalary"
	FieldContinents        FieldKey = "continents"
	FieldCountries         FieldKey = "countries"
	FieldRegions           FieldKey = "regions"
	FieldTimeZone          FieldKey = "timeZone"
	FieldCountry           FieldKey = "country"
	FieldCity              FieldKey = "city"
)

// AllFields lists every field key in canonical order.
var AllFields = []FieldKey{
	FieldTitle, FieldDescription, FieldDiscipline, FieldAvailability, FieldSeniority,
	FieldLanguages, FieldSkills, FieldJobType, FieldWorkMode,
	FieldMinHourlyRate, FieldMaxHourlyRate, FieldWeeklyHours, FieldEstimatedWeeks,
	FieldMinFullTimeSalary, FieldMaxFullTimeSalary, FieldMinPartTimeSalary, FieldMaxPartTimeSalary,
	FieldContinents, FieldCountries, FieldRegions, FieldTimeZone,
	FieldCountry, FieldCity,
}

// Enumerated values.
const (
	JobTypeFreelance = "FREELANCE"
	JobTypeFullTime  = "FULLTIME"
	JobTypePartTime  = "PARTTIME"

	WorkModeRemote = "REMOTE"
	WorkModeOnsite = "ONSITE"
	WorkModeHybrid = "HYBRID"

	SeniorityJunior = "JUNIOR"
	SeniorityMid    = "MID"
	SenioritySenior = "SENIOR"
)

// AllMarker is the place name meaning "no further restriction" inside a
// geographic list.
const AllMarker = "ALL"

// MaxWeeklyHours is the number of hours in a week.
const MaxWeeklyHours = 168

// Language is a spoken language requirement.
type Language struct {
	Name     string `json:"name" validate:"required"`
	Level    string `json:"level,omitempty"`
	Required bool   `json:"required"`
}

// Skill is a technical or soft skill requirement.
type Skill struct {
	Name      string `json:"name" validate:"required"`
	Mandatory bool   `json:"mandatory"`
}

// Place is a named geographic item. Country holds the parent country for
// regions.
type Place struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country,omitempty"`
}

// TimeZone is the expected working time zone and the minimum number of
// overlapping hours.
type TimeZone struct {
	Name    string  `json:"name" validate:"required"`
	Overlap float64 `json:"overlap" validate:"gte=0,lte=24"`
}

// Record is a job posting being filled through the dialogue. Nil scalars and
// empty lists are missing values; zero is a valid value.
type Record struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	Discipline   *string    `json:"discipline,omitempty" validate:"omitempty,min=1"`
	Availability *float64   `json:"availability,omitempty" validate:"omitempty,gte=0"`
	Seniority    *string    `json:"seniority,omitempty" validate:"omitempty,oneof=JUNIOR MID SENIOR"`
	Languages    []Language `json:"languages,omitempty" validate:"dive"`
	Skills       []Skill    `json:"skills,omitempty" validate:"dive"`
	JobType      *string    `json:"jobType,omitempty" validate:"omitempty,oneof=FREELANCE FULLTIME PARTTIME"`
	WorkMode     *string    `json:"workMode,omitempty" validate:"omitempty,oneof=REMOTE ONSITE HYBRID"`

	MinHourlyRate     *float64 `json:"minHourlyRate,omitempty" validate:"omitempty,gte=0"`
	MaxHourlyRate     *float64 `json:"maxHourlyRate,omitempty" validate:"omitempty,gte=0"`
	WeeklyHours       *float64 `json:"weeklyHours,omitempty" validate:"omitempty,gte=0,lte=168"`
	EstimatedWeeks    *float64 `json:"estimatedWeeks,omitempty" validate:"omitempty,gte=0"`
	MinFullTimeSalary *float64 `json:"minFullTimeSalary,omitempty" validate:"omitempty,gte=0"`
	MaxFullTimeSalary *float64 `json:"maxFullTimeSalary,omitempty" validate:"omitempty,gte=0"`
	MinPartTimeSalary *float64 `json:"minPartTimeSalary,omitempty" validate:"omitempty,gte=0"`
	MaxPartTimeSalary *float64 `json:"maxPartTimeSalary,omitempty" validate:"omitempty,gte=0"`

	Continents []Place   `json:"continents,omitempty" validate:"dive"`
	Countries  []Place   `json:"countries,omitempty" validate:"dive"`
	Regions    []Place   `json:"regions,omitempty" validate:"dive"`
	TimeZone   *TimeZone `json:"timeZone,omitempty"`
	Country    *Place    `json:"country,omitempty"`
	City       *string   `json:"city,omitempty" validate:"omitempty,min=1"`
}

// SetError is returned when a value of the wrong kind is stored into a field.
type SetError struct {
	Field FieldKey
	Want  Kind
	Got   Kind
}

func (e *SetError) Error() string {
	return fmt.Sprintf("cannot store %s value into %s field %q", e.Got, e.Want, e.Field)
}

// StorageKind returns the kind of value the record stores for a field.
// The second result is false for unknown keys.
func StorageKind(field FieldKey) (Kind, bool) {
	switch field {
	case FieldTitle, FieldDescription, FieldDiscipline, FieldCity:
		return KindText, true
	case FieldAvailability, FieldMinHourlyRate, FieldMaxHourlyRate, FieldWeeklyHours,
		FieldEstimatedWeeks, FieldMinFullTimeSalary, FieldMaxFullTimeSalary,
		FieldMinPartTimeSalary, FieldMaxPartTimeSalary:
		return KindNumber, true
	case FieldSeniority, FieldJobType, FieldWorkMode:
		return KindEnum, true
	case FieldTimeZone:
		return KindTimeZone, true
	case FieldCountry:
		return KindPlace, true
	case FieldLanguages:
		return KindLanguages, true
	case FieldSkills:
		return KindSkills, true
	case FieldContinents, FieldCountries, FieldRegions:
		return KindPlaces, true
	}
	return "", false
}

// Get returns the value held in a field and whether it is filled.
func (r Record) Get(field FieldKey) (Value, bool) {
	switch field {
	case FieldTitle:
		return textOf(r.Title)
	case FieldDescription:
		return textOf(r.Description)
	case FieldDiscipline:
		return textOf(r.Discipline)
	case FieldCity:
		return textOf(r.City)
	case FieldSeniority:
		return enumOf(r.Seniority)
	case FieldJobType:
		return enumOf(r.JobType)
	case FieldWorkMode:
		return enumOf(r.WorkMode)
	case FieldAvailability:
		return numberOf(r.Availability)
	case FieldMinHourlyRate:
		return numberOf(r.MinHourlyRate)
	case FieldMaxHourlyRate:
		return numberOf(r.MaxHourlyRate)
	case FieldWeeklyHours:
		return numberOf(r.WeeklyHours)
	case FieldEstimatedWeeks:
		return numberOf(r.EstimatedWeeks)
	case FieldMinFullTimeSalary:
		return numberOf(r.MinFullTimeSalary)
	case FieldMaxFullTimeSalary:
		return numberOf(r.MaxFullTimeSalary)
	case FieldMinPartTimeSalary:
		return numberOf(r.MinPartTimeSalary)
	case FieldMaxPartTimeSalary:
		return numberOf(r.MaxPartTimeSalary)
	case FieldLanguages:
		if len(r.Languages) == 0 {
			return Value{}, false
		}
		return LanguagesValue(r.Languages), true
	case FieldSkills:
		if len(r.Skills) == 0 {
			return Value{}, false
		}
		return SkillsValue(r.Skills), true
	case FieldContinents:
		return placesOf(r.Continents)
	case FieldCountries:
		return placesOf(r.Countries)
	case FieldRegions:
		return placesOf(r.Regions)
	case FieldTimeZone:
		if r.TimeZone == nil || r.TimeZone.Name == "" {
			return Value{}, false
		}
		return TimeZoneValue(*r.TimeZone), true
	case FieldCountry:
		if r.Country == nil || r.Country.Name == "" {
			return Value{}, false
		}
		return PlaceValue(*r.Country), true
	}
	return Value{}, false
}

// IsFilled reports whether a field holds a value.
func (r Record) IsFilled(field FieldKey) bool {
	_, ok := r.Get(field)
	return ok
}

// Number returns the numeric value of a field, if filled.
func (r Record) Number(field FieldKey) (float64, bool) {
	v, ok := r.Get(field)
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Enum returns the enumerated value of a field, or "" when missing.
func (r Record) Enum(field FieldKey) string {
	v, ok := r.Get(field)
	if !ok || v.Kind != KindEnum {
		return ""
	}
	return v.Text
}

// With returns a copy of the record with field set to v. The receiver is
// never modified.
func (r Record) With(field FieldKey, v Value) (Record, error) {
	want, ok := StorageKind(field)
	if !ok {
		return r, fmt.Errorf("unknown field %q", field)
	}
	if v.Kind != want {
		return r, &SetError{Field: field, Want: want, Got: v.Kind}
	}

	out := r.Clone()
	switch field {
	case FieldTitle:
		out.Title = ptr(v.Text)
	case FieldDescription:
		out.Description = ptr(v.Text)
	case FieldDiscipline:
		out.Discipline = ptr(v.Text)
	case FieldCity:
		out.City = ptr(v.Text)
	case FieldSeniority:
		out.Seniority = ptr(v.Text)
	case FieldJobType:
		out.JobType = ptr(v.Text)
	case FieldWorkMode:
		out.WorkMode = ptr(v.Text)
	case FieldAvailability:
		out.Availability = ptr(v.Number)
	case FieldMinHourlyRate:
		out.MinHourlyRate = ptr(v.Number)
	case FieldMaxHourlyRate:
		out.MaxHourlyRate = ptr(v.Number)
	case FieldWeeklyHours:
		out.WeeklyHours = ptr(v.Number)
	case FieldEstimatedWeeks:
		out.EstimatedWeeks = ptr(v.Number)
	case FieldMinFullTimeSalary:
		out.MinFullTimeSalary = ptr(v.Number)
	case FieldMaxFullTimeSalary:
		out.MaxFullTimeSalary = ptr(v.Number)
	case FieldMinPartTimeSalary:
		out.MinPartTimeSalary = ptr(v.Number)
	case FieldMaxPartTimeSalary:
		out.MaxPartTimeSalary = ptr(v.Number)
	case FieldLanguages:
		out.Languages = append([]Language(nil), v.Languages...)
	case FieldSkills:
		out.Skills = append([]Skill(nil), v.Skills...)
	case FieldContinents:
		out.Continents = append([]Place(nil), v.Places...)
	case FieldCountries:
		out.Countries = append([]Place(nil), v.Places...)
	case FieldRegions:
		out.Regions = append([]Place(nil), v.Places...)
	case FieldTimeZone:
		tz := *v.TimeZone
		out.TimeZone = &tz
	case FieldCountry:
		p := *v.Place
		out.Country = &p
	}
	return out, nil
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Languages = cloneSlice(r.Languages)
	out.Skills = cloneSlice(r.Skills)
	out.Continents = cloneSlice(r.Continents)
	out.Countries = cloneSlice(r.Countries)
	out.Regions = cloneSlice(r.Regions)
	return out
}

// Export returns a cleaned copy suitable for serialization: nameless list
// items and objects are dropped and empty lists become nil, so JSON output
// carries no null or empty values.
func (r Record) Export() Record {
	out := r.Clone()
	out.Languages = dropNameless(out.Languages, func(l Language) string { return l.Name })
	out.Skills = dropNameless(out.Skills, func(s Skill) string { return s.Name })
	out.Continents = dropNameless(out.Continents, func(p Place) string { return p.Name })
	out.Countries = dropNameless(out.Countries, func(p Place) string { return p.Name })
	out.Regions = dropNameless(out.Regions, func(p Place) string { return p.Name })
	if out.TimeZone != nil && strings.TrimSpace(out.TimeZone.Name) == "" {
		out.TimeZone = nil
	}
	if out.Country != nil && strings.TrimSpace(out.Country.Name) == "" {
		out.Country = nil
	}
	for _, s := range []**string{&out.Title, &out.Description, &out.Discipline, &out.City} {
		if *s != nil && strings.TrimSpace(**s) == "" {
			*s = nil
		}
	}
	return out
}

// FilledFields returns the filled field keys in canonical order.
func (r Record) FilledFields() []FieldKey {
	var out []FieldKey
	for _, f := range AllFields {
		if r.IsFilled(f) {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks struct-level constraints on the record using validator tags.
func (r Record) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ParseRecord decodes an exported record.
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to parse record JSON: %w", err)
	}
	return r, nil
}

func ptr[T any](v T) *T {
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}

func dropNameless[T any](in []T, name func(T) string) []T {
	var out []T
	for _, item := range in {
		if strings.TrimSpace(name(item)) != "" {
			out = append(out, item)
		}
	}
	return out
}

func textOf(s *string) (Value, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Value{}, false
	}
	return TextValue(*s), true
}

func enumOf(s *string) (Value, bool) {
	if s == nil || *s == "" {
		return Value{}, false
	}
	return EnumValue(*s), true
}

func numberOf(f *float64) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	return NumberValue(*f), true
}

func placesOf(p []Place) (Value, bool) {
	if len(p) == 0 {
		return Value{}, false
	}
	return PlacesValue(p), true
}
