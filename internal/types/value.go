package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the shape of a field value.
type Kind string

// Value kinds.
const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindEnum      Kind = "enum"
	KindTimeZone  Kind = "timezone"
	KindPlace     Kind = "place"
	KindLanguages Kind = "languages"
	KindSkills    Kind = "skills"
	KindPlaces    Kind = "places"
)

// Value is a typed field value. Only the member matching Kind is meaningful.
type Value struct {
	Kind      Kind
	Text      string
	Number    float64
	TimeZone  *TimeZone
	Place     *Place
	Languages []Language
	Skills    []Skill
	Places    []Place
}

// TextValue builds a free-text value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// EnumValue builds an enumerated value.
func EnumValue(s string) Value { return Value{Kind: KindEnum, Text: s} }

// NumberValue builds a numeric value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// TimeZoneValue builds a time zone value.
func TimeZoneValue(tz TimeZone) Value { return Value{Kind: KindTimeZone, TimeZone: &tz} }

// PlaceValue builds a single place value.
func PlaceValue(p Place) Value { return Value{Kind: KindPlace, Place: &p} }

// LanguagesValue builds a language list value.
func LanguagesValue(l []Language) Value {
	return Value{Kind: KindLanguages, Languages: cloneSlice(l)}
}

// SkillsValue builds a skill list value.
func SkillsValue(s []Skill) Value {
	return Value{Kind: KindSkills, Skills: cloneSlice(s)}
}

// PlacesValue builds a place list value.
func PlacesValue(p []Place) Value {
	return Value{Kind: KindPlaces, Places: cloneSlice(p)}
}

// Names returns the names of a list or single place value.
func (v Value) Names() []string {
	var out []string
	switch v.Kind {
	case KindLanguages:
		for _, l := range v.Languages {
			out = append(out, l.Name)
		}
	case KindSkills:
		for _, s := range v.Skills {
			out = append(out, s.Name)
		}
	case KindPlaces:
		for _, p := range v.Places {
			out = append(out, p.Name)
		}
	case KindPlace:
		out = append(out, v.Place.Name)
	case KindTimeZone:
		out = append(out, v.TimeZone.Name)
	}
	return out
}

// String renders the value compactly for prompts and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindText, KindEnum:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case "":
		return ""
	}
	data, err := json.Marshal(v.JSON())
	if err != nil {
		return fmt.Sprintf("%v", v.Names())
	}
	return string(data)
}

// JSON returns the value in the shape used by an exported record.
func (v Value) JSON() any {
	switch v.Kind {
	case KindText, KindEnum:
		return v.Text
	case KindNumber:
		return v.Number
	case KindTimeZone:
		return v.TimeZone
	case KindPlace:
		return v.Place
	case KindLanguages:
		return v.Languages
	case KindSkills:
		return v.Skills
	case KindPlaces:
		return v.Places
	}
	return nil
}

// Equal reports whether two values hold the same content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNumber {
		return v.Number == o.Number
	}
	if v.Kind == KindText || v.Kind == KindEnum {
		return strings.EqualFold(v.Text, o.Text)
	}
	return v.String() == o.String()
}
