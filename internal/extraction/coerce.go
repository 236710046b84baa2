package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Defaults applied to list items and objects the oracle leaves incomplete.
const (
	DefaultLanguageRequired = true
	DefaultSkillMandatory   = true
	DefaultOverlapHours     = 4.0
)

// coerceError reports an oracle value whose JSON shape does not fit the field.
type coerceError struct {
	kind types.Kind
	raw  string
}

func (e *coerceError) Error() string {
	return fmt.Sprintf("cannot read %s value from %s", e.kind, e.raw)
}

func decodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return strings.TrimSpace(obj.Name), nil
	}
	return "", &coerceError{kind: types.KindText, raw: string(raw)}
}

var (
	numberPattern   = regexp.MustCompile(`-?\d+(?:[.,]\d+)?\s*[kK]?`)
	thousandsSpaces = regexp.MustCompile(`(\d)[\s\x{00a0}\x{202f}](\d{3})\b`)
)

// parseNumber reads the first number in text. "45€", "45,5" and "60k" are
// accepted.
func parseNumber(text string) (float64, bool) {
	s := thousandsSpaces.ReplaceAllString(text, "$1$2")
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.TrimSpace(m)
	mult := 1.0
	if strings.HasSuffix(m, "k") || strings.HasSuffix(m, "K") {
		mult = 1000
		m = strings.TrimSpace(m[:len(m)-1])
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, ok := parseNumber(s); ok {
			return n, nil
		}
	}
	return 0, &coerceError{kind: types.KindNumber, raw: string(raw)}
}

// decodeItems reads a list that may be a JSON array, a single object or a
// comma-separated string.
func decodeItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &coerceError{kind: types.KindPlaces, raw: string(raw)}
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &coerceError{kind: types.KindPlaces, raw: string(raw)}
		}
		return items, nil
	case '{':
		return []json.RawMessage{trimmed}, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, &coerceError{kind: types.KindPlaces, raw: string(raw)}
		}
		var items []json.RawMessage
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				data, _ := json.Marshal(part)
				items = append(items, data)
			}
		}
		return items, nil
	}
	return nil, &coerceError{kind: types.KindPlaces, raw: string(raw)}
}

type rawLanguage struct {
	Name     string `json:"name"`
	Level    string `json:"level"`
	Required *bool  `json:"required"`
}

func decodeLanguages(raw json.RawMessage) ([]types.Language, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	var out []types.Language
	for _, item := range items {
		var l rawLanguage
		if err := json.Unmarshal(item, &l); err != nil {
			name, terr := decodeText(item)
			if terr != nil {
				return nil, &coerceError{kind: types.KindLanguages, raw: string(item)}
			}
			l.Name = name
		}
		lang := types.Language{
			Name:     strings.TrimSpace(l.Name),
			Level:    strings.TrimSpace(l.Level),
			Required: DefaultLanguageRequired,
		}
		if l.Required != nil {
			lang.Required = *l.Required
		}
		if lang.Name != "" {
			out = append(out, lang)
		}
	}
	return out, nil
}

type rawSkill struct {
	Name      string `json:"name"`
	Mandatory *bool  `json:"mandatory"`
}

func decodeSkills(raw json.RawMessage) ([]types.Skill, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	var out []types.Skill
	for _, item := range items {
		var s rawSkill
		if err := json.Unmarshal(item, &s); err != nil {
			name, terr := decodeText(item)
			if terr != nil {
				return nil, &coerceError{kind: types.KindSkills, raw: string(item)}
			}
			s.Name = name
		}
		skill := types.Skill{Name: strings.TrimSpace(s.Name), Mandatory: DefaultSkillMandatory}
		if s.Mandatory != nil {
			skill.Mandatory = *s.Mandatory
		}
		if skill.Name != "" {
			out = append(out, skill)
		}
	}
	return out, nil
}

func decodePlaces(raw json.RawMessage) ([]types.Place, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	var out []types.Place
	for _, item := range items {
		var p types.Place
		if err := json.Unmarshal(item, &p); err != nil {
			name, terr := decodeText(item)
			if terr != nil {
				return nil, &coerceError{kind: types.KindPlaces, raw: string(item)}
			}
			p.Name = name
		}
		p.Name = strings.TrimSpace(p.Name)
		p.Country = strings.TrimSpace(p.Country)
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type rawTimeZone struct {
	Name         string   `json:"name"`
	Overlap      *float64 `json:"overlap"`
	OverlapHours *float64 `json:"overlapHours"`
}

func decodeTimeZone(raw json.RawMessage) (types.TimeZone, error) {
	var tz rawTimeZone
	if err := json.Unmarshal(raw, &tz); err != nil {
		name, terr := decodeText(raw)
		if terr != nil {
			return types.TimeZone{}, &coerceError{kind: types.KindTimeZone, raw: string(raw)}
		}
		tz.Name = name
	}
	out := types.TimeZone{Name: strings.TrimSpace(tz.Name), Overlap: DefaultOverlapHours}
	switch {
	case tz.Overlap != nil:
		out.Overlap = *tz.Overlap
	case tz.OverlapHours != nil:
		out.Overlap = *tz.OverlapHours
	}
	return out, nil
}
