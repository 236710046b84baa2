package observability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/posting-assistant/internal/types"
)

// maxTextDisplay is the longest free text shown verbatim.
const maxTextDisplay = 50

var displayWords = map[string]map[string]string{
	"fr": {
		"unset": "Non spécifié", "immediate": "Immédiat", "week": "semaine", "weeks": "semaines",
		"required": "requis", "optional": "optionnel", "overlap": "chevauchement",
	},
	"en": {
		"unset": "Not specified", "immediate": "Immediate", "week": "week", "weeks": "weeks",
		"required": "required", "optional": "optional", "overlap": "overlap",
	},
	"es": {
		"unset": "No especificado", "immediate": "Inmediato", "week": "semana", "weeks": "semanas",
		"required": "obligatorio", "optional": "opcional", "overlap": "solapamiento",
	},
}

func word(lang, key string) string {
	if m, ok := displayWords[lang]; ok {
		return m[key]
	}
	return displayWords["en"][key]
}

// FormatValue renders a field value for people. A zero Value renders as
// "not specified" in lang. Amounts use € for French and Spanish and $
// otherwise.
func FormatValue(field types.FieldKey, v types.Value, lang string) string {
	switch v.Kind {
	case "":
		return word(lang, "unset")
	case types.KindNumber:
		return formatNumberField(field, v.Number, lang)
	case types.KindText, types.KindEnum:
		return truncate(v.Text, maxTextDisplay)
	case types.KindLanguages:
		parts := make([]string, 0, len(v.Languages))
		for _, l := range v.Languages {
			if l.Level != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", l.Name, l.Level))
				continue
			}
			parts = append(parts, l.Name)
		}
		return joinOrEmpty(parts)
	case types.KindSkills:
		parts := make([]string, 0, len(v.Skills))
		for _, s := range v.Skills {
			tag := word(lang, "optional")
			if s.Mandatory {
				tag = word(lang, "required")
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, tag))
		}
		return joinOrEmpty(parts)
	case types.KindPlaces:
		parts := make([]string, 0, len(v.Places))
		for _, p := range v.Places {
			if p.Country != "" && p.Country != types.AllMarker {
				parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Country))
				continue
			}
			parts = append(parts, p.Name)
		}
		return joinOrEmpty(parts)
	case types.KindPlace:
		return v.Place.Name
	case types.KindTimeZone:
		return fmt.Sprintf("%s (%s: %sh)", v.TimeZone.Name, word(lang, "overlap"), number(v.TimeZone.Overlap))
	}
	return truncate(v.String(), maxTextDisplay)
}

// FormatField renders the current value of a field of r.
func FormatField(r types.Record, field types.FieldKey, lang string) string {
	v, _ := r.Get(field)
	return FormatValue(field, v, lang)
}

func formatNumberField(field types.FieldKey, n float64, lang string) string {
	euro := lang == "fr" || lang == "es"
	switch field {
	case types.FieldAvailability:
		switch n {
		case 0:
			return word(lang, "immediate")
		case 1:
			return "1 " + word(lang, "week")
		}
		return number(n) + " " + word(lang, "weeks")
	case types.FieldMinHourlyRate, types.FieldMaxHourlyRate:
		if euro {
			return number(n) + "€/h"
		}
		return "$" + number(n) + "/h"
	case types.FieldMinFullTimeSalary, types.FieldMaxFullTimeSalary,
		types.FieldMinPartTimeSalary, types.FieldMaxPartTimeSalary:
		if euro {
			return number(n) + "€"
		}
		return "$" + number(n)
	}
	return number(n)
}

func number(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func joinOrEmpty(parts []string) string {
	if len(parts) == 0 {
		return "[]"
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
