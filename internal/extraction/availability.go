package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/posting-assistant/internal/geo"
)

// immediatePhrases mean "available now". They are matched on normalized text.
var immediatePhrases = []string{
	"immediat", "immediate", "immediatement", "immediately", "asap",
	"as soon as possible", "right away", "right now",
	"des que possible", "tout de suite", "de suite",
	"inmediato", "de inmediato", "inmediatamente", "lo antes posible", "cuanto antes",
}

// immediateWords mean "available now" only as the whole answer.
var immediateWords = map[string]bool{"now": true, "maintenant": true, "ahora": true}

// negations turn an immediate phrase into its opposite ("not right now").
var negations = map[string]bool{"not": true, "no": true, "pas": true, "non": true, "never": true, "jamais": true, "nunca": true}

// numberWords maps small spelled-out numbers onto digits.
var numberWords = map[string]string{
	"one": "1", "un": "1", "une": "1", "uno": "1", "una": "1",
	"two": "2", "deux": "2", "dos": "2",
	"three": "3", "trois": "3", "tres": "3",
	"four": "4", "quatre": "4", "cuatro": "4",
	"five": "5", "cinq": "5", "cinco": "5",
	"six": "6", "seis": "6",
	"seven": "7", "sept": "7", "siete": "7",
	"eight": "8", "huit": "8", "ocho": "8",
	"nine": "9", "neuf": "9", "nueve": "9",
	"ten": "10", "dix": "10", "diez": "10",
	"twelve": "12", "douze": "12", "doce": "12",
}

// articles only count as "1" directly before a unit ("a month").
var articles = map[string]bool{"a": true, "an": true}

var durationPattern = regexp.MustCompile(
	`(\d+(?:\.\d+)?)(?:\s*(?:a|to|et|and|y|o|or|ou)\s*(\d+(?:\.\d+)?))?\s*` +
		`(days?|jours?|j|dias?|weeks?|semaines?|semanas?|sem|wks?|months?|mois|mes|meses)\b`)

// ParseAvailability converts a natural-language delay into weeks. Immediate
// availability is 0; days are divided by 7 and rounded down at or below the
// half, up above it; a month counts as 4 weeks; ranges take the upper bound.
// It returns false when text holds no recognizable duration.
func ParseAvailability(text string) (float64, bool) {
	norm := normalizeDuration(text)
	if norm == "" {
		return 0, false
	}

	if m := durationPattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if m[2] != "" {
			if hi, err := strconv.ParseFloat(m[2], 64); err == nil && hi > n {
				n = hi
			}
		}
		switch unit := m[3]; {
		case strings.HasPrefix(unit, "d"), strings.HasPrefix(unit, "j"):
			return roundWeeks(n / 7), true
		case strings.HasPrefix(unit, "m"):
			return roundWeeks(n * 4), true
		default:
			return n, true
		}
	}

	if immediateWords[norm] {
		return 0, true
	}
	for _, tok := range strings.Fields(norm) {
		if negations[tok] {
			return 0, false
		}
	}
	padded := " " + norm + " "
	for _, p := range immediatePhrases {
		if strings.Contains(padded, " "+p+" ") {
			return 0, true
		}
	}
	return 0, false
}

// roundWeeks rounds down when the fractional part is at most one half and up
// otherwise.
func roundWeeks(w float64) float64 {
	whole := math.Floor(w)
	if w-whole > 0.5 {
		return whole + 1
	}
	return whole
}

func normalizeDuration(text string) string {
	s := strings.ToLower(text)
	s = rangeDash.ReplaceAllString(s, "$1 to $2")
	s = decimalComma.ReplaceAllString(s, "$1.$2")

	var tokens []string
	for _, tok := range strings.Fields(s) {
		if numeric.MatchString(tok) {
			tokens = append(tokens, tok)
			continue
		}
		tokens = append(tokens, strings.Fields(geo.Normalize(tok))...)
	}
	for i, tok := range tokens {
		if d, ok := numberWords[tok]; ok {
			tokens[i] = d
			continue
		}
		if articles[tok] && i+1 < len(tokens) && isUnit(tokens[i+1]) {
			tokens[i] = "1"
		}
	}
	return strings.Join(tokens, " ")
}

var (
	rangeDash    = regexp.MustCompile(`(\d)\s*[-–]\s*(\d)`)
	decimalComma = regexp.MustCompile(`(\d),(\d)`)
	numeric      = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

func isUnit(tok string) bool {
	return durationPattern.MatchString("1 " + tok)
}
