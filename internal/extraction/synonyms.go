package extraction

import (
	"strings"

	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/types"
)

// enumSynonyms maps normalized phrases onto enumeration values, per field.
var enumSynonyms = map[types.FieldKey]map[string][]string{
	types.FieldJobType: {
		types.JobTypeFreelance: {"freelance", "free lance", "freelancer", "independant", "contractor", "consultant", "autonomo", "mission", "portage"},
		types.JobTypeFullTime:  {"full time", "fulltime", "temps plein", "plein temps", "cdi", "permanent", "tiempo completo", "jornada completa"},
		types.JobTypePartTime:  {"part time", "parttime", "temps partiel", "mi temps", "tiempo parcial", "media jornada"},
	},
	types.FieldWorkMode: {
		types.WorkModeRemote: {"remote", "full remote", "teletravail", "a distance", "distanciel", "remoto", "a distancia", "teletrabajo"},
		types.WorkModeOnsite: {"onsite", "on site", "sur site", "presentiel", "au bureau", "office", "in office", "presencial", "en oficina"},
		types.WorkModeHybrid: {"hybrid", "hybride", "hibrido", "mixte", "mixto", "partial remote", "teletravail partiel"},
	},
	types.FieldSeniority: {
		types.SeniorityJunior: {"junior", "debutant", "entry level", "graduate", "principiante", "jeune diplome"},
		types.SeniorityMid:    {"mid", "mid level", "intermediate", "intermediaire", "confirme", "medior", "intermedio", "semi senior"},
		types.SenioritySenior: {"senior", "expert", "experimente", "lead", "principal", "staff", "experto"},
	},
}

// matchEnum maps free text onto exactly one allowed value of field. It
// returns false when no value or more than one value matches.
func matchEnum(field types.FieldKey, allowed []string, text string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, v := range allowed {
		if upper == v {
			return v, true
		}
	}

	norm := " " + geo.Normalize(text) + " "
	type hit struct{ value, phrase string }
	var hits []hit
	for _, v := range allowed {
		for _, phrase := range enumSynonyms[field][v] {
			if strings.Contains(norm, " "+phrase+" ") {
				hits = append(hits, hit{value: v, phrase: phrase})
			}
		}
	}

	// A phrase inside a longer matched phrase does not count ("senior" in
	// "semi senior").
	found := ""
	for i, h := range hits {
		covered := false
		for j, other := range hits {
			if i != j && len(other.phrase) > len(h.phrase) && strings.Contains(other.phrase, h.phrase) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if found != "" && found != h.value {
			return "", false
		}
		found = h.value
	}
	return found, found != ""
}

// allTokens mean "no further restriction" in a geographic answer.
var allTokens = map[string]bool{
	"all": true, "everywhere": true, "worldwide": true, "anywhere": true,
	"toutes": true, "tous": true, "tout": true, "toute": true, "partout": true,
	"todos": true, "todas": true, "todo": true,
}

// fillerWords may surround an all token without changing its meaning.
var fillerWords = map[string]bool{
	"the": true, "of": true, "them": true, "and": true, "countries": true, "continents": true, "regions": true, "world": true,
	"les": true, "des": true, "de": true, "le": true, "monde": true, "entier": true, "pays": true, "et": true,
	"los": true, "las": true, "el": true, "paises": true, "continentes": true, "regiones": true, "mundo": true, "y": true,
	"in": true, "en": true, "dans": true,
}

// isAllToken reports whether a single list entry is an all token.
func isAllToken(name string) bool {
	n := geo.Normalize(name)
	return n == strings.ToLower(types.AllMarker) || allTokens[n]
}

// isAllAnswer reports whether a whole answer only says "all".
func isAllAnswer(text string) bool {
	words := strings.Fields(geo.Normalize(text))
	sawAll := false
	for _, w := range words {
		switch {
		case allTokens[w]:
			sawAll = true
		case fillerWords[w]:
		default:
			return false
		}
	}
	return sawAll
}
