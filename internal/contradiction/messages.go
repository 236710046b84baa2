package contradiction

import "github.com/jonathan/posting-assistant/internal/types"

const (
	msgMinAboveMax = "min_above_max"
	msgMaxBelowMin = "max_below_min"
	msgHours       = "hours"
	msgGeography   = "geography"
)

var messages = map[string]map[string]string{
	"fr": {
		msgMinAboveMax: "Le %s (%s) dépasse le %s déjà indiqué (%s).",
		msgMaxBelowMin: "Le %s (%s) est inférieur au %s déjà indiqué (%s).",
		msgHours:       "%s heures par semaine dépasse le maximum possible de %d heures.",
		msgGeography:   "%s ne correspond pas à la zone géographique déjà choisie.",
	},
	"en": {
		msgMinAboveMax: "The %s (%s) is higher than the %s you already gave (%s).",
		msgMaxBelowMin: "The %s (%s) is lower than the %s you already gave (%s).",
		msgHours:       "%s hours per week exceeds the %d hours in a week.",
		msgGeography:   "%s does not match the area you already selected.",
	},
	"es": {
		msgMinAboveMax: "El %s (%s) supera el %s ya indicado (%s).",
		msgMaxBelowMin: "El %s (%s) es inferior al %s ya indicado (%s).",
		msgHours:       "%s horas por semana supera el máximo de %d horas.",
		msgGeography:   "%s no corresponde a la zona geográfica ya elegida.",
	},
}

var labels = map[string]map[types.FieldKey]string{
	"fr": {
		types.FieldMinHourlyRate:     "taux horaire minimum",
		types.FieldMaxHourlyRate:     "taux horaire maximum",
		types.FieldMinFullTimeSalary: "salaire minimum",
		types.FieldMaxFullTimeSalary: "salaire maximum",
		types.FieldMinPartTimeSalary: "salaire minimum à temps partiel",
		types.FieldMaxPartTimeSalary: "salaire maximum à temps partiel",
	},
	"en": {
		types.FieldMinHourlyRate:     "minimum hourly rate",
		types.FieldMaxHourlyRate:     "maximum hourly rate",
		types.FieldMinFullTimeSalary: "minimum salary",
		types.FieldMaxFullTimeSalary: "maximum salary",
		types.FieldMinPartTimeSalary: "minimum part-time salary",
		types.FieldMaxPartTimeSalary: "maximum part-time salary",
	},
	"es": {
		types.FieldMinHourlyRate:     "tarifa por hora mínima",
		types.FieldMaxHourlyRate:     "tarifa por hora máxima",
		types.FieldMinFullTimeSalary: "salario mínimo",
		types.FieldMaxFullTimeSalary: "salario máximo",
		types.FieldMinPartTimeSalary: "salario mínimo a tiempo parcial",
		types.FieldMaxPartTimeSalary: "salario máximo a tiempo parcial",
	},
}

// message returns a template in lang, falling back to French.
func message(lang, key string) string {
	if m, ok := messages[lang]; ok {
		return m[key]
	}
	return messages["fr"][key]
}

func label(lang string, field types.FieldKey) string {
	m, ok := labels[lang]
	if !ok {
		m = labels["fr"]
	}
	if l, ok := m[field]; ok {
		return l
	}
	return string(field)
}
