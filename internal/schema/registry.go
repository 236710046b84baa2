// Package schema holds the field registry of a job posting and the rules that
// decide which fields are required and which one to ask next.
package schema

import (
	"fmt"
	"strings"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Spec describes one field of the record.
type Spec struct {
	Key          types.FieldKey
	Kind         types.Kind
	Description  string
	TypeHint     string
	Enum         []string
	Prerequisite types.FieldKey
	// HasDefault marks fields that accept "no preference" as an answer.
	HasDefault bool
	Questions  map[string]string
}

// Question returns the default question for a language, falling back to French.
func (s Spec) Question(lang string) string {
	if q, ok := s.Questions[lang]; ok {
		return q
	}
	return s.Questions["fr"]
}

// AllowsEnum reports whether value is one of the allowed enumeration values.
func (s Spec) AllowsEnum(value string) bool {
	for _, e := range s.Enum {
		if e == value {
			return true
		}
	}
	return false
}

var specs = []Spec{
	{
		Key: types.FieldTitle, Kind: types.KindText,
		Description: "job title", TypeHint: "short text",
		Questions: map[string]string{
			"fr": "Quel est l'intitulé du poste ?",
			"en": "What is the job title?",
			"es": "¿Cuál es el título del puesto?",
		},
	},
	{
		Key: types.FieldDescription, Kind: types.KindText,
		Description: "description of the mission", TypeHint: "text",
		Questions: map[string]string{
			"fr": "Pouvez-vous décrire la mission en quelques phrases ?",
			"en": "Could you describe the job in a few sentences?",
			"es": "¿Puede describir la misión en unas frases?",
		},
	},
	{
		Key: types.FieldDiscipline, Kind: types.KindText,
		Description: "professional discipline or domain", TypeHint: "short text",
		Questions: map[string]string{
			"fr": "Dans quel domaine ou quelle discipline se situe ce poste ?",
			"en": "Which discipline or field does this position belong to?",
			"es": "¿A qué disciplina o área pertenece este puesto?",
		},
	},
	{
		Key: types.FieldAvailability, Kind: types.KindNumber,
		Description: "how soon the candidate must start", TypeHint: "number of weeks from now, 0 for immediately",
		HasDefault: true,
		Questions: map[string]string{
			"fr": "Dans combien de temps le candidat doit-il être disponible ?",
			"en": "How soon does the candidate need to be available?",
			"es": "¿En cuánto tiempo debe estar disponible el candidato?",
		},
	},
	{
		Key: types.FieldSeniority, Kind: types.KindEnum,
		Description: "seniority level", TypeHint: "one of the allowed values",
		Enum: []string{types.SeniorityJunior, types.SeniorityMid, types.SenioritySenior},
		Questions: map[string]string{
			"fr": "Quel niveau d'expérience recherchez-vous (junior, intermédiaire, senior) ?",
			"en": "What seniority level are you looking for (junior, mid, senior)?",
			"es": "¿Qué nivel de experiencia busca (junior, intermedio, senior)?",
		},
	},
	{
		Key: types.FieldLanguages, Kind: types.KindLanguages,
		Description: "spoken languages required", TypeHint: `list of {"name","level","required"}`,
		Questions: map[string]string{
			"fr": "Quelles langues le candidat doit-il parler, et à quel niveau ?",
			"en": "Which languages must the candidate speak, and at what level?",
			"es": "¿Qué idiomas debe hablar el candidato y con qué nivel?",
		},
	},
	{
		Key: types.FieldSkills, Kind: types.KindSkills,
		Description: "skills expected", TypeHint: `list of {"name","mandatory"}`,
		Questions: map[string]string{
			"fr": "Quelles compétences sont attendues ? Précisez celles qui sont indispensables.",
			"en": "Which skills are expected? Tell me which ones are mandatory.",
			"es": "¿Qué habilidades se esperan? Indique cuáles son imprescindibles.",
		},
	},
	{
		Key: types.FieldJobType, Kind: types.KindEnum,
		Description: "type of contract", TypeHint: "one of the allowed values",
		Enum: []string{types.JobTypeFreelance, types.JobTypeFullTime, types.JobTypePartTime},
		Questions: map[string]string{
			"fr": "S'agit-il d'une mission freelance, d'un temps plein ou d'un temps partiel ?",
			"en": "Is this a freelance, full-time or part-time position?",
			"es": "¿Es un puesto freelance, a tiempo completo o a tiempo parcial?",
		},
	},
	{
		Key: types.FieldWorkMode, Kind: types.KindEnum,
		Description: "work arrangement", TypeHint: "one of the allowed values",
		Enum: []string{types.WorkModeRemote, types.WorkModeOnsite, types.WorkModeHybrid},
		Questions: map[string]string{
			"fr": "Le poste est-il en télétravail, sur site ou hybride ?",
			"en": "Is the position remote, on-site or hybrid?",
			"es": "¿El puesto es remoto, presencial o híbrido?",
		},
	},
	{
		Key: types.FieldMinHourlyRate, Kind: types.KindNumber,
		Description: "minimum hourly rate", TypeHint: "number, currency per hour",
		Questions: map[string]string{
			"fr": "Quel est le taux horaire minimum proposé ?",
			"en": "What is the minimum hourly rate offered?",
			"es": "¿Cuál es la tarifa mínima por hora?",
		},
	},
	{
		Key: types.FieldMaxHourlyRate, Kind: types.KindNumber,
		Description: "maximum hourly rate", TypeHint: "number, currency per hour",
		Questions: map[string]string{
			"fr": "Quel est le taux horaire maximum proposé ?",
			"en": "What is the maximum hourly rate offered?",
			"es": "¿Cuál es la tarifa máxima por hora?",
		},
	},
	{
		Key: types.FieldWeeklyHours, Kind: types.KindNumber,
		Description: "hours per week", TypeHint: "number of hours between 0 and 168",
		Questions: map[string]string{
			"fr": "Combien d'heures par semaine la mission représente-t-elle ?",
			"en": "How many hours per week does the job require?",
			"es": "¿Cuántas horas por semana requiere el trabajo?",
		},
	},
	{
		Key: types.FieldEstimatedWeeks, Kind: types.KindNumber,
		Description: "estimated duration of the mission", TypeHint: "number of weeks",
		Questions: map[string]string{
			"fr": "Quelle est la durée estimée de la mission, en semaines ?",
			"en": "How many weeks is the job expected to last?",
			"es": "¿Cuántas semanas se estima que durará la misión?",
		},
	},
	{
		Key: types.FieldMinFullTimeSalary, Kind: types.KindNumber,
		Description: "minimum yearly full-time salary", TypeHint: "number, yearly amount",
		Questions: map[string]string{
			"fr": "Quel est le salaire annuel minimum pour ce temps plein ?",
			"en": "What is the minimum yearly salary for this full-time role?",
			"es": "¿Cuál es el salario anual mínimo para este puesto a tiempo completo?",
		},
	},
	{
		Key: types.FieldMaxFullTimeSalary, Kind: types.KindNumber,
		Description: "maximum yearly full-time salary", TypeHint: "number, yearly amount",
		Questions: map[string]string{
			"fr": "Quel est le salaire annuel maximum pour ce temps plein ?",
			"en": "What is the maximum yearly salary for this full-time role?",
			"es": "¿Cuál es el salario anual máximo para este puesto a tiempo completo?",
		},
	},
	{
		Key: types.FieldMinPartTimeSalary, Kind: types.KindNumber,
		Description: "minimum part-time salary", TypeHint: "number",
		Questions: map[string]string{
			"fr": "Quel est le salaire minimum pour ce temps partiel ?",
			"en": "What is the minimum salary for this part-time role?",
			"es": "¿Cuál es el salario mínimo para este puesto a tiempo parcial?",
		},
	},
	{
		Key: types.FieldMaxPartTimeSalary, Kind: types.KindNumber,
		Description: "maximum part-time salary", TypeHint: "number",
		Questions: map[string]string{
			"fr": "Quel est le salaire maximum pour ce temps partiel ?",
			"en": "What is the maximum salary for this part-time role?",
			"es": "¿Cuál es el salario máximo para este puesto a tiempo parcial?",
		},
	},
	{
		Key: types.FieldContinents, Kind: types.KindPlaces,
		Description: "continents candidates may work from", TypeHint: `list of {"name"}`,
		HasDefault: true,
		Questions: map[string]string{
			"fr": "Depuis quels continents les candidats peuvent-ils travailler ?",
			"en": "From which continents may candidates work?",
			"es": "¿Desde qué continentes pueden trabajar los candidatos?",
		},
	},
	{
		Key: types.FieldCountries, Kind: types.KindPlaces,
		Description: "countries candidates may work from", TypeHint: `list of {"name"}`,
		Prerequisite: types.FieldContinents, HasDefault: true,
		Questions: map[string]string{
			"fr": "Dans ces continents, quels pays acceptez-vous ?",
			"en": "Within those continents, which countries do you accept?",
			"es": "Dentro de esos continentes, ¿qué países acepta?",
		},
	},
	{
		Key: types.FieldRegions, Kind: types.KindPlaces,
		Description: "regions candidates may work from", TypeHint: `list of {"name","country"}`,
		Prerequisite: types.FieldCountries, HasDefault: true,
		Questions: map[string]string{
			"fr": "Y a-t-il des régions précises dans ces pays ?",
			"en": "Are there specific regions within those countries?",
			"es": "¿Hay regiones concretas dentro de esos países?",
		},
	},
	{
		Key: types.FieldTimeZone, Kind: types.KindTimeZone,
		Description: "reference time zone and minimum overlap", TypeHint: `{"name","overlap"} with overlap in hours`,
		HasDefault: true,
		Questions: map[string]string{
			"fr": "Quel fuseau horaire de référence, et combien d'heures de chevauchement minimum ?",
			"en": "Which reference time zone, and how many hours of overlap at least?",
			"es": "¿Qué zona horaria de referencia y cuántas horas mínimas de coincidencia?",
		},
	},
	{
		Key: types.FieldCountry, Kind: types.KindPlace,
		Description: "country of the workplace", TypeHint: `{"name"}`,
		Questions: map[string]string{
			"fr": "Dans quel pays se situe le lieu de travail ?",
			"en": "In which country is the workplace?",
			"es": "¿En qué país se encuentra el lugar de trabajo?",
		},
	},
	{
		Key: types.FieldCity, Kind: types.KindText,
		Description: "city of the workplace", TypeHint: "city name",
		Prerequisite: types.FieldCountry,
		Questions: map[string]string{
			"fr": "Dans quelle ville ?",
			"en": "In which city?",
			"es": "¿En qué ciudad?",
		},
	},
}

var byKey map[types.FieldKey]Spec

// aliases maps alternative external names onto field keys.
var aliases = map[string]types.FieldKey{
	"type":         types.FieldWorkMode,
	"work_mode":    types.FieldWorkMode,
	"job_type":     types.FieldJobType,
	"time_zone":    types.FieldTimeZone,
	"timezone":     types.FieldTimeZone,
	"weekly_hours": types.FieldWeeklyHours,
}

func init() {
	if err := buildRegistry(); err != nil {
		panic(err)
	}
}

func buildRegistry() error {
	byKey = make(map[types.FieldKey]Spec, len(specs))
	for _, s := range specs {
		if _, dup := byKey[s.Key]; dup {
			return fmt.Errorf("field %q registered twice", s.Key)
		}
		want, ok := types.StorageKind(s.Key)
		if !ok {
			return fmt.Errorf("field %q has no storage in the record", s.Key)
		}
		if want != s.Kind {
			return fmt.Errorf("field %q registered as %s but stored as %s", s.Key, s.Kind, want)
		}
		if s.Kind == types.KindEnum && len(s.Enum) == 0 {
			return fmt.Errorf("enum field %q has no values", s.Key)
		}
		for _, lang := range []string{"fr", "en", "es"} {
			if s.Questions[lang] == "" {
				return fmt.Errorf("field %q has no %s question", s.Key, lang)
			}
		}
		byKey[s.Key] = s
	}
	for _, k := range types.AllFields {
		s, ok := byKey[k]
		if !ok {
			return fmt.Errorf("field %q is not registered", k)
		}
		if s.Prerequisite != "" {
			if _, ok := byKey[s.Prerequisite]; !ok {
				return fmt.Errorf("field %q depends on unknown field %q", k, s.Prerequisite)
			}
		}
	}
	return nil
}

// Lookup returns the spec of a field.
func Lookup(key types.FieldKey) (Spec, bool) {
	s, ok := byKey[key]
	return s, ok
}

// MustLookup returns the spec of a field, panicking for unknown keys.
func MustLookup(key types.FieldKey) Spec {
	s, ok := byKey[key]
	if !ok {
		panic(fmt.Sprintf("unknown field %q", key))
	}
	return s
}

// Keys returns all registered keys in canonical order.
func Keys() []types.FieldKey {
	return append([]types.FieldKey(nil), types.AllFields...)
}

// Parse resolves an external field name, case-insensitively.
func Parse(name string) (types.FieldKey, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", &SchemaError{Name: name, Message: "empty field name"}
	}
	for _, k := range types.AllFields {
		if strings.EqualFold(string(k), n) {
			return k, nil
		}
	}
	if k, ok := aliases[strings.ToLower(n)]; ok {
		return k, nil
	}
	return "", &SchemaError{Name: name, Message: "unknown field"}
}
