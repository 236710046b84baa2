package intent

import (
	"strings"

	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/types"
	"github.com/jonathan/posting-assistant/internal/validation"
)

// Placeholder targets that depend on the record.
const (
	targetPay      types.FieldKey = "<pay>"
	targetLocation types.FieldKey = "<location>"
	targetCountry  types.FieldKey = "<country>"
)

// fieldSynonyms maps normalized French, English and Spanish names onto
// fields or record-dependent placeholders.
var fieldSynonyms = map[string]types.FieldKey{
	"titre": types.FieldTitle, "intitule": types.FieldTitle, "poste": types.FieldTitle,
	"job title": types.FieldTitle, "position": types.FieldTitle, "puesto": types.FieldTitle, "titulo": types.FieldTitle,

	"description": types.FieldDescription, "mission": types.FieldDescription, "missions": types.FieldDescription,
	"descripcion": types.FieldDescription,

	"domaine": types.FieldDiscipline, "metier": types.FieldDiscipline, "field": types.FieldDiscipline,
	"area": types.FieldDiscipline, "disciplina": types.FieldDiscipline,

	"disponibilite": types.FieldAvailability, "date de debut": types.FieldAvailability, "demarrage": types.FieldAvailability,
	"start date": types.FieldAvailability, "disponibilidad": types.FieldAvailability,

	"seniorite": types.FieldSeniority, "niveau": types.FieldSeniority, "experience": types.FieldSeniority,
	"level": types.FieldSeniority, "nivel": types.FieldSeniority, "experiencia": types.FieldSeniority,

	"langue": types.FieldLanguages, "langues": types.FieldLanguages, "language": types.FieldLanguages,
	"idioma": types.FieldLanguages, "idiomas": types.FieldLanguages,

	"competence": types.FieldSkills, "competences": types.FieldSkills, "skill": types.FieldSkills,
	"stack": types.FieldSkills, "technos": types.FieldSkills, "technologies": types.FieldSkills,
	"habilidades": types.FieldSkills, "competencias": types.FieldSkills,

	"contrat": types.FieldJobType, "type de contrat": types.FieldJobType, "contract": types.FieldJobType,
	"contrato": types.FieldJobType, "tipo de contrato": types.FieldJobType,

	"mode de travail": types.FieldWorkMode, "teletravail": types.FieldWorkMode, "remote": types.FieldWorkMode,
	"modalite": types.FieldWorkMode, "modalidad": types.FieldWorkMode,

	"heures": types.FieldWeeklyHours, "hours": types.FieldWeeklyHours, "horas": types.FieldWeeklyHours,
	"heures par semaine": types.FieldWeeklyHours, "hours per week": types.FieldWeeklyHours,

	"duree": types.FieldEstimatedWeeks, "duration": types.FieldEstimatedWeeks, "duracion": types.FieldEstimatedWeeks,
	"nombre de semaines": types.FieldEstimatedWeeks,

	"fuseau": types.FieldTimeZone, "fuseau horaire": types.FieldTimeZone, "time zone": types.FieldTimeZone,
	"zona horaria": types.FieldTimeZone,

	"continent": types.FieldContinents, "continente": types.FieldContinents, "continentes": types.FieldContinents,
	"region": types.FieldRegions, "regiones": types.FieldRegions,
	"ville": types.FieldCity, "city": types.FieldCity, "ciudad": types.FieldCity,

	"pays": targetCountry, "country": targetCountry, "pais": targetCountry, "paises": targetCountry,

	"salary": targetPay, "salaire": targetPay, "remuneration": targetPay, "compensation": targetPay,
	"pay": targetPay, "sueldo": targetPay, "salario": targetPay, "remuneracion": targetPay,
	"tjm": targetPay, "rate": targetPay, "taux": targetPay, "taux horaire": targetPay,
	"tarif": targetPay, "tarifa": targetPay, "budget": targetPay,

	"location": targetLocation, "lieu": targetLocation, "localisation": targetLocation,
	"emplacement": targetLocation, "ubicacion": targetLocation, "lugar": targetLocation,
	"zone": targetLocation, "zona": targetLocation,
}

var maxWords = []string{"max", "maximum", "maximo", "maximal", "plafond", "ceiling"}

// synonymTarget resolves a loose field name through the synonym table. The
// record decides record-dependent names: pay goes to the minimum of the
// contract's range ("max" selects the maximum) and location goes to
// continents for remote postings, country otherwise.
func synonymTarget(name string, r types.Record) (types.FieldKey, bool) {
	norm := geo.Normalize(name)
	if norm == "" {
		return "", false
	}

	target, ok := fieldSynonyms[norm]
	if !ok {
		bestPhrase := ""
		padded := " " + norm + " "
		for phrase, f := range fieldSynonyms {
			if !strings.Contains(padded, " "+phrase+" ") {
				continue
			}
			// Longest phrase wins; ties break alphabetically.
			if len(phrase) > len(bestPhrase) || (len(phrase) == len(bestPhrase) && phrase < bestPhrase) {
				target, bestPhrase, ok = f, phrase, true
			}
		}
	}
	if !ok {
		return "", false
	}

	remote := r.Enum(types.FieldWorkMode) == types.WorkModeRemote
	switch target {
	case targetPay:
		f := types.FieldMinFullTimeSalary
		switch r.Enum(types.FieldJobType) {
		case types.JobTypeFreelance:
			f = types.FieldMinHourlyRate
		case types.JobTypePartTime:
			f = types.FieldMinPartTimeSalary
		}
		if mentionsMax(norm) {
			f, _ = validation.Counterpart(f)
		}
		return f, true
	case targetLocation:
		if remote {
			return types.FieldContinents, true
		}
		return types.FieldCountry, true
	case targetCountry:
		if remote {
			return types.FieldCountries, true
		}
		return types.FieldCountry, true
	}
	return target, true
}

func mentionsMax(norm string) bool {
	padded := " " + norm + " "
	for _, w := range maxWords {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}
