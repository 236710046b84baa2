package dialogue

import (
	"fmt"
	"strings"

	"github.com/jonathan/posting-assistant/internal/types"
)

const defaultLanguage = "fr"

const (
	msgWelcome     = "welcome"
	msgModify      = "modify"
	msgReformulate = "reformulate"
	msgConfusion   = "confusion"
	msgClarify     = "clarify"
	msgStatus      = "status"
	msgStatusField = "status_field"
	msgNoDefault   = "no_default"
	msgUnreadable  = "unreadable"
	msgComplete    = "complete"
	msgIncomplete  = "incomplete"
)

// fallbacks are the system messages used when the oracle cannot compose
// one.
var fallbacks = map[string]map[string]string{
	"fr": {
		msgWelcome:     "Bonjour ! Je vais vous aider à rédiger votre offre d'emploi, une question à la fois.",
		msgModify:      "Valeur actuelle pour %s : %s. Par quoi voulez-vous la remplacer ?",
		msgReformulate: "Je n'ai pas pu utiliser cette réponse : %s\n%s",
		msgConfusion:   "je ne suis pas sûr d'avoir compris ce que vous souhaitez.",
		msgClarify:     "Précision : j'attends %s (%s).\n%s",
		msgStatus:      "Voici les informations déjà renseignées :",
		msgStatusField: "%s : %s",
		msgNoDefault:   "ce champ n'a pas de valeur par défaut, j'ai besoin d'une réponse.",
		msgUnreadable:  "je n'ai pas réussi à interpréter la réponse.",
		msgComplete:    "Merci ! L'offre d'emploi est complète.",
		msgIncomplete:  "Merci ! L'offre est enregistrée, mais il manque encore : %s.",
	},
	"en": {
		msgWelcome:     "Hello! I will help you write your job posting, one question at a time.",
		msgModify:      "Current value for %s: %s. What should it be replaced with?",
		msgReformulate: "I could not use that answer: %s\n%s",
		msgConfusion:   "I am not sure I understood what you meant.",
		msgClarify:     "To clarify: I am expecting %s (%s).\n%s",
		msgStatus:      "Here is what we have so far:",
		msgStatusField: "%s: %s",
		msgNoDefault:   "this field has no default value, I need an answer.",
		msgUnreadable:  "the answer could not be interpreted.",
		msgComplete:    "Thank you! The job posting is complete.",
		msgIncomplete:  "Thank you! The posting is saved, but these fields are still missing: %s.",
	},
	"es": {
		msgWelcome:     "¡Hola! Le ayudaré a redactar su oferta de empleo, una pregunta a la vez.",
		msgModify:      "Valor actual de %s: %s. ¿Por qué quiere reemplazarlo?",
		msgReformulate: "No pude usar esa respuesta: %s\n%s",
		msgConfusion:   "no estoy seguro de haber entendido lo que desea.",
		msgClarify:     "Aclaración: espero %s (%s).\n%s",
		msgStatus:      "Esto es lo que tenemos hasta ahora:",
		msgStatusField: "%s: %s",
		msgNoDefault:   "este campo no tiene valor por defecto, necesito una respuesta.",
		msgUnreadable:  "no pude interpretar la respuesta.",
		msgComplete:    "¡Gracias! La oferta de empleo está completa.",
		msgIncomplete:  "¡Gracias! La oferta está guardada, pero aún faltan: %s.",
	},
}

// hasFallbacks reports whether static messages exist for lang.
func hasFallbacks(lang string) bool {
	_, ok := fallbacks[lang]
	return ok
}

// fallback formats a static message in lang, or in French for languages
// without static text.
func fallback(lang, key string, args ...any) string {
	m, ok := fallbacks[lang]
	if !ok {
		m = fallbacks[defaultLanguage]
	}
	if len(args) == 0 {
		return m[key]
	}
	return fmt.Sprintf(m[key], args...)
}

func joinFields(fields []types.FieldKey) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
