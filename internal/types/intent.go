package types

import "strings"

// IntentKind classifies what a user turn is trying to do.
type IntentKind string

// Intent kinds recognised by the dialogue.
const (
	IntentDirectAnswer  IntentKind = "DIRECT_ANSWER"
	IntentModifyField   IntentKind = "MODIFY_FIELD"
	IntentShowStatus    IntentKind = "SHOW_STATUS"
	IntentClarification IntentKind = "CLARIFICATION"
	IntentNoPreference  IntentKind = "NO_PREFERENCE"
	IntentRefuse        IntentKind = "REFUSE"
	IntentEmpty         IntentKind = "EMPTY"
	IntentConfusion     IntentKind = "CONFUSION"
)

// AllIntents lists every intent kind.
var AllIntents = []IntentKind{
	IntentDirectAnswer, IntentModifyField, IntentShowStatus, IntentClarification,
	IntentNoPreference, IntentRefuse, IntentEmpty, IntentConfusion,
}

// ParseIntentKind maps a free-form label to a known intent kind. Unknown
// labels map to IntentConfusion.
func ParseIntentKind(s string) IntentKind {
	label := strings.ToUpper(strings.TrimSpace(s))
	label = strings.ReplaceAll(label, " ", "_")
	label = strings.ReplaceAll(label, "-", "_")
	for _, k := range AllIntents {
		if string(k) == label {
			return k
		}
	}
	return IntentConfusion
}

// Intent is the classified meaning of one user turn.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	Target     FieldKey   `json:"target,omitempty"`
	Value      string     `json:"value,omitempty"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason,omitempty"`
}

// FieldSet is a set of field keys. The zero value is an empty, read-only set.
type FieldSet map[FieldKey]bool

// Has reports whether key is in the set.
func (s FieldSet) Has(key FieldKey) bool {
	return s[key]
}

// With returns a copy of the set including key.
func (s FieldSet) With(key FieldKey) FieldSet {
	out := make(FieldSet, len(s)+1)
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	out[key] = true
	return out
}

// Without returns a copy of the set excluding key.
func (s FieldSet) Without(key FieldKey) FieldSet {
	out := make(FieldSet, len(s))
	for k, v := range s {
		if v && k != key {
			out[k] = true
		}
	}
	return out
}
