// Package dialogue drives the conversation that fills a job posting record.
//
// The machine is split in two. Transition is a pure function from a state
// and an event to the next state. Engine performs the effects (oracle calls,
// extraction, validation), turns their outcomes into events and feeds them
// to Transition until the session waits for input or is finalized.
package dialogue

import (
	"time"

	"github.com/jonathan/posting-assistant/internal/contradiction"
	"github.com/jonathan/posting-assistant/internal/memory"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

// Limits of the machine.
const (
	// MaxFailures is the number of failed answers after which a field is
	// deferred.
	MaxFailures = 3
	// MaxDeferrals is the number of deferrals after which a field is
	// abandoned for the session.
	MaxDeferrals = 2
	// MaxIterations caps entries into field selection over a session.
	MaxIterations = 100
	// maxStepsPerTurn caps machine steps inside a single turn.
	maxStepsPerTurn = 64
)

// Phase is a node of the dialogue state machine.
type Phase string

// Phases.
const (
	PhaseAwaitingFirstInput   Phase = "AWAITING_FIRST_INPUT"
	PhaseProcessingFirstInput Phase = "PROCESSING_FIRST_INPUT"
	PhaseSelectNextField      Phase = "SELECT_NEXT_FIELD"
	PhaseAskQuestion          Phase = "ASK_QUESTION"
	PhaseAwaitUserInput       Phase = "AWAIT_USER_INPUT"
	PhaseProcessInput         Phase = "PROCESS_INPUT"
	PhaseCommitSuccess        Phase = "COMMIT_SUCCESS"
	PhaseHandleError          Phase = "HANDLE_ERROR"
	PhaseShowStatus           Phase = "SHOW_STATUS"
	PhaseChangeField          Phase = "CHANGE_FIELD"
	PhaseFinalize             Phase = "FINALIZE"
)

// AskKind selects how the next question is phrased.
type AskKind string

// Question kinds.
const (
	AskFresh       AskKind = "fresh"
	AskRepeat      AskKind = "repeat"
	AskModify      AskKind = "modify"
	AskReformulate AskKind = "reformulate"
	AskClarify     AskKind = "clarify"
)

// State is the full, serializable state of one session. States are values:
// Transition never modifies the state it is given.
type State struct {
	ID    string `json:"id"`
	Phase Phase  `json:"phase"`

	CurrentField    types.FieldKey `json:"current_field,omitempty"`
	CurrentQuestion string         `json:"current_question,omitempty"`
	Ask             AskKind        `json:"ask,omitempty"`
	// ModifyTarget is the field a modify request switched to.
	ModifyTarget types.FieldKey `json:"modify_target,omitempty"`
	// InlineValue is the new value given with a modify request.
	InlineValue string `json:"inline_value,omitempty"`
	// SkipModify marks the next turn as the answer to a modify prompt.
	SkipModify bool `json:"skip_modify,omitempty"`
	// StatusTarget is the field a status request asked about, if any.
	StatusTarget types.FieldKey `json:"status_target,omitempty"`

	PendingText string `json:"pending_text,omitempty"`
	LastError   string `json:"last_error,omitempty"`

	Processed types.FieldSet         `json:"processed,omitempty"`
	Deferred  types.FieldSet         `json:"deferred,omitempty"`
	Abandoned types.FieldSet         `json:"abandoned,omitempty"`
	Failures  map[types.FieldKey]int `json:"failures,omitempty"`
	Deferrals map[types.FieldKey]int `json:"deferrals,omitempty"`

	Language   string        `json:"language,omitempty"`
	Memory     memory.Memory `json:"memory"`
	Iterations int           `json:"iterations"`

	Terminal     bool   `json:"terminal"`
	Complete     bool   `json:"complete"`
	Forced       bool   `json:"forced,omitempty"`
	FinalMessage string `json:"final_message,omitempty"`
	// Inconsistency is the record check failure found at finalization.
	Inconsistency string `json:"inconsistency,omitempty"`

	Record    types.Record `json:"record"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewState returns the state of a session that has not heard from the user.
func NewState(id string, at time.Time) State {
	return State{
		ID:        id,
		Phase:     PhaseAwaitingFirstInput,
		Language:  defaultLanguage,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Missing returns the required fields still empty.
func (s State) Missing() []types.FieldKey {
	return schema.MissingFields(s.Record)
}

// Export returns the cleaned record.
func (s State) Export() types.Record {
	return s.Record.Export()
}

// skipped returns the fields the main selection pass must not offer.
func (s State) skipped() types.FieldSet {
	out := make(types.FieldSet, len(s.Deferred)+len(s.Abandoned))
	for k, v := range s.Deferred {
		if v {
			out[k] = true
		}
	}
	for k, v := range s.Abandoned {
		if v {
			out[k] = true
		}
	}
	return out
}

// EventKind names what happened.
type EventKind string

// Events.
const (
	EventUserInput        EventKind = "user_input"
	EventLanguageDetected EventKind = "language_detected"
	EventFactsLearned     EventKind = "facts_learned"
	EventSelect           EventKind = "select"
	EventQuestionAsked    EventKind = "question_asked"
	EventCommitted        EventKind = "committed"
	EventFailed           EventKind = "failed"
	EventModify           EventKind = "modify"
	EventStatus           EventKind = "status"
	EventClarify          EventKind = "clarify"
	EventRefused          EventKind = "refused"
	EventEmpty            EventKind = "empty"
	EventContinue         EventKind = "continue"
	EventForceFinalize    EventKind = "force_finalize"
	EventFinalized        EventKind = "finalized"
)

// Event is an input to Transition. Only the members relevant to Kind are
// read.
type Event struct {
	Kind EventKind
	At   time.Time

	Text     string
	Language string
	Field    types.FieldKey
	Record   types.Record
	Facts    map[string]string
	// Reason explains a failure to the user, or names the record check
	// failure of a finalization.
	Reason        string
	Contradiction *contradiction.Contradiction
}
