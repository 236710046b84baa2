package dialogue

import (
	"github.com/jonathan/posting-assistant/internal/memory"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

// Transition returns the state that follows s when ev happens. It is pure:
// s is not modified, and maps shared with s are copied before they change.
// Events that make no sense in the current phase leave the state as it is,
// apart from the update time.
func Transition(s State, ev Event) State {
	if !ev.At.IsZero() {
		s.UpdatedAt = ev.At
	}

	switch ev.Kind {
	case EventUserInput:
		switch s.Phase {
		case PhaseAwaitingFirstInput:
			s.Phase = PhaseProcessingFirstInput
		case PhaseAwaitUserInput:
			s.Phase = PhaseProcessInput
		default:
			return s
		}
		s.PendingText = ev.Text
		s.Memory = s.Memory.WithTurn(memory.RoleUser, ev.Text, ev.At)

	case EventLanguageDetected:
		if s.Phase != PhaseProcessingFirstInput {
			return s
		}
		s.Language = ev.Language
		if s.Language == "" {
			s.Language = defaultLanguage
		}
		s.PendingText = ""
		s.Phase = PhaseSelectNextField

	case EventFactsLearned:
		s.Memory = s.Memory.WithFacts(ev.Facts)

	case EventSelect:
		if s.Phase != PhaseSelectNextField {
			return s
		}
		return selectNext(s)

	case EventQuestionAsked:
		if s.Phase != PhaseAskQuestion {
			return s
		}
		s.SkipModify = s.Ask == AskModify
		s.CurrentQuestion = ev.Text
		s.Ask = ""
		s.PendingText = ""
		s.Memory = s.Memory.WithTurn(memory.RoleSystem, ev.Text, ev.At)
		s.Phase = PhaseAwaitUserInput

	case EventCommitted:
		if s.Phase != PhaseProcessInput && s.Phase != PhaseChangeField {
			return s
		}
		field := ev.Field
		s.Record = ev.Record
		s.Processed = s.Processed.With(field)
		s.Deferred = s.Deferred.Without(field)
		s.Failures = withoutKey(s.Failures, field)
		s.Memory = s.Memory.WithSnapshot(field, ev.Record, ev.At)
		s = clearTurn(s)
		s.LastError = ""
		s.Phase = PhaseCommitSuccess

	case EventFailed:
		if s.Phase != PhaseProcessInput && s.Phase != PhaseChangeField {
			return s
		}
		return fail(s, ev)

	case EventModify:
		if s.Phase != PhaseProcessInput {
			return s
		}
		s.CurrentField = ev.Field
		s.ModifyTarget = ev.Field
		s.InlineValue = ev.Text
		s.Phase = PhaseChangeField

	case EventStatus:
		if s.Phase != PhaseProcessInput {
			return s
		}
		s.StatusTarget = ev.Field
		s.Phase = PhaseShowStatus

	case EventClarify, EventEmpty:
		if s.Phase != PhaseProcessInput {
			return s
		}
		s.Ask = AskRepeat
		if ev.Kind == EventClarify {
			s.Ask = AskClarify
		}
		s.Phase = PhaseAskQuestion

	case EventRefused:
		if s.Phase != PhaseProcessInput {
			return s
		}
		s.Processed = s.Processed.With(s.CurrentField)
		s.Failures = withoutKey(s.Failures, s.CurrentField)
		s = clearTurn(s)
		s.Phase = PhaseSelectNextField

	case EventContinue:
		switch s.Phase {
		case PhaseCommitSuccess:
			s.Phase = PhaseSelectNextField
		case PhaseHandleError:
			s.Ask = AskReformulate
			s.Phase = PhaseAskQuestion
		case PhaseShowStatus:
			s.StatusTarget = ""
			s.Ask = AskRepeat
			s.Phase = PhaseAskQuestion
		case PhaseChangeField:
			s.InlineValue = ""
			s.Ask = AskModify
			s.Phase = PhaseAskQuestion
		}

	case EventForceFinalize:
		if s.Terminal {
			return s
		}
		return finalize(s, true)

	case EventFinalized:
		if s.Phase != PhaseFinalize {
			return s
		}
		s.FinalMessage = ev.Text
		s.Inconsistency = ev.Reason
		s.Memory = s.Memory.WithTurn(memory.RoleSystem, ev.Text, ev.At)
	}
	return s
}

// selectNext enters field selection: the main pass first, then one more
// chance for deferred fields, then finalization.
func selectNext(s State) State {
	s.Iterations++
	if s.Iterations >= MaxIterations {
		return finalize(s, true)
	}

	if f, ok := schema.NextField(s.Record, s.Processed, s.skipped()); ok {
		return ask(s, f)
	}
	for _, f := range s.Missing() {
		if s.Deferred.Has(f) {
			s.Deferred = s.Deferred.Without(f)
			s.Failures = withoutKey(s.Failures, f)
			return ask(s, f)
		}
	}
	return finalize(s, false)
}

func ask(s State, f types.FieldKey) State {
	s.CurrentField = f
	s.Ask = AskFresh
	s.LastError = ""
	s.Phase = PhaseAskQuestion
	return s
}

// fail counts a failed answer for the current field. The third failure
// defers the field, and the MaxDeferrals-th deferral abandons it.
func fail(s State, ev Event) State {
	f := s.CurrentField
	s.LastError = ev.Reason
	if ev.Contradiction != nil {
		s.Memory = s.Memory.WithContradiction(*ev.Contradiction)
	}
	s = clearTurn(s)

	s.Failures = withCount(s.Failures, f, s.Failures[f]+1)
	if s.Failures[f] < MaxFailures {
		s.Phase = PhaseHandleError
		return s
	}

	s.Failures = withoutKey(s.Failures, f)
	s.Deferrals = withCount(s.Deferrals, f, s.Deferrals[f]+1)
	if s.Deferrals[f] >= MaxDeferrals {
		s.Abandoned = s.Abandoned.With(f)
	} else {
		s.Deferred = s.Deferred.With(f)
	}
	s.Phase = PhaseSelectNextField
	return s
}

func finalize(s State, forced bool) State {
	s = clearTurn(s)
	s.CurrentQuestion = ""
	s.Ask = ""
	s.Phase = PhaseFinalize
	s.Terminal = true
	s.Forced = forced
	s.Complete = schema.IsComplete(s.Record)
	return s
}

// clearTurn drops the per-turn modify and input markers.
func clearTurn(s State) State {
	s.PendingText = ""
	s.SkipModify = false
	s.ModifyTarget = ""
	s.InlineValue = ""
	return s
}

func withCount(in map[types.FieldKey]int, key types.FieldKey, n int) map[types.FieldKey]int {
	out := make(map[types.FieldKey]int, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	out[key] = n
	return out
}

func withoutKey(in map[types.FieldKey]int, key types.FieldKey) map[types.FieldKey]int {
	if _, ok := in[key]; !ok {
		return in
	}
	out := make(map[types.FieldKey]int, len(in))
	for k, v := range in {
		if k != key {
			out[k] = v
		}
	}
	return out
}
