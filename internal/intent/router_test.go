package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/types"
)

func ptr[T any](v T) *T { return &v }

func classifying(res oracle.IntentResult) *oracle.Scripted {
	return &oracle.Scripted{
		ClassifyIntentFunc: func(oracle.IntentRequest) (oracle.IntentResult, error) {
			return res, nil
		},
	}
}

func TestClassify_Empty(t *testing.T) {
	o := &oracle.Scripted{}
	r := NewRouter(o, nil)

	got := r.Classify(context.Background(), Request{Text: "   \n"})
	assert.Equal(t, types.IntentEmpty, got.Kind)
	assert.Zero(t, o.CallCount("ClassifyIntent"))
}

func TestClassify_OracleFailureFallsBack(t *testing.T) {
	o := &oracle.Scripted{
		ClassifyIntentFunc: func(oracle.IntentRequest) (oracle.IntentResult, error) {
			return oracle.IntentResult{}, &oracle.UnavailableError{Op: "classify-intent", Cause: errors.New("timeout")}
		},
	}
	r := NewRouter(o, nil)

	got := r.Classify(context.Background(), Request{Text: "Développeur Go", Field: types.FieldTitle})
	assert.Equal(t, types.IntentDirectAnswer, got.Kind)
	assert.Equal(t, FallbackConfidence, got.Confidence)
}

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		intention string
		expected  types.IntentKind
	}{
		{"DIRECT_ANSWER", types.IntentDirectAnswer},
		{"show status", types.IntentShowStatus},
		{"clarification", types.IntentClarification},
		{"NO-PREFERENCE", types.IntentNoPreference},
		{"REFUSE", types.IntentRefuse},
		{"CONFUSION", types.IntentConfusion},
		{"SMALL_TALK", types.IntentConfusion},
		{"EMPTY", types.IntentDirectAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.intention, func(t *testing.T) {
			r := NewRouter(classifying(oracle.IntentResult{Intention: tt.intention, Confidence: 0.9}), nil)
			got := r.Classify(context.Background(), Request{Text: "something"})
			assert.Equal(t, tt.expected, got.Kind)
		})
	}
}

func TestClassify_UnknownIntentionHasReason(t *testing.T) {
	r := NewRouter(classifying(oracle.IntentResult{Intention: "SMALL_TALK"}), nil)
	got := r.Classify(context.Background(), Request{Text: "nice weather"})
	assert.Equal(t, types.IntentConfusion, got.Kind)
	assert.Contains(t, got.Reason, "SMALL_TALK")
}

func TestClassify_ModifyExactField(t *testing.T) {
	r := NewRouter(classifying(oracle.IntentResult{
		Intention: "MODIFY_FIELD", FieldToModify: "Title", Value: "Lead Dev", Confidence: 0.95,
	}), nil)

	got := r.Classify(context.Background(), Request{Text: "change le titre en Lead Dev"})
	assert.Equal(t, types.IntentModifyField, got.Kind)
	assert.Equal(t, types.FieldTitle, got.Target)
	assert.Equal(t, "Lead Dev", got.Value)
}

func TestClassify_ModifySkippedAfterModifyPrompt(t *testing.T) {
	r := NewRouter(classifying(oracle.IntentResult{Intention: "MODIFY_FIELD", FieldToModify: "title", Value: "x"}), nil)

	got := r.Classify(context.Background(), Request{Text: "Lead Dev", SkipModify: true})
	assert.Equal(t, types.IntentDirectAnswer, got.Kind)
	assert.Empty(t, got.Value)
}

func TestClassify_ModifySynonyms(t *testing.T) {
	freelance := types.Record{JobType: ptr(types.JobTypeFreelance), WorkMode: ptr(types.WorkModeRemote)}
	fulltime := types.Record{JobType: ptr(types.JobTypeFullTime), WorkMode: ptr(types.WorkModeOnsite)}
	parttime := types.Record{JobType: ptr(types.JobTypePartTime)}

	tests := []struct {
		name     string
		field    string
		record   types.Record
		expected types.FieldKey
	}{
		{name: "salary freelance", field: "salary", record: freelance, expected: types.FieldMinHourlyRate},
		{name: "salary fulltime", field: "rémunération", record: fulltime, expected: types.FieldMinFullTimeSalary},
		{name: "salary parttime", field: "sueldo", record: parttime, expected: types.FieldMinPartTimeSalary},
		{name: "max salary", field: "salaire maximum", record: fulltime, expected: types.FieldMaxFullTimeSalary},
		{name: "salary unknown contract", field: "salaire", record: types.Record{}, expected: types.FieldMinFullTimeSalary},
		{name: "location remote", field: "location", record: freelance, expected: types.FieldContinents},
		{name: "location onsite", field: "lieu", record: fulltime, expected: types.FieldCountry},
		{name: "country remote", field: "pays", record: freelance, expected: types.FieldCountries},
		{name: "phrase", field: "le fuseau horaire", record: freelance, expected: types.FieldTimeZone},
		{name: "alias", field: "work_mode", record: freelance, expected: types.FieldWorkMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := classifying(oracle.IntentResult{Intention: "MODIFY_FIELD", FieldToModify: tt.field})
			r := NewRouter(o, nil)
			got := r.Classify(context.Background(), Request{Text: "modifier", Record: tt.record})
			require.Equal(t, types.IntentModifyField, got.Kind)
			assert.Equal(t, tt.expected, got.Target)
			assert.Zero(t, o.CallCount("ResolveField"))
		})
	}
}

func TestClassify_ModifyOracleResolution(t *testing.T) {
	o := classifying(oracle.IntentResult{Intention: "MODIFY_FIELD", FieldToModify: "that other thing"})
	var asked oracle.ResolveRequest
	o.ResolveFieldFunc = func(req oracle.ResolveRequest) (string, error) {
		asked = req
		return "weeklyHours", nil
	}
	r := NewRouter(o, nil)

	got := r.Classify(context.Background(), Request{Text: "change that other thing"})
	assert.Equal(t, types.FieldWeeklyHours, got.Target)
	assert.Equal(t, types.AllFields, asked.Fields)
}

func TestClassify_ModifyUnresolvedIsConfusion(t *testing.T) {
	o := classifying(oracle.IntentResult{Intention: "MODIFY_FIELD", FieldToModify: "the vibe", Confidence: 0.7})
	o.ResolveFieldFunc = func(oracle.ResolveRequest) (string, error) {
		// Not a verbatim key.
		return "Vibe", nil
	}
	r := NewRouter(o, nil)

	got := r.Classify(context.Background(), Request{Text: "change the vibe"})
	assert.Equal(t, types.IntentConfusion, got.Kind)
	assert.Contains(t, got.Reason, "the vibe")
}

func TestResolve_AmbiguousError(t *testing.T) {
	o := &oracle.Scripted{
		ResolveFieldFunc: func(oracle.ResolveRequest) (string, error) {
			return "", &oracle.ExtractionFailure{Op: "resolve-field", Message: "malformed"}
		},
	}
	r := NewRouter(o, nil)

	_, err := r.Resolve(context.Background(), "blorp", types.Record{})
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "blorp", amb.Name)

	var failure *oracle.ExtractionFailure
	assert.ErrorAs(t, err, &failure)
}

func TestClassify_StatusForField(t *testing.T) {
	r := NewRouter(classifying(oracle.IntentResult{Intention: "SHOW_STATUS", FieldToModify: "compétences"}), nil)

	got := r.Classify(context.Background(), Request{Text: "montre-moi les compétences"})
	assert.Equal(t, types.IntentShowStatus, got.Kind)
	assert.Equal(t, types.FieldSkills, got.Target)
}
