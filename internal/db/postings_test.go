package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Posting Tests
// =============================================================================

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
		forced   bool
		expected string
	}{
		{"complete", true, false, OutcomeComplete},
		{"incomplete", false, false, OutcomeIncomplete},
		{"forced wins", true, true, OutcomeForced},
		{"forced incomplete", false, true, OutcomeForced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutcomeOf(tt.complete, tt.forced))
		})
	}
}

func TestPosting_IsComplete(t *testing.T) {
	assert.True(t, (&Posting{Outcome: OutcomeComplete}).IsComplete())
	assert.False(t, (&Posting{Outcome: OutcomeForced}).IsComplete())
}

func TestPostingInput_Validate(t *testing.T) {
	valid := func() PostingInput {
		return PostingInput{SessionID: "s1", Language: "fr", Outcome: OutcomeIncomplete, Missing: []string{"title"}}
	}

	tests := []struct {
		name    string
		mutate  func(*PostingInput)
		wantErr bool
	}{
		{"valid", func(*PostingInput) {}, false},
		{"no missing fields", func(in *PostingInput) { in.Missing = nil }, false},
		{"three letter language", func(in *PostingInput) { in.Language = "deu" }, false},
		{"missing session", func(in *PostingInput) { in.SessionID = "" }, true},
		{"bad language", func(in *PostingInput) { in.Language = "f" }, true},
		{"unknown outcome", func(in *PostingInput) { in.Outcome = "done" }, true},
		{"inconsistent outcome", func(in *PostingInput) { in.Outcome = OutcomeInconsistent }, false},
		{"blank missing entry", func(in *PostingInput) { in.Missing = []string{""} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
