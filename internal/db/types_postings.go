package db

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/posting-assistant/internal/types"
)

// Outcome constants describe how a dialogue ended.
const (
	OutcomeComplete     = "complete"
	OutcomeIncomplete   = "incomplete"
	OutcomeForced       = "forced"
	OutcomeInconsistent = "inconsistent" // record failed cross-field checks
)

// Posting is a finalized job posting.
type Posting struct {
	ID        uuid.UUID    `json:"id"`
	SessionID string       `json:"session_id"`
	Language  string       `json:"language"`
	Outcome   string       `json:"outcome"`
	Title     *string      `json:"title,omitempty"`
	Missing   []string     `json:"missing,omitempty"`
	Record    types.Record `json:"record"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsComplete reports whether every required field was filled.
func (p *Posting) IsComplete() bool {
	return p.Outcome == OutcomeComplete
}

// PostingInput is used when saving a finalized posting
type PostingInput struct {
	SessionID string       `validate:"required"`
	Language  string       `validate:"required,min=2,max=3"`
	Outcome   string       `validate:"required,oneof=complete incomplete forced inconsistent"`
	Missing   []string     `validate:"dive,required"`
	Record    types.Record `validate:"-"`
}

var inputValidator = validator.New()

// Validate checks the input fields.
func (in *PostingInput) Validate() error {
	return inputValidator.Struct(in)
}

// OutcomeOf derives the outcome label of a finished dialogue.
func OutcomeOf(complete, forced bool) string {
	switch {
	case forced:
		return OutcomeForced
	case complete:
		return OutcomeComplete
	}
	return OutcomeIncomplete
}
