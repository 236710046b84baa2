package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/posting-assistant/internal/schemas"
)

// -----------------------------------------------------------------------------
// Posting Methods
// -----------------------------------------------------------------------------

// Repository stores finalized postings.
type Repository interface {
	SavePosting(ctx context.Context, in *PostingInput) (*Posting, error)
	GetPostingBySession(ctx context.Context, sessionID string) (*Posting, error)
}

var _ Repository = (*DB)(nil)

const postingColumns = `id, session_id, language, outcome, title, missing, record, created_at, updated_at`

// SavePosting inserts the posting of a session, or replaces it when the
// session was finalized before.
func (db *DB) SavePosting(ctx context.Context, in *PostingInput) (*Posting, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid posting: %w", err)
	}

	exported := in.Record.Export()
	recordJSON, err := json.Marshal(exported)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := schemas.ValidateRecord(recordJSON); err != nil {
		return nil, fmt.Errorf("record does not match the export schema: %w", err)
	}
	missing := in.Missing
	if missing == nil {
		missing = []string{}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (id, session_id, language, outcome, title, missing, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id) DO UPDATE SET
		     language = EXCLUDED.language,
		     outcome = EXCLUDED.outcome,
		     title = EXCLUDED.title,
		     missing = EXCLUDED.missing,
		     record = EXCLUDED.record,
		     updated_at = NOW()
		 RETURNING `+postingColumns,
		uuid.New(), in.SessionID, in.Language, in.Outcome, exported.Title, missing, recordJSON,
	)
	p, err := scanPosting(row)
	if err != nil {
		return nil, fmt.Errorf("failed to save posting: %w", err)
	}
	return p, nil
}

// GetPostingBySession retrieves the posting of a session
func (db *DB) GetPostingBySession(ctx context.Context, sessionID string) (*Posting, error) {
	p, err := scanPosting(db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE session_id = $1`,
		sessionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return p, nil
}

// GetPostingByID retrieves a posting by its ID
func (db *DB) GetPostingByID(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := scanPosting(db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return p, nil
}

// ListPostings returns the most recent postings, newest first
func (db *DB) ListPostings(ctx context.Context, limit int) ([]Posting, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+postingColumns+` FROM job_postings ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	return out, nil
}

// DeletePosting removes the posting of a session
func (db *DB) DeletePosting(ctx context.Context, sessionID string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM job_postings WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete posting: %w", err)
	}
	return nil
}

func scanPosting(row pgx.Row) (*Posting, error) {
	var p Posting
	var recordJSON []byte
	err := row.Scan(&p.ID, &p.SessionID, &p.Language, &p.Outcome, &p.Title,
		&p.Missing, &recordJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recordJSON, &p.Record); err != nil {
		return nil, fmt.Errorf("failed to parse stored record: %w", err)
	}
	return &p, nil
}
