package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devang/mentor/internal/chat"
)

// transcriptRepo stores each learner's transcript as a JSON turn array.
// Transcripts are session-sized and always read and written whole, so a
// single row per learner beats a row-per-turn layout here.
type transcriptRepo struct {
	db *sql.DB
}

func (r *transcriptRepo) LoadTranscript(ctx context.Context, identity string) ([]chat.Turn, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT turns FROM transcripts WHERE identity = ?`, identity,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []chat.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	var turns []chat.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return turns, nil
}

func (r *transcriptRepo) SaveTranscript(ctx context.Context, identity string, turns []chat.Turn) error {
	if turns == nil {
		turns = []chat.Turn{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transcripts (identity, turns, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET
		   turns = excluded.turns,
		   updated_at = excluded.updated_at`,
		identity, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}
