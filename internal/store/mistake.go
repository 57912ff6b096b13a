package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devang/mentor/internal/tutor"
)

type mistakeRepo struct {
	db *sql.DB
}

func (r *mistakeRepo) AppendMistake(ctx context.Context, rec MistakeRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mistakes (identity, subject, question_excerpt, analysis, knowledge_point_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Identity, string(rec.Subject), rec.QuestionExcerpt, rec.Analysis, rec.KnowledgePointID, rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append mistake: %w", err)
	}
	return nil
}

func (r *mistakeRepo) ListMistakes(ctx context.Context, identity string, limit int) ([]MistakeRecord, error) {
	query := `SELECT id, identity, subject, question_excerpt, analysis, knowledge_point_id, created_at
		  FROM mistakes WHERE identity = ? ORDER BY id DESC`
	args := []any{identity}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mistakes: %w", err)
	}
	defer rows.Close()

	var out []MistakeRecord
	for rows.Next() {
		var rec MistakeRecord
		var subject string
		if err := rows.Scan(&rec.ID, &rec.Identity, &subject, &rec.QuestionExcerpt, &rec.Analysis, &rec.KnowledgePointID, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		rec.Subject = tutor.Subject(subject)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearLearner wipes a learner's transcript, profile, and mistake book.
// Used by `mentor reset`.
func (s *Store) ClearLearner(ctx context.Context, identity string) error {
	for _, stmt := range []string{
		`DELETE FROM transcripts WHERE identity = ?`,
		`DELETE FROM mistakes WHERE identity = ?`,
		`DELETE FROM profiles WHERE identity = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt, identity); err != nil {
			return fmt.Errorf("clear learner data: %w", err)
		}
	}
	return nil
}
