package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devang/mentor/internal/tutor"
)

type profileRepo struct {
	db *sql.DB
}

func (r *profileRepo) Save(ctx context.Context, p tutor.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (identity, name, age, grade, mastery, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET
		   name = excluded.name,
		   age = excluded.age,
		   grade = excluded.grade,
		   mastery = excluded.mastery,
		   updated_at = excluded.updated_at`,
		p.Identity, p.Name, p.Age, string(p.Grade), string(p.Mastery), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *profileRepo) Get(ctx context.Context, identity string) (*tutor.Profile, error) {
	var p tutor.Profile
	var grade, mastery string
	err := r.db.QueryRowContext(ctx,
		`SELECT identity, name, age, grade, mastery FROM profiles WHERE identity = ?`,
		identity,
	).Scan(&p.Identity, &p.Name, &p.Age, &grade, &mastery)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Grade = tutor.Grade(grade)
	p.Mastery = tutor.MasteryLevel(mastery)
	return &p, nil
}

func (r *profileRepo) Delete(ctx context.Context, identity string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
