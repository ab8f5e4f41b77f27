package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/driftline/chatrelay/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error)
	SetEndTime(ctx context.Context, id string) error
	SetSummary(ctx context.Context, id string, summary string) error
	CloseAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE id = $1`, id)
	return HandleNotFound(&session, err)
}

// Upsert implements create-or-resume: a reconnect with a known id refreshes
// start_time and clears nothing else.
func (r *sessionRepo) Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (id, user_id, start_time)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			start_time = NOW()
		RETURNING *
	`, params.ID, params.UserID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) SetEndTime(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET end_time = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *sessionRepo) SetSummary(ctx context.Context, id string, summary string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET summary = $2 WHERE id = $1
	`, id, summary)
	return err
}

// CloseAbandoned stamps end_time on sessions whose connection died without a
// clean close. It never touches sessions that already ended.
func (r *sessionRepo) CloseAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET end_time = NOW()
		WHERE end_time IS NULL AND start_time < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
