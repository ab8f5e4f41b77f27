package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driftline/chatrelay/internal/model"
)

type EventRepository interface {
	Append(ctx context.Context, params model.AppendEventParams) (*model.Event, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]model.Event, error)
}

type eventRepo struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepo{db: db}
}

// Append inserts one immutable event. The log is append-only; there is no
// update or delete path on this repository.
func (r *eventRepo) Append(ctx context.Context, params model.AppendEventParams) (*model.Event, error) {
	payload, err := json.Marshal(params.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	var event model.Event
	err = r.db.GetContext(ctx, &event, `
		INSERT INTO events (id, session_id, type, payload, timestamp)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING *
	`, uuid.NewString(), params.SessionID, params.Type, payload)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindBySessionID returns the full event history in insertion order. The seq
// tiebreak keeps retrieval order stable for events sharing a timestamp.
func (r *eventRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Event, error) {
	var events []model.Event
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM events
		WHERE session_id = $1
		ORDER BY timestamp ASC, seq ASC
	`, sessionID)
	return events, err
}
