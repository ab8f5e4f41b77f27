package model

import (
	"time"
)

type Session struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	StartTime time.Time  `db:"start_time" json:"startTime"`
	EndTime   *time.Time `db:"end_time" json:"endTime,omitempty"`
	Summary   *string    `db:"summary" json:"summary,omitempty"`
}

type UpsertSessionParams struct {
	ID     string
	UserID string
}
