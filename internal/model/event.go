package model

import (
	"encoding/json"
	"time"
)

// EventPayload is the structured body of an event. Only Text is used today;
// the column stays jsonb so future payload fields do not need a migration.
type EventPayload struct {
	Text string `json:"text"`
}

type Event struct {
	ID        string          `db:"id" json:"id"`
	SessionID string          `db:"session_id" json:"sessionId"`
	Seq       int64           `db:"seq" json:"-"`
	Type      EventType       `db:"type" json:"type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
}

// Text decodes the payload and returns its text field. A payload that fails
// to decode yields the empty string rather than an error; the event log is
// append-only and a single malformed row must not break transcript assembly.
func (e *Event) Text() string {
	var payload EventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return ""
	}
	return payload.Text
}

type AppendEventParams struct {
	SessionID string
	Type      EventType
	Payload   EventPayload
}
