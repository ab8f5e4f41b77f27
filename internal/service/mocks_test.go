package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/driftline/chatrelay/internal/model"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) SetEndTime(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) SetSummary(ctx context.Context, id string, summary string) error {
	args := m.Called(ctx, id, summary)
	return args.Error(0)
}

func (m *mockSessionRepo) CloseAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Append(ctx context.Context, params model.AppendEventParams) (*model.Event, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *mockEventRepo) FindBySessionID(ctx context.Context, sessionID string) ([]model.Event, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// userEvent and aiEvent build history rows the way the store returns them.
func userEvent(sessionID, text string, ts time.Time) model.Event {
	return model.Event{
		SessionID: sessionID,
		Type:      model.EventTypeUserMessage,
		Payload:   mustPayload(text),
		Timestamp: ts,
	}
}

func aiEvent(sessionID, text string, ts time.Time) model.Event {
	return model.Event{
		SessionID: sessionID,
		Type:      model.EventTypeAIResponse,
		Payload:   mustPayload(text),
		Timestamp: ts,
	}
}
