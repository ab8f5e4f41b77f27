package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/driftline/chatrelay/internal/errors"
	"github.com/driftline/chatrelay/internal/model"
)

func newTestRelay(events *mockEventRepo, completer *mockCompleter) *Relay {
	relay := NewRelay(events, NewPromptAssembler(events, 10), completer, 4, 0)
	relay.sleep = func(time.Duration) {}
	return relay
}

func collectEmitter(frames *[]string) EmitFunc {
	return func(chunk string) error {
		*frames = append(*frames, chunk)
		return nil
	}
}

func TestRelay_HandleTurn(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first turn streams reply in four-char pieces", func(t *testing.T) {
		events := new(mockEventRepo)
		events.On("Append", ctx, model.AppendEventParams{
			SessionID: "s1",
			Type:      model.EventTypeUserMessage,
			Payload:   model.EventPayload{Text: "Hello"},
		}).Return(&model.Event{}, nil)
		events.On("FindBySessionID", ctx, "s1").Return([]model.Event{
			userEvent("s1", "Hello", ts),
		}, nil)
		events.On("Append", ctx, model.AppendEventParams{
			SessionID: "s1",
			Type:      model.EventTypeAIResponse,
			Payload:   model.EventPayload{Text: "Hi there!"},
		}).Return(&model.Event{}, nil)

		completer := new(mockCompleter)
		completer.On("Complete", ctx, model.PersonaDefault.SystemPrompt(), "Hello").
			Return("Hi there!", nil)

		var frames []string
		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", "Hello", collectEmitter(&frames))

		require.NoError(t, err)
		assert.Equal(t, []string{"Hi t", "here", "!"}, frames)
		assert.Equal(t, "Hi there!", strings.Join(frames, ""))
		events.AssertExpectations(t)
		completer.AssertExpectations(t)
	})

	t.Run("code keywords select the code persona", func(t *testing.T) {
		message := "Write a python function to add numbers"

		events := new(mockEventRepo)
		events.On("Append", ctx, mock.Anything).Return(&model.Event{}, nil)
		events.On("FindBySessionID", ctx, "s1").Return([]model.Event{
			userEvent("s1", message, ts),
		}, nil)

		completer := new(mockCompleter)
		completer.On("Complete", ctx, model.PersonaCode.SystemPrompt(), message).
			Return("def add(a, b): return a + b", nil)

		var frames []string
		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", message, collectEmitter(&frames))

		require.NoError(t, err)
		completer.AssertExpectations(t)
	})

	t.Run("provider failure streams and persists literal error text", func(t *testing.T) {
		events := new(mockEventRepo)
		events.On("Append", ctx, mock.MatchedBy(func(p model.AppendEventParams) bool {
			return p.Type == model.EventTypeUserMessage
		})).Return(&model.Event{}, nil)
		events.On("FindBySessionID", ctx, "s1").Return([]model.Event{
			userEvent("s1", "Hello", ts),
		}, nil)

		var persisted model.AppendEventParams
		events.On("Append", ctx, mock.MatchedBy(func(p model.AppendEventParams) bool {
			if p.Type != model.EventTypeAIResponse {
				return false
			}
			persisted = p
			return true
		})).Return(&model.Event{}, nil)

		completer := new(mockCompleter)
		completer.On("Complete", ctx, mock.Anything, mock.Anything).
			Return("", apperrors.Provider(errors.New("connection timeout")))

		var frames []string
		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", "Hello", collectEmitter(&frames))

		require.NoError(t, err)
		want := "Error generating response: connection timeout"
		assert.Equal(t, want, strings.Join(frames, ""))
		assert.Equal(t, want, persisted.Payload.Text)
	})

	t.Run("history fetch failure still produces a reply", func(t *testing.T) {
		events := new(mockEventRepo)
		events.On("Append", ctx, mock.Anything).Return(&model.Event{}, nil)
		events.On("FindBySessionID", ctx, "s1").Return(nil, errors.New("store down"))

		completer := new(mockCompleter)
		// Degraded prompt: the raw current message, no context header.
		completer.On("Complete", ctx, model.PersonaDefault.SystemPrompt(), "Hello").
			Return("Hi!", nil)

		var frames []string
		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", "Hello", collectEmitter(&frames))

		require.NoError(t, err)
		assert.Equal(t, "Hi!", strings.Join(frames, ""))
		completer.AssertExpectations(t)
	})

	t.Run("user event append failure does not drop the turn", func(t *testing.T) {
		events := new(mockEventRepo)
		events.On("Append", ctx, mock.MatchedBy(func(p model.AppendEventParams) bool {
			return p.Type == model.EventTypeUserMessage
		})).Return(nil, errors.New("insert failed"))
		events.On("FindBySessionID", ctx, "s1").Return([]model.Event{}, nil)
		events.On("Append", ctx, mock.MatchedBy(func(p model.AppendEventParams) bool {
			return p.Type == model.EventTypeAIResponse
		})).Return(&model.Event{}, nil)

		completer := new(mockCompleter)
		completer.On("Complete", ctx, mock.Anything, "Hello").Return("Hi!", nil)

		var frames []string
		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", "Hello", collectEmitter(&frames))

		require.NoError(t, err)
		assert.Equal(t, "Hi!", strings.Join(frames, ""))
	})

	t.Run("write failure aborts the stream and skips persisting the reply", func(t *testing.T) {
		events := new(mockEventRepo)
		events.On("Append", ctx, mock.MatchedBy(func(p model.AppendEventParams) bool {
			return p.Type == model.EventTypeUserMessage
		})).Return(&model.Event{}, nil)
		events.On("FindBySessionID", ctx, "s1").Return([]model.Event{
			userEvent("s1", "Hello", ts),
		}, nil)

		completer := new(mockCompleter)
		completer.On("Complete", ctx, mock.Anything, mock.Anything).
			Return("a long reply that needs several frames", nil)

		writes := 0
		emit := func(chunk string) error {
			writes++
			if writes > 2 {
				return errors.New("broken pipe")
			}
			return nil
		}

		err := newTestRelay(events, completer).HandleTurn(ctx, "s1", "Hello", emit)

		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStreamWrite))
		assert.Equal(t, 3, writes)
		// No ai_response append was registered for this mock; AssertExpectations
		// would fail if the relay tried to persist the aborted reply.
		events.AssertExpectations(t)
	})
}
