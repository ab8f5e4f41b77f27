package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/driftline/chatrelay/internal/errors"
	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/provider"
	"github.com/driftline/chatrelay/internal/repository"
)

// EmitFunc writes one outbound frame to the client connection.
type EmitFunc func(chunk string) error

// Relay orchestrates one conversation turn: persist the user message, select
// a persona, assemble context, dispatch the completion, pace the reply out
// in fixed-size pieces, and persist the assistant reply.
type Relay struct {
	events    repository.EventRepository
	assembler *PromptAssembler
	completer provider.Completer
	chunkSize int
	delay     time.Duration

	// sleep is swapped out in tests to avoid real pacing delays.
	sleep func(time.Duration)
}

func NewRelay(
	events repository.EventRepository,
	assembler *PromptAssembler,
	completer provider.Completer,
	chunkSize int,
	delay time.Duration,
) *Relay {
	return &Relay{
		events:    events,
		assembler: assembler,
		completer: completer,
		chunkSize: chunkSize,
		delay:     delay,
		sleep:     time.Sleep,
	}
}

// HandleTurn runs one receive/respond cycle. The only error it returns is a
// stream write failure, which the caller routes into disconnect handling;
// provider and persistence failures are absorbed per the fail-open policy.
func (r *Relay) HandleTurn(ctx context.Context, sessionID, message string, emit EmitFunc) error {
	if _, err := r.events.Append(ctx, model.AppendEventParams{
		SessionID: sessionID,
		Type:      model.EventTypeUserMessage,
		Payload:   model.EventPayload{Text: message},
	}); err != nil {
		// Fire-and-forget: a lost user event degrades context, not the turn.
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to persist user message")
	}

	persona := SelectPersona(message)
	prompt := r.assembler.BuildPrompt(ctx, sessionID, message)

	reply, err := r.completer.Complete(ctx, persona.SystemPrompt(), prompt)
	if err != nil {
		log.Error().
			Err(err).
			Str("sessionId", sessionID).
			Str("persona", string(persona)).
			Msg("completion failed, replying with error text")
		reply = fmt.Sprintf("Error generating response: %v", rootCause(err))
	}

	if err := r.emitChunks(reply, emit); err != nil {
		// Client gone mid-stream: abort remaining pieces, skip persisting
		// the partial reply, let the caller tear the session down.
		return apperrors.StreamWrite(err)
	}

	if _, err := r.events.Append(ctx, model.AppendEventParams{
		SessionID: sessionID,
		Type:      model.EventTypeAIResponse,
		Payload:   model.EventPayload{Text: reply},
	}); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to persist assistant reply")
	}

	log.Debug().
		Str("sessionId", sessionID).
		Str("persona", string(persona)).
		Int("replyLength", len(reply)).
		Msg("turn completed")

	return nil
}

// emitChunks paces the reply out as fixed-size frames. The delay between
// writes is cosmetic, not backpressure; no terminator frame is sent.
func (r *Relay) emitChunks(reply string, emit EmitFunc) error {
	for i, chunk := range ChunkText(reply, r.chunkSize) {
		if i > 0 {
			r.sleep(r.delay)
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

func rootCause(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		if cause := appErr.Unwrap(); cause != nil {
			return cause
		}
	}
	return err
}
