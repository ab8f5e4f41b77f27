package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/repository"
)

const contextHeader = "Context (Previous Conversation):\n"

// PromptAssembler builds the provider prompt from a bounded window of prior
// conversation events.
type PromptAssembler struct {
	events repository.EventRepository
	window int
}

func NewPromptAssembler(events repository.EventRepository, window int) *PromptAssembler {
	return &PromptAssembler{
		events: events,
		window: window,
	}
}

// BuildPrompt renders the context window followed by the current message.
// The current user message is already persisted when this runs, so the last
// fetched event is dropped before windowing. A history fetch failure degrades
// to the raw current message; the turn always proceeds.
func (a *PromptAssembler) BuildPrompt(ctx context.Context, sessionID, currentMessage string) string {
	history, err := a.events.FindBySessionID(ctx, sessionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", sessionID).
			Msg("history fetch failed, continuing without context")
		return currentMessage
	}

	// Drop the just-logged current message.
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	if len(history) > a.window {
		history = history[len(history)-a.window:]
	}

	var b strings.Builder
	for _, event := range history {
		role := "user"
		if event.Type == model.EventTypeAIResponse {
			role = "assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, event.Text())
	}

	if b.Len() == 0 {
		return currentMessage
	}
	return contextHeader + b.String() + "\nUser:\n" + currentMessage
}
