package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/provider"
	redisclient "github.com/driftline/chatrelay/internal/redis"
	"github.com/driftline/chatrelay/internal/repository"
)

const summarizePromptPrefix = "Summarize the following conversation strictly and concisely:\n\n"

// Summarizer produces the post-session summary. It runs detached from any
// connection: every failure is logged and swallowed, nothing is retried, and
// no client ever observes the outcome.
type Summarizer struct {
	sessions  repository.SessionRepository
	events    repository.EventRepository
	completer provider.Completer
	cache     *redisclient.Client
}

func NewSummarizer(
	sessions repository.SessionRepository,
	events repository.EventRepository,
	completer provider.Completer,
	cache *redisclient.Client,
) *Summarizer {
	return &Summarizer{
		sessions:  sessions,
		events:    events,
		completer: completer,
		cache:     cache,
	}
}

// Summarize reconstructs the full transcript and writes the generated
// summary back onto the session record. A blank transcript is a no-op:
// no provider call, no write. A provider failure is fail-open like the
// chat path: the literal error text is stored as the summary.
func (s *Summarizer) Summarize(ctx context.Context, sessionID string) error {
	events, err := s.events.FindBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	transcript := Transcript(events)
	if strings.TrimSpace(transcript) == "" {
		log.Info().Str("sessionId", sessionID).Msg("empty transcript, skipping summary")
		return nil
	}

	summary, err := s.completer.Complete(ctx, model.PersonaSummarizer.SystemPrompt(), summarizePromptPrefix+transcript)
	if err != nil {
		log.Error().
			Err(err).
			Str("sessionId", sessionID).
			Msg("summary generation failed, storing error text")
		summary = fmt.Sprintf("Error generating response: %v", rootCause(err))
	}

	if err := s.sessions.SetSummary(ctx, sessionID, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, redisclient.SummaryKey(sessionID)).Err(); err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to invalidate summary cache")
		}
	}

	log.Info().
		Str("sessionId", sessionID).
		Int("summaryLength", len(summary)).
		Msg("session summarized")

	return nil
}

// Run is the detached entry point used by the task set: it absorbs every
// error after logging it.
func (s *Summarizer) Run(sessionID string) {
	if err := s.Summarize(context.Background(), sessionID); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("background summarization failed")
	}
}

// Transcript renders the full event history as alternating User/AI lines.
func Transcript(events []model.Event) string {
	var b strings.Builder
	for _, event := range events {
		switch event.Type {
		case model.EventTypeUserMessage:
			fmt.Fprintf(&b, "User: %s\n", event.Text())
		case model.EventTypeAIResponse:
			fmt.Fprintf(&b, "AI: %s\n", event.Text())
		}
	}
	return b.String()
}
