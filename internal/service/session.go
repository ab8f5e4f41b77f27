package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/driftline/chatrelay/internal/errors"
	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/repository"
)

// SessionService owns session records: create-or-resume on connect,
// finalization on disconnect, lookup for the read surface.
type SessionService struct {
	sessions repository.SessionRepository
}

func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

// Open creates or resumes the session keyed by sessionID. An existing record
// is a resume, not an error: the upsert refreshes start_time and leaves the
// rest untouched. Failure here is fatal for the connection.
func (s *SessionService) Open(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	session, err := s.sessions.Upsert(ctx, model.UpsertSessionParams{
		ID:     sessionID,
		UserID: userID,
	})
	if err != nil {
		return nil, apperrors.Connection(err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("userId", session.UserID).
		Msg("session opened")

	return session, nil
}

// Close stamps end_time. Callers treat failure as non-fatal: the session
// still leaves the active loop and teardown proceeds.
func (s *SessionService) Close(ctx context.Context, sessionID string) error {
	if err := s.sessions.SetEndTime(ctx, sessionID); err != nil {
		return apperrors.Persistence(fmt.Errorf("finalize session: %w", err))
	}

	log.Info().Str("sessionId", sessionID).Msg("session closed")
	return nil
}

// Find returns the stored session, or nil when unknown.
func (s *SessionService) Find(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return session, nil
}
