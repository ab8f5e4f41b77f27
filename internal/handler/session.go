package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apperrors "github.com/driftline/chatrelay/internal/errors"
	"github.com/driftline/chatrelay/internal/httputil"
	redisclient "github.com/driftline/chatrelay/internal/redis"
	"github.com/driftline/chatrelay/internal/service"
)

// SessionHandler is the companion read surface: it exposes stored sessions
// and their summaries, it takes no part in the chat path.
type SessionHandler struct {
	sessions *service.SessionService
	cache    *redisclient.Client
	cacheTTL time.Duration
}

func NewSessionHandler(sessions *service.SessionService, cache *redisclient.Client, cacheTTL time.Duration) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{sessionID}", h.GetSession)
	r.Get("/{sessionID}/summary", h.GetSummary)

	return r
}

// GET /v1/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		httputil.WriteError(w, apperrors.MissingRequired("sessionID"))
		return
	}

	session, err := h.sessions.Find(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to load session")
		httputil.WriteError(w, err)
		return
	}
	if session == nil {
		httputil.WriteError(w, apperrors.NotFound("Session"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, session)
}

type summaryResponse struct {
	SessionID string  `json:"sessionId"`
	Summary   *string `json:"summary"`
}

// GET /v1/sessions/{sessionID}/summary
//
// Cache-aside over redis: summaries are written once and read often, so a
// hit skips the store entirely. The summarizer invalidates the key when it
// writes a fresh summary.
func (h *SessionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		httputil.WriteError(w, apperrors.MissingRequired("sessionID"))
		return
	}

	ctx := r.Context()

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, redisclient.SummaryKey(sessionID)).Result()
		if err == nil {
			httputil.WriteJSON(w, http.StatusOK, summaryResponse{SessionID: sessionID, Summary: &cached})
			return
		}
		if err != goredis.Nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("summary cache read failed")
		}
	}

	session, err := h.sessions.Find(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to load session")
		httputil.WriteError(w, err)
		return
	}
	if session == nil {
		httputil.WriteError(w, apperrors.NotFound("Session"))
		return
	}

	if h.cache != nil && session.Summary != nil {
		if err := h.cache.Set(ctx, redisclient.SummaryKey(sessionID), *session.Summary, h.cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("summary cache write failed")
		}
	}

	httputil.WriteJSON(w, http.StatusOK, summaryResponse{SessionID: sessionID, Summary: session.Summary})
}
