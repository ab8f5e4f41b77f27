package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/driftline/chatrelay/internal/config"
	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/service"
)

const defaultUserID = "anonymous_user"

// ChatHandler owns the websocket connection lifecycle: one long-lived duplex
// connection per conversation, one strictly sequential receive/respond loop
// per connection.
type ChatHandler struct {
	sessions   *service.SessionService
	relay      *service.Relay
	summarizer *service.Summarizer
	tasks      *service.TaskSet
	upgrader   websocket.Upgrader
}

func NewChatHandler(
	sessions *service.SessionService,
	relay *service.Relay,
	summarizer *service.Summarizer,
	tasks *service.TaskSet,
) *ChatHandler {
	return &ChatHandler{
		sessions:   sessions,
		relay:      relay,
		summarizer: summarizer,
		tasks:      tasks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.WSReadBufferSize,
			WriteBufferSize: config.WSWriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/session/{sessionID}", h.Serve)
}

// Serve runs one connection from accept to teardown. The lifecycle is
// init (open or resume the record), active (receive/respond loop), closing
// (stamp end_time), then a detached summarization task; the connection
// never waits for the summary.
func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = defaultUserID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("websocket upgrade failed")
		return
	}

	ctx := r.Context()
	state := model.SessionStateInit

	if _, err := h.sessions.Open(ctx, sessionID, userID); err != nil {
		// Fatal: the connection never becomes active and nothing is
		// finalized or summarized for it.
		log.Error().
			Err(err).
			Str("sessionId", sessionID).
			Str("state", string(state)).
			Msg("failed to open session, closing connection")
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session open failed"),
			time.Now().Add(config.WSWriteTimeout),
		)
		conn.Close()
		return
	}

	state = model.SessionStateActive
	log.Info().Str("sessionId", sessionID).Str("state", string(state)).Msg("connection active")

	emit := func(chunk string) error {
		conn.SetWriteDeadline(time.Now().Add(config.WSWriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, []byte(chunk))
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().
				Err(err).
				Str("sessionId", sessionID).
				Msg("client disconnected")
			break
		}

		// Turns are strictly sequential: the next read does not happen
		// until this turn's reply is fully streamed and persisted.
		if err := h.relay.HandleTurn(ctx, sessionID, string(data), emit); err != nil {
			log.Warn().
				Err(err).
				Str("sessionId", sessionID).
				Msg("stream aborted mid-turn")
			break
		}
	}

	state = model.SessionStateClosing
	if err := h.sessions.Close(ctx, sessionID); err != nil {
		// Non-fatal: the session still leaves the active loop.
		log.Error().
			Err(err).
			Str("sessionId", sessionID).
			Str("state", string(state)).
			Msg("failed to finalize session")
	}

	state = model.SessionStateSummarizing
	log.Info().Str("sessionId", sessionID).Str("state", string(state)).Msg("spawning summarization")
	h.tasks.Go(func() {
		h.summarizer.Run(sessionID)
	})

	conn.Close()
	state = model.SessionStateClosed
	log.Info().Str("sessionId", sessionID).Str("state", string(state)).Msg("connection closed")
}
