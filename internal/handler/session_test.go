package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/chatrelay/internal/model"
	"github.com/driftline/chatrelay/internal/service"
)

func newSessionRouter(store *memStore) chi.Router {
	sessions := service.NewSessionService(store)
	r := chi.NewRouter()
	r.Mount("/v1/sessions", NewSessionHandler(sessions, nil, time.Minute).Routes())
	return r
}

func TestSessionHandler_GetSession(t *testing.T) {
	t.Run("returns stored session", func(t *testing.T) {
		store := newMemStore()
		_, err := store.Upsert(context.Background(), model.UpsertSessionParams{ID: "s1", UserID: "u1"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(store).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var session model.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		assert.Equal(t, "s1", session.ID)
		assert.Equal(t, "u1", session.UserID)
	})

	t.Run("returns 404 for unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(newMemStore()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})
}

func TestSessionHandler_GetSummary(t *testing.T) {
	t.Run("returns stored summary", func(t *testing.T) {
		store := newMemStore()
		_, err := store.Upsert(context.Background(), model.UpsertSessionParams{ID: "s1", UserID: "u1"})
		require.NoError(t, err)
		require.NoError(t, store.SetSummary(context.Background(), "s1", "A chat about Go."))

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/summary", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(store).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			SessionID string  `json:"sessionId"`
			Summary   *string `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "s1", resp.SessionID)
		require.NotNil(t, resp.Summary)
		assert.Equal(t, "A chat about Go.", *resp.Summary)
	})

	t.Run("summary is null before summarization lands", func(t *testing.T) {
		store := newMemStore()
		_, err := store.Upsert(context.Background(), model.UpsertSessionParams{ID: "s1", UserID: "u1"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/summary", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(store).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Summary *string `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Nil(t, resp.Summary)
	})

	t.Run("returns 404 for unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing/summary", nil)
		rec := httptest.NewRecorder()
		newSessionRouter(newMemStore()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
