package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"quizquest/internal/logger"
	"quizquest/internal/service"
)

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.NewNop(), 418, "Teapot", "", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "Teapot", decodeError(t, recorder).Error)
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))
	recorder := httptest.NewRecorder()

	respondWithError(recorder, log, 500, ErrInternalServerError, "", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, ErrInternalServerError, entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Contains(t, fmt.Sprint(entries[0].ContextMap()["error"]), "boom")
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no session", service.ErrNoSession, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrLevelNotFound), http.StatusNotFound},
		{"no challenge", service.ErrNoActiveChallenge, http.StatusNotFound},
		{"transition", service.ErrInvalidTransition, http.StatusConflict},
		{"timed out", service.ErrQuestionTimedOut, http.StatusConflict},
		{"passed", service.ErrChapterAlreadyPassed, http.StatusConflict},
		{"flushing", service.ErrFlushInProgress, http.StatusConflict},
		{"bad score", service.ErrInvalidScore, http.StatusBadRequest},
		{"bad level", service.ErrInvalidLevel, http.StatusBadRequest},
		{"wrong challenge level", service.ErrChallengeMismatch, http.StatusBadRequest},
		{"user required", service.ErrUserRequired, http.StatusUnauthorized},
		{"locked", service.ErrLevelLocked, http.StatusForbidden},
		{"retries exhausted", &service.RetryBlockedError{Message: "No retries left"}, http.StatusConflict},
		{"cooldown", &service.RetryBlockedError{Message: "wait", MinutesRemaining: 3}, http.StatusTooManyRequests},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, logger.NewNop(), "failed", tt.err)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

func TestRespondWithServiceErrorCooldownDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, logger.NewNop(), "failed", &service.RetryBlockedError{Message: "wait", MinutesRemaining: 3})

	assert.Equal(t, "180", recorder.Header().Get("Retry-After"))
	body := decodeError(t, recorder)
	assert.Equal(t, "wait", body.Error)
	assert.Equal(t, 3, body.MinutesRemaining)
}

func TestRespondWithServiceErrorHidesInternals(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, logger.NewNop(), "failed", errors.New("pq: password authentication failed"))
	assert.Equal(t, ErrInternalServerError, decodeError(t, recorder).Error)
}
