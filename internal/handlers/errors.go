package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizquest/internal/logger"
	"quizquest/internal/service"
)

type errorResponse struct {
	Error            string `json:"error"`
	MinutesRemaining int    `json:"minutesRemaining,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			log.Error(logMsg, "status", status, "error", err)
		} else {
			log.Warn(logMsg, "status", status, "error", err)
		}
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps errors returned by the service layer to
// HTTP statuses. Unknown errors are logged and reported as 500.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	var blocked *service.RetryBlockedError
	if errors.As(err, &blocked) {
		status := http.StatusConflict
		if blocked.MinutesRemaining > 0 {
			status = http.StatusTooManyRequests
			w.Header().Set("Retry-After", strconv.Itoa(blocked.MinutesRemaining*60))
		}
		respondJSON(w, status, errorResponse{Error: blocked.Message, MinutesRemaining: blocked.MinutesRemaining})
		return
	}

	switch {
	case errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrLevelNotFound),
		errors.Is(err, service.ErrNoActiveChallenge):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrQuestionTimedOut),
		errors.Is(err, service.ErrChapterAlreadyPassed),
		errors.Is(err, service.ErrFlushInProgress):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrChallengeMismatch),
		errors.Is(err, service.ErrGuestRequired):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUserRequired):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
	case errors.Is(err, service.ErrLevelLocked):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
