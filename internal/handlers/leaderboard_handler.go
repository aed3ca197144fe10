package handlers

import (
	"net/http"
	"strconv"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/service"
)

const maxLeaderboardLimit = 100

// LeaderboardHandler serves category leaderboards and the write buffer
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	buffer      *service.LeaderboardBuffer
	log         *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, buffer *service.LeaderboardBuffer, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, buffer: buffer, log: log}
}

// GetLeaderboard returns the top entries of a category, ?limit=N (default 10)
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			respondWithError(w, h.log, http.StatusBadRequest, "limit must be between 1 and 100", "", nil)
			return
		}
		limit = n
	}

	segments, err := pathSegments(r, "category")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid category", "", nil)
		return
	}

	entries, err := h.leaderboard.Top(r.Context(), segments[0], limit)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading leaderboard", err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// Flush commits the buffer now
func (h *LeaderboardHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if err := h.buffer.Flush(r.Context()); err != nil {
		respondWithServiceError(w, h.log, "Error flushing leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, h.buffer.GetStats())
}

// Stats returns buffer statistics
func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.buffer.GetStats())
}
