package handlers

import (
	"net/http"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/security"
	"quizquest/internal/service"
)

// StreakHandler serves streaks and the daily challenge
type StreakHandler struct {
	streaks *service.StreakService
	daily   *service.DailyChallengeService
	log     *logger.Logger
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(streaks *service.StreakService, daily *service.DailyChallengeService, log *logger.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, daily: daily, log: log}
}

type challengeResponse struct {
	Challenge *models.DailyChallenge `json:"challenge"`
}

// GetStreak returns the displayed streak
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	view, err := h.streaks.GetStreak(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading streak", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetDailyChallenge returns today's challenge, or null
func (h *StreakHandler) GetDailyChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.daily.Today(r.Context())
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading daily challenge", err)
		return
	}
	respondJSON(w, http.StatusOK, challengeResponse{Challenge: challenge})
}

// CompleteDailyChallenge records today's challenge for the caller
func (h *StreakHandler) CompleteDailyChallenge(w http.ResponseWriter, r *http.Request) {
	completion, err := h.daily.Complete(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error completing daily challenge", err)
		return
	}
	respondJSON(w, http.StatusOK, completion)
}

// MigrateGuest merges the caller's guest streak into their account and
// drops the guest cookie.
func (h *StreakHandler) MigrateGuest(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	view, err := h.streaks.MigrateGuest(r.Context(), identity.GuestID, identity.UserID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error migrating guest streak", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.GuestCookieName))
	h.log.Info("Guest streak migrated", "user", identity.UserID, "guest", identity.GuestID)
	respondJSON(w, http.StatusOK, view)
}
