package handlers

import (
	"net/http"

	"quizquest/internal/logger"
)

// Handlers groups everything the router serves
type Handlers struct {
	Middleware  *Middleware
	Startup     *StartupStatus
	Quiz        *QuizHandler
	Streak      *StreakHandler
	Story       *StoryHandler
	Leaderboard *LeaderboardHandler
	Admin       *AdminHandler
	Log         *logger.Logger
}

// Routes builds the HTTP router
func (h *Handlers) Routes() http.Handler {
	m := h.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Startup.Health)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/config", h.Quiz.GetConfig)
	api.HandleFunc("GET /api/progress/{category}/{difficulty}", h.Quiz.GetProgress)
	api.HandleFunc("GET /api/overview", h.Quiz.GetOverview)

	// Quiz flow
	api.HandleFunc("POST /api/quiz/start", m.RateLimit(h.Quiz.StartQuiz))
	api.HandleFunc("GET /api/quiz/current", h.Quiz.CurrentQuiz)
	api.HandleFunc("POST /api/quiz/answer", m.RateLimit(h.Quiz.SubmitAnswer))
	api.HandleFunc("POST /api/quiz/next", m.RateLimit(h.Quiz.NextQuestion))
	api.HandleFunc("POST /api/quiz/skip", m.RateLimit(h.Quiz.SkipQuestion))
	api.HandleFunc("POST /api/quiz/discard", m.RateLimit(h.Quiz.DiscardQuiz))
	api.HandleFunc("GET /api/resume", h.Quiz.GetResume)
	api.HandleFunc("DELETE /api/resume", m.RateLimit(h.Quiz.ClearResume))

	// Streaks and daily challenge
	api.HandleFunc("GET /api/streak", h.Streak.GetStreak)
	api.HandleFunc("GET /api/daily-challenge", h.Streak.GetDailyChallenge)
	api.HandleFunc("POST /api/daily-challenge/complete", m.RateLimit(h.Streak.CompleteDailyChallenge))
	api.HandleFunc("POST /api/guest/migrate", m.RateLimit(m.RequireUser(h.Streak.MigrateGuest)))

	// Stories
	api.HandleFunc("GET /api/stories/{storyId}/chapters/{chapterId}", h.Story.GetChapterStatus)
	api.HandleFunc("POST /api/stories/{storyId}/chapters/{chapterId}/attempts", m.RateLimit(h.Story.RecordAttempt))

	// Leaderboards
	api.HandleFunc("GET /api/leaderboard/{category}", h.Leaderboard.GetLeaderboard)
	api.HandleFunc("GET /api/leaderboard/stats", h.Leaderboard.Stats)
	api.HandleFunc("POST /api/leaderboard/flush", m.RequireAdmin(h.Leaderboard.Flush))

	// Admin
	api.HandleFunc("GET /api/admin/export", m.RequireAdmin(h.Admin.ExportDatabase))
	api.HandleFunc("POST /api/admin/import", m.RequireAdmin(h.Admin.ImportDatabase))
	api.HandleFunc("PUT /api/admin/config", m.RequireAdmin(h.Admin.UpdateGameRules))
	api.HandleFunc("POST /api/admin/questions", m.RequireAdmin(h.Admin.SaveQuestion))
	api.HandleFunc("PUT /api/admin/stories/{storyId}", m.RequireAdmin(h.Admin.SaveStory))
	api.HandleFunc("PUT /api/admin/daily-challenges/{date}", m.RequireAdmin(h.Admin.SaveDailyChallenge))

	mux.Handle("/api/", h.Startup.RequireReady(m.Identify(api)))

	return Logging(h.Log)(mux)
}
