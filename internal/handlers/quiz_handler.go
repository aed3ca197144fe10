package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/service"
)

// QuizHandler serves level progress, quiz sessions and resume state
type QuizHandler struct {
	quiz     *service.QuizService
	progress *service.ProgressService
	resume   *service.ResumeService
	settings *service.SettingsService
	overview *service.OverviewService
	log      *logger.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quiz *service.QuizService, progress *service.ProgressService, resume *service.ResumeService, settings *service.SettingsService, overview *service.OverviewService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{
		quiz:     quiz,
		progress: progress,
		resume:   resume,
		settings: settings,
		overview: overview,
		log:      log,
	}
}

type answerResponse struct {
	Result  service.AnswerResult `json:"result"`
	Session service.SessionView  `json:"session"`
}

type resumeResponse struct {
	Resume *models.ResumeState `json:"resume"`
}

// levelSelectPath is where a player picks another level.
func levelSelectPath(category, difficulty string) string {
	return "/levels/" + url.PathEscape(category) + "/" + url.PathEscape(difficulty)
}

// GetConfig returns the effective game rules
func (h *QuizHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.GameRules(r.Context()))
}

// GetProgress returns the highest completed level of a category and difficulty
func (h *QuizHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r, "category", "difficulty")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid category or difficulty", "", nil)
		return
	}
	category, difficulty := segments[0], segments[1]
	highest, err := h.progress.GetHighestCompletedLevel(r.Context(), GetIdentity(r.Context()), category, difficulty)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading progress", err)
		return
	}
	respondJSON(w, http.StatusOK, service.LevelSummary{
		LevelKey:              service.LevelKey{Category: category, Difficulty: difficulty},
		HighestLevelCompleted: highest,
		NextLevel:             highest + 1,
	})
}

// StartQuiz starts or resumes a level. A locked level redirects to level select.
func (h *QuizHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	var req StartQuizRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid start request", err)
		return
	}

	identity := GetIdentity(r.Context())
	view, err := h.quiz.Start(r.Context(), identity, req.Category, req.Difficulty, req.Level, service.StartOptions{
		Resume:         req.Resume,
		DailyChallenge: req.DailyChallenge,
	})
	if errors.Is(err, service.ErrLevelLocked) {
		h.log.Info("Locked level requested", "identity", identity.Key(), "category", req.Category, "level", req.Level)
		http.Redirect(w, r, levelSelectPath(req.Category, req.Difficulty), http.StatusSeeOther)
		return
	}
	if err != nil {
		respondWithServiceError(w, h.log, "Error starting quiz", err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// CurrentQuiz returns the live session
func (h *QuizHandler) CurrentQuiz(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Current(GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading quiz", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SubmitAnswer grades the answer to the current question
func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid answer request", err)
		return
	}

	result, view, err := h.quiz.Answer(r.Context(), GetIdentity(r.Context()), strings.TrimSpace(req.Answer))
	if err != nil {
		respondWithServiceError(w, h.log, "Error submitting answer", err)
		return
	}
	respondJSON(w, http.StatusOK, answerResponse{Result: result, Session: view})
}

// NextQuestion advances after a submitted answer
func (h *QuizHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Next(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error advancing quiz", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SkipQuestion advances without answering
func (h *QuizHandler) SkipQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Skip(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error skipping question", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DiscardQuiz drops the live session and the resume slot
func (h *QuizHandler) DiscardQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.quiz.Discard(r.Context(), GetIdentity(r.Context())); err != nil {
		respondWithServiceError(w, h.log, "Error discarding quiz", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetResume returns the resume slot, or null
func (h *QuizHandler) GetResume(w http.ResponseWriter, r *http.Request) {
	slot, err := h.resume.LoadResumeState(r.Context(), GetIdentity(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading resume state", err)
		return
	}
	respondJSON(w, http.StatusOK, resumeResponse{Resume: slot})
}

// ClearResume deletes the resume slot
func (h *QuizHandler) ClearResume(w http.ResponseWriter, r *http.Request) {
	if err := h.resume.ClearResumeState(r.Context(), GetIdentity(r.Context())); err != nil {
		respondWithServiceError(w, h.log, "Error clearing resume state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOverview loads the home screen. Levels are passed as
// ?level=category:difficulty, repeated.
func (h *QuizHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	levels := r.URL.Query()["level"]
	if len(levels) > maxOverviewLevels {
		respondWithError(w, h.log, http.StatusBadRequest, "Too many levels", "", nil)
		return
	}

	var keys []service.LevelKey
	for _, raw := range levels {
		category, difficulty, ok := strings.Cut(raw, ":")
		if !ok || validate.Var(category, segmentRules) != nil || validate.Var(difficulty, segmentRules) != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "Invalid level "+raw, "", nil)
			return
		}
		keys = append(keys, service.LevelKey{Category: category, Difficulty: difficulty})
	}

	overview, err := h.overview.Load(r.Context(), GetIdentity(r.Context()), keys)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading overview", err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}
