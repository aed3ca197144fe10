package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
	"quizquest/internal/service"
)

// AdminHandler manages content, game rules and backups
type AdminHandler struct {
	backupService   *service.BackupService
	settingsService *service.SettingsService
	questionRepo    *repository.QuestionRepository
	storyRepo       *repository.StoryRepository
	challengeRepo   *repository.ChallengeRepository
	log             *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(backupService *service.BackupService, settingsService *service.SettingsService, questionRepo *repository.QuestionRepository, storyRepo *repository.StoryRepository, challengeRepo *repository.ChallengeRepository, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		backupService:   backupService,
		settingsService: settingsService,
		questionRepo:    questionRepo,
		storyRepo:       storyRepo,
		challengeRepo:   challengeRepo,
		log:             log,
	}
}

type importResponse struct {
	Documents int  `json:"documents"`
	Cleared   bool `json:"cleared"`
}

// ExportDatabase streams a backup of every stored document
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("quizquest_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	count, err := h.backupService.ExportToWriter(r.Context(), w)
	if err != nil {
		// Headers may already be sent; the log is all we can do.
		h.log.Error("Error exporting database", "user", user.UserID, "error", err)
		return
	}

	h.log.Info("Database exported", "user", user.UserID, "documents", count)
}

// ImportDatabase restores a backup from the request body. ?clear=true
// removes documents missing from the backup.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	clearData, _ := strconv.ParseBool(r.URL.Query().Get("clear"))

	count, err := h.backupService.ImportFromReader(r.Context(), http.MaxBytesReader(w, r.Body, maxBackupBytes), clearData)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Failed to import database", "Error importing database", err)
		return
	}

	h.log.Info("Database imported", "user", user.UserID, "documents", count, "clear_data", clearData)
	respondJSON(w, http.StatusOK, importResponse{Documents: count, Cleared: clearData})
}

// UpdateGameRules stores rule overrides and returns the effective rules
func (h *AdminHandler) UpdateGameRules(w http.ResponseWriter, r *http.Request) {
	var overrides map[string]interface{}
	if err := decodeBody(w, r, &overrides, false); err != nil || len(overrides) == 0 {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid game rule overrides", err)
		return
	}

	rules, err := h.settingsService.UpdateGameRules(r.Context(), overrides)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid game rules", "", err)
		return
	}

	h.log.Info("Game rules updated", "user", GetIdentity(r.Context()).UserID)
	respondJSON(w, http.StatusOK, rules)
}

// SaveQuestion adds or replaces a question
func (h *AdminHandler) SaveQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid question", err)
		return
	}

	question := models.Question{
		ID:         req.ID,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Text:       req.Text,
		Options:    req.Options,
		Answer:     req.Answer,
	}
	if err := h.questionRepo.SaveQuestion(r.Context(), question); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error saving question", err)
		return
	}
	respondJSON(w, http.StatusCreated, question)
}

// SaveStory adds or replaces a story definition
func (h *AdminHandler) SaveStory(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r, "storyId")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid story id", "", nil)
		return
	}

	var req StoryRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid story", err)
		return
	}

	story := models.StoryDefinition{ID: segments[0], Title: req.Title}
	for _, c := range req.Chapters {
		story.Chapters = append(story.Chapters, models.ChapterDefinition{ID: c.ID, RetryPolicy: c.RetryPolicy})
	}
	if err := h.storyRepo.SaveStory(r.Context(), story); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error saving story", err)
		return
	}
	respondJSON(w, http.StatusOK, story)
}

// SaveDailyChallenge defines the challenge of the date in the path
func (h *AdminHandler) SaveDailyChallenge(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Date must be YYYY-MM-DD", "", nil)
		return
	}

	var req DailyChallengeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid daily challenge", err)
		return
	}

	challenge := models.DailyChallenge{
		Date:         date,
		Type:         req.Type,
		Difficulty:   req.Difficulty,
		XP:           req.XP,
		Coins:        req.Coins,
		CategoryName: req.CategoryName,
		TopicName:    req.TopicName,
		Active:       req.Active,
	}
	if err := h.challengeRepo.SaveChallenge(r.Context(), challenge); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error saving daily challenge", err)
		return
	}
	respondJSON(w, http.StatusOK, challenge)
}
