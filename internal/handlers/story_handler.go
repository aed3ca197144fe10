package handlers

import (
	"net/http"

	"quizquest/internal/logger"
	"quizquest/internal/service"
)

// StoryHandler applies chapter retry policies
type StoryHandler struct {
	stories *service.StoryService
	log     *logger.Logger
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(stories *service.StoryService, log *logger.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, log: log}
}

// GetChapterStatus reports whether the caller may retry a chapter
func (h *StoryHandler) GetChapterStatus(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r, "storyId", "chapterId")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid story or chapter", "", nil)
		return
	}

	decision, err := h.stories.CanRetryChapter(r.Context(), GetIdentity(r.Context()), segments[0], segments[1])
	if err != nil {
		respondWithServiceError(w, h.log, "Error evaluating chapter retry", err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

// RecordAttempt records a graded or practice attempt
func (h *StoryHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r, "storyId", "chapterId")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid story or chapter", "", nil)
		return
	}

	var req ChapterAttemptRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "Invalid chapter attempt", err)
		return
	}

	result, err := h.stories.RecordChapterAttempt(r.Context(), GetIdentity(r.Context()),
		segments[0], segments[1], *req.Score, req.Practice)
	if err != nil {
		respondWithServiceError(w, h.log, "Error recording chapter attempt", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
