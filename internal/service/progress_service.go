package service

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// ProgressService tracks the highest completed level per category and difficulty
type ProgressService struct {
	repo *repository.ProgressRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(repo *repository.ProgressRepository, log *logger.Logger) *ProgressService {
	return &ProgressService{repo: repo, log: log, now: time.Now}
}

// GetHighestCompletedLevel returns the highest completed level, 0 for guests
// and for users without a record.
func (s *ProgressService) GetHighestCompletedLevel(ctx context.Context, user models.Identity, category, difficulty string) (int, error) {
	if user.IsGuest() {
		return 0, nil
	}
	progress, err := s.repo.GetProgress(ctx, user.UserID, category, difficulty)
	if err != nil {
		return 0, fmt.Errorf("get progress %s/%s: %w", category, difficulty, err)
	}
	return progress.HighestLevelCompleted, nil
}

// MarkLevelCompleted raises the highest completed level to level if it is
// higher. It is a no-op for guests.
func (s *ProgressService) MarkLevelCompleted(ctx context.Context, user models.Identity, category, difficulty string, level int) error {
	if user.IsGuest() {
		return nil
	}
	if level < 1 {
		return ErrInvalidLevel
	}

	highest, err := retryWrite(ctx, func() (int, error) {
		return s.repo.RaiseHighestLevel(ctx, user.UserID, category, difficulty, level, s.now())
	})
	if err != nil {
		s.log.Error("Failed to save level progress",
			"user", user.UserID, "category", category, "difficulty", difficulty, "level", level, "error", err)
		return fmt.Errorf("mark level completed: %w", err)
	}

	s.log.Debug("Level progress saved",
		"user", user.UserID, "category", category, "difficulty", difficulty, "highest", highest)
	return nil
}

// CanAccessLevel reports whether level is playable given the highest completed level.
func CanAccessLevel(highest, level int) bool {
	return level >= 1 && level <= highest+1
}

// CheckLevelAccess loads the user's progress and returns ErrLevelLocked when
// the level is out of reach. The highest completed level is returned either way.
func (s *ProgressService) CheckLevelAccess(ctx context.Context, user models.Identity, category, difficulty string, level int) (int, error) {
	if level < 1 {
		return 0, ErrInvalidLevel
	}
	highest, err := s.GetHighestCompletedLevel(ctx, user, category, difficulty)
	if err != nil {
		return 0, err
	}
	if user.IsGuest() {
		// Guests have no stored progress and may play any level.
		return highest, nil
	}
	if !CanAccessLevel(highest, level) {
		return highest, ErrLevelLocked
	}
	return highest, nil
}
