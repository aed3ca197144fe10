package service

import (
	"context"
	"errors"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// ResumeService manages the single in-progress quiz slot of each user.
// Guests never persist resume state.
type ResumeService struct {
	repo *repository.ResumeRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewResumeService creates a new resume service
func NewResumeService(repo *repository.ResumeRepository, log *logger.Logger) *ResumeService {
	return &ResumeService{repo: repo, log: log, now: time.Now}
}

// SaveResumeState overwrites the user's slot. Concurrent saves from two
// sessions are last-write-wins.
func (s *ResumeService) SaveResumeState(ctx context.Context, user models.Identity, state models.ResumeState) error {
	if user.IsGuest() {
		return nil
	}
	state.UpdatedAt = s.now()
	if err := s.repo.SaveResumeState(ctx, user.UserID, state); err != nil {
		s.log.Warn("Failed to save resume state", "user", user.UserID, "error", err)
		return err
	}
	return nil
}

// LoadResumeState returns the user's slot, or nil if there is none.
// An unreadable slot is treated as empty.
func (s *ResumeService) LoadResumeState(ctx context.Context, user models.Identity) (*models.ResumeState, error) {
	if user.IsGuest() {
		return nil, nil
	}
	state, err := s.repo.GetResumeState(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, models.ErrMalformedDocument) {
			s.log.Warn("Ignoring malformed resume state", "user", user.UserID, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// ClearResumeState empties the user's slot.
func (s *ResumeService) ClearResumeState(ctx context.Context, user models.Identity) error {
	if user.IsGuest() {
		return nil
	}
	if err := s.repo.DeleteResumeState(ctx, user.UserID); err != nil {
		s.log.Warn("Failed to clear resume state", "user", user.UserID, "error", err)
		return err
	}
	return nil
}
