package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// AttemptResult is the outcome of a recorded chapter attempt.
type AttemptResult struct {
	Attempt  models.ChapterAttempt `json:"attempt"`
	Passed   bool                  `json:"passed"`
	Practice bool                  `json:"practice"`
	Decision RetryDecision         `json:"decision"`
}

// StoryService applies chapter retry policies to story attempts.
type StoryService struct {
	repo     *repository.StoryRepository
	settings *SettingsService
	log      *logger.Logger
	now      func() time.Time
}

// NewStoryService creates a new story service
func NewStoryService(repo *repository.StoryRepository, settings *SettingsService, log *logger.Logger) *StoryService {
	return &StoryService{repo: repo, settings: settings, log: log, now: time.Now}
}

// ChapterPolicy returns the policy a chapter declares. Unknown stories and
// chapters use the unlimited policy.
func (s *StoryService) ChapterPolicy(ctx context.Context, storyID, chapterID string) (RetryPolicy, error) {
	story, err := s.repo.GetStory(ctx, storyID)
	if err != nil {
		return RetryPolicy{}, fmt.Errorf("load story %s: %w", storyID, err)
	}
	if story == nil {
		return PolicyFor(PolicyUnlimited), nil
	}
	chapter, ok := story.Chapter(chapterID)
	if !ok {
		return PolicyFor(PolicyUnlimited), nil
	}
	return PolicyFor(chapter.RetryPolicy), nil
}

// CanRetryChapter reports whether the user may make a graded attempt now.
// Guests are always treated as on their first attempt.
func (s *StoryService) CanRetryChapter(ctx context.Context, user models.Identity, storyID, chapterID string) (RetryDecision, error) {
	policy, err := s.ChapterPolicy(ctx, storyID, chapterID)
	if err != nil {
		return RetryDecision{}, err
	}
	if user.IsGuest() {
		return EvaluateRetry(policy, models.ChapterAttempt{ChapterID: chapterID}, s.now()), nil
	}

	progress, err := s.repo.GetProgress(ctx, user.UserID, storyID)
	if err != nil {
		return RetryDecision{}, fmt.Errorf("load story progress: %w", err)
	}
	return EvaluateRetry(policy, progress.Chapter(chapterID), s.now()), nil
}

// RecordChapterAttempt records a graded or practice attempt. A graded
// attempt the policy blocks returns *RetryBlockedError, one on a passed
// chapter returns ErrChapterAlreadyPassed. Guest attempts are evaluated but
// not stored.
func (s *StoryService) RecordChapterAttempt(ctx context.Context, user models.Identity, storyID, chapterID string, score int, practice bool) (AttemptResult, error) {
	policy, err := s.ChapterPolicy(ctx, storyID, chapterID)
	if err != nil {
		return AttemptResult{}, err
	}
	passScore := s.settings.GameRules(ctx).ChapterPassScore

	if user.IsGuest() {
		now := s.now()
		attempt, err := ApplyAttempt(policy, models.ChapterAttempt{ChapterID: chapterID}, score, passScore, practice, now)
		if err != nil {
			return AttemptResult{}, err
		}
		return s.result(policy, attempt, score, passScore, practice, now), nil
	}

	var now time.Time
	attempt, err := retryWrite(ctx, func() (models.ChapterAttempt, error) {
		return s.repo.UpdateChapter(ctx, user.UserID, storyID, chapterID, func(current models.ChapterAttempt) (models.ChapterAttempt, error) {
			now = s.now()
			return ApplyAttempt(policy, current, score, passScore, practice, now)
		})
	})
	if err != nil {
		var blocked *RetryBlockedError
		if !errors.As(err, &blocked) && !errors.Is(err, ErrChapterAlreadyPassed) && !errors.Is(err, ErrInvalidScore) {
			s.log.Error("Failed to record chapter attempt",
				"user", user.UserID, "story", storyID, "chapter", chapterID, "error", err)
		}
		return AttemptResult{}, err
	}

	s.log.Info("Chapter attempt recorded",
		"user", user.UserID, "story", storyID, "chapter", chapterID,
		"score", score, "practice", practice, "retries", attempt.Retries)
	return s.result(policy, attempt, score, passScore, practice, now), nil
}

func (s *StoryService) result(policy RetryPolicy, attempt models.ChapterAttempt, score, passScore int, practice bool, now time.Time) AttemptResult {
	return AttemptResult{
		Attempt:  attempt,
		Passed:   !practice && score >= passScore,
		Practice: practice,
		Decision: EvaluateRetry(policy, attempt, now),
	}
}
