package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"quizquest/internal/models"
)

// overviewConcurrency bounds the store reads one overview runs at a time.
const overviewConcurrency = 8

// LevelKey names a category and difficulty.
type LevelKey struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// LevelSummary is the progress of one category and difficulty.
type LevelSummary struct {
	LevelKey
	HighestLevelCompleted int `json:"highestLevelCompleted"`
	NextLevel             int `json:"nextLevel"`
}

// Overview is everything a home screen needs for one identity.
type Overview struct {
	Progress []LevelSummary         `json:"progress"`
	Streak   StreakView             `json:"streak"`
	Resume   *models.ResumeState    `json:"resume,omitempty"`
	Today    *models.DailyChallenge `json:"dailyChallenge,omitempty"`
}

// OverviewService loads an overview with concurrent reads.
type OverviewService struct {
	progress   *ProgressService
	resume     *ResumeService
	streaks    *StreakService
	challenges *DailyChallengeService
}

// NewOverviewService creates a new overview service
func NewOverviewService(progress *ProgressService, resume *ResumeService, streaks *StreakService, challenges *DailyChallengeService) *OverviewService {
	return &OverviewService{progress: progress, resume: resume, streaks: streaks, challenges: challenges}
}

// Load reads progress for every key, the streak, the resume slot and
// today's challenge concurrently. The first error cancels the rest.
func (s *OverviewService) Load(ctx context.Context, user models.Identity, keys []LevelKey) (*Overview, error) {
	overview := &Overview{Progress: make([]LevelSummary, len(keys))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)

	for i, key := range keys {
		g.Go(func() error {
			highest, err := s.progress.GetHighestCompletedLevel(gctx, user, key.Category, key.Difficulty)
			if err != nil {
				return err
			}
			overview.Progress[i] = LevelSummary{LevelKey: key, HighestLevelCompleted: highest, NextLevel: highest + 1}
			return nil
		})
	}

	g.Go(func() error {
		streak, err := s.streaks.GetStreak(gctx, user)
		if err != nil {
			return err
		}
		overview.Streak = streak
		return nil
	})

	g.Go(func() error {
		slot, err := s.resume.LoadResumeState(gctx, user)
		if err != nil {
			return err
		}
		overview.Resume = slot
		return nil
	})

	g.Go(func() error {
		challenge, err := s.challenges.Today(gctx)
		if err != nil {
			return err
		}
		overview.Today = challenge
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}
