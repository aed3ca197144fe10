package service

import (
	"context"
	"fmt"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// DailyChallengeCategory is the leaderboard category for daily challenge points.
const DailyChallengeCategory = "daily"

// ChallengeCompletion is the outcome of completing a daily challenge.
type ChallengeCompletion struct {
	Challenge        models.DailyChallenge `json:"challenge"`
	Streak           StreakView            `json:"streak"`
	AlreadyCompleted bool                  `json:"alreadyCompleted"`
}

// DailyChallengeService serves today's challenge and records completions.
type DailyChallengeService struct {
	repo    *repository.ChallengeRepository
	streaks *StreakService
	points  PointsRecorder
	log     *logger.Logger
}

// NewDailyChallengeService creates a new daily challenge service. points may be nil.
func NewDailyChallengeService(repo *repository.ChallengeRepository, streaks *StreakService, points PointsRecorder, log *logger.Logger) *DailyChallengeService {
	return &DailyChallengeService{repo: repo, streaks: streaks, points: points, log: log}
}

// Today returns today's active challenge, or nil if there is none.
func (s *DailyChallengeService) Today(ctx context.Context) (*models.DailyChallenge, error) {
	challenge, err := s.repo.GetChallenge(ctx, s.streaks.Today())
	if err != nil {
		return nil, fmt.Errorf("load daily challenge: %w", err)
	}
	if challenge == nil || !challenge.Active {
		return nil, nil
	}
	return challenge, nil
}

// Complete records today's challenge for the identity. Completing twice on
// one day reports AlreadyCompleted and awards nothing.
func (s *DailyChallengeService) Complete(ctx context.Context, user models.Identity) (*ChallengeCompletion, error) {
	challenge, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrNoActiveChallenge
	}

	record, changed, err := s.streaks.RecordCompletion(ctx, user, challenge.Date)
	if err != nil {
		return nil, err
	}

	if changed && !user.IsGuest() && s.points != nil && challenge.XP > 0 {
		s.points.AddPoints(user.UserID, int64(challenge.XP), DailyChallengeCategory)
	}
	if changed {
		s.log.Info("Daily challenge completed", "identity", user.Key(), "date", challenge.Date, "streak", record.CurrentStreak)
	}

	return &ChallengeCompletion{
		Challenge:        *challenge,
		Streak:           DisplayStreak(&record, challenge.Date),
		AlreadyCompleted: !changed,
	}, nil
}
