package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

const leaderboardKeyPrefix = "leaderboard:"

// StoreSink commits leaderboard deltas to the document store in one transaction.
type StoreSink struct {
	repo *repository.LeaderboardRepository
}

// NewStoreSink creates a sink over the leaderboard repository
func NewStoreSink(repo *repository.LeaderboardRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Commit(ctx context.Context, deltas PointDeltas) error {
	return s.repo.IncrementPoints(ctx, deltas)
}

// RedisMirror keeps a sorted set per category for fast ranking reads.
// A missing set is always rebuilt from the store totals, never started from
// increments alone.
type RedisMirror struct {
	client *redis.Client
	repo   *repository.LeaderboardRepository
}

// NewRedisMirror creates a Redis leaderboard mirror backed by the store totals in repo.
func NewRedisMirror(client *redis.Client, repo *repository.LeaderboardRepository) *RedisMirror {
	return &RedisMirror{client: client, repo: repo}
}

func leaderboardKey(category string) string {
	return leaderboardKeyPrefix + category
}

// Apply mirrors deltas that were already committed to the store. Categories
// with a sorted set get ZINCRBY in a single pipeline round-trip; a category
// without one is seeded from the store, whose totals include the deltas.
func (m *RedisMirror) Apply(ctx context.Context, deltas PointDeltas) error {
	pipe := m.client.Pipeline()
	queued := 0
	for category, users := range deltas {
		key := leaderboardKey(category)
		n, err := m.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			if err := m.seedFromStore(ctx, category); err != nil {
				return fmt.Errorf("seed leaderboard %s: %w", category, err)
			}
			continue
		}
		for userID, points := range users {
			pipe.ZIncrBy(ctx, key, float64(points), userID)
			queued++
		}
	}
	if queued == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (m *RedisMirror) seedFromStore(ctx context.Context, category string) error {
	entries, err := m.repo.GetTop(ctx, category, 0)
	if err != nil {
		return err
	}
	seeded, err := m.SeedIfMissing(ctx, category, entries)
	if err != nil || seeded {
		return err
	}
	// The set appeared while the store was read and may or may not hold
	// these deltas. Drop it so the next read rebuilds it from the store.
	return m.client.Del(ctx, leaderboardKey(category)).Err()
}

// Top returns the highest scores of a category from the sorted set.
func (m *RedisMirror) Top(ctx context.Context, category string, limit int) ([]models.LeaderboardEntry, error) {
	results, err := m.client.ZRevRangeWithScores(ctx, leaderboardKey(category), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for i, result := range results {
		userID, ok := result.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected leaderboard member %v", result.Member)
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:   userID,
			Category: category,
			Points:   int64(result.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}

// SeedIfMissing writes entries as a category's sorted set unless the set
// already exists. It reports whether the set was written.
func (m *RedisMirror) SeedIfMissing(ctx context.Context, category string, entries []models.LeaderboardEntry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	key := leaderboardKey(category)
	seeded := false
	err := m.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil || n > 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, e := range entries {
				pipe.ZAdd(ctx, key, redis.Z{Score: float64(e.Points), Member: e.UserID})
			}
			return nil
		})
		seeded = err == nil
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return seeded, err
}

// LeaderboardService reads category leaderboards.
type LeaderboardService struct {
	repo   *repository.LeaderboardRepository
	mirror *RedisMirror
	log    *logger.Logger
}

// NewLeaderboardService creates a new leaderboard service. mirror may be nil.
func NewLeaderboardService(repo *repository.LeaderboardRepository, mirror *RedisMirror, log *logger.Logger) *LeaderboardService {
	return &LeaderboardService{repo: repo, mirror: mirror, log: log}
}

// Top returns the best limit entries of a category. Redis is read first
// when configured; an empty or failing mirror falls back to the store and
// seeds the mirror unless a flush rebuilt it meanwhile.
func (s *LeaderboardService) Top(ctx context.Context, category string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.mirror != nil {
		entries, err := s.mirror.Top(ctx, category, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Warn("Leaderboard mirror read failed, using store", "category", category, "error", err)
		}
	}

	entries, err := s.repo.GetTop(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard %s: %w", category, err)
	}

	if s.mirror != nil && len(entries) > 0 {
		all, err := s.repo.GetTop(ctx, category, 0)
		if err == nil {
			_, err = s.mirror.SeedIfMissing(ctx, category, all)
		}
		if err != nil {
			s.log.Warn("Failed to seed leaderboard mirror", "category", category, "error", err)
		}
	}
	return entries, nil
}
