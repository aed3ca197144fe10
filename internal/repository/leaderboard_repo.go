package repository

import (
	"context"
	"fmt"
	"sort"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// LeaderboardRepository handles the persisted per-category point totals
type LeaderboardRepository struct {
	store docstore.Store
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(store docstore.Store) *LeaderboardRepository {
	return &LeaderboardRepository{store: store}
}

// IncrementPoints adds every delta (category -> user -> points) in a single
// transaction. Either all increments are committed or none are.
func (r *LeaderboardRepository) IncrementPoints(ctx context.Context, deltas map[string]map[string]int64) error {
	return r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		for category, users := range deltas {
			for userID, delta := range users {
				path := leaderboardPath(category, userID)

				var points int64
				doc, err := tx.Get(ctx, path)
				switch {
				case docstore.IsNotFound(err):
				case err != nil:
					return err
				default:
					points, err = pointsOf(doc.Data)
					if err != nil {
						return fmt.Errorf("leaderboard %s: %w", path, err)
					}
				}

				err = tx.Set(ctx, path, map[string]interface{}{
					"userId":   userID,
					"category": category,
					"points":   points + delta,
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetTop returns the highest totals of a category, best first. Ties are
// broken by user id.
func (r *LeaderboardRepository) GetTop(ctx context.Context, category string, limit int) ([]models.LeaderboardEntry, error) {
	docs, err := r.store.List(ctx, docstore.Join(leaderboardCollection, category, leaderboardUsers))
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(docs))
	for _, doc := range docs {
		points, err := pointsOf(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %s: %w", doc.Path, err)
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:   lastSegment(doc.Path),
			Category: category,
			Points:   points,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func pointsOf(data map[string]interface{}) (int64, error) {
	switch v := data["points"].(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: points %v", models.ErrMalformedDocument, v)
	}
}
