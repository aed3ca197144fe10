package repository

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// ProgressRepository handles level progress documents
type ProgressRepository struct {
	store docstore.Store
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(store docstore.Store) *ProgressRepository {
	return &ProgressRepository{store: store}
}

// GetProgress returns the stored progress, or a zero record if none exists
func (r *ProgressRepository) GetProgress(ctx context.Context, userID, category, difficulty string) (models.LevelProgress, error) {
	doc, err := r.store.Get(ctx, progressPath(userID, category, difficulty))
	if docstore.IsNotFound(err) {
		return models.LevelProgress{}, nil
	}
	if err != nil {
		return models.LevelProgress{}, err
	}
	return models.ParseLevelProgress(doc.Data)
}

// RaiseHighestLevel stores max(current, level) in one transaction and
// returns the resulting highest completed level. Lower levels leave the
// document untouched.
func (r *ProgressRepository) RaiseHighestLevel(ctx context.Context, userID, category, difficulty string, level int, now time.Time) (int, error) {
	path := progressPath(userID, category, difficulty)
	highest := 0

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		current := models.LevelProgress{}
		doc, err := tx.Get(ctx, path)
		switch {
		case docstore.IsNotFound(err):
		case err != nil:
			return err
		default:
			current, err = models.ParseLevelProgress(doc.Data)
			if err != nil {
				return fmt.Errorf("progress %s: %w", path, err)
			}
		}

		highest = current.HighestLevelCompleted
		if level <= highest {
			return nil
		}
		highest = level
		return tx.Set(ctx, path, models.LevelProgress{HighestLevelCompleted: level, UpdatedAt: now}.ToDocument())
	})
	if err != nil {
		return 0, err
	}
	return highest, nil
}
