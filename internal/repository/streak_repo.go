package repository

import (
	"context"
	"fmt"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// StreakRepository handles user streak documents
type StreakRepository struct {
	store docstore.Store
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(store docstore.Store) *StreakRepository {
	return &StreakRepository{store: store}
}

// GetStreak returns the user's streak record, or nil if there is none
func (r *StreakRepository) GetStreak(ctx context.Context, userID string) (*models.StreakRecord, error) {
	doc, err := r.store.Get(ctx, streakPath(userID))
	if docstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record, err := models.ParseStreakRecord(doc.Data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStreak applies update to the stored record inside a transaction.
// update receives nil when no record exists; returning changed=false skips
// the write. The resulting record is returned.
func (r *StreakRepository) UpdateStreak(ctx context.Context, userID string, update func(current *models.StreakRecord) (next models.StreakRecord, changed bool)) (models.StreakRecord, error) {
	path := streakPath(userID)
	var result models.StreakRecord

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		var current *models.StreakRecord
		doc, err := tx.Get(ctx, path)
		switch {
		case docstore.IsNotFound(err):
		case err != nil:
			return err
		default:
			record, err := models.ParseStreakRecord(doc.Data)
			if err != nil {
				return fmt.Errorf("streak %s: %w", path, err)
			}
			current = &record
		}

		next, changed := update(current)
		result = next
		if !changed {
			return nil
		}
		return tx.Set(ctx, path, next.ToDocument())
	})
	if err != nil {
		return models.StreakRecord{}, err
	}
	return result, nil
}
