package repository

import (
	"context"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// ChallengeRepository handles daily challenge documents
type ChallengeRepository struct {
	store docstore.Store
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(store docstore.Store) *ChallengeRepository {
	return &ChallengeRepository{store: store}
}

// GetChallenge returns the challenge for a date (YYYY-MM-DD), or nil if none is published
func (r *ChallengeRepository) GetChallenge(ctx context.Context, date string) (*models.DailyChallenge, error) {
	doc, err := r.store.Get(ctx, challengePath(date))
	if docstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	challenge, err := models.ParseDailyChallenge(date, doc.Data)
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// SaveChallenge publishes or replaces the challenge for its date
func (r *ChallengeRepository) SaveChallenge(ctx context.Context, challenge models.DailyChallenge) error {
	return r.store.Set(ctx, challengePath(challenge.Date), challenge.ToDocument())
}
