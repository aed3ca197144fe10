package repository

import (
	"context"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// ResumeRepository handles the single resume slot of each user
type ResumeRepository struct {
	store docstore.Store
}

// NewResumeRepository creates a new resume repository
func NewResumeRepository(store docstore.Store) *ResumeRepository {
	return &ResumeRepository{store: store}
}

// SaveResumeState overwrites the user's resume slot
func (r *ResumeRepository) SaveResumeState(ctx context.Context, userID string, state models.ResumeState) error {
	return r.store.Set(ctx, resumePath(userID), state.ToDocument())
}

// GetResumeState returns the resume slot, or nil if it is empty
func (r *ResumeRepository) GetResumeState(ctx context.Context, userID string) (*models.ResumeState, error) {
	doc, err := r.store.Get(ctx, resumePath(userID))
	if docstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state, err := models.ParseResumeState(doc.Data)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// DeleteResumeState clears the resume slot
func (r *ResumeRepository) DeleteResumeState(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, resumePath(userID))
}
