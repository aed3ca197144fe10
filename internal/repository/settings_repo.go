package repository

import (
	"context"

	"quizquest/internal/docstore"
)

// SettingsRepository handles stored runtime configuration documents
type SettingsRepository struct {
	store docstore.Store
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(store docstore.Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// GetGameRuleOverrides returns the raw game rule overrides; nil if none are stored
func (r *SettingsRepository) GetGameRuleOverrides(ctx context.Context) (map[string]interface{}, error) {
	doc, err := r.store.Get(ctx, gameRulesPath())
	if docstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// SetGameRuleOverrides merges the given fields into the stored overrides
func (r *SettingsRepository) SetGameRuleOverrides(ctx context.Context, overrides map[string]interface{}) error {
	return r.store.Merge(ctx, gameRulesPath(), overrides)
}
