package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizquest/internal/config"
	"quizquest/internal/logger"
	"quizquest/internal/repository"
)

const gameRulesCacheTTL = 30 * time.Second

// SettingsService resolves the effective game rules: built-in defaults
// overlaid with the stored overrides document.
type SettingsService struct {
	repo     *repository.SettingsRepository
	log      *logger.Logger
	defaults config.GameRules
	now      func() time.Time

	mu       sync.Mutex
	cached   config.GameRules
	cachedAt time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo *repository.SettingsRepository, log *logger.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		log:      log,
		defaults: config.DefaultGameRules(),
		now:      time.Now,
	}
}

// GameRules returns the effective rules. Store errors and invalid overrides
// fall back to the defaults.
func (s *SettingsService) GameRules(ctx context.Context) config.GameRules {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cachedAt.IsZero() && s.now().Sub(s.cachedAt) < gameRulesCacheTTL {
		return s.cached
	}

	rules := s.defaults
	overrides, err := s.repo.GetGameRuleOverrides(ctx)
	if err != nil {
		s.log.Warn("Failed to load game rule overrides, using defaults", "error", err)
		return rules
	}

	merged, err := config.MergeGameRules(s.defaults, overrides)
	if err != nil {
		s.log.Warn("Invalid game rule overrides, using defaults", "error", err)
	}
	rules = merged

	s.cached = rules
	s.cachedAt = s.now()
	return rules
}

// UpdateGameRules validates and stores overrides, returning the new effective rules.
func (s *SettingsService) UpdateGameRules(ctx context.Context, overrides map[string]interface{}) (config.GameRules, error) {
	current, err := s.repo.GetGameRuleOverrides(ctx)
	if err != nil {
		return config.GameRules{}, err
	}
	combined := make(map[string]interface{}, len(current)+len(overrides))
	for k, v := range current {
		combined[k] = v
	}
	for k, v := range overrides {
		combined[k] = v
	}

	rules, err := config.MergeGameRules(s.defaults, combined)
	if err != nil {
		return config.GameRules{}, fmt.Errorf("update game rules: %w", err)
	}
	if err := s.repo.SetGameRuleOverrides(ctx, overrides); err != nil {
		return config.GameRules{}, err
	}

	s.mu.Lock()
	s.cached = rules
	s.cachedAt = s.now()
	s.mu.Unlock()
	return rules, nil
}
