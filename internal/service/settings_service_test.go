package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/config"
	"quizquest/internal/repository"
)

func TestGameRulesDefaults(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, config.DefaultGameRules(), env.settings.GameRules(context.Background()))
}

func TestUpdateGameRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rules, err := env.settings.UpdateGameRules(ctx, map[string]interface{}{"quizPassPercent": 80})
	require.NoError(t, err)
	assert.Equal(t, 80, rules.QuizPassPercent)

	rules, err = env.settings.UpdateGameRules(ctx, map[string]interface{}{"questionsPerLevel": 10})
	require.NoError(t, err)
	assert.Equal(t, 80, rules.QuizPassPercent, "earlier overrides are kept")
	assert.Equal(t, 10, rules.QuestionsPerLevel)

	_, err = env.settings.UpdateGameRules(ctx, map[string]interface{}{"quizPassPercent": 0})
	assert.Error(t, err)
	assert.Equal(t, 80, env.settings.GameRules(ctx).QuizPassPercent)
}

func TestGameRulesCacheAndInvalidOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	repo := repository.NewSettingsRepository(env.store)

	assert.Equal(t, 100, env.settings.GameRules(ctx).QuizPassPercent)

	require.NoError(t, repo.SetGameRuleOverrides(ctx, map[string]interface{}{"quizPassPercent": 60}))
	assert.Equal(t, 100, env.settings.GameRules(ctx).QuizPassPercent, "cached")

	env.clock.Advance(31 * time.Second)
	assert.Equal(t, 60, env.settings.GameRules(ctx).QuizPassPercent)

	require.NoError(t, repo.SetGameRuleOverrides(ctx, map[string]interface{}{"themeMode": "neon"}))
	env.clock.Advance(31 * time.Second)
	assert.Equal(t, config.DefaultGameRules(), env.settings.GameRules(ctx))
}
