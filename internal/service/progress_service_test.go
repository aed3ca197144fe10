package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

var (
	alice = models.Identity{UserID: "alice"}
	guest = models.Identity{GuestID: "guest-1"}
)

func TestProgressGuestIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.progress.MarkLevelCompleted(ctx, guest, "math", "easy", 3))
	highest, err := env.progress.GetHighestCompletedLevel(ctx, guest, "math", "easy")
	require.NoError(t, err)
	assert.Equal(t, 0, highest)

	docs, err := env.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProgressMonotonicity(t *testing.T) {
	orders := [][]int{
		{1, 2, 3},
		{3, 2, 1},
		{2, 7, 4, 7, 1},
	}

	for _, levels := range orders {
		env := newTestEnv(t)
		ctx := context.Background()
		want := 0
		for _, level := range levels {
			require.NoError(t, env.progress.MarkLevelCompleted(ctx, alice, "math", "easy", level))
			want = max(want, level)
		}

		highest, err := env.progress.GetHighestCompletedLevel(ctx, alice, "math", "easy")
		require.NoError(t, err)
		assert.Equal(t, want, highest, "levels %v", levels)
	}
}

func TestProgressRejectsInvalidLevel(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.progress.MarkLevelCompleted(context.Background(), alice, "math", "easy", 0), ErrInvalidLevel)
}

func TestCheckLevelAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.progress.MarkLevelCompleted(ctx, alice, "math", "easy", 3))

	tests := []struct {
		name    string
		user    models.Identity
		level   int
		wantErr error
	}{
		{"completed level", alice, 2, nil},
		{"next level", alice, 4, nil},
		{"skipping ahead", alice, 5, ErrLevelLocked},
		{"zero level", alice, 0, ErrInvalidLevel},
		{"guest any level", guest, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.progress.CheckLevelAccess(ctx, tt.user, "math", "easy", tt.level)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCanAccessLevel(t *testing.T) {
	assert.True(t, CanAccessLevel(0, 1))
	assert.False(t, CanAccessLevel(0, 2))
	assert.True(t, CanAccessLevel(3, 4))
	assert.False(t, CanAccessLevel(3, 5))
	assert.False(t, CanAccessLevel(3, 0))
}

func TestMarkLevelCompletedRetriesTransientFailures(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()

	store := &flakyStore{Store: docstore.NewMemoryStore()}
	env := newTestEnvWithStore(t, store)

	store.failures.Store(writeMaxTries - 1)
	require.NoError(t, env.progress.MarkLevelCompleted(ctx, alice, "math", "easy", 2))
	highest, err := env.progress.GetHighestCompletedLevel(ctx, alice, "math", "easy")
	require.NoError(t, err)
	assert.Equal(t, 2, highest)

	store.failures.Store(writeMaxTries)
	err = env.progress.MarkLevelCompleted(ctx, alice, "math", "easy", 3)
	assert.ErrorIs(t, err, errStoreDown)
}
