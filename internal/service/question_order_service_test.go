package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/models"
)

func questionIDs(questions []models.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func TestMaterialize(t *testing.T) {
	questions := []models.Question{
		{ID: "1", Text: "cat"},
		{ID: "2", Text: "dog"},
		{ID: "3", Text: "bird"},
	}

	tests := []struct {
		name     string
		ids      []string
		expected []string
	}{
		{
			name:     "reorder questions",
			ids:      []string{"3", "1", "2"},
			expected: []string{"3", "1", "2"},
		},
		{
			name:     "partial order",
			ids:      []string{"2", "3"},
			expected: []string{"2", "3"},
		},
		{
			name:     "deleted question dropped",
			ids:      []string{"9", "2", "1", "3"},
			expected: []string{"2", "1", "3"},
		},
		{
			name:     "empty order",
			ids:      nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, questionIDs(Materialize(tt.ids, questions)))
		})
	}
}

func TestLevelQuestions(t *testing.T) {
	var questions []models.Question
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		questions = append(questions, models.Question{ID: id})
	}

	assert.Equal(t, []string{"a", "b", "c"}, questionIDs(LevelQuestions(questions, 1, 3)))
	assert.Equal(t, []string{"d", "e", "f"}, questionIDs(LevelQuestions(questions, 2, 3)))
	assert.Equal(t, []string{"g"}, questionIDs(LevelQuestions(questions, 3, 3)))
	assert.Empty(t, LevelQuestions(questions, 4, 3))
	assert.Empty(t, LevelQuestions(questions, 0, 3))

	assert.Equal(t, 3, LevelCount(7, 3))
	assert.Equal(t, 2, LevelCount(6, 3))
	assert.Equal(t, 0, LevelCount(0, 3))
}

func TestQuestionOrderStability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orders.GetOrCreateQuestionOrder(ctx, alice, "math", "easy", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, first)

	second, err := env.orders.GetOrCreateQuestionOrder(ctx, alice, "math", "easy", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := env.orders.GetOrCreateQuestionOrder(ctx, alice, "math", "hard", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, other)
}

func TestGuestQuestionOrderIsNotPersisted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orders.GetOrCreateQuestionOrder(ctx, guest, "math", "easy", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)

	order, err = env.orders.GetOrCreateQuestionOrder(ctx, guest, "math", "easy", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)

	docs, err := env.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRandomShufflerIsPermutation(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	shuffled := RandomShuffler{}.Shuffle(ids)

	assert.ElementsMatch(t, ids, shuffled)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids, "input is not modified")
}

func TestLoadLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 7)

	level1, err := env.orders.LoadLevel(ctx, alice, "math", "easy", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"math-easy-q07", "math-easy-q06", "math-easy-q05", "math-easy-q04", "math-easy-q03",
	}, questionIDs(level1))

	level2, err := env.orders.LoadLevel(ctx, alice, "math", "easy", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"math-easy-q02", "math-easy-q01"}, questionIDs(level2))

	_, err = env.orders.LoadLevel(ctx, alice, "math", "easy", 3, 5)
	assert.ErrorIs(t, err, ErrLevelNotFound)

	_, err = env.orders.LoadLevel(ctx, alice, "history", "easy", 1, 5)
	assert.ErrorIs(t, err, ErrLevelNotFound)
}
