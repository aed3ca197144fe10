package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/models"
)

// playLevel answers every question of the live session, getting wrongAt wrong (-1 for none).
func playLevel(t *testing.T, env *testEnv, user models.Identity, wrongAt int) SessionView {
	t.Helper()
	ctx := context.Background()

	view, err := env.quiz.Current(user)
	require.NoError(t, err)
	for view.State != StateFinished {
		answer := answerFor(view)
		if view.Index == wrongAt {
			answer = "wrong"
		}
		_, _, err := env.quiz.Answer(ctx, user, answer)
		require.NoError(t, err)
		view, err = env.quiz.Next(ctx, user)
		require.NoError(t, err)
	}
	return view
}

func TestQuizCompletesLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 3)

	_, err := env.settings.UpdateGameRules(ctx, map[string]interface{}{"questionsPerLevel": 1})
	require.NoError(t, err)

	for level := 1; level <= 3; level++ {
		_, err := env.quiz.Start(ctx, alice, "math", "easy", level, StartOptions{})
		require.NoError(t, err)
		view := playLevel(t, env, alice, -1)
		require.NotNil(t, view.Result)
		assert.True(t, view.Result.Passed)
	}

	highest, err := env.progress.GetHighestCompletedLevel(ctx, alice, "math", "easy")
	require.NoError(t, err)
	assert.Equal(t, 3, highest)

	_, err = env.quiz.Start(ctx, alice, "math", "easy", 5, StartOptions{})
	assert.ErrorIs(t, err, ErrLevelLocked)

	rules := env.settings.GameRules(ctx)
	stats := env.buffer.GetStats()
	assert.Equal(t, 1, stats.BufferSize)
	require.NoError(t, env.buffer.Flush(ctx))
	top, err := env.boardRepo.GetTop(ctx, "math", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(3*(rules.XPPerCorrect+rules.CompletionXP)), top[0].Points)
}

func TestQuizFailedLevelDoesNotMarkProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 5)

	_, err := env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{})
	require.NoError(t, err)
	view := playLevel(t, env, alice, 3)

	require.NotNil(t, view.Result)
	assert.False(t, view.Result.Passed)
	assert.Equal(t, 4, view.Result.CorrectCount)

	highest, err := env.progress.GetHighestCompletedLevel(ctx, alice, "math", "easy")
	require.NoError(t, err)
	assert.Equal(t, 0, highest)
	assert.Equal(t, 0, env.buffer.GetStats().BufferSize)

	slot, err := env.resume.LoadResumeState(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, slot, "resume slot is cleared on completion")
}

func TestQuizResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 5)

	view, err := env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{})
	require.NoError(t, err)
	firstQuestion := view.Question.ID

	_, _, err = env.quiz.Answer(ctx, alice, answerFor(view))
	require.NoError(t, err)
	view, err = env.quiz.Next(ctx, alice)
	require.NoError(t, err)
	_, _, err = env.quiz.Answer(ctx, alice, answerFor(view))
	require.NoError(t, err)
	_, err = env.quiz.Next(ctx, alice)
	require.NoError(t, err)

	slot, err := env.resume.LoadResumeState(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, 2, slot.Index)
	assert.Equal(t, 2, slot.CorrectCount)

	// A new process or tab picks up where the user left off.
	env.sessions.Delete(alice.Key())
	view, err = env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Index)
	assert.Equal(t, 2, view.CorrectCount)
	assert.NotEqual(t, firstQuestion, view.Question.ID)

	view = playLevel(t, env, alice, -1)
	assert.True(t, view.Result.Passed)

	// Start over discards progress within the level.
	_, err = env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{})
	require.NoError(t, err)
	require.NoError(t, env.quiz.Discard(ctx, alice))
	_, err = env.quiz.Current(alice)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestQuizGuestNeverPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 5)
	before, err := env.store.ListAll(ctx)
	require.NoError(t, err)

	_, err = env.quiz.Start(ctx, guest, "math", "easy", 1, StartOptions{})
	require.NoError(t, err)
	view := playLevel(t, env, guest, -1)
	assert.True(t, view.Result.Passed)

	after, err := env.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, 0, env.buffer.GetStats().BufferSize)
}

func TestQuizTimeoutThenAdvance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 2)

	view, err := env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)

	_, view, err = env.quiz.Answer(ctx, alice, answerFor(view))
	assert.ErrorIs(t, err, ErrQuestionTimedOut)
	assert.True(t, view.TimedOut)

	view, err = env.quiz.Next(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Index)
	assert.Equal(t, StateAnswering, view.State)
}

func TestQuizDailyChallengeMustMatchLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 5)
	env.seedQuestions(t, "math", "hard", 5)
	env.seedQuestions(t, "words", "easy", 5)

	_, err := env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{DailyChallenge: true})
	assert.ErrorIs(t, err, ErrNoActiveChallenge)

	require.NoError(t, env.challenges.SaveChallenge(ctx, models.DailyChallenge{
		Date: "2024-03-01", Type: "quiz", Difficulty: "easy", XP: 100, CategoryName: "Math", Active: true,
	}))

	tests := []struct {
		name       string
		category   string
		difficulty string
		err        error
	}{
		{"other category", "words", "easy", ErrChallengeMismatch},
		{"other difficulty", "math", "hard", ErrChallengeMismatch},
		{"category name ignores case", "math", "easy", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.quiz.Start(ctx, alice, tt.category, tt.difficulty, 1, StartOptions{DailyChallenge: true})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
		})
	}

	// A mismatched session never reaches the streak.
	_, err = env.quiz.Start(ctx, alice, "words", "easy", 1, StartOptions{})
	require.NoError(t, err)
	playLevel(t, env, alice, -1)
	streak, err := env.streaks.GetStreak(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak)
}

func TestQuizDailyChallengeAdvancesStreakOnPass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedQuestions(t, "math", "easy", 5)
	require.NoError(t, env.challenges.SaveChallenge(ctx, models.DailyChallenge{
		Date: "2024-03-01", Type: "quiz", Difficulty: "easy", XP: 100, CategoryName: "math", Active: true,
	}))

	_, err := env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{DailyChallenge: true})
	require.NoError(t, err)
	playLevel(t, env, alice, 0)

	streak, err := env.streaks.GetStreak(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak, "a failed session does not advance the streak")

	_, err = env.quiz.Start(ctx, alice, "math", "easy", 1, StartOptions{DailyChallenge: true})
	require.NoError(t, err)
	playLevel(t, env, alice, -1)

	streak, err = env.streaks.GetStreak(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.True(t, streak.CompletedToday)
}
