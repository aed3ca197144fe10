package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/require"

	"quizquest/internal/docstore"
	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// reverseShuffler makes orders predictable.
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// flakyStore fails the next n transactions.
type flakyStore struct {
	docstore.Store
	failures atomic.Int32
}

func (s *flakyStore) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	if s.failures.Load() > 0 {
		s.failures.Add(-1)
		return errStoreDown
	}
	return s.Store.RunTransaction(ctx, fn)
}

func fastRetries(t *testing.T) {
	t.Helper()
	previous := newWriteBackOff
	newWriteBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	t.Cleanup(func() { newWriteBackOff = previous })
}

type testEnv struct {
	store      docstore.Store
	clock      *fixedClock
	questions  *repository.QuestionRepository
	challenges *repository.ChallengeRepository
	storyRepo  *repository.StoryRepository
	boardRepo  *repository.LeaderboardRepository

	settings  *SettingsService
	progress  *ProgressService
	resume    *ResumeService
	orders    *QuestionOrderService
	streaks   *StreakService
	daily     *DailyChallengeService
	buffer    *LeaderboardBuffer
	stories   *StoryService
	quiz      *QuizService
	sessions  *SessionManager
	overviews *OverviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, docstore.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, store docstore.Store) *testEnv {
	t.Helper()
	log := logger.NewNop()
	clock := newClock()

	env := &testEnv{
		store:      store,
		clock:      clock,
		questions:  repository.NewQuestionRepository(store),
		challenges: repository.NewChallengeRepository(store),
		storyRepo:  repository.NewStoryRepository(store),
		boardRepo:  repository.NewLeaderboardRepository(store),
	}

	env.settings = NewSettingsService(repository.NewSettingsRepository(store), log)
	env.settings.now = clock.Now
	env.progress = NewProgressService(repository.NewProgressRepository(store), log)
	env.progress.now = clock.Now
	env.resume = NewResumeService(repository.NewResumeRepository(store), log)
	env.resume.now = clock.Now
	env.orders = NewQuestionOrderService(repository.NewQuestionOrderRepository(store), env.questions, reverseShuffler{})
	env.orders.now = clock.Now
	env.streaks = NewStreakService(repository.NewStreakRepository(store), repository.NewMemoryGuestStreakRepository(), time.UTC, log)
	env.streaks.now = clock.Now
	env.buffer = NewLeaderboardBuffer(NewStoreSink(env.boardRepo), nil, time.Hour, log)
	env.buffer.now = clock.Now
	env.daily = NewDailyChallengeService(env.challenges, env.streaks, env.buffer, log)
	env.stories = NewStoryService(env.storyRepo, env.settings, log)
	env.stories.now = clock.Now
	env.sessions = NewSessionManager(time.Hour)
	env.quiz = NewQuizService(env.progress, env.resume, env.orders, env.settings, env.buffer, env.daily, env.sessions, log)
	env.quiz.now = clock.Now
	env.overviews = NewOverviewService(env.progress, env.resume, env.streaks, env.daily)
	return env
}

// seedQuestions stores n questions q01..qNN whose answer is "a" + index.
func (e *testEnv) seedQuestions(t *testing.T, category, difficulty string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := e.questions.SaveQuestion(context.Background(), models.Question{
			ID:         fmt.Sprintf("%s-%s-q%02d", category, difficulty, i),
			Category:   category,
			Difficulty: difficulty,
			Text:       fmt.Sprintf("Question %d", i),
			Options:    []string{fmt.Sprintf("a%d", i), "wrong"},
			Answer:     fmt.Sprintf("a%d", i),
		})
		require.NoError(t, err)
	}
}

// answerFor returns the correct answer of the question currently shown.
func answerFor(view SessionView) string {
	return view.Question.Options[0]
}
