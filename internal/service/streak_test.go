package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/docstore"
	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

func TestAdvanceStreak(t *testing.T) {
	tests := []struct {
		name        string
		current     *models.StreakRecord
		today       string
		wantCurrent int
		wantLongest int
		wantTotal   int
		wantChanged bool
	}{
		{
			name:        "first completion",
			today:       "2024-03-01",
			wantCurrent: 1, wantLongest: 1, wantTotal: 1, wantChanged: true,
		},
		{
			name:        "consecutive day",
			current:     &models.StreakRecord{CurrentStreak: 4, LongestStreak: 4, LastCompletedDate: "2024-02-29", TotalCompletions: 9},
			today:       "2024-03-01",
			wantCurrent: 5, wantLongest: 5, wantTotal: 10, wantChanged: true,
		},
		{
			name:        "same day is a no-op",
			current:     &models.StreakRecord{CurrentStreak: 4, LongestStreak: 6, LastCompletedDate: "2024-03-01", TotalCompletions: 9},
			today:       "2024-03-01",
			wantCurrent: 4, wantLongest: 6, wantTotal: 9, wantChanged: false,
		},
		{
			name:        "gap resets current",
			current:     &models.StreakRecord{CurrentStreak: 4, LongestStreak: 6, LastCompletedDate: "2024-02-28", TotalCompletions: 9},
			today:       "2024-03-01",
			wantCurrent: 1, wantLongest: 6, wantTotal: 10, wantChanged: true,
		},
		{
			name:        "year boundary",
			current:     &models.StreakRecord{CurrentStreak: 2, LongestStreak: 2, LastCompletedDate: "2023-12-31", TotalCompletions: 2},
			today:       "2024-01-01",
			wantCurrent: 3, wantLongest: 3, wantTotal: 3, wantChanged: true,
		},
		{
			name:        "record without date",
			current:     &models.StreakRecord{LongestStreak: 3, TotalCompletions: 5},
			today:       "2024-01-01",
			wantCurrent: 1, wantLongest: 3, wantTotal: 6, wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := AdvanceStreak(tt.current, tt.today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantCurrent, next.CurrentStreak)
			assert.Equal(t, tt.wantLongest, next.LongestStreak)
			assert.Equal(t, tt.wantTotal, next.TotalCompletions)
			assert.Equal(t, tt.today, next.LastCompletedDate)
			assert.GreaterOrEqual(t, next.LongestStreak, next.CurrentStreak)
		})
	}

	_, _, err := AdvanceStreak(nil, "01/03/2024")
	assert.Error(t, err)
}

func TestDisplayStreak(t *testing.T) {
	record := &models.StreakRecord{CurrentStreak: 5, LongestStreak: 7, LastCompletedDate: "2024-03-01", TotalCompletions: 12}

	assert.Equal(t, 5, DisplayStreak(record, "2024-03-01").CurrentStreak)
	assert.True(t, DisplayStreak(record, "2024-03-01").CompletedToday)
	assert.Equal(t, 5, DisplayStreak(record, "2024-03-02").CurrentStreak)
	assert.False(t, DisplayStreak(record, "2024-03-02").CompletedToday)

	stale := DisplayStreak(record, "2024-03-03")
	assert.Equal(t, 0, stale.CurrentStreak)
	assert.Equal(t, 7, stale.LongestStreak)
	assert.Equal(t, 5, record.CurrentStreak, "stored record is not modified")

	assert.Equal(t, StreakView{}, DisplayStreak(nil, "2024-03-03"))
}

func TestMergeStreaks(t *testing.T) {
	user := &models.StreakRecord{CurrentStreak: 2, LongestStreak: 9, LastCompletedDate: "2024-02-20", TotalCompletions: 20}
	guestRecord := &models.StreakRecord{CurrentStreak: 4, LongestStreak: 4, LastCompletedDate: "2024-03-01", TotalCompletions: 4}

	merged := MergeStreaks(user, guestRecord)
	assert.Equal(t, 4, merged.CurrentStreak)
	assert.Equal(t, 9, merged.LongestStreak)
	assert.Equal(t, "2024-03-01", merged.LastCompletedDate)
	assert.Equal(t, 20, merged.TotalCompletions)

	assert.Equal(t, *guestRecord, MergeStreaks(nil, guestRecord))
	assert.Equal(t, *user, MergeStreaks(user, nil))
}

func TestStreakServiceContinuity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record, changed, err := env.streaks.RecordCompletion(ctx, alice, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, record.CurrentStreak)

	_, changed, err = env.streaks.RecordCompletion(ctx, alice, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, changed)

	record, _, err = env.streaks.RecordCompletion(ctx, alice, "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 2, record.CurrentStreak)

	record, _, err = env.streaks.RecordCompletion(ctx, alice, "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 1, record.CurrentStreak)
	assert.Equal(t, 2, record.LongestStreak)
	assert.Equal(t, 3, record.TotalCompletions)
}

func TestStreakServiceGuestRequiresID(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.streaks.RecordCompletion(context.Background(), models.Identity{}, "2024-03-01")
	assert.ErrorIs(t, err, ErrGuestRequired)
}

func newRedisStreakService(t *testing.T) (*StreakService, *miniredis.Miniredis, *fixedClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := newClock()
	svc := NewStreakService(
		repository.NewStreakRepository(docstore.NewMemoryStore()),
		repository.NewRedisGuestStreakRepository(client),
		time.UTC,
		logger.NewNop(),
	)
	svc.now = clock.Now
	return svc, mr, clock
}

func TestGuestStreakInRedis(t *testing.T) {
	svc, mr, _ := newRedisStreakService(t)
	ctx := context.Background()

	_, _, err := svc.RecordCompletion(ctx, guest, "2024-02-29")
	require.NoError(t, err)
	record, _, err := svc.RecordCompletion(ctx, guest, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, record.CurrentStreak)

	assert.True(t, mr.Exists("guest:streak:guest-1"))
	assert.Equal(t, repository.GuestStreakTTL, mr.TTL("guest:streak:guest-1"))

	view, err := svc.GetStreak(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentStreak)
	assert.True(t, view.CompletedToday)
}

func TestMigrateGuestStreak(t *testing.T) {
	svc, mr, _ := newRedisStreakService(t)
	ctx := context.Background()

	for _, day := range []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"} {
		_, _, err := svc.RecordCompletion(ctx, guest, day)
		require.NoError(t, err)
	}
	_, _, err := svc.RecordCompletion(ctx, alice, "2024-02-20")
	require.NoError(t, err)

	view, err := svc.MigrateGuest(ctx, guest.GuestID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.CurrentStreak)
	assert.Equal(t, 4, view.LongestStreak)
	assert.Equal(t, "2024-03-01", view.LastCompletedDate)
	assert.False(t, mr.Exists("guest:streak:guest-1"))

	// Migrating again finds no guest record and keeps the user record.
	view, err = svc.MigrateGuest(ctx, guest.GuestID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.CurrentStreak)

	_, err = svc.MigrateGuest(ctx, "", alice.UserID)
	assert.ErrorIs(t, err, ErrGuestRequired)
	_, err = svc.MigrateGuest(ctx, guest.GuestID, "")
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestMigrateGuestWithoutAnyRecord(t *testing.T) {
	svc, _, _ := newRedisStreakService(t)

	view, err := svc.MigrateGuest(context.Background(), "nobody", "bob")
	require.NoError(t, err)
	assert.Equal(t, StreakView{}, view)
}

func TestDailyChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	challenge, err := env.daily.Today(ctx)
	require.NoError(t, err)
	assert.Nil(t, challenge)
	_, err = env.daily.Complete(ctx, alice)
	assert.ErrorIs(t, err, ErrNoActiveChallenge)

	require.NoError(t, env.challenges.SaveChallenge(ctx, models.DailyChallenge{Date: "2024-03-01", XP: 40, Active: false}))
	challenge, err = env.daily.Today(ctx)
	require.NoError(t, err)
	assert.Nil(t, challenge, "inactive challenges are hidden")

	require.NoError(t, env.challenges.SaveChallenge(ctx, models.DailyChallenge{Date: "2024-03-01", XP: 40, Active: true, TopicName: "Fractions"}))

	completion, err := env.daily.Complete(ctx, alice)
	require.NoError(t, err)
	assert.False(t, completion.AlreadyCompleted)
	assert.Equal(t, 1, completion.Streak.CurrentStreak)
	assert.Equal(t, "Fractions", completion.Challenge.TopicName)

	completion, err = env.daily.Complete(ctx, alice)
	require.NoError(t, err)
	assert.True(t, completion.AlreadyCompleted)

	require.NoError(t, env.buffer.Flush(ctx))
	top, err := env.boardRepo.GetTop(ctx, DailyChallengeCategory, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(40), top[0].Points, "points are awarded once")

	completion, err = env.daily.Complete(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, 1, completion.Streak.CurrentStreak)
}
