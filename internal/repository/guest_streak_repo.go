package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizquest/internal/models"
)

const (
	guestStreakKeyPrefix = "guest:streak:"
	// GuestStreakTTL is how long an untouched guest streak is kept.
	GuestStreakTTL       = 90 * 24 * time.Hour
	maxWatchRetries      = 5
)

// RedisGuestStreakRepository keeps guest streaks in Redis as JSON values
// with a sliding TTL.
type RedisGuestStreakRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuestStreakRepository creates a Redis-backed guest streak repository
func NewRedisGuestStreakRepository(client *redis.Client) *RedisGuestStreakRepository {
	return &RedisGuestStreakRepository{client: client, ttl: GuestStreakTTL}
}

func guestStreakKey(guestID string) string {
	return guestStreakKeyPrefix + guestID
}

// GetStreak returns the guest's streak, or nil if there is none
func (r *RedisGuestStreakRepository) GetStreak(ctx context.Context, guestID string) (*models.StreakRecord, error) {
	raw, err := r.client.Get(ctx, guestStreakKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeStreak(raw)
}

// UpdateStreak applies update under WATCH so concurrent updates of the same
// guest cannot overwrite each other.
func (r *RedisGuestStreakRepository) UpdateStreak(ctx context.Context, guestID string, update func(current *models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, error) {
	key := guestStreakKey(guestID)
	var result models.StreakRecord

	txf := func(tx *redis.Tx) error {
		var current *models.StreakRecord
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current, err = decodeStreak(raw)
			if err != nil {
				return err
			}
		}

		next, changed := update(current)
		result = next
		if !changed {
			return nil
		}
		encoded, err := json.Marshal(next.ToDocument())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return models.StreakRecord{}, err
		}
		return result, nil
	}
	return models.StreakRecord{}, fmt.Errorf("guest streak %s: too much contention", guestID)
}

// DeleteStreak removes the guest's streak
func (r *RedisGuestStreakRepository) DeleteStreak(ctx context.Context, guestID string) error {
	return r.client.Del(ctx, guestStreakKey(guestID)).Err()
}

func decodeStreak(raw []byte) (*models.StreakRecord, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedDocument, err)
	}
	record, err := models.ParseStreakRecord(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MemoryGuestStreakRepository keeps guest streaks in process memory. It is
// used when Redis is not configured.
type MemoryGuestStreakRepository struct {
	mu      sync.Mutex
	streaks map[string]models.StreakRecord
}

// NewMemoryGuestStreakRepository creates an in-memory guest streak repository
func NewMemoryGuestStreakRepository() *MemoryGuestStreakRepository {
	return &MemoryGuestStreakRepository{streaks: make(map[string]models.StreakRecord)}
}

func (r *MemoryGuestStreakRepository) GetStreak(ctx context.Context, guestID string) (*models.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.streaks[guestID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *MemoryGuestStreakRepository) UpdateStreak(ctx context.Context, guestID string, update func(current *models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current *models.StreakRecord
	if record, ok := r.streaks[guestID]; ok {
		current = &record
	}
	next, changed := update(current)
	if changed {
		r.streaks[guestID] = next
	}
	return next, nil
}

func (r *MemoryGuestStreakRepository) DeleteStreak(ctx context.Context, guestID string) error {
	r.mu.Lock()
	delete(r.streaks, guestID)
	r.mu.Unlock()
	return nil
}
