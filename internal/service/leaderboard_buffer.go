package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"quizquest/internal/logger"
)

// PointDeltas maps category -> user id -> points.
type PointDeltas map[string]map[string]int64

// PointsSink durably commits point deltas. Commit must be all-or-nothing.
type PointsSink interface {
	Commit(ctx context.Context, deltas PointDeltas) error
}

// PointsMirror receives deltas after they were committed. Mirror failures
// never affect the buffer.
type PointsMirror interface {
	Apply(ctx context.Context, deltas PointDeltas) error
}

type bufferKey struct {
	userID   string
	category string
}

type bufferEntry struct {
	points    int64
	touchedAt time.Time
}

// BufferStats describes the buffer for monitoring.
type BufferStats struct {
	BufferSize     int       `json:"bufferSize"`
	TotalFlushes   int64     `json:"totalFlushes"`
	FailedFlushes  int64     `json:"failedFlushes"`
	SkippedFlushes int64     `json:"skippedFlushes"`
	LastFlushAt    time.Time `json:"lastFlushAt"`
	IsFlushing     bool      `json:"isFlushing"`
}

// LeaderboardBuffer accumulates point increments in memory and periodically
// commits them in one batch. Entries are only cleared after a successful
// commit, and only by the amount that was committed.
type LeaderboardBuffer struct {
	sink     PointsSink
	mirror   PointsMirror
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[bufferKey]*bufferEntry
	stats   BufferStats

	flushing atomic.Bool

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLeaderboardBuffer creates a buffer. mirror may be nil.
func NewLeaderboardBuffer(sink PointsSink, mirror PointsMirror, interval time.Duration, log *logger.Logger) *LeaderboardBuffer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &LeaderboardBuffer{
		sink:     sink,
		mirror:   mirror,
		interval: interval,
		log:      log,
		now:      time.Now,
		entries:  make(map[bufferKey]*bufferEntry),
	}
}

// AddPoints buffers an increment. It does no I/O.
func (b *LeaderboardBuffer) AddPoints(userID string, points int64, category string) {
	if userID == "" || category == "" || points == 0 {
		return
	}
	key := bufferKey{userID: userID, category: category}

	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries[key]
	if !ok {
		entry = &bufferEntry{}
		b.entries[key] = entry
	}
	entry.points += points
	entry.touchedAt = b.now()
}

// Flush commits everything buffered so far. A flush that starts while
// another is running is skipped and returns ErrFlushInProgress.
func (b *LeaderboardBuffer) Flush(ctx context.Context) error {
	if !b.flushing.CompareAndSwap(false, true) {
		b.mu.Lock()
		b.stats.SkippedFlushes++
		b.mu.Unlock()
		return ErrFlushInProgress
	}
	defer b.flushing.Store(false)

	snapshot := b.snapshot()
	if len(snapshot) == 0 {
		return nil
	}

	deltas := make(PointDeltas)
	for key, points := range snapshot {
		users, ok := deltas[key.category]
		if !ok {
			users = make(map[string]int64)
			deltas[key.category] = users
		}
		users[key.userID] = points
	}

	if err := b.sink.Commit(ctx, deltas); err != nil {
		b.mu.Lock()
		b.stats.FailedFlushes++
		b.mu.Unlock()
		b.log.Warn("Leaderboard flush failed, keeping buffer", "entries", len(snapshot), "error", err)
		return err
	}

	b.mu.Lock()
	for key, committed := range snapshot {
		entry, ok := b.entries[key]
		if !ok {
			continue
		}
		entry.points -= committed
		if entry.points == 0 {
			delete(b.entries, key)
		}
	}
	b.stats.TotalFlushes++
	b.stats.LastFlushAt = b.now()
	b.mu.Unlock()

	b.log.Debug("Leaderboard flushed", "entries", len(snapshot), "categories", len(deltas))

	if b.mirror != nil {
		if err := b.mirror.Apply(ctx, deltas); err != nil {
			b.log.Warn("Leaderboard mirror update failed", "error", err)
		}
	}
	return nil
}

func (b *LeaderboardBuffer) snapshot() map[bufferKey]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make(map[bufferKey]int64, len(b.entries))
	for key, entry := range b.entries {
		if entry.points != 0 {
			snapshot[key] = entry.points
		}
	}
	return snapshot
}

// GetStats returns current buffer statistics.
func (b *LeaderboardBuffer) GetStats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := b.stats
	stats.BufferSize = len(b.entries)
	stats.IsFlushing = b.flushing.Load()
	return stats
}

// Start runs the periodic flush until Shutdown is called or ctx ends.
// Calling Start on a running buffer does nothing.
func (b *LeaderboardBuffer) Start(ctx context.Context) {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := b.Flush(ctx)
				if err != nil && !errors.Is(err, ErrFlushInProgress) && ctx.Err() == nil {
					b.log.Debug("Periodic leaderboard flush failed", "error", err)
				}
			}
		}
	}(b.done)

	b.log.Info("Leaderboard buffer started", "interval", b.interval.String())
}

// Shutdown stops the periodic flush and performs a final flush with ctx.
func (b *LeaderboardBuffer) Shutdown(ctx context.Context) error {
	b.lifecycle.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.lifecycle.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// A manual flush may still be running; wait for it so the final flush
	// is not skipped.
	for b.flushing.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := b.Flush(ctx); err != nil {
		b.log.Error("Final leaderboard flush failed", "remaining", b.GetStats().BufferSize, "error", err)
		return err
	}
	b.log.Info("Leaderboard buffer stopped")
	return nil
}
