package service

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// StreakStore reads and transactionally updates streak records by key.
type StreakStore interface {
	GetStreak(ctx context.Context, id string) (*models.StreakRecord, error)
	UpdateStreak(ctx context.Context, id string, update func(current *models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, error)
}

// GuestStreakStore is a StreakStore whose records can be removed after migration.
type GuestStreakStore interface {
	StreakStore
	DeleteStreak(ctx context.Context, guestID string) error
}

// StreakService records daily completions for users and guests.
type StreakService struct {
	users  *repository.StreakRepository
	guests GuestStreakStore
	loc    *time.Location
	log    *logger.Logger
	now    func() time.Time
}

// NewStreakService creates a new streak service. Dates are calendar days in loc.
func NewStreakService(users *repository.StreakRepository, guests GuestStreakStore, loc *time.Location, log *logger.Logger) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{users: users, guests: guests, loc: loc, log: log, now: time.Now}
}

// Today returns the current date as YYYY-MM-DD.
func (s *StreakService) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

func (s *StreakService) storeFor(user models.Identity) (StreakStore, string, error) {
	if !user.IsGuest() {
		return s.users, user.UserID, nil
	}
	if user.GuestID == "" || s.guests == nil {
		return nil, "", ErrGuestRequired
	}
	return s.guests, user.GuestID, nil
}

// RecordCompletion advances the identity's streak for date. A second
// completion on the same date reports changed=false and writes nothing.
func (s *StreakService) RecordCompletion(ctx context.Context, user models.Identity, date string) (models.StreakRecord, bool, error) {
	store, id, err := s.storeFor(user)
	if err != nil {
		return models.StreakRecord{}, false, err
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("invalid completion date %q: %w", date, err)
	}

	var changed bool
	record, err := retryWrite(ctx, func() (models.StreakRecord, error) {
		return store.UpdateStreak(ctx, id, func(current *models.StreakRecord) (models.StreakRecord, bool) {
			next, ok, _ := AdvanceStreak(current, date)
			if ok {
				next.UpdatedAt = s.now()
			}
			changed = ok
			return next, ok
		})
	})
	if err != nil {
		s.log.Error("Failed to update streak", "identity", user.Key(), "date", date, "error", err)
		return models.StreakRecord{}, false, fmt.Errorf("record completion: %w", err)
	}
	return record, changed, nil
}

// GetStreak returns the identity's streak as displayed today.
func (s *StreakService) GetStreak(ctx context.Context, user models.Identity) (StreakView, error) {
	store, id, err := s.storeFor(user)
	if err != nil {
		return StreakView{}, nil
	}
	record, err := store.GetStreak(ctx, id)
	if err != nil {
		return StreakView{}, err
	}
	return DisplayStreak(record, s.Today()), nil
}

// MigrateGuest merges a guest streak into the user's record and deletes the
// guest record. A missing guest record leaves the user record unchanged.
func (s *StreakService) MigrateGuest(ctx context.Context, guestID, userID string) (StreakView, error) {
	if guestID == "" {
		return StreakView{}, ErrGuestRequired
	}
	if userID == "" {
		return StreakView{}, ErrUserRequired
	}
	if s.guests == nil {
		return StreakView{}, ErrGuestRequired
	}

	guest, err := s.guests.GetStreak(ctx, guestID)
	if err != nil {
		return StreakView{}, fmt.Errorf("load guest streak: %w", err)
	}

	record, err := retryWrite(ctx, func() (models.StreakRecord, error) {
		return s.users.UpdateStreak(ctx, userID, func(current *models.StreakRecord) (models.StreakRecord, bool) {
			if guest == nil {
				if current == nil {
					return models.StreakRecord{}, false
				}
				return *current, false
			}
			merged := MergeStreaks(current, guest)
			merged.UpdatedAt = s.now()
			return merged, true
		})
	})
	if err != nil {
		return StreakView{}, fmt.Errorf("merge guest streak: %w", err)
	}

	if guest != nil {
		if err := s.guests.DeleteStreak(ctx, guestID); err != nil {
			s.log.Warn("Failed to delete migrated guest streak", "guest", guestID, "error", err)
		}
		s.log.Info("Guest streak migrated", "guest", guestID, "user", userID, "current", record.CurrentStreak)
	}

	if guest == nil && record.LastCompletedDate == "" {
		return StreakView{}, nil
	}
	return DisplayStreak(&record, s.Today()), nil
}
