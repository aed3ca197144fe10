package service

import (
	"fmt"
	"time"

	"quizquest/internal/models"
)

// StreakView is a streak as displayed, with the read-time clamp applied.
type StreakView struct {
	CurrentStreak     int    `json:"currentStreak"`
	LongestStreak     int    `json:"longestStreak"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
	TotalCompletions  int    `json:"totalCompletions"`
	CompletedToday    bool   `json:"completedToday"`
}

// AdvanceStreak applies a completion on today (YYYY-MM-DD) to current, which
// may be nil. It reports changed=false when today was already recorded.
func AdvanceStreak(current *models.StreakRecord, today string) (models.StreakRecord, bool, error) {
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("invalid completion date %q: %w", today, err)
	}

	if current == nil || current.LastCompletedDate == "" {
		next := models.StreakRecord{CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: today, TotalCompletions: 1}
		if current != nil {
			next.LongestStreak = max(current.LongestStreak, 1)
			next.TotalCompletions = current.TotalCompletions + 1
		}
		return next, true, nil
	}

	if current.LastCompletedDate == today {
		return *current, false, nil
	}

	next := *current
	if current.LastCompletedDate == day.AddDate(0, 0, -1).Format(models.DateLayout) {
		next.CurrentStreak = current.CurrentStreak + 1
	} else {
		next.CurrentStreak = 1
	}
	next.LongestStreak = max(current.LongestStreak, next.CurrentStreak)
	next.LastCompletedDate = today
	next.TotalCompletions = current.TotalCompletions + 1
	return next, true, nil
}

// DisplayStreak shows a stored record as of today. A streak whose last
// completion is neither today nor yesterday is shown as 0; the stored value
// is left alone.
func DisplayStreak(record *models.StreakRecord, today string) StreakView {
	if record == nil {
		return StreakView{}
	}
	view := StreakView{
		CurrentStreak:     record.CurrentStreak,
		LongestStreak:     record.LongestStreak,
		LastCompletedDate: record.LastCompletedDate,
		TotalCompletions:  record.TotalCompletions,
		CompletedToday:    record.LastCompletedDate == today,
	}

	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return view
	}
	yesterday := day.AddDate(0, 0, -1).Format(models.DateLayout)
	if record.LastCompletedDate != today && record.LastCompletedDate != yesterday {
		view.CurrentStreak = 0
	}
	return view
}

// MergeStreaks combines a guest record into a user record on sign-in.
func MergeStreaks(user, guest *models.StreakRecord) models.StreakRecord {
	switch {
	case user == nil && guest == nil:
		return models.StreakRecord{}
	case user == nil:
		return *guest
	case guest == nil:
		return *user
	}

	merged := models.StreakRecord{
		CurrentStreak:     max(user.CurrentStreak, guest.CurrentStreak),
		LongestStreak:     max(user.LongestStreak, guest.LongestStreak),
		LastCompletedDate: user.LastCompletedDate,
		TotalCompletions:  max(user.TotalCompletions, guest.TotalCompletions),
	}
	// Dates are YYYY-MM-DD, so string order is date order.
	if guest.LastCompletedDate > merged.LastCompletedDate {
		merged.LastCompletedDate = guest.LastCompletedDate
	}
	merged.LongestStreak = max(merged.LongestStreak, merged.CurrentStreak)
	return merged
}
