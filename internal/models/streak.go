package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by streaks and daily challenges.
const DateLayout = "2006-01-02"

// StreakRecord tracks consecutive-day completions.
type StreakRecord struct {
	CurrentStreak     int       `json:"currentStreak"`
	LongestStreak     int       `json:"longestStreak"`
	LastCompletedDate string    `json:"lastCompletedDate"`
	TotalCompletions  int       `json:"totalCompletions"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (s StreakRecord) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"currentStreak":     s.CurrentStreak,
		"longestStreak":     s.LongestStreak,
		"lastCompletedDate": s.LastCompletedDate,
		"totalCompletions":  s.TotalCompletions,
		"updatedAt":         formatTime(s.UpdatedAt),
	}
}

func ParseStreakRecord(data map[string]interface{}) (StreakRecord, error) {
	r := fieldReader{data: data}
	s := StreakRecord{
		CurrentStreak:     r.integer("currentStreak"),
		LongestStreak:     r.integer("longestStreak"),
		LastCompletedDate: r.str("lastCompletedDate"),
		TotalCompletions:  r.integer("totalCompletions"),
		UpdatedAt:         r.timestamp("updatedAt"),
	}
	if r.err != nil {
		return StreakRecord{}, r.err
	}
	if s.LastCompletedDate != "" {
		if _, err := time.Parse(DateLayout, s.LastCompletedDate); err != nil {
			return StreakRecord{}, fmt.Errorf("%w: lastCompletedDate %q", ErrMalformedDocument, s.LastCompletedDate)
		}
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 || s.TotalCompletions < 0 {
		return StreakRecord{}, fmt.Errorf("%w: negative streak counters", ErrMalformedDocument)
	}
	// A longest streak below the current one cannot be right; repair it.
	if s.LongestStreak < s.CurrentStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return s, nil
}
