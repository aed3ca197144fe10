package models

import (
	"fmt"
	"time"
)

// ResumeState is the single in-progress quiz slot of a user.
type ResumeState struct {
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
	Level        int       `json:"level"`
	Index        int       `json:"index"`
	CorrectCount int       `json:"correctCount"`
	XP           int       `json:"xp"`
	Coins        int       `json:"coins"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Matches reports whether the slot belongs to the given level.
func (r ResumeState) Matches(category, difficulty string, level int) bool {
	return r.Category == category && r.Difficulty == difficulty && r.Level == level
}

func (r ResumeState) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"category":     r.Category,
		"difficulty":   r.Difficulty,
		"level":        r.Level,
		"index":        r.Index,
		"correctCount": r.CorrectCount,
		"xp":           r.XP,
		"coins":        r.Coins,
		"updatedAt":    formatTime(r.UpdatedAt),
	}
}

func ParseResumeState(data map[string]interface{}) (ResumeState, error) {
	r := fieldReader{data: data}
	s := ResumeState{
		Category:     r.str("category"),
		Difficulty:   r.str("difficulty"),
		Level:        r.integer("level"),
		Index:        r.integer("index"),
		CorrectCount: r.integer("correctCount"),
		XP:           r.integer("xp"),
		Coins:        r.integer("coins"),
		UpdatedAt:    r.timestamp("updatedAt"),
	}
	if r.err != nil {
		return ResumeState{}, r.err
	}
	if s.Category == "" || s.Difficulty == "" || s.Level < 1 || s.Index < 0 {
		return ResumeState{}, fmt.Errorf("%w: incomplete resume state", ErrMalformedDocument)
	}
	return s, nil
}
