package models

import (
	"fmt"
	"time"
)

// LevelProgress is the highest completed level for one (user, category, difficulty).
type LevelProgress struct {
	HighestLevelCompleted int       `json:"highestLevelCompleted"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ToDocument encodes the record in its stored shape.
func (p LevelProgress) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"highestLevelCompleted": p.HighestLevelCompleted,
		"updatedAt":             formatTime(p.UpdatedAt),
	}
}

// ParseLevelProgress decodes a stored progress document.
func ParseLevelProgress(data map[string]interface{}) (LevelProgress, error) {
	r := fieldReader{data: data}
	p := LevelProgress{
		HighestLevelCompleted: r.integer("highestLevelCompleted"),
		UpdatedAt:             r.timestamp("updatedAt"),
	}
	if r.err != nil {
		return LevelProgress{}, r.err
	}
	if p.HighestLevelCompleted < 0 {
		return LevelProgress{}, fmt.Errorf("%w: negative highestLevelCompleted", ErrMalformedDocument)
	}
	return p, nil
}

// ProgressKey is the per-user document key for a category and difficulty.
func ProgressKey(category, difficulty string) string {
	return category + "_" + difficulty
}
