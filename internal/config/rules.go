package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// GameRules are the runtime-tunable parameters of the progression system.
// Defaults apply unless a stored override document replaces them.
type GameRules struct {
	// QuizPassPercent is the share of correct answers a level needs; 100 means every question.
	QuizPassPercent int `json:"quizPassPercent" validate:"min=1,max=100"`
	// ChapterPassScore is the story chapter pass threshold.
	ChapterPassScore int `json:"chapterPassScore" validate:"min=1,max=100"`
	QuestionsPerLevel int `json:"questionsPerLevel" validate:"min=1,max=50"`
	// QuestionTimeLimitSeconds of 0 disables the per-question countdown.
	QuestionTimeLimitSeconds int    `json:"questionTimeLimitSeconds" validate:"min=0,max=600"`
	XPPerCorrect             int    `json:"xpPerCorrect" validate:"min=0"`
	CoinsPerCorrect          int    `json:"coinsPerCorrect" validate:"min=0"`
	CompletionXP             int    `json:"completionXp" validate:"min=0"`
	CompletionCoins          int    `json:"completionCoins" validate:"min=0"`
	ThemeMode                string `json:"themeMode" validate:"oneof=light dark system"`
}

// DefaultGameRules returns the built-in rules.
func DefaultGameRules() GameRules {
	return GameRules{
		QuizPassPercent:          100,
		ChapterPassScore:         75,
		QuestionsPerLevel:        5,
		QuestionTimeLimitSeconds: 30,
		XPPerCorrect:             10,
		CoinsPerCorrect:          1,
		CompletionXP:             50,
		CompletionCoins:          10,
		ThemeMode:                "system",
	}
}

// QuestionTimeLimit returns the countdown as a duration.
func (r GameRules) QuestionTimeLimit() time.Duration {
	return time.Duration(r.QuestionTimeLimitSeconds) * time.Second
}

// Validate checks the rules against their constraints.
func (r GameRules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid game rules: %w", err)
	}
	return nil
}

// MergeGameRules overlays overrides onto base. Unknown keys are ignored.
// If the overrides cannot be decoded or the result fails validation, base is
// returned together with the error.
func MergeGameRules(base GameRules, overrides map[string]interface{}) (GameRules, error) {
	if len(overrides) == 0 {
		return base, nil
	}

	raw, err := json.Marshal(overrides)
	if err != nil {
		return base, fmt.Errorf("encode overrides: %w", err)
	}

	merged := base
	if err := json.Unmarshal(raw, &merged); err != nil {
		return base, fmt.Errorf("decode overrides: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return base, err
	}
	return merged, nil
}
