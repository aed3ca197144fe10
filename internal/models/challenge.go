package models

import "strings"

// DailyChallenge is the challenge published for one calendar date.
type DailyChallenge struct {
	Date         string `json:"date"`
	Type         string `json:"type"`
	Difficulty   string `json:"difficulty"`
	XP           int    `json:"xp"`
	Coins        int    `json:"coins"`
	CategoryName string `json:"categoryName"`
	TopicName    string `json:"topicName"`
	Active       bool   `json:"active"`
}

func (c DailyChallenge) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"type":         c.Type,
		"difficulty":   c.Difficulty,
		"xp":           c.XP,
		"coins":        c.Coins,
		"categoryName": c.CategoryName,
		"topicName":    c.TopicName,
		"active":       c.Active,
	}
}

func ParseDailyChallenge(date string, data map[string]interface{}) (DailyChallenge, error) {
	r := fieldReader{data: data}
	c := DailyChallenge{
		Date:         date,
		Type:         r.str("type"),
		Difficulty:   r.str("difficulty"),
		XP:           r.integer("xp"),
		Coins:        r.integer("coins"),
		CategoryName: r.str("categoryName"),
		TopicName:    r.str("topicName"),
		Active:       r.boolean("active"),
	}
	if r.err != nil {
		return DailyChallenge{}, r.err
	}
	return c, nil
}

// Matches reports whether a quiz level belongs to this challenge. An empty
// category or difficulty on the challenge matches any level.
func (c DailyChallenge) Matches(category, difficulty string) bool {
	if c.CategoryName != "" && !strings.EqualFold(c.CategoryName, category) {
		return false
	}
	return c.Difficulty == "" || strings.EqualFold(c.Difficulty, difficulty)
}
