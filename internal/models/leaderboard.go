package models

// LeaderboardEntry is one ranked row of a category leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Points   int64  `json:"points"`
	Rank     int    `json:"rank"`
}
