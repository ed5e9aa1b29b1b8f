package models

// LeaderboardEntry is one player row on the leaderboard
type LeaderboardEntry struct {
	ID       string `json:"_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	XP       int    `json:"xp"`
	Streak   int    `json:"streak"`
}
