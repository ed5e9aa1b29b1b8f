package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of players shown on the leaderboard
	LeaderboardSize int
	// Backend leaderboard period: weekly, monthly or allTime
	LeaderboardPeriod string
	// Time allowed for handling a single update
	UpdateTimeout time.Duration
	// Long polling timeout in seconds
	PollTimeout int
	// Pending conversation states (login, feedback, import) expire after this
	StateTTL time.Duration
	// Largest curriculum file accepted by /import
	MaxImportSize int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		LeaderboardSize:   10,
		LeaderboardPeriod: "allTime",
		UpdateTimeout:     30 * time.Second,
		PollTimeout:       60,
		StateTTL:          10 * time.Minute,
		MaxImportSize:     5 << 20,
	}
}
