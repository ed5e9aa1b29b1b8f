package models

import "time"

// XPPerLevel is the amount of experience needed to gain a level
const XPPerLevel = 100

// UserProfile is the long-lived learner record cached on the client
type UserProfile struct {
	ID               string    `json:"_id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	XP               int       `json:"xp"`
	Streak           int       `json:"streak"`
	LessonsCompleted int       `json:"lessons_completed"`
	QuizzesTaken     int       `json:"quizzes_taken"`
	PerfectQuizzes   int       `json:"perfect_quizzes"`
	FeedbackGiven    bool      `json:"feedback_given"`
	JoinedAt         string    `json:"joined_at,omitempty"` // ISO timestamp as sent by the backend
}

// Level derives the user's level from xp: floor(xp/100) + 1
func (p UserProfile) Level() int {
	return LevelFor(p.XP)
}

// LevelFor returns the level for an xp total
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// UserSettings are a learner's preferences
type UserSettings struct {
	DailyReminder bool `json:"dailyReminder"`
}

// DefaultSettings apply until the user changes them
func DefaultSettings() UserSettings {
	return UserSettings{DailyReminder: true}
}

// User is a Telegram user of the bot
type User struct {
	ID             int64     `json:"id" db:"id"`
	TelegramID     int64     `json:"telegram_id" db:"telegram_id"`
	Username       string    `json:"username" db:"username"`
	FirstName      string    `json:"first_name" db:"first_name"`
	XP             int       `json:"xp" db:"xp"`
	Streak         int       `json:"streak" db:"streak"`
	LastActiveDate string    `json:"last_active_date" db:"last_active_date"` // YYYY-MM-DD, empty when never active
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
