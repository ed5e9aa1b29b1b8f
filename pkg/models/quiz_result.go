package models

import "time"

// QuizResult records one finished quiz attempt
type QuizResult struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	LessonID   int64     `json:"lesson_id" db:"lesson_id"`
	Score      int       `json:"score" db:"score"`
	Total      int       `json:"total" db:"total"`
	Percentage int       `json:"percentage" db:"percentage"`
	Passed     bool      `json:"passed" db:"passed"`
	XPEarned   int       `json:"xp_earned" db:"xp_earned"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
