package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/pkg/models"
)

const dayLayout = "2006-01-02"

// CompletionRecorder is the local stand-in for the backend's completion
// endpoint: it credits xp, keeps the daily streak and logs the quiz result.
type CompletionRecorder struct {
	now func() time.Time
}

// NewCompletionRecorder creates a recorder using the wall clock
func NewCompletionRecorder() *CompletionRecorder {
	return &CompletionRecorder{now: time.Now}
}

// SetClock replaces the time source
func (r *CompletionRecorder) SetClock(now func() time.Time) {
	r.now = now
}

// nextStreak returns the streak after activity on today
func nextStreak(streak int, lastActive string, today time.Time) int {
	day := today.Format(dayLayout)
	switch lastActive {
	case day:
		if streak < 1 {
			return 1
		}
		return streak
	case today.AddDate(0, 0, -1).Format(dayLayout):
		return streak + 1
	default:
		return 1
	}
}

// ReportCompletion implements progression.CompletionReporter. userID is the
// user's Telegram ID.
func (r *CompletionRecorder) ReportCompletion(ctx context.Context, userID string, c progression.Completion) (progression.Receipt, error) {
	telegramID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return progression.Receipt{}, apperr.Wrap(apperr.Validation, "record completion", fmt.Errorf("invalid user id %q: %w", userID, err))
	}
	now := r.now()

	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return progression.Receipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var user models.User
	err = tx.GetContext(ctx, &user, tx.Rebind("SELECT "+userColumns+" FROM users WHERE telegram_id = ?"), telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return progression.Receipt{}, apperr.New(apperr.Unauthorized, "record completion", fmt.Sprintf("user %d is not registered", telegramID))
	}
	if err != nil {
		return progression.Receipt{}, fmt.Errorf("failed to get user: %w", err)
	}

	user.XP += c.XP
	user.Streak = nextStreak(user.Streak, user.LastActiveDate, now)
	user.LastActiveDate = now.Format(dayLayout)

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE users SET xp = ?, streak = ?, last_active_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`), user.XP, user.Streak, user.LastActiveDate, user.ID)
	if err != nil {
		return progression.Receipt{}, fmt.Errorf("failed to update user: %w", err)
	}

	total := c.Total
	score := c.Correct
	if total == 0 {
		// percentage only, as the backend receives it
		total, score = 100, c.QuizScore
	}
	result := models.QuizResult{
		UserID:     user.ID,
		LessonID:   c.LessonID,
		Score:      score,
		Total:      total,
		Percentage: c.QuizScore,
		Passed:     true,
		XPEarned:   c.XP,
		CreatedAt:  now,
	}
	if err := createQuizResult(ctx, tx, &result); err != nil {
		return progression.Receipt{}, err
	}

	if err := tx.Commit(); err != nil {
		return progression.Receipt{}, fmt.Errorf("failed to commit completion: %w", err)
	}
	return progression.Receipt{TotalXP: user.XP, Streak: user.Streak}, nil
}
