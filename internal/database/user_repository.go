package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/pkg/models"
)

const userColumns = "id, telegram_id, username, first_name, xp, streak, last_active_date, created_at, updated_at"

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByTelegramID returns a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, DB.Rebind("SELECT "+userColumns+" FROM users WHERE telegram_id = ?"), telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "get user", fmt.Sprintf("user %d does not exist", telegramID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return &user, nil
}

// GetOrCreate registers a Telegram user or refreshes their names
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name) VALUES (?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := DB.ExecContext(ctx, DB.Rebind(query), telegramID, username, firstName); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return r.GetByTelegramID(ctx, telegramID)
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := DB.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// AddXP credits xp outside of a lesson completion (daily quests)
func (r *UserRepository) AddXP(ctx context.Context, telegramID int64, xp int) error {
	res, err := DB.ExecContext(ctx, DB.Rebind("UPDATE users SET xp = xp + ?, updated_at = CURRENT_TIMESTAMP WHERE telegram_id = ?"), xp, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add xp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "add xp", fmt.Sprintf("user %d does not exist", telegramID))
	}
	return nil
}

// Leaderboard returns the top users by xp, streak breaking ties
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	var users []models.User
	query := DB.Rebind("SELECT " + userColumns + " FROM users ORDER BY xp DESC, streak DESC, id LIMIT ?")
	if err := DB.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}

// StreakAtRisk returns users with a running streak who were last active the
// day before today and not yet today
func (r *UserRepository) StreakAtRisk(ctx context.Context, today time.Time) ([]models.User, error) {
	yesterday := today.AddDate(0, 0, -1).Format(dayLayout)
	var users []models.User
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE streak > 0 AND last_active_date = ?")
	if err := DB.SelectContext(ctx, &users, query, yesterday); err != nil {
		return nil, fmt.Errorf("failed to get users with streak at risk: %w", err)
	}
	return users, nil
}
