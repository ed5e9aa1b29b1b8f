package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/signlingo/pkg/models"
)

// QuizResultRepository handles database operations for quiz results
type QuizResultRepository struct{}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository() *QuizResultRepository {
	return &QuizResultRepository{}
}

// QuizStats summarises a user's recorded quizzes
type QuizStats struct {
	Quizzes        int `db:"quizzes"`
	Passed         int `db:"passed"`
	Perfect        int `db:"perfect"`
	AvgPercentage  int `db:"avg_percentage"`
	LessonsCovered int `db:"lessons_covered"`
}

// GetByUserID returns a user's quiz results, newest first
func (r *QuizResultRepository) GetByUserID(ctx context.Context, userID int64) ([]models.QuizResult, error) {
	var results []models.QuizResult
	query := DB.Rebind(`
		SELECT id, user_id, lesson_id, score, total, percentage, passed, xp_earned, created_at
		FROM quiz_results WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`)
	if err := DB.SelectContext(ctx, &results, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	return results, nil
}

// Create inserts a new quiz result
func (r *QuizResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	return createQuizResult(ctx, DB, result)
}

func createQuizResult(ctx context.Context, db sqlx.ExtContext, result *models.QuizResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	query := db.Rebind(`
		INSERT INTO quiz_results (user_id, lesson_id, score, total, percentage, passed, xp_earned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := db.QueryRowxContext(ctx, query,
		result.UserID,
		result.LessonID,
		result.Score,
		result.Total,
		result.Percentage,
		result.Passed,
		result.XPEarned,
		result.CreatedAt,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to create quiz result: %w", err)
	}
	return nil
}

// Stats aggregates a user's quiz results
func (r *QuizResultRepository) Stats(ctx context.Context, userID int64) (QuizStats, error) {
	var stats QuizStats
	query := DB.Rebind(`
		SELECT
			COUNT(*) AS quizzes,
			COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(SUM(CASE WHEN score = total THEN 1 ELSE 0 END), 0) AS perfect,
			CAST(COALESCE(AVG(percentage), 0) AS INTEGER) AS avg_percentage,
			COUNT(DISTINCT lesson_id) AS lessons_covered
		FROM quiz_results WHERE user_id = ?
	`)
	if err := DB.GetContext(ctx, &stats, query, userID); err != nil {
		return QuizStats{}, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	return stats, nil
}
