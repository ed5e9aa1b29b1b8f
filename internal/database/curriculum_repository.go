package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/curriculum"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

type lessonRow struct {
	ID       int64  `db:"id"`
	UnitID   int64  `db:"unit_id"`
	Title    string `db:"title"`
	Words    string `db:"words"` // JSON array
	XPReward int    `db:"xp_reward"`
	Position int    `db:"position"`
}

func (r lessonRow) lesson() (models.Lesson, error) {
	l := models.Lesson{
		ID:       r.ID,
		UnitID:   r.UnitID,
		Title:    r.Title,
		XPReward: r.XPReward,
		Position: r.Position,
	}
	if r.Words != "" {
		if err := json.Unmarshal([]byte(r.Words), &l.Words); err != nil {
			return models.Lesson{}, fmt.Errorf("failed to parse words of lesson %d: %w", r.ID, err)
		}
	}
	return l, nil
}

// CurriculumRepository stores units, lessons and signs, and serves lesson
// content and generated quizzes from them
type CurriculumRepository struct {
	mu  sync.Mutex
	gen *quiz.Generator
}

// NewCurriculumRepository creates a new repository instance
func NewCurriculumRepository(gen *quiz.Generator) *CurriculumRepository {
	if gen == nil {
		gen = quiz.NewGenerator()
	}
	return &CurriculumRepository{gen: gen}
}

// CountLessons returns the number of stored lessons
func (r *CurriculumRepository) CountLessons(ctx context.Context) (int, error) {
	var n int
	if err := DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM lessons"); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return n, nil
}

// Replace swaps the whole curriculum in one transaction. Signs are upserted
// so media added separately survives a reimport.
func (r *CurriculumRepository) Replace(ctx context.Context, units []models.Unit, signs []models.SignItem) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons"); err != nil {
		return fmt.Errorf("failed to clear lessons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM units"); err != nil {
		return fmt.Errorf("failed to clear units: %w", err)
	}

	unitQuery := tx.Rebind("INSERT INTO units (id, title, description, icon, position) VALUES (?, ?, ?, ?, ?)")
	lessonQuery := tx.Rebind("INSERT INTO lessons (id, unit_id, title, words, xp_reward, position) VALUES (?, ?, ?, ?, ?, ?)")
	for i, u := range units {
		if _, err := tx.ExecContext(ctx, unitQuery, u.ID, u.Title, u.Description, u.Icon, i+1); err != nil {
			return fmt.Errorf("failed to insert unit %d: %w", u.ID, err)
		}
		for j, l := range u.Lessons {
			words, err := json.Marshal(l.Words)
			if err != nil {
				return fmt.Errorf("failed to marshal words of lesson %d: %w", l.ID, err)
			}
			if _, err := tx.ExecContext(ctx, lessonQuery, l.ID, u.ID, l.Title, string(words), l.XPReward, j+1); err != nil {
				return fmt.Errorf("failed to insert lesson %d: %w", l.ID, err)
			}
		}
	}

	signQuery := tx.Rebind(`
		INSERT INTO signs (word, display, description, media_type, media_url) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (word) DO UPDATE SET
			display = excluded.display,
			description = excluded.description,
			media_type = excluded.media_type,
			media_url = CASE WHEN excluded.media_url = '' THEN signs.media_url ELSE excluded.media_url END
	`)
	for _, s := range signs {
		if _, err := tx.ExecContext(ctx, signQuery, s.Word, s.Display, s.Description, s.MediaType, s.MediaURL); err != nil {
			return fmt.Errorf("failed to save sign %s: %w", s.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit curriculum: %w", err)
	}
	return nil
}

// SeedDefault stores units when no lessons exist yet. It reports whether
// anything was written.
func (r *CurriculumRepository) SeedDefault(ctx context.Context, units []models.Unit) (bool, error) {
	n, err := r.CountLessons(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := r.Replace(ctx, units, curriculum.Signs(units)); err != nil {
		return false, err
	}
	return true, nil
}

// Units loads the curriculum in display order
func (r *CurriculumRepository) Units(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := DB.SelectContext(ctx, &units, "SELECT id, title, description, icon, position FROM units ORDER BY position, id"); err != nil {
		return nil, fmt.Errorf("failed to get units: %w", err)
	}

	var rows []lessonRow
	if err := DB.SelectContext(ctx, &rows, "SELECT id, unit_id, title, words, xp_reward, position FROM lessons ORDER BY position, id"); err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	index := make(map[int64]int, len(units))
	for i, u := range units {
		index[u.ID] = i
	}
	for _, row := range rows {
		i, ok := index[row.UnitID]
		if !ok {
			continue
		}
		l, err := row.lesson()
		if err != nil {
			return nil, err
		}
		units[i].Lessons = append(units[i].Lessons, l)
	}
	return units, nil
}

// Signs returns every stored sign
func (r *CurriculumRepository) Signs(ctx context.Context) ([]models.SignItem, error) {
	var signs []models.SignItem
	if err := DB.SelectContext(ctx, &signs, "SELECT word, display, description, media_type, media_url FROM signs ORDER BY word"); err != nil {
		return nil, fmt.Errorf("failed to get signs: %w", err)
	}
	return signs, nil
}

// SetSignMedia attaches a picture or video to a sign
func (r *CurriculumRepository) SetSignMedia(ctx context.Context, word, mediaType, mediaURL string) error {
	res, err := DB.ExecContext(ctx, DB.Rebind("UPDATE signs SET media_type = ?, media_url = ? WHERE word = ?"), mediaType, mediaURL, word)
	if err != nil {
		return fmt.Errorf("failed to update sign %s: %w", word, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "set sign media", fmt.Sprintf("sign %s does not exist", word))
	}
	return nil
}

func (r *CurriculumRepository) lesson(ctx context.Context, lessonID int64) (models.Lesson, error) {
	var row lessonRow
	err := DB.GetContext(ctx, &row, DB.Rebind("SELECT id, unit_id, title, words, xp_reward, position FROM lessons WHERE id = ?"), lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lesson{}, apperr.New(apperr.NotFound, "lesson", fmt.Sprintf("lesson %d does not exist", lessonID))
	}
	if err != nil {
		return models.Lesson{}, fmt.Errorf("failed to get lesson %d: %w", lessonID, err)
	}
	return row.lesson()
}

func (r *CurriculumRepository) signMap(ctx context.Context) (map[string]models.SignItem, []models.SignItem, error) {
	signs, err := r.Signs(ctx)
	if err != nil {
		return nil, nil, err
	}
	m := make(map[string]models.SignItem, len(signs))
	for _, s := range signs {
		m[s.Word] = s
	}
	return m, signs, nil
}

// LessonContent implements progression.ContentProvider
func (r *CurriculumRepository) LessonContent(ctx context.Context, lessonID int64) (models.LessonContent, error) {
	lesson, err := r.lesson(ctx, lessonID)
	if err != nil {
		return models.LessonContent{}, err
	}
	byWord, _, err := r.signMap(ctx)
	if err != nil {
		return models.LessonContent{}, err
	}

	content := models.LessonContent{LessonID: lesson.ID, Title: lesson.Title}
	seen := make(map[string]bool, len(lesson.Words))
	for _, w := range lesson.Words {
		if seen[w] {
			continue
		}
		seen[w] = true
		s, ok := byWord[w]
		if !ok {
			s = curriculum.NewSign(w, "")
		}
		content.Signs = append(content.Signs, s)
	}
	return content, nil
}

// Quiz implements progression.QuizProvider with a freshly generated quiz
func (r *CurriculumRepository) Quiz(ctx context.Context, lessonID int64) (models.QuizContent, error) {
	lesson, err := r.lesson(ctx, lessonID)
	if err != nil {
		return models.QuizContent{}, err
	}
	byWord, all, err := r.signMap(ctx)
	if err != nil {
		return models.QuizContent{}, err
	}

	var rows []lessonRow
	if err := DB.SelectContext(ctx, &rows, DB.Rebind("SELECT id, unit_id, title, words, xp_reward, position FROM lessons WHERE unit_id = ?"), lesson.UnitID); err != nil {
		return models.QuizContent{}, fmt.Errorf("failed to get unit lessons: %w", err)
	}
	var unitSigns []models.SignItem
	seen := make(map[string]bool)
	for _, row := range rows {
		l, err := row.lesson()
		if err != nil {
			return models.QuizContent{}, err
		}
		for _, w := range l.Words {
			if s, ok := byWord[w]; ok && !seen[w] {
				seen[w] = true
				unitSigns = append(unitSigns, s)
			}
		}
	}

	r.mu.Lock()
	content := r.gen.Build(lesson, unitSigns, all)
	r.mu.Unlock()
	return content, nil
}
