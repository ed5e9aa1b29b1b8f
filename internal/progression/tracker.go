package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/kvstore"
	"github.com/example/signlingo/internal/logger"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

var (
	// ErrLessonLocked is returned when opening a lesson that is not selectable
	ErrLessonLocked = errors.New("lesson is locked")
	// ErrQuizNotFinished is returned when settling a session still in play
	ErrQuizNotFinished = errors.New("quiz is not finished")
)

// ContentProvider returns the flashcards of a lesson
type ContentProvider interface {
	LessonContent(ctx context.Context, lessonID int64) (models.LessonContent, error)
}

// QuizProvider returns the quiz of a lesson
type QuizProvider interface {
	Quiz(ctx context.Context, lessonID int64) (models.QuizContent, error)
}

// Completion is what gets reported for a passed quiz
type Completion struct {
	LessonID  int64 `json:"lesson_id"`
	QuizScore int   `json:"quiz_score"` // percentage
	XP        int   `json:"xp_earned"`

	// raw counts, kept by local recorders only
	Correct int `json:"-"`
	Total   int `json:"-"`
}

// Receipt is the collaborator's answer to a reported completion
type Receipt struct {
	TotalXP int
	Streak  int // zero when the collaborator does not track streaks
}

// CompletionReporter persists a completion on the side that owns the
// authoritative profile
type CompletionReporter interface {
	ReportCompletion(ctx context.Context, userID string, c Completion) (Receipt, error)
}

// Outcome is the settled result of a quiz attempt
type Outcome struct {
	Result          quiz.Result
	Profile         models.UserProfile
	XPEarned        int
	LevelUp         bool
	NewAchievements []Achievement
}

// Tracker coordinates a learner's lessons, quizzes and rewards
type Tracker struct {
	mu       sync.RWMutex
	units    []models.Unit
	content  ContentProvider
	quizzes  QuizProvider
	reporter CompletionReporter
	progress *kvstore.ProgressRepository
	log      *logger.Logger
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // user id -> profile write lock
}

// NewTracker wires a tracker over a static curriculum definition
func NewTracker(units []models.Unit, content ContentProvider, quizzes QuizProvider, reporter CompletionReporter, progress *kvstore.ProgressRepository, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		units:    models.CloneUnits(units),
		content:  content,
		quizzes:  quizzes,
		reporter: reporter,
		progress: progress,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockUser serialises read-modify-write cycles on one user's profile and
// returns the unlock func
func (t *Tracker) lockUser(userID string) func() {
	t.locksMu.Lock()
	m, ok := t.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		t.locks[userID] = m
	}
	t.locksMu.Unlock()
	m.Lock()
	return m.Unlock
}

// SetClock replaces the time source, used for quest days
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// SetCurriculum swaps the curriculum definition, e.g. after an import.
// Completion flags are keyed by lesson id and carry over.
func (t *Tracker) SetCurriculum(units []models.Unit) {
	units = models.CloneUnits(units)
	t.mu.Lock()
	t.units = units
	t.mu.Unlock()
}

func (t *Tracker) definition() []models.Unit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.units
}

// Curriculum returns the units with this user's completion flags
func (t *Tracker) Curriculum(ctx context.Context, userID string) ([]models.Unit, error) {
	units, err := t.progress.Overlay(ctx, userID, t.definition())
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return units, nil
}

// Profile returns the cached profile, or an empty one for a new user
func (t *Tracker) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	p, ok, err := t.progress.LoadProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		p = models.UserProfile{ID: userID}
	}
	return p, nil
}

// MergeProfile caches a profile fetched from the backend. XP never moves
// backwards and locally tracked counters are kept.
func (t *Tracker) MergeProfile(ctx context.Context, userID string, remote models.UserProfile) (models.UserProfile, error) {
	defer t.lockUser(userID)()
	local, err := t.Profile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	merged := remote
	if local.XP > merged.XP {
		merged.XP = local.XP
	}
	merged.LessonsCompleted = local.LessonsCompleted
	merged.QuizzesTaken = local.QuizzesTaken
	merged.PerfectQuizzes = local.PerfectQuizzes
	merged.FeedbackGiven = local.FeedbackGiven || remote.FeedbackGiven
	if err := t.progress.SaveProfile(ctx, userID, merged); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to cache profile: %w", err)
	}
	return merged, nil
}

func (t *Tracker) selectable(ctx context.Context, userID string, lessonID int64) (models.Lesson, error) {
	units, err := t.Curriculum(ctx, userID)
	if err != nil {
		return models.Lesson{}, err
	}
	i, j, ok := FindLesson(units, lessonID)
	if !ok {
		return models.Lesson{}, apperr.New(apperr.NotFound, "open lesson", fmt.Sprintf("lesson %d does not exist", lessonID))
	}
	if IsLessonLocked(units, i, j) {
		return models.Lesson{}, apperr.Wrap(apperr.Validation, "open lesson", fmt.Errorf("lesson %d: %w", lessonID, ErrLessonLocked))
	}
	return units[i].Lessons[j], nil
}

// Lesson returns a lesson definition with the user's completion flag
func (t *Tracker) Lesson(ctx context.Context, userID string, lessonID int64) (models.Lesson, error) {
	units, err := t.Curriculum(ctx, userID)
	if err != nil {
		return models.Lesson{}, err
	}
	i, j, ok := FindLesson(units, lessonID)
	if !ok {
		return models.Lesson{}, apperr.New(apperr.NotFound, "lesson", fmt.Sprintf("lesson %d does not exist", lessonID))
	}
	return units[i].Lessons[j], nil
}

// OpenLesson fetches the flashcards of a selectable lesson
func (t *Tracker) OpenLesson(ctx context.Context, userID string, lessonID int64) (models.LessonContent, error) {
	if _, err := t.selectable(ctx, userID, lessonID); err != nil {
		return models.LessonContent{}, err
	}
	content, err := t.content.LessonContent(ctx, lessonID)
	if err != nil {
		return models.LessonContent{}, fmt.Errorf("failed to load lesson %d: %w", lessonID, err)
	}
	return content, nil
}

// StartQuiz fetches the quiz of a selectable lesson and starts a session
func (t *Tracker) StartQuiz(ctx context.Context, userID string, lessonID int64) (*quiz.Session, error) {
	if _, err := t.selectable(ctx, userID, lessonID); err != nil {
		return nil, err
	}
	content, err := t.fetchQuiz(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	s, err := quiz.NewSession(content)
	if err != nil {
		t.log.Error("rejected quiz content", "lesson_id", lessonID, "error", err)
		return nil, apperr.Wrap(apperr.Internal, "start quiz", err)
	}
	t.log.Debug("quiz started", "user_id", userID, "lesson_id", lessonID, "session_id", s.ID.String(), "questions", s.Total())
	return s, nil
}

// RetryQuiz re-fetches the quiz and restarts the session from question
// zero. On failure the session keeps its previous state.
func (t *Tracker) RetryQuiz(ctx context.Context, s *quiz.Session) error {
	content, err := t.fetchQuiz(ctx, s.LessonID)
	if err != nil {
		return err
	}
	if err := s.Restart(content); err != nil {
		return apperr.Wrap(apperr.Internal, "retry quiz", err)
	}
	return nil
}

func (t *Tracker) fetchQuiz(ctx context.Context, lessonID int64) (models.QuizContent, error) {
	content, err := t.quizzes.Quiz(ctx, lessonID)
	if err != nil {
		return models.QuizContent{}, fmt.Errorf("failed to load quiz %d: %w", lessonID, err)
	}
	if content.LessonID == 0 {
		content.LessonID = lessonID
	}
	return content, nil
}

// FinishQuiz settles a finished session. A passed quiz is reported to the
// completion reporter first; only after it succeeds are the new profile and
// the lesson's completion flag persisted, together. When reporting fails
// nothing is persisted and the call can be repeated.
//
// The profile is re-read after reporting, so quest xp or a profile refresh
// that landed meanwhile is kept.
func (t *Tracker) FinishQuiz(ctx context.Context, userID string, s *quiz.Session) (Outcome, error) {
	result := s.Result()
	if !result.Finished {
		return Outcome{}, ErrQuizNotFinished
	}

	units, err := t.Curriculum(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	i, j, ok := FindLesson(units, s.LessonID)
	if !ok {
		return Outcome{}, apperr.New(apperr.NotFound, "finish quiz", fmt.Sprintf("lesson %d does not exist", s.LessonID))
	}
	lesson := units[i].Lessons[j]

	if !result.Passed {
		defer t.lockUser(userID)()
		profile, err := t.Profile(ctx, userID)
		if err != nil {
			return Outcome{}, err
		}
		profile = countAttempt(profile, result)
		if err := t.progress.SaveProfile(ctx, userID, profile); err != nil {
			return Outcome{}, fmt.Errorf("failed to save profile: %w", err)
		}
		t.log.Info("quiz failed", "user_id", userID, "lesson_id", lesson.ID, "score", result.Score, "total", result.Total, "hearts", result.Hearts)
		return Outcome{Result: result, Profile: profile}, nil
	}

	receipt, err := t.reporter.ReportCompletion(ctx, userID, Completion{
		LessonID:  lesson.ID,
		QuizScore: result.Percentage,
		XP:        lesson.XPReward,
		Correct:   result.Score,
		Total:     result.Total,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to report completion of lesson %d: %w", lesson.ID, err)
	}

	defer t.lockUser(userID)()
	if units, err = t.Curriculum(ctx, userID); err != nil {
		return Outcome{}, err
	}
	if i, j, ok = FindLesson(units, s.LessonID); !ok {
		return Outcome{}, apperr.New(apperr.NotFound, "finish quiz", fmt.Sprintf("lesson %d does not exist", s.LessonID))
	}
	before, err := t.Profile(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	beforeBadges := Achievements(before, units)

	profile, lesson, _ := ApplyReward(countAttempt(before, result), units[i].Lessons[j], result)
	if receipt.TotalXP > profile.XP {
		profile.XP = receipt.TotalXP
	}
	if receipt.Streak > 0 {
		profile.Streak = receipt.Streak
	}
	units[i].Lessons[j] = lesson

	if err := t.progress.SaveCompletion(ctx, userID, profile, lesson.ID); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Result:          result,
		Profile:         profile,
		XPEarned:        profile.XP - before.XP,
		LevelUp:         profile.Level() > before.Level(),
		NewAchievements: NewlyUnlocked(beforeBadges, Achievements(profile, units)),
	}
	t.log.Info("lesson completed", "user_id", userID, "lesson_id", lesson.ID, "xp", profile.XP, "level", profile.Level(), "score", result.Percentage)
	return out, nil
}

func countAttempt(p models.UserProfile, result quiz.Result) models.UserProfile {
	p.QuizzesTaken++
	if result.Perfect() {
		p.PerfectQuizzes++
	}
	return p
}

// Achievements evaluates the user's badges
func (t *Tracker) Achievements(ctx context.Context, userID string) ([]Achievement, error) {
	units, err := t.Curriculum(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := t.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Achievements(profile, units), nil
}

// DailyQuests loads today's quest board, starting a new one on a new day
func (t *Tracker) DailyQuests(ctx context.Context, userID string) (QuestBoard, error) {
	var stored QuestBoard
	found, err := t.progress.GetJSON(ctx, userID, kvstore.KeyDailyQuests, &stored)
	if err != nil {
		return QuestBoard{}, err
	}
	return FreshBoard(stored, found, Day(t.now())), nil
}

// CompleteQuest completes one of today's quests and credits its xp. The
// board and the profile are written together.
func (t *Tracker) CompleteQuest(ctx context.Context, userID, questID string) (QuestBoard, models.UserProfile, bool, error) {
	defer t.lockUser(userID)()
	board, err := t.DailyQuests(ctx, userID)
	if err != nil {
		return QuestBoard{}, models.UserProfile{}, false, err
	}
	profile, err := t.Profile(ctx, userID)
	if err != nil {
		return QuestBoard{}, models.UserProfile{}, false, err
	}
	board, profile, ok := CompleteQuest(board, profile, questID)
	if !ok {
		return board, profile, false, nil
	}
	err = t.progress.SetJSONMany(ctx, userID, map[string]interface{}{
		kvstore.KeyDailyQuests: board,
		kvstore.KeyProfile:     profile,
	})
	if err != nil {
		return QuestBoard{}, models.UserProfile{}, false, err
	}
	return board, profile, true, nil
}

// RecordFeedback remembers that the user sent feedback
func (t *Tracker) RecordFeedback(ctx context.Context, userID string) error {
	defer t.lockUser(userID)()
	profile, err := t.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if profile.FeedbackGiven {
		return nil
	}
	profile.FeedbackGiven = true
	return t.progress.SaveProfile(ctx, userID, profile)
}
