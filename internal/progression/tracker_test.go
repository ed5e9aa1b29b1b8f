package progression

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/example/signlingo/internal/apperr"
	"github.com/example/signlingo/internal/kvstore"
	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

type fakeContent struct {
	quizCalls int
	quizzes   map[int64]models.QuizContent
	err       error
}

func (f *fakeContent) LessonContent(_ context.Context, lessonID int64) (models.LessonContent, error) {
	if f.err != nil {
		return models.LessonContent{}, f.err
	}
	return models.LessonContent{LessonID: lessonID, Signs: []models.SignItem{{Word: "HELLO"}}}, nil
}

func (f *fakeContent) Quiz(_ context.Context, lessonID int64) (models.QuizContent, error) {
	f.quizCalls++
	if f.err != nil {
		return models.QuizContent{}, f.err
	}
	if q, ok := f.quizzes[lessonID]; ok {
		return q, nil
	}
	return quizOf(lessonID, 5), nil
}

// gatedReporter holds ReportCompletion until release is closed
type gatedReporter struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedReporter) ReportCompletion(context.Context, string, Completion) (Receipt, error) {
	close(g.entered)
	<-g.release
	return Receipt{}, nil
}

type fakeReporter struct {
	calls   []Completion
	receipt Receipt
	err     error
}

func (f *fakeReporter) ReportCompletion(_ context.Context, _ string, c Completion) (Receipt, error) {
	f.calls = append(f.calls, c)
	return f.receipt, f.err
}

func quizOf(lessonID int64, n int) models.QuizContent {
	qs := make([]models.Question, n)
	for i := range qs {
		w := fmt.Sprintf("W%d", i)
		qs[i] = models.Question{
			ID:            i + 1,
			Type:          models.QuestionPickSign,
			CorrectAnswer: w,
			Options:       []models.QuizOption{{Word: w}, {Word: "X"}},
		}
	}
	return models.QuizContent{LessonID: lessonID, TotalQuestions: n, Questions: qs}
}

// play answers the session's questions following pattern until it finishes
func play(t *testing.T, s *quiz.Session, pattern ...bool) {
	t.Helper()
	for _, correct := range pattern {
		q, ok := s.Current()
		if !ok {
			t.Fatalf("no current question")
		}
		pick := "X"
		if correct {
			pick = q.CorrectAnswer
		}
		if _, ok := s.Submit(pick); !ok {
			t.Fatalf("submit rejected")
		}
		if s.Advance() == quiz.Finished {
			return
		}
	}
}

type trackerFixture struct {
	tracker  *Tracker
	content  *fakeContent
	reporter *fakeReporter
	progress *kvstore.ProgressRepository
	store    *kvstore.Memory
}

func newFixture(units []models.Unit) *trackerFixture {
	store := kvstore.NewMemory()
	progress := kvstore.NewProgressRepository(store)
	content := &fakeContent{}
	reporter := &fakeReporter{}
	tr := NewTracker(units, content, content, reporter, progress, nil)
	tr.SetClock(func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) })
	return &trackerFixture{tracker: tr, content: content, reporter: reporter, progress: progress, store: store}
}

func TestFinishQuizPassAppliesReward(t *testing.T) {
	ctx := context.Background()
	units := curriculum(2, 1)
	units[0].Lessons[0].XPReward = 20
	f := newFixture(units)
	if err := f.progress.SaveProfile(ctx, "u1", models.UserProfile{XP: 90}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	f.reporter.receipt = Receipt{TotalXP: 110, Streak: 4}

	s, err := f.tracker.StartQuiz(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	play(t, s, true, false, true, false, true)

	out, err := f.tracker.FinishQuiz(ctx, "u1", s)
	if err != nil {
		t.Fatalf("FinishQuiz: %v", err)
	}
	if !out.Result.Passed || out.Result.Percentage != 60 {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Profile.XP != 110 || out.Profile.Level() != 2 || !out.LevelUp || out.XPEarned != 20 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Profile.Streak != 4 || out.Profile.QuizzesTaken != 1 {
		t.Fatalf("unexpected profile %+v", out.Profile)
	}
	if want := []Completion{{LessonID: 1, QuizScore: 60, XP: 20, Correct: 3, Total: 5}}; !reflect.DeepEqual(f.reporter.calls, want) {
		t.Fatalf("reported %+v, want %+v", f.reporter.calls, want)
	}

	done, _ := f.progress.IsCompleted(ctx, "u1", 1)
	if !done {
		t.Fatalf("completion flag not persisted")
	}
	stored, _ := f.tracker.Profile(ctx, "u1")
	if stored.XP != 110 {
		t.Fatalf("stored xp = %d", stored.XP)
	}
	if !IsSelectable(mustCurriculum(t, f.tracker, "u1"), 2) {
		t.Fatalf("next lesson should be unlocked")
	}
}

func mustCurriculum(t *testing.T, tr *Tracker, userID string) []models.Unit {
	t.Helper()
	units, err := tr.Curriculum(context.Background(), userID)
	if err != nil {
		t.Fatalf("Curriculum: %v", err)
	}
	return units
}

func TestFinishQuizFailDoesNotReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(2))

	s, err := f.tracker.StartQuiz(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	play(t, s, false, false, false)

	out, err := f.tracker.FinishQuiz(ctx, "u1", s)
	if err != nil {
		t.Fatalf("FinishQuiz: %v", err)
	}
	if out.Result.Passed || out.XPEarned != 0 {
		t.Fatalf("failed quiz rewarded: %+v", out)
	}
	if len(f.reporter.calls) != 0 {
		t.Fatalf("failed quiz reported")
	}
	if done, _ := f.progress.IsCompleted(ctx, "u1", 1); done {
		t.Fatalf("failed quiz marked lesson completed")
	}
	if out.Profile.QuizzesTaken != 1 {
		t.Fatalf("attempt not counted")
	}
}

func TestReporterFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(2))
	f.reporter.err = apperr.New(apperr.Network, "complete lesson", "connection refused")

	s, _ := f.tracker.StartQuiz(ctx, "u1", 1)
	play(t, s, true, true, true, true, true)

	_, err := f.tracker.FinishQuiz(ctx, "u1", s)
	if !apperr.Is(err, apperr.Network) {
		t.Fatalf("expected network error, got %v", err)
	}
	if keys := f.store.Keys(); len(keys) != 0 {
		t.Fatalf("nothing should be persisted, got %v", keys)
	}

	// the same finished session can be settled once the backend is back
	f.reporter.err = nil
	out, err := f.tracker.FinishQuiz(ctx, "u1", s)
	if err != nil || out.Profile.XP != 10 {
		t.Fatalf("retry: %+v %v", out, err)
	}
	if out.Profile.PerfectQuizzes != 1 {
		t.Fatalf("perfect quiz not counted")
	}
}

func TestFinishQuizRequiresFinishedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(1))
	s, _ := f.tracker.StartQuiz(ctx, "u1", 1)
	if _, err := f.tracker.FinishQuiz(ctx, "u1", s); !errors.Is(err, ErrQuizNotFinished) {
		t.Fatalf("expected ErrQuizNotFinished, got %v", err)
	}
}

func TestLockedAndUnknownLessons(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(2, 2))

	_, err := f.tracker.StartQuiz(ctx, "u1", 3)
	if !errors.Is(err, ErrLessonLocked) || !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected locked lesson, got %v", err)
	}
	_, err = f.tracker.OpenLesson(ctx, "u1", 2)
	if !errors.Is(err, ErrLessonLocked) {
		t.Fatalf("expected locked lesson, got %v", err)
	}
	_, err = f.tracker.OpenLesson(ctx, "u1", 42)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.content.quizCalls != 0 {
		t.Fatalf("locked lessons must not be fetched")
	}
}

func TestMalformedQuizIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(1))
	f.content.quizzes = map[int64]models.QuizContent{1: {LessonID: 1}}

	_, err := f.tracker.StartQuiz(ctx, "u1", 1)
	if !errors.Is(err, quiz.ErrMalformedQuiz) {
		t.Fatalf("expected malformed quiz, got %v", err)
	}
}

func TestRetryQuizRefetches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(1))

	s, _ := f.tracker.StartQuiz(ctx, "u1", 1)
	play(t, s, false, false, false)
	first := s.ID

	if err := f.tracker.RetryQuiz(ctx, s); err != nil {
		t.Fatalf("RetryQuiz: %v", err)
	}
	if f.content.quizCalls != 2 {
		t.Fatalf("quiz fetched %d times", f.content.quizCalls)
	}
	if s.State() != quiz.InProgress || s.Index() != 0 || s.Hearts() != quiz.DefaultHearts || s.Score() != 0 {
		t.Fatalf("session not reset")
	}
	if s.ID == first {
		t.Fatalf("retry should start a new attempt id")
	}

	f.content.err = apperr.New(apperr.Network, "quiz", "timeout")
	play(t, s, false, false, false)
	if err := f.tracker.RetryQuiz(ctx, s); !apperr.Is(err, apperr.Network) {
		t.Fatalf("expected network error, got %v", err)
	}
	if s.State() != quiz.Finished {
		t.Fatalf("failed retry must keep the session as it was")
	}
}

func TestLockMapSurvivesReload(t *testing.T) {
	ctx := context.Background()
	units := curriculum(2, 3, 1)
	store := kvstore.NewMemory()
	progress := kvstore.NewProgressRepository(store)
	for _, id := range []int64{1, 2, 3} {
		if err := progress.SaveCompletion(ctx, "u1", models.UserProfile{}, id); err != nil {
			t.Fatalf("SaveCompletion: %v", err)
		}
	}
	before := LockMap(mustCurriculum(t, NewTracker(units, nil, nil, nil, progress, nil), "u1"))

	reloaded := NewTracker(units, nil, nil, nil, kvstore.NewProgressRepository(store), nil)
	after := LockMap(mustCurriculum(t, reloaded, "u1"))
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("lock map changed across reload: %v vs %v", before, after)
	}
	want := [][]bool{{false, false}, {false, false, true}, {true}}
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("LockMap = %v, want %v", after, want)
	}
}

func TestDailyQuestsAndFeedback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(1))

	board, profile, ok, err := f.tracker.CompleteQuest(ctx, "u1", "1")
	if err != nil || !ok {
		t.Fatalf("CompleteQuest: %v %v", ok, err)
	}
	if board.Date != "2026-10-19" || profile.XP != 10 {
		t.Fatalf("unexpected board %+v profile %+v", board, profile)
	}
	if _, _, ok, _ := f.tracker.CompleteQuest(ctx, "u1", "1"); ok {
		t.Fatalf("quest credited twice")
	}

	f.tracker.SetClock(func() time.Time { return time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC) })
	board, err = f.tracker.DailyQuests(ctx, "u1")
	if err != nil || board.CompletedQuests() != 0 {
		t.Fatalf("board not reset on a new day: %+v %v", board, err)
	}

	if err := f.tracker.RecordFeedback(ctx, "u1"); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	badges, _ := f.tracker.Achievements(ctx, "u1")
	for _, b := range badges {
		if b.ID == "feedback_given" && !b.Unlocked {
			t.Fatalf("feedback badge locked")
		}
	}
}

func TestSetCurriculumReplacesDefinition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(curriculum(1))

	units := curriculum(2, 1)
	f.tracker.SetCurriculum(units)
	units[0].Lessons = nil

	got, err := f.tracker.Curriculum(ctx, "u1")
	if err != nil {
		t.Fatalf("Curriculum: %v", err)
	}
	if len(got) != 2 || len(got[0].Lessons) != 2 {
		t.Fatalf("expected the replaced curriculum, got %d units", len(got))
	}
	if _, err := f.tracker.OpenLesson(ctx, "u1", 3); !errors.Is(err, ErrLessonLocked) {
		t.Fatalf("expected lesson 3 locked, got %v", err)
	}
}

func TestQuestDuringReportKeepsXP(t *testing.T) {
	ctx := context.Background()
	units := curriculum(2)
	units[0].Lessons[0].XPReward = 10
	f := newFixture(units)
	gate := &gatedReporter{entered: make(chan struct{}), release: make(chan struct{})}
	f.tracker.reporter = gate

	s, err := f.tracker.StartQuiz(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	play(t, s, true, true, true, true, true)

	done := make(chan error, 1)
	go func() {
		_, err := f.tracker.FinishQuiz(ctx, "u1", s)
		done <- err
	}()
	<-gate.entered

	_, profile, ok, err := f.tracker.CompleteQuest(ctx, "u1", "2")
	if err != nil || !ok {
		t.Fatalf("CompleteQuest = %v, %v", ok, err)
	}
	if profile.XP != 20 {
		t.Fatalf("xp after quest = %d, want 20", profile.XP)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("FinishQuiz: %v", err)
	}
	p, err := f.tracker.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.XP != 30 || p.LessonsCompleted != 1 || p.QuizzesTaken != 1 {
		t.Fatalf("profile after completion = %+v, want xp 30", p)
	}
	if completed, _ := f.progress.IsCompleted(ctx, "u1", 1); !completed {
		t.Fatalf("lesson 1 not marked completed")
	}
}
