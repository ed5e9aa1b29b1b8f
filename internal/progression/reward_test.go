package progression

import (
	"testing"

	"github.com/example/signlingo/internal/quiz"
	"github.com/example/signlingo/pkg/models"
)

func TestApplyRewardOnPass(t *testing.T) {
	profile := models.UserProfile{XP: 90}
	lesson := models.Lesson{ID: 6, XPReward: 20}

	p, l, applied := ApplyReward(profile, lesson, quiz.Result{Finished: true, Passed: true, Score: 3, Total: 5})
	if !applied {
		t.Fatalf("expected reward")
	}
	if p.XP != 110 || p.Level() != 2 {
		t.Fatalf("xp=%d level=%d, want 110 and 2", p.XP, p.Level())
	}
	if !l.Completed || p.LessonsCompleted != 1 {
		t.Fatalf("lesson not completed: %+v %+v", l, p)
	}
	if profile.XP != 90 {
		t.Fatalf("input profile mutated")
	}
}

func TestApplyRewardIgnoresFailedOrUnfinished(t *testing.T) {
	profile := models.UserProfile{XP: 40}
	lesson := models.Lesson{ID: 1, XPReward: 10}
	for _, r := range []quiz.Result{
		{Finished: true, Passed: false},
		{Finished: false, Passed: true},
	} {
		p, l, applied := ApplyReward(profile, lesson, r)
		if applied || p.XP != 40 || l.Completed {
			t.Fatalf("result %+v must not reward", r)
		}
	}
}

func TestReplayDoesNotRecountLesson(t *testing.T) {
	p, _, _ := ApplyReward(models.UserProfile{LessonsCompleted: 3}, models.Lesson{XPReward: 10, Completed: true}, quiz.Result{Finished: true, Passed: true})
	if p.LessonsCompleted != 3 || p.XP != 10 {
		t.Fatalf("unexpected %+v", p)
	}
}

func TestLevelFormula(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 110: 2, 250: 3, 1000: 11}
	for xp, want := range cases {
		if got := models.LevelFor(xp); got != want {
			t.Fatalf("LevelFor(%d) = %d, want %d", xp, got, want)
		}
	}
}
