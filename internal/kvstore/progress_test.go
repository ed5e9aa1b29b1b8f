package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/example/signlingo/pkg/models"
)

func testUnits() []models.Unit {
	return []models.Unit{
		{ID: 1, Title: "Greetings", Lessons: []models.Lesson{{ID: 1, XPReward: 10}, {ID: 2, XPReward: 10}}},
		{ID: 2, Title: "Alphabet", Lessons: []models.Lesson{{ID: 3, XPReward: 20}}},
	}
}

func TestScopeIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	a, b := Scope(mem, "user:a"), Scope(mem, "user:b")

	if err := a.Set(ctx, KeyToken, []byte("tok-a")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := b.Get(ctx, KeyToken); ok {
		t.Fatalf("user b must not see user a's token")
	}
	if keys := mem.Keys(); len(keys) != 1 || keys[0] != "user:a:userToken" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestSaveCompletionThenOverlay(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(NewMemory())

	profile := models.UserProfile{ID: "u1", XP: 10}
	if err := repo.SaveCompletion(ctx, "u1", profile, 1); err != nil {
		t.Fatalf("SaveCompletion: %v", err)
	}

	units, err := repo.Overlay(ctx, "u1", testUnits())
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if !units[0].Lessons[0].Completed || units[0].Lessons[1].Completed || units[1].Lessons[0].Completed {
		t.Fatalf("unexpected flags %+v", units)
	}

	got, ok, err := repo.LoadProfile(ctx, "u1")
	if err != nil || !ok || got.XP != 10 {
		t.Fatalf("LoadProfile = %+v %v %v", got, ok, err)
	}

	other, err := repo.Overlay(ctx, "u2", testUnits())
	if err != nil {
		t.Fatalf("Overlay u2: %v", err)
	}
	if other[0].Lessons[0].Completed {
		t.Fatalf("completion leaked across users")
	}
}

func TestOverlayDoesNotMutateDefinition(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(NewMemory())
	def := testUnits()
	_ = repo.SaveCompletion(ctx, "u1", models.UserProfile{}, 1)
	if _, err := repo.Overlay(ctx, "u1", def); err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if def[0].Lessons[0].Completed {
		t.Fatalf("static curriculum was mutated")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(NewMemory())

	if tok, err := repo.Token(ctx, "u1"); err != nil || tok != "" {
		t.Fatalf("expected no token, got %q %v", tok, err)
	}
	if err := repo.SaveSession(ctx, "u1", "jwt", models.UserProfile{Email: "a@gmail.com"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if tok, _ := repo.Token(ctx, "u1"); tok != "jwt" {
		t.Fatalf("expected token, got %q", tok)
	}
	if err := repo.ClearSession(ctx, "u1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, ok, _ := repo.LoadProfile(ctx, "u1"); ok {
		t.Fatalf("profile should be gone after logout")
	}
}

func TestOnboardingFlag(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(NewMemory())
	if done, _ := repo.OnboardingDone(ctx, "u1"); done {
		t.Fatalf("fresh user must not be onboarded")
	}
	_ = repo.MarkOnboardingDone(ctx, "u1")
	if done, _ := repo.OnboardingDone(ctx, "u1"); !done {
		t.Fatalf("expected onboarding flag")
	}
}

type failingStore struct{ Store }

func (failingStore) SetMany(context.Context, map[string][]byte) error {
	return errors.New("disk full")
}

func TestSaveCompletionWritesNothingOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	repo := NewProgressRepository(failingStore{Store: mem})
	if err := repo.SaveCompletion(ctx, "u1", models.UserProfile{XP: 50}, 1); err == nil {
		t.Fatalf("expected error")
	}
	if len(mem.Keys()) != 0 {
		t.Fatalf("partial write: %v", mem.Keys())
	}
}

func TestSettingsDefaultToReminderOn(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	repo := NewProgressRepository(mem)

	s, err := repo.Settings(ctx, "u1")
	if err != nil || !s.DailyReminder {
		t.Fatalf("Settings = %+v, %v; want reminders on", s, err)
	}
	// a blob saved by another client without the field keeps the default
	if err := mem.Set(ctx, "user:u1:"+KeySettings, []byte(`{"darkMode":false}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s, _ := repo.Settings(ctx, "u1"); !s.DailyReminder {
		t.Fatalf("missing field should default to on")
	}

	if err := repo.SaveSettings(ctx, "u1", models.UserSettings{DailyReminder: false}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if s, _ := repo.Settings(ctx, "u1"); s.DailyReminder {
		t.Fatalf("reminder still on after opting out")
	}
}
