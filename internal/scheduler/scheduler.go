package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/signlingo/internal/logger"
	"github.com/example/signlingo/pkg/models"
)

// Notifier sends a streak reminder to a Telegram user
type Notifier interface {
	SendStreakReminder(telegramID int64, streak int) error
}

// UserSource finds users whose streak ends unless they practise today
type UserSource interface {
	StreakAtRisk(ctx context.Context, today time.Time) ([]models.User, error)
}

// SettingsSource holds the users' reminder preference, keyed by the
// decimal Telegram id
type SettingsSource interface {
	Settings(ctx context.Context, userID string) (models.UserSettings, error)
}

// Window is the range of hours (inclusive) reminders may be sent in
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether hour falls inside the window
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	settings  SettingsSource
	window    Window
	log       *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	reminded map[int64]string // telegram id -> day of the last reminder
}

// New creates a new scheduler instance. A nil settings source reminds
// everyone.
func New(notifier Notifier, users UserSource, settings SettingsSource, window Window, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		settings:  settings,
		window:    window,
		log:       log,
		now:       time.Now,
		reminded:  make(map[int64]string),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Hourly check for streaks about to break
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("streak reminder run failed", "error", err)
	}
}

// RunOnce sends today's streak reminders and returns how many were sent.
// Outside the notification window it does nothing. Each user gets at most
// one reminder per day.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	if !s.window.Contains(now.Hour()) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", now.Hour(), "start", s.window.StartHour, "end", s.window.EndHour)
		return 0, nil
	}

	users, err := s.users.StreakAtRisk(ctx, now)
	if err != nil {
		return 0, err
	}

	day := now.Format("2006-01-02")
	sent := 0
	for _, u := range users {
		if s.alreadyReminded(u.TelegramID, day) || !s.wantsReminder(ctx, u.TelegramID) {
			continue
		}
		if err := s.notifier.SendStreakReminder(u.TelegramID, u.Streak); err != nil {
			s.log.Warn("failed to send streak reminder", "telegram_id", u.TelegramID, "error", err)
			continue
		}
		s.markReminded(u.TelegramID, day)
		sent++
	}
	if sent > 0 {
		s.log.Info("streak reminders sent", "count", sent)
	}
	return sent, nil
}

// wantsReminder reports whether the user left daily reminders on. When the
// setting can't be read no reminder is sent.
func (s *Scheduler) wantsReminder(ctx context.Context, telegramID int64) bool {
	if s.settings == nil {
		return true
	}
	prefs, err := s.settings.Settings(ctx, strconv.FormatInt(telegramID, 10))
	if err != nil {
		s.log.Warn("failed to read reminder setting", "telegram_id", telegramID, "error", err)
		return false
	}
	return prefs.DailyReminder
}

func (s *Scheduler) alreadyReminded(id int64, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminded[id] == day
}

func (s *Scheduler) markReminded(id int64, day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminded[id] = day
}
