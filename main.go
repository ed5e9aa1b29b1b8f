package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/example/signlingo/internal/api"
	"github.com/example/signlingo/internal/bot"
	"github.com/example/signlingo/internal/config"
	"github.com/example/signlingo/internal/curriculum"
	"github.com/example/signlingo/internal/database"
	"github.com/example/signlingo/internal/excel"
	"github.com/example/signlingo/internal/kvstore"
	"github.com/example/signlingo/internal/logger"
	"github.com/example/signlingo/internal/progression"
	"github.com/example/signlingo/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Подключаемся к базе данных
	if err := database.Connect(cfg.DBType, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	var store kvstore.Store = database.NewKVRepository()
	if cfg.RedisURL != "" {
		rdb, err := kvstore.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = rdb
		lg.Info("progress store: redis")
	}
	progress := kvstore.NewProgressRepository(store)

	curriculumRepo := database.NewCurriculumRepository(nil)
	seeded, err := curriculumRepo.SeedDefault(ctx, curriculum.Default())
	if err != nil {
		return fmt.Errorf("failed to seed curriculum: %w", err)
	}
	if seeded {
		lg.Info("default curriculum seeded")
	}
	if cfg.CurriculumFile != "" {
		importCfg := excel.DefaultImportConfig()
		importCfg.FilePath = cfg.CurriculumFile
		result, err := excel.Import(ctx, importCfg, curriculumRepo)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", cfg.CurriculumFile, err)
		}
		lg.Info("curriculum imported", "file", cfg.CurriculumFile, "units", result.UnitsCreated, "lessons", result.LessonsCreated, "skipped", result.Skipped)
	}
	units, err := curriculumRepo.Units(ctx)
	if err != nil {
		return fmt.Errorf("failed to load curriculum: %w", err)
	}

	deps := bot.Deps{
		Progress:     progress,
		Users:        database.NewUserRepository(),
		Curriculum:   curriculumRepo,
		AdminUserIDs: cfg.AdminUserIDs,
		Config:       bot.DefaultConfig(),
		Log:          lg,
	}
	if cfg.UseBackend() {
		client := api.NewClient(cfg.APIURL, cfg.HTTPTimeout, progress, lg)
		deps.Backend = client
		deps.Tracker = progression.NewTracker(units, client, client, client, progress, lg)
		lg.Info("using backend", "url", cfg.APIURL)
	} else {
		deps.Tracker = progression.NewTracker(units, curriculumRepo, curriculumRepo, database.NewCompletionRecorder(), progress, lg)
	}

	b, err := bot.New(cfg.TelegramToken, deps)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// Streaks are kept by the backend when one is configured
	if cfg.SchedulerEnabled && !cfg.UseBackend() {
		window := scheduler.Window{StartHour: cfg.NotificationStartHour, EndHour: cfg.NotificationEndHour}
		sched := scheduler.New(b, deps.Users, progress, window, lg)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Start(gctx)
	})

	lg.Info("bot started", "db", cfg.DBType)
	err = g.Wait()
	lg.Info("bot stopped")
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
