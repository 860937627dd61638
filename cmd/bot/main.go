// Package main contains the entrypoint for the wine shop Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/edgard/vinobot/internal/bot"
	"github.com/edgard/vinobot/internal/bot/handlers"
	"github.com/edgard/vinobot/internal/bot/tasks"
	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/logger"
	"github.com/edgard/vinobot/internal/metrics"
	"github.com/edgard/vinobot/internal/reporting"
	"github.com/edgard/vinobot/internal/server"
	"github.com/edgard/vinobot/internal/telegram"
	"github.com/edgard/vinobot/internal/texts"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components and returns an exit
// code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load dotenv file", "path", *envPath, "error", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log, logCloser, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer logCloser.Close()
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON, "admins", len(cfg.Telegram.AdminIDs))

	if len(cfg.Telegram.AdminIDs) == 0 {
		log.Warn("No administrators configured; privileged commands will be refused for everyone")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	catalog, err := texts.Load(cfg.Telegram.Locale)
	if err != nil {
		log.Error("Failed to load texts", "locale", cfg.Telegram.Locale, "error", err)
		return 1
	}

	stateStore, closeState, err := newStateStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Error("Failed to initialize conversation store", "error", err)
		return 1
	}
	defer closeState.Close()

	metrics.MustRegister()

	hDeps := handlers.HandlerDeps{
		Logger:        log,
		Config:        cfg,
		Store:         store,
		Texts:         catalog,
		Conversations: broadcast.NewConversations(stateStore, log),
		Deliverer:     broadcast.NewDeliverer(store, cfg.Broadcast.SendInterval, log),
		Reporter:      reporting.NewReporter(store, cfg.Export.Dir, log),
	}

	// Updates are handled one at a time so a conversation never sees two
	// of its own inputs concurrently.
	botOpts := telegram.DispatchOptions(
		handlers.NewDefaultHandler(hDeps),
		handlers.Recover(hDeps), logger.Middleware(log),
	)
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = telegram.SetupCommands(setupCtx, tg, cfg, catalog, log)
	cancel()
	if err != nil {
		log.Error("Failed to set up bot commands", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Config:   cfg,
		Reporter: hDeps.Reporter,
		Texts:    catalog,
		Sender:   tg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var ops bot.Runner
	if cfg.HTTP.Addr != "" {
		ops = server.New(cfg.HTTP.Addr, store, log)
	}

	app := bot.NewBot(log, tg, sched, ops)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// newStateStore returns the Redis-backed conversation store when an address
// is configured and the in-memory one otherwise.
func newStateStore(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (broadcast.StateStore, io.Closer, error) {
	if cfg.Addr == "" {
		log.Info("Using in-memory broadcast conversation store")
		return broadcast.NewMemoryStateStore(), nopCloser{}, nil
	}

	client, err := broadcast.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using Redis broadcast conversation store", "addr", cfg.Addr, "db", cfg.DB)
	return broadcast.NewRedisStateStore(client), redisCloser{client}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type redisCloser struct{ client *redis.Client }

func (c redisCloser) Close() error { return c.client.Close() }
