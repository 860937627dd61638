package tasks_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/bot/tasks"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
	"github.com/edgard/vinobot/internal/texts"
)

var fixedNow = time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu      sync.Mutex
	sent    map[int64][]string
	failFor map[int64]bool
}

func (r *recordingSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ChatID.(int64)
	if r.failFor[id] {
		return nil, errors.New("forbidden")
	}
	if r.sent == nil {
		r.sent = map[int64][]string{}
	}
	r.sent[id] = append(r.sent[id], p.Text)
	return &models.Message{}, nil
}

func newDeps(t *testing.T, admins ...int64) (tasks.TaskDeps, *recordingSender) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewDB(filepath.Join(dir, "subscribers.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	catalog, err := texts.Load("ru")
	if err != nil {
		t.Fatalf("texts.Load() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return fixedNow }
	store := database.NewStore(db, logger, database.WithClock(now))
	cfg := &config.Config{
		Telegram: config.TelegramConfig{AdminIDs: admins},
		Export:   config.ExportConfig{Dir: filepath.Join(dir, "exports"), MaxAge: time.Hour},
	}

	sender := &recordingSender{failFor: map[int64]bool{}}
	return tasks.TaskDeps{
		Logger:   logger,
		Store:    store,
		Config:   cfg,
		Reporter: reporting.NewReporter(store, cfg.Export.Dir, logger, reporting.WithClock(now)),
		Texts:    catalog,
		Sender:   sender,
	}, sender
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	registered := tasks.RegisterAllTasks(deps)

	for name := range config.DefaultTasks {
		if registered[name] == nil {
			t.Errorf("default task %q is not registered", name)
		}
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	task := tasks.RegisterAllTasks(deps)["sql_maintenance"]

	if err := task(context.Background()); err != nil {
		t.Errorf("sql_maintenance error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := task(ctx); err == nil {
		t.Error("sql_maintenance with cancelled context error = nil, want error")
	}
}

func TestDailyReportTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		admins  []int64
		failFor []int64
		wantErr bool
		wantTo  []int64
	}{
		{name: "no admins", admins: nil},
		{name: "all admins", admins: []int64{1, 2}, wantTo: []int64{1, 2}},
		{name: "one admin unreachable", admins: []int64{1, 2}, failFor: []int64{2}, wantTo: []int64{1}},
		{name: "all admins unreachable", admins: []int64{1}, failFor: []int64{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps, sender := newDeps(t, tt.admins...)
			for _, id := range tt.failFor {
				sender.failFor[id] = true
			}
			for _, id := range []int64{10, 11} {
				if _, err := deps.Store.AddSubscriber(context.Background(), &database.Subscriber{ID: id}); err != nil {
					t.Fatalf("AddSubscriber() error = %v", err)
				}
			}

			err := tasks.RegisterAllTasks(deps)["daily_report"](context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("daily_report error = %v, wantErr %v", err, tt.wantErr)
			}

			want := deps.Texts.T("stats.daily", "2025-03-06", 2, 2, 2)
			for _, id := range tt.wantTo {
				got := sender.sent[id]
				if len(got) != 1 || got[0] != want {
					t.Errorf("admin %d received %q, want %q", id, got, want)
				}
			}
		})
	}
}

func TestExportCleanupTask(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	ctx := context.Background()
	task := tasks.RegisterAllTasks(deps)["export_cleanup"]

	if err := task(ctx); err != nil {
		t.Fatalf("export_cleanup on missing dir error = %v", err)
	}

	artifact, err := deps.Reporter.Export(ctx, reporting.KindSubscribers, reporting.FormatCSV)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	old := fixedNow.Add(-2 * time.Hour)
	if err := os.Chtimes(artifact.Path, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if err := task(ctx); err != nil {
		t.Fatalf("export_cleanup error = %v", err)
	}
	if _, err := os.Stat(artifact.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact %s survived cleanup", filepath.Base(artifact.Path))
	}
}
