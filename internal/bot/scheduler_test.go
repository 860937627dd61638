package bot_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/edgard/vinobot/internal/bot"
	"github.com/edgard/vinobot/internal/bot/tasks"
	"github.com/edgard/vinobot/internal/config"
)

func TestScheduler_StartsEnabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"enabled":  noop,
		"disabled": noop,
		"bad_cron": noop,
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":      {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled":     {Enabled: false, Schedule: "0 0 4 * * *"},
		"bad_cron":     {Enabled: true, Schedule: "not a cron"},
		"unregistered": {Enabled: true, Schedule: "0 0 4 * * *"},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := bot.NewScheduler(logger, cfg, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if err := s.Start(); err == nil {
		t.Error("second Start() error = nil, want error")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 || !slices.Contains(jobs, "enabled") {
		t.Errorf("Jobs() = %v, want [enabled]", jobs)
	}
}

func TestScheduler_StopIdempotent(t *testing.T) {
	t.Parallel()

	s, err := bot.NewScheduler(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() before Start error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
