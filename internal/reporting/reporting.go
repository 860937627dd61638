// Package reporting derives subscriber statistics from the store and renders
// them into export artifacts (CSV and XLSX files) for administrators.
package reporting

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/vinobot/internal/database"
)

// Windows used by Snapshot.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
)

// DateLayout is the layout of the date column in statistics exports.
const DateLayout = "2006-01-02"

// TimestampLayout is the layout of join timestamps in exports and listings.
const TimestampLayout = "2006-01-02 15:04:05"

// Source is the read side of the subscriber store used for reporting.
type Source interface {
	ListSubscribers(ctx context.Context) ([]database.Subscriber, error)
	CountSubscribers(ctx context.Context) (int, error)
	CountJoinedSince(ctx context.Context, window time.Duration) (int, error)
}

// Snapshot is a point-in-time set of subscriber counts.
type Snapshot struct {
	TakenAt  time.Time
	Total    int
	NewDay   int
	NewWeek  int
	NewMonth int
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithClock overrides the time source used for snapshot dates.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// Reporter computes snapshots and writes export artifacts under dir.
type Reporter struct {
	source Source
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewReporter creates a Reporter reading from source and writing artifacts to dir.
func NewReporter(source Source, dir string, logger *slog.Logger, opts ...Option) *Reporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Reporter{
		source: source,
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "reporting"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot reads the total and the 1, 7 and 30 day join counts.
func (r *Reporter) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{TakenAt: r.now()}

	total, err := r.source.CountSubscribers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to count subscribers: %w", err)
	}
	snap.Total = total

	windows := []struct {
		window time.Duration
		dst    *int
	}{
		{Day, &snap.NewDay},
		{Week, &snap.NewWeek},
		{Month, &snap.NewMonth},
	}
	for _, w := range windows {
		n, err := r.source.CountJoinedSince(ctx, w.window)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to count subscribers joined in the last %s: %w", w.window, err)
		}
		*w.dst = n
	}

	r.logger.DebugContext(ctx, "Computed statistics snapshot",
		"total", snap.Total, "new_day", snap.NewDay, "new_week", snap.NewWeek, "new_month", snap.NewMonth)
	return snap, nil
}
