package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the subscriber persistence operations.
// Every method is a single auto-committing statement.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// AddSubscriber inserts a new subscriber. It returns false, nil when the id already exists.
	AddSubscriber(ctx context.Context, subscriber *Subscriber) (bool, error)

	// RemoveSubscriber deletes a subscriber by id. It returns false, nil when the id is absent.
	RemoveSubscriber(ctx context.Context, id int64) (bool, error)

	// ListSubscribers returns every subscriber ordered by join time, then id.
	ListSubscribers(ctx context.Context) ([]Subscriber, error)

	// CountSubscribers returns the number of stored subscribers.
	CountSubscribers(ctx context.Context) (int, error)

	// CountJoinedSince counts subscribers that joined within the last window.
	CountJoinedSince(ctx context.Context, window time.Duration) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// StoreOption customizes a Store created by NewStore.
type StoreOption func(*sqlxStore)

// WithClock overrides the time source used for join timestamps and windows.
func WithClock(now func() time.Time) StoreOption {
	return func(s *sqlxStore) {
		if now != nil {
			s.now = now
		}
	}
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger, opts ...StoreOption) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AddSubscriber inserts the subscriber unless its id is already present.
// JoinedAt and LanguageCode are filled in when empty.
func (s *sqlxStore) AddSubscriber(ctx context.Context, subscriber *Subscriber) (bool, error) {
	if subscriber == nil {
		return false, fmt.Errorf("cannot add nil subscriber")
	}
	if subscriber.ID == 0 {
		return false, fmt.Errorf("subscriber must have a non-zero id")
	}

	if subscriber.JoinedAt.IsZero() {
		subscriber.JoinedAt = s.now().UTC().Truncate(time.Second)
	}
	if subscriber.LanguageCode == "" {
		subscriber.LanguageCode = DefaultLanguageCode
	}

	query := `
        INSERT INTO subscribers (id, username, first_name, last_name, language_code, is_bot, joined_at)
        VALUES (:id, :username, :first_name, :last_name, :language_code, :is_bot, :joined_at)
        ON CONFLICT(id) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, newSubscriberRow(subscriber))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding subscriber", "user_id", subscriber.ID, "error", err)
		return false, fmt.Errorf("failed to add subscriber %d: %w", subscriber.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not read rows affected after adding subscriber", "user_id", subscriber.ID, "error", err)
		return false, fmt.Errorf("failed to add subscriber %d: %w", subscriber.ID, err)
	}

	if affected == 0 {
		s.logger.DebugContext(ctx, "Subscriber already exists", "user_id", subscriber.ID)
		return false, nil
	}

	s.logger.InfoContext(ctx, "Subscriber added", "user_id", subscriber.ID)
	return true, nil
}

// RemoveSubscriber deletes the subscriber with the given id.
func (s *sqlxStore) RemoveSubscriber(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing subscriber", "user_id", id, "error", err)
		return false, fmt.Errorf("failed to remove subscriber %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not read rows affected after removing subscriber", "user_id", id, "error", err)
		return false, fmt.Errorf("failed to remove subscriber %d: %w", id, err)
	}

	if affected == 0 {
		s.logger.DebugContext(ctx, "Subscriber to remove not found", "user_id", id)
		return false, nil
	}

	s.logger.InfoContext(ctx, "Subscriber removed", "user_id", id)
	return true, nil
}

// ListSubscribers returns all subscribers in a stable order.
func (s *sqlxStore) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	var rows []subscriberRow
	query := `SELECT id, username, first_name, last_name, language_code, is_bot, joined_at
	          FROM subscribers ORDER BY joined_at, id`

	err := s.db.SelectContext(ctx, &rows, query)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while listing subscribers", "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error listing subscribers", "error", err)
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	subscribers := make([]Subscriber, 0, len(rows))
	for _, row := range rows {
		subscribers = append(subscribers, row.toSubscriber())
	}

	s.logger.DebugContext(ctx, "Listed subscribers", "count", len(subscribers))
	return subscribers, nil
}

// CountSubscribers returns the total number of subscribers.
func (s *sqlxStore) CountSubscribers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subscribers`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting subscribers", "error", err)
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}

// CountJoinedSince counts rows whose joined_at is at or after now minus window.
func (s *sqlxStore) CountJoinedSince(ctx context.Context, window time.Duration) (int, error) {
	if window < 0 {
		return 0, fmt.Errorf("window cannot be negative: %s", window)
	}

	since := s.now().UTC().Add(-window).Unix()

	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subscribers WHERE joined_at >= ?`, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting new subscribers", "window", window, "error", err)
		return 0, fmt.Errorf("failed to count subscribers joined in the last %s: %w", window, err)
	}
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
