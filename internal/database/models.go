package database

import (
	"database/sql"
	"time"
)

// DefaultLanguageCode is stored when Telegram does not report a user's language.
const DefaultLanguageCode = "ru"

// Subscriber is an end user registered to receive broadcasts.
// Rows are created on /start, deleted on /unsubscribe and never updated.
type Subscriber struct {
	ID           int64
	Username     string // empty when the user has no public handle
	FirstName    string
	LastName     string
	LanguageCode string
	IsBot        bool
	JoinedAt     time.Time
}

// DisplayName returns the best human-readable name for the subscriber.
func (s Subscriber) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	case s.Username != "":
		return "@" + s.Username
	default:
		return "-"
	}
}

// subscriberRow is the on-disk shape of a Subscriber.
type subscriberRow struct {
	ID           int64          `db:"id"`
	Username     sql.NullString `db:"username"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	LanguageCode string         `db:"language_code"`
	IsBot        bool           `db:"is_bot"`
	JoinedAt     int64          `db:"joined_at"` // unix seconds, UTC
}

func newSubscriberRow(s *Subscriber) subscriberRow {
	return subscriberRow{
		ID:           s.ID,
		Username:     sql.NullString{String: s.Username, Valid: s.Username != ""},
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		LanguageCode: s.LanguageCode,
		IsBot:        s.IsBot,
		JoinedAt:     s.JoinedAt.Unix(),
	}
}

func (r subscriberRow) toSubscriber() Subscriber {
	return Subscriber{
		ID:           r.ID,
		Username:     r.Username.String,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		LanguageCode: r.LanguageCode,
		IsBot:        r.IsBot,
		JoinedAt:     time.Unix(r.JoinedAt, 0).UTC(),
	}
}
