package reporting

import (
	"strings"
	"unicode/utf8"

	"github.com/edgard/vinobot/internal/database"
)

// MaxListingRunes keeps a listing under Telegram's 4096 character message limit.
const MaxListingRunes = 4000

// Listing renders one line per subscriber under header, cut to limit runes.
// A non-positive limit means MaxListingRunes.
func Listing(header string, subs []database.Subscriber, line func(database.Subscriber) string, limit int) string {
	if limit <= 0 {
		limit = MaxListingRunes
	}

	var sb strings.Builder
	sb.WriteString(header)
	runes := utf8.RuneCountInString(header)
	for _, s := range subs {
		if runes > limit {
			break
		}
		l := line(s)
		sb.WriteByte('\n')
		sb.WriteString(l)
		runes += 1 + utf8.RuneCountInString(l)
	}

	out := sb.String()
	if runes <= limit {
		return out
	}
	return string([]rune(out)[:limit])
}
