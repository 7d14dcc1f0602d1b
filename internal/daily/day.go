package daily

import (
	"fmt"
	"time"
)

// DateKeyLayout is the civil date form used as the ledger key.
const DateKeyLayout = "2006-01-02"

// DayIndex maps a date key to the number of whole days since the Unix epoch,
// computed on the UTC civil calendar.
func DayIndex(dateKey string) (int, error) {
	t, err := time.ParseInLocation(DateKeyLayout, dateKey, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}
	return int(t.Unix() / 86400), nil
}

// DateKey formats a time as a ledger key on the UTC calendar.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// DayNumber maps a date key to the user-facing ordinal relative to the
// configured launch date: launch day is 1, the day after is 2, and so on,
// clamped to a minimum of 1. With no launch date configured there is no
// ordinal and ok is false; callers fall back to the internal puzzle id.
func DayNumber(dateKey, launchDateKey string) (n int, ok bool) {
	if launchDateKey == "" {
		return 0, false
	}
	di, err := DayIndex(dateKey)
	if err != nil {
		return 0, false
	}
	li, err := DayIndex(launchDateKey)
	if err != nil {
		return 0, false
	}
	n = di - li + 1
	if n < 1 {
		n = 1
	}
	return n, true
}
