package utils

import (
	"time"
)

// ToEpochMillis converts t to milliseconds since the Unix epoch, the unit
// clients receive for every timestamp.
func ToEpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func ToEpochMillisPtr(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// NowUTC truncates to milliseconds so stored and serialized values agree.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// UntilEndOfDay returns the time left before the next midnight in t's location.
func UntilEndOfDay(t time.Time) time.Duration {
	return StartOfDay(t).AddDate(0, 0, 1).Sub(t)
}
