package note

import (
	"time"
)

const displayLayout = "Jan 2, 2006 3:04 PM"

// ParseTime accepts the timestamp shapes backends commonly emit: RFC 3339
// with or without fractional seconds, and Postgres' "timestamptz" text form.
func ParseTime(v string) (time.Time, error) {
	var err error
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		var t time.Time
		if t, err = time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormatTime renders t for the wire.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// LocalTime renders t for people, in the local zone. Zero times render empty.
func LocalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(displayLayout)
}
