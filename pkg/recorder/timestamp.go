package recorder

import "time"

// TimestampLayout is fixed width (26 bytes) so lines and rotated file
// names sort chronologically as plain text.
const TimestampLayout = "2006-01-02.15:04:05.000000"

// Timestamp renders t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp inverts Timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}
