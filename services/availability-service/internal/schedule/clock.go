package schedule

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Seconds returns the offset of t from midnight, ignoring nanoseconds.
func Seconds(t civil.Time) int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// FromMinutes converts minutes after midnight to a time of day.
func FromMinutes(m int) (civil.Time, error) {
	if m < 0 || m >= 24*60 {
		return civil.Time{}, fmt.Errorf("minute of day %d out of range", m)
	}
	return civil.Time{Hour: m / 60, Minute: m % 60}, nil
}

func Minutes(t civil.Time) int {
	return t.Hour*60 + t.Minute
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
}

// FormatTimeOfDay renders HH:MM, adding seconds only when present.
func FormatTimeOfDay(t civil.Time) string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At places a civil date and time of day in loc.
func At(d civil.Date, t civil.Time, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}
