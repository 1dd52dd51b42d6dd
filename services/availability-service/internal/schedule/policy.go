package schedule

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	DefaultTimezone      = "America/Los_Angeles"
	DefaultCalendarID    = "primary"
	DefaultInterval      = 30
	DefaultDuration      = 20
	DefaultMinimumNotice = 36 * time.Hour
)

// Policy is the per-resource booking configuration.
type Policy struct {
	Timezone        string
	CalendarID      string
	IntervalMinutes int
	DurationMinutes int

	// Inclusive scheduling window. Nil bounds are open.
	FirstDay *civil.Date
	LastDay  *civil.Date

	// Inclusive window during which bookings are accepted at all.
	BookingStart *time.Time
	BookingEnd   *time.Time

	MinimumNotice time.Duration
	WeekStart     time.Weekday
}

func DefaultPolicy() Policy {
	return Policy{
		Timezone:        DefaultTimezone,
		CalendarID:      DefaultCalendarID,
		IntervalMinutes: DefaultInterval,
		DurationMinutes: DefaultDuration,
		MinimumNotice:   DefaultMinimumNotice,
		WeekStart:       time.Monday,
	}
}

func (p Policy) Interval() time.Duration { return time.Duration(p.IntervalMinutes) * time.Minute }

func (p Policy) Duration() time.Duration { return time.Duration(p.DurationMinutes) * time.Minute }

func (p Policy) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return nil, policyError("timezone", "must be set")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, policyError("timezone", "unknown zone "+name)
	}
	return loc, nil
}

// InWindow reports whether d lies inside the scheduling window.
func (p Policy) InWindow(d civil.Date) bool {
	if p.FirstDay != nil && d.Before(*p.FirstDay) {
		return false
	}
	if p.LastDay != nil && d.After(*p.LastDay) {
		return false
	}
	return true
}

// Validate returns the first policy violation as a *ConfigurationError.
func (p Policy) Validate() error {
	switch {
	case p.IntervalMinutes <= 0:
		return policyError("interval_minutes", "must be positive")
	case p.DurationMinutes <= 0:
		return policyError("duration_minutes", "must be positive")
	case p.DurationMinutes > p.IntervalMinutes:
		return policyError("duration_minutes", "must not exceed interval_minutes")
	case p.FirstDay != nil && p.LastDay != nil && p.LastDay.Before(*p.FirstDay):
		return policyError("last_day_scheduled", "must not be before first_day_scheduled")
	case p.BookingStart != nil && p.BookingEnd != nil && p.BookingEnd.Before(*p.BookingStart):
		return policyError("booking_end", "must not be before booking_start")
	case p.MinimumNotice < 0:
		return policyError("minimum_notice", "must not be negative")
	case p.WeekStart != time.Monday && p.WeekStart != time.Sunday:
		return policyError("week_start", "must be monday or sunday")
	}
	_, err := p.Location()
	return err
}
