package schedule

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/multierr"
)

// Weekday indexes a Week starting at Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func WeekdayOf(date civil.Date) Weekday {
	return FromTimeWeekday(date.In(time.UTC).Weekday())
}

func FromTimeWeekday(wd time.Weekday) Weekday {
	return Weekday((int(wd) + 6) % 7)
}

// ParseWeekday accepts full lowercase or capitalized English names.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if s == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdaySchedule holds the working hours of one weekday. Lunch bounds are
// both set or both nil.
type WeekdaySchedule struct {
	Enabled    bool
	DayStart   civil.Time
	DayEnd     civil.Time
	LunchStart *civil.Time
	LunchEnd   *civil.Time
}

func (s WeekdaySchedule) HasLunch() bool {
	return s.LunchStart != nil && s.LunchEnd != nil
}

// Validate checks the hour invariants for day d. Disabled days are not checked.
func (s WeekdaySchedule) Validate(d Weekday) error {
	if !s.Enabled {
		return nil
	}
	if !s.DayStart.IsValid() || !s.DayEnd.IsValid() {
		return weekdayError(d, "day_start", "times of day must be valid")
	}
	if Seconds(s.DayStart) >= Seconds(s.DayEnd) {
		return weekdayError(d, "day_start", "must be before day_end")
	}
	if (s.LunchStart == nil) != (s.LunchEnd == nil) {
		return weekdayError(d, "lunch", "lunch_start and lunch_end must both be set or both be empty")
	}
	if !s.HasLunch() {
		return nil
	}
	ls, le := Seconds(*s.LunchStart), Seconds(*s.LunchEnd)
	switch {
	case ls < Seconds(s.DayStart):
		return weekdayError(d, "lunch_start", "must not be before day_start")
	case ls > le:
		return weekdayError(d, "lunch_start", "must not be after lunch_end")
	case le > Seconds(s.DayEnd):
		return weekdayError(d, "lunch_end", "must not be after day_end")
	}
	return nil
}

// Week is the seven weekday schedules of one resource, Monday first.
type Week [7]WeekdaySchedule

func (w Week) On(date civil.Date) WeekdaySchedule {
	return w[WeekdayOf(date)]
}

// Validate returns every weekday error combined. Callers that can continue
// should use Sanitize instead.
func (w Week) Validate() error {
	var err error
	for i, s := range w {
		err = multierr.Append(err, s.Validate(Weekday(i)))
	}
	return err
}

// Sanitize disables every weekday that fails validation and returns the
// combined errors for those days.
func (w Week) Sanitize() (Week, error) {
	var err error
	for i, s := range w {
		if dayErr := s.Validate(Weekday(i)); dayErr != nil {
			w[i] = WeekdaySchedule{}
			err = multierr.Append(err, dayErr)
		}
	}
	return w, err
}

// NewWeek builds a Week from the configured days. Absent weekdays are
// disabled and reported.
func NewWeek(days map[Weekday]WeekdaySchedule) (Week, error) {
	var (
		w   Week
		err error
	)
	for d := Monday; d <= Sunday; d++ {
		s, ok := days[d]
		if !ok {
			err = multierr.Append(err, weekdayError(d, "", "missing weekday"))
			continue
		}
		w[d] = s
	}
	return w, err
}

// DefaultWeek is Monday to Friday 07:00-16:30 with lunch 12:00-12:30.
func DefaultWeek() Week {
	var w Week
	for d := Monday; d <= Friday; d++ {
		lunchStart := civil.Time{Hour: 12}
		lunchEnd := civil.Time{Hour: 12, Minute: 30}
		w[d] = WeekdaySchedule{
			Enabled:    true,
			DayStart:   civil.Time{Hour: 7},
			DayEnd:     civil.Time{Hour: 16, Minute: 30},
			LunchStart: &lunchStart,
			LunchEnd:   &lunchEnd,
		}
	}
	return w
}
