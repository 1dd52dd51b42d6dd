package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusBusy        Status = "busy"
	StatusOffSchedule Status = "off_schedule"
)

// StatusAt looks up the slot starting at date and time of day.
func StatusAt(slots []Slot, date civil.Date, tod civil.Time) Status {
	for _, s := range slots {
		if s.Date() == date && s.TimeOfDay() == tod {
			if s.Available {
				return StatusAvailable
			}
			return StatusBusy
		}
	}
	return StatusOffSchedule
}

// WeekView is one calendar page of the availability grid.
type WeekView struct {
	Start    civil.Date
	Previous civil.Date
	Next     civil.Date
	Dates    []civil.Date
}

// NewWeekView pages to the week holding anchor. Dates keeps only the days of
// that week listed in limits.
func NewWeekView(anchor civil.Date, weekStart time.Weekday, limits Limits) WeekView {
	start := StartOfWeek(anchor, weekStart)
	end := start.AddDays(6)
	v := WeekView{
		Start:    start,
		Previous: start.AddDays(-7),
		Next:     start.AddDays(7),
	}
	for _, d := range limits.Dates {
		if !d.Before(start) && !d.After(end) {
			v.Dates = append(v.Dates, d)
		}
	}
	return v
}
