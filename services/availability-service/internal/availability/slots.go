package availability

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
)

var ErrInvalidRange = errors.New("availability: range end is before range start")

// Interval is a half-open busy span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is one bookable appointment. Start is in the policy's zone.
type Slot struct {
	Start     time.Time
	End       time.Time
	Available bool
}

func (s Slot) Date() civil.Date { return civil.DateOf(s.Start) }

func (s Slot) TimeOfDay() civil.Time { return civil.TimeOf(s.Start) }

// Generator produces candidate slots for one resource.
type Generator struct {
	week     schedule.Week
	policy   schedule.Policy
	loc      *time.Location
	interval time.Duration
	duration time.Duration
}

// NewGenerator validates the policy and the week. A policy error returns a
// nil Generator. Weekday errors disable those weekdays; the Generator is
// still returned together with the combined errors.
func NewGenerator(week schedule.Week, policy schedule.Policy) (*Generator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	loc, err := policy.Location()
	if err != nil {
		return nil, err
	}
	clean, weekErr := week.Sanitize()
	return &Generator{
		week:     clean,
		policy:   policy,
		loc:      loc,
		interval: policy.Interval(),
		duration: policy.Duration(),
	}, weekErr
}

func (g *Generator) Location() *time.Location { return g.loc }

func (g *Generator) Policy() schedule.Policy { return g.policy }

// Day returns the slots of one date ordered by start. Lunch overlaps are
// dropped and the trailing gap is never filled with a shorter slot.
func (g *Generator) Day(date civil.Date) []Slot {
	if !g.policy.InWindow(date) {
		return nil
	}
	day := g.week.On(date)
	if !day.Enabled {
		return nil
	}

	dayStart := schedule.At(date, day.DayStart, g.loc)
	dayEnd := schedule.At(date, day.DayEnd, g.loc)
	var lunchStart, lunchEnd time.Time
	if day.HasLunch() {
		lunchStart = schedule.At(date, *day.LunchStart, g.loc)
		lunchEnd = schedule.At(date, *day.LunchEnd, g.loc)
	}

	var slots []Slot
	for t := dayStart; ; t = t.Add(g.interval) {
		end := t.Add(g.duration)
		if end.After(dayEnd) {
			break
		}
		if day.HasLunch() && end.After(lunchStart) && t.Before(lunchEnd) {
			continue
		}
		slots = append(slots, Slot{Start: t, End: end})
	}
	return slots
}

// Range concatenates Day over [from, to] inclusive.
func (g *Generator) Range(from, to civil.Date) ([]Slot, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	var slots []Slot
	for d := from; !d.After(to); d = d.AddDays(1) {
		slots = append(slots, g.Day(d)...)
	}
	return slots, nil
}

// Generate returns the slots of one date. Slots are returned alongside a
// weekday configuration error so other weekdays keep working.
func Generate(week schedule.Week, policy schedule.Policy, date civil.Date) ([]Slot, error) {
	g, err := NewGenerator(week, policy)
	if g == nil {
		return nil, err
	}
	return g.Day(date), err
}

func GenerateRange(week schedule.Week, policy schedule.Policy, from, to civil.Date) ([]Slot, error) {
	g, err := NewGenerator(week, policy)
	if g == nil {
		return nil, err
	}
	slots, rangeErr := g.Range(from, to)
	if rangeErr != nil {
		return nil, rangeErr
	}
	return slots, err
}

// Resolve returns a copy of slots with Available set. A slot is unavailable
// when it overlaps any busy interval; touching endpoints do not overlap.
func Resolve(slots []Slot, busy []Interval) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		s.Available = !overlapsAny(s.Start, s.End, busy)
		out[i] = s
	}
	return out
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
