package availability

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
)

// Limits bounds a slot list for navigation: the dates that have slots and
// the grid of times of day between the earliest and latest slot.
type Limits struct {
	Dates []civil.Date
	Times []civil.Time
}

// Summarize expects slots ordered by start. The times grid steps by interval
// from the earliest to the latest time of day; when interval is not positive
// it lists the distinct observed times instead.
func Summarize(slots []Slot, interval time.Duration, availableOnly bool) Limits {
	var (
		lim      Limits
		first    = true
		lastDate civil.Date
		lo, hi   int
		observed = map[int]civil.Time{}
	)
	for _, s := range slots {
		if availableOnly && !s.Available {
			continue
		}
		d := s.Date()
		if first || d != lastDate {
			lim.Dates = append(lim.Dates, d)
		}
		lastDate = d

		tod := s.TimeOfDay()
		sec := schedule.Seconds(tod)
		observed[sec] = tod
		if first || sec < lo {
			lo = sec
		}
		if first || sec > hi {
			hi = sec
		}
		first = false
	}
	if first {
		return Limits{}
	}

	step := int(interval / time.Second)
	if step <= 0 {
		keys := make([]int, 0, len(observed))
		for k := range observed {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			lim.Times = append(lim.Times, observed[k])
		}
		return lim
	}
	for sec := lo; sec <= hi; sec += step {
		lim.Times = append(lim.Times, civil.Time{Hour: sec / 3600, Minute: sec % 3600 / 60, Second: sec % 60})
	}
	return lim
}

// IsBookingOpen reports whether now falls in the policy's booking window.
// Both bounds are inclusive and a nil bound is unconstrained.
func IsBookingOpen(policy schedule.Policy, now time.Time) bool {
	if policy.BookingStart != nil && now.Before(*policy.BookingStart) {
		return false
	}
	if policy.BookingEnd != nil && now.After(*policy.BookingEnd) {
		return false
	}
	return true
}
