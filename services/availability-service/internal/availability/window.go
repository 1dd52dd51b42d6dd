package availability

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
)

// RollingWeeks is the length of the default query window.
const RollingWeeks = 5

// StartOfWeek snaps d back to the most recent weekStart.
func StartOfWeek(d civil.Date, weekStart time.Weekday) civil.Date {
	wd := d.In(time.UTC).Weekday()
	back := (int(wd) - int(weekStart) + 7) % 7
	return d.AddDays(-back)
}

// DefaultRange is the window used when a caller gives no dates. It starts
// at the later of the first scheduled day and the first day of the current
// week in the policy's zone, and runs RollingWeeks from there unless the last
// scheduled day ends it. to is before from once the scheduling window has
// closed.
func DefaultRange(policy schedule.Policy, loc *time.Location, now time.Time) (from, to civil.Date) {
	from = StartOfWeek(civil.DateOf(now.In(loc)), policy.WeekStart)
	if policy.FirstDay != nil && policy.FirstDay.After(from) {
		from = *policy.FirstDay
	}
	to = from.AddDays(RollingWeeks * 7)
	if policy.LastDay != nil {
		to = *policy.LastDay
	}
	return from, to
}

// BusyWindow returns the instants covering whole days [from, to] in loc.
func BusyWindow(from, to civil.Date, loc *time.Location) (time.Time, time.Time) {
	return from.In(loc), to.AddDays(1).In(loc)
}
