package availability

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(loc *time.Location, d civil.Date, h, m int, available bool) Slot {
	start := schedule.At(d, civil.Time{Hour: h, Minute: m}, loc)
	return Slot{Start: start, End: start.Add(20 * time.Minute), Available: available}
}

func TestSummarize_GridSpansGlobalMinMax(t *testing.T) {
	loc := la(t)
	tuesday := monday.AddDays(1)
	slots := []Slot{
		slotAt(loc, monday, 9, 0, true),
		slotAt(loc, monday, 10, 30, true),
		slotAt(loc, tuesday, 8, 0, true),
		slotAt(loc, tuesday, 9, 30, true),
	}

	lim := Summarize(slots, 30*time.Minute, false)
	assert.Equal(t, []civil.Date{monday, tuesday}, lim.Dates)

	var times []string
	for _, tt := range lim.Times {
		times = append(times, schedule.FormatTimeOfDay(tt))
	}
	assert.Equal(t, []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30"}, times)
}

func TestSummarize_AvailableOnly(t *testing.T) {
	loc := la(t)
	tuesday := monday.AddDays(1)
	slots := []Slot{
		slotAt(loc, monday, 9, 0, false),
		slotAt(loc, tuesday, 9, 0, true),
		slotAt(loc, tuesday, 9, 30, false),
	}

	lim := Summarize(slots, 30*time.Minute, true)
	assert.Equal(t, []civil.Date{tuesday}, lim.Dates)
	assert.Equal(t, []civil.Time{{Hour: 9}}, lim.Times)

	all := Summarize(slots, 30*time.Minute, false)
	assert.Equal(t, []civil.Date{monday, tuesday}, all.Dates)
	assert.Len(t, all.Times, 2)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Limits{}, Summarize(nil, 30*time.Minute, false))

	loc := la(t)
	none := []Slot{slotAt(loc, monday, 9, 0, false)}
	lim := Summarize(none, 30*time.Minute, true)
	assert.Empty(t, lim.Dates)
	assert.Empty(t, lim.Times)
}

func TestSummarize_NonPositiveIntervalListsObservedTimes(t *testing.T) {
	loc := la(t)
	slots := []Slot{
		slotAt(loc, monday, 10, 0, true),
		slotAt(loc, monday, 8, 15, true),
		slotAt(loc, monday.AddDays(1), 10, 0, true),
	}
	lim := Summarize(slots, 0, false)
	assert.Equal(t, []civil.Time{{Hour: 8, Minute: 15}, {Hour: 10}}, lim.Times)
}

func TestIsBookingOpen(t *testing.T) {
	start := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 31, 17, 0, 0, 0, time.UTC)

	p := schedule.DefaultPolicy()
	assert.True(t, IsBookingOpen(p, start.Add(-1000*time.Hour)))

	p.BookingStart = &start
	p.BookingEnd = &end
	assert.True(t, IsBookingOpen(p, start))
	assert.True(t, IsBookingOpen(p, end))
	assert.False(t, IsBookingOpen(p, start.Add(-time.Nanosecond)))
	assert.False(t, IsBookingOpen(p, end.Add(time.Nanosecond)))

	p.BookingStart = nil
	assert.True(t, IsBookingOpen(p, start.Add(-1000*time.Hour)))
	assert.False(t, IsBookingOpen(p, end.Add(time.Second)))
}

func TestDefaultRange(t *testing.T) {
	loc := la(t)
	thursday := time.Date(2026, 10, 15, 10, 0, 0, 0, loc)

	p := schedule.DefaultPolicy()
	from, to := DefaultRange(p, loc, thursday)
	assert.Equal(t, monday, from)
	assert.Equal(t, monday.AddDays(35), to)

	p.WeekStart = time.Sunday
	from, _ = DefaultRange(p, loc, thursday)
	assert.Equal(t, monday.AddDays(-1), from)

	first := civil.Date{Year: 2026, Month: 11, Day: 2}
	last := civil.Date{Year: 2026, Month: 11, Day: 6}
	p.FirstDay, p.LastDay = &first, &last
	from, to = DefaultRange(p, loc, thursday)
	assert.Equal(t, first, from)
	assert.Equal(t, last, to)
}

func TestDefaultRange_FirstDayOnly(t *testing.T) {
	loc := la(t)
	thursday := time.Date(2026, 10, 15, 10, 0, 0, 0, loc)

	// A future first day moves the rolling window with it.
	p := schedule.DefaultPolicy()
	first := civil.Date{Year: 2027, Month: 3, Day: 1}
	p.FirstDay = &first
	from, to := DefaultRange(p, loc, thursday)
	assert.Equal(t, first, from)
	assert.Equal(t, first.AddDays(35), to)

	// A past first day does not reach back before this week.
	past := civil.Date{Year: 2026, Month: 1, Day: 5}
	p.FirstDay = &past
	from, to = DefaultRange(p, loc, thursday)
	assert.Equal(t, monday, from)
	assert.Equal(t, monday.AddDays(35), to)
}

func TestDefaultRange_LastDayInPast(t *testing.T) {
	loc := la(t)
	thursday := time.Date(2026, 10, 15, 10, 0, 0, 0, loc)

	p := schedule.DefaultPolicy()
	last := civil.Date{Year: 2026, Month: 9, Day: 30}
	p.LastDay = &last
	from, to := DefaultRange(p, loc, thursday)
	assert.Equal(t, monday, from)
	assert.Equal(t, last, to)
	assert.True(t, to.Before(from))
}

func TestDefaultRange_UsesPolicyZone(t *testing.T) {
	loc := la(t)
	// Already Monday in UTC, still Sunday in Los Angeles.
	now := time.Date(2026, 10, 12, 3, 0, 0, 0, time.UTC)
	from, _ := DefaultRange(schedule.DefaultPolicy(), loc, now)
	assert.Equal(t, monday.AddDays(-7), from)
}

func TestBusyWindow_CoversWholeLastDay(t *testing.T) {
	loc := la(t)
	from, to := BusyWindow(monday, monday.AddDays(4), loc)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, loc), to)
}

func TestWeekViewAndStatus(t *testing.T) {
	loc := la(t)
	slots, err := Generate(schedule.DefaultWeek(), schedule.DefaultPolicy(), monday)
	require.NoError(t, err)
	busy := []Interval{{Start: schedule.At(monday, civil.Time{Hour: 9}, loc), End: schedule.At(monday, civil.Time{Hour: 9, Minute: 30}, loc)}}
	resolved := Resolve(slots, busy)

	assert.Equal(t, StatusBusy, StatusAt(resolved, monday, civil.Time{Hour: 9}))
	assert.Equal(t, StatusAvailable, StatusAt(resolved, monday, civil.Time{Hour: 9, Minute: 30}))
	assert.Equal(t, StatusOffSchedule, StatusAt(resolved, monday, civil.Time{Hour: 12}))
	assert.Equal(t, StatusOffSchedule, StatusAt(resolved, monday.AddDays(1), civil.Time{Hour: 9}))

	lim := Limits{Dates: []civil.Date{monday.AddDays(-1), monday, monday.AddDays(4), monday.AddDays(7)}}
	v := NewWeekView(monday.AddDays(3), time.Monday, lim)
	assert.Equal(t, monday, v.Start)
	assert.Equal(t, monday.AddDays(-7), v.Previous)
	assert.Equal(t, monday.AddDays(7), v.Next)
	assert.Equal(t, []civil.Date{monday, monday.AddDays(4)}, v.Dates)

	v = NewWeekView(monday.AddDays(3), time.Sunday, lim)
	assert.Equal(t, monday.AddDays(-1), v.Start)
	assert.Equal(t, []civil.Date{monday.AddDays(-1), monday, monday.AddDays(4)}, v.Dates)
}
