package availability

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"

	_ "time/tzdata"
)

var monday = civil.Date{Year: 2026, Month: 10, Day: 12}

func la(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func tod(h, m int) *civil.Time { return &civil.Time{Hour: h, Minute: m} }

func plainWeek(start, end civil.Time) schedule.Week {
	var w schedule.Week
	for d := schedule.Monday; d <= schedule.Sunday; d++ {
		w[d] = schedule.WeekdaySchedule{Enabled: true, DayStart: start, DayEnd: end}
	}
	return w
}

func policy(interval, duration int) schedule.Policy {
	p := schedule.DefaultPolicy()
	p.IntervalMinutes = interval
	p.DurationMinutes = duration
	return p
}

func TestGenerate_CountWithoutLunch(t *testing.T) {
	cases := []struct {
		start, end         civil.Time
		interval, duration int
		want               int
	}{
		{*tod(9, 0), *tod(10, 0), 15, 15, 4},
		{*tod(9, 0), *tod(10, 0), 30, 20, 2},
		{*tod(9, 0), *tod(9, 50), 30, 20, 2},
		{*tod(9, 0), *tod(9, 49), 30, 20, 1},
		{*tod(7, 0), *tod(16, 30), 30, 20, 19},
		{*tod(9, 0), *tod(9, 10), 30, 20, 0},
	}
	for _, tc := range cases {
		slots, err := Generate(plainWeek(tc.start, tc.end), policy(tc.interval, tc.duration), monday)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		// floor((end - start - duration) / interval) + 1 when end - start >= duration
		span := schedule.Seconds(tc.end)/60 - schedule.Seconds(tc.start)/60
		want := 0
		if span >= tc.duration {
			want = (span-tc.duration)/tc.interval + 1
		}
		if want != tc.want || len(slots) != want {
			t.Fatalf("%s-%s/%d/%d: expected %d slots, got %d", tc.start, tc.end, tc.interval, tc.duration, tc.want, len(slots))
		}
	}
}

func TestGenerate_SlotShape(t *testing.T) {
	loc := la(t)
	slots, err := Generate(schedule.DefaultWeek(), policy(30, 20), monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, s := range slots {
		if s.End.Sub(s.Start) != 20*time.Minute {
			t.Fatalf("slot %d: expected 20m, got %s", i, s.End.Sub(s.Start))
		}
		if s.Start.Location().String() != loc.String() {
			t.Fatalf("slot %d: expected zone %s, got %s", i, loc, s.Start.Location())
		}
		if i > 0 && !slots[i-1].Start.Before(s.Start) {
			t.Fatalf("slots out of order at %d", i)
		}
	}
	if got := slots[0].Start; !got.Equal(time.Date(2026, 10, 12, 7, 0, 0, 0, loc)) {
		t.Fatalf("expected first slot 07:00, got %s", got)
	}
	last := slots[len(slots)-1]
	if !last.Start.Equal(time.Date(2026, 10, 12, 16, 0, 0, 0, loc)) {
		t.Fatalf("expected last slot 16:00, got %s", last.Start)
	}
}

func TestGenerate_DisabledWeekday(t *testing.T) {
	sunday := monday.AddDays(6)
	slots, err := Generate(schedule.DefaultWeek(), policy(30, 20), sunday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on sunday, got %d", len(slots))
	}
}

func TestGenerate_OutsideSchedulingWindow(t *testing.T) {
	p := policy(30, 20)
	first := monday.AddDays(1)
	p.FirstDay = &first
	slots, err := Generate(schedule.DefaultWeek(), p, monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots before first day, got %d", len(slots))
	}
	slots, _ = Generate(schedule.DefaultWeek(), p, first)
	if len(slots) == 0 {
		t.Fatalf("expected slots on first day")
	}
}

func TestGenerate_LunchExclusion(t *testing.T) {
	loc := la(t)
	w := plainWeek(*tod(11, 0), *tod(14, 0))
	w[schedule.Monday].LunchStart = tod(12, 0)
	w[schedule.Monday].LunchEnd = tod(13, 0)

	slots, err := Generate(w, policy(30, 30), monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var starts []string
	for _, s := range slots {
		starts = append(starts, s.Start.In(loc).Format("15:04"))
		if s.End.After(time.Date(2026, 10, 12, 12, 0, 0, 0, loc)) && s.Start.Before(time.Date(2026, 10, 12, 13, 0, 0, 0, loc)) {
			t.Fatalf("slot %s overlaps lunch", s.Start)
		}
	}
	want := []string{"11:00", "11:30", "13:00", "13:30"}
	if len(starts) != len(want) {
		t.Fatalf("expected %v, got %v", want, starts)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, starts)
		}
	}
}

func TestGenerate_DSTDay(t *testing.T) {
	// 2026-11-01 is the fall-back day in Los Angeles.
	sunday := civil.Date{Year: 2026, Month: 11, Day: 1}
	w := plainWeek(*tod(0, 0), *tod(4, 0))
	slots, err := Generate(w, policy(60, 60), sunday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// The wall-clock window is five hours long on this day.
	if len(slots) != 5 {
		t.Fatalf("expected 5 hourly slots across the repeated hour, got %d", len(slots))
	}
}

func TestGenerate_BadWeekdayDegrades(t *testing.T) {
	w := schedule.DefaultWeek()
	w[schedule.Tuesday].DayEnd = civil.Time{Hour: 6}

	slots, err := Generate(w, policy(30, 20), monday)
	var cfgErr *schedule.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("expected monday to keep its 18 slots, got %d", len(slots))
	}

	slots, _ = Generate(w, policy(30, 20), monday.AddDays(1))
	if len(slots) != 0 {
		t.Fatalf("expected tuesday to be empty, got %d", len(slots))
	}
}

func TestGenerate_BadPolicyAborts(t *testing.T) {
	slots, err := Generate(schedule.DefaultWeek(), policy(20, 30), monday)
	var cfgErr *schedule.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Scope != "policy" {
		t.Fatalf("expected policy configuration error, got %v", err)
	}
	if slots != nil {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestGenerateRange(t *testing.T) {
	slots, err := GenerateRange(schedule.DefaultWeek(), policy(30, 20), monday, monday.AddDays(6))
	if err != nil {
		t.Fatalf("generate range: %v", err)
	}
	if len(slots) != 5*18 {
		t.Fatalf("expected %d slots, got %d", 5*18, len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Start.Before(slots[i].Start) {
			t.Fatalf("range out of order at %d", i)
		}
	}

	if _, err := GenerateRange(schedule.DefaultWeek(), policy(30, 20), monday, monday.AddDays(-1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestResolve_OverlapBoundary(t *testing.T) {
	loc := la(t)
	at := func(h, m int) time.Time { return time.Date(2026, 10, 12, h, m, 0, 0, loc) }
	busy := []Interval{{Start: at(9, 0), End: at(10, 0)}}
	slots := []Slot{
		{Start: at(8, 0), End: at(9, 0)},
		{Start: at(8, 30), End: at(9, 30)},
		{Start: at(10, 0), End: at(10, 30)},
		{Start: at(9, 15), End: at(9, 45)},
	}

	got := Resolve(slots, busy)
	want := []bool{true, false, true, false}
	for i := range want {
		if got[i].Available != want[i] {
			t.Fatalf("slot %s: expected available=%v", got[i].Start.Format("15:04"), want[i])
		}
	}
	if slots[0].Available {
		t.Fatalf("resolve must not mutate its input")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	loc := la(t)
	slots, _ := Generate(schedule.DefaultWeek(), policy(30, 20), monday)
	busy := []Interval{{Start: time.Date(2026, 10, 12, 9, 0, 0, 0, loc), End: time.Date(2026, 10, 12, 11, 0, 0, 0, loc)}}

	once := Resolve(slots, busy)
	twice := Resolve(once, busy)
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("slot %d changed on second resolve", i)
		}
	}
}

func TestEndToEnd_MondayScenario(t *testing.T) {
	loc := la(t)
	slots, err := Generate(schedule.DefaultWeek(), policy(30, 20), monday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 19 grid candidates, the 12:00 one falls in lunch.
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}

	busy := []Interval{{Start: time.Date(2026, 10, 12, 9, 0, 0, 0, loc), End: time.Date(2026, 10, 12, 9, 30, 0, 0, loc)}}
	resolved := Resolve(slots, busy)

	var unavailable []Slot
	for _, s := range resolved {
		if !s.Available {
			unavailable = append(unavailable, s)
		}
	}
	if len(unavailable) != 1 {
		t.Fatalf("expected exactly one unavailable slot, got %d", len(unavailable))
	}
	if !unavailable[0].Start.Equal(time.Date(2026, 10, 12, 9, 0, 0, 0, loc)) || !unavailable[0].End.Equal(time.Date(2026, 10, 12, 9, 20, 0, 0, loc)) {
		t.Fatalf("expected 09:00-09:20 unavailable, got %s-%s", unavailable[0].Start, unavailable[0].End)
	}

	lim := Summarize(resolved, 30*time.Minute, true)
	if len(lim.Dates) != 1 || lim.Dates[0] != monday {
		t.Fatalf("expected dates [%s], got %v", monday, lim.Dates)
	}
}
