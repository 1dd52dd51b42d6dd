package booking

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
)

type DayColumn struct {
	Date     civil.Date
	Statuses []availability.Status
}

// WeekPage is the calendar grid of one week: a column per bookable date and
// a row per time on the limits grid.
type WeekPage struct {
	View      availability.WeekView
	Times     []civil.Time
	Days      []DayColumn
	ConfigErr error
}

// Week renders the week holding anchor. Without an anchor it opens on the
// first date that has slots in the default range, or today.
func (s *Service) Week(ctx context.Context, resourceID string, anchor *civil.Date) (*WeekPage, error) {
	if anchor == nil {
		res, err := s.Query(ctx, resourceID, nil, nil)
		if err != nil {
			return nil, err
		}
		a := civil.DateOf(s.now().In(res.Location))
		if lim := res.Limits(false); len(lim.Dates) > 0 {
			a = lim.Dates[0]
		}
		anchor = &a
	}

	policy, err := s.policy(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	start := availability.StartOfWeek(*anchor, policy.WeekStart)
	end := start.AddDays(6)

	res, err := s.Query(ctx, resourceID, &start, &end)
	if err != nil {
		return nil, err
	}
	lim := res.Limits(false)

	page := &WeekPage{
		View:      availability.NewWeekView(*anchor, res.Policy.WeekStart, lim),
		Times:     lim.Times,
		ConfigErr: res.ConfigErr,
	}
	for _, d := range page.View.Dates {
		col := DayColumn{Date: d}
		for _, t := range lim.Times {
			col.Statuses = append(col.Statuses, availability.StatusAt(res.Slots, d, t))
		}
		page.Days = append(page.Days, col)
	}
	return page, nil
}
