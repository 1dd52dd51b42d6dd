package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const googleSource = "google_calendar"

// GoogleOracle reads busy time from Google Calendar events.
type GoogleOracle struct {
	svc      *gcal.Service
	logger   *zap.Logger
	pageSize int64
}

// NewGoogleOracle builds the Calendar client. In production pass
// option.WithCredentialsFile with a service account that can read the
// resources' calendars.
func NewGoogleOracle(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*GoogleOracle, error) {
	opts = append([]option.ClientOption{option.WithScopes(gcal.CalendarReadonlyScope)}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}
	return &GoogleOracle{svc: svc, logger: logger, pageSize: 250}, nil
}

// ListBusy expands recurring events, follows every result page and drops
// events marked transparent.
func (o *GoogleOracle) ListBusy(ctx context.Context, q BusyQuery) ([]availability.Interval, error) {
	if q.CalendarID == "" {
		return nil, &CollaboratorError{Source: googleSource, Err: errors.New("calendar id is empty")}
	}
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return nil, &CollaboratorError{Source: googleSource, Err: fmt.Errorf("timezone %q: %w", q.Timezone, err)}
	}

	var (
		busy  []availability.Interval
		token string
		pages int
	)
	for {
		call := o.svc.Events.List(q.CalendarID).
			TimeMin(q.From.Format(time.RFC3339)).
			TimeMax(q.To.Format(time.RFC3339)).
			TimeZone(q.Timezone).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(o.pageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		res, err := call.Do()
		if err != nil {
			return nil, &CollaboratorError{Source: googleSource, Err: err}
		}
		pages++

		for _, ev := range res.Items {
			if ev.Transparency == "transparent" || ev.Status == "cancelled" {
				continue
			}
			iv, err := eventInterval(ev, loc)
			if err != nil {
				return nil, &CollaboratorError{Source: googleSource, Err: fmt.Errorf("event %s: %w", ev.Id, err)}
			}
			busy = append(busy, iv)
		}

		token = res.NextPageToken
		if token == "" {
			break
		}
	}

	o.logger.Debug("calendar busy fetched",
		zap.String("resource_id", q.ResourceID),
		zap.String("calendar_id", q.CalendarID),
		zap.Int("pages", pages),
		zap.Int("busy", len(busy)),
	)
	return busy, nil
}

// All-day events carry dates only and span whole days in loc; the end date
// is exclusive.
func eventInterval(ev *gcal.Event, loc *time.Location) (availability.Interval, error) {
	start, err := eventTime(ev.Start, loc)
	if err != nil {
		return availability.Interval{}, fmt.Errorf("start: %w", err)
	}
	end, err := eventTime(ev.End, loc)
	if err != nil {
		return availability.Interval{}, fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		return availability.Interval{}, errors.New("end before start")
	}
	return availability.Interval{Start: start, End: end}, nil
}

func eventTime(dt *gcal.EventDateTime, loc *time.Location) (time.Time, error) {
	if dt == nil {
		return time.Time{}, errors.New("missing time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	if dt.Date != "" {
		d, err := civil.ParseDate(dt.Date)
		if err != nil {
			return time.Time{}, err
		}
		return d.In(loc), nil
	}
	return time.Time{}, errors.New("event has neither date nor dateTime")
}
