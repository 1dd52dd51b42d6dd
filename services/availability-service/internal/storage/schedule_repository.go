package storage

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/md-rashed-zaman/conferences/libs/db"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
	"go.uber.org/multierr"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// GetBookingPolicy returns ErrNotFound for unknown resources.
func (r *ScheduleRepository) GetBookingPolicy(ctx context.Context, resourceID string) (schedule.Policy, error) {
	var (
		p                        schedule.Policy
		firstDay, lastDay        pgtype.Date
		bookingStart, bookingEnd pgtype.Timestamptz
		noticeMinutes, weekStart int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT timezone, calendar_id, interval_minutes, duration_minutes,
			first_day_scheduled, last_day_scheduled, booking_start, booking_end,
			minimum_notice_minutes, week_start
		FROM resources
		WHERE id = $1
	`, resourceID).Scan(
		&p.Timezone,
		&p.CalendarID,
		&p.IntervalMinutes,
		&p.DurationMinutes,
		&firstDay,
		&lastDay,
		&bookingStart,
		&bookingEnd,
		&noticeMinutes,
		&weekStart,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Policy{}, ErrNotFound
	}
	if err != nil {
		return schedule.Policy{}, err
	}
	p.FirstDay = dateOrNil(firstDay)
	p.LastDay = dateOrNil(lastDay)
	p.BookingStart = timeOrNil(bookingStart)
	p.BookingEnd = timeOrNil(bookingEnd)
	p.MinimumNotice = time.Duration(noticeMinutes) * time.Minute
	p.WeekStart = time.Weekday(weekStart)
	return p, nil
}

// GetWeekdaySchedules loads the seven weekday rows. A resource with no rows
// gets schedule.DefaultWeek. Rows that cannot be read as times of day, and
// weekdays without a row, come back disabled together with a
// *schedule.ConfigurationError; the Week is usable in that case.
func (r *ScheduleRepository) GetWeekdaySchedules(ctx context.Context, resourceID string) (schedule.Week, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_enabled, start_minute, end_minute, lunch_start_minute, lunch_end_minute
		FROM resource_weekday_schedules
		WHERE resource_id = $1
		ORDER BY weekday ASC
	`, resourceID)
	if err != nil {
		return schedule.Week{}, err
	}
	defer rows.Close()

	var (
		days    = map[schedule.Weekday]schedule.WeekdaySchedule{}
		cfgErrs error
		seen    int
	)
	for rows.Next() {
		var (
			weekday, startMin, endMin int
			enabled                   bool
			lunchStart, lunchEnd      *int
		)
		if err := rows.Scan(&weekday, &enabled, &startMin, &endMin, &lunchStart, &lunchEnd); err != nil {
			return schedule.Week{}, err
		}
		seen++
		d := schedule.Weekday(weekday)
		if !d.Valid() {
			continue
		}
		day, err := weekdayFromMinutes(d, enabled, startMin, endMin, lunchStart, lunchEnd)
		if err != nil {
			cfgErrs = multierr.Append(cfgErrs, err)
			days[d] = schedule.WeekdaySchedule{}
			continue
		}
		days[d] = day
	}
	if err := rows.Err(); err != nil {
		return schedule.Week{}, err
	}
	if seen == 0 {
		return schedule.DefaultWeek(), nil
	}

	week, missing := schedule.NewWeek(days)
	return week, multierr.Append(cfgErrs, missing)
}

func weekdayFromMinutes(d schedule.Weekday, enabled bool, startMin, endMin int, lunchStart, lunchEnd *int) (schedule.WeekdaySchedule, error) {
	day := schedule.WeekdaySchedule{Enabled: enabled}
	var err error
	if day.DayStart, err = schedule.FromMinutes(startMin); err != nil {
		return day, &schedule.ConfigurationError{Scope: d.String(), Field: "day_start", Reason: err.Error()}
	}
	if day.DayEnd, err = schedule.FromMinutes(endMin); err != nil {
		return day, &schedule.ConfigurationError{Scope: d.String(), Field: "day_end", Reason: err.Error()}
	}
	if lunchStart != nil {
		t, err := schedule.FromMinutes(*lunchStart)
		if err != nil {
			return day, &schedule.ConfigurationError{Scope: d.String(), Field: "lunch_start", Reason: err.Error()}
		}
		day.LunchStart = &t
	}
	if lunchEnd != nil {
		t, err := schedule.FromMinutes(*lunchEnd)
		if err != nil {
			return day, &schedule.ConfigurationError{Scope: d.String(), Field: "lunch_end", Reason: err.Error()}
		}
		day.LunchEnd = &t
	}
	return day, nil
}

// SaveSchedule replaces the policy and all seven weekday rows of a resource.
func (r *ScheduleRepository) SaveSchedule(ctx context.Context, resourceID string, p schedule.Policy, week schedule.Week) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO resources
				(id, timezone, calendar_id, interval_minutes, duration_minutes,
				 first_day_scheduled, last_day_scheduled, booking_start, booking_end,
				 minimum_notice_minutes, week_start)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE
			SET timezone = EXCLUDED.timezone,
				calendar_id = EXCLUDED.calendar_id,
				interval_minutes = EXCLUDED.interval_minutes,
				duration_minutes = EXCLUDED.duration_minutes,
				first_day_scheduled = EXCLUDED.first_day_scheduled,
				last_day_scheduled = EXCLUDED.last_day_scheduled,
				booking_start = EXCLUDED.booking_start,
				booking_end = EXCLUDED.booking_end,
				minimum_notice_minutes = EXCLUDED.minimum_notice_minutes,
				week_start = EXCLUDED.week_start,
				updated_at = now()
		`, resourceID, p.Timezone, p.CalendarID, p.IntervalMinutes, p.DurationMinutes,
			dateParam(p.FirstDay), dateParam(p.LastDay), p.BookingStart, p.BookingEnd,
			int(p.MinimumNotice/time.Minute), int(p.WeekStart))
		if err != nil {
			return err
		}

		for i, day := range week {
			_, err := tx.Exec(ctx, `
				INSERT INTO resource_weekday_schedules
					(resource_id, weekday, is_enabled, start_minute, end_minute, lunch_start_minute, lunch_end_minute)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (resource_id, weekday) DO UPDATE
				SET is_enabled = EXCLUDED.is_enabled,
					start_minute = EXCLUDED.start_minute,
					end_minute = EXCLUDED.end_minute,
					lunch_start_minute = EXCLUDED.lunch_start_minute,
					lunch_end_minute = EXCLUDED.lunch_end_minute
			`, resourceID, i, day.Enabled, schedule.Minutes(day.DayStart), schedule.Minutes(day.DayEnd),
				minutesParam(day.LunchStart), minutesParam(day.LunchEnd))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func dateOrNil(d pgtype.Date) *civil.Date {
	if !d.Valid {
		return nil
	}
	cd := civil.DateOf(d.Time)
	return &cd
}

func timeOrNil(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func dateParam(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func minutesParam(t *civil.Time) *int {
	if t == nil {
		return nil
	}
	m := schedule.Minutes(*t)
	return &m
}
