package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/md-rashed-zaman/conferences/libs/httpx"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
	"go.uber.org/multierr"
)

type weekdayRequest struct {
	Enabled    bool   `json:"enabled"`
	DayStart   string `json:"day_start" validate:"required,time_of_day"`
	DayEnd     string `json:"day_end" validate:"required,time_of_day"`
	LunchStart string `json:"lunch_start" validate:"omitempty,time_of_day"`
	LunchEnd   string `json:"lunch_end" validate:"omitempty,time_of_day"`
}

type policyRequest struct {
	Timezone           string     `json:"timezone" validate:"required"`
	CalendarID         string     `json:"calendar_id"`
	IntervalMinutes    int        `json:"interval_minutes" validate:"required,gt=0,lte=1440"`
	DurationMinutes    int        `json:"duration_minutes" validate:"required,gt=0,lte=1440"`
	FirstDayScheduled  string     `json:"first_day_scheduled" validate:"omitempty,civil_date"`
	LastDayScheduled   string     `json:"last_day_scheduled" validate:"omitempty,civil_date"`
	BookingStart       *time.Time `json:"booking_start"`
	BookingEnd         *time.Time `json:"booking_end"`
	MinimumNoticeHours *int       `json:"minimum_notice_hours" validate:"omitempty,gte=0"`
	WeekStart          string     `json:"week_start" validate:"omitempty,oneof=monday sunday"`
}

type scheduleRequest struct {
	Policy   policyRequest             `json:"policy"`
	Weekdays map[string]weekdayRequest `json:"weekdays" validate:"dive,keys,oneof=monday tuesday wednesday thursday friday saturday sunday,endkeys"`
}

// PutSchedule replaces a resource's policy and weekly hours. Weekdays left
// out of the body are disabled.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	policy, week, err := req.toModel()
	if err == nil {
		err = h.svc.SaveSchedule(r.Context(), resourceID(r), policy, week)
	}
	var cfgErr *schedule.ConfigurationError
	if errors.As(err, &cfgErr) {
		httpx.WriteError(w, r, http.StatusBadRequest, strings.Join(warnings(err), "; "))
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "save_schedule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req scheduleRequest) toModel() (schedule.Policy, schedule.Week, error) {
	p := schedule.DefaultPolicy()
	p.Timezone = strings.TrimSpace(req.Policy.Timezone)
	if id := strings.TrimSpace(req.Policy.CalendarID); id != "" {
		p.CalendarID = id
	}
	p.IntervalMinutes = req.Policy.IntervalMinutes
	p.DurationMinutes = req.Policy.DurationMinutes
	p.FirstDay = parseOptionalDate(req.Policy.FirstDayScheduled)
	p.LastDay = parseOptionalDate(req.Policy.LastDayScheduled)
	p.BookingStart = req.Policy.BookingStart
	p.BookingEnd = req.Policy.BookingEnd
	if req.Policy.MinimumNoticeHours != nil {
		p.MinimumNotice = time.Duration(*req.Policy.MinimumNoticeHours) * time.Hour
	}
	if req.Policy.WeekStart == "sunday" {
		p.WeekStart = time.Sunday
	}

	var (
		week schedule.Week
		err  error
	)
	for name, d := range req.Weekdays {
		wd, parseErr := schedule.ParseWeekday(name)
		if parseErr != nil {
			err = multierr.Append(err, &schedule.ConfigurationError{Scope: name, Reason: parseErr.Error()})
			continue
		}
		// Formats were validated above.
		day := schedule.WeekdaySchedule{Enabled: d.Enabled}
		day.DayStart, _ = schedule.ParseTimeOfDay(d.DayStart)
		day.DayEnd, _ = schedule.ParseTimeOfDay(d.DayEnd)
		if d.LunchStart != "" {
			t, _ := schedule.ParseTimeOfDay(d.LunchStart)
			day.LunchStart = &t
		}
		if d.LunchEnd != "" {
			t, _ := schedule.ParseTimeOfDay(d.LunchEnd)
			day.LunchEnd = &t
		}
		week[wd] = day
	}
	return p, week, err
}

func parseOptionalDate(s string) *civil.Date {
	if s == "" {
		return nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}
