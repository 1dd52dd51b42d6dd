package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/conferences/libs/httpx"
	"github.com/md-rashed-zaman/conferences/libs/metrics"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/booking"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/calendar"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/schedule"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Service interface {
	Query(ctx context.Context, resourceID string, from, to *civil.Date) (*booking.Result, error)
	IsBookingOpen(ctx context.Context, resourceID string) (booking.Window, error)
	Week(ctx context.Context, resourceID string, anchor *civil.Date) (*booking.WeekPage, error)
	Book(ctx context.Context, req booking.BookRequest) (storage.Booking, error)
	Cancel(ctx context.Context, resourceID, bookingID string) (storage.Booking, error)
	SaveSchedule(ctx context.Context, resourceID string, p schedule.Policy, week schedule.Week) error
}

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func New(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/resources/{resourceID}", func(r chi.Router) {
		r.Get("/slots", h.Slots)
		r.Get("/limits", h.Limits)
		r.Get("/calendar", h.Calendar)
		r.Get("/booking-window", h.BookingWindow)
		r.Put("/schedule", h.PutSchedule)
		r.Post("/bookings", h.CreateBooking)
		r.Delete("/bookings/{bookingID}", h.CancelBooking)
	})
}

type slotItem struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type slotsResponse struct {
	ResourceID string     `json:"resource_id"`
	Timezone   string     `json:"timezone"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Slots      []slotItem `json:"slots"`
	Warnings   []string   `json:"warnings,omitempty"`
}

type limitsResponse struct {
	Dates    []string `json:"dates"`
	Times    []string `json:"times"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	res, ok := h.query(w, r, "slots")
	if !ok {
		return
	}
	out := slotsResponse{
		ResourceID: res.ResourceID,
		Timezone:   res.Policy.Timezone,
		From:       res.From.String(),
		To:         res.To.String(),
		Slots:      make([]slotItem, 0, len(res.Slots)),
		Warnings:   warnings(res.ConfigErr),
	}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, slotItem{
			Start:     s.Start.Format(time.RFC3339),
			End:       s.End.Format(time.RFC3339),
			Date:      s.Date().String(),
			Time:      schedule.FormatTimeOfDay(s.TimeOfDay()),
			Available: s.Available,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	availableOnly := true
	if raw := r.URL.Query().Get("available_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "available_only must be a boolean")
			return
		}
		availableOnly = v
	}

	res, ok := h.query(w, r, "limits")
	if !ok {
		return
	}
	lim := res.Limits(availableOnly)
	httpx.WriteJSON(w, http.StatusOK, limitsResponse{
		Dates:    formatDates(lim.Dates),
		Times:    formatTimes(lim.Times),
		Warnings: warnings(res.ConfigErr),
	})
}

type dayColumn struct {
	Date     string                `json:"date"`
	Statuses []availability.Status `json:"statuses"`
}

type calendarResponse struct {
	WeekStart    string      `json:"week_start"`
	PreviousWeek string      `json:"previous_week"`
	NextWeek     string      `json:"next_week"`
	Times        []string    `json:"times"`
	Days         []dayColumn `json:"days"`
	Warnings     []string    `json:"warnings,omitempty"`
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	anchor, err := optionalDate(r, "date")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.svc.Week(r.Context(), resourceID(r), anchor)
	if err != nil {
		h.writeServiceError(w, r, "calendar", err)
		return
	}
	metrics.AvailabilityQueries.WithLabelValues("calendar", "ok").Inc()

	out := calendarResponse{
		WeekStart:    page.View.Start.String(),
		PreviousWeek: page.View.Previous.String(),
		NextWeek:     page.View.Next.String(),
		Times:        formatTimes(page.Times),
		Days:         make([]dayColumn, 0, len(page.Days)),
		Warnings:     warnings(page.ConfigErr),
	}
	for _, d := range page.Days {
		out.Days = append(out.Days, dayColumn{Date: d.Date.String(), Statuses: d.Statuses})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type bookingWindowResponse struct {
	Open               bool    `json:"open"`
	Start              *string `json:"start"`
	End                *string `json:"end"`
	MinimumNoticeHours float64 `json:"minimum_notice_hours"`
	Now                string  `json:"now"`
}

func (h *Handler) BookingWindow(w http.ResponseWriter, r *http.Request) {
	win, err := h.svc.IsBookingOpen(r.Context(), resourceID(r))
	if err != nil {
		h.writeServiceError(w, r, "booking_window", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bookingWindowResponse{
		Open:               win.Open,
		Start:              formatOptionalTime(win.Start),
		End:                formatOptionalTime(win.End),
		MinimumNoticeHours: win.MinimumNotice.Hours(),
		Now:                win.Now.Format(time.RFC3339),
	})
}

type attendeeRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Notes     string `json:"notes" validate:"max=1500"`
}

type createBookingRequest struct {
	StartTime string          `json:"start_time" validate:"required"`
	Title     string          `json:"title" validate:"max=200"`
	Attendee  attendeeRequest `json:"attendee"`
}

type bookingResponse struct {
	BookingID   string  `json:"booking_id"`
	ResourceID  string  `json:"resource_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Timezone    string  `json:"timezone"`
	Status      string  `json:"status"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b storage.Booking) bookingResponse {
	return bookingResponse{
		BookingID:   b.ID,
		ResourceID:  b.ResourceID,
		StartTime:   b.StartTime.Format(time.RFC3339),
		EndTime:     b.EndTime.Format(time.RFC3339),
		Timezone:    b.Timezone,
		Status:      b.Status,
		CancelledAt: formatOptionalTime(b.CancelledAt),
	}
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Attendee.Email = strings.TrimSpace(req.Attendee.Email)
	req.Attendee.FirstName = strings.TrimSpace(req.Attendee.FirstName)
	req.Attendee.LastName = strings.TrimSpace(req.Attendee.LastName)
	if err := validate.Struct(req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}

	b, err := h.svc.Book(r.Context(), booking.BookRequest{
		ResourceID: resourceID(r),
		Start:      start,
		Title:      strings.TrimSpace(req.Title),
		Attendee: storage.Attendee{
			FirstName: req.Attendee.FirstName,
			LastName:  req.Attendee.LastName,
			Email:     req.Attendee.Email,
			Phone:     strings.TrimSpace(req.Attendee.Phone),
			Notes:     req.Attendee.Notes,
		},
	})
	if err != nil {
		h.writeServiceError(w, r, "book", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Cancel(r.Context(), resourceID(r), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeServiceError(w, r, "cancel", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

// query runs the availability query for from/to query params.
func (h *Handler) query(w http.ResponseWriter, r *http.Request, op string) (*booking.Result, bool) {
	from, err := optionalDate(r, "from")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}

	res, err := h.svc.Query(r.Context(), resourceID(r), from, to)
	if err != nil {
		h.writeServiceError(w, r, op, err)
		return nil, false
	}
	status := "ok"
	if res.ConfigErr != nil {
		status = "degraded"
	}
	metrics.AvailabilityQueries.WithLabelValues(op, status).Inc()
	return res, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		collab *calendar.CollaboratorError
		cfgErr *schedule.ConfigurationError
		status int
		msg    = err.Error()
	)
	switch {
	case errors.Is(err, availability.ErrInvalidRange), errors.Is(err, booking.ErrRangeTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, booking.ErrResourceNotFound), errors.Is(err, booking.ErrBookingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, booking.ErrBookingClosed), errors.Is(err, booking.ErrTooLate), errors.Is(err, booking.ErrNotOnSchedule):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrSlotUnavailable):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		msg = "calendar service timed out"
	case errors.As(err, &collab):
		status = http.StatusBadGateway
		msg = "calendar service unavailable"
	case errors.As(err, &cfgErr):
		status = http.StatusInternalServerError
		msg = "resource schedule is misconfigured"
	default:
		status = http.StatusInternalServerError
		msg = "internal error"
	}

	metrics.AvailabilityQueries.WithLabelValues(op, strconv.Itoa(status)).Inc()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.String("request_id", httpx.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	httpx.WriteError(w, r, status, msg)
}

func resourceID(r *http.Request) string {
	return chi.URLParam(r, "resourceID")
}

func optionalDate(r *http.Request, key string) (*civil.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, errors.New(key + " must be YYYY-MM-DD")
	}
	return &d, nil
}

func warnings(err error) []string {
	var out []string
	for _, e := range multierr.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}

func formatDates(ds []civil.Date) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func formatTimes(ts []civil.Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, schedule.FormatTimeOfDay(t))
	}
	return out
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
