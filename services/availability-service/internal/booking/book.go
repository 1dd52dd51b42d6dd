package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/conferences/libs/metrics"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/storage"
	"go.uber.org/zap"
)

type BookRequest struct {
	ResourceID string
	Start      time.Time
	Title      string
	Attendee   storage.Attendee
}

type bookingEvent struct {
	BookingID  string `json:"booking_id"`
	ResourceID string `json:"resource_id"`
	CalendarID string `json:"calendar_id,omitempty"`
	Title      string `json:"title,omitempty"`
	FirstName  string `json:"attendee_first_name,omitempty"`
	LastName   string `json:"attendee_last_name,omitempty"`
	Email      string `json:"attendee_email,omitempty"`
	Phone      string `json:"attendee_phone,omitempty"`
	Notes      string `json:"attendee_notes,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Timezone   string `json:"timezone"`
	Status     string `json:"status"`
}

// Book reserves the slot starting at req.Start. The slot's availability is
// checked again against fresh busy data; the store's exclusion constraint
// settles races between concurrent requests.
func (s *Service) Book(ctx context.Context, req BookRequest) (storage.Booking, error) {
	b, err := s.book(ctx, req)
	metrics.Bookings.WithLabelValues(bookResult(err)).Inc()
	return b, err
}

func (s *Service) book(ctx context.Context, req BookRequest) (storage.Booking, error) {
	gen, _, err := s.generator(ctx, req.ResourceID)
	if err != nil {
		return storage.Booking{}, err
	}
	policy := gen.Policy()
	loc := gen.Location()

	now := s.now()
	if !availability.IsBookingOpen(policy, now) {
		return storage.Booking{}, ErrBookingClosed
	}
	if req.Start.Before(now.Add(policy.MinimumNotice)) {
		return storage.Booking{}, ErrTooLate
	}

	slot, ok := findSlot(gen.Day(civil.DateOf(req.Start.In(loc))), req.Start)
	if !ok {
		return storage.Booking{}, ErrNotOnSchedule
	}

	busy, err := s.listBusy(ctx, req.ResourceID, policy, slot.Start, slot.End)
	if err != nil {
		return storage.Booking{}, err
	}
	if !availability.Resolve([]availability.Slot{slot}, busy)[0].Available {
		return storage.Booking{}, ErrSlotUnavailable
	}

	b := storage.Booking{
		ID:         uuid.NewString(),
		ResourceID: req.ResourceID,
		Title:      req.Title,
		Attendee:   req.Attendee,
		StartTime:  slot.Start,
		EndTime:    slot.End,
		Timezone:   policy.Timezone,
		Status:     storage.StatusBooked,
	}
	err = s.bookings.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.bookings.Create(ctx, tx, &b); err != nil {
			if storage.IsConflict(err) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return s.writeEvent(ctx, tx, outbox.EventBookingBooked, b, policy.CalendarID)
	})
	if err != nil {
		return storage.Booking{}, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.Time("start_time", b.StartTime),
	)
	return b, nil
}

// Cancel frees a booked slot. Cancelling twice returns the first result.
func (s *Service) Cancel(ctx context.Context, resourceID, bookingID string) (storage.Booking, error) {
	var b storage.Booking
	err := s.bookings.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		b, err = s.bookings.GetForUpdate(ctx, tx, resourceID, bookingID)
		if storage.IsNotFound(err) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if b.Status == storage.StatusCancelled {
			return nil
		}

		cancelledAt, err := s.bookings.Cancel(ctx, tx, resourceID, bookingID)
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		b.Status = storage.StatusCancelled
		b.CancelledAt = &cancelledAt
		return s.writeEvent(ctx, tx, outbox.EventBookingCancelled, b, "")
	})
	if err != nil {
		return storage.Booking{}, err
	}
	metrics.Bookings.WithLabelValues("cancelled").Inc()
	return b, nil
}

func (s *Service) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, b storage.Booking, calendarID string) error {
	payload, err := json.Marshal(bookingEvent{
		BookingID:  b.ID,
		ResourceID: b.ResourceID,
		CalendarID: calendarID,
		Title:      b.Title,
		FirstName:  b.Attendee.FirstName,
		LastName:   b.Attendee.LastName,
		Email:      b.Attendee.Email,
		Phone:      b.Attendee.Phone,
		Notes:      b.Attendee.Notes,
		StartTime:  b.StartTime.Format(time.RFC3339),
		EndTime:    b.EndTime.Format(time.RFC3339),
		Timezone:   b.Timezone,
		Status:     b.Status,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	return s.events.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func findSlot(slots []availability.Slot, start time.Time) (availability.Slot, bool) {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return s, true
		}
	}
	return availability.Slot{}, false
}

func bookResult(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrSlotUnavailable):
		return "conflict"
	case errors.Is(err, ErrTooLate), errors.Is(err, ErrBookingClosed), errors.Is(err, ErrNotOnSchedule):
		return "rejected"
	default:
		return "error"
	}
}
