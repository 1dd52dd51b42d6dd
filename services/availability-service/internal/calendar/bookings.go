package calendar

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
)

// BookedIntervalLister is implemented by the booking store.
type BookedIntervalLister interface {
	ListBookedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]availability.Interval, error)
}

// StoredBookings treats accepted bookings as busy so a slot is blocked
// before its calendar event exists.
func StoredBookings(store BookedIntervalLister) Oracle {
	return OracleFunc(func(ctx context.Context, q BusyQuery) ([]availability.Interval, error) {
		busy, err := store.ListBookedIntervals(ctx, q.ResourceID, q.From, q.To)
		if err != nil {
			return nil, &CollaboratorError{Source: "bookings", Err: err}
		}
		return busy, nil
	})
}
