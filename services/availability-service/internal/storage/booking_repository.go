package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/conferences/libs/db"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
)

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

type Attendee struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Notes     string
}

type Booking struct {
	ID          string
	ResourceID  string
	Title       string
	Attendee    Attendee
	StartTime   time.Time
	EndTime     time.Time
	Timezone    string
	Status      string
	CancelledAt *time.Time
	CreatedAt   time.Time
}

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return r.pool.InTx(ctx, fn)
}

// Create inserts a booked row. Overlapping bookings of one resource fail with
// an exclusion violation; check with IsConflict.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *Booking) error {
	return tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, resource_id, title, attendee_first_name, attendee_last_name, attendee_email,
			 attendee_phone, attendee_notes, start_time, end_time, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, b.ID, b.ResourceID, b.Title, b.Attendee.FirstName, b.Attendee.LastName, b.Attendee.Email,
		b.Attendee.Phone, b.Attendee.Notes, b.StartTime, b.EndTime, b.Timezone, b.Status).Scan(&b.CreatedAt)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, resourceID, bookingID string) (Booking, error) {
	var b Booking
	err := tx.QueryRow(ctx, `
		SELECT id::text, resource_id, title, attendee_first_name, attendee_last_name, attendee_email,
			attendee_phone, attendee_notes, start_time, end_time, timezone, status, cancelled_at, created_at
		FROM bookings
		WHERE id = $1 AND resource_id = $2
		FOR UPDATE
	`, bookingID, resourceID).Scan(
		&b.ID,
		&b.ResourceID,
		&b.Title,
		&b.Attendee.FirstName,
		&b.Attendee.LastName,
		&b.Attendee.Email,
		&b.Attendee.Phone,
		&b.Attendee.Notes,
		&b.StartTime,
		&b.EndTime,
		&b.Timezone,
		&b.Status,
		&b.CancelledAt,
		&b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, resourceID, bookingID string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $3, cancelled_at = now()
		WHERE id = $1 AND resource_id = $2 AND status = $4
		RETURNING cancelled_at
	`, bookingID, resourceID, StatusCancelled, StatusBooked).Scan(&cancelledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return cancelledAt, err
}

// ListBookedIntervals returns active bookings overlapping [from, to).
func (r *BookingRepository) ListBookedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE resource_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3
		ORDER BY start_time ASC
	`, resourceID, StatusBooked, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}
