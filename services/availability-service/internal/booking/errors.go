package booking

import "errors"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingClosed    = errors.New("booking is closed for this resource")
	ErrTooLate          = errors.New("slot starts too soon to book")
	ErrNotOnSchedule    = errors.New("requested time is not a slot on the schedule")
	ErrSlotUnavailable  = errors.New("slot is no longer available")
	ErrRangeTooLarge    = errors.New("date range is too long")
)
