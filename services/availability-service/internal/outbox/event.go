package outbox

// Event is the envelope written to the outbox table. The Kafka topic is
// the event type.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventBookingBooked    = "booking.appointment.booked.v1"
	EventBookingCancelled = "booking.appointment.cancelled.v1"
)
