package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/conferences/libs/metrics"
	"github.com/md-rashed-zaman/conferences/services/availability-service/internal/availability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BusyQuery asks for the busy time of one resource in [From, To).
type BusyQuery struct {
	ResourceID string
	CalendarID string
	From       time.Time
	To         time.Time
	Timezone   string
}

// Oracle reports busy intervals. Transparent entries are never returned.
type Oracle interface {
	ListBusy(ctx context.Context, q BusyQuery) ([]availability.Interval, error)
}

type OracleFunc func(ctx context.Context, q BusyQuery) ([]availability.Interval, error)

func (f OracleFunc) ListBusy(ctx context.Context, q BusyQuery) ([]availability.Interval, error) {
	return f(ctx, q)
}

// CollaboratorError means a busy source failed or returned data that could
// not be interpreted.
type CollaboratorError struct {
	Source string
	Err    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("busy source %s: %v", e.Source, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Merge asks every oracle in turn and concatenates the results. Any failure
// fails the whole query.
func Merge(oracles ...Oracle) Oracle {
	return OracleFunc(func(ctx context.Context, q BusyQuery) ([]availability.Interval, error) {
		var busy []availability.Interval
		for _, o := range oracles {
			part, err := o.ListBusy(ctx, q)
			if err != nil {
				return nil, err
			}
			busy = append(busy, part...)
		}
		return busy, nil
	})
}

var tracer = otel.Tracer("github.com/md-rashed-zaman/conferences/services/availability-service/internal/calendar")

// Instrument wraps o with a span and a fetch duration histogram.
func Instrument(source string, o Oracle) Oracle {
	return OracleFunc(func(ctx context.Context, q BusyQuery) ([]availability.Interval, error) {
		ctx, span := tracer.Start(ctx, "calendar.ListBusy")
		defer span.End()
		span.SetAttributes(
			attribute.String("busy.source", source),
			attribute.String("resource.id", q.ResourceID),
		)

		start := time.Now()
		busy, err := o.ListBusy(ctx, q)
		metrics.BusyFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "busy fetch failed")
			return nil, err
		}
		span.SetAttributes(attribute.Int("busy.count", len(busy)))
		return busy, nil
	})
}
