package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AvailabilityQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_queries_total",
			Help: "Slot queries served, by operation and outcome.",
		},
		[]string{"operation", "status"},
	)

	BusyFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_busy_fetch_duration_seconds",
			Help:    "Time spent fetching busy intervals, by source.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ScheduleConfigErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_schedule_config_errors_total",
			Help: "Weekday schedules skipped because they failed validation.",
		},
		[]string{"weekday"},
	)

	Bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_bookings_total",
			Help: "Booking attempts, by result.",
		},
		[]string{"result"},
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_outbox_published_total",
			Help: "Outbox events handed to Kafka, by result.",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
