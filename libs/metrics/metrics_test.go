package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingsCounter(t *testing.T) {
	before := testutil.ToFloat64(Bookings.WithLabelValues("conflict"))
	Bookings.WithLabelValues("conflict").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Bookings.WithLabelValues("conflict")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	AvailabilityQueries.WithLabelValues("slots", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "availability_queries_total")
}
