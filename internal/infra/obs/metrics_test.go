package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveBusMessages(t *testing.T) {
	m := NewMetrics()
	m.Observe("command", "booking.request", 20*time.Millisecond, nil)
	m.Observe("command", "booking.request", 5*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.busMessages.WithLabelValues("command", "booking.request", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busMessages.WithLabelValues("command", "booking.request", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.busDuration))
}

func TestMetricsPricingObservations(t *testing.T) {
	m := NewMetrics()
	m.CalendarResolved(31, time.Millisecond)
	m.RuleSkipped("inactive")
	m.RuleSkipped("inactive")
	m.QuoteEvaluated("rejected")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calendars))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rulesSkipped.WithLabelValues("inactive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestMetricsOutboxBacklog(t *testing.T) {
	m := NewMetrics()
	m.RegisterOutboxBacklog(func(context.Context) (int64, error) { return 7, nil })

	expected := `
# HELP staybook_outbox_backlog Outbox records waiting to be published.
# TYPE staybook_outbox_backlog gauge
staybook_outbox_backlog 7
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "staybook_outbox_backlog"))
}

func TestMetricsHTTPMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(m.HTTPMiddleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/ping/:id", "204")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staybook_http_requests_total")
}
