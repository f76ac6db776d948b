package obs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staybook/internal/app/middleware"
	"staybook/internal/app/policies"
)

const namespace = "staybook"

// Metrics owns the process registry and every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	busMessages  *prometheus.CounterVec
	busDuration  *prometheus.HistogramVec
	calendars    prometheus.Counter
	calendarDays prometheus.Histogram
	resolveTime  prometheus.Histogram
	rulesSkipped *prometheus.CounterVec
	quotes       *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		busMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Commands and queries handled by the application bus.",
		}, []string{"kind", "key", "outcome"}),
		busDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_message_duration_seconds",
			Help:      "Time spent handling bus messages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "key"}),
		calendars: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendars_resolved_total",
			Help:      "Priced calendars resolved from storage.",
		}),
		calendarDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calendar_days",
			Help:      "Days per resolved calendar window.",
			Buckets:   []float64{1, 7, 14, 31, 62, 93, 186, 366},
		}),
		resolveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calendar_resolve_seconds",
			Help:      "Time spent resolving special rates over a window.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		rulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "special_rates_skipped_total",
			Help:      "Special rates ignored while resolving, by reason.",
		}, []string{"reason"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Stay quotes evaluated, by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_cache_lookups_total",
			Help:      "Calendar cache lookups, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.busMessages, m.busDuration, m.calendars, m.calendarDays, m.resolveTime,
		m.rulesSkipped, m.quotes, m.cacheLookups, m.httpRequests,
	)
	return m
}

// Observe implements middleware.Observer.
func (m *Metrics) Observe(kind, key string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.busMessages.WithLabelValues(kind, key, outcome).Inc()
	m.busDuration.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (m *Metrics) CalendarResolved(days int, elapsed time.Duration) {
	m.calendars.Inc()
	m.calendarDays.Observe(float64(days))
	m.resolveTime.Observe(elapsed.Seconds())
}

func (m *Metrics) RuleSkipped(reason string) {
	m.rulesSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) QuoteEvaluated(outcome string) {
	m.quotes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RegisterOutboxBacklog exports the number of unpublished outbox records.
func (m *Metrics) RegisterOutboxBacklog(backlog func(ctx context.Context) (int64, error)) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_backlog",
		Help:      "Outbox records waiting to be published.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := backlog(ctx)
		if err != nil {
			return -1
		}
		return float64(n)
	}))
}

// HTTPMiddleware counts requests by matched route.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var (
	_ middleware.Observer     = (*Metrics)(nil)
	_ policies.PricingMetrics = (*Metrics)(nil)
)
