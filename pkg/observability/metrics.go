package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Team lifecycle metrics
	InvitationsTotal    *prometheus.CounterVec
	AccessRequestsTotal *prometheus.CounterVec
	MembershipChanges   *prometheus.CounterVec
	PermissionDenials   *prometheus.CounterVec
	InvitationsPruned   prometheus.Counter
	NotificationsTotal  *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	BusinessesTotal prometheus.Gauge
	MembersTotal    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brandhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		InvitationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_invitations_total",
				Help: "Invitation lifecycle events by outcome",
			},
			[]string{"event"}, // created, accepted, declined, revoked, expired
		),
		AccessRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_access_requests_total",
				Help: "Access request lifecycle events by outcome",
			},
			[]string{"event"}, // created, approved, rejected
		),
		MembershipChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_membership_changes_total",
				Help: "Membership changes by kind",
			},
			[]string{"kind"}, // added, role_changed, removed, self_removed
		),
		PermissionDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_permission_denials_total",
				Help: "Operations refused for lack of capability",
			},
			[]string{"path"},
		),
		InvitationsPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "brandhub_invitations_pruned_total",
				Help: "Expired pending invitations removed by the pruner",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brandhub_notifications_total",
				Help: "Team event notifications published",
			},
			[]string{"event", "status"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "brandhub_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "brandhub_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		BusinessesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "brandhub_businesses_total",
				Help: "Total number of businesses",
			},
		),
		MembersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "brandhub_members_total",
				Help: "Total number of business memberships",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InvitationsTotal,
		m.AccessRequestsTotal,
		m.MembershipChanges,
		m.PermissionDenials,
		m.InvitationsPruned,
		m.NotificationsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.BusinessesTotal,
		m.MembersTotal,
	)

	return m
}

// Handler returns an HTTP handler that serves the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and latency per route
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CollectDBStats copies sql.DB pool statistics into the gauges.
// Call this periodically from a background loop.
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
