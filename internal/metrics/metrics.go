package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Route kinds used as the "kind" label on HTTP metrics.
const (
	KindAPI    = "api"
	KindAuth   = "auth"
	KindPublic = "public"
)

// Metrics holds all Prometheus collectors for the portal.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Access control.
	RateLimitRejectionsTotal *prometheus.CounterVec
	PolicyDenialsTotal       *prometheus.CounterVec
	AuthFailuresTotal        *prometheus.CounterVec
	AuthSuccessesTotal       *prometheus.CounterVec

	// Account lifecycle.
	AccountEventsTotal *prometheus.CounterVec

	// Activity collector.
	ActivityFlushesTotal *prometheus.CounterVec
	ActivityUsersTotal   prometheus.Counter

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"kind", "method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roiportal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roiportal_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"kind", "method", "path_pattern"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		PolicyDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_policy_denials_total",
			Help: "Total number of requests refused by the access policy.",
		}, []string{"action", "reason"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"provider"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"provider"}),

		AccountEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_account_events_total",
			Help: "Signups, logins and invitations by outcome.",
		}, []string{"event", "outcome"}),

		ActivityFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roiportal_activity_flushes_total",
			Help: "Total number of last-login flushes.",
		}, []string{"status"}),

		ActivityUsersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roiportal_activity_users_total",
			Help: "Total number of last-login updates written.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roiportal_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.RateLimitRejectionsTotal,
		m.PolicyDenialsTotal,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.AccountEventsTotal,
		m.ActivityFlushesTotal,
		m.ActivityUsersTotal,
		m.ServerStartTime,
	)
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(kind, method, pattern string, status int, elapsed time.Duration, size int) {
	m.HTTPRequestsTotal.WithLabelValues(kind, method, pattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(kind, method, pattern).Observe(elapsed.Seconds())
	m.HTTPResponseSize.WithLabelValues(kind, method, pattern).Observe(float64(size))
}

// IncAuthFailure increments the auth failure counter for provider.
func (m *Metrics) IncAuthFailure(provider string) {
	m.AuthFailuresTotal.WithLabelValues(provider).Inc()
}

// IncAuthSuccess increments the auth success counter for provider.
func (m *Metrics) IncAuthSuccess(provider string) {
	m.AuthSuccessesTotal.WithLabelValues(provider).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncPolicyDenied counts a request the access policy refused.
func (m *Metrics) IncPolicyDenied(action, reason string) {
	m.PolicyDenialsTotal.WithLabelValues(action, reason).Inc()
}

// IncAccountEvent counts a signup, login or invitation attempt.
func (m *Metrics) IncAccountEvent(event, outcome string) {
	m.AccountEventsTotal.WithLabelValues(event, outcome).Inc()
}

// ObserveActivityFlush records a last-login flush of users rows.
func (m *Metrics) ObserveActivityFlush(users int, err error) {
	if err != nil {
		m.ActivityFlushesTotal.WithLabelValues("error").Inc()
		return
	}
	m.ActivityFlushesTotal.WithLabelValues("ok").Inc()
	m.ActivityUsersTotal.Add(float64(users))
}
