// Package metrics holds the Prometheus collectors for handshakes, sessions,
// sealed messages and the HTTP surface.
//
// Collectors register with the default registry on first use.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentlink/internal/domain"
)

const namespace = "agentlink"

// Label values for the direction and role dimensions.
const (
	Inbound   = "inbound"
	Outbound  = "outbound"
	Initiator = "initiator"
	Responder = "responder"
)

var (
	registerOnce sync.Once

	handshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "total",
			Help:      "Handshakes by role and outcome.",
		},
		[]string{"role", "status"},
	)
	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Session inserts by outcome.",
		},
		[]string{"status"},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Sessions currently held by the store.",
		},
	)
	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "expired_total",
			Help:      "Sessions purged after their deadline.",
		},
	)
	sessionsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Sessions removed explicitly.",
		},
	)
	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "total",
			Help:      "Sealed messages by direction and outcome.",
		},
		[]string{"direction", "status"},
	)
	messageSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "size_bytes",
			Help:      "Plaintext size of sealed and opened messages.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"direction"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers every collector with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			handshakes, sessionsCreated, sessionsActive, sessionsExpired, sessionsClosed,
			messages, messageSize, httpRequests, httpDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// status turns an error into an outcome label.
func status(err error) string {
	if err == nil {
		return "success"
	}
	return domain.Kind(err)
}

func RecordHandshake(role string, err error) {
	RegisterMetrics()
	handshakes.WithLabelValues(role, status(err)).Inc()
}

func RecordSessionCreated(err error) {
	RegisterMetrics()
	sessionsCreated.WithLabelValues(status(err)).Inc()
}

func SetActiveSessions(n int) {
	RegisterMetrics()
	sessionsActive.Set(float64(n))
}

func RecordSessionsExpired(n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	sessionsExpired.Add(float64(n))
}

func RecordSessionClosed() {
	RegisterMetrics()
	sessionsClosed.Inc()
}

func RecordMessage(direction string, size int, err error) {
	RegisterMetrics()
	messages.WithLabelValues(direction, status(err)).Inc()
	if err == nil {
		messageSize.WithLabelValues(direction).Observe(float64(size))
	}
}

func RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(code)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
