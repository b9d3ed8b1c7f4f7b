// Package metrics holds the Prometheus collectors for the hub controller.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics dependency without nil checks at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "zonehub"
	subsystem = "controller"
)

// Connect attempt results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds Prometheus metrics for controller operations.
type Metrics struct {
	// Connection state
	connected       prometheus.Gauge
	connectAttempts *prometheus.CounterVec // By result (success/failure)
	disconnects     *prometheus.CounterVec // By reason
	backoffSeconds  prometheus.Gauge

	// Traffic
	messagesReceived *prometheus.CounterVec // By service
	commandsSent     *prometheus.CounterVec // By service
	heartbeats       prometheus.Counter
	malformed        prometheus.Counter

	// Correlation tables
	pending   *prometheus.GaugeVec // By table
	cancelled prometheus.Counter
}

// New creates the controller metrics and registers them with reg.
// A nil registerer returns nil (metrics disabled).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connected",
			Help:      "1 while a hub session is open, 0 otherwise",
		}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connect_attempts_total",
			Help:      "Total number of connection attempts",
		}, []string{"result"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "disconnects_total",
			Help:      "Total number of session teardowns",
		}, []string{"reason"}),
		backoffSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backoff_seconds",
			Help:      "Delay before the next connection attempt",
		}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_received_total",
			Help:      "Total number of messages received from the hub",
		}, []string{"service"}),
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_sent_total",
			Help:      "Total number of requests written to the hub",
		}, []string{"service"}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeat frames received",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "malformed_messages_total",
			Help:      "Total number of malformed messages received",
		}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_requests",
			Help:      "Outstanding correlated requests",
		}, []string{"table"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cancelled_requests_total",
			Help:      "Total number of requests cancelled by teardown or stop",
		}),
	}

	collectors := []prometheus.Collector{
		m.connected,
		m.connectAttempts,
		m.disconnects,
		m.backoffSeconds,
		m.messagesReceived,
		m.commandsSent,
		m.heartbeats,
		m.malformed,
		m.pending,
		m.cancelled,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordConnectAttempt records a connection attempt outcome.
func (m *Metrics) RecordConnectAttempt(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.connectAttempts.WithLabelValues(ResultSuccess).Inc()
		m.connected.Set(1)
		return
	}
	m.connectAttempts.WithLabelValues(ResultFailure).Inc()
}

// RecordDisconnect records a session teardown.
func (m *Metrics) RecordDisconnect(reason string) {
	if m == nil {
		return
	}
	m.connected.Set(0)
	m.disconnects.WithLabelValues(reason).Inc()
}

// SetBackoff records the delay before the next attempt.
func (m *Metrics) SetBackoff(d time.Duration) {
	if m == nil {
		return
	}
	m.backoffSeconds.Set(d.Seconds())
}

// RecordReceived records one inbound message.
func (m *Metrics) RecordReceived(service string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(service).Inc()
}

// RecordSent records one outbound request.
func (m *Metrics) RecordSent(service string) {
	if m == nil {
		return
	}
	m.commandsSent.WithLabelValues(service).Inc()
}

// RecordHeartbeat records one heartbeat frame.
func (m *Metrics) RecordHeartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Inc()
}

// RecordMalformed records one malformed message.
func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

// SetPending records the size of a correlation table.
func (m *Metrics) SetPending(table string, n int) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(table).Set(float64(n))
}

// RecordCancelled records requests cancelled in bulk.
func (m *Metrics) RecordCancelled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cancelled.Add(float64(n))
}

// Handler returns an HTTP handler serving /metrics and /health for the
// given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}
