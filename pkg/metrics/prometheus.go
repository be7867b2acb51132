package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the engine metrics. It satisfies the recorder interfaces of
// the gesture and voice packages. A disabled Manager records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Dispatch
	gesturesDetected *prometheus.CounterVec
	detectorErrors   *prometheus.CounterVec
	callbackErrors   *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	// Voice
	voiceCommands *prometheus.CounterVec

	// Input
	eventsReceived *prometheus.CounterVec
	activeSessions prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager registered on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "twingest",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.gesturesDetected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gestures_detected_total",
		Help:      "Total number of dispatch passes won, by gesture",
	}, []string{"gesture", "type"})

	m.detectorErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detector_errors_total",
		Help:      "Total number of detector errors and panics, by gesture",
	}, []string{"gesture"})

	m.callbackErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "callback_errors_total",
		Help:      "Total number of callback errors and panics, by gesture or command",
	}, []string{"name"})

	m.dispatchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_duration_milliseconds",
		Help:      "Duration of one arbitration pass in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"trigger"})

	m.voiceCommands = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "voice_commands_total",
		Help:      "Total number of matched voice commands",
	}, []string{"command"})

	m.eventsReceived = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "input_events_total",
		Help:      "Total number of input events received, by type",
	}, []string{"type"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Current number of connected input sessions",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Registry returns the Prometheus registry holding the metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Enabled reports whether metrics are recorded.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// GestureDetected counts a dispatch win.
func (m *Manager) GestureDetected(name, kind string) {
	if m.enabled {
		m.gesturesDetected.WithLabelValues(name, kind).Inc()
	}
}

// DetectorError counts a failed detector.
func (m *Manager) DetectorError(name string) {
	if m.enabled {
		m.detectorErrors.WithLabelValues(name).Inc()
	}
}

// CallbackError counts a failed callback.
func (m *Manager) CallbackError(name string) {
	if m.enabled {
		m.callbackErrors.WithLabelValues(name).Inc()
	}
}

// ObserveDispatch records the duration of one arbitration pass.
func (m *Manager) ObserveDispatch(trigger string, d time.Duration) {
	if m.enabled {
		m.dispatchDuration.WithLabelValues(trigger).Observe(float64(d) / float64(time.Millisecond))
	}
}

// VoiceCommand counts a matched voice command.
func (m *Manager) VoiceCommand(name string) {
	if m.enabled {
		m.voiceCommands.WithLabelValues(name).Inc()
	}
}

// EventReceived counts an inbound input event.
func (m *Manager) EventReceived(eventType string) {
	if m.enabled {
		m.eventsReceived.WithLabelValues(eventType).Inc()
	}
}

// SessionOpened increments the active session gauge.
func (m *Manager) SessionOpened() {
	if m.enabled {
		m.activeSessions.Inc()
	}
}

// SessionClosed decrements the active session gauge.
func (m *Manager) SessionClosed() {
	if m.enabled {
		m.activeSessions.Dec()
	}
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(route, method, statusCode string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(float64(d) / float64(time.Millisecond))
}
