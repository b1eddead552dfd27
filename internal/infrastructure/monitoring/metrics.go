package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// MaxSlotLabels bounds the slot label of msgslot_operations_total. Slots at or
// above it share the OverflowSlotLabel series.
const MaxSlotLabels = slot.DefaultMaxSlots

// OverflowSlotLabel is the slot label for ids >= MaxSlotLabels.
const OverflowSlotLabel = "overflow"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Device metrics
	Operations     *prometheus.CounterVec
	MessageBytes   *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
	SlotsCreated   prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSFrames      *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for the JSON stats endpoint
type MetricsSnapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	TotalErrors    int64 `json:"total_errors"`
	ActiveSessions int64 `json:"active_sessions"`
	WSConnections  int64 `json:"ws_connections"`
}

// NewMetrics creates a collector registered on its own registry, so several
// instances can coexist (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgslot_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msgslot_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"method", "path"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgslot_operations_total",
				Help: "Device operations by slot, operation and result kind",
			},
			[]string{"slot", "op", "result"},
		),
		MessageBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msgslot_message_bytes",
				Help:    "Size of messages written and read",
				Buckets: []float64{1, 8, 16, 32, 64, 96, 128},
			},
			[]string{"op"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "msgslot_sessions_active",
				Help: "Number of open slot handles",
			},
		),
		SlotsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "msgslot_slots_created_total",
				Help: "Number of slots created since start",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "msgslot_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgslot_ws_frames_total",
				Help: "Total number of WebSocket frames",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "msgslot_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status >= 400 {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveOp implements slot.Observer.
func (m *Metrics) ObserveOp(slotID uint32, op string, err error, bytes int) {
	m.Operations.WithLabelValues(slotLabel(slotID), op, slot.Kind(err)).Inc()
	if err == nil && bytes > 0 && (op == slot.OpWrite || op == slot.OpRead) {
		m.MessageBytes.WithLabelValues(op).Observe(float64(bytes))
	}
}

func slotLabel(slotID uint32) string {
	if slotID >= MaxSlotLabels {
		return OverflowSlotLabel
	}
	return strconv.FormatUint(uint64(slotID), 10)
}

// SessionsActive implements slot.Observer.
func (m *Metrics) SessionsActive(count int) {
	m.ActiveSessions.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// SlotCreated implements slot.Observer.
func (m *Metrics) SlotCreated(uint32) {
	m.SlotsCreated.Inc()
}

// RecordWSFrame records a WebSocket frame
func (m *Metrics) RecordWSFrame(direction, frameType string) {
	m.WSFrames.WithLabelValues(direction, frameType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}

// Snapshot returns the current JSON-friendly counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
