// Package metrics holds the Prometheus collectors for canvas log activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
)

const (
	OperationEncode = "encode"
	OperationDecode = "decode"
)

// Metrics holds all Prometheus metrics for the canvas log. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Log metrics
	recordsWritten *prometheus.CounterVec
	recordsRead    *prometheus.CounterVec
	bytesWritten   prometheus.Counter
	codecErrors    *prometheus.CounterVec
	corruptFrames  prometheus.Counter

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recordsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvaslog_records_written_total",
				Help: "Total number of records appended to the log",
			},
			[]string{"type"},
		),

		recordsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvaslog_records_read_total",
				Help: "Total number of records decoded from the log",
			},
			[]string{"type"},
		),

		bytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "canvaslog_bytes_written_total",
				Help: "Total number of bytes appended to the log, frame headers included",
			},
		),

		codecErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvaslog_codec_errors_total",
				Help: "Total number of records rejected by the codec",
			},
			[]string{"operation", "kind"},
		),

		corruptFrames: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "canvaslog_corrupt_frames_total",
				Help: "Total number of torn or checksum-failed frames encountered",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvaslog_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canvaslog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "canvaslog_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),
	}
}

// RecordWrite records a record appended under tag, framed into n bytes.
func (m *Metrics) RecordWrite(tag canvas.Tag, n int) {
	if m == nil {
		return
	}
	m.recordsWritten.WithLabelValues(tag.String()).Inc()
	m.bytesWritten.Add(float64(n))
}

// RecordRead records a successfully decoded record.
func (m *Metrics) RecordRead(tag canvas.Tag) {
	if m == nil {
		return
	}
	m.recordsRead.WithLabelValues(tag.String()).Inc()
}

// RecordCodecError records a codec failure during operation.
func (m *Metrics) RecordCodecError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	kind := "unknown"
	if k := codec.KindOf(err); k != 0 {
		kind = k.String()
	}
	m.codecErrors.WithLabelValues(operation, kind).Inc()
}

// RecordCorruption records a frame that failed framing or checksum checks.
func (m *Metrics) RecordCorruption() {
	if m == nil {
		return
	}
	m.corruptFrames.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
