package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
)

func TestMetrics_RecordWriteRead(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordWrite(canvas.TagPlacementInsert, 30)
	m.RecordWrite(canvas.TagPlacementInsert, 30)
	m.RecordRead(canvas.TagCanvasMeta)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsWritten.WithLabelValues("PlacementInsert")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.bytesWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsRead.WithLabelValues("CanvasMeta")))
}

func TestMetrics_RecordCodecError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	_, err := codec.NewRecordCodec().Decode(canvas.Tag(0x99), nil)
	m.RecordCodecError(OperationDecode, err)
	m.RecordCodecError(OperationEncode, errors.New("other"))
	m.RecordCodecError(OperationEncode, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.codecErrors.WithLabelValues("decode", "unexpected_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codecErrors.WithLabelValues("encode", "unknown")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordWrite(canvas.TagCanvasMeta, 1)
		m.RecordRead(canvas.TagCanvasMeta)
		m.RecordCodecError(OperationDecode, errors.New("x"))
		m.RecordCorruption()
		m.RecordHTTPRequest("GET", "/", 200, 0)
	})

	called := false
	h := m.InstrumentHandler("GET", "/", func(w http.ResponseWriter, r *http.Request) { called = true })
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestMetrics_InstrumentHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())

	h := m.InstrumentHandler("GET", "/api/v1/records", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/records", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight.WithLabelValues("GET", "/api/v1/records")))
}
