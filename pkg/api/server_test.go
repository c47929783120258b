package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/canvaslog/pkg/identity"
	"github.com/ssargent/canvaslog/pkg/metrics"
	"github.com/ssargent/canvaslog/pkg/store"
)

const testAPIKey = "test-key"

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

type recordJSON struct {
	Offset int64           `json:"offset"`
	Type   string          `json:"type"`
	Tag    uint16          `json:"tag"`
	Size   uint32          `json:"size"`
	Silent bool            `json:"silent"`
	Record json.RawMessage `json:"record"`
	Error  string          `json:"error"`
}

type pageJSON struct {
	Records    []recordJSON `json:"records"`
	NextOffset int64        `json:"next_offset"`
	End        bool         `json:"end"`
	Corrupt    bool         `json:"corrupt"`
}

type identityJSON struct {
	ID         string          `json:"id"`
	Index      uint32          `json:"index"`
	Unique     bool            `json:"unique"`
	Type       string          `json:"type"`
	Identifier json.RawMessage `json:"identifier"`
	SessionID  string          `json:"session_id"`
	Offset     *int64          `json:"offset"`
}

type testServer struct {
	handler http.Handler
	logPath string
}

func setupTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "canvas.log")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	writer, err := store.NewLogWriter(store.LogWriterConfig{FilePath: logPath, Metrics: m})
	require.NoError(t, err)
	t.Cleanup(func() { writer.Close() })

	table, err := identity.Open(filepath.Join(tmpDir, "identities"))
	require.NoError(t, err)
	t.Cleanup(func() { table.Close() })

	server := NewServer(writer, table, ServerConfig{
		APIKey:   apiKey,
		LogPath:  logPath,
		Gatherer: reg,
	}, m, nil)

	return &testServer{handler: server.Router(), logPath: logPath}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	w := ts.do(t, "GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	env := decode[map[string]interface{}](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data["status"])
	assert.Equal(t, true, env.Data["writable"])
}

func TestServer_ListRecords_Empty(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	w := ts.do(t, "GET", "/api/v1/records", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decode[pageJSON](t, w)
	assert.Empty(t, env.Data.Records)
	assert.True(t, env.Data.End)
	assert.Equal(t, int64(store.FileHeaderSize), env.Data.NextOffset)
}

func TestServer_ListRecords_MissingLog(t *testing.T) {
	server := NewServer(nil, nil, ServerConfig{LogPath: filepath.Join(t.TempDir(), "none.log")}, nil, nil)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/records", nil))
	require.Equal(t, http.StatusOK, w.Code)

	env := decode[pageJSON](t, w)
	assert.Empty(t, env.Data.Records)
	assert.True(t, env.Data.End)
}

func TestServer_AppendPlacement(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	w := ts.do(t, "POST", "/api/v1/placements", PlacementRequest{Kind: PlacementInsert, Time: 100, Pos: 7, Col: 3}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	appended := decode[recordJSON](t, w)
	assert.True(t, appended.Success)
	assert.Equal(t, int64(store.FileHeaderSize), appended.Data.Offset)
	assert.Equal(t, "PlacementInsert", appended.Data.Type)
	assert.Equal(t, uint32(20), appended.Data.Size)

	w = ts.do(t, "POST", "/api/v1/placements", PlacementRequest{Kind: PlacementRemoveFill, Time: 101, Pos: 1, End: 9, Quiet: true}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, "GET", "/api/v1/records", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decode[struct {
		Records []struct {
			Offset int64                  `json:"offset"`
			Type   string                 `json:"type"`
			Tag    uint16                 `json:"tag"`
			Silent bool                   `json:"silent"`
			Record map[string]interface{} `json:"record"`
		} `json:"records"`
		End bool `json:"end"`
	}](t, w)

	require.Len(t, env.Data.Records, 2)
	first := env.Data.Records[0]
	assert.Equal(t, "PlacementInsert", first.Type)
	assert.Equal(t, uint16(0x20), first.Tag)
	assert.False(t, first.Silent)
	assert.Equal(t, float64(7), first.Record["pos"])
	assert.Equal(t, float64(3), first.Record["col"])

	second := env.Data.Records[1]
	assert.Equal(t, "PlacementRemoveFillQuiet", second.Type)
	assert.True(t, second.Silent)
	assert.Equal(t, map[string]interface{}{"start": float64(1), "end": float64(9)}, second.Record["pos"])
	assert.True(t, env.Data.End)
}

func TestServer_AppendPlacement_Errors(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	tests := []struct {
		name           string
		body           interface{}
		apiKey         string
		expectedStatus int
	}{
		{"missing API key", PlacementRequest{Kind: PlacementInsert}, "", http.StatusUnauthorized},
		{"wrong API key", PlacementRequest{Kind: PlacementInsert}, "wrong-key", http.StatusUnauthorized},
		{"unknown kind", PlacementRequest{Kind: "smudge"}, testAPIKey, http.StatusBadRequest},
		{"invalid JSON", "not an object", testAPIKey, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, "POST", "/api/v1/placements", tt.body, tt.apiKey)
			assert.Equal(t, tt.expectedStatus, w.Code)

			env := decode[interface{}](t, w)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestServer_WritesDisabled(t *testing.T) {
	ts := setupTestServer(t, "")

	w := ts.do(t, "POST", "/api/v1/placements", PlacementRequest{Kind: PlacementInsert}, "anything")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, "GET", "/api/v1/health", nil, "")
	env := decode[map[string]interface{}](t, w)
	assert.Equal(t, false, env.Data["writable"])
}

func TestServer_ListRecords_Pagination(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	var offsets []int64
	for i := uint64(0); i < 3; i++ {
		w := ts.do(t, "POST", "/api/v1/placements", PlacementRequest{Kind: PlacementRemove, Time: i, Pos: i}, testAPIKey)
		require.Equal(t, http.StatusOK, w.Code)
		offsets = append(offsets, decode[recordJSON](t, w).Data.Offset)
	}

	w := ts.do(t, "GET", "/api/v1/records?limit=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[pageJSON](t, w).Data
	assert.Len(t, page.Records, 2)
	assert.False(t, page.End)
	assert.Equal(t, offsets[2], page.NextOffset)

	w = ts.do(t, "GET", "/api/v1/records?limit=2&offset="+itoa(page.NextOffset), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[pageJSON](t, w).Data
	require.Len(t, page.Records, 1)
	assert.Equal(t, offsets[2], page.Records[0].Offset)
	assert.True(t, page.End)
}

func TestServer_ListRecords_BadParams(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	for _, query := range []string{"limit=0", "limit=5000", "limit=abc", "offset=-1", "offset=x"} {
		w := ts.do(t, "GET", "/api/v1/records?"+query, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestServer_Identities(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	w := ts.do(t, "POST", "/api/v1/identities", IdentityRequest{Type: IdentifierNumeric, Value: "1234"}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	registered := decode[identityJSON](t, w).Data
	assert.Equal(t, uint32(0), registered.Index)
	assert.False(t, registered.Unique)
	assert.Equal(t, "IdentifierNumeric", registered.Type)
	require.NotNil(t, registered.Offset)
	assert.Equal(t, int64(store.FileHeaderSize), *registered.Offset)

	w = ts.do(t, "GET", "/api/v1/identities/0", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	looked := decode[identityJSON](t, w).Data
	assert.JSONEq(t, "1234", string(looked.Identifier))
	assert.Equal(t, "#0", looked.ID)

	w = ts.do(t, "POST", "/api/v1/identities", IdentityRequest{Type: IdentifierSecret, Unique: true}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[identityJSON](t, w).Data
	assert.True(t, session.Unique)
	assert.Len(t, session.SessionID, 27)

	w = ts.do(t, "GET", "/api/v1/identities/0?unique=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.SessionID, decode[identityJSON](t, w).Data.SessionID)

	w = ts.do(t, "GET", "/api/v1/identities/42", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, "GET", "/api/v1/identities/2147483647", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "POST", "/api/v1/identities", IdentityRequest{Type: IdentifierNumeric, Value: "-1"}, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	ts := setupTestServer(t, testAPIKey)

	w := ts.do(t, "POST", "/api/v1/placements", PlacementRequest{Kind: PlacementInsert}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "GET", "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "canvaslog_http_requests_total")
	assert.Contains(t, body, `canvaslog_records_written_total{type="PlacementInsert"} 1`)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
