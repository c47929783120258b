package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		apiKey         string
		requestHeader  string
		expectedStatus int
	}{
		{"valid API key", "test-key", "test-key", http.StatusOK},
		{"missing API key header", "test-key", "", http.StatusUnauthorized},
		{"invalid API key", "test-key", "wrong-key", http.StatusUnauthorized},
		{"key prefix", "test-key", "test", http.StatusUnauthorized},
		{"writes disabled", "", "anything", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := apiKeyMiddleware(tt.apiKey)(testHandler)

			req := httptest.NewRequest("POST", "/test", nil)
			if tt.requestHeader != "" {
				req.Header.Set("X-API-Key", tt.requestHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	handler := middleware.RequestID(requestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("hello"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/records", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/records", fields["path"])
	assert.Equal(t, int64(http.StatusAccepted), fields["status"])
	assert.Equal(t, int64(5), fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestSendSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	sendSuccess(w, map[string]string{"message": "test"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, map[string]interface{}{"message": "test"}, response.Data)
}

func TestSendError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		w := httptest.NewRecorder()

		sendError(w, "something failed", status)

		assert.Equal(t, status, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response APIResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.False(t, response.Success)
		assert.Equal(t, "something failed", response.Error)
	}
}
