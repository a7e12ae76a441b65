package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/view", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"wrapped canceled", fmt.Errorf("view: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"invalid metric", InvalidMetricError("Region", nil), http.StatusBadRequest, TypeInvalidMetric},
		{"invalid category", InvalidCategoryError("Total", nil), http.StatusBadRequest, TypeInvalidCategory},
		{"load failure", fmt.Errorf("dashboard: %w", LoadFailureError("no data", nil)), http.StatusServiceUnavailable, TypeLoadFailure},
		{"validation", ErrValidation("limit", "max"), http.StatusBadRequest, TypeValidation},
		{"not found", ErrNotFound, http.StatusNotFound, TypeNotFound},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"app not found", NewNotFoundError("chart \"pie\""), http.StatusNotFound, TypeNotFound},
		{"app data source", NewDataSourceError("unreadable", nil), http.StatusServiceUnavailable, TypeDataSource},
		{"app validation", NewAppValidationError("bad"), http.StatusBadRequest, TypeValidation},
		{"app export", NewExportError("write", nil), http.StatusInternalServerError, TypeExportFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/dashboard/view", problem.Instance)
		})
	}
}

func TestHandleError(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/view", nil)

	h.HandleError(rec, req, LoadFailureError("no sales data could be loaded", map[string]interface{}{
		"missing": []string{"north", "south"},
	}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeLoadFailure, body["type"])
	assert.Equal(t, CodeLoadFailure, body["error_code"])
	assert.Contains(t, body, "trace_id")
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, details["missing"], 2)
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, CodeNotFound, body["error_code"])
	assert.Equal(t, "/nope", body["instance"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard/view", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("table exploded")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "table exploded")
	assert.Contains(t, rec.Body.String(), CodeInternalServer)
}

func TestErrorMiddleware(t *testing.T) {
	h := newTestHandler()
	m := NewErrorMiddleware(h, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ok := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/reload", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	boom := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec = httptest.NewRecorder()
	boom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
