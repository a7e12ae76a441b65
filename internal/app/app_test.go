package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testConfig maps three locations to CSV files, plus one that does not exist.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	bodies := map[string]string{
		"a": "Total,Producto,Cantidad\n60,X,1\n40,Y,1\n",
		"b": "Total,Producto,Cantidad\n200,X,2\n",
		"c": "Total,Producto,Cantidad\n100,X,1\n150,Y,1\n50,Y,4\n",
	}
	locations := map[string]string{"d": filepath.Join(dir, "missing.csv")}
	for location, body := range bodies {
		path := filepath.Join(dir, location+".csv")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		locations[location] = path
	}

	cfg := config.Default()
	cfg.Sources.Locations = locations
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApplicationRoutes(t *testing.T) {
	app, err := New(testConfig(t), testLogger())
	require.NoError(t, err)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "health", target: "/api/health", expectedStatus: http.StatusOK, expectedBody: `"status":"ok"`},
		{name: "view", target: "/api/dashboard/view", expectedStatus: http.StatusOK, expectedBody: `"grand_total":600`},
		{name: "ready after load", target: "/api/health/ready", expectedStatus: http.StatusOK, expectedBody: `"status":"ready"`},
		{name: "sources", target: "/api/dashboard/sources", expectedStatus: http.StatusOK, expectedBody: `"location":"d"`},
		{name: "invalid metric", target: "/api/dashboard/view?metric=Producto", expectedStatus: http.StatusBadRequest, expectedBody: "/errors/sales/invalid-metric"},
		{name: "version", target: "/api/version", expectedStatus: http.StatusOK, expectedBody: `"api_version"`},
		{name: "page", target: "/", expectedStatus: http.StatusOK, expectedBody: "Sales Dashboard"},
		{name: "metrics", target: "/metrics", expectedStatus: http.StatusOK, expectedBody: "sales_loads"},
		{name: "unknown route", target: "/nope", expectedStatus: http.StatusNotFound, expectedBody: "/errors/not-found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, app.Router, tt.target)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}

	assert.NotEmpty(t, get(t, app.Router, "/api/health").Header().Get("X-Request-ID"))
}

func TestApplicationLoadFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Locations = map[string]string{"north": filepath.Join(t.TempDir(), "north.csv")}
	cfg.Security.RateLimit.Enabled = false

	app, err := New(cfg, testLogger())
	require.NoError(t, err)

	w := get(t, app.Router, "/api/dashboard/view")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/sales/load-failure")
	assert.Contains(t, w.Body.String(), `"location":"north"`)

	w = get(t, app.Router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewResolver(t *testing.T) {
	mapping := NewResolver(config.SourcesConfig{Locations: map[string]string{"a": "a.csv"}})
	assert.Equal(t, "mapping (1 locations)", mapping.Describe())

	dir := NewResolver(config.SourcesConfig{DataDir: "data", Pattern: "sales_analysis_*_*.csv"})
	assert.Equal(t, "directory data (sales_analysis_*_*.csv)", dir.Describe())
}
