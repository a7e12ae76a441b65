package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

func sampleView() *domain.DashboardView {
	return &domain.DashboardView{
		Filters: domain.DashboardFilters{Locations: []string{"a", "c"}, AllLocations: true, Metric: "Total"},
		KPIs:    domain.KPIs{Metric: "Total", GrandTotal: 1234.5, AveragePerLocation: 617.25, Locations: 2, Rows: 3},
		Ranking: []domain.RankEntry{
			{Position: 1, Location: "c", Total: 1000, Relative: domain.RelativeAbove, Deviation: 62.01, Share: 81},
			{Position: 2, Location: "a", Total: 234.5, Relative: domain.RelativeBelow, Deviation: -62.01, Share: 19},
		},
		Stats: []domain.LocationStats{{Location: "a", Count: 1, Sum: 234.5, Mean: 234.5}},
		Rows: domain.RowsPage{
			Columns: []string{"Location", "Total"},
			Rows:    [][]string{{"a", "234.5"}},
			Total:   1,
			Limit:   100,
		},
		Missing:      []domain.MissingSource{{Location: "b", Path: "/data/b.csv"}},
		Metrics:      []string{"Total"},
		Categories:   []string{"Producto"},
		AllLocations: []string{"a", "c"},
		GeneratedAt:  time.Now(),
	}
}

func TestHTMLHandler_ServeDashboard(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("View", mock.MatchedBy(allSelected), 100, 0).Return(sampleView(), nil)

	handler, err := NewHTMLHandler(mockService, testLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeDashboard(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "$1,234.50")
	assert.Contains(t, body, "/api/dashboard/charts/deviation.png")
	assert.Contains(t, body, "No data for b")
	assert.Contains(t, body, `class="above"`)
}

func TestHTMLHandler_LoadFailure(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("View", mock.Anything, 100, 0).Return(nil, &dataprocessing.LoadError{
		Resolver: "static mapping (1 locations)",
		Missing:  []domain.MissingSource{{Location: "north", Path: "/data/n.csv"}},
	})

	handler, err := NewHTMLHandler(mockService, testLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeDashboard(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Missing source for north")
	assert.NotContains(t, w.Body.String(), "<h2>Ranking</h2>")
}

func TestChartQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?location=a&location=&metric=Total&limit=5", nil)
	assert.Equal(t, "location=a&location=&metric=Total", chartQuery(req.URL.Query()))
}
