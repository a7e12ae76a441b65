package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/files"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

// writeStores writes a=100, b=200, c=300 and returns a mapping loader that
// also references one missing file.
func writeStores(t *testing.T) (*dataprocessing.Loader, map[string]string) {
	t.Helper()
	dir := t.TempDir()

	bodies := map[string]string{
		"a": "Total,Producto,Cantidad\n60,X,1\n40,Y,2\n",
		"b": "Total,Producto,Cantidad\n200,X,1\n",
		"c": "Total,Producto,Cantidad\n100,X,1\n150,Y,1\n50,Y,3\n",
	}
	mapping := make(map[string]string)
	for loc, body := range bodies {
		path := filepath.Join(dir, "sales_analysis_"+loc+"_2024.csv")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		mapping[loc] = path
	}
	mapping["d"] = filepath.Join(dir, "missing.csv")

	loader := dataprocessing.NewLoader(files.NewMappingResolver(mapping), dataprocessing.LoaderConfig{}, nil)
	return loader, mapping
}

func newTestService(t *testing.T) *DashboardService {
	t.Helper()
	loader, _ := writeStores(t)
	return NewDashboardService(loader, nil, nil, nil)
}

func allLocations() domain.DashboardFilters {
	return domain.DashboardFilters{AllLocations: true}
}

func TestDashboardServiceView(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	view, err := svc.View(ctx, allLocations(), 0, 0)
	require.NoError(t, err)

	assert.False(t, view.Empty)
	assert.Equal(t, "Total", view.Filters.Metric)
	assert.Equal(t, []string{"a", "b", "c"}, view.Filters.Locations)
	assert.Equal(t, []string{"a", "b", "c"}, view.AllLocations)
	assert.Equal(t, []string{"Total"}, view.Metrics)
	assert.Equal(t, []string{"Producto"}, view.Categories)

	require.Len(t, view.Ranking, 3)
	assert.Equal(t, "c", view.Ranking[0].Location)
	assert.Equal(t, domain.RelativeAbove, view.Ranking[0].Relative)
	assert.Equal(t, map[string]float64{"a": -50, "b": 0, "c": 50}, view.Deviation)
	assert.Equal(t, 600.0, view.KPIs.GrandTotal)

	require.Len(t, view.Missing, 1)
	assert.Equal(t, "d", view.Missing[0].Location)

	assert.Equal(t, 6, view.Rows.Total)
	assert.Equal(t, DefaultPageSize, view.Rows.Limit)
	assert.NotContains(t, view.Rows.Columns, "Cantidad")
}

func TestDashboardServiceViewFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("location subset", func(t *testing.T) {
		view, err := svc.View(ctx, domain.DashboardFilters{Locations: []string{"a", "b"}}, 0, 0)
		require.NoError(t, err)
		require.Len(t, view.Ranking, 2)
		assert.Equal(t, "b", view.Ranking[0].Location)
		assert.Equal(t, 300.0, view.KPIs.GrandTotal)
		assert.Equal(t, 3, view.Rows.Total)
	})

	t.Run("location count follows the selection", func(t *testing.T) {
		view, err := svc.View(ctx, allLocations(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, view.KPIs.Locations)

		view, err = svc.View(ctx, domain.DashboardFilters{Locations: []string{"a", "c", "ghost"}}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, view.KPIs.Locations)
		assert.Equal(t, 5, view.KPIs.Rows)
	})

	t.Run("no locations", func(t *testing.T) {
		view, err := svc.View(ctx, domain.DashboardFilters{}, 0, 0)
		require.NoError(t, err)
		assert.True(t, view.Empty)
		assert.Empty(t, view.Ranking)
		assert.Equal(t, 0, view.Rows.Total)
		assert.Equal(t, []string{"a", "b", "c"}, view.AllLocations)
	})

	t.Run("category restricts rows only", func(t *testing.T) {
		filters := allLocations()
		filters.CategoryField = "Producto"
		filters.CategoryValues = []string{"Y"}

		view, err := svc.View(ctx, filters, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 600.0, view.KPIs.GrandTotal)
		assert.Equal(t, 3, view.Rows.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		view, err := svc.View(ctx, allLocations(), 2, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, view.Rows.Total)
		assert.Len(t, view.Rows.Rows, 2)
		assert.Equal(t, 4, view.Rows.Offset)
	})
}

func TestDashboardServiceViewErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	filters := allLocations()
	filters.Metric = "Producto"
	_, err := svc.View(ctx, filters, 0, 0)
	assert.ErrorIs(t, err, dataprocessing.ErrInvalidMetric)

	filters = allLocations()
	filters.CategoryField = "Total"
	filters.CategoryValues = []string{"1"}
	_, err = svc.View(ctx, filters, 0, 0)
	assert.ErrorIs(t, err, dataprocessing.ErrInvalidCategory)

	_, err = svc.Categories(ctx, "Nope", allLocations())
	assert.ErrorIs(t, err, dataprocessing.ErrInvalidCategory)
}

func TestDashboardServiceCategories(t *testing.T) {
	svc := newTestService(t)

	values, err := svc.Categories(context.Background(), "Producto", allLocations())
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, values)

	values, err = svc.Categories(context.Background(), "Producto", domain.DashboardFilters{Locations: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, values)
}

func TestDashboardServiceSnapshot(t *testing.T) {
	svc := newTestService(t)

	status, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, status.Rows)
	assert.Equal(t, []string{"a", "b", "c"}, status.Locations)
	assert.Equal(t, "Total", status.DefaultMetric)
	assert.Len(t, status.Loaded, 3)
	require.Len(t, status.Missing, 1)
	assert.Equal(t, "d", status.Missing[0].Location)
	assert.Empty(t, status.Failed)
}

func TestDashboardServiceLoadIsMemoized(t *testing.T) {
	loader, _ := writeStores(t)
	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	m := new(MockLoader)
	m.On("Load", mock.Anything).Return(result, nil).Once()

	svc := NewDashboardService(m, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Load(context.Background())
			assert.NoError(t, err)
			assert.Same(t, result, got)
		}()
	}
	wg.Wait()

	m.AssertNumberOfCalls(t, "Load", 1)
}

func TestDashboardServiceLoadFailureBlocksViews(t *testing.T) {
	loadErr := &dataprocessing.LoadError{Resolver: "mock", Missing: []domain.MissingSource{{Location: "a", Path: "/x.csv"}}}

	m := new(MockLoader)
	m.On("Load", mock.Anything).Return(nil, loadErr).Once()

	svc := NewDashboardService(m, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.View(ctx, allLocations(), 0, 0)
	assert.ErrorIs(t, err, dataprocessing.ErrLoadFailure)

	_, err = svc.Snapshot(ctx)
	assert.ErrorIs(t, err, dataprocessing.ErrLoadFailure)

	loaded, statusErr := svc.LoadStatus()
	assert.False(t, loaded)
	assert.ErrorIs(t, statusErr, dataprocessing.ErrLoadFailure)

	m.AssertNumberOfCalls(t, "Load", 1)
}

func TestDashboardServiceContextErrorNotMemoized(t *testing.T) {
	loader, _ := writeStores(t)
	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	m := new(MockLoader)
	m.On("Load", mock.Anything).Return(nil, context.Canceled).Once()
	m.On("Load", mock.Anything).Return(result, nil).Once()

	svc := NewDashboardService(m, nil, nil, nil)

	_, err = svc.Load(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))

	loaded, _ := svc.LoadStatus()
	assert.False(t, loaded)

	got, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, got)
}

func TestDashboardServiceReload(t *testing.T) {
	loader, mapping := writeStores(t)
	svc := NewDashboardService(loader, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(mapping["a"], []byte("Total,Producto\n1000,X\n"), 0o644))

	second, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	view, err := svc.View(ctx, allLocations(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", view.Ranking[0].Location)
	assert.Equal(t, 1500.0, view.KPIs.GrandTotal)

	// first snapshot is untouched
	assert.Equal(t, 6, first.Table.Len())
}

func TestDashboardServiceFailedReloadKeepsTable(t *testing.T) {
	loader, _ := writeStores(t)
	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	m := new(MockLoader)
	m.On("Load", mock.Anything).Return(result, nil).Once()
	m.On("Load", mock.Anything).Return(nil, &dataprocessing.LoadError{Resolver: "mock"}).Once()

	logger, logs := testutil.NewTestLogger(t)
	svc := NewDashboardService(m, nil, nil, logger)
	ctx := context.Background()

	_, err = svc.Load(ctx)
	require.NoError(t, err)
	testutil.AssertNoErrors(t, logs)

	_, err = svc.Reload(ctx)
	assert.ErrorIs(t, err, dataprocessing.ErrLoadFailure)
	testutil.AssertLogContains(t, logs, slog.LevelError, "Sales data load failed")
	warn := testutil.AssertLogContains(t, logs, slog.LevelWarn, "keeping previous table")
	assert.Equal(t, "dashboard_service", warn.Attrs["component"])

	got, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, result, got)

	loaded, statusErr := svc.LoadStatus()
	assert.True(t, loaded)
	assert.NoError(t, statusErr)
}

func TestDashboardServiceReport(t *testing.T) {
	svc := newTestService(t)

	filters := domain.DashboardFilters{Locations: []string{"a", "c"}, CategoryField: "Producto", CategoryValues: []string{"X"}}
	report, rows, err := svc.Report(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, "Total", report.Metric)
	assert.Len(t, report.Ranking, 2)
	assert.Equal(t, 2, rows.Len())
}
