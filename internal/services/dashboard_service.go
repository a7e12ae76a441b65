package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 10000
)

// Loader produces the unified sales table
type Loader interface {
	Load(ctx context.Context) (*dataprocessing.LoadResult, error)
	Describe() string
}

// snapshot is one completed load, successful or not
type snapshot struct {
	result *dataprocessing.LoadResult
	err    error
}

// DashboardService holds the loaded table and computes dashboard views.
type DashboardService struct {
	loader  Loader
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	logger  *slog.Logger

	loadMu  sync.Mutex
	mu      sync.RWMutex
	current *snapshot
}

// NewDashboardService creates the service. Nil metrics or tracer fall back
// to no-op and global implementations.
func NewDashboardService(loader Loader, metrics *infrastructure.BusinessMetrics, tracer trace.Tracer, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}

	logger = logger.With(slog.String("component", "dashboard_service"))
	logger.Info("DashboardService initialized", slog.String("sources", loader.Describe()))

	return &DashboardService{
		loader:  loader,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
	}
}

// Load returns the memoized load, loading on first use. A load that failed
// with ErrLoadFailure stays failed until Reload.
func (s *DashboardService) Load(ctx context.Context) (*dataprocessing.LoadResult, error) {
	if snap := s.snapshot(); snap != nil {
		return snap.result, snap.err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if snap := s.snapshot(); snap != nil {
		return snap.result, snap.err
	}

	snap, err := s.load(ctx)
	if err != nil && !errors.Is(err, dataprocessing.ErrLoadFailure) {
		return nil, err
	}
	s.publish(snap)
	return snap.result, snap.err
}

// Reload reads every source again. A successful reload replaces the current
// table; a failed one keeps a previously loaded table and returns the error.
func (s *DashboardService) Reload(ctx context.Context) (*dataprocessing.LoadResult, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, dataprocessing.ErrLoadFailure) {
			return nil, err
		}
		if prev := s.snapshot(); prev != nil && prev.err == nil {
			s.logger.WarnContext(ctx, "Reload failed, keeping previous table", slog.String("error", err.Error()))
			return nil, err
		}
	}
	s.publish(snap)
	return snap.result, snap.err
}

// LoadStatus reports whether a table is available and the last load error.
func (s *DashboardService) LoadStatus() (bool, error) {
	snap := s.snapshot()
	if snap == nil {
		return false, nil
	}
	return snap.err == nil, snap.err
}

func (s *DashboardService) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *DashboardService) publish(snap *snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}

func (s *DashboardService) load(ctx context.Context) (*snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load")
	defer span.End()

	start := time.Now()
	result, err := s.loader.Load(ctx)
	duration := time.Since(start)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		missing, failed := 0, 0
		var loadErr *dataprocessing.LoadError
		if errors.As(err, &loadErr) {
			missing, failed = len(loadErr.Missing), len(loadErr.Failed)
		}
		infrastructure.RecordLoadMetrics(ctx, s.metrics, duration, 0, 0, missing, failed, err)
		s.logger.ErrorContext(ctx, "Sales data load failed",
			slog.String("sources", s.loader.Describe()),
			slog.String("error", err.Error()))
		return &snapshot{err: err}, err
	}

	locations := result.Table.Locations()
	infrastructure.RecordLoadMetrics(ctx, s.metrics, duration, result.Table.Len(), len(locations),
		len(result.Missing), len(result.Failed), nil)
	span.SetAttributes(
		attribute.Int("sales.rows", result.Table.Len()),
		attribute.Int("sales.locations", len(locations)),
		attribute.Int("sales.missing", len(result.Missing)))
	return &snapshot{result: result}, nil
}

// View computes the dashboard for filters. The category filter only
// restricts the data table; every aggregate uses the location selection.
func (s *DashboardService) View(ctx context.Context, filters domain.DashboardFilters, limit, offset int) (*domain.DashboardView, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.view")
	defer span.End()

	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	table := result.Table

	metricName, err := dataprocessing.ResolveMetric(table, filters.Metric)
	if err != nil {
		return nil, err
	}
	filters.Metric = metricName

	selected := selectLocations(table, filters)
	report, err := dataprocessing.Summarize(selected, metricName)
	if err != nil {
		return nil, err
	}

	rows, err := dataprocessing.FilterByCategory(selected, filters.CategoryField, filters.CategoryValues)
	if err != nil {
		return nil, err
	}

	if filters.AllLocations {
		filters.Locations = table.Locations()
	}

	view := &domain.DashboardView{
		Filters:      filters,
		Empty:        selected.Empty(),
		KPIs:         report.KPIs,
		Stats:        report.Stats,
		Ranking:      report.Ranking,
		Deviation:    report.Deviation,
		Share:        report.Share,
		Performance:  report.Performance,
		Rows:         page(rows, limit, offset),
		Missing:      result.Missing,
		Metrics:      table.NumericColumns(),
		Categories:   table.CategoricalColumns(),
		AllLocations: table.Locations(),
		GeneratedAt:  time.Now(),
	}

	s.metrics.ViewsComputed.Add(ctx, 1, metric.WithAttributes(attribute.String("metric", metricName)))
	span.SetAttributes(
		attribute.String("sales.metric", metricName),
		attribute.Int("sales.selected_rows", selected.Len()))
	s.logger.DebugContext(ctx, "Dashboard view computed",
		slog.String("metric", metricName),
		slog.Int("locations", len(view.Ranking)),
		slog.Int("rows", view.Rows.Total),
		slog.Bool("empty", view.Empty))

	return view, nil
}

// Rows returns one page of the filtered data table.
func (s *DashboardService) Rows(ctx context.Context, filters domain.DashboardFilters, limit, offset int) (*domain.RowsPage, error) {
	table, err := s.FilteredTable(ctx, filters)
	if err != nil {
		return nil, err
	}
	rows := page(table, limit, offset)
	return &rows, nil
}

// FilteredTable applies the location and category filters.
func (s *DashboardService) FilteredTable(ctx context.Context, filters domain.DashboardFilters) (*dataprocessing.Table, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.FilterByCategory(selectLocations(result.Table, filters), filters.CategoryField, filters.CategoryValues)
}

// Report summarizes the location selection and returns it with the
// category-filtered rows, for exports and charts.
func (s *DashboardService) Report(ctx context.Context, filters domain.DashboardFilters) (*dataprocessing.Report, *dataprocessing.Table, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	metricName, err := dataprocessing.ResolveMetric(result.Table, filters.Metric)
	if err != nil {
		return nil, nil, err
	}

	selected := selectLocations(result.Table, filters)
	report, err := dataprocessing.Summarize(selected, metricName)
	if err != nil {
		return nil, nil, err
	}
	rows, err := dataprocessing.FilterByCategory(selected, filters.CategoryField, filters.CategoryValues)
	if err != nil {
		return nil, nil, err
	}
	return report, rows, nil
}

// Categories returns the distinct values of a categorical field within the
// location selection.
func (s *DashboardService) Categories(ctx context.Context, field string, filters domain.DashboardFilters) ([]string, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !result.Table.IsCategorical(field) {
		return nil, &dataprocessing.CategoryError{Field: field, Available: result.Table.CategoricalColumns()}
	}
	return selectLocations(result.Table, filters).DistinctValues(field), nil
}

// Snapshot describes the current load.
func (s *DashboardService) Snapshot(ctx context.Context) (*domain.SourcesStatus, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	table := result.Table
	defaultMetric, _ := dataprocessing.DefaultMetric(table)

	loaded := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		loaded = append(loaded, src.Path)
	}
	missing := result.Missing
	if missing == nil {
		missing = []domain.MissingSource{}
	}

	return &domain.SourcesStatus{
		Resolver:           result.Resolver,
		LoadedAt:           result.LoadedAt,
		DurationMS:         result.Duration.Milliseconds(),
		Rows:               table.Len(),
		Locations:          table.Locations(),
		Columns:            table.ColumnInfo(),
		NumericColumns:     table.NumericColumns(),
		CategoricalColumns: table.CategoricalColumns(),
		DefaultMetric:      defaultMetric,
		Loaded:             loaded,
		Missing:            missing,
		Failed:             dataprocessing.FailedSources(result.Failed),
	}, nil
}

// RecordExport counts one export of format
func (s *DashboardService) RecordExport(ctx context.Context, format string) {
	s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

func selectLocations(table *dataprocessing.Table, filters domain.DashboardFilters) *dataprocessing.Table {
	if filters.AllLocations {
		return table
	}
	return dataprocessing.FilterByLocations(table, filters.Locations)
}

func page(table *dataprocessing.Table, limit, offset int) domain.RowsPage {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	records := table.Page(offset, limit)
	return domain.RowsPage{
		Columns: records[0],
		Rows:    records[1:],
		Total:   table.Len(),
		Limit:   limit,
		Offset:  offset,
	}
}
