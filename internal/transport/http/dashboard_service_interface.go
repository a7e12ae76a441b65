package http

import (
	"context"

	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	View(ctx context.Context, filters domain.DashboardFilters, limit, offset int) (*domain.DashboardView, error)
	Rows(ctx context.Context, filters domain.DashboardFilters, limit, offset int) (*domain.RowsPage, error)
	Categories(ctx context.Context, field string, filters domain.DashboardFilters) ([]string, error)
	Snapshot(ctx context.Context) (*domain.SourcesStatus, error)
	Reload(ctx context.Context) (*dataprocessing.LoadResult, error)
	Report(ctx context.Context, filters domain.DashboardFilters) (*dataprocessing.Report, *dataprocessing.Table, error)
	RecordExport(ctx context.Context, format string)
}
