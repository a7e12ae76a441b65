package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"gonum.org/v1/plot"

	"salespulse/internal/dataprocessing"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	appmiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePNG  = "image/png"
)

// DashboardHandler serves the sales dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *appmiddleware.Validator
	csv          *exporter.CSVWriter
	excel        *exporter.ExcelExporter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    appmiddleware.NewValidator(logger),
		csv:          exporter.NewCSVWriter(),
		excel:        exporter.NewExcelExporter(logger),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/sources", h.GetSources)
		r.Get("/view", h.GetView)
		r.Get("/rows", h.GetRows)
		r.Get("/categories/{field}", h.GetCategories)
		r.Post("/reload", h.Reload)
	})

	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportExcel)
	r.Get("/charts/{kind}.png", h.GetChart)

	return r
}

// GetSources handles GET /api/dashboard/sources
func (h *DashboardHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// GetView handles GET /api/dashboard/view
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.View(r.Context(), query.filters, query.limit, query.offset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, view)
}

// GetRows handles GET /api/dashboard/rows
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.Rows(r.Context(), query.filters, query.limit, query.offset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, rows)
}

// GetCategories handles GET /api/dashboard/categories/{field}
func (h *DashboardHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	if field == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("field", "field is required"))
		return
	}

	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	values, err := h.service.Categories(r.Context(), field, query.filters)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"field":  field,
		"data":   values,
		"count":  len(values),
	})
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "reloading sales data", slog.String("request_id", reqID))

	if _, err := h.service.Reload(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// ExportCSV handles GET /api/dashboard/export.csv, the filtered data table
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	_, table, err := h.service.Report(r.Context(), query.filters)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.csv.WriteTable(&buf, table); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("csv", err))
		return
	}

	h.service.RecordExport(r.Context(), "csv")
	h.writeAttachment(w, contentTypeCSV, exportFilename("csv"), buf.Bytes())
}

// ExportExcel handles GET /api/dashboard/export.xlsx, the full report workbook
func (h *DashboardHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, table, err := h.service.Report(r.Context(), query.filters)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.excel.Write(&buf, report, table); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("xlsx", err))
		return
	}

	h.service.RecordExport(r.Context(), "xlsx")
	h.writeAttachment(w, contentTypeXLSX, exportFilename("xlsx"), buf.Bytes())
}

// GetChart handles GET /api/dashboard/charts/{kind}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !exporter.ValidChartKind(kind) {
		h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError(fmt.Sprintf("chart %q", kind)).WithContext("kind", kind))
		return
	}

	query, err := parseDashboardQuery(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, _, err := h.service.Report(r.Context(), query.filters)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var p *plot.Plot
	switch exporter.ChartKind(kind) {
	case exporter.ChartDeviation:
		p, err = exporter.DeviationChart(report.Ranking)
	default:
		p, err = exporter.SalesChart(report.Stats, report.Metric)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("png", err))
		return
	}

	var buf bytes.Buffer
	if err := exporter.RenderPNG(&buf, p, exporter.DefaultChartWidth, exporter.DefaultChartHeight); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("png", err))
		return
	}

	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type dashboardQuery struct {
	filters domain.DashboardFilters
	limit   int
	offset  int
}

// parseDashboardQuery reads the shared filter parameters. An absent location
// parameter selects every location; a present but empty one selects none.
func parseDashboardQuery(r *http.Request, validator *appmiddleware.Validator) (dashboardQuery, error) {
	values := r.URL.Query()

	limit, err := appmiddleware.QueryInt(r, "limit", 0, services.MaxPageSize, services.DefaultPageSize)
	if err != nil {
		return dashboardQuery{}, err
	}
	offset, err := appmiddleware.QueryInt(r, "offset", 0, math.MaxInt32, 0)
	if err != nil {
		return dashboardQuery{}, err
	}

	q := domain.ViewQuery{
		Locations:      values["location"],
		Metric:         values.Get("metric"),
		CategoryField:  values.Get("field"),
		CategoryValues: values["value"],
		Limit:          limit,
		Offset:         offset,
	}
	if err := validator.ValidateStruct(q); err != nil {
		return dashboardQuery{}, err
	}

	_, present := values["location"]
	return dashboardQuery{filters: q.Filters(present), limit: limit, offset: offset}, nil
}

// handleServiceError maps dashboard errors onto API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		metricErr   *dataprocessing.MetricError
		categoryErr *dataprocessing.CategoryError
		loadErr     *dataprocessing.LoadError
	)

	switch {
	case errors.As(err, &metricErr):
		err = apierrors.InvalidMetricError(metricErr.Metric, metricErr.Available)
	case errors.As(err, &categoryErr):
		err = apierrors.InvalidCategoryError(categoryErr.Field, categoryErr.Available)
	case errors.As(err, &loadErr):
		missing := loadErr.Missing
		if missing == nil {
			missing = []domain.MissingSource{}
		}
		err = apierrors.LoadFailureError(loadErr.Error(), map[string]interface{}{
			"resolver": loadErr.Resolver,
			"missing":  missing,
			"failed":   dataprocessing.FailedSources(loadErr.Failed),
		})
	case errors.Is(err, dataprocessing.ErrLoadFailure):
		err = apierrors.LoadFailureError(err.Error(), nil)
	}

	h.errorHandler.HandleError(w, r, err)
}

func (h *DashboardHandler) writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func exportFilename(ext string) string {
	return fmt.Sprintf("sales_report_%s.%s", time.Now().Format("20060102_150405"), ext)
}
