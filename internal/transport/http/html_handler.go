package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"salespulse/internal/dataprocessing"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	appmiddleware "salespulse/internal/middleware"
	"salespulse/pkg/contracts"
	"salespulse/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"currency": exporter.FormatCurrency,
	"number":   exporter.FormatNumber,
	"percent":  exporter.FormatPercent,
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
}

// dashboardPage is the data rendered by dashboard.html
type dashboardPage struct {
	Version string
	View    *domain.DashboardView
	Query   template.URL
	Error   string
	Missing []domain.MissingSource
	Failed  []domain.FailedSource
}

// HTMLHandler renders the server-side dashboard page
type HTMLHandler struct {
	service   DashboardServiceInterface
	validator *appmiddleware.Validator
	tmpl      *template.Template
	logger    *slog.Logger
}

// NewHTMLHandler parses the embedded templates
func NewHTMLHandler(service DashboardServiceInterface, logger *slog.Logger) (*HTMLHandler, error) {
	tmpl, err := template.New("dashboard.html").Funcs(pageFuncs).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	return &HTMLHandler{
		service:   service,
		validator: appmiddleware.NewValidator(logger),
		tmpl:      tmpl,
		logger:    logger.With(slog.String("component", "html_handler")),
	}, nil
}

// ServeDashboard handles GET /
func (h *HTMLHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Version: contracts.GetVersionString(),
		Query:   template.URL(chartQuery(r.URL.Query())),
	}
	status := http.StatusOK

	query, err := parseDashboardQuery(r, h.validator)
	if err == nil {
		page.View, err = h.service.View(r.Context(), query.filters, query.limit, query.offset)
	}
	if err != nil {
		status = h.describeError(&page, err)
		h.logger.WarnContext(r.Context(), "dashboard page rendered with error",
			slog.String("error", err.Error()),
			slog.Int("status", status))
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// describeError fills the page error banner and returns the HTTP status
func (h *HTMLHandler) describeError(page *dashboardPage, err error) int {
	page.Error = err.Error()

	var (
		loadErr *dataprocessing.LoadError
		apiErr  *apierrors.APIError
	)
	switch {
	case errors.As(err, &loadErr):
		page.Missing = loadErr.Missing
		page.Failed = dataprocessing.FailedSources(loadErr.Failed)
		return http.StatusServiceUnavailable
	case errors.Is(err, dataprocessing.ErrLoadFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, dataprocessing.ErrInvalidMetric), errors.Is(err, dataprocessing.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		page.Error = apiErr.Message
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// chartQuery keeps the filter parameters for chart and export links
func chartQuery(values url.Values) string {
	keep := url.Values{}
	for _, key := range []string{"location", "metric", "field", "value"} {
		if v, ok := values[key]; ok {
			keep[key] = v
		}
	}
	return keep.Encode()
}
