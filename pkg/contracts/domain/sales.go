package domain

import (
	"strings"
	"time"
)

// LocationColumn is the grouping column injected into every loaded row.
const LocationColumn = "Location"

// Relative places a location's total against the mean of all totals
type Relative string

const (
	RelativeAbove Relative = "above"
	RelativeBelow Relative = "below"
)

// LocationTotal is the summed metric of one location
type LocationTotal struct {
	Location string  `json:"location"`
	Total    float64 `json:"total"`
}

// LocationStats holds descriptive statistics of one metric for one location
type LocationStats struct {
	Location string  `json:"location"`
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// RankEntry is one position of the location ranking
type RankEntry struct {
	Position  int      `json:"position"`
	Location  string   `json:"location"`
	Total     float64  `json:"total"`
	Relative  Relative `json:"relative"`
	Deviation float64  `json:"deviation_percent"`
	Share     float64  `json:"share_percent"`
}

// IsAbove reports whether the location beat the average
func (r RankEntry) IsAbove() bool {
	return r.Relative == RelativeAbove
}

// KPIs are the headline tiles of the dashboard.
type KPIs struct {
	Metric             string  `json:"metric"`
	GrandTotal         float64 `json:"grand_total"`
	AveragePerLocation float64 `json:"average_per_location"`
	Locations          int     `json:"locations"`
	Rows               int     `json:"rows"`
}

// PerformanceSummary counts locations on each side of the average
type PerformanceSummary struct {
	Above     int      `json:"above"`
	Below     int      `json:"below"`
	Best      string   `json:"best,omitempty"`
	Worst     string   `json:"worst,omitempty"`
	AboveList []string `json:"above_locations"`
	BelowList []string `json:"below_locations"`
}

// MissingSource is a configured source whose file was absent at load time
type MissingSource struct {
	Location string `json:"location"`
	Path     string `json:"path"`
}

// FailedSource is a source that existed but could not be parsed
type FailedSource struct {
	Location string `json:"location"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// ColumnInfo describes one column of the unified table
type ColumnInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Numeric bool   `json:"numeric"`
}

// SourcesStatus is the metadata of the current load
type SourcesStatus struct {
	Resolver           string          `json:"resolver"`
	LoadedAt           time.Time       `json:"loaded_at"`
	DurationMS         int64           `json:"duration_ms"`
	Rows               int             `json:"rows"`
	Locations          []string        `json:"locations"`
	Columns            []ColumnInfo    `json:"columns"`
	NumericColumns     []string        `json:"numeric_columns"`
	CategoricalColumns []string        `json:"categorical_columns"`
	DefaultMetric      string          `json:"default_metric"`
	Loaded             []string        `json:"loaded_files"`
	Missing            []MissingSource `json:"missing"`
	Failed             []FailedSource  `json:"failed"`
}

// DashboardFilters is the user's current selection
type DashboardFilters struct {
	Locations      []string `json:"locations"`
	AllLocations   bool     `json:"all_locations"`
	Metric         string   `json:"metric"`
	CategoryField  string   `json:"category_field,omitempty"`
	CategoryValues []string `json:"category_values,omitempty"`
}

// ViewQuery is the validated form of the dashboard query string.
type ViewQuery struct {
	Locations      []string `json:"location" validate:"omitempty,dive,max=128"`
	Metric         string   `json:"metric" validate:"omitempty,column"`
	CategoryField  string   `json:"field" validate:"omitempty,column"`
	CategoryValues []string `json:"value" validate:"omitempty,dive,max=256"`
	Limit          int      `json:"limit" validate:"min=0,max=10000"`
	Offset         int      `json:"offset" validate:"min=0"`
}

// Filters converts the query to dashboard filters. A query without any
// location parameter selects every location.
func (q ViewQuery) Filters(locationParamPresent bool) DashboardFilters {
	return DashboardFilters{
		Locations:      compact(q.Locations),
		AllLocations:   !locationParamPresent,
		Metric:         strings.TrimSpace(q.Metric),
		CategoryField:  strings.TrimSpace(q.CategoryField),
		CategoryValues: compact(q.CategoryValues),
	}
}

// compact drops blank values and keeps the rest as sent, since cell values
// are matched exactly.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// DashboardView is everything the page renders for one set of filters.
type DashboardView struct {
	Filters      DashboardFilters   `json:"filters"`
	Empty        bool               `json:"empty"`
	KPIs         KPIs               `json:"kpis"`
	Stats        []LocationStats    `json:"stats"`
	Ranking      []RankEntry        `json:"ranking"`
	Deviation    map[string]float64 `json:"deviation_percent"`
	Share        map[string]float64 `json:"share_percent"`
	Performance  PerformanceSummary `json:"performance"`
	Rows         RowsPage           `json:"rows"`
	Missing      []MissingSource    `json:"missing_sources,omitempty"`
	Metrics      []string           `json:"available_metrics"`
	Categories   []string           `json:"available_categories"`
	AllLocations []string           `json:"available_locations"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// RowsPage is one page of the filtered data table
type RowsPage struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}
