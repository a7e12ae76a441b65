package dataprocessing

import (
	"sort"

	"github.com/go-gota/gota/series"

	"salespulse/pkg/contracts/domain"
)

// Totals are the summed metric per location, ordered by location name.
// Locations without any non-null metric value are absent.
type Totals []domain.LocationTotal

// Sum returns the grand total
func (t Totals) Sum() float64 {
	var sum float64
	for _, lt := range t {
		sum += lt.Total
	}
	return sum
}

// Mean returns the average location total, 0 for no locations
func (t Totals) Mean() float64 {
	if len(t) == 0 {
		return 0
	}
	return t.Sum() / float64(len(t))
}

// Get returns the total of one location
func (t Totals) Get(location string) (float64, bool) {
	for _, lt := range t {
		if lt.Location == location {
			return lt.Total, true
		}
	}
	return 0, false
}

// Locations returns the locations in order
func (t Totals) Locations() []string {
	out := make([]string, len(t))
	for i, lt := range t {
		out[i] = lt.Location
	}
	return out
}

// Report bundles every aggregate of one metric over one table.
type Report struct {
	Metric      string
	KPIs        domain.KPIs
	Totals      Totals
	Stats       []domain.LocationStats
	Ranking     []domain.RankEntry
	Deviation   map[string]float64
	Share       map[string]float64
	Performance domain.PerformanceSummary
}

// Summarize computes the full report. An empty metric selects DefaultMetric.
func Summarize(t *Table, metric string) (*Report, error) {
	metric, err := ResolveMetric(t, metric)
	if err != nil {
		return nil, err
	}

	stats, err := SummaryStatsByLocation(t, metric)
	if err != nil {
		return nil, err
	}
	totals := totalsFromStats(stats)
	ranking := Rank(totals)

	return &Report{
		Metric:      metric,
		KPIs:        Headline(t, metric, totals),
		Totals:      totals,
		Stats:       stats,
		Ranking:     ranking,
		Deviation:   PercentDeviation(totals),
		Share:       Share(totals),
		Performance: Performance(ranking),
	}, nil
}

// DefaultMetric returns the first numeric column in table order.
func DefaultMetric(t *Table) (string, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return "", &MetricError{}
	}
	return numeric[0], nil
}

// ResolveMetric validates metric against t, substituting DefaultMetric for "".
func ResolveMetric(t *Table, metric string) (string, error) {
	if metric == "" {
		return DefaultMetric(t)
	}
	if !t.IsNumeric(metric) {
		return "", &MetricError{Metric: metric, Available: t.NumericColumns()}
	}
	return metric, nil
}

// TotalsByLocation sums metric per location.
func TotalsByLocation(t *Table, metric string) (Totals, error) {
	groups, order, err := groupByLocation(t, metric)
	if err != nil {
		return nil, err
	}

	totals := make(Totals, 0, len(order))
	for _, location := range order {
		totals = append(totals, domain.LocationTotal{Location: location, Total: sum(groups[location])})
	}
	return totals, nil
}

// SummaryStatsByLocation returns count, sum, mean, median, sample standard
// deviation, min and max of metric per location, sorted by location. A
// single-row location has a standard deviation of 0.
func SummaryStatsByLocation(t *Table, metric string) ([]domain.LocationStats, error) {
	groups, order, err := groupByLocation(t, metric)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.LocationStats, 0, len(order))
	for _, location := range order {
		values := groups[location]
		s := series.Floats(values)

		std := 0.0
		if len(values) > 1 {
			std = s.StdDev()
		}
		stats = append(stats, domain.LocationStats{
			Location: location,
			Count:    len(values),
			Sum:      sum(values),
			Mean:     s.Mean(),
			Median:   s.Median(),
			StdDev:   std,
			Min:      s.Min(),
			Max:      s.Max(),
		})
	}
	return stats, nil
}

// Rank orders locations by total descending, ties broken by name. A location
// is above average only when its total strictly exceeds the mean total.
func Rank(totals Totals) []domain.RankEntry {
	sorted := make(Totals, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].Location < sorted[j].Location
	})

	mean := totals.Mean()
	deviation := PercentDeviation(totals)
	share := Share(totals)

	ranking := make([]domain.RankEntry, len(sorted))
	for i, lt := range sorted {
		relative := domain.RelativeBelow
		if lt.Total > mean {
			relative = domain.RelativeAbove
		}
		ranking[i] = domain.RankEntry{
			Position:  i + 1,
			Location:  lt.Location,
			Total:     lt.Total,
			Relative:  relative,
			Deviation: deviation[lt.Location],
			Share:     share[lt.Location],
		}
	}
	return ranking
}

// PercentDeviation returns (total - mean) / mean * 100 per location. Every
// deviation is 0 when the mean is 0.
func PercentDeviation(totals Totals) map[string]float64 {
	mean := totals.Mean()
	out := make(map[string]float64, len(totals))
	for _, lt := range totals {
		if mean == 0 {
			out[lt.Location] = 0
			continue
		}
		out[lt.Location] = (lt.Total - mean) / mean * 100
	}
	return out
}

// Share returns each location's percentage of the grand total, all 0 when
// the grand total is 0.
func Share(totals Totals) map[string]float64 {
	grand := totals.Sum()
	out := make(map[string]float64, len(totals))
	for _, lt := range totals {
		if grand == 0 {
			out[lt.Location] = 0
			continue
		}
		out[lt.Location] = lt.Total / grand * 100
	}
	return out
}

// Headline returns the KPI tiles for a table and its totals.
func Headline(t *Table, metric string, totals Totals) domain.KPIs {
	return domain.KPIs{
		Metric:             metric,
		GrandTotal:         totals.Sum(),
		AveragePerLocation: totals.Mean(),
		Locations:          len(t.Locations()),
		Rows:               t.Len(),
	}
}

// Performance counts the ranking on each side of the average.
func Performance(ranking []domain.RankEntry) domain.PerformanceSummary {
	summary := domain.PerformanceSummary{
		AboveList: []string{},
		BelowList: []string{},
	}
	for _, entry := range ranking {
		if entry.IsAbove() {
			summary.Above++
			summary.AboveList = append(summary.AboveList, entry.Location)
		} else {
			summary.Below++
			summary.BelowList = append(summary.BelowList, entry.Location)
		}
	}
	if len(ranking) > 0 {
		summary.Best = ranking[0].Location
		summary.Worst = ranking[len(ranking)-1].Location
	}
	return summary
}

// groupByLocation collects the non-null metric values of each location and
// returns the locations sorted by name.
func groupByLocation(t *Table, metric string) (map[string][]float64, []string, error) {
	if !t.IsNumeric(metric) {
		return nil, nil, &MetricError{Metric: metric, Available: t.NumericColumns()}
	}

	locations := t.Strings(domain.LocationColumn)
	values := t.Floats(metric)

	groups := make(map[string][]float64)
	for i, location := range locations {
		if isNull(values[i]) {
			continue
		}
		groups[location] = append(groups[location], values[i])
	}

	order := make([]string, 0, len(groups))
	for location := range groups {
		order = append(order, location)
	}
	sort.Strings(order)
	return groups, order, nil
}

func totalsFromStats(stats []domain.LocationStats) Totals {
	totals := make(Totals, len(stats))
	for i, s := range stats {
		totals[i] = domain.LocationTotal{Location: s.Location, Total: s.Sum}
	}
	return totals
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
