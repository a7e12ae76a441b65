package dataprocessing

import (
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

// buildTable concatenates one CSV body per location in argument order.
func buildTable(t *testing.T, locations []string, bodies ...string) *Table {
	t.Helper()
	require.Equal(t, len(locations), len(bodies))

	frames := make([]dataframe.DataFrame, 0, len(bodies))
	for i, body := range bodies {
		df, err := ReadSource(strings.NewReader(body), locations[i])
		require.NoError(t, err)
		frames = append(frames, df)
	}
	df, err := concatFrames(frames)
	require.NoError(t, err)
	return NewTable(df)
}

func threeStores(t *testing.T) *Table {
	return buildTable(t,
		[]string{"a", "b", "c"},
		"Total,Producto\n60,X\n40,Y\n",
		"Total,Producto\n200,X\n",
		"Total,Producto\n100,X\n150,Y\n50,Y\n",
	)
}

func TestEndToEndRanking(t *testing.T) {
	table := threeStores(t)

	report, err := Summarize(table, "")
	require.NoError(t, err)
	assert.Equal(t, "Total", report.Metric)

	require.Len(t, report.Ranking, 3)
	assert.Equal(t, domain.RankEntry{Position: 1, Location: "c", Total: 300, Relative: domain.RelativeAbove, Deviation: 50, Share: 50}, report.Ranking[0])
	assert.Equal(t, "b", report.Ranking[1].Location)
	assert.Equal(t, domain.RelativeBelow, report.Ranking[1].Relative)
	assert.Equal(t, "a", report.Ranking[2].Location)
	assert.Equal(t, domain.RelativeBelow, report.Ranking[2].Relative)

	assert.Equal(t, map[string]float64{"a": -50, "b": 0, "c": 50}, report.Deviation)

	assert.Equal(t, 600.0, report.KPIs.GrandTotal)
	assert.Equal(t, 200.0, report.KPIs.AveragePerLocation)
	assert.Equal(t, 3, report.KPIs.Locations)
	assert.Equal(t, 6, report.KPIs.Rows)

	assert.Equal(t, 1, report.Performance.Above)
	assert.Equal(t, 2, report.Performance.Below)
	assert.Equal(t, "c", report.Performance.Best)
	assert.Equal(t, "a", report.Performance.Worst)
}

func TestTotalsSumMatchesColumnSum(t *testing.T) {
	table := threeStores(t)

	totals, err := TotalsByLocation(table, "Total")
	require.NoError(t, err)

	var columnSum float64
	for _, v := range table.Floats("Total") {
		columnSum += v
	}
	assert.InDelta(t, columnSum, totals.Sum(), 1e-9)
}

func TestRankIsPermutation(t *testing.T) {
	totals := Totals{
		{Location: "d", Total: 10},
		{Location: "a", Total: 30},
		{Location: "c", Total: 30},
		{Location: "b", Total: 5},
	}

	ranking := Rank(totals)
	require.Len(t, ranking, len(totals))

	seen := make(map[string]bool)
	for i, entry := range ranking {
		assert.Equal(t, i+1, entry.Position)
		seen[entry.Location] = true
		if i > 0 {
			assert.LessOrEqual(t, entry.Total, ranking[i-1].Total)
		}
	}
	assert.Len(t, seen, len(totals))

	assert.Equal(t, "a", ranking[0].Location)
	assert.Equal(t, "c", ranking[1].Location)
}

func TestPercentDeviation(t *testing.T) {
	tests := []struct {
		name   string
		totals Totals
		want   map[string]float64
	}{
		{
			name:   "equal totals",
			totals: Totals{{Location: "a", Total: 7}, {Location: "b", Total: 7}},
			want:   map[string]float64{"a": 0, "b": 0},
		},
		{
			name:   "zero mean",
			totals: Totals{{Location: "a", Total: 0}, {Location: "b", Total: 0}},
			want:   map[string]float64{"a": 0, "b": 0},
		},
		{
			name:   "spread",
			totals: Totals{{Location: "a", Total: 100}, {Location: "b", Total: 300}},
			want:   map[string]float64{"a": -50, "b": 50},
		},
		{
			name:   "empty",
			totals: Totals{},
			want:   map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentDeviation(tt.totals))
		})
	}
}

func TestEqualToMeanIsBelow(t *testing.T) {
	ranking := Rank(Totals{{Location: "a", Total: 5}, {Location: "b", Total: 5}})
	for _, entry := range ranking {
		assert.Equal(t, domain.RelativeBelow, entry.Relative)
	}
}

func TestShare(t *testing.T) {
	share := Share(Totals{{Location: "a", Total: 25}, {Location: "b", Total: 75}})
	assert.Equal(t, map[string]float64{"a": 25, "b": 75}, share)

	assert.Equal(t, map[string]float64{"a": 0}, Share(Totals{{Location: "a", Total: 0}}))
}

func TestSummaryStatsByLocation(t *testing.T) {
	table := buildTable(t,
		[]string{"a", "b"},
		"Total\n1\n2\n3\n4\n",
		"Total\n9\n",
	)

	stats, err := SummaryStatsByLocation(table, "Total")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "a", a.Location)
	assert.Equal(t, 4, a.Count)
	assert.Equal(t, 10.0, a.Sum)
	assert.Equal(t, 2.5, a.Mean)
	assert.Equal(t, 2.5, a.Median)
	assert.InDelta(t, 1.2909944, a.StdDev, 1e-6)
	assert.Equal(t, 1.0, a.Min)
	assert.Equal(t, 4.0, a.Max)

	b := stats[1]
	assert.Equal(t, 1, b.Count)
	assert.Equal(t, 0.0, b.StdDev)
	assert.Equal(t, 9.0, b.Median)
}

func TestNullMetricCellsAreSkipped(t *testing.T) {
	table := buildTable(t,
		[]string{"a", "b"},
		"Total,Producto\n10,X\n,Y\n",
		"Total,Producto\n,X\n",
	)

	totals, err := TotalsByLocation(table, "Total")
	require.NoError(t, err)
	assert.Equal(t, Totals{{Location: "a", Total: 10}}, totals)
}

func TestInvalidMetric(t *testing.T) {
	table := threeStores(t)

	for _, metric := range []string{"Missing", "Producto", domain.LocationColumn} {
		_, err := TotalsByLocation(table, metric)
		assert.ErrorIs(t, err, ErrInvalidMetric, metric)

		_, err = Summarize(table, metric)
		var metricErr *MetricError
		require.ErrorAs(t, err, &metricErr)
		assert.Equal(t, metric, metricErr.Metric)
		assert.Equal(t, []string{"Total"}, metricErr.Available)
	}
}

func TestDefaultMetricWithoutNumericColumns(t *testing.T) {
	table := buildTable(t, []string{"a"}, "Producto\nX\n")
	_, err := DefaultMetric(table)
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

func TestEmptyTableAggregates(t *testing.T) {
	table := FilterByLocations(threeStores(t), nil)

	report, err := Summarize(table, "Total")
	require.NoError(t, err)
	assert.Empty(t, report.Ranking)
	assert.Empty(t, report.Stats)
	assert.Equal(t, 0.0, report.KPIs.GrandTotal)
	assert.Equal(t, 0, report.KPIs.Locations)
}
