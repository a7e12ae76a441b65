package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewQueryFilters(t *testing.T) {
	tests := []struct {
		name       string
		query      ViewQuery
		present    bool
		wantAll    bool
		wantLocs   []string
		wantMetric string
		wantVals   []string
	}{
		{
			name:       "no location parameter selects all",
			query:      ViewQuery{Metric: " Total "},
			present:    false,
			wantAll:    true,
			wantLocs:   []string{},
			wantMetric: "Total",
		},
		{
			name:     "explicit empty location selects none",
			query:    ViewQuery{Locations: []string{""}},
			present:  true,
			wantAll:  false,
			wantLocs: []string{},
		},
		{
			name:     "empty category values are dropped",
			query:    ViewQuery{CategoryField: "Producto", CategoryValues: []string{"", "  ", "X"}},
			wantAll:  true,
			wantLocs: []string{},
			wantVals: []string{"X"},
		},
		{
			name:     "padded values keep their spelling",
			query:    ViewQuery{Locations: []string{" north", "south "}, CategoryValues: []string{" X "}},
			present:  true,
			wantLocs: []string{" north", "south "},
			wantVals: []string{" X "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.query.Filters(tt.present)
			assert.Equal(t, tt.wantAll, f.AllLocations)
			assert.Equal(t, tt.wantLocs, f.Locations)
			assert.Equal(t, tt.wantMetric, f.Metric)
			if tt.wantVals != nil {
				assert.Equal(t, tt.wantVals, f.CategoryValues)
			}
		})
	}
}

func TestRankEntryIsAbove(t *testing.T) {
	assert.True(t, RankEntry{Relative: RelativeAbove}.IsAbove())
	assert.False(t, RankEntry{Relative: RelativeBelow}.IsAbove())
}
