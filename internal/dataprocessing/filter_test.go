package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByLocations(t *testing.T) {
	table := threeStores(t)

	tests := []struct {
		name      string
		locations []string
		wantRows  int
		wantLocs  []string
	}{
		{name: "empty set selects nothing", locations: []string{}, wantRows: 0, wantLocs: []string{}},
		{name: "nil set selects nothing", locations: nil, wantRows: 0, wantLocs: []string{}},
		{name: "all locations", locations: []string{"a", "b", "c"}, wantRows: 6, wantLocs: []string{"a", "b", "c"}},
		{name: "subset", locations: []string{"c", "a"}, wantRows: 5, wantLocs: []string{"a", "c"}},
		{name: "unknown location", locations: []string{"zzz"}, wantRows: 0, wantLocs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByLocations(table, tt.locations)
			assert.Equal(t, tt.wantRows, got.Len())
			assert.Equal(t, tt.wantLocs, got.Locations())
			assert.Equal(t, table.Columns(), got.Columns())
		})
	}
}

func TestFilterByLocationsDoesNotModifyInput(t *testing.T) {
	table := threeStores(t)
	before := table.Records()

	_ = FilterByLocations(table, []string{"a"})
	assert.Equal(t, before, table.Records())
}

func TestFilterByCategory(t *testing.T) {
	table := threeStores(t)

	got, err := FilterByCategory(table, "Producto", []string{"Y"})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []string{"a", "c"}, got.Locations())

	same, err := FilterByCategory(table, "Producto", nil)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), same.Len())

	unfiltered, err := FilterByCategory(table, "NotAColumn", nil)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), unfiltered.Len())
}

func TestFilterByCategoryRejectsInvalidField(t *testing.T) {
	table := threeStores(t)

	for _, field := range []string{"Total", "NotAColumn", "Location"} {
		_, err := FilterByCategory(table, field, []string{"x"})
		assert.ErrorIs(t, err, ErrInvalidCategory, field)

		var catErr *CategoryError
		require.ErrorAs(t, err, &catErr)
		assert.Equal(t, []string{"Producto"}, catErr.Available)
	}
}
