package dataprocessing

import (
	"salespulse/pkg/contracts/domain"
)

// FilterByLocations keeps the rows whose location is in locations. An empty
// set selects nothing.
func FilterByLocations(t *Table, locations []string) *Table {
	return filterByValues(t, domain.LocationColumn, locations)
}

// FilterByCategory keeps the rows whose field value is one of values. No
// values means no restriction. The field must be a categorical column.
func FilterByCategory(t *Table, field string, values []string) (*Table, error) {
	if len(values) == 0 {
		return t, nil
	}
	if !t.IsCategorical(field) {
		return nil, &CategoryError{Field: field, Available: t.CategoricalColumns()}
	}
	return filterByValues(t, field, values), nil
}

func filterByValues(t *Table, column string, values []string) *Table {
	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}

	cells := t.Strings(column)
	indexes := make([]int, 0, len(cells))
	for i, cell := range cells {
		if _, ok := wanted[cell]; ok {
			indexes = append(indexes, i)
		}
	}
	return t.subset(indexes)
}
