package dataprocessing

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"salespulse/pkg/contracts/domain"
)

// Table is the immutable unified sales table. Every row carries the
// Location column. Methods never modify the receiver.
type Table struct {
	df dataframe.DataFrame
}

// NewTable wraps a DataFrame. The frame must already carry the Location column.
func NewTable(df dataframe.DataFrame) *Table {
	return &Table{df: df}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.df.Nrow()
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Columns returns the column names in table order
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return t.df.Names()
}

// HasColumn reports whether name is a column of the table
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns() {
		if col == name {
			return true
		}
	}
	return false
}

// ColumnInfo describes every column with its detected type
func (t *Table) ColumnInfo() []domain.ColumnInfo {
	if t == nil {
		return nil
	}
	names := t.Columns()
	types := t.df.Types()
	info := make([]domain.ColumnInfo, len(names))
	for i, name := range names {
		info[i] = domain.ColumnInfo{
			Name:    name,
			Type:    string(types[i]),
			Numeric: isNumericType(types[i]) && name != domain.LocationColumn,
		}
	}
	return info
}

// NumericColumns returns the metric candidates in table order.
func (t *Table) NumericColumns() []string {
	var cols []string
	for _, c := range t.ColumnInfo() {
		if c.Numeric {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// CategoricalColumns returns the non-numeric columns except Location.
func (t *Table) CategoricalColumns() []string {
	var cols []string
	for _, c := range t.ColumnInfo() {
		if !c.Numeric && c.Name != domain.LocationColumn {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// IsNumeric reports whether name is a numeric column
func (t *Table) IsNumeric(name string) bool {
	for _, col := range t.NumericColumns() {
		if col == name {
			return true
		}
	}
	return false
}

// IsCategorical reports whether name is a categorical column
func (t *Table) IsCategorical(name string) bool {
	for _, col := range t.CategoricalColumns() {
		if col == name {
			return true
		}
	}
	return false
}

// Locations returns the distinct locations sorted by name
func (t *Table) Locations() []string {
	return t.DistinctValues(domain.LocationColumn)
}

// DistinctValues returns the sorted distinct non-null values of a column.
// Unknown columns yield nil.
func (t *Table) DistinctValues(name string) []string {
	if !t.HasColumn(name) {
		return nil
	}
	col := t.df.Col(name)
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for i := 0; i < col.Len(); i++ {
		elem := col.Elem(i)
		if elem.IsNA() {
			continue
		}
		v := cellString(elem)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Strings returns a column as strings with empty strings for null cells,
// or nil for unknown columns.
func (t *Table) Strings(name string) []string {
	if !t.HasColumn(name) {
		return nil
	}
	col := t.df.Col(name)
	out := make([]string, col.Len())
	for i := range out {
		if elem := col.Elem(i); !elem.IsNA() {
			out[i] = cellString(elem)
		}
	}
	return out
}

// Floats returns a numeric column with NaN for null cells
func (t *Table) Floats(name string) []float64 {
	if !t.HasColumn(name) {
		return nil
	}
	return t.df.Col(name).Float()
}

// Records returns the header followed by every row. Null cells are empty.
func (t *Table) Records() [][]string {
	return t.Page(0, t.Len())
}

// Page returns the header followed by at most limit rows starting at offset.
func (t *Table) Page(offset, limit int) [][]string {
	names := t.Columns()
	records := [][]string{names}
	n := t.Len()
	if offset < 0 {
		offset = 0
	}
	end := offset + limit
	if end > n || limit < 0 {
		end = n
	}
	if offset >= end {
		return records
	}

	cols := make([]series.Series, len(names))
	for j, name := range names {
		cols[j] = t.df.Col(name)
	}
	for i := offset; i < end; i++ {
		row := make([]string, len(names))
		for j := range cols {
			elem := cols[j].Elem(i)
			if elem.IsNA() {
				continue
			}
			row[j] = cellString(elem)
		}
		records = append(records, row)
	}
	return records
}

// DataFrame returns a copy of the underlying frame
func (t *Table) DataFrame() dataframe.DataFrame {
	return t.df.Copy()
}

// subset keeps the rows at indexes, in order
func (t *Table) subset(indexes []int) *Table {
	if len(indexes) == t.Len() {
		return t
	}
	return &Table{df: t.df.Subset(indexes)}
}

// cellString renders floats without trailing zeros and NaN as empty
func cellString(elem series.Element) string {
	if elem.Type() == series.Float {
		v := elem.Float()
		if isNull(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return elem.String()
}

func isNumericType(t series.Type) bool {
	return t == series.Float || t == series.Int
}

func isNull(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
