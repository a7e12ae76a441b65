package dataprocessing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/files"
	"salespulse/pkg/contracts/domain"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func loadMapping(t *testing.T, locations map[string]string, cfg LoaderConfig) (*LoadResult, error) {
	t.Helper()
	loader := NewLoader(files.NewMappingResolver(locations), cfg, nil)
	return loader.Load(context.Background())
}

func TestLoadMappingWithMissingSource(t *testing.T) {
	dir := t.TempDir()
	north := writeCSV(t, dir, "north.csv", "Producto,Total,Cantidad\nA,100,1\nB,50,2\n")
	south := writeCSV(t, dir, "south.csv", "Producto,Total,Cantidad\nA,75.5,3\n")

	result, err := loadMapping(t, map[string]string{
		"north": north,
		"south": south,
		"east":  filepath.Join(dir, "east.csv"),
	}, LoaderConfig{})
	require.NoError(t, err)

	assert.Equal(t, []string{"north", "south"}, result.Table.Locations())
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "east", result.Missing[0].Location)
	assert.Empty(t, result.Failed)
	assert.Len(t, result.Sources, 2)
	assert.Equal(t, 3, result.Table.Len())
}

func TestLoadDropsCantidad(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "Producto,Cantidad,Total\nA,1,10\n")

	result, err := loadMapping(t, map[string]string{"a": path}, LoaderConfig{})
	require.NoError(t, err)

	assert.False(t, result.Table.HasColumn("Cantidad"))
	assert.Equal(t, []string{domain.LocationColumn, "Producto", "Total"}, result.Table.Columns())
}

func TestLoadCustomDropColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "Producto,Cantidad,Notes,Total\nA,1,x,10\n")

	result, err := loadMapping(t, map[string]string{"a": path}, LoaderConfig{DropColumns: []string{"Notes"}})
	require.NoError(t, err)

	assert.True(t, result.Table.HasColumn("Cantidad"))
	assert.False(t, result.Table.HasColumn("Notes"))
}

func TestLoadColumnUnion(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "Total,Region\n10,N\n20,N\n")
	b := writeCSV(t, dir, "b.csv", "Total,Tips\n2.5,1\n")

	result, err := loadMapping(t, map[string]string{"a": a, "b": b}, LoaderConfig{})
	require.NoError(t, err)

	table := result.Table
	assert.Equal(t, []string{domain.LocationColumn, "Total", "Region", "Tips"}, table.Columns())
	assert.Equal(t, []string{"Total", "Tips"}, table.NumericColumns())
	assert.Equal(t, []string{"Region"}, table.CategoricalColumns())

	totals, err := TotalsByLocation(table, "Total")
	require.NoError(t, err)
	assert.Equal(t, Totals{{Location: "a", Total: 30}, {Location: "b", Total: 2.5}}, totals)

	tips, err := TotalsByLocation(table, "Tips")
	require.NoError(t, err)
	assert.Equal(t, Totals{{Location: "b", Total: 1}}, tips)
}

func TestLoadMixedColumnTypesBecomeText(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "Code,Total\n1,10\n")
	b := writeCSV(t, dir, "b.csv", "Code,Total\nX7,20\n")

	result, err := loadMapping(t, map[string]string{"a": a, "b": b}, LoaderConfig{})
	require.NoError(t, err)

	assert.True(t, result.Table.IsCategorical("Code"))
	assert.Equal(t, []string{"1", "X7"}, result.Table.DistinctValues("Code"))
}

func TestLoadStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "\xEF\xBB\xBFTotal,Producto\n5,A\n")

	result, err := loadMapping(t, map[string]string{"a": path}, LoaderConfig{})
	require.NoError(t, err)

	metric, err := DefaultMetric(result.Table)
	require.NoError(t, err)
	assert.Equal(t, "Total", metric)
}

func TestLoadReservedLocationColumn(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", "Total\n1\n")
	bad := writeCSV(t, dir, "bad.csv", "Location,Total\nelsewhere,1\n")

	result, err := loadMapping(t, map[string]string{"good": good, "bad": bad}, LoaderConfig{})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bad", result.Failed[0].Location)
	assert.ErrorIs(t, result.Failed[0], ErrReservedColumn)
	assert.Equal(t, []string{"good"}, result.Table.Locations())
}

func TestLoadStrictFailsOnBadSource(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", "Total\n1\n")
	empty := writeCSV(t, dir, "empty.csv", "")

	_, err := loadMapping(t, map[string]string{"good": good, "empty": empty}, LoaderConfig{Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailure)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	require.Len(t, loadErr.Failed, 1)
	assert.Equal(t, "empty", loadErr.Failed[0].Location)
	assert.ErrorIs(t, loadErr.Failed[0], ErrEmptySource)
}

func TestLoadHeaderOnlySource(t *testing.T) {
	dir := t.TempDir()
	full := writeCSV(t, dir, "full.csv", "Producto,Total\nA,10\nB,5\n")
	bare := writeCSV(t, dir, "bare.csv", "Producto,Total,Notes\n")

	result, err := loadMapping(t, map[string]string{"full": full, "bare": bare}, LoaderConfig{Strict: true})
	require.NoError(t, err)

	assert.Empty(t, result.Failed)
	assert.Len(t, result.Sources, 2)
	assert.Equal(t, 2, result.Table.Len())
	assert.Equal(t, []string{"full"}, result.Table.Locations())
	assert.True(t, result.Table.HasColumn("Notes"))
	assert.Equal(t, []string{"Total"}, result.Table.NumericColumns())
}

func TestLoadNullMarkerLocationRejected(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "sales_analysis_NaN_2025.csv", "Producto,Total\nA,10\n")
	writeCSV(t, dir, "sales_analysis_x_2025.csv", "Producto,Total\nB,20\n")

	loader := NewLoader(files.NewDirectoryResolver(dir, ""), LoaderConfig{}, nil)
	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, result.Table.Locations())
	assert.Equal(t, 1, result.Table.Len())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "NaN", result.Failed[0].Location)
	assert.ErrorIs(t, result.Failed[0], ErrReservedLocation)
}

func TestLoadNothingLoaded(t *testing.T) {
	dir := t.TempDir()

	_, err := loadMapping(t, map[string]string{"north": filepath.Join(dir, "missing.csv")}, LoaderConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailure)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Len(t, loadErr.Missing, 1)
	assert.Contains(t, loadErr.Error(), "1 missing")
}

func TestLoadDirectoryResolver(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "sales_analysis_centro_2024.csv", "Producto,Total\nA,100\n")
	writeCSV(t, dir, "sales_analysis_norte_2024.csv", "Producto,Total\nA,200\nB,100\n")
	writeCSV(t, dir, "sales_analysis_norte_2025.csv", "Producto,Total\nC,50\n")
	writeCSV(t, dir, "notes.csv", "Producto,Total\nZ,999\n")

	loader := NewLoader(files.NewDirectoryResolver(dir, ""), LoaderConfig{MaxParallel: 3}, nil)
	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"centro", "norte"}, result.Table.Locations())
	assert.Len(t, result.Sources, 3)

	totals, err := TotalsByLocation(result.Table, "Total")
	require.NoError(t, err)
	total, ok := totals.Get("norte")
	require.True(t, ok)
	assert.Equal(t, 350.0, total)
}

func TestLoadEmptyDirectory(t *testing.T) {
	loader := NewLoader(files.NewDirectoryResolver(t.TempDir(), ""), LoaderConfig{}, nil)
	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoadFailure)
}

func TestLoadCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "Total\n1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader(files.NewMappingResolver(map[string]string{"a": path}), LoaderConfig{}, nil)
	_, err := loader.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSourceWidensIntegers(t *testing.T) {
	df, err := ReadSource(strings.NewReader("Total,Producto\n1,A\n2,B\n"), "north")
	require.NoError(t, err)

	table := NewTable(df)
	info := table.ColumnInfo()
	require.Len(t, info, 3)
	assert.Equal(t, "float", info[0].Type)
	assert.Equal(t, []string{"north"}, table.Locations())
}

func TestReadSourceHeaderOnly(t *testing.T) {
	df, err := ReadSource(strings.NewReader("\xEF\xBB\xBFProducto,Total\n"), "north")
	require.NoError(t, err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, []string{"Producto", "Total", domain.LocationColumn}, df.Names())

	_, err = ReadSource(strings.NewReader("Location,Total\n"), "north")
	assert.ErrorIs(t, err, ErrReservedColumn)

	_, err = ReadSource(strings.NewReader(""), "north")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestReadSourceMalformed(t *testing.T) {
	_, err := ReadSource(strings.NewReader("Total,Producto\n1,A,extra\n"), "north")
	assert.Error(t, err)
}
