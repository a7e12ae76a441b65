// Package dataprocessing turns per-location sales exports into the unified
// table behind the dashboard and computes every aggregate the dashboard shows.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Loader: resolves sources, parses each CSV, tags rows with their location
// and concatenates them into one Table
// 2. Filters: restrict a Table to a set of locations or category values
// 3. Analytics: grouped totals, descriptive statistics, ranking, deviation
// from the average and share of the grand total
//
// # Usage
//
//	resolver := files.NewDirectoryResolver("data", files.DefaultPattern)
//	loader := dataprocessing.NewLoader(resolver, dataprocessing.LoaderConfig{}, logger)
//	result, err := loader.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	report, err := dataprocessing.Summarize(result.Table, "Total")
//
// # Data Flow
//
//	CSV files → Loader → Table → FilterByLocations → TotalsByLocation → Rank
//
// # Error Handling
//
// Absent files are reported as MissingSource and skipped. Files that fail to
// parse are reported as SourceError and skipped unless the loader is strict.
// A load that yields no table returns a *LoadError matching ErrLoadFailure.
// Asking for a metric that is not a numeric column returns a *MetricError
// matching ErrInvalidMetric.
//
// Every function except Loader.Load is pure: Tables are never modified in
// place, so a loaded Table can be shared between goroutines.
package dataprocessing
