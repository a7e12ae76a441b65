// Package files locates the per-location sales exports on disk and writes
// generated reports back out.
//
// Discovery lists CSV files and glob matches under a base path. A
// SourceResolver turns configuration into the ordered list of (location,
// path) pairs the loader reads:
//
//	// scan a directory for sales_analysis_<location>_*.csv
//	resolver := files.NewDirectoryResolver("/srv/sales/data", "")
//
//	// or use a fixed table
//	resolver := files.NewMappingResolver(map[string]string{
//	    "north": "/srv/sales/north.csv",
//	})
//
//	sources, err := resolver.Resolve(ctx)
//
// WriteFileAtomic writes report files through a temporary file so readers
// never observe a partial export.
package files
