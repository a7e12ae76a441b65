// Package exporter renders dashboard reports outside the JSON API.
//
// This package contains four components:
//
// CSVWriter: writes the filtered data table or the location ranking as CSV
// with a UTF-8 BOM for Excel compatibility.
//
// ExcelExporter: builds a workbook with summary, ranking, statistics and
// data sheets plus a native column chart of the totals.
//
// Charts: PNG bar charts of totals and means per location and of each
// location's deviation from the average.
//
// Formatting: currency and percentage strings for presentation. Values are
// kept at full precision everywhere else.
//
// Example usage:
//
//	report, _ := dataprocessing.Summarize(table, "")
//
//	writer := exporter.NewCSVWriter()
//	err := writer.WriteTable(w, table)
//
//	book := exporter.NewExcelExporter(logger)
//	err = book.Write(w, report, table)
//
//	p, _ := exporter.SalesChart(report.Stats, report.Metric)
//	err = exporter.RenderPNG(w, p, exporter.DefaultChartWidth, exporter.DefaultChartHeight)
package exporter
