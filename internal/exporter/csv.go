package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/files"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{logger: slog.Default().With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write writes headers and records to out
func (w *CSVWriter) Write(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes every row of the table, header first
func (w *CSVWriter) WriteTable(out io.Writer, table *dataprocessing.Table) error {
	records := table.Records()
	w.logger.Debug("Writing table CSV", slog.Int("record_count", len(records)-1))
	return w.Write(out, WriteOptions{
		Headers:   records[0],
		Records:   records[1:],
		BOMPrefix: true,
	})
}

// RankingHeaders are the columns of the ranking export
var RankingHeaders = []string{"Position", "Location", "Total", "Performance", "Deviation (%)", "Share (%)"}

// WriteRanking writes the ranking of a report
func (w *CSVWriter) WriteRanking(out io.Writer, report *dataprocessing.Report) error {
	records := make([][]string, 0, len(report.Ranking))
	for _, entry := range report.Ranking {
		records = append(records, []string{
			strconv.Itoa(entry.Position),
			entry.Location,
			formatFloat(entry.Total),
			string(entry.Relative),
			formatFloat(entry.Deviation),
			formatFloat(entry.Share),
		})
	}
	return w.Write(out, WriteOptions{
		Headers:   RankingHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteTableFile writes the table to path, replacing any existing file
func (w *CSVWriter) WriteTableFile(path string, table *dataprocessing.Table) error {
	w.logger.Info("Writing CSV file", slog.String("file_path", path), slog.Int("rows", table.Len()))
	return files.WriteFileAtomic(path, func(out io.Writer) error {
		return w.WriteTable(out, table)
	})
}
