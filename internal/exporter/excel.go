package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/files"
)

const (
	SheetSummary = "Summary"
	SheetRanking = "Ranking"
	SheetStats   = "Statistics"
	SheetData    = "Data"

	// currencyNumFmt is the built-in "#,##0.00" number format
	currencyNumFmt = 4
)

// ExcelExporter builds XLSX workbooks from a report
type ExcelExporter struct {
	logger *slog.Logger
}

// NewExcelExporter creates a workbook exporter
func NewExcelExporter(logger *slog.Logger) *ExcelExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelExporter{logger: logger.With(slog.String("component", "excel_exporter"))}
}

// Build creates the workbook. The caller closes it.
func (e *ExcelExporter) Build(report *dataprocessing.Report, table *dataprocessing.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetRanking, SheetStats, SheetData} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"ADD8E6"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: currencyNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	steps := []func() error{
		func() error { return e.writeSummary(f, report, headerStyle) },
		func() error { return e.writeRanking(f, report, headerStyle, moneyStyle) },
		func() error { return e.writeStats(f, report, headerStyle, moneyStyle) },
		func() error { return e.writeData(f, table, headerStyle) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w
func (e *ExcelExporter) Write(w io.Writer, report *dataprocessing.Report, table *dataprocessing.Table) error {
	f, err := e.Build(report, table)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("Workbook written",
		slog.String("metric", report.Metric),
		slog.Int("locations", len(report.Ranking)),
		slog.Int("rows", table.Len()))
	return nil
}

// WriteFile writes the workbook to path, replacing any existing file
func (e *ExcelExporter) WriteFile(path string, report *dataprocessing.Report, table *dataprocessing.Table) error {
	e.logger.Info("Writing workbook", slog.String("file_path", path))
	return files.WriteFileAtomic(path, func(w io.Writer) error {
		return e.Write(w, report, table)
	})
}

func (e *ExcelExporter) writeSummary(f *excelize.File, report *dataprocessing.Report, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", report.Metric},
		{"Grand total", report.KPIs.GrandTotal},
		{"Average per location", report.KPIs.AveragePerLocation},
		{"Locations analysed", report.KPIs.Locations},
		{"Rows", report.KPIs.Rows},
		{"Above average", report.Performance.Above},
		{"Below average", report.Performance.Below},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}

func (e *ExcelExporter) writeRanking(f *excelize.File, report *dataprocessing.Report, headerStyle, moneyStyle int) error {
	rows := [][]interface{}{toRow(RankingHeaders)}
	for _, entry := range report.Ranking {
		rows = append(rows, []interface{}{
			entry.Position, entry.Location, entry.Total, string(entry.Relative), entry.Deviation, entry.Share,
		})
	}
	if err := writeRows(f, SheetRanking, rows); err != nil {
		return err
	}
	if err := styleHeader(f, SheetRanking, len(RankingHeaders), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRanking, "A", "F", 16); err != nil {
		return err
	}

	n := len(report.Ranking)
	if n == 0 {
		return nil
	}
	if err := f.SetCellStyle(SheetRanking, "C2", fmt.Sprintf("C%d", n+1), moneyStyle); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	return f.AddChart(SheetRanking, "H2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$C$1", SheetRanking),
			Categories: fmt.Sprintf("%s!$B$2:$B$%d", SheetRanking, n+1),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", SheetRanking, n+1),
		}},
		Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Total %s by location", report.Metric)}},
	})
}

var statsHeaders = []string{"Location", "Count", "Sum", "Mean", "Median", "Std Dev", "Min", "Max"}

func (e *ExcelExporter) writeStats(f *excelize.File, report *dataprocessing.Report, headerStyle, moneyStyle int) error {
	rows := [][]interface{}{toRow(statsHeaders)}
	for _, s := range report.Stats {
		rows = append(rows, []interface{}{s.Location, s.Count, s.Sum, s.Mean, s.Median, s.StdDev, s.Min, s.Max})
	}
	if err := writeRows(f, SheetStats, rows); err != nil {
		return err
	}
	if err := styleHeader(f, SheetStats, len(statsHeaders), headerStyle); err != nil {
		return err
	}
	if len(report.Stats) > 0 {
		if err := f.SetCellStyle(SheetStats, "C2", fmt.Sprintf("H%d", len(report.Stats)+1), moneyStyle); err != nil {
			return fmt.Errorf("failed to style statistics: %w", err)
		}
	}
	return f.SetColWidth(SheetStats, "A", "H", 14)
}

func (e *ExcelExporter) writeData(f *excelize.File, table *dataprocessing.Table, headerStyle int) error {
	columns := table.Columns()
	rows := [][]interface{}{toRow(columns)}

	numeric := make(map[int][]float64)
	for j, name := range columns {
		if table.IsNumeric(name) {
			numeric[j] = table.Floats(name)
		}
	}

	records := table.Records()
	for i, record := range records[1:] {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			if values, ok := numeric[j]; ok && cell != "" {
				row[j] = values[i]
				continue
			}
			row[j] = cell
		}
		rows = append(rows, row)
	}

	if err := writeRows(f, SheetData, rows); err != nil {
		return err
	}
	return styleHeader(f, SheetData, len(columns), headerStyle)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns, style int) error {
	if columns == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
