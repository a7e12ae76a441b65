package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/pkg/contracts/domain"
)

func newSummaryCmd(opts *sourceOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs, ranking and deviation from the average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			report, _, err := s.service.Report(cmd.Context(), opts.filters(cmd))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Sources: "+s.result.Resolver))
			printSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printSummary(w io.Writer, report *dataprocessing.Report) {
	kpis := report.KPIs
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Sales summary (%s)", report.Metric)))
	fmt.Fprintf(w, "Grand total:          %s\n", exporter.FormatCurrency(kpis.GrandTotal))
	fmt.Fprintf(w, "Average per location: %s\n", exporter.FormatCurrency(kpis.AveragePerLocation))
	fmt.Fprintf(w, "Locations analysed:   %d\n", kpis.Locations)
	fmt.Fprintf(w, "Rows:                 %d\n\n", kpis.Rows)

	if len(report.Ranking) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No locations selected."))
		return
	}

	fmt.Fprintln(w, rankingTable(report.Ranking))

	perf := report.Performance
	fmt.Fprintf(w, "\n%d above average, %d below average. Best: %s. Worst: %s.\n",
		perf.Above, perf.Below, perf.Best, perf.Worst)
}

func rankingTable(ranking []domain.RankEntry) string {
	rows := make([][]string, 0, len(ranking))
	for _, entry := range ranking {
		rows = append(rows, []string{
			strconv.Itoa(entry.Position),
			entry.Location,
			exporter.FormatCurrency(entry.Total),
			string(entry.Relative),
			exporter.FormatPercent(entry.Deviation),
			exporter.FormatNumber(entry.Share) + "%",
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Location", "Total", "Relative", "Deviation", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true)
			case row >= 0 && row < len(ranking) && (col == 3 || col == 4):
				if ranking[row].IsAbove() {
					return style.Inherit(aboveStyle)
				}
				return style.Inherit(belowStyle)
			}
			return style
		}).
		String()
}
