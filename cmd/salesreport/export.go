package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/validation"
)

func newExportCmd(opts *sourceOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report workbook (.xlsx) or the filtered rows (.csv)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validation.NewPathValidator(opts.logger(cmd.ErrOrStderr())).ValidateOutputFile(out)
			if err != nil {
				return err
			}

			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			report, table, err := s.service.Report(cmd.Context(), opts.filters(cmd))
			if err != nil {
				return err
			}

			switch format {
			case validation.FormatXLSX:
				err = exporter.NewExcelExporter(s.logger).WriteFile(out, report, table)
			default:
				err = exporter.NewCSVWriter().WriteTableFile(out, table)
			}
			if err != nil {
				return apperrors.NewExportError(fmt.Sprintf("failed to export %s", out), err).WithContext("format", string(format))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows, %d locations)\n", out, table.Len(), len(report.Ranking))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .xlsx or .csv")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
