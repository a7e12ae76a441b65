package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"salespulse/internal/app"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts"
	"salespulse/pkg/contracts/domain"
)

var (
	greenColor = lipgloss.Color("#10B981")
	redColor   = lipgloss.Color("#F87171")
	mutedColor = lipgloss.Color("#9CA3AF")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	aboveStyle   = lipgloss.NewStyle().Foreground(greenColor)
	belowStyle   = lipgloss.NewStyle().Foreground(redColor)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// sourceOptions are the flags shared by every subcommand
type sourceOptions struct {
	configFile string
	dir        string
	pattern    string
	mapping    []string
	metric     string
	locations  []string
	field      string
	values     []string
	strict     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &sourceOptions{}

	root := &cobra.Command{
		Use:   "salesreport",
		Short: "Summarize and export multi-location sales CSV files",
		Long: `salesreport loads one sales CSV per location, either from a directory of
sales_analysis_<location>_*.csv files or from an explicit location=path
mapping, and prints or exports the per-location ranking and statistics.`,
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default is config.yaml or $SALES_CONFIG)")
	flags.StringVar(&opts.dir, "dir", "", "directory holding the sales CSV files")
	flags.StringVar(&opts.pattern, "pattern", "", "file pattern inside --dir")
	flags.StringArrayVar(&opts.mapping, "map", nil, "location=path source, repeatable; overrides --dir")
	flags.StringVar(&opts.metric, "metric", "", "numeric column to aggregate (default: first numeric column)")
	flags.StringArrayVar(&opts.locations, "location", nil, "location to include, repeatable (default: all)")
	flags.StringVar(&opts.field, "field", "", "categorical column to filter the data rows on")
	flags.StringArrayVar(&opts.values, "value", nil, "accepted value of --field, repeatable")
	flags.BoolVar(&opts.strict, "strict", false, "fail when any source file cannot be parsed")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log loader activity to stderr")

	root.AddCommand(newSummaryCmd(opts), newExportCmd(opts))
	return root
}

// sourcesConfig applies the command line on top of the loaded configuration
func (o *sourceOptions) sourcesConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.dir != "" {
		cfg.Sources.DataDir = o.dir
		cfg.Sources.Locations = nil
	}
	if o.pattern != "" {
		cfg.Sources.Pattern = o.pattern
	}
	if len(o.mapping) > 0 {
		locations, err := parseMapping(o.mapping)
		if err != nil {
			return nil, err
		}
		cfg.Sources.Locations = locations
	}
	if o.strict {
		cfg.Sources.Strict = true
	}
	return cfg, nil
}

// parseMapping reads location=path pairs
func parseMapping(pairs []string) (map[string]string, error) {
	locations := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		location, path, ok := strings.Cut(pair, "=")
		location, path = strings.TrimSpace(location), strings.TrimSpace(path)
		if !ok || location == "" || path == "" {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("invalid --map value %q, want location=path", pair))
		}
		if _, dup := locations[location]; dup {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("location %q mapped twice", location))
		}
		locations[location] = path
	}
	return locations, nil
}

// filters builds the dashboard filters. Without --location every location
// is selected.
func (o *sourceOptions) filters(cmd *cobra.Command) domain.DashboardFilters {
	q := domain.ViewQuery{
		Locations:      o.locations,
		Metric:         o.metric,
		CategoryField:  o.field,
		CategoryValues: o.values,
	}
	return q.Filters(cmd.Flags().Changed("location"))
}

// session is a loaded dashboard for one command run
type session struct {
	service *services.DashboardService
	result  *dataprocessing.LoadResult
	logger  *slog.Logger
}

// logger writes loader activity to stderr, errors only unless --verbose
func (o *sourceOptions) logger(stderr io.Writer) *slog.Logger {
	level := "error"
	if o.verbose {
		level = "debug"
	}
	return infrastructure.NewLogger(config.LoggingConfig{Level: level, Format: "text"}, stderr)
}

// open loads the sources and prints a warning for each missing one
func (o *sourceOptions) open(ctx context.Context, stderr io.Writer) (*session, error) {
	cfg, err := o.sourcesConfig()
	if err != nil {
		return nil, err
	}

	logger := o.logger(stderr)
	if !cfg.Sources.UsesMapping() {
		if _, err := validation.NewPathValidator(logger).CountSources(cfg.Sources.DataDir, cfg.Sources.Pattern); err != nil {
			return nil, err
		}
	}

	service := services.NewDashboardService(app.NewLoader(cfg.Sources, logger), nil, nil, logger)
	result, err := service.Load(ctx)
	if err != nil {
		printLoadFailure(stderr, err)
		return nil, apperrors.NewDataSourceError("failed to load sales data", err)
	}

	printMissing(stderr, result.Missing)
	for _, failed := range dataprocessing.FailedSources(result.Failed) {
		fmt.Fprintln(stderr, warningStyle.Render(fmt.Sprintf("warning: skipped %s (%s): %s", failed.Location, failed.Path, failed.Error)))
	}
	return &session{service: service, result: result, logger: logger}, nil
}

func printMissing(w io.Writer, missing []domain.MissingSource) {
	for _, m := range missing {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("warning: no data for %s, %s not found", m.Location, m.Path)))
	}
}

func printLoadFailure(w io.Writer, err error) {
	var loadErr *dataprocessing.LoadError
	if !errors.As(err, &loadErr) {
		return
	}
	printMissing(w, loadErr.Missing)
	for _, failed := range dataprocessing.FailedSources(loadErr.Failed) {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("warning: could not read %s (%s): %s", failed.Location, failed.Path, failed.Error)))
	}
}
