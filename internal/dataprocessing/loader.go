package dataprocessing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/files"
	"salespulse/pkg/contracts/domain"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	errNoSources = errors.New("resolver returned no sources")

	nullMarkers = []string{"", "NA", "NaN", "<nil>"}
)

// DefaultDropColumns are removed from every load unless configured otherwise.
var DefaultDropColumns = []string{"Cantidad"}

// LoaderConfig controls how sources are merged
type LoaderConfig struct {
	DropColumns []string // columns removed after concatenation
	Strict      bool     // first unreadable source fails the load
	MaxParallel int      // concurrent file parses, minimum 1
}

// LoadResult is the outcome of one successful load.
type LoadResult struct {
	Table    *Table
	Resolver string
	Sources  []files.Source
	Missing  []MissingSource
	Failed   []*SourceError
	LoadedAt time.Time
	Duration time.Duration
}

// Loader reads every source named by a resolver into one Table.
type Loader struct {
	resolver files.SourceResolver
	config   LoaderConfig
	logger   *slog.Logger
}

// NewLoader creates a loader. A nil DropColumns means DefaultDropColumns.
func NewLoader(resolver files.SourceResolver, config LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DropColumns == nil {
		config.DropColumns = DefaultDropColumns
	}
	if config.MaxParallel < 1 {
		config.MaxParallel = 1
	}
	return &Loader{
		resolver: resolver,
		config:   config,
		logger:   logger.With(slog.String("component", "loader")),
	}
}

// Describe names the loader's resolver
func (l *Loader) Describe() string {
	return l.resolver.Describe()
}

type sourceOutcome struct {
	done    bool
	missing bool
	frame   dataframe.DataFrame
	err     *SourceError
}

// Load resolves the sources, parses them concurrently and concatenates the
// parsed frames in resolver order.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	desc := l.resolver.Describe()

	sources, err := l.resolver.Resolve(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &LoadError{Resolver: desc, Cause: err}
	}
	if len(sources) == 0 {
		l.logger.ErrorContext(ctx, "No sales sources found", slog.String("resolver", desc))
		return nil, &LoadError{Resolver: desc, Cause: errNoSources}
	}

	l.logger.InfoContext(ctx, "Loading sales sources",
		slog.String("resolver", desc),
		slog.Int("sources", len(sources)),
		slog.Int("max_parallel", l.config.MaxParallel))

	outcomes := make([]sourceOutcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.MaxParallel)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = readSourceFile(src)
			if l.config.Strict && outcomes[i].err != nil {
				return outcomes[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	result := &LoadResult{Resolver: desc}
	frames := make([]dataframe.DataFrame, 0, len(sources))
	for i, src := range sources {
		outcome := outcomes[i]
		switch {
		case !outcome.done:
			continue
		case outcome.missing:
			l.logger.WarnContext(ctx, "Sales source missing",
				slog.String("location", src.Location),
				slog.String("path", src.Path))
			result.Missing = append(result.Missing, MissingSource{Location: src.Location, Path: src.Path})
		case outcome.err != nil:
			l.logger.WarnContext(ctx, "Sales source could not be read",
				slog.String("location", src.Location),
				slog.String("path", src.Path),
				slog.String("error", outcome.err.Err.Error()))
			result.Failed = append(result.Failed, outcome.err)
		default:
			frames = append(frames, outcome.frame)
			result.Sources = append(result.Sources, src)
		}
	}

	if l.config.Strict && len(result.Failed) > 0 {
		return nil, &LoadError{Resolver: desc, Missing: result.Missing, Failed: result.Failed, Cause: result.Failed[0]}
	}
	if len(frames) == 0 {
		l.logger.ErrorContext(ctx, "No sales source could be loaded",
			slog.String("resolver", desc),
			slog.Int("missing", len(result.Missing)),
			slog.Int("failed", len(result.Failed)))
		return nil, &LoadError{Resolver: desc, Missing: result.Missing, Failed: result.Failed}
	}

	df, err := concatFrames(frames)
	if err != nil {
		return nil, &LoadError{Resolver: desc, Missing: result.Missing, Failed: result.Failed, Cause: err}
	}
	df = dropColumns(df, l.config.DropColumns)
	if df.Err != nil {
		return nil, &LoadError{Resolver: desc, Missing: result.Missing, Failed: result.Failed, Cause: df.Err}
	}

	result.Table = NewTable(df)
	result.LoadedAt = time.Now()
	result.Duration = time.Since(start)

	l.logger.InfoContext(ctx, "Sales sources loaded",
		slog.Int("loaded", len(result.Sources)),
		slog.Int("missing", len(result.Missing)),
		slog.Int("failed", len(result.Failed)),
		slog.Int("rows", result.Table.Len()),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func readSourceFile(src files.Source) sourceOutcome {
	f, err := os.Open(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sourceOutcome{done: true, missing: true}
		}
		return sourceOutcome{done: true, err: &SourceError{Location: src.Location, Path: src.Path, Err: err}}
	}
	defer f.Close()

	df, err := ReadSource(f, src.Location)
	if err != nil {
		return sourceOutcome{done: true, err: &SourceError{Location: src.Location, Path: src.Path, Err: err}}
	}
	return sourceOutcome{done: true, frame: df}
}

// ReadSource parses one CSV export and tags every row with location.
// Integer columns are widened to float so exports concatenate without
// truncation. A header without data rows yields a frame with no rows.
func ReadSource(r io.Reader, location string) (dataframe.DataFrame, error) {
	if isNullMarker(location) {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %q", ErrReservedLocation, location)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	records, err := csv.NewReader(br).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, ErrEmptySource
	}
	if len(records) == 1 {
		return headerOnlyFrame(records[0])
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nullMarkers))
	if df.Err != nil {
		return df, fmt.Errorf("parse csv: %w", df.Err)
	}

	names := df.Names()
	types := df.Types()
	for i, name := range names {
		if name == domain.LocationColumn {
			return df, ErrReservedColumn
		}
		if types[i] == series.Int {
			df = df.Mutate(series.New(df.Col(name).Float(), series.Float, name))
		}
	}

	tags := make([]string, df.Nrow())
	for i := range tags {
		tags[i] = location
	}
	df = df.Mutate(series.New(tags, series.String, domain.LocationColumn))
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

// headerOnlyFrame builds an empty frame with one text column per header
// field. Empty columns do not take part in the concatenated type decision.
func headerOnlyFrame(header []string) (dataframe.DataFrame, error) {
	cols := make([]series.Series, 0, len(header)+1)
	for _, name := range header {
		if name == domain.LocationColumn {
			return dataframe.DataFrame{}, ErrReservedColumn
		}
		cols = append(cols, series.New([]string{}, series.String, name))
	}
	cols = append(cols, series.New([]string{}, series.String, domain.LocationColumn))
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("parse csv: %w", df.Err)
	}
	return df, nil
}

func isNullMarker(value string) bool {
	for _, marker := range nullMarkers {
		if value == marker {
			return true
		}
	}
	return false
}

// concatFrames unions the columns of every frame and stacks the rows in
// order. A column numeric in one frame and textual in another becomes text.
// Columns holding only nulls do not take part in the type decision.
func concatFrames(frames []dataframe.DataFrame) (dataframe.DataFrame, error) {
	order := []string{domain.LocationColumn}
	target := map[string]series.Type{domain.LocationColumn: series.String}
	seen := map[string]bool{domain.LocationColumn: true}
	for _, df := range frames {
		types := df.Types()
		for i, name := range df.Names() {
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
			if allNull(df.Col(name)) {
				continue
			}
			current, ok := target[name]
			switch {
			case !ok:
				target[name] = types[i]
			case current != types[i]:
				target[name] = series.String
			}
		}
	}
	for _, name := range order {
		if _, ok := target[name]; !ok {
			target[name] = series.String
		}
	}

	var out dataframe.DataFrame
	for i, df := range frames {
		df = conformFrame(df, order, target)
		if df.Err != nil {
			return df, df.Err
		}
		if i == 0 {
			out = df
			continue
		}
		out = out.RBind(df)
		if out.Err != nil {
			return out, fmt.Errorf("concatenate sources: %w", out.Err)
		}
	}
	return out, nil
}

// conformFrame pads missing columns with nulls, converts columns to their
// target type and selects them in order.
func conformFrame(df dataframe.DataFrame, order []string, target map[string]series.Type) dataframe.DataFrame {
	present := make(map[string]series.Type, df.Ncol())
	types := df.Types()
	for i, name := range df.Names() {
		present[name] = types[i]
	}

	for _, name := range order {
		want := target[name]
		have, ok := present[name]
		switch {
		case !ok:
			df = df.Mutate(series.New(nullStrings(df.Nrow()), want, name))
		case have != want:
			df = df.Mutate(series.New(columnStrings(df.Col(name)), want, name))
		}
	}
	return df.Select(order)
}

func allNull(s series.Series) bool {
	for i := 0; i < s.Len(); i++ {
		if !s.Elem(i).IsNA() {
			return false
		}
	}
	return true
}

func nullStrings(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "NaN"
	}
	return out
}

func columnStrings(s series.Series) []string {
	out := make([]string, s.Len())
	for i := range out {
		elem := s.Elem(i)
		if out[i] = cellString(elem); elem.IsNA() || out[i] == "" {
			out[i] = "NaN"
		}
	}
	return out
}

func dropColumns(df dataframe.DataFrame, names []string) dataframe.DataFrame {
	existing := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		existing[name] = true
	}
	var drop []string
	for _, name := range names {
		if name != domain.LocationColumn && existing[name] {
			drop = append(drop, name)
		}
	}
	if len(drop) == 0 {
		return df
	}
	return df.Drop(drop)
}
