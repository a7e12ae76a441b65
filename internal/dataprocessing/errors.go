package dataprocessing

import (
	"errors"
	"fmt"
	"strings"

	"salespulse/pkg/contracts/domain"
)

var (
	// ErrLoadFailure means no usable table could be produced.
	ErrLoadFailure = errors.New("no sales data could be loaded")
	// ErrInvalidMetric means the metric is absent or not numeric.
	ErrInvalidMetric = errors.New("invalid metric")
	// ErrInvalidCategory means the field is absent or not categorical.
	ErrInvalidCategory = errors.New("invalid category field")
	// ErrReservedColumn means a source already carries the Location column.
	ErrReservedColumn = errors.New("source uses reserved column " + domain.LocationColumn)
	// ErrReservedLocation means a location name reads back as a null cell.
	ErrReservedLocation = errors.New("location name is reserved as a null marker")
	// ErrEmptySource means a source has no header row.
	ErrEmptySource = errors.New("source has no header row")
)

// MissingSource is a configured source whose file does not exist.
type MissingSource = domain.MissingSource

// SourceError is a per-file read or parse failure.
type SourceError struct {
	Location string
	Path     string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Location, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// LoadError is returned when a load produces no table
type LoadError struct {
	Resolver string
	Missing  []MissingSource
	Failed   []*SourceError
	Cause    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(ErrLoadFailure.Error())
	if e.Resolver != "" {
		fmt.Fprintf(&b, " from %s", e.Resolver)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (%d missing", len(e.Missing))
		if len(e.Failed) > 0 {
			fmt.Fprintf(&b, ", %d failed", len(e.Failed))
		}
		b.WriteString(")")
	} else if len(e.Failed) > 0 {
		fmt.Fprintf(&b, " (%d failed)", len(e.Failed))
	}
	return b.String()
}

// Is makes errors.Is(err, ErrLoadFailure) hold for every LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailure
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// MetricError reports a metric the table cannot aggregate
type MetricError struct {
	Metric    string
	Available []string
}

func (e *MetricError) Error() string {
	if e.Metric == "" {
		return "invalid metric: table has no numeric columns"
	}
	return fmt.Sprintf("invalid metric %q: available metrics are %s", e.Metric, strings.Join(e.Available, ", "))
}

func (e *MetricError) Is(target error) bool {
	return target == ErrInvalidMetric
}

// CategoryError reports a field that cannot be used as a category filter
type CategoryError struct {
	Field     string
	Available []string
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("invalid category field %q: available fields are %s", e.Field, strings.Join(e.Available, ", "))
}

func (e *CategoryError) Is(target error) bool {
	return target == ErrInvalidCategory
}

// FailedSources converts source errors to their JSON form.
func FailedSources(errs []*SourceError) []domain.FailedSource {
	out := make([]domain.FailedSource, 0, len(errs))
	for _, e := range errs {
		out = append(out, domain.FailedSource{Location: e.Location, Path: e.Path, Error: e.Err.Error()})
	}
	return out
}
