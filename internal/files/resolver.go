package files

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultPattern matches the per-location sales exports.
	DefaultPattern = "sales_analysis_*_*.csv"
	// DefaultPrefix precedes the location name in an export filename.
	DefaultPrefix = "sales_analysis_"
)

// Source is one file to load and the location its rows belong to.
type Source struct {
	Location string `json:"location"`
	Path     string `json:"path"`
}

// SourceResolver produces the ordered list of sources for a load.
type SourceResolver interface {
	Resolve(ctx context.Context) ([]Source, error)
	Describe() string
}

// DirectoryResolver scans a directory for exports whose filename carries
// the location: sales_analysis_<location>_<anything>.csv.
type DirectoryResolver struct {
	Dir     string
	Pattern string

	discovery *Discovery
}

// NewDirectoryResolver creates a resolver over dir. An empty pattern means
// DefaultPattern.
func NewDirectoryResolver(dir, pattern string) *DirectoryResolver {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &DirectoryResolver{
		Dir:       dir,
		Pattern:   pattern,
		discovery: NewDiscovery(""),
	}
}

// Resolve returns matching files sorted by location, then filename. Several
// files for one location are all returned under that location.
func (r *DirectoryResolver) Resolve(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := r.discovery.FindFilesByPattern(r.Dir, r.Pattern)
	if err != nil {
		return nil, err
	}

	prefix := PatternPrefix(r.Pattern)
	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		location, ok := LocationFromFilename(match.Name, prefix)
		if !ok {
			continue
		}
		sources = append(sources, Source{Location: location, Path: match.Path})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Location != sources[j].Location {
			return sources[i].Location < sources[j].Location
		}
		return sources[i].Path < sources[j].Path
	})
	return sources, nil
}

// Describe names the scanned directory for logs and the sources endpoint
func (r *DirectoryResolver) Describe() string {
	return fmt.Sprintf("directory %s (%s)", r.Dir, r.Pattern)
}

// MappingResolver reads a fixed location -> path table.
type MappingResolver struct {
	Locations map[string]string
}

// NewMappingResolver creates a resolver over a copy of locations
func NewMappingResolver(locations map[string]string) *MappingResolver {
	copied := make(map[string]string, len(locations))
	for location, path := range locations {
		copied[location] = path
	}
	return &MappingResolver{Locations: copied}
}

// Resolve returns the table sorted by location. Paths are not checked here;
// absent files surface as missing sources during the load.
func (r *MappingResolver) Resolve(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(r.Locations))
	for location, path := range r.Locations {
		sources = append(sources, Source{Location: location, Path: path})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Location < sources[j].Location })
	return sources, nil
}

// Describe names the mapping for logs and the sources endpoint
func (r *MappingResolver) Describe() string {
	return fmt.Sprintf("mapping (%d locations)", len(r.Locations))
}

// PatternPrefix returns the literal part of a glob pattern before its first
// wildcard.
func PatternPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// LocationFromFilename extracts the location from an export filename: the
// text between prefix and the next underscore (or the extension).
func LocationFromFilename(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(name, prefix)
	if i := strings.Index(rest, "_"); i >= 0 {
		rest = rest[:i]
	} else {
		rest = strings.TrimSuffix(rest, ".csv")
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
