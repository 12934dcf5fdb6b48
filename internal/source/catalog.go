package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ludokit/gamescan/internal/model"
)

// catalogSourceID is the stable identifier of the catalog source.
const catalogSourceID = "catalog"

// CatalogSource discovers games from a hand-maintained YAML catalog.
// It exists for games no launcher knows about: DRM-free downloads,
// emulated titles, games run from external drives.
type CatalogSource struct {
	// path is the catalog file location.
	path string

	// logger for structured logging.
	logger *slog.Logger
}

// catalogFile is the YAML structure of a catalog.
type catalogFile struct {
	Games []catalogEntry `yaml:"games"`
}

// catalogEntry is one game in the catalog.
type catalogEntry struct {
	ID         string `yaml:"id,omitempty"`
	Name       string `yaml:"name"`
	Exec       string `yaml:"exec,omitempty"`
	InstallDir string `yaml:"installDir,omitempty"`
	Cover      string `yaml:"cover,omitempty"`
}

// CatalogOption configures a CatalogSource.
type CatalogOption func(*CatalogSource)

// WithCatalogLogger sets a custom logger for the catalog source.
func WithCatalogLogger(logger *slog.Logger) CatalogOption {
	return func(s *CatalogSource) {
		s.logger = logger
	}
}

// NewCatalogSource creates a catalog source reading the given YAML file.
func NewCatalogSource(path string, opts ...CatalogOption) *CatalogSource {
	s := &CatalogSource{
		path:   path,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID implements Source.
func (s *CatalogSource) ID() string {
	return catalogSourceID
}

// Installed implements Source. The source is available when the catalog
// file exists.
func (s *CatalogSource) Installed() bool {
	if s.path == "" {
		return false
	}
	_, err := os.Stat(s.path)
	return err == nil
}

// Scan implements Source.
func (s *CatalogSource) Scan(_ context.Context) Iterator {
	return &catalogIterator{source: s}
}

// catalogIterator walks the entries of one catalog file.
type catalogIterator struct {
	source  *CatalogSource
	entries []catalogEntry
	pos     int
	loaded  bool
	failed  bool
}

// Next implements Iterator. The file is read once, on the first call; a
// read or parse failure is reported once and ends the scan.
func (it *catalogIterator) Next(_ context.Context) (model.ScanResult, error) {
	if it.failed {
		return model.ScanResult{}, Done
	}
	if !it.loaded {
		it.loaded = true
		entries, err := it.source.load()
		if err != nil {
			it.failed = true
			return model.ScanResult{}, err
		}
		it.entries = entries
	}

	if it.pos >= len(it.entries) {
		return model.ScanResult{}, Done
	}

	entry := it.entries[it.pos]
	it.pos++
	return it.source.toResult(entry)
}

// load reads and parses the catalog file.
func (s *CatalogSource) load() ([]catalogEntry, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // User-provided catalog path is intentional
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", s.path, err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse %s: %w", s.path, err)
	}

	s.logger.Debug("catalog loaded", "path", s.path, "entries", len(cf.Games))
	return cf.Games, nil
}

// toResult converts one catalog entry into a scan result.
func (s *CatalogSource) toResult(entry catalogEntry) (model.ScanResult, error) {
	if entry.Name == "" {
		return model.Invalid("catalog entry has no name"), nil
	}

	id := entry.ID
	if id == "" {
		id = "catalog_" + slugify(entry.Name)
	}

	game := &model.Game{
		ID:         id,
		SourceID:   catalogSourceID,
		Name:       entry.Name,
		Executable: entry.Exec,
		InstallDir: entry.InstallDir,
	}

	metadata := map[string]string{}
	switch {
	case strings.HasPrefix(entry.Cover, "http://"), strings.HasPrefix(entry.Cover, "https://"):
		metadata["cover_url"] = entry.Cover
	case entry.Cover != "":
		metadata["cover_path"] = entry.Cover
	}
	return model.Discovered(game, metadata), nil
}

// slugify derives a stable id fragment from a display name.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
