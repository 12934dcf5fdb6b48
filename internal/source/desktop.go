package source

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"

	"github.com/ludokit/gamescan/internal/model"
)

// desktopSourceID is the stable identifier of the desktop-entry source.
const desktopSourceID = "desktop"

// DesktopSource discovers games declared as freedesktop.org desktop
// entries: .desktop files in the XDG application directories whose
// Categories include "Game". This is how non-Steam launchers (Lutris,
// Heroic, itch) and distribution packages expose installed games.
type DesktopSource struct {
	// dirs are the application directories to scan.
	dirs []string

	// logger for structured logging.
	logger *slog.Logger
}

// DesktopOption configures a DesktopSource.
type DesktopOption func(*DesktopSource)

// WithDesktopDirs sets the application directories to scan.
// If unset, the XDG data directories are used.
func WithDesktopDirs(dirs []string) DesktopOption {
	return func(s *DesktopSource) {
		if len(dirs) > 0 {
			s.dirs = dirs
		}
	}
}

// WithDesktopLogger sets a custom logger for the desktop source.
func WithDesktopLogger(logger *slog.Logger) DesktopOption {
	return func(s *DesktopSource) {
		s.logger = logger
	}
}

// NewDesktopSource creates a desktop-entry source.
func NewDesktopSource(opts ...DesktopOption) *DesktopSource {
	s := &DesktopSource{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if len(s.dirs) == 0 {
		s.dirs = defaultApplicationDirs()
	}

	return s
}

// defaultApplicationDirs returns the XDG application directories in
// precedence order (user dir first).
func defaultApplicationDirs() []string {
	dirs := []string{filepath.Join(xdg.DataHome, "applications")}
	for _, dataDir := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(dataDir, "applications"))
	}
	return dirs
}

// ID implements Source.
func (s *DesktopSource) ID() string {
	return desktopSourceID
}

// Installed implements Source. The source is available when at least one
// application directory exists.
func (s *DesktopSource) Installed() bool {
	for _, dir := range s.dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// Scan implements Source.
func (s *DesktopSource) Scan(_ context.Context) Iterator {
	return &desktopIterator{source: s}
}

// desktopIterator walks the .desktop files of every application directory.
type desktopIterator struct {
	source *DesktopSource
	files  []string
	pos    int
	loaded bool
}

// Next implements Iterator. Each call parses one .desktop file.
func (it *desktopIterator) Next(_ context.Context) (model.ScanResult, error) {
	if !it.loaded {
		it.loaded = true
		it.files = it.source.findEntries()
	}

	if it.pos >= len(it.files) {
		return model.ScanResult{}, Done
	}

	path := it.files[it.pos]
	it.pos++
	return it.source.readEntry(path)
}

// findEntries lists every .desktop file across the application directories.
// A user-dir entry shadows a system entry with the same file name, matching
// desktop-environment behavior.
func (s *DesktopSource) findEntries() []string {
	var files []string
	seen := make(map[string]bool)
	for _, dir := range s.dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.desktop"))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			base := filepath.Base(m)
			if !seen[base] {
				seen[base] = true
				files = append(files, m)
			}
		}
	}

	s.logger.Debug("desktop entries resolved",
		"dirs", len(s.dirs),
		"entries", len(files),
	)
	return files
}

// readEntry parses one .desktop file into a scan result.
func (s *DesktopSource) readEntry(path string) (model.ScanResult, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from directory listing
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("desktop: failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	entry, err := parseDesktopEntry(f)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("desktop: failed to parse %s: %w", filepath.Base(path), err)
	}

	// Entries outside the Game category, launchers the user hid, and
	// non-application types are deliberate skips, not errors.
	if entry["Type"] != "Application" {
		return model.Skipped(), nil
	}
	if entry["NoDisplay"] == "true" || entry["Hidden"] == "true" {
		return model.Skipped(), nil
	}
	if !hasCategory(entry["Categories"], "Game") {
		return model.Skipped(), nil
	}

	name := entry["Name"]
	if name == "" {
		return model.Invalid(fmt.Sprintf("%s has no Name", filepath.Base(path))), nil
	}

	game := &model.Game{
		ID:         "desktop_" + strings.TrimSuffix(filepath.Base(path), ".desktop"),
		SourceID:   desktopSourceID,
		Name:       name,
		InstallDir: entry["Path"],
		Executable: stripFieldCodes(entry["Exec"]),
	}

	metadata := map[string]string{}
	if icon := entry["Icon"]; icon != "" {
		// Absolute icon paths double as cover art; themed icon names are
		// recorded for the frontends that can resolve them.
		if filepath.IsAbs(icon) {
			metadata["cover_path"] = icon
		} else {
			metadata["icon"] = icon
		}
	}
	return model.Discovered(game, metadata), nil
}

// parseDesktopEntry reads the [Desktop Entry] group of a .desktop file
// into a key/value map. Other groups (actions, translations) are ignored.
func parseDesktopEntry(f *os.File) (map[string]string, error) {
	entry := make(map[string]string)
	inEntry := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "["):
			inEntry = line == "[Desktop Entry]"
		case inEntry:
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			// Skip localized keys like Name[de].
			if strings.Contains(key, "[") {
				continue
			}
			entry[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entry, nil
}

// hasCategory reports whether the semicolon-separated Categories value
// contains the given category.
func hasCategory(categories, want string) bool {
	for _, c := range strings.Split(categories, ";") {
		if strings.TrimSpace(c) == want {
			return true
		}
	}
	return false
}

// stripFieldCodes removes desktop-entry field codes (%f, %u, %F, %U, ...)
// from an Exec value, leaving the launchable command line.
func stripFieldCodes(exec string) string {
	fields := strings.Fields(exec)
	kept := fields[:0]
	for _, f := range fields {
		if len(f) == 2 && f[0] == '%' {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
