package source

import (
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

// steamSourceID is the stable identifier of the Steam source.
const steamSourceID = "steam"

// steamCoverURLFormat is the Steam CDN location of an app's vertical
// library capsule. The artwork stage downloads it via the cover_url
// metadata key.
const steamCoverURLFormat = "https://steamcdn-a.akamaihd.net/steam/apps/%s/library_600x900.jpg"

// nonGameApps lists Steam apps that live in the library but are not games:
// runtimes, compatibility tools, and redistributables. Matching is by
// lower-cased name prefix because Valve versions these names
// ("Proton 9.0", "Steam Linux Runtime 3.0 (sniper)").
var nonGameApps = []string{
	"proton",
	"steam linux runtime",
	"steamworks common redistributables",
	"steamvr",
}

// SteamSource discovers installed games from a local Steam library.
// It reads steamapps/libraryfolders.vdf to find every library folder and
// then parses one appmanifest_<appid>.acf per installed app.
type SteamSource struct {
	// libraryDir is the Steam installation directory.
	libraryDir string

	// logger for structured logging.
	logger *slog.Logger
}

// SteamOption configures a SteamSource.
type SteamOption func(*SteamSource)

// WithSteamLibraryDir sets the Steam installation directory explicitly.
// If unset, the well-known per-platform locations are probed.
func WithSteamLibraryDir(dir string) SteamOption {
	return func(s *SteamSource) {
		if dir != "" {
			s.libraryDir = dir
		}
	}
}

// WithSteamLogger sets a custom logger for the Steam source.
func WithSteamLogger(logger *slog.Logger) SteamOption {
	return func(s *SteamSource) {
		s.logger = logger
	}
}

// NewSteamSource creates a Steam library source.
func NewSteamSource(opts ...SteamOption) *SteamSource {
	s := &SteamSource{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.libraryDir == "" {
		s.libraryDir = detectSteamDir()
	}

	return s
}

// detectSteamDir probes the usual Steam installation directories and
// returns the first that contains a library manifest, or "".
func detectSteamDir() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(xdg.DataHome, "Steam"),
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, "Library", "Application Support", "Steam"),
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "steamapps", "libraryfolders.vdf")); err == nil {
			return dir
		}
	}
	return ""
}

// ID implements Source.
func (s *SteamSource) ID() string {
	return steamSourceID
}

// Installed implements Source. Steam counts as installed when the library
// manifest exists.
func (s *SteamSource) Installed() bool {
	if s.libraryDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.libraryDir, "steamapps", "libraryfolders.vdf"))
	return err == nil
}

// Scan implements Source. The manifest list is resolved on the first Next
// call so that a broken library surfaces as an iteration error, not a
// construction failure.
func (s *SteamSource) Scan(_ context.Context) Iterator {
	return &steamIterator{source: s}
}

// steamIterator walks the appmanifest files of every Steam library folder.
type steamIterator struct {
	source    *SteamSource
	manifests []string
	pos       int
	loaded    bool
	failed    bool
}

// Next implements Iterator. Each call parses one appmanifest file, so a
// corrupt manifest costs exactly one element.
func (it *steamIterator) Next(_ context.Context) (model.ScanResult, error) {
	if it.failed {
		return model.ScanResult{}, Done
	}
	if !it.loaded {
		it.loaded = true
		manifests, err := it.source.findManifests()
		if err != nil {
			// The library itself is unreadable: report once, then end the
			// scan so the worker does not spin on the same failure.
			it.failed = true
			return model.ScanResult{}, err
		}
		it.manifests = manifests
	}

	if it.pos >= len(it.manifests) {
		return model.ScanResult{}, Done
	}

	path := it.manifests[it.pos]
	it.pos++
	return it.source.readManifest(path)
}

// findManifests resolves every appmanifest file across all library folders.
func (s *SteamSource) findManifests() ([]string, error) {
	root := filepath.Join(s.libraryDir, "steamapps")
	data, err := os.ReadFile(filepath.Join(root, "libraryfolders.vdf"))
	if err != nil {
		return nil, fmt.Errorf("steam: failed to read library manifest: %w", err)
	}

	vdf, err := parseVDF(string(data))
	if err != nil {
		return nil, fmt.Errorf("steam: failed to parse library manifest: %w", err)
	}

	// Older clients key the root as "libraryfolders", ancient ones as
	// "LibraryFolders"; parseVDF lower-cases keys so one lookup suffices.
	folders := vdf.Object("libraryfolders")

	steamappsDirs := []string{root}
	for _, v := range folders {
		entry, ok := v.(vdfObject)
		if !ok {
			continue
		}
		if path := entry.String("path"); path != "" {
			steamappsDirs = append(steamappsDirs, filepath.Join(path, "steamapps"))
		}
	}

	var manifests []string
	seen := make(map[string]bool)
	for _, dir := range steamappsDirs {
		matches, err := filepath.Glob(filepath.Join(dir, "appmanifest_*.acf"))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				manifests = append(manifests, m)
			}
		}
	}
	sort.Strings(manifests)

	s.logger.Debug("steam library resolved",
		"libraries", len(steamappsDirs),
		"manifests", len(manifests),
	)
	return manifests, nil
}

// readManifest parses one appmanifest ACF file into a scan result.
func (s *SteamSource) readManifest(path string) (model.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("steam: failed to read %s: %w", filepath.Base(path), err)
	}

	vdf, err := parseVDF(string(data))
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("steam: failed to parse %s: %w", filepath.Base(path), err)
	}

	state := vdf.Object("appstate")
	if state == nil {
		return model.Invalid(fmt.Sprintf("%s has no AppState block", filepath.Base(path))), nil
	}

	appID := state.String("appid")
	name := state.String("name")
	if appID == "" || name == "" {
		return model.Invalid(fmt.Sprintf("%s is missing appid or name", filepath.Base(path))), nil
	}

	if isNonGameApp(name) {
		return model.Skipped(), nil
	}

	game := &model.Game{
		ID:       "steam_" + appID,
		SourceID: steamSourceID,
		Name:     name,
	}
	if installDir := state.String("installdir"); installDir != "" {
		game.InstallDir = filepath.Join(filepath.Dir(path), "common", installDir)
	}

	metadata := map[string]string{
		"steam_appid": appID,
		"cover_url":   fmt.Sprintf(steamCoverURLFormat, appID),
	}
	return model.Discovered(game, metadata), nil
}

// isNonGameApp reports whether a Steam app name belongs to a runtime or
// tool rather than a game.
func isNonGameApp(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range nonGameApps {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
