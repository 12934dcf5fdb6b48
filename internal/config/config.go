package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to match the behavior of common launcher setups
// on desktop Linux, where gamescan is primarily used.
const (
	// DefaultArtworkTimeout is the timeout for a single cover-art download.
	// Artwork hosts are ordinary CDNs, so a short timeout keeps one slow
	// cover from stalling a whole pipeline.
	DefaultArtworkTimeout = 30 * time.Second

	// DefaultMaxCoverSize limits the size of a downloaded cover image.
	// 10MB covers every realistic poster-size image while preventing
	// memory exhaustion from a misbehaving host.
	DefaultMaxCoverSize = 10 * 1024 * 1024 // 10MB

	// DefaultConcurrency of 0 means one worker per source with no limit.
	// Source scans are I/O-light (local file parsing), so there is no
	// reason to throttle them by default. A positive value caps the number
	// of sources scanned simultaneously.
	DefaultConcurrency = 0

	// AppName is the application name used for XDG directory paths.
	AppName = "gamescan"
)

// Config holds all configuration options for gamescan.
// This struct is populated from CLI flags and the .gamescan file and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .gamescan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Sources holds per-source configuration loaded from the config file.
	Sources *File

	// Concurrency caps the number of sources scanned simultaneously.
	// Zero means no cap: one worker per source.
	Concurrency int

	// ArtworkTimeout is the timeout for a single cover-art download.
	ArtworkTimeout time.Duration

	// MaxCoverSize is the maximum cover image size in bytes to download.
	// Responses larger than this are truncated and rejected.
	MaxCoverSize int64

	// DBDir is the directory holding the SQLite library database.
	// Defaults to the XDG data directory.
	DBDir string

	// CoverDir is the directory where cover art is stored.
	// Defaults to <XDG data dir>/covers.
	CoverDir string

	// NoProgress disables the terminal progress bar during import.
	NoProgress bool

	// JSONReport enables JSON summary output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown summary output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (timeouts, size
// limits, XDG paths). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		Concurrency:    DefaultConcurrency,
		ArtworkTimeout: DefaultArtworkTimeout,
		MaxCoverSize:   DefaultMaxCoverSize,
		DBDir:          XDGDataDir(),
		CoverDir:       filepath.Join(XDGDataDir(), "covers"),
	}
}

// XDGDataDir returns the XDG data directory for gamescan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/gamescan
// On macOS: ~/Library/Application Support/gamescan
// On Windows: %LOCALAPPDATA%\gamescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gamescan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for gamescan.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if c.ArtworkTimeout <= 0 {
		return ErrInvalidArtworkTimeout
	}

	if c.MaxCoverSize < 0 {
		return ErrInvalidMaxCoverSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Sources != nil && !c.Sources.AnyEnabled() {
		return ErrNoSourceEnabled
	}

	return nil
}
