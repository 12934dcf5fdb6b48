package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSourceEnabled is returned when the configuration file disables
	// every source. An import run with zero sources would finish
	// immediately and confuse users, so we reject it upfront.
	ErrNoSourceEnabled = errors.New("no source enabled: enable at least one source in the configuration file")

	// ErrInvalidConcurrency is returned when the concurrency cap is
	// negative. Zero means unlimited (one worker per source).
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be zero or positive")

	// ErrInvalidArtworkTimeout is returned when the artwork download
	// timeout is not positive.
	ErrInvalidArtworkTimeout = errors.New("invalid artwork timeout: must be positive")

	// ErrInvalidMaxCoverSize is returned when the max cover size is
	// negative. Use 0 for the default limit.
	ErrInvalidMaxCoverSize = errors.New("invalid max cover size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
