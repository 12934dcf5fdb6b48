// Package log provides logging helpers for gamescan, built on top of the
// standard slog package.
//
// Import logs name the files and directories of a user's game library,
// which almost always live under the user's home directory. Users share
// these logs verbatim when reporting source-detection bugs, so the
// RedactHandler rewrites home-directory prefixes to "~" in every string
// attribute before the record reaches the underlying handler. Usernames
// embedded in paths never leave the machine.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
