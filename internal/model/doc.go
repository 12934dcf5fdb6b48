// Package model defines the core data structures used throughout gamescan.
//
// This package contains the following main types:
//   - Game: one discovered library entry and its import flags
//   - ScanResult: the tagged result variant produced by source iteration
//   - ImportSummary: the end-of-run summary with counts and stage errors
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. Multiple packages (source, stage, store, report)
// need these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
