// Package database provides SQLite-based storage for the gamescan library.
//
// This package implements the GameDB, which stores one row per registered
// game, keyed by the source-qualified library key. Rows survive across
// import runs so that deduplication and the removed flag work between runs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the library is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Sufficient performance for a local game library
//  4. WAL mode provides good concurrent read performance
package database
