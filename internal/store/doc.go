// Package store registers discovered games and hands each one a
// pipeline.
//
// The store is the single admission point between the source scanners
// and the stage pipelines. It deduplicates games across sources,
// applies the user's exclude patterns, re-applies the removed flag for
// games the user deleted from the library, and persists the initial
// library row. The importer talks to it through its Registrar
// interface, so tests substitute a fake without touching a database.
package store
