// Package importer orchestrates one import run end to end.
//
// An import run is two levels of concurrent work: source workers scan
// launchers for games, and each discovered game flows through a staged
// pipeline. The importer owns both levels. It launches one worker per
// source, registers every discovery with the store, drives each game's
// pipeline, and aggregates progress across all of it.
//
// All bookkeeping runs in a single coordinator loop that drains one
// event channel. Workers and pipelines never touch the counters
// directly; they emit events. That makes the completion decision (all
// sources finished and all pipelines finished) a local check over
// consistent state, with no locks and no chance of finalizing twice.
package importer
