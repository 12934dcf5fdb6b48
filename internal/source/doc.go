// Package source defines the discovery contract and the built-in sources.
//
// A Source produces a lazy sequence of discovered games for one launcher.
// The importer drives each source on its own worker goroutine and pulls
// results one at a time through an Iterator, so a failure in one element
// never aborts the rest of the scan.
//
// Built-in sources:
//   - SteamSource: parses the Steam library (libraryfolders.vdf plus one
//     appmanifest ACF file per installed app)
//   - DesktopSource: scans XDG application directories for .desktop
//     entries in the Game category
//   - CatalogSource: reads a hand-maintained YAML list of games
//
// Design decision: Iteration is pull-based (Iterator.Next) rather than
// channel-based because per-element error handling is part of the source
// contract: the worker must be able to log a failed element and continue,
// which a closed channel cannot express.
package source
