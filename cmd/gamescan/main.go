// Package main provides the entry point for the gamescan CLI.
//
// Gamescan imports installed games from desktop launchers (Steam, XDG
// desktop entries, hand-maintained catalogs) into a local SQLite
// library, fetching cover art and reporting the result.
//
// Usage:
//
//	gamescan import
//	gamescan list
//
// See --help for all available options.
package main

// main is the entry point for gamescan.
func main() {
	Execute()
}
