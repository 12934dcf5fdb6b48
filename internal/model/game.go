package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Game represents one discovered library entry.
// A Game is created by a source during scanning, registered with the store,
// and then enriched by the pipeline stages before it lands in the library.
type Game struct {
	// ID is the launcher-assigned identity, e.g. "steam_440".
	// It is unique within one source but not necessarily across sources.
	ID string `json:"id"`

	// SourceID identifies the source that discovered this game.
	SourceID string `json:"sourceId"`

	// Name is the display name shown in the library and reports.
	Name string `json:"name"`

	// InstallDir is the game's installation directory, if known.
	InstallDir string `json:"installDir,omitempty"`

	// Executable is the command or path used to launch the game, if known.
	Executable string `json:"executable,omitempty"`

	// CoverPath is the local path of the game's cover art.
	// The artwork stage fills this in when a cover is fetched or copied.
	CoverPath string `json:"coverPath,omitempty"`

	// Metadata holds source-provided key/value pairs that did not map to a
	// dedicated field (e.g. "cover_url", "steam_appid"). The metadata stage
	// consumes well-known keys from this map.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Excluded marks a game that matched an exclude pattern during
	// registration. Excluded games still run their (empty) pipeline but do
	// not count as imported.
	Excluded bool `json:"excluded,omitempty"`

	// Removed marks a game the user previously removed from the library.
	// Removed games are re-registered so they are not re-added, but they do
	// not count as imported.
	Removed bool `json:"removed,omitempty"`

	// AddedAt is the time the game was first registered.
	AddedAt time.Time `json:"addedAt,omitzero"`
}

// Imported reports whether the game counts toward the successful-import
// total: neither excluded nor removed.
func (g *Game) Imported() bool {
	return !g.Excluded && !g.Removed
}

// Key returns the library key for a game identity: the NFKC-normalized,
// case-folded, source-qualified ID. Sources read identities from files
// whose casing and Unicode form are not under our control (VDF manifests,
// desktop entries), so two spellings of the same identity must collapse to
// one key.
func Key(sourceID, gameID string) string {
	folded := cases.Fold().String(norm.NFKC.String(sourceID + "/" + gameID))
	return strings.TrimSpace(folded)
}
