package model

// ResultKind discriminates the variants of a ScanResult.
//
// Design decision: Sources report each iteration step as a tagged variant
// rather than returning a bare *Game that may be nil. This makes the three
// legal shapes (a discovered game, a deliberate skip, an invalid entry)
// explicit in the type system instead of relying on callers to interpret
// nil and zero values.
type ResultKind int

const (
	// ResultDiscovered is a successfully discovered game, possibly with
	// additional metadata for the pipeline stages.
	ResultDiscovered ResultKind = iota

	// ResultSkipped is a deliberate no-op: the source looked at an entry
	// and decided it is not a game (e.g. a tool or a hidden desktop entry).
	ResultSkipped

	// ResultInvalid is an entry the source could not interpret. It is
	// logged by the worker and treated as a skip, never as a fatal error.
	ResultInvalid
)

// String returns a human-readable name for the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultDiscovered:
		return "discovered"
	case ResultSkipped:
		return "skipped"
	case ResultInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ScanResult is one element of a source's discovery sequence.
type ScanResult struct {
	// Kind selects the variant.
	Kind ResultKind

	// Game is set for ResultDiscovered.
	Game *Game

	// Metadata carries additional data attached to a discovered game.
	// It is merged into the game's Metadata map at registration.
	Metadata map[string]string

	// Reason describes why an entry is invalid. Set for ResultInvalid.
	Reason string
}

// Discovered builds a ScanResult for a discovered game.
func Discovered(game *Game, metadata map[string]string) ScanResult {
	return ScanResult{Kind: ResultDiscovered, Game: game, Metadata: metadata}
}

// Skipped builds a ScanResult for a deliberately skipped entry.
func Skipped() ScanResult {
	return ScanResult{Kind: ResultSkipped}
}

// Invalid builds a ScanResult for an entry the source could not interpret.
func Invalid(reason string) ScanResult {
	return ScanResult{Kind: ResultInvalid, Reason: reason}
}
