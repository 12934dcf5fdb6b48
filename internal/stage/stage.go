package stage

import (
	"context"

	"github.com/ludokit/gamescan/internal/model"
)

// Kind identifies a stage type. Ordering constraints between stages are
// expressed in terms of kinds, not instances.
type Kind string

// The built-in stage kinds.
const (
	// KindMetadata cleans and merges source metadata into game fields.
	KindMetadata Kind = "metadata"

	// KindArtwork fetches or copies cover art.
	KindArtwork Kind = "artwork"

	// KindSave persists the game to the library database.
	KindSave Kind = "save"
)

// Stage is one unit of per-game pipeline work.
//
// Implementations must be safe for concurrent use: one Stage instance is
// shared by every pipeline in a run, and pipelines execute on multiple
// goroutines. Per-game state belongs on the Game, not the Stage.
type Stage interface {
	// Kind returns the stage's type identifier. Kinds must be unique
	// within one pipeline.
	Kind() Kind

	// RunAfter returns the kinds this stage must run after. Kinds that
	// are not part of the pipeline are ignored.
	RunAfter() []Kind

	// Blocking reports whether Run does its work on the calling
	// goroutine. A non-blocking stage may offload to another execution
	// context, but Run still returns only once the work is observably
	// complete or failed.
	Blocking() bool

	// Run executes the stage against one game. Returned errors are
	// collected per game and reported in the import summary; they do not
	// stop the remaining stages.
	Run(ctx context.Context, game *model.Game) []error
}
