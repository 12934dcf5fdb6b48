package stage

import (
	"fmt"

	"github.com/ludokit/gamescan/internal/model"
)

// Error is a stage failure attributed to one game. It carries enough
// identity for the import summary to group failures by stage and name
// the affected game.
type Error struct {
	// Kind is the stage that failed.
	Kind Kind

	// GameID identifies the affected game.
	GameID string

	// GameName is the game's display name at the time of failure.
	GameName string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Kind, e.GameID, e.Err)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with stage and game identity.
func newError(kind Kind, game *model.Game, err error) *Error {
	return &Error{
		Kind:     kind,
		GameID:   game.ID,
		GameName: game.Name,
		Err:      err,
	}
}
