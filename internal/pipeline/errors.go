package pipeline

import "errors"

var (
	// ErrStageCycle means the stages' RunAfter declarations contain a
	// dependency cycle and no valid execution order exists.
	ErrStageCycle = errors.New("stage dependencies contain a cycle")

	// ErrDuplicateStage means two stages of the same kind were given to
	// one pipeline.
	ErrDuplicateStage = errors.New("duplicate stage kind")

	// ErrNilGame means a pipeline was constructed without a game.
	ErrNilGame = errors.New("pipeline requires a game")
)
