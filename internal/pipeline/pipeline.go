package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ludokit/gamescan/internal/model"
	"github.com/ludokit/gamescan/internal/stage"
)

// Pipeline drives the ordered stages of one game's import.
//
// The stage order is fixed at construction. Run executes the stages
// sequentially on whatever goroutine calls it; the accessors are safe to
// call concurrently from other goroutines, which is how the importer
// reads progress while pipelines are in flight.
type Pipeline struct {
	// game is the game this pipeline imports.
	game *model.Game

	// stages in execution order.
	stages []stage.Stage

	// onAdvance is called after every stage with the pipeline's
	// completion state as of that advance.
	onAdvance func(done bool)

	// mu guards the mutable fields below.
	mu sync.Mutex

	// completed counts finished stages. The pipeline is done when every
	// stage has run.
	completed int

	// errs collects every stage failure, in stage order.
	errs []error
}

// New creates a pipeline for game running the given stages. The stages'
// RunAfter declarations are resolved immediately, so an unsatisfiable
// ordering fails here rather than mid-import.
//
// A pipeline with no stages is valid and is complete from the start:
// games that need no work (excluded, removed) still flow through the
// same accounting as every other game.
func New(game *model.Game, stages []stage.Stage) (*Pipeline, error) {
	if game == nil {
		return nil, ErrNilGame
	}

	ordered, err := sortStages(stages)
	if err != nil {
		return nil, fmt.Errorf("pipeline for %s: %w", game.ID, err)
	}

	return &Pipeline{
		game:   game,
		stages: ordered,
	}, nil
}

// OnAdvance registers the advance callback. It must be set before Run;
// the importer uses it to feed its event loop. The callback is invoked
// exactly once per stage, from the goroutine running the pipeline.
func (p *Pipeline) OnAdvance(fn func(done bool)) {
	p.onAdvance = fn
}

// Run executes every stage in order. Each stage is attempted exactly
// once: stage errors and panics are recorded and the remaining stages
// still run. Run itself only fails when ctx is cancelled between stages.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		errs := runStage(ctx, s, p.game)

		p.mu.Lock()
		p.errs = append(p.errs, errs...)
		p.completed++
		done := p.completed == len(p.stages)
		p.mu.Unlock()

		if p.onAdvance != nil {
			p.onAdvance(done)
		}
	}
	return nil
}

// runStage executes one stage, converting a panic into an error so a
// broken stage implementation cannot take down the whole import.
func runStage(ctx context.Context, s stage.Stage, game *model.Game) (errs []error) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, &stage.Error{
				Kind:     s.Kind(),
				GameID:   game.ID,
				GameName: game.Name,
				Err:      fmt.Errorf("stage panicked: %v", r),
			})
		}
	}()
	return s.Run(ctx, game)
}

// Game returns the game this pipeline imports.
func (p *Pipeline) Game() *model.Game {
	return p.game
}

// Stages returns the number of stages in execution order.
func (p *Pipeline) Stages() int {
	return len(p.stages)
}

// Progress returns the fraction of stages completed, in [0, 1]. An
// empty pipeline reports 1.
func (p *Pipeline) Progress() float64 {
	if len(p.stages) == 0 {
		return 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.completed) / float64(len(p.stages))
}

// Done reports whether every stage has run.
func (p *Pipeline) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed == len(p.stages)
}

// Errors returns the stage failures collected so far, in stage order.
func (p *Pipeline) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}
