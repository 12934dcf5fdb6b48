package stage

import (
	"context"
	"log/slog"

	"github.com/ludokit/gamescan/internal/model"
)

// Saver persists one game row. *database.GameDB satisfies it.
type Saver interface {
	SaveGame(ctx context.Context, game *model.Game, runID string) error
}

// SaveStage writes the finished game to the library database. It orders
// itself after metadata and artwork so the stored row reflects the
// cleaned fields and any fetched cover path.
type SaveStage struct {
	// db persists game rows.
	db Saver

	// runID tags saved rows with the import run that wrote them.
	runID string

	// logger for structured logging.
	logger *slog.Logger
}

// SaveOption configures a SaveStage.
type SaveOption func(*SaveStage)

// WithSaveLogger sets a custom logger for the save stage.
func WithSaveLogger(logger *slog.Logger) SaveOption {
	return func(s *SaveStage) {
		s.logger = logger
	}
}

// NewSaveStage creates a save stage writing through db, tagging rows
// with runID.
func NewSaveStage(db Saver, runID string, opts ...SaveOption) *SaveStage {
	s := &SaveStage{
		db:     db,
		runID:  runID,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Kind implements Stage.
func (s *SaveStage) Kind() Kind {
	return KindSave
}

// RunAfter implements Stage.
func (s *SaveStage) RunAfter() []Kind {
	return []Kind{KindMetadata, KindArtwork}
}

// Blocking implements Stage.
func (s *SaveStage) Blocking() bool {
	return true
}

// Run implements Stage.
func (s *SaveStage) Run(ctx context.Context, game *model.Game) []error {
	if err := s.db.SaveGame(ctx, game, s.runID); err != nil {
		return []error{newError(KindSave, game, err)}
	}

	s.logger.Debug("game saved", "game", game.ID, "run", s.runID)
	return nil
}
