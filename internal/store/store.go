package store

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/ludokit/gamescan/internal/database"
	"github.com/ludokit/gamescan/internal/model"
	"github.com/ludokit/gamescan/internal/pipeline"
	"github.com/ludokit/gamescan/internal/stage"
)

// Store admits discovered games into the import run. It is safe for
// concurrent use: every source worker registers through the same Store.
type Store struct {
	// db is the library database; nil disables persistence and the
	// removed-flag lookup (used by tests).
	db *database.GameDB

	// stages are handed to each imported game's pipeline.
	stages []stage.Stage

	// excludes are glob patterns matched against name and id.
	excludes []string

	// runID tags persisted rows with the current import run.
	runID string

	// logger for structured logging.
	logger *slog.Logger

	// mu guards seen and removed.
	mu sync.Mutex

	// seen holds the library keys registered during this run.
	seen map[string]bool

	// removed holds the library keys the user has removed, loaded from
	// the database on first registration.
	removed map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithDatabase sets the library database games are persisted to.
func WithDatabase(db *database.GameDB) Option {
	return func(s *Store) {
		s.db = db
	}
}

// WithStages sets the stages given to each imported game's pipeline.
func WithStages(stages []stage.Stage) Option {
	return func(s *Store) {
		s.stages = stages
	}
}

// WithExcludePatterns sets the exclude patterns. Each pattern is a
// path.Match glob tested case-insensitively against the game's name and
// its id.
func WithExcludePatterns(patterns []string) Option {
	return func(s *Store) {
		s.excludes = patterns
	}
}

// WithRunID tags persisted rows with the given run identifier.
func WithRunID(runID string) Option {
	return func(s *Store) {
		s.runID = runID
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		seen:   make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register admits one discovered game. It returns the pipeline that
// will drive the game's import, or (nil, nil) when the game is a
// duplicate of one already registered this run.
//
// Excluded and removed games are still registered so deduplication and
// the summary see them, but they receive an empty pipeline: no stage
// work, immediately complete.
func (s *Store) Register(ctx context.Context, game *model.Game, metadata map[string]string) (*pipeline.Pipeline, error) {
	if game == nil {
		return nil, fmt.Errorf("store: cannot register nil game")
	}
	if game.ID == "" || game.SourceID == "" {
		return nil, fmt.Errorf("store: game %q is missing identity", game.Name)
	}

	key := model.Key(game.SourceID, game.ID)

	s.mu.Lock()
	if s.seen[key] {
		s.mu.Unlock()
		s.logger.Debug("duplicate game rejected", "key", key, "name", game.Name)
		return nil, nil
	}
	s.seen[key] = true

	if s.removed == nil {
		removed, err := s.loadRemoved(ctx)
		if err != nil {
			// Roll back the reservation so a retry can succeed.
			delete(s.seen, key)
			s.mu.Unlock()
			return nil, err
		}
		s.removed = removed
	}
	isRemoved := s.removed[key]
	s.mu.Unlock()

	mergeMetadata(game, metadata)

	if s.matchesExclude(game) {
		game.Excluded = true
	}
	if isRemoved {
		game.Removed = true
	}
	if game.AddedAt.IsZero() {
		game.AddedAt = time.Now()
	}

	// Excluded and removed games get no stage work.
	stages := s.stages
	if !game.Imported() {
		stages = nil
	}

	p, err := pipeline.New(game, stages)
	if err != nil {
		return nil, err
	}

	if s.db != nil {
		if err := s.db.SaveGame(ctx, game, s.runID); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	s.logger.Debug("game registered",
		"key", key,
		"name", game.Name,
		"excluded", game.Excluded,
		"removed", game.Removed,
		"stages", p.Stages(),
	)
	return p, nil
}

// loadRemoved fetches the removed-key set. Called once, under mu.
func (s *Store) loadRemoved(ctx context.Context) (map[string]bool, error) {
	if s.db == nil {
		return map[string]bool{}, nil
	}
	removed, err := s.db.RemovedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return removed, nil
}

// mergeMetadata folds source-provided metadata into the game without
// overwriting keys the game already carries.
func mergeMetadata(game *model.Game, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	if game.Metadata == nil {
		game.Metadata = make(map[string]string, len(metadata))
	}
	for k, v := range metadata {
		if _, ok := game.Metadata[k]; !ok {
			game.Metadata[k] = v
		}
	}
}

// matchesExclude reports whether the game matches any exclude pattern.
func (s *Store) matchesExclude(game *model.Game) bool {
	name := strings.ToLower(game.Name)
	id := strings.ToLower(game.ID)
	for _, pattern := range s.excludes {
		pattern = strings.ToLower(pattern)
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, id); err == nil && ok {
			return true
		}
	}
	return false
}
