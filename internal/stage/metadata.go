package stage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ludokit/gamescan/internal/model"
)

// Well-known metadata keys the metadata stage consumes.
const (
	// metaExecutable overrides the game's launch command.
	metaExecutable = "executable"

	// metaInstallDir overrides the game's installation directory.
	metaInstallDir = "install_dir"
)

// trademarkMarks are stripped from display names. Launcher manifests
// carry them verbatim ("HITMAN™ 2") and they only add noise to the
// library and to deduplication.
var trademarkMarks = []string{"™", "®", "©"}

// MetadataStage normalizes a game's fields from its source metadata:
// display names are cleaned of trademark noise and whitespace, and
// well-known metadata keys are merged into the dedicated fields they
// belong to.
//
// The metadata stage runs first; the other built-in stages order
// themselves after it so they see the cleaned fields.
type MetadataStage struct {
	// logger for structured logging.
	logger *slog.Logger
}

// MetadataOption configures a MetadataStage.
type MetadataOption func(*MetadataStage)

// WithMetadataLogger sets a custom logger for the metadata stage.
func WithMetadataLogger(logger *slog.Logger) MetadataOption {
	return func(s *MetadataStage) {
		s.logger = logger
	}
}

// NewMetadataStage creates a metadata normalization stage.
func NewMetadataStage(opts ...MetadataOption) *MetadataStage {
	s := &MetadataStage{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Kind implements Stage.
func (s *MetadataStage) Kind() Kind {
	return KindMetadata
}

// RunAfter implements Stage. Metadata has no prerequisites.
func (s *MetadataStage) RunAfter() []Kind {
	return nil
}

// Blocking implements Stage.
func (s *MetadataStage) Blocking() bool {
	return true
}

// Run implements Stage.
func (s *MetadataStage) Run(_ context.Context, game *model.Game) []error {
	game.Name = cleanName(game.Name)

	if exec := game.Metadata[metaExecutable]; exec != "" && game.Executable == "" {
		game.Executable = exec
	}
	if dir := game.Metadata[metaInstallDir]; dir != "" && game.InstallDir == "" {
		game.InstallDir = dir
	}

	s.logger.Debug("metadata normalized", "game", game.ID, "name", game.Name)
	return nil
}

// cleanName strips trademark marks and collapses whitespace in a
// display name.
func cleanName(name string) string {
	for _, mark := range trademarkMarks {
		name = strings.ReplaceAll(name, mark, "")
	}
	return strings.Join(strings.Fields(name), " ")
}
