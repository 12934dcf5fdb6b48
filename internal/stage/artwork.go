package stage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludokit/gamescan/internal/model"
)

// Metadata keys the artwork stage consumes.
const (
	// metaCoverURL is a remote cover image to download.
	metaCoverURL = "cover_url"

	// metaCoverPath is a local cover image to copy.
	metaCoverPath = "cover_path"
)

// ArtworkStage fetches cover art for a game. A cover_url metadata key is
// downloaded over HTTP; a cover_path key is copied from the local
// filesystem. Either way the image lands in the cover directory named by
// the game's library key, and the game's CoverPath field is set.
//
// Artwork declares itself non-blocking: the work is network I/O and may
// move off the pipeline's worker in the future. Run still returns only
// once the cover is stored or the fetch has failed.
type ArtworkStage struct {
	// coverDir is the directory covers are written to.
	coverDir string

	// client performs cover downloads.
	client *http.Client

	// maxSize caps the bytes accepted for one cover.
	maxSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// ArtworkOption configures an ArtworkStage.
type ArtworkOption func(*ArtworkStage)

// WithArtworkClient sets a custom HTTP client for cover downloads.
func WithArtworkClient(client *http.Client) ArtworkOption {
	return func(s *ArtworkStage) {
		if client != nil {
			s.client = client
		}
	}
}

// WithArtworkTimeout sets the per-download timeout.
func WithArtworkTimeout(timeout time.Duration) ArtworkOption {
	return func(s *ArtworkStage) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithArtworkMaxSize caps the accepted cover size in bytes.
func WithArtworkMaxSize(maxSize int64) ArtworkOption {
	return func(s *ArtworkStage) {
		if maxSize > 0 {
			s.maxSize = maxSize
		}
	}
}

// WithArtworkLogger sets a custom logger for the artwork stage.
func WithArtworkLogger(logger *slog.Logger) ArtworkOption {
	return func(s *ArtworkStage) {
		s.logger = logger
	}
}

// defaultMaxCoverSize caps covers at 10 MiB.
const defaultMaxCoverSize = 10 * 1024 * 1024

// NewArtworkStage creates an artwork stage writing covers to coverDir.
func NewArtworkStage(coverDir string, opts ...ArtworkOption) *ArtworkStage {
	s := &ArtworkStage{
		coverDir: coverDir,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxSize:  defaultMaxCoverSize,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Kind implements Stage.
func (s *ArtworkStage) Kind() Kind {
	return KindArtwork
}

// RunAfter implements Stage. Artwork runs after metadata so it names the
// cover file from the cleaned identity.
func (s *ArtworkStage) RunAfter() []Kind {
	return []Kind{KindMetadata}
}

// Blocking implements Stage.
func (s *ArtworkStage) Blocking() bool {
	return false
}

// Run implements Stage.
func (s *ArtworkStage) Run(ctx context.Context, game *model.Game) []error {
	var data []byte
	var err error

	switch {
	case game.Metadata[metaCoverURL] != "":
		data, err = s.download(ctx, game.Metadata[metaCoverURL])
	case game.Metadata[metaCoverPath] != "":
		data, err = s.readLocal(game.Metadata[metaCoverPath])
	default:
		// No cover information is normal for desktop entries with themed
		// icons; nothing to do.
		return nil
	}
	if err != nil {
		return []error{newError(KindArtwork, game, err)}
	}

	path, err := s.write(game, data)
	if err != nil {
		return []error{newError(KindArtwork, game, err)}
	}

	game.CoverPath = path
	s.logger.Debug("cover stored", "game", game.ID, "path", path, "bytes", len(data))
	return nil
}

// download fetches a cover image over HTTP.
func (s *ArtworkStage) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build cover request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover download returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover body: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("cover exceeds %d byte limit", s.maxSize)
	}
	return data, nil
}

// readLocal reads a cover image from the local filesystem.
func (s *ArtworkStage) readLocal(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat cover %s: %w", path, err)
	}
	if info.Size() > s.maxSize {
		return nil, fmt.Errorf("cover %s exceeds %d byte limit", path, s.maxSize)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from source metadata
	if err != nil {
		return nil, fmt.Errorf("failed to read cover %s: %w", path, err)
	}
	return data, nil
}

// write stores cover bytes under the cover directory. The file name is
// derived from the library key so re-imports overwrite in place.
func (s *ArtworkStage) write(game *model.Game, data []byte) (string, error) {
	if err := os.MkdirAll(s.coverDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cover directory: %w", err)
	}

	name := strings.ReplaceAll(model.Key(game.SourceID, game.ID), "/", "_")
	path := filepath.Join(s.coverDir, name+".img")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	return path, nil
}
