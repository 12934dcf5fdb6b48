package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludokit/gamescan/internal/model"
)

// writeCatalog writes a catalog YAML file and returns its path.
func writeCatalog(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestCatalogSource tests scanning a hand-maintained game catalog.
func TestCatalogSource(t *testing.T) {
	t.Parallel()

	t.Run("discovers catalog entries", func(t *testing.T) {
		t.Parallel()

		path := writeCatalog(t, `games:
  - id: gog_1207658924
    name: "The Witcher"
    exec: /games/witcher/start.sh
    installDir: /games/witcher
    cover: https://example.com/witcher.jpg
  - name: "Cave Story"
    exec: /games/cavestory/run
    cover: /games/cavestory/cover.png
`)

		src := NewCatalogSource(path, WithCatalogLogger(quietLogger()))
		if !src.Installed() {
			t.Fatal("expected Installed to be true")
		}

		results, errs := drain(t, src.Scan(context.Background()))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}

		first := results[0]
		if first.Game.ID != "gog_1207658924" || first.Game.SourceID != "catalog" {
			t.Errorf("unexpected identity: %+v", first.Game)
		}
		if first.Metadata["cover_url"] != "https://example.com/witcher.jpg" {
			t.Errorf("cover_url = %q", first.Metadata["cover_url"])
		}

		second := results[1]
		if second.Game.ID != "catalog_cave-story" {
			t.Errorf("expected slugified id, got %q", second.Game.ID)
		}
		if second.Metadata["cover_path"] != "/games/cavestory/cover.png" {
			t.Errorf("cover_path = %q", second.Metadata["cover_path"])
		}
	})

	t.Run("entry without name is invalid", func(t *testing.T) {
		t.Parallel()

		path := writeCatalog(t, `games:
  - exec: /games/mystery/run
`)

		src := NewCatalogSource(path, WithCatalogLogger(quietLogger()))
		results, errs := drain(t, src.Scan(context.Background()))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(results) != 1 || results[0].Kind != model.ResultInvalid {
			t.Errorf("expected one invalid result, got %+v", results)
		}
	})

	t.Run("unparseable catalog reports once then ends", func(t *testing.T) {
		t.Parallel()

		path := writeCatalog(t, "games: [broken")

		src := NewCatalogSource(path, WithCatalogLogger(quietLogger()))
		it := src.Scan(context.Background())

		if _, err := it.Next(context.Background()); err == nil || errors.Is(err, Done) {
			t.Fatalf("expected a parse error, got %v", err)
		}
		if _, err := it.Next(context.Background()); !errors.Is(err, Done) {
			t.Errorf("expected Done after failure, got %v", err)
		}
	})

	t.Run("empty catalog yields Done immediately", func(t *testing.T) {
		t.Parallel()

		path := writeCatalog(t, "games: []\n")

		src := NewCatalogSource(path, WithCatalogLogger(quietLogger()))
		results, errs := drain(t, src.Scan(context.Background()))
		if len(errs) != 0 || len(results) != 0 {
			t.Errorf("expected no results, got %v / %v", results, errs)
		}
	})

	t.Run("missing catalog is not installed", func(t *testing.T) {
		t.Parallel()

		src := NewCatalogSource(filepath.Join(t.TempDir(), "absent.yaml"))
		if src.Installed() {
			t.Error("expected Installed to be false")
		}
	})
}

// TestSlugify tests id derivation from display names.
func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Cave Story", "cave-story"},
		{"VVVVVV", "vvvvvv"},
		{"Hotline Miami 2: Wrong Number", "hotline-miami-2-wrong-number"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := slugify(tt.name); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
