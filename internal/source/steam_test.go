package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludokit/gamescan/internal/model"
)

// writeSteamLibrary lays out a minimal Steam installation under dir:
// a libraryfolders.vdf plus the given appmanifest files.
func writeSteamLibrary(t *testing.T, dir string, manifests map[string]string) {
	t.Helper()

	steamapps := filepath.Join(dir, "steamapps")
	if err := os.MkdirAll(steamapps, 0o750); err != nil {
		t.Fatal(err)
	}

	library := `"libraryfolders"
{
	"0"
	{
		"path"		"` + dir + `"
	}
}
`
	if err := os.WriteFile(filepath.Join(steamapps, "libraryfolders.vdf"), []byte(library), 0o600); err != nil {
		t.Fatal(err)
	}

	for name, content := range manifests {
		if err := os.WriteFile(filepath.Join(steamapps, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

// appManifest renders an appmanifest ACF body.
func appManifest(appID, name, installDir string) string {
	return `"AppState"
{
	"appid"		"` + appID + `"
	"name"		"` + name + `"
	"installdir"	"` + installDir + `"
}
`
}

// drain consumes an iterator until Done, collecting results and errors.
func drain(t *testing.T, it Iterator) ([]model.ScanResult, []error) {
	t.Helper()

	var results []model.ScanResult
	var errs []error
	for {
		result, err := it.Next(context.Background())
		if errors.Is(err, Done) {
			return results, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSteamSource tests scanning a Steam library.
func TestSteamSource(t *testing.T) {
	t.Parallel()

	t.Run("discovers installed games", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeSteamLibrary(t, dir, map[string]string{
			"appmanifest_400.acf":  appManifest("400", "Portal", "Portal"),
			"appmanifest_620.acf":  appManifest("620", "Portal 2", "Portal 2"),
			"appmanifest_1493710.acf": appManifest("1493710", "Proton Experimental", "Proton - Experimental"),
		})

		src := NewSteamSource(WithSteamLibraryDir(dir), WithSteamLogger(quietLogger()))
		if !src.Installed() {
			t.Fatal("expected Installed to be true")
		}

		results, errs := drain(t, src.Scan(context.Background()))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}

		var discovered []*model.Game
		skipped := 0
		for _, r := range results {
			switch r.Kind {
			case model.ResultDiscovered:
				discovered = append(discovered, r.Game)
			case model.ResultSkipped:
				skipped++
			}
		}

		if len(discovered) != 2 {
			t.Fatalf("expected 2 games, got %d", len(discovered))
		}
		if skipped != 1 {
			t.Errorf("expected Proton to be skipped, got %d skips", skipped)
		}

		first := discovered[0]
		if first.ID != "steam_400" || first.SourceID != "steam" || first.Name != "Portal" {
			t.Errorf("unexpected game: %+v", first)
		}
		wantDir := filepath.Join(dir, "steamapps", "common", "Portal")
		if first.InstallDir != wantDir {
			t.Errorf("InstallDir = %q, want %q", first.InstallDir, wantDir)
		}
	})

	t.Run("attaches appid and cover metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeSteamLibrary(t, dir, map[string]string{
			"appmanifest_400.acf": appManifest("400", "Portal", "Portal"),
		})

		src := NewSteamSource(WithSteamLibraryDir(dir), WithSteamLogger(quietLogger()))
		results, _ := drain(t, src.Scan(context.Background()))
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}

		md := results[0].Metadata
		if md["steam_appid"] != "400" {
			t.Errorf("steam_appid = %q, want %q", md["steam_appid"], "400")
		}
		if md["cover_url"] == "" {
			t.Error("expected cover_url metadata")
		}
	})

	t.Run("corrupt manifest costs one element", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeSteamLibrary(t, dir, map[string]string{
			"appmanifest_400.acf": appManifest("400", "Portal", "Portal"),
			"appmanifest_500.acf": `"AppState" { "appid" "500"`,
			"appmanifest_620.acf": appManifest("620", "Portal 2", "Portal 2"),
		})

		src := NewSteamSource(WithSteamLibraryDir(dir), WithSteamLogger(quietLogger()))
		results, errs := drain(t, src.Scan(context.Background()))

		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %v", errs)
		}
		if len(results) != 2 {
			t.Errorf("expected the other manifests to survive, got %d results", len(results))
		}
	})

	t.Run("manifest without appid is invalid", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeSteamLibrary(t, dir, map[string]string{
			"appmanifest_0.acf": `"AppState" { "name" "Nameless" }`,
		})

		src := NewSteamSource(WithSteamLibraryDir(dir), WithSteamLogger(quietLogger()))
		results, errs := drain(t, src.Scan(context.Background()))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(results) != 1 || results[0].Kind != model.ResultInvalid {
			t.Errorf("expected one invalid result, got %+v", results)
		}
	})

	t.Run("unreadable library reports once then ends", func(t *testing.T) {
		t.Parallel()

		// The directory exists but has no libraryfolders.vdf, so the scan
		// fails at load time.
		src := &SteamSource{libraryDir: t.TempDir(), logger: quietLogger()}
		it := src.Scan(context.Background())

		if _, err := it.Next(context.Background()); err == nil || errors.Is(err, Done) {
			t.Fatalf("expected a load error, got %v", err)
		}
		if _, err := it.Next(context.Background()); !errors.Is(err, Done) {
			t.Errorf("expected Done after failure, got %v", err)
		}
	})

	t.Run("missing library is not installed", func(t *testing.T) {
		t.Parallel()

		src := NewSteamSource(WithSteamLibraryDir(filepath.Join(t.TempDir(), "nope")))
		if src.Installed() {
			t.Error("expected Installed to be false")
		}
	})
}
