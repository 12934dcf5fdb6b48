package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestNewConfig tests default configuration values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.ArtworkTimeout != DefaultArtworkTimeout {
		t.Errorf("got artwork timeout %v, want %v", cfg.ArtworkTimeout, DefaultArtworkTimeout)
	}
	if cfg.MaxCoverSize != DefaultMaxCoverSize {
		t.Errorf("got max cover size %d, want %d", cfg.MaxCoverSize, DefaultMaxCoverSize)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("got concurrency %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.DBDir == "" {
		t.Error("expected non-empty database directory")
	}
	if cfg.CoverDir == "" {
		t.Error("expected non-empty cover directory")
	}
}

// TestConfigValidate tests configuration validation rules.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("negative concurrency is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Concurrency = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("got %v, want ErrInvalidConcurrency", err)
		}
	})

	t.Run("zero artwork timeout is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ArtworkTimeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidArtworkTimeout) {
			t.Errorf("got %v, want ErrInvalidArtworkTimeout", err)
		}
	})

	t.Run("negative max cover size is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.MaxCoverSize = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxCoverSize) {
			t.Errorf("got %v, want ErrInvalidMaxCoverSize", err)
		}
	})

	t.Run("conflicting report formats are rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("got %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("all sources disabled is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Sources = &File{}
		if err := cfg.Validate(); !errors.Is(err, ErrNoSourceEnabled) {
			t.Errorf("got %v, want ErrNoSourceEnabled", err)
		}
	})
}

// TestXDGDirs tests that XDG directory helpers are app-scoped.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q is not scoped to %q", name, dir, AppName)
		}
	}
}

// TestLoadConfigFile tests YAML config file loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".gamescan")
		content := `steam:
  enabled: true
  libraryDir: /opt/steam
desktop:
  enabled: false
catalog:
  enabled: true
  path: games.yaml
excludes:
  - "proton *"
  - "steamworks common redistributables"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cf.Steam.Enabled || cf.Steam.LibraryDir != "/opt/steam" {
			t.Errorf("unexpected steam config: %+v", cf.Steam)
		}
		if cf.Desktop.Enabled {
			t.Error("expected desktop source disabled")
		}
		if !cf.Catalog.Enabled || cf.Catalog.Path != "games.yaml" {
			t.Errorf("unexpected catalog config: %+v", cf.Catalog)
		}
		if len(cf.Excludes) != 2 {
			t.Errorf("got %d excludes, want 2", len(cf.Excludes))
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".gamescan")
		if err := os.WriteFile(path, []byte("steam: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("steam:\n  enabled: true\n"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("got %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path yields empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

// TestDefaultFile tests the fallback source configuration.
func TestDefaultFile(t *testing.T) {
	t.Parallel()

	cf := DefaultFile()
	if !cf.Steam.Enabled || !cf.Desktop.Enabled {
		t.Error("expected steam and desktop enabled by default")
	}
	if cf.Catalog.Enabled {
		t.Error("expected catalog disabled by default")
	}
	if !cf.AnyEnabled() {
		t.Error("expected at least one source enabled")
	}
}
