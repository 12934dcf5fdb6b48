package config

// SteamConfig configures the Steam library source.
type SteamConfig struct {
	// Enabled turns the source on. Disabled sources are never constructed.
	Enabled bool `yaml:"enabled"`

	// LibraryDir is the Steam installation directory containing
	// steamapps/libraryfolders.vdf. If empty, the well-known per-platform
	// locations are probed.
	LibraryDir string `yaml:"libraryDir,omitempty"`
}

// DesktopConfig configures the XDG desktop-entry source.
type DesktopConfig struct {
	// Enabled turns the source on.
	Enabled bool `yaml:"enabled"`

	// Dirs are the application directories to scan for .desktop files.
	// If empty, the XDG application directories are used.
	Dirs []string `yaml:"dirs,omitempty"`
}

// CatalogConfig configures the hand-maintained YAML catalog source.
type CatalogConfig struct {
	// Enabled turns the source on.
	Enabled bool `yaml:"enabled"`

	// Path is the catalog file location.
	Path string `yaml:"path,omitempty"`
}

// File represents the structure of the .gamescan configuration file.
type File struct {
	// Steam configures the Steam library source.
	Steam SteamConfig `yaml:"steam,omitempty"`

	// Desktop configures the desktop-entry source.
	Desktop DesktopConfig `yaml:"desktop,omitempty"`

	// Catalog configures the YAML catalog source.
	Catalog CatalogConfig `yaml:"catalog,omitempty"`

	// Excludes are glob patterns matched against a discovered game's name
	// and ID. Matching games are registered with the excluded flag set and
	// do not count as imported.
	Excludes []string `yaml:"excludes,omitempty"`
}

// DefaultFile returns the source configuration used when no .gamescan file
// is found: Steam and desktop entries enabled with auto-detected paths,
// catalog disabled.
func DefaultFile() *File {
	return &File{
		Steam:   SteamConfig{Enabled: true},
		Desktop: DesktopConfig{Enabled: true},
	}
}

// AnyEnabled reports whether at least one source is enabled.
func (f *File) AnyEnabled() bool {
	return f.Steam.Enabled || f.Desktop.Enabled || f.Catalog.Enabled
}
