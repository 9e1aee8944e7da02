package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/shellpane/internal/config/loader"
	"github.com/dshills/shellpane/internal/project/search"
)

// Config is the complete set of settings.
type Config struct {
	Shell   ShellConfig   `toml:"shell"`
	UI      UIConfig      `toml:"ui"`
	Theme   ThemeConfig   `toml:"theme"`
	Browser BrowserConfig `toml:"browser"`
	Ops     OpsConfig     `toml:"ops"`
	Search  SearchConfig  `toml:"search"`
	Keys    KeysConfig    `toml:"keys"`
	Logging LoggingConfig `toml:"logging"`
}

// ShellConfig configures the embedded shell.
type ShellConfig struct {
	// Program defaults to $SHELL, then /bin/sh.
	Program string   `toml:"program"`
	Args    []string `toml:"args"`
	// SyncCD sends cd to the shell when the browser changes directory.
	SyncCD bool `toml:"sync_cd"`
	// Scrollback is the number of lines kept above the screen. 0 discards.
	Scrollback   int `toml:"scrollback"`
	OutputBuffer int `toml:"output_buffer"`
}

// UIConfig configures drawing.
type UIConfig struct {
	FPS    int     `toml:"fps"`
	Layout string  `toml:"layout"`
	Split  float64 `toml:"split"`
}

// ThemeConfig holds "#rrggbb" colors. Empty keeps the built-in color.
type ThemeConfig struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Accent     string `toml:"accent"`
	Directory  string `toml:"directory"`
	Symlink    string `toml:"symlink"`
	Marked     string `toml:"marked"`
	Error      string `toml:"error"`
	Warning    string `toml:"warning"`
}

// BrowserConfig sets the initial view policy.
type BrowserConfig struct {
	ShowHidden bool   `toml:"show_hidden"`
	Sort       string `toml:"sort"`
	Reverse    bool   `toml:"reverse"`
	Filter     string `toml:"filter"`
	// Bookmarks are the directories bookmark-1 through bookmark-9 enter.
	// A leading ~ is the home directory.
	Bookmarks []string `toml:"bookmarks"`
}

// OpsConfig configures the file operation executor.
type OpsConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
	ChunkSize     int `toml:"chunk_size"`
	EventBuffer   int `toml:"event_buffer"`
}

// SearchConfig sets content search defaults.
type SearchConfig struct {
	Include       string `toml:"include"`
	Exclude       string `toml:"exclude"`
	CaseSensitive bool   `toml:"case_sensitive"`
	MaxDepth      int    `toml:"max_depth"`
	MaxResults    int    `toml:"max_results"`
	MaxFileSize   int64  `toml:"max_file_size"`
}

// KeysConfig holds the focus toggle and browser bindings. Bind maps a
// command name to the keys that replace its default bindings.
type KeysConfig struct {
	Toggle string              `toml:"toggle"`
	Bind   map[string][]string `toml:"bind"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			SyncCD:       true,
			OutputBuffer: 64,
		},
		UI: UIConfig{
			FPS:    60,
			Layout: "horizontal",
			Split:  0.4,
		},
		Browser: BrowserConfig{
			Sort:      "name",
			Bookmarks: []string{"~/Desktop", "~/Documents", "~/Downloads"},
		},
		Ops: OpsConfig{
			MaxConcurrent: 2,
			ChunkSize:     256 * 1024,
			EventBuffer:   256,
		},
		Search: SearchConfig{
			Include:     search.DefaultInclude,
			Exclude:     search.DefaultExclude,
			MaxDepth:    search.DefaultMaxDepth,
			MaxResults:  search.DefaultMaxResults,
			MaxFileSize: search.DefaultMaxFileSize,
		},
		Keys: KeysConfig{
			Toggle: "ctrl+t",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/shellpane/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "shellpane", "config.toml")
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// Path is the TOML file. Empty skips the file.
	Path string
	// FS reads the file. Nil uses the OS.
	FS loader.FileSystem
	// Env lists KEY=value pairs. Nil reads the process environment; an
	// empty non-nil slice reads nothing.
	Env []string
}

// Load builds the configuration from defaults, the file and the
// environment. The result is not validated.
func Load(opts LoadOptions) (*Config, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	var env *loader.EnvLoader
	if opts.Env == nil {
		env = loader.NewEnvLoader(loader.DefaultPrefix)
	} else {
		env = loader.NewEnvLoaderFrom(loader.DefaultPrefix, opts.Env)
	}

	layers := []struct {
		name string
		l    loader.Loader
	}{
		{"file", loader.NewTOMLLoaderWithFS(fsys, opts.Path)},
		{"environment", env},
	}

	var merged map[string]any
	for _, layer := range layers {
		data, err := layer.l.Load()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", layer.name, err)
		}
		merged = loader.DeepMerge(merged, data)
	}

	cfg := Default()
	if len(merged) == 0 {
		return cfg, nil
	}
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies a raw map on top of cfg. Fields absent from the map keep
// their current values; unknown keys are rejected.
func decode(raw map[string]any, cfg *Config) error {
	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}
