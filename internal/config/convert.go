package config

import (
	"fmt"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/project/browser"
	"github.com/dshills/shellpane/internal/project/search"
	"github.com/dshills/shellpane/internal/renderer"
)

// ThemeColors returns the theme section in renderer form.
func (c *Config) ThemeColors() renderer.ThemeColors {
	t := c.Theme
	return renderer.ThemeColors{
		Foreground: t.Foreground,
		Background: t.Background,
		Accent:     t.Accent,
		Directory:  t.Directory,
		Symlink:    t.Symlink,
		Marked:     t.Marked,
		Error:      t.Error,
		Warning:    t.Warning,
	}
}

// Executor returns the file operation executor settings.
func (c *Config) Executor() fileop.Config {
	return fileop.Config{
		MaxConcurrent: c.Ops.MaxConcurrent,
		ChunkSize:     c.Ops.ChunkSize,
		EventBuffer:   c.Ops.EventBuffer,
	}
}

// Query returns a search query for text under root with the configured
// defaults.
func (c *Config) Query(root, text string) search.Query {
	q := search.NewQuery(root, text)
	q.Include = c.Search.Include
	q.Exclude = c.Search.Exclude
	q.CaseSensitive = c.Search.CaseSensitive
	q.MaxDepth = c.Search.MaxDepth
	q.MaxResults = c.Search.MaxResults
	q.MaxFileSize = c.Search.MaxFileSize
	return q
}

// BrowserOptions returns the initial browser view policy for dir.
func (c *Config) BrowserOptions(dir string) (browser.Options, error) {
	sort, err := browser.ParseSortKey(c.Browser.Sort)
	if err != nil {
		return browser.Options{}, err
	}
	return browser.Options{
		Dir:        dir,
		ShowHidden: c.Browser.ShowHidden,
		Sort:       sort,
		Reverse:    c.Browser.Reverse,
		Filter:     c.Browser.Filter,
	}, nil
}

// Layout returns the pane orientation and split.
func (c *Config) Layout() (renderer.Orientation, float64, error) {
	o, err := renderer.ParseOrientation(c.UI.Layout)
	return o, c.UI.Split, err
}

// Router builds the input router with the configured toggle and bindings.
func (c *Config) Router(logger *logging.Logger) (*input.Router, error) {
	toggle, err := key.Parse(c.Keys.Toggle)
	if err != nil {
		return nil, fmt.Errorf("keys.toggle: %w", err)
	}
	km := input.DefaultKeymap()
	if err := km.Apply(c.Keys.Bind); err != nil {
		return nil, fmt.Errorf("keys.bind: %w", err)
	}
	return input.NewRouter(
		input.WithKeymap(km),
		input.WithToggle(toggle),
		input.WithLogger(logger),
	), nil
}

// LogConfig returns the logger settings. An empty file selects the default
// log location.
func (c *Config) LogConfig() logging.Config {
	file := c.Logging.File
	if file == "" {
		file = logging.DefaultFile()
	}
	return logging.Config{
		Level: logging.ParseLogLevel(c.Logging.Level),
		File:  file,
	}
}
