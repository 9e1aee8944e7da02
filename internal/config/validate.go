package config

import (
	"errors"
	"strings"

	"github.com/gobwas/glob"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/project/browser"
	"github.com/dshills/shellpane/internal/renderer"
)

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Shell.Scrollback < 0 {
		add(invalid("shell.scrollback", c.Shell.Scrollback, "must not be negative"))
	}
	if c.Shell.OutputBuffer < 1 {
		add(invalid("shell.output_buffer", c.Shell.OutputBuffer, "must be at least 1"))
	}

	if c.UI.FPS < 1 || c.UI.FPS > 240 {
		add(invalid("ui.fps", c.UI.FPS, "must be between 1 and 240"))
	}
	if _, err := renderer.ParseOrientation(c.UI.Layout); err != nil {
		add(invalid("ui.layout", c.UI.Layout, "must be horizontal or vertical"))
	}
	if c.UI.Split < renderer.MinSplit || c.UI.Split > renderer.MaxSplit {
		add(invalid("ui.split", c.UI.Split, "must be between %.1f and %.1f", renderer.MinSplit, renderer.MaxSplit))
	}
	if _, err := renderer.NewTheme(c.ThemeColors()); err != nil {
		add(err)
	}

	if _, err := browser.ParseSortKey(c.Browser.Sort); err != nil {
		add(invalid("browser.sort", c.Browser.Sort, "must be name, size or modified"))
	}
	if c.Browser.Filter != "" {
		if _, err := glob.Compile(c.Browser.Filter); err != nil {
			add(invalid("browser.filter", c.Browser.Filter, "invalid glob: %v", err))
		}
	}

	if len(c.Browser.Bookmarks) > input.MaxBookmarks {
		add(invalid("browser.bookmarks", c.Browser.Bookmarks, "at most %d entries", input.MaxBookmarks))
	}
	for _, b := range c.Browser.Bookmarks {
		if strings.TrimSpace(b) == "" {
			add(invalid("browser.bookmarks", c.Browser.Bookmarks, "entries must not be empty"))
			break
		}
	}

	if c.Ops.MaxConcurrent < 1 {
		add(invalid("ops.max_concurrent", c.Ops.MaxConcurrent, "must be at least 1"))
	}
	if c.Ops.ChunkSize < 512 {
		add(invalid("ops.chunk_size", c.Ops.ChunkSize, "must be at least 512"))
	}
	if c.Ops.EventBuffer < 1 {
		add(invalid("ops.event_buffer", c.Ops.EventBuffer, "must be at least 1"))
	}

	add(validateGlobs("search.include", c.Search.Include))
	add(validateGlobs("search.exclude", c.Search.Exclude))
	if c.Search.MaxDepth < 1 {
		add(invalid("search.max_depth", c.Search.MaxDepth, "must be at least 1"))
	}
	if c.Search.MaxResults < 1 {
		add(invalid("search.max_results", c.Search.MaxResults, "must be at least 1"))
	}
	if c.Search.MaxFileSize < 1 {
		add(invalid("search.max_file_size", c.Search.MaxFileSize, "must be at least 1"))
	}

	if _, err := key.Parse(c.Keys.Toggle); err != nil {
		add(invalid("keys.toggle", c.Keys.Toggle, "%v", err))
	}
	if err := input.DefaultKeymap().Apply(c.Keys.Bind); err != nil {
		add(invalid("keys.bind", c.Keys.Bind, "%v", err))
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add(invalid("logging.level", c.Logging.Level, "must be debug, info, warn or error"))
	}

	return errors.Join(errs...)
}

func validateGlobs(path, list string) error {
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := glob.Compile(p); err != nil {
			return invalid(path, list, "invalid glob %q: %v", p, err)
		}
	}
	return nil
}
