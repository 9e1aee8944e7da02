package renderer

import (
	"errors"
	"fmt"

	"github.com/dshills/shellpane/internal/renderer/core"
)

// ThemeColors are the configurable colors, as "#rrggbb" strings. Empty
// fields keep their default.
type ThemeColors struct {
	Foreground string
	Background string
	Accent     string
	Directory  string
	Symlink    string
	Marked     string
	Error      string
	Warning    string
}

// DefaultThemeColors returns the built-in palette.
func DefaultThemeColors() ThemeColors {
	return ThemeColors{
		Foreground: "#d0d0d0",
		Background: "#1c1c1c",
		Accent:     "#5f87d7",
		Directory:  "#87afff",
		Symlink:    "#5fd7d7",
		Marked:     "#d7af5f",
		Error:      "#ff5f5f",
		Warning:    "#ffd75f",
	}
}

// Theme holds the styles panes are drawn with.
type Theme struct {
	Normal       core.Style
	Directory    core.Style
	Symlink      core.Style
	Marked       core.Style
	Cursor       core.Style
	CursorDimmed core.Style
	Title        core.Style
	TitleFocused core.Style
	Status       core.Style
	Info         core.Style
	Warning      core.Style
	Error        core.Style
	Prompt       core.Style
	Placeholder  core.Style
}

// DefaultTheme builds the theme from DefaultThemeColors.
func DefaultTheme() Theme {
	t, err := NewTheme(DefaultThemeColors())
	if err != nil {
		panic(err)
	}
	return t
}

// NewTheme builds a theme. Every invalid color is reported.
func NewTheme(tc ThemeColors) (Theme, error) {
	def := DefaultThemeColors()
	var errs []error
	parse := func(name, v, fallback string) core.Color {
		if v == "" {
			v = fallback
		}
		c, err := core.ColorFromHex(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("theme.%s: %w", name, err))
			return core.MustHex(fallback)
		}
		return c
	}

	fg := parse("foreground", tc.Foreground, def.Foreground)
	bg := parse("background", tc.Background, def.Background)
	accent := parse("accent", tc.Accent, def.Accent)
	dir := parse("directory", tc.Directory, def.Directory)
	link := parse("symlink", tc.Symlink, def.Symlink)
	marked := parse("marked", tc.Marked, def.Marked)
	errc := parse("error", tc.Error, def.Error)
	warn := parse("warning", tc.Warning, def.Warning)
	if len(errs) > 0 {
		return Theme{}, errors.Join(errs...)
	}

	base := core.Style{Foreground: fg, Background: bg}
	bar := base.WithBackground(bg.Blend(accent, 0.25))
	return Theme{
		Normal:       base,
		Directory:    base.WithForeground(dir).Bold(),
		Symlink:      base.WithForeground(link),
		Marked:       base.WithForeground(marked).Bold(),
		Cursor:       base.WithBackground(accent).WithForeground(bg.Darken(0.2)),
		CursorDimmed: base.WithBackground(bg.Blend(accent, 0.35)),
		Title:        bar.Dim(),
		TitleFocused: base.WithBackground(accent).WithForeground(bg).Bold(),
		Status:       bar,
		Info:         bar,
		Warning:      bar.WithForeground(warn).Bold(),
		Error:        bar.WithForeground(errc).Bold(),
		Prompt:       base.WithForeground(accent).Bold(),
		Placeholder:  base.WithForeground(fg.Darken(0.4)),
	}, nil
}
