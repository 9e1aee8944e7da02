package renderer

import (
	"fmt"
	"strings"

	"github.com/dshills/shellpane/internal/renderer/core"
)

// Orientation is how the two panes share the screen.
type Orientation int

const (
	// Horizontal puts the browser left of the terminal.
	Horizontal Orientation = iota
	// Vertical puts the browser above the terminal.
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation accepts "horizontal" or "vertical".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return Horizontal, fmt.Errorf("unknown layout %q", s)
	}
}

// Split bounds.
const (
	MinSplit     = 0.1
	MaxSplit     = 0.9
	DefaultSplit = 0.4
)

// Layout is the screen divided into panes, in backend coordinates. Each
// pane's first row is its title bar.
type Layout struct {
	Width, Height int
	Orientation   Orientation
	Browser       core.ScreenRect
	Terminal      core.ScreenRect
	Status        core.ScreenRect
}

// ComputeLayout splits a width x height screen. split is the share of the
// screen given to the browser, clamped to [MinSplit, MaxSplit]. The status
// line takes the last row. Each pane keeps at least one column and row
// when the screen allows.
func ComputeLayout(width, height int, o Orientation, split float64) Layout {
	width, height = max(width, 0), max(height, 0)
	split = min(max(split, MinSplit), MaxSplit)

	l := Layout{Width: width, Height: height, Orientation: o}
	panes, status := core.Rect(0, 0, width, height).SplitBottom(1)
	l.Status = status

	if o == Vertical {
		n := paneShare(panes.Height(), split)
		l.Browser, l.Terminal = panes.SplitTop(n)
	} else {
		n := paneShare(panes.Width(), split)
		l.Browser, l.Terminal = panes.SplitLeft(n)
	}
	return l
}

func paneShare(total int, split float64) int {
	if total < 2 {
		return total
	}
	n := int(float64(total)*split + 0.5)
	return min(max(n, 1), total-1)
}

// TerminalContent is the terminal pane without its title bar: the size
// the PTY and emulator should have.
func (l Layout) TerminalContent() core.ScreenRect {
	_, body := l.Terminal.SplitTop(1)
	return body
}

// BrowserContent is the browser pane without its title bar.
func (l Layout) BrowserContent() core.ScreenRect {
	_, body := l.Browser.SplitTop(1)
	return body
}

// HideTerminal gives the browser the whole pane area. The terminal pane
// becomes empty, so TerminalContent reports a zero size.
func (l Layout) HideTerminal() Layout {
	panes, _ := core.Rect(0, 0, l.Width, l.Height).SplitBottom(1)
	l.Browser = panes
	l.Terminal = core.ScreenRect{Top: panes.Bottom, Left: panes.Right, Bottom: panes.Bottom, Right: panes.Right}
	return l
}
