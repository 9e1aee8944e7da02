package core

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell represents a single terminal cell. The right half of a wide rune
// is a continuation cell with Width 0.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell returns an empty cell with default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// NewStyledCell creates a cell with the given rune and style.
func NewStyledCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: RuneWidth(r), Style: style}
}

// IsContinuation returns true if this is a continuation cell.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c.Rune == other.Rune && c.Width == other.Width && c.Style.Equals(other.Style)
}

// RuneWidth returns the display width of a rune. Control characters and
// combining marks report 0; they are drawn as if they had width 1 by
// callers that need a cell for them.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// StringWidth returns the display width of s.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to fit width columns, ending it with tail when it
// was cut. Wide runes are never split.
func Truncate(s string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if runewidth.StringWidth(tail) >= width {
		tail = ""
	}
	return runewidth.Truncate(s, width, tail)
}

// PadRight truncates or pads s with spaces to exactly width columns.
func PadRight(s string, width int) string {
	s = Truncate(s, width, "~")
	if w := runewidth.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// PadLeft right-aligns s in width columns.
func PadLeft(s string, width int) string {
	s = Truncate(s, width, "~")
	if w := runewidth.StringWidth(s); w < width {
		s = strings.Repeat(" ", width-w) + s
	}
	return s
}
