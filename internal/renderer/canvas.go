package renderer

import (
	"github.com/dshills/shellpane/internal/renderer/backend"
	"github.com/dshills/shellpane/internal/renderer/core"
)

// Canvas draws into a rectangle of a backend. Coordinates are relative to
// the rectangle and anything outside it is clipped.
type Canvas struct {
	b    backend.Backend
	rect core.ScreenRect
}

// NewCanvas returns a canvas covering the whole backend.
func NewCanvas(b backend.Backend) Canvas {
	w, h := b.Size()
	return Canvas{b: b, rect: core.Rect(0, 0, w, h)}
}

// Sub returns a canvas for r, given in backend coordinates and clipped to c.
func (c Canvas) Sub(r core.ScreenRect) Canvas {
	r.Top = max(r.Top, c.rect.Top)
	r.Left = max(r.Left, c.rect.Left)
	r.Bottom = min(r.Bottom, c.rect.Bottom)
	r.Right = min(r.Right, c.rect.Right)
	return Canvas{b: c.b, rect: r}
}

// Rect returns the canvas area in backend coordinates.
func (c Canvas) Rect() core.ScreenRect { return c.rect }

// Width returns the number of columns.
func (c Canvas) Width() int { return c.rect.Width() }

// Height returns the number of rows.
func (c Canvas) Height() int { return c.rect.Height() }

// Set draws one cell.
func (c Canvas) Set(x, y int, cell core.Cell) {
	if x < 0 || y < 0 || x >= c.Width() || y >= c.Height() {
		return
	}
	c.b.SetCell(c.rect.Left+x, c.rect.Top+y, cell)
}

// Fill paints every cell with blanks in style.
func (c Canvas) Fill(style core.Style) {
	if c.rect.Empty() {
		return
	}
	c.b.Fill(c.rect, core.Cell{Rune: ' ', Width: 1, Style: style})
}

// FillRow paints row y with blanks in style.
func (c Canvas) FillRow(y int, style core.Style) {
	if y < 0 || y >= c.Height() {
		return
	}
	c.b.Fill(core.Rect(c.rect.Left, c.rect.Top+y, c.Width(), 1), core.Cell{Rune: ' ', Width: 1, Style: style})
}

// Text draws s starting at (x, y) and returns the column after the last
// cell drawn. A wide rune that would straddle the right edge is replaced
// by a blank.
func (c Canvas) Text(x, y int, s string, style core.Style) int {
	if y < 0 || y >= c.Height() {
		return x
	}
	for _, r := range s {
		if x >= c.Width() {
			break
		}
		w := core.RuneWidth(r)
		if w == 0 {
			if r >= ' ' && r != 0x7f {
				continue // combining marks have no cell of their own
			}
			r, w = '?', 1
		}
		if x+w > c.Width() {
			c.Set(x, y, core.Cell{Rune: ' ', Width: 1, Style: style})
			return c.Width()
		}
		c.Set(x, y, core.Cell{Rune: r, Width: w, Style: style})
		for i := 1; i < w; i++ {
			c.Set(x+i, y, core.Cell{Width: 0, Style: style})
		}
		x += w
	}
	return x
}

// TextRight draws s so that it ends at the right edge of row y and
// returns the column where it starts.
func (c Canvas) TextRight(y int, s string, style core.Style) int {
	x := max(0, c.Width()-core.StringWidth(s))
	c.Text(x, y, s, style)
	return x
}

// ShowCursor places the host cursor at (x, y) when it lies inside the
// canvas, and hides it otherwise.
func (c Canvas) ShowCursor(x, y int) {
	if x < 0 || y < 0 || x >= c.Width() || y >= c.Height() {
		c.b.HideCursor()
		return
	}
	c.b.ShowCursor(c.rect.Left+x, c.rect.Top+y)
}
