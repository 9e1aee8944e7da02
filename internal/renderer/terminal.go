package renderer

import (
	"github.com/dshills/shellpane/internal/integration/terminal"
	"github.com/dshills/shellpane/internal/renderer/core"
)

// DrawSnapshot paints an emulator snapshot at the canvas origin and places
// the cursor when focused is set. Rows and columns beyond the canvas are
// clipped.
func DrawSnapshot(c Canvas, snap terminal.Snapshot, base core.Style, focused bool) {
	c.Fill(base)
	for y, row := range snap.Cells {
		if y >= c.Height() {
			break
		}
		for x, tc := range row {
			if x >= c.Width() {
				break
			}
			c.Set(x, y, convertCell(tc, base))
		}
	}
	if focused && snap.CursorVisible {
		c.ShowCursor(snap.CursorCol, snap.CursorRow)
	}
}

// DrawScrollback draws the screen scrolled back offset lines into the
// history, oldest history line first. The cursor is not shown.
func DrawScrollback(c Canvas, history []terminal.Line, snap terminal.Snapshot, offset int, base core.Style) {
	c.Fill(base)
	offset = min(max(offset, 0), len(history))
	start := len(history) - offset
	for y := 0; y < c.Height(); y++ {
		var row []terminal.Cell
		switch i := start + y; {
		case i < len(history):
			row = history[i].Cells
		case i-len(history) < len(snap.Cells):
			row = snap.Cells[i-len(history)]
		default:
			return
		}
		for x, tc := range row {
			if x >= c.Width() {
				break
			}
			c.Set(x, y, convertCell(tc, base))
		}
	}
}

func convertCell(tc terminal.Cell, base core.Style) core.Cell {
	style := core.Style{
		Foreground: convertColor(tc.Foreground, base.Foreground),
		Background: convertColor(tc.Background, base.Background),
	}
	a := tc.Attributes
	if a.Has(terminal.AttrBold) {
		style.Attributes |= core.AttrBold
	}
	if a.Has(terminal.AttrDim) {
		style.Attributes |= core.AttrDim
	}
	if a.Has(terminal.AttrItalic) {
		style.Attributes |= core.AttrItalic
	}
	if a.Has(terminal.AttrUnderline) {
		style.Attributes |= core.AttrUnderline
	}
	if a.Has(terminal.AttrBlink) {
		style.Attributes |= core.AttrBlink
	}
	if a.Has(terminal.AttrReverse) {
		style.Attributes |= core.AttrReverse
	}
	if a.Has(terminal.AttrStrike) {
		style.Attributes |= core.AttrStrikethrough
	}

	r := tc.Rune
	if a.Has(terminal.AttrHidden) || r == 0 {
		r = ' '
	}
	if tc.IsContinuation() {
		return core.Cell{Width: 0, Style: style}
	}
	return core.Cell{Rune: r, Width: max(tc.Width, 1), Style: style}
}

func convertColor(c terminal.Color, def core.Color) core.Color {
	switch {
	case c.Default:
		return def
	case c.Index >= 0:
		return core.ColorFromIndex(uint8(c.Index))
	default:
		return core.ColorFromRGB(c.R, c.G, c.B)
	}
}
