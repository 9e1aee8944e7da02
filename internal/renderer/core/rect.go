package core

// ScreenRect is a half-open rectangle of cells: Top and Left inclusive,
// Bottom and Right exclusive.
type ScreenRect struct {
	Top, Left, Bottom, Right int
}

// Rect builds a rectangle from an origin and size.
func Rect(x, y, width, height int) ScreenRect {
	return ScreenRect{Top: y, Left: x, Bottom: y + height, Right: x + width}
}

// Width returns the number of columns.
func (r ScreenRect) Width() int {
	if r.Right < r.Left {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the number of rows.
func (r ScreenRect) Height() int {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Empty reports whether the rectangle has no cells.
func (r ScreenRect) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Contains reports whether (x, y) lies inside r.
func (r ScreenRect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// SplitTop returns the first n rows and the remainder.
func (r ScreenRect) SplitTop(n int) (top, rest ScreenRect) {
	n = max(0, min(n, r.Height()))
	top, rest = r, r
	top.Bottom = r.Top + n
	rest.Top = top.Bottom
	return top, rest
}

// SplitBottom returns the remainder and the last n rows.
func (r ScreenRect) SplitBottom(n int) (rest, bottom ScreenRect) {
	n = max(0, min(n, r.Height()))
	rest, bottom = r, r
	bottom.Top = r.Bottom - n
	rest.Bottom = bottom.Top
	return rest, bottom
}

// SplitLeft returns the first n columns and the remainder.
func (r ScreenRect) SplitLeft(n int) (left, rest ScreenRect) {
	n = max(0, min(n, r.Width()))
	left, rest = r, r
	left.Right = r.Left + n
	rest.Left = left.Right
	return left, rest
}
