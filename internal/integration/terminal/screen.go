package terminal

import (
	"golang.org/x/text/width"
)

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // Use default fg/bg
}

// DefaultColor selects the host terminal's default foreground or background.
var DefaultColor = Color{Default: true, Index: -1}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = Color{Index: 0, R: 0, G: 0, B: 0}
	ColorRed           = Color{Index: 1, R: 205, G: 0, B: 0}
	ColorGreen         = Color{Index: 2, R: 0, G: 205, B: 0}
	ColorYellow        = Color{Index: 3, R: 205, G: 205, B: 0}
	ColorBlue          = Color{Index: 4, R: 0, G: 0, B: 238}
	ColorMagenta       = Color{Index: 5, R: 205, G: 0, B: 205}
	ColorCyan          = Color{Index: 6, R: 0, G: 205, B: 205}
	ColorWhite         = Color{Index: 7, R: 229, G: 229, B: 229}
	ColorBrightBlack   = Color{Index: 8, R: 127, G: 127, B: 127}
	ColorBrightRed     = Color{Index: 9, R: 255, G: 0, B: 0}
	ColorBrightGreen   = Color{Index: 10, R: 0, G: 255, B: 0}
	ColorBrightYellow  = Color{Index: 11, R: 255, G: 255, B: 0}
	ColorBrightBlue    = Color{Index: 12, R: 92, G: 92, B: 255}
	ColorBrightMagenta = Color{Index: 13, R: 255, G: 0, B: 255}
	ColorBrightCyan    = Color{Index: 14, R: 0, G: 255, B: 255}
	ColorBrightWhite   = Color{Index: 15, R: 255, G: 255, B: 255}
)

var ansiColors = [16]Color{
	ColorBlack, ColorRed, ColorGreen, ColorYellow,
	ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
	ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
	ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
}

// ColorFromIndex returns a color from a 256-color index.
func ColorFromIndex(index int) Color {
	if index < 0 || index > 255 {
		return DefaultColor
	}
	if index < 16 {
		return ansiColors[index]
	}

	// 216-color cube (indices 16-231)
	if index < 232 {
		i := index - 16
		return Color{
			R:     cubeLevel(i / 36),
			G:     cubeLevel((i / 6) % 6),
			B:     cubeLevel(i % 6),
			Index: index,
		}
	}

	// Grayscale ramp (indices 232-255)
	gray := uint8((index-232)*10 + 8)
	return Color{R: gray, G: gray, B: gray, Index: index}
}

func cubeLevel(v int) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(55 + v*40)
}

// ColorFromRGB creates a 24-bit color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// IsRGB reports whether c is a direct 24-bit color.
func (c Color) IsRGB() bool {
	return !c.Default && c.Index < 0
}

// CellAttributes represents text attributes for a cell.
type CellAttributes uint16

const (
	AttrNone      CellAttributes = 0
	AttrBold      CellAttributes = 1 << 0
	AttrDim       CellAttributes = 1 << 1
	AttrItalic    CellAttributes = 1 << 2
	AttrUnderline CellAttributes = 1 << 3
	AttrBlink     CellAttributes = 1 << 4
	AttrReverse   CellAttributes = 1 << 5
	AttrHidden    CellAttributes = 1 << 6
	AttrStrike    CellAttributes = 1 << 7
)

// Has returns true if the attribute is set.
func (a CellAttributes) Has(attr CellAttributes) bool {
	return a&attr != 0
}

// Cell represents a single character cell in the terminal.
// The right half of a wide character is a continuation cell with Width 0.
type Cell struct {
	Rune       rune
	Width      int
	Foreground Color
	Background Color
	Attributes CellAttributes
}

// EmptyCell returns a blank cell with default colors.
func EmptyCell() Cell {
	return Cell{
		Rune:       ' ',
		Width:      1,
		Foreground: DefaultColor,
		Background: DefaultColor,
	}
}

// IsContinuation reports whether c is the trailing half of a wide rune.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

// Line represents a single line in the terminal.
type Line struct {
	Cells   []Cell
	Wrapped bool // True if this line wraps to the next
}

// NewLine creates a blank line with the given width.
func NewLine(width int) *Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = EmptyCell()
	}
	return &Line{Cells: cells}
}

// Clear blanks the whole line.
func (l *Line) Clear() {
	l.ClearRange(0, len(l.Cells))
	l.Wrapped = false
}

// ClearRange blanks cells in [start, end).
func (l *Line) ClearRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}
	for i := start; i < end; i++ {
		l.Cells[i] = EmptyCell()
	}
}

func (l *Line) clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}

// String returns the line's text, skipping continuation cells.
func (l Line) String() string {
	runes := make([]rune, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c.IsContinuation() {
			continue
		}
		runes = append(runes, c.Rune)
	}
	return string(runes)
}

// CursorStyle represents the cursor appearance.
type CursorStyle int

const (
	CursorBlock CursorStyle = iota
	CursorUnderline
	CursorBar
)

type savedCursor struct {
	x, y       int
	fg, bg     Color
	attrs      CellAttributes
	originMode bool
}

// Screen is the cell grid mutated by the parser. It is not safe for
// concurrent use; Emulator serializes access.
type Screen struct {
	width  int
	height int
	lines  []*Line

	// inactive buffer while the other one is shown
	other     []*Line
	altActive bool

	// Cursor position (0-indexed). cursorX == width means a wrap is pending.
	cursorX int
	cursorY int

	cursorVisible bool
	cursorStyle   CursorStyle

	// Scroll region, inclusive
	scrollTop    int
	scrollBottom int

	// Pen for new characters
	currentFg    Color
	currentBg    Color
	currentAttrs CellAttributes

	saved    savedCursor
	altSaved savedCursor

	originMode     bool
	autoWrap       bool
	appCursorKeys  bool
	bracketedPaste bool

	lastRune rune
	history  *History
}

// NewScreen creates a screen with the given dimensions and scrollback budget.
func NewScreen(cols, rows, scrollback int) *Screen {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}

	s := &Screen{
		width:   cols,
		height:  rows,
		history: NewHistory(scrollback),
	}
	s.lines = blankLines(cols, rows)
	s.Reset()
	return s
}

func blankLines(cols, rows int) []*Line {
	lines := make([]*Line, rows)
	for i := range lines {
		lines[i] = NewLine(cols)
	}
	return lines
}

// Width returns the number of columns.
func (s *Screen) Width() int { return s.width }

// Height returns the number of rows.
func (s *Screen) Height() int { return s.height }

// CursorPos returns the cursor position, clamped to the grid.
func (s *Screen) CursorPos() (x, y int) {
	x = s.cursorX
	if x >= s.width {
		x = s.width - 1
	}
	return x, s.cursorY
}

// Cell returns the cell at the given position, or an empty cell when out of
// bounds.
func (s *Screen) Cell(x, y int) Cell {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return EmptyCell()
	}
	return s.lines[y].Cells[x]
}

// SetCell stores c at the given position. Out of bounds writes are ignored.
func (s *Screen) SetCell(x, y int, c Cell) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	if c.Width == 0 && c.Rune != 0 {
		c.Width = 1
	}
	s.lines[y].Cells[x] = c
}

// CursorVisible reports whether the cursor is shown (DECTCEM).
func (s *Screen) CursorVisible() bool { return s.cursorVisible }

func runeWidth(r rune) int {
	if r < 0x20 || (r >= 0x7F && r < 0xA0) {
		return 0
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	// Combining marks occupy no cell of their own.
	if r >= 0x0300 && r <= 0x036F || r >= 0x200B && r <= 0x200F || r >= 0xFE00 && r <= 0xFE0F {
		return 0
	}
	return 1
}

// WriteRune writes r at the cursor and advances it.
func (s *Screen) WriteRune(r rune) {
	w := runeWidth(r)
	if w == 0 {
		return
	}
	if w > s.width {
		w = 1
	}

	if s.cursorX+w > s.width {
		if s.autoWrap {
			s.lines[s.cursorY].Wrapped = true
			s.cursorX = 0
			s.lineFeed()
		} else {
			s.cursorX = s.width - w
		}
	}

	line := s.lines[s.cursorY]
	// Overwriting half of a wide rune blanks the other half.
	if s.cursorX > 0 && line.Cells[s.cursorX].IsContinuation() {
		line.Cells[s.cursorX-1] = EmptyCell()
	}
	if end := s.cursorX + w; end < s.width && line.Cells[end].IsContinuation() {
		line.Cells[end] = EmptyCell()
	}

	line.Cells[s.cursorX] = Cell{
		Rune:       r,
		Width:      w,
		Foreground: s.currentFg,
		Background: s.currentBg,
		Attributes: s.currentAttrs,
	}
	if w == 2 {
		line.Cells[s.cursorX+1] = Cell{
			Rune:       0,
			Width:      0,
			Foreground: s.currentFg,
			Background: s.currentBg,
			Attributes: s.currentAttrs,
		}
	}
	s.cursorX += w
	s.lastRune = r
}

// RepeatLast writes the most recent printable rune n more times.
func (s *Screen) RepeatLast(n int) {
	if s.lastRune == 0 {
		return
	}
	if limit := s.width * s.height; n > limit {
		n = limit
	}
	for i := 0; i < n; i++ {
		s.WriteRune(s.lastRune)
	}
}

// MoveCursor moves the cursor to an absolute position, honoring origin mode.
func (s *Screen) MoveCursor(x, y int) {
	top, bottom := 0, s.height-1
	if s.originMode {
		top, bottom = s.scrollTop, s.scrollBottom
		y += top
	}
	s.cursorX = clamp(x, 0, s.width-1)
	s.cursorY = clamp(y, top, bottom)
}

// MoveCursorRelative moves the cursor by a delta without leaving the grid.
// Vertical moves stop at the scroll margins when starting inside them.
func (s *Screen) MoveCursorRelative(dx, dy int) {
	x, _ := s.CursorPos()
	y := s.cursorY + dy
	top, bottom := 0, s.height-1
	if s.cursorY >= s.scrollTop && s.cursorY <= s.scrollBottom {
		top, bottom = s.scrollTop, s.scrollBottom
	}
	s.cursorX = clamp(x+dx, 0, s.width-1)
	s.cursorY = clamp(y, top, bottom)
}

// SetColumn moves the cursor to column x on the current row.
func (s *Screen) SetColumn(x int) {
	s.cursorX = clamp(x, 0, s.width-1)
}

// SetRow moves the cursor to row y, keeping the column.
func (s *Screen) SetRow(y int) {
	x, _ := s.CursorPos()
	s.MoveCursor(x, y)
}

// CarriageReturn moves the cursor to column zero.
func (s *Screen) CarriageReturn() {
	s.cursorX = 0
}

// Backspace moves the cursor one column left.
func (s *Screen) Backspace() {
	x, _ := s.CursorPos()
	if x > 0 {
		s.cursorX = x - 1
	} else {
		s.cursorX = 0
	}
}

// Tab advances to the next tab stop (every 8 columns).
func (s *Screen) Tab() {
	x, _ := s.CursorPos()
	next := (x/8 + 1) * 8
	if next >= s.width {
		next = s.width - 1
	}
	s.cursorX = next
}

// LineFeed moves the cursor down one line, scrolling at the bottom margin.
func (s *Screen) LineFeed() {
	s.lineFeed()
}

func (s *Screen) lineFeed() {
	switch {
	case s.cursorY == s.scrollBottom:
		s.scrollUp(1)
	case s.cursorY < s.height-1:
		s.cursorY++
	}
}

// ReverseLineFeed moves the cursor up one line, scrolling at the top margin.
func (s *Screen) ReverseLineFeed() {
	switch {
	case s.cursorY == s.scrollTop:
		s.scrollDown(1)
	case s.cursorY > 0:
		s.cursorY--
	}
}

// ScrollUp scrolls the scroll region up by n lines.
func (s *Screen) ScrollUp(n int) { s.scrollUp(n) }

// ScrollDown scrolls the scroll region down by n lines.
func (s *Screen) ScrollDown(n int) { s.scrollDown(n) }

func (s *Screen) scrollUp(n int) {
	s.shiftUp(s.scrollTop, s.scrollBottom, n, s.scrollTop == 0 && !s.altActive)
}

func (s *Screen) scrollDown(n int) {
	s.shiftDown(s.scrollTop, s.scrollBottom, n)
}

// shiftUp moves rows [top, bottom] up by n, blanking the bottom rows. Rows
// leaving the top go to the scrollback when keep is set.
func (s *Screen) shiftUp(top, bottom, n int, keep bool) {
	if n <= 0 || top > bottom {
		return
	}
	if region := bottom - top + 1; n > region {
		n = region
	}

	if keep {
		for y := top; y < top+n; y++ {
			s.history.Add(s.lines[y])
		}
	}

	copy(s.lines[top:bottom+1-n], s.lines[top+n:bottom+1])
	for y := bottom - n + 1; y <= bottom; y++ {
		s.lines[y] = NewLine(s.width)
	}
}

func (s *Screen) shiftDown(top, bottom, n int) {
	if n <= 0 || top > bottom {
		return
	}
	if region := bottom - top + 1; n > region {
		n = region
	}

	copy(s.lines[top+n:bottom+1], s.lines[top:bottom+1-n])
	for y := top; y < top+n; y++ {
		s.lines[y] = NewLine(s.width)
	}
}

// SetScrollRegion sets the inclusive scroll region and homes the cursor.
// Invalid regions are ignored.
func (s *Screen) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= s.height {
		bottom = s.height - 1
	}
	if top >= bottom {
		return
	}
	s.scrollTop = top
	s.scrollBottom = bottom
	s.MoveCursor(0, 0)
}

// ScrollRegion returns the inclusive scroll region.
func (s *Screen) ScrollRegion() (top, bottom int) {
	return s.scrollTop, s.scrollBottom
}

// ClearScreen blanks every cell. The cursor does not move.
func (s *Screen) ClearScreen() {
	for _, l := range s.lines {
		l.Clear()
	}
}

// ClearScreenAbove blanks from the top of the screen through the cursor.
func (s *Screen) ClearScreenAbove() {
	x, y := s.CursorPos()
	for i := 0; i < y; i++ {
		s.lines[i].Clear()
	}
	s.lines[y].ClearRange(0, x+1)
}

// ClearScreenBelow blanks from the cursor through the end of the screen.
func (s *Screen) ClearScreenBelow() {
	x, y := s.CursorPos()
	s.lines[y].ClearRange(x, s.width)
	for i := y + 1; i < s.height; i++ {
		s.lines[i].Clear()
	}
}

// ClearLine blanks the cursor's line.
func (s *Screen) ClearLine() {
	s.lines[s.cursorY].Clear()
}

// ClearLineLeft blanks from the start of the line through the cursor.
func (s *Screen) ClearLineLeft() {
	x, y := s.CursorPos()
	s.lines[y].ClearRange(0, x+1)
}

// ClearLineRight blanks from the cursor to the end of the line.
func (s *Screen) ClearLineRight() {
	x, y := s.CursorPos()
	s.lines[y].ClearRange(x, s.width)
}

// ClearHistory drops the scrollback.
func (s *Screen) ClearHistory() {
	s.history.Clear()
}

// InsertLines inserts n blank lines at the cursor row within the region.
func (s *Screen) InsertLines(n int) {
	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}
	s.shiftDown(s.cursorY, s.scrollBottom, n)
	s.cursorX = 0
}

// DeleteLines removes n lines at the cursor row within the region.
func (s *Screen) DeleteLines(n int) {
	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}
	s.shiftUp(s.cursorY, s.scrollBottom, n, false)
	s.cursorX = 0
}

// InsertChars shifts the rest of the line right by n blanks.
func (s *Screen) InsertChars(n int) {
	x, y := s.CursorPos()
	line := s.lines[y]
	if n <= 0 {
		return
	}
	if limit := s.width - x; n > limit {
		n = limit
	}
	copy(line.Cells[x+n:], line.Cells[x:s.width-n])
	line.ClearRange(x, x+n)
}

// DeleteChars removes n cells at the cursor, shifting the rest left.
func (s *Screen) DeleteChars(n int) {
	x, y := s.CursorPos()
	line := s.lines[y]
	if n <= 0 {
		return
	}
	if limit := s.width - x; n > limit {
		n = limit
	}
	copy(line.Cells[x:], line.Cells[x+n:])
	line.ClearRange(s.width-n, s.width)
}

// EraseChars blanks n cells starting at the cursor.
func (s *Screen) EraseChars(n int) {
	x, y := s.CursorPos()
	s.lines[y].ClearRange(x, x+n)
}

// SetForeground sets the pen foreground.
func (s *Screen) SetForeground(fg Color) { s.currentFg = fg }

// SetBackground sets the pen background.
func (s *Screen) SetBackground(bg Color) { s.currentBg = bg }

// AddAttribute adds attributes to the pen.
func (s *Screen) AddAttribute(attr CellAttributes) { s.currentAttrs |= attr }

// RemoveAttribute removes attributes from the pen.
func (s *Screen) RemoveAttribute(attr CellAttributes) { s.currentAttrs &^= attr }

// ResetAttributes restores the default pen.
func (s *Screen) ResetAttributes() {
	s.currentFg = DefaultColor
	s.currentBg = DefaultColor
	s.currentAttrs = AttrNone
}

// SaveCursor saves the cursor position and pen (DECSC).
func (s *Screen) SaveCursor() {
	s.saved = s.cursorState()
}

// RestoreCursor restores the state saved by SaveCursor (DECRC).
func (s *Screen) RestoreCursor() {
	s.restoreCursorState(s.saved)
}

func (s *Screen) cursorState() savedCursor {
	return savedCursor{
		x: s.cursorX, y: s.cursorY,
		fg: s.currentFg, bg: s.currentBg, attrs: s.currentAttrs,
		originMode: s.originMode,
	}
}

func (s *Screen) restoreCursorState(c savedCursor) {
	s.cursorX = clamp(c.x, 0, s.width-1)
	s.cursorY = clamp(c.y, 0, s.height-1)
	s.currentFg = c.fg
	s.currentBg = c.bg
	s.currentAttrs = c.attrs
	s.originMode = c.originMode
}

// SetCursorVisible sets cursor visibility (DECTCEM).
func (s *Screen) SetCursorVisible(visible bool) { s.cursorVisible = visible }

// SetCursorStyle sets the cursor shape (DECSCUSR).
func (s *Screen) SetCursorStyle(style CursorStyle) { s.cursorStyle = style }

// SetOriginMode sets origin mode and homes the cursor (DECOM).
func (s *Screen) SetOriginMode(enabled bool) {
	s.originMode = enabled
	s.MoveCursor(0, 0)
}

// SetAutoWrap sets auto-wrap mode (DECAWM).
func (s *Screen) SetAutoWrap(enabled bool) { s.autoWrap = enabled }

// SetAppCursorKeys sets application cursor key mode (DECCKM).
func (s *Screen) SetAppCursorKeys(enabled bool) { s.appCursorKeys = enabled }

// SetBracketedPaste sets bracketed paste mode.
func (s *Screen) SetBracketedPaste(enabled bool) { s.bracketedPaste = enabled }

// EnterAltScreen switches to the alternate buffer. With saveCursor the
// primary cursor is saved first (mode 1049).
func (s *Screen) EnterAltScreen(saveCursor bool) {
	if s.altActive {
		return
	}
	if saveCursor {
		s.altSaved = s.cursorState()
	}
	s.lines, s.other = blankLines(s.width, s.height), s.lines
	s.altActive = true
}

// ExitAltScreen returns to the primary buffer, discarding the alternate one.
func (s *Screen) ExitAltScreen(restoreCursor bool) {
	if !s.altActive {
		return
	}
	s.lines, s.other = s.other, nil
	s.altActive = false
	if restoreCursor {
		s.restoreCursorState(s.altSaved)
	}
}

// Resize reallocates the grid. Content inside the overlap is kept; the rest
// is discarded and never re-wrapped.
func (s *Screen) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	s.lines = resizeLines(s.lines, cols, rows)
	if s.other != nil {
		s.other = resizeLines(s.other, cols, rows)
	}
	s.width = cols
	s.height = rows

	s.scrollTop = 0
	s.scrollBottom = rows - 1

	s.cursorX = clamp(s.cursorX, 0, cols-1)
	s.cursorY = clamp(s.cursorY, 0, rows-1)
	s.saved.x = clamp(s.saved.x, 0, cols-1)
	s.saved.y = clamp(s.saved.y, 0, rows-1)
	s.altSaved.x = clamp(s.altSaved.x, 0, cols-1)
	s.altSaved.y = clamp(s.altSaved.y, 0, rows-1)
}

func resizeLines(old []*Line, cols, rows int) []*Line {
	lines := make([]*Line, rows)
	for y := range lines {
		lines[y] = NewLine(cols)
		if y >= len(old) || old[y] == nil {
			continue
		}
		n := copy(lines[y].Cells, old[y].Cells)
		// A wide rune cut in half at the new edge becomes a blank.
		if n > 0 && n == cols && lines[y].Cells[n-1].Width == 2 {
			lines[y].Cells[n-1] = EmptyCell()
		}
	}
	return lines
}

// Reset restores the power-on state (RIS) without touching the scrollback.
func (s *Screen) Reset() {
	if s.altActive {
		s.lines, s.other = s.other, nil
		s.altActive = false
	}
	s.ClearScreen()
	s.cursorX = 0
	s.cursorY = 0
	s.cursorVisible = true
	s.cursorStyle = CursorBlock
	s.scrollTop = 0
	s.scrollBottom = s.height - 1
	s.ResetAttributes()
	s.saved = s.cursorState()
	s.altSaved = s.saved
	s.originMode = false
	s.autoWrap = true
	s.appCursorKeys = false
	s.bracketedPaste = false
	s.lastRune = 0
}

// GetText returns the screen text, rows joined by newlines.
func (s *Screen) GetText() string {
	var out []rune
	for y, l := range s.lines {
		out = append(out, []rune(l.String())...)
		if y < len(s.lines)-1 {
			out = append(out, '\n')
		}
	}
	return string(out)
}

// GetTextRange returns the text between two inclusive positions.
func (s *Screen) GetTextRange(startX, startY, endX, endY int) string {
	var out []rune
	for y := startY; y <= endY && y < s.height; y++ {
		sx, ex := 0, s.width-1
		if y == startY {
			sx = startX
		}
		if y == endY {
			ex = endX
		}
		for x := sx; x <= ex && x < s.width; x++ {
			if c := s.lines[y].Cells[x]; !c.IsContinuation() {
				out = append(out, c.Rune)
			}
		}
		if y < endY {
			out = append(out, '\n')
		}
	}
	return string(out)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
