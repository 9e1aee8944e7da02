package terminal

import (
	"net/url"
	"strings"
	"sync"
)

// Emulator owns a Screen and Parser and serializes access to them. Feed is
// called by the render loop; Snapshot may be called from anywhere.
type Emulator struct {
	mu     sync.Mutex
	screen *Screen
	parser *Parser

	title string
	cwd   string

	// replies produced while parsing, sent after the lock is released
	pending   [][]byte
	responder func([]byte)
	unknown   func(string)
}

// Option configures an Emulator.
type Option func(*emulatorOptions)

type emulatorOptions struct {
	scrollback int
	responder  func([]byte)
	unknown    func(string)
}

// WithScrollback keeps up to n lines that scroll off the top of the
// primary screen. The default keeps none.
func WithScrollback(n int) Option {
	return func(o *emulatorOptions) { o.scrollback = n }
}

// WithResponder sets where device status replies are written, normally the
// PTY session.
func WithResponder(fn func([]byte)) Option {
	return func(o *emulatorOptions) { o.responder = fn }
}

// WithUnknownHandler sets a callback invoked with a description of every
// sequence the emulator ignores.
func WithUnknownHandler(fn func(string)) Option {
	return func(o *emulatorOptions) { o.unknown = fn }
}

// New creates an emulator with a blank rows x cols screen.
func New(rows, cols int, opts ...Option) *Emulator {
	var o emulatorOptions
	for _, opt := range opts {
		opt(&o)
	}

	e := &Emulator{
		screen:    NewScreen(cols, rows, o.scrollback),
		responder: o.responder,
		unknown:   o.unknown,
	}
	e.parser = e.newParser()
	return e
}

// Feed applies a chunk of shell output to the screen.
func (e *Emulator) Feed(data []byte) {
	e.mu.Lock()
	e.parser.Parse(data)
	replies := e.pending
	e.pending = nil
	e.mu.Unlock()

	if e.responder == nil {
		return
	}
	for _, r := range replies {
		e.responder(r)
	}
}

// Resize changes the grid dimensions. Content outside the new bounds is
// dropped and does not come back when the screen grows again.
func (e *Emulator) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return ErrInvalidSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.screen.Resize(cols, rows)
	return nil
}

// Size returns the current dimensions.
func (e *Emulator) Size() (rows, cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.Height(), e.screen.Width()
}

// Title returns the last title set with OSC 0 or 2.
func (e *Emulator) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

// WorkingDirectory returns the directory last reported with OSC 7, or "".
func (e *Emulator) WorkingDirectory() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cwd
}

// AppCursorKeys reports whether the application requested DECCKM cursor keys.
func (e *Emulator) AppCursorKeys() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.appCursorKeys
}

// BracketedPaste reports whether bracketed paste mode is on.
func (e *Emulator) BracketedPaste() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.bracketedPaste
}

// AltScreen reports whether the alternate buffer is shown.
func (e *Emulator) AltScreen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.altActive
}

// Scrollback returns copies of the retained history lines, oldest first.
func (e *Emulator) Scrollback() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.history.Lines()
}

// Reset returns the emulator to its power-on state, keeping its size.
func (e *Emulator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.screen.Reset()
	e.screen.ClearScreen()
	e.screen.ClearHistory()
	e.parser = e.newParser()
	e.title = ""
	e.cwd = ""
}

// Clear blanks the screen and drops the scrollback. Modes, the title and
// the working directory are kept. The cursor moves home.
func (e *Emulator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.screen.ClearScreen()
	e.screen.ClearHistory()
	e.screen.MoveCursor(0, 0)
}

func (e *Emulator) newParser() *Parser {
	p := NewParser(e.screen)
	p.SetTitleCallback(func(title string) { e.title = title })
	p.SetOSCCallback(e.handleOSC)
	p.SetReplyCallback(func(b []byte) { e.pending = append(e.pending, b) })
	p.SetUnknownCallback(func(seq string) {
		if e.unknown != nil {
			e.unknown(seq)
		}
	})
	return p
}

func (e *Emulator) handleOSC(cmd int, data string) {
	switch cmd {
	case 7:
		e.cwd = parseCwd(data)
	default:
		if e.unknown != nil {
			e.unknown("OSC " + data)
		}
	}
}

// parseCwd extracts the path from an OSC 7 payload, which is normally a
// file:// URL but is sometimes a bare path.
func parseCwd(data string) string {
	if !strings.HasPrefix(data, "file://") {
		return data
	}
	u, err := url.Parse(data)
	if err != nil {
		return ""
	}
	return u.Path
}

// Snapshot is an immutable copy of the visible screen.
type Snapshot struct {
	Rows          int
	Cols          int
	Cells         [][]Cell
	CursorRow     int
	CursorCol     int
	CursorVisible bool
	CursorStyle   CursorStyle
	Title         string
	AltScreen     bool
}

// Snapshot copies the visible grid and cursor state.
func (e *Emulator) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.screen
	cells := make([][]Cell, s.height)
	for y, line := range s.lines {
		row := make([]Cell, len(line.Cells))
		copy(row, line.Cells)
		cells[y] = row
	}
	x, y := s.CursorPos()
	return Snapshot{
		Rows:          s.height,
		Cols:          s.width,
		Cells:         cells,
		CursorRow:     y,
		CursorCol:     x,
		CursorVisible: s.cursorVisible,
		CursorStyle:   s.cursorStyle,
		Title:         e.title,
		AltScreen:     s.altActive,
	}
}

// Line returns row as text with trailing blanks removed.
func (s Snapshot) Line(row int) string {
	if row < 0 || row >= len(s.Cells) {
		return ""
	}
	var b strings.Builder
	for _, c := range s.Cells[row] {
		if c.IsContinuation() {
			continue
		}
		if c.Rune == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c.Rune)
	}
	return strings.TrimRight(b.String(), " ")
}

// Text returns every row joined by newlines, trailing empty rows removed.
func (s Snapshot) Text() string {
	lines := make([]string, s.Rows)
	for i := range lines {
		lines[i] = s.Line(i)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
