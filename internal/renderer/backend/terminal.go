package backend

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/shellpane/internal/renderer/core"
)

// Terminal implements Backend using tcell for terminal output.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
}

var _ Backend = (*Terminal)(nil)

// NewTerminal creates a backend on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing screen, such as a tcell
// simulation screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnablePaste()
	t.screen.EnableFocus()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, cell core.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, cell.Rune, nil, convertStyle(cell.Style))
}

func (t *Terminal) Fill(rect core.ScreenRect, cell core.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	style := convertStyle(cell.Style)
	width, height := t.screen.Size()
	for y := max(rect.Top, 0); y < rect.Bottom && y < height; y++ {
		for x := max(rect.Left, 0); x < rect.Right && x < width; x++ {
			t.screen.SetContent(x, y, cell.Rune, nil, style)
		}
	}
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

func (t *Terminal) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Sync()
}

func (t *Terminal) ShowCursor(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.ShowCursor(x, y)
}

func (t *Terminal) HideCursor() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.HideCursor()
}

func (t *Terminal) SetCursorStyle(style CursorStyle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cs tcell.CursorStyle
	switch style {
	case CursorUnderline:
		cs = tcell.CursorStyleSteadyUnderline
	case CursorBar:
		cs = tcell.CursorStyleSteadyBar
	default:
		cs = tcell.CursorStyleSteadyBlock
	}
	t.screen.SetCursorStyle(cs)
}

// PollEvent returns the next event. Keys that arrive between the start and
// end of a bracketed paste are collected into a single EventPaste.
func (t *Terminal) PollEvent() Event {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{Type: EventClosed}
		}
		if p, ok := ev.(*tcell.EventPaste); ok && p.Start() {
			return t.collectPaste()
		}
		if out := convertEvent(ev); out.Type != EventNone {
			return out
		}
	}
}

func (t *Terminal) collectPaste() Event {
	var sb strings.Builder
	for {
		ev := t.screen.PollEvent()
		switch e := ev.(type) {
		case nil:
			return Event{Type: EventClosed}
		case *tcell.EventPaste:
			if e.End() {
				return Event{Type: EventPaste, Text: sb.String()}
			}
		case *tcell.EventKey:
			switch e.Key() {
			case tcell.KeyRune:
				sb.WriteRune(e.Rune())
			case tcell.KeyEnter, tcell.KeyCtrlJ:
				sb.WriteByte('\n')
			case tcell.KeyTab:
				sb.WriteByte('\t')
			}
		}
	}
}

// PostEvent queues a synthetic key, resize or focus event.
func (t *Terminal) PostEvent(event Event) {
	var ev tcell.Event
	switch event.Type {
	case EventKey:
		ev = toTcellKey(event.Key)
	case EventResize:
		ev = tcell.NewEventResize(event.Width, event.Height)
	case EventFocus:
		ev = tcell.NewEventFocus(event.Focused)
	default:
		return
	}
	_ = t.screen.PostEvent(ev) // queue may be full
}

func (t *Terminal) HasTrueColor() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Colors() > 256
}

func (t *Terminal) Beep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.screen.Beep()
}
