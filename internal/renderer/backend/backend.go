// Package backend abstracts the display surface the renderer draws on.
//
// Terminal drives a real terminal through tcell. NullBackend keeps cells
// in memory so rendering and event handling can be tested headless.
package backend

import (
	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/renderer/core"
)

// CursorStyle defines how the cursor appears.
type CursorStyle int

const (
	CursorBlock CursorStyle = iota
	CursorUnderline
	CursorBar
)

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventPaste
	EventFocus
	// EventClosed is returned once the backend has shut down.
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventResize:
		return "resize"
	case EventPaste:
		return "paste"
	case EventFocus:
		return "focus"
	case EventClosed:
		return "closed"
	default:
		return "none"
	}
}

// Event is an input event from the host terminal.
type Event struct {
	Type EventType

	// Key is set for EventKey.
	Key key.Event

	// Width and Height are set for EventResize.
	Width, Height int

	// Text is the complete pasted text for EventPaste.
	Text string

	// Focused is set for EventFocus.
	Focused bool
}

// Backend is the drawing surface and input source.
type Backend interface {
	// Init takes over the display. Must be called before any other method.
	Init() error

	// Shutdown restores the display. PollEvent returns EventClosed after.
	Shutdown()

	Size() (width, height int)

	// SetCell sets a single cell. Positions outside the screen are ignored.
	SetCell(x, y int, cell core.Cell)

	Fill(rect core.ScreenRect, cell core.Cell)
	Clear()

	// Show flushes changed cells to the display.
	Show()

	// Sync redraws the whole display, e.g. after a resize.
	Sync()

	ShowCursor(x, y int)
	HideCursor()
	SetCursorStyle(style CursorStyle)

	// PollEvent blocks until the next event.
	PollEvent() Event

	// PostEvent queues a synthetic event.
	PostEvent(event Event)

	HasTrueColor() bool
	Beep()
}
