package terminal

import (
	"errors"
	"sync"
	"testing"
)

func TestEmulatorFeedAndSnapshot(t *testing.T) {
	e := New(3, 10)
	e.Feed([]byte("\x1b[2J\x1b[Hhello\r\nworld"))

	snap := e.Snapshot()
	if snap.Rows != 3 || snap.Cols != 10 {
		t.Errorf("snapshot size = %dx%d, want 3x10", snap.Rows, snap.Cols)
	}
	if got := snap.Line(0); got != "hello" {
		t.Errorf("line 0 = %q", got)
	}
	if got := snap.Text(); got != "hello\nworld" {
		t.Errorf("text = %q", got)
	}
	if snap.CursorRow != 1 || snap.CursorCol != 5 {
		t.Errorf("cursor = (%d,%d), want (1,5)", snap.CursorRow, snap.CursorCol)
	}
	if !snap.CursorVisible {
		t.Error("cursor should be visible")
	}
}

func TestEmulatorSnapshotIsACopy(t *testing.T) {
	e := New(2, 5)
	e.Feed([]byte("abc"))
	snap := e.Snapshot()

	e.Feed([]byte("\x1b[2J"))
	if got := snap.Line(0); got != "abc" {
		t.Errorf("snapshot changed after feed: %q", got)
	}
}

func TestEmulatorClearAndHomeFromAnyState(t *testing.T) {
	e := New(4, 8)
	e.Feed([]byte("\x1b[31mjunk\x1b[3;3Hmore\x1b[?7l" + "0123456789"))
	e.Feed([]byte("\x1b[2J\x1b[H"))

	snap := e.Snapshot()
	if got := snap.Text(); got != "" {
		t.Errorf("text = %q, want empty", got)
	}
	if snap.CursorRow != 0 || snap.CursorCol != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", snap.CursorRow, snap.CursorCol)
	}
}

func TestEmulatorResize(t *testing.T) {
	e := New(4, 10)
	e.Feed([]byte("abcdefghij\r\n\r\n\r\nlast"))

	if err := e.Resize(2, 4); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if rows, cols := e.Size(); rows != 2 || cols != 4 {
		t.Errorf("size = %dx%d, want 2x4", rows, cols)
	}
	snap := e.Snapshot()
	if got := snap.Line(0); got != "abcd" {
		t.Errorf("line 0 = %q", got)
	}
	if snap.CursorRow >= 2 || snap.CursorCol >= 4 {
		t.Errorf("cursor (%d,%d) outside grid", snap.CursorRow, snap.CursorCol)
	}

	if err := e.Resize(4, 10); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	snap = e.Snapshot()
	if got := snap.Line(0); got != "abcd" {
		t.Errorf("clipped content came back: %q", got)
	}
	if got := snap.Line(3); got != "" {
		t.Errorf("line 3 = %q, want empty", got)
	}
}

func TestEmulatorResizeInvalid(t *testing.T) {
	e := New(4, 10)
	for _, size := range [][2]int{{0, 10}, {4, 0}, {-1, -1}} {
		if err := e.Resize(size[0], size[1]); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Resize(%d,%d) = %v, want ErrInvalidSize", size[0], size[1], err)
		}
	}
	if rows, cols := e.Size(); rows != 4 || cols != 10 {
		t.Errorf("size changed to %dx%d", rows, cols)
	}
}

func TestEmulatorTitleAndCwd(t *testing.T) {
	e := New(2, 20)
	e.Feed([]byte("\x1b]0;my shell\x07"))
	e.Feed([]byte("\x1b]7;file://host/home/user%20dir\x1b\\"))

	if got := e.Title(); got != "my shell" {
		t.Errorf("title = %q", got)
	}
	if got := e.Snapshot().Title; got != "my shell" {
		t.Errorf("snapshot title = %q", got)
	}
	if got := e.WorkingDirectory(); got != "/home/user dir" {
		t.Errorf("cwd = %q", got)
	}

	e.Feed([]byte("\x1b]7;/plain/path\x07"))
	if got := e.WorkingDirectory(); got != "/plain/path" {
		t.Errorf("cwd = %q", got)
	}
}

func TestEmulatorModes(t *testing.T) {
	e := New(3, 10)
	if e.AppCursorKeys() || e.BracketedPaste() || e.AltScreen() {
		t.Fatal("modes should start off")
	}

	e.Feed([]byte("\x1b[?1h\x1b[?2004h\x1b[?1049h"))
	if !e.AppCursorKeys() || !e.BracketedPaste() || !e.AltScreen() {
		t.Error("modes should be on")
	}
	if !e.Snapshot().AltScreen {
		t.Error("snapshot should report the alt screen")
	}

	e.Feed([]byte("\x1b[?1049l\x1b[?1l"))
	if e.AppCursorKeys() || e.AltScreen() {
		t.Error("modes should be off")
	}
}

func TestEmulatorResponder(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	var e *Emulator
	e = New(24, 80, WithResponder(func(b []byte) {
		// replies are sent outside the lock, so reading state here is safe
		_ = e.Title()
		mu.Lock()
		replies = append(replies, string(b))
		mu.Unlock()
	}))

	e.Feed([]byte("\x1b[10;20H\x1b[6n"))

	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "\x1b[10;20R" {
		t.Errorf("replies = %q", replies)
	}
}

func TestEmulatorUnknownHandler(t *testing.T) {
	var seen []string
	e := New(2, 10, WithUnknownHandler(func(s string) { seen = append(seen, s) }))
	e.Feed([]byte("a\x1b[3zb\x1b]99;x\x07"))

	if got := e.Snapshot().Line(0); got != "ab" {
		t.Errorf("line 0 = %q", got)
	}
	if len(seen) != 2 {
		t.Errorf("unknown sequences = %q, want 2", seen)
	}
}

func TestEmulatorScrollback(t *testing.T) {
	e := New(2, 10, WithScrollback(2))
	e.Feed([]byte("1\r\n2\r\n3\r\n4\r\n5"))

	lines := e.Scrollback()
	if len(lines) != 2 {
		t.Fatalf("scrollback = %d lines, want 2", len(lines))
	}
	if got := lines[1].String(); got[:1] != "3" {
		t.Errorf("newest scrollback line = %q", got)
	}

	e.Feed([]byte("\x1b[3J"))
	if n := len(e.Scrollback()); n != 0 {
		t.Errorf("scrollback after ED 3 = %d lines", n)
	}
}

func TestEmulatorScrollbackDefaultDiscards(t *testing.T) {
	e := New(2, 10)
	e.Feed([]byte("1\r\n2\r\n3\r\n4"))
	if n := len(e.Scrollback()); n != 0 {
		t.Errorf("scrollback = %d lines, want 0", n)
	}
}

func TestEmulatorReset(t *testing.T) {
	e := New(2, 10)
	e.Feed([]byte("\x1b]0;t\x07abc\x1b[?2004h\x1b[31"))
	e.Reset()

	if e.Title() != "" || e.BracketedPaste() {
		t.Error("reset should clear title and modes")
	}
	// a half-read sequence must not survive the reset
	e.Feed([]byte("mX"))
	if got := e.Snapshot().Line(0); got != "mX" {
		t.Errorf("line 0 = %q", got)
	}
}

func TestEmulatorClearKeepsModes(t *testing.T) {
	e := New(2, 10, WithScrollback(5))
	e.Feed([]byte("\x1b]0;t\x07\x1b[?2004h1\r\n2\r\n3\r\n4"))
	e.Clear()

	snap := e.Snapshot()
	if snap.Line(0) != "" || snap.Line(1) != "" {
		t.Errorf("screen after clear = %q / %q", snap.Line(0), snap.Line(1))
	}
	if snap.CursorRow != 0 || snap.CursorCol != 0 {
		t.Errorf("cursor = %d,%d, want home", snap.CursorRow, snap.CursorCol)
	}
	if n := len(e.Scrollback()); n != 0 {
		t.Errorf("scrollback after clear = %d lines", n)
	}
	if e.Title() != "t" || !e.BracketedPaste() {
		t.Error("clear should keep title and modes")
	}
	e.Feed([]byte("ok"))
	if got := e.Snapshot().Line(0); got != "ok" {
		t.Errorf("line 0 = %q", got)
	}
}

func TestEmulatorConcurrentSnapshot(t *testing.T) {
	e := New(10, 40)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			e.Feed([]byte("\x1b[31mtext\x1b[0m\r\n"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := e.Snapshot()
			if len(snap.Cells) != snap.Rows {
				t.Errorf("snapshot rows = %d, cells = %d", snap.Rows, len(snap.Cells))
				return
			}
		}
	}()
	wg.Wait()
}
