package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/shellpane/internal/config"
	"github.com/dshills/shellpane/internal/input"
)

func sameDir(t *testing.T, a, b string) bool {
	t.Helper()
	sa, err := os.Stat(a)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := os.Stat(b)
	if err != nil {
		t.Fatal(err)
	}
	return os.SameFile(sa, sb)
}

// termRow is the text of a terminal content row, trailing blanks removed.
func (h *harness) termRow(y int) string {
	return strings.TrimRight(h.be.Row(1+y), " ")
}

func TestScrollbackView(t *testing.T) {
	h := newHarness(t, t.TempDir(), func(c *config.Config) { c.Shell.Scrollback = 100 })

	// 40 lines on a 22-row pane leave 18 in the scrollback
	var out []string
	for i := 0; i < 40; i++ {
		out = append(out, fmt.Sprintf("line %d", i))
	}
	h.shell().out <- []byte(strings.Join(out, "\r\n"))
	h.keys("ctrl+t")
	if row := h.termRow(0); !strings.HasSuffix(row, "line 18") {
		t.Fatalf("live row 0 = %q", row)
	}

	h.keys("shift+pgup")
	if h.app.termScroll != 18 {
		t.Fatalf("scroll = %d, want 18", h.app.termScroll)
	}
	if row := h.termRow(0); !strings.HasSuffix(row, "line 0") {
		t.Errorf("scrolled row 0 = %q", row)
	}
	if row := h.termRow(18); !strings.HasSuffix(row, "line 18") {
		t.Errorf("scrolled row 18 = %q", row)
	}
	if title := h.be.Row(0); !strings.Contains(title, "[-18]") {
		t.Errorf("title = %q", title)
	}
	if got := h.shell().input(); got != "" {
		t.Errorf("scroll keys reached the shell: %q", got)
	}

	h.keys("shift+pgdn")
	if h.app.termScroll != 0 {
		t.Errorf("scroll after page down = %d", h.app.termScroll)
	}

	// typing snaps back to the live screen
	h.keys("shift+pgup")
	h.typeText("x")
	if h.app.termScroll != 0 {
		t.Errorf("scroll after typing = %d", h.app.termScroll)
	}
	if row := h.termRow(0); !strings.HasSuffix(row, "line 18") {
		t.Errorf("row 0 after typing = %q", row)
	}
	if got := h.shell().input(); got != "x" {
		t.Errorf("shell input = %q", got)
	}
}

func TestScrollbackViewNeedsHistory(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	h.shell().out <- []byte("one\r\ntwo")
	h.keys("shift+pgup")
	if h.app.termScroll != 0 {
		t.Errorf("scroll = %d without a scrollback", h.app.termScroll)
	}
}

func TestClearTerminal(t *testing.T) {
	h := newHarness(t, t.TempDir(), func(c *config.Config) { c.Shell.Scrollback = 100 })
	h.shell().out <- []byte("a\r\nb\r\nc\r\nd\r\ne\r\nf\r\ng\r\nh\r\ni\r\nj\r\nk\r\nl\r\nm\r\nn\r\no\r\np\r\nq\r\nr\r\ns\r\nt\r\nu\r\nv\r\nw\r\nhello")
	h.keys()
	if !strings.Contains(h.be.Contents(), "hello") || len(h.app.emulator.Scrollback()) == 0 {
		t.Fatalf("setup: scrollback %d lines\n%s", len(h.app.emulator.Scrollback()), h.be.Contents())
	}

	h.keys("C")
	if strings.Contains(h.be.Contents(), "hello") {
		t.Errorf("screen not cleared:\n%s", h.be.Contents())
	}
	if n := len(h.app.emulator.Scrollback()); n != 0 {
		t.Errorf("scrollback = %d lines after clear", n)
	}
	if !h.app.shellAlive() || h.shell().input() != "" {
		t.Error("clearing should not touch the shell")
	}

	h.shell().out <- []byte("$ ")
	h.keys()
	if row := h.termRow(0); !strings.HasSuffix(row, "$") {
		t.Errorf("row 0 = %q, want output at the top", row)
	}
}

func TestToggleTerminalCollapsesPane(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)

	h.keys("T")
	if !h.app.layout.Terminal.Empty() || h.app.layout.Browser.Width() != 80 {
		t.Fatalf("layout = %+v", h.app.layout)
	}
	if h.app.router.Focus() != input.FocusBrowser {
		t.Error("hidden terminal kept focus")
	}
	if rows, cols := h.shell().size(); rows != 22 || cols != 48 {
		t.Errorf("hidden shell resized to %dx%d", rows, cols)
	}
	if h.shell().isClosed() {
		t.Error("hiding the pane closed the shell")
	}

	h.keys("T")
	if h.app.layout.Terminal.Width() != 48 {
		t.Fatalf("terminal not restored: %+v", h.app.layout)
	}

	// focusing a hidden terminal brings it back
	h.keys("T", "ctrl+t")
	if h.app.router.Focus() != input.FocusTerminal || h.app.layout.Terminal.Empty() {
		t.Errorf("focus = %s, layout = %+v", h.app.router.Focus(), h.app.layout)
	}
	if rows, cols := h.shell().size(); rows != 22 || cols != 48 {
		t.Errorf("shell size = %dx%d, want 22x48", rows, cols)
	}
}

func TestHomeAndBookmarks(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	docs := filepath.Join(home, "Documents")
	if err := os.Mkdir(docs, 0o755); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, t.TempDir(), nil)

	h.keys("~")
	if !sameDir(t, h.app.browser.Dir(), home) {
		t.Fatalf("dir = %q, want home %q", h.app.browser.Dir(), home)
	}

	h.keys("2")
	if !sameDir(t, h.app.browser.Dir(), docs) {
		t.Fatalf("dir = %q, want %q", h.app.browser.Dir(), docs)
	}
	if got := h.shell().input(); !strings.HasSuffix(got, "Documents'\n") {
		t.Errorf("shell input = %q", got)
	}

	// ~/Desktop does not exist
	h.keys("1")
	if !sameDir(t, h.app.browser.Dir(), docs) {
		t.Errorf("dir = %q after a missing bookmark", h.app.browser.Dir())
	}

	h.keys("4")
	if msg := h.message(); msg != "no such bookmark: 4" {
		t.Errorf("message = %q", msg)
	}
}

func TestBookmarkWithoutHome(t *testing.T) {
	t.Setenv("HOME", "")
	h := newHarness(t, t.TempDir(), nil)
	before := h.app.browser.Dir()
	err := h.app.runCommand(input.CmdHomeDir)
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Op != "cd" {
		t.Errorf("runCommand = %v, want a cd OperationError", err)
	}
	if h.app.browser.Dir() != before {
		t.Error("dir changed")
	}
}
