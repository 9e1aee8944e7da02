package terminal

import (
	"testing"
)

func newTestParser(cols, rows int) (*Screen, *Parser) {
	s := NewScreen(cols, rows, 0)
	return s, NewParser(s)
}

func TestParserPlainText(t *testing.T) {
	s, p := newTestParser(80, 24)
	p.ParseString("Hello")

	if got := row(s, 0); got != "Hello" {
		t.Errorf("row 0 = %q, want %q", got, "Hello")
	}
	if p.State() != StateGround {
		t.Errorf("state = %v, want ground", p.State())
	}
}

func TestParserControls(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		x, y  int
	}{
		{"crlf", "A\r\nB", []string{"A", "B"}, 1, 1},
		{"bare lf keeps column", "A\nB", []string{"A", " B"}, 2, 1},
		{"carriage return", "ABC\rX", []string{"XBC"}, 1, 0},
		{"backspace", "AB\bX", []string{"AX"}, 2, 0},
		{"tab", "A\tB", []string{"A       B"}, 9, 0},
		{"bell ignored", "A\aB", []string{"AB"}, 2, 0},
		{"vertical tab", "A\vB", []string{"A", " B"}, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(80, 24)
			p.ParseString(tt.input)
			for y, w := range tt.want {
				if got := row(s, y); got != w {
					t.Errorf("row %d = %q, want %q", y, got, w)
				}
			}
			if x, y := s.CursorPos(); x != tt.x || y != tt.y {
				t.Errorf("cursor = (%d,%d), want (%d,%d)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestParserCursorMovement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		x, y  int
	}{
		{"CUP", "\x1b[5;10H", 9, 4},
		{"CUP default", "\x1b[5;10H\x1b[H", 0, 0},
		{"HVP", "\x1b[3;4f", 3, 2},
		{"CUU", "\x1b[10;10H\x1b[3A", 9, 6},
		{"CUU default", "\x1b[10;10H\x1b[A", 9, 8},
		{"CUU zero means one", "\x1b[10;10H\x1b[0A", 9, 8},
		{"CUD", "\x1b[2B", 0, 2},
		{"CUF", "\x1b[7C", 7, 0},
		{"CUB", "\x1b[1;10H\x1b[4D", 5, 0},
		{"CNL", "\x1b[1;10H\x1b[2E", 0, 2},
		{"CPL", "\x1b[5;10H\x1b[2F", 0, 2},
		{"CHA", "\x1b[15G", 14, 0},
		{"VPA", "\x1b[1;6H\x1b[8d", 5, 7},
		{"clamped", "\x1b[999;999H", 79, 23},
		{"save restore", "\x1b[4;4H\x1b7\x1b[H\x1b8", 3, 3},
		{"save restore csi", "\x1b[4;4H\x1b[s\x1b[H\x1b[u", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(80, 24)
			p.ParseString(tt.input)
			if x, y := s.CursorPos(); x != tt.x || y != tt.y {
				t.Errorf("cursor = (%d,%d), want (%d,%d)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestParserClearAndHome(t *testing.T) {
	s, p := newTestParser(20, 5)
	p.ParseString("line one\r\nline two\r\nline three")
	p.ParseString("\x1b[2J\x1b[H")

	for y := 0; y < 5; y++ {
		if got := row(s, y); got != "" {
			t.Errorf("row %d = %q, want empty", y, got)
		}
	}
	if x, y := s.CursorPos(); x != 0 || y != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", x, y)
	}
}

func TestParserEraseInDisplay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"below", "\x1b[2;2H\x1b[J", []string{"aaa", "b", ""}},
		{"above", "\x1b[2;2H\x1b[1J", []string{"", "  b", "ccc"}},
		{"all", "\x1b[2;2H\x1b[2J", []string{"", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(3, 3)
			p.ParseString("aaabbbccc")
			p.ParseString(tt.input)
			for y, w := range tt.want {
				if got := row(s, y); got != w {
					t.Errorf("row %d = %q, want %q", y, got, w)
				}
			}
		})
	}
}

func TestParserEraseInLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"right", "\x1b[1;3H\x1b[K", "ab"},
		{"left", "\x1b[1;3H\x1b[1K", "   de"},
		{"whole", "\x1b[1;3H\x1b[2K", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(10, 1)
			p.ParseString("abcde")
			p.ParseString(tt.input)
			if got := row(s, 0); got != tt.want {
				t.Errorf("row 0 = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParserWrapAndScroll(t *testing.T) {
	s, p := newTestParser(4, 2)
	p.ParseString("abcdefghij")

	// abcd scrolled away, efgh wrapped onto row 0, ij on row 1
	if got := row(s, 0); got != "efgh" {
		t.Errorf("row 0 = %q, want %q", got, "efgh")
	}
	if got := row(s, 1); got != "ij" {
		t.Errorf("row 1 = %q, want %q", got, "ij")
	}
}

func TestParserSGR(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, c Cell)
	}{
		{"bold", "\x1b[1mX", func(t *testing.T, c Cell) {
			if !c.Attributes.Has(AttrBold) {
				t.Error("expected bold")
			}
		}},
		{"combined", "\x1b[1;3;4;7;9mX", func(t *testing.T, c Cell) {
			for _, a := range []CellAttributes{AttrBold, AttrItalic, AttrUnderline, AttrReverse, AttrStrike} {
				if !c.Attributes.Has(a) {
					t.Errorf("missing attribute %b", a)
				}
			}
		}},
		{"reset", "\x1b[1;31m\x1b[0mX", func(t *testing.T, c Cell) {
			if c.Attributes != AttrNone || !c.Foreground.Default {
				t.Errorf("expected reset pen, got %+v", c)
			}
		}},
		{"empty resets", "\x1b[4m\x1b[mX", func(t *testing.T, c Cell) {
			if c.Attributes != AttrNone {
				t.Errorf("expected no attributes, got %b", c.Attributes)
			}
		}},
		{"normal intensity", "\x1b[1;2m\x1b[22mX", func(t *testing.T, c Cell) {
			if c.Attributes.Has(AttrBold) || c.Attributes.Has(AttrDim) {
				t.Error("22 should clear bold and dim")
			}
		}},
		{"foreground", "\x1b[31mX", func(t *testing.T, c Cell) {
			if c.Foreground != ColorRed {
				t.Errorf("fg = %v, want red", c.Foreground)
			}
		}},
		{"background", "\x1b[44mX", func(t *testing.T, c Cell) {
			if c.Background != ColorBlue {
				t.Errorf("bg = %v, want blue", c.Background)
			}
		}},
		{"bright foreground", "\x1b[91mX", func(t *testing.T, c Cell) {
			if c.Foreground != ColorBrightRed {
				t.Errorf("fg = %v, want bright red", c.Foreground)
			}
		}},
		{"bright background", "\x1b[104mX", func(t *testing.T, c Cell) {
			if c.Background != ColorBrightBlue {
				t.Errorf("bg = %v, want bright blue", c.Background)
			}
		}},
		{"256 foreground", "\x1b[38;5;196mX", func(t *testing.T, c Cell) {
			if c.Foreground.Index != 196 {
				t.Errorf("fg = %v, want index 196", c.Foreground)
			}
		}},
		{"256 background", "\x1b[48;5;21mX", func(t *testing.T, c Cell) {
			if c.Background.Index != 21 {
				t.Errorf("bg = %v, want index 21", c.Background)
			}
		}},
		{"rgb foreground", "\x1b[38;2;255;128;64mX", func(t *testing.T, c Cell) {
			if !c.Foreground.IsRGB() || c.Foreground.R != 255 || c.Foreground.G != 128 || c.Foreground.B != 64 {
				t.Errorf("fg = %+v, want rgb(255,128,64)", c.Foreground)
			}
		}},
		{"rgb then attribute", "\x1b[48;2;1;2;3;1mX", func(t *testing.T, c Cell) {
			if c.Background.R != 1 || c.Background.G != 2 || c.Background.B != 3 {
				t.Errorf("bg = %+v", c.Background)
			}
			if !c.Attributes.Has(AttrBold) {
				t.Error("bold after rgb color should apply")
			}
		}},
		{"default colors", "\x1b[31;42m\x1b[39;49mX", func(t *testing.T, c Cell) {
			if !c.Foreground.Default || !c.Background.Default {
				t.Errorf("expected default colors, got %+v", c)
			}
		}},
		{"truncated extended color", "\x1b[38;5mX", func(t *testing.T, c Cell) {
			if !c.Foreground.Default {
				t.Errorf("truncated color should be ignored, got %+v", c.Foreground)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(10, 1)
			p.ParseString(tt.input)
			tt.check(t, s.Cell(0, 0))
		})
	}
}

func TestParserUTF8(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.ParseString("héllo")
	if got := row(s, 0); got != "héllo" {
		t.Errorf("row 0 = %q, want %q", got, "héllo")
	}
}

func TestParserUTF8SplitAcrossChunks(t *testing.T) {
	s, p := newTestParser(10, 1)
	data := []byte("a世b")
	for _, b := range data {
		p.Parse([]byte{b})
	}
	if got := row(s, 0); got != "a世b" {
		t.Errorf("row 0 = %q, want %q", got, "a世b")
	}
}

func TestParserInvalidUTF8(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.Parse([]byte{'a', 0xFF, 'b', 0xE4, 'c'})
	if got := row(s, 0); got != "a�b�c" {
		t.Errorf("row 0 = %q, want %q", got, "a�b�c")
	}
}

func TestParserChunkIndependence(t *testing.T) {
	stream := "\x1b[2J\x1b[Hprompt$ ls\r\n" +
		"\x1b[1;34mdir\x1b[0m  file.txt  \x1b[38;2;10;20;30mrgb\x1b[m\r\n" +
		"\x1b]0;title\x07\x1b[3;5Hmoved\x1b[K\x1b[?25l" +
		"日本語\x1b[2Aup\x1bPignored\x1b\\\x1b[5X\x1b[10;20r\x1b[r"

	whole, pw := newTestParser(30, 8)
	pw.ParseString(stream)

	for _, size := range []int{1, 2, 3, 5, 7, 13} {
		split, ps := newTestParser(30, 8)
		data := []byte(stream)
		for i := 0; i < len(data); i += size {
			end := i + size
			if end > len(data) {
				end = len(data)
			}
			ps.Parse(data[i:end])
		}

		for y := 0; y < 8; y++ {
			for x := 0; x < 30; x++ {
				if a, b := whole.Cell(x, y), split.Cell(x, y); a != b {
					t.Fatalf("chunk size %d: cell (%d,%d) = %+v, want %+v", size, x, y, b, a)
				}
			}
		}
		wx, wy := whole.CursorPos()
		sx, sy := split.CursorPos()
		if wx != sx || wy != sy {
			t.Errorf("chunk size %d: cursor (%d,%d), want (%d,%d)", size, sx, sy, wx, wy)
		}
	}
}

func TestParserUnknownCSIIgnored(t *testing.T) {
	s, p := newTestParser(10, 2)
	p.ParseString("abc\x1b[1;2y")

	var unknown []string
	p.SetUnknownCallback(func(seq string) { unknown = append(unknown, seq) })

	before := s.lines[0].clone()
	bx, by := s.CursorPos()
	p.ParseString("\x1b[5;7z\x1b[>1p")

	for x := range before.Cells {
		if s.Cell(x, 0) != before.Cells[x] {
			t.Fatalf("cell %d changed by unknown sequence", x)
		}
	}
	if x, y := s.CursorPos(); x != bx || y != by {
		t.Errorf("cursor moved to (%d,%d)", x, y)
	}
	if len(unknown) != 2 {
		t.Errorf("unknown callbacks = %v, want 2", unknown)
	}
	if p.State() != StateGround {
		t.Errorf("state = %v, want ground", p.State())
	}

	p.ParseString("d")
	if got := row(s, 0); got != "abcd" {
		t.Errorf("row 0 = %q, want %q", got, "abcd")
	}
}

func TestParserCharsetDesignationConsumed(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.ParseString("\x1b(Bab\x1b)0c")
	if got := row(s, 0); got != "abc" {
		t.Errorf("row 0 = %q, want %q", got, "abc")
	}
}

func TestParserCancelAbortsSequence(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.ParseString("\x1b[31\x18x")
	if got := row(s, 0); got != "x" {
		t.Errorf("row 0 = %q, want %q", got, "x")
	}
	if c := s.Cell(0, 0); !c.Foreground.Default {
		t.Error("cancelled SGR should not apply")
	}
}

func TestParserControlInsideCSI(t *testing.T) {
	s, p := newTestParser(10, 3)
	// LF executes immediately, then the CSI completes.
	p.ParseString("\x1b[2\nCz")
	if x, y := s.CursorPos(); x != 3 || y != 1 {
		t.Errorf("cursor = (%d,%d), want (3,1)", x, y)
	}
}

func TestParserEscapeRestartsCSI(t *testing.T) {
	s, p := newTestParser(10, 3)
	p.ParseString("\x1b[5\x1b[2;3H")
	if x, y := s.CursorPos(); x != 2 || y != 1 {
		t.Errorf("cursor = (%d,%d), want (2,1)", x, y)
	}
}

func TestParserParamOverflow(t *testing.T) {
	s, p := newTestParser(80, 24)
	p.ParseString("\x1b[99999999999999;5H")
	if x, y := s.CursorPos(); x != 4 || y != 23 {
		t.Errorf("cursor = (%d,%d), want (4,23)", x, y)
	}

	// more than maxParams parameters still parses
	p.ParseString("\x1b[1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;1;31mX")
	if p.State() != StateGround {
		t.Errorf("state = %v, want ground", p.State())
	}
}

func TestParserOSC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		title string
		osc   string
	}{
		{"title bel", "\x1b]0;hello\x07", "hello", ""},
		{"title st", "\x1b]2;world\x1b\\", "world", ""},
		{"cwd", "\x1b]7;file://host/tmp\x07", "", "file://host/tmp"},
		{"semicolon in data", "\x1b]0;a;b\x07", "a;b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser(10, 1)
			var title, osc string
			p.SetTitleCallback(func(s string) { title = s })
			p.SetOSCCallback(func(cmd int, data string) { osc = data })
			p.ParseString(tt.input + "x")

			if title != tt.title {
				t.Errorf("title = %q, want %q", title, tt.title)
			}
			if osc != tt.osc {
				t.Errorf("osc = %q, want %q", osc, tt.osc)
			}
			if got := row(s, 0); got != "x" {
				t.Errorf("OSC leaked onto the screen: %q", got)
			}
		})
	}
}

func TestParserDCSIgnored(t *testing.T) {
	s, p := newTestParser(20, 1)
	var called bool
	p.SetOSCCallback(func(int, string) { called = true })
	p.ParseString("a\x1bP1$r0m\x1b\\b\x1b_apc\x07c")

	if got := row(s, 0); got != "abc" {
		t.Errorf("row 0 = %q, want %q", got, "abc")
	}
	if called {
		t.Error("DCS payload should not reach the OSC callback")
	}
}

func TestParserPrivateModes(t *testing.T) {
	s, p := newTestParser(10, 3)

	p.ParseString("\x1b[?25l")
	if s.CursorVisible() {
		t.Error("cursor should be hidden")
	}
	p.ParseString("\x1b[?25h")
	if !s.CursorVisible() {
		t.Error("cursor should be visible")
	}

	p.ParseString("\x1b[?1h\x1b[?2004h")
	if !s.appCursorKeys || !s.bracketedPaste {
		t.Error("DECCKM and bracketed paste should be set")
	}
	p.ParseString("\x1b[?1;2004l")
	if s.appCursorKeys || s.bracketedPaste {
		t.Error("DECCKM and bracketed paste should be cleared")
	}

	p.ParseString("\x1b[?7l0123456789AB")
	if got := row(s, 0); got != "012345678B" {
		t.Errorf("no-wrap row 0 = %q", got)
	}
}

func TestParserAltScreen1049(t *testing.T) {
	s, p := newTestParser(10, 3)
	p.ParseString("shell\x1b[2;3H")
	p.ParseString("\x1b[?1049h\x1b[Hvim")

	if !s.altActive {
		t.Fatal("alt screen not active")
	}
	if got := row(s, 0); got != "vim" {
		t.Errorf("alt row 0 = %q", got)
	}

	p.ParseString("\x1b[?1049l")
	if got := row(s, 0); got != "shell" {
		t.Errorf("primary row 0 = %q", got)
	}
	if x, y := s.CursorPos(); x != 2 || y != 1 {
		t.Errorf("cursor = (%d,%d), want (2,1)", x, y)
	}
}

func TestParserCursorStyle(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.ParseString("\x1b[6 q")
	if s.cursorStyle != CursorBar {
		t.Errorf("style = %v, want bar", s.cursorStyle)
	}
	p.ParseString("\x1b[4 q")
	if s.cursorStyle != CursorUnderline {
		t.Errorf("style = %v, want underline", s.cursorStyle)
	}
	p.ParseString("\x1b[ q")
	if s.cursorStyle != CursorBlock {
		t.Errorf("style = %v, want block", s.cursorStyle)
	}
}

func TestParserScrollRegionCSI(t *testing.T) {
	s, p := newTestParser(5, 4)
	p.ParseString("a\r\nb\r\nc\r\nd")
	p.ParseString("\x1b[2;3r\x1b[3;1H\n")

	want := []string{"a", "c", "", "d"}
	for y, w := range want {
		if got := row(s, y); got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}
}

func TestParserLineAndCharEditing(t *testing.T) {
	s, p := newTestParser(6, 3)
	p.ParseString("abcdef\r\nline2\r\nline3")
	p.ParseString("\x1b[1;2H\x1b[2P")
	if got := row(s, 0); got != "adef" {
		t.Errorf("DCH row 0 = %q", got)
	}
	p.ParseString("\x1b[1@")
	if got := row(s, 0); got != "a def" {
		t.Errorf("ICH row 0 = %q", got)
	}
	p.ParseString("\x1b[2;1H\x1b[M")
	if got := row(s, 1); got != "line3" {
		t.Errorf("DL row 1 = %q", got)
	}
	p.ParseString("\x1b[L")
	if got := row(s, 1); got != "" {
		t.Errorf("IL row 1 = %q", got)
	}
	if got := row(s, 2); got != "line3" {
		t.Errorf("IL row 2 = %q", got)
	}
}

func TestParserRepeat(t *testing.T) {
	s, p := newTestParser(10, 1)
	p.ParseString("-\x1b[4b")
	if got := row(s, 0); got != "-----" {
		t.Errorf("row 0 = %q, want %q", got, "-----")
	}
}

func TestParserDeviceStatus(t *testing.T) {
	_, p := newTestParser(80, 24)
	var replies []string
	p.SetReplyCallback(func(b []byte) { replies = append(replies, string(b)) })

	p.ParseString("\x1b[5n\x1b[3;7H\x1b[6n\x1b[c")

	want := []string{"\x1b[0n", "\x1b[3;7R", "\x1b[?1;2c"}
	if len(replies) != len(want) {
		t.Fatalf("replies = %q, want %q", replies, want)
	}
	for i := range want {
		if replies[i] != want[i] {
			t.Errorf("reply %d = %q, want %q", i, replies[i], want[i])
		}
	}
}

func TestParserResetRIS(t *testing.T) {
	s, p := newTestParser(10, 2)
	p.ParseString("abc\x1b[31m\x1b[?25l\x1bc")
	if got := row(s, 0); got != "" {
		t.Errorf("row 0 = %q, want empty", got)
	}
	if !s.CursorVisible() {
		t.Error("cursor should be visible after RIS")
	}
	if x, y := s.CursorPos(); x != 0 || y != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", x, y)
	}
}

func TestParserIndexAndNextLine(t *testing.T) {
	s, p := newTestParser(10, 3)
	p.ParseString("ab\x1bDc\x1bEd")
	if got := row(s, 1); got != "  c" {
		t.Errorf("row 1 = %q", got)
	}
	if got := row(s, 2); got != "d" {
		t.Errorf("row 2 = %q", got)
	}
	p.ParseString("\x1b[H\x1bM")
	if got := row(s, 0); got != "" {
		t.Errorf("reverse index should scroll down, row 0 = %q", got)
	}
}

func TestParserStateString(t *testing.T) {
	for state, want := range map[ParserState]string{
		StateGround: "ground", StateEscape: "escape", StateCSI: "csi", StateOSC: "osc", ParserState(9): "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
