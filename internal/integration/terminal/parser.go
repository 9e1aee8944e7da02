package terminal

import (
	"strconv"
	"strings"
)

// ParserState is the escape-sequence state of a Parser.
type ParserState int

// Parser states. Private markers and intermediates are collected inside
// StateCSI; DCS, SOS, PM and APC strings are swallowed by StateOSC.
const (
	StateGround ParserState = iota
	StateEscape
	StateCSI
	StateOSC
)

func (s ParserState) String() string {
	switch s {
	case StateGround:
		return "ground"
	case StateEscape:
		return "escape"
	case StateCSI:
		return "csi"
	case StateOSC:
		return "osc"
	default:
		return "unknown"
	}
}

const (
	maxParams   = 16
	maxParamVal = 65535
	maxOSCLen   = 4096
)

// Parser is a byte-at-a-time VT100/xterm escape sequence parser driving a
// Screen. The result never depends on how input is split into chunks.
type Parser struct {
	screen *Screen
	state  ParserState

	// CSI collection
	params    []int
	hasParam  bool
	dropParam bool
	private   byte
	inter     []byte

	// Escape intermediates, e.g. the '(' in ESC ( B
	escInter []byte

	// OSC collection; ignoreString swallows DCS/SOS/PM/APC payloads
	osc          []byte
	ignoreString bool

	// UTF-8 decoding state
	utf8Buf   [4]byte
	utf8Len   int
	utf8Count int

	onTitle   func(string)
	onOSC     func(cmd int, data string)
	onReply   func([]byte)
	onUnknown func(seq string)
}

// NewParser creates a parser for the given screen.
func NewParser(screen *Screen) *Parser {
	return &Parser{
		screen: screen,
		state:  StateGround,
		params: make([]int, 0, maxParams),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 256),
	}
}

// SetTitleCallback sets the callback for OSC 0 and OSC 2.
func (p *Parser) SetTitleCallback(fn func(string)) { p.onTitle = fn }

// SetOSCCallback sets the callback for other OSC commands.
func (p *Parser) SetOSCCallback(fn func(cmd int, data string)) { p.onOSC = fn }

// SetReplyCallback sets the callback receiving device status replies.
func (p *Parser) SetReplyCallback(fn func([]byte)) { p.onReply = fn }

// SetUnknownCallback sets the callback for sequences that are ignored.
func (p *Parser) SetUnknownCallback(fn func(seq string)) { p.onUnknown = fn }

// State returns the current parser state.
func (p *Parser) State() ParserState { return p.state }

// Parse feeds data through the state machine.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		switch p.state {
		case StateGround:
			p.ground(b)
		case StateEscape:
			p.escape(b)
		case StateCSI:
			p.csi(b)
		case StateOSC:
			p.oscString(b)
		}
	}
}

// ParseString feeds a string through the state machine.
func (p *Parser) ParseString(s string) {
	p.Parse([]byte(s))
}

func (p *Parser) enterEscape() {
	p.flushUTF8()
	p.state = StateEscape
	p.escInter = p.escInter[:0]
}

// ground handles printable text, UTF-8 and C0 controls.
func (p *Parser) ground(b byte) {
	if p.utf8Len > 0 {
		if b >= 0x80 && b < 0xC0 {
			p.utf8Buf[p.utf8Count] = b
			p.utf8Count++
			if p.utf8Count == p.utf8Len {
				r := decodeUTF8(p.utf8Buf[:p.utf8Len])
				p.utf8Len, p.utf8Count = 0, 0
				p.screen.WriteRune(r)
			}
			return
		}
		// truncated sequence
		p.flushUTF8()
	}

	switch {
	case b == 0x1B:
		p.enterEscape()
	case b < 0x20 || b == 0x7F:
		p.control(b)
	case b < 0x80:
		p.screen.WriteRune(rune(b))
	case b >= 0xC2 && b < 0xE0:
		p.startUTF8(b, 2)
	case b >= 0xE0 && b < 0xF0:
		p.startUTF8(b, 3)
	case b >= 0xF0 && b < 0xF5:
		p.startUTF8(b, 4)
	default:
		p.screen.WriteRune('�')
	}
}

func (p *Parser) startUTF8(b byte, n int) {
	p.utf8Buf[0] = b
	p.utf8Len = n
	p.utf8Count = 1
}

func (p *Parser) flushUTF8() {
	if p.utf8Len > 0 {
		p.utf8Len, p.utf8Count = 0, 0
		p.screen.WriteRune('�')
	}
}

// decodeUTF8 decodes a complete sequence, rejecting overlongs and surrogates.
func decodeUTF8(b []byte) rune {
	var r rune
	switch len(b) {
	case 2:
		r = rune(b[0]&0x1F)<<6 | rune(b[1]&0x3F)
		if r < 0x80 {
			return '�'
		}
	case 3:
		r = rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
		if r < 0x800 || (r >= 0xD800 && r <= 0xDFFF) {
			return '�'
		}
	case 4:
		r = rune(b[0]&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F)
		if r < 0x10000 || r > 0x10FFFF {
			return '�'
		}
	default:
		return '�'
	}
	return r
}

// control executes a C0 control byte. It is also reachable from inside a
// CSI sequence, as on a real VT.
func (p *Parser) control(b byte) {
	switch b {
	case 0x07: // BEL
	case 0x08:
		p.screen.Backspace()
	case 0x09:
		p.screen.Tab()
	case 0x0A, 0x0B, 0x0C:
		p.screen.LineFeed()
	case 0x0D:
		p.screen.CarriageReturn()
	}
}

func (p *Parser) escape(b byte) {
	switch {
	case b == 0x1B:
		p.escInter = p.escInter[:0]
	case b == 0x18 || b == 0x1A: // CAN, SUB
		p.state = StateGround
	case b < 0x20:
		p.control(b)
	case b >= 0x20 && b <= 0x2F:
		p.escInter = append(p.escInter, b)
	case len(p.escInter) > 0:
		// charset designation and friends: consumed, not supported
		p.unknown("ESC " + string(p.escInter) + string(b))
		p.state = StateGround
	case b == '[':
		p.params = p.params[:0]
		p.hasParam = false
		p.dropParam = false
		p.private = 0
		p.inter = p.inter[:0]
		p.state = StateCSI
	case b == ']':
		p.osc = p.osc[:0]
		p.ignoreString = false
		p.state = StateOSC
	case b == 'P', b == 'X', b == '^', b == '_':
		p.osc = p.osc[:0]
		p.ignoreString = true
		p.state = StateOSC
	default:
		p.escDispatch(b)
		p.state = StateGround
	}
}

func (p *Parser) escDispatch(b byte) {
	switch b {
	case '7':
		p.screen.SaveCursor()
	case '8':
		p.screen.RestoreCursor()
	case 'D': // IND
		p.screen.LineFeed()
	case 'E': // NEL
		p.screen.CarriageReturn()
		p.screen.LineFeed()
	case 'M': // RI
		p.screen.ReverseLineFeed()
	case 'c': // RIS
		p.screen.Reset()
	case '\\': // ST with nothing open
	case '=', '>': // keypad modes
	default:
		p.unknown("ESC " + string(b))
	}
}

func (p *Parser) csi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if !p.hasParam {
			p.pushParam()
			p.hasParam = true
		}
		if p.dropParam {
			return
		}
		last := len(p.params) - 1
		if v := p.params[last]*10 + int(b-'0'); v <= maxParamVal {
			p.params[last] = v
		}
	case b == ';' || b == ':':
		if !p.hasParam {
			p.pushParam()
		}
		p.hasParam = false
	case b >= '<' && b <= '?':
		if len(p.params) == 0 && !p.hasParam && p.private == 0 {
			p.private = b
		}
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
	case b >= 0x40 && b <= 0x7E:
		if len(p.params) > 0 && !p.hasParam {
			p.pushParam()
		}
		p.state = StateGround
		p.csiDispatch(b)
	case b == 0x1B:
		p.enterEscape()
	case b == 0x18 || b == 0x1A:
		p.state = StateGround
	case b < 0x20:
		p.control(b)
	}
}

// pushParam starts a new parameter. Parameters past maxParams are dropped.
func (p *Parser) pushParam() {
	if len(p.params) >= maxParams {
		p.dropParam = true
		return
	}
	p.params = append(p.params, 0)
	p.dropParam = false
}

func (p *Parser) oscString(b byte) {
	switch {
	case b == 0x07:
		p.oscDispatch()
		p.state = StateGround
	case b == 0x1B:
		// ESC \ is the usual terminator; Escape consumes the backslash.
		p.oscDispatch()
		p.enterEscape()
	case b == 0x18 || b == 0x1A:
		p.state = StateGround
	default:
		if !p.ignoreString && len(p.osc) < maxOSCLen {
			p.osc = append(p.osc, b)
		}
	}
}

func (p *Parser) csiDispatch(final byte) {
	s := p.screen

	if p.private == '?' {
		switch final {
		case 'h':
			p.setPrivateModes(true)
		case 'l':
			p.setPrivateModes(false)
		default:
			p.unknown(p.csiString(final))
		}
		return
	}
	if p.private != 0 {
		p.unknown(p.csiString(final))
		return
	}

	if len(p.inter) > 0 {
		if final == 'q' && p.inter[0] == ' ' {
			switch p.param(0, 1) {
			case 0, 1, 2:
				s.SetCursorStyle(CursorBlock)
			case 3, 4:
				s.SetCursorStyle(CursorUnderline)
			case 5, 6:
				s.SetCursorStyle(CursorBar)
			}
			return
		}
		p.unknown(p.csiString(final))
		return
	}

	switch final {
	case 'A': // CUU
		s.MoveCursorRelative(0, -p.param(0, 1))
	case 'B', 'e': // CUD, VPR
		s.MoveCursorRelative(0, p.param(0, 1))
	case 'C', 'a': // CUF, HPR
		s.MoveCursorRelative(p.param(0, 1), 0)
	case 'D': // CUB
		s.MoveCursorRelative(-p.param(0, 1), 0)
	case 'E': // CNL
		s.MoveCursorRelative(0, p.param(0, 1))
		s.CarriageReturn()
	case 'F': // CPL
		s.MoveCursorRelative(0, -p.param(0, 1))
		s.CarriageReturn()
	case 'G', '`': // CHA, HPA
		s.SetColumn(p.param(0, 1) - 1)
	case 'H', 'f': // CUP, HVP
		s.MoveCursor(p.param(1, 1)-1, p.param(0, 1)-1)
	case 'd': // VPA
		s.SetRow(p.param(0, 1) - 1)
	case 'J': // ED
		switch p.param(0, 0) {
		case 0:
			s.ClearScreenBelow()
		case 1:
			s.ClearScreenAbove()
		case 2:
			s.ClearScreen()
		case 3:
			s.ClearScreen()
			s.ClearHistory()
		}
	case 'K': // EL
		switch p.param(0, 0) {
		case 0:
			s.ClearLineRight()
		case 1:
			s.ClearLineLeft()
		case 2:
			s.ClearLine()
		}
	case 'L': // IL
		s.InsertLines(p.param(0, 1))
	case 'M': // DL
		s.DeleteLines(p.param(0, 1))
	case 'P': // DCH
		s.DeleteChars(p.param(0, 1))
	case '@': // ICH
		s.InsertChars(p.param(0, 1))
	case 'X': // ECH
		s.EraseChars(p.param(0, 1))
	case 'S': // SU
		s.ScrollUp(p.param(0, 1))
	case 'T': // SD
		s.ScrollDown(p.param(0, 1))
	case 'b': // REP
		s.RepeatLast(p.param(0, 1))
	case 'm':
		p.sgr()
	case 'r': // DECSTBM
		s.SetScrollRegion(p.param(0, 1)-1, p.param(1, s.Height())-1)
	case 's':
		s.SaveCursor()
	case 'u':
		s.RestoreCursor()
	case 'n': // DSR
		switch p.param(0, 0) {
		case 5:
			p.reply("\x1b[0n")
		case 6:
			x, y := s.CursorPos()
			if s.originMode {
				y -= s.scrollTop
			}
			p.reply("\x1b[" + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "R")
		}
	case 'c': // DA
		if p.param(0, 0) == 0 {
			p.reply("\x1b[?1;2c")
		}
	case 'h', 'l', 't':
		// ANSI modes (IRM, LNM) and window ops are not supported
	default:
		p.unknown(p.csiString(final))
	}
}

func (p *Parser) setPrivateModes(set bool) {
	s := p.screen
	for _, mode := range p.params {
		switch mode {
		case 1:
			s.SetAppCursorKeys(set)
		case 6:
			s.SetOriginMode(set)
		case 7:
			s.SetAutoWrap(set)
		case 25:
			s.SetCursorVisible(set)
		case 47:
			if set {
				s.EnterAltScreen(false)
			} else {
				s.ExitAltScreen(false)
			}
		case 1047:
			if set {
				s.EnterAltScreen(false)
			} else {
				s.ExitAltScreen(false)
			}
		case 1048:
			if set {
				s.SaveCursor()
			} else {
				s.RestoreCursor()
			}
		case 1049:
			if set {
				s.EnterAltScreen(true)
			} else {
				s.ExitAltScreen(true)
			}
		case 2004:
			s.SetBracketedPaste(set)
		}
	}
}

func (p *Parser) sgr() {
	s := p.screen
	if len(p.params) == 0 {
		s.ResetAttributes()
		return
	}

	for i := 0; i < len(p.params); i++ {
		switch v := p.params[i]; {
		case v == 0:
			s.ResetAttributes()
		case v == 1:
			s.AddAttribute(AttrBold)
		case v == 2:
			s.AddAttribute(AttrDim)
		case v == 3:
			s.AddAttribute(AttrItalic)
		case v == 4, v == 21:
			s.AddAttribute(AttrUnderline)
		case v == 5, v == 6:
			s.AddAttribute(AttrBlink)
		case v == 7:
			s.AddAttribute(AttrReverse)
		case v == 8:
			s.AddAttribute(AttrHidden)
		case v == 9:
			s.AddAttribute(AttrStrike)
		case v == 22:
			s.RemoveAttribute(AttrBold | AttrDim)
		case v == 23:
			s.RemoveAttribute(AttrItalic)
		case v == 24:
			s.RemoveAttribute(AttrUnderline)
		case v == 25:
			s.RemoveAttribute(AttrBlink)
		case v == 27:
			s.RemoveAttribute(AttrReverse)
		case v == 28:
			s.RemoveAttribute(AttrHidden)
		case v == 29:
			s.RemoveAttribute(AttrStrike)
		case v >= 30 && v <= 37:
			s.SetForeground(ansiColors[v-30])
		case v == 38:
			var c Color
			var ok bool
			if c, i, ok = p.extendedColor(i); ok {
				s.SetForeground(c)
			}
		case v == 39:
			s.SetForeground(DefaultColor)
		case v >= 40 && v <= 47:
			s.SetBackground(ansiColors[v-40])
		case v == 48:
			var c Color
			var ok bool
			if c, i, ok = p.extendedColor(i); ok {
				s.SetBackground(c)
			}
		case v == 49:
			s.SetBackground(DefaultColor)
		case v >= 90 && v <= 97:
			s.SetForeground(ansiColors[v-90+8])
		case v >= 100 && v <= 107:
			s.SetBackground(ansiColors[v-100+8])
		}
	}
}

// extendedColor parses 38/48 ;5;n or ;2;r;g;b starting at params[i]. It
// returns the index of the last parameter consumed.
func (p *Parser) extendedColor(i int) (Color, int, bool) {
	if i+1 >= len(p.params) {
		return Color{}, i, false
	}
	switch p.params[i+1] {
	case 5:
		if i+2 < len(p.params) {
			return ColorFromIndex(clamp(p.params[i+2], 0, 255)), i + 2, true
		}
		return Color{}, len(p.params) - 1, false
	case 2:
		if i+4 < len(p.params) {
			r := uint8(clamp(p.params[i+2], 0, 255))
			g := uint8(clamp(p.params[i+3], 0, 255))
			b := uint8(clamp(p.params[i+4], 0, 255))
			return ColorFromRGB(r, g, b), i + 4, true
		}
		return Color{}, len(p.params) - 1, false
	}
	return Color{}, i + 1, false
}

func (p *Parser) oscDispatch() {
	if p.ignoreString {
		return
	}
	data := string(p.osc)
	num, value, _ := strings.Cut(data, ";")
	cmd, err := strconv.Atoi(num)
	if err != nil {
		p.unknown("OSC " + data)
		return
	}

	switch cmd {
	case 0, 2:
		if p.onTitle != nil {
			p.onTitle(value)
		}
	case 1:
	default:
		if p.onOSC != nil {
			p.onOSC(cmd, value)
		}
	}
}

func (p *Parser) reply(s string) {
	if p.onReply != nil {
		p.onReply([]byte(s))
	}
}

func (p *Parser) unknown(seq string) {
	if p.onUnknown != nil {
		p.onUnknown(seq)
	}
}

// param returns parameter index, or def when it is absent or zero.
func (p *Parser) param(index, def int) int {
	if index < len(p.params) && p.params[index] > 0 {
		return p.params[index]
	}
	return def
}

func (p *Parser) csiString(final byte) string {
	var b strings.Builder
	b.WriteString("CSI ")
	if p.private != 0 {
		b.WriteByte(p.private)
	}
	for i, v := range p.params {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.Write(p.inter)
	b.WriteByte(final)
	return b.String()
}
