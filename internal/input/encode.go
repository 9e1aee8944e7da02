package input

import (
	"strconv"
	"unicode/utf8"

	"github.com/dshills/shellpane/internal/input/key"
)

// Bracketed paste delimiters.
const (
	PasteStart = "\x1b[200~"
	PasteEnd   = "\x1b[201~"
)

// tilde codes for keys encoded as CSI n ~.
var tildeCodes = map[key.Key]int{
	key.KeyInsert:   2,
	key.KeyDelete:   3,
	key.KeyPageUp:   5,
	key.KeyPageDown: 6,
	key.KeyF5:       15,
	key.KeyF6:       17,
	key.KeyF7:       18,
	key.KeyF8:       19,
	key.KeyF9:       20,
	key.KeyF10:      21,
	key.KeyF11:      23,
	key.KeyF12:      24,
}

// final bytes for keys encoded as CSI/SS3 letter.
var letterCodes = map[key.Key]byte{
	key.KeyUp:    'A',
	key.KeyDown:  'B',
	key.KeyRight: 'C',
	key.KeyLeft:  'D',
	key.KeyHome:  'H',
	key.KeyEnd:   'F',
	key.KeyF1:    'P',
	key.KeyF2:    'Q',
	key.KeyF3:    'R',
	key.KeyF4:    'S',
}

// Encode returns the bytes an xterm sends for ev. appCursor selects the
// SS3 form of the cursor keys (DECCKM). Events with no encoding return nil.
func Encode(ev key.Event, appCursor bool) []byte {
	if ev.Key == key.KeyRune {
		return encodeRune(ev)
	}

	mods := ev.Modifiers
	switch ev.Key {
	case key.KeyEnter:
		return altPrefix(mods, []byte{'\r'})
	case key.KeyTab:
		if mods.Has(key.ModShift) {
			return []byte("\x1b[Z")
		}
		return altPrefix(mods, []byte{'\t'})
	case key.KeyBacktab:
		return []byte("\x1b[Z")
	case key.KeyBackspace:
		if mods.Has(key.ModCtrl) {
			return altPrefix(mods, []byte{0x08})
		}
		return altPrefix(mods, []byte{0x7f})
	case key.KeyEscape:
		return altPrefix(mods, []byte{0x1b})
	}

	if code, ok := tildeCodes[ev.Key]; ok {
		seq := "\x1b[" + strconv.Itoa(code)
		if mods != key.ModNone {
			seq += ";" + strconv.Itoa(mods.XTermParam())
		}
		return []byte(seq + "~")
	}

	if final, ok := letterCodes[ev.Key]; ok {
		if mods != key.ModNone {
			return []byte("\x1b[1;" + strconv.Itoa(mods.XTermParam()) + string(final))
		}
		if ev.Key.IsFunction() || (appCursor && (ev.Key.IsArrow() || ev.Key == key.KeyHome || ev.Key == key.KeyEnd)) {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}
	return nil
}

func encodeRune(ev key.Event) []byte {
	r := ev.Rune
	mods := ev.Modifiers
	if mods.Has(key.ModCtrl) {
		if b, ok := ctrlByte(r); ok {
			return altPrefix(mods, []byte{b})
		}
	}
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, r)
	return altPrefix(mods, buf[:n])
}

// ctrlByte maps a character typed with ctrl to its C0 control code.
func ctrlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	case r == ' ' || r == '@' || r == '2':
		return 0, true
	case r >= '[' && r <= '_':
		return byte(r-'[') + 0x1b, true
	case r == '?' || r == '8':
		return 0x7f, true
	}
	return 0, false
}

func altPrefix(mods key.Modifier, b []byte) []byte {
	if mods.Has(key.ModAlt) {
		return append([]byte{0x1b}, b...)
	}
	return b
}

// EncodePaste wraps text in bracketed paste delimiters when the terminal
// asked for them.
func EncodePaste(text string, bracketed bool) []byte {
	if !bracketed {
		return []byte(text)
	}
	return []byte(PasteStart + text + PasteEnd)
}
