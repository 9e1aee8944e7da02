package backend

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/renderer/core"
)

// convertStyle converts our Style to tcell.Style.
func convertStyle(s core.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(convertColor(s.Foreground)).
		Background(convertColor(s.Background))

	a := s.Attributes
	return style.
		Bold(a.Has(core.AttrBold)).
		Dim(a.Has(core.AttrDim)).
		Italic(a.Has(core.AttrItalic)).
		Underline(a.Has(core.AttrUnderline)).
		Blink(a.Has(core.AttrBlink)).
		Reverse(a.Has(core.AttrReverse)).
		StrikeThrough(a.Has(core.AttrStrikethrough))
}

func convertColor(c core.Color) tcell.Color {
	switch {
	case c.IsDefault():
		return tcell.ColorDefault
	case c.Indexed:
		return tcell.PaletteColor(int(c.R))
	default:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
}

var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:    key.KeyEscape,
	tcell.KeyEnter:     key.KeyEnter,
	tcell.KeyTab:       key.KeyTab,
	tcell.KeyBacktab:   key.KeyBacktab,
	tcell.KeyBackspace: key.KeyBackspace,
	tcell.KeyDEL:       key.KeyBackspace,
	tcell.KeyInsert:    key.KeyInsert,
	tcell.KeyDelete:    key.KeyDelete,
	tcell.KeyHome:      key.KeyHome,
	tcell.KeyEnd:       key.KeyEnd,
	tcell.KeyPgUp:      key.KeyPageUp,
	tcell.KeyPgDn:      key.KeyPageDown,
	tcell.KeyUp:        key.KeyUp,
	tcell.KeyDown:      key.KeyDown,
	tcell.KeyLeft:      key.KeyLeft,
	tcell.KeyRight:     key.KeyRight,
	tcell.KeyF1:        key.KeyF1,
	tcell.KeyF2:        key.KeyF2,
	tcell.KeyF3:        key.KeyF3,
	tcell.KeyF4:        key.KeyF4,
	tcell.KeyF5:        key.KeyF5,
	tcell.KeyF6:        key.KeyF6,
	tcell.KeyF7:        key.KeyF7,
	tcell.KeyF8:        key.KeyF8,
	tcell.KeyF9:        key.KeyF9,
	tcell.KeyF10:       key.KeyF10,
	tcell.KeyF11:       key.KeyF11,
	tcell.KeyF12:       key.KeyF12,
}

// convertKey maps a tcell key event. tcell reports ctrl+letter as its own
// key codes; those become the letter with ModCtrl.
func convertKey(e *tcell.EventKey) key.Event {
	mods := convertMod(e.Modifiers())
	k := e.Key()

	if k == tcell.KeyRune {
		return key.Rune(e.Rune(), mods).Normalize()
	}
	if sk, ok := specialKeys[k]; ok {
		// tcell sets ModCtrl on the C0 aliases of these keys
		if k == tcell.KeyEnter || k == tcell.KeyTab || k == tcell.KeyEscape {
			mods &^= key.ModCtrl
		}
		// KeyBackspace is 0x08, the same code as ctrl+h; plain
		// backspace arrives as KeyDEL
		if k == tcell.KeyBackspace {
			mods |= key.ModCtrl
		}
		return key.Special(sk, mods)
	}

	mods |= key.ModCtrl
	switch {
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return key.Rune(rune('a'+k-tcell.KeyCtrlA), mods)
	case k == tcell.KeyCtrlSpace:
		return key.Rune(' ', mods)
	case k >= tcell.KeyCtrlBackslash && k <= tcell.KeyCtrlUnderscore:
		return key.Rune(rune('\\'+k-tcell.KeyCtrlBackslash), mods)
	}
	return key.Special(key.KeyNone, key.ModNone)
}

func convertMod(m tcell.ModMask) key.Modifier {
	var out key.Modifier
	if m&tcell.ModShift != 0 {
		out |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		out |= key.ModMeta
	}
	return out
}

func toTcellMod(m key.Modifier) tcell.ModMask {
	var out tcell.ModMask
	if m.Has(key.ModShift) {
		out |= tcell.ModShift
	}
	if m.Has(key.ModCtrl) {
		out |= tcell.ModCtrl
	}
	if m.Has(key.ModAlt) {
		out |= tcell.ModAlt
	}
	if m.Has(key.ModMeta) {
		out |= tcell.ModMeta
	}
	return out
}

func toTcellKey(ev key.Event) *tcell.EventKey {
	mods := toTcellMod(ev.Modifiers)
	if ev.IsRune() {
		r := unicode.ToLower(ev.Rune)
		if ev.Modifiers.Has(key.ModCtrl) && r >= 'a' && r <= 'z' {
			return tcell.NewEventKey(tcell.KeyCtrlA+tcell.Key(r-'a'), 0, mods)
		}
		return tcell.NewEventKey(tcell.KeyRune, ev.Rune, mods)
	}
	for tk, k := range specialKeys {
		if k == ev.Key && tk != tcell.KeyDEL {
			return tcell.NewEventKey(tk, 0, mods)
		}
	}
	return tcell.NewEventKey(tcell.KeyRune, 0, mods)
}

// convertEvent converts tcell events to our Event type.
func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		k := convertKey(e)
		if k.Key == key.KeyNone {
			return Event{}
		}
		return Event{Type: EventKey, Key: k}
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	case *tcell.EventFocus:
		return Event{Type: EventFocus, Focused: e.Focused}
	default:
		return Event{}
	}
}
