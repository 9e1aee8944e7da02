package key

import (
	"strings"
	"unicode"
)

// Event is a single key press.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// Rune returns a character event.
func Rune(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// Special returns a non-character event.
func Special(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// Ctrl returns the event for ctrl plus a letter.
func Ctrl(r rune) Event {
	return Rune(unicode.ToLower(r), ModCtrl)
}

// IsRune reports whether e carries a character.
func (e Event) IsRune() bool {
	return e.Key == KeyRune
}

// Normalize returns the canonical form used for binding lookups. Shift on
// a character is dropped because the character already reflects it, and
// letters under ctrl are lowercased.
func (e Event) Normalize() Event {
	if e.Key != KeyRune {
		e.Rune = 0
		return e
	}
	e.Modifiers &^= ModShift
	if e.Modifiers.Has(ModCtrl) {
		e.Rune = unicode.ToLower(e.Rune)
	}
	return e
}

// String renders e in the form Parse accepts, e.g. "ctrl+t", "shift+up",
// "space" or "q".
func (e Event) String() string {
	var name string
	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		name = "space"
	case e.Key == KeyRune:
		name = string(e.Rune)
	default:
		name = strings.ToLower(e.Key.String())
	}
	mods := e.Modifiers
	if e.Key == KeyRune {
		mods &^= ModShift
	}
	if mods == ModNone {
		return name
	}
	return mods.String() + "+" + name
}
