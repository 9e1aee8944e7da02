package key

import "strings"

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModCtrl
	ModMeta

	ModNone Modifier = 0
)

// Has reports whether all of mod are set.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod
}

// String renders the set as "ctrl+alt+shift+meta" order, lowercase.
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "meta")
	}
	return strings.Join(parts, "+")
}

// XTermParam returns the modifier parameter xterm uses in sequences such
// as ESC[1;5A: one plus shift(1), alt(2), ctrl(4) and meta(8).
func (m Modifier) XTermParam() int {
	p := 1
	if m.Has(ModShift) {
		p += 1
	}
	if m.Has(ModAlt) {
		p += 2
	}
	if m.Has(ModCtrl) {
		p += 4
	}
	if m.Has(ModMeta) {
		p += 8
	}
	return p
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"c":       ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"a":       ModAlt,
	"shift":   ModShift,
	"s":       ModShift,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"super":   ModMeta,
	"m":       ModMeta,
	"d":       ModMeta,
}

func lookupModifier(name string) (Modifier, bool) {
	m, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}
