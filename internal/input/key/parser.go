package key

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a key specification into a normalized Event.
func Parse(spec string) (Event, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Event{}, ErrEmptySpec
	}
	if len(s) > 2 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return parseChord(s[1:len(s)-1], "-", spec)
	}
	if len(s) > 1 && strings.Contains(s, "+") {
		return parseChord(s, "+", spec)
	}
	// C-t without brackets; a lone "-" is a character
	if len(s) > 2 && strings.Contains(s, "-") {
		if _, ok := lookupModifier(s[:strings.Index(s, "-")]); ok {
			return parseChord(s, "-", spec)
		}
	}
	return parseKey(s, ModNone, spec)
}

// MustParse is Parse for specifications known to be valid.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return e
}

func parseChord(s, sep, spec string) (Event, error) {
	// a trailing separator is the key itself, as in "ctrl++" or "<C-->"
	keyPart := ""
	if strings.HasSuffix(s, sep+sep) {
		keyPart = sep
		s = strings.TrimSuffix(s, sep)
	}
	parts := strings.Split(s, sep)
	if keyPart == "" {
		keyPart = parts[len(parts)-1]
	}
	parts = parts[:len(parts)-1]

	var mods Modifier
	for _, p := range parts {
		m, ok := lookupModifier(p)
		if !ok {
			return Event{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidSpec, p, spec)
		}
		mods |= m
	}
	return parseKey(keyPart, mods, spec)
}

func parseKey(s string, mods Modifier, spec string) (Event, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Event{}, fmt.Errorf("%w: missing key in %q", ErrInvalidSpec, spec)
	}
	if r := []rune(s); len(r) == 1 {
		return Rune(r[0], mods).Normalize(), nil
	}
	switch strings.ToLower(s) {
	case "space":
		return Rune(' ', mods).Normalize(), nil
	case "lt":
		return Rune('<', mods).Normalize(), nil
	case "gt":
		return Rune('>', mods).Normalize(), nil
	case "bar":
		return Rune('|', mods).Normalize(), nil
	}
	if k, ok := Lookup(s); ok {
		return Special(k, mods), nil
	}
	return Event{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidSpec, s, spec)
}
