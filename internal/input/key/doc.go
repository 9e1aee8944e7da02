// Package key describes key presses and parses key specifications.
//
// An Event is a Key plus modifiers; printable characters use KeyRune and
// carry the character in Rune. Events are comparable and, once passed
// through Normalize, usable as map keys for key bindings.
//
// Specifications accepted by Parse:
//
//   - single characters: "q", "/", "G"
//   - key names: "Enter", "Esc", "F5", "PgDn", "Space"
//   - modifier chords: "ctrl+t", "Alt+x", "shift+up"
//   - Vim notation: "<C-t>", "<A-x>", "<CR>", "C-t"
package key
