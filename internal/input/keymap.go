package input

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dshills/shellpane/internal/input/key"
)

// DefaultToggle is the focus toggle chord.
const DefaultToggle = "ctrl+t"

var defaultBindings = map[Command][]string{
	CmdUp:           {"k", "up"},
	CmdDown:         {"j", "down"},
	CmdPageUp:       {"pgup", "ctrl+b"},
	CmdPageDown:     {"pgdn", "ctrl+f"},
	CmdTop:          {"g", "home"},
	CmdBottom:       {"G", "end"},
	CmdOpen:         {"enter", "l", "right"},
	CmdParent:       {"h", "left", "backspace", "ctrl+backspace"},
	CmdBack:         {"alt+left", "H"},
	CmdForward:      {"alt+right", "L"},
	CmdMark:         {"space"},
	CmdClearMarks:   {"u"},
	CmdCopy:         {"y"},
	CmdCut:          {"x"},
	CmdPaste:        {"p"},
	CmdDelete:       {"d", "delete"},
	CmdRefresh:      {"r", "f5"},
	CmdToggleHidden: {"."},
	CmdSortCycle:    {"s"},
	CmdSortReverse:  {"S"},
	CmdSearch:       {"/"},
	CmdFilter:       {"f"},
	CmdClose:        {"esc"},
	CmdYankPath:     {"Y"},
	CmdHomeDir:      {"~"},
	CmdRespawnShell: {"R"},
	CmdCancelOps:    {"ctrl+c"},
	CmdQuit:         {"q"},

	CmdToggleTerminal: {"T"},
	CmdClearTerminal:  {"C"},
	CmdScrollUp:       {"shift+pgup"},
	CmdScrollDown:     {"shift+pgdn"},
}

func init() {
	// digits jump to bookmarks
	for n := 1; n <= MaxBookmarks; n++ {
		defaultBindings[BookmarkCommand(n)] = []string{strconv.Itoa(n)}
	}
}

// Keymap maps browser keys to commands.
type Keymap struct {
	bindings map[key.Event]Command
}

// NewKeymap returns an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[key.Event]Command)}
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	km := NewKeymap()
	for cmd, specs := range defaultBindings {
		for _, spec := range specs {
			km.bindings[key.MustParse(spec)] = cmd
		}
	}
	return km
}

// Bind maps the key spec to cmd, replacing any previous binding of that key.
func (km *Keymap) Bind(spec string, cmd Command) error {
	ev, err := key.Parse(spec)
	if err != nil {
		return err
	}
	km.bindings[ev] = cmd
	return nil
}

// Rebind replaces every binding of cmd with specs. Nothing changes when a
// spec is invalid.
func (km *Keymap) Rebind(cmd Command, specs []string) error {
	events := make([]key.Event, 0, len(specs))
	for _, spec := range specs {
		ev, err := key.Parse(spec)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		events = append(events, ev)
	}
	for ev, c := range km.bindings {
		if c == cmd {
			delete(km.bindings, ev)
		}
	}
	for _, ev := range events {
		km.bindings[ev] = cmd
	}
	return nil
}

// Apply rebinds each named command. Every error is reported; valid
// entries are still applied.
func (km *Keymap) Apply(overrides map[string][]string) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		cmd, err := ParseCommand(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := km.Rebind(cmd, overrides[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unbind removes the binding of a key, so it can be reserved.
func (km *Keymap) Unbind(ev key.Event) {
	delete(km.bindings, ev.Normalize())
}

// Lookup returns the command bound to ev.
func (km *Keymap) Lookup(ev key.Event) (Command, bool) {
	cmd, ok := km.bindings[ev.Normalize()]
	return cmd, ok
}

// Keys returns the specs bound to cmd, sorted.
func (km *Keymap) Keys(cmd Command) []string {
	var out []string
	for ev, c := range km.bindings {
		if c == cmd {
			out = append(out, ev.String())
		}
	}
	sort.Strings(out)
	return out
}
