package input

import (
	"sync"
	"unicode/utf8"

	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/logging"
)

// TermModes reports the terminal modes that change key encoding.
type TermModes interface {
	AppCursorKeys() bool
	BracketedPaste() bool
}

// ActionKind says what the caller should do with a routed key.
type ActionKind uint8

const (
	// ActionNone means the key was consumed without effect.
	ActionNone ActionKind = iota
	// ActionToggleFocus means focus changed; redraw both panes.
	ActionToggleFocus
	// ActionCommand carries a browser command.
	ActionCommand
	// ActionWrite carries bytes for the shell.
	ActionWrite
	// ActionConfirm answers a confirmation prompt with yes.
	ActionConfirm
	// ActionDeny cancels the pending prompt.
	ActionDeny
	// ActionSubmit carries the text of an input prompt.
	ActionSubmit
	// ActionEdit means the prompt text changed.
	ActionEdit
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionToggleFocus:
		return "toggle-focus"
	case ActionCommand:
		return "command"
	case ActionWrite:
		return "write"
	case ActionConfirm:
		return "confirm"
	case ActionDeny:
		return "deny"
	case ActionSubmit:
		return "submit"
	case ActionEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// Action is the outcome of routing one key.
type Action struct {
	Kind    ActionKind
	Command Command
	Bytes   []byte
	Text    string
	// Prompt is the prompt that was answered, for Confirm, Deny and Submit.
	Prompt *Prompt
}

// PromptKind distinguishes yes/no prompts from text prompts.
type PromptKind uint8

const (
	PromptConfirm PromptKind = iota
	PromptInput
)

// Prompt is a question shown in the status line.
type Prompt struct {
	Kind    PromptKind
	Message string
	// Command is the command that raised the prompt.
	Command Command
	// Input holds the text typed so far.
	Input string
}

// NewConfirm returns a yes/no prompt.
func NewConfirm(cmd Command, message string) *Prompt {
	return &Prompt{Kind: PromptConfirm, Command: cmd, Message: message}
}

// NewInput returns a text prompt with initial text.
func NewInput(cmd Command, message, initial string) *Prompt {
	return &Prompt{Kind: PromptInput, Command: cmd, Message: message, Input: initial}
}

// Router turns key events into actions for the focused pane.
type Router struct {
	mu     sync.Mutex
	focus  Focus
	toggle key.Event
	keymap *Keymap
	prompt *Prompt
	logger *logging.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithKeymap sets the browser keymap.
func WithKeymap(km *Keymap) RouterOption {
	return func(r *Router) { r.keymap = km }
}

// WithToggle sets the focus toggle chord.
func WithToggle(ev key.Event) RouterOption {
	return func(r *Router) { r.toggle = ev.Normalize() }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a router with the browser focused.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		focus:  FocusBrowser,
		toggle: key.MustParse(DefaultToggle),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.keymap == nil {
		r.keymap = DefaultKeymap()
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	r.logger = r.logger.WithComponent("input")
	// the toggle chord is reserved in both panes
	r.keymap.Unbind(r.toggle)
	return r
}

// Focus returns the focused pane.
func (r *Router) Focus() Focus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focus
}

// SetFocus moves focus to f.
func (r *Router) SetFocus(f Focus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = f
}

// ToggleFocus switches panes and returns the new focus.
func (r *Router) ToggleFocus() Focus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = r.focus.Other()
	return r.focus
}

// ReturnToBrowser focuses the browser. Used when the shell exits.
func (r *Router) ReturnToBrowser() {
	r.SetFocus(FocusBrowser)
}

// Toggle returns the focus toggle chord.
func (r *Router) Toggle() key.Event {
	return r.toggle
}

// Keymap returns the browser keymap.
func (r *Router) Keymap() *Keymap {
	return r.keymap
}

// SetPrompt installs a prompt that captures keys until answered.
func (r *Router) SetPrompt(p *Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt = p
}

// Prompt returns the pending prompt, if any.
func (r *Router) Prompt() *Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt
}

// ClearPrompt drops the pending prompt.
func (r *Router) ClearPrompt() {
	r.SetPrompt(nil)
}

// Route decides what ev means. The toggle chord always wins, then a
// pending prompt, then the focused pane.
func (r *Router) Route(ev key.Event, modes TermModes) Action {
	ev = ev.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if ev == r.toggle {
		r.focus = r.focus.Other()
		r.logger.Debug("focus toggled", "focus", r.focus.String())
		return Action{Kind: ActionToggleFocus}
	}
	if r.prompt != nil {
		return r.routePrompt(ev)
	}

	if r.focus == FocusTerminal {
		if cmd, ok := r.keymap.Lookup(ev); ok && cmd.Terminal() {
			return Action{Kind: ActionCommand, Command: cmd}
		}
		appCursor := modes != nil && modes.AppCursorKeys()
		b := Encode(ev, appCursor)
		if len(b) == 0 {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionWrite, Bytes: b}
	}

	if cmd, ok := r.keymap.Lookup(ev); ok {
		return Action{Kind: ActionCommand, Command: cmd}
	}
	return Action{Kind: ActionNone}
}

func (r *Router) routePrompt(ev key.Event) Action {
	p := r.prompt
	if p.Kind == PromptConfirm {
		switch {
		case ev.Key == key.KeyEnter, ev.IsRune() && (ev.Rune == 'y' || ev.Rune == 'Y'):
			r.prompt = nil
			return Action{Kind: ActionConfirm, Command: p.Command, Prompt: p}
		case ev.Key == key.KeyEscape, ev.IsRune() && (ev.Rune == 'n' || ev.Rune == 'N'):
			r.prompt = nil
			return Action{Kind: ActionDeny, Command: p.Command, Prompt: p}
		}
		return Action{Kind: ActionNone}
	}

	switch {
	case ev.Key == key.KeyEnter:
		r.prompt = nil
		return Action{Kind: ActionSubmit, Command: p.Command, Text: p.Input, Prompt: p}
	case ev.Key == key.KeyEscape:
		r.prompt = nil
		return Action{Kind: ActionDeny, Command: p.Command, Prompt: p}
	case ev.Key == key.KeyBackspace:
		if p.Input != "" {
			_, size := utf8.DecodeLastRuneInString(p.Input)
			p.Input = p.Input[:len(p.Input)-size]
		}
		return Action{Kind: ActionEdit, Text: p.Input}
	case ev.IsRune() && ev.Modifiers.Has(key.ModCtrl) && ev.Rune == 'u':
		p.Input = ""
		return Action{Kind: ActionEdit}
	case ev.IsRune() && ev.Modifiers&^key.ModShift == key.ModNone:
		p.Input += string(ev.Rune)
		return Action{Kind: ActionEdit, Text: p.Input}
	}
	return Action{Kind: ActionNone}
}

// Paste routes pasted text. The terminal receives it, bracketed when the
// terminal enabled that mode; an input prompt appends it.
func (r *Router) Paste(text string, modes TermModes) Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompt != nil {
		if r.prompt.Kind == PromptInput {
			r.prompt.Input += text
			return Action{Kind: ActionEdit, Text: r.prompt.Input}
		}
		return Action{Kind: ActionNone}
	}
	if r.focus != FocusTerminal || text == "" {
		return Action{Kind: ActionNone}
	}
	bracketed := modes != nil && modes.BracketedPaste()
	return Action{Kind: ActionWrite, Bytes: EncodePaste(text, bracketed)}
}
