package input

// Focus identifies the pane receiving keys.
type Focus uint8

const (
	FocusBrowser Focus = iota
	FocusTerminal
)

func (f Focus) String() string {
	switch f {
	case FocusBrowser:
		return "browser"
	case FocusTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Other returns the opposite pane.
func (f Focus) Other() Focus {
	if f == FocusBrowser {
		return FocusTerminal
	}
	return FocusBrowser
}
