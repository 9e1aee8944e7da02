// Package statusline draws the bottom line: focus, listing summary,
// operation progress, notifications and prompts.
package statusline

import (
	"github.com/dshills/shellpane/internal/renderer"
	"github.com/dshills/shellpane/internal/renderer/core"
)

// MessageType indicates the type of status message.
type MessageType int

const (
	MessageNone MessageType = iota
	MessageInfo
	MessageWarning
	MessageError
)

// StatusLine renders the bottom status line including prompts.
type StatusLine struct {
	focus    string
	summary  string
	progress string

	message     string
	messageType MessageType

	promptActive bool
	promptText   string
	promptInput  string
	promptIsText bool
}

// New creates a new status line.
func New() *StatusLine {
	return &StatusLine{focus: "browser"}
}

// SetFocus updates the focused pane label.
func (s *StatusLine) SetFocus(name string) {
	s.focus = name
}

// SetSummary sets the browser summary, e.g. "12 items, 2 marked".
func (s *StatusLine) SetSummary(summary string) {
	s.summary = summary
}

// SetProgress sets the right-aligned progress text. Empty hides it.
func (s *StatusLine) SetProgress(progress string) {
	s.progress = progress
}

// Progress returns the progress text.
func (s *StatusLine) Progress() string {
	return s.progress
}

// SetMessage displays a status message until replaced or cleared.
func (s *StatusLine) SetMessage(msg string, msgType MessageType) {
	s.message = msg
	s.messageType = msgType
}

// Message returns the current message and its type.
func (s *StatusLine) Message() (string, MessageType) {
	return s.message, s.messageType
}

// ClearMessage clears the status message.
func (s *StatusLine) ClearMessage() {
	s.message = ""
	s.messageType = MessageNone
}

// SetPrompt shows a prompt in place of the status bar. With input set,
// the typed text follows the question and the cursor is placed after it.
func (s *StatusLine) SetPrompt(text, input string, isInput bool) {
	s.promptActive = true
	s.promptText = text
	s.promptInput = input
	s.promptIsText = isInput
}

// ClearPrompt removes the prompt.
func (s *StatusLine) ClearPrompt() {
	s.promptActive = false
	s.promptText = ""
	s.promptInput = ""
	s.promptIsText = false
}

// Render draws the line onto c, which should be a single row.
func (s *StatusLine) Render(c renderer.Canvas, theme renderer.Theme) {
	if s.promptActive {
		s.renderPrompt(c, theme)
		return
	}

	style := theme.Status
	switch s.messageType {
	case MessageWarning:
		style = theme.Warning
	case MessageError:
		style = theme.Error
	}
	c.FillRow(0, theme.Status)

	col := c.Text(0, 0, " "+s.focus+" ", theme.TitleFocused)
	col = c.Text(col+1, 0, s.summary, theme.Status)

	right := c.Width()
	if s.progress != "" {
		right = c.TextRight(0, s.progress+" ", theme.Status)
	}
	if s.message != "" {
		avail := right - col - 3
		if avail > 0 {
			c.Text(col+2, 0, core.Truncate(s.message, avail, "…"), style)
		}
	}
}

func (s *StatusLine) renderPrompt(c renderer.Canvas, theme renderer.Theme) {
	c.FillRow(0, theme.Normal)
	col := c.Text(0, 0, s.promptText, theme.Prompt)
	if !s.promptIsText {
		c.Text(col, 0, " [y/N]", theme.Prompt)
		return
	}
	col = c.Text(col+1, 0, s.promptInput, theme.Normal)
	c.ShowCursor(col, 0)
}
