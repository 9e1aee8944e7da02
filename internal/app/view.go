package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/integration/terminal"
	"github.com/dshills/shellpane/internal/project/browser"
	"github.com/dshills/shellpane/internal/renderer"
	"github.com/dshills/shellpane/internal/renderer/core"
)

const sizeColumn = 9

// draw paints every pane and flushes the frame.
func (app *Application) draw() {
	if !app.messageUntil.IsZero() && time.Now().After(app.messageUntil) {
		app.status.ClearMessage()
		app.messageUntil = time.Time{}
	}

	app.backend.HideCursor()
	canvas := renderer.NewCanvas(app.backend)
	focus := app.router.Focus()
	prompt := app.router.Prompt()

	app.drawBrowser(canvas.Sub(app.layout.Browser), focus == input.FocusBrowser)
	app.drawTerminal(canvas.Sub(app.layout.Terminal), focus == input.FocusTerminal && prompt == nil)
	app.drawStatus(canvas.Sub(app.layout.Status), focus, prompt)

	if app.needSync {
		app.needSync = false
		app.backend.Sync()
		return
	}
	app.backend.Show()
}

func (app *Application) titleStyle(focused bool) core.Style {
	if focused {
		return app.theme.TitleFocused
	}
	return app.theme.Title
}

func (app *Application) drawBrowser(c renderer.Canvas, focused bool) {
	if c.Height() == 0 {
		return
	}
	title := app.browser.Dir()
	if f := app.browser.Filter(); f != "" {
		title += " [" + f + "]"
	}
	if app.results != nil {
		title = fmt.Sprintf("search %q in %s", app.results.query, app.results.root)
	}
	c.FillRow(0, app.titleStyle(focused))
	c.Text(1, 0, core.Truncate(title, c.Width()-2, "…"), app.titleStyle(focused))

	body := c.Sub(core.Rect(c.Rect().Left, c.Rect().Top+1, c.Width(), c.Height()-1))
	body.Fill(app.theme.Normal)
	if app.results != nil {
		app.drawResults(body, focused)
		return
	}

	entries := app.browser.Entries()
	if len(entries) == 0 {
		body.Text(1, 0, "(empty)", app.theme.Placeholder)
		return
	}
	app.listTop = scrollTop(app.listTop, app.browser.Selected(), body.Height(), len(entries))
	for y := 0; y < body.Height() && app.listTop+y < len(entries); y++ {
		i := app.listTop + y
		app.drawEntry(body, y, entries[i], app.browser.IsMarked(i), i == app.browser.Selected(), focused)
	}
}

// drawEntry draws one listing row: mark, name, size and modified time,
// dropping columns on narrow panes.
func (app *Application) drawEntry(c renderer.Canvas, y int, e browser.DirEntry, marked, selected, focused bool) {
	style := app.theme.Normal
	switch {
	case marked:
		style = app.theme.Marked
	case e.Kind == browser.KindSymlink:
		style = app.theme.Symlink
	case e.IsDir():
		style = app.theme.Directory
	}
	if selected {
		style = app.theme.CursorDimmed
		if focused {
			style = app.theme.Cursor
		}
		c.FillRow(y, style)
	}

	mark := " "
	if marked {
		mark = "*"
	}
	name := e.Name
	switch {
	case e.Kind == browser.KindSymlink:
		name += " -> " + e.Target
	case e.IsDir():
		name += "/"
	}

	width := c.Width()
	var cols string
	if width >= 40 {
		cols = core.PadLeft(browser.FormatSize(e), sizeColumn) + " " + browser.FormatModTime(e.ModTime)
	} else if width >= 20 {
		cols = core.PadLeft(browser.FormatSize(e), sizeColumn)
	}
	nameWidth := width - 2 - core.StringWidth(cols)
	if cols != "" {
		nameWidth--
	}
	x := c.Text(0, y, mark, style)
	c.Text(x+1, y, core.Truncate(name, nameWidth, "…"), style)
	if cols != "" {
		c.TextRight(y, cols, style)
	}
}

func (app *Application) drawResults(c renderer.Canvas, focused bool) {
	r := app.results
	if len(r.items) == 0 {
		msg := "no matches"
		if r.running {
			msg = "searching…"
		}
		c.Text(1, 0, msg, app.theme.Placeholder)
		return
	}
	r.top = scrollTop(r.top, r.selected, c.Height(), len(r.items))
	for y := 0; y < c.Height() && r.top+y < len(r.items); y++ {
		i := r.top + y
		res := r.items[i]
		style := app.theme.Normal
		if i == r.selected {
			style = app.theme.CursorDimmed
			if focused {
				style = app.theme.Cursor
			}
			c.FillRow(y, style)
		}
		rel, err := filepath.Rel(r.root, res.Path)
		if err != nil {
			rel = res.Path
		}
		line := fmt.Sprintf("%s:%d: %s", rel, res.Line, strings.TrimSpace(res.Text))
		c.Text(1, y, core.Truncate(line, c.Width()-1, "…"), style)
	}
}

func (app *Application) drawTerminal(c renderer.Canvas, focused bool) {
	if c.Height() == 0 {
		return
	}
	title := "shell"
	if t := app.emulator.Title(); t != "" {
		title = t
	}
	if !app.shellAlive() {
		title += " (exited)"
	}

	var history []terminal.Line
	if app.termScroll > 0 && !app.emulator.AltScreen() {
		history = app.emulator.Scrollback()
		// the scrollback may have been cleared since
		app.termScroll = min(app.termScroll, len(history))
	}
	scrolled := app.termScroll > 0 && len(history) > 0
	if scrolled {
		title += fmt.Sprintf(" [-%d]", app.termScroll)
	}
	c.FillRow(0, app.titleStyle(focused))
	c.Text(1, 0, core.Truncate(title, c.Width()-2, "…"), app.titleStyle(focused))

	body := c.Sub(core.Rect(c.Rect().Left, c.Rect().Top+1, c.Width(), c.Height()-1))
	if scrolled {
		renderer.DrawScrollback(body, history, app.emulator.Snapshot(), app.termScroll, app.theme.Normal)
		return
	}
	renderer.DrawSnapshot(body, app.emulator.Snapshot(), app.theme.Normal, focused && app.shellAlive())
}

func (app *Application) drawStatus(c renderer.Canvas, focus input.Focus, prompt *input.Prompt) {
	app.status.SetFocus(focus.String())
	summary := app.browser.Status()
	if app.results != nil {
		summary = fmt.Sprintf("%d matches", len(app.results.items))
		if app.results.running {
			summary += "…"
		}
	}
	app.status.SetSummary(summary)
	if prompt != nil {
		app.status.SetPrompt(prompt.Message, prompt.Input, prompt.Kind == input.PromptInput)
	} else {
		app.status.ClearPrompt()
	}
	app.status.Render(c, app.theme)
}

// scrollTop returns the first visible row so that selected stays within
// a window of height rows.
func scrollTop(top, selected, height, n int) int {
	if height <= 0 || n <= height {
		return 0
	}
	if selected < top {
		top = selected
	}
	if selected >= top+height {
		top = selected - height + 1
	}
	return min(max(top, 0), n-height)
}
