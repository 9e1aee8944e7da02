package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/project/browser"
	"github.com/dshills/shellpane/internal/renderer/statusline"
)

// runCommand executes a browser command. The results view, when open,
// takes the movement commands.
func (app *Application) runCommand(cmd input.Command) error {
	if app.results != nil && app.resultsCommand(cmd) {
		return nil
	}

	b := app.browser
	switch cmd {
	case input.CmdUp:
		b.Move(-1)
	case input.CmdDown:
		b.Move(1)
	case input.CmdPageUp:
		b.Page(-1)
	case input.CmdPageDown:
		b.Page(1)
	case input.CmdTop:
		b.Home()
	case input.CmdBottom:
		b.End()
	case input.CmdOpen:
		return app.open()
	case input.CmdParent:
		return app.browse(b.Parent)
	case input.CmdBack:
		return app.browse(b.Back)
	case input.CmdForward:
		return app.browse(b.Forward)
	case input.CmdRefresh:
		app.refresh()
	case input.CmdMark:
		b.ToggleMark(b.Selected())
		b.Move(1)
	case input.CmdClearMarks:
		b.ClearMarks()
	case input.CmdToggleHidden:
		b.ToggleHidden()
	case input.CmdSortCycle:
		b.CycleSort()
	case input.CmdSortReverse:
		b.ToggleReverse()
	case input.CmdCopy:
		return app.yankPaths(fileop.KindCopy)
	case input.CmdCut:
		return app.yankPaths(fileop.KindMove)
	case input.CmdPaste:
		return app.paste()
	case input.CmdDelete:
		app.askDelete()
	case input.CmdFilter:
		app.router.SetPrompt(input.NewInput(input.CmdFilter, "filter:", b.Filter()))
	case input.CmdSearch:
		app.router.SetPrompt(input.NewInput(input.CmdSearch, "search:", app.lastQuery()))
	case input.CmdClose:
		app.closeView()
	case input.CmdYankPath:
		return app.yankToClipboard()
	case input.CmdHomeDir:
		return app.jumpTo("~")
	case input.CmdToggleTerminal:
		app.toggleTerminal()
	case input.CmdClearTerminal:
		app.clearTerminal()
	case input.CmdScrollUp:
		app.scrollTerminal(1)
	case input.CmdScrollDown:
		app.scrollTerminal(-1)
	case input.CmdRespawnShell:
		return app.respawnShell()
	case input.CmdCancelOps:
		app.cancelAll()
	case input.CmdQuit:
		return ErrQuit
	default:
		if n, ok := cmd.Bookmark(); ok {
			return app.bookmark(n)
		}
		app.logger.Debug("unhandled command", "command", string(cmd))
	}
	return nil
}

// browse runs a browser navigation and follows up when the directory
// changed. Listing errors are already the browser's status text.
func (app *Application) browse(fn func() error) error {
	before := app.browser.Dir()
	err := fn()
	if dir := app.browser.Dir(); dir != before {
		app.dirChanged(dir)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, browser.ErrNoHistory):
		app.backend.Beep()
	case errors.Is(err, browser.ErrInvalidFilter):
		return err
	default:
		app.logger.Debug("navigation failed", "error", err)
	}
	return nil
}

// dirChanged keeps the watcher and the shell in step with the browser.
func (app *Application) dirChanged(dir string) {
	app.listTop = 0
	app.watchDir()
	app.syncShellDir(dir)
}

func (app *Application) watchDir() {
	if app.watcher == nil {
		return
	}
	if err := app.watcher.SetDir(app.browser.Dir()); err != nil {
		app.logger.Debug("cannot watch directory", "dir", app.browser.Dir(), "error", err)
	}
}

// syncShellDir sends cd to the shell unless it is running a full screen
// program.
func (app *Application) syncShellDir(dir string) {
	if !app.cfg.Shell.SyncCD || !app.shellAlive() || app.emulator.AltScreen() {
		return
	}
	app.writeShell([]byte("cd " + shellQuote(dir) + "\n"))
}

// jumpTo enters path, where a leading ~ is the home directory.
func (app *Application) jumpTo(path string) error {
	dir, err := expandHome(path)
	if err != nil {
		return &OperationError{Op: "cd", Target: path, Err: err}
	}
	return app.browse(func() error { return app.browser.ChangeDir(dir) })
}

// bookmark enters the nth configured bookmark, counted from 1.
func (app *Application) bookmark(n int) error {
	marks := app.cfg.Browser.Bookmarks
	if n > len(marks) {
		return fmt.Errorf("%w: %d", ErrNoBookmark, n)
	}
	return app.jumpTo(marks[n-1])
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (app *Application) refresh() {
	_ = app.browse(app.browser.Refresh)
}

// open enters a directory or hands a file to the opener.
func (app *Application) open() error {
	var res browser.Result
	err := app.browse(func() error {
		var err error
		res, err = app.browser.Enter()
		return err
	})
	if err != nil || res.Open == "" {
		return err
	}
	if err := app.opener.Open(res.Open); err != nil {
		return &OperationError{Op: "open", Target: res.Open, Err: err}
	}
	app.notify("opened "+filepath.Base(res.Open), statusline.MessageInfo)
	return nil
}

func (app *Application) yankPaths(kind fileop.Kind) error {
	paths := app.browser.SelectedPaths()
	if len(paths) == 0 {
		return browser.ErrNothingSelected
	}
	app.yank = yankRegister{kind: kind, paths: paths}
	verb := "copy"
	if kind == fileop.KindMove {
		verb = "move"
	}
	app.notify(fmt.Sprintf("%d item(s) ready to %s", len(paths), verb), statusline.MessageInfo)
	return nil
}

// paste submits the yanked paths into the current directory. A cut is
// consumed by its paste.
func (app *Application) paste() error {
	if len(app.yank.paths) == 0 {
		return ErrNothingToPaste
	}
	kind := app.yank.kind
	h, err := app.browser.RequestOperation(kind, app.yank.paths, app.browser.Dir())
	if err != nil {
		return &OperationError{Op: kind.String(), Err: err}
	}
	app.trackOp(fileop.Event{ID: h.ID, Kind: kind, Status: fileop.StatusQueued})
	if kind == fileop.KindMove {
		app.yank = yankRegister{}
	}
	app.browser.ClearMarks()
	return nil
}

// askDelete asks before anything is deleted. The paths are captured now
// so a refresh while the prompt is open cannot change the target.
func (app *Application) askDelete() {
	paths := app.browser.SelectedPaths()
	if len(paths) == 0 {
		return
	}
	app.pendingDelete = paths
	msg := fmt.Sprintf("delete %d items?", len(paths))
	if len(paths) == 1 {
		msg = fmt.Sprintf("delete %s?", filepath.Base(paths[0]))
	}
	app.router.SetPrompt(input.NewConfirm(input.CmdDelete, msg))
}

func (app *Application) confirm(act input.Action) {
	if act.Command != input.CmdDelete {
		return
	}
	paths := app.pendingDelete
	app.pendingDelete = nil
	h, err := app.browser.RequestOperation(fileop.KindDelete, paths, "")
	if err != nil {
		app.notifyError(&OperationError{Op: "delete", Err: err})
		return
	}
	app.trackOp(fileop.Event{ID: h.ID, Kind: fileop.KindDelete, Status: fileop.StatusQueued})
	app.browser.ClearMarks()
}

func (app *Application) deny(act input.Action) {
	if act.Command == input.CmdDelete {
		app.pendingDelete = nil
		app.notify("delete cancelled", statusline.MessageInfo)
	}
}

func (app *Application) submit(act input.Action) error {
	switch act.Command {
	case input.CmdFilter:
		if err := app.browser.SetFilter(strings.TrimSpace(act.Text)); err != nil {
			return err
		}
		app.listTop = 0
	case input.CmdSearch:
		return app.startSearch(strings.TrimSpace(act.Text))
	}
	return nil
}

// closeView backs out one level: the results view, then the filter.
func (app *Application) closeView() {
	switch {
	case app.results != nil:
		app.closeResults()
	case app.browser.Filter() != "":
		_ = app.browser.SetFilter("")
	default:
		app.status.ClearMessage()
	}
}

func (app *Application) yankToClipboard() error {
	paths := app.browser.SelectedPaths()
	if len(paths) == 0 {
		return browser.ErrNothingSelected
	}
	if err := app.clipboard(strings.Join(paths, "\n")); err != nil {
		return &OperationError{Op: "copy to clipboard", Err: err}
	}
	app.notify(fmt.Sprintf("copied %d path(s) to the clipboard", len(paths)), statusline.MessageInfo)
	return nil
}

// toggleTerminal collapses or restores the terminal pane. The shell keeps
// running while the pane is hidden.
func (app *Application) toggleTerminal() {
	app.showTerminal = !app.showTerminal
	if !app.showTerminal {
		app.router.ReturnToBrowser()
	}
	app.resize(app.layout.Width, app.layout.Height)
}

// clearTerminal blanks the terminal and its scrollback. The shell is not
// told, so its prompt reappears with the next output.
func (app *Application) clearTerminal() {
	app.emulator.Clear()
	app.termScroll = 0
	app.needSync = true
}

// scrollTerminal moves the terminal view pages screens into the
// scrollback, or back towards the live screen when pages is negative.
func (app *Application) scrollTerminal(pages int) {
	if !app.showTerminal || app.emulator.AltScreen() {
		app.backend.Beep()
		return
	}
	step := max(app.layout.TerminalContent().Height()-1, 1)
	n := len(app.emulator.Scrollback())
	next := min(max(app.termScroll+pages*step, 0), n)
	if next == app.termScroll {
		app.backend.Beep()
		return
	}
	app.termScroll = next
}

func (app *Application) cancelAll() {
	n := len(app.ops)
	app.executor.CancelAll()
	if app.results != nil && app.results.running {
		app.results.cancel()
	}
	app.notify(fmt.Sprintf("cancelling %d operation(s)", n), statusline.MessageWarning)
}

// notify shows msg in the status line for a while.
func (app *Application) notify(msg string, kind statusline.MessageType) {
	app.status.SetMessage(msg, kind)
	app.messageUntil = time.Now().Add(messageLifetime)
}

func (app *Application) notifyError(err error) {
	app.notify(err.Error(), statusline.MessageError)
}
