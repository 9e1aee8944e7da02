package app

import (
	"errors"
	"fmt"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/input/key"
	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/renderer/backend"
	"github.com/dshills/shellpane/internal/renderer/statusline"
)

// frame runs one loop iteration: drain every source without blocking,
// then paint.
func (app *Application) frame(events <-chan backend.Event) error {
	app.drainShell()
	app.drainOps()
	app.drainWatcher()
	app.drainSearch()
	if err := app.drainEvents(events); err != nil {
		return err
	}
	app.draw()
	return nil
}

// drainShell feeds pending PTY output to the emulator in arrival order.
func (app *Application) drainShell() {
	if app.shell == nil || app.shellGone {
		return
	}
drain:
	for i := 0; app.shellOut != nil && i < maxChunksPerFrame; i++ {
		select {
		case chunk, ok := <-app.shellOut:
			if !ok {
				app.shellOut = nil
				break drain
			}
			app.emulator.Feed(chunk)
			app.metrics.RecordShellOutput(len(chunk))
		default:
			break drain
		}
	}
	if app.shellOut == nil && app.shell.Exited() {
		app.shellExited()
	}
}

func (app *Application) drainOps() {
	events := app.executor.Events()
	for i := 0; i < maxOpEventsPerFrame; i++ {
		select {
		case ev := <-events:
			app.handleOpEvent(ev)
		default:
			return
		}
	}
}

func (app *Application) handleOpEvent(ev fileop.Event) {
	app.metrics.RecordOpEvent()
	if !ev.Status.Terminal() {
		app.trackOp(ev)
		return
	}
	app.untrackOp(ev.ID)

	switch ev.Status {
	case fileop.StatusCompleted:
		app.notify(fmt.Sprintf("%s finished: %d item(s)", ev.Kind, ev.ItemsTotal), statusline.MessageInfo)
	case fileop.StatusCancelled:
		app.notify(fmt.Sprintf("%s cancelled", ev.Kind), statusline.MessageWarning)
	default:
		app.logger.Warn("operation failed", "id", ev.ID, "kind", ev.Kind.String(), "error", ev.Err)
		app.notifyError(&OperationError{Op: ev.Kind.String(), Err: ev.Err})
	}
	app.refresh()
}

// trackOp records the latest event of a running operation.
func (app *Application) trackOp(ev fileop.Event) {
	for i := range app.ops {
		if app.ops[i].ID == ev.ID {
			app.ops[i] = ev
			app.updateProgress()
			return
		}
	}
	app.ops = append(app.ops, ev)
	app.updateProgress()
}

func (app *Application) untrackOp(id string) {
	for i := range app.ops {
		if app.ops[i].ID == id {
			app.ops = append(app.ops[:i], app.ops[i+1:]...)
			break
		}
	}
	app.updateProgress()
}

// updateProgress shows the oldest running operation and how many more
// are queued behind it.
func (app *Application) updateProgress() {
	if len(app.ops) == 0 {
		app.status.SetProgress("")
		return
	}
	first := app.ops[0]
	s := fmt.Sprintf("%s %d%%", first.Kind, first.Percent())
	if n := len(app.ops) - 1; n > 0 {
		s += fmt.Sprintf(" +%d", n)
	}
	app.status.SetProgress(s)
}

func (app *Application) drainWatcher() {
	if app.watcher == nil {
		return
	}
	changes, errs := app.watcher.Changes(), app.watcher.Errors()
	for {
		select {
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.Dir == app.browser.Dir() {
				app.logger.Debug("directory changed", "dir", ch.Dir, "events", ch.Events)
				app.refresh()
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			app.logger.Warn("watcher error", "error", err)
		default:
			return
		}
	}
}

func (app *Application) drainEvents(events <-chan backend.Event) error {
	for i := 0; i < maxEventsPerFrame; i++ {
		select {
		case ev, ok := <-events:
			if !ok || ev.Type == backend.EventClosed {
				return ErrBackendClosed
			}
			app.metrics.RecordEvent()
			if err := app.handleEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (app *Application) handleEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventResize:
		app.resize(ev.Width, ev.Height)
	case backend.EventKey:
		return app.handleKey(ev.Key)
	case backend.EventPaste:
		return app.apply(app.router.Paste(ev.Text, app.emulator))
	case backend.EventFocus:
		app.logger.Debug("host focus", "focused", ev.Focused)
	}
	return nil
}

func (app *Application) handleKey(ev key.Event) error {
	return app.apply(app.router.Route(ev, app.emulator))
}

// apply carries out a routed action. Only ErrQuit is returned; every
// other failure ends up in the status line.
func (app *Application) apply(act input.Action) error {
	switch act.Kind {
	case input.ActionToggleFocus:
		app.focusChanged()
	case input.ActionWrite:
		// typing returns the view to the live screen
		app.termScroll = 0
		app.writeShell(act.Bytes)
	case input.ActionCommand:
		err := app.runCommand(act.Command)
		if errors.Is(err, ErrQuit) {
			return err
		}
		if err != nil {
			app.notifyError(err)
		}
	case input.ActionConfirm:
		app.confirm(act)
	case input.ActionDeny:
		app.deny(act)
	case input.ActionSubmit:
		if err := app.submit(act); err != nil {
			app.notifyError(err)
		}
	}
	return nil
}

// focusChanged keeps the browser focused while there is no shell to type
// into.
func (app *Application) focusChanged() {
	if app.router.Focus() != input.FocusTerminal {
		return
	}
	if !app.shellAlive() {
		app.router.ReturnToBrowser()
		app.notify("the shell has exited", statusline.MessageWarning)
		return
	}
	if !app.showTerminal {
		app.toggleTerminal()
	}
}
