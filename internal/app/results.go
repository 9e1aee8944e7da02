package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/project/search"
	"github.com/dshills/shellpane/internal/renderer/statusline"
)

// resultsView replaces the listing while a content search is shown.
type resultsView struct {
	query    string
	root     string
	items    []search.Result
	selected int
	top      int
	running  bool
	ch       <-chan search.Result
	cancel   context.CancelFunc
}

func (app *Application) lastQuery() string {
	if app.results != nil {
		return app.results.query
	}
	return ""
}

// startSearch searches the current directory and opens the results view.
// A search already running is cancelled.
func (app *Application) startSearch(text string) error {
	if text == "" {
		return nil
	}
	app.closeResults()

	ctx, cancel := context.WithCancel(context.Background())
	q := app.cfg.Query(app.browser.Dir(), text)
	ch, err := app.searcher.Run(ctx, q)
	if err != nil {
		cancel()
		return &OperationError{Op: "search", Target: app.browser.Dir(), Err: err}
	}
	app.results = &resultsView{
		query:   text,
		root:    app.browser.Dir(),
		running: true,
		ch:      ch,
		cancel:  cancel,
	}
	app.notify(fmt.Sprintf("searching for %q", text), statusline.MessageInfo)
	return nil
}

func (app *Application) drainSearch() {
	r := app.results
	if r == nil || !r.running {
		return
	}
	for i := 0; i < maxResultsPerFrame; i++ {
		select {
		case res, ok := <-r.ch:
			if !ok {
				r.running = false
				r.cancel()
				app.notify(fmt.Sprintf("%d match(es) for %q", len(r.items), r.query), statusline.MessageInfo)
				return
			}
			r.items = append(r.items, res)
		default:
			return
		}
	}
}

func (app *Application) closeResults() {
	if app.results == nil {
		return
	}
	app.results.cancel()
	app.results = nil
}

// resultsCommand handles cmd in the results view and reports whether it
// did.
func (app *Application) resultsCommand(cmd input.Command) bool {
	r := app.results
	page := max(app.layout.BrowserContent().Height(), 1)
	switch cmd {
	case input.CmdUp:
		r.move(-1)
	case input.CmdDown:
		r.move(1)
	case input.CmdPageUp:
		r.move(-page)
	case input.CmdPageDown:
		r.move(page)
	case input.CmdTop:
		r.selected = 0
	case input.CmdBottom:
		r.selected = max(len(r.items)-1, 0)
	case input.CmdOpen:
		app.jumpToResult()
	case input.CmdClose:
		app.closeResults()
	default:
		return false
	}
	return true
}

func (r *resultsView) move(delta int) {
	r.selected = min(max(r.selected+delta, 0), max(len(r.items)-1, 0))
}

// jumpToResult enters the directory of the selected match and puts the
// cursor on its file.
func (app *Application) jumpToResult() {
	r := app.results
	if len(r.items) == 0 {
		return
	}
	target := r.items[r.selected].Path
	app.closeResults()
	_ = app.browse(func() error {
		if err := app.browser.ChangeDir(filepath.Dir(target)); err != nil {
			return err
		}
		app.browser.SelectName(filepath.Base(target))
		return nil
	})
}
