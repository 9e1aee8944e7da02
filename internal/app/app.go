// Package app wires shellpane together: the file browser, the embedded
// shell and its emulator, the operation executor and the display. A
// single goroutine, the frame loop in Run, owns all of their state.
// Background work (PTY reads, input polling, file operations, directory
// watching, content search) reaches the loop only through channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"

	"github.com/dshills/shellpane/internal/config"
	"github.com/dshills/shellpane/internal/input"
	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/integration/pty"
	"github.com/dshills/shellpane/internal/integration/terminal"
	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/project/browser"
	"github.com/dshills/shellpane/internal/project/search"
	"github.com/dshills/shellpane/internal/project/vfs"
	"github.com/dshills/shellpane/internal/project/watcher"
	"github.com/dshills/shellpane/internal/renderer"
	"github.com/dshills/shellpane/internal/renderer/backend"
	"github.com/dshills/shellpane/internal/renderer/statusline"
)

const (
	fallbackShell   = "/bin/sh"
	shutdownTimeout = 500 * time.Millisecond
	messageLifetime = 5 * time.Second
	eventBuffer     = 256

	// per-frame drain limits keep one busy source from starving the rest
	maxChunksPerFrame   = 64
	maxEventsPerFrame   = 128
	maxOpEventsPerFrame = 256
	maxResultsPerFrame  = 512
)

// Shell is the embedded shell session. *pty.Session implements it.
type Shell interface {
	Output() <-chan []byte
	Done() <-chan struct{}
	ExitCode() int
	Exited() bool
	Write(p []byte) (int, error)
	Resize(rows, cols int) error
	Close() error
}

// ShellStarter starts a shell. Errors wrapping pty.ErrSpawnFailed make
// the application retry with /bin/sh.
type ShellStarter func(opts pty.Options) (Shell, error)

// StartPTY is the default ShellStarter.
func StartPTY(opts pty.Options) (Shell, error) {
	s, err := pty.Open(opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options configures the application.
type Options struct {
	// Config holds the validated settings. Nil uses config.Default().
	Config *config.Config

	// Dir is the starting directory. Empty uses the working directory.
	Dir string

	// Backend is the display. Required.
	Backend backend.Backend

	// FS lists directories and feeds search. Nil uses the OS.
	FS vfs.FS

	// StartShell starts the embedded shell. Nil uses StartPTY.
	StartShell ShellStarter

	// Opener opens non-directory entries. Nil uses the desktop opener.
	Opener browser.Opener

	// Clipboard receives yanked paths. Nil uses the system clipboard.
	Clipboard func(text string) error

	// Watch refreshes the listing when the directory changes on disk.
	Watch bool

	Logger *logging.Logger
}

// yankRegister holds the paths of the last copy or cut.
type yankRegister struct {
	kind  fileop.Kind
	paths []string
}

// Application is the running program.
type Application struct {
	cfg     *config.Config
	logger  *logging.Logger
	backend backend.Backend

	browser  *browser.Browser
	executor *fileop.Executor
	searcher *search.Searcher
	watcher  *watcher.Watcher
	router   *input.Router
	emulator *terminal.Emulator
	status   *statusline.StatusLine

	theme       renderer.Theme
	orientation renderer.Orientation
	split       float64
	layout      renderer.Layout
	needSync    bool
	// showTerminal is false while the terminal pane is collapsed
	showTerminal bool
	// termScroll is how many lines the terminal view is scrolled back
	termScroll int

	startShell ShellStarter
	shell      Shell
	shellOut   <-chan []byte
	shellGone  bool

	opener    browser.Opener
	clipboard func(string) error

	yank          yankRegister
	pendingDelete []string
	ops           []fileop.Event
	results       *resultsView
	listTop       int
	messageUntil  time.Time

	metrics *Metrics
	running atomic.Bool
	done    chan struct{}
}

// New builds the application. Nothing is drawn and no shell is started
// until Run.
func New(opts Options) (*Application, error) {
	if opts.Backend == nil {
		return nil, &InitError{Component: "backend", Err: errors.New("no backend")}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = vfs.NewOSFS()
	}

	app := &Application{
		cfg:        cfg,
		logger:     logger.WithComponent("app"),
		backend:    opts.Backend,
		startShell: opts.StartShell,
		opener:     opts.Opener,
		clipboard:  opts.Clipboard,
		status:     statusline.New(),
		metrics:    NewMetrics(),
		done:       make(chan struct{}),

		showTerminal: true,
	}
	if app.startShell == nil {
		app.startShell = StartPTY
	}
	if app.opener == nil {
		app.opener = browser.SystemOpener{}
	}
	if app.clipboard == nil {
		app.clipboard = clipboard.WriteAll
	}

	var err error
	if app.theme, err = renderer.NewTheme(cfg.ThemeColors()); err != nil {
		return nil, &InitError{Component: "theme", Err: err}
	}
	if app.orientation, app.split, err = cfg.Layout(); err != nil {
		return nil, &InitError{Component: "layout", Err: err}
	}
	if app.router, err = cfg.Router(logger); err != nil {
		return nil, &InitError{Component: "keys", Err: err}
	}

	app.executor = fileop.NewExecutor(cfg.Executor(), logger)
	bopts, err := cfg.BrowserOptions(opts.Dir)
	if err != nil {
		app.closeExecutor()
		return nil, &InitError{Component: "browser", Err: err}
	}
	bopts.Submitter = app.executor
	bopts.Logger = logger
	if app.browser, err = browser.New(fsys, bopts); err != nil {
		app.closeExecutor()
		return nil, &InitError{Component: "browser", Err: err}
	}

	app.searcher = search.New(fsys, logger)
	app.emulator = terminal.New(24, 80,
		terminal.WithScrollback(cfg.Shell.Scrollback),
		terminal.WithResponder(app.writeShell),
		terminal.WithUnknownHandler(func(seq string) {
			app.logger.Debug("unhandled sequence", "seq", seq)
		}),
	)

	if opts.Watch {
		w, err := watcher.New(watcher.WithLogger(logger))
		if err != nil {
			app.logger.Warn("directory watching disabled", "error", err)
		} else {
			app.watcher = w
		}
	}
	return app, nil
}

// Run draws and handles input until quit, ctx cancellation or a display
// failure. Quit and cancellation return nil. Everything started here is
// torn down before Run returns.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := app.backend.Init(); err != nil {
		app.running.Store(false)
		return &InitError{Component: "backend", Err: err}
	}
	defer app.shutdown()

	w, h := app.backend.Size()
	app.layout = app.computeLayout(w, h)
	if err := app.spawnShell(); err != nil {
		return err
	}
	app.resize(w, h)
	app.watchDir()
	events := app.pollEvents()

	fps := app.cfg.UI.FPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	app.logger.Info("started", "dir", app.browser.Dir(), "fps", fps)
	for {
		start := time.Now()
		if err := app.frame(events); err != nil {
			if errors.Is(err, ErrQuit) {
				app.logger.Info("quit requested")
				return nil
			}
			return err
		}
		app.metrics.RecordFrame(time.Since(start))

		select {
		case <-ctx.Done():
			app.logger.Info("stopping", "cause", context.Cause(ctx))
			return nil
		case <-ticker.C:
		}
	}
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Metrics returns the loop metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// shutdown stops background work and restores the display. Operations
// get a short grace period and are abandoned after it.
func (app *Application) shutdown() {
	close(app.done)
	if app.results != nil {
		app.results.cancel()
	}
	app.closeExecutor()
	if app.shell != nil {
		if err := app.shell.Close(); err != nil {
			app.logger.Debug("closing shell", "error", err)
		}
	}
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.logger.Debug("closing watcher", "error", err)
		}
	}
	app.backend.Shutdown()

	m := app.metrics.Snapshot()
	app.logger.Info("stopped",
		"uptime", m.Uptime.Round(time.Millisecond).String(),
		"frames", m.Frames,
		"avg_frame", m.AvgFrame.String(),
		"max_frame", m.MaxFrame.String(),
		"shell_bytes", m.ShellBytes,
	)
	app.running.Store(false)
}

func (app *Application) closeExecutor() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.executor.Close(ctx); err != nil {
		app.logger.Warn("operations still running at exit", "error", err)
	}
}

// pollEvents forwards backend events to a bounded channel. The send
// blocks rather than dropping keys; Shutdown unblocks PollEvent.
func (app *Application) pollEvents() <-chan backend.Event {
	events := make(chan backend.Event, eventBuffer)
	go func() {
		defer close(events)
		for {
			ev := app.backend.PollEvent()
			select {
			case events <- ev:
			case <-app.done:
				return
			}
			if ev.Type == backend.EventClosed {
				return
			}
		}
	}()
	return events
}

// spawnShell starts a shell in the browser's directory, sized to the
// terminal pane.
func (app *Application) spawnShell() error {
	rows, cols := app.termSize()
	opts := pty.Options{
		Shell:        app.cfg.Shell.Program,
		Args:         app.cfg.Shell.Args,
		Dir:          app.browser.Dir(),
		Rows:         rows,
		Cols:         cols,
		OutputBuffer: app.cfg.Shell.OutputBuffer,
		Logger:       app.logger,
	}
	sh, err := app.startShell(opts)
	if err != nil && errors.Is(err, pty.ErrSpawnFailed) && opts.Shell != fallbackShell {
		app.logger.Warn("shell failed to start, trying "+fallbackShell, "shell", opts.Shell, "error", err)
		opts.Shell, opts.Args = fallbackShell, nil
		sh, err = app.startShell(opts)
	}
	if err != nil {
		return &InitError{Component: "shell", Err: err}
	}

	app.shell, app.shellOut, app.shellGone = sh, sh.Output(), false
	if err := app.emulator.Resize(rows, cols); err != nil {
		app.logger.Debug("emulator resize", "error", err)
	}
	return nil
}

// respawnShell replaces an exited shell with a new one.
func (app *Application) respawnShell() error {
	if app.shellAlive() {
		return ErrShellRunning
	}
	app.emulator.Reset()
	app.termScroll = 0
	if !app.showTerminal {
		app.showTerminal = true
		app.resize(app.layout.Width, app.layout.Height)
	}
	if err := app.spawnShell(); err != nil {
		return err
	}
	app.router.SetFocus(input.FocusTerminal)
	app.notify("shell restarted", statusline.MessageInfo)
	return nil
}

func (app *Application) shellAlive() bool {
	return app.shell != nil && !app.shellGone && !app.shell.Exited()
}

// writeShell sends input to the shell. Output after exit is dropped.
func (app *Application) writeShell(b []byte) {
	if len(b) == 0 || !app.shellAlive() {
		return
	}
	if _, err := app.shell.Write(b); err != nil && !errors.Is(err, pty.ErrIOClosed) {
		app.logger.Warn("shell write failed", "error", err)
		app.notifyError(&OperationError{Op: "write to shell", Err: err})
	}
}

// shellExited runs once, after the output channel closed and the child
// was reaped.
func (app *Application) shellExited() {
	code := app.shell.ExitCode()
	app.shellGone = true
	if err := app.shell.Close(); err != nil {
		app.logger.Debug("closing exited shell", "error", err)
	}
	if app.emulator.AltScreen() {
		app.emulator.Feed([]byte("\x1b[?1049l"))
	}
	app.emulator.Feed(fmt.Appendf(nil, "\r\n[process exited (code %d)]", code))
	app.router.ReturnToBrowser()

	msg := fmt.Sprintf("shell exited with code %d", code)
	if keys := app.router.Keymap().Keys(input.CmdRespawnShell); len(keys) > 0 {
		msg += "; " + keys[0] + " restarts it"
	}
	app.notify(msg, statusline.MessageWarning)
	app.logger.Info("shell exited", "code", code)
}

// termSize is the terminal pane's content size, at least 1x1.
func (app *Application) termSize() (rows, cols int) {
	body := app.layout.TerminalContent()
	return max(body.Height(), 1), max(body.Width(), 1)
}

// computeLayout splits the screen, collapsing the terminal pane when it is
// hidden.
func (app *Application) computeLayout(width, height int) renderer.Layout {
	l := renderer.ComputeLayout(width, height, app.orientation, app.split)
	if !app.showTerminal {
		l = l.HideTerminal()
	}
	return l
}

// resize recomputes the layout and resizes the PTY, then the emulator.
// A size the PTY rejects leaves both at their previous size, which is
// also how a hidden terminal keeps its size.
func (app *Application) resize(width, height int) {
	app.layout = app.computeLayout(width, height)
	app.browser.SetPageSize(max(app.layout.BrowserContent().Height(), 1))
	app.needSync = true

	body := app.layout.TerminalContent()
	rows, cols := body.Height(), body.Width()
	if app.shellAlive() {
		if err := app.shell.Resize(rows, cols); err != nil {
			if errors.Is(err, pty.ErrInvalidSize) {
				app.logger.Debug("ignoring resize", "rows", rows, "cols", cols)
				return
			}
			if !errors.Is(err, pty.ErrIOClosed) {
				app.logger.Warn("pty resize failed", "error", err)
			}
		}
	}
	if err := app.emulator.Resize(rows, cols); err != nil {
		app.logger.Debug("ignoring resize", "rows", rows, "cols", cols, "error", err)
	}
}
