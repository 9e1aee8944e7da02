// Package watcher notices changes to the directory shown in the browser.
//
// A Watcher follows one directory at a time. Raw fsnotify events for that
// directory are coalesced: a burst of changes produces a single Change once
// the directory has been quiet for the debounce delay, or once MaxWait has
// passed since the first change of the burst, whichever comes first.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/shellpane/internal/logging"
)

var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrPathNotExist  = errors.New("path does not exist")
)

// Op is a set of file system operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// String returns the names of the operations in the set.
func (op Op) String() string {
	if op == 0 {
		return "NONE"
	}
	var s string
	for _, o := range []struct {
		op   Op
		name string
	}{{OpCreate, "CREATE"}, {OpWrite, "WRITE"}, {OpRemove, "REMOVE"}, {OpRename, "RENAME"}, {OpChmod, "CHMOD"}} {
		if op.Has(o.op) {
			if s != "" {
				s += "|"
			}
			s += o.name
		}
	}
	return s
}

// Has returns true if the set includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Change is a debounced notification that Dir should be re-listed.
type Change struct {
	Dir string
	// Ops is the union of the coalesced operations.
	Ops Op
	// Events is the number of raw events coalesced.
	Events int
	// Removed is set when the watched directory itself went away.
	Removed bool
}

// Config holds watcher options.
type Config struct {
	// Delay is the quiet period before a Change is delivered. Default: 150ms
	Delay time.Duration

	// MaxWait bounds how long a continuous burst can postpone a Change.
	// Default: 1s
	MaxWait time.Duration

	// BufferSize is the capacity of the Changes channel. Default: 16
	BufferSize int

	// IgnoreChmod drops events that only change permissions.
	IgnoreChmod bool

	Logger *logging.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Delay:       150 * time.Millisecond,
		MaxWait:     time.Second,
		BufferSize:  16,
		IgnoreChmod: true,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Config) { c.Delay = d }
}

// WithMaxWait sets the longest a burst can delay delivery.
func WithMaxWait(d time.Duration) Option {
	return func(c *Config) { c.MaxWait = d }
}

// WithBufferSize sets the channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Watcher watches a single directory.
type Watcher struct {
	fsw    *fsnotify.Watcher
	config Config
	logger *logging.Logger

	mu      sync.Mutex
	dir     string
	pending Change
	first   time.Time
	timer   *time.Timer
	closed  bool

	changes chan Change
	errors  chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher that is not yet watching anything.
func New(opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	def := DefaultConfig()
	if config.Delay <= 0 {
		config.Delay = def.Delay
	}
	if config.MaxWait < config.Delay {
		config.MaxWait = config.Delay
	}
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		config:  config,
		logger:  config.Logger.WithComponent("watcher"),
		changes: make(chan Change, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// SetDir switches the watch to dir. Pending changes for the previous
// directory are discarded.
func (w *Watcher) SetDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "watch", Path: abs, Err: errors.New("not a directory")}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if abs == w.dir {
		return nil
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	if w.dir != "" {
		// the old directory may already be gone
		_ = w.fsw.Remove(w.dir)
	}
	w.dir = abs
	w.resetPending()
	w.logger.Debug("watching", "dir", abs)
	return nil
}

// Dir returns the watched directory, or "" before the first SetDir.
func (w *Watcher) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Changes returns the debounced notifications. It is closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Flush delivers a pending change immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fire()
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.resetPending()
	w.mu.Unlock()

	w.wg.Wait()
	close(w.changes)
	close(w.errors)
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 || (w.config.IgnoreChmod && op == OpChmod) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.dir == "" {
		return
	}
	name := filepath.Clean(ev.Name)
	if name != w.dir && filepath.Dir(name) != w.dir {
		return
	}

	now := time.Now()
	if w.pending.Events == 0 {
		w.pending.Dir = w.dir
		w.first = now
	}
	w.pending.Ops |= op
	w.pending.Events++
	if name == w.dir && op&(OpRemove|OpRename) != 0 {
		w.pending.Removed = true
	}

	wait := w.config.Delay
	if left := w.config.MaxWait - now.Sub(w.first); left < wait {
		wait = max(left, 0)
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(wait, w.fire)
	} else {
		w.timer.Reset(wait)
	}
}

// fire hands the pending change to the consumer. When the channel is full
// a change is already queued and this one is dropped. The send happens
// under the lock so it cannot race with Close.
func (w *Watcher) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.pending.Events == 0 {
		return
	}
	change := w.pending
	w.pending = Change{}

	select {
	case w.changes <- change:
	default:
		w.logger.Debug("change dropped, consumer behind", "dir", change.Dir)
	}
}

// resetPending drops the current burst. Callers hold w.mu.
func (w *Watcher) resetPending() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = Change{}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
