package fileop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/shellpane/internal/logging"
)

// Config configures the executor.
type Config struct {
	// MaxConcurrent is the number of operations running at once.
	MaxConcurrent int

	// ChunkSize is the copy buffer size. One progress event is emitted per chunk.
	ChunkSize int

	// EventBuffer is the capacity of the event channel.
	EventBuffer int
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 2,
		ChunkSize:     256 * 1024,
		EventBuffer:   256,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = def.EventBuffer
	}
	return c
}

// Executor runs file operations in the background.
type Executor struct {
	config Config
	logger *logging.Logger
	sem    *semaphore.Weighted
	events chan Event

	mu     sync.Mutex
	jobs   map[string]context.CancelFunc
	closed bool
	wg     sync.WaitGroup

	// abandon is closed when Close gives up waiting, releasing workers
	// blocked on a terminal event nobody will read.
	abandon     chan struct{}
	abandonOnce sync.Once
}

// NewExecutor creates an executor. A nil logger discards.
func NewExecutor(cfg Config, logger *logging.Logger) *Executor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{
		config:  cfg,
		logger:  logger.WithComponent("fileop"),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		events:  make(chan Event, cfg.EventBuffer),
		jobs:    make(map[string]context.CancelFunc),
		abandon: make(chan struct{}),
	}
}

// Events returns the channel all operations report on. It is closed by a
// Close that finished waiting for every operation.
func (e *Executor) Events() <-chan Event {
	return e.events
}

// Submit starts op in the background and returns without blocking. An
// empty ID is replaced with a generated one.
func (e *Executor) Submit(op Operation) (Handle, error) {
	if !op.Kind.valid() {
		return Handle{}, fmt.Errorf("%w: %d", ErrUnknownKind, op.Kind)
	}
	if len(op.Sources) == 0 {
		return Handle{}, ErrNoSources
	}
	if op.Kind != KindDelete && op.Dest == "" {
		return Handle{}, fmt.Errorf("%w: empty destination", ErrInvalidDestination)
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	op.Sources = append([]string(nil), op.Sources...)

	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return Handle{}, ErrClosed
	}
	if _, dup := e.jobs[op.ID]; dup {
		e.mu.Unlock()
		cancel()
		return Handle{}, fmt.Errorf("operation %s already running", op.ID)
	}
	e.jobs[op.ID] = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Debug("operation submitted", "id", op.ID, "kind", op.Kind.String(), "sources", len(op.Sources))
	go e.run(ctx, cancel, op)

	id := op.ID
	return Handle{ID: id, cancel: func() { e.Cancel(id) }}, nil
}

// Cancel requests cancellation of the operation with the given ID. It
// reports whether the operation was still active.
func (e *Executor) Cancel(id string) bool {
	e.mu.Lock()
	cancel, ok := e.jobs[id]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// CancelAll requests cancellation of every active operation.
func (e *Executor) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cancel := range e.jobs {
		cancel()
	}
}

// Active returns the number of operations that have not finished.
func (e *Executor) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

// Close stops accepting work, cancels everything in flight and waits for
// the workers until ctx is done. The event channel is closed only when all
// workers finished in time.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for _, cancel := range e.jobs {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(e.events)
		return nil
	case <-ctx.Done():
		e.abandonOnce.Do(func() { close(e.abandon) })
		e.logger.Warn("abandoning operations", "active", e.Active())
		return ctx.Err()
	}
}

func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, op Operation) {
	defer e.wg.Done()
	defer cancel()
	defer func() {
		e.mu.Lock()
		delete(e.jobs, op.ID)
		e.mu.Unlock()
	}()

	w := &worker{
		ctx:   ctx,
		op:    op,
		chunk: e.config.ChunkSize,
		ev:    Event{ID: op.ID, Kind: op.Kind, Status: StatusQueued},
		emit:  e.progress,
	}

	e.progress(ctx, w.ev)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		w.ev.Status = StatusCancelled
		e.finish(w.ev)
		return
	}
	defer e.sem.Release(1)

	w.ev.Status = StatusRunning
	w.plan()
	e.progress(ctx, w.ev)

	err := w.execute()
	final := w.ev
	final.Current = ""
	switch {
	case err == nil:
		final.Status = StatusCompleted
		// sources may have changed size since planning
		final.BytesTotal = final.BytesDone
		final.ItemsTotal = final.ItemsDone
	case ctx.Err() != nil:
		final.Status = StatusCancelled
	default:
		final.Status = StatusFailed
		final.Err = err
	}
	e.finish(final)

	switch final.Status {
	case StatusFailed:
		e.logger.Warn("operation failed", "id", op.ID, "kind", op.Kind.String(), "error", err)
	default:
		e.logger.Info("operation finished", "id", op.ID, "kind", op.Kind.String(),
			"status", final.Status.String(), "bytes", final.BytesDone, "items", final.ItemsDone)
	}
}

// progress sends a non-terminal event, giving up when ctx is cancelled.
func (e *Executor) progress(ctx context.Context, ev Event) {
	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}

// finish delivers the terminal event. It only gives up when Close has
// abandoned the executor.
func (e *Executor) finish(ev Event) {
	select {
	case e.events <- ev:
	case <-e.abandon:
	}
}

// joinSourceErrors turns per-source failures into the operation error.
func joinSourceErrors(errs []error, succeeded int) error {
	switch {
	case len(errs) == 0:
		return nil
	case succeeded > 0:
		return &PartialError{Succeeded: succeeded, Errs: errs}
	case len(errs) == 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
