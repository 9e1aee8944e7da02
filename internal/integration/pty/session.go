// Package pty runs the embedded shell on a pseudo-terminal.
//
// A Session owns the child process and the PTY master. Output is read by a
// background goroutine and delivered as chunks on a bounded channel that is
// closed exactly once, when the child is gone.
package pty

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/dshills/shellpane/internal/logging"
)

const (
	defaultRows         = 24
	defaultCols         = 80
	defaultOutputBuffer = 64
	readBufferSize      = 32 * 1024
	maxSize             = math.MaxUint16

	// drainTimeout bounds how long output is read after the shell has
	// been reaped. Jobs it left running may hold the terminal open.
	drainTimeout = 250 * time.Millisecond
	closeTimeout = 2 * time.Second
)

// Options configures a new session.
type Options struct {
	// Shell is the program to run. Defaults to $SHELL, then /bin/sh.
	Shell string

	// Args are passed to the shell.
	Args []string

	// Dir is the working directory of the shell.
	Dir string

	// Env is appended to the inherited environment.
	Env []string

	// Rows and Cols are the initial size (default 24x80).
	Rows int
	Cols int

	// OutputBuffer is the capacity of the output channel (default 64).
	OutputBuffer int

	// Logger receives lifecycle messages. Nil discards.
	Logger *logging.Logger
}

// Session is a running shell attached to a PTY.
type Session struct {
	id     string
	cmd    *exec.Cmd
	master *os.File
	logger *logging.Logger

	mu   sync.Mutex // guards writes and size
	rows int
	cols int

	output     chan []byte
	readerDone chan struct{}
	done       chan struct{}
	closing    chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
	exitCode  atomic.Int32
}

// DefaultShell returns $SHELL, or /bin/sh when it is unset.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Open spawns the shell on a new PTY.
func Open(opts Options) (*Session, error) {
	if opts.Shell == "" {
		opts.Shell = DefaultShell()
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = defaultCols
	}
	opts.Rows = min(opts.Rows, maxSize)
	opts.Cols = min(opts.Cols, maxSize)
	if opts.OutputBuffer <= 0 {
		opts.OutputBuffer = defaultOutputBuffer
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	path, err := exec.LookPath(opts.Shell)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, opts.Shell, err)
	}

	cmd := exec.Command(path, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, opts.Env...)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, opts.Shell, err)
	}
	if master, err = pollable(master); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, opts.Shell, err)
	}

	s := &Session{
		id:         uuid.New().String(),
		cmd:        cmd,
		master:     master,
		rows:       opts.Rows,
		cols:       opts.Cols,
		output:     make(chan []byte, opts.OutputBuffer),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
		closing:    make(chan struct{}),
	}
	s.logger = opts.Logger.WithComponent("pty").WithField("session", s.id)
	s.exitCode.Store(-1)

	go s.readLoop()
	go s.waitLoop()

	s.logger.Info("shell started", "shell", path, "pid", cmd.Process.Pid, "dir", opts.Dir)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// PID returns the shell's process ID.
func (s *Session) PID() int {
	if s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// Output returns the channel of output chunks. It is closed once the child
// has exited and its output has been delivered. Jobs the shell left behind
// do not keep it open for longer than a short drain period.
func (s *Session) Output() <-chan []byte {
	return s.output
}

// Done returns a channel closed when the child has been reaped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ExitCode returns the child's exit code, or -1 while it is running.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// Exited reports whether the child has been reaped.
func (s *Session) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Write sends input to the shell.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() || s.Exited() {
		return 0, ErrIOClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.master.Write(p)
	if err != nil {
		if errors.Is(err, os.ErrClosed) {
			return n, ErrIOClosed
		}
		return n, fmt.Errorf("pty write: %w", err)
	}
	return n, nil
}

// WriteString sends a string to the shell.
func (s *Session) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Resize changes the PTY window size. The previous size is kept on error.
func (s *Session) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 || rows > maxSize || cols > maxSize {
		return ErrInvalidSize
	}
	if s.closed.Load() {
		return ErrIOClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rows == s.rows && cols == s.cols {
		return nil
	}
	if err := setsize(s.master, rows, cols); err != nil {
		return fmt.Errorf("pty resize: %w", err)
	}
	s.rows, s.cols = rows, cols
	return nil
}

// Size returns the last size applied to the PTY.
func (s *Session) Size() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.cols
}

// Close hangs up every process group in the shell's session, releases the
// PTY and waits, for a bounded time, for the reader and the child. It is
// safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closing)

		if pid := s.PID(); pid > 0 {
			if herr := hangup(pid); herr != nil {
				s.logger.Debug("hangup failed", "error", herr)
			}
			if !s.Exited() {
				_ = s.cmd.Process.Kill()
			}
		}
		// a blocked Read returns once the master is closed
		_ = s.master.SetReadDeadline(time.Now())
		err = s.master.Close()

		timeout := time.NewTimer(closeTimeout)
		defer timeout.Stop()
		for _, ch := range []chan struct{}{s.readerDone, s.done} {
			select {
			case <-ch:
			case <-timeout.C:
				s.logger.Warn("session close timed out")
				return
			}
		}
		s.logger.Info("session closed", "exit_code", s.ExitCode())
	})
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// readLoop copies PTY output into the output channel until the master
// reports EOF or EIO, which is how Linux signals that every holder of the
// terminal is gone, or until the drain deadline set after the child was
// reaped passes.
func (s *Session) readLoop() {
	defer close(s.readerDone)
	defer close(s.output)

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.master.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.output <- chunk:
			case <-s.closing:
				return
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				s.logger.Debug("output drained after shell exit")
			case !errors.Is(err, io.EOF) && !s.closed.Load():
				s.logger.Debug("pty read ended", "error", err)
			}
			return
		}
	}
}

func (s *Session) waitLoop() {
	err := s.cmd.Wait()
	if s.cmd.ProcessState != nil {
		s.exitCode.Store(int32(exitStatus(s.cmd.ProcessState)))
	}
	if err != nil && s.cmd.ProcessState == nil {
		s.logger.Warn("wait failed", "error", err)
	}
	close(s.done)

	if !s.closed.Load() {
		if err := s.master.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
			s.logger.Debug("drain deadline not set", "error", err)
		}
	}
}
