package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrBackendClosed is returned by Run when the display goes away
	// underneath the loop.
	ErrBackendClosed = errors.New("display closed")

	// ErrShellRunning is reported when respawn is asked for while the
	// shell is alive.
	ErrShellRunning = errors.New("shell is still running")

	// ErrNothingToPaste is reported by paste without a prior copy or cut.
	ErrNothingToPaste = errors.New("nothing to paste")

	// ErrNoBookmark is reported for a bookmark number with no directory
	// configured.
	ErrNoBookmark = errors.New("no such bookmark")
)

// OperationError describes a failed user-facing operation: a file
// operation, opening a file, changing directory.
type OperationError struct {
	Op     string // e.g. "copy", "open", "cd"
	Target string // path, when known
	Err    error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InitError is a startup failure of one component. It ends the process.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
