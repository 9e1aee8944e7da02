package browser

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrNotDirectory     = errors.New("not a directory")

	// ErrNoHistory is returned by Back and Forward at the end of history.
	ErrNoHistory = errors.New("no more history")

	// ErrInvalidFilter is returned for a filter that is not a valid glob.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNoSubmitter is returned by RequestOperation when the browser has
	// no executor to hand operations to.
	ErrNoSubmitter = errors.New("no operation executor")

	// ErrNothingSelected is returned when an operation has no sources.
	ErrNothingSelected = errors.New("nothing selected")
)

// ListError reports a directory that could not be listed.
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}
