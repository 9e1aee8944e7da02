package fileop

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyExists is returned when a destination path is taken.
	// Nothing is written for that source.
	ErrAlreadyExists = errors.New("destination already exists")

	// ErrInvalidDestination is returned when the destination is missing,
	// not a directory, or inside the source.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrPartial is matched by errors from operations where some sources
	// succeeded and others failed.
	ErrPartial = errors.New("operation partially failed")

	// ErrNoSources is returned by Submit for an operation without sources.
	ErrNoSources = errors.New("no sources")

	// ErrUnknownKind is returned by Submit for an unsupported Kind.
	ErrUnknownKind = errors.New("unknown operation kind")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("executor closed")
)

// OpError records the source path a step failed on.
type OpError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// PartialError is the error of an operation where only some sources
// succeeded.
type PartialError struct {
	Succeeded int
	Errs      []error
}

func (e *PartialError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d of %d failed: %s",
		len(e.Errs), len(e.Errs)+e.Succeeded, strings.Join(msgs, "; "))
}

// Is matches ErrPartial.
func (e *PartialError) Is(target error) bool {
	return target == ErrPartial
}

// Unwrap returns the per-source errors.
func (e *PartialError) Unwrap() []error {
	return e.Errs
}
