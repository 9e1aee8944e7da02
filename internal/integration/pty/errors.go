package pty

import "errors"

var (
	// ErrSpawnFailed is returned when the shell cannot be started.
	ErrSpawnFailed = errors.New("spawn failed")

	// ErrIOClosed is returned by Write after the child exits or the session
	// is closed.
	ErrIOClosed = errors.New("pty closed")

	// ErrInvalidSize is returned when a resize asks for fewer than one row
	// or column.
	ErrInvalidSize = errors.New("invalid pty size")
)
