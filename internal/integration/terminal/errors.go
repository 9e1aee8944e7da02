package terminal

import "errors"

// ErrInvalidSize is returned when a resize asks for fewer than one row or
// column.
var ErrInvalidSize = errors.New("invalid terminal size")
