// Package fileop runs copy, move and delete operations in the background.
//
// Operations are submitted to an Executor, which runs each one in its own
// goroutine under a concurrency cap and reports progress on a single
// bounded event channel. Events for one operation arrive in the order they
// were issued and the terminal event (Completed, Failed or Cancelled) is
// always the last one.
//
// Delete is destructive and unconditional. Callers are expected to obtain
// confirmation before submitting it.
package fileop

import "fmt"

// Kind identifies the operation type.
type Kind uint8

const (
	KindCopy Kind = iota
	KindMove
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindMove:
		return "move"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k <= KindDelete
}

// Status is the lifecycle state of an operation.
type Status uint8

const (
	StatusQueued Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow this status.
func (s Status) Terminal() bool {
	return s >= StatusCompleted
}

// Operation describes a unit of work. For copy and move, Dest is the
// directory that receives each source under its base name. Dest is
// ignored for delete.
type Operation struct {
	ID      string
	Kind    Kind
	Sources []string
	Dest    string
}

// Event reports the state of an operation.
type Event struct {
	ID         string
	Kind       Kind
	Status     Status
	BytesDone  int64
	BytesTotal int64
	ItemsDone  int
	ItemsTotal int
	Current    string
	Err        error
}

// Percent returns progress in the range 0..100. Byte counts are used when
// available, else item counts.
func (e Event) Percent() int {
	switch {
	case e.BytesTotal > 0:
		return int(e.BytesDone * 100 / e.BytesTotal)
	case e.ItemsTotal > 0:
		return e.ItemsDone * 100 / e.ItemsTotal
	case e.Status == StatusCompleted:
		return 100
	default:
		return 0
	}
}

// Handle refers to a submitted operation.
type Handle struct {
	ID     string
	cancel func()
}

// Cancel requests cancellation. It is safe to call after the operation
// has finished.
func (h Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}
