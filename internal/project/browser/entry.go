package browser

import (
	"io/fs"
	"strings"
	"time"
)

// Kind classifies a directory entry.
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// DirEntry is an immutable snapshot of one item in a listing.
type DirEntry struct {
	Name    string
	Path    string
	Kind    Kind
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode

	// Target is the link text for symlinks.
	Target string
	// TargetIsDir is set for symlinks that resolve to a directory.
	TargetIsDir bool
}

// IsDir reports whether the entry can be entered.
func (e DirEntry) IsDir() bool {
	return e.Kind == KindDir || (e.Kind == KindSymlink && e.TargetIsDir)
}

// Hidden reports whether the entry is a dotfile.
func (e DirEntry) Hidden() bool {
	return strings.HasPrefix(e.Name, ".")
}
