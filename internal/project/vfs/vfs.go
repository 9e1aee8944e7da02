// Package vfs is the filesystem surface used by the browser and search.
//
// OSFS talks to the real filesystem. MemFS is an in-memory tree for tests
// that can also be told to fail specific paths.
package vfs

import (
	"io"
	"io/fs"
	"time"
)

// FS enumerates and reads files.
type FS interface {
	// ReadDir lists a directory. Entries describe the link itself for
	// symlinks, as Lstat would.
	ReadDir(path string) ([]FileInfo, error)

	// Stat describes path, following symlinks.
	Stat(path string) (FileInfo, error)

	// Lstat describes path without following a final symlink.
	Lstat(path string) (FileInfo, error)

	// Readlink returns the target of a symlink.
	Readlink(path string) (string, error)

	// Abs returns an absolute, clean form of path.
	Abs(path string) (string, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// WalkDir walks the tree rooted at root in lexical order. Symlinks
	// are reported but not followed.
	WalkDir(root string, fn WalkDirFunc) error
}

// FileInfo describes a file, directory or symlink.
type FileInfo struct {
	path    string
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

// NewFileInfo creates a FileInfo.
func NewFileInfo(path, name string, size int64, mode fs.FileMode, modTime time.Time) FileInfo {
	return FileInfo{path: path, name: name, size: size, mode: mode, modTime: modTime}
}

// Path returns the full path.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the base name.
func (fi FileInfo) Name() string { return fi.name }

// Size returns the size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode returns the file mode.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir reports whether this is a directory.
func (fi FileInfo) IsDir() bool { return fi.mode.IsDir() }

// IsRegular reports whether this is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.mode.IsRegular() }

// IsSymlink reports whether this is a symbolic link.
func (fi FileInfo) IsSymlink() bool { return fi.mode&fs.ModeSymlink != 0 }

// WalkDirFunc is called for each path visited by WalkDir. Returning SkipDir
// from a directory skips it; SkipAll stops the walk.
type WalkDirFunc func(path string, info FileInfo, err error) error

var (
	// SkipDir skips the directory being visited.
	SkipDir = fs.SkipDir
	// SkipAll stops the walk.
	SkipAll = fs.SkipAll
)
