package vfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS implements FS on the operating system's filesystem.
type OSFS struct{}

// NewOSFS creates an OS filesystem.
func NewOSFS() *OSFS {
	return &OSFS{}
}

var _ FS = (*OSFS)(nil)

// ReadDir lists a directory. Entries that vanish between listing and stat
// are skipped.
func (f *OSFS) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fromOS(filepath.Join(path, entry.Name()), info))
	}
	return infos, nil
}

// Stat describes path, following symlinks.
func (f *OSFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, info), nil
}

// Lstat describes path without following a final symlink.
func (f *OSFS) Lstat(path string) (FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, info), nil
}

// Readlink returns the target of a symlink.
func (f *OSFS) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

// Abs returns the absolute path.
func (f *OSFS) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// Open opens a file for reading.
func (f *OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// WalkDir walks the tree rooted at root.
func (f *OSFS) WalkDir(root string, fn WalkDirFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fn(path, FileInfo{}, err)
		}
		info, err := d.Info()
		if err != nil {
			return fn(path, FileInfo{}, err)
		}
		return fn(path, fromOS(path, info), nil)
	})
}

func fromOS(path string, info os.FileInfo) FileInfo {
	return NewFileInfo(path, info.Name(), info.Size(), info.Mode(), info.ModTime())
}
