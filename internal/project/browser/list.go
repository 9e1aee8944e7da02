package browser

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/dshills/shellpane/internal/project/vfs"
)

// List reads dir and returns its entries, directories first and then by
// name. Hidden entries are included. Symlinks are reported as such, with
// their target resolved to decide whether they can be entered.
func List(fsys vfs.FS, dir string) ([]DirEntry, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, &ListError{Path: dir, Err: classify(err)}
	}

	entries := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		e := DirEntry{
			Name:    info.Name(),
			Path:    info.Path(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
		switch {
		case info.IsSymlink():
			e.Kind = KindSymlink
			e.Target, _ = fsys.Readlink(e.Path)
			if st, err := fsys.Stat(e.Path); err == nil {
				e.TargetIsDir = st.IsDir()
			}
		case info.IsDir():
			e.Kind = KindDir
			e.Size = 0
		default:
			e.Kind = KindFile
		}
		entries = append(entries, e)
	}
	sortEntries(entries, SortName, false)
	return entries, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, syscall.ENOTDIR):
		return ErrNotDirectory
	default:
		return err
	}
}
