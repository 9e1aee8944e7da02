package fileop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// worker carries the state of one running operation. It is owned by a
// single goroutine.
type worker struct {
	ctx   context.Context
	op    Operation
	chunk int
	buf   []byte
	ev    Event
	emit  func(context.Context, Event)

	// per-source totals, used to advance progress on a rename
	sizes  []int64
	counts []int
}

// plan fills in the totals by walking every source without following
// symlinks. Unreadable paths are skipped here and reported when executed.
func (w *worker) plan() {
	if w.op.Kind == KindDelete {
		w.ev.ItemsTotal = len(w.op.Sources)
		return
	}
	w.sizes = make([]int64, len(w.op.Sources))
	w.counts = make([]int, len(w.op.Sources))
	for i, src := range w.op.Sources {
		_ = filepath.WalkDir(src, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			w.counts[i]++
			if d.Type().IsRegular() {
				if info, err := d.Info(); err == nil {
					w.sizes[i] += info.Size()
				}
			}
			return nil
		})
		w.ev.BytesTotal += w.sizes[i]
		w.ev.ItemsTotal += w.counts[i]
	}
}

func (w *worker) execute() error {
	var dest string
	if w.op.Kind != KindDelete {
		var err error
		if dest, err = checkDest(w.op.Dest); err != nil {
			return err
		}
	}

	var errs []error
	succeeded := 0
	for i, src := range w.op.Sources {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		var err error
		switch w.op.Kind {
		case KindCopy:
			err = w.copySource(src, dest)
		case KindMove:
			err = w.moveSource(i, src, dest)
		case KindDelete:
			err = w.deleteSource(src)
		}
		if err != nil {
			if cerr := w.ctx.Err(); cerr != nil {
				return cerr
			}
			errs = append(errs, &OpError{Kind: w.op.Kind, Path: src, Err: err})
			continue
		}
		succeeded++
	}
	return joinSourceErrors(errs, succeeded)
}

func checkDest(dest string) (string, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidDestination, dest)
	}
	return abs, nil
}

// target validates src against dest and returns the path src would take.
func target(src, dest string) (string, fs.FileInfo, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() && within(dest, abs) {
		return "", nil, fmt.Errorf("%w: %s is inside %s", ErrInvalidDestination, dest, abs)
	}
	dst := filepath.Join(dest, filepath.Base(abs))
	if _, err := os.Lstat(dst); err == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrAlreadyExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", nil, err
	}
	return dst, info, nil
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (w *worker) copySource(src, dest string) error {
	dst, info, err := target(src, dest)
	if err != nil {
		return err
	}
	return w.copyTree(src, dst, info)
}

func (w *worker) moveSource(i int, src, dest string) error {
	dst, info, err := target(src, dest)
	if err != nil {
		return err
	}
	w.ev.Current = src
	err = os.Rename(src, dst)
	if err == nil {
		w.ev.BytesDone += w.sizes[i]
		w.ev.ItemsDone += w.counts[i]
		w.emit(w.ctx, w.ev)
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	if err := w.copyTree(src, dst, info); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func (w *worker) deleteSource(src string) error {
	if _, err := os.Lstat(src); err != nil {
		return err
	}
	w.ev.Current = src
	if err := os.RemoveAll(src); err != nil {
		return err
	}
	w.ev.ItemsDone++
	w.emit(w.ctx, w.ev)
	return nil
}

func (w *worker) copyTree(src, dst string, info fs.FileInfo) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.ev.Current = src
	mode := info.Mode()

	switch {
	case mode&fs.ModeSymlink != 0:
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		if err := os.Symlink(link, dst); err != nil {
			return err
		}
		w.ev.ItemsDone++
		return nil

	case mode.IsDir():
		if err := os.Mkdir(dst, mode.Perm()|0o700); err != nil {
			return err
		}
		w.ev.ItemsDone++
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			child, err := entry.Info()
			if err != nil {
				return err
			}
			name := entry.Name()
			if err := w.copyTree(filepath.Join(src, name), filepath.Join(dst, name), child); err != nil {
				return err
			}
		}
		return os.Chmod(dst, mode.Perm())

	case mode.IsRegular():
		return w.copyFile(src, dst, mode.Perm())

	default:
		return fmt.Errorf("unsupported file type %s", mode.Type())
	}
}

func (w *worker) copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if w.buf == nil {
		w.buf = make([]byte, w.chunk)
	}

	for {
		if err := w.ctx.Err(); err != nil {
			out.Close()
			return err
		}
		n, rerr := in.Read(w.buf)
		if n > 0 {
			if _, err := out.Write(w.buf[:n]); err != nil {
				out.Close()
				return err
			}
			w.ev.BytesDone += int64(n)
			w.emit(w.ctx, w.ev)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return rerr
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	w.ev.ItemsDone++
	// OpenFile is subject to the umask
	return os.Chmod(dst, perm)
}
