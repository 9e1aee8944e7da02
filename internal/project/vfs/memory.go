package vfs

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const maxLinkDepth = 40

// MemFS is an in-memory FS for tests. Paths are slash separated and rooted
// at "/". It is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
	fails map[string]error
	now   time.Time
}

type memNode struct {
	mode    fs.FileMode
	content []byte
	target  string
	modTime time.Time
}

// NewMemFS creates a filesystem containing only "/".
func NewMemFS() *MemFS {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &MemFS{
		nodes: map[string]*memNode{"/": {mode: fs.ModeDir | 0o755, modTime: now}},
		fails: make(map[string]error),
		now:   now,
	}
}

var _ FS = (*MemFS)(nil)

// AddDir creates a directory and its parents.
func (m *MemFS) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(clean(p))
}

// AddFile creates a file with content, creating parent directories.
func (m *MemFS) AddFile(p, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.mkdirAll(path.Dir(p))
	m.nodes[p] = &memNode{mode: 0o644, content: []byte(content), modTime: m.now}
}

// AddSymlink creates a symlink at p pointing to target.
func (m *MemFS) AddSymlink(p, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.mkdirAll(path.Dir(p))
	m.nodes[p] = &memNode{mode: fs.ModeSymlink | 0o777, target: target, modTime: m.now}
}

// SetModTime changes the modification time of p.
func (m *MemFS) SetModTime(p string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[clean(p)]; ok {
		n.modTime = t
	}
}

// Remove deletes p and everything below it.
func (m *MemFS) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	for k := range m.nodes {
		if k == p || strings.HasPrefix(k, p+"/") {
			delete(m.nodes, k)
		}
	}
}

// Fail makes every operation on p return err until cleared with a nil err.
func (m *MemFS) Fail(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, clean(p))
		return
	}
	m.fails[clean(p)] = err
}

// ReadDir lists the direct children of p, sorted by name.
func (m *MemFS) ReadDir(p string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	if err := m.failure("readdir", p); err != nil {
		return nil, err
	}
	resolved, n, err := m.resolve(p)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: err}
	}
	if !n.mode.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: syscall.ENOTDIR}
	}

	prefix := resolved
	if prefix != "/" {
		prefix += "/"
	}
	var infos []FileInfo
	for k, child := range m.nodes {
		if k == resolved || !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.TrimPrefix(k, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		infos = append(infos, child.info(path.Join(p, name), name))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

// Stat describes p, following symlinks.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	if err := m.failure("stat", p); err != nil {
		return FileInfo{}, err
	}
	_, n, err := m.resolve(p)
	if err != nil {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: p, Err: err}
	}
	return n.info(p, path.Base(p)), nil
}

// Lstat describes p without following a final symlink.
func (m *MemFS) Lstat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	if err := m.failure("lstat", p); err != nil {
		return FileInfo{}, err
	}
	n, ok := m.nodes[p]
	if !ok {
		return FileInfo{}, &fs.PathError{Op: "lstat", Path: p, Err: fs.ErrNotExist}
	}
	return n.info(p, path.Base(p)), nil
}

// Readlink returns the target of the symlink at p.
func (m *MemFS) Readlink(p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	n, ok := m.nodes[p]
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: p, Err: fs.ErrNotExist}
	}
	if n.mode&fs.ModeSymlink == 0 {
		return "", &fs.PathError{Op: "readlink", Path: p, Err: syscall.EINVAL}
	}
	return n.target, nil
}

// Abs cleans p and roots it at "/".
func (m *MemFS) Abs(p string) (string, error) {
	return clean(p), nil
}

// Open opens the file at p.
func (m *MemFS) Open(p string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	if err := m.failure("open", p); err != nil {
		return nil, err
	}
	_, n, err := m.resolve(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: p, Err: err}
	}
	if n.mode.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: p, Err: syscall.EISDIR}
	}
	return io.NopCloser(bytes.NewReader(n.content)), nil
}

// WalkDir walks the tree rooted at root in lexical order.
func (m *MemFS) WalkDir(root string, fn WalkDirFunc) error {
	info, err := m.Lstat(root)
	if err != nil {
		err = fn(clean(root), FileInfo{}, err)
		if err == SkipDir || err == SkipAll {
			return nil
		}
		return err
	}
	err = m.walk(info, fn)
	if err == SkipDir || err == SkipAll {
		return nil
	}
	return err
}

func (m *MemFS) walk(info FileInfo, fn WalkDirFunc) error {
	if err := fn(info.Path(), info, nil); err != nil {
		if err == SkipDir && info.IsDir() {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	children, err := m.ReadDir(info.Path())
	if err != nil {
		if err := fn(info.Path(), info, err); err != nil && err != SkipDir {
			return err
		}
		return nil
	}
	for _, child := range children {
		if err := m.walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemFS) failure(op, p string) error {
	if err, ok := m.fails[p]; ok {
		return &fs.PathError{Op: op, Path: p, Err: err}
	}
	return nil
}

// resolve follows symlinks until it reaches a non-link node.
func (m *MemFS) resolve(p string) (string, *memNode, error) {
	for i := 0; i < maxLinkDepth; i++ {
		n, ok := m.nodes[p]
		if !ok {
			return p, nil, fs.ErrNotExist
		}
		if n.mode&fs.ModeSymlink == 0 {
			return p, n, nil
		}
		target := n.target
		if !path.IsAbs(target) {
			target = path.Join(path.Dir(p), target)
		}
		p = clean(target)
	}
	return p, nil, syscall.ELOOP
}

func (m *MemFS) mkdirAll(p string) {
	for dir := p; ; dir = path.Dir(dir) {
		if _, ok := m.nodes[dir]; !ok {
			m.nodes[dir] = &memNode{mode: fs.ModeDir | 0o755, modTime: m.now}
		}
		if dir == "/" {
			return
		}
	}
}

func (n *memNode) info(p, name string) FileInfo {
	return NewFileInfo(p, name, int64(len(n.content)), n.mode, n.modTime)
}

func clean(p string) string {
	return path.Clean("/" + p)
}
