// Package browser is the file system model behind the browser pane.
//
// A Browser holds the current directory listing, the cursor, the set of
// marked entries and the view policy (sort, hidden files, filter). It is
// not safe for concurrent use; the render loop owns it. After every
// mutation the cursor is within the listing, or zero when the listing is
// empty, and marks only refer to existing entries.
package browser

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/project/vfs"
)

const (
	historyLimit    = 100
	defaultPageSize = 10
)

// Submitter accepts background file operations.
type Submitter interface {
	Submit(op fileop.Operation) (fileop.Handle, error)
}

// Options configures a Browser.
type Options struct {
	Dir        string
	ShowHidden bool
	Sort       SortKey
	Reverse    bool
	Filter     string
	PageSize   int
	Submitter  Submitter
	Logger     *logging.Logger
}

// Result tells the caller what Navigate did.
type Result struct {
	// Entered is set when the browser changed directory.
	Entered bool
	// Open is the path of a non-directory entry to hand to an Opener.
	Open string
}

// Browser is the state of the file browser pane.
type Browser struct {
	fs        vfs.FS
	submitter Submitter
	logger    *logging.Logger

	dir      string
	all      []DirEntry
	entries  []DirEntry
	selected int
	marks    map[int]struct{}

	sortKey    SortKey
	reverse    bool
	showHidden bool
	filterText string
	filter     glob.Glob
	pageSize   int

	back    []string
	forward []string
	status  string
}

// New creates a browser listing opts.Dir, or the working directory.
func New(fsys vfs.FS, opts Options) (*Browser, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	b := &Browser{
		fs:         fsys,
		submitter:  opts.Submitter,
		logger:     opts.Logger.WithComponent("browser"),
		marks:      make(map[int]struct{}),
		sortKey:    opts.Sort,
		reverse:    opts.Reverse,
		showHidden: opts.ShowHidden,
		pageSize:   opts.PageSize,
	}
	if err := b.SetFilter(opts.Filter); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := fsys.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := b.load(abs); err != nil {
		return nil, err
	}
	return b, nil
}

// Dir returns the current directory.
func (b *Browser) Dir() string { return b.dir }

// Entries returns the visible entries. The slice must not be modified.
func (b *Browser) Entries() []DirEntry { return b.entries }

// Len returns the number of visible entries.
func (b *Browser) Len() int { return len(b.entries) }

// Selected returns the cursor index.
func (b *Browser) Selected() int { return b.selected }

// Current returns the entry under the cursor.
func (b *Browser) Current() (DirEntry, bool) {
	if len(b.entries) == 0 {
		return DirEntry{}, false
	}
	return b.entries[b.selected], true
}

// Status returns the status message.
func (b *Browser) Status() string { return b.status }

// SetStatus replaces the status message.
func (b *Browser) SetStatus(msg string) { b.status = msg }

func (b *Browser) SortKey() SortKey   { return b.sortKey }
func (b *Browser) Reversed() bool     { return b.reverse }
func (b *Browser) ShowHidden() bool   { return b.showHidden }
func (b *Browser) Filter() string     { return b.filterText }
func (b *Browser) CanGoBack() bool    { return len(b.back) > 0 }
func (b *Browser) CanGoForward() bool { return len(b.forward) > 0 }

// SetPageSize sets the distance moved by Page.
func (b *Browser) SetPageSize(n int) {
	if n > 0 {
		b.pageSize = n
	}
}

// Select moves the cursor to index, clamped to the listing.
func (b *Browser) Select(index int) {
	b.selected = index
	b.clamp()
}

// Move moves the cursor by delta entries.
func (b *Browser) Move(delta int) { b.Select(b.selected + delta) }

// Page moves the cursor by delta pages.
func (b *Browser) Page(delta int) { b.Move(delta * b.pageSize) }

// Home moves the cursor to the first entry.
func (b *Browser) Home() { b.Select(0) }

// End moves the cursor to the last entry.
func (b *Browser) End() { b.Select(len(b.entries) - 1) }

// SelectName moves the cursor to the entry called name.
func (b *Browser) SelectName(name string) bool {
	for i, e := range b.entries {
		if e.Name == name {
			b.selected = i
			return true
		}
	}
	return false
}

// ToggleMark flips the mark on the entry at index.
func (b *Browser) ToggleMark(index int) {
	if index < 0 || index >= len(b.entries) {
		return
	}
	if _, ok := b.marks[index]; ok {
		delete(b.marks, index)
	} else {
		b.marks[index] = struct{}{}
	}
	b.status = b.summary()
}

// ClearMarks removes every mark.
func (b *Browser) ClearMarks() {
	clear(b.marks)
	b.status = b.summary()
}

// IsMarked reports whether the entry at index is marked.
func (b *Browser) IsMarked(index int) bool {
	_, ok := b.marks[index]
	return ok
}

// Marked returns the marked indices in ascending order.
func (b *Browser) Marked() []int {
	out := make([]int, 0, len(b.marks))
	for i := range b.marks {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SelectedPaths returns the marked entries' paths, or the path under the
// cursor when nothing is marked.
func (b *Browser) SelectedPaths() []string {
	if len(b.marks) > 0 {
		idx := b.Marked()
		paths := make([]string, len(idx))
		for i, m := range idx {
			paths[i] = b.entries[m].Path
		}
		return paths
	}
	if e, ok := b.Current(); ok {
		return []string{e.Path}
	}
	return nil
}

// Navigate activates the entry at index. Directories and links to them
// are entered; anything else is returned for opening. When the directory
// cannot be listed the browser stays where it is and the error is kept
// as the status message.
func (b *Browser) Navigate(index int) (Result, error) {
	if len(b.entries) == 0 {
		return Result{}, nil
	}
	b.Select(index)
	e := b.entries[b.selected]
	if !e.IsDir() {
		return Result{Open: e.Path}, nil
	}
	if err := b.visit(e.Path); err != nil {
		return Result{}, err
	}
	return Result{Entered: true}, nil
}

// Enter navigates the entry under the cursor.
func (b *Browser) Enter() (Result, error) {
	return b.Navigate(b.selected)
}

// ChangeDir enters path, resolved against the current directory.
func (b *Browser) ChangeDir(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}
	abs, err := b.fs.Abs(path)
	if err != nil {
		b.status = err.Error()
		return err
	}
	if abs == b.dir {
		return b.Refresh()
	}
	return b.visit(abs)
}

// Parent enters the parent directory and puts the cursor on the
// directory just left.
func (b *Browser) Parent() error {
	parent := filepath.Dir(b.dir)
	if parent == b.dir {
		return nil
	}
	child := filepath.Base(b.dir)
	if err := b.visit(parent); err != nil {
		return err
	}
	b.SelectName(child)
	return nil
}

// Back returns to the previous directory.
func (b *Browser) Back() error {
	if len(b.back) == 0 {
		return ErrNoHistory
	}
	prev := b.back[len(b.back)-1]
	from := b.dir
	if err := b.load(prev); err != nil {
		b.status = err.Error()
		return err
	}
	b.back = b.back[:len(b.back)-1]
	b.forward = push(b.forward, from)
	b.SelectName(filepath.Base(from))
	return nil
}

// Forward undoes a Back.
func (b *Browser) Forward() error {
	if len(b.forward) == 0 {
		return ErrNoHistory
	}
	next := b.forward[len(b.forward)-1]
	from := b.dir
	if err := b.load(next); err != nil {
		b.status = err.Error()
		return err
	}
	b.forward = b.forward[:len(b.forward)-1]
	b.back = push(b.back, from)
	return nil
}

// Refresh re-reads the current directory. The cursor and marks follow
// their entries by name; a cursor whose entry is gone keeps its index,
// clamped. When the directory itself is gone the browser moves to the
// nearest existing ancestor.
func (b *Browser) Refresh() error {
	entries, err := List(b.fs, b.dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return b.ascend()
		}
		b.status = err.Error()
		return err
	}
	b.all = entries
	b.rebuild()
	return nil
}

// CycleSort switches to the next sort key.
func (b *Browser) CycleSort() {
	b.sortKey = b.sortKey.Next()
	b.rebuild()
	b.status = fmt.Sprintf("sort: %s", b.sortDescription())
}

// ToggleReverse flips the sort direction.
func (b *Browser) ToggleReverse() {
	b.reverse = !b.reverse
	b.rebuild()
	b.status = fmt.Sprintf("sort: %s", b.sortDescription())
}

// ToggleHidden shows or hides dotfiles.
func (b *Browser) ToggleHidden() {
	b.showHidden = !b.showHidden
	b.rebuild()
}

// SetFilter restricts the visible files to those matching the glob
// pattern. Directories are always shown. An empty pattern clears the
// filter.
func (b *Browser) SetFilter(pattern string) error {
	if pattern == "" {
		b.filterText, b.filter = "", nil
	} else {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidFilter, pattern, err)
		}
		b.filterText, b.filter = pattern, g
	}
	if b.all != nil {
		b.rebuild()
	}
	return nil
}

// RequestOperation hands an operation to the executor without waiting
// for it. Delete must already be confirmed by the caller.
func (b *Browser) RequestOperation(kind fileop.Kind, sources []string, dest string) (fileop.Handle, error) {
	if b.submitter == nil {
		return fileop.Handle{}, ErrNoSubmitter
	}
	if len(sources) == 0 {
		b.status = ErrNothingSelected.Error()
		return fileop.Handle{}, ErrNothingSelected
	}
	h, err := b.submitter.Submit(fileop.Operation{Kind: kind, Sources: sources, Dest: dest})
	if err != nil {
		b.status = fmt.Sprintf("%s: %v", kind, err)
		return fileop.Handle{}, err
	}
	b.logger.Debug("operation requested", "id", h.ID, "kind", kind.String(), "sources", len(sources))
	b.status = fmt.Sprintf("%s: %d item(s) queued", kind, len(sources))
	return h, nil
}

// visit enters dir and records the move in history.
func (b *Browser) visit(dir string) error {
	from := b.dir
	if err := b.load(dir); err != nil {
		b.status = err.Error()
		b.logger.Debug("cannot enter directory", "dir", dir, "error", err)
		return err
	}
	if from != "" && from != dir {
		b.back = push(b.back, from)
		b.forward = b.forward[:0]
	}
	return nil
}

// load replaces the listing with dir. The state is untouched on error.
func (b *Browser) load(dir string) error {
	entries, err := List(b.fs, dir)
	if err != nil {
		return err
	}
	b.dir = dir
	b.all = entries
	b.entries = nil
	b.selected = 0
	clear(b.marks)
	b.rebuild()
	return nil
}

func (b *Browser) ascend() error {
	missing := b.dir
	for dir := filepath.Dir(b.dir); ; dir = filepath.Dir(dir) {
		if err := b.load(dir); err == nil {
			b.status = fmt.Sprintf("%s no longer exists", missing)
			return nil
		}
		if filepath.Dir(dir) == dir {
			err := &ListError{Path: missing, Err: ErrNotFound}
			b.status = err.Error()
			return err
		}
	}
}

// rebuild recomputes the visible entries from the last listing, carrying
// the cursor and marks over by name.
func (b *Browser) rebuild() {
	var current string
	if e, ok := b.Current(); ok {
		current = e.Name
	}
	marked := make(map[string]bool, len(b.marks))
	for i := range b.marks {
		if i < len(b.entries) {
			marked[b.entries[i].Name] = true
		}
	}

	visible := make([]DirEntry, 0, len(b.all))
	for _, e := range b.all {
		if !b.showHidden && e.Hidden() {
			continue
		}
		if b.filter != nil && !e.IsDir() && !b.filter.Match(e.Name) {
			continue
		}
		visible = append(visible, e)
	}
	sortEntries(visible, b.sortKey, b.reverse)
	b.entries = visible

	clear(b.marks)
	for i, e := range b.entries {
		if marked[e.Name] {
			b.marks[i] = struct{}{}
		}
	}
	if current != "" {
		b.SelectName(current)
	}
	b.clamp()
	b.status = b.summary()
}

func (b *Browser) clamp() {
	n := len(b.entries)
	switch {
	case n == 0:
		b.selected = 0
	case b.selected >= n:
		b.selected = n - 1
	case b.selected < 0:
		b.selected = 0
	}
	for i := range b.marks {
		if i >= n {
			delete(b.marks, i)
		}
	}
}

func (b *Browser) summary() string {
	s := fmt.Sprintf("%d items", len(b.entries))
	if n := len(b.marks); n > 0 {
		s += fmt.Sprintf(", %d marked", n)
	}
	return s
}

func (b *Browser) sortDescription() string {
	if b.reverse {
		return b.sortKey.String() + " (desc)"
	}
	return b.sortKey.String()
}

func push(stack []string, dir string) []string {
	stack = append(stack, dir)
	if len(stack) > historyLimit {
		stack = stack[len(stack)-historyLimit:]
	}
	return stack
}
