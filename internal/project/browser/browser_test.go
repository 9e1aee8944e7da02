package browser

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shellpane/internal/integration/fileop"
	"github.com/dshills/shellpane/internal/project/vfs"
)

func names(entries []DirEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func sampleFS() *vfs.MemFS {
	m := vfs.NewMemFS()
	m.AddFile("/home/u/b.txt", "bbbb")
	m.AddFile("/home/u/A.md", "a")
	m.AddFile("/home/u/c.go", "package c")
	m.AddFile("/home/u/.env", "X=1")
	m.AddDir("/home/u/zeta")
	m.AddDir("/home/u/Alpha")
	m.AddFile("/home/u/zeta/inner.txt", "i")
	m.AddSymlink("/home/u/link", "zeta")
	return m
}

func newBrowser(t *testing.T, m vfs.FS, opts Options) *Browser {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = "/home/u"
	}
	b, err := New(m, opts)
	require.NoError(t, err)
	return b
}

func assertInvariant(t *testing.T, b *Browser) {
	t.Helper()
	n := b.Len()
	if n == 0 {
		assert.Equal(t, 0, b.Selected())
	} else {
		assert.GreaterOrEqual(t, b.Selected(), 0)
		assert.Less(t, b.Selected(), n)
	}
	for _, i := range b.Marked() {
		assert.Less(t, i, n)
	}
}

func TestListOrder(t *testing.T) {
	entries, err := List(sampleFS(), "/home/u")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "link", "zeta", ".env", "A.md", "b.txt", "c.go"}, names(entries))

	link := entries[1]
	assert.Equal(t, KindSymlink, link.Kind)
	assert.Equal(t, "zeta", link.Target)
	assert.True(t, link.IsDir())
	assert.Equal(t, KindDir, entries[0].Kind)
	assert.Equal(t, int64(4), entries[5].Size)
}

func TestListTieBreak(t *testing.T) {
	m := vfs.NewMemFS()
	m.AddFile("/d/readme", "")
	m.AddFile("/d/README", "")
	m.AddFile("/d/Readme", "")

	entries, err := List(m, "/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"README", "Readme", "readme"}, names(entries))
}

func TestListErrors(t *testing.T) {
	m := sampleFS()
	m.Fail("/home/u/zeta", fs.ErrPermission)

	_, err := List(m, "/home/u/zeta")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	var le *ListError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/home/u/zeta", le.Path)

	_, err = List(m, "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = List(m, "/home/u/b.txt")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestNewHidesDotfiles(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{})
	assert.Equal(t, "/home/u", b.Dir())
	assert.NotContains(t, names(b.Entries()), ".env")
	assert.Equal(t, "6 items", b.Status())

	b.ToggleHidden()
	assert.Contains(t, names(b.Entries()), ".env")
	assert.Equal(t, "7 items", b.Status())
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(sampleFS(), Options{Dir: "/missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCursorMovement(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{PageSize: 4})

	b.Move(-3)
	assert.Equal(t, 0, b.Selected())
	b.Move(2)
	assert.Equal(t, 2, b.Selected())
	b.Page(1)
	assert.Equal(t, 5, b.Selected())
	b.Move(100)
	assert.Equal(t, 5, b.Selected())
	b.Home()
	assert.Equal(t, 0, b.Selected())
	b.End()
	assert.Equal(t, b.Len()-1, b.Selected())
	b.Select(-7)
	assert.Equal(t, 0, b.Selected())
	assertInvariant(t, b)
}

func TestEmptyDirectory(t *testing.T) {
	m := vfs.NewMemFS()
	m.AddDir("/empty")
	b := newBrowser(t, m, Options{Dir: "/empty"})

	b.Move(3)
	b.End()
	b.ToggleMark(0)
	assert.Equal(t, 0, b.Selected())
	assert.Empty(t, b.Marked())
	assert.Nil(t, b.SelectedPaths())
	_, ok := b.Current()
	assert.False(t, ok)

	res, err := b.Enter()
	assert.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, "0 items", b.Status())
}

func TestNavigate(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{})

	require.True(t, b.SelectName("b.txt"))
	res, err := b.Enter()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/b.txt", res.Open)
	assert.Equal(t, "/home/u", b.Dir())

	require.True(t, b.SelectName("link"))
	res, err = b.Enter()
	require.NoError(t, err)
	assert.True(t, res.Entered)
	assert.Equal(t, "/home/u/link", b.Dir())
	assert.Equal(t, []string{"inner.txt"}, names(b.Entries()))
}

func TestNavigateListingErrorKeepsState(t *testing.T) {
	m := sampleFS()
	m.Fail("/home/u/zeta", fs.ErrPermission)
	b := newBrowser(t, m, Options{})

	require.True(t, b.SelectName("zeta"))
	before := names(b.Entries())
	_, err := b.Enter()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "/home/u", b.Dir())
	assert.Equal(t, before, names(b.Entries()))
	assert.Contains(t, b.Status(), "permission denied")
	assert.False(t, b.CanGoBack())
}

func TestParentSelectsChild(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{Dir: "/home/u/zeta"})
	require.NoError(t, b.Parent())
	assert.Equal(t, "/home/u", b.Dir())
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "zeta", cur.Name)

	require.NoError(t, b.ChangeDir("/"))
	require.NoError(t, b.Parent())
	assert.Equal(t, "/", b.Dir())
}

func TestBackForward(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{})
	assert.ErrorIs(t, b.Back(), ErrNoHistory)

	require.NoError(t, b.ChangeDir("zeta"))
	assert.Equal(t, "/home/u/zeta", b.Dir())
	require.NoError(t, b.ChangeDir("/home"))

	require.NoError(t, b.Back())
	assert.Equal(t, "/home/u/zeta", b.Dir())
	require.NoError(t, b.Back())
	assert.Equal(t, "/home/u", b.Dir())
	cur, _ := b.Current()
	assert.Equal(t, "zeta", cur.Name)

	require.NoError(t, b.Forward())
	assert.Equal(t, "/home/u/zeta", b.Dir())

	// a new visit drops the forward stack
	require.NoError(t, b.Parent())
	assert.False(t, b.CanGoForward())
	assert.ErrorIs(t, b.Forward(), ErrNoHistory)
}

func TestHistoryLimit(t *testing.T) {
	m := vfs.NewMemFS()
	m.AddDir("/a")
	m.AddDir("/b")
	b := newBrowser(t, m, Options{Dir: "/a"})
	for i := 0; i < 150; i++ {
		if i%2 == 0 {
			require.NoError(t, b.ChangeDir("/b"))
		} else {
			require.NoError(t, b.ChangeDir("/a"))
		}
	}
	assert.Len(t, b.back, historyLimit)
}

func TestMarks(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{})
	b.ToggleMark(4)
	b.ToggleMark(3)
	b.ToggleMark(99)
	assert.Equal(t, []int{3, 4}, b.Marked())
	assert.Equal(t, "6 items, 2 marked", b.Status())
	assert.Equal(t, []string{"/home/u/A.md", "/home/u/b.txt"}, b.SelectedPaths())

	b.ToggleMark(3)
	assert.Equal(t, []int{4}, b.Marked())
	b.ClearMarks()
	assert.Empty(t, b.Marked())

	b.Select(1)
	assert.Equal(t, []string{"/home/u/link"}, b.SelectedPaths())
}

func TestRefreshRemapsByName(t *testing.T) {
	m := sampleFS()
	b := newBrowser(t, m, Options{})
	// Alpha link zeta A.md b.txt c.go
	require.True(t, b.SelectName("c.go"))
	b.ToggleMark(4)
	b.ToggleMark(5)

	m.Remove("/home/u/A.md")
	m.Remove("/home/u/Alpha")
	require.NoError(t, b.Refresh())

	assert.Equal(t, []string{"link", "zeta", "b.txt", "c.go"}, names(b.Entries()))
	cur, _ := b.Current()
	assert.Equal(t, "c.go", cur.Name)
	assert.Equal(t, []int{2, 3}, b.Marked())
	assertInvariant(t, b)
}

func TestRefreshClampsWhenSelectionRemoved(t *testing.T) {
	m := sampleFS()
	b := newBrowser(t, m, Options{})
	b.End()
	m.Remove("/home/u/c.go")
	m.Remove("/home/u/b.txt")

	require.NoError(t, b.Refresh())
	assert.Equal(t, b.Len()-1, b.Selected())
	assertInvariant(t, b)

	for _, e := range b.Entries() {
		m.Remove(e.Path)
	}
	require.NoError(t, b.Refresh())
	assert.Equal(t, 0, b.Len())
	assertInvariant(t, b)
}

func TestRefreshDirectoryVanished(t *testing.T) {
	m := sampleFS()
	m.AddDir("/home/u/zeta/deeper")
	b := newBrowser(t, m, Options{Dir: "/home/u/zeta/deeper"})

	m.Remove("/home/u/zeta")
	require.NoError(t, b.Refresh())
	assert.Equal(t, "/home/u", b.Dir())
	assert.Contains(t, b.Status(), "no longer exists")
}

func TestRefreshPermissionError(t *testing.T) {
	m := sampleFS()
	b := newBrowser(t, m, Options{})
	m.Fail("/home/u", fs.ErrPermission)

	err := b.Refresh()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "/home/u", b.Dir())
	assert.Equal(t, 6, b.Len())
}

func TestSorting(t *testing.T) {
	m := vfs.NewMemFS()
	m.AddFile("/s/small", "1")
	m.AddFile("/s/large", "1234567")
	m.AddFile("/s/medium", "123")
	m.AddDir("/s/dir")
	m.SetModTime("/s/small", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	m.SetModTime("/s/large", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC))
	m.SetModTime("/s/medium", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	b := newBrowser(t, m, Options{Dir: "/s"})
	assert.Equal(t, []string{"dir", "large", "medium", "small"}, names(b.Entries()))

	b.CycleSort()
	assert.Equal(t, SortSize, b.SortKey())
	assert.Equal(t, []string{"dir", "small", "medium", "large"}, names(b.Entries()))
	assert.Equal(t, "sort: size", b.Status())

	b.ToggleReverse()
	assert.Equal(t, []string{"dir", "large", "medium", "small"}, names(b.Entries()))
	assert.Equal(t, "sort: size (desc)", b.Status())

	b.ToggleReverse()
	b.CycleSort()
	assert.Equal(t, SortModified, b.SortKey())
	assert.Equal(t, []string{"dir", "large", "small", "medium"}, names(b.Entries()))

	b.CycleSort()
	assert.Equal(t, SortName, b.SortKey())
}

func TestSortKeepsCursorOnEntry(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{})
	require.True(t, b.SelectName("b.txt"))
	b.ToggleReverse()
	cur, _ := b.Current()
	assert.Equal(t, "b.txt", cur.Name)
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
		err  bool
	}{
		{"", SortName, false},
		{"Name", SortName, false},
		{"size", SortSize, false},
		{"modified", SortModified, false},
		{"mtime", SortModified, false},
		{"color", SortName, true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFilter(t *testing.T) {
	b := newBrowser(t, sampleFS(), Options{Filter: "*.go"})
	assert.Equal(t, []string{"Alpha", "link", "zeta", "c.go"}, names(b.Entries()))
	assert.Equal(t, "*.go", b.Filter())

	require.NoError(t, b.SetFilter("{*.md,*.txt}"))
	assert.Equal(t, []string{"Alpha", "link", "zeta", "A.md", "b.txt"}, names(b.Entries()))

	err := b.SetFilter("[unclosed")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, "{*.md,*.txt}", b.Filter())

	require.NoError(t, b.SetFilter(""))
	assert.Equal(t, 6, b.Len())

	_, err = New(sampleFS(), Options{Dir: "/home/u", Filter: "[bad"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "--", FormatSize(DirEntry{Kind: KindDir, Size: 4096}))
	assert.Equal(t, "--", FormatSize(DirEntry{Kind: KindSymlink, TargetIsDir: true}))
	assert.Equal(t, "512 B", FormatSize(DirEntry{Kind: KindFile, Size: 512}))
	assert.Equal(t, "1.5 KiB", FormatSize(DirEntry{Kind: KindFile, Size: 1536}))
	assert.Equal(t, "--", FormatModTime(time.Time{}))

	ts := time.Date(2024, 5, 6, 7, 8, 0, 0, time.Local)
	assert.Equal(t, "2024-05-06 07:08", FormatModTime(ts))
}

type fakeSubmitter struct {
	ops []fileop.Operation
	err error
}

func (f *fakeSubmitter) Submit(op fileop.Operation) (fileop.Handle, error) {
	if f.err != nil {
		return fileop.Handle{}, f.err
	}
	f.ops = append(f.ops, op)
	return fileop.Handle{ID: "op-1"}, nil
}

func TestRequestOperation(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newBrowser(t, sampleFS(), Options{Submitter: sub})

	b.ToggleMark(3)
	h, err := b.RequestOperation(fileop.KindCopy, b.SelectedPaths(), "/tmp")
	require.NoError(t, err)
	assert.Equal(t, "op-1", h.ID)
	require.Len(t, sub.ops, 1)
	assert.Equal(t, fileop.Operation{Kind: fileop.KindCopy, Sources: []string{"/home/u/A.md"}, Dest: "/tmp"}, sub.ops[0])
	assert.Equal(t, "copy: 1 item(s) queued", b.Status())

	_, err = b.RequestOperation(fileop.KindDelete, nil, "")
	assert.ErrorIs(t, err, ErrNothingSelected)

	sub.err = errors.New("boom")
	_, err = b.RequestOperation(fileop.KindMove, []string{"/x"}, "/y")
	assert.Error(t, err)
	assert.Contains(t, b.Status(), "boom")

	plain := newBrowser(t, sampleFS(), Options{})
	_, err = plain.RequestOperation(fileop.KindCopy, []string{"/x"}, "/y")
	assert.ErrorIs(t, err, ErrNoSubmitter)
}

func TestDeleteThroughExecutor(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one", "two", "three"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	ex := fileop.NewExecutor(fileop.Config{}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ex.Close(ctx)
	}()

	b := newBrowser(t, vfs.NewOSFS(), Options{Dir: dir, Submitter: ex})
	require.Equal(t, []string{"one", "three", "two"}, names(b.Entries()))
	b.End()

	h, err := b.RequestOperation(fileop.KindDelete, b.SelectedPaths(), "")
	require.NoError(t, err)

	for {
		ev := <-ex.Events()
		if ev.ID == h.ID && ev.Status.Terminal() {
			require.Equal(t, fileop.StatusCompleted, ev.Status, "err: %v", ev.Err)
			break
		}
	}

	require.NoError(t, b.Refresh())
	assert.Equal(t, []string{"one", "three"}, names(b.Entries()))
	assert.Equal(t, 1, b.Selected())
	assertInvariant(t, b)
}
