package vfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func names(infos []FileInfo) []string {
	out := make([]string, len(infos))
	for i, fi := range infos {
		out[i] = fi.Name()
	}
	return out
}

func TestOSFS_ReadDirAndStat(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("sub", filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}

	f := NewOSFS()
	infos, err := f.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if got := names(infos); !reflect.DeepEqual(got, []string{"a.txt", "link", "sub"}) {
		t.Errorf("names = %v", got)
	}
	for _, fi := range infos {
		switch fi.Name() {
		case "a.txt":
			if fi.Size() != 5 || !fi.IsRegular() {
				t.Errorf("a.txt = size %d regular %v", fi.Size(), fi.IsRegular())
			}
		case "link":
			if !fi.IsSymlink() {
				t.Error("ReadDir should report the link itself")
			}
		case "sub":
			if !fi.IsDir() {
				t.Error("sub should be a directory")
			}
		}
	}

	st, err := f.Stat(filepath.Join(dir, "link"))
	if err != nil || !st.IsDir() {
		t.Errorf("Stat(link) = %v, %v; want a directory", st.Mode(), err)
	}
	lst, err := f.Lstat(filepath.Join(dir, "link"))
	if err != nil || !lst.IsSymlink() {
		t.Errorf("Lstat(link) = %v, %v; want a symlink", lst.Mode(), err)
	}
	target, err := f.Readlink(filepath.Join(dir, "link"))
	if err != nil || target != "sub" {
		t.Errorf("Readlink = %q, %v", target, err)
	}
}

func TestOSFS_NotExist(t *testing.T) {
	f := NewOSFS()
	_, err := f.ReadDir(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestOSFS_WalkDir(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a/b/c.txt", "a/d.txt", "e.txt"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var visited []string
	err := NewOSFS().WalkDir(dir, func(p string, info FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && info.Name() == "b" {
			return SkipDir
		}
		rel, _ := filepath.Rel(dir, p)
		visited = append(visited, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	want := []string{".", "a", "a/d.txt", "e.txt"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited = %v, want %v", visited, want)
	}
}

func TestMemFS_ReadDir(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/home/u/notes.txt", "abc")
	m.AddDir("/home/u/src")
	m.AddSymlink("/home/u/proj", "src")

	infos, err := m.ReadDir("/home/u")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if got := names(infos); !reflect.DeepEqual(got, []string{"notes.txt", "proj", "src"}) {
		t.Errorf("names = %v", got)
	}
	if infos[0].Path() != "/home/u/notes.txt" || infos[0].Size() != 3 {
		t.Errorf("notes.txt = %q size %d", infos[0].Path(), infos[0].Size())
	}
	if !infos[1].IsSymlink() {
		t.Error("proj should be a symlink")
	}

	if _, err := m.ReadDir("/home/u/notes.txt"); err == nil {
		t.Error("ReadDir on a file should fail")
	}
	if _, err := m.ReadDir("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestMemFS_SymlinkResolution(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/data/file.txt", "x")
	m.AddSymlink("/link", "/data")
	m.AddSymlink("/loop", "/loop")
	m.AddSymlink("/dangling", "/missing")

	st, err := m.Stat("/link")
	if err != nil || !st.IsDir() {
		t.Errorf("Stat(/link) = %v, %v", st.Mode(), err)
	}
	infos, err := m.ReadDir("/link")
	if err != nil || len(infos) != 1 || infos[0].Path() != "/link/file.txt" {
		t.Errorf("ReadDir(/link) = %v, %v", names(infos), err)
	}
	if _, err := m.Stat("/loop"); err == nil {
		t.Error("Stat on a symlink loop should fail")
	}
	if _, err := m.Stat("/dangling"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(/dangling) = %v, want ErrNotExist", err)
	}
	if _, err := m.Lstat("/dangling"); err != nil {
		t.Errorf("Lstat(/dangling) = %v", err)
	}
	if target, _ := m.Readlink("/dangling"); target != "/missing" {
		t.Errorf("Readlink = %q", target)
	}
	if _, err := m.Readlink("/data"); err == nil {
		t.Error("Readlink on a directory should fail")
	}
}

func TestMemFS_FailAndRemove(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/locked/secret", "s")
	m.Fail("/locked", fs.ErrPermission)

	if _, err := m.ReadDir("/locked"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("err = %v, want ErrPermission", err)
	}
	m.Fail("/locked", nil)
	if _, err := m.ReadDir("/locked"); err != nil {
		t.Errorf("after clearing: %v", err)
	}

	m.Remove("/locked")
	if _, err := m.Lstat("/locked/secret"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("removed child still present: %v", err)
	}
}

func TestMemFS_OpenAndWalk(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/r/b.txt", "bee")
	m.AddFile("/r/a/x.txt", "ex")

	rc, err := m.Open("/r/b.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "bee" {
		t.Errorf("content = %q", data)
	}
	if _, err := m.Open("/r/a"); err == nil {
		t.Error("Open on a directory should fail")
	}

	var visited []string
	err = m.WalkDir("/r", func(p string, info FileInfo, err error) error {
		if err != nil {
			return err
		}
		visited = append(visited, p)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	want := []string{"/r", "/r/a", "/r/a/x.txt", "/r/b.txt"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited = %v, want %v", visited, want)
	}
}

func TestIsBinary(t *testing.T) {
	if IsBinary([]byte("plain text\n")) {
		t.Error("text reported as binary")
	}
	if !IsBinary([]byte{'E', 'L', 'F', 0, 1}) {
		t.Error("NUL byte not detected")
	}
	late := make([]byte, SniffLen+10)
	for i := range late {
		late[i] = 'a'
	}
	late[SniffLen+5] = 0
	if IsBinary(late) {
		t.Error("NUL past the sniff window should be ignored")
	}
}

func TestStripBOMAndReadFile(t *testing.T) {
	if got := StripBOM([]byte("\xEF\xBB\xBFhi")); string(got) != "hi" {
		t.Errorf("StripBOM = %q", got)
	}

	m := NewMemFS()
	m.AddFile("/f", "0123456789")
	data, err := ReadFile(m, "/f", 4)
	if err != nil || string(data) != "0123" {
		t.Errorf("ReadFile limited = %q, %v", data, err)
	}
	data, err = ReadFile(m, "/f", 0)
	if err != nil || string(data) != "0123456789" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}
