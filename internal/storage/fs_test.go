package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/til/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("go/note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("go/note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestList_TwoLevelsOnly(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("README.md", []byte("root"))
	_ = s.Write("go/channels.md", []byte("# Channels"))
	_ = s.Write("go/defer.md", []byte("# Defer"))
	_ = s.Write("go/deep/nested.md", []byte("# Nested"))
	_ = s.Write("rust/ownership.md", []byte("# Ownership"))
	_ = s.Write("rust/notes.txt", []byte("not md"))
	_ = s.Write(".github/TEMPLATE.md", []byte("hidden"))
	_ = s.Write("go/.md", []byte("no name"))

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"go/channels.md", "go/defer.md", "rust/ownership.md"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(items), len(want), items)
	}
	for i, w := range want {
		if items[i].Path != w {
			t.Errorf("items[%d].Path = %q, want %q", i, items[i].Path, w)
		}
	}
	if items[2].Topic != "rust" {
		t.Errorf("topic = %q, want rust", items[2].Topic)
	}
}

func TestIsNotePath(t *testing.T) {
	cases := map[string]bool{
		"go/defer.md":              true,
		"README.md":                false,
		"go/deep/nested.md":        false,
		".git/HEAD.md":             false,
		"go/notes.txt":             false,
		"go/.md":                   false,
		filepath.Join("a", "b.md"): true,
	}
	for p, want := range cases {
		if got := IsNotePath(p); got != want {
			t.Errorf("IsNotePath(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestWriteFileAtomic_NoLeftovers(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "README.md")
	if err := WriteFileAtomic(name, []byte("original"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(name, []byte("updated"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, _ := os.ReadFile(name)
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	info, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("perm = %v, want 0644", info.Mode().Perm())
	}

	matches, _ := filepath.Glob(filepath.Join(dir, ".til-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	name := filepath.Join(t.TempDir(), "missing", "README.md")
	if err := WriteFileAtomic(name, []byte("x"), 0o644); err == nil {
		t.Error("expected error when target directory is missing")
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "til-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestList_AgreesWithIsNotePath(t *testing.T) {
	s := tempRoot(t)
	for _, p := range []string{"go/a.md", "go/.md", "go/b.txt", "README.md", "go/x/y.md"} {
		_ = s.Write(p, []byte("# x"))
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, it := range items {
		if !IsNotePath(it.Path) {
			t.Errorf("List returned %q, which IsNotePath rejects", it.Path)
		}
	}
	if len(items) != 1 || items[0].Path != "go/a.md" {
		t.Errorf("items = %+v", items)
	}
}
