// Package testutil provides shared test helpers for setting up note trees,
// git repositories and catalog databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/starford/til/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "til-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Repo is a git repository in a temp directory whose worktree doubles as
// the notes root.
type Repo struct {
	t    *testing.T
	Dir  string
	repo *git.Repository
	wt   *git.Worktree
}

// NewRepo initialises an empty repository. Its HEAD points at an unborn
// branch until the first Commit.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &Repo{t: t, Dir: dir, repo: repo, wt: wt}
}

// WriteFile writes a file into the worktree without staging it.
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	abs := filepath.Join(r.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
}

// Commit writes files (slash path → content), stages them and commits
// with author and committer time when.
func (r *Repo) Commit(when time.Time, files map[string]string) {
	r.t.Helper()
	for rel, content := range files {
		r.WriteFile(rel, content)
		if _, err := r.wt.Add(rel); err != nil {
			r.t.Fatalf("git add %s: %v", rel, err)
		}
	}
	r.commit(when)
}

// Remove deletes paths from the worktree and commits the removal.
func (r *Repo) Remove(when time.Time, paths ...string) {
	r.t.Helper()
	for _, rel := range paths {
		if _, err := r.wt.Remove(rel); err != nil {
			r.t.Fatalf("git rm %s: %v", rel, err)
		}
	}
	r.commit(when)
}

func (r *Repo) commit(when time.Time) {
	r.t.Helper()
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
	if _, err := r.wt.Commit("update notes", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		r.t.Fatalf("git commit: %v", err)
	}
}
