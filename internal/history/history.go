// Package history derives first-seen and last-seen timestamps for every
// file path from a git commit log.
package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TimeLayout is ISO-8601 with a numeric offset; UTC renders as "+00:00".
const TimeLayout = "2006-01-02T15:04:05-07:00"

// Entry holds the timestamps recorded for one path.
type Entry struct {
	Created    string
	CreatedUTC string
	Updated    string
	UpdatedUTC string
}

// Commit is the part of a commit the fold needs.
type Commit struct {
	When  time.Time
	Files []string
}

// Collect folds commits, which must be ordered oldest first, into a map
// keyed by repository-relative path. Created is set on the first commit
// touching a path; Updated is overwritten by every commit touching it.
func Collect(commits []Commit) map[string]Entry {
	out := make(map[string]Entry)
	for _, c := range commits {
		local := c.When.Format(TimeLayout)
		utc := c.When.UTC().Format(TimeLayout)
		for _, f := range c.Files {
			e, ok := out[f]
			if !ok {
				e.Created = local
				e.CreatedUTC = utc
			}
			e.Updated = local
			e.UpdatedUTC = utc
			out[f] = e
		}
	}
	return out
}

// Extract opens the repository containing repoPath and returns the history
// map for every commit reachable from ref, keyed by slash paths relative
// to root. root must lie inside the repository's worktree; history for
// paths outside it is dropped. An unborn HEAD (no commits yet) yields an
// empty map; any other ref that does not resolve is an error.
func Extract(ctx context.Context, repoPath, root, ref string) (map[string]Entry, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("history: open repository %s: %w", repoPath, err)
	}

	prefix, err := rootPrefix(repo, root)
	if err != nil {
		return nil, err
	}

	commits, err := Log(ctx, repo, ref)
	if err != nil {
		return nil, err
	}
	return Rebase(Collect(commits), prefix), nil
}

// Worktree returns the absolute worktree directory of the repository
// containing repoPath.
func Worktree(repoPath string) (string, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("history: open repository %s: %w", repoPath, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("history: worktree: %w", err)
	}
	return filepath.Abs(wt.Filesystem.Root())
}

// rootPrefix returns root relative to the worktree as a slash path, "" when
// they are the same directory.
func rootPrefix(repo *git.Repository, root string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("history: worktree: %w", err)
	}
	wtRoot, err := resolveDir(wt.Filesystem.Root())
	if err != nil {
		return "", err
	}
	notesRoot, err := resolveDir(root)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(wtRoot, notesRoot)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("history: notes root %s is outside repository %s", root, wtRoot)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("history: resolve %s: %w", dir, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return abs, nil
}

// Rebase keeps the entries below the slash directory prefix and strips it
// from their keys. An empty prefix returns hist unchanged.
func Rebase(hist map[string]Entry, prefix string) map[string]Entry {
	if prefix == "" {
		return hist
	}
	out := make(map[string]Entry, len(hist))
	for p, e := range hist {
		if rel, ok := strings.CutPrefix(p, prefix+"/"); ok {
			out[rel] = e
		}
	}
	return out
}

// Log returns the commits reachable from ref, oldest first, each with the
// set of paths it changed relative to its first parent. A ref that does not
// resolve is an error unless the repository has no commits at all.
func Log(ctx context.Context, repo *git.Repository, ref string) ([]Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) && unborn(repo) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: resolve %q: %w", ref, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: *hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("history: log %q: %w", ref, err)
	}
	defer iter.Close()

	var out []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err := changedFiles(ctx, c)
		if err != nil {
			return fmt.Errorf("history: commit %s: %w", c.Hash, err)
		}
		out = append(out, Commit{When: c.Committer.When, Files: files})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The log is newest first.
	slices.Reverse(out)
	return out, nil
}

// unborn reports whether HEAD points at a branch with no commits yet.
func unborn(repo *git.Repository) bool {
	_, err := repo.Head()
	return errors.Is(err, plumbing.ErrReferenceNotFound)
}

// changedFiles diffs c against its first parent, or against the empty tree
// for a root commit. Both sides of a change are reported, so a rename
// touches the old and the new path.
func changedFiles(ctx context.Context, c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(changes))
	files := make([]string, 0, len(changes))
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			files = append(files, name)
		}
	}
	return files, nil
}
