package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/til/internal/history"
	"github.com/starford/til/internal/testutil"
)

var pst = time.FixedZone("", -8*60*60)

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("created is the first touch and updated the last", func(t *testing.T) {
		t.Parallel()

		commits := []history.Commit{
			{When: time.Date(2023, 1, 5, 10, 0, 0, 0, pst), Files: []string{"go/defer.md"}},
			{When: time.Date(2023, 2, 1, 9, 0, 0, 0, pst), Files: []string{"go/channels.md"}},
			{When: time.Date(2023, 3, 1, 8, 30, 0, 0, pst), Files: []string{"go/defer.md", "README.md"}},
		}

		got := history.Collect(commits)

		require.Len(t, got, 3)
		assert.Equal(t, history.Entry{
			Created:    "2023-01-05T10:00:00-08:00",
			CreatedUTC: "2023-01-05T18:00:00+00:00",
			Updated:    "2023-03-01T08:30:00-08:00",
			UpdatedUTC: "2023-03-01T16:30:00+00:00",
		}, got["go/defer.md"])
		assert.Equal(t, got["go/channels.md"].Created, got["go/channels.md"].Updated)
		assert.Equal(t, "2023-03-01T08:30:00-08:00", got["README.md"].Created)
	})

	t.Run("empty history yields an empty map", func(t *testing.T) {
		t.Parallel()

		got := history.Collect(nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("utc variant crosses the date line", func(t *testing.T) {
		t.Parallel()

		got := history.Collect([]history.Commit{
			{When: time.Date(2023, 12, 31, 20, 0, 0, 0, pst), Files: []string{"a/b.md"}},
		})
		assert.Equal(t, "2023-12-31T20:00:00-08:00", got["a/b.md"].Created)
		assert.Equal(t, "2024-01-01T04:00:00+00:00", got["a/b.md"].CreatedUTC)
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("walks the repository oldest first", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		t1 := time.Date(2023, 1, 5, 10, 0, 0, 0, pst)
		t2 := time.Date(2023, 2, 1, 9, 0, 0, 0, pst)
		t3 := time.Date(2023, 3, 10, 12, 0, 0, 0, time.UTC)
		repo.Commit(t1, map[string]string{"go/defer.md": "# Defer\n"})
		repo.Commit(t2, map[string]string{"go/channels.md": "# Channels\n"})
		repo.Commit(t3, map[string]string{"go/defer.md": "# Defer\n\nupdated\n"})

		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "HEAD")
		require.NoError(t, err)

		require.Contains(t, got, "go/defer.md")
		assert.Equal(t, "2023-01-05T10:00:00-08:00", got["go/defer.md"].Created)
		assert.Equal(t, "2023-03-10T12:00:00+00:00", got["go/defer.md"].Updated)
		assert.Equal(t, "2023-02-01T17:00:00+00:00", got["go/channels.md"].CreatedUTC)
		assert.Equal(t, "2023-02-01T17:00:00+00:00", got["go/channels.md"].UpdatedUTC)
	})

	t.Run("unchanged files are not touched by later commits", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		t1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		repo.Commit(t1, map[string]string{"a/one.md": "# One\n", "a/two.md": "# Two\n"})
		repo.Commit(t2, map[string]string{"a/two.md": "# Two\nmore\n"})

		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "HEAD")
		require.NoError(t, err)

		assert.Equal(t, "2023-01-01T00:00:00+00:00", got["a/one.md"].Updated)
		assert.Equal(t, "2023-06-01T00:00:00+00:00", got["a/two.md"].Updated)
	})

	t.Run("deleted paths keep their history", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		t1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
		repo.Commit(t1, map[string]string{"a/gone.md": "# Gone\n"})
		repo.Remove(t2, "a/gone.md")

		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "HEAD")
		require.NoError(t, err)
		assert.Equal(t, "2023-02-01T00:00:00+00:00", got["a/gone.md"].Updated)
	})

	t.Run("repository without commits yields an empty map", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "HEAD")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown ref fails once the repository has commits", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		repo.Commit(time.Now(), map[string]string{"a/b.md": "# B\n"})

		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "no-such-branch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `history: resolve "no-such-branch"`)
		assert.Nil(t, got)
	})

	t.Run("any ref on an unborn repository yields an empty map", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		got, err := history.Extract(context.Background(), repo.Dir, repo.Dir, "main")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("keys are relative to a notes root below the worktree", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		when := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
		repo.Commit(when, map[string]string{
			"notes/go/defer.md": "# Defer\n",
			"docs/setup.md":     "# Setup\n",
		})

		root := filepath.Join(repo.Dir, "notes")
		got, err := history.Extract(context.Background(), root, root, "HEAD")
		require.NoError(t, err)
		assert.Equal(t, map[string]history.Entry{
			"go/defer.md": {
				Created:    "2023-04-01T00:00:00+00:00",
				CreatedUTC: "2023-04-01T00:00:00+00:00",
				Updated:    "2023-04-01T00:00:00+00:00",
				UpdatedUTC: "2023-04-01T00:00:00+00:00",
			},
		}, got)
	})

	t.Run("notes root outside the worktree fails", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		repo.Commit(time.Now(), map[string]string{"a/b.md": "# B\n"})

		_, err := history.Extract(context.Background(), repo.Dir, t.TempDir(), "HEAD")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is outside repository")
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := history.Extract(context.Background(), dir, dir, "HEAD")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history: open repository")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		repo.Commit(time.Now(), map[string]string{"a/b.md": "# B\n"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := history.Extract(ctx, repo.Dir, repo.Dir, "HEAD")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRebase(t *testing.T) {
	t.Parallel()

	hist := map[string]history.Entry{
		"notes/go/a.md":  {Created: "1"},
		"notes2/go/b.md": {Created: "2"},
		"README.md":      {Created: "3"},
	}

	assert.Equal(t, hist, history.Rebase(hist, ""))
	assert.Equal(t, map[string]history.Entry{"go/a.md": {Created: "1"}}, history.Rebase(hist, "notes"))
}

func TestWorktree(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	repo.Commit(time.Now(), map[string]string{"notes/go/a.md": "# A\n"})

	got, err := history.Worktree(filepath.Join(repo.Dir, "notes"))
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(repo.Dir)
	gotReal, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotReal)
}
