package index

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/til/internal/history"
	"github.com/starford/til/internal/models"
	"github.com/starford/til/internal/parser"
	"github.com/starford/til/internal/storage"
)

// BuildOptions controls a catalog build.
type BuildOptions struct {
	// BaseURL is prefixed to the note's relative path to form its link.
	BaseURL string
	// Prune deletes catalog rows whose note file is no longer on disk.
	Prune bool
}

// BuildResult summarises a catalog build.
type BuildResult struct {
	Indexed int
	Skipped []string // files with no recorded commit
	Pruned  int
}

// Build walks the notes tree, joins each note to its history entry and
// upserts the joined records in one batch. Notes missing from hist are
// logged and left out; they appear once a commit touches them. A note that
// cannot be read aborts the build before anything is written.
func Build(ctx context.Context, db NoteIndex, store storage.Provider, hist map[string]history.Entry, opts BuildOptions, logger *slog.Logger) (BuildResult, error) {
	var res BuildResult

	files, err := store.List()
	if err != nil {
		return res, err
	}

	onDisk := make(map[string]struct{}, len(files))
	notes := make([]models.Note, 0, len(files))
	for _, f := range files {
		key := Key(f.Path)
		onDisk[key] = struct{}{}

		entry, ok := hist[f.Path]
		if !ok {
			logger.Warn("build: no history, skipping", slog.String("path", f.Path))
			res.Skipped = append(res.Skipped, f.Path)
			continue
		}

		data, err := store.Read(f.Path)
		if err != nil {
			return res, err
		}
		parsed := parser.Parse(data)

		notes = append(notes, models.Note{
			Path:       key,
			Topic:      f.Topic,
			Title:      parsed.Title,
			URL:        opts.BaseURL + f.Path,
			Body:       parsed.Body,
			Created:    entry.Created,
			CreatedUTC: entry.CreatedUTC,
			Updated:    entry.Updated,
			UpdatedUTC: entry.UpdatedUTC,
		})
		logger.Debug("build: indexed", slog.String("path", f.Path))
	}

	if err := db.UpsertNotes(ctx, notes); err != nil {
		return res, err
	}
	res.Indexed = len(notes)

	if opts.Prune {
		n, err := prune(ctx, db, onDisk, logger)
		if err != nil {
			return res, err
		}
		res.Pruned = n
	}

	logger.Info("build: catalog updated",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("pruned", res.Pruned))
	return res, nil
}

// Key converts a slash-separated relative path into the catalog key.
func Key(relPath string) string {
	return strings.ReplaceAll(relPath, "/", "_")
}

// prune removes rows whose key has no file on disk.
func prune(ctx context.Context, db NoteIndex, onDisk map[string]struct{}, logger *slog.Logger) (int, error) {
	stored, err := db.AllPaths(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for p := range stored {
		if _, ok := onDisk[p]; !ok {
			stale = append(stale, p)
			logger.Debug("build: removing stale", slog.String("path", p))
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := db.DeleteNotes(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}
