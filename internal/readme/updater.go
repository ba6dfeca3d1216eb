package readme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/til/internal/checksum"
	"github.com/starford/til/internal/models"
	"github.com/starford/til/internal/storage"
)

// Catalog is the read side of the note index the updater needs.
type Catalog interface {
	ListNotes(ctx context.Context, topic string, limit, offset int) ([]models.Note, error)
	Count(ctx context.Context) (int, error)
}

// Updater regenerates the marker sections of one document.
type Updater struct {
	catalog Catalog
	path    string
	out     io.Writer
	logger  *slog.Logger
}

// NewUpdater creates an Updater for the document at path. In print mode
// the index fragment is written to out.
func NewUpdater(catalog Catalog, path string, out io.Writer, logger *slog.Logger) *Updater {
	return &Updater{catalog: catalog, path: path, out: out, logger: logger}
}

// Render reads the whole catalog and renders the three fragments.
func (u *Updater) Render(ctx context.Context) (Fragments, error) {
	notes, err := u.catalog.ListNotes(ctx, "", 0, 0)
	if err != nil {
		return Fragments{}, err
	}
	count, err := u.catalog.Count(ctx)
	if err != nil {
		return Fragments{}, err
	}
	groups := Group(notes)
	return Fragments{
		Index:    RenderIndex(groups),
		Category: RenderCategory(groups),
		Count:    RenderCount(count),
	}, nil
}

// Update renders the catalog. With rewrite it splices every fragment into
// the document and replaces it atomically; otherwise it prints the index
// fragment and leaves the document alone.
func (u *Updater) Update(ctx context.Context, rewrite bool) error {
	frags, err := u.Render(ctx)
	if err != nil {
		return fmt.Errorf("readme: render: %w", err)
	}
	if !rewrite {
		if _, err := fmt.Fprintln(u.out, frags.Index); err != nil {
			return fmt.Errorf("readme: print index: %w", err)
		}
		return nil
	}
	return u.rewrite(frags)
}

func (u *Updater) rewrite(frags Fragments) error {
	info, err := os.Stat(u.path)
	if err != nil {
		return fmt.Errorf("readme: stat %s: %w", u.path, err)
	}
	old, err := os.ReadFile(u.path)
	if err != nil {
		return fmt.Errorf("readme: read %s: %w", u.path, err)
	}

	updated := []byte(frags.Apply(string(old)))
	if checksum.Equal(old, updated) {
		u.logger.Info("readme: unchanged", slog.String("path", u.path))
		return nil
	}

	if err := storage.WriteFileAtomic(u.path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("readme: write %s: %w", u.path, err)
	}
	u.logger.Info("readme: updated", slog.String("path", u.path))
	return nil
}
