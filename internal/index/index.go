package index

import (
	"context"

	"github.com/starford/til/internal/models"
)

// NoteIndex defines the interface for catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNotes(ctx context.Context, notes []models.Note) error
	DeleteNotes(ctx context.Context, paths []string) error
	GetNote(ctx context.Context, path string) (*models.Note, error)
	ListNotes(ctx context.Context, topic string, limit, offset int) ([]models.Note, error)
	Count(ctx context.Context) (int, error)
	Topics(ctx context.Context) ([]models.TopicCount, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AllPaths(ctx context.Context) (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
