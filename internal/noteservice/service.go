// Package noteservice runs the catalog pipeline (history → catalog →
// README) and serves read access to the catalog for the API and MCP
// surfaces.
package noteservice

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/starford/til/internal/history"
	"github.com/starford/til/internal/index"
	"github.com/starford/til/internal/models"
	"github.com/starford/til/internal/readme"
	"github.com/starford/til/internal/storage"
)

// Options configures a Service.
type Options struct {
	// NotesRoot is the directory the store lists; defaults to RepoPath.
	// It may be a subdirectory of the repository's worktree.
	NotesRoot  string
	RepoPath   string
	Ref        string
	BaseURL    string
	ReadmePath string
	Prune      bool
	// Output receives the index fragment when the README is not rewritten.
	Output io.Writer
}

// Service coordinates storage, history and index operations.
type Service struct {
	store   storage.Provider
	db      index.NoteIndex
	updater *readme.Updater
	opts    Options
	logger  *slog.Logger

	mu sync.Mutex // serializes rebuilds
}

// NewService creates a new note service.
func NewService(store storage.Provider, db index.NoteIndex, opts Options, logger *slog.Logger) *Service {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.NotesRoot == "" {
		opts.NotesRoot = opts.RepoPath
	}
	return &Service{
		store:   store,
		db:      db,
		updater: readme.NewUpdater(db, opts.ReadmePath, opts.Output, logger),
		opts:    opts,
		logger:  logger,
	}
}

// Refresh extracts the commit history and rebuilds the catalog from it.
// A history failure aborts before anything is written.
func (s *Service) Refresh(ctx context.Context) (index.BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) (index.BuildResult, error) {
	hist, err := history.Extract(ctx, s.opts.RepoPath, s.opts.NotesRoot, s.opts.Ref)
	if err != nil {
		return index.BuildResult{}, err
	}
	s.logger.Debug("history extracted", slog.Int("paths", len(hist)), slog.String("ref", s.opts.Ref))

	return index.Build(ctx, s.db, s.store, hist, index.BuildOptions{
		BaseURL: s.opts.BaseURL,
		Prune:   s.opts.Prune,
	}, s.logger)
}

// Update runs the whole pipeline: Refresh, then regenerate the README
// (rewrite) or print its index fragment.
func (s *Service) Update(ctx context.Context, rewrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.refresh(ctx); err != nil {
		return err
	}
	return s.updater.Update(ctx, rewrite)
}

// IndexFragment renders the current index fragment without touching the README.
func (s *Service) IndexFragment(ctx context.Context) (string, error) {
	frags, err := s.updater.Render(ctx)
	if err != nil {
		return "", err
	}
	return frags.Index, nil
}

// GetNote returns one catalogued note by key.
func (s *Service) GetNote(ctx context.Context, path string) (*models.Note, error) {
	return s.db.GetNote(ctx, path)
}

// ListNotes returns catalogued notes, newest first, optionally for one topic.
func (s *Service) ListNotes(ctx context.Context, topic string, limit, offset int) ([]models.Note, error) {
	notes, err := s.db.ListNotes(ctx, topic, limit, offset)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(notes), nil
}

// Topics returns every topic with its note count.
func (s *Service) Topics(ctx context.Context) ([]models.TopicCount, error) {
	topics, err := s.db.Topics(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(topics), nil
}

// Count returns the number of catalogued notes.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.db.Count(ctx)
}

// Search delegates full-text search to the index.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
