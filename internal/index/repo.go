package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/til/internal/apperr"
	"github.com/starford/til/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Topic   string `json:"topic"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const noteColumns = `path, topic, title, url, body, created, created_utc, updated, updated_utc`

// UpsertNotes inserts or replaces notes keyed by path, together with their
// FTS entries, in a single transaction.
func (db *DB) UpsertNotes(ctx context.Context, notes []models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			topic       = excluded.topic,
			title       = excluded.title,
			url         = excluded.url,
			body        = excluded.body,
			created     = excluded.created,
			created_utc = excluded.created_utc,
			updated     = excluded.updated,
			updated_utc = excluded.updated_utc
	`)
	if err != nil {
		return fmt.Errorf("index: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, n := range notes {
		if _, err := stmt.ExecContext(ctx,
			n.Path, n.Topic, n.Title, n.URL, n.Body,
			n.Created, n.CreatedUTC, n.Updated, n.UpdatedUTC,
		); err != nil {
			return fmt.Errorf("index: upsert note %s: %w", n.Path, err)
		}
		if err := ftsUpsert(ctx, tx, n.Path, n.Title, n.Body); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteNotes removes notes and their FTS entries.
func (db *DB) DeleteNotes(ctx context.Context, paths []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, p := range paths {
		if err := ftsDelete(ctx, tx, p); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE path = ?`, p); err != nil {
			return fmt.Errorf("index: delete note %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// GetNote returns the note stored under path or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, path string) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE path = ?`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns notes, newest created first (ties by path), optionally
// restricted to one topic. limit <= 0 returns every matching row.
func (db *DB) ListNotes(ctx context.Context, topic string, limit, offset int) ([]models.Note, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE ? = '' OR topic = ?
		ORDER BY created_utc DESC, path
		LIMIT ? OFFSET ?
	`, topic, topic, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the number of catalogued notes.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// Topics returns every topic with its note count, ordered by topic name.
func (db *DB) Topics(ctx context.Context) ([]models.TopicCount, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT topic, count(*) FROM notes GROUP BY topic ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("index: topics: %w", err)
	}
	defer rows.Close()

	var out []models.TopicCount
	for rows.Next() {
		var tc models.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// AllPaths returns every catalogued key.
func (db *DB) AllPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var n models.Note
	err := s.Scan(&n.Path, &n.Topic, &n.Title, &n.URL, &n.Body,
		&n.Created, &n.CreatedUTC, &n.Updated, &n.UpdatedUTC)
	return n, err
}
