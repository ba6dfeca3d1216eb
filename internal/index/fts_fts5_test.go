//go:build sqlite_fts5

package index

import (
	"context"
	"os"
	"testing"

	"github.com/starford/til/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_PopulatedWhenMissing(t *testing.T) {
	f, err := os.CreateTemp("", "til-fts-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	ctx := context.Background()
	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	_ = db.UpsertNotes(ctx, []models.Note{{
		Path: "go_defer.md", Topic: "go", Title: "Defer", Body: "stacked calls",
		Created: "x", CreatedUTC: "x", Updated: "x", UpdatedUTC: "x",
	}})
	// Simulate a catalog created before full-text search existed.
	if _, err := db.conn.Exec(`DROP TABLE notes_fts`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	results, err := db.Search(ctx, "stacked", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "go_defer.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := note("go", "fts", "2023-01-01T00:00:00+00:00")
	n.Body = "The catalog provides powerful full-text search capabilities."
	if err := db.UpsertNotes(ctx, []models.Note{n}); err != nil {
		t.Fatalf("UpsertNotes: %v", err)
	}

	results, err := db.Search(ctx, "powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := note("go", "evo", "2023-01-01T00:00:00+00:00")
	n.Body = "original text"
	_ = db.UpsertNotes(ctx, []models.Note{n})
	n.Title = "New"
	n.Body = "replacement text"
	_ = db.UpsertNotes(ctx, []models.Note{n})

	results, _ := db.Search(ctx, "original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search(ctx, "replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := note("go", "gone", "2023-01-01T00:00:00+00:00")
	n.Body = "vanishing content"
	_ = db.UpsertNotes(ctx, []models.Note{n})
	_ = db.DeleteNotes(ctx, []string{n.Path})

	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM notes_fts WHERE path = ?`, n.Path).Scan(&count)
	if count != 0 {
		t.Error("deleted note still in FTS index")
	}
}
