package index

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/til/internal/apperr"
	"github.com/starford/til/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "til-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func note(topic, name, createdUTC string) models.Note {
	return models.Note{
		Path:       topic + "_" + name + ".md",
		Topic:      topic,
		Title:      name,
		URL:        "https://example.com/" + topic + "/" + name + ".md",
		Body:       "body of " + name,
		Created:    createdUTC,
		CreatedUTC: createdUTC,
		Updated:    createdUTC,
		UpdatedUTC: createdUTC,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	for _, idx := range []string{"idx_notes_topic", "idx_notes_created_utc"} {
		var n int
		if err := db.conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, idx).Scan(&n); err != nil || n != 1 {
			t.Errorf("index %s missing (n=%d, err=%v)", idx, n, err)
		}
	}
}

func TestReopenKeepsRows(t *testing.T) {
	f, err := os.CreateTemp("", "til-reopen-*.db")
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
	_ = db.UpsertNotes(ctx, []models.Note{note("go", "defer", "2023-01-05T18:00:00+00:00")})
	db.Close()

	db, err = Open(f.Name())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	n, _ := db.Count(ctx)
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	want := note("go", "defer", "2023-01-05T18:00:00+00:00")
	if err := db.UpsertNotes(ctx, []models.Note{want}); err != nil {
		t.Fatalf("UpsertNotes: %v", err)
	}
	got, err := db.GetNote(ctx, want.Path)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestUpsertReplacesByKey(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := note("go", "defer", "2023-01-05T18:00:00+00:00")
	_ = db.UpsertNotes(ctx, []models.Note{n})

	n.Title = "Defer, revisited"
	n.Updated = "2023-04-01T00:00:00+00:00"
	if err := db.UpsertNotes(ctx, []models.Note{n}); err != nil {
		t.Fatalf("UpsertNotes: %v", err)
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	got, _ := db.GetNote(ctx, n.Path)
	if got.Title != "Defer, revisited" || got.Updated != "2023-04-01T00:00:00+00:00" {
		t.Errorf("row not replaced: %+v", got)
	}
}

func TestUpsertEmptyBatch(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertNotes(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote(context.Background(), "nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNotes_OrderAndFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertNotes(ctx, []models.Note{
		note("go", "defer-pitfalls", "2023-01-05T10:00:00+00:00"),
		note("go", "channels", "2023-02-01T09:00:00+00:00"),
		note("rust", "ownership", "2023-01-10T08:00:00+00:00"),
	})

	all, err := db.ListNotes(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	want := []string{"go_channels.md", "rust_ownership.md", "go_defer-pitfalls.md"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, w := range want {
		if all[i].Path != w {
			t.Errorf("all[%d] = %q, want %q", i, all[i].Path, w)
		}
	}

	goNotes, _ := db.ListNotes(ctx, "go", 0, 0)
	if len(goNotes) != 2 {
		t.Errorf("go notes = %d, want 2", len(goNotes))
	}

	page, _ := db.ListNotes(ctx, "", 1, 1)
	if len(page) != 1 || page[0].Path != "rust_ownership.md" {
		t.Errorf("page = %+v", page)
	}
}

func TestTopicsAndCount(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertNotes(ctx, []models.Note{
		note("rust", "ownership", "2023-01-10T08:00:00+00:00"),
		note("go", "defer-pitfalls", "2023-01-05T10:00:00+00:00"),
		note("go", "channels", "2023-02-01T09:00:00+00:00"),
	})

	topics, err := db.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	want := []models.TopicCount{{Topic: "go", Count: 2}, {Topic: "rust", Count: 1}}
	if len(topics) != 2 || topics[0] != want[0] || topics[1] != want[1] {
		t.Errorf("topics = %+v, want %+v", topics, want)
	}
	n, _ := db.Count(ctx)
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestDeleteNotes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := note("go", "a", "2023-01-01T00:00:00+00:00")
	b := note("go", "b", "2023-01-02T00:00:00+00:00")
	_ = db.UpsertNotes(ctx, []models.Note{a, b})

	if err := db.DeleteNotes(ctx, []string{a.Path}); err != nil {
		t.Fatalf("DeleteNotes: %v", err)
	}
	paths, _ := db.AllPaths(ctx)
	if _, ok := paths[a.Path]; ok {
		t.Error("deleted note still present")
	}
	if _, ok := paths[b.Path]; !ok {
		t.Error("unrelated note removed")
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := note("go", "search-me", "2023-01-01T00:00:00+00:00")
	n.Body = "uniqueword appears here"
	_ = db.UpsertNotes(ctx, []models.Note{n, note("go", "other", "2023-01-02T00:00:00+00:00")})

	results, err := db.Search(ctx, "uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != n.Path || results[0].Topic != "go" {
		t.Errorf("search results = %+v, want 1 hit for %s", results, n.Path)
	}
}
