package store

import (
	"context"
	"testing"

	"github.com/kierank/feedor/entry"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutEntryAndList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := entry.Entry{ID: "1", Source: "https://h/feed", Title: "A", PublishedTime: 100}
	b := entry.Entry{ID: "2", Source: "https://h/feed", Title: "B", PublishedTime: 200}

	if err := db.PutEntry(ctx, a); err != nil {
		t.Fatalf("PutEntry(a) error = %v", err)
	}
	if err := db.PutEntry(ctx, b); err != nil {
		t.Fatalf("PutEntry(b) error = %v", err)
	}

	entries, cursor, err := db.List(ctx, 10, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != "2" || entries[1].ID != "1" {
		t.Errorf("List() order = [%s, %s], want [2, 1]", entries[0].ID, entries[1].ID)
	}
	if cursor == nil || cursor.Time != 100 {
		t.Errorf("cursor = %+v, want time=100", cursor)
	}
}

func TestListPaginationIsStableUnderInsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"1", "2", "3"} {
		e := entry.Entry{ID: id, Source: "https://h/feed", PublishedTime: int64((i + 1) * 100)}
		if err := db.PutEntry(ctx, e); err != nil {
			t.Fatalf("PutEntry(%s) error = %v", id, err)
		}
	}

	page1, cursor1, err := db.List(ctx, 2, nil)
	if err != nil {
		t.Fatalf("List() page1 error = %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "3" || page1[1].ID != "2" {
		t.Fatalf("page1 = %+v, want [3, 2]", page1)
	}

	newer := entry.Entry{ID: "4", Source: "https://h/feed", PublishedTime: 400}
	if err := db.PutEntry(ctx, newer); err != nil {
		t.Fatalf("PutEntry(4) error = %v", err)
	}

	page2, _, err := db.List(ctx, 2, cursor1)
	if err != nil {
		t.Fatalf("List() page2 error = %v", err)
	}
	if len(page2) != 1 || page2[0].ID != "1" {
		t.Fatalf("page2 = %+v, want [1]", page2)
	}
}

func TestPutEntryReplaceOnID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	e := entry.Entry{ID: "1", Source: "https://h/feed", Title: "first", PublishedTime: 100}
	if err := db.PutEntry(ctx, e); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}

	e.Title = "second"
	e.PublishedTime = 300
	if err := db.PutEntry(ctx, e); err != nil {
		t.Fatalf("PutEntry() replace error = %v", err)
	}

	entries, _, err := db.List(ctx, 10, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1 (replace-on-id)", len(entries))
	}
	if entries[0].Title != "second" {
		t.Errorf("Title = %q, want %q (most recent payload wins)", entries[0].Title, "second")
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := entry.Entry{ID: "1", Source: "https://h/feed", Title: "hello", Description: "hello world of go", PublishedTime: 100}
	b := entry.Entry{ID: "2", Source: "https://h/feed", Title: "other", Description: "nothing in common", PublishedTime: 200}
	if err := db.PutEntries(ctx, []entry.Entry{a, b}); err != nil {
		t.Fatalf("PutEntries() error = %v", err)
	}

	results, err := db.Search(ctx, "hello", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Fatalf("Search(hello) = %+v, want [entry 1]", results)
	}

	none, err := db.Search(ctx, "world", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(none) != 1 || none[0].ID != "1" {
		t.Fatalf("Search(world) = %+v, want [entry 1]", none)
	}
}

func TestETagRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, _, ok, err := db.GetETag(ctx, "https://h/feed")
	if err != nil {
		t.Fatalf("GetETag() error = %v", err)
	}
	if ok {
		t.Fatal("GetETag() found a record before any PutETag")
	}

	if err := db.PutETag(ctx, "https://h/feed", `"abc"`); err != nil {
		t.Fatalf("PutETag() error = %v", err)
	}

	etag, lastSeen, ok, err := db.GetETag(ctx, "https://h/feed")
	if err != nil {
		t.Fatalf("GetETag() error = %v", err)
	}
	if !ok || etag != `"abc"` || lastSeen == 0 {
		t.Errorf("GetETag() = (%q, %d, %v), want (\"abc\", nonzero, true)", etag, lastSeen, ok)
	}
}

func TestListImageEnclosures(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	e := entry.Entry{
		ID: "1", Source: "https://h/feed", PublishedTime: 100,
		Links: []entry.Link{
			{Href: "https://h/a.png", Type: "image/png", Rel: "enclosure"},
			{Href: "https://h/a.mp3", Type: "audio/mpeg", Rel: "enclosure"},
			{Href: "https://h/page", Rel: "alternate"},
		},
	}
	if err := db.PutEntry(ctx, e); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}

	hrefs, err := db.ListImageEnclosures(ctx)
	if err != nil {
		t.Fatalf("ListImageEnclosures() error = %v", err)
	}
	if len(hrefs) != 1 || hrefs[0] != "https://h/a.png" {
		t.Fatalf("ListImageEnclosures() = %v, want [https://h/a.png]", hrefs)
	}
}

func TestPollTwiceIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entries := []entry.Entry{
		{ID: "1", Source: "https://h/feed", Title: "A", PublishedTime: 100},
		{ID: "2", Source: "https://h/feed", Title: "B", PublishedTime: 200},
	}

	if err := db.PutEntries(ctx, entries); err != nil {
		t.Fatalf("PutEntries() first round error = %v", err)
	}
	if err := db.PutEntries(ctx, entries); err != nil {
		t.Fatalf("PutEntries() second round error = %v", err)
	}

	got, _, err := db.List(ctx, 10, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d entries after repeat poll, want 2 (no duplicates)", len(got))
	}
}
