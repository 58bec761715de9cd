package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kierank/feedor/fetch"
)

type memEtags struct{}

func (memEtags) GetETag(ctx context.Context, feedURL string) (string, int64, bool, error) {
	return "", 0, false, nil
}
func (memEtags) PutETag(ctx context.Context, feedURL, etag string) error { return nil }

func testFetcher() *fetch.Fetcher {
	return fetch.New(memEtags{})
}

func TestHTMLAdapterFetch(t *testing.T) {
	page := `<html><head><title>My Blog</title></head><body>
		<main>
			<li><a class="title" href="/post/1">First post</a><p>Hello <a href="/y">y</a></p><time>2024-01-02T03:04:05Z</time></li>
		</main>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	a := LazyblogAdapter(srv.URL)
	f := fetch.New(memEtags{})
	result, err := a.Fetch(context.Background(), f)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.FeedTitle != "My Blog" {
		t.Errorf("FeedTitle = %q, want %q", result.FeedTitle, "My Blog")
	}
	if len(result.Entries) != 1 {
		t.Fatalf("Entries = %+v, want 1 entry", result.Entries)
	}
	e := result.Entries[0]
	if e.Title != "First post" {
		t.Errorf("Title = %q, want %q", e.Title, "First post")
	}
	if e.Link != srv.URL+"/post/1" {
		t.Errorf("Link = %q, want %q", e.Link, srv.URL+"/post/1")
	}
	if e.ID != srv.URL+"/post/1" {
		t.Errorf("ID = %q, want link value", e.ID)
	}
}

func TestHTMLAdapterOmitsEmptyFields(t *testing.T) {
	page := `<html><body><main><li><a class="title" href="/p/1"></a></li></main></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	a := LazyblogAdapter(srv.URL)
	f := fetch.New(memEtags{})
	result, err := a.Fetch(context.Background(), f)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("Entries = %+v, want 1 entry", result.Entries)
	}
	if result.Entries[0].Title != "" {
		t.Errorf("Title = %q, want empty (selector matched nothing)", result.Entries[0].Title)
	}
}
