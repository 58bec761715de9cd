package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMisskeyAdapterFetch(t *testing.T) {
	notes := []map[string]any{
		{
			"id":        "abc",
			"text":      "hello world",
			"createdAt": "2024-01-02T03:04:05.000Z",
			"user":      map[string]any{"username": "alice"},
			"files":     []map[string]any{{"url": "https://h/a.png", "type": "image/png", "size": 100}},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		json.NewDecoder(r.Body).Decode(&params)
		if params["userId"] != "alice123" {
			t.Errorf("userId = %v, want alice123", params["userId"])
		}
		json.NewEncoder(w).Encode(notes)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	a := MisskeyAdapter(host, "alice123")
	a.URL = srv.URL // override https://host with the test server's http URL

	f := testFetcher()
	result, err := a.Fetch(context.Background(), f)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("Entries = %+v, want 1", result.Entries)
	}
	e := result.Entries[0]
	if e.Title != "alice" {
		t.Errorf("Title = %q, want %q", e.Title, "alice")
	}
	if len(e.Links) != 1 || e.Links[0].Href != "https://h/a.png" {
		t.Errorf("Links = %+v", e.Links)
	}
}
