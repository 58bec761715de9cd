package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/fetch"
	"github.com/kierank/feedor/normalize"
)

// JSONAdapter issues a POST with a JSON parameter object, then projects
// the response through two named functions: Items picks the list of raw
// item payloads out of the response body, Map converts one item into an
// Entry. Go has no data-serializable closures, so unlike the HTML
// Selector DSL these remain functions, supplied by a named constructor in
// registry.go (MisskeyAdapter) rather than inlined per feeds.txt line.
type JSONAdapter struct {
	URL    string
	Params any
	Items  func(body []byte) ([]json.RawMessage, error)
	Map    func(item json.RawMessage, sourceURL string) (entry.Entry, bool)
}

func (a JSONAdapter) Fetch(ctx context.Context, f *fetch.Fetcher) (FetchResult, error) {
	params, err := json.Marshal(a.Params)
	if err != nil {
		return FetchResult{}, fmt.Errorf("marshal params for %s: %w", a.URL, err)
	}

	body, err := f.PostJSON(ctx, a.URL, params)
	if err != nil {
		return FetchResult{}, err
	}

	items, err := a.Items(body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("project items from %s: %w", a.URL, err)
	}

	var entries []entry.Entry
	for _, item := range items {
		e, ok := a.Map(item, a.URL)
		if !ok {
			continue
		}
		e.Description = normalize.Entry(e.Description, a.URL)
		entry.DeriveID(&e)
		entries = append(entries, e)
	}

	return FetchResult{URL: a.URL, Entries: entries}, nil
}
