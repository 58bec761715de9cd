// Package adapter turns one configured source into a normalized entry
// stream. Three variants share the FetchResult contract: syndication
// feeds via gofeed, HTML pages scraped via a CSS selector DSL, and JSON
// APIs projected by named item/map functions.
package adapter

import (
	"context"

	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/fetch"
)

// FetchResult is what one source's adapter invocation produces.
type FetchResult struct {
	URL       string
	FeedTitle string
	Entries   []entry.Entry
}

// Adapter converts a source definition into a FetchResult using the
// shared ConditionalFetcher for the underlying HTTP work.
type Adapter interface {
	Fetch(ctx context.Context, f *fetch.Fetcher) (FetchResult, error)
}
