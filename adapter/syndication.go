package adapter

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/fetch"
	"github.com/kierank/feedor/normalize"
)

// SyndicationAdapter fetches a URL and parses RSS/Atom via gofeed,
// yielding entries directly from the parsed items.
type SyndicationAdapter struct {
	URL string
}

func (a SyndicationAdapter) Fetch(ctx context.Context, f *fetch.Fetcher) (FetchResult, error) {
	body, status, err := f.Fetch(ctx, a.URL)
	if err != nil {
		return FetchResult{}, err
	}
	if status == fetch.StatusNotModified {
		return FetchResult{URL: a.URL}, nil
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse feed %s: %w", a.URL, err)
	}

	entries := make([]entry.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, entryFromFeedItem(item, feed, a.URL))
	}

	return FetchResult{URL: a.URL, FeedTitle: feed.Title, Entries: entries}, nil
}

func entryFromFeedItem(item *gofeed.Item, feed *gofeed.Feed, sourceURL string) entry.Entry {
	e := entry.Entry{
		Source:      sourceURL,
		SourceTitle: feed.Title,
		Title:       item.Title,
		Link:        normalize.AbsolutizeURL(item.Link, sourceURL),
	}
	if item.GUID != "" {
		e.ID = item.GUID
	}

	description := item.Content
	if description == "" {
		description = item.Description
	}
	e.Description = normalize.Entry(description, sourceURL)

	e.PublishedTime = publishedTime(item, feed)

	for _, enc := range item.Enclosures {
		e.Links = append(e.Links, entry.Link{
			Href: normalize.AbsolutizeURL(enc.URL, sourceURL),
			Type: enc.Type,
			Rel:  "enclosure",
		})
	}

	entry.DeriveID(&e)
	return e
}

// publishedTime implements the spec's precedence: updated, then
// published, then 0.
func publishedTime(item *gofeed.Item, feed *gofeed.Feed) int64 {
	if item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero() {
		return item.UpdatedParsed.Unix()
	}
	if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() {
		return item.PublishedParsed.Unix()
	}
	return 0
}
