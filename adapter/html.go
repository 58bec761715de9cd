package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/fetch"
	"github.com/kierank/feedor/normalize"
)

// Field names an HTMLAdapter emits into the normalized entry. The
// well-known fields map onto Entry; anything else lands in Entry.Extra.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldLink        = "link"
	FieldID          = "id"
	FieldPublished   = "published"
	FieldEnclosures  = "enclosures"
)

// HTMLAdapter fetches a page and, for each element matched by ItemSelector,
// builds one entry from Fields — a map of field name to Selector.
type HTMLAdapter struct {
	URL          string
	ItemSelector string
	Fields       map[string]Selector
	// ParseTime converts a raw "published" string to epoch seconds. A nil
	// ParseTime leaves published_time at 0, matching the spec's
	// "unparseable dates become 0" rule.
	ParseTime func(string) int64
}

func (a HTMLAdapter) Fetch(ctx context.Context, f *fetch.Fetcher) (FetchResult, error) {
	body, status, err := f.Fetch(ctx, a.URL)
	if err != nil {
		return FetchResult{}, err
	}
	if status == fetch.StatusNotModified {
		return FetchResult{URL: a.URL}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse html %s: %w", a.URL, err)
	}

	if base, err := url.Parse(a.URL); err == nil {
		normalize.AbsolutizeDoc(doc.Selection, base)
	}

	feedTitle := strings.TrimSpace(doc.Find("head title").First().Text())

	var entries []entry.Entry
	doc.Find(a.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		entries = append(entries, a.entryFromItem(item))
	})

	return FetchResult{URL: a.URL, FeedTitle: feedTitle, Entries: entries}, nil
}

func (a HTMLAdapter) entryFromItem(item *goquery.Selection) entry.Entry {
	e := entry.Entry{Source: a.URL}

	for name, sel := range a.Fields {
		switch sel.Kind {
		case KindEnclosures, KindEnclosuresRegex:
			e.Links = append(e.Links, sel.EvalLinks(item)...)
		default:
			v, ok := sel.Eval(item)
			if !ok {
				continue
			}
			a.assignField(&e, name, v)
		}
	}

	entry.DeriveID(&e)
	return e
}

func (a HTMLAdapter) assignField(e *entry.Entry, name, v string) {
	switch name {
	case FieldTitle:
		e.Title = v
	case FieldDescription:
		e.Description = v
	case FieldLink:
		e.Link = v
	case FieldID:
		e.ID = v
	case FieldPublished:
		if a.ParseTime != nil {
			e.PublishedTime = a.ParseTime(v)
		}
	default:
		if e.Extra == nil {
			e.Extra = make(map[string]any)
		}
		e.Extra[name] = v
	}
}
