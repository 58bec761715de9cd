// Package poll implements the periodic concurrent refresh over all
// configured sources: poll_all() plus the background driver that invokes
// it on a fixed interval.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kierank/feedor/config"
	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/fetch"
	"github.com/kierank/feedor/normalize"
)

// maxConcurrentFetch bounds the worker pool for one round's fan-out,
// grounded on the teacher's scheduler.FetchFeeds pool size.
const maxConcurrentFetch = 30

// RoundTimeout is the round-level budget a poll_all() invocation runs
// under (spec default: 90s).
const RoundTimeout = 90 * time.Second

// Store is the subset of store.DB the poller writes through.
type Store interface {
	PutEntries(ctx context.Context, entries []entry.Entry) error
}

// Poller runs one full refresh across Sources and, via Run, drives that
// refresh on a fixed period.
type Poller struct {
	Sources []config.Source
	Fetcher *fetch.Fetcher
	Store   Store
	Logger  *log.Logger
}

// PollAll runs one round: concurrently invoke each source's adapter,
// normalize its entries, and batch-upsert per source. A panicking or
// erroring adapter is isolated and logged; it never cancels the round.
func (p *Poller) PollAll(ctx context.Context) error {
	sem := make(chan struct{}, maxConcurrentFetch)
	var wg sync.WaitGroup

	for _, src := range p.Sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(src config.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					p.logger().Error("adapter panicked", "source", src.Line, "panic", r)
				}
			}()
			p.pollSource(ctx, src)
		}(src)
	}

	wg.Wait()
	return nil
}

func (p *Poller) pollSource(ctx context.Context, src config.Source) {
	result, err := src.Adapter.Fetch(ctx, p.Fetcher)
	if err != nil {
		p.logger().Error("fetch failed", "source", src.Line, "err", err)
		return
	}
	if len(result.Entries) == 0 {
		return
	}

	for i := range result.Entries {
		applyRoundNormalization(&result.Entries[i], result.URL, result.FeedTitle)
	}

	if err := p.Store.PutEntries(ctx, result.Entries); err != nil {
		p.logger().Error("store upsert failed", "source", src.Line, "err", err)
	}
}

// applyRoundNormalization fills in the fields the poller — not the
// adapter — is responsible for: source_title, source, link absolutized
// against the source URL, and entry id. Absolutization/sanitization of
// description, and published_time, are already handled by the adapter per
// §4.2/§4.5.
func applyRoundNormalization(e *entry.Entry, sourceURL, feedTitle string) {
	if e.SourceTitle == "" {
		e.SourceTitle = feedTitle
	}
	if e.Source == "" {
		e.Source = sourceURL
	}
	e.Link = normalize.AbsolutizeURL(e.Link, sourceURL)
	entry.DeriveID(e)
}

func (p *Poller) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// Run drives PollAll on a fixed interval, each round under RoundTimeout.
// Timeouts are logged and never fatal; the loop continues until ctx is
// canceled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			roundCtx, cancel := context.WithTimeout(ctx, RoundTimeout)
			if err := p.PollAll(roundCtx); err != nil {
				p.logger().Error("poll round failed", "err", err)
			}
			cancel()
		}
	}
}
