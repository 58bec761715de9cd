// Package config loads the on-disk feed list and the application's own
// runtime settings.
package config

import (
	"strings"

	"github.com/kierank/feedor/adapter"
)

// Source is one parsed feeds.txt line: either a bare URL (syndication) or
// a scheme::arg1::arg2 dispatch to a named adapter.
type Source struct {
	Line    string
	Adapter adapter.Adapter
}

// ParseFeedList parses feeds.txt contents: one source per line, blank
// lines and "#"-prefixed lines ignored. reg may be nil or empty; it
// extends Dispatch with operator-defined schemes from adapters.yaml.
func ParseFeedList(text string, reg AdapterRegistry) ([]Source, error) {
	var sources []Source
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, err := Dispatch(line, reg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Line: line, Adapter: a})
	}
	return sources, nil
}

// Dispatch turns one feeds.txt line into an Adapter. A bare URL (no
// "::") becomes a SyndicationAdapter. "scheme::arg1::arg2..." is
// dispatched to a named adapter (built-in, then reg); an unrecognized
// scheme degrades to a SyndicationAdapter over the raw first argument.
func Dispatch(line string, reg AdapterRegistry) (adapter.Adapter, error) {
	if !strings.Contains(line, "::") {
		return adapter.SyndicationAdapter{URL: line}, nil
	}

	parts := strings.Split(line, "::")
	scheme, args := parts[0], parts[1:]

	switch scheme {
	case "tg":
		if len(args) >= 1 {
			return adapter.TelegramAdapter(args[0]), nil
		}
	case "lb":
		if len(args) >= 1 {
			return adapter.LazyblogAdapter(args[0]), nil
		}
	case "mk":
		if len(args) >= 2 {
			return adapter.MisskeyAdapter(args[0], args[1]), nil
		}
	}

	if tmpl, ok := reg[scheme]; ok && len(args) >= 1 {
		return tmpl.Build(args[0])
	}

	if len(args) >= 1 {
		return adapter.SyndicationAdapter{URL: args[0]}, nil
	}
	return adapter.SyndicationAdapter{URL: line}, nil
}
