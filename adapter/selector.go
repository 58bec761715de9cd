package adapter

import (
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kierank/feedor/entry"
	"github.com/kierank/feedor/normalize"
)

// SelectorKind names one of the six field-selector behaviors an
// HTMLAdapter field can use. Selectors are data, not closures, so
// adapters stay serializable and testable (spec §9 "Adapter closures").
type SelectorKind int

const (
	KindText SelectorKind = iota
	KindHTML
	KindAttr
	KindAttrRegex
	KindEnclosures
	KindEnclosuresRegex
)

// Selector is a single field-extraction rule evaluated against the
// element matched by an adapter's item selector.
type Selector struct {
	Kind  SelectorKind
	Sel   string // CSS selector, "" means the item element itself
	Attr  string
	Regex string
	Group int
}

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

func (s Selector) find(item *goquery.Selection) *goquery.Selection {
	if s.Sel == "" {
		return item
	}
	return item.Find(s.Sel).First()
}

// Eval implements text/html/attr/attr_regex. ok is false when the
// selector's match is empty — callers must omit the field, not emit "".
func (s Selector) Eval(item *goquery.Selection) (string, bool) {
	switch s.Kind {
	case KindText:
		sel := s.find(item)
		if sel.Length() == 0 {
			return "", false
		}
		html, err := sel.Html()
		if err != nil {
			return "", false
		}
		text := brTag.ReplaceAllString(html, "\n")
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			return "", false
		}
		v := strings.TrimSpace(doc.Text())
		if v == "" {
			return "", false
		}
		return v, true

	case KindHTML:
		sel := s.find(item)
		if sel.Length() == 0 {
			return "", false
		}
		inner, err := sel.Html()
		if err != nil || strings.TrimSpace(inner) == "" {
			return "", false
		}
		return normalize.Sanitize(inner), true

	case KindAttr:
		sel := s.find(item)
		if sel.Length() == 0 {
			return "", false
		}
		v, ok := sel.Attr(s.Attr)
		if !ok || v == "" {
			return "", false
		}
		return v, true

	case KindAttrRegex:
		sel := s.find(item)
		if sel.Length() == 0 {
			return "", false
		}
		v, ok := sel.Attr(s.Attr)
		if !ok {
			return "", false
		}
		re, err := regexp.Compile(s.Regex)
		if err != nil {
			return "", false
		}
		m := re.FindStringSubmatch(v)
		if m == nil || s.Group >= len(m) {
			return "", false
		}
		if m[s.Group] == "" {
			return "", false
		}
		return m[s.Group], true
	}
	return "", false
}

// EvalLinks implements enclosures/enclosures_regex: one Link per matched
// element, type guessed from the URL suffix, length 0, rel "enclosure".
func (s Selector) EvalLinks(item *goquery.Selection) []entry.Link {
	var sel *goquery.Selection
	if s.Sel == "" {
		sel = item
	} else {
		sel = item.Find(s.Sel)
	}

	var links []entry.Link
	sel.Each(func(_ int, el *goquery.Selection) {
		v, ok := el.Attr(s.Attr)
		if !ok || v == "" {
			return
		}

		href := v
		if s.Kind == KindEnclosuresRegex {
			re, err := regexp.Compile(s.Regex)
			if err != nil {
				return
			}
			m := re.FindStringSubmatch(v)
			if m == nil || s.Group >= len(m) || m[s.Group] == "" {
				return
			}
			href = m[s.Group]
		}

		links = append(links, entry.Link{
			Href:   href,
			Type:   guessType(href),
			Length: 0,
			Rel:    "enclosure",
		})
	})
	return links
}

func guessType(url string) string {
	ext := path.Ext(strings.SplitN(url, "?", 2)[0])
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
