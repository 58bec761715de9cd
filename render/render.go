// Package render turns a page of stored entries into the syndication
// documents and HTML views the web surface serves: RSS 2.0, Atom 1.0,
// an XSLT-style HTML transform of the RSS document, and the search
// results page.
package render

import (
	"bytes"
	"embed"
	"encoding/xml"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/kierank/feedor/entry"
)

//go:embed templates/*
var templateFS embed.FS

// xmlEscape escapes a plain string (title, link, id) for use in an XML
// text node or attribute — text/template, unlike html/template, does not
// autoescape, so titles and links run through this explicitly wherever
// the templates place them in the document.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var (
	xmlTmpl  = texttemplate.Must(texttemplate.New("").Funcs(texttemplate.FuncMap{"xmlesc": xmlEscape}).ParseFS(templateFS, "templates/*.xml.tmpl"))
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

// Page is the data every template renders from: a page of entries plus
// the cursor for the next page, if any.
type Page struct {
	Title   string
	Entries []entry.Entry
	Next    string
}

// xmlItem feeds the RSS/Atom templates. Description is carried raw and
// wrapped in CDATA by the template itself — it was already sanitized to
// the allow-list before being stored, so CDATA is the only escaping it
// needs to travel inside an XML text node unchanged.
type xmlItem struct {
	Title       string
	Link        string
	ID          string
	Description string
	Date822     string
	Date3339    string
	Enclosures  []entry.Link
}

// htmlItem feeds the HTML templates (feed.html, search results), where
// Description is marked safe for direct output rather than CDATA-escaped.
type htmlItem struct {
	Title       string
	Link        string
	ID          string
	Description htmltemplate.HTML
	Date822     string
	Date3339    string
	Enclosures  []entry.Link
}

func toXMLItems(entries []entry.Entry) []xmlItem {
	items := make([]xmlItem, len(entries))
	for i, e := range entries {
		t := time.Unix(e.PublishedTime, 0).UTC()
		items[i] = xmlItem{
			Title:       e.Title,
			Link:        e.Link,
			ID:          e.ID,
			Description: e.Description,
			Date822:     t.Format(time.RFC1123Z),
			Date3339:    t.Format(time.RFC3339),
			Enclosures:  e.Links,
		}
	}
	return items
}

func toHTMLItems(entries []entry.Entry) []htmlItem {
	items := make([]htmlItem, len(entries))
	for i, e := range entries {
		t := time.Unix(e.PublishedTime, 0).UTC()
		items[i] = htmlItem{
			Title:       e.Title,
			Link:        e.Link,
			ID:          e.ID,
			Description: htmltemplate.HTML(e.Description), // #nosec G203 -- sanitized to an allow-list before storage
			Date822:     t.Format(time.RFC1123Z),
			Date3339:    t.Format(time.RFC3339),
			Enclosures:  e.Links,
		}
	}
	return items
}

type xmlFeedData struct {
	Title     string
	Generated string
	Items     []xmlItem
}

type htmlFeedData struct {
	Title     string
	Generated string
	Items     []htmlItem
	Next      string
}

// RSS renders p as an RSS 2.0 document with RFC-822 item dates.
func RSS(p Page) ([]byte, error) {
	return executeXML("rss.xml.tmpl", xmlFeedData{
		Title:     p.Title,
		Generated: time.Now().UTC().Format(time.RFC1123Z),
		Items:     toXMLItems(p.Entries),
	})
}

// Atom renders p as an Atom 1.0 document with RFC-3339 item dates.
func Atom(p Page) ([]byte, error) {
	return executeXML("atom.xml.tmpl", xmlFeedData{
		Title:     p.Title,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Items:     toXMLItems(p.Entries),
	})
}

// HTML renders p as the XSLT-transformed HTML view of the RSS document
// (`/feed.html`). The spec treats the transform as an opaque
// render(document, template_name) collaborator; no pure-Go XSLT engine
// exists among this module's dependencies, so the transform is expressed
// directly as a Go template over the same data an XSL stylesheet would
// receive as its source document, rather than round-tripping through an
// actual XSL processor.
func HTML(p Page) ([]byte, error) {
	return executeHTML("feed.html.tmpl", htmlFeedData{
		Title:     p.Title,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Items:     toHTMLItems(p.Entries),
		Next:      p.Next,
	})
}

type searchData struct {
	Query string
	Items []htmlItem
}

// Search renders the HTML results page for a full-text query.
func Search(query string, entries []entry.Entry) ([]byte, error) {
	return executeHTML("search.html.tmpl", searchData{Query: query, Items: toHTMLItems(entries)})
}

func executeXML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := xmlTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func executeHTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
