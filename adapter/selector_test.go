package adapter

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// parseItem returns the body element as the item, so the fixture markup is
// its content and a selector's Sel matches elements inside it.
func parseItem(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc.Find("body")
}

func TestSelectorTextNormalizesBreaks(t *testing.T) {
	item := parseItem(t, `<div class="msg">line one<br>line two</div>`)
	sel := Selector{Kind: KindText, Sel: ".msg"}
	got, ok := sel.Eval(item)
	if !ok {
		t.Fatal("Eval() ok = false, want true")
	}
	want := "line one\nline two"
	if got != want {
		t.Errorf("Eval() = %q, want %q", got, want)
	}
}

func TestSelectorTextEmptyIsOmitted(t *testing.T) {
	item := parseItem(t, `<div class="msg"></div>`)
	sel := Selector{Kind: KindText, Sel: ".msg"}
	_, ok := sel.Eval(item)
	if ok {
		t.Error("Eval() ok = true, want false for empty match")
	}
}

func TestSelectorAttr(t *testing.T) {
	item := parseItem(t, `<div><a class="x" href="/y">y</a></div>`)
	sel := Selector{Kind: KindAttr, Sel: "a.x", Attr: "href"}
	got, ok := sel.Eval(item)
	if !ok || got != "/y" {
		t.Errorf("Eval() = (%q, %v), want (/y, true)", got, ok)
	}
}

func TestSelectorAttrRegex(t *testing.T) {
	item := parseItem(t, `<div style="background-image:url('https://h/a.png')"></div>`)
	sel := Selector{Kind: KindAttrRegex, Sel: "div", Attr: "style", Regex: `url\('(.+)'\)`, Group: 1}
	got, ok := sel.Eval(item)
	if !ok || got != "https://h/a.png" {
		t.Errorf("Eval() = (%q, %v), want (https://h/a.png, true)", got, ok)
	}
}

func TestSelectorEnclosures(t *testing.T) {
	item := parseItem(t, `<div><video src="https://h/v.png"></video><video src=""></video></div>`)
	sel := Selector{Kind: KindEnclosures, Sel: "video", Attr: "src"}
	links := sel.EvalLinks(item)
	if len(links) != 1 {
		t.Fatalf("EvalLinks() = %+v, want 1 link", links)
	}
	if links[0].Href != "https://h/v.png" || links[0].Rel != "enclosure" {
		t.Errorf("link = %+v", links[0])
	}
	if links[0].Type != "image/png" {
		t.Errorf("type = %q, want image/png", links[0].Type)
	}
}

func TestSelectorEnclosuresRegex(t *testing.T) {
	item := parseItem(t, `<div class="photo" style="background-image:url('https://h/a.jpg')"></div>`)
	sel := Selector{Kind: KindEnclosuresRegex, Sel: ".photo", Attr: "style", Regex: `url\('(.+)'\)`, Group: 1}
	links := sel.EvalLinks(item)
	if len(links) != 1 || links[0].Href != "https://h/a.jpg" {
		t.Fatalf("EvalLinks() = %+v", links)
	}
}

func TestSelectorHTMLSanitizes(t *testing.T) {
	item := parseItem(t, `<div class="msg"><script>x</script><p>hi</p></div>`)
	sel := Selector{Kind: KindHTML, Sel: ".msg"}
	got, ok := sel.Eval(item)
	if !ok {
		t.Fatal("Eval() ok = false")
	}
	if strings.Contains(got, "script") {
		t.Errorf("Eval() = %q, script tag not stripped", got)
	}
}
