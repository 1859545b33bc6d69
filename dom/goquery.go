package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Parse builds a Document from raw HTML. baseURL is the page the HTML
// came from and may be empty.
func Parse(html, baseURL string) (Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &document{gq: gq, baseURL: baseURL}, nil
}

type document struct {
	gq      *goquery.Document
	baseURL string
}

func (d *document) BaseURL() string { return d.baseURL }

func (d *document) Select(selector string) ([]Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return collect(d.gq.FindMatcher(m)), nil
}

type element struct {
	sel *goquery.Selection
}

func (e *element) Text() string { return strings.TrimSpace(e.sel.Text()) }

func (e *element) Attr(name string) (string, bool) { return e.sel.Attr(name) }

func (e *element) Classes() []string {
	cls, ok := e.sel.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(cls)
}

func (e *element) Parent() Element {
	p := e.sel.Parent()
	if p.Length() == 0 {
		return nil
	}
	// goquery reports the document root as an element too; treat it as
	// "no parent" so callers can stop walking there.
	if node := p.Get(0); node != nil && node.Parent == nil {
		return nil
	}
	return &element{sel: p}
}

func (e *element) Select(selector string) ([]Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return collect(e.sel.FindMatcher(m)), nil
}

// compile parses a CSS selector up front so syntax errors surface as
// errors instead of goquery's internal panic.
func compile(selector string) (goquery.Matcher, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("dom: empty selector")
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: invalid selector %q: %w", selector, err)
	}
	return m, nil
}

func collect(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out
}
