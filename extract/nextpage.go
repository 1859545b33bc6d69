package extract

import (
	"strings"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/locator"
)

// Resolver implements crawl.NextResolver. It tries the set's next-page
// locator first, then the shared fallback catalog.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// ResolveNext finds the first live next-page control. A control with a
// usable href yields a URL; one without yields a click instruction. A
// match that exists but is disabled means the listing's last page.
func (r *Resolver) ResolveNext(doc dom.Document, nextLocator string) (crawl.NextPage, error) {
	candidates := locator.FallbackPatterns(locator.NextPage)
	if nextLocator != "" {
		candidates = append([]string{nextLocator}, candidates...)
	}

	for _, sel := range candidates {
		els, err := doc.Select(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if disabled(el) {
				continue
			}
			if href, ok := el.Attr("href"); ok && usableHref(href) {
				return crawl.NextPage{
					HasNext: true,
					NextURL: absoluteURL(doc.BaseURL(), href),
				}, nil
			}
			return crawl.NextPage{
				HasNext:       true,
				NeedsClick:    true,
				ClickSelector: sel,
			}, nil
		}
	}

	return crawl.NextPage{}, nil
}

// disabled reports whether a pagination control is inert: a disabled
// attribute, aria-disabled, or a class containing "disabled".
func disabled(el dom.Element) bool {
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	if v, ok := el.Attr("aria-disabled"); ok && v == "true" {
		return true
	}
	for _, c := range el.Classes() {
		if strings.Contains(strings.ToLower(c), "disabled") {
			return true
		}
	}
	return false
}

// usableHref rejects hrefs that do not navigate anywhere.
func usableHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}
