// Package extract turns a loaded listing document into records using a
// finalized locator set, and resolves the control that leads to the next
// results page.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/locator"
)

// Extractor implements crawl.Extractor over the dom capability.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract selects the item containers and reads one record per item.
// Items are scoped under the first list-container match when the list
// locator holds; otherwise items are selected document-wide. Matches
// that yield neither a title nor a company are decorative and skipped.
func (x *Extractor) Extract(doc dom.Document, set *locator.Set) ([]crawl.Record, error) {
	itemLoc := set.Locator(locator.ItemContainer)

	items, err := x.selectItems(doc, set.Locator(locator.ListContainer), itemLoc)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("extract: item container %q matched nothing", itemLoc)
	}

	records := make([]crawl.Record, 0, len(items))
	skipped := 0
	for _, item := range items {
		r := crawl.Record{
			Title:          firstText(item, set.Locator(locator.Title)),
			Company:        firstText(item, set.Locator(locator.Company)),
			Location:       firstText(item, set.Locator(locator.Location)),
			Description:    firstText(item, set.Locator(locator.Description)),
			PublishedAtRaw: firstText(item, set.Locator(locator.PublishedAt)),
			Link:           x.itemLink(doc, item, set.Locator(locator.Link)),
		}
		if r.Empty() {
			skipped++
			continue
		}
		records = append(records, r)
	}
	if skipped > 0 {
		x.logger.Debug("skipped decorative item matches", "count", skipped)
	}
	return records, nil
}

// selectItems scopes the item locator under the list container when one
// matches, falling back to a document-wide select.
func (x *Extractor) selectItems(doc dom.Document, listLoc, itemLoc string) ([]dom.Element, error) {
	if listLoc != "" {
		lists, err := doc.Select(listLoc)
		if err == nil && len(lists) > 0 {
			items, serr := lists[0].Select(itemLoc)
			if serr == nil && len(items) > 0 {
				return items, nil
			}
		}
	}
	items, err := doc.Select(itemLoc)
	if err != nil {
		return nil, fmt.Errorf("extract: select items: %w", err)
	}
	return items, nil
}

// itemLink reads the href of the link element, or of the item itself
// when the item is the anchor, resolved against the document base.
func (x *Extractor) itemLink(doc dom.Document, item dom.Element, linkLoc string) string {
	if linkLoc != "" {
		if els, err := item.Select(linkLoc); err == nil {
			for _, el := range els {
				if href, ok := el.Attr("href"); ok && href != "" {
					return absoluteURL(doc.BaseURL(), href)
				}
			}
		}
	}
	if href, ok := item.Attr("href"); ok && href != "" {
		return absoluteURL(doc.BaseURL(), href)
	}
	return ""
}

func firstText(item dom.Element, loc string) string {
	if loc == "" {
		return ""
	}
	els, err := item.Select(loc)
	if err != nil || len(els) == 0 {
		return ""
	}
	return strings.TrimSpace(els[0].Text())
}

// absoluteURL resolves href against base; malformed input returns the
// href untouched rather than losing it.
func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
