package crawl

import (
	"context"
	"time"

	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/locator"
	"github.com/junqing258/crawler-assistant/stealth"
)

// PageLoader opens browser pages for a session. The production
// implementation lives in the browser package; tests inject fakes.
type PageLoader interface {
	// Open creates a page configured with the session's stealth profile.
	// The page belongs to the session and must be closed by the caller.
	Open(ctx context.Context, profile *stealth.Profile) (Page, error)
}

// Page is one browser tab for the lifetime of a session.
type Page interface {
	// Load navigates to url and returns the settled document. A failed
	// navigation is reported through PageResult.Success with the cause in
	// ErrorMessage; the error return is reserved for transport-level
	// trouble (page already closed, context cancelled).
	Load(ctx context.Context, url string, waitForLoad, takeScreenshot bool) (*PageResult, error)

	// ClickNavigate clicks the element at selector, waits for the
	// resulting navigation and returns the new page URL.
	ClickNavigate(ctx context.Context, selector string) (string, error)

	Close() error
}

// PageResult is the outcome of a single page load.
type PageResult struct {
	Success        bool
	HTML           string
	ScreenshotPath string
	LoadTime       time.Duration
	ErrorMessage   string
}

// Extractor pulls records off a loaded document using a locator set.
type Extractor interface {
	// Extract returns every record found under the item containers,
	// including low-quality ones; the engine applies the acceptance
	// threshold. A nil-match item container is ErrExtraction.
	Extract(doc dom.Document, set *locator.Set) ([]Record, error)
}

// NextPage describes how to reach the following results page, if any.
type NextPage struct {
	HasNext bool

	// NextURL is set when the next-page element carries a usable href.
	NextURL string

	// NeedsClick is set when no href is available and the engine must
	// click ClickSelector to navigate.
	NeedsClick    bool
	ClickSelector string
}

// NextResolver finds the next-page control on a loaded document.
type NextResolver interface {
	// ResolveNext inspects the document for a live next-page element.
	// nextLocator may be empty, in which case only the shared fallback
	// catalog is tried. A disabled control resolves to HasNext=false.
	ResolveNext(doc dom.Document, nextLocator string) (NextPage, error)
}

// ChallengeFunc screens page content for anti-bot challenges. It is a
// function type so the stealth package's Detect slots in directly.
type ChallengeFunc func(content string) stealth.Detection

// Recorder receives session lifecycle events for persistence. Calls
// are best-effort: the engine logs recorder errors and keeps going.
type Recorder interface {
	SessionStarted(ctx context.Context, s *Session) error
	SessionFinished(ctx context.Context, s *Session, result *Result) error
}

// Result is the terminal outcome of a crawl session.
type Result struct {
	Success      bool
	Records      []Record
	PagesCrawled int
	Errors       []string
	HasNextPage  bool
	NextPageURL  string
}
