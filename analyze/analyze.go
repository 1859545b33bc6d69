// Package analyze inspects a rendered listing page and proposes locator
// candidates per role, plus page-level signals (framework, pagination
// style) that inform crawl configuration.
package analyze

import (
	"context"

	"github.com/junqing258/crawler-assistant/locator"
)

// Result is one page-structure analysis.
type Result struct {
	// Confidence is the analyzer's own estimate in [0,1] of how well the
	// recommended locators fit the page.
	Confidence float64 `json:"confidence"`

	// Recommended is the analyzer's single best locator per role. Roles
	// with no plausible candidate are absent.
	Recommended map[locator.Role]string `json:"recommended"`

	// Detected lists alternative candidates per role, best first, for
	// the synthesizer to fall back on.
	Detected map[locator.Role][]string `json:"detected"`

	// Framework is the detected frontend framework, or "" when unknown.
	Framework string `json:"framework,omitempty"`

	// Features are page-level traits: "pagination", "load-more",
	// "infinite-scroll".
	Features []string `json:"features,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// Analyzer proposes locators for a listing page. Implementations may be
// heuristic or model-backed; callers treat the output as advisory and
// validate everything before use.
type Analyzer interface {
	AnalyzeStructure(ctx context.Context, pageURL, html, screenshotPath string) (*Result, error)
}
