package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/locator"
)

// roleHints maps each role to class-name fragments that suggest it.
var roleHints = map[locator.Role][]string{
	locator.ListContainer: {"job-list", "jobs", "listings", "results", "search-results", "list"},
	locator.ItemContainer: {"job-item", "job-card", "job", "item", "card", "listing", "result", "vacancy", "position"},
	locator.Title:         {"job-title", "title", "position", "role-name"},
	locator.Company:       {"company", "employer", "organization", "org-name"},
	locator.Location:      {"location", "place", "city", "region", "workplace"},
	locator.PublishedAt:   {"date", "posted", "published", "time", "age"},
	locator.Description:   {"description", "summary", "snippet", "excerpt"},
	locator.Link:          {"job-link", "link", "job-title", "title"},
	locator.NextPage:      {"next", "pagination-next", "pager-next"},
}

// frameworkSignals are substring probes against the raw HTML, checked in
// order; the first hit wins.
var frameworkSignals = []struct {
	name    string
	markers []string
}{
	{"nextjs", []string{"__NEXT_DATA__", "_next/static"}},
	{"react", []string{"data-reactroot", "data-reactid", "react-dom"}},
	{"vue", []string{"data-v-", "vue-app", "__vue__"}},
	{"angular", []string{"ng-version", "ng-app"}},
}

// Heuristic is a model-free Analyzer built on class-name conventions.
// It is the default when no external suggestion source is configured,
// and the fallback when one fails.
type Heuristic struct {
	scorer *locator.Scorer
	logger *slog.Logger
}

func NewHeuristic(logger *slog.Logger) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Heuristic{
		scorer: locator.NewScorer(locator.DefaultWeights),
		logger: logger,
	}
}

// AnalyzeStructure scans class names for role-suggestive fragments,
// scores the resulting selectors and keeps the best few per role. The
// screenshot path is accepted for interface parity and ignored.
func (h *Heuristic) AnalyzeStructure(ctx context.Context, pageURL, html, screenshotPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := dom.Parse(html, pageURL)
	if err != nil {
		return nil, fmt.Errorf("analyze: parse page: %w", err)
	}

	classes, err := collectClasses(doc)
	if err != nil {
		return nil, fmt.Errorf("analyze: collect classes: %w", err)
	}

	res := &Result{
		Recommended: make(map[locator.Role]string),
		Detected:    make(map[locator.Role][]string),
		Framework:   detectFramework(html),
		Features:    detectFeatures(doc, html),
	}

	var confSum float64
	var confN int
	for _, role := range locator.Roles() {
		ranked := h.rankRole(role, classes, doc)
		if len(ranked) == 0 {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: no class-based candidates", role))
			continue
		}
		res.Detected[role] = selectors(ranked)
		res.Recommended[role] = ranked[0].Locator
		confSum += ranked[0].Composite
		confN++
	}
	if confN > 0 {
		res.Confidence = confSum / float64(confN)
	}

	h.logger.Debug("page analyzed",
		"url", pageURL, "framework", res.Framework,
		"roles", confN, "confidence", res.Confidence)
	return res, nil
}

const maxCandidatesPerRole = 5

// rankRole scores every hint-matching class selector for a role and
// returns the top candidates, best composite first.
func (h *Heuristic) rankRole(role locator.Role, classes []string, doc dom.Document) []locator.Candidate {
	var ranked []locator.Candidate
	seen := make(map[string]bool)
	for _, class := range classes {
		if !matchesHint(role, class) {
			continue
		}
		sel := "." + class
		if seen[sel] {
			continue
		}
		seen[sel] = true

		c := h.scorer.Score(role, sel, doc)
		if c.Composite <= 0 || c.MatchCount == 0 {
			continue
		}
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Composite > ranked[j].Composite
	})
	if len(ranked) > maxCandidatesPerRole {
		ranked = ranked[:maxCandidatesPerRole]
	}
	return ranked
}

func matchesHint(role locator.Role, class string) bool {
	lower := strings.ToLower(class)
	for _, hint := range roleHints[role] {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func selectors(cands []locator.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Locator
	}
	return out
}

// collectClasses returns every distinct class attribute value in
// document order.
func collectClasses(doc dom.Document) ([]string, error) {
	els, err := doc.Select("[class]")
	if err != nil {
		return nil, err
	}
	var classes []string
	seen := make(map[string]bool)
	for _, el := range els {
		for _, c := range el.Classes() {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			classes = append(classes, c)
		}
	}
	return classes, nil
}

func detectFramework(html string) string {
	for _, sig := range frameworkSignals {
		for _, m := range sig.markers {
			if strings.Contains(html, m) {
				return sig.name
			}
		}
	}
	return ""
}

// detectFeatures probes for pagination style. The crawl engine treats
// these as hints only; the next-page resolver decides at runtime.
func detectFeatures(doc dom.Document, html string) []string {
	var feats []string
	for _, sel := range locator.FallbackPatterns(locator.NextPage) {
		if els, err := doc.Select(sel); err == nil && len(els) > 0 {
			feats = append(feats, "pagination")
			break
		}
	}
	lower := strings.ToLower(html)
	if strings.Contains(lower, "load more") || strings.Contains(lower, "show more") {
		feats = append(feats, "load-more")
	}
	if strings.Contains(lower, "infinite-scroll") || strings.Contains(lower, "infinitescroll") {
		feats = append(feats, "infinite-scroll")
	}
	return feats
}
