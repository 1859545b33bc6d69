package locator

import "github.com/junqing258/crawler-assistant/dom"

// fallbackPatterns is the literal per-role pattern catalog, ordered most
// specific first. Read-only; shared across sessions.
var fallbackPatterns = map[Role][]string{
	ListContainer: {
		".jobs-list", ".job-list", ".positions", ".careers",
		".search-results", ".listings", `[class*="job"]`,
		`ul[class*="job"]`, `div[class*="list"]`,
	},
	ItemContainer: {
		".job-item", ".job-card", ".position", ".listing",
		".job-posting", `[class*="job-item"]`, `li[class*="job"]`,
		`div[class*="item"]`, ".result-item",
	},
	Title: {
		".job-title", ".position-title", ".title", "h1", "h2", "h3",
		`a[class*="title"]`, `[class*="job-title"]`, ".name",
	},
	Link: {
		`a[href*="/job/"]`, `a[href*="/position/"]`, `a[href*="/career/"]`,
		".job-link", ".title-link", "a.title", "h3 a", "h2 a",
	},
	Company: {
		".company", ".employer", ".company-name", ".organization",
		`[class*="company"]`, `[class*="employer"]`, ".firm",
	},
	PublishedAt: {
		".date", ".time", ".published", ".posted", ".created",
		`[class*="date"]`, `[class*="time"]`, ".ago",
	},
	Location: {
		".location", ".city", ".address", ".place",
		`[class*="location"]`, `[class*="city"]`, ".region",
	},
	Description: {
		".description", ".summary", ".content", ".details",
		`[class*="description"]`, `[class*="summary"]`, "p",
	},
	NextPage: {
		".next", ".next-page", `[aria-label*="next"]`,
		`a[href*="page="]`, ".pagination .next", `button[class*="next"]`,
	},
}

// FallbackPatterns returns the catalog entry for a role. Callers must not
// modify the returned slice.
func FallbackPatterns(role Role) []string {
	return fallbackPatterns[role]
}

// ResolveFallback walks the role's catalog in order and returns the first
// pattern matching at least one element, or ok=false when exhausted.
func ResolveFallback(role Role, doc dom.Document) (string, bool) {
	for _, pattern := range fallbackPatterns[role] {
		matches, err := doc.Select(pattern)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return pattern, true
		}
	}
	return "", false
}

// RankCandidates picks the best locator among candidates using the
// cardinality and specificity terms only: 0.5 for a sane match count
// (1–50), 0.3 for moderate specificity (1–4), 0.2 for matching at all.
// Ties keep the first-seen candidate.
func RankCandidates(role Role, candidates []string, doc dom.Document) (string, bool) {
	best := ""
	bestScore := 0.0

	for _, cand := range candidates {
		matches, err := doc.Select(cand)
		if err != nil || len(matches) == 0 {
			continue
		}

		score := 0.2
		if len(matches) <= 50 {
			score += 0.5
		}
		if spec := Specificity(cand); spec >= 1 && spec <= 4 {
			score += 0.3
		}

		if score > bestScore {
			bestScore = score
			best = cand
		}
	}

	return best, best != ""
}
