package stealth

import "strings"

// Indicator is one matched challenge keyword.
type Indicator struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// Detection is the advisory outcome of scanning loaded content for
// anti-automation interstitials. It never aborts a session by itself;
// retry and backoff decisions belong to the caller.
type Detection struct {
	Detected   bool        `json:"detected"`
	Category   string      `json:"category"`
	Confidence float64     `json:"confidence"`
	Indicators []Indicator `json:"indicators"`
}

type challengeCategory struct {
	name     string
	keywords []string
}

// Categories are checked in fixed order so the reported primary category
// is deterministic for a given page.
var challengeCategories = []challengeCategory{
	{"captcha", []string{"captcha", "recaptcha", "hcaptcha"}},
	{"cloudflare", []string{"cloudflare", "checking your browser", "ddos protection"}},
	{"rate_limit", []string{"too many requests", "rate limit", "slow down"}},
	{"access_denied", []string{"access denied", "forbidden", "blocked"}},
	{"human_verification", []string{"human verification", "verify you are human"}},
}

// Detect scans page content for bot-challenge indicators. Confidence is
// min(indicatorCount × 0.3, 1.0); the primary category is the first one
// that matched.
func Detect(content string) Detection {
	lower := strings.ToLower(content)

	var indicators []Indicator
	for _, cat := range challengeCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				indicators = append(indicators, Indicator{Category: cat.name, Keyword: kw})
			}
		}
	}

	if len(indicators) == 0 {
		return Detection{}
	}

	confidence := float64(len(indicators)) * 0.3
	if confidence > 1.0 {
		confidence = 1.0
	}
	return Detection{
		Detected:   true,
		Category:   indicators[0].Category,
		Confidence: confidence,
		Indicators: indicators,
	}
}
