package crawl

import "strings"

// AcceptThreshold is the quality score at or above which a record enters
// the session. Exactly 0.5 is accepted.
const AcceptThreshold = 0.5

// Field completeness weights. They sum to 1.0; Quality is the weighted
// fraction of non-empty fields.
var qualityWeights = []struct {
	weight float64
	value  func(*Record) string
}{
	{0.3, func(r *Record) string { return r.Title }},
	{0.2, func(r *Record) string { return r.Company }},
	{0.2, func(r *Record) string { return r.Description }},
	{0.1, func(r *Record) string { return r.Location }},
	{0.1, func(r *Record) string { return r.PublishedAtRaw }},
	{0.1, func(r *Record) string { return r.Link }},
}

// Record is one extracted listing item. PublishedAtRaw is the source text
// as found on the page; date parsing belongs to downstream consumers.
type Record struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	Link           string `json:"link"`
	PublishedAtRaw string `json:"published_at_raw"`
}

// Quality is the deterministic weighted field-completeness score.
func (r *Record) Quality() float64 {
	score := 0.0
	for _, w := range qualityWeights {
		if strings.TrimSpace(w.value(r)) != "" {
			score += w.weight
		}
	}
	return score
}

// Accepted reports whether the record clears the acceptance threshold.
func (r *Record) Accepted() bool {
	return r.Quality() >= AcceptThreshold
}

// Empty reports whether the record carries neither a title nor a company,
// the signal the extractor uses to skip non-item matches.
func (r *Record) Empty() bool {
	return strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Company) == ""
}
