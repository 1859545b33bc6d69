package locator

import (
	"regexp"
	"strings"

	"github.com/junqing258/crawler-assistant/dom"
)

// Weights are the term weights of the composite score. The defaults come
// from field experience with job boards; they are constants here, not a
// tuning surface exposed to config.
type Weights struct {
	Existence   float64
	Cardinality float64
	Specificity float64
	Semantic    float64
}

// DefaultWeights is existence 0.4, cardinality fit 0.3, specificity 0.2,
// semantic relevance 0.1.
var DefaultWeights = Weights{
	Existence:   0.4,
	Cardinality: 0.3,
	Specificity: 0.2,
	Semantic:    0.1,
}

// QualityThreshold is the composite score below which a candidate is
// handed to the optimizer.
const QualityThreshold = 0.7

// Role-associated keyword sets for the semantic relevance term.
var (
	jobKeywords = []string{
		"job", "position", "career", "work", "employment", "vacancy",
		"posting", "opening", "opportunity", "role", "listing",
	}
	companyKeywords = []string{
		"company", "employer", "organization", "corp", "inc",
		"firm", "enterprise", "business",
	}
	locationKeywords = []string{
		"location", "city", "address", "place", "region",
		"area", "district", "zone",
	}
	timeKeywords = []string{
		"time", "date", "published", "posted", "created",
		"updated", "ago", "recent",
	}
)

var (
	idTokenRe    = regexp.MustCompile(`#[\w-]+`)
	classTokenRe = regexp.MustCompile(`\.[\w-]+`)
	tagTokenRe   = regexp.MustCompile(`\b[a-zA-Z]+\b`)
)

// Scorer evaluates a locator's fitness for a role against a document.
// Scoring is pure: the same (role, locator, document) always yields the
// same Candidate.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer with the given weights. Zero weights fall
// back to DefaultWeights.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

// Score produces a scored Candidate for the locator. Invalid selector
// syntax scores 0 with an explanatory note; it is never an error.
func (s *Scorer) Score(role Role, loc string, doc dom.Document) Candidate {
	c := Candidate{
		Role:        role,
		Locator:     loc,
		Specificity: Specificity(loc),
		Semantic:    semanticallyRelevant(role, loc),
	}

	matches, err := doc.Select(loc)
	if err != nil {
		c.Note = "invalid selector syntax"
		c.Composite = 0
		return c
	}
	c.MatchCount = len(matches)

	score := 0.0
	if c.MatchCount > 0 {
		score += s.weights.Existence
	}
	score += s.cardinalityTerm(role, c.MatchCount)
	score += s.specificityTerm(c.Specificity)
	if c.Semantic {
		score += s.weights.Semantic
	}

	if score > 1.0 {
		score = 1.0
	}
	c.Composite = score
	return c
}

// cardinalityTerm gives full weight when the match count sits inside the
// role's expected range and two thirds when it is merely tolerable.
func (s *Scorer) cardinalityTerm(role Role, count int) float64 {
	full := s.weights.Cardinality
	partial := full * 2.0 / 3.0

	switch role {
	case ListContainer:
		// A page has one listing container, occasionally two.
		switch {
		case count >= 1 && count <= 2:
			return full
		case count >= 1 && count <= 5:
			return partial
		}
	case ItemContainer:
		switch {
		case count >= 5 && count <= 100:
			return full
		case count >= 1 && count <= 200:
			return partial
		}
	case NextPage:
		switch {
		case count == 1:
			return full
		case count >= 1 && count <= 3:
			return partial
		}
	default:
		if count > 0 {
			return full
		}
	}
	return 0
}

func (s *Scorer) specificityTerm(spec int) float64 {
	switch {
	case spec >= 2 && spec <= 4:
		return s.weights.Specificity
	case spec <= 6:
		return s.weights.Specificity / 2
	}
	return 0
}

// Specificity counts ID, class, and tag tokens in a selector. Word parts
// of hyphenated names count individually, which biases against long
// over-qualified selectors; that bias is intentional.
func Specificity(loc string) int {
	n := len(idTokenRe.FindAllString(loc, -1))
	n += len(classTokenRe.FindAllString(loc, -1))
	n += len(tagTokenRe.FindAllString(loc, -1))
	return n
}

func semanticallyRelevant(role Role, loc string) bool {
	lower := strings.ToLower(loc)
	var keywords []string
	switch role {
	case ListContainer, ItemContainer, Title, Description:
		keywords = jobKeywords
	case Company:
		keywords = companyKeywords
	case Location:
		keywords = locationKeywords
	case PublishedAt:
		keywords = timeKeywords
	default:
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
