package locator

// Origin records where a candidate locator came from.
type Origin string

const (
	OriginAI        Origin = "ai"        // recommended by the analysis model
	OriginHeuristic Origin = "heuristic" // resolved from the fallback catalog
	OriginDerived   Origin = "derived"   // produced by the optimizer
)

// Candidate is one scored locator for a role. Candidates are values:
// rescoring produces a new Candidate, existing ones are never mutated.
type Candidate struct {
	Role        Role
	Locator     string
	Origin      Origin
	MatchCount  int
	Specificity int
	Semantic    bool
	Composite   float64
	Note        string
}
