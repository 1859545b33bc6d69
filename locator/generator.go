package locator

import (
	"log/slog"

	"github.com/junqing258/crawler-assistant/dom"
)

// Generator runs the full synthesis pipeline for one page: start from the
// analysis model's recommendation per role, keep it when it already scores
// well, repair it with the optimizer when it doesn't, rank the model's
// raw candidates when it matches nothing, and fall back to the literal
// catalog last.
type Generator struct {
	scorer *Scorer
	opt    *Optimizer
	logger *slog.Logger
}

// NewGenerator builds a Generator. A nil logger uses slog.Default.
func NewGenerator(scorer *Scorer, opt *Optimizer, logger *slog.Logger) *Generator {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights)
	}
	if opt == nil {
		opt = NewOptimizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{scorer: scorer, opt: opt, logger: logger}
}

// Generate synthesises a Set from the model's recommended locator per role
// and its raw detected candidates. The returned candidates record, per
// role, the locator that won and how it scored; the Set stays pending
// until Validate/Apply runs.
func (g *Generator) Generate(doc dom.Document, recommended map[Role]string, detected map[Role][]string) (*Set, []Candidate) {
	set := NewSet("1.0.0")
	var chosen []Candidate

	for _, role := range Roles() {
		cand, ok := g.resolveRole(role, doc, recommended[role], detected[role])
		if !ok {
			g.logger.Debug("locator: role unresolved", "role", string(role))
			continue
		}
		set.Locators[role] = cand.Locator
		chosen = append(chosen, cand)
	}

	return set, chosen
}

func (g *Generator) resolveRole(role Role, doc dom.Document, rec string, detected []string) (Candidate, bool) {
	if rec != "" {
		scored := g.scorer.Score(role, rec, doc)
		scored.Origin = OriginAI

		if scored.MatchCount > 0 {
			if scored.Composite >= QualityThreshold {
				return scored, true
			}
			if improved, ok := g.opt.Optimize(rec, doc); ok {
				derived := g.scorer.Score(role, improved, doc)
				derived.Origin = OriginDerived
				return derived, true
			}
			// Not improved but matching: keep the model's suggestion
			// rather than discarding a working locator.
			return scored, true
		}
	}

	// The recommendation matched nothing (or was absent): rank the
	// model's raw candidates before touching the catalog.
	if best, ok := RankCandidates(role, detected, doc); ok {
		scored := g.scorer.Score(role, best, doc)
		scored.Origin = OriginAI
		return scored, true
	}

	if fallback, ok := ResolveFallback(role, doc); ok {
		scored := g.scorer.Score(role, fallback, doc)
		scored.Origin = OriginHeuristic
		return scored, true
	}

	return Candidate{}, false
}
