package locator

import (
	"strings"

	"github.com/junqing258/crawler-assistant/dom"
)

// Optimizer repairs a weak locator with exactly two bounded moves, no
// recursion. It runs only on candidates below QualityThreshold; zero-match
// locators fall straight through to the fallback catalog because neither
// move can accept without a baseline match set.
type Optimizer struct {
	// MaxParts is the compound-part count above which the simplify move
	// fires. Default 4.
	MaxParts int
	// BroadCount is the match count above which the narrowing move
	// fires. Default 50.
	BroadCount int
}

// NewOptimizer returns an Optimizer with the default bounds.
func NewOptimizer() *Optimizer {
	return &Optimizer{MaxParts: 4, BroadCount: 50}
}

// Optimize attempts both moves in order and returns the improved locator
// with improved=true, or the original with improved=false. The result is
// a fixed point: running Optimize on an accepted output returns it
// unchanged.
func (o *Optimizer) Optimize(loc string, doc dom.Document) (string, bool) {
	matches, err := doc.Select(loc)
	if err != nil || len(matches) == 0 {
		return loc, false
	}

	// Move 1: an over-compound selector is brittle across pages; try its
	// last part alone, accepted only if it doesn't more than double the
	// match count.
	parts := strings.Fields(loc)
	if len(parts) > o.MaxParts {
		simplified := parts[len(parts)-1]
		if narrowed, err := doc.Select(simplified); err == nil {
			if len(narrowed) > 0 && len(narrowed) <= len(matches)*2 {
				return simplified, true
			}
		}
	}

	// Move 2: an over-broad selector gets scoped under the matched
	// elements' shared parent class, accepted only if that actually
	// narrows it.
	if len(matches) > o.BroadCount {
		if scoped, ok := o.scopeUnderParent(loc, matches, doc); ok {
			return scoped, true
		}
	}

	return loc, false
}

func (o *Optimizer) scopeUnderParent(loc string, matches []dom.Element, doc dom.Document) (string, bool) {
	parent := matches[0].Parent()
	if parent == nil {
		return "", false
	}
	classes := parent.Classes()
	if len(classes) == 0 {
		return "", false
	}

	prefix := "." + strings.Join(classes, ".")
	if strings.HasPrefix(loc, prefix+" ") {
		// Already scoped; re-scoping would only stack the same prefix.
		return "", false
	}

	scoped := prefix + " " + loc
	narrowed, err := doc.Select(scoped)
	if err != nil {
		return "", false
	}
	if len(narrowed) == 0 || len(narrowed) >= len(matches) {
		return "", false
	}
	return scoped, true
}
