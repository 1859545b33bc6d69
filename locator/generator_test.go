package locator

import "testing"

func TestGenerateKeepsStrongRecommendation(t *testing.T) {
	// WHAT: A recommended locator scoring at or above the quality
	// threshold is kept verbatim with origin "ai".
	doc := parseDoc(t, listingPage(10))
	g := NewGenerator(nil, nil, nil)

	set, chosen := g.Generate(doc,
		map[Role]string{ItemContainer: ".job-item"}, nil)

	if set.Locator(ItemContainer) != ".job-item" {
		t.Fatalf("itemContainer: got %q", set.Locator(ItemContainer))
	}
	for _, c := range chosen {
		if c.Role == ItemContainer && c.Origin != OriginAI {
			t.Errorf("origin: got %s, want ai", c.Origin)
		}
	}
}

func TestGenerateFallsBackToCatalog(t *testing.T) {
	// WHAT: With no recommendation and no candidates, the catalog
	// resolves the role with origin "heuristic".
	doc := parseDoc(t, listingPage(5))
	g := NewGenerator(nil, nil, nil)

	set, chosen := g.Generate(doc, nil, nil)

	if !set.Complete() {
		t.Fatalf("set should be complete from fallbacks: missing %v", set.MissingRoles())
	}
	for _, c := range chosen {
		if c.Origin != OriginHeuristic {
			t.Errorf("role %s: origin %s, want heuristic", c.Role, c.Origin)
		}
	}
}

func TestGenerateRanksDetectedWhenRecommendationMisses(t *testing.T) {
	// WHAT: A recommendation matching nothing falls through to ranking
	// the model's raw candidates before the catalog.
	doc := parseDoc(t, listingPage(5))
	g := NewGenerator(nil, nil, nil)

	set, _ := g.Generate(doc,
		map[Role]string{Title: ".headline"},
		map[Role][]string{Title: {".also-missing", ".title"}})

	if got := set.Locator(Title); got != ".title" {
		t.Errorf("title: got %q, want .title", got)
	}
}

func TestGenerateRepairsWeakRecommendation(t *testing.T) {
	// WHAT: A matching but sub-threshold recommendation goes through the
	// optimizer; improvements carry origin "derived".
	doc := parseDoc(t, broadPage(250))
	g := NewGenerator(nil, nil, nil)

	// "span" matches every card title plus footer noise: far past the
	// tolerable range, so it scores under the threshold for ItemContainer.
	set, chosen := g.Generate(doc,
		map[Role]string{ItemContainer: "span"}, nil)

	if got := set.Locator(ItemContainer); got != ".card span" {
		t.Fatalf("itemContainer: got %q, want %q", got, ".card span")
	}
	for _, c := range chosen {
		if c.Role == ItemContainer && c.Origin != OriginDerived {
			t.Errorf("origin: got %s, want derived", c.Origin)
		}
	}
}
