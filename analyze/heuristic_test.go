package analyze

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/junqing258/crawler-assistant/locator"
)

func listingPage(items int, extra string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="job-list">`)
	for i := 0; i < items; i++ {
		fmt.Fprintf(&b, `<div class="job-item"><h3 class="job-title">Engineer %d</h3><span class="company">Acme</span><span class="location">Shanghai</span><a class="job-link" href="/job/%d">View</a></div>`, i, i)
	}
	b.WriteString(`</div><div class="pagination"><a class="next" href="/jobs?p=2">Next</a></div>`)
	b.WriteString(extra)
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestHeuristic_RecommendsConventionalClasses(t *testing.T) {
	// WHAT: Conventional job-board class names become per-role
	// recommendations with alternates in Detected.
	// WHY: Class-name conventions are the strongest model-free signal.
	res, err := NewHeuristic(nil).AnalyzeStructure(context.Background(), "https://example.com/jobs", listingPage(6, ""), "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := map[locator.Role]string{
		locator.ListContainer: ".job-list",
		locator.ItemContainer: ".job-item",
		locator.Title:         ".job-title",
		locator.Company:       ".company",
		locator.Location:      ".location",
	}
	for role, sel := range want {
		if got := res.Recommended[role]; got != sel {
			t.Errorf("recommended[%s] = %q, want %q", role, got, sel)
		}
	}
	if len(res.Detected[locator.ItemContainer]) == 0 {
		t.Error("no detected alternates for item container")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("confidence = %f, want (0,1]", res.Confidence)
	}
}

func TestHeuristic_FrameworkAndFeatures(t *testing.T) {
	// WHAT: Framework markers and pagination controls surface as page
	// signals.
	// WHY: Crawl configuration differs for SPA listings.
	html := listingPage(6, `<script id="__NEXT_DATA__">{}</script><button>Load more</button>`)
	res, err := NewHeuristic(nil).AnalyzeStructure(context.Background(), "https://example.com/jobs", html, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Framework != "nextjs" {
		t.Errorf("framework = %q, want nextjs", res.Framework)
	}
	if !contains(res.Features, "pagination") || !contains(res.Features, "load-more") {
		t.Errorf("features = %v, want pagination and load-more", res.Features)
	}
}

func TestHeuristic_NoCandidatesNoted(t *testing.T) {
	// WHAT: Roles without any hint-matching class are absent from the
	// recommendations and noted.
	// WHY: The synthesizer must know which roles need catalog fallbacks.
	html := `<html><body><div class="a"><div class="b">x</div></div></body></html>`
	res, err := NewHeuristic(nil).AnalyzeStructure(context.Background(), "https://example.com/jobs", html, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, ok := res.Recommended[locator.Title]; ok {
		t.Error("title recommended despite no hint-matching classes")
	}
	if len(res.Notes) == 0 {
		t.Error("no notes for missing candidates")
	}
}

func TestHeuristic_ContextCancelled(t *testing.T) {
	// WHAT: A cancelled context aborts the analysis.
	// WHY: Analysis runs inside request handlers with deadlines.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHeuristic(nil).AnalyzeStructure(ctx, "https://example.com/jobs", listingPage(3, ""), ""); err == nil {
		t.Fatal("expected context error")
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
