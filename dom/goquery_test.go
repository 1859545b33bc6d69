package dom

import "testing"

const samplePage = `<html><body>
<div class="job-list">
	<div class="job-item"><h3 class="title">Backend Engineer</h3><a class="link" href="/job/1">view</a></div>
	<div class="job-item"><h3 class="title">SRE</h3><a class="link" href="https://example.com/job/2">view</a></div>
</div>
</body></html>`

func TestSelectAndText(t *testing.T) {
	// WHAT: Select returns matches in document order with trimmed text.
	// WHY: Every locator score and extracted field flows through this path.
	doc, err := Parse(samplePage, "https://example.com/jobs")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	items, err := doc.Select(".job-item")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}

	titles, err := items[0].Select(".title")
	if err != nil {
		t.Fatalf("scoped select: %v", err)
	}
	if len(titles) != 1 || titles[0].Text() != "Backend Engineer" {
		t.Errorf("title: got %v", titles)
	}
}

func TestInvalidSelectorIsError(t *testing.T) {
	// WHAT: Malformed selector syntax comes back as an error, not a panic.
	// WHY: AI-suggested locators are untrusted input.
	doc, _ := Parse(samplePage, "")
	if _, err := doc.Select("div[[broken"); err == nil {
		t.Fatal("expected error for invalid selector")
	}
	if _, err := doc.Select("  "); err == nil {
		t.Fatal("expected error for empty selector")
	}
}

func TestAttrAndClasses(t *testing.T) {
	// WHAT: Attr reports presence and Classes splits the class list.
	doc, _ := Parse(samplePage, "")
	links, _ := doc.Select("a.link")
	href, ok := links[0].Attr("href")
	if !ok || href != "/job/1" {
		t.Errorf("href: got %q, ok=%v", href, ok)
	}
	if _, ok := links[0].Attr("disabled"); ok {
		t.Error("disabled should be absent")
	}
	items, _ := doc.Select(".job-item")
	if got := items[0].Classes(); len(got) != 1 || got[0] != "job-item" {
		t.Errorf("classes: got %v", got)
	}
}

func TestParentWalk(t *testing.T) {
	// WHAT: Parent climbs to the containing element and stops at the root.
	// WHY: The optimizer scopes over-broad locators under a parent class.
	doc, _ := Parse(samplePage, "")
	titles, _ := doc.Select(".title")
	p := titles[0].Parent()
	if p == nil {
		t.Fatal("expected parent")
	}
	if got := p.Classes(); len(got) != 1 || got[0] != "job-item" {
		t.Errorf("parent classes: got %v", got)
	}
	for i := 0; p != nil && i < 10; i++ {
		p = p.Parent()
	}
	if p != nil {
		t.Error("walk should terminate at the root")
	}
}
