package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/locator"
	"github.com/junqing258/crawler-assistant/stealth"
	"github.com/junqing258/crawler-assistant/store"

	_ "modernc.org/sqlite"
)

const analyzePage = `<html><body>
<div class="job-list">
  <div class="job-item"><h3 class="job-title">Engineer 1</h3><span class="company">Acme</span><a class="job-link" href="/job/1">View</a></div>
  <div class="job-item"><h3 class="job-title">Engineer 2</h3><span class="company">Acme</span><a class="job-link" href="/job/2">View</a></div>
  <div class="job-item"><h3 class="job-title">Engineer 3</h3><span class="company">Acme</span><a class="job-link" href="/job/3">View</a></div>
  <div class="job-item"><h3 class="job-title">Engineer 4</h3><span class="company">Acme</span><a class="job-link" href="/job/4">View</a></div>
  <div class="job-item"><h3 class="job-title">Engineer 5</h3><span class="company">Acme</span><a class="job-link" href="/job/5">View</a></div>
</div>
<div class="pagination"><a class="next" href="/jobs?p=2">Next</a></div>
</body></html>`

// pagedLoader serves canned listing pages through the crawl.PageLoader
// interface so sessions run without a browser.
type pagedLoader struct {
	pages map[string]string
}

func (l *pagedLoader) Open(ctx context.Context, profile *stealth.Profile) (crawl.Page, error) {
	return &cannedPage{pages: l.pages}, nil
}

type cannedPage struct {
	pages map[string]string
}

func (p *cannedPage) Load(ctx context.Context, url string, waitForLoad, takeScreenshot bool) (*crawl.PageResult, error) {
	html, ok := p.pages[url]
	if !ok {
		return &crawl.PageResult{Success: false, ErrorMessage: "no such page"}, nil
	}
	return &crawl.PageResult{Success: true, HTML: html}, nil
}

func (p *cannedPage) ClickNavigate(ctx context.Context, selector string) (string, error) {
	return "", fmt.Errorf("canned page cannot click")
}

func (p *cannedPage) Close() error { return nil }

func testService(t *testing.T, opts ...Option) (*Service, *store.Store) {
	t.Helper()
	st := store.OpenMemory(t)
	opts = append([]Option{
		WithBaseContext(context.Background()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCrawlConfig(crawl.Config{PageCap: 5, DelayMin: time.Millisecond, DelayMax: 2 * time.Millisecond}),
	}, opts...)
	return NewService(st, opts...), st
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	// WHAT: The health endpoint answers ok.
	// WHY: Deployment probes hit it before routing traffic.
	svc, _ := testService(t)
	rec := getPath(t, svc.Router(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAnalyze_InlineHTML(t *testing.T) {
	// WHAT: Analyzing inline HTML synthesizes, validates and stores a
	// locator set in one request.
	// WHY: This is the full synthesis path without a browser.
	svc, st := testService(t)
	rec := postJSON(t, svc.Router(), "/api/v1/analyze", AnalyzeRequest{
		URL:  "https://example.com/jobs",
		HTML: analyzePage,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.LocatorSetID == "" {
		t.Fatal("no locator set id")
	}
	if !resp.LocatorSet.Complete() {
		t.Errorf("set incomplete: %v", resp.LocatorSet.Locators)
	}
	if resp.LocatorSet.Status != locator.StatusValidated {
		t.Errorf("status = %s, want validated (overall %f)", resp.LocatorSet.Status, resp.Validation.OverallScore)
	}

	stored, err := st.GetLocatorSet(context.Background(), resp.LocatorSetID)
	if err != nil {
		t.Fatalf("stored set: %v", err)
	}
	if stored.SiteURL != "https://example.com/jobs" {
		t.Errorf("stored site = %q", stored.SiteURL)
	}
}

func TestAnalyze_BadRequest(t *testing.T) {
	// WHAT: Requests without a URL or with an unreadable body are 400s.
	// WHY: Input validation happens before any work.
	svc, _ := testService(t)
	router := svc.Router()

	if rec := postJSON(t, router, "/api/v1/analyze", AnalyzeRequest{HTML: analyzePage}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}
}

func TestAnalyze_NoLoaderNoHTML(t *testing.T) {
	// WHAT: Without a browser, analyze requires inline HTML.
	// WHY: The service degrades predictably when headless Chrome is
	// not available.
	svc, _ := testService(t)
	rec := postJSON(t, svc.Router(), "/api/v1/analyze", AnalyzeRequest{URL: "https://example.com/jobs"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func saveSet(t *testing.T, st *store.Store, site string) string {
	t.Helper()
	set := locator.NewSet("v1")
	set.Locators[locator.ListContainer] = ".job-list"
	set.Locators[locator.ItemContainer] = ".job-item"
	set.Locators[locator.Title] = ".job-title"
	set.Locators[locator.Company] = ".company"
	set.Locators[locator.Link] = ".job-link"
	set.Locators[locator.NextPage] = ".next"
	set.Status = locator.StatusValidated
	set.Confidence = 0.9
	id, err := st.SaveLocatorSet(context.Background(), site, set)
	if err != nil {
		t.Fatalf("save set: %v", err)
	}
	return id
}

func waitTerminal(t *testing.T, router http.Handler, id string) *crawl.Session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := getPath(t, router, "/api/v1/crawl/"+id)
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll = %d, body %s", rec.Code, rec.Body)
		}
		var resp StatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Session.Status.Terminal() {
			return resp.Session
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session did not reach a terminal state")
	return nil
}

func TestCrawl_EndToEnd(t *testing.T) {
	// WHAT: A started crawl walks canned pages to completion and its
	// records become queryable.
	// WHY: Exercises the whole path: handler, engine, extractor,
	// next-page resolution and persistence.
	page2 := strings.ReplaceAll(analyzePage, `<div class="pagination"><a class="next" href="/jobs?p=2">Next</a></div>`, "")
	page2 = strings.ReplaceAll(page2, "/job/", "/job/2")
	loader := &pagedLoader{pages: map[string]string{
		"https://example.com/jobs":     analyzePage,
		"https://example.com/jobs?p=2": page2,
	}}
	svc, st := testService(t, WithLoader(loader))
	router := svc.Router()
	saveSet(t, st, "https://example.com/jobs")

	rec := postJSON(t, router, "/api/v1/crawl", CrawlRequest{StartURL: "https://example.com/jobs"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body)
	}
	var start map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatal(err)
	}

	sess := waitTerminal(t, router, start["session_id"])
	if sess.Status != crawl.StatusCompleted {
		t.Fatalf("status = %s, want completed", sess.Status)
	}
	if sess.PagesCrawled != 2 {
		t.Errorf("pages = %d, want 2", sess.PagesCrawled)
	}

	recRec := getPath(t, router, "/api/v1/crawl/"+start["session_id"]+"/records")
	if recRec.Code != http.StatusOK {
		t.Fatalf("records status = %d", recRec.Code)
	}
	var recResp struct {
		Records []crawl.Record `json:"records"`
	}
	if err := json.Unmarshal(recRec.Body.Bytes(), &recResp); err != nil {
		t.Fatal(err)
	}
	if len(recResp.Records) != 10 {
		t.Errorf("records = %d, want 10 across both pages", len(recResp.Records))
	}

	listRec := getPath(t, router, "/api/v1/sessions")
	if listRec.Code != http.StatusOK || !strings.Contains(listRec.Body.String(), start["session_id"]) {
		t.Errorf("sessions listing missing session: %d %s", listRec.Code, listRec.Body)
	}
}

func TestCrawl_NoLocatorSet(t *testing.T) {
	// WHAT: Starting a crawl on a site with no stored set is a 404.
	// WHY: Callers must analyze before crawling.
	svc, _ := testService(t, WithLoader(&pagedLoader{}))
	rec := postJSON(t, svc.Router(), "/api/v1/crawl", CrawlRequest{StartURL: "https://example.com/jobs"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCrawl_NoBrowser(t *testing.T) {
	// WHAT: Without a loader the crawl endpoint refuses with 503.
	// WHY: A crawl cannot run headless-less; fail fast and loud.
	svc, st := testService(t)
	saveSet(t, st, "https://example.com/jobs")
	rec := postJSON(t, svc.Router(), "/api/v1/crawl", CrawlRequest{StartURL: "https://example.com/jobs"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCrawl_IncompleteSet(t *testing.T) {
	// WHAT: A stored set missing required roles is rejected with 409.
	// WHY: Guards the session-start invariant at the API boundary.
	svc, st := testService(t, WithLoader(&pagedLoader{}))
	set := locator.NewSet("v1")
	set.Locators[locator.ListContainer] = ".job-list"
	if _, err := st.SaveLocatorSet(context.Background(), "https://example.com/jobs", set); err != nil {
		t.Fatal(err)
	}
	rec := postJSON(t, svc.Router(), "/api/v1/crawl", CrawlRequest{StartURL: "https://example.com/jobs"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCrawlCancel(t *testing.T) {
	// WHAT: Cancelling a running session drives it to the cancelled
	// state; cancelling an unknown ID is a 404.
	// WHY: The cancel endpoint is the only external stop control.
	loader := &pagedLoader{pages: map[string]string{
		"https://example.com/jobs": analyzePage,
		// p=2 links back to itself so the crawl never runs out of pages.
		"https://example.com/jobs?p=2": analyzePage,
	}}
	svc, st := testService(t,
		WithLoader(loader),
		WithCrawlConfig(crawl.Config{PageCap: 10_000, DelayMin: 20 * time.Millisecond, DelayMax: 30 * time.Millisecond}))
	router := svc.Router()
	saveSet(t, st, "https://example.com/jobs")

	rec := postJSON(t, router, "/api/v1/crawl", CrawlRequest{StartURL: "https://example.com/jobs"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d", rec.Code)
	}
	var start map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatal(err)
	}

	if c := postJSON(t, router, "/api/v1/crawl/"+start["session_id"]+"/cancel", nil); c.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", c.Code)
	}
	sess := waitTerminal(t, router, start["session_id"])
	if sess.Status != crawl.StatusCancelled {
		t.Errorf("status = %s, want cancelled", sess.Status)
	}

	if c := postJSON(t, router, "/api/v1/crawl/missing/cancel", nil); c.Code != http.StatusNotFound {
		t.Errorf("cancel unknown = %d, want 404", c.Code)
	}
}

func TestCrawlStatus_NotFound(t *testing.T) {
	// WHAT: Unknown session IDs are 404s on the status endpoint.
	// WHY: Distinguishes a bad ID from an empty session.
	svc, _ := testService(t)
	if rec := getPath(t, svc.Router(), "/api/v1/crawl/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
