package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/junqing258/crawler-assistant/analyze"
	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/extract"
	"github.com/junqing258/crawler-assistant/locator"
	"github.com/junqing258/crawler-assistant/stealth"
	"github.com/junqing258/crawler-assistant/store"
)

// AnalyzeRequest is the body for POST /api/v1/analyze. HTML may be
// supplied inline; otherwise the page is loaded through the browser.
type AnalyzeRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// AnalyzeResponse carries the synthesized set and everything needed to
// review it.
type AnalyzeResponse struct {
	LocatorSetID string              `json:"locator_set_id"`
	LocatorSet   *locator.Set        `json:"locator_set"`
	Validation   *locator.Validation `json:"validation"`
	Analysis     *analyze.Result     `json:"analysis"`
	Candidates   []locator.Candidate `json:"candidates"`
}

// handleAnalyze analyzes page structure, synthesizes a locator set,
// validates it against the same document and stores the result.
// POST /api/v1/analyze
func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	html, screenshot := req.HTML, ""
	if html == "" {
		var err error
		html, screenshot, err = s.fetchPage(r.Context(), req.URL)
		if err != nil {
			s.logger.Error("analyze page fetch", "url", req.URL, "error", err)
			http.Error(w, "Failed to load page", http.StatusBadGateway)
			return
		}
	}

	analysis, err := s.analyzer.AnalyzeStructure(r.Context(), req.URL, html, screenshot)
	if err != nil {
		s.logger.Error("structure analysis", "url", req.URL, "error", err)
		http.Error(w, "Analysis failed", http.StatusInternalServerError)
		return
	}

	doc, err := dom.Parse(html, req.URL)
	if err != nil {
		http.Error(w, "Unparseable page", http.StatusUnprocessableEntity)
		return
	}

	gen := locator.NewGenerator(nil, nil, s.logger)
	set, candidates := gen.Generate(doc, analysis.Recommended, analysis.Detected)

	validation := locator.Validate(set, doc)
	validation.Apply(set)

	id, err := s.store.SaveLocatorSet(r.Context(), req.URL, set)
	if err != nil {
		s.logger.Error("save locator set", "url", req.URL, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("locator set synthesized",
		"url", req.URL, "id", id,
		"status", set.Status, "confidence", set.Confidence)

	writeJSON(w, http.StatusCreated, AnalyzeResponse{
		LocatorSetID: id,
		LocatorSet:   set,
		Validation:   validation,
		Analysis:     analysis,
		Candidates:   candidates,
	})
}

// fetchPage loads a URL through a throwaway stealth page and returns its
// HTML and screenshot path.
func (s *Service) fetchPage(ctx context.Context, url string) (html, screenshot string, err error) {
	if s.loader == nil {
		return "", "", errors.New("api: no page loader configured")
	}
	profile := stealth.NewProfile(rand.New(rand.NewSource(time.Now().UnixNano())))
	page, err := s.loader.Open(ctx, profile)
	if err != nil {
		return "", "", err
	}
	defer page.Close()

	res, err := page.Load(ctx, url, true, true)
	if err != nil {
		return "", "", err
	}
	if !res.Success {
		return "", "", errors.New(res.ErrorMessage)
	}
	return res.HTML, res.ScreenshotPath, nil
}

// CrawlRequest is the body for POST /api/v1/crawl.
type CrawlRequest struct {
	StartURL     string `json:"start_url"`
	LocatorSetID string `json:"locator_set_id,omitempty"`
	PageCap      int    `json:"page_cap,omitempty"`
}

// handleCrawlStart launches a crawl session in the background.
// POST /api/v1/crawl
func (s *Service) handleCrawlStart(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StartURL == "" {
		http.Error(w, "start_url required", http.StatusBadRequest)
		return
	}
	if s.loader == nil {
		http.Error(w, "No browser configured", http.StatusServiceUnavailable)
		return
	}

	stored, err := s.lookupSet(r, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No locator set for this site", http.StatusNotFound)
			return
		}
		s.logger.Error("locator set lookup", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !stored.Set.Complete() {
		http.Error(w, "Locator set is missing required roles", http.StatusConflict)
		return
	}

	cfg := s.crawlCfg
	if req.PageCap > 0 {
		cfg.PageCap = req.PageCap
	}

	sess := crawl.NewSession(req.StartURL, stored.ID)
	engine := crawl.NewEngine(sess, cfg,
		s.loader, extract.NewExtractor(s.logger), extract.NewResolver(),
		crawl.WithRecorder(store.NewRecorder(s.store)),
		crawl.WithLogger(s.logger))
	s.registry.Add(sess, engine)

	set := stored.Set
	go func() {
		if _, err := engine.Run(s.bg, &set); err != nil {
			s.logger.Error("crawl session failed", "session", sess.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"session_id": sess.ID,
		"status":     string(sess.Status),
	})
}

func (s *Service) lookupSet(r *http.Request, req CrawlRequest) (*store.StoredSet, error) {
	if req.LocatorSetID != "" {
		return s.store.GetLocatorSet(r.Context(), req.LocatorSetID)
	}
	return s.store.LatestLocatorSet(r.Context(), req.StartURL)
}

// StatusResponse is the body of GET /api/v1/crawl/{id}.
type StatusResponse struct {
	Session *crawl.Session `json:"session"`
	Errors  []string       `json:"errors,omitempty"`
}

// handleCrawlStatus reports a session's live or persisted state.
// GET /api/v1/crawl/{id}
func (s *Service) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if sess, ok := s.registry.Get(id); ok {
		writeJSON(w, http.StatusOK, StatusResponse{Session: sess})
		return
	}

	sess, errs, err := s.store.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("session lookup", "session", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Session: sess, Errors: errs})
}

// handleCrawlCancel requests cancellation at the next page boundary.
// POST /api/v1/crawl/{id}/cancel
func (s *Service) handleCrawlCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Cancel(id); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleCrawlRecords returns a finished session's stored records.
// GET /api/v1/crawl/{id}/records
func (s *Service) handleCrawlRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, _, err := s.store.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	recs, err := s.store.ListRecords(r.Context(), id)
	if err != nil {
		s.logger.Error("record listing", "session", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []crawl.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

// handleSessions lists recent sessions, live state overlaid on stored
// rows.
// GET /api/v1/sessions
func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), 50)
	if err != nil {
		s.logger.Error("session listing", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	for i, sess := range sessions {
		if live, ok := s.registry.Get(sess.ID); ok {
			sessions[i] = live
		}
	}
	if sessions == nil {
		sessions = []*crawl.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}
