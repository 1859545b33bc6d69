package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junqing258/crawler-assistant/dom"
	"github.com/junqing258/crawler-assistant/locator"
	"github.com/junqing258/crawler-assistant/stealth"
)

// Config bounds a crawl session.
type Config struct {
	// PageCap is the maximum number of pages to crawl. Zero or negative
	// means DefaultPageCap.
	PageCap int

	// DelayMin and DelayMax bracket the politeness pause between page
	// loads. Zero values mean the defaults.
	DelayMin time.Duration
	DelayMax time.Duration
}

const (
	DefaultPageCap  = 5
	defaultDelayMin = 2 * time.Second
	defaultDelayMax = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.PageCap <= 0 {
		c.PageCap = DefaultPageCap
	}
	if c.DelayMin <= 0 {
		c.DelayMin = defaultDelayMin
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = defaultDelayMax
		if c.DelayMax < c.DelayMin {
			c.DelayMax = c.DelayMin
		}
	}
}

// Engine drives one crawl session through its page loop. An Engine is
// single-use: construct, Run once, discard.
type Engine struct {
	// sessMu guards session against concurrent Snapshot readers; Run is
	// the only writer.
	sessMu    sync.RWMutex
	session   *Session
	cfg       Config
	loader    PageLoader
	extractor Extractor
	next      NextResolver
	challenge ChallengeFunc
	recorder  Recorder
	profile   *stealth.Profile
	rng       *rand.Rand
	logger    *slog.Logger

	cancelled atomic.Bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder attaches a persistence sink for lifecycle events.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithChallengeFunc overrides the anti-bot content screen.
func WithChallengeFunc(f ChallengeFunc) EngineOption {
	return func(e *Engine) { e.challenge = f }
}

// WithRand seeds the engine's randomness (profile choice, delays).
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an engine for one session.
func NewEngine(session *Session, cfg Config, loader PageLoader, ex Extractor, next NextResolver, opts ...EngineOption) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		session:   session,
		cfg:       cfg,
		loader:    loader,
		extractor: ex,
		next:      next,
		challenge: stealth.Detect,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.profile = stealth.NewProfile(e.rng)
	return e
}

// Session returns the session the engine drives. Callers must not read
// it while Run is in flight; use Snapshot for that.
func (e *Engine) Session() *Session { return e.session }

// Snapshot returns a copy of the session's current state, safe to read
// while Run is in flight.
func (e *Engine) Snapshot() Session {
	e.sessMu.RLock()
	defer e.sessMu.RUnlock()
	return *e.session
}

func (e *Engine) mutate(fn func(*Session)) {
	e.sessMu.Lock()
	fn(e.session)
	e.sessMu.Unlock()
}

// RequestCancel asks the engine to stop at the next page boundary.
// Safe to call from any goroutine, before or during Run.
func (e *Engine) RequestCancel() { e.cancelled.Store(true) }

// Run executes the crawl loop until a terminal state. The returned
// Result is always non-nil; the error is non-nil only when the session
// failed.
func (e *Engine) Run(ctx context.Context, set *locator.Set) (*Result, error) {
	s := e.session
	if !set.Complete() {
		return e.fail(ctx, &Result{}, fmt.Errorf("crawl: start session: %w: missing %v", ErrSessionIncomplete, set.MissingRoles()))
	}

	e.mutate(func(s *Session) {
		s.Status = StatusRunning
		s.StartedAt = time.Now()
	})
	e.recordStart(ctx)

	res := &Result{}
	page, err := e.loader.Open(ctx, e.profile)
	if err != nil {
		return e.fail(ctx, res, fmt.Errorf("crawl: open page: %w", err))
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			e.logger.Warn("page close", "session", s.ID, "error", cerr)
		}
	}()

	url := s.StartURL
	for {
		if e.stopped(ctx) {
			return e.finish(ctx, res, StatusCancelled), nil
		}

		e.mutate(func(s *Session) { s.CurrentURL = url })
		e.logger.Info("loading page", "session", s.ID, "page", s.PagesCrawled+1, "url", url)

		doc, herr := e.loadPage(ctx, page, url, res)
		if herr != nil {
			return e.fail(ctx, res, herr)
		}

		records, xerr := e.extractor.Extract(doc, set)
		if xerr != nil {
			return e.fail(ctx, res, fmt.Errorf("crawl: page %d: %w: %v", s.PagesCrawled+1, ErrExtraction, xerr))
		}
		var accepted []Record
		for _, r := range records {
			if r.Accepted() {
				accepted = append(accepted, r)
			}
		}
		res.Records = append(res.Records, accepted...)
		e.mutate(func(s *Session) {
			s.ItemsFound += len(records)
			s.ItemsAccepted += len(accepted)
			s.PagesCrawled++
		})
		res.PagesCrawled = s.PagesCrawled
		res.HasNextPage = false
		res.NextPageURL = ""
		e.logger.Info("page extracted",
			"session", s.ID, "page", s.PagesCrawled,
			"found", len(records), "accepted", s.ItemsAccepted)

		if s.PagesCrawled >= e.cfg.PageCap {
			return e.finish(ctx, res, StatusCompleted), nil
		}

		np, nerr := e.next.ResolveNext(doc, set.Locator(locator.NextPage))
		if nerr != nil || !np.HasNext {
			if nerr != nil {
				e.logger.Warn("next page resolution", "session", s.ID, "error", nerr)
			}
			return e.finish(ctx, res, StatusCompleted), nil
		}

		if np.NeedsClick {
			nextURL, cerr := page.ClickNavigate(ctx, np.ClickSelector)
			if cerr != nil {
				e.logger.Warn("next page click", "session", s.ID, "selector", np.ClickSelector, "error", cerr)
				return e.finish(ctx, res, StatusCompleted), nil
			}
			url = nextURL
		} else {
			url = np.NextURL
		}
		e.mutate(func(s *Session) { s.NextURL = url })
		res.HasNextPage = true
		res.NextPageURL = url

		if !e.pause(ctx) {
			return e.finish(ctx, res, StatusCancelled), nil
		}
	}
}

// loadPage navigates, screens for challenges and parses the document.
func (e *Engine) loadPage(ctx context.Context, page Page, url string, res *Result) (dom.Document, error) {
	firstPage := e.session.PagesCrawled == 0
	pr, err := page.Load(ctx, url, true, firstPage)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w: %s: %v", ErrPageLoad, url, err)
	}
	if !pr.Success {
		return nil, fmt.Errorf("crawl: %w: %s: %s", ErrPageLoad, url, pr.ErrorMessage)
	}

	if det := e.challenge(pr.HTML); det.Detected {
		e.mutate(func(s *Session) { s.ErrorCount++ })
		msg := fmt.Sprintf("%v: %s (confidence %.1f)", ErrBotChallenge, det.Category, det.Confidence)
		res.Errors = append(res.Errors, msg)
		e.logger.Warn("bot challenge", "session", e.session.ID,
			"category", det.Category, "confidence", det.Confidence)
	}

	doc, err := dom.Parse(pr.HTML, url)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w: %s: parse: %v", ErrPageLoad, url, err)
	}
	return doc, nil
}

// pause sleeps a random politeness interval. It returns false when the
// session was cancelled mid-sleep.
func (e *Engine) pause(ctx context.Context) bool {
	span := e.cfg.DelayMax - e.cfg.DelayMin
	d := e.cfg.DelayMin
	if span > 0 {
		d += time.Duration(e.rng.Int63n(int64(span)))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return !e.stopped(ctx)
	}
}

func (e *Engine) stopped(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}

func (e *Engine) finish(ctx context.Context, res *Result, status Status) *Result {
	s := e.session
	e.mutate(func(s *Session) {
		s.Status = status
		s.CompletedAt = time.Now()
		if !res.HasNextPage {
			s.NextURL = ""
		}
	})
	res.Success = s.ItemsAccepted > 0
	e.logger.Info("session finished",
		"session", s.ID, "status", status,
		"pages", s.PagesCrawled, "accepted", s.ItemsAccepted)
	e.recordFinish(ctx, res)
	return res
}

func (e *Engine) fail(ctx context.Context, res *Result, err error) (*Result, error) {
	s := e.session
	e.mutate(func(s *Session) {
		s.Status = StatusFailed
		s.ErrorCount++
		s.CompletedAt = time.Now()
	})
	res.Success = false
	res.Errors = append(res.Errors, err.Error())
	e.logger.Error("session failed", "session", s.ID, "error", err)
	e.recordFinish(ctx, res)
	return res, err
}

func (e *Engine) recordStart(ctx context.Context) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.SessionStarted(ctx, e.session); err != nil {
		e.logger.Warn("record session start", "session", e.session.ID, "error", err)
	}
}

func (e *Engine) recordFinish(ctx context.Context, res *Result) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.SessionFinished(ctx, e.session, res); err != nil {
		e.logger.Warn("record session finish", "session", e.session.ID, "error", err)
	}
}
