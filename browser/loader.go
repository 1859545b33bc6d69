package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	rodstealth "github.com/go-rod/stealth"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/idgen"
	"github.com/junqing258/crawler-assistant/stealth"
)

// LoaderConfig configures per-session page behavior.
type LoaderConfig struct {
	// NavTimeout bounds a single navigation. Default: 30s.
	NavTimeout time.Duration

	// ScreenshotDir receives page screenshots. Empty disables them even
	// when a load requests one.
	ScreenshotDir string

	// ScrollCount is the number of human-like scroll steps after each
	// load. Default: 2.
	ScrollCount int

	Logger *slog.Logger

	shotIDs idgen.Generator
}

func (c *LoaderConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.ScrollCount <= 0 {
		c.ScrollCount = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.shotIDs == nil {
		c.shotIDs = idgen.Timestamped(idgen.NanoID(8))
	}
}

// Loader opens fingerprinted stealth pages on the managed browser. It
// implements crawl.PageLoader.
type Loader struct {
	mgr *Manager
	cfg LoaderConfig
}

func NewLoader(mgr *Manager, cfg LoaderConfig) *Loader {
	cfg.defaults()
	return &Loader{mgr: mgr, cfg: cfg}
}

// Open creates a stealth page and applies the session fingerprint: user
// agent, viewport, timezone and geolocation. The fingerprint sticks for
// the page's lifetime.
func (l *Loader) Open(ctx context.Context, profile *stealth.Profile) (crawl.Page, error) {
	b := l.mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := rodstealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if err := applyFingerprint(page, &profile.Fingerprint); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: apply fingerprint: %w", err)
	}

	if len(l.mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, l.mgr.cfg.ResourceBlocking); err != nil {
			l.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	return &sessionPage{
		page:    page,
		profile: profile,
		cfg:     l.cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func applyFingerprint(page *rod.Page, fp *stealth.Fingerprint) error {
	ua := proto.NetworkSetUserAgentOverride{UserAgent: fp.UserAgent}
	if err := ua.Call(page); err != nil {
		return fmt.Errorf("user agent: %w", err)
	}

	vp := &proto.EmulationSetDeviceMetricsOverride{
		Width:             fp.ViewportWidth,
		Height:            fp.ViewportHeight,
		DeviceScaleFactor: 1,
	}
	if err := page.SetViewport(vp); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}

	tz := proto.EmulationSetTimezoneOverride{TimezoneID: fp.Timezone}
	if err := tz.Call(page); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	lat, lon, acc := fp.Latitude, fp.Longitude, 100.0
	geo := proto.EmulationSetGeolocationOverride{
		Latitude:  &lat,
		Longitude: &lon,
		Accuracy:  &acc,
	}
	if err := geo.Call(page); err != nil {
		return fmt.Errorf("geolocation: %w", err)
	}

	return nil
}

// sessionPage is one fingerprinted tab, alive for one crawl session.
type sessionPage struct {
	page    *rod.Page
	profile *stealth.Profile
	cfg     LoaderConfig
	rng     *rand.Rand
}

func (p *sessionPage) Load(ctx context.Context, url string, waitForLoad, takeScreenshot bool) (*crawl.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavTimeout)
	defer cancel()

	start := time.Now()
	if err := p.page.Context(navCtx).Navigate(url); err != nil {
		return &crawl.PageResult{Success: false, ErrorMessage: err.Error()}, nil
	}
	if waitForLoad {
		if err := p.page.Context(navCtx).WaitLoad(); err != nil {
			p.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
		}
	}

	p.simulateScrolls(navCtx)

	html, err := p.page.Context(navCtx).HTML()
	if err != nil {
		return &crawl.PageResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	res := &crawl.PageResult{
		Success:  true,
		HTML:     html,
		LoadTime: time.Since(start),
	}

	if takeScreenshot && p.cfg.ScreenshotDir != "" {
		if path, serr := p.screenshot(navCtx); serr != nil {
			p.cfg.Logger.Warn("browser: screenshot failed", "url", url, "error", serr)
		} else {
			res.ScreenshotPath = path
		}
	}

	return res, nil
}

// ClickNavigate clicks the element at selector after a human-like pause
// and waits for the resulting navigation.
func (p *sessionPage) ClickNavigate(ctx context.Context, selector string) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavTimeout)
	defer cancel()

	el, err := p.page.Context(navCtx).Element(selector)
	if err != nil {
		return "", fmt.Errorf("browser: find %q: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return "", fmt.Errorf("browser: scroll to %q: %w", selector, err)
	}

	if !sleep(navCtx, p.profile.ClickDelay(p.rng)) {
		return "", navCtx.Err()
	}

	wait := p.page.Context(navCtx).WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("browser: click %q: %w", selector, err)
	}
	wait()

	info, err := p.page.Context(navCtx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.URL, nil
}

func (p *sessionPage) Close() error {
	return p.page.Close()
}

// simulateScrolls nudges the page down a few steps with behavior-profile
// pacing. Lazy-loaded listings render their items on scroll.
func (p *sessionPage) simulateScrolls(ctx context.Context) {
	for i := 0; i < p.cfg.ScrollCount; i++ {
		if !sleep(ctx, p.profile.ScrollDelay(p.rng)) {
			return
		}
		step := 400 + p.rng.Intn(400)
		if _, err := p.page.Context(ctx).Eval(`(y) => window.scrollBy(0, y)`, step); err != nil {
			p.cfg.Logger.Debug("browser: scroll failed", "error", err)
			return
		}
	}
}

func (p *sessionPage) screenshot(ctx context.Context) (string, error) {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(p.cfg.ScreenshotDir, p.cfg.shotIDs()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
