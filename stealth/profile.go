// Package stealth holds per-session browser identity and pacing: one
// fingerprint and one behavior profile chosen at session start and kept
// for the session's whole lifetime, plus detection of anti-automation
// interstitials in loaded content.
package stealth

import (
	"math/rand"
	"time"
)

// Fingerprint is the bundle of browser-observable identity signals.
type Fingerprint struct {
	UserAgent      string  `json:"user_agent"`
	ViewportWidth  int     `json:"viewport_width"`
	ViewportHeight int     `json:"viewport_height"`
	Timezone       string  `json:"timezone"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// Behavior is the pacing profile for human-like interaction.
type Behavior struct {
	ScrollDelayMin time.Duration `json:"scroll_delay_min"`
	ScrollDelayMax time.Duration `json:"scroll_delay_max"`
	ClickDelayMin  time.Duration `json:"click_delay_min"`
	ClickDelayMax  time.Duration `json:"click_delay_max"`
	TypeDelayMin   time.Duration `json:"type_delay_min"`
	TypeDelayMax   time.Duration `json:"type_delay_max"`
}

// Profile is the per-session identity. Never re-randomized mid-session:
// a fingerprint that changes between pages is itself a bot signal.
type Profile struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Behavior    Behavior    `json:"behavior"`
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

var viewports = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1600, 900},
}

type geo struct {
	timezone string
	lat, lon float64
}

var geolocations = []geo{
	{"Asia/Shanghai", 39.9042, 116.4074},
	{"Asia/Shanghai", 31.2304, 121.4737},
	{"Asia/Hong_Kong", 22.3193, 114.1694},
}

var behaviors = []Behavior{
	{
		ScrollDelayMin: 1 * time.Second, ScrollDelayMax: 3 * time.Second,
		ClickDelayMin: 500 * time.Millisecond, ClickDelayMax: 1500 * time.Millisecond,
		TypeDelayMin: 100 * time.Millisecond, TypeDelayMax: 300 * time.Millisecond,
	},
	{
		ScrollDelayMin: 2 * time.Second, ScrollDelayMax: 4 * time.Second,
		ClickDelayMin: 1 * time.Second, ClickDelayMax: 2 * time.Second,
		TypeDelayMin: 200 * time.Millisecond, TypeDelayMax: 400 * time.Millisecond,
	},
	{
		ScrollDelayMin: 1500 * time.Millisecond, ScrollDelayMax: 2500 * time.Millisecond,
		ClickDelayMin: 800 * time.Millisecond, ClickDelayMax: 1800 * time.Millisecond,
		TypeDelayMin: 150 * time.Millisecond, TypeDelayMax: 350 * time.Millisecond,
	},
}

// NewProfile draws one fingerprint and one behavior from the pools using
// the caller's RNG. Tests pass a seeded source; production passes one
// seeded from crypto-quality entropy.
func NewProfile(rng *rand.Rand) *Profile {
	ua := userAgents[rng.Intn(len(userAgents))]
	vp := viewports[rng.Intn(len(viewports))]
	g := geolocations[rng.Intn(len(geolocations))]
	b := behaviors[rng.Intn(len(behaviors))]

	return &Profile{
		Fingerprint: Fingerprint{
			UserAgent:      ua,
			ViewportWidth:  vp[0],
			ViewportHeight: vp[1],
			Timezone:       g.timezone,
			Latitude:       g.lat,
			Longitude:      g.lon,
		},
		Behavior: b,
	}
}

// ClickDelay draws a randomized pre-click pause from the behavior range.
func (p *Profile) ClickDelay(rng *rand.Rand) time.Duration {
	return randomDelay(rng, p.Behavior.ClickDelayMin, p.Behavior.ClickDelayMax)
}

// ScrollDelay draws a randomized between-scroll pause.
func (p *Profile) ScrollDelay(rng *rand.Rand) time.Duration {
	return randomDelay(rng, p.Behavior.ScrollDelayMin, p.Behavior.ScrollDelayMax)
}

func randomDelay(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}
