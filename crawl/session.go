// Package crawl drives the page-by-page traversal of a paginated listing
// site: a strictly sequential load → extract → resolve-next state machine
// over a finalized locator set, with a failure model that separates
// locally-recoverable locator trouble from session-fatal load and
// extraction errors.
package crawl

import (
	"time"

	"github.com/junqing258/crawler-assistant/idgen"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Session is one crawl over one start URL with one locator set. Created
// once at session start and mutated only by the Engine; the persistence
// collaborator sees it at start and at terminal states.
type Session struct {
	ID           string    `json:"id"`
	StartURL     string    `json:"start_url"`
	LocatorSetID string    `json:"locator_set_id"`
	Status       Status    `json:"status"`
	PagesCrawled int       `json:"pages_crawled"`
	ItemsFound   int       `json:"items_found"`
	ItemsAccepted int      `json:"items_accepted"`
	ErrorCount   int       `json:"error_count"`
	CurrentURL   string    `json:"current_url"`
	NextURL      string    `json:"next_url"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// NewSession creates a pending session for a start URL.
func NewSession(startURL, locatorSetID string) *Session {
	return &Session{
		ID:           idgen.New(),
		StartURL:     startURL,
		LocatorSetID: locatorSetID,
		Status:       StatusPending,
		CurrentURL:   startURL,
	}
}

// Duration is the wall time of a finished session, zero while running.
func (s *Session) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
