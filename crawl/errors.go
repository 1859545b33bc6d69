package crawl

import "errors"

// The crawl failure taxonomy. Sentinels wrap the underlying cause;
// callers match with errors.Is.
var (
	// ErrLocatorInvalid marks syntax or zero-match locator trouble. It is
	// recovered locally during synthesis and only ever surfaces as a
	// needs_review locator set, never as a session failure.
	ErrLocatorInvalid = errors.New("locator invalid")

	// ErrPageLoad is fatal to the page and terminates the session; the
	// engine performs no internal retry.
	ErrPageLoad = errors.New("page load failed")

	// ErrExtraction is a hard locator-set failure (no item container
	// match) and terminates the session.
	ErrExtraction = errors.New("extraction failed")

	// ErrBotChallenge is advisory: logged and surfaced in the result's
	// error list, but it does not abort the session on its own.
	ErrBotChallenge = errors.New("bot challenge detected")

	// ErrSessionIncomplete rejects a crawl start on a locator set that
	// is missing a required role.
	ErrSessionIncomplete = errors.New("locator set incomplete")
)
