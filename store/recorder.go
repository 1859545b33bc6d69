package store

import (
	"context"
	"strings"

	"github.com/junqing258/crawler-assistant/crawl"
)

// Recorder adapts the Store to the crawl engine's persistence hooks.
type Recorder struct {
	store *Store
}

func NewRecorder(s *Store) *Recorder { return &Recorder{store: s} }

// SessionStarted persists the session's initial row.
func (r *Recorder) SessionStarted(ctx context.Context, sess *crawl.Session) error {
	if err := r.store.InsertSession(ctx, sess); err != nil {
		return err
	}
	return r.store.AppendLog(ctx, sess.ID, "started", sess.StartURL)
}

// SessionFinished persists the terminal state and the accepted records.
func (r *Recorder) SessionFinished(ctx context.Context, sess *crawl.Session, res *crawl.Result) error {
	if err := r.store.UpdateSession(ctx, sess, res.Errors); err != nil {
		return err
	}
	if err := r.store.InsertRecords(ctx, sess.ID, res.Records); err != nil {
		return err
	}
	detail := string(sess.Status)
	if len(res.Errors) > 0 {
		detail += ": " + strings.Join(res.Errors, "; ")
	}
	return r.store.AppendLog(ctx, sess.ID, "finished", detail)
}
