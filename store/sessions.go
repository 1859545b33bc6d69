package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/dbopen"
)

// InsertSession writes a session row at its initial state.
func (s *Store) InsertSession(ctx context.Context, sess *crawl.Session) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO crawl_sessions (id, start_url, locator_set_id, status, pages_crawled,
			items_found, items_accepted, error_count, current_url, next_url, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.StartURL, sess.LocatorSetID, string(sess.Status), sess.PagesCrawled,
		sess.ItemsFound, sess.ItemsAccepted, sess.ErrorCount, sess.CurrentURL, sess.NextURL,
		msOrNil(sess.StartedAt))
	if err != nil {
		return fmt.Errorf("store: insert session: %w", err)
	}
	return nil
}

// UpdateSession rewrites a session row with its current state and errors.
func (s *Store) UpdateSession(ctx context.Context, sess *crawl.Session, errs []string) error {
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("store: marshal errors: %w", err)
	}
	res, err := dbopen.Exec(ctx, s.db, `
		UPDATE crawl_sessions SET status = ?, pages_crawled = ?, items_found = ?,
			items_accepted = ?, error_count = ?, current_url = ?, next_url = ?,
			errors_json = ?, started_at = ?, completed_at = ?
		WHERE id = ?`,
		string(sess.Status), sess.PagesCrawled, sess.ItemsFound, sess.ItemsAccepted,
		sess.ErrorCount, sess.CurrentURL, sess.NextURL, string(errsJSON),
		msOrNil(sess.StartedAt), msOrNil(sess.CompletedAt), sess.ID)
	if err != nil {
		return fmt.Errorf("store: update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession returns one session row with its error list.
func (s *Store) GetSession(ctx context.Context, id string) (*crawl.Session, []string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, start_url, locator_set_id, status, pages_crawled, items_found,
			items_accepted, error_count, current_url, next_url, errors_json,
			started_at, completed_at
		FROM crawl_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns up to limit sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]*crawl.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_url, locator_set_id, status, pages_crawled, items_found,
			items_accepted, error_count, current_url, next_url, errors_json,
			started_at, completed_at
		FROM crawl_sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var out []*crawl.Session
	for rows.Next() {
		sess, _, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*crawl.Session, []string, error) {
	var (
		sess                 crawl.Session
		status, errsJSON     string
		startedMs, completed sql.NullInt64
	)
	err := row.Scan(&sess.ID, &sess.StartURL, &sess.LocatorSetID, &status,
		&sess.PagesCrawled, &sess.ItemsFound, &sess.ItemsAccepted, &sess.ErrorCount,
		&sess.CurrentURL, &sess.NextURL, &errsJSON, &startedMs, &completed)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: scan session: %w", err)
	}
	sess.Status = crawl.Status(status)
	if startedMs.Valid {
		sess.StartedAt = time.UnixMilli(startedMs.Int64)
	}
	if completed.Valid {
		sess.CompletedAt = time.UnixMilli(completed.Int64)
	}
	var errs []string
	if err := json.Unmarshal([]byte(errsJSON), &errs); err != nil {
		return nil, nil, fmt.Errorf("store: unmarshal session errors: %w", err)
	}
	return &sess, errs, nil
}

// msOrNil maps the zero time onto NULL.
func msOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
