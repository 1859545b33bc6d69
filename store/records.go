package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/dbopen"
)

// InsertRecords writes a session's records in one transaction. Records
// sharing a link within the session are de-duplicated, first one wins.
func (s *Store) InsertRecords(ctx context.Context, sessionID string, recs []crawl.Record) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO records (id, session_id, title, company, location,
				description, link, published_at_raw, quality, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range recs {
			_, err := stmt.ExecContext(ctx, s.ids(), sessionID,
				r.Title, r.Company, r.Location, r.Description, r.Link,
				r.PublishedAtRaw, r.Quality(), now)
			if err != nil {
				return fmt.Errorf("store: insert record: %w", err)
			}
		}
		return nil
	})
}

// ListRecords returns a session's records in insertion order.
func (s *Store) ListRecords(ctx context.Context, sessionID string) ([]crawl.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, company, location, description, link, published_at_raw
		FROM records WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	var out []crawl.Record
	for rows.Next() {
		var r crawl.Record
		if err := rows.Scan(&r.Title, &r.Company, &r.Location, &r.Description, &r.Link, &r.PublishedAtRaw); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendLog writes one session event row. Log failures are the caller's
// to ignore; the log is observability, not state.
func (s *Store) AppendLog(ctx context.Context, sessionID, event, detail string) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO crawl_log (id, session_id, event, detail, logged_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ids(), sessionID, event, detail, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	return nil
}
