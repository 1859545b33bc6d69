// Package observability provides SQLite-native monitoring for the crawler
// daemon: periodic worker heartbeats with Go runtime stats, and retention
// cleanup for the monitoring and crawl log tables.
//
// Everything writes to the application database. Heartbeat persistence is
// non-blocking: a failed write is logged and dropped rather than applying
// backpressure.
package observability

import "database/sql"

// Schema contains the DDL for the monitoring tables. Call Init(db) to
// apply it, or embed the constant in your own schema management.
const Schema = `
CREATE TABLE IF NOT EXISTS worker_heartbeats (
    heartbeat_id TEXT PRIMARY KEY DEFAULT ('hb_' || hex(randomblob(16))),
    worker_name TEXT NOT NULL,
    hostname TEXT NOT NULL,
    worker_pid INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    goroutines_count INTEGER,
    memory_alloc_mb REAL,
    memory_sys_mb REAL,
    gc_count INTEGER
);
CREATE INDEX IF NOT EXISTS idx_heartbeats_worker_time
    ON worker_heartbeats(worker_name, timestamp DESC);
`

// Init creates the monitoring tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
