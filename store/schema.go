// Package store persists locator sets, crawl sessions and extracted
// records in SQLite. One database per deployment; timestamps are epoch
// milliseconds.
package store

// Schema is the complete crawler schema, idempotent.
const Schema = `
-- Validated locator sets per site
CREATE TABLE IF NOT EXISTS locator_sets (
    id            TEXT PRIMARY KEY,
    site_url      TEXT NOT NULL,
    version       TEXT NOT NULL DEFAULT '',
    locators_json TEXT NOT NULL DEFAULT '{}',
    confidence    REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locator_sets_site ON locator_sets(site_url, created_at DESC);

-- Crawl sessions
CREATE TABLE IF NOT EXISTS crawl_sessions (
    id             TEXT PRIMARY KEY,
    start_url      TEXT NOT NULL,
    locator_set_id TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'pending',
    pages_crawled  INTEGER NOT NULL DEFAULT 0,
    items_found    INTEGER NOT NULL DEFAULT 0,
    items_accepted INTEGER NOT NULL DEFAULT 0,
    error_count    INTEGER NOT NULL DEFAULT 0,
    current_url    TEXT NOT NULL DEFAULT '',
    next_url       TEXT NOT NULL DEFAULT '',
    errors_json    TEXT NOT NULL DEFAULT '[]',
    started_at     INTEGER,
    completed_at   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON crawl_sessions(started_at DESC);

-- Extracted records
CREATE TABLE IF NOT EXISTS records (
    id               TEXT PRIMARY KEY,
    session_id       TEXT NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
    title            TEXT NOT NULL DEFAULT '',
    company          TEXT NOT NULL DEFAULT '',
    location         TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    link             TEXT NOT NULL DEFAULT '',
    published_at_raw TEXT NOT NULL DEFAULT '',
    quality          REAL NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
-- One record per link within a session; linkless records always insert.
CREATE UNIQUE INDEX IF NOT EXISTS idx_records_session_link
    ON records(session_id, link) WHERE link <> '';

-- Session event log (observability)
CREATE TABLE IF NOT EXISTS crawl_log (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
    event      TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    logged_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crawl_log_session ON crawl_log(session_id, logged_at);
`
