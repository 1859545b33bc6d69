package shield

import "database/sql"

// Schema defines the rate_limits table read by RateLimiter: one row per
// "METHOD /path" endpoint. All statements are idempotent, so Init can run
// on every startup. The seeded rows cover the endpoints that drive a real
// browser and therefore need protection from accidental hammering.
const Schema = `
CREATE TABLE IF NOT EXISTS rate_limits (
    endpoint       TEXT PRIMARY KEY,
    max_requests   INTEGER NOT NULL DEFAULT 60,
    window_seconds INTEGER NOT NULL DEFAULT 60,
    enabled        INTEGER NOT NULL DEFAULT 1
);

INSERT OR IGNORE INTO rate_limits (endpoint, max_requests, window_seconds, enabled)
VALUES
    ('POST /api/v1/analyze', 10, 60, 1),
    ('POST /api/v1/crawl', 30, 60, 1);
`

// Init creates the rate_limits table and seed rules if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
