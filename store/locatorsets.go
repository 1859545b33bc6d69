package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/junqing258/crawler-assistant/dbopen"
	"github.com/junqing258/crawler-assistant/locator"
)

// StoredSet is a locator set row.
type StoredSet struct {
	ID        string      `json:"id"`
	SiteURL   string      `json:"site_url"`
	Set       locator.Set `json:"set"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SaveLocatorSet inserts a new locator set for a site and returns its ID.
func (s *Store) SaveLocatorSet(ctx context.Context, siteURL string, set *locator.Set) (string, error) {
	locs, err := json.Marshal(set.Locators)
	if err != nil {
		return "", fmt.Errorf("store: marshal locators: %w", err)
	}
	id := s.ids()
	now := time.Now().UnixMilli()
	_, err = dbopen.Exec(ctx, s.db, `
		INSERT INTO locator_sets (id, site_url, version, locators_json, confidence, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, siteURL, set.Version, string(locs), set.Confidence, string(set.Status), now, now)
	if err != nil {
		return "", fmt.Errorf("store: save locator set: %w", err)
	}
	return id, nil
}

// UpdateLocatorSet rewrites the mutable fields of a stored set, used
// after re-validation changes confidence or status.
func (s *Store) UpdateLocatorSet(ctx context.Context, id string, set *locator.Set) error {
	locs, err := json.Marshal(set.Locators)
	if err != nil {
		return fmt.Errorf("store: marshal locators: %w", err)
	}
	res, err := dbopen.Exec(ctx, s.db, `
		UPDATE locator_sets SET locators_json = ?, confidence = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		string(locs), set.Confidence, string(set.Status), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: update locator set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLocatorSet returns one stored set by ID.
func (s *Store) GetLocatorSet(ctx context.Context, id string) (*StoredSet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site_url, version, locators_json, confidence, status, created_at, updated_at
		FROM locator_sets WHERE id = ?`, id)
	return scanStoredSet(row)
}

// LatestLocatorSet returns the newest stored set for a site, preferring
// validated sets over pending or needs_review ones.
func (s *Store) LatestLocatorSet(ctx context.Context, siteURL string) (*StoredSet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site_url, version, locators_json, confidence, status, created_at, updated_at
		FROM locator_sets WHERE site_url = ?
		ORDER BY (status = 'validated') DESC, created_at DESC
		LIMIT 1`, siteURL)
	return scanStoredSet(row)
}

func scanStoredSet(row *sql.Row) (*StoredSet, error) {
	var (
		ss                   StoredSet
		locs, status         string
		createdMs, updatedMs int64
	)
	err := row.Scan(&ss.ID, &ss.SiteURL, &ss.Set.Version, &locs, &ss.Set.Confidence, &status, &createdMs, &updatedMs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan locator set: %w", err)
	}
	if err := json.Unmarshal([]byte(locs), &ss.Set.Locators); err != nil {
		return nil, fmt.Errorf("store: unmarshal locators: %w", err)
	}
	ss.Set.Status = locator.ValidationStatus(status)
	ss.CreatedAt = time.UnixMilli(createdMs)
	ss.UpdatedAt = time.UnixMilli(updatedMs)
	return &ss, nil
}
