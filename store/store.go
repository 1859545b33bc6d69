package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/junqing258/crawler-assistant/dbopen"
	"github.com/junqing258/crawler-assistant/idgen"
)

// ErrNotFound is returned by lookups for unknown IDs.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database behind typed accessors.
type Store struct {
	db  *sql.DB
	ids idgen.Generator
}

// Open opens (and creates if needed) the database at path with the
// schema applied.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	opts = append([]dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}, opts...)
	db, err := dbopen.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, ids: idgen.Default}, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	return &Store{db: dbopen.OpenMemory(t, dbopen.WithSchema(Schema)), ids: idgen.Default}
}

// DB exposes the underlying connection for middleware that keeps its own
// tables (e.g. rate limit rules).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }
