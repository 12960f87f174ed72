// Package store implements the Semantic Store (C3): a relational
// persistence layer for Containers, Blocks, BlockRelationships,
// BlockVersions, SemanticBranches, SemanticCommits, SemanticChanges and
// Migrations, with their data-model invariants enforced at write time.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	semerrors "semcore/internal/errors"
	"semcore/internal/logging"
)

// Store is a SQLite-backed Semantic Store. Writes to a single container
// (its blocks, relationships and initial versions) are wrapped in one
// transaction; reads use the shared *sql.DB connection pool under
// read-committed isolation, which is sufficient because writes are
// partitioned per container and versions are append-only.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	path  string
	ftsOn bool
}

// Open creates (if needed) and opens the SQLite database at path,
// applies the forward-only schema migrations, and returns a ready Store.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, semerrors.New(semerrors.KindStorage, "store.Open", path, err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.Open", path, err)
	}
	// A single writer connection avoids SQLITE_BUSY on the serialized
	// per-container write transactions; readers share that one connection,
	// so a read waits for an in-flight write to finish.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to enable foreign_keys: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to set busy_timeout: %v", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	s.ftsOn = s.detectFTS5()
	if s.ftsOn {
		if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS block_fts USING fts5(block_id UNINDEXED, semantic_name, raw_text)`); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.Open", path, err)
		}
		logging.Store("fts5 full-text index enabled for semantic search")
	} else {
		logging.Get(logging.CategoryStore).Warn("fts5 unavailable; semantic search falls back to LIKE scan over block_search")
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) detectFTS5() bool {
	_, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_probe USING fts5(x)")
	if err != nil {
		return false
	}
	_, _ = s.db.Exec("DROP TABLE IF EXISTS fts5_probe")
	return true
}

func tableExists(db interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}, name string) bool {
	var n string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&n)
	return err == nil
}

// txError wraps a transaction-layer failure as a Storage kind error:
// transaction failure and constraint violation are both storage-kind,
// never a bare sql error.
func txError(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	return semerrors.New(semerrors.KindStorage, op, subject, err)
}

