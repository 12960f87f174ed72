package store

import (
	"database/sql"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// CreateCommit persists a SemanticCommit and its SemanticChanges
// atomically. Commits are immutable once written.
func (s *Store) CreateCommit(migrationID string, c *model.SemanticCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.CreateCommit", c.Hash, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
INSERT INTO semantic_commits (hash, parent_hash, migration_id, author, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)`, c.Hash, c.ParentHash, migrationID, c.Author, c.Message, c.CreatedAt)
	if err != nil {
		return txError("store.CreateCommit", c.Hash, err)
	}

	for _, ch := range c.Changes {
		_, err = tx.Exec(`
INSERT INTO semantic_changes (id, commit_hash, block_id, before_version_id, after_version_id)
VALUES (?, ?, ?, ?, ?)`, ch.ID, c.Hash, ch.BlockID, ch.BeforeVersion, ch.AfterVersion)
		if err != nil {
			return txError("store.CreateCommit", c.Hash, err)
		}
	}

	return txError("store.CreateCommit", c.Hash, tx.Commit())
}

// GetCommit loads a commit and its changes by hash.
func (s *Store) GetCommit(hash string) (*model.SemanticCommit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c model.SemanticCommit
	row := s.db.QueryRow("SELECT hash, parent_hash, author, message, created_at FROM semantic_commits WHERE hash = ?", hash)
	if err := row.Scan(&c.Hash, &c.ParentHash, &c.Author, &c.Message, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetCommit", hash, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetCommit", hash, err)
	}

	rows, err := s.db.Query("SELECT id, block_id, before_version_id, after_version_id FROM semantic_changes WHERE commit_hash = ?", hash)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.GetCommit", hash, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ch model.SemanticChange
		var before sql.NullString
		if err := rows.Scan(&ch.ID, &ch.BlockID, &before, &ch.AfterVersion); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.GetCommit", hash, err)
		}
		if before.Valid {
			ch.BeforeVersion = &before.String
		}
		c.Changes = append(c.Changes, ch)
	}
	return &c, nil
}

// CommitAncestors walks parent_hash back to the root, used by fast-forward
// checks: the new head's ancestor chain must contain the current head.
func (s *Store) CommitAncestors(hash string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []string
	current := hash
	for current != "" {
		chain = append(chain, current)
		var parent string
		err := s.db.QueryRow("SELECT parent_hash FROM semantic_commits WHERE hash = ?", current).Scan(&parent)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.CommitAncestors", hash, err)
		}
		current = parent
	}
	return chain, nil
}

// UpsertBranch creates a branch or moves an existing one's head: a branch
// is a named pointer to a head commit hash.
func (s *Store) UpsertBranch(b *model.SemanticBranch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO semantic_branches (name, migration_id, head_commit_hash, base_commit_hash, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(migration_id, name) DO UPDATE SET head_commit_hash = excluded.head_commit_hash`,
		b.Name, b.MigrationID, b.HeadCommitHash, b.BaseCommitHash, b.CreatedAt)
	return txError("store.UpsertBranch", b.Name, err)
}

// GetBranch loads a branch by (migration, name).
func (s *Store) GetBranch(migrationID, name string) (*model.SemanticBranch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b model.SemanticBranch
	row := s.db.QueryRow(
		"SELECT name, migration_id, head_commit_hash, base_commit_hash, created_at FROM semantic_branches WHERE migration_id = ? AND name = ?",
		migrationID, name)
	if err := row.Scan(&b.Name, &b.MigrationID, &b.HeadCommitHash, &b.BaseCommitHash, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetBranch", name, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetBranch", name, err)
	}
	return &b, nil
}

// ListBranches returns every branch of a migration.
func (s *Store) ListBranches(migrationID string) ([]*model.SemanticBranch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT name, migration_id, head_commit_hash, base_commit_hash, created_at FROM semantic_branches WHERE migration_id = ? ORDER BY name",
		migrationID)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.ListBranches", migrationID, err)
	}
	defer rows.Close()

	var out []*model.SemanticBranch
	for rows.Next() {
		var b model.SemanticBranch
		if err := rows.Scan(&b.Name, &b.MigrationID, &b.HeadCommitHash, &b.BaseCommitHash, &b.CreatedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.ListBranches", migrationID, err)
		}
		out = append(out, &b)
	}
	return out, nil
}
