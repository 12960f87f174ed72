package store

import (
	"database/sql"
	"time"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// CreateMigration inserts a new ingestion-run row with status in_progress
// (or pending if the coordinator has not started yet).
func (s *Store) CreateMigration(m *model.Migration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statsJSON, err := marshalJSONObject("store.CreateMigration", m.ID, m.Stats)
	if err != nil {
		return err
	}
	now := m.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err = s.db.Exec(`
INSERT INTO migrations (id, repo_name, repo_url, commit_hash, source_language, target_language, status, stats_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.RepoName, m.RepoURL, m.CommitHash, m.SourceLanguage, m.TargetLanguage, string(m.Status), statsJSON, now, now,
	)
	return txError("store.CreateMigration", m.ID, err)
}

// UpdateMigrationStatus transitions a migration's status and persists its
// current statistics: status becomes failed/completed with stats intact
// either way.
func (s *Store) UpdateMigrationStatus(id string, status model.MigrationStatus, stats model.MigrationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statsJSON, err := marshalJSONObject("store.UpdateMigrationStatus", id, stats)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		"UPDATE migrations SET status = ?, stats_json = ?, updated_at = ? WHERE id = ?",
		string(status), statsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return txError("store.UpdateMigrationStatus", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return semerrors.New(semerrors.KindSemantic, "store.UpdateMigrationStatus", id, sql.ErrNoRows)
	}
	return nil
}

// GetMigration loads one migration by id.
func (s *Store) GetMigration(id string) (*model.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
SELECT id, repo_name, repo_url, commit_hash, source_language, target_language, status, stats_json, created_at, updated_at
FROM migrations WHERE id = ?`, id)
	return scanMigration(row)
}

func scanMigration(row *sql.Row) (*model.Migration, error) {
	var m model.Migration
	var status, statsJSON string
	if err := row.Scan(&m.ID, &m.RepoName, &m.RepoURL, &m.CommitHash, &m.SourceLanguage, &m.TargetLanguage, &status, &statsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetMigration", m.ID, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetMigration", m.ID, err)
	}
	m.Status = model.MigrationStatus(status)
	if err := unmarshalJSON("store.GetMigration", m.ID, statsJSON, &m.Stats); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMigration removes a migration and, by ON DELETE CASCADE, every
// container/block/relationship/version/branch/commit/change it owns:
// entities are destroyed only via explicit deletion of their owning
// migration, and cascading follows ownership edges. block_fts is an fts5
// virtual table and cannot carry a foreign key, so its rows for the
// deleted blocks are swept explicitly in the same transaction.
func (s *Store) DeleteMigration(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.DeleteMigration", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM migrations WHERE id = ?", id); err != nil {
		return txError("store.DeleteMigration", id, err)
	}
	if s.ftsOn {
		if _, err := tx.Exec("DELETE FROM block_fts WHERE block_id NOT IN (SELECT id FROM blocks)"); err != nil {
			return txError("store.DeleteMigration", id, err)
		}
	}
	return txError("store.DeleteMigration", id, tx.Commit())
}

// ListMigrations returns every migration, most recent first.
func (s *Store) ListMigrations() ([]*model.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
SELECT id, repo_name, repo_url, commit_hash, source_language, target_language, status, stats_json, created_at, updated_at
FROM migrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.ListMigrations", "", err)
	}
	defer rows.Close()

	var out []*model.Migration
	for rows.Next() {
		var m model.Migration
		var status, statsJSON string
		if err := rows.Scan(&m.ID, &m.RepoName, &m.RepoURL, &m.CommitHash, &m.SourceLanguage, &m.TargetLanguage, &status, &statsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.ListMigrations", "", err)
		}
		m.Status = model.MigrationStatus(status)
		if err := unmarshalJSON("store.ListMigrations", m.ID, statsJSON, &m.Stats); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, nil
}
