package store

import (
	"database/sql"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// CommitContainer writes one container and its full set of blocks,
// relationships and initial (version 1) block versions in a single
// transaction: it all commits together or none of it does.
func (s *Store) CommitContainer(c *model.Container, blocks []*model.Block, rels []model.BlockRelationship, versions []*model.BlockVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.CommitContainer", c.ID, err)
	}
	defer tx.Rollback()

	if err := insertContainer(tx, c); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := validateBlockInvariants(b, blocks); err != nil {
			return err
		}
		if err := insertBlock(tx, b, s.ftsOn); err != nil {
			return err
		}
	}
	for _, r := range rels {
		if err := insertRelationship(tx, r); err != nil {
			return err
		}
	}
	for _, v := range versions {
		if err := insertBlockVersion(tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return txError("store.CommitContainer", c.ID, err)
	}
	return nil
}

// validateBlockInvariants checks the parent/container and depth invariants
// before a block is ever written: a violation here aborts the whole
// container transaction (a Semantic-kind error, not Storage).
func validateBlockInvariants(b *model.Block, all []*model.Block) error {
	if b.ParentBlockID == nil {
		return nil
	}
	for _, p := range all {
		if p.ID == *b.ParentBlockID {
			if p.ContainerID != b.ContainerID {
				return semerrors.Wrapf(semerrors.KindSemantic, "store.validateBlockInvariants", b.ID,
					"block %s container %s does not match parent %s container %s", b.ID, b.ContainerID, p.ID, p.ContainerID)
			}
			if b.DepthLevel != p.DepthLevel+1 {
				return semerrors.Wrapf(semerrors.KindSemantic, "store.validateBlockInvariants", b.ID,
					"block %s depth_level %d does not equal parent depth_level+1 (%d)", b.ID, b.DepthLevel, p.DepthLevel+1)
			}
			return nil
		}
	}
	return semerrors.Wrapf(semerrors.KindSemantic, "store.validateBlockInvariants", b.ID,
		"block %s references parent %s not present in this container's batch", b.ID, *b.ParentBlockID)
}

func insertContainer(tx *sql.Tx, c *model.Container) error {
	metaJSON, err := marshalJSONObject("store.insertContainer", c.ID, c.ParsingMetadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
INSERT INTO containers (id, migration_id, name, container_type, language, original_path, original_hash, version, parsing_metadata_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MigrationID, c.Name, string(c.ContainerType), c.Language, c.OriginalPath, c.OriginalHash, c.Version, metaJSON, c.CreatedAt, c.UpdatedAt,
	)
	return txError("store.insertContainer", c.ID, err)
}

// GetContainer loads one container by id.
func (s *Store) GetContainer(id string) (*model.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
SELECT id, migration_id, name, container_type, language, original_path, original_hash, version, parsing_metadata_json, created_at, updated_at
FROM containers WHERE id = ?`, id)
	return scanContainer(row)
}

func scanContainer(row *sql.Row) (*model.Container, error) {
	var c model.Container
	var ctype, metaJSON string
	if err := row.Scan(&c.ID, &c.MigrationID, &c.Name, &ctype, &c.Language, &c.OriginalPath, &c.OriginalHash, &c.Version, &metaJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetContainer", c.ID, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetContainer", c.ID, err)
	}
	c.ContainerType = model.ContainerType(ctype)
	if err := unmarshalJSON("store.GetContainer", c.ID, metaJSON, &c.ParsingMetadata); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContainers returns every container belonging to a migration.
func (s *Store) ListContainers(migrationID string) ([]*model.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
SELECT id, migration_id, name, container_type, language, original_path, original_hash, version, parsing_metadata_json, created_at, updated_at
FROM containers WHERE migration_id = ? ORDER BY original_path`, migrationID)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.ListContainers", migrationID, err)
	}
	defer rows.Close()

	var out []*model.Container
	for rows.Next() {
		var c model.Container
		var ctype, metaJSON string
		if err := rows.Scan(&c.ID, &c.MigrationID, &c.Name, &ctype, &c.Language, &c.OriginalPath, &c.OriginalHash, &c.Version, &metaJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.ListContainers", migrationID, err)
		}
		c.ContainerType = model.ContainerType(ctype)
		if err := unmarshalJSON("store.ListContainers", c.ID, metaJSON, &c.ParsingMetadata); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, nil
}

// FindContainerByPath looks up a container within a migration by its
// original path, used by the cross-container import-resolution pass (C6).
func (s *Store) FindContainerByPath(migrationID, path string) (*model.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
SELECT id, migration_id, name, container_type, language, original_path, original_hash, version, parsing_metadata_json, created_at, updated_at
FROM containers WHERE migration_id = ? AND original_path = ?`, migrationID, path)
	return scanContainer(row)
}
