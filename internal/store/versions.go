package store

import (
	"database/sql"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

func insertBlockVersion(tx *sql.Tx, v *model.BlockVersion) error {
	changeTypesJSON, err := marshalJSONArray("store.insertBlockVersion", v.ID, v.ChangeTypes)
	if err != nil {
		return err
	}
	var llmJSON sql.NullString
	if v.LLM != nil {
		j, err := marshalJSON("store.insertBlockVersion", v.ID, v.LLM)
		if err != nil {
			return err
		}
		llmJSON = sql.NullString{String: j, Valid: true}
	}
	_, err = tx.Exec(`
INSERT INTO block_versions (id, block_id, version_number, semantic_hash, syntax_hash, parent_version_id, breaking_change, change_types_json, change_description, llm_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.BlockID, v.VersionNumber, v.SemanticHash, v.SyntaxHash, v.ParentVersionID, v.BreakingChange, changeTypesJSON, v.ChangeDescription, llmJSON, v.CreatedAt,
	)
	return txError("store.insertBlockVersion", v.ID, err)
}

// CreateBlockVersion records a new immutable BlockVersion commit in its
// own transaction, enforcing the monotonic version_number invariant:
// version N>1 must reference a parent_version of the same block with a
// strictly smaller version_number.
func (s *Store) CreateBlockVersion(v *model.BlockVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.VersionNumber > 1 {
		if v.ParentVersionID == nil {
			return semerrors.Wrapf(semerrors.KindSemantic, "store.CreateBlockVersion", v.ID,
				"version %d of block %s has no parent_version", v.VersionNumber, v.BlockID)
		}
		var parentNumber int
		var parentBlockID string
		err := s.db.QueryRow("SELECT block_id, version_number FROM block_versions WHERE id = ?", *v.ParentVersionID).Scan(&parentBlockID, &parentNumber)
		if err != nil {
			return semerrors.New(semerrors.KindSemantic, "store.CreateBlockVersion", v.ID, err)
		}
		if parentBlockID != v.BlockID || parentNumber >= v.VersionNumber {
			return semerrors.Wrapf(semerrors.KindSemantic, "store.CreateBlockVersion", v.ID,
				"parent_version %s is not an earlier version of block %s", *v.ParentVersionID, v.BlockID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.CreateBlockVersion", v.ID, err)
	}
	defer tx.Rollback()
	if err := insertBlockVersion(tx, v); err != nil {
		return err
	}
	return txError("store.CreateBlockVersion", v.ID, tx.Commit())
}

// LatestVersion returns the highest version_number row for a block, the
// "before" state a new edit diffs against.
func (s *Store) LatestVersion(blockID string) (*model.BlockVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
SELECT id, block_id, version_number, semantic_hash, syntax_hash, parent_version_id, breaking_change, change_types_json, change_description, llm_json, created_at
FROM block_versions WHERE block_id = ? ORDER BY version_number DESC LIMIT 1`, blockID)
	return scanVersion(row)
}

// GetVersion loads one BlockVersion by id.
func (s *Store) GetVersion(id string) (*model.BlockVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
SELECT id, block_id, version_number, semantic_hash, syntax_hash, parent_version_id, breaking_change, change_types_json, change_description, llm_json, created_at
FROM block_versions WHERE id = ?`, id)
	return scanVersion(row)
}

func scanVersion(row *sql.Row) (*model.BlockVersion, error) {
	var v model.BlockVersion
	var changeTypesJSON string
	var llmJSON sql.NullString
	err := row.Scan(&v.ID, &v.BlockID, &v.VersionNumber, &v.SemanticHash, &v.SyntaxHash, &v.ParentVersionID, &v.BreakingChange, &changeTypesJSON, &v.ChangeDescription, &llmJSON, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetVersion", v.ID, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetVersion", v.ID, err)
	}
	if err := unmarshalJSON("store.GetVersion", v.ID, changeTypesJSON, &v.ChangeTypes); err != nil {
		return nil, err
	}
	if llmJSON.Valid {
		v.LLM = &model.LLMAttribution{}
		if err := unmarshalJSON("store.GetVersion", v.ID, llmJSON.String, v.LLM); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

// ListVersions returns every version of a block, oldest first.
func (s *Store) ListVersions(blockID string) ([]*model.BlockVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
SELECT id, block_id, version_number, semantic_hash, syntax_hash, parent_version_id, breaking_change, change_types_json, change_description, llm_json, created_at
FROM block_versions WHERE block_id = ? ORDER BY version_number ASC`, blockID)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.ListVersions", blockID, err)
	}
	defer rows.Close()

	var out []*model.BlockVersion
	for rows.Next() {
		var v model.BlockVersion
		var changeTypesJSON string
		var llmJSON sql.NullString
		if err := rows.Scan(&v.ID, &v.BlockID, &v.VersionNumber, &v.SemanticHash, &v.SyntaxHash, &v.ParentVersionID, &v.BreakingChange, &changeTypesJSON, &v.ChangeDescription, &llmJSON, &v.CreatedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.ListVersions", blockID, err)
		}
		if err := unmarshalJSON("store.ListVersions", v.ID, changeTypesJSON, &v.ChangeTypes); err != nil {
			return nil, err
		}
		if llmJSON.Valid {
			v.LLM = &model.LLMAttribution{}
			if err := unmarshalJSON("store.ListVersions", v.ID, llmJSON.String, v.LLM); err != nil {
				return nil, err
			}
		}
		out = append(out, &v)
	}
	return out, nil
}

// BlocksBySemanticHash finds every block version sharing a semantic_hash,
// via the block_versions(semantic_hash) index. The duplicate_name pattern
// does not use it: it groups blocks by semantic_name only.
func (s *Store) BlocksBySemanticHash(hash string) ([]*model.BlockVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
SELECT id, block_id, version_number, semantic_hash, syntax_hash, parent_version_id, breaking_change, change_types_json, change_description, llm_json, created_at
FROM block_versions WHERE semantic_hash = ?`, hash)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.BlocksBySemanticHash", hash, err)
	}
	defer rows.Close()

	var out []*model.BlockVersion
	for rows.Next() {
		var v model.BlockVersion
		var changeTypesJSON string
		var llmJSON sql.NullString
		if err := rows.Scan(&v.ID, &v.BlockID, &v.VersionNumber, &v.SemanticHash, &v.SyntaxHash, &v.ParentVersionID, &v.BreakingChange, &changeTypesJSON, &v.ChangeDescription, &llmJSON, &v.CreatedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.BlocksBySemanticHash", hash, err)
		}
		_ = unmarshalJSON("store.BlocksBySemanticHash", v.ID, changeTypesJSON, &v.ChangeTypes)
		out = append(out, &v)
	}
	return out, nil
}
