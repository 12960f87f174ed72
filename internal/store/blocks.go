package store

import (
	"database/sql"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

func insertBlock(tx *sql.Tx, b *model.Block, ftsOn bool) error {
	normJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.AbstractSyntax.NormalizedStructure)
	if err != nil {
		return err
	}
	tokJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.AbstractSyntax.TokenSequence)
	if err != nil {
		return err
	}
	paramsJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.Parameters)
	if err != nil {
		return err
	}
	modsJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.Modifiers)
	if err != nil {
		return err
	}
	decoJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.Decorators)
	if err != nil {
		return err
	}
	featJSON, err := marshalJSONObject("store.insertBlock", b.ID, b.LanguageFeatures)
	if err != nil {
		return err
	}
	scopeJSON, err := marshalJSONObject("store.insertBlock", b.ID, b.ScopeInfo)
	if err != nil {
		return err
	}
	commentsJSON, err := marshalJSONArray("store.insertBlock", b.ID, b.AttachedComments)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
INSERT INTO blocks (
	id, container_id, block_type, semantic_name, raw_text, normalized_structure_json, token_sequence_json,
	position, indent_level, parent_block_id, position_in_parent, depth_level, hierarchical_index,
	parameters_json, return_type, modifiers_json, decorators_json, language_features_json,
	cyclomatic_complexity, cognitive_complexity, lines_of_code, scope_info_json, semantic_signature,
	attached_comments_json, source_language
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ContainerID, string(b.BlockType), b.SemanticName, b.AbstractSyntax.RawText, normJSON, tokJSON,
		b.Position, b.IndentLevel, b.ParentBlockID, b.PositionInParent, b.DepthLevel, b.HierarchicalIndex,
		paramsJSON, b.ReturnType, modsJSON, decoJSON, featJSON,
		b.ComplexityMetrics.Cyclomatic, b.ComplexityMetrics.Cognitive, b.ComplexityMetrics.LinesOfCode, scopeJSON, b.SemanticSignature,
		commentsJSON, b.SourceLanguage,
	)
	if err != nil {
		return txError("store.insertBlock", b.ID, err)
	}

	_, err = tx.Exec("INSERT INTO block_search (block_id, semantic_name, raw_text) VALUES (?, ?, ?)",
		b.ID, semanticNameOrEmpty(b), b.AbstractSyntax.RawText)
	if err != nil {
		return txError("store.insertBlock", b.ID, err)
	}

	if ftsOn {
		_, err = tx.Exec("INSERT INTO block_fts (block_id, semantic_name, raw_text) VALUES (?, ?, ?)",
			b.ID, semanticNameOrEmpty(b), b.AbstractSyntax.RawText)
		if err != nil {
			return txError("store.insertBlock", b.ID, err)
		}
	}
	return nil
}

func semanticNameOrEmpty(b *model.Block) string {
	if b.SemanticName == nil {
		return ""
	}
	return *b.SemanticName
}

// GetBlock loads one block by id.
func (s *Store) GetBlock(id string) (*model.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(blockSelect+" WHERE id = ?", id)
	return scanBlock(row)
}

const blockSelect = `
SELECT id, container_id, block_type, semantic_name, raw_text, normalized_structure_json, token_sequence_json,
	position, indent_level, parent_block_id, position_in_parent, depth_level, hierarchical_index,
	parameters_json, return_type, modifiers_json, decorators_json, language_features_json,
	cyclomatic_complexity, cognitive_complexity, lines_of_code, scope_info_json, semantic_signature,
	attached_comments_json, source_language
FROM blocks`

func scanBlock(row *sql.Row) (*model.Block, error) {
	var b model.Block
	var blockType string
	var normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON string
	err := row.Scan(&b.ID, &b.ContainerID, &blockType, &b.SemanticName, &b.AbstractSyntax.RawText, &normJSON, &tokJSON,
		&b.Position, &b.IndentLevel, &b.ParentBlockID, &b.PositionInParent, &b.DepthLevel, &b.HierarchicalIndex,
		&paramsJSON, &b.ReturnType, &modsJSON, &decoJSON, &featJSON,
		&b.ComplexityMetrics.Cyclomatic, &b.ComplexityMetrics.Cognitive, &b.ComplexityMetrics.LinesOfCode, &scopeJSON, &b.SemanticSignature,
		&commentsJSON, &b.SourceLanguage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, semerrors.New(semerrors.KindSemantic, "store.GetBlock", b.ID, err)
		}
		return nil, semerrors.New(semerrors.KindStorage, "store.GetBlock", b.ID, err)
	}
	b.BlockType = model.BlockType(blockType)
	if err := decodeBlockJSON(&b, normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON); err != nil {
		return nil, err
	}
	return &b, nil
}

func decodeBlockJSON(b *model.Block, normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON string) error {
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, normJSON, &b.AbstractSyntax.NormalizedStructure); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, tokJSON, &b.AbstractSyntax.TokenSequence); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, paramsJSON, &b.Parameters); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, modsJSON, &b.Modifiers); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, decoJSON, &b.Decorators); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, featJSON, &b.LanguageFeatures); err != nil {
		return err
	}
	if err := unmarshalJSON("store.decodeBlockJSON", b.ID, scopeJSON, &b.ScopeInfo); err != nil {
		return err
	}
	return unmarshalJSON("store.decodeBlockJSON", b.ID, commentsJSON, &b.AttachedComments)
}

// ListBlocksByContainer returns every block of one container, in
// byte-ordered Position.
func (s *Store) ListBlocksByContainer(containerID string) ([]*model.Block, error) {
	return s.queryBlocks(blockSelect+" WHERE container_id = ? ORDER BY position", containerID)
}

// ListBlocksByMigration returns every block across every container of a
// migration, container name and path included, the working set the pattern
// catalog (C5) scans to evaluate the text/structure-based heuristics that
// don't reduce cleanly to Datalog facts.
func (s *Store) ListBlocksByMigration(migrationID string) ([]*model.Block, error) {
	return s.queryBlocks(`
SELECT b.id, b.container_id, b.block_type, b.semantic_name, b.raw_text, b.normalized_structure_json, b.token_sequence_json,
	b.position, b.indent_level, b.parent_block_id, b.position_in_parent, b.depth_level, b.hierarchical_index,
	b.parameters_json, b.return_type, b.modifiers_json, b.decorators_json, b.language_features_json,
	b.cyclomatic_complexity, b.cognitive_complexity, b.lines_of_code, b.scope_info_json, b.semantic_signature,
	b.attached_comments_json, b.source_language
FROM blocks b JOIN containers c ON c.id = b.container_id
WHERE c.migration_id = ? ORDER BY b.container_id, b.position`, migrationID)
}

// ListChildren returns the direct children of a block, in PositionInParent
// order (roots: pass parentBlockID="").
func (s *Store) ListChildren(containerID, parentBlockID string) ([]*model.Block, error) {
	if parentBlockID == "" {
		return s.queryBlocks(blockSelect+" WHERE container_id = ? AND parent_block_id IS NULL ORDER BY position_in_parent", containerID)
	}
	return s.queryBlocks(blockSelect+" WHERE container_id = ? AND parent_block_id = ? ORDER BY position_in_parent", containerID, parentBlockID)
}

// FindBySemanticName returns every block across a migration whose
// semantic_name matches exactly, used by the cross-container resolution
// pass (C6 step 6) to settle unresolved calls/imports/inherits edges.
func (s *Store) FindBySemanticName(migrationID, name string) ([]*model.Block, error) {
	rows, err := s.db.Query(`
SELECT b.id, b.container_id, b.block_type, b.semantic_name, b.raw_text, b.normalized_structure_json, b.token_sequence_json,
	b.position, b.indent_level, b.parent_block_id, b.position_in_parent, b.depth_level, b.hierarchical_index,
	b.parameters_json, b.return_type, b.modifiers_json, b.decorators_json, b.language_features_json,
	b.cyclomatic_complexity, b.cognitive_complexity, b.lines_of_code, b.scope_info_json, b.semantic_signature,
	b.attached_comments_json, b.source_language
FROM blocks b JOIN containers c ON c.id = b.container_id
WHERE c.migration_id = ? AND b.semantic_name = ?`, migrationID, name)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.FindBySemanticName", name, err)
	}
	return scanBlockRows(rows, "store.FindBySemanticName", name)
}

func (s *Store) queryBlocks(query string, args ...interface{}) ([]*model.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.queryBlocks", "", err)
	}
	return scanBlockRows(rows, "store.queryBlocks", "")
}

func scanBlockRows(rows *sql.Rows, op, subject string) ([]*model.Block, error) {
	defer rows.Close()
	var out []*model.Block
	for rows.Next() {
		var b model.Block
		var blockType string
		var normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON string
		err := rows.Scan(&b.ID, &b.ContainerID, &blockType, &b.SemanticName, &b.AbstractSyntax.RawText, &normJSON, &tokJSON,
			&b.Position, &b.IndentLevel, &b.ParentBlockID, &b.PositionInParent, &b.DepthLevel, &b.HierarchicalIndex,
			&paramsJSON, &b.ReturnType, &modsJSON, &decoJSON, &featJSON,
			&b.ComplexityMetrics.Cyclomatic, &b.ComplexityMetrics.Cognitive, &b.ComplexityMetrics.LinesOfCode, &scopeJSON, &b.SemanticSignature,
			&commentsJSON, &b.SourceLanguage)
		if err != nil {
			return nil, semerrors.New(semerrors.KindStorage, op, subject, err)
		}
		b.BlockType = model.BlockType(blockType)
		if err := decodeBlockJSON(&b, normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, nil
}

// UpdateBlockAbstractSyntax rewrites a block's raw text/normalized
// structure/signature in place and refreshes its search row. Edits never
// mutate structure directly outside this path: it is used only by the
// version-control layer (C4) to apply an already-versioned change to the
// current block row, after a new BlockVersion has been recorded.
func (s *Store) UpdateBlockAbstractSyntax(b *model.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.UpdateBlockAbstractSyntax", b.ID, err)
	}
	defer tx.Rollback()

	normJSON, err := marshalJSONArray("store.UpdateBlockAbstractSyntax", b.ID, b.AbstractSyntax.NormalizedStructure)
	if err != nil {
		return err
	}
	paramsJSON, err := marshalJSONArray("store.UpdateBlockAbstractSyntax", b.ID, b.Parameters)
	if err != nil {
		return err
	}
	modsJSON, err := marshalJSONArray("store.UpdateBlockAbstractSyntax", b.ID, b.Modifiers)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
UPDATE blocks SET semantic_name = ?, raw_text = ?, normalized_structure_json = ?, parameters_json = ?, return_type = ?, modifiers_json = ?, semantic_signature = ?
WHERE id = ?`, b.SemanticName, b.AbstractSyntax.RawText, normJSON, paramsJSON, b.ReturnType, modsJSON, b.SemanticSignature, b.ID)
	if err != nil {
		return txError("store.UpdateBlockAbstractSyntax", b.ID, err)
	}
	if _, err := tx.Exec("UPDATE block_search SET semantic_name = ?, raw_text = ? WHERE block_id = ?",
		semanticNameOrEmpty(b), b.AbstractSyntax.RawText, b.ID); err != nil {
		return txError("store.UpdateBlockAbstractSyntax", b.ID, err)
	}
	if s.ftsOn {
		if _, err := tx.Exec("UPDATE block_fts SET semantic_name = ?, raw_text = ? WHERE block_id = ?",
			semanticNameOrEmpty(b), b.AbstractSyntax.RawText, b.ID); err != nil {
			return txError("store.UpdateBlockAbstractSyntax", b.ID, err)
		}
	}
	return txError("store.UpdateBlockAbstractSyntax", b.ID, tx.Commit())
}
