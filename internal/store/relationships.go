package store

import (
	"database/sql"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

func insertRelationship(tx *sql.Tx, r model.BlockRelationship) error {
	metaJSON, err := marshalJSONObject("store.insertRelationship", r.SourceBlockID, r.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
INSERT INTO block_relationships (source_block_id, target_block_id, relationship_type, strength, bidirectional, metadata_json, unresolved)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_block_id, target_block_id, relationship_type) DO NOTHING`,
		r.SourceBlockID, r.TargetBlockID, string(r.RelationshipType), r.Strength, r.Bidirectional, metaJSON, r.Unresolved,
	)
	return txError("store.insertRelationship", r.SourceBlockID, err)
}

// ResolveRelationship replaces an unresolved placeholder edge with a
// concrete target, once the cross-container resolution pass (C6 step 6)
// has matched it to a real block. The composite key changes, so this is a
// delete-then-insert rather than an UPDATE of the primary key.
func (s *Store) ResolveRelationship(sourceBlockID, placeholderTarget string, relType model.RelationshipType, resolvedTargetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return txError("store.ResolveRelationship", sourceBlockID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM block_relationships WHERE source_block_id = ? AND target_block_id = ? AND relationship_type = ?",
		sourceBlockID, placeholderTarget, string(relType),
	); err != nil {
		return txError("store.ResolveRelationship", sourceBlockID, err)
	}
	if _, err := tx.Exec(`
INSERT INTO block_relationships (source_block_id, target_block_id, relationship_type, strength, bidirectional, metadata_json, unresolved)
VALUES (?, ?, ?, 0, 0, '{}', 0)
ON CONFLICT(source_block_id, target_block_id, relationship_type) DO NOTHING`,
		sourceBlockID, resolvedTargetID, string(relType),
	); err != nil {
		return txError("store.ResolveRelationship", sourceBlockID, err)
	}
	return txError("store.ResolveRelationship", sourceBlockID, tx.Commit())
}

// ListUnresolved returns every relationship still carrying a placeholder
// target within a migration, for the resolution pass to iterate over.
func (s *Store) ListUnresolved(migrationID string) ([]model.BlockRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
SELECT r.source_block_id, r.target_block_id, r.relationship_type, r.strength, r.bidirectional, r.metadata_json, r.unresolved
FROM block_relationships r
JOIN blocks b ON b.id = r.source_block_id
JOIN containers c ON c.id = b.container_id
WHERE c.migration_id = ? AND r.unresolved = 1`, migrationID)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.ListUnresolved", migrationID, err)
	}
	defer rows.Close()

	var out []model.BlockRelationship
	for rows.Next() {
		var r model.BlockRelationship
		var relType, metaJSON string
		if err := rows.Scan(&r.SourceBlockID, &r.TargetBlockID, &relType, &r.Strength, &r.Bidirectional, &metaJSON, &r.Unresolved); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.ListUnresolved", migrationID, err)
		}
		r.RelationshipType = model.RelationshipType(relType)
		if err := unmarshalJSON("store.ListUnresolved", r.SourceBlockID, metaJSON, &r.Metadata); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// OutboundEdges returns every relationship whose source is blockID,
// excluding `contains` (structural hierarchy, not a dependency edge) —
// the basis of the efferent coupling count.
func (s *Store) OutboundEdges(blockID string) ([]model.BlockRelationship, error) {
	return s.queryEdges("SELECT source_block_id, target_block_id, relationship_type, strength, bidirectional, metadata_json, unresolved FROM block_relationships WHERE source_block_id = ? AND relationship_type != 'contains'", blockID)
}

// InboundEdges returns every relationship whose target is blockID,
// excluding `contains` — the basis of the afferent coupling count and the
// breaking-change rule's "inbound calls/implements/inherits" check.
func (s *Store) InboundEdges(blockID string) ([]model.BlockRelationship, error) {
	return s.queryEdges("SELECT source_block_id, target_block_id, relationship_type, strength, bidirectional, metadata_json, unresolved FROM block_relationships WHERE target_block_id = ? AND relationship_type != 'contains'", blockID)
}

// EdgesByType returns every relationship of the given type(s) whose source
// is blockID, the primitive the dependency-graph traversal expands one hop
// at a time over {calls, depends_on, imports}.
func (s *Store) EdgesByType(blockID string, types []model.RelationshipType) ([]model.BlockRelationship, error) {
	if len(types) == 0 {
		return nil, nil
	}
	query := "SELECT source_block_id, target_block_id, relationship_type, strength, bidirectional, metadata_json, unresolved FROM block_relationships WHERE source_block_id = ? AND relationship_type IN ("
	args := []interface{}{blockID}
	for i, t := range types {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, string(t))
	}
	query += ")"
	return s.queryEdges(query, args...)
}

func (s *Store) queryEdges(query string, args ...interface{}) ([]model.BlockRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.queryEdges", "", err)
	}
	defer rows.Close()

	var out []model.BlockRelationship
	for rows.Next() {
		var r model.BlockRelationship
		var relType, metaJSON string
		if err := rows.Scan(&r.SourceBlockID, &r.TargetBlockID, &relType, &r.Strength, &r.Bidirectional, &metaJSON, &r.Unresolved); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.queryEdges", "", err)
		}
		r.RelationshipType = model.RelationshipType(relType)
		if err := unmarshalJSON("store.queryEdges", r.SourceBlockID, metaJSON, &r.Metadata); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
