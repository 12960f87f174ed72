package store

import (
	"database/sql"
	"strings"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// SearchHit is one ranked result of SearchBlocks.
type SearchHit struct {
	Block         *model.Block
	ContainerName string
	Rank          float64
}

// SearchBlocks ranks blocks by text relevance of semantic_name+raw_text
// against term, within an optional language/block_type filter. Ordering
// is deterministic: descending rank, then ascending (container.name,
// position). When the store was opened against a build of SQLite with
// fts5 support (Store.ftsOn), the candidate set is narrowed by a real
// fts5 MATCH query against block_fts before ranking; otherwise every
// block of the migration is scanned with LIKE against block_search, the
// portable fallback every build supports.
func (s *Store) SearchBlocks(migrationID, term, language, blockType string, limit int) ([]SearchHit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []SearchHit
	var err error
	if s.ftsOn && term != "" {
		hits, err = s.searchBlocksFTS(migrationID, term, language, blockType)
	} else {
		hits, err = s.searchBlocksScan(migrationID, term, language, blockType)
	}
	if err != nil {
		return nil, false, err
	}

	sortHits(hits)

	truncated := false
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
		truncated = true
	}
	return hits, truncated, nil
}

// searchBlocksFTS narrows the candidate set with a real fts5 MATCH query
// over block_fts, then applies the same rankOf relevance scoring as the
// LIKE fallback so callers see one consistent ordering regardless of
// which build of SQLite they're running against. fts5's default
// tokenizer matches whole tokens, not arbitrary substrings, so this is a
// narrower match than block_search's LIKE scan — the tradeoff of a real
// index over a full-table scan.
func (s *Store) searchBlocksFTS(migrationID, term, language, blockType string) ([]SearchHit, error) {
	query := `
SELECT b.id, b.container_id, b.block_type, b.semantic_name, b.raw_text, b.normalized_structure_json, b.token_sequence_json,
	b.position, b.indent_level, b.parent_block_id, b.position_in_parent, b.depth_level, b.hierarchical_index,
	b.parameters_json, b.return_type, b.modifiers_json, b.decorators_json, b.language_features_json,
	b.cyclomatic_complexity, b.cognitive_complexity, b.lines_of_code, b.scope_info_json, b.semantic_signature,
	b.attached_comments_json, b.source_language, c.name
FROM block_fts
JOIN blocks b ON b.id = block_fts.block_id
JOIN containers c ON c.id = b.container_id
WHERE c.migration_id = ? AND block_fts MATCH ?`
	args := []interface{}{migrationID, ftsMatchQuery(term)}

	if language != "" {
		query += " AND b.source_language = ?"
		args = append(args, language)
	}
	if blockType != "" {
		query += " AND b.block_type = ?"
		args = append(args, blockType)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.searchBlocksFTS", migrationID, err)
	}
	return scanSearchHits(rows, "store.searchBlocksFTS", migrationID, term)
}

// ftsMatchQuery turns a free-text search term into an fts5 MATCH query: a
// quoted phrase with a trailing prefix wildcard, so "caller" matches
// "caller" and "callerFunc" alike. Internal double quotes are escaped per
// fts5 string literal rules.
func ftsMatchQuery(term string) string {
	escaped := strings.ReplaceAll(term, `"`, `""`)
	return `"` + escaped + `"*`
}

// searchBlocksScan is the LIKE-based full-table fallback used when the
// running SQLite build lacks fts5, or when term is empty (an empty fts5
// MATCH pattern is a syntax error, whereas "no filter" is a well-defined
// scan).
func (s *Store) searchBlocksScan(migrationID, term, language, blockType string) ([]SearchHit, error) {
	query := `
SELECT b.id, b.container_id, b.block_type, b.semantic_name, b.raw_text, b.normalized_structure_json, b.token_sequence_json,
	b.position, b.indent_level, b.parent_block_id, b.position_in_parent, b.depth_level, b.hierarchical_index,
	b.parameters_json, b.return_type, b.modifiers_json, b.decorators_json, b.language_features_json,
	b.cyclomatic_complexity, b.cognitive_complexity, b.lines_of_code, b.scope_info_json, b.semantic_signature,
	b.attached_comments_json, b.source_language, c.name
FROM block_search bs
JOIN blocks b ON b.id = bs.block_id
JOIN containers c ON c.id = b.container_id
WHERE c.migration_id = ?`
	args := []interface{}{migrationID}

	if language != "" {
		query += " AND b.source_language = ?"
		args = append(args, language)
	}
	if blockType != "" {
		query += " AND b.block_type = ?"
		args = append(args, blockType)
	}
	if term != "" {
		query += " AND (bs.semantic_name LIKE ? OR bs.raw_text LIKE ?)"
		like := "%" + term + "%"
		args = append(args, like, like)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.searchBlocksScan", migrationID, err)
	}
	return scanSearchHits(rows, "store.searchBlocksScan", migrationID, term)
}

func scanSearchHits(rows *sql.Rows, op, subject, term string) ([]SearchHit, error) {
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var b model.Block
		var blockType, normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON, containerName string
		err := rows.Scan(&b.ID, &b.ContainerID, &blockType, &b.SemanticName, &b.AbstractSyntax.RawText, &normJSON, &tokJSON,
			&b.Position, &b.IndentLevel, &b.ParentBlockID, &b.PositionInParent, &b.DepthLevel, &b.HierarchicalIndex,
			&paramsJSON, &b.ReturnType, &modsJSON, &decoJSON, &featJSON,
			&b.ComplexityMetrics.Cyclomatic, &b.ComplexityMetrics.Cognitive, &b.ComplexityMetrics.LinesOfCode, &scopeJSON, &b.SemanticSignature,
			&commentsJSON, &b.SourceLanguage, &containerName)
		if err != nil {
			return nil, semerrors.New(semerrors.KindStorage, op, subject, err)
		}
		b.BlockType = model.BlockType(blockType)
		if err := decodeBlockJSON(&b, normJSON, tokJSON, paramsJSON, modsJSON, decoJSON, featJSON, scopeJSON, commentsJSON); err != nil {
			return nil, err
		}
		hits = append(hits, SearchHit{Block: &b, ContainerName: containerName, Rank: rankOf(&b, term)})
	}
	return hits, nil
}

// rankOf is a simple relevance score: an exact semantic_name match ranks
// highest, a prefix match next, then a name substring, then a raw-text-only
// match. Deterministic and language-agnostic, favoring a stable ordering
// over a specific scoring model.
func rankOf(b *model.Block, term string) float64 {
	if term == "" {
		return 1
	}
	name := ""
	if b.SemanticName != nil {
		name = *b.SemanticName
	}
	switch {
	case strings.EqualFold(name, term):
		return 4
	case strings.HasPrefix(strings.ToLower(name), strings.ToLower(term)):
		return 3
	case strings.Contains(strings.ToLower(name), strings.ToLower(term)):
		return 2
	default:
		return 1
	}
}

func sortHits(hits []SearchHit) {
	// insertion sort is adequate at query-result scale and keeps the
	// comparator simple to read; result sets are capped by `limit` anyway.
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && less(hits[j], hits[j-1]) {
			hits[j], hits[j-1] = hits[j-1], hits[j]
			j--
		}
	}
}

func less(a, b SearchHit) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	if a.ContainerName != b.ContainerName {
		return a.ContainerName < b.ContainerName
	}
	return a.Block.Position < b.Block.Position
}
