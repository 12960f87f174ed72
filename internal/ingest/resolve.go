package ingest

import (
	"path/filepath"
	"sort"
	"strings"

	"semcore/internal/model"
	"semcore/internal/store"
)

// resolveUnresolved is step 6 of the C6 pipeline: link every placeholder
// calls/imports/inherits/implements edge staged during per-file extraction
// to a concrete block id now that every container in the migration has
// been committed, by matching semantic_name against an exported block in
// a dependent container. It runs once, after all per-container commits,
// never mutating a relationship that resolved cleanly within its own
// container.
func (c *Coordinator) resolveUnresolved(migrationID string) (int, error) {
	unresolved, err := c.store.ListUnresolved(migrationID)
	if err != nil {
		return 0, err
	}
	if len(unresolved) == 0 {
		return 0, nil
	}

	containers, err := c.store.ListContainers(migrationID)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, r := range unresolved {
		var targetID string
		if r.RelationshipType == model.RelImports {
			targetID = resolveImportTarget(c.store, containers, r)
		} else {
			targetID = resolveByName(c.store, migrationID, r)
		}
		if targetID == "" {
			continue
		}
		if err := c.store.ResolveRelationship(r.SourceBlockID, r.TargetBlockID, r.RelationshipType, targetID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// resolveByName settles a calls/inherits/implements placeholder by matching
// its recorded callee/base name against the blocks sharing that
// semantic_name across the migration, in block id order: the first
// exported candidate wins, otherwise the first non-exported one. Only the
// referring block itself is excluded; candidates in its own container are
// not skipped.
func resolveByName(st *store.Store, migrationID string, r model.BlockRelationship) string {
	name, _ := r.Metadata["callee_name"].(string)
	if name == "" {
		name, _ = r.Metadata["base_name"].(string)
	}
	if name == "" {
		return ""
	}

	candidates, err := st.FindBySemanticName(migrationID, name)
	if err != nil {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	var fallback string
	for _, cand := range candidates {
		if cand.ID == r.SourceBlockID {
			continue
		}
		if isExported(cand) {
			return cand.ID
		}
		if fallback == "" {
			fallback = cand.ID
		}
	}
	return fallback
}

func isExported(b *model.Block) bool {
	for _, m := range b.Modifiers {
		if m == "exported" {
			return true
		}
	}
	return false
}

// resolveImportTarget settles an import placeholder by matching the
// imported path's final segment against a sibling container's path, then
// returning that container's root Module block - the one stable anchor
// every container has regardless of language.
func resolveImportTarget(st *store.Store, containers []*model.Container, r model.BlockRelationship) string {
	path, _ := r.Metadata["path"].(string)
	if path == "" {
		return ""
	}
	base := importBaseName(path)

	var match *model.Container
	for _, cont := range containers {
		if importBaseName(cont.OriginalPath) == base {
			match = cont
			break
		}
	}
	if match == nil {
		return ""
	}

	blocks, err := st.ListBlocksByContainer(match.ID)
	if err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.BlockType == model.BlockModule {
			return b.ID
		}
	}
	return ""
}

func importBaseName(p string) string {
	p = strings.TrimSuffix(p, filepath.Ext(p))
	idx := strings.LastIndexAny(p, "/\\")
	if idx >= 0 {
		return p[idx+1:]
	}
	return p
}
