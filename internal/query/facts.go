package query

import (
	"semcore/internal/mangle"
	"semcore/internal/model"
	"semcore/internal/store"
)

// loadFacts converts a migration's blocks and relationships into Mangle
// facts and asserts them into eng. Auto-evaluation is disabled for the
// duration of the bulk load and recomputed once at the end: evaluating the
// pattern catalog's rules after every individual fact insertion would
// re-run the whole rule set once per block instead of once per migration.
func loadFacts(eng *mangle.Engine, containers []*model.Container, blocks []*model.Block, rels []model.BlockRelationship) error {
	eng.ToggleAutoEval(false)

	var facts []mangle.Fact
	for _, c := range containers {
		facts = append(facts, mangle.Fact{Predicate: "container_path", Args: []interface{}{c.ID, c.OriginalPath, c.Language}})
	}
	for _, b := range blocks {
		name := ""
		if b.SemanticName != nil {
			name = *b.SemanticName
		}
		facts = append(facts,
			mangle.Fact{Predicate: "block", Args: []interface{}{b.ID, b.ContainerID, string(b.BlockType), name}},
			mangle.Fact{Predicate: "cyclomatic", Args: []interface{}{b.ID, int64(b.ComplexityMetrics.Cyclomatic)}},
			mangle.Fact{Predicate: "cognitive", Args: []interface{}{b.ID, int64(b.ComplexityMetrics.Cognitive)}},
			mangle.Fact{Predicate: "lines_of_code", Args: []interface{}{b.ID, int64(b.ComplexityMetrics.LinesOfCode)}},
			mangle.Fact{Predicate: "param_count", Args: []interface{}{b.ID, int64(len(b.Parameters))}},
		)
		if b.ParentBlockID != nil {
			facts = append(facts, mangle.Fact{Predicate: "contains", Args: []interface{}{*b.ParentBlockID, b.ID}})
		}
	}
	for _, r := range rels {
		if r.Unresolved {
			continue
		}
		pred := relationshipPredicate(r.RelationshipType)
		if pred == "" {
			continue
		}
		facts = append(facts, mangle.Fact{Predicate: pred, Args: []interface{}{r.SourceBlockID, r.TargetBlockID}})
	}

	if err := eng.AddFacts(facts); err != nil {
		eng.ToggleAutoEval(true)
		return err
	}
	eng.ToggleAutoEval(true)
	return eng.RecomputeRules()
}

func relationshipPredicate(t model.RelationshipType) string {
	switch t {
	case model.RelContains:
		return "" // structural hierarchy is asserted from ParentBlockID directly
	case model.RelCalls:
		return "calls"
	case model.RelImports:
		return "imports"
	case model.RelInherits:
		return "inherits"
	case model.RelImplements:
		return "implements"
	case model.RelUses:
		return "uses"
	case model.RelDependsOn:
		return "depends_on"
	case model.RelTests:
		return "tests"
	default:
		return ""
	}
}

// loadMigration pulls every container/block/relationship of a migration
// from the store and asserts them as facts.
func loadMigration(st *store.Store, eng *mangle.Engine, migrationID string) error {
	containers, err := st.ListContainers(migrationID)
	if err != nil {
		return err
	}
	blocks, err := st.ListBlocksByMigration(migrationID)
	if err != nil {
		return err
	}
	var rels []model.BlockRelationship
	for _, b := range blocks {
		out, err := st.OutboundEdges(b.ID)
		if err != nil {
			return err
		}
		rels = append(rels, out...)
	}
	return loadFacts(eng, containers, blocks, rels)
}
