// Package query implements the Semantic Query Engine (C5): search,
// dependency graph traversal, pattern detection and coupling metrics over
// a migration's blocks and relationships, backed by the Semantic Store
// (C3) and a Mangle fact store (internal/mangle) for the patterns that
// reduce cleanly to Datalog.
package query

import (
	"context"
	"sort"

	semerrors "semcore/internal/errors"
	"semcore/internal/mangle"
	"semcore/internal/model"
	"semcore/internal/store"
)

// Engine answers queries against one migration's ingested graph.
type Engine struct {
	store       *store.Store
	migrationID string
	mangle      *mangle.Engine
	loaded      bool
}

// New constructs a query engine over st, scoped to one migration. The
// Mangle schema and pattern catalog are loaded eagerly; facts are loaded
// lazily on first use via ensureLoaded, so opening an Engine for a
// migration that is still being ingested is cheap.
func New(st *store.Store, migrationID string) (*Engine, error) {
	// Validate the pattern catalog against the core schema before handing
	// either to the live engine: a rule body referencing a predicate
	// neither schema declares nor another rule derives would otherwise
	// just silently never fire, leaving the pattern catalog quietly
	// incomplete. Combined text mirrors exactly what LoadSchemaString
	// below analyzes as one program.
	combined := CoreSchema() + "\n" + PatternRules()
	validator := mangle.NewSchemaValidator(combined, "")
	if err := validator.LoadDeclaredPredicates(); err != nil {
		return nil, semerrors.New(semerrors.KindSemantic, "query.New", migrationID, err)
	}
	if err := validator.ValidateProgram(combined); err != nil {
		return nil, semerrors.Wrapf(semerrors.KindSemantic, "query.New", migrationID, "pattern catalog schema drift: %v", err)
	}

	eng, err := mangle.NewEngine(mangle.DefaultConfig())
	if err != nil {
		return nil, semerrors.New(semerrors.KindSemantic, "query.New", migrationID, err)
	}
	if err := eng.LoadSchemaString(CoreSchema()); err != nil {
		return nil, semerrors.New(semerrors.KindSemantic, "query.New", migrationID, err)
	}
	if err := eng.LoadSchemaString(PatternRules()); err != nil {
		return nil, semerrors.New(semerrors.KindSemantic, "query.New", migrationID, err)
	}
	return &Engine{store: st, migrationID: migrationID, mangle: eng}, nil
}

// Refresh re-reads the migration's current blocks/relationships into the
// fact store, discarding any prior load. Callers hold an Engine across
// several queries against a stable migration snapshot; call Refresh after
// a re-ingest or an incremental update (watch mode, C6) changed it.
func (e *Engine) Refresh() error {
	e.mangle.Clear()
	if err := loadMigration(e.store, e.mangle, e.migrationID); err != nil {
		return err
	}
	e.loaded = true
	return nil
}

func (e *Engine) ensureLoaded() error {
	if e.loaded {
		return nil
	}
	return e.Refresh()
}

// SearchRequest is one semantic-search call.
type SearchRequest struct {
	Term      string
	Language  string
	BlockType string
	Limit     int
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Block         *model.Block
	ContainerName string
}

// Search ranks blocks by relevance of semantic_name/raw_text to req.Term,
// within the optional language/block_type filter. Returns the hits plus
// whether the result set was truncated by req.Limit.
func (e *Engine) Search(req SearchRequest) ([]SearchResult, bool, error) {
	hits, truncated, err := e.store.SearchBlocks(e.migrationID, req.Term, req.Language, req.BlockType, req.Limit)
	if err != nil {
		return nil, false, err
	}
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{Block: h.Block, ContainerName: h.ContainerName}
	}
	return out, truncated, nil
}

// FindPattern evaluates one named pattern from the catalog and returns
// the matching block ids, sorted for determinism.
func (e *Engine) FindPattern(ctx context.Context, name string) ([]string, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}
	switch name {
	case "complex_function", "long_method", "many_parameters", "untested_function":
		return e.mangleIDs(name)
	case "duplicate_name":
		return e.duplicateName()
	case "circular_dependency":
		return e.circularDependency()
	case "sql_in_loop", "hardcoded_secret", "unsafe_execution", "sync_io_in_async_context":
		return e.textHeuristic(name)
	default:
		return nil, semerrors.Wrapf(semerrors.KindInput, "query.FindPattern", name, "unknown pattern %q", name)
	}
}

func (e *Engine) mangleIDs(predicate string) ([]string, error) {
	facts, err := e.mangle.GetFacts(predicate)
	if err != nil {
		return nil, semerrors.New(semerrors.KindSemantic, "query.FindPattern", predicate, err)
	}
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if len(f.Args) == 0 {
			continue
		}
		if id, ok := f.Args[0].(string); ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return dedupe(out), nil
}

// HasInboundBreakingEdge reports whether blockID is the target of any
// calls/implements/inherits fact in the loaded migration — the inbound-edge
// half of the breaking-change rule, evaluated against the same fact store
// FindPattern uses rather than a direct store query. It backs
// internal/version's IsBreakingViaEngine, for a caller that already holds
// a live Engine; CommitBlockChange queries the store directly instead, since constructing an Engine
// (schema load plus a full fact reload) is wasted work for a single version
// commit.
func (e *Engine) HasInboundBreakingEdge(blockID string) (bool, error) {
	if err := e.ensureLoaded(); err != nil {
		return false, err
	}
	for _, predicate := range []string{"calls", "implements", "inherits"} {
		facts, err := e.mangle.GetFacts(predicate)
		if err != nil {
			return false, semerrors.New(semerrors.KindSemantic, "query.HasInboundBreakingEdge", blockID, err)
		}
		for _, f := range facts {
			if len(f.Args) < 2 {
				continue
			}
			if target, ok := f.Args[1].(string); ok && target == blockID {
				return true, nil
			}
		}
	}
	return false, nil
}

func dedupe(ids []string) []string {
	out := ids[:0]
	var prev string
	for i, id := range ids {
		if i == 0 || id != prev {
			out = append(out, id)
		}
		prev = id
	}
	return out
}
