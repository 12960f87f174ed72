package query

import (
	"regexp"
	"sort"
	"strings"

	"semcore/internal/model"
)

// duplicateName groups every block of the migration by semantic_name and
// reports the ids of any block whose name is shared by at least one other
// block. Expressed in Go rather than Mangle: a clean rule needs a
// same-name, different-id self-join (B != B2), and nothing in the
// retrieved corpus demonstrates an inequality built-in against this
// engine build to ground that on.
func (e *Engine) duplicateName() ([]string, error) {
	blocks, err := e.store.ListBlocksByMigration(e.migrationID)
	if err != nil {
		return nil, err
	}
	byName := map[string][]string{}
	for _, b := range blocks {
		if b.SemanticName == nil || *b.SemanticName == "" {
			continue
		}
		byName[*b.SemanticName] = append(byName[*b.SemanticName], b.ID)
	}
	var out []string
	for _, ids := range byName {
		if len(ids) > 1 {
			out = append(out, ids...)
		}
	}
	sort.Strings(out)
	return out, nil
}

// circularDependency walks the calls|depends_on|imports graph from every
// block and reports the ids that sit on a cycle. Computed as a direct
// graph traversal over the store rather than a recursive Mangle rule, for
// the same reason as duplicateName: no grounding source in the corpus
// shows a recursive rule compiling against this engine build, and a
// bounded DFS is simpler to reason about without the ability to compile
// and run it.
func (e *Engine) circularDependency() ([]string, error) {
	blocks, err := e.store.ListBlocksByMigration(e.migrationID)
	if err != nil {
		return nil, err
	}
	types := []model.RelationshipType{model.RelCalls, model.RelDependsOn, model.RelImports}

	onCycle := map[string]bool{}
	for _, b := range blocks {
		visited := map[string]int{} // 0=unseen, 1=in-progress, 2=done
		if err := e.dfsCycle(b.ID, types, visited, onCycle); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(onCycle))
	for id := range onCycle {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (e *Engine) dfsCycle(id string, types []model.RelationshipType, visited map[string]int, onCycle map[string]bool) error {
	if visited[id] == 2 {
		return nil
	}
	if visited[id] == 1 {
		onCycle[id] = true
		return nil
	}
	visited[id] = 1
	edges, err := e.store.EdgesByType(id, types)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if visited[edge.TargetBlockID] == 1 {
			onCycle[id] = true
			onCycle[edge.TargetBlockID] = true
			continue
		}
		if err := e.dfsCycle(edge.TargetBlockID, types, visited, onCycle); err != nil {
			return err
		}
	}
	visited[id] = 2
	return nil
}

// textHeuristics are the raw-text patterns of the catalog that don't
// reduce to structural facts: each is a compiled regex matched
// against a block's raw text. sql_in_loop is not in this map: it matches a
// block whose own raw text contains both a loop keyword and an SQL
// statement, without checking that the SQL sits inside the loop.
var textHeuristics = map[string]*regexp.Regexp{
	"hardcoded_secret":          regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*["'][A-Za-z0-9+/_\-]{8,}["']`),
	"unsafe_execution":          regexp.MustCompile(`(?i)\b(eval|exec|os\.system|subprocess\.call|child_process\.exec|Runtime\.exec|unsafe\.Pointer)\s*\(`),
	"sync_io_in_async_context":  regexp.MustCompile(`(?i)\b(readFileSync|writeFileSync|execSync|requests\.get|http\.Get)\s*\(`),
}

var loopKeyword = regexp.MustCompile(`(?i)\b(for|while|foreach)\b`)
var sqlKeyword = regexp.MustCompile(`(?i)\b(select|insert|update|delete)\b.*\bfrom\b|\bexecute\s*\(`)

func (e *Engine) textHeuristic(name string) ([]string, error) {
	blocks, err := e.store.ListBlocksByMigration(e.migrationID)
	if err != nil {
		return nil, err
	}

	var out []string
	if name == "sync_io_in_async_context" {
		re := textHeuristics[name]
		for _, b := range blocks {
			if containsAsyncModifier(b) && re.MatchString(b.AbstractSyntax.RawText) {
				out = append(out, b.ID)
			}
		}
		sort.Strings(out)
		return out, nil
	}
	if name == "sql_in_loop" {
		for _, b := range blocks {
			if loopKeyword.MatchString(b.AbstractSyntax.RawText) && sqlKeyword.MatchString(b.AbstractSyntax.RawText) {
				out = append(out, b.ID)
			}
		}
		sort.Strings(out)
		return out, nil
	}

	re, ok := textHeuristics[name]
	if !ok {
		return nil, nil
	}
	for _, b := range blocks {
		if re.MatchString(b.AbstractSyntax.RawText) {
			out = append(out, b.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func containsAsyncModifier(b *model.Block) bool {
	for _, m := range b.Modifiers {
		if strings.EqualFold(m, "async") {
			return true
		}
	}
	return false
}
