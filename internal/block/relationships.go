package block

import (
	"strings"

	"semcore/internal/lang"
	"semcore/internal/model"
)

// resolveCalls builds "calls" edges from every Function/Method block to the
// blocks its call expressions resolve to, by bare name within the same
// container. A callee whose name does not match any sibling block still
// produces an edge, marked Unresolved, so cross-container resolution (run
// later by the ingest coordinator once every container is extracted) has a
// placeholder to fill in rather than a dropped fact.
func resolveCalls(provider lang.LanguageProvider, cst *lang.CST, nodes []*node, semanticNames map[string]*model.Block) []model.BlockRelationship {
	var rels []model.BlockRelationship
	for _, n := range nodes {
		if n.block.BlockType != model.BlockFunction && n.block.BlockType != model.BlockMethod {
			continue
		}
		for _, target := range provider.ResolveCallTargets(cst, n.decl.Node) {
			if target.Name == "" {
				continue
			}
			if callee, ok := semanticNames[target.Name]; ok && callee.ID != n.block.ID {
				rels = append(rels, model.BlockRelationship{
					SourceBlockID:    n.block.ID,
					TargetBlockID:    callee.ID,
					RelationshipType: model.RelCalls,
				})
				continue
			}
			rels = append(rels, model.BlockRelationship{
				SourceBlockID:    n.block.ID,
				TargetBlockID:    "unresolved:" + target.Name,
				RelationshipType: model.RelCalls,
				Unresolved:       true,
				Metadata:         map[string]interface{}{"callee_name": target.Name},
			})
		}
	}
	return rels
}

// resolveImports builds "imports" edges from the container's Module root to
// each import path. The target is always a placeholder at this layer:
// resolving an import path to the container it names happens once every
// container in the migration has been extracted, so the edge carries
// Unresolved=true for the ingest coordinator's cross-file pass to settle.
func resolveImports(provider lang.LanguageProvider, cst *lang.CST, root *model.Block) []model.BlockRelationship {
	var rels []model.BlockRelationship
	for _, imp := range provider.EnumerateImports(cst, cst.Root) {
		if imp.Path == "" {
			continue
		}
		rels = append(rels, model.BlockRelationship{
			SourceBlockID:    root.ID,
			TargetBlockID:    "unresolved:" + imp.Path,
			RelationshipType: model.RelImports,
			Unresolved:       true,
			Metadata:         map[string]interface{}{"path": imp.Path},
		})
	}
	return rels
}

// resolveInheritance builds "inherits"/"implements" edges from a class or
// interface declaration's base-type list, matched against sibling blocks by
// name. Classes extend one base: "inherits"; interfaces (and a class's
// interface list, where the grammar cannot tell the two apart at this
// layer) use "implements" since extending an interface is a contract, not a
// shared implementation.
func resolveInheritance(nodes []*node, semanticNames map[string]*model.Block) []model.BlockRelationship {
	var rels []model.BlockRelationship
	for _, n := range nodes {
		if len(n.decl.BaseTypes) == 0 {
			continue
		}
		relType := model.RelInherits
		if n.decl.Kind == "Interface" {
			relType = model.RelImplements
		}
		for _, baseName := range n.decl.BaseTypes {
			if base, ok := semanticNames[baseName]; ok {
				rels = append(rels, model.BlockRelationship{
					SourceBlockID:    n.block.ID,
					TargetBlockID:    base.ID,
					RelationshipType: relType,
				})
				continue
			}
			rels = append(rels, model.BlockRelationship{
				SourceBlockID:    n.block.ID,
				TargetBlockID:    "unresolved:" + baseName,
				RelationshipType: relType,
				Unresolved:       true,
				Metadata:         map[string]interface{}{"base_name": baseName},
			})
		}
	}
	return rels
}

// testNamePredicates is the configurable set of naming conventions that
// mark a Function/Method block as a test of another block, deliberately
// kept as data rather than a single hard-coded convention (a project mixing
// Go's TestXxx with pytest's test_xxx still gets both recognized).
var testNamePredicates = []func(string) (string, bool){
	stripPrefix("Test"),
	stripPrefix("test_"),
	stripSuffix("_test"),
	stripPrefix("should_"),
}

func stripPrefix(prefix string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return name[len(prefix):], true
		}
		return "", false
	}
}

func stripSuffix(suffix string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return name[:len(name)-len(suffix)], true
		}
		return "", false
	}
}

// resolveTests builds "tests" edges from a block whose name matches one of
// testNamePredicates to each function it calls, resolved the same way
// resolveCalls resolves "calls" edges. The naming convention only decides
// whether a block is a test; the edge target is whatever it actually
// calls, not a name derived by stripping the convention's prefix/suffix -
// a test named TestAdditionWithNegativeNumbers that calls Add still
// produces a tests edge to Add.
func resolveTests(provider lang.LanguageProvider, cst *lang.CST, nodes []*node, semanticNames map[string]*model.Block) []model.BlockRelationship {
	var rels []model.BlockRelationship
	for _, n := range nodes {
		if n.block.BlockType != model.BlockFunction && n.block.BlockType != model.BlockMethod {
			continue
		}
		if n.block.SemanticName == nil {
			continue
		}
		name := *n.block.SemanticName
		isTest := false
		for _, predicate := range testNamePredicates {
			if _, ok := predicate(name); ok {
				isTest = true
				break
			}
		}
		if !isTest {
			continue
		}
		for _, target := range provider.ResolveCallTargets(cst, n.decl.Node) {
			if target.Name == "" {
				continue
			}
			callee, ok := semanticNames[target.Name]
			if !ok || callee.ID == n.block.ID {
				continue
			}
			rels = append(rels, model.BlockRelationship{
				SourceBlockID:    n.block.ID,
				TargetBlockID:    callee.ID,
				RelationshipType: model.RelTests,
			})
		}
	}
	return rels
}
