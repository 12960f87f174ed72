// Package block implements the Block Extractor (C2): given a language
// provider's capability set (internal/lang) and a parsed file, it produces
// the ordered UniversalBlock list, the BlockRelationship edges, per-block
// complexity metrics and fingerprints that make up one Container's
// contribution to the semantic graph.
package block

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"semcore/internal/lang"
	"semcore/internal/model"
)

// Result is everything C2 produces for one container.
type Result struct {
	Blocks        []*model.Block
	Relationships []model.BlockRelationship
	Diagnostics   []lang.Diagnostic
}

// node pairs a Declaration with the Block being built for it, so the
// hierarchy pass can look parents up by tree-sitter node identity.
type node struct {
	decl  lang.Declaration
	block *model.Block
}

// Extract walks content with provider and returns the full Result for one
// container. idFn generates opaque block ids; tests can supply a
// deterministic sequence, production uses uuid.
func Extract(ctx context.Context, provider lang.LanguageProvider, containerID, path string, content []byte, idFn func() string) (*Result, error) {
	cst, tree, diags, err := provider.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	defer cst.Close(tree)

	root := &model.Block{
		ID:             idFn(),
		ContainerID:    containerID,
		BlockType:      model.BlockModule,
		Position:       0,
		DepthLevel:     0,
		SourceLanguage: provider.Language(),
		AbstractSyntax: model.AbstractSyntax{RawText: string(content)},
	}
	root.AbstractSyntax.NormalizedStructure = normalizedStructure(cst.Root)
	root.SemanticSignature = string(root.BlockType)

	decls := provider.IdentifyDeclarations(cst, cst.Root)
	nodes := make([]*node, 0, len(decls))
	for _, d := range decls {
		b := declToBlock(cst, provider, d, containerID, idFn())
		nodes = append(nodes, &node{decl: d, block: b})
	}

	// Source order: byte start ascending, ties broken by the declaration's
	// index (stable) since two declarations cannot share a start byte.
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].decl.Node.StartByte() < nodes[j].decl.Node.StartByte()
	})

	assignHierarchy(root, nodes)

	rels := []model.BlockRelationship{}
	blocks := []*model.Block{root}
	childrenByParent := make(map[string]int) // parent id -> next position_in_parent

	for i, n := range nodes {
		b := n.block
		b.HierarchicalIndex = i + 1
		blocks = append(blocks, b)

		parentID := root.ID
		if b.ParentBlockID != nil {
			parentID = *b.ParentBlockID
		}
		b.PositionInParent = childrenByParent[parentID]
		childrenByParent[parentID]++

		rels = append(rels, model.BlockRelationship{
			SourceBlockID:    parentID,
			TargetBlockID:    b.ID,
			RelationshipType: model.RelContains,
		})

		if b.BlockType == model.BlockFunction || b.BlockType == model.BlockMethod {
			cyclomatic, cognitive := provider.CountDecisionNodes(n.decl.Node)
			b.ComplexityMetrics = model.ComplexityMetrics{
				Cyclomatic:  cyclomatic + 1,
				Cognitive:   cognitive,
				LinesOfCode: countLOC(cst.Text(n.decl.Node)),
			}
		}
	}

	semanticNames := indexBySemanticName(blocks)
	rels = append(rels, resolveCalls(provider, cst, nodes, semanticNames)...)
	rels = append(rels, resolveImports(provider, cst, root)...)
	rels = append(rels, resolveInheritance(nodes, semanticNames)...)
	rels = append(rels, resolveTests(provider, cst, nodes, semanticNames)...)

	for _, b := range blocks {
		b.SemanticSignature = computeSignature(b)
	}

	return &Result{Blocks: blocks, Relationships: rels, Diagnostics: diags}, nil
}

func declToBlock(cst *lang.CST, provider lang.LanguageProvider, d lang.Declaration, containerID, id string) *model.Block {
	b := &model.Block{
		ID:             id,
		ContainerID:    containerID,
		BlockType:      blockTypeOf(d.Kind),
		Position:       int(d.Node.StartByte()),
		SourceLanguage: provider.Language(),
		ReturnType:     d.ReturnType,
		Modifiers:      d.Modifiers,
	}
	if d.Name != "" {
		name := d.Name
		b.SemanticName = &name
	}
	for _, p := range d.Parameters {
		b.Parameters = append(b.Parameters, model.Parameter{Name: p.Name, Type: p.Type})
	}
	b.AbstractSyntax = model.AbstractSyntax{
		RawText:             cst.Text(d.Node),
		NormalizedStructure: normalizedStructure(d.Node),
	}
	if d.IsExported {
		b.Modifiers = append(b.Modifiers, "exported")
	}
	if len(d.BaseTypes) > 0 {
		b.LanguageFeatures = map[string]interface{}{"base_types": d.BaseTypes}
	}
	if b.BlockType == model.BlockOther {
		if b.LanguageFeatures == nil {
			b.LanguageFeatures = map[string]interface{}{}
		}
		b.LanguageFeatures["node_type"] = d.Node.Type()
	}
	return b
}

func blockTypeOf(kind string) model.BlockType {
	switch kind {
	case "Function":
		return model.BlockFunction
	case "Method":
		return model.BlockMethod
	case "Class":
		return model.BlockClass
	case "Interface":
		return model.BlockInterface
	case "Module":
		return model.BlockModule
	case "Import":
		return model.BlockImport
	case "Export":
		return model.BlockExport
	case "Variable":
		return model.BlockVariable
	case "Constant":
		return model.BlockConstant
	case "Statement":
		return model.BlockStatement
	default:
		return model.BlockOther
	}
}

// assignHierarchy sets ParentBlockID/DepthLevel for every node by finding,
// for each declaration, the nearest other declaration whose tree-sitter
// node strictly contains it; falls back to root.
func assignHierarchy(root *model.Block, nodes []*node) {
	for _, n := range nodes {
		var parent *node
		for _, candidate := range nodes {
			if candidate == n {
				continue
			}
			if contains(candidate.decl.Node, n.decl.Node) {
				if parent == nil || contains(parent.decl.Node, candidate.decl.Node) {
					parent = candidate
				}
			}
		}
		if parent != nil {
			n.block.ParentBlockID = &parent.block.ID
			n.block.DepthLevel = parent.block.DepthLevel + 1
		} else {
			n.block.ParentBlockID = &root.ID
			n.block.DepthLevel = 1
		}
	}
}

func contains(outer, inner *sitter.Node) bool {
	if outer == inner {
		return false
	}
	return outer.StartByte() <= inner.StartByte() && outer.EndByte() >= inner.EndByte()
}

func indexBySemanticName(blocks []*model.Block) map[string]*model.Block {
	idx := make(map[string]*model.Block)
	for _, b := range blocks {
		if b.SemanticName != nil {
			// First declaration wins; duplicate_name detection (C5) flags
			// the rest rather than silently overwriting them here.
			if _, exists := idx[*b.SemanticName]; !exists {
				idx[*b.SemanticName] = b
			}
		}
	}
	return idx
}

// normalizedStructure is the language-agnostic shape of n's subtree: the
// sequence of descendant node kinds with identifiers and literals erased.
// This is the stable canonical form chosen so whitespace/comment-only
// edits never change it: tree-sitter node kinds do not change under
// reformatting, only byte spans do.
func normalizedStructure(n *sitter.Node) []string {
	var kinds []string
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		t := node.Type()
		if !isErasedKind(t) {
			kinds = append(kinds, t)
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return kinds
}

func isErasedKind(nodeType string) bool {
	for _, substr := range []string{"identifier", "literal", "comment", "string", "number"} {
		if strings.Contains(nodeType, substr) {
			return true
		}
	}
	return false
}

func countLOC(text string) int {
	lines := strings.Split(text, "\n")
	count := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			count++
		}
	}
	return count
}

func computeSignature(b *model.Block) string {
	name := ""
	if b.SemanticName != nil {
		name = *b.SemanticName
	}
	parts := make([]string, len(b.Parameters))
	for i, p := range b.Parameters {
		parts[i] = p.Type
	}
	return fmt.Sprintf("%s(%s) -> %s", name, strings.Join(parts, ","), b.ReturnType)
}
