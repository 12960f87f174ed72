// Package lang implements the Grammar Adapters (C1): one LanguageProvider
// per supported language, each wrapping a tree-sitter grammar behind a
// capability set — identify declarations, count decision nodes, resolve
// call targets, enumerate imports — rather than a per-language visitor.
// Node-kind vocabularies are data (NodeTable), so BaseProvider supplies one
// generic, data-driven walk shared by every language; a concrete provider
// only needs to declare its table.
package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Diagnostic is a non-fatal parse issue; grammars are error-tolerant, so a
// malformed file still yields a best-effort tree plus diagnostics.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// CST is a concrete syntax tree: the parsed root node plus the source bytes
// it was built from, since tree-sitter nodes carry byte spans, not text.
type CST struct {
	Language string
	Path     string
	Source   []byte
	Root     *sitter.Node
}

// Text returns the source text spanned by n.
func (c *CST) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.Source)
}

// Close releases the underlying tree-sitter tree.
func (c *CST) Close(tree *sitter.Tree) {
	if tree != nil {
		tree.Close()
	}
}

// Declaration is one declarative unit found by IdentifyDeclarations: a
// function, class, module-level variable, import, etc.
type Declaration struct {
	Node         *sitter.Node
	Kind         string // block.BlockType value, as a string to avoid an import cycle
	Name         string // semantic name; empty for anonymous declarations
	Parameters   []DeclParam
	ReturnType   string
	Modifiers    []string
	BaseTypes    []string // extends/implements targets, class/interface only
	IsExported   bool
}

// DeclParam is one formal parameter of a declaration.
type DeclParam struct {
	Name string
	Type string
}

// Import is one import/use statement found by EnumerateImports.
type Import struct {
	Node   *sitter.Node
	Path   string // the imported module/package path or symbol
	Alias  string
}

// CallTarget is one call expression's callee name, found within a
// declaration's subtree by ResolveCallTargets.
type CallTarget struct {
	Node *sitter.Node
	Name string
}

// LanguageProvider is the fixed interface every grammar adapter implements.
// It supplies a capability set the block extractor (C2) consumes; it never
// builds UniversalBlocks itself, keeping C1 and C2 decoupled per language
// vs. per responsibility.
type LanguageProvider interface {
	// Language returns the short identifier used for the blocks(source_language)
	// index and the file-extension registry.
	Language() string
	// Extensions returns the file extensions (with leading dot) this
	// provider claims, first entry canonical.
	Extensions() []string

	// Parse produces a concrete syntax tree for content. The returned
	// *sitter.Tree owns the node memory backing CST.Root and must be
	// closed by the caller once the CST (and anything pointing into it)
	// is no longer needed.
	Parse(ctx context.Context, path string, content []byte) (*CST, *sitter.Tree, []Diagnostic, error)

	// IdentifyDeclarations walks the subtree rooted at n (typically
	// cst.Root) and returns every declarative node: functions, methods,
	// classes, interfaces, module-level variables/constants, imports.
	IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration

	// CountDecisionNodes returns the cyclomatic contribution (count of
	// decision points) and the cognitive contribution (nesting-weighted)
	// of the subtree rooted at n.
	CountDecisionNodes(n *sitter.Node) (cyclomatic int, cognitive int)

	// ResolveCallTargets returns every call expression's callee name
	// within the subtree rooted at n.
	ResolveCallTargets(cst *CST, n *sitter.Node) []CallTarget

	// EnumerateImports returns the import/use declarations within the
	// subtree rooted at n (typically cst.Root).
	EnumerateImports(cst *CST, n *sitter.Node) []Import
}

// NodeTable is the per-language data a BaseProvider walk consults. Building
// a new language means filling in this table, not writing a new walker.
type NodeTable struct {
	// DeclKinds maps a tree-sitter node type to the block kind it denotes
	// ("Function", "Method", "Class", "Interface", "Variable", "Constant").
	DeclKinds map[string]string
	// NameField is the field name holding a declaration's identifier,
	// keyed by node type; defaults to "name" when absent.
	NameField map[string]string
	// ParamsField is the field name holding a function/method's parameter
	// list node, keyed by node type.
	ParamsField map[string]string
	// ParamNodeKinds are the node types found inside a parameter list
	// that represent one formal parameter.
	ParamNodeKinds map[string]bool
	// ReceiverField names the field holding a method's receiver, for
	// languages that attach methods outside their type body (Go).
	ReceiverField map[string]string
	// BaseField is the field holding a class/interface's parent list
	// node, keyed by node type (e.g. Python "superclasses", TS "heritage_clause").
	BaseField map[string]string
	// ExportNodeKind wraps an exported declaration (JS/TS "export_statement");
	// empty if the language marks export via a modifier keyword instead.
	ExportNodeKind string
	// ExportModifierKinds are modifier/visibility node types that mark a
	// declaration exported (Rust "visibility_modifier" == "pub").
	ExportModifierKinds map[string]bool

	// DecisionKinds maps a node type to its cyclomatic weight (usually 1).
	DecisionKinds map[string]int

	// CallKind is the node type of a call expression.
	CallKind string
	// CallFunctionField is the field holding the callee within CallKind.
	CallFunctionField string

	// ImportKinds are the node types of import/use declarations.
	ImportKinds map[string]bool
	// ImportPathField is the field holding the imported path/module.
	ImportPathField string
}

// BaseProvider implements LanguageProvider generically from a NodeTable and
// a tree-sitter *sitter.Language, so each concrete language is just data
// plus a constructor. Embed it and override individual methods only when a
// language's grammar genuinely needs special-case logic (see rust.go for
// pub-visibility detection, which is not expressible as a field lookup).
type BaseProvider struct {
	lang       string
	extensions []string
	sitterLang *sitter.Language
	table      NodeTable
}

// NewBaseProvider constructs the shared plumbing for a concrete provider.
func NewBaseProvider(lang string, extensions []string, sitterLang *sitter.Language, table NodeTable) BaseProvider {
	return BaseProvider{lang: lang, extensions: extensions, sitterLang: sitterLang, table: table}
}

// providerFromTable returns a LanguageProvider needing no method overrides:
// a *BaseProvider satisfies the interface on its own whenever a language's
// capabilities are fully expressible as NodeTable data.
func providerFromTable(lang string, extensions []string, sitterLang *sitter.Language, table NodeTable) LanguageProvider {
	p := NewBaseProvider(lang, extensions, sitterLang, table)
	return &p
}

func (b *BaseProvider) Language() string     { return b.lang }
func (b *BaseProvider) Extensions() []string { return b.extensions }

func (b *BaseProvider) Parse(ctx context.Context, path string, content []byte) (*CST, *sitter.Tree, []Diagnostic, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(b.sitterLang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lang: %s parse %s: %w", b.lang, path, err)
	}

	root := tree.RootNode()
	var diags []Diagnostic
	collectErrors(root, &diags)

	cst := &CST{Language: b.lang, Path: path, Source: content, Root: root}
	return cst, tree, diags, nil
}

// collectErrors walks the tree recording tree-sitter ERROR/MISSING nodes as
// diagnostics; the tree itself remains usable (error-tolerant parsing).
func collectErrors(n *sitter.Node, diags *[]Diagnostic) {
	if n == nil {
		return
	}
	if n.IsError() || n.IsMissing() {
		pt := n.StartPoint()
		*diags = append(*diags, Diagnostic{
			Line:    int(pt.Row) + 1,
			Column:  int(pt.Column) + 1,
			Message: fmt.Sprintf("unexpected %q", n.Type()),
		})
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		collectErrors(n.Child(i), diags)
	}
}

func (b *BaseProvider) nameField(nodeType string) string {
	if f, ok := b.table.NameField[nodeType]; ok {
		return f
	}
	return "name"
}

func (b *BaseProvider) IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration {
	var decls []Declaration
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		nodeType := node.Type()
		if kind, ok := b.table.DeclKinds[nodeType]; ok {
			decls = append(decls, b.buildDeclaration(cst, node, nodeType, kind))
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return decls
}

func (b *BaseProvider) buildDeclaration(cst *CST, node *sitter.Node, nodeType, kind string) Declaration {
	d := Declaration{Node: node, Kind: kind}

	if nameNode := node.ChildByFieldName(b.nameField(nodeType)); nameNode != nil {
		d.Name = cst.Text(nameNode)
	}

	if pf, ok := b.table.ParamsField[nodeType]; ok {
		if params := node.ChildByFieldName(pf); params != nil {
			d.Parameters = b.extractParams(cst, params)
		}
	}

	if rf, ok := b.table.ReceiverField[nodeType]; ok {
		if recv := node.ChildByFieldName(rf); recv != nil && kind == "Method" {
			d.ReturnType = "" // receiver affects identity, not return type; recorded via Modifiers
			d.Modifiers = append(d.Modifiers, "receiver:"+cst.Text(recv))
		}
	}

	if bf, ok := b.table.BaseField[nodeType]; ok {
		if base := node.ChildByFieldName(bf); base != nil {
			d.BaseTypes = identifierTexts(cst, base)
		}
	}

	if b.table.ExportModifierKinds != nil {
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			c := node.Child(i)
			if c != nil && b.table.ExportModifierKinds[c.Type()] {
				d.IsExported = true
			}
		}
	}
	if b.table.ExportNodeKind != "" && node.Parent() != nil && node.Parent().Type() == b.table.ExportNodeKind {
		d.IsExported = true
	}

	return d
}

func (b *BaseProvider) extractParams(cst *CST, paramsNode *sitter.Node) []DeclParam {
	var params []DeclParam
	count := int(paramsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		c := paramsNode.NamedChild(i)
		if c == nil || !b.table.ParamNodeKinds[c.Type()] {
			continue
		}
		p := DeclParam{}
		if nameNode := c.ChildByFieldName("name"); nameNode != nil {
			p.Name = cst.Text(nameNode)
		} else {
			p.Name = cst.Text(c)
		}
		if typeNode := c.ChildByFieldName("type"); typeNode != nil {
			p.Type = cst.Text(typeNode)
		}
		params = append(params, p)
	}
	return params
}

// identifierTexts returns the text of every identifier-shaped named child
// under n, used to read a class's list of base types/interfaces.
func identifierTexts(cst *CST, n *sitter.Node) []string {
	var out []string
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		text := cst.Text(c)
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

func (b *BaseProvider) CountDecisionNodes(n *sitter.Node) (int, int) {
	cyclomatic, cognitive := 0, 0
	var walk func(*sitter.Node, int)
	walk = func(node *sitter.Node, depth int) {
		if node == nil {
			return
		}
		if weight, ok := b.table.DecisionKinds[node.Type()]; ok {
			cyclomatic += weight
			cognitive += weight * (1 + depth)
			depth++
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i), depth)
		}
	}
	walk(n, 0)
	return cyclomatic, cognitive
}

func (b *BaseProvider) ResolveCallTargets(cst *CST, n *sitter.Node) []CallTarget {
	if b.table.CallKind == "" {
		return nil
	}
	var calls []CallTarget
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Type() == b.table.CallKind {
			if fn := node.ChildByFieldName(b.table.CallFunctionField); fn != nil {
				calls = append(calls, CallTarget{Node: node, Name: lastSegment(cst.Text(fn))})
			}
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return calls
}

// lastSegment strips a member-access prefix ("obj.method" -> "method") so
// call targets compare against a declaration's bare semantic name.
func lastSegment(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' || s[i] == ':' {
			return s[i+1:]
		}
	}
	return s
}

func (b *BaseProvider) EnumerateImports(cst *CST, n *sitter.Node) []Import {
	var imports []Import
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if b.table.ImportKinds[node.Type()] {
			imp := Import{Node: node}
			if pf := b.table.ImportPathField; pf != "" {
				if pathNode := node.ChildByFieldName(pf); pathNode != nil {
					imp.Path = trimQuotes(cst.Text(pathNode))
				}
			}
			if imp.Path == "" {
				imp.Path = trimQuotes(cst.Text(node))
			}
			imports = append(imports, imp)
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return imports
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
