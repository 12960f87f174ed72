package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// cTable covers the subset of C's grammar relevant to block extraction:
// function definitions, struct/enum specifiers and #include directives.
// A function's name sits on the nested function_declarator, not the
// function_definition node itself, so cLikeProvider overrides declaration
// naming; everything else is table-driven.
var cTable = NodeTable{
	DeclKinds: map[string]string{
		"function_definition": "Function",
		"struct_specifier":    "Class",
		"enum_specifier":      "Class",
	},
	DecisionKinds: map[string]int{
		"if_statement":           1,
		"for_statement":          1,
		"while_statement":        1,
		"case_statement":         1,
		"conditional_expression": 1,
	},
	CallKind:          "call_expression",
	CallFunctionField: "function",
	ImportKinds: map[string]bool{
		"preproc_include": true,
	},
	ImportPathField: "path",
}

func newCProvider() LanguageProvider {
	p := &cLikeProvider{}
	p.BaseProvider = NewBaseProvider("c", []string{".c", ".h"}, c.GetLanguage(), cTable)
	return p
}

// cLikeProvider resolves a function_definition's name through its nested
// function_declarator, shared by C and C++ which both nest the declarator
// instead of exposing a direct "name" field on the definition node.
type cLikeProvider struct {
	BaseProvider
}

func (p *cLikeProvider) IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration {
	decls := p.BaseProvider.IdentifyDeclarations(cst, n)
	for i := range decls {
		if decls[i].Kind != "Function" || decls[i].Name != "" || decls[i].Node == nil {
			continue
		}
		if declarator := declaratorNameOf(cst, decls[i].Node); declarator != "" {
			decls[i].Name = declarator
		}
	}
	return decls
}

// declaratorNameOf walks a function_definition's "declarator" subtree to
// find the innermost identifier, unwrapping pointer/function declarators.
func declaratorNameOf(cst *CST, fnDef *sitter.Node) string {
	n := fnDef.ChildByFieldName("declarator")
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier":
			return cst.Text(n)
		default:
			next := n.ChildByFieldName("declarator")
			if next == nil {
				return ""
			}
			n = next
		}
	}
	return ""
}
