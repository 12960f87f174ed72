package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// rustTable covers function_item, struct_item, enum_item, mod_item, and
// use_declaration. Visibility is a sibling "visibility_modifier" child
// rather than a wrapping node, handled by rustProvider since that
// requires scanning siblings, not fields.
var rustTable = NodeTable{
	DeclKinds: map[string]string{
		"function_item": "Function",
		"struct_item":   "Class",
		"enum_item":     "Class",
		"mod_item":      "Module",
	},
	ParamsField: map[string]string{
		"function_item": "parameters",
	},
	ParamNodeKinds: map[string]bool{
		"parameter":      true,
		"self_parameter": true,
	},
	DecisionKinds: map[string]int{
		"if_expression":         1,
		"if_let_expression":     1,
		"match_arm":             1,
		"while_expression":      1,
		"loop_expression":       1,
		"for_expression":        1,
	},
	CallKind:          "call_expression",
	CallFunctionField: "function",
	ImportKinds: map[string]bool{
		"use_declaration": true,
	},
}

func newRustProvider() LanguageProvider {
	p := &rustProvider{}
	p.BaseProvider = NewBaseProvider("rust", []string{".rs"}, rust.GetLanguage(), rustTable)
	return p
}

type rustProvider struct {
	BaseProvider
}

// hasPubVisibility scans node's immediate children for a
// visibility_modifier.
func hasPubVisibility(n *sitter.Node) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil && c.Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func (p *rustProvider) IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration {
	decls := p.BaseProvider.IdentifyDeclarations(cst, n)
	for i := range decls {
		if decls[i].Node != nil {
			decls[i].IsExported = hasPubVisibility(decls[i].Node)
		}
	}
	return decls
}
