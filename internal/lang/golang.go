package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// goTable covers function_declaration, method_declaration with a receiver
// field, type_declaration -> type_spec -> struct_type/interface_type, and
// import_declaration -> import_spec.
var goTable = NodeTable{
	DeclKinds: map[string]string{
		"function_declaration":  "Function",
		"method_declaration":    "Method",
		"type_spec":             "Class", // struct_type bodies; interface_type below
		"const_spec":            "Constant",
		"var_spec":              "Variable",
	},
	NameField: map[string]string{},
	ParamsField: map[string]string{
		"function_declaration": "parameters",
		"method_declaration":   "parameters",
	},
	ParamNodeKinds: map[string]bool{
		"parameter_declaration": true,
	},
	ReceiverField: map[string]string{
		"method_declaration": "receiver",
	},
	ExportModifierKinds: nil, // Go export is lexical (leading capital), not a node kind
	DecisionKinds: map[string]int{
		"if_statement":            1,
		"for_statement":           1,
		"expression_case":         1,
		"default_case":            0,
		"communication_case":      1,
		"type_case":               1,
		"binary_expression":       0, // && / || operators are not counted as decisions
	},
	CallKind:          "call_expression",
	CallFunctionField: "function",
	ImportKinds: map[string]bool{
		"import_spec": true,
	},
	ImportPathField: "path",
}

func newGoProvider() LanguageProvider {
	p := &goProvider{}
	p.BaseProvider = NewBaseProvider("go", []string{".go"}, golang.GetLanguage(), goTable)
	return p
}

// goProvider overrides IsExported-equivalent logic: Go has no export node
// or modifier, only a leading-capital-letter convention on the identifier.
type goProvider struct {
	BaseProvider
}

func (p *goProvider) IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration {
	decls := p.BaseProvider.IdentifyDeclarations(cst, n)
	for i := range decls {
		decls[i].IsExported = isCapitalized(decls[i].Name)
		if decls[i].Kind == "Class" && decls[i].Node != nil {
			if typeNode := decls[i].Node.ChildByFieldName("type"); typeNode != nil && typeNode.Type() == "interface_type" {
				decls[i].Kind = "Interface"
			}
		}
	}
	return decls
}

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
