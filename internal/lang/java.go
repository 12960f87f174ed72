package lang

import (
	"github.com/smacker/go-tree-sitter/java"
)

// javaTable follows the same shape as the Go/JS tables above.
var javaTable = NodeTable{
	DeclKinds: map[string]string{
		"class_declaration":     "Class",
		"interface_declaration": "Interface",
		"method_declaration":    "Method",
		"constructor_declaration": "Method",
		"field_declaration":     "Variable",
	},
	ParamsField: map[string]string{
		"method_declaration":      "parameters",
		"constructor_declaration": "parameters",
	},
	ParamNodeKinds: map[string]bool{
		"formal_parameter":   true,
		"spread_parameter":   true,
	},
	BaseField: map[string]string{
		"class_declaration":     "superclass",
		"interface_declaration": "interfaces",
	},
	DecisionKinds: map[string]int{
		"if_statement":       1,
		"for_statement":      1,
		"while_statement":    1,
		"switch_label":       1,
		"catch_clause":       1,
		"ternary_expression": 1,
	},
	CallKind:          "method_invocation",
	CallFunctionField: "name",
	ImportKinds: map[string]bool{
		"import_declaration": true,
	},
}

func newJavaProvider() LanguageProvider {
	return providerFromTable("java", []string{".java"}, java.GetLanguage(), javaTable)
}
