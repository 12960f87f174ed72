package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

// pythonTable covers class_definition, function_definition, and
// import_statement/import_from_statement whose module path is a
// dotted_name.
var pythonTable = NodeTable{
	DeclKinds: map[string]string{
		"class_definition":    "Class",
		"function_definition": "Function",
	},
	ParamsField: map[string]string{
		"function_definition": "parameters",
	},
	ParamNodeKinds: map[string]bool{
		"identifier":                true,
		"typed_parameter":           true,
		"default_parameter":         true,
		"typed_default_parameter":   true,
	},
	BaseField: map[string]string{
		"class_definition": "superclasses",
	},
	DecisionKinds: map[string]int{
		"if_statement":        1,
		"elif_clause":         1,
		"for_statement":       1,
		"while_statement":     1,
		"except_clause":       1,
		"conditional_expression": 1,
		"boolean_operator":    1,
	},
	CallKind:          "call",
	CallFunctionField: "function",
	ImportKinds: map[string]bool{
		"import_statement":      true,
		"import_from_statement": true,
	},
}

func newPythonProvider() LanguageProvider {
	return providerFromTable("python", []string{".py"}, python.GetLanguage(), pythonTable)
}
