package lang

import (
	"github.com/smacker/go-tree-sitter/cpp"
)

// cppTable extends cTable with class_specifier and a base_class_clause for
// inheritance; function naming reuses cLikeProvider's declarator unwrapping
// since C++ nests its declarator the same way C does.
var cppTable = func() NodeTable {
	t := cTable
	t.DeclKinds = map[string]string{
		"function_definition": "Function",
		"struct_specifier":    "Class",
		"enum_specifier":      "Class",
		"class_specifier":     "Class",
	}
	t.BaseField = map[string]string{
		"class_specifier": "base_class_clause",
	}
	return t
}()

func newCppProvider() LanguageProvider {
	p := &cLikeProvider{}
	p.BaseProvider = NewBaseProvider("cpp", []string{".cpp", ".cc", ".cxx", ".hpp"}, cpp.GetLanguage(), cppTable)
	return p
}
