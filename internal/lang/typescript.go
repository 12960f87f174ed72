package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// tsTable extends jsTable with interface_declaration, the one construct the
// teacher's extractTSSymbols adds on top of JavaScript's vocabulary.
var tsTable = func() NodeTable {
	t := jsTable
	t.DeclKinds = map[string]string{
		"class_declaration":     "Class",
		"function_declaration":  "Function",
		"interface_declaration": "Interface",
	}
	t.BaseField = map[string]string{
		"class_declaration": "superclass",
	}
	return t
}()

func newTypeScriptProvider() LanguageProvider {
	p := &exportAwareProvider{}
	p.BaseProvider = NewBaseProvider("typescript", []string{".ts", ".tsx"}, typescript.GetLanguage(), tsTable)
	return p
}
