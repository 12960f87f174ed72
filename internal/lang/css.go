package lang

import (
	"github.com/smacker/go-tree-sitter/css"
)

// cssTable treats a rule_set as a Statement block and an at_rule as
// Module-level grouping; no other at-rule node kind is mapped. CSS has no
// control flow or calls, so
// DecisionKinds/CallKind are left empty.
var cssTable = NodeTable{
	DeclKinds: map[string]string{
		"rule_set": "Statement",
		"at_rule":  "Module",
	},
	ImportKinds: map[string]bool{
		"import_statement": true,
	},
}

func newCSSProvider() LanguageProvider {
	return providerFromTable("css", []string{".css"}, css.GetLanguage(), cssTable)
}
