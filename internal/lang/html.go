package lang

import (
	"github.com/smacker/go-tree-sitter/html"
)

// htmlTable treats every element, nested ones included, as a Statement
// block; HTML has no notion of functions, calls, or imports of its own.
// Inline script/style contents are not handed to the JavaScript or CSS
// providers: they stay part of their element's raw text.
var htmlTable = NodeTable{
	DeclKinds: map[string]string{
		"element": "Statement",
	},
}

func newHTMLProvider() LanguageProvider {
	return providerFromTable("html", []string{".html", ".htm"}, html.GetLanguage(), htmlTable)
}
