package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// jsTable covers class_declaration, function_declaration and
// import_statement. variable_declarator nodes (a Function when the value
// is an arrow_function/function, a Variable otherwise) and export
// detection, which checks the parent node, are handled by
// exportAwareProvider below (a field lookup alone cannot see a node's
// parent).
var jsTable = NodeTable{
	DeclKinds: map[string]string{
		"class_declaration":    "Class",
		"function_declaration": "Function",
	},
	ParamsField: map[string]string{
		"function_declaration": "parameters",
	},
	ParamNodeKinds: map[string]bool{
		"identifier":           true,
		"assignment_pattern":   true,
		"rest_pattern":         true,
		"object_pattern":       true,
		"array_pattern":        true,
	},
	BaseField: map[string]string{
		"class_declaration": "superclass",
	},
	DecisionKinds: map[string]int{
		"if_statement":          1,
		"for_statement":         1,
		"for_in_statement":      1,
		"while_statement":       1,
		"switch_case":           1,
		"ternary_expression":    1,
		"catch_clause":          1,
	},
	CallKind:          "call_expression",
	CallFunctionField: "function",
	ImportKinds: map[string]bool{
		"import_statement": true,
	},
}

func newJavaScriptProvider() LanguageProvider {
	p := &exportAwareProvider{}
	p.BaseProvider = NewBaseProvider("javascript", []string{".js", ".jsx", ".mjs"}, javascript.GetLanguage(), jsTable)
	return p
}

// exportAwareProvider adds lexical_declaration/variable_declarator handling
// and "wrapped in export_statement" visibility, shared by JS and TS: a
// variable_declarator's function-valued initializer (arrow or plain
// function) is itself a declaration, which a flat DeclKinds table cannot
// express since the declarator node type is generic.
type exportAwareProvider struct {
	BaseProvider
}

func (p *exportAwareProvider) IdentifyDeclarations(cst *CST, n *sitter.Node) []Declaration {
	decls := p.BaseProvider.IdentifyDeclarations(cst, n)
	for i := range decls {
		if decls[i].Node != nil && decls[i].Node.Parent() != nil && decls[i].Node.Parent().Type() == "export_statement" {
			decls[i].IsExported = true
		}
	}
	decls = append(decls, p.functionValuedDeclarators(cst, n)...)
	return decls
}

func (p *exportAwareProvider) functionValuedDeclarators(cst *CST, n *sitter.Node) []Declaration {
	var decls []Declaration
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Type() == "variable_declarator" {
			nameNode := node.ChildByFieldName("name")
			valueNode := node.ChildByFieldName("value")
			if nameNode != nil && valueNode != nil {
				switch valueNode.Type() {
				case "arrow_function", "function", "function_expression":
					d := Declaration{Node: node, Kind: "Function", Name: cst.Text(nameNode)}
					if params := valueNode.ChildByFieldName("parameters"); params != nil {
						d.Parameters = p.extractParams(cst, params)
					}
					if decl := node.Parent(); decl != nil && decl.Parent() != nil && decl.Parent().Type() == "export_statement" {
						d.IsExported = true
					}
					decls = append(decls, d)
				default:
					decls = append(decls, Declaration{Node: node, Kind: "Variable", Name: cst.Text(nameNode)})
				}
			}
		}
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(n)
	return decls
}
