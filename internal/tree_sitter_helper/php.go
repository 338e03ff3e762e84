package treesitterhelper

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	// PHPNestedScopePattern matches nodes that open their own function scope
	PHPNestedScopePattern = AnyNodeKind(
		"function_definition",
		"method_declaration",
		"anonymous_function",
		"anonymous_function_creation_expression",
		"arrow_function",
		"class_declaration",
		"anonymous_class",
		"interface_declaration",
		"trait_declaration",
		"enum_declaration",
	)

	// PHPAnonymousClassPattern matches `new class {}`, depending on the grammar version
	// the class body hangs off an anonymous_class node or the creation expression itself
	PHPAnonymousClassPattern = Or(
		NodeKind("anonymous_class"),
		NodeKind("anonymous_class_creation_expression"),
		And(
			NodeKind("object_creation_expression"),
			HasChild(NodeKind("declaration_list")),
		),
	)

	// PHPUseGroupPattern matches `use Prefix\{A, B}` declarations
	PHPUseGroupPattern = And(
		NodeKind("namespace_use_declaration"),
		HasChildOfKind("namespace_use_group"),
	)
)

// PHPFunctionCallPattern matches a call to any of the given functions. Names are compared
// case-insensitively and namespace qualifiers are ignored, PHP falls back to the global
// function when no namespaced one exists.
func PHPFunctionCallPattern(names ...string) Pattern {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[PHPShortFunctionName(name)] = struct{}{}
	}

	return And(
		NodeKind("function_call_expression"),
		FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			function := node.ChildByFieldName("function")
			if function == nil || (function.Kind() != "name" && function.Kind() != "qualified_name") {
				return false
			}
			_, ok := wanted[PHPShortFunctionName(string(function.Utf8Text(content)))]
			return ok
		}),
	)
}

// PHPShortFunctionName lowercases a function name and strips its namespace
func PHPShortFunctionName(name string) string {
	name = strings.TrimPrefix(name, "\\")
	if idx := strings.LastIndex(name, "\\"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

// PHPUseType is "function" or "const" for use declarations and clauses importing
// functions or constants and empty for class imports
func PHPUseType(node *tree_sitter.Node, content []byte) string {
	if typ := node.ChildByFieldName("type"); typ != nil {
		if kind := useType(typ.Utf8Text(content)); kind != "" {
			return kind
		}
	}

	// the keyword is a hidden token, only the text in front of the first named child shows it
	end := node.EndByte()
	if first := node.NamedChild(0); first != nil {
		end = first.StartByte()
	}
	for _, word := range strings.Fields(string(content[node.StartByte():end])) {
		if kind := useType(word); kind != "" {
			return kind
		}
	}
	return ""
}

func useType(word string) string {
	switch word = strings.ToLower(strings.TrimSpace(word)); word {
	case "function", "const":
		return word
	}
	return ""
}
