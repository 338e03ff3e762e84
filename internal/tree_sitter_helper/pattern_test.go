package treesitterhelper

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

func parsePHP(t *testing.T, code []byte) *tree_sitter.Tree {
	t.Helper()

	parser := tree_sitter.NewParser()
	t.Cleanup(parser.Close)
	require.NoError(t, parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())))

	tree := parser.Parse(code, nil)
	t.Cleanup(tree.Close)
	return tree
}

func TestPHPFunctionCallPattern(t *testing.T) {
	code := []byte(`<?php
	foo();
	\Bar\func_get_args();
	FUNC_NUM_ARGS();
	$object->func_get_args();
	`)
	tree := parsePHP(t, code)

	matches := FindAll(tree.RootNode(), PHPFunctionCallPattern("func_get_args", "func_num_args"), code)
	require.Len(t, matches, 2)
	assert.Equal(t, `\Bar\func_get_args()`, matches[0].Utf8Text(code))
	assert.Equal(t, `FUNC_NUM_ARGS()`, matches[1].Utf8Text(code))

	assert.Len(t, FindAll(tree.RootNode(), PHPFunctionCallPattern("foo"), code), 1)
	assert.Empty(t, FindAll(tree.RootNode(), PHPFunctionCallPattern("bar"), code))
}

func TestPHPUseType(t *testing.T) {
	code := []byte(`<?php
	use App\Model\Product;
	use function App\Util\format;
	use CONST App\Util\LIMIT;
	use function App\Util\{parse, dump};
	use App\Lib\{Client, function connect};
	`)
	tree := parsePHP(t, code)

	declarations := FindAll(tree.RootNode(), NodeKind("namespace_use_declaration"), code)
	require.Len(t, declarations, 5)

	useTypes := func(declaration *tree_sitter.Node) []string {
		kind := PHPUseType(declaration, code)
		var kinds []string
		for _, clause := range FindAll(declaration, NodeKind("namespace_use_clause"), code) {
			if kind != "" {
				kinds = append(kinds, kind)
				continue
			}
			kinds = append(kinds, PHPUseType(clause, code))
		}
		return kinds
	}

	assert.Equal(t, []string{""}, useTypes(declarations[0]))
	assert.Equal(t, []string{"function"}, useTypes(declarations[1]))
	assert.Equal(t, []string{"const"}, useTypes(declarations[2]))
	assert.Equal(t, []string{"function", "function"}, useTypes(declarations[3]))
	assert.Equal(t, []string{"", "function"}, useTypes(declarations[4]))

	assert.False(t, PHPUseGroupPattern.Matches(declarations[1], code))
	assert.True(t, PHPUseGroupPattern.Matches(declarations[3], code))
	assert.True(t, PHPUseGroupPattern.Matches(declarations[4], code))
}

func TestPHPNestedScopePattern(t *testing.T) {
	code := []byte(`<?php
	function outer() {
		$inner = function () { return 1; };
		$arrow = fn () => 2;
	}
	`)
	tree := parsePHP(t, code)

	scopes := FindAll(tree.RootNode(), PHPNestedScopePattern, code)
	assert.Len(t, scopes, 3)
}

func TestPHPAnonymousClassPattern(t *testing.T) {
	code := []byte(`<?php
	$a = new class {};
	$b = new Foo();
	`)
	tree := parsePHP(t, code)

	matches := FindAll(tree.RootNode(), PHPAnonymousClassPattern, code)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Utf8Text(code), "class")
}

func TestPatternComposition(t *testing.T) {
	code := []byte(`<?php
	class Foo {
		public function bar() {}
		private function baz() {}
	}
	`)
	tree := parsePHP(t, code)

	publicMethod := And(
		NodeKind("method_declaration"),
		HasChild(And(NodeKind("visibility_modifier"), NodeText("public"))),
	)
	matches := FindAll(tree.RootNode(), publicMethod, code)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Utf8Text(code), "bar")

	notPublic := And(NodeKind("method_declaration"), Not(publicMethod))
	matches = FindAll(tree.RootNode(), notPublic, code)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Utf8Text(code), "baz")

	class := FindFirst(tree.RootNode(), NodeKind("class_declaration"), code)
	require.NotNil(t, class)
	assert.NotNil(t, GetFirstNodeOfKind(class, "declaration_list"))
	assert.Nil(t, GetFirstNodeOfKind(class, "method_declaration"))

	method := FindFirst(tree.RootNode(), NodeKind("method_declaration"), code)
	require.NotNil(t, method)
	ancestor := FindAncestorOfKind(method, "class_declaration")
	require.NotNil(t, ancestor)
	assert.Equal(t, class.Id(), ancestor.Id())
}

func TestPrintAllNodes(t *testing.T) {
	code := []byte(`<?php $a = 1;`)
	tree := parsePHP(t, code)

	var out bytes.Buffer
	PrintAllNodes(&out, tree.RootNode(), code, "")

	assert.Contains(t, out.String(), "program [1]")
	assert.Contains(t, out.String(), "assignment_expression")
	assert.Contains(t, out.String(), `"1"`)
}
