package treesitterhelper

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pattern matches tree-sitter nodes
type Pattern interface {
	Matches(node *tree_sitter.Node, content []byte) bool
}

// PatternFunc adapts a plain function to a Pattern
type PatternFunc func(node *tree_sitter.Node, content []byte) bool

func (f PatternFunc) Matches(node *tree_sitter.Node, content []byte) bool {
	return node != nil && f(node, content)
}

// FuncPattern wraps matchFunc as a Pattern. nil nodes never match.
func FuncPattern(matchFunc func(node *tree_sitter.Node, content []byte) bool) Pattern {
	return PatternFunc(matchFunc)
}

// And matches when every pattern matches
func And(patterns ...Pattern) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, content []byte) bool {
		for _, pattern := range patterns {
			if !pattern.Matches(node, content) {
				return false
			}
		}
		return true
	})
}

// Or matches when any pattern matches
func Or(patterns ...Pattern) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, content []byte) bool {
		for _, pattern := range patterns {
			if pattern.Matches(node, content) {
				return true
			}
		}
		return false
	})
}

func Not(pattern Pattern) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, content []byte) bool {
		return !pattern.Matches(node, content)
	})
}

func NodeKind(kind string) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, _ []byte) bool {
		return node.Kind() == kind
	})
}

func AnyNodeKind(kinds ...string) Pattern {
	set := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return PatternFunc(func(node *tree_sitter.Node, _ []byte) bool {
		_, ok := set[node.Kind()]
		return ok
	})
}

// NodeText matches the exact source text of a node
func NodeText(text string) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, content []byte) bool {
		return node.Utf8Text(content) == text
	})
}

// HasChild matches nodes with a named child matching pattern
func HasChild(pattern Pattern) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, content []byte) bool {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if pattern.Matches(node.NamedChild(i), content) {
				return true
			}
		}
		return false
	})
}

// HasChildOfKind matches nodes with a direct child of kind, named or not
func HasChildOfKind(kind string) Pattern {
	return PatternFunc(func(node *tree_sitter.Node, _ []byte) bool {
		return GetFirstNodeOfKind(node, kind) != nil
	})
}

// FindFirst returns the first node in pre-order that matches pattern
func FindFirst(root *tree_sitter.Node, pattern Pattern, content []byte) *tree_sitter.Node {
	if root == nil {
		return nil
	}
	if pattern.Matches(root, content) {
		return root
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		if found := FindFirst(root.NamedChild(i), pattern, content); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in pre-order that matches pattern
func FindAll(root *tree_sitter.Node, pattern Pattern, content []byte) []*tree_sitter.Node {
	var results []*tree_sitter.Node

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		if pattern.Matches(node, content) {
			results = append(results, node)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			visit(node.NamedChild(i))
		}
	}

	visit(root)
	return results
}
