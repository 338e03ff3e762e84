package treesitterhelper

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// GetFirstNodeOfKind returns the first direct child of the given kind
func GetFirstNodeOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// FindAncestorOfKind walks up from node and returns the closest ancestor of one of kinds
func FindAncestorOfKind(node *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	pattern := AnyNodeKind(kinds...)
	for current := node.Parent(); current != nil; current = current.Parent() {
		if pattern.Matches(current, nil) {
			return current
		}
	}
	return nil
}
