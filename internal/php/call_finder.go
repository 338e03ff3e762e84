package php

import (
	treesitterhelper "github.com/shopware/php-analyser/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// FunctionCallStatementFinder looks for calls to specific functions inside a function body
type FunctionCallStatementFinder struct{}

// FindFunctionCall returns the first call to one of names inside node. Nested
// functions, closures and classes have their own argument lists and are skipped.
func (f *FunctionCallStatementFinder) FindFunctionCall(node *tree_sitter.Node, content []byte, names ...string) *tree_sitter.Node {
	if node == nil {
		return nil
	}

	pattern := treesitterhelper.PHPFunctionCallPattern(names...)

	var visit func(n *tree_sitter.Node) *tree_sitter.Node
	visit = func(n *tree_sitter.Node) *tree_sitter.Node {
		if pattern.Matches(n, content) {
			return n
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child == nil || treesitterhelper.PHPNestedScopePattern.Matches(child, content) {
				continue
			}
			if found := visit(child); found != nil {
				return found
			}
		}
		return nil
	}

	return visit(node)
}

// HasFunctionCall reports whether the body at [start, end) of content calls one of names
func (p *Parser) HasFunctionCall(content []byte, start, end uint, names ...string) bool {
	tree := p.Parse(content)
	if tree == nil {
		return false
	}
	defer tree.Close()

	body := tree.RootNode().DescendantForByteRange(start, end)
	if body == nil {
		return false
	}
	// DescendantForByteRange can return a node that starts inside the body when the
	// range matches a child exactly, walk up to the node spanning the whole range
	for body.Parent() != nil && (body.StartByte() > start || body.EndByte() < end) {
		body = body.Parent()
	}

	finder := &FunctionCallStatementFinder{}
	return finder.FindFunctionCall(body, content, names...) != nil
}
