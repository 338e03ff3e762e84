package treesitterhelper

import (
	"fmt"
	"io"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// PrintAllNodes writes the named nodes below node as an indented tree with their field names
func PrintAllNodes(w io.Writer, node *tree_sitter.Node, content []byte, indent string) {
	printNode(w, node, "", content, indent)
}

func printNode(w io.Writer, node *tree_sitter.Node, field string, content []byte, indent string) {
	label := node.Kind()
	if field != "" {
		label = field + ": " + label
	}

	if node.NamedChildCount() == 0 {
		text := strings.ReplaceAll(string(node.Utf8Text(content)), "\n", "\\n")
		_, _ = fmt.Fprintf(w, "%s%s [%d] %q\n", indent, label, node.Range().StartPoint.Row+1, text)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s [%d]\n", indent, label, node.Range().StartPoint.Row+1)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		printNode(w, child, node.FieldNameForChild(uint32(i)), content, indent+"  ")
	}
}
