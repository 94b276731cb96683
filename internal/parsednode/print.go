package parsednode

import (
	"fmt"
	"strings"
)

// PrettyPrint renders the node and its descendants, one node per line,
// children indented below their parent.
func (n *Node) PrettyPrint() string {
	var b strings.Builder
	n.prettyPrint(&b, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func (n *Node) prettyPrint(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat(" ", depth*4))
	name := n.Name
	if name == "" {
		name = "-"
	}
	b.WriteString(name)
	if n.Value != nil {
		fmt.Fprintf(b, ": %v", n.Value)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.prettyPrint(b, depth+1)
	}
}

// Indent prefixes every line of s, including blank ones, with four spaces.
func Indent(s string) string {
	return IndentN(s, 4)
}

// IndentN prefixes every line of s with n spaces.
func IndentN(s string, n int) string {
	pad := strings.Repeat(" ", n)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
