package parsednode

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is one unit of the normalized tree every parser produces.
type Node struct {
	Name         string // Key used by mapping; preprocessors may rename it
	OriginalName string // Name as found in the source (empty if unknown)
	Value        any    // Scalar value, nil for container nodes
	Children     []*Node

	FileName     string // Source file (empty if unknown)
	LineNumber   int    // 1-based, 0 if unknown
	ColumnNumber int    // 1-based, 0 if unknown

	// Original is the source text of this node, kept for diagnostics only.
	Original string

	parent *Node
}

// New creates a node whose original name is the same as its name.
func New(name string) *Node {
	return &Node{Name: name, OriginalName: name}
}

// NewValue creates a scalar node.
func NewValue(name string, value any) *Node {
	n := New(name)
	n.Value = value
	return n
}

// At sets the source position and returns the node for chaining.
func (n *Node) At(file string, line, column int) *Node {
	n.FileName = file
	n.LineNumber = line
	n.ColumnNumber = column
	return n
}

// Parent returns the node this one was attached to, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// AddChild appends child and returns it.
func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	n.Children = append(n.Children, child)
	return child
}

// SetChildren replaces all children.
func (n *Node) SetChildren(children []*Node) {
	for _, c := range children {
		c.parent = n
	}
	n.Children = children
}

// Child returns the first child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child with the given name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildValue returns the value of the first child with the given name.
func (n *Node) ChildValue(name string) (any, bool) {
	c := n.Child(name)
	if c == nil {
		return nil, false
	}
	return c.Value, true
}

// RemoveChildren drops every child with the given name and reports how many were removed.
func (n *Node) RemoveChildren(name string) int {
	kept := n.Children[:0]
	removed := 0
	for _, c := range n.Children {
		if c.Name == name {
			c.parent = nil
			removed++
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
	return removed
}

// Rename changes the mapping name. OriginalName is left alone so errors
// still show what the source said.
func (n *Node) Rename(name string) {
	if n.OriginalName == "" {
		n.OriginalName = n.Name
	}
	n.Name = name
}

// IsScalar reports whether the node carries a value and no children.
func (n *Node) IsScalar() bool {
	return n.Value != nil && len(n.Children) == 0
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Path returns the slash separated names from the root to n. Repeated
// sibling names get an index suffix.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		seg := cur.Name
		if seg == "" {
			seg = "-"
		}
		if p := cur.parent; p != nil {
			same := p.ChildrenNamed(cur.Name)
			if len(same) > 1 {
				for i, s := range same {
					if s == cur {
						seg += "[" + strconv.Itoa(i) + "]"
						break
					}
				}
			}
		} else if cur.Name == "" {
			// Unnamed roots don't add a segment.
			continue
		}
		parts = append(parts, seg)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Position renders file:line:column, dropping the parts that are unknown.
func (n *Node) Position() string {
	var b strings.Builder
	b.WriteString(n.FileName)
	if n.LineNumber > 0 {
		fmt.Fprintf(&b, ":%d", n.LineNumber)
		if n.ColumnNumber > 0 {
			fmt.Fprintf(&b, ":%d", n.ColumnNumber)
		}
	}
	return b.String()
}

// String returns a one line description used in log attributes.
func (n *Node) String() string {
	var b strings.Builder
	b.WriteString(n.Name)
	if n.Value != nil {
		fmt.Fprintf(&b, "=%v", n.Value)
	}
	if pos := n.Position(); pos != "" {
		b.WriteString(" @ " + pos)
	}
	return b.String()
}
