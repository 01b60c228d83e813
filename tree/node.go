package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

/*
We manage a tree of mutable element nodes, similar to an XML element tree.
Nodes own their children exclusively. Contrary to many tree implementations,
nodes do not carry a link to their parent: the parent relation is kept in an
index by the owner of the tree (see package document), which keeps ownership
of nodes strictly tree-shaped.

Nodes are not synchronized. Clients sharing a tree between goroutines have to
serialize access themselves.
*/

// Node is the base type our tree is built of.
type Node struct {
	Tag      string            // element name, possibly prefix-qualified ("tl:par")
	attrs    map[string]string // attributes, keys unique
	children []*Node           // ordered children
	Text     string            // character data before the first child
	Tail     string            // character data after the end tag, before the next sibling
}

// NewNode creates a new tree node with a given tag. Attributes may be
// given as key/value pairs.
func NewNode(tag string, keyvals ...string) *Node {
	assertThat(len(keyvals)%2 == 0, "odd number of attribute key/values for <%s>", tag)
	n := &Node{Tag: tag}
	for i := 0; i < len(keyvals); i += 2 {
		n.SetAttr(keyvals[i], keyvals[i+1])
	}
	return n
}

func (n *Node) String() string {
	if n == nil {
		return "(Node nil)"
	}
	return fmt.Sprintf("(Node <%s> #attr=%d #ch=%d)", n.Tag, len(n.attrs), len(n.children))
}

// --- Attributes ------------------------------------------------------------

// Attr returns the value of an attribute and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// SetAttr sets an attribute value.
func (n *Node) SetAttr(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// DeleteAttr removes an attribute, if present.
func (n *Node) DeleteAttr(key string) {
	delete(n.attrs, key)
}

// Attrs returns a copy of the attributes of n.
func (n *Node) Attrs() map[string]string {
	if n.attrs == nil {
		return make(map[string]string)
	}
	return maps.Clone(n.attrs)
}

// AttrCount returns the number of attributes of n.
func (n *Node) AttrCount() int {
	return len(n.attrs)
}

// ClearAttrs removes all attributes.
func (n *Node) ClearAttrs() {
	n.attrs = nil
}

// --- Children --------------------------------------------------------------

// ChildCount returns the number of children-nodes for a node.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the child at position i.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.children[i], true
}

// Children returns a slice with all children of a node. The slice is a copy,
// clients may modify it without affecting the tree.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// IndexOfChild returns the index of a child within the list of children
// of n, or -1 if ch is not a child of n.
func (n *Node) IndexOfChild(ch *Node) int {
	for i, c := range n.children {
		if c == ch {
			return i
		}
	}
	return -1
}

// AddChild appends a child node.
// It returns the parent node to allow for chaining.
func (n *Node) AddChild(ch *Node) *Node {
	if ch != nil {
		n.children = append(n.children, ch)
	}
	return n
}

// InsertChildAt inserts a new child node at position i, shifting children at
// later positions. If i is beyond the end, the child is appended.
// It returns the parent node to allow for chaining.
func (n *Node) InsertChildAt(i int, ch *Node) *Node {
	if ch == nil {
		return n
	}
	if i < 0 {
		i = 0
	}
	if i >= len(n.children) {
		n.children = append(n.children, ch)
		return n
	}
	n.children = slices.Insert(n.children, i, ch)
	return n
}

// RemoveChild removes ch from the children of n. It returns false if ch
// is not a child of n.
func (n *Node) RemoveChild(ch *Node) bool {
	i := n.IndexOfChild(ch)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	return true
}

// ClearChildren detaches all children and returns them.
func (n *Node) ClearChildren() []*Node {
	chs := n.children
	n.children = nil
	return chs
}

// --- Copying and comparing -------------------------------------------------

// Clone returns a deep copy of the subtree rooted at n.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{Tag: n.Tag, Text: n.Text, Tail: n.Tail}
	if len(n.attrs) > 0 {
		c.attrs = n.Attrs()
	}
	if len(n.children) > 0 {
		c.children = make([]*Node, len(n.children))
		for i, ch := range n.children {
			c.children[i] = Clone(ch)
		}
	}
	return c
}

// Equal is a predicate for structural equality of two subtrees: tags,
// attributes, character data and children (recursively) have to match.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Text != b.Text || a.Tail != b.Tail {
		return false
	}
	if len(a.children) != len(b.children) || !maps.Equal(a.attrs, b.attrs) {
		return false
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}
