package tree

// Action is a function type to operate on tree nodes during a traversal.
// parent is nil for the start node, position is the index of n within parent.
// Returning false prevents descending into the children of n.
type Action func(n *Node, parent *Node, position int) bool

// TopDown traverses a tree starting at (and including) n.
// The traversal guarantees that parents are always processed before
// their children, and siblings in document order.
func TopDown(n *Node, action Action) {
	if n == nil || action == nil {
		return
	}
	topDown(n, nil, 0, action)
}

func topDown(n *Node, parent *Node, position int, action Action) {
	if !action(n, parent, position) {
		return
	}
	for i, ch := range n.children {
		topDown(ch, n, i, action)
	}
}

// Predicate is a function type to match against nodes of a tree.
type Predicate func(n *Node) bool

// DescendantsWith collects the descendants of n matching a predicate,
// in document order. The search does not include n.
func DescendantsWith(n *Node, predicate Predicate) []*Node {
	var selection []*Node
	TopDown(n, func(node *Node, parent *Node, _ int) bool {
		if parent != nil && predicate(node) {
			selection = append(selection, node)
		}
		return true
	})
	return selection
}

// Count returns the number of nodes in the subtree rooted at n.
func Count(n *Node) int {
	cnt := 0
	TopDown(n, func(*Node, *Node, int) bool {
		cnt++
		return true
	})
	return cnt
}
