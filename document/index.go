package document

import (
	"fmt"

	"github.com/npillmayer/livedoc/tree"
)

// indexSet holds lookup structures derived from a document tree.
// After every completed mutation it reflects the live tree exactly.
type indexSet struct {
	root   *tree.Node
	parent map[*tree.Node]*tree.Node // non-owning back references
	ids    map[string]*tree.Node     // xml:id → element
	names  map[string]int            // multiset of tt:name values
}

func newIndexSet() *indexSet {
	return &indexSet{
		parent: make(map[*tree.Node]*tree.Node),
		ids:    make(map[string]*tree.Node),
		names:  make(map[string]int),
	}
}

// build indexes a whole tree, dropping all previous entries.
func (ix *indexSet) build(root *tree.Node) {
	ix.root = root
	ix.parent = make(map[*tree.Node]*tree.Node)
	ix.ids = make(map[string]*tree.Node)
	ix.names = make(map[string]int)
	if root == nil {
		return
	}
	ix.register(root)
	for _, ch := range root.Children() {
		ix.add(ch, root)
	}
	tracer().Debugf("indexed %d elements, %d ids, %d names", len(ix.parent)+1, len(ix.ids), len(ix.names))
}

// contains is a predicate: is n part of the indexed tree?
func (ix *indexSet) contains(n *tree.Node) bool {
	if n == nil {
		return false
	}
	_, ok := ix.parent[n]
	return ok || n == ix.root
}

func (ix *indexSet) parentOf(n *tree.Node) *tree.Node {
	return ix.parent[n]
}

// add indexes a subtree which has just been linked to parent.
func (ix *indexSet) add(n, parent *tree.Node) {
	assertThat(!ix.contains(n), "element %v is already indexed", n)
	ix.parent[n] = parent
	ix.register(n)
	for _, ch := range n.Children() {
		ix.add(ch, n)
	}
}

// remove tears down the index entries of a subtree which has just been
// unlinked from the tree, descendants first.
func (ix *indexSet) remove(n *tree.Node) {
	_, ok := ix.parent[n]
	assertThat(ok, "element %v is not indexed", n)
	for _, ch := range n.Children() {
		ix.remove(ch)
	}
	ix.unregister(n)
	delete(ix.parent, n)
}

// register adds the id and name of a single element.
func (ix *indexSet) register(n *tree.Node) {
	if id, ok := n.Attr(IDAttr); ok {
		other, dup := ix.ids[id]
		assertThat(!dup || other == n, "duplicate id %q", id)
		ix.ids[id] = n
	}
	if name, ok := n.Attr(NameAttr); ok {
		ix.names[name]++
	}
}

// unregister removes the id and name of a single element. It has to be
// called before the element's attributes change.
func (ix *indexSet) unregister(n *tree.Node) {
	if id, ok := n.Attr(IDAttr); ok {
		assertThat(ix.ids[id] == n, "id %q is not indexed for element %v", id, n)
		delete(ix.ids, id)
	}
	if name, ok := n.Attr(NameAttr); ok {
		assertThat(ix.names[name] > 0, "name %q is not indexed", name)
		if ix.names[name]--; ix.names[name] == 0 {
			delete(ix.names, name)
		}
	}
}

func (ix *indexSet) hasName(name string) bool {
	return ix.names[name] > 0
}

// checkIDs reports an error if linking the detached subtree n would
// introduce a duplicate id. Ids of the subtree at freed, which is about to
// be replaced, do not count as taken.
func (ix *indexSet) checkIDs(n *tree.Node, freed *tree.Node) error {
	released := make(map[string]bool)
	if freed != nil {
		tree.TopDown(freed, func(e, _ *tree.Node, _ int) bool {
			if id, ok := e.Attr(IDAttr); ok {
				released[id] = true
			}
			return true
		})
	}
	seen := make(map[string]bool)
	var err error
	tree.TopDown(n, func(e, _ *tree.Node, _ int) bool {
		id, ok := e.Attr(IDAttr)
		if !ok || err != nil {
			return err == nil
		}
		if _, taken := ix.ids[id]; (taken && !released[id]) || seen[id] {
			err = fmt.Errorf("%w: duplicate id %q", ErrInternalConsistency, id)
			return false
		}
		seen[id] = true
		return true
	})
	return err
}
