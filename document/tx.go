package document

import (
	"fmt"
	"strings"

	"github.com/npillmayer/livedoc/tree"
	"github.com/npillmayer/livedoc/treepath"
)

// Tx is a handle for operating on a document while holding its lock.
// A Tx is valid only during the call of the transaction function it has
// been passed to.
type Tx struct {
	doc     *Document
	adopted int // generation taken over from a replayed batch
}

// Root returns the root element of the document.
func (tx *Tx) Root() *tree.Node {
	return tx.doc.root
}

// Generation returns the current generation of the document.
func (tx *Tx) Generation() int {
	return tx.doc.generation()
}

// Recording is a predicate: are structural changes currently journaled?
func (tx *Tx) Recording() bool {
	return tx.doc.journal.recording
}

// Resolve returns the single element addressed by path. It fails with
// ErrNotFound if no element matches and with ErrAmbiguousPath if more than
// one does. Relative paths are resolved against the root element.
func (tx *Tx) Resolve(path string) (*tree.Node, error) {
	p, err := treepath.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadParameter, err)
	}
	nodes := treepath.Resolve(tx.doc.root, p)
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%w: no element matches path %s", ErrNotFound, path)
	case 1:
		return nodes[0], nil
	}
	return nil, fmt.Errorf("%w: %d elements match path %s", ErrAmbiguousPath, len(nodes), path)
}

// PathOf returns the structural address of an element of the document.
func (tx *Tx) PathOf(n *tree.Node) string {
	return treepath.PathOf(n, tx.doc.index.parentOf)
}

// Parent returns the parent of an element, or nil for the root.
func (tx *Tx) Parent(n *tree.Node) *tree.Node {
	return tx.doc.index.parentOf(n)
}

// ByID returns the element with a given xml:id.
func (tx *Tx) ByID(id string) (*tree.Node, error) {
	n, ok := tx.doc.index.ids[id]
	if !ok {
		return nil, fmt.Errorf("%w: no element with id %q", ErrNotFound, id)
	}
	return n, nil
}

// HasName is a predicate: does any element carry a given tt:name?
func (tx *Tx) HasName(name string) bool {
	return tx.doc.index.hasName(name)
}

// Get returns a deep copy of the subtree addressed by path.
func (tx *Tx) Get(path string) (*tree.Node, error) {
	n, err := tx.Resolve(path)
	if err != nil {
		return nil, err
	}
	return tree.Clone(n), nil
}

// Disambiguate rewrites the ids of a detached subtree which are already
// in use by the document, as well as the name of its root element.
func (tx *Tx) Disambiguate(n *tree.Node) {
	tx.doc.index.disambiguate(n)
}

// --- Insertion -------------------------------------------------------------

// Insert links the detached subtree n relative to the element addressed by
// anchor and returns the path of the inserted element. The document takes
// ownership of n. For position Replace, the anchor element itself stays in
// place: its attributes and children are replaced by those of n, and the
// returned path is the path of the anchor.
func (tx *Tx) Insert(anchor string, pos Position, n *tree.Node) (string, error) {
	a, err := tx.Resolve(anchor)
	if err != nil {
		return "", err
	}
	return tx.InsertAt(a, pos, n)
}

// Paste parses a serialized snippet and inserts it like Insert.
func (tx *Tx) Paste(anchor string, pos Position, data []byte) (string, error) {
	n, err := tree.ParseXML(data)
	if err != nil {
		return "", err
	}
	return tx.Insert(anchor, pos, n)
}

// InsertAt is like Insert, but with the anchor given as an element of
// the document.
func (tx *Tx) InsertAt(anchor *tree.Node, pos Position, n *tree.Node) (string, error) {
	ix := tx.doc.index
	if n == nil {
		return "", fmt.Errorf("%w: no element to insert", ErrBadParameter)
	}
	if ix.contains(n) {
		return "", fmt.Errorf("%w: element %v is already part of the document", ErrBadParameter, n)
	}
	if !ix.contains(anchor) {
		return "", fmt.Errorf("%w: anchor %v is not part of the document", ErrNotFound, anchor)
	}
	var parent *tree.Node
	var freed *tree.Node
	switch pos {
	case Begin, End:
		parent = anchor
	case Before, After:
		if parent = ix.parentOf(anchor); parent == nil {
			return "", fmt.Errorf("%w: cannot insert %s the root element", ErrNoParent, pos)
		}
	case Replace:
		freed = anchor
	default:
		return "", fmt.Errorf("%w: unknown position %q", ErrBadParameter, pos)
	}
	if err := ix.checkIDs(n, freed); err != nil {
		return "", err
	}
	n.Tail = ""
	switch pos {
	case Begin:
		anchor.InsertChildAt(0, n)
	case End:
		anchor.AddChild(n)
	case Before:
		parent.InsertChildAt(parent.IndexOfChild(anchor), n)
	case After:
		parent.InsertChildAt(parent.IndexOfChild(anchor)+1, n)
	case Replace:
		return tx.replace(anchor, n), nil
	}
	ix.add(n, parent)
	tx.recordAdd(n, parent)
	tracer().Debugf("inserted %v %s %v", n, pos, anchor)
	return tx.PathOf(n), nil
}

func (tx *Tx) replace(anchor, n *tree.Node) string {
	ix := tx.doc.index
	for _, ch := range anchor.ClearChildren() {
		ix.remove(ch)
	}
	ix.unregister(anchor)
	gen, hasGen := anchor.Attr(GenerationAttr)
	anchor.ClearAttrs()
	for k, v := range n.Attrs() {
		anchor.SetAttr(k, v)
	}
	anchor.DeleteAttr(GenerationAttr) // the generation belongs to the document
	if hasGen {
		anchor.SetAttr(GenerationAttr, gen)
	}
	anchor.Text = n.Text
	ix.register(anchor)
	for _, ch := range n.ClearChildren() {
		anchor.AddChild(ch)
		ix.add(ch, anchor)
	}
	path := tx.PathOf(anchor)
	tx.doc.journal.record(Command{
		Verb:  VerbAdd,
		Path:  path,
		Where: Replace,
		Data:  string(tree.ToXML(anchor)),
	})
	tracer().Debugf("replaced content of %s", path)
	return path
}

// recordAdd journals an insertion relative to the previous sibling if
// there is one, otherwise relative to the parent.
func (tx *Tx) recordAdd(n, parent *tree.Node) {
	if !tx.doc.journal.recording {
		return
	}
	cmd := Command{Verb: VerbAdd, Data: string(tree.ToXML(n))}
	if i := parent.IndexOfChild(n); i > 0 {
		prev, _ := parent.Child(i - 1)
		cmd.Path, cmd.Where = tx.PathOf(prev), After
	} else {
		cmd.Path, cmd.Where = tx.PathOf(parent), Begin
	}
	tx.doc.journal.record(cmd)
}

// --- Deletion --------------------------------------------------------------

// Delete unlinks the subtree addressed by path and returns it.
func (tx *Tx) Delete(path string) (*tree.Node, error) {
	n, err := tx.Resolve(path)
	if err != nil {
		return nil, err
	}
	return tx.Detach(n)
}

// Detach unlinks an element of the document together with its subtree.
func (tx *Tx) Detach(n *tree.Node) (*tree.Node, error) {
	ix := tx.doc.index
	parent := ix.parentOf(n)
	if parent == nil {
		return nil, fmt.Errorf("%w: cannot remove the root element", ErrNoParent)
	}
	if tx.doc.journal.recording {
		tx.doc.journal.record(Command{Verb: VerbDelete, Path: tx.PathOf(n)})
	}
	parent.RemoveChild(n)
	ix.remove(n)
	tracer().Debugf("removed %v from %v", n, parent)
	return n, nil
}

// --- Attributes and text ---------------------------------------------------

// Patch changes attributes of the element addressed by path. A nil value
// removes an attribute. Patch returns the path of the element.
func (tx *Tx) Patch(path string, patch map[string]*string) (string, error) {
	n, err := tx.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := tx.PatchNode(n, patch); err != nil {
		return "", err
	}
	return tx.PathOf(n), nil
}

// PatchNode changes attributes of an element and journals the patch as a
// single change. Setting xml:id to an id used by another element fails
// with ErrBadParameter.
func (tx *Tx) PatchNode(n *tree.Node, patch map[string]*string) error {
	ix := tx.doc.index
	for k := range patch {
		if !validAttrName(k) {
			return fmt.Errorf("%w: illegal attribute name %q", ErrBadParameter, k)
		}
		if k == GenerationAttr {
			return fmt.Errorf("%w: attribute %s is reserved", ErrBadParameter, k)
		}
	}
	if v, ok := patch[IDAttr]; ok && v != nil {
		if other, taken := ix.ids[*v]; taken && other != n {
			return fmt.Errorf("%w: id %q is already in use", ErrBadParameter, *v)
		}
	}
	ix.unregister(n)
	for k, v := range patch {
		if v == nil {
			n.DeleteAttr(k)
		} else {
			n.SetAttr(k, *v)
		}
	}
	ix.register(n)
	if tx.doc.journal.recording {
		tx.doc.journal.record(Command{Verb: VerbChange, Path: tx.PathOf(n), Attrs: clonePatch(patch)})
	}
	return nil
}

func validAttrName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\n<>&\"'=/[]") &&
		!strings.HasPrefix(name, ":") && !strings.HasSuffix(name, ":")
}

func clonePatch(patch map[string]*string) map[string]*string {
	c := make(map[string]*string, len(patch))
	for k, v := range patch {
		if v != nil {
			s := *v
			v = &s
		}
		c[k] = v
	}
	return c
}

// SetText replaces the character data of an element and removes its tail.
// A nil text removes the text. Text changes are not journaled.
func (tx *Tx) SetText(path string, text *string) (string, error) {
	n, err := tx.Resolve(path)
	if err != nil {
		return "", err
	}
	n.Text, n.Tail = "", ""
	if text != nil {
		n.Text = *text
	}
	return tx.PathOf(n), nil
}

// --- Composite operations --------------------------------------------------

// Copy inserts a disambiguated deep copy of the subtree at source.
func (tx *Tx) Copy(source, anchor string, pos Position) (string, error) {
	src, err := tx.Resolve(source)
	if err != nil {
		return "", err
	}
	a, err := tx.Resolve(anchor)
	if err != nil {
		return "", err
	}
	clone := tree.Clone(src)
	tx.Disambiguate(clone)
	return tx.InsertAt(a, pos, clone)
}

// Move unlinks the subtree at source and inserts it relative to anchor.
// The anchor is resolved before source is unlinked. The moved subtree is
// journaled as a deletion followed by an addition.
func (tx *Tx) Move(source, anchor string, pos Position) (string, error) {
	if _, err := ParsePosition(string(pos)); err != nil {
		return "", err
	}
	src, err := tx.Resolve(source)
	if err != nil {
		return "", err
	}
	a, err := tx.Resolve(anchor)
	if err != nil {
		return "", err
	}
	for p := a; p != nil; p = tx.Parent(p) {
		if p == src {
			return "", fmt.Errorf("%w: cannot move %s into itself", ErrBadParameter, source)
		}
	}
	if (pos == Before || pos == After) && tx.Parent(a) == nil {
		return "", fmt.Errorf("%w: cannot insert %s the root element", ErrNoParent, pos)
	}
	n, err := tx.Detach(src)
	if err != nil {
		return "", err
	}
	return tx.InsertAt(a, pos, n)
}

// restore reinstates a copy of the tree taken earlier in the transaction.
// Commands recorded since are dropped.
func (tx *Tx) restore(root *tree.Node) {
	tx.doc.root = root
	tx.doc.index.build(root)
	tx.doc.journal.commands = nil
	tracer().Infof("restored document to generation %d", tx.doc.generation())
}

// Replay performs a journaled command.
func (tx *Tx) Replay(cmd Command) error {
	switch cmd.Verb {
	case VerbAdd:
		pos, err := ParsePosition(string(cmd.Where))
		if err != nil {
			return err
		}
		_, err = tx.Paste(cmd.Path, pos, []byte(cmd.Data))
		return err
	case VerbDelete:
		_, err := tx.Delete(cmd.Path)
		return err
	case VerbChange:
		_, err := tx.Patch(cmd.Path, cmd.Attrs)
		return err
	}
	return fmt.Errorf("%w: unknown command verb %q", ErrBadParameter, cmd.Verb)
}
