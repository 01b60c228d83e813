package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/livedoc/tree"
)

// Forwarder receives committed batches of edit commands. Forward is called
// after the document lock has been released and must not report delivery
// problems back to the caller.
type Forwarder interface {
	Forward(ctx context.Context, batch Batch)
}

// Document is a mutable element tree shared between several views.
// All operations are safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	root      *tree.Node
	index     *indexSet
	journal   journal
	forwarder Forwarder
}

// New creates an empty document. Operations other than loading will fail
// with ErrNotFound until a tree has been loaded.
func New() *Document {
	return &Document{index: newIndexSet()}
}

// Load replaces the document tree with a parsed serialized tree and
// rebuilds all indices. Load is not journaled.
func (doc *Document) Load(data []byte) error {
	root, err := tree.ParseXML(data)
	if err != nil {
		return err
	}
	return doc.setRoot(root)
}

// LoadURL loads a document from an http(s) or file URL.
func (doc *Document) LoadURL(ctx context.Context, location string) error {
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParameter, err)
	}
	var r io.ReadCloser
	switch u.Scheme {
	case "file", "":
		if r, err = os.Open(u.Path); err != nil {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadParameter, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("%w: GET %s: %s", ErrNotFound, location, resp.Status)
		}
		r = resp.Body
	default:
		return fmt.Errorf("%w: unsupported URL scheme %q", ErrBadParameter, u.Scheme)
	}
	defer r.Close()
	root, err := tree.ReadXML(r)
	if err != nil {
		return err
	}
	if err := doc.setRoot(root); err != nil {
		return err
	}
	tracer().Infof("loaded document from %s", location)
	return nil
}

// setRoot installs a new tree. Trees with duplicate ids are rejected.
func (doc *Document) setRoot(root *tree.Node) error {
	if err := newIndexSet().checkIDs(root, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.root = root
	doc.index.build(root)
	return nil
}

// Save writes the document to a file URL. Leading and trailing whitespace
// of all character data is removed before saving.
func (doc *Document) Save(location string) error {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "file" {
		return fmt.Errorf("%w: can only save to file URLs, have %q", ErrBadParameter, location)
	}
	var data []byte
	err = doc.View(func(tx *Tx) error {
		tree.TopDown(tx.Root(), func(n, _ *tree.Node, _ int) bool {
			n.Text = strings.TrimSpace(n.Text)
			n.Tail = strings.TrimSpace(n.Tail)
			return true
		})
		data = tree.ToXML(tx.Root())
		return nil
	})
	if err != nil {
		return err
	}
	return os.WriteFile(u.Path, data, 0644)
}

// Serialize returns the whole document as XML.
func (doc *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	err := doc.View(func(tx *Tx) error {
		return tree.WriteXML(&buf, tx.Root())
	})
	return buf.Bytes(), err
}

// Count returns the number of elements in the document.
func (doc *Document) Count() int {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return tree.Count(doc.root)
}

// Dump returns a short description of the document.
func (doc *Document) Dump() string {
	return fmt.Sprintf("%d elements", doc.Count())
}

// Generation returns the generation counter stored at the root element.
func (doc *Document) Generation() int {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.generation()
}

func (doc *Document) generation() int {
	if doc.root == nil {
		return 0
	}
	g, _ := doc.root.Attr(GenerationAttr)
	n, err := strconv.Atoi(g)
	if err != nil {
		return 0
	}
	return n
}

func (doc *Document) setGeneration(g int) {
	doc.root.SetAttr(GenerationAttr, strconv.Itoa(g))
}

// SetForwarder attaches a forwarder. From now on edits are journaled and
// committed batches are handed to fwd.
func (doc *Document) SetForwarder(fwd Forwarder) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	doc.forwarder = fwd
}

// Forwarder returns the attached forwarder, if any.
func (doc *Document) Forwarder() Forwarder {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.forwarder
}

// --- Transactions ----------------------------------------------------------

// View runs a read-only transaction. Changes made by fn are not journaled.
func (doc *Document) View(fn func(*Tx) error) error {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.root == nil {
		return fmt.Errorf("%w: no document loaded", ErrNotFound)
	}
	return fn(&Tx{doc: doc})
}

// Edit runs a transaction which may change the document. If a forwarder
// is attached, all structural changes of fn are forwarded as one batch,
// even if fn fails halfway. Delivery is not bound to the cancellation of
// ctx.
func (doc *Document) Edit(ctx context.Context, fn func(*Tx) error) error {
	fwd, batch, err := doc.edit(fn)
	if batch != nil {
		tracer().Debugf("forwarding batch of generation %d with %d commands",
			batch.Generation, len(batch.Operations))
		fwd.Forward(context.WithoutCancel(ctx), *batch)
	}
	return err
}

func (doc *Document) edit(fn func(*Tx) error) (Forwarder, *Batch, error) {
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.root == nil {
		return nil, nil, fmt.Errorf("%w: no document loaded", ErrNotFound)
	}
	if doc.forwarder != nil {
		doc.journal.start()
		defer doc.journal.discard() // closes the session if fn panics
	}
	prev := doc.generation()
	tx := &Tx{doc: doc}
	err := fn(tx)
	if tx.adopted > 0 {
		doc.setGeneration(tx.adopted)
	}
	if !doc.journal.recording {
		return nil, nil, err
	}
	cmds := doc.journal.commit()
	if len(cmds) == 0 {
		return nil, nil, err
	}
	gen := tx.adopted
	if gen == 0 {
		gen = prev + 1
		doc.setGeneration(gen)
	}
	return doc.forwarder, &Batch{Generation: gen, Operations: cmds}, err
}

// Apply replays a batch received from a leader document. The batch has to
// be the successor of the document's generation, otherwise Apply fails
// with ErrGeneration. A batch is applied completely or not at all: if a
// command fails, the document is restored to its state before the batch.
// Afterwards the document's generation is the generation of the batch, and
// the batch is passed on to this document's own forwarder, if any.
func (doc *Document) Apply(ctx context.Context, batch Batch) error {
	return doc.Edit(ctx, func(tx *Tx) error {
		if gen := tx.Generation(); batch.Generation != gen+1 {
			return fmt.Errorf("%w: have batch %d, document is at generation %d",
				ErrGeneration, batch.Generation, gen)
		}
		saved := tree.Clone(tx.Root())
		for i, cmd := range batch.Operations {
			if err := tx.Replay(cmd); err != nil {
				tx.restore(saved)
				return fmt.Errorf("command #%d of batch %d: %w", i, batch.Generation, err)
			}
		}
		tx.adopted = batch.Generation
		return nil
	})
}

// --- Convenience operations ------------------------------------------------

// Resolve returns the element addressed by path. The element is part of
// the live tree and must not be modified outside a transaction.
func (doc *Document) Resolve(path string) (n *tree.Node, err error) {
	err = doc.View(func(tx *Tx) error {
		n, err = tx.Resolve(path)
		return err
	})
	return
}

// PathOf returns the structural address of an element.
func (doc *Document) PathOf(n *tree.Node) (path string) {
	doc.View(func(tx *Tx) error {
		path = tx.PathOf(n)
		return nil
	})
	return
}

// Get returns a copy of the subtree addressed by path.
func (doc *Document) Get(path string) (n *tree.Node, err error) {
	err = doc.View(func(tx *Tx) error {
		n, err = tx.Get(path)
		return err
	})
	return
}

// Insert links a detached subtree into the document, see Tx.Insert.
func (doc *Document) Insert(ctx context.Context, anchor string, pos Position, n *tree.Node) (path string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		path, err = tx.Insert(anchor, pos, n)
		return err
	})
	return
}

// Paste parses a serialized snippet and inserts it, see Tx.Paste.
func (doc *Document) Paste(ctx context.Context, anchor string, pos Position, data []byte) (path string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		path, err = tx.Paste(anchor, pos, data)
		return err
	})
	return
}

// Delete removes the subtree addressed by path and returns it.
func (doc *Document) Delete(ctx context.Context, path string) (n *tree.Node, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		n, err = tx.Delete(path)
		return err
	})
	return
}

// PatchAttributes changes attributes of an element, see Tx.Patch.
func (doc *Document) PatchAttributes(ctx context.Context, path string, patch map[string]*string) (newpath string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		newpath, err = tx.Patch(path, patch)
		return err
	})
	return
}

// SetText replaces the text of an element. This change is not journaled.
func (doc *Document) SetText(ctx context.Context, path string, text *string) (newpath string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		newpath, err = tx.SetText(path, text)
		return err
	})
	return
}

// CopySubtree inserts a disambiguated copy of a subtree, see Tx.Copy.
func (doc *Document) CopySubtree(ctx context.Context, source, anchor string, pos Position) (path string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		path, err = tx.Copy(source, anchor, pos)
		return err
	})
	return
}

// MoveSubtree moves a subtree to a new position, see Tx.Move.
func (doc *Document) MoveSubtree(ctx context.Context, source, anchor string, pos Position) (path string, err error) {
	err = doc.Edit(ctx, func(tx *Tx) error {
		path, err = tx.Move(source, anchor, pos)
		return err
	})
	return
}
