package api

import (
	"sort"
	"sync"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/events"
	"github.com/npillmayer/livedoc/replication"
	"github.com/npillmayer/livedoc/serve"
	"github.com/oklog/ulid/v2"
)

// Handle bundles a document with its views.
type Handle struct {
	ID     string
	Doc    *document.Document
	Events *events.Engine
	Serve  *serve.Service
}

// Registry holds the documents of a server.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Handle
	opts []replication.Option
}

// NewRegistry creates an empty registry. Forwarders created for documents
// of this registry are configured with opts.
func NewRegistry(opts ...replication.Option) *Registry {
	return &Registry{
		docs: make(map[string]*Handle),
		opts: opts,
	}
}

// Create adds a new, empty document.
func (r *Registry) Create() *Handle {
	return r.Add(document.New())
}

// Add registers a document under a fresh id.
func (r *Registry) Add(doc *document.Document) *Handle {
	h := &Handle{
		ID:     ulid.Make().String(),
		Doc:    doc,
		Events: events.New(doc),
		Serve:  serve.New(doc, r.opts...),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[h.ID] = h
	return h
}

// Get finds a document by id.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.docs[id]
	return h, ok
}

// IDs lists all document ids in order of creation.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // ULIDs sort by time
	return ids
}
