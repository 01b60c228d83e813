package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/replication"
	"github.com/npillmayer/livedoc/tree"
)

// Service serves a single document.
type Service struct {
	doc  *document.Document
	opts []replication.Option
	mu   sync.Mutex // guards creation of the forwarder
}

// New creates a service for doc. Options are used when a forwarder has to
// be created for the first follower.
func New(doc *document.Document, opts ...replication.Option) *Service {
	return &Service{doc: doc, opts: opts}
}

// Timeline returns the timeline document.
func (s *Service) Timeline() ([]byte, error) {
	return s.doc.Serialize()
}

func findLayout(root *tree.Node) *tree.Node {
	layouts := tree.DescendantsWith(root, func(n *tree.Node) bool {
		return n.Tag == document.RawLayoutTag
	})
	if len(layouts) > 0 {
		return layouts[0]
	}
	return nil
}

// Layout returns the raw layout document.
func (s *Service) Layout() (layout string, err error) {
	err = s.doc.View(func(tx *document.Tx) error {
		n := findLayout(tx.Root())
		if n == nil {
			return fmt.Errorf("%w: no %s element in document", document.ErrNotFound, document.RawLayoutTag)
		}
		layout = n.Text
		return nil
	})
	return
}

// PutLayout stores a raw layout document. The layout element is created
// if necessary, and this creation is replicated. Its text content is not.
func (s *Service) PutLayout(ctx context.Context, layout string) error {
	return s.doc.Edit(ctx, func(tx *document.Tx) error {
		n := findLayout(tx.Root())
		if n == nil {
			n = tree.NewNode(document.RawLayoutTag)
			if _, err := tx.InsertAt(tx.Root(), document.End, n); err != nil {
				return err
			}
		}
		_, err := tx.SetText(tx.PathOf(n), &layout)
		return err
	})
}

// AddCallback registers a follower endpoint, which will receive all
// subsequent edit batches of the document.
func (s *Service) AddCallback(callback string) error {
	u, err := url.Parse(callback)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid callback URL %q", document.ErrBadParameter, callback)
	}
	s.forwarder().AddSubscriber(callback)
	return nil
}

// Callbacks returns the currently registered follower endpoints.
func (s *Service) Callbacks() []string {
	if fwd, ok := s.doc.Forwarder().(*replication.Forwarder); ok {
		return fwd.Subscribers()
	}
	return nil
}

func (s *Service) forwarder() *replication.Forwarder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fwd, ok := s.doc.Forwarder().(*replication.Forwarder); ok {
		return fwd
	}
	fwd := replication.NewForwarder(s.opts...)
	s.doc.SetForwarder(fwd)
	tracer().Infof("document now forwards edits")
	return fwd
}

// --- Preview client document -----------------------------------------------

type clientDoc struct {
	Description       string            `json:"description"`
	Mode              string            `json:"mode"`
	ServiceURLPreset  string            `json:"serviceUrlPreset"`
	ControllerOptions controllerOptions `json:"controllerOptions"`
	DebugOptions      debugOptions      `json:"debugOptions"`
	Variations        []variation       `json:"variations"`
}

type controllerOptions struct {
	DeviceIDPrefix         string `json:"deviceIdPrefix"`
	DeviceIDNamespace      string `json:"deviceIdNamespace"`
	DefaultLogLevel        string `json:"defaultLogLevel"`
	NetworkLogLevel        string `json:"networkLogLevel"`
	LongFormConsoleLogging bool   `json:"longFormConsoleLogging"`
	ShowUserErrorMessageUI bool   `json:"showUserErrorMessageUI"`
}

type debugOptions struct {
	DebugComponent      bool `json:"debugComponent"`
	DevLogging          bool `json:"devLogging"`
	FailurePlaceholders bool `json:"failurePlaceholders"`
}

type variation struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Options     []option `json:"options"`
}

type option struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Content     optionContent `json:"content"`
}

type optionContent struct {
	ServiceInput serviceInput `json:"serviceInput"`
}

type serviceInput struct {
	Layout   string `json:"layout"`
	Timeline string `json:"timeline"`
}

// Client creates the client configuration for a live preview of a
// timeline and layout, given as URLs.
func Client(timeline, layout string) ([]byte, error) {
	const preview = "Live Preview"
	doc := clientDoc{
		Description:      preview,
		Mode:             "tv",
		ServiceURLPreset: "aws_edge",
		ControllerOptions: controllerOptions{
			DeviceIDPrefix:         "tv",
			DeviceIDNamespace:      "ts-tv",
			DefaultLogLevel:        "trace",
			NetworkLogLevel:        "trace",
			LongFormConsoleLogging: true,
			ShowUserErrorMessageUI: true,
		},
		DebugOptions: debugOptions{
			DebugComponent:      true,
			DevLogging:          true,
			FailurePlaceholders: true,
		},
		Variations: []variation{{
			Name:        preview,
			Description: preview,
			Type:        "select",
			Options: []option{{
				Name:        preview,
				Description: preview,
				Content: optionContent{
					ServiceInput: serviceInput{Layout: layout, Timeline: timeline},
				},
			}},
		}},
	}
	return json.Marshal(doc)
}
