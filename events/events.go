package events

import (
	"context"
	"fmt"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/tree"
	"github.com/npillmayer/livedoc/treepath"
)

// Parameter assigns a value to an attribute of an element inside an event.
// Parameter has the form "path/@attr", with path relative to the event
// element, e.g. "./tl:ref/@tic:player".
type Parameter struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// ParameterDecl is a parameter declaration of an event template.
type ParameterDecl struct {
	Name      string `json:"name"`
	Parameter string `json:"parameter"`
	Type      string `json:"type,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Description describes an event which may be triggered or modified.
type Description struct {
	Name       string          `json:"name"`
	ID         string          `json:"id"`
	Trigger    bool            `json:"trigger"`
	Modify     bool            `json:"modify"`
	Verb       string          `json:"verb,omitempty"`
	Parameters []ParameterDecl `json:"parameters"`
}

// Engine triggers and modifies events of a document.
type Engine struct {
	doc *document.Document
}

// New creates an event engine operating on doc.
func New(doc *document.Document) *Engine {
	return &Engine{doc: doc}
}

var (
	triggerable   = mustParse(".//tt:events/tl:par")
	modifiable    = mustParse(".//tl:par/tl:par")
	triggerParams = mustParse("./tt:parameters/tt:parameter")
	modifyParams  = mustParse("./tt:modparameters/tt:parameter")
)

func mustParse(s string) treepath.Path {
	p, err := treepath.Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// List describes all triggerable event templates, followed by all
// modifiable events, each in document order. Only elements carrying a
// tt:name are considered.
func (e *Engine) List() ([]Description, error) {
	var list []Description
	err := e.doc.View(func(tx *document.Tx) error {
		root := tx.Root()
		for _, n := range treepath.Resolve(root, triggerable) {
			if d, ok := describe(n, true); ok {
				list = append(list, d)
			}
		}
		for _, n := range treepath.Resolve(root, modifiable) {
			if d, ok := describe(n, false); ok {
				list = append(list, d)
			}
		}
		return nil
	})
	return list, err
}

func describe(n *tree.Node, trigger bool) (Description, bool) {
	name, ok := n.Attr(document.NameAttr)
	if !ok {
		return Description{}, false
	}
	d := Description{Name: name, Trigger: trigger, Modify: !trigger, Parameters: []ParameterDecl{}}
	d.ID, _ = n.Attr(document.IDAttr)
	d.Verb, _ = n.Attr("tt:verb")
	params := modifyParams
	if trigger {
		params = triggerParams
	}
	for _, p := range treepath.Resolve(n, params) {
		decl := ParameterDecl{}
		decl.Name, _ = p.Attr(document.NameAttr)
		decl.Parameter, _ = p.Attr("tt:parameter")
		decl.Type, _ = p.Attr("tt:type")
		decl.Value, _ = p.Attr("tt:value")
		d.Parameters = append(d.Parameters, decl)
	}
	return d, true
}

// Trigger instantiates the event template with the given id: a copy of
// the template, with fresh ids and parameters applied, is appended to the
// template's grandparent. Trigger returns the id of the new element.
func (e *Engine) Trigger(ctx context.Context, id string, params []Parameter) (newID string, err error) {
	err = e.doc.Edit(ctx, func(tx *document.Tx) error {
		tmpl, err := tx.ByID(id)
		if err != nil {
			return err
		}
		var target *tree.Node
		if parent := tx.Parent(tmpl); parent != nil {
			target = tx.Parent(parent)
		}
		if target == nil {
			return fmt.Errorf("%w: event %q has no grandparent", document.ErrNoParent, id)
		}
		clone := tree.Clone(tmpl)
		tx.Disambiguate(clone)
		for _, par := range params {
			n, attr, err := locate(clone, par)
			if err != nil {
				return err
			}
			n.SetAttr(attr, par.Value)
		}
		if _, err := tx.InsertAt(target, document.End, clone); err != nil {
			return err
		}
		newID, _ = clone.Attr(document.IDAttr)
		tracer().Infof("triggered event %q as %q", id, newID)
		return nil
	})
	return
}

// Modify applies parameters to the existing event with the given id.
// Each element touched by one or more parameters is changed exactly once.
func (e *Engine) Modify(ctx context.Context, id string, params []Parameter) error {
	return e.doc.Edit(ctx, func(tx *document.Tx) error {
		event, err := tx.ByID(id)
		if err != nil {
			return err
		}
		var touched []*tree.Node
		patches := make(map[*tree.Node]map[string]*string)
		for _, par := range params {
			n, attr, err := locate(event, par)
			if err != nil {
				return err
			}
			if _, ok := patches[n]; !ok {
				touched = append(touched, n)
				patches[n] = make(map[string]*string)
			}
			value := par.Value
			patches[n][attr] = &value
		}
		for _, n := range touched {
			if err := tx.PatchNode(n, patches[n]); err != nil {
				return err
			}
		}
		tracer().Debugf("modified %d elements of event %q", len(touched), id)
		return nil
	})
}

// locate finds the element and attribute a parameter refers to.
// If the parameter path matches more than one element, the first is used.
func locate(event *tree.Node, par Parameter) (*tree.Node, string, error) {
	if par.Parameter == "" {
		return nil, "", fmt.Errorf("%w: missing parameter", document.ErrBadParameter)
	}
	path, attr, err := treepath.ParseParameter(par.Parameter)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", document.ErrBadParameter, err)
	}
	if !document.KnownName(attr) {
		return nil, "", fmt.Errorf("%w: unknown namespace in attribute %q", document.ErrBadParameter, attr)
	}
	nodes := treepath.Resolve(event, path)
	if len(nodes) == 0 {
		return nil, "", fmt.Errorf("%w: no element matches %s", document.ErrBadParameter, path)
	}
	return nodes[0], attr, nil
}
