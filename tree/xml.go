package tree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrParse is returned for malformed serialized trees.
var ErrParse = errors.New("malformed XML")

// ParseXML reads a serialized tree and returns its root node.
// Input has to contain exactly one root element. Comments, processing
// instructions and directives are skipped.
func ParseXML(data []byte) (*Node, error) {
	return ReadXML(bytes.NewReader(data))
}

// ReadXML is like ParseXML, but reads from an io.Reader.
func ReadXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.RawToken() // raw: we keep prefixes literally
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("%w: more than one root element <%s>", ErrParse, qname(t.Name))
			}
			n := &Node{Tag: qname(t.Name)}
			for _, a := range t.Attr {
				n.SetAttr(qname(a.Name), a.Value)
			}
			if len(stack) == 0 {
				root = n
			} else {
				stack[len(stack)-1].AddChild(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end tag </%s>", ErrParse, qname(t.Name))
			}
			top := stack[len(stack)-1]
			if top.Tag != qname(t.Name) {
				return nil, fmt.Errorf("%w: element <%s> closed by </%s>", ErrParse, top.Tag, qname(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: character data outside of root element", ErrParse)
				}
				continue
			}
			top := stack[len(stack)-1]
			if top.ChildCount() == 0 {
				top.Text += string(t)
			} else {
				last := top.children[len(top.children)-1]
				last.Tail += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: element <%s> not closed", ErrParse, stack[len(stack)-1].Tag)
	}
	tracer().Debugf("parsed XML tree with %d nodes", Count(root))
	return root, nil
}

func qname(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// ToXML serializes the subtree rooted at n. Attributes are written in
// lexical order of their names, making the output deterministic.
// The tail of n belongs to the content of n's parent and is not written.
func ToXML(n *Node) []byte {
	var buf bytes.Buffer
	WriteXML(&buf, n)
	return buf.Bytes()
}

// WriteXML serializes the subtree rooted at n to a writer.
func WriteXML(w io.Writer, n *Node) error {
	var b strings.Builder
	writeNode(&b, n, false)
	_, err := io.WriteString(w, b.String())
	return err
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;",
	`"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")

func writeNode(b *strings.Builder, n *Node, withTail bool) {
	if n == nil {
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(n.attrs[k]))
		b.WriteByte('"')
	}
	if len(n.children) == 0 && n.Text == "" {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
		b.WriteString(textEscaper.Replace(n.Text))
		for _, ch := range n.children {
			writeNode(b, ch, true)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
	if withTail {
		b.WriteString(textEscaper.Replace(n.Tail))
	}
}
