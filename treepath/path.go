package treepath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/npillmayer/livedoc/tree"
)

// ErrSyntax is returned for malformed path expressions.
var ErrSyntax = errors.New("malformed path")

// Wildcard is the tag of a step matching elements of any tag.
const Wildcard = "*"

// Step is a single step of a path.
type Step struct {
	Tag        string // tag to match, or Wildcard
	Index      int    // 1-based position among matching siblings; 0 matches all
	Descendant bool   // step is preceded by '//': match at any depth
}

func (s Step) String() string {
	if s.Index == 0 {
		return s.Tag
	}
	return s.Tag + "[" + strconv.Itoa(s.Index) + "]"
}

// Path is a parsed path expression.
type Path struct {
	Absolute bool
	Steps    []Step
}

func (p Path) String() string {
	var b strings.Builder
	if !p.Absolute {
		b.WriteByte('.')
	}
	for _, s := range p.Steps {
		b.WriteByte('/')
		if s.Descendant {
			b.WriteByte('/')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// IsSelf is a predicate: does p address its context node?
func (p Path) IsSelf() bool {
	return !p.Absolute && len(p.Steps) == 0
}

// Parse parses an absolute or relative path expression.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrSyntax)
	}
	p := Path{}
	rest := s
	switch {
	case strings.HasPrefix(rest, "/"):
		p.Absolute = true
	case rest == ".":
		return p, nil
	case strings.HasPrefix(rest, "./"):
		rest = rest[1:]
	default:
		rest = "/" + rest
	}
	// rest now starts with '/', every step is introduced by '/' or '//'
	descendant := false
	segments := strings.Split(rest[1:], "/")
	for i, seg := range segments {
		if seg == "" {
			if descendant || i == len(segments)-1 {
				return Path{}, fmt.Errorf("%w: %q", ErrSyntax, s)
			}
			descendant = true
			continue
		}
		if seg == "." {
			if descendant {
				return Path{}, fmt.Errorf("%w: %q", ErrSyntax, s)
			}
			continue
		}
		step, err := parseStep(seg)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
		}
		step.Descendant = descendant
		descendant = false
		p.Steps = append(p.Steps, step)
	}
	if p.Absolute && len(p.Steps) == 0 {
		return Path{}, fmt.Errorf("%w: %q has no steps", ErrSyntax, s)
	}
	return p, nil
}

func parseStep(seg string) (Step, error) {
	tag, idx := seg, 0
	if open := strings.IndexByte(seg, '['); open >= 0 {
		if !strings.HasSuffix(seg, "]") {
			return Step{}, fmt.Errorf("unterminated index in step %q", seg)
		}
		tag = seg[:open]
		n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
		if err != nil || n < 1 {
			return Step{}, fmt.Errorf("index of step %q must be a number ≥ 1", seg)
		}
		idx = n
	}
	if tag == "" || strings.ContainsAny(tag, "[]@ \t\n") {
		return Step{}, fmt.Errorf("illegal tag in step %q", seg)
	}
	return Step{Tag: tag, Index: idx}, nil
}

// --- Resolution ------------------------------------------------------------

// Resolve resolves a path against the tree rooted at root. Absolute paths
// start at a synthetic wrapper node whose only child is root, relative paths
// start at root itself. Resolve returns all matching nodes in document order.
func Resolve(root *tree.Node, p Path) []*tree.Node {
	if root == nil {
		return nil
	}
	start := root
	if p.Absolute {
		start = tree.NewNode("").AddChild(root)
	}
	return walk([]*tree.Node{start}, p.Steps)
}

// ResolveString parses a path and resolves it against root.
func ResolveString(root *tree.Node, path string) ([]*tree.Node, error) {
	p, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return Resolve(root, p), nil
}

func walk(context []*tree.Node, steps []Step) []*tree.Node {
	for _, step := range steps {
		if step.Descendant {
			context = selfAndDescendants(context)
		}
		var next []*tree.Node
		for _, ctx := range context {
			next = append(next, matchChildren(ctx, step)...)
		}
		context = next
		if len(context) == 0 {
			break
		}
	}
	return context
}

func matchChildren(n *tree.Node, step Step) []*tree.Node {
	var matches []*tree.Node
	cnt := 0
	for _, ch := range n.Children() {
		if step.Tag != Wildcard && ch.Tag != step.Tag {
			continue
		}
		cnt++
		if step.Index == 0 {
			matches = append(matches, ch)
		} else if cnt == step.Index {
			return []*tree.Node{ch}
		}
	}
	return matches
}

func selfAndDescendants(context []*tree.Node) []*tree.Node {
	seen := make(map[*tree.Node]bool)
	var all []*tree.Node
	for _, ctx := range context {
		tree.TopDown(ctx, func(n, _ *tree.Node, _ int) bool {
			if seen[n] {
				return false // sub-tree already collected
			}
			seen[n] = true
			all = append(all, n)
			return true
		})
	}
	return all
}

// --- Serialization ---------------------------------------------------------

// ParentFunc returns the parent of a node, or nil for the root.
type ParentFunc func(*tree.Node) *tree.Node

// PathOf computes the structural address of n. It is the inverse of
// resolution: resolving the result against the root of n's tree yields n,
// as long as no structural change happens in between.
// The root is addressed as "/tag", all other nodes with an index.
func PathOf(n *tree.Node, parentOf ParentFunc) string {
	var steps []string
	for n != nil {
		parent := parentOf(n)
		if parent == nil {
			steps = append(steps, n.Tag)
			break
		}
		steps = append(steps, Step{Tag: n.Tag, Index: sameTagPosition(parent, n)}.String())
		n = parent
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}

func sameTagPosition(parent, n *tree.Node) int {
	pos := 0
	for _, ch := range parent.Children() {
		if ch.Tag == n.Tag {
			pos++
		}
		if ch == n {
			return pos
		}
	}
	tracer().Errorf("node %v is not a child of its indexed parent %v", n, parent)
	return 0
}

// --- Attribute parameters --------------------------------------------------

var findPathAttribute = regexp.MustCompile(`^(.+)/@([a-zA-Z0-9_\-.:]+)$`)

// ParseParameter splits a parameter expression of the form "path/@attr"
// into a relative path and an attribute name. The attribute name may be
// prefix-qualified ("tic:url").
func ParseParameter(expr string) (Path, string, error) {
	m := findPathAttribute.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Path{}, "", fmt.Errorf("%w: unsupported parameter expression %q", ErrSyntax, expr)
	}
	p, err := Parse(m[1])
	if err != nil {
		return Path{}, "", err
	}
	if p.Absolute {
		return Path{}, "", fmt.Errorf("%w: parameter path %q must be relative", ErrSyntax, m[1])
	}
	return p, m[2], nil
}
