package treepath

import (
	"errors"
	"testing"

	"github.com/npillmayer/livedoc/tree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<tl:document xmlns:tl="http://jackjansen.nl/timelines">
<tl:par xml:id="p1"><tl:ref xml:id="r1"/></tl:par>
<tl:seq xml:id="s1"/>
<tl:par xml:id="p2"><tl:ref xml:id="r2"/><tl:ref xml:id="r3"/></tl:par>
</tl:document>`

func parse(t *testing.T) *tree.Node {
	root, err := tree.ParseXML([]byte(doc))
	require.NoError(t, err)
	return root
}

// parents builds a parent function by walking the tree.
func parents(root *tree.Node) ParentFunc {
	m := make(map[*tree.Node]*tree.Node)
	tree.TopDown(root, func(n, parent *tree.Node, _ int) bool {
		if parent != nil {
			m[n] = parent
		}
		return true
	})
	return func(n *tree.Node) *tree.Node { return m[n] }
}

func ids(nodes []*tree.Node) []string {
	var r []string
	for _, n := range nodes {
		id, _ := n.Attr("xml:id")
		r = append(r, id)
	}
	return r
}

func TestParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.treepath")
	defer teardown()
	//
	for _, tc := range []struct {
		in, out string
		abs     bool
		steps   int
	}{
		{"/tl:document/tl:par[2]", "/tl:document/tl:par[2]", true, 2},
		{"/tl:document[1]/*[3]", "/tl:document[1]/*[3]", true, 2},
		{".", ".", false, 0},
		{"./tl:ref", "./tl:ref", false, 1},
		{"tl:par[2]/tl:ref", "./tl:par[2]/tl:ref", false, 2},
		{".//tl:ref", ".//tl:ref", false, 1},
		{"//tl:ref", "//tl:ref", true, 1},
	} {
		p, err := Parse(tc.in)
		if err != nil {
			t.Errorf("unexpected error for %q: %v", tc.in, err)
			continue
		}
		assert.Equal(t, tc.abs, p.Absolute, tc.in)
		assert.Len(t, p.Steps, tc.steps, tc.in)
		assert.Equal(t, tc.out, p.String())
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "/", "/a/", "/a[0]", "/a[x]", "/a[1", "/a///b", "./", "/[1]"} {
		if _, err := Parse(in); !errors.Is(err, ErrSyntax) {
			t.Errorf("expected syntax error for %q, have %v", in, err)
		}
	}
}

func TestResolveAbsolute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.treepath")
	defer teardown()
	//
	root := parse(t)
	for path, expected := range map[string][]string{
		"/tl:document":                       {""},
		"/tl:document[1]":                    {""},
		"/tl:document/tl:par[1]":             {"p1"},
		"/tl:document/tl:par[2]":             {"p2"},
		"/tl:document/tl:par":                {"p1", "p2"},
		"/tl:document/tl:par[3]":             nil,
		"/tl:document/*[2]":                  {"s1"},
		"/tl:document/tl:par[2]/tl:ref[2]":   {"r3"},
		"/tl:document/tl:par/tl:ref":         {"r1", "r2", "r3"},
		"//tl:ref":                           {"r1", "r2", "r3"},
		"/tl:other":                          nil,
		"/tl:document/tl:seq[1]/tl:nothing":  nil,
	} {
		nodes, err := ResolveString(root, path)
		require.NoError(t, err)
		assert.Equal(t, expected, ids(nodes), path)
	}
}

func TestResolveRelative(t *testing.T) {
	root := parse(t)
	p2 := Resolve(root, mustParse(t, "/tl:document/tl:par[2]"))[0]
	assert.Equal(t, []*tree.Node{p2}, Resolve(p2, mustParse(t, ".")))
	assert.Equal(t, []string{"r2", "r3"}, ids(Resolve(p2, mustParse(t, "./tl:ref"))))
	assert.Equal(t, []string{"r3"}, ids(Resolve(p2, mustParse(t, "tl:ref[2]"))))
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(Resolve(root, mustParse(t, ".//tl:ref"))))
}

func TestPathOfRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.treepath")
	defer teardown()
	//
	root := parse(t)
	parentOf := parents(root)
	assert.Equal(t, "/tl:document", PathOf(root, parentOf))
	tree.TopDown(root, func(n, _ *tree.Node, _ int) bool {
		path := PathOf(n, parentOf)
		nodes, err := ResolveString(root, path)
		if err != nil || len(nodes) != 1 || nodes[0] != n {
			t.Errorf("path %q does not resolve back to %v", path, n)
		}
		return true
	})
	r3, _ := ResolveString(root, "/tl:document/tl:par[2]/tl:ref[2]")
	assert.Equal(t, "/tl:document/tl:par[2]/tl:ref[2]", PathOf(r3[0], parentOf))
}

func TestParseParameter(t *testing.T) {
	p, attr, err := ParseParameter("./tl:ref/@tic:url")
	require.NoError(t, err)
	assert.Equal(t, "tic:url", attr)
	assert.Equal(t, "./tl:ref", p.String())
	p, attr, err = ParseParameter("./@tl:dur")
	require.NoError(t, err)
	assert.True(t, p.IsSelf())
	assert.Equal(t, "tl:dur", attr)
	_, _, err = ParseParameter("./tl:ref")
	assert.ErrorIs(t, err, ErrSyntax)
	_, _, err = ParseParameter("/tl:document/@x")
	assert.ErrorIs(t, err, ErrSyntax)
}

func mustParse(t *testing.T, s string) Path {
	p, err := Parse(s)
	require.NoError(t, err)
	return p
}
