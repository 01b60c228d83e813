/*
Package treedbg implements helpers to debug an element tree.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package treedbg

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/npillmayer/livedoc/tree"
	"github.com/xlab/treeprint"
)

// Print outputs an indented diagram of a (sub-)tree. Each node is shown
// with its tag and attributes, character data is abbreviated.
//
//	<r>
//	├── <a xml:id="a1">
//	└── <b> "some text…"
func Print(n *tree.Node) string {
	if n == nil {
		return "<nil>\n"
	}
	printer := treeprint.NewWithRoot(label(n))
	addChildren(printer, n)
	return printer.String()
}

func addChildren(branch treeprint.Tree, n *tree.Node) {
	for _, ch := range n.Children() {
		if ch.ChildCount() == 0 {
			branch.AddNode(label(ch))
			continue
		}
		addChildren(branch.AddBranch(label(ch)), ch)
	}
}

// Log is a helper for testing. Given a tree node and a testing.T, it will
// write a diagram of the tree under n to the test log.
func Log(n *tree.Node, t *testing.T) {
	t.Helper()
	t.Logf("tree:\n%s", Print(n))
}

func label(n *tree.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	attrs := n.Attrs()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, attrs[k])
	}
	b.WriteByte('>')
	if s := strings.TrimSpace(n.Text); s != "" {
		fmt.Fprintf(&b, " %q", shortText(s))
	}
	return b.String()
}

func shortText(s string) string {
	const max = 24
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
