/*
Package tree implements the element tree of a live document.

A tree is made of mutable Nodes, each carrying a tag, a set of attributes,
an ordered list of children and optional character data (text and tail,
in the manner of XML element trees). Nodes do not know their parent. Owners
of a tree, like package document, maintain a separate parent index, which
keeps the ownership of nodes strictly hierarchical: no cycles, no shared
ownership.

Trees are read from and written to XML by ParseXML and ToXML. Qualified names
are kept literally, i.e. an element <tl:par xml:id="a"> carries tag "tl:par"
and an attribute "xml:id". Namespace declarations (xmlns:…) are ordinary
attributes. This keeps serialization stable across process boundaries, which
is important for forwarding edits to other processes.

Traversal

TopDown walks a (sub-)tree in document order, parents before children.
It is synchronous: trees are usually guarded by the lock of a document, and
tree operations must not escape that lock.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.tree'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.tree")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("livedoc.tree: "+msg, msgargs...)
		panic(msg)
	}
}
