/*
Package treepath computes and resolves structural addresses of tree nodes.

A structural address locates a node by tag and position, starting at the
root of a tree:

	/tl:document/tl:body[1]/tl:par[2]

The positional index of a step counts only siblings with the same tag and
is 1-based. Addresses are not stored on nodes. They are recomputed from the
parent relation whenever needed (see PathOf) and become stale after any
structural change to an ancestor's list of children.

Resolution is done relative to a synthetic wrapper node holding the root
element, so that absolute paths behave consistently even though the root
element has no parent. Steps without an index and the wildcard tag "*"
may match more than one node; it is up to clients to decide whether this
constitutes an error (package document treats it as an ambiguous path).

Relative paths are used to address nodes below a context node, e.g. for
event parameters:

	.                  the context node itself
	./tim:ref          child elements <tim:ref>
	tl:par[2]/tim:ref  children of the second <tl:par> child
	.//tim:ref         any descendant <tim:ref>

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package treepath

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.treepath'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.treepath")
}
