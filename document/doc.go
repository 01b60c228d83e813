/*
Package document implements a shared, mutable authoring document.

A Document owns an element tree together with a set of derived indices
(parent-of, element ids and element names) and serializes every access to
them with a single lock. Clients operate on a document through transactions:

	err := doc.Edit(ctx, func(tx *document.Tx) error {
	    path, err := tx.Paste("/tl:document/tl:body[1]", document.End, snippet)
	    ...
	})

Transaction functions run with the document lock held and may call any
number of Tx operations; they must not call back into the Document itself.
Composite operations like moving a subtree are therefore a single
transaction and will be recorded as a single batch of edit commands.

If a Forwarder is attached to a document, every structural mutation made
inside Edit is recorded as a replayable Command. When the transaction
returns, the recorded commands are committed, the document's generation is
incremented and the resulting Batch is handed to the forwarder after the
document lock has been released. Followers replay batches with Apply.

Reserved attributes are "xml:id" (element identity, unique within a
document), "tt:name" (display name of event templates, not unique) and
"au:generation" (generation counter, on the root element).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package document

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.document'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.document")
}

// assertThat panics with an internal consistency error if cond is false.
// It guards index invariants whose violation is a programming error.
func assertThat(cond bool, msg string, msgargs ...interface{}) {
	if !cond {
		panic(&InternalConsistencyError{Msg: fmt.Sprintf(msg, msgargs...)})
	}
}
