/*
Package serve provides the preview-facing view of a document: timeline and
layout retrieval, layout storage, and registration of follower documents.

At the moment, the timeline is the whole authoring document, and the layout
is stored as raw JSON text in an au:rawLayout element below the root.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package serve

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.serve'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.serve")
}
