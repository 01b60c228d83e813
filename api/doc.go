/*
Package api exposes livedoc documents over HTTP.

Documents are kept in a registry and addressed by a ULID. All document
routes live below /api/v1/document/:docId and mirror the views of a
document: structural editing (xml), live events (events), preview serving
(serve) and replication from a leader (remote).

Errors are mapped to HTTP status codes: elements not found yield 404,
malformed or ambiguous requests yield 400, batches out of sequence yield
409, and violated document invariants yield 500.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package api

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.api'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.api")
}
