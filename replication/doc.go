/*
Package replication forwards committed edit batches to follower documents.

A Forwarder is attached to a leader document. After each edit session the
document hands the resulting batch to the forwarder, outside of the
document lock. The forwarder delivers the batch to all subscribed follower
endpoints concurrently. A subscriber whose delivery fails is dropped from
the subscriber list; delivery to the other subscribers is not affected,
and failures are never reported back to the editing client. There is no
retry.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package replication

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.replication'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.replication")
}
