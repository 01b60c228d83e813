/*
Package events implements live triggering of event templates.

Event templates are elements carrying a tt:name, placed in a container
below the element they are to be instantiated in:

	<tl:par xml:id="live">                      grandparent: target of clones
	  <tt:events>
	    <tl:par xml:id="goal" tt:name="Goal">   template
	      <tt:parameters>
	        <tt:parameter tt:name="Player" tt:parameter="./tl:ref/@tic:player"/>
	      </tt:parameters>
	      <tl:ref .../>
	    </tl:par>
	  </tt:events>
	</tl:par>

Triggering a template appends a disambiguated copy of it to the
template's grandparent, with parameter values applied to the copy.
Modifying applies parameter values to an existing element in place.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package events

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'livedoc.events'.
func tracer() tracing.Trace {
	return tracing.Select("livedoc.events")
}
