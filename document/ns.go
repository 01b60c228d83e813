package document

import "strings"

// Reserved attribute and element names.
const (
	IDAttr         = "xml:id"
	NameAttr       = "tt:name"
	GenerationAttr = "au:generation"
	RawLayoutTag   = "au:rawLayout"
)

// Namespaces maps the namespace prefixes known to livedoc documents to
// their URIs. Qualified names are kept literally in a document tree, so
// these prefixes are what clients use in paths and attribute names.
var Namespaces = map[string]string{
	"xml":     "http://www.w3.org/XML/1998/namespace",
	"tl":      "http://jackjansen.nl/timelines",
	"tls":     "http://jackjansen.nl/timelines/internal",
	"tlcheck": "http://jackjansen.nl/timelines/check",
	"tim":     "http://jackjansen.nl/2immerse",
	"tic":     "http://jackjansen.nl/2immerse/component",
	"tt":      "http://jackjansen.nl/2immerse/livetrigger",
	"au":      "http://jackjansen.nl/2immerse/authoring",
}

// KnownName is a predicate: is name either unqualified or qualified with
// a known namespace prefix?
func KnownName(name string) bool {
	prefix, local, qualified := strings.Cut(name, ":")
	if !qualified {
		return name != ""
	}
	_, ok := Namespaces[prefix]
	return ok && local != "" && !strings.Contains(local, ":")
}
