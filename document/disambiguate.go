package document

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/npillmayer/livedoc/tree"
)

var (
	findIDIndex   = regexp.MustCompile(`^(.+)-([0-9]+)$`)
	findNameIndex = regexp.MustCompile(`^(.+) \(([0-9]+)\)$`)
)

// disambiguate rewrites ids and the root name of a detached clone, so that
// linking it into the tree will not collide with existing elements.
// Ids "base-N" are counted up to "base-N+1", other ids get a suffix "-1".
// Names are counted up as "base (N)".
func (ix *indexSet) disambiguate(clone *tree.Node) {
	used := make(map[string]bool)
	tree.TopDown(clone, func(n, _ *tree.Node, _ int) bool {
		id, ok := n.Attr(IDAttr)
		if !ok {
			return true
		}
		orig := id
		for ix.ids[id] != nil || used[id] {
			id = nextCounted(id, findIDIndex, "%s-%d", "-1")
		}
		used[id] = true
		if id != orig {
			tracer().Debugf("disambiguated id %q → %q", orig, id)
			n.SetAttr(IDAttr, id)
		}
		return true
	})
	if name, ok := clone.Attr(NameAttr); ok {
		orig := name
		for ix.hasName(name) {
			name = nextCounted(name, findNameIndex, "%s (%d)", " (1)")
		}
		if name != orig {
			clone.SetAttr(NameAttr, name)
		}
	}
}

func nextCounted(s string, pattern *regexp.Regexp, format string, suffix string) string {
	if m := pattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			return fmt.Sprintf(format, m[1], n+1)
		}
	}
	return s + suffix
}
