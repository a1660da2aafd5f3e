// Package doorplacement plugs the evacuation simulator into the generic
// multi-objective algorithms: a gene selects which candidate doors of a base
// map are open.
package doorplacement

import (
	"strings"
)

// Gene has one bit per candidate door of the base map.
type Gene []bool

// Key returns the canonical "0101" form of g.
func (g Gene) Key() string {
	var b strings.Builder
	b.Grow(len(g))
	for _, bit := range g {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Count returns the number of open doors.
func (g Gene) Count() int {
	n := 0
	for _, bit := range g {
		if bit {
			n++
		}
	}
	return n
}

// ParseGene reads the Key form back. Any rune other than '1' is a closed door.
func ParseGene(s string) Gene {
	g := make(Gene, len(s))
	for i := range len(s) {
		g[i] = s[i] == '1'
	}
	return g
}
