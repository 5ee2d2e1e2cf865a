// Package kb implements the on-disk knowledge-base format (spec.md §6.2) and
// the IntTable / Relation data structures that every other layer of the
// miner is built on top of (spec.md §3.1, §4.1).
package kb

import "fmt"

// Record is a fixed-arity ordered tuple of constant numerations. All
// constants and relation symbols in a KB are small positive integers
// ("numerations"); a Record never mixes arities within one relation.
type Record []int32

// Equal reports whether two records hold the same values in the same
// positions. Arity mismatches are never expected within one relation, but
// are handled defensively since records may be compared across relations
// during counterexample generation.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	return fmt.Sprintf("%v", []int32(r))
}

// Clone returns an independent copy of the record, used only when a record
// must outlive the row matrix it was sliced from (e.g. a counterexample
// collected into a persistent set).
func (r Record) Clone() Record {
	c := make(Record, len(r))
	copy(c, r)
	return c
}
