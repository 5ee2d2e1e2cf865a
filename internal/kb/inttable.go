package kb

import "sort"

// IntTable is an immutable, sorted row-set over fixed-arity Records with a
// lazily-built per-column index. It is the leaf data structure of the whole
// miner (spec.md §2, §4.1): CompliedBlocks wrap row subsets of a relation
// in one of these, and CacheFragment entries join on the indices it
// provides.
//
// All slice-returning methods hand back views over the shared row pointers
// of the underlying column index rather than copies of the records
// themselves — only the *Record pointers are ever reordered.
type IntTable struct {
	rows  []*Record
	arity int

	// colIndex[c] is rows sorted by value at column c. Built lazily: an
	// un-queried column never pays the sort cost (this mirrors the CB
	// discipline in spec.md §4.2 of only building indices right before a
	// fragment mutation needs them).
	colIndex [][]*Record
}

// NewIntTable builds a table over rows, all of which must share arity.
// Ownership of the row pointers is shared with the caller; IntTable never
// mutates a *Record in place.
func NewIntTable(rows []*Record, arity int) *IntTable {
	return &IntTable{rows: rows, arity: arity, colIndex: make([][]*Record, arity)}
}

func (t *IntTable) Arity() int     { return t.arity }
func (t *IntTable) NumRows() int   { return len(t.rows) }
func (t *IntTable) Rows() []*Record { return t.rows }

// ensureColumn builds (idempotently) the sorted index for column c.
func (t *IntTable) ensureColumn(c int) []*Record {
	if t.colIndex[c] != nil {
		return t.colIndex[c]
	}
	sorted := make([]*Record, len(t.rows))
	copy(sorted, t.rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return (*sorted[i])[c] < (*sorted[j])[c]
	})
	t.colIndex[c] = sorted
	return sorted
}

// BuildIndices eagerly materializes every column's sorted index. It is
// idempotent: calling it twice produces byte-identical column orderings
// (spec.md §8 round-trip property), since ensureColumn only ever sorts once
// and subsequent calls are no-ops.
func (t *IntTable) BuildIndices() {
	for c := 0; c < t.arity; c++ {
		t.ensureColumn(c)
	}
}

// GetSlice returns the maximal contiguous subset of rows whose value at
// column c equals value, or an empty slice if none match.
func (t *IntTable) GetSlice(c int, value int32) []*Record {
	idx := t.ensureColumn(c)
	lo := sort.Search(len(idx), func(i int) bool { return (*idx[i])[c] >= value })
	hi := sort.Search(len(idx), func(i int) bool { return (*idx[i])[c] > value })
	if lo >= hi {
		return nil
	}
	return idx[lo:hi]
}

// SplitSlices partitions all rows into maximal contiguous groups of equal
// value at column c, in ascending value order.
func (t *IntTable) SplitSlices(c int) [][]*Record {
	idx := t.ensureColumn(c)
	var groups [][]*Record
	start := 0
	for i := 1; i <= len(idx); i++ {
		if i == len(idx) || (*idx[i])[c] != (*idx[start])[c] {
			groups = append(groups, idx[start:i])
			start = i
		}
	}
	return groups
}

// MatchSlices partitions the rows where the value at col1 equals the value
// at col2 (a self equi-join on two columns of the same table), grouped by
// the shared value. Rows where the two columns disagree are excluded.
func (t *IntTable) MatchSlices(col1, col2 int) [][]*Record {
	idx := t.ensureColumn(col1)
	var matched []*Record
	for _, r := range idx {
		if (*r)[col1] == (*r)[col2] {
			matched = append(matched, r)
		}
	}
	var groups [][]*Record
	start := 0
	for i := 1; i <= len(matched); i++ {
		if i == len(matched) || (*matched[i])[col1] != (*matched[start])[col1] {
			groups = append(groups, matched[start:i])
			start = i
		}
	}
	return groups
}

// SlicePair is one aligned pair of row slices produced by a two-table
// equi-join, one slice from each side, both sharing the join value.
type SlicePair struct {
	Value int32
	Self  []*Record
	Other []*Record
}

// MatchSlicesWith joins this table (on selfCol) against another table (on
// otherCol), returning one SlicePair per value present in both tables' sorted
// column indices — a classic sorted merge-join.
func (t *IntTable) MatchSlicesWith(selfCol int, other *IntTable, otherCol int) []SlicePair {
	selfGroups := t.SplitSlices(selfCol)
	otherGroups := other.SplitSlices(otherCol)
	var pairs []SlicePair
	i, j := 0, 0
	for i < len(selfGroups) && j < len(otherGroups) {
		sv := (*selfGroups[i][0])[selfCol]
		ov := (*otherGroups[j][0])[otherCol]
		switch {
		case sv == ov:
			pairs = append(pairs, SlicePair{Value: sv, Self: selfGroups[i], Other: otherGroups[j]})
			i++
			j++
		case sv < ov:
			i++
		default:
			j++
		}
	}
	return pairs
}
