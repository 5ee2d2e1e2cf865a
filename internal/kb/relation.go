package kb

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring/v2"
)

// DefaultMinConstantCoverage is the default threshold (spec.md §6.1 -c) below
// which a constant is not considered "promising" for a given column.
const DefaultMinConstantCoverage = 0.25

// Relation is a ground-fact relation: a symbol, an arity, an ordered
// sequence of records, and a per-record entailed bit (spec.md §3.1).
//
// The entailed bit vector uses a Roaring bitmap rather than a hand-rolled
// bit-packed array: it gives the same "1 bit per record" footprint the spec
// calls for (spec.md §5 "Memory") while also giving O(1) cardinality
// (totalEntailedRecords) and cheap set/clear, which a flat []uint64 would
// need helper arithmetic for on every call.
type Relation struct {
	Name  string
	ID    int
	Arity int

	records  []*Record
	entailed *roaring.Bitmap

	table *IntTable // lazily built, covers all records regardless of entailment

	promisingConstants [][]int32 // cached per-column; nil until first computed
	promisingCoverage  float64   // threshold promisingConstants was computed for

	posIndex map[*Record]int // lazily built identity -> slice position
}

// NewRelation builds a relation from a fully materialized record set. All
// records start non-entailed.
func NewRelation(name string, id int, arity int, records []*Record) *Relation {
	return &Relation{
		Name:     name,
		ID:       id,
		Arity:    arity,
		records:  records,
		entailed: roaring.New(),
	}
}

func (r *Relation) NumRecords() int { return len(r.records) }

func (r *Relation) Records() []*Record { return r.records }

// Table returns (building lazily) an IntTable over all of this relation's
// records, irrespective of entailment.
func (r *Relation) Table() *IntTable {
	if r.table == nil {
		r.table = NewIntTable(r.records, r.Arity)
	}
	return r.table
}

// index finds the position of rec in r.records by identity. Records handed
// back by Relation methods are always the same pointers stored in
// r.records, so pointer equality is sufficient and avoids a value scan.
func (r *Relation) index(rec *Record) int {
	if r.posIndex == nil {
		r.posIndex = make(map[*Record]int, len(r.records))
		for i, x := range r.records {
			r.posIndex[x] = i
		}
	}
	if i, ok := r.posIndex[rec]; ok {
		return i
	}
	return -1
}

// SetAsEntailed marks rec (by identity) as entailed, if present.
func (r *Relation) SetAsEntailed(rec *Record) {
	if i := r.index(rec); i >= 0 {
		r.entailed.Add(uint32(i))
	}
}

// SetAsNotEntailed clears the entailed bit for rec (by identity), if present.
func (r *Relation) SetAsNotEntailed(rec *Record) {
	if i := r.index(rec); i >= 0 {
		r.entailed.Remove(uint32(i))
	}
}

// IsEntailed reports whether rec (by identity) is marked entailed.
func (r *Relation) IsEntailed(rec *Record) bool {
	if i := r.index(rec); i >= 0 {
		return r.entailed.Contains(uint32(i))
	}
	return false
}

// EntailIfNot marks rec as entailed and returns true, unless it was already
// entailed, in which case it returns false. This is the primitive used by
// CachedRule.GetEvidenceAndMarkEntailment (spec.md §4.4): only newly
// entailed facts produce groundings.
func (r *Relation) EntailIfNot(rec *Record) bool {
	i := r.index(rec)
	if i < 0 {
		return false
	}
	if r.entailed.Contains(uint32(i)) {
		return false
	}
	r.entailed.Add(uint32(i))
	return true
}

// TotalEntailedRecords returns the number of records currently marked
// entailed.
func (r *Relation) TotalEntailedRecords() int {
	return int(r.entailed.GetCardinality())
}

// SplitByEntailment partitions the relation's records into entailed and
// non-entailed subsets, used to seed the T and E⁺ caches respectively when a
// CachedRule is initialized for this relation as a target (spec.md §4.4,
// recovered from the original's SplitRecords, see SPEC_FULL.md §C.1).
func (r *Relation) SplitByEntailment() (entailed, nonEntailed []*Record) {
	for i, rec := range r.records {
		if r.entailed.Contains(uint32(i)) {
			entailed = append(entailed, rec)
		} else {
			nonEntailed = append(nonEntailed, rec)
		}
	}
	return entailed, nonEntailed
}

// PromisingConstants returns, per column, the constants whose relative
// frequency in that column is at least minCoverage (spec.md §4.6 case 5,
// GLOSSARY "Promising constant"), in ascending numeration order. The result
// is cached on first call with a
// given threshold; later calls with the same threshold reuse it, matching
// the original's "computed once per relation" behavior (SPEC_FULL.md §C.2).
func (r *Relation) PromisingConstants(minCoverage float64) [][]int32 {
	if r.promisingConstants != nil && r.promisingCoverage == minCoverage {
		return r.promisingConstants
	}
	r.promisingCoverage = minCoverage
	total := len(r.records)
	result := make([][]int32, r.Arity)
	if total == 0 {
		r.promisingConstants = result
		return result
	}
	for c := 0; c < r.Arity; c++ {
		counts := make(map[int32]int)
		for _, rec := range r.records {
			counts[(*rec)[c]]++
		}
		var promising []int32
		for v, n := range counts {
			if float64(n)/float64(total) >= minCoverage {
				promising = append(promising, v)
			}
		}
		sort.Slice(promising, func(i, j int) bool { return promising[i] < promising[j] })
		result[c] = promising
	}
	r.promisingConstants = result
	return result
}

// ReplaceRecords swaps in a new record set and resets every cache derived
// from the old one. Used when dumping a compressed residual KB, whose
// relations keep only the facts a feedback-vertex-set selection needs
// (spec.md §4.8) rather than every original record.
func (r *Relation) ReplaceRecords(records []*Record) {
	r.records = records
	r.entailed = roaring.New()
	r.table = nil
	r.promisingConstants = nil
	r.posIndex = nil
}

// Contains reports whether rec's values are present verbatim in the
// relation (used by counterexample generation, spec.md §4.4).
func (r *Relation) Contains(rec Record) bool {
	for _, x := range r.records {
		if Record(*x).Equal(rec) {
			return true
		}
	}
	return false
}
