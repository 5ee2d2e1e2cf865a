// Package fragment implements CacheFragment (spec.md §3.4, §4.3): a
// partially-assigned sub-rule together with its materialized join result —
// an ordered list of entries, each entry one tuple of CBs (one per
// predicate template) whose rows are mutually consistent with every LV/
// constant constraint currently encoded in the templates.
package fragment

import (
	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

// VarInfo locates an LV bound inside a fragment: which template and column
// first bound it, and whether it is currently a PLV (spec.md §3.4).
type VarInfo struct {
	TabIdx int
	ColIdx int
	IsPLV  bool
}

// Entry is one tuple of CBs, one per template, representing one class of
// mutually-consistent row groups across templates (GLOSSARY "Entry").
type Entry []*cb.CB

// clone returns a shallow copy of an entry (new backing slice, same CB
// pointers) so callers can replace individual slots without mutating the
// original.
func (e Entry) clone() Entry {
	c := make(Entry, len(e))
	copy(c, e)
	return c
}

// Fragment is a CacheFragment: an ordered list of predicate templates plus
// their materialized entries and the LV bookkeeping needed to apply further
// specialization cases to it.
type Fragment struct {
	Templates []*predicate.Predicate
	Entries   []Entry
	VarInfo   map[int]VarInfo

	pool *cb.Pool
}

// New creates an empty fragment bound to pool (the process-wide CB pool for
// the target relation currently being mined).
func New(pool *cb.Pool) *Fragment {
	return &Fragment{VarInfo: make(map[int]VarInfo), pool: pool}
}

// NewSingleTemplate creates a fragment with one template and one entry
// covering every row of rows (used to seed E, E⁺, and T from a relation's
// full, non-entailed, or entailed record sets respectively).
func NewSingleTemplate(pool *cb.Pool, tmpl *predicate.Predicate, rows []*kb.Record) *Fragment {
	f := New(pool)
	f.Templates = []*predicate.Predicate{tmpl}
	if len(rows) > 0 {
		f.Entries = []Entry{{pool.Get(rows, tmpl.Arity)}}
	}
	return f
}

// Clone returns a deep-enough copy for copy-on-write mutation: new
// Templates/Entries/VarInfo containers, but CBs (and the rows they wrap)
// remain shared with the original, matching spec.md §3.5's copy-on-write
// cache discipline.
func (f *Fragment) Clone() *Fragment {
	tmpls := make([]*predicate.Predicate, len(f.Templates))
	for i, t := range f.Templates {
		tmpls[i] = t.Clone()
	}
	entries := make([]Entry, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = e.clone()
	}
	vi := make(map[int]VarInfo, len(f.VarInfo))
	for k, v := range f.VarInfo {
		vi[k] = v
	}
	return &Fragment{Templates: tmpls, Entries: entries, VarInfo: vi, pool: f.pool}
}

// IsEmpty reports whether the fragment currently proves nothing (zero
// entries) — per spec.md §4.3, the owning cache must clear entirely in that
// case.
func (f *Fragment) IsEmpty() bool {
	return len(f.Entries) == 0
}

// valueAt reads the column value recorded for a non-PLV LV from one entry,
// relying on the join-semantics invariant (spec.md §3.4) that every row in
// the bound CB agrees on that column.
func valueAt(e Entry, info VarInfo) int32 {
	return (*e[info.TabIdx].Rows()[0])[info.ColIdx]
}

// splitEntryByEquality expands one entry into zero or more entries whose
// rows additionally satisfy value agreement between (tabIdx1,col1) and
// (tabIdx2,col2). When the two locations are in the same CB this is a
// within-table match (IntTable.MatchSlices); otherwise it's a sorted
// merge-join between the two CBs (IntTable.MatchSlicesWith). This is the
// primitive behind cases 1a (demotion split), 2a, 1c and 2c.
func splitEntryByEquality(pool *cb.Pool, e Entry, tabIdx1, col1, tabIdx2, col2 int) []Entry {
	if tabIdx1 == tabIdx2 {
		groups := e[tabIdx1].Index().MatchSlices(col1, col2)
		out := make([]Entry, 0, len(groups))
		for _, g := range groups {
			ne := e.clone()
			ne[tabIdx1] = pool.Get(g, e[tabIdx1].Arity())
			out = append(out, ne)
		}
		return out
	}
	pairs := e[tabIdx1].Index().MatchSlicesWith(col1, e[tabIdx2].Index(), col2)
	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		ne := e.clone()
		ne[tabIdx1] = pool.Get(p.Self, e[tabIdx1].Arity())
		ne[tabIdx2] = pool.Get(p.Other, e[tabIdx2].Arity())
		out = append(out, ne)
	}
	return out
}

// Case1a binds an EMPTY argument at (predIdx,argIdx) to LV v. If v already
// has a recorded occurrence in this fragment — whether still a PLV or
// already demoted — every entry is split by equality between the existing
// occurrence and the new one (spec.md §4.3's "match_slices" demotion, which
// applies identically to any later occurrence since splitting on agreement
// is idempotent). If this is the first occurrence of v in the fragment, it
// is simply recorded as a PLV.
func (f *Fragment) Case1a(predIdx, argIdx, v int) {
	f.Templates[predIdx].Args[argIdx] = predicate.VarArg(v)

	info, known := f.VarInfo[v]
	if !known {
		f.VarInfo[v] = VarInfo{TabIdx: predIdx, ColIdx: argIdx, IsPLV: true}
		return
	}
	var next []Entry
	for _, e := range f.Entries {
		next = append(next, splitEntryByEquality(f.pool, e, info.TabIdx, info.ColIdx, predIdx, argIdx)...)
	}
	f.Entries = next
	f.VarInfo[v] = VarInfo{TabIdx: info.TabIdx, ColIdx: info.ColIdx, IsPLV: false}
}

// Case1b appends a new template whose only non-empty argument (argIdx) is
// bound to an existing LV v. If v is still a PLV in this fragment, its
// occurrences here are not yet fixed per entry, so each entry's PLV column
// is split by distinct value first (the same demotion-via-split technique
// Case1a uses) before joining that value against allRows; v then becomes
// non-PLV, now fixed by this new occurrence. If v is already non-PLV, each
// entry already carries one fixed value to join directly.
func (f *Fragment) Case1b(tmpl *predicate.Predicate, allRows *kb.IntTable, argIdx, v int) {
	info := f.VarInfo[v]
	tmpl = tmpl.Clone()
	tmpl.Args[argIdx] = predicate.VarArg(v)
	newTabIdx := len(f.Templates)
	f.Templates = append(f.Templates, tmpl)

	var next []Entry
	if info.IsPLV {
		for _, e := range f.Entries {
			groups := e[info.TabIdx].Index().SplitSlices(info.ColIdx)
			for _, g := range groups {
				val := (*g[0])[info.ColIdx]
				slice := allRows.GetSlice(argIdx, val)
				if len(slice) == 0 {
					continue
				}
				ne := make(Entry, newTabIdx+1)
				copy(ne, e)
				ne[info.TabIdx] = f.pool.Get(g, e[info.TabIdx].Arity())
				ne[newTabIdx] = f.pool.Get(slice, tmpl.Arity)
				next = append(next, ne)
			}
		}
	} else {
		for _, e := range f.Entries {
			val := valueAt(e, info)
			slice := allRows.GetSlice(argIdx, val)
			if len(slice) == 0 {
				continue
			}
			ne := make(Entry, len(e)+1)
			copy(ne, e)
			ne[newTabIdx] = f.pool.Get(slice, tmpl.Arity)
			next = append(next, ne)
		}
	}
	f.Entries = next
	f.VarInfo[v] = VarInfo{TabIdx: info.TabIdx, ColIdx: info.ColIdx, IsPLV: false}
}

// Case1c merges other into f by binding an EMPTY argument in other (at
// otherPredIdx, otherArgIdx) to LV v, which must already be a (PLV or
// non-PLV) LV of f. Every entry of f is paired, for the shared value of v,
// with every entry of other split by that column (other has not seen v
// before, so its column may hold several distinct values per CB and must be
// split via split_slices before joining).
func (f *Fragment) Case1c(other *Fragment, otherPredIdx, otherArgIdx, v int) {
	info := f.VarInfo[v]
	byValue := make(map[int32][]Entry)
	for _, e := range f.Entries {
		if info.IsPLV {
			for _, g := range e[info.TabIdx].Index().SplitSlices(info.ColIdx) {
				val := (*g[0])[info.ColIdx]
				ne := e.clone()
				ne[info.TabIdx] = f.pool.Get(g, e[info.TabIdx].Arity())
				byValue[val] = append(byValue[val], ne)
			}
			continue
		}
		val := valueAt(e, info)
		byValue[val] = append(byValue[val], e)
	}

	shift := len(f.Templates)
	other.Templates[otherPredIdx].Args[otherArgIdx] = predicate.VarArg(v)

	var merged []Entry
	for _, oe := range other.Entries {
		groups := oe[otherPredIdx].Index().SplitSlices(otherArgIdx)
		for _, g := range groups {
			val := (*g[0])[otherArgIdx]
			fEntries, ok := byValue[val]
			if !ok {
				continue
			}
			ne := oe.clone()
			ne[otherPredIdx] = f.pool.Get(g, oe[otherPredIdx].Arity())
			for _, fe := range fEntries {
				combined := make(Entry, 0, len(fe)+len(ne))
				combined = append(combined, fe...)
				combined = append(combined, ne...)
				merged = append(merged, combined)
			}
		}
	}

	f.Templates = append(f.Templates, other.Templates...)
	f.Entries = merged
	for id, oi := range other.VarInfo {
		if id == v {
			continue
		}
		f.VarInfo[id] = VarInfo{TabIdx: oi.TabIdx + shift, ColIdx: oi.ColIdx, IsPLV: oi.IsPLV}
	}
	f.VarInfo[v] = VarInfo{TabIdx: info.TabIdx, ColIdx: info.ColIdx, IsPLV: false}
}

// Case2a creates a fresh LV v from two EMPTY arguments already inside this
// fragment, splitting every entry by equality between the two locations.
func (f *Fragment) Case2a(predIdx1, argIdx1, predIdx2, argIdx2, v int) {
	f.Templates[predIdx1].Args[argIdx1] = predicate.VarArg(v)
	f.Templates[predIdx2].Args[argIdx2] = predicate.VarArg(v)

	var next []Entry
	for _, e := range f.Entries {
		next = append(next, splitEntryByEquality(f.pool, e, predIdx1, argIdx1, predIdx2, argIdx2)...)
	}
	f.Entries = next
	f.VarInfo[v] = VarInfo{TabIdx: predIdx1, ColIdx: argIdx1, IsPLV: false}
}

// Case2b appends a new template and creates a fresh LV v shared between an
// EMPTY argument in the new template (newArgIdx) and an existing EMPTY
// argument in this fragment (predIdx2,argIdx2). Because both sides are
// unbound, f's side must first be split by distinct value before joining
// against the new relation's rows.
func (f *Fragment) Case2b(tmpl *predicate.Predicate, allRows *kb.IntTable, newArgIdx, predIdx2, argIdx2, v int) {
	tmpl = tmpl.Clone()
	tmpl.Args[newArgIdx] = predicate.VarArg(v)
	newTabIdx := len(f.Templates)
	f.Templates = append(f.Templates, tmpl)
	f.Templates[predIdx2].Args[argIdx2] = predicate.VarArg(v)

	var next []Entry
	for _, e := range f.Entries {
		groups := e[predIdx2].Index().SplitSlices(argIdx2)
		for _, g := range groups {
			val := (*g[0])[argIdx2]
			slice := allRows.GetSlice(newArgIdx, val)
			if len(slice) == 0 {
				continue
			}
			ne := make(Entry, newTabIdx+1)
			copy(ne, e)
			ne[predIdx2] = f.pool.Get(g, e[predIdx2].Arity())
			ne[newTabIdx] = f.pool.Get(slice, tmpl.Arity)
			next = append(next, ne)
		}
	}
	f.Entries = next
	f.VarInfo[v] = VarInfo{TabIdx: predIdx2, ColIdx: argIdx2, IsPLV: false}
}

// Case2c merges two fragments via a fresh LV anchored by an EMPTY argument
// in each, splitting both sides by distinct value before the join.
func (f *Fragment) Case2c(predIdx1, argIdx1 int, other *Fragment, otherPredIdx, argIdx2, v int) {
	f.Templates[predIdx1].Args[argIdx1] = predicate.VarArg(v)
	other.Templates[otherPredIdx].Args[argIdx2] = predicate.VarArg(v)
	shift := len(f.Templates)

	byValue := make(map[int32][]Entry)
	for _, e := range f.Entries {
		groups := e[predIdx1].Index().SplitSlices(argIdx1)
		for _, g := range groups {
			val := (*g[0])[argIdx1]
			ne := e.clone()
			ne[predIdx1] = f.pool.Get(g, e[predIdx1].Arity())
			byValue[val] = append(byValue[val], ne)
		}
	}

	var merged []Entry
	for _, oe := range other.Entries {
		groups := oe[otherPredIdx].Index().SplitSlices(argIdx2)
		for _, g := range groups {
			val := (*g[0])[argIdx2]
			fEntries, ok := byValue[val]
			if !ok {
				continue
			}
			ne := oe.clone()
			ne[otherPredIdx] = f.pool.Get(g, oe[otherPredIdx].Arity())
			for _, fe := range fEntries {
				combined := make(Entry, 0, len(fe)+len(ne))
				combined = append(combined, fe...)
				combined = append(combined, ne...)
				merged = append(merged, combined)
			}
		}
	}

	f.Templates = append(f.Templates, other.Templates...)
	f.Entries = merged
	f.VarInfo[v] = VarInfo{TabIdx: predIdx1, ColIdx: argIdx1, IsPLV: false}
	for id, oi := range other.VarInfo {
		if id == v {
			continue
		}
		f.VarInfo[id] = VarInfo{TabIdx: oi.TabIdx + shift, ColIdx: oi.ColIdx, IsPLV: oi.IsPLV}
	}
}

// combo is a partial variable assignment built up while enumerating one
// entry's combinations.
type combo map[int]int32

func (c combo) clone() combo {
	nc := make(combo, len(c))
	for k, v := range c {
		nc[k] = v
	}
	return nc
}

// EnumerateCombinations returns every distinct value tuple (in vids order)
// reachable across all entries: for each entry, non-PLV ids contribute
// their single fixed value, and PLV ids contribute the Cartesian product of
// per-table tuples drawn row-by-row from the relevant CB (spec.md §4.3
// "count_combinations / enumerate_combinations"). Results are deduplicated
// across entries.
func (f *Fragment) EnumerateCombinations(vids []int) [][]int32 {
	seen := make(map[string]bool)
	var result [][]int32

	for _, e := range f.Entries {
		base := combo{}
		plvByTable := make(map[int][]struct {
			vid int
			col int
		})
		for _, v := range vids {
			info := f.VarInfo[v]
			if !info.IsPLV {
				base[v] = valueAt(e, info)
			} else {
				plvByTable[info.TabIdx] = append(plvByTable[info.TabIdx], struct {
					vid int
					col int
				}{v, info.ColIdx})
			}
		}

		combos := []combo{base}
		for tab, cols := range plvByTable {
			var tuples []combo
			for _, row := range e[tab].Rows() {
				t := combo{}
				for _, vc := range cols {
					t[vc.vid] = (*row)[vc.col]
				}
				tuples = append(tuples, t)
			}
			var next []combo
			for _, c := range combos {
				for _, t := range tuples {
					merged := c.clone()
					for k, v := range t {
						merged[k] = v
					}
					next = append(next, merged)
				}
			}
			combos = next
		}

		for _, c := range combos {
			tuple := make([]int32, len(vids))
			for i, v := range vids {
				tuple[i] = c[v]
			}
			key := tupleKey(tuple)
			if !seen[key] {
				seen[key] = true
				result = append(result, tuple)
			}
		}
	}
	return result
}

// CountCombinations returns len(EnumerateCombinations(vids)) without
// retaining every tuple, for callers that only need the count (spec.md §8's
// round-trip property: count_combinations(vids) == |enumerate_combinations(vids)|).
func (f *Fragment) CountCombinations(vids []int) int {
	return len(f.EnumerateCombinations(vids))
}

func tupleKey(tuple []int32) string {
	b := make([]byte, 0, len(tuple)*5)
	for _, v := range tuple {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), ',')
	}
	return string(b)
}

// Case3 binds an EMPTY argument to a constant, slicing each entry's target
// CB by that column value and dropping entries that become empty.
func (f *Fragment) Case3(predIdx, argIdx int, constant int32) {
	f.Templates[predIdx].Args[argIdx] = predicate.ConstArg(constant)

	var next []Entry
	for _, e := range f.Entries {
		slice := e[predIdx].Index().GetSlice(argIdx, constant)
		if len(slice) == 0 {
			continue
		}
		ne := e.clone()
		ne[predIdx] = f.pool.Get(slice, e[predIdx].Arity())
		next = append(next, ne)
	}
	f.Entries = next
}
