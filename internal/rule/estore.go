package rule

import (
	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/fragment"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

// Fetcher lazily supplies a body predicate's template and the full row set
// of its relation, used only the first time that body index is touched by
// E (spec.md §4.4: "E starts empty").
type Fetcher func(bodyIdx int) (*predicate.Predicate, []*kb.Record)

// EStore is the "E (all-body)" cache of spec.md §4.3/§5: a list of
// independent CacheFragments over body predicates only, partitioned by
// connectivity. Unlike EPlus/T (which always track one coherent
// head-anchored fragment), body predicates here start as singleton
// fragments the first time a specialization touches them, and merge (via
// Fragment.Case1c/Case2c) only once a specialization links two previously
// unconnected predicates.
type EStore struct {
	pool *cb.Pool

	components    map[int]*fragment.Fragment
	nextComponent int
	predComponent map[int]int // rule body index -> component id
	predLocalIdx  map[int]int // rule body index -> template index within its component
}

func NewEStore(pool *cb.Pool) *EStore {
	return &EStore{
		pool:          pool,
		components:    make(map[int]*fragment.Fragment),
		predComponent: make(map[int]int),
		predLocalIdx:  make(map[int]int),
	}
}

// Clone deep-copies the store's bookkeeping and every component fragment,
// for copy-on-write cloning of a CachedRule (spec.md §5 "Memory").
func (es *EStore) Clone() *EStore {
	nc := &EStore{
		pool:          es.pool,
		components:    make(map[int]*fragment.Fragment, len(es.components)),
		nextComponent: es.nextComponent,
		predComponent: make(map[int]int, len(es.predComponent)),
		predLocalIdx:  make(map[int]int, len(es.predLocalIdx)),
	}
	for id, f := range es.components {
		nc.components[id] = f.Clone()
	}
	for k, v := range es.predComponent {
		nc.predComponent[k] = v
	}
	for k, v := range es.predLocalIdx {
		nc.predLocalIdx[k] = v
	}
	return nc
}

// Clear empties the whole store (spec.md §4.3: "if the updated fragment
// becomes empty, every E-fragment is cleared").
func (es *EStore) Clear() {
	es.components = make(map[int]*fragment.Fragment)
	es.predComponent = make(map[int]int)
	es.predLocalIdx = make(map[int]int)
}

// IsAnyEmpty reports whether any tracked component fragment currently has
// zero entries.
func (es *EStore) IsAnyEmpty() bool {
	for _, f := range es.components {
		if f.IsEmpty() {
			return true
		}
	}
	return false
}

// ensure returns (and lazily creates) the component id and local template
// index for bodyIdx, fetching its template/rows via fetch only if this is
// the first time bodyIdx is touched.
func (es *EStore) ensure(bodyIdx int, fetch Fetcher) (compID, localIdx int) {
	if id, ok := es.predComponent[bodyIdx]; ok {
		return id, es.predLocalIdx[bodyIdx]
	}
	tmpl, rows := fetch(bodyIdx)
	id := es.nextComponent
	es.nextComponent++
	es.components[id] = fragment.NewSingleTemplate(es.pool, tmpl, rows)
	es.predComponent[bodyIdx] = id
	es.predLocalIdx[bodyIdx] = 0
	return id, 0
}

// adopt registers a newly appended body predicate (one just added via
// Case1b/Case2b, which always lands at the end of compID's Templates) under
// component compID.
func (es *EStore) adopt(bodyIdx, compID int) {
	es.predComponent[bodyIdx] = compID
	es.predLocalIdx[bodyIdx] = len(es.components[compID].Templates) - 1
}

// mergeInto absorbs otherID's bookkeeping into keepID after a Fragment-level
// merge (Case1c/Case2c) has already appended other's templates onto keep's.
func (es *EStore) mergeInto(keepID, otherID int, shift int) {
	for bodyIdx, cid := range es.predComponent {
		if cid == otherID {
			es.predComponent[bodyIdx] = keepID
			es.predLocalIdx[bodyIdx] += shift
		}
	}
	delete(es.components, otherID)
}

// ApplyCase1 binds body[bodyIdx]'s EMPTY argIdx to existing LV v (spec.md
// §4.6 case 1, applied to E). If bodyIdx isn't tracked yet, it's brought in
// as a singleton and merged into v's existing component (Case1c); if v
// isn't known to E at all yet (no other body predicate currently references
// it there), bodyIdx's own component simply records the new occurrence
// (Case1a, first-occurrence branch).
func (es *EStore) ApplyCase1(bodyIdx, argIdx, v int, fetch Fetcher) {
	ownerComp, _ := es.findVarOwner(v)
	compID, localIdx := es.ensure(bodyIdx, fetch)

	if ownerComp < 0 || ownerComp == compID {
		es.components[compID].Case1a(localIdx, argIdx, v)
		return
	}
	shift := len(es.components[ownerComp].Templates)
	es.components[ownerComp].Case1c(es.components[compID], localIdx, argIdx, v)
	es.mergeInto(ownerComp, compID, shift)
}

// ApplyCase2 appends a brand-new body predicate bound to existing LV v
// (spec.md §4.6 case 2). newBodyIdx is the index the new predicate receives
// in the rule body.
func (es *EStore) ApplyCase2(newBodyIdx int, tmpl *predicate.Predicate, allRows *kb.IntTable, argIdx, v int) {
	ownerComp, _ := es.findVarOwner(v)
	if ownerComp < 0 {
		// v unknown to E: seed a fresh singleton over tmpl's EMPTY form,
		// then bind argIdx to v through the ordinary first-occurrence path
		// (Case1a records a brand-new var as a PLV without touching rows).
		id := es.nextComponent
		es.nextComponent++
		bare := predicate.New(tmpl.Symbol, tmpl.Arity)
		f := fragment.NewSingleTemplate(es.pool, bare, allRows.Rows())
		f.Case1a(0, argIdx, v)
		es.components[id] = f
		es.predComponent[newBodyIdx] = id
		es.predLocalIdx[newBodyIdx] = 0
		return
	}
	es.components[ownerComp].Case1b(tmpl, allRows, argIdx, v)
	es.adopt(newBodyIdx, ownerComp)
}

// ApplyCase3 creates a fresh LV v from two EMPTY slots already in the body
// (spec.md §4.6 case 3), merging their components if they differ.
func (es *EStore) ApplyCase3(bodyIdx1, argIdx1, bodyIdx2, argIdx2, v int, fetch Fetcher) {
	comp1, local1 := es.ensure(bodyIdx1, fetch)
	comp2, local2 := es.ensure(bodyIdx2, fetch)
	if comp1 == comp2 {
		es.components[comp1].Case2a(local1, argIdx1, local2, argIdx2, v)
		return
	}
	shift := len(es.components[comp1].Templates)
	es.components[comp1].Case2c(local1, argIdx1, es.components[comp2], local2, argIdx2, v)
	es.mergeInto(comp1, comp2, shift)
}

// ApplyCase4 appends a new body predicate and creates a fresh LV shared
// with an existing EMPTY slot (spec.md §4.6 case 4).
func (es *EStore) ApplyCase4(newBodyIdx int, tmpl *predicate.Predicate, allRows *kb.IntTable, newArgIdx, bodyIdx2, argIdx2, v int, fetch Fetcher) {
	comp2, local2 := es.ensure(bodyIdx2, fetch)
	es.components[comp2].Case2b(tmpl, allRows, newArgIdx, local2, argIdx2, v)
	es.adopt(newBodyIdx, comp2)
}

// ApplyCase5 binds body[bodyIdx]'s EMPTY argIdx to a constant (spec.md §4.6
// case 5).
func (es *EStore) ApplyCase5(bodyIdx, argIdx int, constant int32, fetch Fetcher) {
	_, local := es.ensure(bodyIdx, fetch)
	compID := es.predComponent[bodyIdx]
	es.components[compID].Case3(local, argIdx, constant)
}

// findVarOwner scans every component for a PLV/non-PLV occurrence of v,
// returning its component id and local template index, or (-1,-1) if v is
// not yet known to E.
func (es *EStore) findVarOwner(v int) (compID, localIdx int) {
	for id, f := range es.components {
		if info, ok := f.VarInfo[v]; ok {
			return id, info.TabIdx
		}
	}
	return -1, -1
}
