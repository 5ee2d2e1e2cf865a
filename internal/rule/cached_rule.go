package rule

import (
	"strings"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/fragment"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

// RelationLookup resolves a relation's numeration to its loaded Relation,
// used to fetch a newly appended body predicate's full row set (spec.md
// §4.4).
type RelationLookup func(symbol int) *kb.Relation

// CachedRule pairs a Rule's structure with its three join caches (spec.md
// §3.5): E⁺ and T are each one head-anchored Fragment (head at template
// index 0, body predicate i at index i+1); E is an EStore of independent
// body-only components.
type CachedRule struct {
	*Rule

	pool         *cb.Pool
	target       *kb.Relation
	lookup       RelationLookup
	numConstants int

	ePlus *fragment.Fragment
	t     *fragment.Fragment
	e     *EStore

	eval   Eval
	parent *Eval

	minFactCoverage     float64
	minConstantCoverage float64
}

// NewCachedRule builds the most general rule for target, P(?,?,...), with
// caches seeded per spec.md §4.4: E⁺ from target's non-entailed rows, T from
// its entailed rows, E empty.
func NewCachedRule(target *kb.Relation, lookup RelationLookup, pool *cb.Pool, numConstants int, minFactCoverage, minConstantCoverage float64) *CachedRule {
	head := predicate.New(target.ID, target.Arity)
	ent, nonEnt := target.SplitByEntailment()

	allEnt := 1
	for i := 0; i < target.Arity; i++ {
		allEnt *= numConstants
	}

	cr := &CachedRule{
		Rule:                New(head),
		pool:                pool,
		target:              target,
		lookup:              lookup,
		numConstants:        numConstants,
		ePlus:               fragment.NewSingleTemplate(pool, head.Clone(), nonEnt),
		t:                   fragment.NewSingleTemplate(pool, head.Clone(), ent),
		e:                   NewEStore(pool),
		minFactCoverage:     minFactCoverage,
		minConstantCoverage: minConstantCoverage,
	}
	cr.eval = Eval{Pos: len(nonEnt), Neg: allEnt - len(ent), Len: 0}
	return cr
}

// Eval returns the rule's current evaluation triple.
func (cr *CachedRule) Eval() Eval { return cr.eval }

// shallowClone copies the Rule structure but shares every cache pointer,
// per spec.md §3.5's copy-on-write discipline; a subsequent mutation clones
// only the cache(s) it actually touches.
func (cr *CachedRule) shallowClone() *CachedRule {
	nc := *cr
	nc.Rule = cr.Rule.Clone()
	parentEval := cr.eval
	nc.parent = &parentEval
	return &nc
}

// Score computes the candidate's scalar rank under metric, consulting the
// beam-source rule's Eval (captured at clone time) for InfoGain.
func (cr *CachedRule) Score(metric Metric) float64 {
	return cr.eval.Score(metric, cr.parent)
}

func (cr *CachedRule) headIdx(predIdx int) int {
	if predIdx < 0 {
		return 0
	}
	return predIdx + 1
}

func (cr *CachedRule) predAt(predIdx int) *predicate.Predicate {
	if predIdx < 0 {
		return cr.Head
	}
	return cr.Body[predIdx]
}

// fetcher supplies EStore.ensure with a body predicate's current template
// (args as the rule structure currently records them) and its relation's
// full row set, for the rare case a body predicate reaches E without having
// been registered at append time (see DESIGN.md "EStore lazy fetch").
func (cr *CachedRule) fetcher() Fetcher {
	return func(bodyIdx int) (*predicate.Predicate, []*kb.Record) {
		tmpl := cr.Body[bodyIdx].Clone()
		rel := cr.lookup(tmpl.Symbol)
		return tmpl, rel.Records()
	}
}

func countHeadRows(f *fragment.Fragment) int {
	total := 0
	for _, e := range f.Entries {
		total += len(e[0].Rows())
	}
	return total
}

// estimateAllEntailments approximates the number of distinct head tuples
// the current body could produce, for use as the Eval.Neg denominator. It
// combines, for each E component that constrains at least one head
// variable, that component's combination count over just the head
// variables it owns (spec.md §4.4's count_combinations), and multiplies in
// the full constant domain for every head variable or EMPTY slot no
// component yet constrains — the same "expand remaining UV positions over
// the full constant domain" idea get_counterexamples uses (spec.md §4.4).
// This is an estimate, not an exact count: components that jointly
// constrain overlapping head variables through a chain outside E (through
// the head itself) are treated as independent, which can overcount. See
// DESIGN.md's Eval scoring note.
func (cr *CachedRule) estimateAllEntailments() int {
	total := 1
	accounted := make(map[int]bool)
	for _, f := range cr.e.components {
		var vids []int
		for _, a := range cr.Head.Args {
			if a.Kind == predicate.Variable && !accounted[a.Var] {
				if _, ok := f.VarInfo[a.Var]; ok {
					vids = append(vids, a.Var)
				}
			}
		}
		if len(vids) == 0 {
			continue
		}
		total *= f.CountCombinations(vids)
		for _, v := range vids {
			accounted[v] = true
		}
	}
	for _, a := range cr.Head.Args {
		switch a.Kind {
		case predicate.Empty:
			total *= cr.numConstants
		case predicate.Variable:
			if !accounted[a.Var] {
				total *= cr.numConstants
				accounted[a.Var] = true
			}
		}
	}
	return total
}

func (cr *CachedRule) recomputeEval() {
	pos := countHeadRows(cr.ePlus)
	entNow := countHeadRows(cr.t)
	neg := cr.estimateAllEntailments() - pos - entNow
	if neg < 0 {
		neg = 0
	}
	cr.eval = Eval{Pos: pos, Neg: neg, Len: cr.Length()}
}

// checkPrePrune runs the duplicate/disconnection/coverage/tabu sequence of
// spec.md §4.5 against cr's current (already E⁺-updated) structure.
func (cr *CachedRule) checkPrePrune(fps *FingerprintSet, tabu *TabuMap) UpdateStatus {
	if cr.HasDuplicateLiteral() || !cr.IsConnected() {
		return Invalid
	}
	if !fps.AddIfNew(cr.Fingerprint()) {
		return Duplicated
	}
	coverage := float64(countHeadRows(cr.ePlus)) / float64(cr.target.NumRecords())
	if coverage < cr.minFactCoverage {
		tabu.Add(strings.Join(cr.Category(), "|"))
		return InsufficientCoverage
	}
	if tabu.HasAny(cr.CategorySubsetKeys()) {
		return TabuPruned
	}
	return Normal
}

// finishPostPrune updates T and E, recomputes Eval, and returns the
// finalized candidate (spec.md §4.4's post-pruning step).
func (cr *CachedRule) finishPostPrune() *CachedRule {
	if cr.e.IsAnyEmpty() {
		cr.e.Clear()
	}
	cr.recomputeEval()
	return cr
}

// SpecializeCase1 binds the EMPTY argument at (predIdx,argIdx) to the
// already-existing LV v (spec.md §4.6 case 1). predIdx is a body index, or
// -1 for the head.
func (cr *CachedRule) SpecializeCase1(predIdx, argIdx, v int, fps *FingerprintSet, tabu *TabuMap) (UpdateStatus, *CachedRule) {
	nr := cr.shallowClone()
	nr.predAt(predIdx).Args[argIdx] = predicate.VarArg(v)

	nr.ePlus = nr.ePlus.Clone()
	nr.ePlus.Case1a(nr.headIdx(predIdx), argIdx, v)

	if status := nr.checkPrePrune(fps, tabu); status != Normal {
		return status, nil
	}

	nr.t = nr.t.Clone()
	nr.t.Case1a(nr.headIdx(predIdx), argIdx, v)
	if predIdx >= 0 {
		nr.e = nr.e.Clone()
		nr.e.ApplyCase1(predIdx, argIdx, v, nr.fetcher())
	}
	return Normal, nr.finishPostPrune()
}

// SpecializeCase2 appends a new body predicate over relation rel with
// column col bound to the already-existing LV v (spec.md §4.6 case 2).
func (cr *CachedRule) SpecializeCase2(rel *kb.Relation, col, v int, fps *FingerprintSet, tabu *TabuMap) (UpdateStatus, *CachedRule) {
	nr := cr.shallowClone()
	tmpl := predicate.New(rel.ID, rel.Arity)
	tmpl.Args[col] = predicate.VarArg(v)
	newBodyIdx := len(nr.Body)
	nr.AppendBody(tmpl.Clone())

	nr.ePlus = nr.ePlus.Clone()
	nr.ePlus.Case1b(tmpl, rel.Table(), col, v)

	if status := nr.checkPrePrune(fps, tabu); status != Normal {
		return status, nil
	}

	nr.t = nr.t.Clone()
	nr.t.Case1b(tmpl, rel.Table(), col, v)
	nr.e = nr.e.Clone()
	nr.e.ApplyCase2(newBodyIdx, tmpl, rel.Table(), col, v)
	return Normal, nr.finishPostPrune()
}

// SpecializeCase3 introduces a fresh LV shared between two distinct EMPTY
// slots (spec.md §4.6 case 3); either slot may be the head (predIdx -1).
func (cr *CachedRule) SpecializeCase3(predIdx1, argIdx1, predIdx2, argIdx2 int, fps *FingerprintSet, tabu *TabuMap) (UpdateStatus, *CachedRule) {
	nr := cr.shallowClone()
	v := nr.AllocVar()
	nr.predAt(predIdx1).Args[argIdx1] = predicate.VarArg(v)
	nr.predAt(predIdx2).Args[argIdx2] = predicate.VarArg(v)

	nr.ePlus = nr.ePlus.Clone()
	nr.ePlus.Case2a(nr.headIdx(predIdx1), argIdx1, nr.headIdx(predIdx2), argIdx2, v)

	if status := nr.checkPrePrune(fps, tabu); status != Normal {
		return status, nil
	}

	nr.t = nr.t.Clone()
	nr.t.Case2a(nr.headIdx(predIdx1), argIdx1, nr.headIdx(predIdx2), argIdx2, v)

	if predIdx1 >= 0 || predIdx2 >= 0 {
		nr.e = nr.e.Clone()
		switch {
		case predIdx1 >= 0 && predIdx2 >= 0:
			nr.e.ApplyCase3(predIdx1, argIdx1, predIdx2, argIdx2, v, nr.fetcher())
		case predIdx1 >= 0:
			nr.e.ApplyCase1(predIdx1, argIdx1, v, nr.fetcher())
		default:
			nr.e.ApplyCase1(predIdx2, argIdx2, v, nr.fetcher())
		}
	}
	return Normal, nr.finishPostPrune()
}

// SpecializeCase4 appends a new body predicate over rel, column newCol,
// sharing a fresh LV with an existing EMPTY slot (predIdx2,argIdx2), which
// may be the head (spec.md §4.6 case 4).
func (cr *CachedRule) SpecializeCase4(rel *kb.Relation, newCol, predIdx2, argIdx2 int, fps *FingerprintSet, tabu *TabuMap) (UpdateStatus, *CachedRule) {
	nr := cr.shallowClone()
	v := nr.AllocVar()
	tmpl := predicate.New(rel.ID, rel.Arity)
	tmpl.Args[newCol] = predicate.VarArg(v)
	newBodyIdx := len(nr.Body)
	nr.AppendBody(tmpl.Clone())
	nr.predAt(predIdx2).Args[argIdx2] = predicate.VarArg(v)

	nr.ePlus = nr.ePlus.Clone()
	nr.ePlus.Case2b(tmpl, rel.Table(), newCol, nr.headIdx(predIdx2), argIdx2, v)

	if status := nr.checkPrePrune(fps, tabu); status != Normal {
		return status, nil
	}

	nr.t = nr.t.Clone()
	nr.t.Case2b(tmpl, rel.Table(), newCol, nr.headIdx(predIdx2), argIdx2, v)

	nr.e = nr.e.Clone()
	if predIdx2 >= 0 {
		nr.e.ApplyCase4(newBodyIdx, tmpl, rel.Table(), newCol, predIdx2, argIdx2, v, nr.fetcher())
	} else {
		// The shared slot is the head: E never tracks the head, so the new
		// predicate just becomes its own singleton component, v recorded as
		// its first (PLV) occurrence — identical to ApplyCase2's
		// v-not-yet-known branch.
		nr.e.ApplyCase2(newBodyIdx, tmpl, rel.Table(), newCol, v)
	}
	return Normal, nr.finishPostPrune()
}

// SpecializeCase5 binds the EMPTY slot at (predIdx,argIdx) to constant
// (spec.md §4.6 case 5).
func (cr *CachedRule) SpecializeCase5(predIdx, argIdx int, constant int32, fps *FingerprintSet, tabu *TabuMap) (UpdateStatus, *CachedRule) {
	nr := cr.shallowClone()
	nr.predAt(predIdx).Args[argIdx] = predicate.ConstArg(constant)

	nr.ePlus = nr.ePlus.Clone()
	nr.ePlus.Case3(nr.headIdx(predIdx), argIdx, constant)

	if status := nr.checkPrePrune(fps, tabu); status != Normal {
		return status, nil
	}

	nr.t = nr.t.Clone()
	nr.t.Case3(nr.headIdx(predIdx), argIdx, constant)
	if predIdx >= 0 {
		nr.e = nr.e.Clone()
		nr.e.ApplyCase5(predIdx, argIdx, constant, nr.fetcher())
	}
	return Normal, nr.finishPostPrune()
}

// GetEvidenceAndMarkEntailment walks E⁺'s entries and, for every head row
// not yet marked entailed on the target relation, marks it and records one
// grounding: the head row plus, for each body predicate, an arbitrary row
// from that entry's CB (spec.md §4.4).
func (cr *CachedRule) GetEvidenceAndMarkEntailment() [][]*kb.Record {
	var groundings [][]*kb.Record
	for _, e := range cr.ePlus.Entries {
		for _, headRow := range e[0].Rows() {
			if !cr.target.EntailIfNot(headRow) {
				continue
			}
			grounding := make([]*kb.Record, len(e))
			grounding[0] = headRow
			for i := 1; i < len(e); i++ {
				grounding[i] = e[i].Rows()[0]
			}
			groundings = append(groundings, grounding)
		}
	}
	return groundings
}

// GetCounterexamples enumerates every head tuple the body could produce
// (GV bindings combined across E's components, remaining EMPTY slots
// expanded over the full constant domain) and reports those absent from
// the target relation (spec.md §4.4).
func (cr *CachedRule) GetCounterexamples() []kb.Record {
	headVarPositions := make(map[int][]int) // LV id -> head arg positions
	var emptyPositions []int
	for i, a := range cr.Head.Args {
		switch a.Kind {
		case predicate.Variable:
			headVarPositions[a.Var] = append(headVarPositions[a.Var], i)
		case predicate.Empty:
			emptyPositions = append(emptyPositions, i)
		}
	}

	var vids []int
	for v := range headVarPositions {
		if cr.varKnownToE(v) {
			vids = append(vids, v)
		}
	}

	base := make([]kb.Record, 0, 1)
	if len(vids) == 0 {
		base = append(base, make(kb.Record, cr.Head.Arity))
	} else {
		for _, comp := range cr.e.components {
			ownsAll := true
			for _, v := range vids {
				if _, ok := comp.VarInfo[v]; !ok {
					ownsAll = false
					break
				}
			}
			if !ownsAll {
				continue
			}
			for _, tuple := range comp.EnumerateCombinations(vids) {
				rec := make(kb.Record, cr.Head.Arity)
				for i, v := range vids {
					for _, pos := range headVarPositions[v] {
						rec[pos] = tuple[i]
					}
				}
				base = append(base, rec)
			}
			break
		}
		if len(base) == 0 {
			base = append(base, make(kb.Record, cr.Head.Arity))
		}
	}

	constants := cr.allConstants()
	for _, pos := range emptyPositions {
		var next []kb.Record
		for _, rec := range base {
			for _, c := range constants {
				nc := rec.Clone()
				nc[pos] = c
				next = append(next, nc)
			}
		}
		base = next
	}

	var out []kb.Record
	for _, rec := range base {
		if !cr.target.Contains(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (cr *CachedRule) varKnownToE(v int) bool {
	for _, comp := range cr.e.components {
		if _, ok := comp.VarInfo[v]; ok {
			return true
		}
	}
	return false
}

// allConstants enumerates the full constant domain 1..numConstants, the
// numeration scheme spec.md §6.2 uses.
func (cr *CachedRule) allConstants() []int32 {
	out := make([]int32, cr.numConstants)
	for i := range out {
		out[i] = int32(i + 1)
	}
	return out
}

// findGeneralizations enumerates, for every bound (variable or constant)
// argument, the rule obtained by reverting it to EMPTY. Neither the miner
// nor any test calls it (spec.md §9: "generalize ... not used by the
// default driver").
func (cr *CachedRule) findGeneralizations() []*Rule {
	var out []*Rule
	all := append([]*predicate.Predicate{cr.Head}, cr.Body...)
	for _, p := range all {
		for i, a := range p.Args {
			if a.Kind == predicate.Empty {
				continue
			}
			g := cr.Rule.Clone()
			gAll := append([]*predicate.Predicate{g.Head}, g.Body...)
			gAll[indexOf(all, p)].Args[i] = predicate.EmptyArg
			out = append(out, g)
		}
	}
	return out
}

func indexOf(all []*predicate.Predicate, target *predicate.Predicate) int {
	for i, p := range all {
		if p == target {
			return i
		}
	}
	return -1
}
