// Package miner implements the beam-search driver over CachedRule (spec.md
// §4.6): for one target relation at a time, it repeatedly grows a beam of
// candidate rules one specialization step at a time, keeps the
// top-scoring beamwidth candidates, and accepts the best rule found once
// the beam reaches a local optimum or crosses the stopping threshold.
package miner

import (
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/estimate"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/predicate"
	"github.com/TramsWang/SInC-sub001/internal/rule"
)

// Params collects the beam-search knobs spec.md §6.1 exposes via flags
// that aren't themselves KB paths.
type Params struct {
	BeamWidth            int
	Metric               rule.Metric
	StopCompressionRatio float64
	MinFactCoverage      float64
	MinConstantCoverage  float64

	// ObservationRatio is -o (spec.md §6.1, §4.7). Per the original's
	// `(1.0 > FLAGS_o) ? SincWithCache : SincWithEstimation` dispatch, a
	// value >= 1.0 switches specialization enumeration from exhaustively
	// materializing every candidate to estimate-then-select: operators
	// are scored from column statistics (internal/estimate) and only the
	// top BeamWidth-scoring ones are ever actually specialized.
	ObservationRatio float64
}

// RelationMiner mines Horn rules for one target relation against a fixed
// background KB (spec.md §4.6).
type RelationMiner struct {
	kbase  *kb.KB
	pool   *cb.Pool
	params Params
	log    hclog.Logger

	// columnStats backs the estimation variant (spec.md §4.7): per-
	// relation, per-column distinct-value counts computed once from the
	// background KB when the miner is built and reused across every
	// target relation this miner mines.
	columnStats map[int][]estimate.ColumnStats
}

// NewRelationMiner builds a miner over kbase's relations, sharing pool
// across every target relation mined in this run (spec.md §5 "CB pool:
// process-wide, cleared only between target relations").
func NewRelationMiner(kbase *kb.KB, pool *cb.Pool, params Params, log hclog.Logger) *RelationMiner {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &RelationMiner{
		kbase:       kbase,
		pool:        pool,
		params:      params,
		log:         log.Named("miner"),
		columnStats: buildColumnStats(kbase),
	}
}

// buildColumnStats computes each background relation's per-column
// distinct-value count (spec.md §4.7's "per-column value-set sizes"),
// the only statistic internal/estimate.ColumnStats needs to approximate
// join selectivity without ever materializing a join.
func buildColumnStats(kbase *kb.KB) map[int][]estimate.ColumnStats {
	out := make(map[int][]estimate.ColumnStats, len(kbase.Relations))
	for _, rel := range kbase.Relations {
		stats := make([]estimate.ColumnStats, rel.Arity)
		total := rel.NumRecords()
		for c := 0; c < rel.Arity; c++ {
			seen := make(map[int32]bool)
			for _, r := range rel.Records() {
				seen[(*r)[c]] = true
			}
			stats[c] = estimate.ColumnStats{DistinctValues: len(seen), TotalRows: total}
		}
		out[rel.ID] = stats
	}
	return out
}

// Accepted pairs one accepted rule with the groundings that justified it
// (spec.md §4.8's dependency-graph input: each grounding is a head record
// plus one body record per literal).
type Accepted struct {
	Rule       *rule.CachedRule
	Groundings [][]*kb.Record
}

// MineRelation runs the full findRule loop for one target relation (spec.md
// §4.6 step 4): repeatedly find the best rule, accept it and mark its
// entailments, until no rule improves coverage further or shouldContinue
// reports false (spec.md §5's cooperative interrupt check).
func (m *RelationMiner) MineRelation(target *kb.Relation, shouldContinue func() bool) []Accepted {
	var accepted []Accepted
	for shouldContinue() {
		found := m.findRule(target, shouldContinue)
		if found == nil {
			break
		}
		groundings := found.GetEvidenceAndMarkEntailment()
		accepted = append(accepted, Accepted{Rule: found, Groundings: groundings})
		m.log.Info("accepted rule", "relation", target.Name, "rule", found.Dump(m.relName, m.constName))
		if target.TotalEntailedRecords() >= target.NumRecords() {
			break
		}
	}
	return accepted
}

// findRule runs one beam search to local optimum or the stopping
// condition, returning nil if even the most general rule can't be
// specialized into anything acceptable (spec.md §4.6 steps 1-3).
func (m *RelationMiner) findRule(target *kb.Relation, shouldContinue func() bool) *rule.CachedRule {
	fps := rule.NewFingerprintSet()
	tabu := rule.NewTabuMap()
	lookup := func(symbol int) *kb.Relation { return m.relationBySymbol(symbol) }

	beam := []*rule.CachedRule{
		rule.NewCachedRule(target, lookup, m.pool, m.numConstants(), m.params.MinFactCoverage, m.params.MinConstantCoverage),
	}
	fps.AddIfNew(beam[0].Fingerprint())

	best := beam[0]
	for shouldContinue() {
		var candidates []*rule.CachedRule
		for _, r := range beam {
			if m.params.ObservationRatio >= 1.0 {
				candidates = append(candidates, m.enumerateSpecializationsEstimated(r, fps, tabu)...)
			} else {
				candidates = append(candidates, m.enumerateSpecializations(r, fps, tabu)...)
			}
		}
		if len(candidates) == 0 {
			break
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score(m.params.Metric) > candidates[j].Score(m.params.Metric)
		})

		bestCandidate := candidates[0]
		bestBeamScore := best.Score(m.params.Metric)
		if bestCandidate.Score(m.params.Metric) <= bestBeamScore {
			break
		}
		best = bestCandidate

		if bestCandidate.Eval().Neg == 0 || bestCandidate.Eval().CompressionRatioValue() >= m.params.StopCompressionRatio {
			return bestCandidate
		}

		if len(candidates) > m.params.BeamWidth {
			candidates = candidates[:m.params.BeamWidth]
		}
		beam = candidates
	}
	if best.Length() == 0 {
		return nil
	}
	return best
}

// enumerateSpecializations produces every Normal-status one-step
// specialization of r (spec.md §4.6's five enumeration cases), in the
// deterministic order spec.md §5 requires: predicate index ascending, then
// argument index, then LV id ascending, then constant numeration
// ascending.
func (m *RelationMiner) enumerateSpecializations(r *rule.CachedRule, fps *rule.FingerprintSet, tabu *rule.TabuMap) []*rule.CachedRule {
	var out []*rule.CachedRule
	emptySlots := collectEmptySlots(r.Rule)
	existingVars := collectVars(r.Rule)

	// Case 1: bind an EMPTY slot to an existing LV.
	for _, slot := range emptySlots {
		for _, v := range existingVars {
			if status, nr := r.SpecializeCase1(slot.predIdx, slot.argIdx, v, fps, tabu); status.Accepted() {
				out = append(out, nr)
			}
		}
	}

	// Case 2: append a new body predicate, one column bound to an existing LV.
	for _, relSym := range m.relationSymbolsAscending() {
		rel := m.relationBySymbol(relSym)
		for col := 0; col < rel.Arity; col++ {
			for _, v := range existingVars {
				if status, nr := r.SpecializeCase2(rel, col, v, fps, tabu); status.Accepted() {
					out = append(out, nr)
				}
			}
		}
	}

	// Case 3: introduce a fresh LV shared between two distinct EMPTY slots.
	for i := 0; i < len(emptySlots); i++ {
		for j := i + 1; j < len(emptySlots); j++ {
			s1, s2 := emptySlots[i], emptySlots[j]
			if status, nr := r.SpecializeCase3(s1.predIdx, s1.argIdx, s2.predIdx, s2.argIdx, fps, tabu); status.Accepted() {
				out = append(out, nr)
			}
		}
	}

	// Case 4: append a new body predicate sharing a fresh LV with an
	// existing EMPTY slot.
	for _, relSym := range m.relationSymbolsAscending() {
		rel := m.relationBySymbol(relSym)
		for col := 0; col < rel.Arity; col++ {
			for _, slot := range emptySlots {
				if status, nr := r.SpecializeCase4(rel, col, slot.predIdx, slot.argIdx, fps, tabu); status.Accepted() {
					out = append(out, nr)
				}
			}
		}
	}

	// Case 5: bind an EMPTY slot to a promising constant of its own
	// relation's matching column.
	for _, slot := range emptySlots {
		rel := m.relationBySymbol(predicateAt(r.Rule, slot.predIdx).Symbol)
		if rel == nil {
			continue
		}
		col := slot.argIdx
		for _, c := range rel.PromisingConstants(m.params.MinConstantCoverage)[col] {
			if status, nr := r.SpecializeCase5(slot.predIdx, slot.argIdx, c, fps, tabu); status.Accepted() {
				out = append(out, nr)
			}
		}
	}

	return out
}

// pendingSpecialization pairs a lightweight estimate.Operator description
// of a candidate one-step specialization with the closure that actually
// applies it, so the estimation variant below can score every candidate
// before materializing any of them.
type pendingSpecialization struct {
	op    estimate.Operator
	apply func() (rule.UpdateStatus, *rule.CachedRule)
}

// enumerateSpecializationsEstimated is the -o >= 1 estimation-driven
// variant of enumerateSpecializations (spec.md §4.7): it builds the exact
// same candidate set (same five cases, same deterministic order), but
// scores every candidate as a cheap estimate.Operator first and only
// materializes (via the real CachedRule.SpecializeCaseN, which performs
// the actual join) the BeamWidth candidates internal/estimate ranks
// highest. This is what lets the search rank far more operators than it
// could afford to fully specialize.
func (m *RelationMiner) enumerateSpecializationsEstimated(r *rule.CachedRule, fps *rule.FingerprintSet, tabu *rule.TabuMap) []*rule.CachedRule {
	var pendings []pendingSpecialization
	emptySlots := collectEmptySlots(r.Rule)
	existingVars := collectVars(r.Rule)

	// Case 1: bind an EMPTY slot to an existing LV.
	for _, s := range emptySlots {
		s := s
		relSym := predicateAt(r.Rule, s.predIdx).Symbol
		for _, v := range existingVars {
			v := v
			pendings = append(pendings, pendingSpecialization{
				op: estimate.Operator{Case: 1, PredIdx1: s.predIdx, ArgIdx1: s.argIdx, ArgIdx2: s.argIdx, RelSym: relSym, Var: v},
				apply: func() (rule.UpdateStatus, *rule.CachedRule) {
					return r.SpecializeCase1(s.predIdx, s.argIdx, v, fps, tabu)
				},
			})
		}
	}

	// Case 2: append a new body predicate, one column bound to an existing LV.
	for _, relSym := range m.relationSymbolsAscending() {
		relSym := relSym
		rel := m.relationBySymbol(relSym)
		for col := 0; col < rel.Arity; col++ {
			col := col
			for _, v := range existingVars {
				v := v
				pendings = append(pendings, pendingSpecialization{
					op: estimate.Operator{Case: 2, RelSym: relSym, RelArity: rel.Arity, ArgIdx1: col, Var: v},
					apply: func() (rule.UpdateStatus, *rule.CachedRule) {
						return r.SpecializeCase2(rel, col, v, fps, tabu)
					},
				})
			}
		}
	}

	// Case 3: introduce a fresh LV shared between two distinct EMPTY slots.
	// estimate.Operator only carries a single RelSym for a case-1/3 pair,
	// so when the two slots belong to different relations this uses the
	// first slot's relation for both columns' selectivity lookup — the
	// same independent-column approximation internal/estimate already
	// documents elsewhere.
	for i := 0; i < len(emptySlots); i++ {
		for j := i + 1; j < len(emptySlots); j++ {
			s1, s2 := emptySlots[i], emptySlots[j]
			relSym := predicateAt(r.Rule, s1.predIdx).Symbol
			pendings = append(pendings, pendingSpecialization{
				op: estimate.Operator{Case: 3, PredIdx1: s1.predIdx, ArgIdx1: s1.argIdx, PredIdx2: s2.predIdx, ArgIdx2: s2.argIdx, RelSym: relSym},
				apply: func() (rule.UpdateStatus, *rule.CachedRule) {
					return r.SpecializeCase3(s1.predIdx, s1.argIdx, s2.predIdx, s2.argIdx, fps, tabu)
				},
			})
		}
	}

	// Case 4: append a new body predicate sharing a fresh LV with an
	// existing EMPTY slot.
	for _, relSym := range m.relationSymbolsAscending() {
		relSym := relSym
		rel := m.relationBySymbol(relSym)
		for col := 0; col < rel.Arity; col++ {
			col := col
			for _, s := range emptySlots {
				s := s
				pendings = append(pendings, pendingSpecialization{
					op: estimate.Operator{Case: 4, RelSym: relSym, RelArity: rel.Arity, ArgIdx1: col, PredIdx2: s.predIdx, ArgIdx2: s.argIdx},
					apply: func() (rule.UpdateStatus, *rule.CachedRule) {
						return r.SpecializeCase4(rel, col, s.predIdx, s.argIdx, fps, tabu)
					},
				})
			}
		}
	}

	// Case 5: bind an EMPTY slot to a promising constant of its own
	// relation's matching column.
	for _, s := range emptySlots {
		s := s
		rel := m.relationBySymbol(predicateAt(r.Rule, s.predIdx).Symbol)
		if rel == nil {
			continue
		}
		col := s.argIdx
		for _, c := range rel.PromisingConstants(m.params.MinConstantCoverage)[col] {
			c := c
			pendings = append(pendings, pendingSpecialization{
				op: estimate.Operator{Case: 5, RelSym: rel.ID, ArgIdx1: col, PredIdx1: s.predIdx, Constant: c},
				apply: func() (rule.UpdateStatus, *rule.CachedRule) {
					return r.SpecializeCase5(s.predIdx, s.argIdx, c, fps, tabu)
				},
			})
		}
	}

	if len(pendings) == 0 {
		return nil
	}

	ops := make([]estimate.Operator, len(pendings))
	for i, p := range pendings {
		ops[i] = p.op
	}
	est := estimate.NewEstRule(r, m.columnStats)
	estimates := est.EstimateSpecializations(ops)
	parent := r.Eval()

	order := make([]int, len(pendings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return estimates[order[i]].Score(m.params.Metric, &parent) > estimates[order[j]].Score(m.params.Metric, &parent)
	})

	limit := m.params.BeamWidth
	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}

	var out []*rule.CachedRule
	for _, idx := range order[:limit] {
		if status, nr := pendings[idx].apply(); status.Accepted() {
			out = append(out, nr)
		}
	}
	return out
}

type slot struct {
	predIdx int
	argIdx  int
}

// predicateAt returns r's head (predIdx -1) or body[predIdx] predicate.
func predicateAt(r *rule.Rule, predIdx int) *predicate.Predicate {
	if predIdx < 0 {
		return r.Head
	}
	return r.Body[predIdx]
}

// collectEmptySlots returns every EMPTY argument slot across the head
// (predIdx -1) and body, head first then body predicates in order, matching
// the deterministic enumeration order (spec.md §5).
func collectEmptySlots(r *rule.Rule) []slot {
	var out []slot
	for i, a := range r.Head.Args {
		if a.Kind == predicate.Empty {
			out = append(out, slot{predIdx: -1, argIdx: i})
		}
	}
	for p, body := range r.Body {
		for i, a := range body.Args {
			if a.Kind == predicate.Empty {
				out = append(out, slot{predIdx: p, argIdx: i})
			}
		}
	}
	return out
}

// collectVars returns every distinct LV id already bound somewhere in r,
// ascending.
func collectVars(r *rule.Rule) []int {
	seen := make(map[int]bool)
	record := func(p *predicate.Predicate) {
		for _, a := range p.Args {
			if a.Kind == predicate.Variable {
				seen[a.Var] = true
			}
		}
	}
	record(r.Head)
	for _, b := range r.Body {
		record(b)
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// relationSymbolsAscending returns every background relation's numeration,
// ascending (spec.md §5's "predicate index ascending" applied to case
// 2/4's choice of which relation to append).
func (m *RelationMiner) relationSymbolsAscending() []int {
	out := make([]int, 0, len(m.kbase.Relations))
	for _, rel := range m.kbase.Relations {
		out = append(out, rel.ID)
	}
	sort.Ints(out)
	return out
}

func (m *RelationMiner) relationBySymbol(symbol int) *kb.Relation {
	for _, rel := range m.kbase.Relations {
		if rel.ID == symbol {
			return rel
		}
	}
	return nil
}

func (m *RelationMiner) numConstants() int {
	return m.kbase.Numeration.Len()
}

func (m *RelationMiner) relName(id int) string {
	if rel := m.relationBySymbol(id); rel != nil {
		return rel.Name
	}
	return ""
}

func (m *RelationMiner) constName(c int32) string {
	return m.kbase.Numeration.Name(c)
}
