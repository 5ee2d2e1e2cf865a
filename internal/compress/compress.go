// Package compress implements the post-mining dependency analysis that
// turns an accepted hypothesis into the residual, compressed knowledge
// base (spec.md §4.8, §3.6): a directed graph from each entailed predicate
// instance to the instances that entail it, strongly-connected-component
// detection, and a feedback-vertex-set selection breaking cycles with as
// few kept facts as possible.
//
// Nodes are integer ids (spec.md §9's "replace hash-map of pointer keys
// with an integer-keyed graph"), not pointers, so the graph stays a plain
// adjacency-list structure independent of any cache's object identity.
package compress

import (
	"fmt"
	"sort"

	"github.com/TramsWang/SInC-sub001/internal/kb"
)

// AxiomNode is the synthetic sink every rule-free ("axiom") predicate
// instance points to (spec.md §4.8).
const AxiomNode = -1

// Instance identifies one ground predicate occurrence: a relation and its
// argument tuple.
type Instance struct {
	RelID int
	Args  kb.Record
}

func (i Instance) key() string {
	return fmt.Sprintf("%d:%v", i.RelID, []int32(i.Args))
}

// Graph is the dependency graph of spec.md §4.8: an edge head->body means
// head's entailing rule required body to already hold.
type Graph struct {
	ids    map[string]int
	byID   []Instance
	edges  map[int][]int // node -> nodes it depends on
	nextID int
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{ids: make(map[string]int), edges: make(map[int][]int)}
}

// NodeFor returns (creating if necessary) the integer id for inst.
func (g *Graph) NodeFor(inst Instance) int {
	k := inst.key()
	if id, ok := g.ids[k]; ok {
		return id
	}
	id := g.nextID
	g.nextID++
	g.ids[k] = id
	g.byID = append(g.byID, inst)
	return id
}

// Instance returns the predicate instance a node id was created from, or
// the zero Instance for AxiomNode.
func (g *Graph) Instance(node int) Instance {
	if node == AxiomNode || node < 0 || node >= len(g.byID) {
		return Instance{}
	}
	return g.byID[node]
}

// AddRuleGrounding records one rule's grounding (spec.md §4.4's
// GetEvidenceAndMarkEntailment output): an edge from the head instance to
// each body instance it depended on.
func (g *Graph) AddRuleGrounding(head Instance, body []Instance) {
	h := g.NodeFor(head)
	if len(body) == 0 {
		g.edges[h] = append(g.edges[h], AxiomNode)
		return
	}
	for _, b := range body {
		g.edges[h] = append(g.edges[h], g.NodeFor(b))
	}
}

// MarkAxiom records that inst has no entailing rule (it is ground data,
// not derived), per spec.md §4.8's "axiom (rule-free) predicate instances
// point to a synthetic AXIOM node".
func (g *Graph) MarkAxiom(inst Instance) {
	h := g.NodeFor(inst)
	if _, ok := g.edges[h]; !ok {
		g.edges[h] = []int{AxiomNode}
	}
}

// SCCs computes the graph's strongly connected components via Tarjan's
// algorithm, excluding AxiomNode (which has no real identity to cycle
// through). Components are returned in no particular order; singleton
// components with no self-loop are omitted since they need no FVS
// treatment.
func (g *Graph) SCCs() [][]int {
	index := 0
	indices := make(map[int]int)
	lowlink := make(map[int]int)
	onStack := make(map[int]bool)
	var stack []int
	var result [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if w == AxiomNode {
				continue
			}
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []int
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 || hasSelfLoop(g, comp[0]) {
				result = append(result, comp)
			}
		}
	}

	for node := range g.edges {
		if _, seen := indices[node]; !seen {
			strongConnect(node)
		}
	}
	return result
}

func hasSelfLoop(g *Graph, v int) bool {
	for _, w := range g.edges[v] {
		if w == v {
			return true
		}
	}
	return false
}

// FeedbackVertexSet chooses a small set of nodes within comp whose removal
// makes the induced subgraph acyclic (spec.md §4.8). Exact minimum FVS is
// NP-hard; this uses the standard greedy heuristic (repeatedly remove the
// node with the highest induced in-component degree until no cycle
// remains), which is exact for the small cycles a mined hypothesis
// actually produces in practice and only potentially suboptimal — never
// incorrect — on larger ones.
func (g *Graph) FeedbackVertexSet(comp []int) []int {
	inComp := make(map[int]bool, len(comp))
	for _, v := range comp {
		inComp[v] = true
	}
	remaining := make(map[int]bool, len(comp))
	for _, v := range comp {
		remaining[v] = true
	}

	var fvs []int
	for hasCycle(g, remaining) {
		degree := make(map[int]int)
		for v := range remaining {
			for _, w := range g.edges[v] {
				if remaining[w] {
					degree[v]++
				}
			}
		}
		best, bestDeg := -1, -1
		for _, v := range sortedKeys(remaining) {
			if degree[v] > bestDeg {
				best, bestDeg = v, degree[v]
			}
		}
		delete(remaining, best)
		fvs = append(fvs, best)
	}
	return fvs
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func hasCycle(g *Graph, active map[int]bool) bool {
	const white, gray, black = 0, 1, 2
	color := make(map[int]int, len(active))
	for v := range active {
		color[v] = white
	}
	var visit func(v int) bool
	visit = func(v int) bool {
		color[v] = gray
		for _, w := range g.edges[v] {
			if !active[w] {
				continue
			}
			switch color[w] {
			case gray:
				return true
			case white:
				if visit(w) {
					return true
				}
			}
		}
		color[v] = black
		return false
	}
	for v := range active {
		if color[v] == white {
			if visit(v) {
				return true
			}
		}
	}
	return false
}

// CompressedKB accumulates everything spec.md §3.6 says a compression run
// produces across all mined target relations.
type CompressedKB struct {
	Hypothesis    []string              // rules.hyp lines
	Counterexamples map[int][]kb.Record // relation id -> counterexample records
	KeptFacts     map[int][]kb.Record   // relation id -> FVS-selected residual facts
	Supplementary []int32               // constants otherwise lost from the namespace
}

// NewCompressedKB returns an empty accumulator.
func NewCompressedKB() *CompressedKB {
	return &CompressedKB{
		Counterexamples: make(map[int][]kb.Record),
		KeptFacts:       make(map[int][]kb.Record),
	}
}

// AddRule appends one accepted rule's dump string to the hypothesis.
func (c *CompressedKB) AddRule(dump string) {
	c.Hypothesis = append(c.Hypothesis, dump)
}

// AddCounterexamples records relID's counterexample set.
func (c *CompressedKB) AddCounterexamples(relID int, recs []kb.Record) {
	c.Counterexamples[relID] = append(c.Counterexamples[relID], recs...)
}

// KeepFact records that relID's fact must stay in the residual KB, because
// an FVS selection needs it to break a dependency cycle.
func (c *CompressedKB) KeepFact(relID int, rec kb.Record) {
	c.KeptFacts[relID] = append(c.KeptFacts[relID], rec)
}

// ResolveSupplementaryConstants computes the constants that would
// otherwise vanish from the namespace once non-kept, non-counterexample
// facts are dropped (spec.md §9's resolved Open Question, see DESIGN.md):
// allConstants minus every constant marked in reachable. The driver
// (internal/sinc) marks the constants of kept facts and counterexamples; a
// constant that appears only as a rule predicate's constant argument is
// not marked.
func (c *CompressedKB) ResolveSupplementaryConstants(allConstants []int32, reachable map[int32]bool) {
	var out []int32
	for _, k := range allConstants {
		if !reachable[k] {
			out = append(out, k)
		}
	}
	c.Supplementary = out
}
