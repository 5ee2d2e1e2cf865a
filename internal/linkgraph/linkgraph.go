// Package linkgraph tracks how a rule body's logic variables are linked to
// one another through shared literal occurrences, for the estimation
// variant's selectivity approximation (spec.md §4.7).
package linkgraph

import (
	"github.com/hashicorp/go-set/v3"
)

// BodyVarLinkManager is a disjoint-set plus adjacency graph over a rule
// body's LVs: two LVs are linked when some body literal mentions both (an
// "edge"), and the disjoint-set tracks which LVs are transitively
// connected through such edges without needing a path walk for that
// question alone.
type BodyVarLinkManager struct {
	parent    map[int]int
	adjacency map[int]*set.Set[int]
}

// New returns an empty link manager.
func New() *BodyVarLinkManager {
	return &BodyVarLinkManager{
		parent:    make(map[int]int),
		adjacency: make(map[int]*set.Set[int]),
	}
}

func (m *BodyVarLinkManager) ensure(v int) {
	if _, ok := m.parent[v]; !ok {
		m.parent[v] = v
		m.adjacency[v] = set.New[int](0)
	}
}

func (m *BodyVarLinkManager) find(v int) int {
	m.ensure(v)
	if m.parent[v] != v {
		m.parent[v] = m.find(m.parent[v])
	}
	return m.parent[v]
}

// Link records a direct edge between v1 and v2 (both occur in the same body
// literal) and unions their components.
func (m *BodyVarLinkManager) Link(v1, v2 int) {
	m.ensure(v1)
	m.ensure(v2)
	m.adjacency[v1].Insert(v2)
	m.adjacency[v2].Insert(v1)
	r1, r2 := m.find(v1), m.find(v2)
	if r1 != r2 {
		m.parent[r1] = r2
	}
}

// Connected reports whether v1 and v2 are in the same component.
func (m *BodyVarLinkManager) Connected(v1, v2 int) bool {
	if _, ok := m.parent[v1]; !ok {
		return v1 == v2
	}
	if _, ok := m.parent[v2]; !ok {
		return v1 == v2
	}
	return m.find(v1) == m.find(v2)
}

// AssumeSpecOprCase1 reports which pairs of LVs would become newly linked
// by applying specialization case 1 (spec.md §4.6 case 1: bind an EMPTY
// slot to existing LV v) to a literal whose other argument slots already
// carry the LVs in literalVars. Binding v into that literal links v to
// every other LV the literal already carries, except those already in the
// same component as v.
func (m *BodyVarLinkManager) AssumeSpecOprCase1(v int, literalVars []int) [][2]int {
	var newLinks [][2]int
	for _, other := range literalVars {
		if other == v {
			continue
		}
		if !m.Connected(v, other) {
			newLinks = append(newLinks, [2]int{v, other})
		}
	}
	return newLinks
}

// AssumeSpecOprCase3 reports the new links that specialization case 3
// (spec.md §4.6 case 3: introduce a fresh LV shared by two EMPTY slots)
// would create between the two literals' existing LV sets — one pair per
// (v1-side var, v2-side var) combination, since the fresh variable isn't
// registered yet and instead directly bridges the two literals.
func (m *BodyVarLinkManager) AssumeSpecOprCase3(literal1Vars, literal2Vars []int) [][2]int {
	var newLinks [][2]int
	for _, a := range literal1Vars {
		for _, b := range literal2Vars {
			if !m.Connected(a, b) {
				newLinks = append(newLinks, [2]int{a, b})
			}
		}
	}
	return newLinks
}

// ShortestPath runs a BFS over the current link graph from v1 to v2,
// returning the path (inclusive of both endpoints) or nil if disconnected.
func (m *BodyVarLinkManager) ShortestPath(v1, v2 int) []int {
	return m.shortestPathWith(v1, v2, nil)
}

// AssumeShortestPathCase1 returns the shortest path from v1 to v2 assuming
// a hypothetical extra edge (from, to) were added first (spec.md §4.7).
func (m *BodyVarLinkManager) AssumeShortestPathCase1(v1, v2, from, to int) []int {
	return m.shortestPathWith(v1, v2, &[2]int{from, to})
}

// AssumeShortestPathCase3 is an alias of AssumeShortestPathCase1 kept
// distinct for call-site clarity, mirroring spec.md §4.7's naming of the
// case-1/case-3 hypothetical variants separately even though the
// underlying BFS-with-one-extra-edge mechanics are identical.
func (m *BodyVarLinkManager) AssumeShortestPathCase3(v1, v2, from, to int) []int {
	return m.shortestPathWith(v1, v2, &[2]int{from, to})
}

func (m *BodyVarLinkManager) shortestPathWith(v1, v2 int, extra *[2]int) []int {
	neighbors := func(v int) []int {
		var out []int
		if adj, ok := m.adjacency[v]; ok {
			out = append(out, adj.Slice()...)
		}
		if extra != nil {
			if extra[0] == v {
				out = append(out, extra[1])
			}
			if extra[1] == v {
				out = append(out, extra[0])
			}
		}
		return out
	}

	if v1 == v2 {
		return []int{v1}
	}
	visited := map[int]bool{v1: true}
	prev := map[int]int{}
	queue := []int{v1}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range neighbors(cur) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == v2 {
				path := []int{v2}
				for n := cur; ; n = prev[n] {
					path = append([]int{n}, path...)
					if n == v1 {
						break
					}
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}
