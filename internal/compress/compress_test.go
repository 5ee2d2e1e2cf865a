package compress

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/kb"
)

func inst(relID int, args ...int32) Instance {
	return Instance{RelID: relID, Args: kb.Record(args)}
}

func TestAxiomNodesHaveNoCycle(t *testing.T) {
	g := NewGraph()
	g.MarkAxiom(inst(1, 1, 2))
	require.Empty(t, g.SCCs())
}

func TestSCCDetectsTwoCycleFacts(t *testing.T) {
	g := NewGraph()
	a, b := inst(1, 1, 2), inst(1, 2, 1)
	g.AddRuleGrounding(a, []Instance{b})
	g.AddRuleGrounding(b, []Instance{a})

	sccs := g.SCCs()
	require.Len(t, sccs, 1)
	require.Len(t, sccs[0], 2)
}

func TestFeedbackVertexSetBreaksCycle(t *testing.T) {
	g := NewGraph()
	a, b, c := inst(1, 1), inst(1, 2), inst(1, 3)
	g.AddRuleGrounding(a, []Instance{b})
	g.AddRuleGrounding(b, []Instance{c})
	g.AddRuleGrounding(c, []Instance{a})

	sccs := g.SCCs()
	require.Len(t, sccs, 1)
	fvs := g.FeedbackVertexSet(sccs[0])
	require.Len(t, fvs, 1)

	remaining := make(map[int]bool)
	for _, v := range sccs[0] {
		remaining[v] = true
	}
	delete(remaining, fvs[0])
	require.False(t, hasCycle(g, remaining))
}

func TestResolveSupplementaryConstants(t *testing.T) {
	c := NewCompressedKB()
	all := []int32{1, 2, 3, 4}
	reachable := map[int32]bool{1: true, 3: true}
	c.ResolveSupplementaryConstants(all, reachable)
	sort.Slice(c.Supplementary, func(i, j int) bool { return c.Supplementary[i] < c.Supplementary[j] })
	require.Equal(t, []int32{2, 4}, c.Supplementary)
}
