package estimate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/rule"
)

func TestEstimateSpecializationsScalesByColumnSelectivity(t *testing.T) {
	mother := kb.NewRelation("mother", 1, 2, nil)
	pool := cb.NewPool()
	cached := rule.NewCachedRule(mother, func(int) *kb.Relation { return mother }, pool, 17, 0.05, 0.25)

	stats := map[int][]ColumnStats{
		2: {{DistinctValues: 4, TotalRows: 4}, {DistinctValues: 1, TotalRows: 4}, {DistinctValues: 4, TotalRows: 4}},
	}
	er := NewEstRule(cached, stats)

	ops := []Operator{
		{Case: 2, RelSym: 2, ArgIdx1: 0},
		{Case: 2, RelSym: 2, ArgIdx1: 1},
	}
	evals := er.EstimateSpecializations(ops)
	require.Len(t, evals, 2)
	// Column 1 has no selectivity (always the same value), so binding it
	// should keep at least as much of the base Pos as binding column 0 does.
	require.GreaterOrEqual(t, evals[1].Pos, evals[0].Pos)
	require.Equal(t, cached.Eval().Len+1, evals[0].Len)
}
