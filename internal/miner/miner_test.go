package miner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/kb"
)

func rec(vals ...int32) *kb.Record {
	r := kb.Record(vals)
	return &r
}

func familyMotherKB() *kb.KB {
	family := kb.NewRelation("family", 1, 3, []*kb.Record{
		rec(4, 5, 6), rec(7, 8, 9), rec(10, 11, 12), rec(13, 14, 15),
	})
	mother := kb.NewRelation("mother", 2, 2, []*kb.Record{
		rec(4, 6), rec(7, 9), rec(10, 12), rec(13, 15),
	})
	num := kb.NewNumerationMap(15)
	return &kb.KB{
		Relations: []*kb.Relation{family, mother},
		ByName:    map[string]*kb.Relation{"family": family, "mother": mother},
		Numeration: num,
	}
}

func alwaysTrue() bool { return true }

func TestMineRelationFindsFamilyMotherProjection(t *testing.T) {
	kbase := familyMotherKB()
	pool := cb.NewPool()
	params := Params{
		BeamWidth:            5,
		StopCompressionRatio: 1.0,
		MinFactCoverage:      0.05,
		MinConstantCoverage:  0.25,
	}
	m := NewRelationMiner(kbase, pool, params, nil)

	mother := kbase.ByName["mother"]
	accepted := m.MineRelation(mother, alwaysTrue)
	require.NotEmpty(t, accepted)
	require.Equal(t, "mother(X0,X1):-family(X0,?,X1)", accepted[0].Rule.Dump(m.relName, nil))
	require.Len(t, accepted[0].Groundings, 4)
	require.Equal(t, 4, mother.TotalEntailedRecords())
}

func TestBuildColumnStatsCountsDistinctValuesPerColumn(t *testing.T) {
	kbase := familyMotherKB()
	stats := buildColumnStats(kbase)

	family := kbase.ByName["family"]
	require.Len(t, stats[family.ID], 3)
	require.Equal(t, 4, stats[family.ID][0].DistinctValues)
	require.Equal(t, 4, stats[family.ID][0].TotalRows)
}

func TestMineRelationObservationRatioUsesEstimationPath(t *testing.T) {
	kbase := familyMotherKB()
	pool := cb.NewPool()
	params := Params{
		BeamWidth:            5,
		StopCompressionRatio: 1.0,
		MinFactCoverage:      0.05,
		MinConstantCoverage:  0.25,
		ObservationRatio:     1.0,
	}
	m := NewRelationMiner(kbase, pool, params, nil)

	mother := kbase.ByName["mother"]
	accepted := m.MineRelation(mother, alwaysTrue)
	require.NotEmpty(t, accepted)
	require.Greater(t, mother.TotalEntailedRecords(), 0)
}
