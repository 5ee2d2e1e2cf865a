package kb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rec(vals ...int32) *Record {
	r := Record(vals)
	return &r
}

func TestRecordEqualAndClone(t *testing.T) {
	a, b := rec(1, 2, 3), rec(1, 2, 3)
	require.True(t, a.Equal(*b))

	c := rec(1, 2, 4)
	require.False(t, a.Equal(*c))
	require.False(t, a.Equal(Record{1, 2}))

	clone := a.Clone()
	clone[0] = 9
	require.EqualValues(t, 1, (*a)[0])
}

func TestIntTableGetSliceAndSplitSlices(t *testing.T) {
	rows := []*Record{rec(1, 10), rec(2, 20), rec(1, 11), rec(3, 30)}
	table := NewIntTable(rows, 2)

	got := table.GetSlice(0, 1)
	require.Len(t, got, 2)

	require.Nil(t, table.GetSlice(0, 99))

	groups := table.SplitSlices(0)
	require.Len(t, groups, 3)
}

func TestIntTableMatchSlicesWith(t *testing.T) {
	left := NewIntTable([]*Record{rec(1, 100), rec(2, 200)}, 2)
	right := NewIntTable([]*Record{rec(100, 1), rec(300, 9)}, 2)

	pairs := left.MatchSlicesWith(1, right, 0)
	require.Len(t, pairs, 1)
	require.Equal(t, int32(100), pairs[0].Value)
}

func TestIntTableMatchSlicesSelfJoin(t *testing.T) {
	rows := []*Record{rec(1, 1), rec(2, 3), rec(5, 5)}
	table := NewIntTable(rows, 2)

	groups := table.MatchSlices(0, 1)
	require.Len(t, groups, 2)
}

func TestNumerationMapSetAndName(t *testing.T) {
	m := NewNumerationMap(3)
	m.Set(1, "alice")
	m.Set(3, "carol")

	require.Equal(t, "alice", m.Name(1))
	require.Equal(t, "carol", m.Name(3))
	require.Equal(t, "#2", m.Name(2))
	require.Equal(t, 3, m.Len())
}

func TestNumerationMapGrowsPastInitialCapacity(t *testing.T) {
	m := NewNumerationMap(1)
	m.Set(5, "dave")
	require.Equal(t, "dave", m.Name(5))
	require.GreaterOrEqual(t, m.Len(), 5)
}

func TestRelationEntailmentTracking(t *testing.T) {
	r0, r1 := rec(1, 2), rec(3, 4)
	rel := NewRelation("likes", 1, 2, []*Record{r0, r1})

	require.False(t, rel.IsEntailed(r0))
	require.True(t, rel.EntailIfNot(r0))
	require.False(t, rel.EntailIfNot(r0))
	require.True(t, rel.IsEntailed(r0))
	require.Equal(t, 1, rel.TotalEntailedRecords())

	entailed, nonEntailed := rel.SplitByEntailment()
	require.Len(t, entailed, 1)
	require.Len(t, nonEntailed, 1)

	rel.SetAsNotEntailed(r0)
	require.False(t, rel.IsEntailed(r0))
	require.Equal(t, 0, rel.TotalEntailedRecords())
}

func TestRelationPromisingConstants(t *testing.T) {
	rel := NewRelation("p", 1, 1, []*Record{rec(1), rec(1), rec(1), rec(2)})
	promising := rel.PromisingConstants(0.5)
	require.Contains(t, promising[0], int32(1))
	require.NotContains(t, promising[0], int32(2))
}

func TestRelationReplaceRecordsResetsCaches(t *testing.T) {
	r0 := rec(1, 2)
	rel := NewRelation("p", 1, 2, []*Record{r0})
	rel.SetAsEntailed(r0)
	require.Equal(t, 1, rel.TotalEntailedRecords())

	r1 := rec(9, 9)
	rel.ReplaceRecords([]*Record{r1})
	require.Equal(t, 0, rel.TotalEntailedRecords())
	require.Equal(t, 1, rel.NumRecords())
	require.True(t, rel.Contains(Record{9, 9}))
}
