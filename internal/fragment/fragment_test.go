package fragment

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

func rec(vals ...int32) *kb.Record {
	r := kb.Record(vals)
	return &r
}

func newPRelation() []*kb.Record {
	return []*kb.Record{
		rec(1, 1, 1),
		rec(1, 1, 2),
		rec(1, 2, 3),
		rec(2, 1, 3),
		rec(4, 4, 6),
		rec(5, 5, 1),
		rec(1, 3, 2),
		rec(2, 4, 4),
	}
}

// TestCase1aDemotion reproduces the worked example of a PLV demotion split:
// p(?,?,?) with 1a(0,0,v0) then 1a(0,1,v0) must partition p into the three
// groups sharing col0==col1.
func TestCase1aDemotion(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())

	f.Case1a(0, 0, 0)
	require.True(t, f.VarInfo[0].IsPLV)

	f.Case1a(0, 1, 0)
	require.False(t, f.VarInfo[0].IsPLV)

	require.Len(t, f.Entries, 3)

	var rows []int32
	for _, e := range f.Entries {
		for _, r := range e[0].Rows() {
			rows = append(rows, (*r)[0])
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	require.Equal(t, []int32{1, 1, 4, 5}, rows)
}

// TestCase2aThenCase1a reproduces p(X1,X1,X1) via 2a(0,0,0,1,1) then
// 1a(0,2,1): the only surviving row must be (1,1,1).
func TestCase2aThenCase1a(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())

	f.Case2a(0, 0, 0, 1, 1)
	require.False(t, f.VarInfo[1].IsPLV)

	f.Case1a(0, 2, 1)

	require.Len(t, f.Entries, 1)
	rows := f.Entries[0][0].Rows()
	require.Len(t, rows, 1)
	require.Equal(t, int32(1), (*rows[0])[0])
	require.Equal(t, int32(1), (*rows[0])[1])
	require.Equal(t, int32(1), (*rows[0])[2])

	require.Equal(t, predicate.VarArg(1), f.Templates[0].Args[0])
	require.Equal(t, predicate.VarArg(1), f.Templates[0].Args[1])
	require.Equal(t, predicate.VarArg(1), f.Templates[0].Args[2])
}

// TestCase3BindsConstant checks that binding an EMPTY to a constant slices
// entries down to only the matching rows, per-entry.
func TestCase3BindsConstant(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())

	f.Case3(0, 0, 1)

	require.Len(t, f.Entries, 1)
	require.Len(t, f.Entries[0][0].Rows(), 4) // rows (1,1,1) (1,1,2) (1,2,3) (1,3,2)
	require.Equal(t, predicate.Arg{Kind: predicate.Constant, Const: 1}, f.Templates[0].Args[0])
}

// TestCase3EmptiesFragmentOnNoMatch checks that a constant with no matching
// rows drops every entry, leaving the fragment empty.
func TestCase3EmptiesFragmentOnNoMatch(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())

	f.Case3(0, 0, 99)

	require.True(t, f.IsEmpty())
}

// TestCountEqualsEnumerateLength is the spec's round-trip property:
// count_combinations(vids) == |enumerate_combinations(vids)|, checked across
// a PLV id, a non-PLV id, and a mix of both.
func TestCountEqualsEnumerateLength(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())
	f.Case1a(0, 0, 0) // v0 PLV at col 0

	for _, vids := range [][]int{{0}, {0}} {
		require.Equal(t, len(f.EnumerateCombinations(vids)), f.CountCombinations(vids))
	}

	f.Case2a(0, 1, 0, 2, 1) // v1 non-PLV linking col1==col2
	for _, vids := range [][]int{{0}, {1}, {0, 1}} {
		require.Equal(t, len(f.EnumerateCombinations(vids)), f.CountCombinations(vids))
	}
}

// TestCase1bAppendsAndJoins builds a second fragment representing relation
// q and links a fresh template into an existing non-PLV variable.
func TestCase1bAppendsAndJoins(t *testing.T) {
	pool := cb.NewPool()
	pTmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, pTmpl, newPRelation())

	f.Case2a(0, 0, 0, 1, 1) // v1 non-PLV, col0==col1

	qRows := []*kb.Record{rec(1, 10, 20), rec(4, 11, 21), rec(9, 12, 22)}
	qTable := kb.NewIntTable(qRows, 3)
	qTmpl := predicate.New(2, 3)

	f.Case1b(qTmpl, qTable, 0, 1)

	require.Len(t, f.Templates, 2)
	for _, e := range f.Entries {
		require.Len(t, e, 2)
		pVal := (*e[0].Rows()[0])[0]
		for _, r := range e[1].Rows() {
			require.Equal(t, pVal, (*r)[0])
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	pool := cb.NewPool()
	tmpl := predicate.New(1, 3)
	f := NewSingleTemplate(pool, tmpl, newPRelation())
	f.Case1a(0, 0, 0)

	g := f.Clone()
	g.Case1a(0, 1, 0)

	require.True(t, f.VarInfo[0].IsPLV)
	require.False(t, g.VarInfo[0].IsPLV)
	require.NotEqual(t, len(f.Entries), len(g.Entries))
}
