package cb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/kb"
)

func rec(vals ...int32) *kb.Record {
	r := kb.Record(vals)
	return &r
}

func TestPoolGetDedupesSameRowIdentities(t *testing.T) {
	rows := []*kb.Record{rec(1, 2), rec(3, 4)}
	pool := NewPool()

	first := pool.Get(rows, 2)
	second := pool.Get(rows, 2)
	require.Same(t, first, second)
	require.Equal(t, 1, pool.Size())

	other := pool.Get([]*kb.Record{rec(5, 6)}, 2)
	require.NotSame(t, first, other)
	require.Equal(t, 2, pool.Size())
}

func TestPoolClearDropsEntries(t *testing.T) {
	pool := NewPool()
	pool.Get([]*kb.Record{rec(1, 2)}, 2)
	require.Equal(t, 1, pool.Size())

	pool.Clear()
	require.Equal(t, 0, pool.Size())
}

func TestCBBuildIndicesIsIdempotentAndLazy(t *testing.T) {
	c := newCB([]*kb.Record{rec(1, 10), rec(2, 20)}, 2)
	require.Equal(t, 2, c.NumRows())
	require.Equal(t, 2, c.Arity())

	idx := c.Index()
	require.NotNil(t, idx)
	c.BuildIndices()
	require.Same(t, idx, c.Index())
}
