package linkgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkAndConnected(t *testing.T) {
	m := New()
	require.False(t, m.Connected(1, 2))
	m.Link(1, 2)
	require.True(t, m.Connected(1, 2))
	require.False(t, m.Connected(1, 3))
}

func TestShortestPath(t *testing.T) {
	m := New()
	m.Link(1, 2)
	m.Link(2, 3)
	require.Equal(t, []int{1, 2, 3}, m.ShortestPath(1, 3))
	require.Nil(t, m.ShortestPath(1, 9))
	require.Equal(t, []int{1}, m.ShortestPath(1, 1))
}

func TestAssumeShortestPathCase1FindsHypotheticalShortcut(t *testing.T) {
	m := New()
	m.Link(1, 2)
	m.Link(2, 3)
	m.Link(3, 4)
	require.Len(t, m.ShortestPath(1, 4), 4)
	require.Equal(t, []int{1, 4}, m.AssumeShortestPathCase1(1, 4, 1, 4))
}

func TestAssumeSpecOprCase1ReportsOnlyNewLinks(t *testing.T) {
	m := New()
	m.Link(1, 2)
	links := m.AssumeSpecOprCase1(2, []int{1, 3})
	require.Equal(t, [][2]int{{2, 3}}, links)
}

func TestAssumeSpecOprCase3PairsAcrossLiterals(t *testing.T) {
	m := New()
	links := m.AssumeSpecOprCase3([]int{1, 2}, []int{3})
	require.Len(t, links, 2)
}
