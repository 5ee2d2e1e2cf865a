package rule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

func motherRule() *Rule {
	// mother(X0,X1):-family(X0,?,X1)
	head := predicate.New(1, 2)
	head.Args[0] = predicate.VarArg(0)
	head.Args[1] = predicate.VarArg(1)
	r := New(head)
	body := predicate.New(2, 3)
	body.Args[0] = predicate.VarArg(0)
	body.Args[1] = predicate.EmptyArg
	body.Args[2] = predicate.VarArg(1)
	r.AppendBody(body)
	r.nextLV = 2
	return r
}

func TestFingerprintInvariantUnderRenumbering(t *testing.T) {
	r1 := motherRule()

	head2 := predicate.New(1, 2)
	head2.Args[0] = predicate.VarArg(5)
	head2.Args[1] = predicate.VarArg(9)
	r2 := New(head2)
	body2 := predicate.New(2, 3)
	body2.Args[0] = predicate.VarArg(5)
	body2.Args[1] = predicate.EmptyArg
	body2.Args[2] = predicate.VarArg(9)
	r2.AppendBody(body2)

	require.Equal(t, r1.Fingerprint(), r2.Fingerprint())
}

func TestFingerprintDiffersOnStructure(t *testing.T) {
	r1 := motherRule()
	r3 := motherRule()
	r3.Body[0].Args[1] = predicate.ConstArg(9)
	require.NotEqual(t, r1.Fingerprint(), r3.Fingerprint())
}

func TestIsConnected(t *testing.T) {
	r := motherRule()
	require.True(t, r.IsConnected())

	disconnected := motherRule()
	extra := predicate.New(3, 1)
	extra.Args[0] = predicate.VarArg(disconnected.AllocVar())
	disconnected.AppendBody(extra)
	require.False(t, disconnected.IsConnected())
}

func TestIsConnectedEmptyBody(t *testing.T) {
	head := predicate.New(1, 3)
	require.True(t, New(head).IsConnected())
}

func TestHasDuplicateLiteral(t *testing.T) {
	r := motherRule()
	dup := r.Body[0].Clone()
	r.AppendBody(dup)
	require.True(t, r.HasDuplicateLiteral())
}

func TestDumpGrammar(t *testing.T) {
	r := motherRule()
	relName := func(s int) string {
		if s == 1 {
			return "mother"
		}
		return "family"
	}
	require.Equal(t, "mother(X0,X1):-family(X0,?,X1)", r.Dump(relName, nil))
}

func TestParseRoundTrip(t *testing.T) {
	resolve := func(name string) (int, int, bool) {
		switch name {
		case "mother":
			return 1, 2, true
		case "family":
			return 2, 3, true
		}
		return 0, 0, false
	}
	constOf := func(string) int32 { return 0 }

	r, err := Parse("mother(X0,X1):-family(X0,?,X1)", resolve, constOf)
	require.NoError(t, err)
	require.Equal(t, 1, r.Head.Symbol)
	require.Len(t, r.Body, 1)
	require.Equal(t, predicate.VarArg(0), r.Head.Args[0])
	require.Equal(t, predicate.EmptyArg, r.Body[0].Args[1])
	require.Equal(t, 2, r.nextLV)
}

func TestParseEmptyBody(t *testing.T) {
	resolve := func(name string) (int, int, bool) { return 1, 3, true }
	r, err := Parse("family(?,?,?):-", resolve, func(string) int32 { return 0 })
	require.NoError(t, err)
	require.Empty(t, r.Body)
}

func TestCategorySubsetKeysDedup(t *testing.T) {
	r := motherRule()
	dup := r.Body[0].Clone()
	dup.Args[0] = predicate.VarArg(9) // same category token, different var identity
	r.AppendBody(dup)

	keys := r.CategorySubsetKeys()
	// size-1 subsets: only one distinct token (both literals share category),
	// size-2 subsets: only one distinct pair -> 2 distinct keys total.
	require.Len(t, keys, 2)
}

func TestTabuMapHasAny(t *testing.T) {
	m := NewTabuMap()
	m.Add("2?v v")
	require.True(t, m.HasAny([]string{"nope", "2?v v"}))
	require.False(t, m.HasAny([]string{"nope"}))
}

func TestFingerprintSetAddIfNew(t *testing.T) {
	s := NewFingerprintSet()
	require.True(t, s.AddIfNew("a"))
	require.False(t, s.AddIfNew("a"))
	require.True(t, s.AddIfNew("b"))
}
