package predicate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualIgnoresArgIdentityNotValue(t *testing.T) {
	p := New(1, 2)
	p.Args[0] = VarArg(0)
	p.Args[1] = ConstArg(42)

	q := New(1, 2)
	q.Args[0] = VarArg(0)
	q.Args[1] = ConstArg(42)
	require.True(t, p.Equal(q))

	q.Args[1] = ConstArg(43)
	require.False(t, p.Equal(q))
}

func TestCloneIsIndependent(t *testing.T) {
	p := New(1, 2)
	p.Args[0] = VarArg(0)
	c := p.Clone()
	c.Args[0] = VarArg(1)
	require.Equal(t, VarArg(0), p.Args[0])
	require.Equal(t, VarArg(1), c.Args[0])
}

func TestStringGrammar(t *testing.T) {
	p := New(1, 3)
	p.Args[0] = EmptyArg
	p.Args[1] = VarArg(2)
	p.Args[2] = ConstArg(7)
	require.Equal(t, "1(?,X2,7)", p.String())
}

func TestFormatUsesSeparateLookups(t *testing.T) {
	p := New(3, 2)
	p.Args[0] = ConstArg(3) // same numeric value as the symbol, different domain
	p.Args[1] = VarArg(0)

	relName := func(s int) string {
		if s == 3 {
			return "mother"
		}
		return "?"
	}
	constName := func(c int32) string {
		if c == 3 {
			return "alice"
		}
		return "?"
	}
	require.Equal(t, "mother(alice,X0)", p.Format(relName, constName))
}

func TestArityZeroPredicate(t *testing.T) {
	p := New(5, 0)
	require.Equal(t, "5()", p.String())
}
