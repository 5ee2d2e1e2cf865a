package rule

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

// familyMotherKB builds the worked example's family/mother relations
// (spec.md §8 scenario 1): family(X,Y,Z) holds X and Y are Z's parents;
// mother(X,Z) holds X is Z's mother.
func familyMotherKB() (family, mother *kb.Relation) {
	family = kb.NewRelation("family", 1, 3, []*kb.Record{
		rec(4, 5, 6), rec(7, 8, 9), rec(10, 11, 12), rec(13, 14, 15),
	})
	mother = kb.NewRelation("mother", 2, 2, []*kb.Record{
		rec(4, 6), rec(7, 9), rec(10, 12), rec(13, 15),
	})
	return
}

func TestCachedRuleBuildsMotherFromFamily(t *testing.T) {
	family, mother := familyMotherKB()
	lookup := func(symbol int) *kb.Relation {
		if symbol == family.ID {
			return family
		}
		return mother
	}
	pool := cb.NewPool()
	cr := NewCachedRule(mother, lookup, pool, 17, 0.05, 0.25)
	require.Equal(t, 4, cr.Eval().Pos)

	fps := NewFingerprintSet()
	tabu := NewTabuMap()

	// mother(X0,?):-family(X0,?,?)
	status, cr1 := cr.SpecializeCase4(family, 0, -1, 0, fps, tabu)
	require.Equal(t, Normal, status)
	require.Equal(t, 1, cr1.Length())

	// mother(X0,X1):-family(X0,?,X1)
	status, cr2 := cr1.SpecializeCase3(-1, 1, 0, 2, fps, tabu)
	require.Equal(t, Normal, status)
	require.Equal(t, 4, cr2.Eval().Pos)
	require.Equal(t, "mother(X0,X1):-family(X0,?,X1)", cr2.Dump(func(s int) string {
		if s == mother.ID {
			return "mother"
		}
		return "family"
	}, nil))

	groundings := cr2.GetEvidenceAndMarkEntailment()
	require.Len(t, groundings, 4)
	require.Equal(t, 4, mother.TotalEntailedRecords())
}

func TestCachedRuleCoveragePrunesSparseSpecialization(t *testing.T) {
	family, mother := familyMotherKB()
	lookup := func(symbol int) *kb.Relation {
		if symbol == family.ID {
			return family
		}
		return mother
	}
	pool := cb.NewPool()
	cr := NewCachedRule(mother, lookup, pool, 17, 0.9, 0.25)
	fps := NewFingerprintSet()
	tabu := NewTabuMap()

	// Binding head arg0 to a constant absent from every mother row covers
	// nothing, so this must be pruned under a very high coverage threshold.
	status, _ := cr.SpecializeCase5(-1, 0, 99, fps, tabu)
	require.Equal(t, InsufficientCoverage, status)
}

func TestCachedRuleDuplicateFingerprintRejected(t *testing.T) {
	family, mother := familyMotherKB()
	lookup := func(symbol int) *kb.Relation {
		if symbol == family.ID {
			return family
		}
		return mother
	}
	pool := cb.NewPool()
	cr := NewCachedRule(mother, lookup, pool, 17, 0.05, 0.25)
	fps := NewFingerprintSet()
	tabu := NewTabuMap()

	status, cr1 := cr.SpecializeCase4(family, 0, -1, 0, fps, tabu)
	require.Equal(t, Normal, status)

	// Re-deriving the identical structure from the original rule must hit
	// the fingerprint set's duplicate check.
	status2, _ := cr.SpecializeCase4(family, 0, -1, 0, fps, tabu)
	require.Equal(t, Duplicated, status2)
	_ = cr1
}
