package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TramsWang/SInC-sub001/internal/predicate"
)

// Fingerprint is a rule's variant tag: two rules with the same fingerprint
// are identical up to consistent LV renumbering (spec.md §4.5, §8). This
// generalizes the teacher's Literal.tagf/Clause.tag scheme (datalog.go) from
// "predicate with Var/Const terms" to "predicate with EMPTY/Var/Const arg
// kinds", assigning canonical variable numbers by first occurrence while
// walking head then body in order.
type Fingerprint string

// Fingerprint builds r's fingerprint.
func (r *Rule) Fingerprint() Fingerprint {
	var sb strings.Builder
	varNum := make(map[int]int)
	writeTag(&sb, r.Head, varNum)
	for _, b := range r.Body {
		writeTag(&sb, b, varNum)
	}
	return Fingerprint(sb.String())
}

func writeTag(sb *strings.Builder, p *predicate.Predicate, varNum map[int]int) {
	fmt.Fprintf(sb, "|%d", p.Symbol)
	for _, a := range p.Args {
		switch a.Kind {
		case predicate.Empty:
			sb.WriteString(",?")
		case predicate.Constant:
			fmt.Fprintf(sb, ",c%d", a.Const)
		case predicate.Variable:
			num, ok := varNum[a.Var]
			if !ok {
				num = len(varNum)
				varNum[a.Var] = num
			}
			fmt.Fprintf(sb, ",v%d", num)
		}
	}
}

// categoryToken is a literal's LV-free category (spec.md §4.5): like a
// fingerprint tag but every variable becomes the same bare marker, losing
// which other argument it's shared with — only "is this slot a variable"
// survives, alongside constants and EMPTY slots.
func categoryToken(p *predicate.Predicate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", p.Symbol)
	for _, a := range p.Args {
		switch a.Kind {
		case predicate.Empty:
			sb.WriteByte('?')
		case predicate.Variable:
			sb.WriteByte('v')
		case predicate.Constant:
			fmt.Fprintf(&sb, "c%d", a.Const)
		}
	}
	return sb.String()
}

// Category returns the rule body's LV-free category multiset, one token per
// body literal, sorted for stable multiset comparison.
func (r *Rule) Category() []string {
	tokens := make([]string, len(r.Body))
	for i, b := range r.Body {
		tokens[i] = categoryToken(b)
	}
	sort.Strings(tokens)
	return tokens
}

// CategorySubsetKeys returns one tabu-map key per distinct non-empty
// sub-multiset (size 1..len(tokens)) of the rule's category, per spec.md
// §4.5's "check every subcategory of its category multiset of size
// k=1..|cat|". Keys are deduplicated so repeated categories (e.g. two
// identical body literals) don't enumerate the same subset twice.
func (r *Rule) CategorySubsetKeys() []string {
	tokens := r.Category()
	n := len(tokens)
	seen := make(map[string]bool)
	var keys []string
	var combo []string
	var rec func(start, k int)
	rec = func(start, k int) {
		if k == 0 {
			key := strings.Join(combo, "|")
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
			return
		}
		for i := start; i <= n-k; i++ {
			combo = append(combo, tokens[i])
			rec(i+1, k-1)
			combo = combo[:len(combo)-1]
		}
	}
	for k := 1; k <= n; k++ {
		rec(0, k)
	}
	return keys
}

// TabuMap records category keys that already failed coverage, owned per
// relation per spec.md §5 ("Fingerprint cache / tabu map: owned per
// relation, fresh for each findRule call").
type TabuMap struct {
	keys map[string]bool
}

func NewTabuMap() *TabuMap { return &TabuMap{keys: make(map[string]bool)} }

func (m *TabuMap) Add(key string) { m.keys[key] = true }

func (m *TabuMap) Has(key string) bool { return m.keys[key] }

// HasAny reports whether any of keys is present (used for the "check every
// subcategory" tabu test).
func (m *TabuMap) HasAny(keys []string) bool {
	for _, k := range keys {
		if m.keys[k] {
			return true
		}
	}
	return false
}

// FingerprintSet is the duplicate-structure cache, owned per relation
// (spec.md §4.5, §5).
type FingerprintSet struct {
	seen map[Fingerprint]bool
}

func NewFingerprintSet() *FingerprintSet {
	return &FingerprintSet{seen: make(map[Fingerprint]bool)}
}

// AddIfNew records fp and reports true if it was not already present.
func (s *FingerprintSet) AddIfNew(fp Fingerprint) bool {
	if s.seen[fp] {
		return false
	}
	s.seen[fp] = true
	return true
}
