// Package predicate implements the predicate/argument encoding used
// throughout a rule's structure (spec.md §3.2): a predicate is a
// (symbol, arity, args) triple, and each argument is tagged EMPTY,
// VARIABLE(v), or CONSTANT(c).
package predicate

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgKind tags an argument slot.
type ArgKind uint8

const (
	// Empty marks an unassigned argument slot (an eventual UV, spec.md
	// GLOSSARY "UV").
	Empty ArgKind = iota
	Variable
	Constant
)

// Arg is one tagged argument value.
type Arg struct {
	Kind ArgKind
	Var  int   // valid when Kind == Variable: the LV id
	Const int32 // valid when Kind == Constant
}

// EmptyArg is the zero value, matching ArgKind Empty.
var EmptyArg = Arg{Kind: Empty}

func VarArg(v int) Arg       { return Arg{Kind: Variable, Var: v} }
func ConstArg(c int32) Arg   { return Arg{Kind: Constant, Const: c} }

func (a Arg) IsEmpty() bool    { return a.Kind == Empty }
func (a Arg) IsVariable() bool { return a.Kind == Variable }
func (a Arg) IsConstant() bool { return a.Kind == Constant }

func (a Arg) Equal(o Arg) bool {
	if a.Kind != o.Kind {
		return false
	}
	switch a.Kind {
	case Variable:
		return a.Var == o.Var
	case Constant:
		return a.Const == o.Const
	default:
		return true
	}
}

// String renders the argument in rules.hyp grammar: '?' for EMPTY, "X<n>"
// for a variable, or the constant's numeration (or, via WithNames, its
// textual name).
func (a Arg) String() string {
	switch a.Kind {
	case Empty:
		return "?"
	case Variable:
		return "X" + strconv.Itoa(a.Var)
	default:
		return strconv.Itoa(int(a.Const))
	}
}

// Predicate is (symbol, arity, args[arity]) — spec.md §3.2. Symbol is the
// relation's numeration (its 1-based Relations.tsv line number).
type Predicate struct {
	Symbol int
	Arity  int
	Args   []Arg
}

// New returns a predicate of the given symbol/arity with every argument
// EMPTY.
func New(symbol, arity int) *Predicate {
	return &Predicate{Symbol: symbol, Arity: arity, Args: make([]Arg, arity)}
}

// Clone returns an independent copy (new Args slice, same values).
func (p *Predicate) Clone() *Predicate {
	args := make([]Arg, len(p.Args))
	copy(args, p.Args)
	return &Predicate{Symbol: p.Symbol, Arity: p.Arity, Args: args}
}

// Equal reports structural equality: same symbol and identical argument
// tuple (used by the "no duplicate predicate" rule invariant, spec.md §3.3).
func (p *Predicate) Equal(o *Predicate) bool {
	if p.Symbol != o.Symbol || p.Arity != o.Arity {
		return false
	}
	for i := range p.Args {
		if !p.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders "sym(arg0,arg1,...)" with numeric symbol/constants.
func (p *Predicate) String() string {
	return p.Format(nil, nil)
}

// Format renders the predicate, looking up the relation symbol's name
// through relName (relation id -> name) and any constant arguments'
// names through constName (constant numeration -> name) if provided. The
// two lookups are kept separate because relation ids and constant
// numerations are different domains that may overlap numerically (this
// package stays free of a direct dependency on package kb, which owns
// both namespaces).
func (p *Predicate) Format(relName func(int) string, constName func(int32) string) string {
	symName := strconv.Itoa(p.Symbol)
	if relName != nil {
		symName = relName(p.Symbol)
	}
	if p.Arity == 0 {
		return symName + "()"
	}
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		if a.IsConstant() && constName != nil {
			parts[i] = constName(a.Const)
		} else {
			parts[i] = a.String()
		}
	}
	return fmt.Sprintf("%s(%s)", symName, strings.Join(parts, ","))
}
