package rule

import "math"

// Eval is a rule's evaluation triple (spec.md §4.4): positive entailments
// (non-entailed target rows this rule newly proves), negative entailments
// (non-target-relation tuples it would also prove), and body length.
type Eval struct {
	Pos int
	Neg int
	Len int
}

// Metric selects which of spec.md §6.1 -e's three scoring functions to use.
type Metric int

const (
	// CompressionRatio (τ, the default) rewards short rules that cover many
	// facts: pos / (len + 2), the "+2" accounting for the head literal and
	// the rule's own encoding overhead.
	CompressionRatio Metric = iota
	// CompressionCapacity (δ) is the net number of facts/literals saved:
	// pos - neg - len.
	CompressionCapacity
	// InfoGain (h) is the FOIL-style information gain relative to the
	// parent rule this candidate specializes: positive only when the
	// candidate's positive/negative ratio improves on its parent's.
	InfoGain
)

// ParseMetric maps the -e flag's metric names ("tau" or "τ", "delta" or
// "δ", "h") to a Metric.
func ParseMetric(s string) (Metric, bool) {
	switch s {
	case "tau", "τ":
		return CompressionRatio, true
	case "delta", "δ":
		return CompressionCapacity, true
	case "h":
		return InfoGain, true
	default:
		return 0, false
	}
}

// CompressionRatioValue computes τ directly (used by the beam-search
// stopping rule of spec.md §4.6 regardless of which -e metric drives beam
// ranking).
func (e Eval) CompressionRatioValue() float64 {
	return float64(e.Pos) / float64(e.Len+2)
}

// CompressionCapacityValue computes δ directly.
func (e Eval) CompressionCapacityValue() float64 {
	return float64(e.Pos - e.Neg - e.Len)
}

// infoGainValue computes h relative to parent. A nil parent (the most
// general rule P(?,?,...) has no parent) scores -Inf so it is never chosen
// by this metric over an actual specialization.
func (e Eval) infoGainValue(parent *Eval) float64 {
	if parent == nil || e.Pos == 0 {
		return math.Inf(-1)
	}
	total := e.Pos + e.Neg
	if total == 0 {
		return math.Inf(-1)
	}
	parentTotal := parent.Pos + parent.Neg
	if parentTotal == 0 || parent.Pos == 0 {
		return math.Inf(-1)
	}
	return float64(e.Pos) * (log2(float64(e.Pos)/float64(total)) - log2(float64(parent.Pos)/float64(parentTotal)))
}

func log2(x float64) float64 { return math.Log2(x) }

// Score computes the scalar used to rank candidates under metric. parent is
// only consulted for InfoGain.
func (e Eval) Score(metric Metric, parent *Eval) float64 {
	switch metric {
	case CompressionCapacity:
		return e.CompressionCapacityValue()
	case InfoGain:
		return e.infoGainValue(parent)
	default:
		return e.CompressionRatioValue()
	}
}
