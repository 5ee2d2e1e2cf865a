// Package rule implements the rule core (spec.md §3.3, §4.5) and
// CachedRule (spec.md §3.5, §4.4): a Horn rule's structure, its fingerprint
// and pruning invariants, and the three join caches that back a live
// specialization search.
package rule

// UpdateStatus reports the outcome of applying a specialization to a
// CachedRule (spec.md §7). It is local to rule transitions, not a Go
// error: no status, OutOfMemory included, is ever turned into a Go error;
// every non-Normal status is a normal, locally-handled candidate
// rejection.
type UpdateStatus int

const (
	Normal UpdateStatus = iota
	Duplicated
	InsufficientCoverage
	TabuPruned
	Invalid
	OutOfMemory
)

func (s UpdateStatus) String() string {
	switch s {
	case Normal:
		return "Normal"
	case Duplicated:
		return "Duplicated"
	case InsufficientCoverage:
		return "InsufficientCoverage"
	case TabuPruned:
		return "TabuPruned"
	case Invalid:
		return "Invalid"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Accepted reports whether a candidate with this status should be kept.
func (s UpdateStatus) Accepted() bool { return s == Normal }
