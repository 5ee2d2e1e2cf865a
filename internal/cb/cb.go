// Package cb implements CompliedBlock (CB), the shared handle to a row
// subset of a relation (spec.md §3.1 "CompliedBlock", §4.2).
package cb

import (
	"strconv"
	"strings"
	"unsafe"

	"github.com/TramsWang/SInC-sub001/internal/kb"
)

// CB wraps a row subset of some relation plus an optional lazy IntTable
// index over just that subset. CacheFragment entries are tuples of CBs, one
// per predicate template (spec.md §3.4).
type CB struct {
	rows  []*kb.Record
	index *kb.IntTable
	arity int
}

func newCB(rows []*kb.Record, arity int) *CB {
	return &CB{rows: rows, arity: arity}
}

func (c *CB) Rows() []*kb.Record { return c.rows }
func (c *CB) NumRows() int       { return len(c.rows) }
func (c *CB) Arity() int         { return c.arity }

// BuildIndices is idempotent (spec.md §4.2, §8): it constructs the CB's
// private IntTable only the first time it is called.
func (c *CB) BuildIndices() {
	if c.index == nil {
		c.index = kb.NewIntTable(c.rows, c.arity)
	}
}

// Index returns the CB's lazily-built IntTable, building it first if
// necessary.
func (c *CB) Index() *kb.IntTable {
	c.BuildIndices()
	return c.index
}

// Pool deduplicates identical row subsets within a single target relation's
// mining run, so that repeated fragment splits that land on the same subset
// share one CB (spec.md §4.2, §5 "CB pool"). It is process-wide in spirit:
// the driver constructs exactly one Pool and clears it between target
// relations (spec.md §5 "cleared only between target relations"); since
// mining is single-threaded (spec.md §5) the pool needs no locking.
type Pool struct {
	entries map[string]*CB
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[string]*CB)}
}

// Clear empties the pool. Call this between target relations.
func (p *Pool) Clear() {
	p.entries = make(map[string]*CB)
}

// Size reports how many distinct CBs are currently registered.
func (p *Pool) Size() int { return len(p.entries) }

// Get returns the existing CB for this exact row subset (same records, same
// order) if one was already registered, or registers and returns a new one.
func (p *Pool) Get(rows []*kb.Record, arity int) *CB {
	key := keyFor(rows)
	if existing, ok := p.entries[key]; ok {
		return existing
	}
	made := newCB(rows, arity)
	p.entries[key] = made
	return made
}

// keyFor derives a dedup key from the identities (not values) of the row
// pointers, since two CBs over the "same" rows always share the same
// backing *Record pointers — they originate from one relation's record
// slice and are only ever reordered or sliced, never copied.
func keyFor(rows []*kb.Record) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(strconv.FormatUint(uint64(uintptr(unsafe.Pointer(r))), 16))
		sb.WriteByte(',')
	}
	return sb.String()
}
