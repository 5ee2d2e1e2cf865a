package kb

import "fmt"

// MaxMapEntries is the number of constant names stored per mapN.tsv file
// (spec.md §6.2).
const MaxMapEntries = 1000000

// NumerationMap translates between constant numerations and their original
// string names, backed by the mapN.tsv files (spec.md §6.2): constant k's
// name lives at line (k-1)%MaxMapEntries+1 of map((k-1)/MaxMapEntries+1).tsv.
type NumerationMap struct {
	names []string // index 0 unused; numeration k at names[k]
}

// NewNumerationMap builds an empty map able to hold numerations 1..capacity.
func NewNumerationMap(capacity int) *NumerationMap {
	return &NumerationMap{names: make([]string, capacity+1)}
}

// Set records the name for numeration k.
func (m *NumerationMap) Set(k int32, name string) {
	if int(k) >= len(m.names) {
		grown := make([]string, int(k)+1)
		copy(grown, m.names)
		m.names = grown
	}
	m.names[k] = name
}

// Name returns the name for numeration k, or a synthetic "#<k>" if unknown.
func (m *NumerationMap) Name(k int32) string {
	if int(k) < len(m.names) && m.names[k] != "" {
		return m.names[k]
	}
	return fmt.Sprintf("#%d", k)
}

// Len returns the highest numeration (inclusive) this map has room for.
func (m *NumerationMap) Len() int {
	return len(m.names) - 1
}

// fileForNumeration returns the 1-based mapN.tsv file index and 1-based line
// number within that file for numeration k.
func fileForNumeration(k int32) (file int, line int) {
	file = int((k-1)/MaxMapEntries) + 1
	line = int((k-1)%MaxMapEntries) + 1
	return
}
