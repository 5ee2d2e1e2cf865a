package kb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/TramsWang/SInC-sub001/internal/sincerr"
)

const (
	relationsFileName    = "Relations.tsv"
	relationFileSuffix   = ".rel"
	counterexampleSuffix = ".ceg"
	mapFilePrefix        = "map"
	mapFileSuffix        = ".tsv"
	hypothesisFileName   = "rules.hyp"
	supplementaryCstName = "supplementary.cst"
)

// KB is a loaded knowledge base: its relation catalog, the per-relation
// record sets, and the numeration-to-name map (spec.md §6.2).
type KB struct {
	Dir       string
	Name      string
	Relations []*Relation // index i holds the relation with ID i+1
	ByName    map[string]*Relation
	Numeration *NumerationMap
}

// relDir returns <path>/<name>.
func relDir(path, name string) string {
	return filepath.Join(path, name)
}

// Load reads a full KB directory (spec.md §6.2): Relations.tsv, every
// <id>.rel file it names, and every mapN.tsv constant-name file present.
func Load(path, name string) (*KB, error) {
	dir := relDir(path, name)
	relFile := filepath.Join(dir, relationsFileName)
	f, err := os.Open(relFile)
	if err != nil {
		return nil, &sincerr.KbIoError{Path: relFile, Err: err}
	}
	defer f.Close()

	kbase := &KB{Dir: dir, Name: name, ByName: make(map[string]*Relation)}

	var merr *multierror.Error
	scanner := bufio.NewScanner(f)
	id := 0
	for scanner.Scan() {
		id++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			merr = multierror.Append(merr, fmt.Errorf("%s:%d: expected 3 tab-separated fields, got %d", relFile, id, len(parts)))
			continue
		}
		relName := parts[0]
		arity, errA := strconv.Atoi(parts[1])
		rows, errR := strconv.Atoi(parts[2])
		if errA != nil || errR != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s:%d: malformed arity/row-count", relFile, id))
			continue
		}
		relPath := filepath.Join(dir, strconv.Itoa(id)+relationFileSuffix)
		records, err := loadRelFile(relPath, arity, rows)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		rel := NewRelation(relName, id, arity, records)
		kbase.Relations = append(kbase.Relations, rel)
		kbase.ByName[relName] = rel
	}
	if err := scanner.Err(); err != nil {
		merr = multierror.Append(merr, &sincerr.KbIoError{Path: relFile, Err: err})
	}
	if merr.ErrorOrNil() != nil {
		return nil, merr.ErrorOrNil()
	}

	numMap, err := loadNumerationMap(dir)
	if err != nil {
		return nil, err
	}
	kbase.Numeration = numMap
	return kbase, nil
}

// loadRelFile reads a .rel binary file: arity*rows little-endian int32s,
// row-major (spec.md §6.2).
func loadRelFile(path string, arity, rows int) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sincerr.KbIoError{Path: path, Err: err}
	}
	want := arity * rows * 4
	if len(data) != want {
		return nil, &sincerr.KbIoError{Path: path, Err: fmt.Errorf("expected %d bytes, got %d", want, len(data))}
	}
	records := make([]*Record, rows)
	off := 0
	for i := 0; i < rows; i++ {
		rec := make(Record, arity)
		for c := 0; c < arity; c++ {
			v := int32(binary.LittleEndian.Uint32(data[off:]))
			rec[c] = v
			off += 4
		}
		records[i] = &rec
	}
	return records, nil
}

// dumpRelFile writes records in the .rel binary format.
func dumpRelFile(path string, records []*Record, arity int) error {
	buf := make([]byte, 0, len(records)*arity*4)
	for _, rec := range records {
		for c := 0; c < arity; c++ {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32((*rec)[c]))
			buf = append(buf, b[:]...)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &sincerr.KbIoError{Path: path, Err: err}
	}
	return nil
}

// loadNumerationMap reads every mapN.tsv file present in dir, in order,
// until the first missing N.
func loadNumerationMap(dir string) (*NumerationMap, error) {
	m := NewNumerationMap(0)
	for fileIdx := 1; ; fileIdx++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%d%s", mapFilePrefix, fileIdx, mapFileSuffix))
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			break
		} else if err != nil {
			return nil, &sincerr.KbIoError{Path: path, Err: err}
		}
		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			k := int32((fileIdx-1)*MaxMapEntries + line)
			m.Set(k, scanner.Text())
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, &sincerr.KbIoError{Path: path, Err: err}
		}
	}
	return m, nil
}

// dumpNumerationMap writes the numeration map back out, MaxMapEntries names
// per file.
func dumpNumerationMap(dir string, m *NumerationMap) error {
	total := m.Len()
	for fileIdx := 1; (fileIdx-1)*MaxMapEntries < total; fileIdx++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%d%s", mapFilePrefix, fileIdx, mapFileSuffix))
		var sb strings.Builder
		start := (fileIdx-1)*MaxMapEntries + 1
		end := start + MaxMapEntries - 1
		if end > total {
			end = total
		}
		for k := start; k <= end; k++ {
			sb.WriteString(m.Name(int32(k)))
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return &sincerr.KbIoError{Path: path, Err: err}
		}
	}
	return nil
}

// DumpRelations writes Relations.tsv and every <id>.rel file for the
// records currently held by kbase (used both for a plain re-dump and, by
// internal/sinc, for the post-compression residual KB).
func (k *KB) DumpRelations(path, name string) error {
	dir := relDir(path, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &sincerr.KbIoError{Path: dir, Err: err}
	}
	var sb strings.Builder
	for _, rel := range k.Relations {
		sb.WriteString(fmt.Sprintf("%s\t%d\t%d\n", rel.Name, rel.Arity, rel.NumRecords()))
	}
	if err := os.WriteFile(filepath.Join(dir, relationsFileName), []byte(sb.String()), 0o644); err != nil {
		return &sincerr.KbIoError{Path: dir, Err: err}
	}
	for _, rel := range k.Relations {
		relPath := filepath.Join(dir, strconv.Itoa(rel.ID)+relationFileSuffix)
		if err := dumpRelFile(relPath, rel.Records(), rel.Arity); err != nil {
			return err
		}
	}
	return dumpNumerationMap(dir, k.Numeration)
}

// DumpCounterexamples writes a relation's counterexample set to
// <id>.ceg, using the same binary layout as a .rel file (spec.md §6.2).
func DumpCounterexamples(dir string, relID int, arity int, records []*Record) error {
	path := filepath.Join(dir, strconv.Itoa(relID)+counterexampleSuffix)
	return dumpRelFile(path, records, arity)
}

// DumpSupplementaryConstants writes the binary list of preserved constant
// numerations to supplementary.cst (spec.md §6.2): a flat list of
// little-endian int32s, one per constant.
func DumpSupplementaryConstants(dir string, constants []int32) error {
	buf := make([]byte, len(constants)*4)
	for i, c := range constants {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(c))
	}
	path := filepath.Join(dir, supplementaryCstName)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &sincerr.KbIoError{Path: path, Err: err}
	}
	return nil
}

// DumpHypothesis writes rules.hyp: one rule per line in the dump-string
// grammar (spec.md §6.3).
func DumpHypothesis(dir string, lines []string) error {
	path := filepath.Join(dir, hypothesisFileName)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &sincerr.KbIoError{Path: path, Err: err}
	}
	return nil
}

// DumpMeta writes a free-form .meta file (log.meta, stdout.meta,
// stderr.meta — spec.md §6.2).
func DumpMeta(dir, name, content string) error {
	path := filepath.Join(dir, name+".meta")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &sincerr.KbIoError{Path: path, Err: err}
	}
	return nil
}
