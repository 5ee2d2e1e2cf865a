// Package sinc is the top-level compression driver: it loads a knowledge
// base, mines a Horn-rule hypothesis one target relation at a time
// (internal/miner), folds every accepted rule's groundings into a
// dependency graph (internal/compress), and dumps the resulting
// compressed KB back to disk (spec.md §2, §4.8, §6.2).
package sinc

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/TramsWang/SInC-sub001/internal/cb"
	"github.com/TramsWang/SInC-sub001/internal/compress"
	"github.com/TramsWang/SInC-sub001/internal/config"
	"github.com/TramsWang/SInC-sub001/internal/kb"
	"github.com/TramsWang/SInC-sub001/internal/miner"
	"github.com/TramsWang/SInC-sub001/internal/verify"
)

// Stats summarizes one compression run and is returned by Run once the
// driver finishes; cmd/sinc prints it to standard output.
type Stats struct {
	RelationsMined int
	RulesFound     int
	Interrupted    bool
}

// Driver owns the process-wide resources a compression run shares across
// every target relation: the CB pool (spec.md §5 "CB pool: process-wide,
// cleared only between target relations") and the cooperative interrupt
// flag.
type Driver struct {
	cfg *config.Config
	log hclog.Logger

	shouldContinue atomic.Bool
}

// New builds a Driver for cfg, logging through named sub-loggers the way
// the rest of this module does (miner, verify each get their own name).
func New(cfg *config.Config, log hclog.Logger) *Driver {
	if log == nil {
		log = hclog.New(&hclog.LoggerOptions{Name: "sinc"})
	}
	d := &Driver{cfg: cfg, log: log}
	d.shouldContinue.Store(true)
	return d
}

// InstallSignalHandler spawns a goroutine that flips the cooperative
// interrupt flag on SIGINT (spec.md §5's "process-wide should_continue
// flag ... flipped by a SIGINT handler"). It returns a stop function the
// caller should defer to release the signal channel.
func (d *Driver) InstallSignalHandler() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			d.log.Warn("interrupt received, finishing current relation")
			d.shouldContinue.Store(false)
		case <-done:
		}
	}()
	return func() {
		close(done)
		signal.Stop(sigCh)
	}
}

// Run loads the configured input KB, mines every target relation in turn,
// and dumps the compressed result (spec.md §2's overview pipeline). The
// returned Stats is always populated, even when Run returns an interrupt-
// flavored nil error, so the caller can report what was accomplished.
func (d *Driver) Run() (Stats, error) {
	var stats Stats

	kbase, err := kb.Load(d.cfg.InPath, d.cfg.InName)
	if err != nil {
		return stats, err
	}

	pool := cb.NewPool()
	compressed := compress.NewCompressedKB()
	graph := compress.NewGraph()

	targets := d.targetRelations(kbase)
	params := miner.Params{
		BeamWidth:            d.cfg.BeamWidth,
		Metric:               d.cfg.Metric,
		StopCompressionRatio: d.cfg.StopCompressionRatio,
		MinFactCoverage:      d.cfg.MinFactCoverage,
		MinConstantCoverage:  d.cfg.MinConstantCoverage,
		ObservationRatio:     d.cfg.ObservationRatio,
	}

	for _, target := range targets {
		if !d.shouldContinue.Load() {
			stats.Interrupted = true
			break
		}
		m := miner.NewRelationMiner(kbase, pool, params, d.log)
		accepted := m.MineRelation(target, d.shouldContinue.Load)
		stats.RelationsMined++

		for _, a := range accepted {
			stats.RulesFound++
			dump := a.Rule.Dump(relNameFunc(kbase), constNameFunc(kbase))
			compressed.AddRule(dump)
			bodySymbols := make([]int, len(a.Rule.Body))
			for i, b := range a.Rule.Body {
				bodySymbols[i] = b.Symbol
			}
			recordGroundings(graph, target.ID, bodySymbols, a.Groundings)
		}

		ceg := collectCounterexamples(accepted)
		if len(ceg) > 0 {
			compressed.AddCounterexamples(target.ID, ceg)
		}
		pool.Clear()
	}

	markAxioms(graph, kbase)
	keepResidualFacts(graph, compressed, kbase)

	reachable := reachableConstants(kbase, compressed)
	compressed.ResolveSupplementaryConstants(allConstantsOf(kbase), reachable)

	if d.cfg.Verify {
		v := verify.New(d.log)
		v.Verify(d.cfg.InPath, d.cfg.OutPath)
	}

	if err := dumpCompressed(d.cfg, kbase, compressed); err != nil {
		return stats, err
	}
	return stats, nil
}

// targetRelations applies -r's "first n relations, 0 = all" selection
// (spec.md §6.1).
func (d *Driver) targetRelations(kbase *kb.KB) []*kb.Relation {
	if d.cfg.RelationLimit <= 0 || d.cfg.RelationLimit >= len(kbase.Relations) {
		return kbase.Relations
	}
	return kbase.Relations[:d.cfg.RelationLimit]
}

func relNameFunc(kbase *kb.KB) func(int) string {
	return func(id int) string {
		for _, r := range kbase.Relations {
			if r.ID == id {
				return r.Name
			}
		}
		return fmt.Sprintf("#%d", id)
	}
}

func constNameFunc(kbase *kb.KB) func(int32) string {
	return kbase.Numeration.Name
}

// recordGroundings adds one dependency edge per grounding to graph: head
// instance depends on every body instance in that grounding (spec.md
// §4.8). bodySymbols[i] names the relation a grounding's (i+1)th record
// belongs to, since a raw kb.Record carries no relation tag of its own.
func recordGroundings(graph *compress.Graph, targetID int, bodySymbols []int, groundings [][]*kb.Record) {
	for _, g := range groundings {
		if len(g) == 0 {
			continue
		}
		head := compress.Instance{RelID: targetID, Args: kb.Record(*g[0])}
		var body []compress.Instance
		for i := 1; i < len(g); i++ {
			body = append(body, compress.Instance{RelID: bodySymbols[i-1], Args: kb.Record(*g[i])})
		}
		graph.AddRuleGrounding(head, body)
	}
}

// markAxioms marks every fact of every relation not produced by any
// recorded grounding as an axiom (ground, rule-free) instance (spec.md
// §4.8). This pass runs once, after mining every target relation, so a
// fact entailed by one rule but also a body fact for another isn't
// mistakenly treated as an axiom.
func markAxioms(graph *compress.Graph, kbase *kb.KB) {
	for _, rel := range kbase.Relations {
		for _, rec := range rel.Records() {
			inst := compress.Instance{RelID: rel.ID, Args: kb.Record(*rec)}
			graph.MarkAxiom(inst)
		}
	}
}

// keepResidualFacts computes each non-axiom SCC's feedback vertex set and
// records those facts as kept residual data (spec.md §4.8).
func keepResidualFacts(graph *compress.Graph, compressed *compress.CompressedKB, kbase *kb.KB) {
	for _, scc := range graph.SCCs() {
		for _, node := range graph.FeedbackVertexSet(scc) {
			inst := graph.Instance(node)
			compressed.KeepFact(inst.RelID, inst.Args)
		}
	}
	_ = kbase
}

func collectCounterexamples(accepted []miner.Accepted) []kb.Record {
	var out []kb.Record
	for _, a := range accepted {
		out = append(out, a.Rule.GetCounterexamples()...)
	}
	return out
}

func allConstantsOf(kbase *kb.KB) []int32 {
	n := kbase.Numeration.Len()
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i + 1)
	}
	return out
}

// reachableConstants computes which constants still appear somewhere in
// the compressed KB's kept facts or counterexamples, so
// ResolveSupplementaryConstants can
// find what would otherwise vanish (spec.md §9's resolved Open Question).
func reachableConstants(kbase *kb.KB, compressed *compress.CompressedKB) map[int32]bool {
	reachable := make(map[int32]bool)
	mark := func(recs []kb.Record) {
		for _, rec := range recs {
			for _, v := range rec {
				reachable[v] = true
			}
		}
	}
	for _, recs := range compressed.KeptFacts {
		mark(recs)
	}
	for _, recs := range compressed.Counterexamples {
		mark(recs)
	}
	_ = kbase
	return reachable
}

// dumpCompressed writes the output KB directory (spec.md §6.2): the
// residual facts, counterexamples, hypothesis, and supplementary constant
// list.
func dumpCompressed(cfg *config.Config, kbase *kb.KB, compressed *compress.CompressedKB) error {
	for _, rel := range kbase.Relations {
		kept := compressed.KeptFacts[rel.ID]
		recPtrs := make([]*kb.Record, len(kept))
		for i := range kept {
			r := kept[i]
			recPtrs[i] = &r
		}
		rel.ReplaceRecords(recPtrs)
	}
	if err := kbase.DumpRelations(cfg.OutPath, cfg.OutName); err != nil {
		return err
	}
	outDir := cfg.OutPath + string(os.PathSeparator) + cfg.OutName
	for relID, ceg := range compressed.Counterexamples {
		arity := 0
		for _, r := range kbase.Relations {
			if r.ID == relID {
				arity = r.Arity
			}
		}
		recPtrs := make([]*kb.Record, len(ceg))
		for i := range ceg {
			r := ceg[i]
			recPtrs[i] = &r
		}
		if err := kb.DumpCounterexamples(outDir, relID, arity, recPtrs); err != nil {
			return err
		}
	}
	if err := kb.DumpHypothesis(outDir, compressed.Hypothesis); err != nil {
		return err
	}
	return kb.DumpSupplementaryConstants(outDir, compressed.Supplementary)
}
