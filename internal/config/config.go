// Package config parses and validates the mining run's command-line
// surface (spec.md §6.1): which knowledge base to compress, where to
// write the result, and the search parameters the beam-search driver
// applies uniformly across every target relation.
package config

import (
	"flag"
	"strings"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/TramsWang/SInC-sub001/internal/rule"
	"github.com/TramsWang/SInC-sub001/internal/sincerr"
)

// Config holds one fully validated mining run's settings, matching
// spec.md §6.1's flag table.
type Config struct {
	InPath, InName   string // -I, required
	OutPath, OutName string // -O, default "" -> ".", InName+"_comp"
	NegPath, NegName string // -N, default "" -> no negative KB
	BeamGenerator    float64 // -g, default 2.0
	Weighted         bool    // -w, default false
	Threads          int     // -t, default 1, accepted but unused
	Verify           bool    // -v, default false
	RelationLimit    int     // -r, default 0 (0 means mine every relation)
	BeamWidth        int     // -b, default 5
	Metric           rule.Metric
	MinFactCoverage      float64 // -f, default 0.05
	MinConstantCoverage  float64 // -c, default 0.25
	StopCompressionRatio float64 // -p, default 1.0
	ObservationRatio     float64 // -o, default 0.0
}

// defaults mirrors spec.md §6.1's default column exactly, so Parse only
// needs to override what the caller actually set.
func defaults() Config {
	return Config{
		BeamGenerator:        2.0,
		Threads:              1,
		BeamWidth:            5,
		Metric:               rule.CompressionRatio,
		MinFactCoverage:      0.05,
		MinConstantCoverage:  0.25,
		StopCompressionRatio: 1.0,
		ObservationRatio:     0.0,
	}
}

// Parse reads args (excluding the program name) into a validated Config,
// or, if any flag is missing or out of range, a *multierror.Error holding
// one *sincerr.ConfigError per bad flag (a single *sincerr.ConfigError is
// returned only when the flag set itself fails to parse). Every malformed
// flag is collected
// before returning, rather than stopping at the first one, so a user
// fixes every mistake in a single pass.
func Parse(args []string) (*Config, error) {
	cfg := defaults()
	var inPath, outPath, negPath, metric string

	fs := flag.NewFlagSet("sinc", flag.ContinueOnError)
	fs.StringVar(&inPath, "I", "", "input KB: path,name (required)")
	fs.StringVar(&outPath, "O", "", "output KB: path,name (default: .,<in>_comp)")
	fs.StringVar(&negPath, "N", "", "negative sample KB: path,name (default: none)")
	fs.Float64Var(&cfg.BeamGenerator, "g", cfg.BeamGenerator, "negative sampling budget factor (accepted, unused)")
	fs.BoolVar(&cfg.Weighted, "w", cfg.Weighted, "weight negative samples (accepted, unused)")
	fs.IntVar(&cfg.Threads, "t", cfg.Threads, "worker thread count (currently unused)")
	fs.BoolVar(&cfg.Verify, "v", cfg.Verify, "verify decompression after mining")
	fs.IntVar(&cfg.RelationLimit, "r", cfg.RelationLimit, "mine only the first n relations, 0 for all")
	fs.IntVar(&cfg.BeamWidth, "b", cfg.BeamWidth, "beam width")
	fs.StringVar(&metric, "e", "tau", "eval metric: tau, delta, or h")
	fs.Float64Var(&cfg.MinFactCoverage, "f", cfg.MinFactCoverage, "minimum fact coverage")
	fs.Float64Var(&cfg.MinConstantCoverage, "c", cfg.MinConstantCoverage, "minimum constant coverage")
	fs.Float64Var(&cfg.StopCompressionRatio, "p", cfg.StopCompressionRatio, "stop compression ratio per rule")
	fs.Float64Var(&cfg.ObservationRatio, "o", cfg.ObservationRatio, "observation sampling ratio")

	if err := fs.Parse(args); err != nil {
		return nil, &sincerr.ConfigError{Flag: "parse", Reason: err.Error()}
	}

	var errs *multierror.Error

	inPath, inName, err := splitPathName(inPath)
	if err != nil {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "I", Reason: "required, format path,name: " + err.Error()})
	}
	cfg.InPath, cfg.InName = inPath, inName

	if outPath == "" {
		cfg.OutPath, cfg.OutName = ".", inName+"_comp"
	} else if p, n, err := splitPathName(outPath); err != nil {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "O", Reason: "format path,name: " + err.Error()})
	} else {
		cfg.OutPath, cfg.OutName = p, n
	}

	if negPath != "" {
		if p, n, err := splitPathName(negPath); err != nil {
			errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "N", Reason: "format path,name: " + err.Error()})
		} else {
			cfg.NegPath, cfg.NegName = p, n
		}
	}

	if cfg.BeamGenerator < 0 {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "g", Reason: "must be >= 0"})
	}
	if cfg.Threads <= 0 {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "t", Reason: "must be > 0"})
	}
	if cfg.BeamWidth <= 0 {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "b", Reason: "must be > 0"})
	}
	if m, ok := rule.ParseMetric(strings.ToLower(metric)); ok {
		cfg.Metric = m
	} else {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "e", Reason: "must be one of tau, delta, h"})
	}
	if err := unitRange("f", cfg.MinFactCoverage); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := unitRange("c", cfg.MinConstantCoverage); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := unitRange("p", cfg.StopCompressionRatio); err != nil {
		errs = multierror.Append(errs, err)
	}
	if cfg.ObservationRatio < 0 {
		errs = multierror.Append(errs, &sincerr.ConfigError{Flag: "o", Reason: "must be >= 0"})
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}
	return &cfg, nil
}

func unitRange(flagName string, v float64) error {
	if v < 0 || v > 1 {
		return &sincerr.ConfigError{Flag: flagName, Reason: "must be in [0, 1]"}
	}
	return nil
}

func splitPathName(s string) (path, name string, err error) {
	idx := strings.LastIndex(s, ",")
	if idx < 0 {
		return "", "", &sincerr.ConfigError{Flag: "", Reason: "expected path,name"}
	}
	return s[:idx], s[idx+1:], nil
}
