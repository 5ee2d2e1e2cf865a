package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TramsWang/SInC-sub001/internal/rule"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-I", "testdata,family"})
	require.NoError(t, err)
	require.Equal(t, "testdata", cfg.InPath)
	require.Equal(t, "family", cfg.InName)
	require.Equal(t, ".", cfg.OutPath)
	require.Equal(t, "family_comp", cfg.OutName)
	require.Equal(t, 5, cfg.BeamWidth)
	require.Equal(t, rule.CompressionRatio, cfg.Metric)
	require.Equal(t, 0.05, cfg.MinFactCoverage)
	require.Equal(t, 1.0, cfg.StopCompressionRatio)
}

func TestParseRequiresInput(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
}

func TestParseCollectsAllInvalidFlags(t *testing.T) {
	_, err := Parse([]string{"-I", "testdata,family", "-b", "0", "-e", "bogus", "-f", "2"})
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "-b")
	require.Contains(t, msg, "-e")
	require.Contains(t, msg, "-f")
}

func TestParseAcceptsExplicitOutputAndNegativeKB(t *testing.T) {
	cfg, err := Parse([]string{"-I", "testdata,family", "-O", "out,result", "-N", "neg,counter"})
	require.NoError(t, err)
	require.Equal(t, "out", cfg.OutPath)
	require.Equal(t, "result", cfg.OutName)
	require.Equal(t, "neg", cfg.NegPath)
	require.Equal(t, "counter", cfg.NegName)
}
