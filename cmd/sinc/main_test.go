package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReportsConfigErrorExitCode(t *testing.T) {
	code := run([]string{"compress", "-e", "not-a-real-metric"})
	require.Equal(t, 2, code)
}

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	code := run([]string{"bogus"})
	require.NotEqual(t, 0, code)
}
