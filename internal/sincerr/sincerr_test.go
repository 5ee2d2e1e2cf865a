package sincerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Flag: "b", Reason: "must be > 0"}
	require.Equal(t, `config: -b: must be > 0`, err.Error())
}

func TestKbIoErrorUnwraps(t *testing.T) {
	wrapped := errors.New("permission denied")
	err := &KbIoError{Path: "/tmp/kb", Err: wrapped}
	require.ErrorIs(t, err, wrapped)
	require.Contains(t, err.Error(), "/tmp/kb")
}

func TestInterruptedMessage(t *testing.T) {
	err := &Interrupted{Relation: "mother"}
	require.Contains(t, err.Error(), "mother")
}

func TestInvariantPanics(t *testing.T) {
	require.Panics(t, func() {
		Invariant(nil, "bad state: %d", 7)
	})
}
