// Package sincerr holds the error kinds shared across the mining core, named
// the way the spec's error-handling design (spec.md §7) describes them
// rather than as ad-hoc fmt.Errorf calls scattered through every package.
package sincerr

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// ConfigError reports a bad CLI value or a missing required input, detected
// before any mining begins.
type ConfigError struct {
	Flag   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: -%s: %s", e.Flag, e.Reason)
}

// KbIoError reports a malformed relation file, a missing map file, or a
// filesystem permission failure while loading or dumping a KB.
type KbIoError struct {
	Path string
	Err  error
}

func (e *KbIoError) Error() string {
	return fmt.Sprintf("kb io: %s: %v", e.Path, e.Err)
}

func (e *KbIoError) Unwrap() error {
	return e.Err
}

// Interrupted describes a relation's mining loop stopped early because of
// a user interrupt (spec.md §5). The driver in internal/sinc does not
// return it: it reports an interrupt through Stats.Interrupted and still
// dumps whatever was produced so far.
type Interrupted struct {
	Relation string
}

func (e *Interrupted) Error() string {
	return fmt.Sprintf("interrupted while mining %q", e.Relation)
}

// Invariant logs and panics on a broken structural invariant (e.g. a
// fragment update referencing an LV that was never linked into the
// fragment). These are internal bugs, not recoverable candidate-scope
// failures, so spec.md §7 treats them as fatal.
func Invariant(log hclog.Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if log != nil {
		log.Error("invariant violated", "detail", msg)
	}
	panic("sinc: invariant violated: " + msg)
}
