// Package verify is the home for the decompression-verification step
// spec.md §6.1's "-v" flag requests: re-deriving the original knowledge
// base from a compressed hypothesis plus residual facts and diffing the
// result against the input, to prove a compression round actually is
// lossless.
//
// The original implementation's equivalent hook (createRecovery) always
// returns a null recovery object — decompression verification was never
// wired up there either, only ever planned for. This package keeps that
// scope boundary: Verifier is a real type with a real API, but Verify is
// a stub that logs and returns a Report with Verified set to false
// without touching any file or failing the run, so
// that -v is accepted and inert rather than silently ignored or
// rejected as an unknown flag.
package verify

import (
	"github.com/hashicorp/go-hclog"
)

// Report describes the outcome of a decompression verification pass.
type Report struct {
	Verified bool
	Detail   string
}

// Verifier re-derives a knowledge base from a compressed hypothesis and
// checks it against the original. Constructed unconditionally when -v is
// set; whether it does any work is controlled entirely by Verify.
type Verifier struct {
	log hclog.Logger
}

// New returns a Verifier logging through log.
func New(log hclog.Logger) *Verifier {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Verifier{log: log.Named("verify")}
}

// Verify is a stub: decompression verification is not implemented, so it
// logs that it was requested and returns a report that never fails a run.
func (v *Verifier) Verify(kbPath, hypothesisPath string) Report {
	v.log.Info("decompression verification requested but not implemented",
		"kb", kbPath, "hypothesis", hypothesisPath)
	return Report{Verified: false, Detail: "verification not implemented"}
}
