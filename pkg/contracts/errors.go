package contracts

import "errors"

// Error taxonomy. Subsystems wrap one of these sentinels so callers can
// classify failures with errors.Is without depending on message text.
var (
	// ErrValidation marks bad input from a caller. No state was changed.
	ErrValidation = errors.New("validation")

	// ErrOutOfPhase marks a request that arrived in the wrong protocol
	// phase (commit during reveal, vote on a closed period). No state was
	// changed.
	ErrOutOfPhase = errors.New("out of phase")

	// ErrInvariant marks an internal invariant violation (overflow in bond
	// arithmetic, inconsistent registry state). The process must surface a
	// diagnostic and halt.
	ErrInvariant = errors.New("invariant violation")
)
