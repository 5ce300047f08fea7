// Package contracts defines the shared data model of the governance core:
// proposals, verdicts, oracle records, protocol state, and the normative
// constants. Subsystems exchange these values by id/address; each record
// type has exactly one owning subsystem.
package contracts

import (
	"fmt"
	"time"
)

// GovernanceLayer is one of the four immutability-ordered layers.
// L0 is not modifiable through governance at all.
type GovernanceLayer string

const (
	LayerL0Immutable      GovernanceLayer = "L0-Immutable"
	LayerL1Constitutional GovernanceLayer = "L1-Constitutional"
	LayerL2Operational    GovernanceLayer = "L2-Operational"
	LayerL3Execution      GovernanceLayer = "L3-Execution"
)

// ParseLayer validates a layer string.
func ParseLayer(s string) (GovernanceLayer, error) {
	switch GovernanceLayer(s) {
	case LayerL0Immutable, LayerL1Constitutional, LayerL2Operational, LayerL3Execution:
		return GovernanceLayer(s), nil
	}
	return "", fmt.Errorf("%w: unknown governance layer %q", ErrValidation, s)
}

// Proposal is the immutable input to the pipeline. ID is the lowercase hex
// SHA-256 of the canonical payload and is assigned by the canonicalizer.
type Proposal struct {
	ID        string          `json:"id"`
	Proposer  string          `json:"proposer"`
	LogicAST  string          `json:"logic_ast"`
	Text      string          `json:"text"`
	Layer     GovernanceLayer `json:"layer"`
	CreatedAt int64           `json:"created_at"` // milliseconds since epoch
}

// NewProposal builds a proposal stamped with the given creation time.
// The ID is left empty until canonicalization assigns it.
func NewProposal(proposer, logicAST, text string, layer GovernanceLayer, at time.Time) Proposal {
	return Proposal{
		Proposer:  proposer,
		LogicAST:  logicAST,
		Text:      text,
		Layer:     layer,
		CreatedAt: at.UnixMilli(),
	}
}
