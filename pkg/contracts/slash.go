package contracts

import "github.com/holiman/uint256"

// SlashType categorizes a slash event.
type SlashType string

const (
	SlashNonReveal  SlashType = "NonReveal"
	SlashFraud      SlashType = "Fraud"
	SlashInactivity SlashType = "Inactivity"
)

// SlashEvent records one penalty. Events are append-only and never mutated
// after Executed is set.
type SlashEvent struct {
	ID         string       `json:"id"`
	Oracle     string       `json:"oracle"`
	Type       SlashType    `json:"type"`
	Amount     *uint256.Int `json:"amount_drops"`
	ProposalID string       `json:"proposal_id,omitempty"`
	Timestamp  int64        `json:"timestamp"` // milliseconds since epoch
	Executed   bool         `json:"executed"`
}
