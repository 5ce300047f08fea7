package contracts

import "github.com/holiman/uint256"

// OracleStatus is the registry's view of an operator. The registry's status
// field is the single source of truth coordinating it with the slashing
// ledger.
type OracleStatus string

const (
	OracleCandidate OracleStatus = "Candidate"
	OracleActive    OracleStatus = "Active"
	OracleUnbonding OracleStatus = "Unbonding"
	OracleEjected   OracleStatus = "Ejected"
)

// OracleMetrics holds participation counters. MissedReveals resets when the
// operator is placed in the active set at an epoch boundary; the other
// counters are cumulative for life.
type OracleMetrics struct {
	TotalParticipations uint64 `json:"total_participations"`
	SuccessfulReveals   uint64 `json:"successful_reveals"`
	MissedReveals       uint64 `json:"missed_reveals"`
	FraudProofs         uint64 `json:"fraud_proofs"`
	LastActiveEpoch     uint64 `json:"last_active_epoch"`
}

// OracleOperator is a bonded oracle. Bond stays >= OracleBond while the
// status is Candidate, Active, or Unbonding and drops to zero on ejection.
type OracleOperator struct {
	Address      string        `json:"address"`
	Bond         *uint256.Int  `json:"bond_drops"`
	EscrowSeq    uint64        `json:"escrow_seq"`
	Status       OracleStatus  `json:"status"`
	RegisteredAt int64         `json:"registered_at"` // milliseconds since epoch
	Metrics      OracleMetrics `json:"metrics"`
	UnbondingAt  int64         `json:"unbonding_at,omitempty"` // milliseconds, 0 while bonded
}

// Epoch is one active-set rotation window in ledger intervals.
type Epoch struct {
	Number      uint64   `json:"number"`
	StartLedger uint64   `json:"start_ledger"`
	EndLedger   uint64   `json:"end_ledger"`
	ActiveSet   []string `json:"active_set"`
}
