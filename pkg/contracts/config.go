package contracts

import "github.com/holiman/uint256"

// Normative protocol constants. A governance profile (pkg/config
// GovernanceProfile) may override some of these per deployment; the values here are the defaults fraud proofs and
// conformance fixtures assume.
const (
	// MaxComplexity is the Channel A complexity ceiling (deflate bytes).
	MaxComplexity uint64 = 10_000

	// OracleBondDrops is the minimum bond, in drops (100,000 XRP).
	OracleBondDrops = "100000000000"

	// OracleEpoch is the epoch length in ledger intervals (about 9.3 days at
	// the 4-second interval the registry assumes for unbonding).
	OracleEpoch uint64 = 201_600

	// OracleWindow is the commit window (and again the reveal window) in
	// ledger intervals.
	OracleWindow uint64 = 1_000

	// ActiveOracleSetSize bounds the active set per epoch.
	ActiveOracleSetSize = 101

	// OracleQuorum is the reveal participation threshold.
	OracleQuorum = 2.0 / 3.0

	// JurySize is the number of sampled jurors.
	JurySize = 21

	// JuryVotingPeriodSeconds is 72 hours.
	JuryVotingPeriodSeconds uint64 = 72 * 3600

	// JurySupermajority is the verdict threshold over yes+no.
	JurySupermajority = 2.0 / 3.0

	// JuryEligibilityWindowSeconds filters accounts inactive for 90 days.
	JuryEligibilityWindowSeconds uint64 = 90 * 24 * 3600

	// SlashRateNonReveal is applied to the current bond per missed reveal.
	SlashRateNonReveal = 0.15

	// SlashRateInactivity is applied once per epoch after three cumulative
	// missed reveals.
	SlashRateInactivity = 0.05

	// InactivityThreshold is the missed-reveal count that arms the
	// inactivity slash.
	InactivityThreshold = 3

	// BaseQuorum and BaseTimelockSeconds anchor the friction formulas.
	BaseQuorum          = 0.10
	BaseTimelockSeconds uint64 = 86_400

	// CycleBudgetBytes bounds the raw AST size the cycle detector will
	// walk; larger inputs are treated as cyclic rather than run unbounded.
	CycleBudgetBytes = 64 * 1024
)

// OracleBond returns the minimum bond as a uint256.
func OracleBond() *uint256.Int {
	bond, err := uint256.FromDecimal(OracleBondDrops)
	if err != nil {
		panic("contracts: bad OracleBondDrops constant: " + err.Error())
	}
	return bond
}

// QuorumRequired is the ceiling of n*2/3 without float rounding.
func QuorumRequired(n int) int {
	return (n*2 + 2) / 3
}
