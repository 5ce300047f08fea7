package contracts

// FrictionParams is the governance friction derived from the Channel B
// alignment score: lower alignment raises the quorum and lengthens the
// timelock. The router owns the derivation; these are the derived values.
type FrictionParams struct {
	RequiredQuorum     float64 `json:"required_quorum"`
	TimelockSeconds    uint64  `json:"timelock_duration_s"`
	QuorumMultiplier   float64 `json:"quorum_multiplier"`
	TimelockMultiplier float64 `json:"timelock_multiplier"`
	AlignmentScore     float64 `json:"alignment_score"`
}
