package contracts

// ProtocolPhase is the commit-reveal round phase for one proposal.
type ProtocolPhase string

const (
	PhaseCommit   ProtocolPhase = "Commit"
	PhaseReveal   ProtocolPhase = "Reveal"
	PhaseTallying ProtocolPhase = "Tallying"
	PhaseComplete ProtocolPhase = "Complete"
)

// Commitment is an oracle's sealed verdict: the hash of the canonical verdict
// JSON concatenated with a nonce, bound to the ledger index it arrived at.
type Commitment struct {
	ProposalID     string `json:"proposal_id"`
	Oracle         string `json:"oracle"`
	CommitmentHash string `json:"commitment_hash"`
	LedgerIndex    uint64 `json:"ledger_index"`
}

// Reveal opens a commitment. It is accepted only when
// sha256(canonicalJSON(verdict) ++ nonce) equals the oracle's commitment hash
// and it arrives no later than the reveal deadline.
type Reveal struct {
	ProposalID  string        `json:"proposal_id"`
	Oracle      string        `json:"oracle"`
	Verdict     OracleVerdict `json:"verdict"`
	Nonce       string        `json:"nonce"`
	LedgerIndex uint64        `json:"ledger_index"`
}

// AggregatedVerdict is the pure function of the ordered reveal multiset
// computed at tallying.
type AggregatedVerdict struct {
	ProposalID     string          `json:"proposal_id"`
	Participation  int             `json:"participation"`
	QuorumRequired int             `json:"quorum_required"`
	QuorumReached  bool            `json:"quorum_reached"`
	ChannelA       ChannelAVerdict `json:"channel_a"`
	ChannelB       ChannelBVerdict `json:"channel_b"`
	Revealers      []string        `json:"revealers"`
	NonRevealers   []string        `json:"non_revealers"`
}
