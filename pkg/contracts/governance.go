package contracts

// GovernancePhase is the orchestrator's lifecycle phase for a proposal.
type GovernancePhase string

const (
	PhaseSubmitted          GovernancePhase = "Submitted"
	PhaseOracleReview       GovernancePhase = "OracleReview"
	PhaseRouting            GovernancePhase = "Routing"
	PhaseVoting             GovernancePhase = "Voting"
	PhaseJuryReview         GovernancePhase = "JuryReview"
	PhaseHumanMajorityJury  GovernancePhase = "HumanMajorityJury"
	PhaseFormalVerification GovernancePhase = "FormalVerification"
	PhaseTimelock           GovernancePhase = "Timelock"
	PhaseReadyToExecute     GovernancePhase = "ReadyToExecute"
	PhaseExecuted           GovernancePhase = "Executed"
	PhaseRejected           GovernancePhase = "Rejected"
)

// Terminal reports whether the phase admits no further transition.
func (p GovernancePhase) Terminal() bool {
	return p == PhaseExecuted || p == PhaseRejected
}

// Route is the decidability router's selection.
type Route string

const (
	RouteRejected           Route = "Rejected"
	RouteStandardVoting     Route = "StandardVoting"
	RouteConstitutionalJury Route = "ConstitutionalJury"
	RouteHumanMajorityJury  Route = "HumanMajorityJury"
	RouteFormalVerification Route = "FormalVerification"
)

// RoutingDecision pairs the selected route with the friction attached to any
// voting the proposal will see, plus the rule that fired.
type RoutingDecision struct {
	Route    Route          `json:"route"`
	Friction FrictionParams `json:"friction"`
	Rule     string         `json:"rule"`
}

// Vote is a ballot option.
type Vote string

const (
	VoteYes     Vote = "Yes"
	VoteNo      Vote = "No"
	VoteAbstain Vote = "Abstain"
)

// ParseVote validates a ballot string.
func ParseVote(s string) (Vote, error) {
	switch Vote(s) {
	case VoteYes, VoteNo, VoteAbstain:
		return Vote(s), nil
	}
	return "", ErrValidation
}

// VotingTally is the closed-period result. Abstentions count toward
// participation but not toward the yes/no comparison.
type VotingTally struct {
	ProposalID        string  `json:"proposal_id"`
	Yes               uint64  `json:"yes"`
	No                uint64  `json:"no"`
	Abstain           uint64  `json:"abstain"`
	TotalSupply       uint64  `json:"total_supply"`
	ParticipationRate float64 `json:"participation_rate"`
	QuorumReached     bool    `json:"quorum_reached"`
	Passed            bool    `json:"passed"`
}

// JuryVerdict is the supermajority resolution of a jury panel.
type JuryVerdict string

const (
	JuryApproved  JuryVerdict = "APPROVED"
	JuryRejected  JuryVerdict = "REJECTED"
	JuryNoVerdict JuryVerdict = "NO_VERDICT"
)

// JuryOutcome captures a completed jury review.
type JuryOutcome struct {
	ProposalID string      `json:"proposal_id"`
	Members    []string    `json:"members"`
	Yes        int         `json:"yes"`
	No         int         `json:"no"`
	Abstain    int         `json:"abstain"`
	Verdict    JuryVerdict `json:"verdict"`
	Human      bool        `json:"human_majority"`
}

// GovernanceProposal is the orchestrator's envelope around a proposal as it
// moves through the lifecycle. The orchestrator is its sole writer.
type GovernanceProposal struct {
	Proposal        Proposal         `json:"proposal"`
	Phase           GovernancePhase  `json:"phase"`
	ChannelA        *ChannelAVerdict `json:"channel_a,omitempty"`
	ChannelB        *ChannelBVerdict `json:"channel_b,omitempty"`
	Routing         *RoutingDecision `json:"routing,omitempty"`
	Tally           *VotingTally     `json:"voting_tally,omitempty"`
	Jury            *JuryOutcome     `json:"jury,omitempty"`
	TimelockExpiry  int64            `json:"timelock_expiry,omitempty"` // milliseconds since epoch
	ExecutionTx     string           `json:"execution_tx,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	UpdatedAt       int64            `json:"updated_at"`
}
