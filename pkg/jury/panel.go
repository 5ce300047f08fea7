package jury

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Panel is one convened jury voting on one proposal.
type Panel struct {
	mu         sync.Mutex
	proposalID string
	members    map[string]bool
	order      []string
	votes      map[string]contracts.Vote
	deadline   time.Time
	human      bool
	resolved   *contracts.JuryOutcome
	logger     *slog.Logger
}

// NewPanel convenes a jury for the proposal with a voting deadline of the
// protocol jury period from openedAt.
func NewPanel(proposalID string, members []string, openedAt time.Time, human bool, logger *slog.Logger) (*Panel, error) {
	if len(members) != contracts.JurySize {
		return nil, fmt.Errorf("%w: panel needs exactly %d members, got %d",
			contracts.ErrValidation, contracts.JurySize, len(members))
	}
	if logger == nil {
		logger = slog.Default()
	}

	set := make(map[string]bool, len(members))
	for _, m := range members {
		if set[m] {
			return nil, fmt.Errorf("%w: duplicate juror %s", contracts.ErrValidation, m)
		}
		set[m] = true
	}

	return &Panel{
		proposalID: proposalID,
		members:    set,
		order:      append([]string(nil), members...),
		votes:      make(map[string]contracts.Vote),
		deadline:   openedAt.Add(time.Duration(contracts.JuryVotingPeriodSeconds) * time.Second),
		human:      human,
		logger:     logger.With("component", "jury", "proposal_id", proposalID),
	}, nil
}

// CastVote records one vote per juror within the voting period.
func (p *Panel) CastVote(juror string, vote contracts.Vote, now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved != nil {
		return fmt.Errorf("%w: jury already resolved", contracts.ErrOutOfPhase)
	}
	if now.After(p.deadline) {
		return fmt.Errorf("%w: jury voting period expired", contracts.ErrOutOfPhase)
	}
	if !p.members[juror] {
		return fmt.Errorf("%w: %s is not on this panel", contracts.ErrValidation, juror)
	}
	if _, voted := p.votes[juror]; voted {
		return fmt.Errorf("%w: juror %s already voted", contracts.ErrValidation, juror)
	}
	if _, err := contracts.ParseVote(string(vote)); err != nil {
		return fmt.Errorf("%w: unknown vote %q", contracts.ErrValidation, vote)
	}

	p.votes[juror] = vote
	return nil
}

// Resolvable reports whether the panel can resolve: the deadline passed or
// every juror voted.
func (p *Panel) Resolvable(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved != nil || now.After(p.deadline) || len(p.votes) == len(p.members)
}

// Resolve computes the supermajority verdict. A two-thirds supermajority of
// the yes+no votes decides; anything else is NO_VERDICT, which the
// orchestrator treats as rejection. Idempotent.
func (p *Panel) Resolve(now time.Time) (*contracts.JuryOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved != nil {
		return p.resolved, nil
	}
	if !now.After(p.deadline) && len(p.votes) != len(p.members) {
		return nil, fmt.Errorf("%w: jury voting period still open", contracts.ErrOutOfPhase)
	}

	outcome := &contracts.JuryOutcome{
		ProposalID: p.proposalID,
		Members:    append([]string(nil), p.order...),
		Human:      p.human,
	}
	for _, v := range p.votes {
		switch v {
		case contracts.VoteYes:
			outcome.Yes++
		case contracts.VoteNo:
			outcome.No++
		case contracts.VoteAbstain:
			outcome.Abstain++
		}
	}

	decisive := outcome.Yes + outcome.No
	threshold := contracts.QuorumRequired(decisive)
	switch {
	case decisive == 0:
		outcome.Verdict = contracts.JuryNoVerdict
	case outcome.Yes >= threshold:
		outcome.Verdict = contracts.JuryApproved
	case outcome.No >= threshold:
		outcome.Verdict = contracts.JuryRejected
	default:
		outcome.Verdict = contracts.JuryNoVerdict
	}

	p.resolved = outcome
	p.logger.Info("jury resolved",
		"verdict", outcome.Verdict, "yes", outcome.Yes, "no", outcome.No, "abstain", outcome.Abstain)
	return outcome, nil
}
