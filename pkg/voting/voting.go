// Package voting runs token-weighted voting periods with additive,
// directional, revocable delegation. Delegated power counts only when the
// delegate casts; a delegator who also votes spends only their own power.
package voting

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// ballot is one accepted vote.
type ballot struct {
	vote  contracts.Vote
	power uint64 // own power + delegations active at cast time
}

// period is one open voting window.
type period struct {
	proposalID string
	friction   contracts.FrictionParams
	ballots    map[string]ballot
	closed     bool
	tally      *contracts.VotingTally
}

// System owns all voting periods and the delegation graph.
type System struct {
	mu      sync.Mutex
	periods map[string]*period
	// delegations[from][to] = amount
	delegations map[string]map[string]uint64
	logger      *slog.Logger
}

// NewSystem creates a voting system.
func NewSystem(logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		periods:     make(map[string]*period),
		delegations: make(map[string]map[string]uint64),
		logger:      logger.With("component", "voting"),
	}
}

// OpenPeriod starts a voting window under the given friction.
func (s *System) OpenPeriod(proposalID string, friction contracts.FrictionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.periods[proposalID]; exists {
		return fmt.Errorf("%w: voting period already open for %s", contracts.ErrValidation, proposalID)
	}
	s.periods[proposalID] = &period{
		proposalID: proposalID,
		friction:   friction,
		ballots:    make(map[string]ballot),
	}
	s.logger.Info("voting period opened",
		"proposal_id", proposalID, "required_quorum", friction.RequiredQuorum)
	return nil
}

// CastVote records one ballot per voter per proposal. Effective power is the
// voter's own power plus every delegation currently pointed at them.
func (s *System) CastVote(proposalID, voter string, vote contracts.Vote, ownPower uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.periods[proposalID]
	if !ok {
		return 0, fmt.Errorf("%w: no voting period for %s", contracts.ErrValidation, proposalID)
	}
	if p.closed {
		return 0, fmt.Errorf("%w: voting period for %s is closed", contracts.ErrOutOfPhase, proposalID)
	}
	if _, voted := p.ballots[voter]; voted {
		return 0, fmt.Errorf("%w: %s already voted on %s", contracts.ErrValidation, voter, proposalID)
	}
	if _, err := contracts.ParseVote(string(vote)); err != nil {
		return 0, fmt.Errorf("%w: unknown vote %q", contracts.ErrValidation, vote)
	}

	power := ownPower
	for _, amount := range s.delegationsTo(voter) {
		power += amount
	}

	p.ballots[voter] = ballot{vote: vote, power: power}
	s.logger.Info("vote cast",
		"proposal_id", proposalID, "voter", voter, "vote", vote, "power", power)
	return power, nil
}

// Delegate adds (or tops up) a directional delegation. Self-delegation is
// rejected; portions to multiple delegates may coexist.
func (s *System) Delegate(from, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == to {
		return fmt.Errorf("%w: self-delegation", contracts.ErrValidation)
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero delegation amount", contracts.ErrValidation)
	}

	if s.delegations[from] == nil {
		s.delegations[from] = make(map[string]uint64)
	}
	s.delegations[from][to] += amount
	return nil
}

// Undelegate revokes the whole delegation from -> to.
func (s *System) Undelegate(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.delegations[from][to]; !ok {
		return fmt.Errorf("%w: no delegation from %s to %s", contracts.ErrValidation, from, to)
	}
	delete(s.delegations[from], to)
	return nil
}

// ClosePeriod tallies the period. Idempotent: re-closing returns the stored
// tally unchanged.
func (s *System) ClosePeriod(proposalID string, totalSupply uint64) (*contracts.VotingTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.periods[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: no voting period for %s", contracts.ErrValidation, proposalID)
	}
	if p.closed {
		return p.tally, nil
	}

	tally := &contracts.VotingTally{ProposalID: proposalID, TotalSupply: totalSupply}
	for _, b := range p.ballots {
		switch b.vote {
		case contracts.VoteYes:
			tally.Yes += b.power
		case contracts.VoteNo:
			tally.No += b.power
		case contracts.VoteAbstain:
			tally.Abstain += b.power
		}
	}

	if totalSupply > 0 {
		tally.ParticipationRate = float64(tally.Yes+tally.No+tally.Abstain) / float64(totalSupply)
	}
	tally.QuorumReached = tally.ParticipationRate >= p.friction.RequiredQuorum
	tally.Passed = tally.QuorumReached && tally.Yes > tally.No

	p.closed = true
	p.tally = tally
	s.logger.Info("voting period closed",
		"proposal_id", proposalID,
		"yes", tally.Yes, "no", tally.No, "abstain", tally.Abstain,
		"participation", tally.ParticipationRate,
		"passed", tally.Passed)
	return tally, nil
}

// Tally returns the stored result of a closed period.
func (s *System) Tally(proposalID string) (*contracts.VotingTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: no voting period for %s", contracts.ErrValidation, proposalID)
	}
	if !p.closed {
		return nil, fmt.Errorf("%w: voting period for %s still open", contracts.ErrOutOfPhase, proposalID)
	}
	return p.tally, nil
}

// delegationsTo collects the active delegations pointed at a delegate.
func (s *System) delegationsTo(delegate string) map[string]uint64 {
	out := make(map[string]uint64)
	for from, targets := range s.delegations {
		if amount, ok := targets[delegate]; ok && amount > 0 {
			out[from] = amount
		}
	}
	return out
}
