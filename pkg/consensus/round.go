// Package consensus runs the two-phase commit-reveal protocol that
// aggregates oracle verdicts without information leakage. Each proposal gets
// one round; the engine owns all per-proposal protocol state and serializes
// mutations behind a single lock.
package consensus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// CommitmentHash computes the sealed form of a verdict: the SHA-256 of the
// RFC 8785 canonical JSON of the verdict concatenated with the nonce bytes.
// Oracles publish this during the commit window.
func CommitmentHash(verdict contracts.OracleVerdict, nonce string) (string, error) {
	canonical, err := canonicalize.CanonicalJSON(verdict)
	if err != nil {
		return "", fmt.Errorf("consensus: canonicalize verdict: %w", err)
	}
	return canonicalize.HashBytes(append(canonical, []byte(nonce)...)), nil
}

// round is the protocol state for one proposal.
type round struct {
	proposalID     string
	phase          contracts.ProtocolPhase
	commitDeadline uint64 // ledger index
	revealDeadline uint64
	activeSet      map[string]bool
	activeSize     int
	commitments    map[string]contracts.Commitment
	reveals        []contracts.Reveal
	revealed       map[string]bool
	arrival        map[string]int // reveal arrival order, tie-break under equal ledger index
	aggregated     *contracts.AggregatedVerdict
}

// Engine owns every commit-reveal round, keyed by proposal id.
type Engine struct {
	mu     sync.Mutex
	rounds map[string]*round
	window uint64
	logger *slog.Logger
}

// NewEngine creates a consensus engine with the given commit/reveal window
// in ledger intervals (0 means the protocol default).
func NewEngine(window uint64, logger *slog.Logger) *Engine {
	if window == 0 {
		window = contracts.OracleWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rounds: make(map[string]*round),
		window: window,
		logger: logger.With("component", "consensus"),
	}
}

// StartRound opens the commit window for a proposal against the current
// active oracle set. The reveal window follows immediately after.
func (e *Engine) StartRound(proposalID string, activeSet []string, currentLedger uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rounds[proposalID]; exists {
		return fmt.Errorf("%w: round already exists for proposal %s", contracts.ErrValidation, proposalID)
	}
	if len(activeSet) == 0 {
		return fmt.Errorf("%w: empty active set", contracts.ErrValidation)
	}

	set := make(map[string]bool, len(activeSet))
	for _, addr := range activeSet {
		set[addr] = true
	}

	e.rounds[proposalID] = &round{
		proposalID:     proposalID,
		phase:          contracts.PhaseCommit,
		commitDeadline: currentLedger + e.window,
		revealDeadline: currentLedger + 2*e.window,
		activeSet:      set,
		activeSize:     len(set),
		commitments:    make(map[string]contracts.Commitment),
		revealed:       make(map[string]bool),
		arrival:        make(map[string]int),
	}

	e.logger.Info("commit-reveal round opened",
		"proposal_id", proposalID,
		"active_set", len(set),
		"commit_deadline", currentLedger+e.window,
		"reveal_deadline", currentLedger+2*e.window)
	return nil
}

// SubmitCommit records one commitment per active oracle. Re-commits and
// commits after the deadline are rejected.
func (e *Engine) SubmitCommit(proposalID, oracle, commitmentHash string, ledgerIndex uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rounds[proposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	r.advance(ledgerIndex)

	if r.phase != contracts.PhaseCommit {
		return fmt.Errorf("%w: proposal %s is in %s phase", contracts.ErrOutOfPhase, proposalID, r.phase)
	}
	if ledgerIndex >= r.commitDeadline {
		return fmt.Errorf("%w: commit window closed at ledger %d", contracts.ErrOutOfPhase, r.commitDeadline)
	}
	if !r.activeSet[oracle] {
		return fmt.Errorf("%w: oracle %s is not in the active set", contracts.ErrValidation, oracle)
	}
	if _, dup := r.commitments[oracle]; dup {
		return fmt.Errorf("%w: oracle %s already committed", contracts.ErrValidation, oracle)
	}

	r.commitments[oracle] = contracts.Commitment{
		ProposalID:     proposalID,
		Oracle:         oracle,
		CommitmentHash: commitmentHash,
		LedgerIndex:    ledgerIndex,
	}

	// All active oracles sealed: no reason to hold the commit window open.
	if len(r.commitments) == r.activeSize {
		r.phase = contracts.PhaseReveal
	}
	return nil
}

// SubmitReveal accepts a reveal iff the oracle committed, the opening hashes
// to the commitment, and the reveal window is still open. A failed binding
// leaves the oracle counted as non-revealing.
func (e *Engine) SubmitReveal(rev contracts.Reveal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rounds[rev.ProposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, rev.ProposalID)
	}
	r.advance(rev.LedgerIndex)

	if r.phase != contracts.PhaseReveal {
		return fmt.Errorf("%w: proposal %s is in %s phase", contracts.ErrOutOfPhase, rev.ProposalID, r.phase)
	}
	if rev.LedgerIndex > r.revealDeadline {
		return fmt.Errorf("%w: reveal window closed at ledger %d", contracts.ErrOutOfPhase, r.revealDeadline)
	}

	commitment, committed := r.commitments[rev.Oracle]
	if !committed {
		return fmt.Errorf("%w: oracle %s has no commitment", contracts.ErrValidation, rev.Oracle)
	}
	if r.revealed[rev.Oracle] {
		return fmt.Errorf("%w: oracle %s already revealed", contracts.ErrValidation, rev.Oracle)
	}

	expected, err := CommitmentHash(rev.Verdict, rev.Nonce)
	if err != nil {
		return err
	}
	if expected != commitment.CommitmentHash {
		return fmt.Errorf("%w: reveal does not open commitment for oracle %s", contracts.ErrValidation, rev.Oracle)
	}

	r.arrival[rev.Oracle] = len(r.reveals)
	r.reveals = append(r.reveals, rev)
	r.revealed[rev.Oracle] = true

	// Every committer revealed: the reveal window can close early.
	if len(r.reveals) == len(r.commitments) {
		r.phase = contracts.PhaseTallying
	}
	return nil
}

// Tick drives deadline transitions for one proposal and aggregates when the
// round reaches tallying. Idempotent.
func (e *Engine) Tick(proposalID string, currentLedger uint64) (*contracts.AggregatedVerdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rounds[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}

	r.advance(currentLedger)

	if r.phase == contracts.PhaseTallying {
		r.aggregated = r.aggregate()
		r.phase = contracts.PhaseComplete
		e.logger.Info("round aggregated",
			"proposal_id", proposalID,
			"participation", r.aggregated.Participation,
			"quorum_reached", r.aggregated.QuorumReached,
			"channel_a_pass", r.aggregated.ChannelA.Pass)
	}
	return r.aggregated, nil
}

// Phase returns the round's current phase.
func (e *Engine) Phase(proposalID string) (contracts.ProtocolPhase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[proposalID]
	if !ok {
		return "", fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	return r.phase, nil
}

// Result returns the aggregated verdict once the round is complete.
func (e *Engine) Result(proposalID string) (*contracts.AggregatedVerdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rounds[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if r.aggregated == nil {
		return nil, fmt.Errorf("%w: proposal %s not yet aggregated", contracts.ErrOutOfPhase, proposalID)
	}
	return r.aggregated, nil
}

// advance moves the phase forward on deadline expiry. Aggregation itself
// happens in Tick so late commits/reveals observe the closed window first.
func (r *round) advance(currentLedger uint64) {
	if r.phase == contracts.PhaseCommit && currentLedger >= r.commitDeadline {
		r.phase = contracts.PhaseReveal
	}
	if r.phase == contracts.PhaseReveal && currentLedger > r.revealDeadline {
		r.phase = contracts.PhaseTallying
	}
}
