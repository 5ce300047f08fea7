// Package orchestrator sequences a proposal through review, routing,
// voting, jury, timelock, and execution. It is the sole writer of
// GovernanceProposal records, drives time-based transitions from an
// idempotent tick, and emits an ordered event stream per proposal.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/assessor"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/consensus"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/execguard"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/jury"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/ledger"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/registry"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/router"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/staking"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/substrate"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/voting"
)

// EligibleProvider materializes the jury-eligible account list. The host
// adapter backs it with substrate account scans.
type EligibleProvider func(ctx context.Context) ([]jury.EligibleAccount, error)

// Config wires the orchestrator's collaborators.
type Config struct {
	Consensus *consensus.Engine
	Registry  *registry.Registry
	Staking   *staking.Ledger
	Voting    *voting.System
	Router    *router.Router
	Assessor  assessor.Assessor
	Substrate substrate.Ledger
	Guard     *execguard.Guard
	Eligible  EligibleProvider
	// TotalSupply is the voting token supply used at period close.
	TotalSupply uint64
	Logger      *slog.Logger
}

// Orchestrator owns the governance lifecycle.
type Orchestrator struct {
	mu        sync.Mutex
	proposals map[string]*contracts.GovernanceProposal
	order     []string
	panels    map[string]*jury.Panel

	consensus   *consensus.Engine
	registry    *registry.Registry
	staking     *staking.Ledger
	voting      *voting.System
	router      *router.Router
	assessor    assessor.Assessor
	substrate   substrate.Ledger
	guard       *execguard.Guard
	eligible    EligibleProvider
	totalSupply uint64

	govLedger *ledger.Ledger
	observers []Observer
	clock     func() time.Time
	logger    *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Consensus == nil || cfg.Registry == nil || cfg.Staking == nil ||
		cfg.Voting == nil || cfg.Router == nil || cfg.Substrate == nil {
		return nil, fmt.Errorf("%w: orchestrator missing a required subsystem", contracts.ErrValidation)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		proposals:   make(map[string]*contracts.GovernanceProposal),
		panels:      make(map[string]*jury.Panel),
		consensus:   cfg.Consensus,
		registry:    cfg.Registry,
		staking:     cfg.Staking,
		voting:      cfg.Voting,
		router:      cfg.Router,
		assessor:    cfg.Assessor,
		substrate:   cfg.Substrate,
		guard:       cfg.Guard,
		eligible:    cfg.Eligible,
		totalSupply: cfg.TotalSupply,
		govLedger:   ledger.New(ledger.TypeGovernance),
		clock:       time.Now,
		logger:      logger.With("component", "orchestrator"),
	}, nil
}

// WithClock overrides the clock for testing.
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	return o
}

// Subscribe registers a lifecycle observer.
func (o *Orchestrator) Subscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Submit accepts a proposal, assigns its canonical id, and opens the oracle
// review round against the current active set.
func (o *Orchestrator) Submit(ctx context.Context, proposer, logicAST, text, layerStr string) (string, error) {
	layer, err := contracts.ParseLayer(layerStr)
	if err != nil {
		return "", err
	}
	if proposer == "" {
		return "", fmt.Errorf("%w: empty proposer", contracts.ErrValidation)
	}

	p := contracts.NewProposal(proposer, logicAST, text, layer, o.clock())
	p.ID = proposalID(p)

	currentLedger, err := o.substrate.CurrentLedgerIndex(ctx)
	if err != nil {
		return "", fmt.Errorf("submit %s: read ledger index: %w", p.ID, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.proposals[p.ID]; exists {
		return "", fmt.Errorf("%w: proposal %s already submitted", contracts.ErrValidation, p.ID)
	}

	gp := &contracts.GovernanceProposal{
		Proposal:  p,
		Phase:     contracts.PhaseSubmitted,
		UpdatedAt: o.clock().UnixMilli(),
	}
	o.proposals[p.ID] = gp
	o.order = append(o.order, p.ID)
	o.emit(EventSubmitted, gp, map[string]interface{}{"proposer": proposer, "layer": string(layer)})

	activeSet := o.registry.ActiveSet()
	if len(activeSet) == 0 {
		o.reject(gp, "no active oracle set")
		return p.ID, nil
	}
	if err := o.consensus.StartRound(p.ID, activeSet, currentLedger); err != nil {
		o.reject(gp, fmt.Sprintf("cannot open oracle round: %v", err))
		return p.ID, nil
	}

	o.setPhase(gp, contracts.PhaseOracleReview)
	return p.ID, nil
}

// Get returns a copy of one governance proposal.
func (o *Orchestrator) Get(id string) (contracts.GovernanceProposal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	gp, ok := o.proposals[id]
	if !ok {
		return contracts.GovernanceProposal{}, fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, id)
	}
	return *gp, nil
}

// List returns copies of all proposals in submission order.
func (o *Orchestrator) List() []contracts.GovernanceProposal {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]contracts.GovernanceProposal, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, *o.proposals[id])
	}
	return out
}

// EventLedger exposes the hash-chained governance event trail.
func (o *Orchestrator) EventLedger() *ledger.Ledger {
	return o.govLedger
}

// proposalID derives the proposal identifier. The canonical hash is the id
// whenever the AST parses; an unparseable AST still gets a stable id from
// the raw inputs so its rejection is addressable.
func proposalID(p contracts.Proposal) string {
	if payload, err := canonicalize.ForProposal(p); err == nil {
		return payload.Hash
	}
	h := sha256.Sum256([]byte(p.Proposer + "\x00" + p.LogicAST + "\x00" + p.Text))
	return hex.EncodeToString(h[:])
}

// emit appends to the governance ledger and fans out to observers. Caller
// holds the lock; observers must not re-enter.
func (o *Orchestrator) emit(t EventType, gp *contracts.GovernanceProposal, data map[string]interface{}) {
	ev := Event{
		Type:       t,
		ProposalID: gp.Proposal.ID,
		Phase:      string(gp.Phase),
		Timestamp:  o.clock(),
		Data:       data,
	}
	if _, err := o.govLedger.Append(string(t), gp.Proposal.Proposer, map[string]interface{}{
		"proposal_id": ev.ProposalID,
		"phase":       ev.Phase,
	}); err != nil {
		o.logger.Error("governance ledger append failed", "error", err)
	}
	for _, obs := range o.observers {
		obs.OnEvent(ev)
	}
	o.logger.Info("event", "type", t, "proposal_id", ev.ProposalID, "phase", ev.Phase)
}

func (o *Orchestrator) setPhase(gp *contracts.GovernanceProposal, phase contracts.GovernancePhase) {
	gp.Phase = phase
	gp.UpdatedAt = o.clock().UnixMilli()
}

func (o *Orchestrator) reject(gp *contracts.GovernanceProposal, reason string) {
	gp.RejectionReason = reason
	o.setPhase(gp, contracts.PhaseRejected)
	o.emit(EventRejected, gp, map[string]interface{}{"reason": reason})
}
