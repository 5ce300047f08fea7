// Package registry owns the oracle operator set: registration, bonding
// status, epoch rotation of the active set, and participation metrics. The
// registry's status field is the single source of truth the slashing ledger
// coordinates against.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Registry is the authoritative operator directory.
type Registry struct {
	mu        sync.RWMutex
	operators map[string]*contracts.OracleOperator
	ejected   map[string]bool // permanent, survives operator removal
	epoch     contracts.Epoch
	minBond   *uint256.Int
	epochLen  uint64 // ledger intervals
	setSize   int
	clock     func() time.Time
	logger    *slog.Logger
}

// New creates a registry with protocol-default bond, epoch, and set size.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		operators: make(map[string]*contracts.OracleOperator),
		ejected:   make(map[string]bool),
		minBond:   contracts.OracleBond(),
		epochLen:  contracts.OracleEpoch,
		setSize:   contracts.ActiveOracleSetSize,
		clock:     time.Now,
		logger:    logger.With("component", "registry"),
	}
}

// WithClock overrides the clock for testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// WithSetSize overrides the active-set bound for testing.
func (r *Registry) WithSetSize(n int) *Registry {
	r.setSize = n
	return r
}

// Register bonds a new operator as a Candidate. Ejected addresses can never
// re-register; bonds below the minimum are rejected.
func (r *Registry) Register(address string, bond *uint256.Int, escrowSeq uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address == "" {
		return fmt.Errorf("%w: empty oracle address", contracts.ErrValidation)
	}
	if r.ejected[address] {
		return fmt.Errorf("%w: address %s was ejected and cannot re-register", contracts.ErrValidation, address)
	}
	if _, exists := r.operators[address]; exists {
		return fmt.Errorf("%w: address %s is already registered", contracts.ErrValidation, address)
	}
	if bond == nil || bond.Lt(r.minBond) {
		return fmt.Errorf("%w: bond below minimum %s drops", contracts.ErrValidation, r.minBond.Dec())
	}

	r.operators[address] = &contracts.OracleOperator{
		Address:      address,
		Bond:         bond.Clone(),
		EscrowSeq:    escrowSeq,
		Status:       contracts.OracleCandidate,
		RegisteredAt: r.clock().UnixMilli(),
	}
	r.logger.Info("oracle registered", "address", address, "bond_drops", bond.Dec())
	return nil
}

// InitiateUnbond starts the unbonding cooldown and removes the operator from
// active rotation.
func (r *Registry) InitiateUnbond(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, err := r.lookup(address)
	if err != nil {
		return err
	}
	if op.Status == contracts.OracleUnbonding {
		return fmt.Errorf("%w: %s is already unbonding", contracts.ErrValidation, address)
	}
	if op.Status == contracts.OracleEjected {
		return fmt.Errorf("%w: %s is ejected", contracts.ErrValidation, address)
	}

	op.Status = contracts.OracleUnbonding
	op.UnbondingAt = r.clock().UnixMilli()
	r.removeFromActiveSet(address)
	r.logger.Info("oracle unbonding", "address", address)
	return nil
}

// CompleteUnbond releases the operator after a full epoch duration has
// elapsed since InitiateUnbond. The caller releases the escrow.
func (r *Registry) CompleteUnbond(address string) (*contracts.OracleOperator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, err := r.lookup(address)
	if err != nil {
		return nil, err
	}
	if op.Status != contracts.OracleUnbonding {
		return nil, fmt.Errorf("%w: %s is not unbonding", contracts.ErrOutOfPhase, address)
	}

	elapsed := r.clock().UnixMilli() - op.UnbondingAt
	if elapsed < r.epochDurationMillis() {
		return nil, fmt.Errorf("%w: unbonding cooldown not elapsed for %s", contracts.ErrOutOfPhase, address)
	}

	released := *op
	delete(r.operators, address)
	r.logger.Info("oracle unbonded", "address", address, "released_drops", released.Bond.Dec())
	return &released, nil
}

// RecordParticipation updates reveal metrics for one protocol round.
func (r *Registry) RecordParticipation(address string, revealed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, err := r.lookup(address)
	if err != nil {
		return err
	}
	op.Metrics.TotalParticipations++
	if revealed {
		op.Metrics.SuccessfulReveals++
	} else {
		op.Metrics.MissedReveals++
	}
	op.Metrics.LastActiveEpoch = r.epoch.Number
	return nil
}

// RecordFraud increments the operator's proven-fraud counter.
func (r *Registry) RecordFraud(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, err := r.lookup(address)
	if err != nil {
		return err
	}
	op.Metrics.FraudProofs++
	return nil
}

// EjectForFraud permanently removes an operator from the protocol. The bond
// is forfeited by the slashing ledger; here the record is zeroed and the
// address blacklisted.
func (r *Registry) EjectForFraud(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, err := r.lookup(address)
	if err != nil {
		return err
	}
	op.Status = contracts.OracleEjected
	op.Bond = uint256.NewInt(0)
	r.ejected[address] = true
	r.removeFromActiveSet(address)
	r.logger.Warn("oracle ejected for fraud", "address", address)
	return nil
}

// Eject marks an operator ejected without the fraud blacklist semantics
// changing (used by the slashing ledger's cumulative auto-eject).
func (r *Registry) Eject(address string) error {
	return r.EjectForFraud(address)
}

// StartNewEpoch rotates the active set: all Candidate and Active operators
// ordered by bond descending (registration time ascending on ties), the
// first setSize become Active, the rest Candidate.
func (r *Registry) StartNewEpoch(startLedger uint64) contracts.Epoch {
	r.mu.Lock()
	defer r.mu.Unlock()

	eligible := make([]*contracts.OracleOperator, 0, len(r.operators))
	for _, op := range r.operators {
		if op.Status == contracts.OracleCandidate || op.Status == contracts.OracleActive {
			eligible = append(eligible, op)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if c := eligible[i].Bond.Cmp(eligible[j].Bond); c != 0 {
			return c > 0
		}
		return eligible[i].RegisteredAt < eligible[j].RegisteredAt
	})

	active := make([]string, 0, r.setSize)
	for i, op := range eligible {
		if i < r.setSize {
			op.Status = contracts.OracleActive
			op.Metrics.MissedReveals = 0 // per-epoch counter
			active = append(active, op.Address)
		} else {
			op.Status = contracts.OracleCandidate
		}
	}

	r.epoch = contracts.Epoch{
		Number:      r.epoch.Number + 1,
		StartLedger: startLedger,
		EndLedger:   startLedger + r.epochLen,
		ActiveSet:   active,
	}
	r.logger.Info("epoch started",
		"epoch", r.epoch.Number, "active_set", len(active), "eligible", len(eligible))
	return r.epoch
}

// CurrentEpoch returns the epoch in force.
func (r *Registry) CurrentEpoch() contracts.Epoch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// ActiveSet returns the current active oracle addresses.
func (r *Registry) ActiveSet() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.epoch.ActiveSet))
	copy(out, r.epoch.ActiveSet)
	return out
}

// Operator returns a copy of one operator record.
func (r *Registry) Operator(address string) (contracts.OracleOperator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operators[address]
	if !ok {
		return contracts.OracleOperator{}, fmt.Errorf("%w: unknown oracle %s", contracts.ErrValidation, address)
	}
	cp := *op
	cp.Bond = op.Bond.Clone()
	return cp, nil
}

// Operators returns copies of all operator records, address-sorted.
func (r *Registry) Operators() []contracts.OracleOperator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contracts.OracleOperator, 0, len(r.operators))
	for _, op := range r.operators {
		cp := *op
		cp.Bond = op.Bond.Clone()
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// SetBond overwrites an operator's bond. Only the slashing ledger calls
// this, after a validated slash or reward mutation.
func (r *Registry) SetBond(address string, bond *uint256.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, err := r.lookup(address)
	if err != nil {
		return err
	}
	op.Bond = bond.Clone()
	return nil
}

func (r *Registry) lookup(address string) (*contracts.OracleOperator, error) {
	op, ok := r.operators[address]
	if !ok {
		return nil, fmt.Errorf("%w: unknown oracle %s", contracts.ErrValidation, address)
	}
	return op, nil
}

func (r *Registry) removeFromActiveSet(address string) {
	set := r.epoch.ActiveSet[:0]
	for _, a := range r.epoch.ActiveSet {
		if a != address {
			set = append(set, a)
		}
	}
	r.epoch.ActiveSet = set
}

func (r *Registry) epochDurationMillis() int64 {
	// Ledger intervals close roughly every 4 seconds on the substrate.
	return int64(r.epochLen) * 4000
}
