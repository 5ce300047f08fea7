// Package staking is the economic ledger binding oracle behavior to
// penalties and rewards. All quantities are unsigned integers in drops;
// every mutation goes through checked arithmetic and is validated against
// the bond-conservation invariant. The registry's status field remains the
// source of truth for operator state; this ledger only moves money.
package staking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/ledger"
)

// Directory is the slice of the registry the ledger coordinates with.
type Directory interface {
	Operator(address string) (contracts.OracleOperator, error)
	Operators() []contracts.OracleOperator
	SetBond(address string, bond *uint256.Int) error
	Eject(address string) error
	RecordFraud(address string) error
}

// Rates are the slash rates in basis points so the arithmetic stays in
// integers. Defaults follow the protocol constants.
type Rates struct {
	NonRevealBp   uint64
	InactivityBp  uint64
	AutoEjectBp   uint64 // cumulative slashes beyond this share of the original bond eject
}

// DefaultRates returns the normative slash rates.
func DefaultRates() Rates {
	return Rates{NonRevealBp: 1500, InactivityBp: 500, AutoEjectBp: 5000}
}

// Ledger tracks deposits, slashes, and rewards for every oracle.
type Ledger struct {
	mu    sync.Mutex
	dir   Directory
	rates Rates

	original       map[string]*uint256.Int // deposit at registration
	cumSlashed     map[string]*uint256.Int
	released       map[string]*uint256.Int // returned via unbond
	pendingRewards map[string]*uint256.Int
	treasury       *uint256.Int // forfeited bonds
	events         []contracts.SlashEvent
	inactivityAt   map[string]uint64 // epoch of last inactivity slash

	history *ledger.Ledger
	clock   func() time.Time
	logger  *slog.Logger
}

// NewLedger creates a staking ledger over the given operator directory.
func NewLedger(dir Directory, rates Rates, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		dir:            dir,
		rates:          rates,
		original:       make(map[string]*uint256.Int),
		cumSlashed:     make(map[string]*uint256.Int),
		released:       make(map[string]*uint256.Int),
		pendingRewards: make(map[string]*uint256.Int),
		treasury:       uint256.NewInt(0),
		inactivityAt:   make(map[string]uint64),
		history:        ledger.New(ledger.TypeSlash),
		clock:          time.Now,
		logger:         logger.With("component", "staking"),
	}
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// RecordDeposit registers the original bond for conservation accounting.
// Called once per successful registration.
func (l *Ledger) RecordDeposit(address string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.original[address]; exists {
		return fmt.Errorf("%w: deposit already recorded for %s", contracts.ErrValidation, address)
	}
	l.original[address] = amount.Clone()
	l.cumSlashed[address] = uint256.NewInt(0)
	l.released[address] = uint256.NewInt(0)
	l.pendingRewards[address] = uint256.NewInt(0)
	return nil
}

// RecordRelease accounts a bond returned through completed unbonding.
func (l *Ledger) RecordRelease(address string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rel, ok := l.released[address]
	if !ok {
		return fmt.Errorf("%w: no deposit recorded for %s", contracts.ErrValidation, address)
	}
	if _, overflow := rel.AddOverflow(rel, amount); overflow {
		return fmt.Errorf("%w: release overflow for %s", contracts.ErrInvariant, address)
	}
	return nil
}

// SlashNonReveal applies the non-reveal penalty: a fixed share of the
// CURRENT bond, once per missed reveal per proposal.
func (l *Ledger) SlashNonReveal(address, proposalID string) (*contracts.SlashEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slash(address, contracts.SlashNonReveal, l.rates.NonRevealBp, proposalID)
}

// SlashInactivity applies the inactivity penalty once per epoch once the
// operator's missed reveals reach the threshold.
func (l *Ledger) SlashInactivity(address string, epoch uint64) (*contracts.SlashEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	op, err := l.dir.Operator(address)
	if err != nil {
		return nil, err
	}
	if op.Metrics.MissedReveals < contracts.InactivityThreshold {
		return nil, fmt.Errorf("%w: %s has not reached the inactivity threshold", contracts.ErrValidation, address)
	}
	if last, done := l.inactivityAt[address]; done && last == epoch {
		return nil, fmt.Errorf("%w: inactivity already slashed for %s in epoch %d", contracts.ErrValidation, address, epoch)
	}

	ev, err := l.slash(address, contracts.SlashInactivity, l.rates.InactivityBp, "")
	if err != nil {
		return nil, err
	}
	l.inactivityAt[address] = epoch
	return ev, nil
}

// SlashFraud forfeits the full bond to the treasury and permanently ejects
// the operator.
func (l *Ledger) SlashFraud(address, proposalID string) (*contracts.SlashEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	op, err := l.dir.Operator(address)
	if err != nil {
		return nil, err
	}
	amount := op.Bond.Clone()

	ev, err := l.applySlash(address, contracts.SlashFraud, amount, proposalID)
	if err != nil {
		return nil, err
	}
	if err := l.dir.RecordFraud(address); err != nil {
		return nil, err
	}
	if err := l.dir.Eject(address); err != nil {
		return nil, err
	}
	return ev, nil
}

// slash computes rate-of-current-bond and applies it; caller holds the lock.
func (l *Ledger) slash(address string, typ contracts.SlashType, rateBp uint64, proposalID string) (*contracts.SlashEvent, error) {
	op, err := l.dir.Operator(address)
	if err != nil {
		return nil, err
	}
	if op.Status == contracts.OracleEjected {
		return nil, fmt.Errorf("%w: %s is already ejected", contracts.ErrValidation, address)
	}

	amount, overflow := new(uint256.Int).MulOverflow(op.Bond, uint256.NewInt(rateBp))
	if overflow {
		return nil, fmt.Errorf("%w: slash amount overflow for %s", contracts.ErrInvariant, address)
	}
	amount.Div(amount, uint256.NewInt(10_000))

	ev, err := l.applySlash(address, typ, amount, proposalID)
	if err != nil {
		return nil, err
	}

	// Past half the original deposit in cumulative penalties, the operator
	// auto-ejects and forfeits the remainder.
	threshold, overflow := new(uint256.Int).MulOverflow(l.original[address], uint256.NewInt(l.rates.AutoEjectBp))
	if overflow {
		return nil, fmt.Errorf("%w: auto-eject threshold overflow for %s", contracts.ErrInvariant, address)
	}
	threshold.Div(threshold, uint256.NewInt(10_000))

	if l.cumSlashed[address].Gt(threshold) {
		remaining, err := l.dir.Operator(address)
		if err != nil {
			return nil, err
		}
		if !remaining.Bond.IsZero() {
			if _, err := l.applySlash(address, typ, remaining.Bond.Clone(), proposalID); err != nil {
				return nil, err
			}
		}
		if err := l.dir.Eject(address); err != nil {
			return nil, err
		}
		l.logger.Warn("oracle auto-ejected past cumulative slash threshold", "address", address)
	}
	return ev, nil
}

// applySlash moves amount from the operator's bond to the treasury and
// appends the event. Caller holds the lock.
func (l *Ledger) applySlash(address string, typ contracts.SlashType, amount *uint256.Int, proposalID string) (*contracts.SlashEvent, error) {
	op, err := l.dir.Operator(address)
	if err != nil {
		return nil, err
	}
	if _, exists := l.original[address]; !exists {
		return nil, fmt.Errorf("%w: no deposit recorded for %s", contracts.ErrInvariant, address)
	}

	newBond, underflow := new(uint256.Int).SubOverflow(op.Bond, amount)
	if underflow {
		return nil, fmt.Errorf("%w: slash exceeds bond for %s", contracts.ErrInvariant, address)
	}
	if err := l.dir.SetBond(address, newBond); err != nil {
		return nil, err
	}

	if _, overflow := l.cumSlashed[address].AddOverflow(l.cumSlashed[address], amount); overflow {
		return nil, fmt.Errorf("%w: cumulative slash overflow for %s", contracts.ErrInvariant, address)
	}
	if _, overflow := l.treasury.AddOverflow(l.treasury, amount); overflow {
		return nil, fmt.Errorf("%w: treasury overflow", contracts.ErrInvariant)
	}

	ev := contracts.SlashEvent{
		ID:         uuid.New().String(),
		Oracle:     address,
		Type:       typ,
		Amount:     amount.Clone(),
		ProposalID: proposalID,
		Timestamp:  l.clock().UnixMilli(),
		Executed:   true,
	}
	l.events = append(l.events, ev)

	if _, err := l.history.Append("slash_executed", address, map[string]interface{}{
		"id":          ev.ID,
		"type":        string(typ),
		"amount":      amount.Dec(),
		"proposal_id": proposalID,
	}); err != nil {
		return nil, err
	}

	l.logger.Info("slash executed",
		"address", address, "type", typ, "amount_drops", amount.Dec())
	return &ev, nil
}

// Events returns a copy of the slash history.
func (l *Ledger) Events() []contracts.SlashEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]contracts.SlashEvent, len(l.events))
	copy(out, l.events)
	return out
}

// History exposes the hash-chained slash ledger for audit.
func (l *Ledger) History() *ledger.Ledger {
	return l.history
}

// Treasury returns the forfeited-bond balance.
func (l *Ledger) Treasury() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.Clone()
}

// CheckConservation validates the bond-conservation invariant: for every
// oracle ever registered, deposit = current bond + cumulative slashes +
// released, and the treasury equals the sum of all slashes.
func (l *Ledger) CheckConservation() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	totalSlashed := uint256.NewInt(0)
	for address, deposit := range l.original {
		current := uint256.NewInt(0)
		if op, err := l.dir.Operator(address); err == nil {
			current = op.Bond
		}

		sum := new(uint256.Int).Add(current, l.cumSlashed[address])
		sum.Add(sum, l.released[address])
		if sum.Cmp(deposit) != 0 {
			return fmt.Errorf("%w: conservation broken for %s: deposit %s, accounted %s",
				contracts.ErrInvariant, address, deposit.Dec(), sum.Dec())
		}
		totalSlashed.Add(totalSlashed, l.cumSlashed[address])
	}
	if totalSlashed.Cmp(l.treasury) != 0 {
		return fmt.Errorf("%w: treasury %s does not match total slashed %s",
			contracts.ErrInvariant, l.treasury.Dec(), totalSlashed.Dec())
	}
	return nil
}
