package staking

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// PerformanceMultiplier maps epoch metrics to the reward multiplier in
// [0.5, 1.5], rounded to 0.01:
//
//	p < 0.5            -> 0.5
//	p >= 0.5           -> 0.5 + (p-0.5)/0.5, minus 0.05 per missed reveal
//	clean and p >= .95 -> +0.1 bonus
func PerformanceMultiplier(m contracts.OracleMetrics, proposalsInEpoch uint64) float64 {
	if proposalsInEpoch == 0 {
		return 1.0
	}

	p := float64(m.SuccessfulReveals) / float64(proposalsInEpoch)

	mult := 0.5
	if p >= 0.5 {
		mult = 0.5 + (p-0.5)/0.5
		mult -= 0.05 * float64(m.MissedReveals)
	}
	if m.FraudProofs == 0 && p >= 0.95 {
		mult += 0.1
	}

	if mult < 0.5 {
		mult = 0.5
	}
	if mult > 1.5 {
		mult = 1.5
	}
	return math.Round(mult*100) / 100
}

// DistributeRewards splits the epoch reward pool across the active set by
// stake share, scaled by each operator's performance multiplier. Rewards
// accrue as pending; Claim is a separate explicit operation.
func (l *Ledger) DistributeRewards(pool *uint256.Int, proposalsInEpoch uint64) (map[string]*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	totalBond := uint256.NewInt(0)
	var active []contracts.OracleOperator
	for _, op := range l.dir.Operators() {
		if op.Status == contracts.OracleActive {
			active = append(active, op)
			if _, overflow := totalBond.AddOverflow(totalBond, op.Bond); overflow {
				return nil, fmt.Errorf("%w: total bond overflow", contracts.ErrInvariant)
			}
		}
	}
	if len(active) == 0 || totalBond.IsZero() || pool.IsZero() {
		return map[string]*uint256.Int{}, nil
	}

	rewards := make(map[string]*uint256.Int, len(active))
	for _, op := range active {
		// base = pool * bond / totalBond
		base, overflow := new(uint256.Int).MulOverflow(pool, op.Bond)
		if overflow {
			return nil, fmt.Errorf("%w: reward base overflow for %s", contracts.ErrInvariant, op.Address)
		}
		base.Div(base, totalBond)

		// final = floor(base * m), with m carried in hundredths.
		m100 := uint64(math.Round(PerformanceMultiplier(op.Metrics, proposalsInEpoch) * 100))
		reward, overflow := new(uint256.Int).MulOverflow(base, uint256.NewInt(m100))
		if overflow {
			return nil, fmt.Errorf("%w: reward overflow for %s", contracts.ErrInvariant, op.Address)
		}
		reward.Div(reward, uint256.NewInt(100))

		pending, ok := l.pendingRewards[op.Address]
		if !ok {
			pending = uint256.NewInt(0)
			l.pendingRewards[op.Address] = pending
		}
		if _, overflow := pending.AddOverflow(pending, reward); overflow {
			return nil, fmt.Errorf("%w: pending reward overflow for %s", contracts.ErrInvariant, op.Address)
		}
		rewards[op.Address] = reward.Clone()

		l.logger.Info("reward accrued",
			"address", op.Address, "reward_drops", reward.Dec(), "multiplier_hundredths", m100)
	}
	return rewards, nil
}

// PendingReward returns the unclaimed balance for an oracle.
func (l *Ledger) PendingReward(address string) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pending, ok := l.pendingRewards[address]; ok {
		return pending.Clone()
	}
	return uint256.NewInt(0)
}

// ClaimRewards zeroes and returns the oracle's pending balance.
func (l *Ledger) ClaimRewards(address string) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, ok := l.pendingRewards[address]
	if !ok || pending.IsZero() {
		return nil, fmt.Errorf("%w: no pending rewards for %s", contracts.ErrValidation, address)
	}
	claimed := pending.Clone()
	l.pendingRewards[address] = uint256.NewInt(0)
	l.logger.Info("rewards claimed", "address", address, "amount_drops", claimed.Dec())
	return claimed, nil
}
