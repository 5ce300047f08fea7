// Package jury selects constitutional jury panels by seeded weighted
// sampling and resolves their verdicts by supermajority. Selection is
// reproducible from the seed and the eligible list alone, so any observer
// can re-derive the panel.
package jury

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// EligibleAccount is one candidate juror.
type EligibleAccount struct {
	Address    string `json:"address"`
	Balance    uint64 `json:"balance"` // drops
	LastActive int64  `json:"last_active"` // milliseconds since epoch
	IsAI       bool   `json:"is_ai,omitempty"`
}

// Seed derives the sampling seed: sha256(proposal_id ++ ledger_hash).
func Seed(proposalID string, ledgerHash []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(proposalID))
	h.Write(ledgerHash)
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// Select samples JurySize distinct members, weighting each eligible account
// by sqrt(balance). Accounts inactive for the eligibility window are
// filtered first; humanOnly additionally excludes identified AI accounts.
// nowMillis anchors the activity filter.
func Select(seed [32]byte, eligible []EligibleAccount, nowMillis int64, humanOnly bool) ([]string, error) {
	cutoff := nowMillis - int64(contracts.JuryEligibilityWindowSeconds)*1000

	pool := make([]EligibleAccount, 0, len(eligible))
	for _, acct := range eligible {
		if acct.LastActive < cutoff {
			continue
		}
		if humanOnly && acct.IsAI {
			continue
		}
		if acct.Balance == 0 {
			continue
		}
		pool = append(pool, acct)
	}

	if len(pool) < contracts.JurySize {
		kind := "eligible"
		if humanOnly {
			kind = "human eligible"
		}
		return nil, fmt.Errorf("%w: %d %s accounts, need at least %d",
			contracts.ErrValidation, len(pool), kind, contracts.JurySize)
	}

	// Deterministic base order before sampling.
	sort.Slice(pool, func(i, j int) bool { return pool[i].Address < pool[j].Address })

	weights := make([]float64, len(pool))
	for i, acct := range pool {
		weights[i] = math.Sqrt(float64(acct.Balance))
	}

	members := make([]string, 0, contracts.JurySize)
	taken := make([]bool, len(pool))
	draw := newDrawStream(seed)

	for len(members) < contracts.JurySize {
		var total float64
		for i := range pool {
			if !taken[i] {
				total += weights[i]
			}
		}

		target := draw.next() * total
		chosen := -1
		var cum float64
		for i := range pool {
			if taken[i] {
				continue
			}
			cum += weights[i]
			if target < cum {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			// Floating-point edge: target landed past the final cumulative
			// sum; take the last remaining account.
			for i := len(pool) - 1; i >= 0; i-- {
				if !taken[i] {
					chosen = i
					break
				}
			}
		}
		taken[chosen] = true
		members = append(members, pool[chosen].Address)
	}
	return members, nil
}

// drawStream expands a 32-byte seed into uniform draws in [0,1) by hashing
// seed || counter.
type drawStream struct {
	seed    [32]byte
	counter uint64
}

func newDrawStream(seed [32]byte) *drawStream {
	return &drawStream{seed: seed}
}

func (d *drawStream) next() float64 {
	var buf [40]byte
	copy(buf[:32], d.seed[:])
	binary.BigEndian.PutUint64(buf[32:], d.counter)
	d.counter++

	digest := sha256.Sum256(buf[:])
	// 53 bits of the digest give a uniform double in [0,1).
	v := binary.BigEndian.Uint64(digest[:8]) >> 11
	return float64(v) / float64(1<<53)
}
