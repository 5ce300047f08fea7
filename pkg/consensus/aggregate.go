package consensus

import (
	"sort"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// aggregate reduces the ordered reveal multiset to the round's consensus.
// It is a pure function of the reveals ordered by ledger index (arrival
// order breaking ties), with no wall-clock dependency.
func (r *round) aggregate() *contracts.AggregatedVerdict {
	ordered := make([]contracts.Reveal, len(r.reveals))
	copy(ordered, r.reveals)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].LedgerIndex != ordered[j].LedgerIndex {
			return ordered[i].LedgerIndex < ordered[j].LedgerIndex
		}
		return r.arrival[ordered[i].Oracle] < r.arrival[ordered[j].Oracle]
	})

	agg := &contracts.AggregatedVerdict{
		ProposalID:     r.proposalID,
		Participation:  len(ordered),
		QuorumRequired: contracts.QuorumRequired(r.activeSize),
	}
	agg.QuorumReached = agg.Participation >= agg.QuorumRequired

	// Non-revealers: committed but never opened.
	for oracle := range r.commitments {
		if r.revealed[oracle] {
			agg.Revealers = append(agg.Revealers, oracle)
		} else {
			agg.NonRevealers = append(agg.NonRevealers, oracle)
		}
	}
	sort.Strings(agg.Revealers)
	sort.Strings(agg.NonRevealers)

	if len(ordered) == 0 {
		return agg
	}

	// Channel A: majority on the pass bit, ties resolve to fail. The
	// consensus record copies the first majority-side reveal in ledger
	// order so the full verdict is a concrete one someone attested to.
	passVotes := 0
	for _, rev := range ordered {
		if rev.Verdict.ChannelA.Pass {
			passVotes++
		}
	}
	majorityPass := passVotes*2 > len(ordered)
	for _, rev := range ordered {
		if rev.Verdict.ChannelA.Pass == majorityPass {
			agg.ChannelA = rev.Verdict.ChannelA
			break
		}
	}

	// Channel B: mean alignment score, plurality class with ties going to
	// the highest (most conservative) class.
	var scoreSum float64
	classVotes := make(map[contracts.DecidabilityClass]int)
	conflict := false
	for _, rev := range ordered {
		scoreSum += rev.Verdict.ChannelB.AlignmentScore
		classVotes[rev.Verdict.ChannelB.DecidabilityClass]++
		if rev.Verdict.ChannelB.AIInterestConflict {
			conflict = true
		}
	}

	best := contracts.DecidabilityClass(0)
	bestVotes := -1
	for _, class := range []contracts.DecidabilityClass{contracts.ClassI, contracts.ClassII, contracts.ClassIII, contracts.ClassIV} {
		if v := classVotes[class]; v >= bestVotes && v > 0 {
			best, bestVotes = class, v
		}
	}

	agg.ChannelB = contracts.ChannelBVerdict{
		AlignmentScore:     scoreSum / float64(len(ordered)),
		DecidabilityClass:  best,
		AIInterestConflict: conflict,
	}
	return agg
}
