package channela

import (
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Verify runs the full deterministic pipeline on a proposal's raw inputs.
// Same inputs always produce the same verdict on any conforming
// implementation. A malformed AST yields a hard fail with zeroed sub-fields.
func Verify(p contracts.Proposal) contracts.ChannelAVerdict {
	payload, err := canonicalize.ForProposal(p)
	if err != nil {
		return contracts.FailVerdict(0, false, false)
	}
	return Recompute(payload.Bytes)
}

// Recompute executes pipeline steps 2-5 directly on canonical payload bytes.
// This is the entry point shared by verification and fraud-proof replay: the
// witness is already canonical, so canonicalization is skipped.
func Recompute(canonicalBytes []byte) contracts.ChannelAVerdict {
	complexityScore := Complexity(canonicalBytes)

	astJSON, normalizedText, err := canonicalize.SplitPayload(canonicalBytes)
	if err != nil {
		return contracts.FailVerdict(complexityScore, false, false)
	}

	paradoxFound := DetectParadox(string(normalizedText))
	cycleFound := DetectCycles(astJSON)

	if CheckComplexity(complexityScore) && !paradoxFound && !cycleFound {
		return contracts.PassVerdict(complexityScore)
	}
	return contracts.FailVerdict(complexityScore, paradoxFound, cycleFound)
}
