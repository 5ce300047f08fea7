// Package fraud re-executes the deterministic pipeline from a witness and
// compares the result against an oracle's claimed verdict. Verification
// itself never fails: it either proves fraud or it does not, and an
// unverifiable witness is always NotProven.
package fraud

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/channela"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// MaxWitnessBytes bounds the decoded witness size. A witness beyond the
// canonicalizer's plausible output is unverifiable, not fraudulent.
const MaxWitnessBytes = 1 << 20

// Verifier replays Channel A from fraud-proof witnesses.
type Verifier struct {
	logger *slog.Logger
}

// NewVerifier creates a fraud-proof verifier.
func NewVerifier(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{logger: logger.With("component", "fraud")}
}

// Verify decodes the witness, re-runs pipeline steps 2-5 on the canonical
// bytes, and enumerates every verdict field on which the claim diverges.
func (v *Verifier) Verify(proof contracts.FraudProof) contracts.FraudProofResult {
	result := contracts.FraudProofResult{
		ProposalID: proof.ProposalID,
		Claimed:    proof.ClaimedVerdict,
	}

	payload, err := decodeWitness(proof.Witness)
	if err != nil {
		v.logger.Warn("unverifiable fraud-proof witness",
			"proposal_id", proof.ProposalID, "error", err)
		result.Trace = append(result.Trace, fmt.Sprintf("witness rejected: %v", err))
		return result
	}

	result.Trace = append(result.Trace, fmt.Sprintf("witness decoded: %d canonical bytes", len(payload)))

	// The witness hash must identify the proposal the claim was made for,
	// or the re-execution proves nothing about that claim.
	if hash := canonicalize.HashBytes(payload); hash != proof.ProposalID {
		v.logger.Warn("fraud-proof witness does not match proposal",
			"proposal_id", proof.ProposalID, "witness_hash", hash)
		result.Trace = append(result.Trace, "witness hash does not match proposal id")
		return result
	}

	recomputed := channela.Recompute(payload)
	result.Recomputed = recomputed
	result.Trace = append(result.Trace,
		fmt.Sprintf("recomputed: pass=%t complexity=%d paradox=%t cycle=%t",
			recomputed.Pass, recomputed.ComplexityScore, recomputed.ParadoxFound, recomputed.CycleFound))

	result.Discrepancies = diff(proof.ClaimedVerdict, recomputed)
	result.FraudDetected = len(result.Discrepancies) > 0

	if result.FraudDetected {
		v.logger.Info("fraud proven",
			"proposal_id", proof.ProposalID, "discrepancies", result.Discrepancies)
	}
	return result
}

func decodeWitness(w contracts.FraudProofWitness) ([]byte, error) {
	if w.CanonicalPayloadHex == "" {
		return nil, fmt.Errorf("empty canonical payload")
	}
	if len(w.CanonicalPayloadHex) > 2*MaxWitnessBytes {
		return nil, fmt.Errorf("witness exceeds %d bytes", MaxWitnessBytes)
	}
	payload, err := hex.DecodeString(w.CanonicalPayloadHex)
	if err != nil {
		return nil, fmt.Errorf("bad hex encoding: %w", err)
	}
	return payload, nil
}

func diff(claimed, recomputed contracts.ChannelAVerdict) []string {
	var d []string
	if claimed.Pass != recomputed.Pass {
		d = append(d, fmt.Sprintf("pass: claimed %t, recomputed %t", claimed.Pass, recomputed.Pass))
	}
	if claimed.ComplexityScore != recomputed.ComplexityScore {
		d = append(d, fmt.Sprintf("complexity_score: claimed %d, recomputed %d", claimed.ComplexityScore, recomputed.ComplexityScore))
	}
	if claimed.ParadoxFound != recomputed.ParadoxFound {
		d = append(d, fmt.Sprintf("paradox_found: claimed %t, recomputed %t", claimed.ParadoxFound, recomputed.ParadoxFound))
	}
	if claimed.CycleFound != recomputed.CycleFound {
		d = append(d, fmt.Sprintf("cycle_found: claimed %t, recomputed %t", claimed.CycleFound, recomputed.CycleFound))
	}
	return d
}

// BuildProof assembles a fraud proof for a claimed verdict from the raw
// proposal inputs, recording the computation trace a challenger submits.
func BuildProof(p contracts.Proposal, claimed contracts.ChannelAVerdict) (contracts.FraudProof, error) {
	payload, err := canonicalize.ForProposal(p)
	if err != nil {
		return contracts.FraudProof{}, fmt.Errorf("%w: cannot canonicalize challenged proposal", contracts.ErrValidation)
	}

	recomputed := channela.Recompute(payload.Bytes)
	trace := []string{
		fmt.Sprintf("canonicalized %d bytes, hash %s", len(payload.Bytes), payload.Hash),
		fmt.Sprintf("recomputed: pass=%t complexity=%d paradox=%t cycle=%t",
			recomputed.Pass, recomputed.ComplexityScore, recomputed.ParadoxFound, recomputed.CycleFound),
	}

	return contracts.FraudProof{
		ProposalID:     payload.Hash,
		ClaimedVerdict: claimed,
		Witness: contracts.FraudProofWitness{
			CanonicalPayloadHex: hex.EncodeToString(payload.Bytes),
			Trace:               trace,
		},
	}, nil
}
