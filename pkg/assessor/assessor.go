// Package assessor is the Channel B boundary. The semantic-alignment
// assessor is an external reasoning service; the core consumes its verdict
// as an opaque tuple and never recomputes it. Assessor failure degrades to
// a conservative verdict rather than blocking the pipeline.
package assessor

import (
	"context"
	"log/slog"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Assessor produces a semantic alignment verdict for a proposal.
type Assessor interface {
	Analyze(ctx context.Context, p contracts.Proposal) (contracts.ChannelBVerdict, error)
}

// SafeAnalyze calls the assessor and absorbs failures: an error or nil
// assessor yields the conservative fallback {0.5, III, UNCERTAIN}. A
// reported interest conflict forces class IV regardless of other outputs.
func SafeAnalyze(ctx context.Context, a Assessor, p contracts.Proposal, logger *slog.Logger) contracts.ChannelBVerdict {
	if logger == nil {
		logger = slog.Default()
	}
	if a == nil {
		return contracts.FallbackChannelBVerdict()
	}

	verdict, err := a.Analyze(ctx, p)
	if err != nil {
		logger.Warn("assessor failure, using conservative verdict",
			"proposal_id", p.ID, "error", err)
		return contracts.FallbackChannelBVerdict()
	}

	if verdict.AIInterestConflict {
		verdict.DecidabilityClass = contracts.ClassIV
	}
	if verdict.AlignmentScore < 0 {
		verdict.AlignmentScore = 0
	}
	if verdict.AlignmentScore > 1 {
		verdict.AlignmentScore = 1
	}
	return verdict
}

// Static returns a fixed verdict; used by tests and the daemon's dry mode.
type Static struct {
	Verdict contracts.ChannelBVerdict
	Err     error
}

func (s Static) Analyze(context.Context, contracts.Proposal) (contracts.ChannelBVerdict, error) {
	return s.Verdict, s.Err
}
