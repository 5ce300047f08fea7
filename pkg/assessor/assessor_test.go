package assessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

func testProposal() contracts.Proposal {
	return contracts.NewProposal("rA", `{}`, "text", contracts.LayerL2Operational, time.UnixMilli(0))
}

func TestSafeAnalyzePassesThrough(t *testing.T) {
	v := SafeAnalyze(context.Background(), Static{
		Verdict: contracts.NewChannelBVerdict(0.8, contracts.ClassII),
	}, testProposal(), nil)

	assert.InDelta(t, 0.8, v.AlignmentScore, 1e-9)
	assert.Equal(t, contracts.ClassII, v.DecidabilityClass)
	assert.Empty(t, v.EpistemicFlag)
}

func TestSafeAnalyzeFailureFallsBack(t *testing.T) {
	v := SafeAnalyze(context.Background(), Static{Err: errors.New("timeout")}, testProposal(), nil)

	assert.InDelta(t, 0.5, v.AlignmentScore, 1e-9)
	assert.Equal(t, contracts.ClassIII, v.DecidabilityClass)
	assert.Equal(t, contracts.EpistemicUncertain, v.EpistemicFlag)
	assert.False(t, v.AIInterestConflict)
}

func TestSafeAnalyzeNilAssessorFallsBack(t *testing.T) {
	v := SafeAnalyze(context.Background(), nil, testProposal(), nil)
	assert.Equal(t, contracts.EpistemicUncertain, v.EpistemicFlag)
}

func TestSafeAnalyzeConflictForcesClassIV(t *testing.T) {
	v := SafeAnalyze(context.Background(), Static{
		Verdict: contracts.ChannelBVerdict{
			AlignmentScore:     0.9,
			DecidabilityClass:  contracts.ClassI,
			AIInterestConflict: true,
		},
	}, testProposal(), nil)

	assert.Equal(t, contracts.ClassIV, v.DecidabilityClass)
}

func TestSafeAnalyzeClampsScore(t *testing.T) {
	v := SafeAnalyze(context.Background(), Static{
		Verdict: contracts.ChannelBVerdict{AlignmentScore: 1.4, DecidabilityClass: contracts.ClassII},
	}, testProposal(), nil)
	assert.Equal(t, 1.0, v.AlignmentScore)
}
