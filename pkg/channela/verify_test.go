package channela

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

func proposal(logicAST, text string) contracts.Proposal {
	return contracts.NewProposal("rTestAddress123", logicAST, text, contracts.LayerL2Operational, time.UnixMilli(1_700_000_000_000))
}

func TestVerifySimpleTransferPasses(t *testing.T) {
	v := Verify(proposal(`{"action":"transfer","amount":100}`, "Transfer 100 tokens to the community fund"))

	assert.True(t, v.Pass)
	assert.False(t, v.ParadoxFound)
	assert.False(t, v.CycleFound)
	assert.GreaterOrEqual(t, v.ComplexityScore, uint64(40))
	assert.LessOrEqual(t, v.ComplexityScore, uint64(120))
}

func TestVerifyParadoxFails(t *testing.T) {
	v := Verify(proposal(`{"action":"conditional"}`, "This proposal passes iff it fails."))

	assert.False(t, v.Pass)
	assert.True(t, v.ParadoxFound)
}

func TestVerifyCycleFails(t *testing.T) {
	v := Verify(proposal(`{"a":{"dependencies":["b"]},"b":{"dependencies":["a"]}}`, "Link a and b"))

	assert.False(t, v.Pass)
	assert.True(t, v.CycleFound)
}

func TestVerifyMalformedASTFails(t *testing.T) {
	v := Verify(proposal(`{"unclosed":`, "some text"))

	assert.Equal(t, contracts.FailVerdict(0, false, false), v)
}

func TestVerifyEmptyASTAndText(t *testing.T) {
	v := Verify(proposal(`{}`, ""))

	assert.True(t, v.Pass)
	assert.False(t, v.ParadoxFound)
	assert.False(t, v.CycleFound)
	assert.Greater(t, v.ComplexityScore, uint64(0))
}

func TestVerifyDeterministic(t *testing.T) {
	p := proposal(`{"b":2,"a":1}`, "Adjust parameters")
	assert.Equal(t, Verify(p), Verify(p))
}

func TestRecomputeMatchesVerify(t *testing.T) {
	p := proposal(`{"action":"transfer","amount":100}`, "Transfer 100 tokens to the community fund")
	payload, err := canonicalize.ForProposal(p)
	require.NoError(t, err)

	assert.Equal(t, Verify(p), Recompute(payload.Bytes))
}

func TestComplexityDeterministic(t *testing.T) {
	payload := []byte(`{"action":"transfer","amount":100}.transfer 100 tokens to community fund`)
	assert.Equal(t, Complexity(payload), Complexity(payload))
}

func TestComplexityRepetitiveCompressesWell(t *testing.T) {
	repetitive := make([]byte, 0, 900)
	for i := 0; i < 100; i++ {
		repetitive = append(repetitive, []byte("transfer ")...)
	}
	assert.Less(t, Complexity(repetitive), uint64(100))
}

func TestComplexityIncompressibleScoresHigh(t *testing.T) {
	random := make([]byte, 20000)
	state := uint64(0x9e3779b97f4a7c15)
	for i := range random {
		state = state*6364136223846793005 + 1442695040888963407
		random[i] = byte(state >> 33)
	}
	assert.Greater(t, Complexity(random), contracts.MaxComplexity)
}

func TestComplexityEmptyPayload(t *testing.T) {
	score := Complexity(nil)
	assert.Greater(t, score, uint64(0))
	assert.Less(t, score, uint64(50))
}

func TestCheckComplexityBoundary(t *testing.T) {
	assert.True(t, CheckComplexity(contracts.MaxComplexity))
	assert.True(t, CheckComplexity(contracts.MaxComplexity-1))
	assert.False(t, CheckComplexity(contracts.MaxComplexity+1))
}
