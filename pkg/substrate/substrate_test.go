package substrate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

const hex64 = "ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12"

func TestMemorySubmitValidMemo(t *testing.T) {
	m := NewMemory(100)

	payload, err := json.Marshal(contracts.OracleCommitMemo{
		ProposalID:     hex64,
		CommitmentHash: hex64,
		Timestamp:      1_700_000_000,
	})
	require.NoError(t, err)

	result, err := m.SubmitMemo(context.Background(), "rDAO", string(contracts.MemoOracleCommit), payload)
	require.NoError(t, err)
	assert.True(t, result.Validated)
	assert.Equal(t, uint64(100), result.LedgerIndex)
	assert.Len(t, m.Memos(), 1)
}

func TestMemoValidatorRejectsBadPayloads(t *testing.T) {
	v := NewMemoValidator()

	// Malformed hash.
	bad, _ := json.Marshal(map[string]interface{}{
		"proposal_id": "not-hex", "commitment_hash": hex64, "timestamp": 1,
	})
	err := v.Validate(string(contracts.MemoOracleCommit), bad)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	// Unknown memo type.
	err = v.Validate("BOGUS_TYPE", []byte(`{}`))
	assert.ErrorIs(t, err, contracts.ErrValidation)

	// Not JSON at all.
	err = v.Validate(string(contracts.MemoOracleCommit), []byte(`not json`))
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestMemoValidatorVotePayload(t *testing.T) {
	v := NewMemoValidator()

	good, _ := json.Marshal(contracts.VoteMemo{
		ProposalID: hex64, Vote: "Yes", Power: "1000000", Timestamp: 1,
	})
	assert.NoError(t, v.Validate(string(contracts.MemoVote), good))

	bad, _ := json.Marshal(contracts.VoteMemo{
		ProposalID: hex64, Vote: "Maybe", Power: "1000000", Timestamp: 1,
	})
	assert.ErrorIs(t, v.Validate(string(contracts.MemoVote), bad), contracts.ErrValidation)
}

func TestMemoValidatorStateAnchorPayload(t *testing.T) {
	v := NewMemoValidator()

	good, _ := json.Marshal(contracts.StateAnchorMemo{
		Type: "STATE_ANCHOR", Version: 1,
		Root: hex64, ProposalsRoot: hex64, OraclesRoot: hex64,
		ProposalCount: 3, OracleCount: 5, Timestamp: 1,
	})
	assert.NoError(t, v.Validate(string(contracts.MemoStateAnchor), good))
}

func TestMemoryLedgerAdvance(t *testing.T) {
	m := NewMemory(10)
	idx, err := m.CurrentLedgerIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), idx)

	m.AdvanceLedger(5)
	idx, _ = m.CurrentLedgerIndex(context.Background())
	assert.Equal(t, uint64(15), idx)
}

func TestMemoryEscrowLifecycle(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()

	seq, err := m.CreateEscrow(ctx, "rA", uint256.NewInt(1000), 99)
	require.NoError(t, err)

	// Wrong owner.
	assert.Error(t, m.FinishEscrow(ctx, "rB", seq))

	require.NoError(t, m.FinishEscrow(ctx, "rA", seq))
	// Double settle.
	assert.Error(t, m.FinishEscrow(ctx, "rA", seq))
	assert.Error(t, m.CancelEscrow(ctx, "rA", seq))

	// Zero amount.
	_, err = m.CreateEscrow(ctx, "rA", uint256.NewInt(0), 99)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestMemoryLedgerHashDeterministic(t *testing.T) {
	m := NewMemory(1)
	h1, err := m.LedgerHash(context.Background(), 42)
	require.NoError(t, err)
	h2, err := m.LedgerHash(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, _ := m.LedgerHash(context.Background(), 43)
	assert.NotEqual(t, h1, h3)
}

func TestMemoryFailSubmissions(t *testing.T) {
	m := NewMemory(1)
	m.FailSubmissions(true)

	payload, _ := json.Marshal(contracts.OracleCommitMemo{
		ProposalID: hex64, CommitmentHash: hex64, Timestamp: 1,
	})
	_, err := m.SubmitMemo(context.Background(), "rDAO", string(contracts.MemoOracleCommit), payload)
	assert.Error(t, err)
}
