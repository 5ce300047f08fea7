package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1_700_000_000_000) }
}

func TestAppendAndGet(t *testing.T) {
	l := New(TypeSlash).WithClock(fixedClock())

	seq, err := l.Append("slash_executed", "rOracle1", map[string]interface{}{"amount": "100"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	entry, err := l.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "slash_executed", entry.EntryType)
	assert.Equal(t, "rOracle1", entry.Actor)
	assert.Equal(t, "genesis", entry.PrevHash)
}

func TestChainLinksEntries(t *testing.T) {
	l := New(TypeGovernance).WithClock(fixedClock())

	_, err := l.Append("submitted", "rA", map[string]interface{}{"id": "p1"})
	require.NoError(t, err)
	first := l.Head()

	_, err = l.Append("routed", "rA", map[string]interface{}{"id": "p1"})
	require.NoError(t, err)

	entry, err := l.Get(2)
	require.NoError(t, err)
	assert.Equal(t, first, entry.PrevHash)
	assert.Equal(t, l.Head(), entry.ContentHash)
}

func TestVerifyDetectsTampering(t *testing.T) {
	l := New(TypeSlash).WithClock(fixedClock())
	for i := 0; i < 5; i++ {
		_, err := l.Append("slash_executed", "rX", map[string]interface{}{"n": i})
		require.NoError(t, err)
	}

	ok, msg := l.Verify()
	assert.True(t, ok, msg)

	// Mutate an entry behind the API's back.
	l.entries[2].Data["n"] = 99
	ok, _ = l.Verify()
	assert.False(t, ok)
}

func TestGetOutOfRange(t *testing.T) {
	l := New(TypeSlash)
	_, err := l.Get(0)
	assert.Error(t, err)
	_, err = l.Get(1)
	assert.Error(t, err)
}
