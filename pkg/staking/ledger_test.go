package staking

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/registry"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1_700_000_000_000) }
}

// harness wires a registry and staking ledger with one funded oracle per
// address.
func harness(t *testing.T, addresses ...string) (*registry.Registry, *Ledger) {
	t.Helper()
	reg := registry.New(nil).WithSetSize(len(addresses))
	led := NewLedger(reg, DefaultRates(), nil).WithClock(fixedClock())
	for i, addr := range addresses {
		require.NoError(t, reg.Register(addr, contracts.OracleBond(), uint64(i+1)))
		require.NoError(t, led.RecordDeposit(addr, contracts.OracleBond()))
	}
	return reg, led
}

func TestSlashNonRevealTakes15Percent(t *testing.T) {
	reg, led := harness(t, "rA")

	ev, err := led.SlashNonReveal("rA", "prop-1")
	require.NoError(t, err)

	// 15% of 100,000,000,000.
	assert.Equal(t, "15000000000", ev.Amount.Dec())
	assert.Equal(t, contracts.SlashNonReveal, ev.Type)
	assert.True(t, ev.Executed)
	assert.NotEmpty(t, ev.ID)

	op, err := reg.Operator("rA")
	require.NoError(t, err)
	assert.Equal(t, "85000000000", op.Bond.Dec())
	assert.Equal(t, "15000000000", led.Treasury().Dec())

	require.NoError(t, led.CheckConservation())
}

func TestSlashRateAppliesToCurrentBond(t *testing.T) {
	reg, led := harness(t, "rA")

	_, err := led.SlashNonReveal("rA", "prop-1")
	require.NoError(t, err)
	ev, err := led.SlashNonReveal("rA", "prop-2")
	require.NoError(t, err)

	// Second slash is 15% of the reduced 85,000,000,000.
	assert.Equal(t, "12750000000", ev.Amount.Dec())

	op, err := reg.Operator("rA")
	require.NoError(t, err)
	assert.Equal(t, "72250000000", op.Bond.Dec())
	require.NoError(t, led.CheckConservation())
}

func TestSlashFraudForfeitsEverythingAndEjects(t *testing.T) {
	reg, led := harness(t, "rBad")

	ev, err := led.SlashFraud("rBad", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, contracts.OracleBondDrops, ev.Amount.Dec())

	op, err := reg.Operator("rBad")
	require.NoError(t, err)
	assert.Equal(t, contracts.OracleEjected, op.Status)
	assert.True(t, op.Bond.IsZero())
	assert.Equal(t, uint64(1), op.Metrics.FraudProofs)

	assert.Equal(t, contracts.OracleBondDrops, led.Treasury().Dec())
	require.NoError(t, led.CheckConservation())

	// A second slash on the ejected operator is rejected.
	_, err = led.SlashNonReveal("rBad", "prop-2")
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestAutoEjectPastHalfOriginalBond(t *testing.T) {
	reg, led := harness(t, "rA")

	// 15% compounding of the current bond: after 5 slashes cumulative
	// penalties pass 50% of the original deposit
	// (15 + 12.75 + 10.84 + 9.21 + 7.83 = 55.63).
	for i := 0; i < 5; i++ {
		_, err := led.SlashNonReveal("rA", "prop")
		require.NoError(t, err)
	}

	op, err := reg.Operator("rA")
	require.NoError(t, err)
	assert.Equal(t, contracts.OracleEjected, op.Status)
	assert.True(t, op.Bond.IsZero())
	require.NoError(t, led.CheckConservation())
}

func TestSlashInactivityRequiresThresholdAndOncePerEpoch(t *testing.T) {
	reg, led := harness(t, "rA")

	// Below threshold.
	_, err := led.SlashInactivity("rA", 1)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	for i := 0; i < contracts.InactivityThreshold; i++ {
		require.NoError(t, reg.RecordParticipation("rA", false))
	}

	ev, err := led.SlashInactivity("rA", 1)
	require.NoError(t, err)
	// 5% of 100,000,000,000.
	assert.Equal(t, "5000000000", ev.Amount.Dec())

	// Cooldown: once per epoch.
	_, err = led.SlashInactivity("rA", 1)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	// Next epoch is allowed again.
	_, err = led.SlashInactivity("rA", 2)
	require.NoError(t, err)
	require.NoError(t, led.CheckConservation())
}

func TestSlashHistoryIsHashChained(t *testing.T) {
	_, led := harness(t, "rA")
	_, err := led.SlashNonReveal("rA", "prop-1")
	require.NoError(t, err)
	_, err = led.SlashNonReveal("rA", "prop-2")
	require.NoError(t, err)

	ok, msg := led.History().Verify()
	assert.True(t, ok, msg)
	assert.Equal(t, 2, led.History().Length())
	assert.Len(t, led.Events(), 2)
}

func TestRecordReleaseConservation(t *testing.T) {
	reg, led := harness(t, "rA")

	require.NoError(t, reg.InitiateUnbond("rA"))

	op, err := reg.Operator("rA")
	require.NoError(t, err)
	require.NoError(t, led.RecordRelease("rA", op.Bond))

	// The registry record still carries the bond until CompleteUnbond; for
	// conservation the released amount must offset it going to zero.
	require.NoError(t, reg.SetBond("rA", uint256.NewInt(0)))
	require.NoError(t, led.CheckConservation())
}
