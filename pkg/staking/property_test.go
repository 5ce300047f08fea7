//go:build property
// +build property

package staking

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/registry"
)

// TestBondConservationProperty verifies that any sequence of slashes leaves
// deposits fully accounted: bond + slashed + released = deposit for every
// oracle, and the treasury equals the slash total.
func TestBondConservationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("slash sequences conserve bonds", prop.ForAll(
		func(slashes []uint8) bool {
			reg := registry.New(nil).WithSetSize(3)
			led := NewLedger(reg, DefaultRates(), nil)

			oracles := []string{"rA", "rB", "rC"}
			for i, addr := range oracles {
				if err := reg.Register(addr, contracts.OracleBond(), uint64(i)); err != nil {
					return false
				}
				if err := led.RecordDeposit(addr, contracts.OracleBond()); err != nil {
					return false
				}
			}

			for i, pick := range slashes {
				addr := oracles[int(pick)%len(oracles)]
				// The pick's parity selects the slash type; errors
				// (ejected operators) are expected and must not break
				// conservation.
				if pick%2 == 0 {
					_, _ = led.SlashNonReveal(addr, fmt.Sprintf("prop-%d", i))
				} else {
					_, _ = led.SlashFraud(addr, fmt.Sprintf("prop-%d", i))
				}
				if err := led.CheckConservation(); err != nil {
					return false
				}
			}
			return led.CheckConservation() == nil
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
