//go:build property
// +build property

// Property-based tests for determinism of the verification pipeline.
package channela

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
)

// TestCanonicalizationStability verifies that surrounding whitespace and
// trailing punctuation on the text never change the hash, and that
// canonicalizing the same input twice yields identical bytes.
func TestCanonicalizationStability(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("hash is independent of surrounding whitespace and trailing punctuation", prop.ForAll(
		func(words []string) bool {
			text := ""
			for _, w := range words {
				text += w + " "
			}
			p1, err1 := canonicalize.Canonicalize(`{}`, text)
			p2, err2 := canonicalize.Canonicalize(`{}`, "  "+text+"!!!")
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return p1.Hash == p2.Hash
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("repeated canonicalization is byte-identical", prop.ForAll(
		func(key, value, text string) bool {
			ast := `{"` + key + `":"` + value + `"}`
			p1, err1 := canonicalize.Canonicalize(ast, text)
			p2, err2 := canonicalize.Canonicalize(ast, text)
			if err1 != nil || err2 != nil {
				return (err1 != nil) == (err2 != nil)
			}
			return string(p1.Bytes) == string(p2.Bytes) && p1.Hash == p2.Hash
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestVerdictReproducibility verifies verify is a pure function.
// Property: Recompute(bytes) == Recompute(bytes) for any canonical bytes.
func TestVerdictReproducibility(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("recomputation yields identical verdicts", prop.ForAll(
		func(text string) bool {
			p, err := canonicalize.Canonicalize(`{"a":1}`, text)
			if err != nil {
				return true
			}
			return Recompute(p.Bytes) == Recompute(p.Bytes)
		},
		gen.AnyString(),
	))

	properties.Property("complexity is deterministic", prop.ForAll(
		func(payload []byte) bool {
			return Complexity(payload) == Complexity(payload)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
