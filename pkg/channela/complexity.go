// Package channela implements the deterministic verification pipeline:
// complexity bound, paradox detection, and cycle detection over the
// canonical payload. Verdicts are reproducible byte-for-byte; the pinned
// codec and regex semantics are load-bearing for fraud proofs.
package channela

import (
	"bytes"
	"math"

	"github.com/klauspost/compress/flate"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Complexity measures the information content of a canonical payload as the
// byte length of its DEFLATE stream (RFC 1951, level 9, default window, no
// preset dictionary). The codec is pinned to klauspost/compress; its output
// for a given input is the normative reference for fraud proofs.
func Complexity(payload []byte) uint64 {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return math.MaxUint64
	}
	if _, err := w.Write(payload); err != nil {
		return math.MaxUint64
	}
	if err := w.Close(); err != nil {
		return math.MaxUint64
	}
	return uint64(buf.Len())
}

// CheckComplexity reports whether a score is within the protocol ceiling.
func CheckComplexity(score uint64) bool {
	return score <= contracts.MaxComplexity
}
