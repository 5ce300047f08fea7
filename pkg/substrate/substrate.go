// Package substrate defines the ledger-substrate boundary the core consumes:
// ledger index and hash reads, memo submission, and escrow primitives. The
// core trusts the substrate's validated-ledger signal and never re-checks
// finality. An in-memory fake backs tests and the daemon's dry mode.
package substrate

import (
	"context"

	"github.com/holiman/uint256"
)

// SubmitResult reports a submitted memo transaction.
type SubmitResult struct {
	TxHash      string `json:"tx_hash"`
	LedgerIndex uint64 `json:"ledger_index"`
	Validated   bool   `json:"validated"`
}

// Ledger is the substrate interface the core calls. All methods take a
// context because the substrate is the one genuinely remote collaborator.
type Ledger interface {
	// CurrentLedgerIndex returns the latest validated ledger index.
	CurrentLedgerIndex(ctx context.Context) (uint64, error)

	// SubmitMemo publishes a typed JSON payload as a memo transaction.
	SubmitMemo(ctx context.Context, destination, memoType string, payload []byte) (SubmitResult, error)

	// CreateEscrow locks amount until finishAfter (seconds since epoch) and
	// returns the escrow sequence.
	CreateEscrow(ctx context.Context, owner string, amount *uint256.Int, finishAfter uint64) (uint64, error)

	// FinishEscrow releases a matured escrow.
	FinishEscrow(ctx context.Context, owner string, seq uint64) error

	// CancelEscrow voids an escrow before it matures.
	CancelEscrow(ctx context.Context, owner string, seq uint64) error

	// LedgerHash returns the 32-byte hash of a validated ledger, used for
	// jury selection seeding.
	LedgerHash(ctx context.Context, index uint64) ([32]byte, error)
}
