package substrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// MemoRecord is one memo accepted by the in-memory substrate.
type MemoRecord struct {
	Destination string
	MemoType    string
	Payload     []byte
	Result      SubmitResult
}

// escrow is one in-memory escrow.
type escrow struct {
	owner       string
	amount      *uint256.Int
	finishAfter uint64
	finished    bool
	cancelled   bool
}

// Memory is an in-process substrate fake. The ledger index advances
// explicitly via AdvanceLedger, keeping deadline tests deterministic.
type Memory struct {
	mu          sync.Mutex
	ledgerIndex uint64
	memos       []MemoRecord
	escrows     map[uint64]*escrow
	nextSeq     uint64
	validator   *MemoValidator
	failSubmits bool
}

// NewMemory creates an in-memory substrate starting at the given index.
func NewMemory(startIndex uint64) *Memory {
	return &Memory{
		ledgerIndex: startIndex,
		escrows:     make(map[uint64]*escrow),
		nextSeq:     1,
		validator:   NewMemoValidator(),
	}
}

// FailSubmissions makes every SubmitMemo return an error, for exercising
// the absorb-and-continue path.
func (m *Memory) FailSubmissions(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubmits = fail
}

// AdvanceLedger moves the validated ledger index forward.
func (m *Memory) AdvanceLedger(by uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgerIndex += by
	return m.ledgerIndex
}

func (m *Memory) CurrentLedgerIndex(context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerIndex, nil
}

func (m *Memory) SubmitMemo(_ context.Context, destination, memoType string, payload []byte) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSubmits {
		return SubmitResult{}, fmt.Errorf("substrate: submission unavailable")
	}
	if err := m.validator.Validate(memoType, payload); err != nil {
		return SubmitResult{}, err
	}

	h := sha256.Sum256(append([]byte(memoType+":"+destination+":"), payload...))
	result := SubmitResult{
		TxHash:      hex.EncodeToString(h[:]),
		LedgerIndex: m.ledgerIndex,
		Validated:   true,
	}
	m.memos = append(m.memos, MemoRecord{
		Destination: destination,
		MemoType:    memoType,
		Payload:     append([]byte(nil), payload...),
		Result:      result,
	})
	return result, nil
}

func (m *Memory) CreateEscrow(_ context.Context, owner string, amount *uint256.Int, finishAfter uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return 0, fmt.Errorf("%w: zero escrow amount", contracts.ErrValidation)
	}
	seq := m.nextSeq
	m.nextSeq++
	m.escrows[seq] = &escrow{owner: owner, amount: amount.Clone(), finishAfter: finishAfter}
	return seq, nil
}

func (m *Memory) FinishEscrow(_ context.Context, owner string, seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.escrows[seq]
	if !ok || e.owner != owner {
		return fmt.Errorf("%w: unknown escrow %d for %s", contracts.ErrValidation, seq, owner)
	}
	if e.finished || e.cancelled {
		return fmt.Errorf("%w: escrow %d already settled", contracts.ErrValidation, seq)
	}
	e.finished = true
	return nil
}

func (m *Memory) CancelEscrow(_ context.Context, owner string, seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.escrows[seq]
	if !ok || e.owner != owner {
		return fmt.Errorf("%w: unknown escrow %d for %s", contracts.ErrValidation, seq, owner)
	}
	if e.finished || e.cancelled {
		return fmt.Errorf("%w: escrow %d already settled", contracts.ErrValidation, seq)
	}
	e.cancelled = true
	return nil
}

func (m *Memory) LedgerHash(_ context.Context, index uint64) ([32]byte, error) {
	// Deterministic pseudo-hash so jury selection is reproducible in tests.
	return sha256.Sum256([]byte(fmt.Sprintf("ledger-%d", index))), nil
}

// Memos returns a copy of every accepted memo.
func (m *Memory) Memos() []MemoRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemoRecord, len(m.memos))
	copy(out, m.memos)
	return out
}
