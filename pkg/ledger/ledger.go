// Package ledger — immutable append-only event ledgers.
//
// Two ledgers back the governance core: the slash ledger (every economic
// penalty) and the governance ledger (every lifecycle transition). Each
// entry is hash-chained to its predecessor; there are no deletions or
// mutations.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Type categorizes the ledger.
type Type string

const (
	TypeSlash      Type = "SLASH"
	TypeGovernance Type = "GOVERNANCE"
)

// Entry is an immutable, hash-chained entry.
type Entry struct {
	Sequence    uint64                 `json:"sequence"`
	EntryType   string                 `json:"entry_type"`
	ContentHash string                 `json:"content_hash"`
	PrevHash    string                 `json:"prev_hash"`
	Timestamp   time.Time              `json:"timestamp"`
	Actor       string                 `json:"actor,omitempty"`
	Data        map[string]interface{} `json:"data"`
}

// Ledger is an append-only, hash-chained log.
type Ledger struct {
	mu         sync.RWMutex
	ledgerType Type
	entries    []Entry
	headHash   string
	clock      func() time.Time
}

// New creates an empty ledger of the given type.
func New(t Type) *Ledger {
	return &Ledger{
		ledgerType: t,
		entries:    make([]Entry, 0),
		headHash:   "genesis",
		clock:      time.Now,
	}
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Append adds an entry and returns its sequence number.
func (l *Ledger) Append(entryType, actor string, data map[string]interface{}) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := uint64(len(l.entries)) + 1
	contentHash, err := entryHash(seq, entryType, data, l.headHash)
	if err != nil {
		return 0, fmt.Errorf("ledger: marshal entry: %w", err)
	}

	l.entries = append(l.entries, Entry{
		Sequence:    seq,
		EntryType:   entryType,
		ContentHash: contentHash,
		PrevHash:    l.headHash,
		Timestamp:   l.clock(),
		Actor:       actor,
		Data:        data,
	})
	l.headHash = contentHash
	return seq, nil
}

// Get retrieves an entry by sequence number.
func (l *Ledger) Get(seq uint64) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq == 0 || seq > uint64(len(l.entries)) {
		return nil, fmt.Errorf("ledger: entry %d not found", seq)
	}
	entry := l.entries[seq-1]
	return &entry, nil
}

// Entries returns a copy of the full chain.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Head returns the current head hash.
func (l *Ledger) Head() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.headHash
}

// Length returns the number of entries.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Verify checks the integrity of the entire chain.
func (l *Ledger) Verify() (bool, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prevHash := "genesis"
	for i, entry := range l.entries {
		if entry.PrevHash != prevHash {
			return false, fmt.Sprintf("chain broken at entry %d: expected prev %s, got %s", i+1, prevHash, entry.PrevHash)
		}
		computed, err := entryHash(entry.Sequence, entry.EntryType, entry.Data, entry.PrevHash)
		if err != nil {
			return false, fmt.Sprintf("failed to marshal entry %d", i+1)
		}
		if computed != entry.ContentHash {
			return false, fmt.Sprintf("hash mismatch at entry %d", i+1)
		}
		prevHash = entry.ContentHash
	}
	return true, "chain verified"
}

// LedgerType returns the ledger type.
func (l *Ledger) LedgerType() Type {
	return l.ledgerType
}

func entryHash(seq uint64, entryType string, data map[string]interface{}, prevHash string) (string, error) {
	hashInput := struct {
		Seq      uint64                 `json:"seq"`
		Type     string                 `json:"type"`
		Data     map[string]interface{} `json:"data"`
		PrevHash string                 `json:"prev"`
	}{seq, entryType, data, prevHash}

	raw, err := json.Marshal(hashInput)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(h[:]), nil
}
