// Package store persists governance proposals and slash events in SQLite
// so a restarted daemon can reload terminal state. The in-memory state
// machine stays authoritative; the store is write-behind.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"

	_ "modernc.org/sqlite"
)

// Store wraps the governance database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS proposals (
		id TEXT PRIMARY KEY,
		proposer TEXT NOT NULL,
		layer TEXT NOT NULL,
		phase TEXT NOT NULL,
		rejection_reason TEXT NOT NULL DEFAULT '',
		execution_tx TEXT NOT NULL DEFAULT '',
		envelope JSON NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS slash_events (
		id TEXT PRIMARY KEY,
		oracle TEXT NOT NULL,
		type TEXT NOT NULL,
		amount_drops TEXT NOT NULL,
		proposal_id TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL,
		executed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_proposals_phase ON proposals(phase);
	CREATE INDEX IF NOT EXISTS idx_slash_events_oracle ON slash_events(oracle);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// SaveProposal upserts one governance proposal envelope.
func (s *Store) SaveProposal(ctx context.Context, gp contracts.GovernanceProposal) error {
	envelope, err := json.Marshal(gp)
	if err != nil {
		return fmt.Errorf("store: marshal proposal %s: %w", gp.Proposal.ID, err)
	}

	query := `INSERT INTO proposals (id, proposer, layer, phase, rejection_reason, execution_tx, envelope, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			rejection_reason = excluded.rejection_reason,
			execution_tx = excluded.execution_tx,
			envelope = excluded.envelope,
			updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query,
		gp.Proposal.ID, gp.Proposal.Proposer, string(gp.Proposal.Layer), string(gp.Phase),
		gp.RejectionReason, gp.ExecutionTx, string(envelope), gp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: save proposal %s: %w", gp.Proposal.ID, err)
	}
	return nil
}

// GetProposal loads one envelope by id.
func (s *Store) GetProposal(ctx context.Context, id string) (*contracts.GovernanceProposal, error) {
	var envelope string
	err := s.db.QueryRowContext(ctx, `SELECT envelope FROM proposals WHERE id = ?`, id).Scan(&envelope)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: proposal %s not found", contracts.ErrValidation, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get proposal %s: %w", id, err)
	}

	var gp contracts.GovernanceProposal
	if err := json.Unmarshal([]byte(envelope), &gp); err != nil {
		return nil, fmt.Errorf("store: decode proposal %s: %w", id, err)
	}
	return &gp, nil
}

// ListProposals loads every envelope ordered by update time descending.
func (s *Store) ListProposals(ctx context.Context, limit int) ([]contracts.GovernanceProposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT envelope FROM proposals ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list proposals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []contracts.GovernanceProposal
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, err
		}
		var gp contracts.GovernanceProposal
		if err := json.Unmarshal([]byte(envelope), &gp); err != nil {
			return nil, err
		}
		out = append(out, gp)
	}
	return out, rows.Err()
}

// SaveSlashEvent appends one slash event. Events are immutable; a duplicate
// id is rejected.
func (s *Store) SaveSlashEvent(ctx context.Context, ev contracts.SlashEvent) error {
	query := `INSERT INTO slash_events (id, oracle, type, amount_drops, proposal_id, timestamp, executed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	executed := 0
	if ev.Executed {
		executed = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Oracle, string(ev.Type), ev.Amount.Dec(), ev.ProposalID, ev.Timestamp, executed)
	if err != nil {
		return fmt.Errorf("store: save slash event %s: %w", ev.ID, err)
	}
	return nil
}

// SlashEventsFor loads an oracle's slash history, oldest first.
func (s *Store) SlashEventsFor(ctx context.Context, oracle string) ([]contracts.SlashEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, oracle, type, amount_drops, proposal_id, timestamp, executed
		 FROM slash_events WHERE oracle = ? ORDER BY timestamp ASC`, oracle)
	if err != nil {
		return nil, fmt.Errorf("store: slash events for %s: %w", oracle, err)
	}
	defer func() { _ = rows.Close() }()

	var out []contracts.SlashEvent
	for rows.Next() {
		var (
			ev       contracts.SlashEvent
			typ      string
			amount   string
			executed int
		)
		if err := rows.Scan(&ev.ID, &ev.Oracle, &typ, &amount, &ev.ProposalID, &ev.Timestamp, &executed); err != nil {
			return nil, err
		}
		ev.Type = contracts.SlashType(typ)
		ev.Executed = executed == 1
		ev.Amount, err = uint256.FromDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("store: bad amount %q for event %s: %w", amount, ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
