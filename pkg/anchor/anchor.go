package anchor

import (
	"fmt"
	"time"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Build produces the STATE_ANCHOR memo for the current governance state:
// separate roots over proposals and oracle operators, plus a combined root
// binding both.
func Build(proposals []contracts.GovernanceProposal, oracles []contracts.OracleOperator, at time.Time) (contracts.StateAnchorMemo, error) {
	proposalRecords := make(map[string]interface{}, len(proposals))
	for _, p := range proposals {
		proposalRecords[p.Proposal.ID] = p
	}
	proposalTree, err := BuildTree(proposalRecords)
	if err != nil {
		return contracts.StateAnchorMemo{}, fmt.Errorf("anchor: proposals tree: %w", err)
	}

	oracleRecords := make(map[string]interface{}, len(oracles))
	for _, op := range oracles {
		oracleRecords[op.Address] = map[string]interface{}{
			"address":    op.Address,
			"bond_drops": op.Bond.Dec(),
			"status":     string(op.Status),
			"metrics":    op.Metrics,
		}
	}
	oracleTree, err := BuildTree(oracleRecords)
	if err != nil {
		return contracts.StateAnchorMemo{}, fmt.Errorf("anchor: oracles tree: %w", err)
	}

	combined, err := BuildTree(map[string]interface{}{
		"proposals_root": proposalTree.Root,
		"oracles_root":   oracleTree.Root,
	})
	if err != nil {
		return contracts.StateAnchorMemo{}, fmt.Errorf("anchor: combined tree: %w", err)
	}

	return contracts.StateAnchorMemo{
		Type:          string(contracts.MemoStateAnchor),
		Version:       1,
		Root:          combined.Root,
		ProposalsRoot: proposalTree.Root,
		OraclesRoot:   oracleTree.Root,
		ProposalCount: uint64(len(proposals)),
		OracleCount:   uint64(len(oracles)),
		Timestamp:     uint64(at.Unix()),
	}, nil
}
