package substrate

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Memo payload schemas, bit-stable per the wire contract. Validation runs
// at the substrate boundary so a malformed payload never leaves the node.
var memoSchemas = map[string]string{
	string(contracts.MemoOracleCommit): `{
		"type": "object",
		"required": ["proposal_id", "commitment_hash", "timestamp"],
		"properties": {
			"proposal_id":     {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"commitment_hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"timestamp":       {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoOracleReveal): `{
		"type": "object",
		"required": ["proposal_id", "verdict", "nonce", "timestamp"],
		"properties": {
			"proposal_id": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"verdict":     {"type": "object"},
			"nonce":       {"type": "string", "pattern": "^[0-9a-f]{1,64}$"},
			"timestamp":   {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoVote): `{
		"type": "object",
		"required": ["proposal_id", "vote", "power", "timestamp"],
		"properties": {
			"proposal_id": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"vote":        {"type": "string", "enum": ["Yes", "No", "Abstain"]},
			"power":       {"type": "string", "pattern": "^[0-9]+$"},
			"timestamp":   {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoProposal): `{
		"type": "object",
		"required": ["id", "logic_ast", "text", "layer"],
		"properties": {
			"id":        {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"logic_ast": {"type": "string"},
			"text":      {"type": "string"},
			"layer":     {"type": "string", "enum": ["L0-Immutable", "L1-Constitutional", "L2-Operational", "L3-Execution"]}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoStateAnchor): `{
		"type": "object",
		"required": ["type", "version", "root", "proposals_root", "oracles_root", "proposal_count", "oracle_count", "timestamp"],
		"properties": {
			"type":           {"const": "STATE_ANCHOR"},
			"version":        {"const": 1},
			"root":           {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"proposals_root": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"oracles_root":   {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"proposal_count": {"type": "integer", "minimum": 0},
			"oracle_count":   {"type": "integer", "minimum": 0},
			"timestamp":      {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoOracleRegister): `{
		"type": "object",
		"required": ["address", "bond_drops", "escrow_seq", "timestamp"],
		"properties": {
			"address":    {"type": "string", "minLength": 1},
			"bond_drops": {"type": "string", "pattern": "^[0-9]+$"},
			"escrow_seq": {"type": "integer", "minimum": 0},
			"timestamp":  {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	string(contracts.MemoFraudProof): `{
		"type": "object",
		"required": ["proposal_id", "claimed_verdict", "witness", "timestamp"],
		"properties": {
			"proposal_id":     {"type": "string", "pattern": "^[0-9a-f]{64}$"},
			"claimed_verdict": {"type": "object"},
			"witness":         {"type": "object"},
			"timestamp":       {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
}

// MemoValidator validates memo payloads against the wire schemas.
type MemoValidator struct {
	schemas map[string]*jsonschema.Schema
}

// NewMemoValidator compiles all memo schemas. Schema compilation failure is
// a programming error and panics at startup.
func NewMemoValidator() *MemoValidator {
	compiled := make(map[string]*jsonschema.Schema, len(memoSchemas))
	for memoType, schema := range memoSchemas {
		s, err := jsonschema.CompileString(memoType+".json", schema)
		if err != nil {
			panic(fmt.Sprintf("substrate: compile %s schema: %v", memoType, err))
		}
		compiled[memoType] = s
	}
	return &MemoValidator{schemas: compiled}
}

// Validate checks a payload against its memo type's schema.
func (v *MemoValidator) Validate(memoType string, payload []byte) error {
	schema, ok := v.schemas[memoType]
	if !ok {
		return fmt.Errorf("%w: unknown memo type %q", contracts.ErrValidation, memoType)
	}

	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("%w: memo payload is not JSON: %v", contracts.ErrValidation, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %s payload rejected: %v", contracts.ErrValidation, memoType, err)
	}
	return nil
}
