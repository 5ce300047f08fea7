// Package canonicalize reduces a proposal to its byte-exact canonical form.
// The canonical payload is the RFC 8785 serialization of the logic AST, a
// single 0x2E separator, and the normalized description text; its SHA-256
// is the proposal identifier. Two proposals differing only in key order,
// casing, whitespace runs, or punctuation canonicalize identically.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// ErrMalformedAST marks a logic AST that does not parse as JSON. Fatal to
// verification: Channel A reports pass=false with zeroed sub-fields.
var ErrMalformedAST = errors.New("malformed logic AST")

// Payload is the canonical pair (bytes, hash).
type Payload struct {
	Bytes []byte
	Hash  string // lowercase hex SHA-256, the proposal id
}

// Canonicalize produces the canonical payload of a proposal's machine logic
// and description text.
func Canonicalize(logicAST, text string) (*Payload, error) {
	if !json.Valid([]byte(logicAST)) {
		return nil, fmt.Errorf("%w: logic_ast is not valid JSON", ErrMalformedAST)
	}

	astCanonical, err := jcs.Transform([]byte(logicAST))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAST, err)
	}

	normalized := NormalizeText(text)

	bytes := make([]byte, 0, len(astCanonical)+1+len(normalized))
	bytes = append(bytes, astCanonical...)
	bytes = append(bytes, '.')
	bytes = append(bytes, normalized...)

	return &Payload{Bytes: bytes, Hash: HashBytes(bytes)}, nil
}

// ForProposal canonicalizes a proposal and returns the payload whose hash is
// the proposal id.
func ForProposal(p contracts.Proposal) (*Payload, error) {
	return Canonicalize(p.LogicAST, p.Text)
}

// CanonicalJSON marshals v and re-serializes it in RFC 8785 canonical form
// (sorted keys, ES6 shortest-round-trip numbers, no HTML escaping).
func CanonicalJSON(v interface{}) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal failed: %w", err)
	}
	out, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: transform failed: %w", err)
	}
	return out, nil
}

// CanonicalHash returns the SHA-256 hex digest of the canonical JSON
// representation of v.
func CanonicalHash(v interface{}) (string, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes computes the SHA-256 hash of raw bytes as a lowercase hex string.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SplitPayload separates canonical bytes back into the AST JSON and the
// normalized text. The separator is the last '.', which is unambiguous: the
// normalized text contains no punctuation.
func SplitPayload(bytes []byte) (astJSON, normalizedText []byte, err error) {
	idx := -1
	for i := len(bytes) - 1; i >= 0; i-- {
		if bytes[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("canonicalize: payload has no separator")
	}
	return bytes[:idx], bytes[idx+1:], nil
}
