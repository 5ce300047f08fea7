// Package anchor builds STATE_ANCHOR memos: merkle roots over the canonical
// encodings of governance proposals and oracle operators, so external
// observers can verify inclusion of any record against the anchored root.
package anchor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/canonicalize"
)

const (
	leafDomain = "dao:anchor:leaf:v1"
	nodeDomain = "dao:anchor:node:v1"
)

// Leaf is one merkle leaf: a keyed record and its hash.
type Leaf struct {
	Key      string
	LeafHash string
}

// Tree is a merkle tree over key-sorted canonical records.
type Tree struct {
	Leaves []Leaf
	Root   string
	levels [][]string
}

// emptyRoot anchors an empty record set distinctly from "no anchor".
var emptyRoot = sha256Hex([]byte(leafDomain + ":empty"))

// BuildTree constructs a merkle tree from key -> record. Records are
// canonicalized (RFC 8785) before hashing; keys are sorted so the root is a
// pure function of the record set.
func BuildTree(records map[string]interface{}) (*Tree, error) {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	leaves := make([]Leaf, len(keys))
	for i, key := range keys {
		canonical, err := canonicalize.CanonicalJSON(records[key])
		if err != nil {
			return nil, err
		}
		leaves[i] = Leaf{Key: key, LeafHash: sha256Hex(leafBytes(key, canonical))}
	}

	tree := &Tree{Leaves: leaves}
	if len(leaves) == 0 {
		tree.Root = emptyRoot
		return tree, nil
	}

	level := make([]string, len(leaves))
	for i, l := range leaves {
		level[i] = l.LeafHash
	}
	for len(level) > 1 {
		tree.levels = append(tree.levels, level)
		level = nextLevel(level)
	}
	tree.levels = append(tree.levels, level)
	tree.Root = level[0]
	return tree, nil
}

// Proof is an inclusion path from a leaf to the root.
type Proof struct {
	Key      string   `json:"key"`
	LeafHash string   `json:"leaf_hash"`
	Path     []string `json:"path"`  // sibling hashes, leaf level first
	Sides    []bool   `json:"sides"` // true when the sibling is on the right
}

// GenerateProof produces the inclusion proof for one key.
func (t *Tree) GenerateProof(key string) (*Proof, bool) {
	idx := -1
	for i, l := range t.Leaves {
		if l.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	proof := &Proof{Key: key, LeafHash: t.Leaves[idx].LeafHash}
	pos := idx
	for _, level := range t.levels {
		if len(level) == 1 {
			break
		}
		padded := level
		if len(padded)%2 != 0 {
			padded = append(append([]string(nil), level...), level[len(level)-1])
		}
		sibling := pos ^ 1
		proof.Path = append(proof.Path, padded[sibling])
		proof.Sides = append(proof.Sides, sibling > pos)
		pos /= 2
	}
	return proof, true
}

// VerifyProof checks an inclusion proof against a root.
func VerifyProof(p Proof, root string) bool {
	current := p.LeafHash
	for i, sibling := range p.Path {
		if p.Sides[i] {
			current = nodeHash(current, sibling)
		} else {
			current = nodeHash(sibling, current)
		}
	}
	return current == root
}

func leafBytes(key string, canonical []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(leafDomain)
	buf.WriteByte(0)
	buf.WriteString(key)
	buf.WriteByte(0)
	buf.Write(canonical)
	return buf.Bytes()
}

func nextLevel(hashes []string) []string {
	count := len(hashes)
	if count%2 != 0 {
		hashes = append(append([]string(nil), hashes...), hashes[count-1])
		count++
	}
	next := make([]string, count/2)
	for i := 0; i < count; i += 2 {
		next[i/2] = nodeHash(hashes[i], hashes[i+1])
	}
	return next
}

func nodeHash(left, right string) string {
	var buf bytes.Buffer
	buf.WriteString(nodeDomain)
	buf.WriteByte(0)
	buf.Write(hexToBytes(left))
	buf.Write(hexToBytes(right))
	return sha256Hex(buf.Bytes())
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hexToBytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}
