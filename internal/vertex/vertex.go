// Package vertex defines the DAG's node type and its content-addressed hash.
package vertex

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/model"
)

// Hash is the content-addressed identifier of a vertex.
type Hash [32]byte

// Vertex is a single node in a validator's DAG.
//
// Parents stores both strong and weak edges uniformly: a parent hash maps to
// the round at which that parent was created. Whether an edge is "strong"
// (parent round == Round-1) or "weak" (any earlier round) is always derived,
// never stored separately, exactly as spec.md §3 requires.
type Vertex struct {
	Owner   committee.NodePublicKey
	Round   model.Round
	Block   model.Block
	Parents map[Hash]model.Round
	Hash    Hash
}

// New builds a vertex and computes its content hash. Callers are expected to
// have already populated Parents with the round's strong edges; weak edges
// are added afterwards by the DAG store's SetWeakEdges.
func New(owner committee.NodePublicKey, round model.Round, block model.Block, parents map[Hash]model.Round) *Vertex {
	v := &Vertex{
		Owner:   owner,
		Round:   round,
		Block:   block,
		Parents: parents,
	}
	v.Hash = v.computeHash()
	return v
}

// Genesis returns the synthetic round-0 vertex for a committee public key.
func Genesis(owner committee.NodePublicKey) *Vertex {
	return New(owner, 0, model.Block{}, map[Hash]model.Round{})
}

// AddParent inserts a parent edge and refreshes the content hash.
func (v *Vertex) AddParent(h Hash, r model.Round) {
	v.Parents[h] = r
	v.Hash = v.computeHash()
}

// IsStrongParent reports whether the given parent round is a strong edge of v.
func (v *Vertex) IsStrongParent(parentRound model.Round) bool {
	return v.Round >= 1 && parentRound == v.Round-1
}

// StrongParentCount counts how many of v's parents are strong edges.
func (v *Vertex) StrongParentCount() int {
	n := 0
	for _, r := range v.Parents {
		if v.IsStrongParent(r) {
			n++
		}
	}
	return n
}

// computeHash deterministically hashes (owner, round, block, parents); parent
// hashes are sorted first so map iteration order never affects the result.
func (v *Vertex) computeHash() Hash {
	h := sha256.New()
	h.Write(v.Owner[:])

	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], uint64(v.Round))
	h.Write(roundBuf[:])

	for _, tx := range v.Block.Transactions {
		h.Write(tx)
		h.Write([]byte{0})
	}

	parentHashes := make([]Hash, 0, len(v.Parents))
	for ph := range v.Parents {
		parentHashes = append(parentHashes, ph)
	}
	sort.Slice(parentHashes, func(i, j int) bool {
		return lessHash(parentHashes[i], parentHashes[j])
	})
	for _, ph := range parentHashes {
		h.Write(ph[:])
		var pr [8]byte
		binary.BigEndian.PutUint64(pr[:], uint64(v.Parents[ph]))
		h.Write(pr[:])
	}

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func lessHash(a, b Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
