// Package dagstore holds the round-indexed vertex table and the linkage
// predicates the ordering engine needs.
package dagstore

import (
	"sort"
	"sync"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/vertex"
)

// DAG is a round-indexed table of vertices, one slot per (round, owner).
//
// "Parents" are hashes plus the parent's round, so traversal is pure lookup
// against this table rather than a pointer graph: there is nothing to keep
// acyclic and no structural sharing concerns.
type DAG struct {
	mu              sync.RWMutex
	quorumThreshold int
	graph           map[model.Round]map[committee.NodePublicKey]*vertex.Vertex
	byHash          map[vertex.Hash]*vertex.Vertex
}

// New creates an empty DAG store for a committee with the given quorum threshold.
func New(quorumThreshold int) *DAG {
	return &DAG{
		quorumThreshold: quorumThreshold,
		graph:           make(map[model.Round]map[committee.NodePublicKey]*vertex.Vertex),
		byHash:          make(map[vertex.Hash]*vertex.Vertex),
	}
}

// InsertVertex places v at (v.Round, v.Owner). Re-inserting an already
// present (round, owner) pair is a no-op: the DAG is append-only.
func (d *DAG) InsertVertex(v *vertex.Vertex) {
	d.mu.Lock()
	defer d.mu.Unlock()

	owners, ok := d.graph[v.Round]
	if !ok {
		owners = make(map[committee.NodePublicKey]*vertex.Vertex)
		d.graph[v.Round] = owners
	}
	if _, exists := owners[v.Owner]; exists {
		return
	}
	owners[v.Owner] = v
	d.byHash[v.Hash] = v
}

// ContainsVertices reports whether every hash referenced in parents exists in
// the DAG at its declared round.
func (d *DAG) ContainsVertices(parents map[vertex.Hash]model.Round) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for h, r := range parents {
		owners, ok := d.graph[r]
		if !ok {
			return false
		}
		found := false
		for _, v := range owners {
			if v.Hash == h {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetVertices returns every vertex hash present at round r, mapped to r —
// suitable for use as a new vertex's strong parent set.
func (d *DAG) GetVertices(r model.Round) map[vertex.Hash]model.Round {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[vertex.Hash]model.Round)
	for _, v := range d.graph[r] {
		out[v.Hash] = r
	}
	return out
}

// IsQuorumReachedForRound reports whether round r holds at least
// quorumThreshold distinct vertices.
func (d *DAG) IsQuorumReachedForRound(r model.Round) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.graph[r]) >= d.quorumThreshold
}

// vertexAt looks up the unique vertex carrying the given hash, regardless of round.
func (d *DAG) vertexAt(h vertex.Hash) (*vertex.Vertex, bool) {
	v, ok := d.byHash[h]
	return v, ok
}

// IsLinked reports whether b appears in the transitive parent closure of a,
// following any edge (strong or weak).
func (d *DAG) IsLinked(a, b *vertex.Vertex) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.linked(a, b.Hash, false)
}

// IsStronglyLinked restricts the closure to strong edges only (round
// decreases by exactly one at each hop).
func (d *DAG) IsStronglyLinked(a, b *vertex.Vertex) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.linked(a, b.Hash, true)
}

func (d *DAG) linked(a *vertex.Vertex, targetHash vertex.Hash, strongOnly bool) bool {
	if a.Hash == targetHash {
		return true
	}
	visited := make(map[vertex.Hash]bool)
	var walk func(v *vertex.Vertex) bool
	walk = func(v *vertex.Vertex) bool {
		for ph, pr := range v.Parents {
			if strongOnly && !v.IsStrongParent(pr) {
				continue
			}
			if ph == targetHash {
				return true
			}
			if visited[ph] {
				continue
			}
			visited[ph] = true
			pv, ok := d.vertexAt(ph)
			if !ok {
				continue
			}
			if walk(pv) {
				return true
			}
		}
		return false
	}
	return walk(a)
}

// IsLinkedWithOthersInRound reports whether at least quorumThreshold distinct
// vertices at round r are linked to leader.
func (d *DAG) IsLinkedWithOthersInRound(leader *vertex.Vertex, r model.Round) bool {
	return len(d.GetValidVerticesVoters(leader, r)) >= d.quorumThreshold
}

// GetValidVerticesVoters returns the owners of the round-r vertices linked to leader.
func (d *DAG) GetValidVerticesVoters(leader *vertex.Vertex, r model.Round) []committee.NodePublicKey {
	d.mu.RLock()
	owners := d.graph[r]
	candidates := make([]*vertex.Vertex, 0, len(owners))
	keys := make([]committee.NodePublicKey, 0, len(owners))
	for owner, v := range owners {
		candidates = append(candidates, v)
		keys = append(keys, owner)
	}
	d.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	voters := make([]committee.NodePublicKey, 0, len(candidates))
	for _, owner := range keys {
		v := owners[owner]
		if d.IsLinked(v, leader) {
			voters = append(voters, owner)
		}
	}
	return voters
}

// SetWeakEdges adds a weak parent for every vertex in rounds 1..round-3 that
// the new vertex is not already linked to, preventing permanent orphaning.
// Per spec.md §4.1 / Open Question 4, the descending scan intentionally
// excludes round-2: it runs r := round-3 down to 1.
func (d *DAG) SetWeakEdges(v *vertex.Vertex, round model.Round) {
	if round <= 2 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	for r := round - 3; r >= 1; r-- {
		owners := d.graph[r]
		keys := make([]committee.NodePublicKey, 0, len(owners))
		for owner := range owners {
			keys = append(keys, owner)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		for _, owner := range keys {
			candidate := owners[owner]
			if !d.linked(v, candidate.Hash, false) {
				v.AddParent(candidate.Hash, r)
			}
		}
	}
}

// Rounds returns every round index holding at least one vertex, ascending —
// the deterministic iteration order the ordering engine's delivery pass needs.
func (d *DAG) Rounds() []model.Round {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rounds := make([]model.Round, 0, len(d.graph))
	for r := range d.graph {
		rounds = append(rounds, r)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i] < rounds[j] })
	return rounds
}

// VerticesAt returns the vertices at round r, ordered lexicographically by owner.
func (d *DAG) VerticesAt(r model.Round) []*vertex.Vertex {
	d.mu.RLock()
	defer d.mu.RUnlock()

	owners := d.graph[r]
	keys := make([]committee.NodePublicKey, 0, len(owners))
	for owner := range owners {
		keys = append(keys, owner)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]*vertex.Vertex, 0, len(keys))
	for _, owner := range keys {
		out = append(out, owners[owner])
	}
	return out
}

// VertexAt returns the vertex owned by owner at round r, if present.
func (d *DAG) VertexAt(r model.Round, owner committee.NodePublicKey) (*vertex.Vertex, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.graph[r][owner]
	return v, ok
}
