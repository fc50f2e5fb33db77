package dagstore

import (
	"testing"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/vertex"
	"github.com/stretchr/testify/require"
)

func owner(b byte) committee.NodePublicKey {
	var k committee.NodePublicKey
	k[0] = b
	return k
}

// buildRound inserts one vertex per given owner at round r, each strongly
// linking to every vertex at round r-1 (or, at round 1, to the genesis set).
func buildRound(t *testing.T, d *DAG, r model.Round, owners []committee.NodePublicKey) []*vertex.Vertex {
	t.Helper()
	parents := d.GetVertices(r - 1)
	var out []*vertex.Vertex
	for _, o := range owners {
		v := vertex.New(o, r, model.Block{}, copyParents(parents))
		d.InsertVertex(v)
		out = append(out, v)
	}
	return out
}

func copyParents(p map[vertex.Hash]model.Round) map[vertex.Hash]model.Round {
	out := make(map[vertex.Hash]model.Round, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func fourOwners() []committee.NodePublicKey {
	return []committee.NodePublicKey{owner(1), owner(2), owner(3), owner(4)}
}

func TestQuorumReachedForRound(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}

	require.True(d.IsQuorumReachedForRound(0))
	require.False(d.IsQuorumReachedForRound(1))

	buildRound(t, d, 1, owners[:3])
	require.True(d.IsQuorumReachedForRound(1))
}

func TestInsertVertexIsIdempotent(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}
	round1 := buildRound(t, d, 1, owners)
	require.Len(d.VerticesAt(1), 4)

	// Re-inserting the same (round, owner) pair changes nothing.
	d.InsertVertex(round1[0])
	require.Len(d.VerticesAt(1), 4)
}

func TestIsLinkedFollowsStrongChain(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}
	round1 := buildRound(t, d, 1, owners)
	round2 := buildRound(t, d, 2, owners)

	require.True(d.IsLinked(round2[0], round1[0]))
	require.True(d.IsStronglyLinked(round2[0], round1[0]))
}

func TestGetValidVerticesVotersCountsLinkedOwners(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}
	round1 := buildRound(t, d, 1, owners)
	buildRound(t, d, 2, owners)

	voters := d.GetValidVerticesVoters(round1[0], 2)
	require.Len(voters, 4)
	require.True(d.IsLinkedWithOthersInRound(round1[0], 2))
}

func TestSetWeakEdgesSkipsRoundsOneAndTwoWhenShallow(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}
	v := vertex.New(owner(1), 2, model.Block{}, map[vertex.Hash]model.Round{})
	d.SetWeakEdges(v, 2)
	require.Empty(v.Parents)
}

func TestRoundsAndVerticesAtAreOrdered(t *testing.T) {
	require := require.New(t)

	d := New(3)
	owners := fourOwners()
	for _, o := range owners {
		d.InsertVertex(vertex.Genesis(o))
	}
	buildRound(t, d, 1, owners)

	rounds := d.Rounds()
	require.Equal([]model.Round{0, 1}, rounds)

	atRound1 := d.VerticesAt(1)
	for i := 1; i < len(atRound1); i++ {
		require.True(atRound1[i-1].Owner.Less(atRound1[i].Owner))
	}
}
