package vertex

import (
	"testing"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/model"
	"github.com/stretchr/testify/require"
)

func testOwner(b byte) committee.NodePublicKey {
	var k committee.NodePublicKey
	k[0] = b
	return k
}

func TestHashIsDeterministicRegardlessOfParentOrder(t *testing.T) {
	require := require.New(t)

	owner := testOwner(1)
	block := model.NewBlock([]model.Transaction{[]byte("tx-a")})

	var h1, h2 Hash
	h1[0], h2[0] = 0xAA, 0xBB

	parentsA := map[Hash]model.Round{h1: 1, h2: 1}
	parentsB := map[Hash]model.Round{h2: 1, h1: 1}

	va := New(owner, 2, block, parentsA)
	vb := New(owner, 2, block, parentsB)

	require.Equal(va.Hash, vb.Hash)
}

func TestAddParentChangesHash(t *testing.T) {
	require := require.New(t)

	owner := testOwner(2)
	v := Genesis(owner)
	before := v.Hash

	var parentHash Hash
	parentHash[0] = 0x01
	v.AddParent(parentHash, 0)

	require.NotEqual(before, v.Hash)
}

func TestIsStrongParentAndCount(t *testing.T) {
	require := require.New(t)

	owner := testOwner(3)
	var strongParent, weakParent Hash
	strongParent[0], weakParent[0] = 0x01, 0x02

	parents := map[Hash]model.Round{
		strongParent: 2,
		weakParent:   1,
	}
	v := New(owner, 3, model.Block{}, parents)

	require.True(v.IsStrongParent(2))
	require.False(v.IsStrongParent(1))
	require.Equal(1, v.StrongParentCount())
}

func TestGenesisHasNoParents(t *testing.T) {
	require := require.New(t)

	g := Genesis(testOwner(4))
	require.Equal(model.Round(0), g.Round)
	require.Empty(g.Parents)
}
