package committee

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAssignsSequentialPorts(t *testing.T) {
	require := require.New(t)

	c, err := Generate(4)
	require.NoError(err)
	require.Equal(4, c.Size())

	v1 := c.Validators[1]
	require.Equal("0.0.0.0:8123", v1.Address)
	require.Equal("0.0.0.0:8124", v1.TxAddress)
	require.Equal("0.0.0.0:8125", v1.BlockAddress)

	v2 := c.Validators[2]
	require.Equal("0.0.0.0:8126", v2.Address)
}

func TestQuorumAndFaulties(t *testing.T) {
	require := require.New(t)

	c, err := Generate(4)
	require.NoError(err)
	require.Equal(3, c.QuorumThreshold())
	require.Equal(1, c.Faulties())
}

func TestNodeKeysAreSortedAndStable(t *testing.T) {
	require := require.New(t)

	c, err := Generate(7)
	require.NoError(err)

	keys := c.NodeKeys()
	require.Len(keys, 7)
	for i := 1; i < len(keys); i++ {
		require.True(keys[i-1].Less(keys[i]))
	}
}

func TestNodePublicKeyJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	var key NodePublicKey
	for i := range key {
		key[i] = byte(i)
	}

	data, err := json.Marshal(key)
	require.NoError(err)

	var decoded NodePublicKey
	require.NoError(json.Unmarshal(data, &decoded))
	require.Equal(key, decoded)
}
