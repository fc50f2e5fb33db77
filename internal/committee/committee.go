// Package committee models the validator set that drives quorum math.
package committee

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
)

// Id is a node's position in the committee file, assigned at generation time.
type Id = uint32

// NodePublicKey is an opaque, totally ordered validator identifier.
type NodePublicKey [32]byte

// String returns the hex encoding of the key.
func (k NodePublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// Less orders keys lexicographically over their byte representation.
func (k NodePublicKey) Less(other NodePublicKey) bool {
	for i := range k {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}

// MarshalJSON encodes the key as a hex string.
func (k NodePublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a hex-encoded key.
func (k *NodePublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decoding node public key: %w", err)
	}
	if len(b) != len(k) {
		return fmt.Errorf("invalid node public key length: expected %d, got %d", len(k), len(b))
	}
	copy(k[:], b)
	return nil
}

// Validator is one committee member's identity and network endpoints.
type Validator struct {
	Address      string        `json:"address"`
	TxAddress    string        `json:"tx_address"`
	BlockAddress string        `json:"block_address"`
	PublicKey    NodePublicKey `json:"public_key"`
}

// NewValidator derives a validator's public key from a fresh keypair and
// assigns it the three addresses it will listen on.
func NewValidator(host string, port, txPort, blockPort uint16) (Validator, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Validator{}, nil, fmt.Errorf("generating validator keypair: %w", err)
	}
	var key NodePublicKey
	copy(key[:], pub)
	return Validator{
		Address:      net.JoinHostPort(host, fmt.Sprint(port)),
		TxAddress:    net.JoinHostPort(host, fmt.Sprint(txPort)),
		BlockAddress: net.JoinHostPort(host, fmt.Sprint(blockPort)),
		PublicKey:    key,
	}, priv, nil
}

// Committee is the ordered set of validators driving quorum thresholds.
type Committee struct {
	Validators map[Id]Validator `json:"validators"`
}

// Generate builds a committee of nodeCount freshly keyed validators, assigning
// sequential port triples the way the original node generator does.
func Generate(nodeCount uint32) (*Committee, error) {
	validators := make(map[Id]Validator, nodeCount)
	for id := uint32(1); id <= nodeCount; id++ {
		base := uint16(8123 + (id-1)*3)
		v, _, err := NewValidator("0.0.0.0", base, base+1, base+2)
		if err != nil {
			return nil, err
		}
		validators[id] = v
	}
	return &Committee{Validators: validators}, nil
}

// Size returns the number of validators in the committee.
func (c *Committee) Size() int {
	return len(c.Validators)
}

// QuorumThreshold is 2n/3 + 1, using integer division.
func (c *Committee) QuorumThreshold() int {
	return (c.Size() * 2 / 3) + 1
}

// Faulties is the maximum number of Byzantine validators the committee tolerates.
func (c *Committee) Faulties() int {
	return c.Size() - c.QuorumThreshold()
}

// NodeKeys returns every validator public key, ascending lexicographic order.
func (c *Committee) NodeKeys() []NodePublicKey {
	keys := make([]NodePublicKey, 0, len(c.Validators))
	for _, v := range c.Validators {
		keys = append(keys, v.PublicKey)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// NodeKey returns the public key assigned to a given committee id.
func (c *Committee) NodeKey(id Id) (NodePublicKey, bool) {
	v, ok := c.Validators[id]
	return v.PublicKey, ok
}

// BlockReceiverAddresses returns every validator's block-receive endpoint.
func (c *Committee) BlockReceiverAddresses() []string {
	addrs := make([]string, 0, len(c.Validators))
	for _, v := range c.Validators {
		addrs = append(addrs, v.BlockAddress)
	}
	return addrs
}

// ConsensusReceiverAddresses returns every validator's vertex-receive endpoint.
func (c *Committee) ConsensusReceiverAddresses() []string {
	addrs := make([]string, 0, len(c.Validators))
	for _, v := range c.Validators {
		addrs = append(addrs, v.Address)
	}
	return addrs
}
