package guardian

import (
	gethecdsa "crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// DevnetGuardianSet holds the private keys of a local guardian set so tests and devnets can
// produce VAAs that a GuardianSetVerifier over the same set will accept.
type DevnetGuardianSet struct {
	index uint32
	keys  []*gethecdsa.PrivateKey
}

// NewDevnetGuardianSet loads hex encoded secp256k1 keys (with or without 0x).
func NewDevnetGuardianSet(index uint32, hexKeys []string) (*DevnetGuardianSet, error) {
	keys := make([]*gethecdsa.PrivateKey, 0, len(hexKeys))
	for i, h := range hexKeys {
		if len(h) > 1 && h[0] == '0' && (h[1] == 'x' || h[1] == 'X') {
			h = h[2:]
		}
		k, err := crypto.HexToECDSA(h)
		if err != nil {
			return nil, fmt.Errorf("invalid guardian key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return &DevnetGuardianSet{index: index, keys: keys}, nil
}

// GenerateDevnetGuardianSet creates n fresh guardians.
func GenerateDevnetGuardianSet(index uint32, n int) (*DevnetGuardianSet, error) {
	keys := make([]*gethecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		k, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return &DevnetGuardianSet{index: index, keys: keys}, nil
}

func (d *DevnetGuardianSet) Index() uint32 {
	return d.index
}

func (d *DevnetGuardianSet) Addresses() []common.Address {
	addrs := make([]common.Address, len(d.keys))
	for i, k := range d.keys {
		addrs[i] = crypto.PubkeyToAddress(k.PublicKey)
	}
	return addrs
}

func (d *DevnetGuardianSet) Verifier() (*GuardianSetVerifier, error) {
	return NewGuardianSetVerifier(d.index, d.Addresses())
}

// Observe signs a copy of v with a bare quorum of the set.
func (d *DevnetGuardianSet) Observe(v *vaa.VAA) (*SignedEnvelope, error) {
	n := vaa.CalculateQuorum(len(d.keys))
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return d.ObserveWith(v, indices...)
}

// ObserveWith signs a copy of v with the chosen guardians, in the order given. Existing
// signatures on v are dropped.
func (d *DevnetGuardianSet) ObserveWith(v *vaa.VAA, indices ...int) (*SignedEnvelope, error) {
	signed := *v
	signed.Version = vaa.SupportedVAAVersion
	signed.GuardianSetIndex = d.index
	signed.Signatures = nil
	signed.Payload = append([]byte{}, v.Payload...)
	for _, idx := range indices {
		if idx < 0 || idx >= len(d.keys) {
			return nil, fmt.Errorf("guardian index %d out of range", idx)
		}
		signed.AddSignature(d.keys[idx], uint8(idx))
	}
	return &SignedEnvelope{VAA: &signed}, nil
}
