package transportSigner

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

const signatureLength = 65

type SignedMessage struct {
	Payload   []byte   `json:"payload"`   // Raw bytes being authenticated
	Hash      [32]byte `json:"hash"`      // keccak256(payload)
	Signature []byte   `json:"signature"` // ECDSA signature over hash
}

// ITransportSigner holds a secp256k1 key. The adapter publishes under one as its emitter, and
// API clients sign their requests with one.
type ITransportSigner interface {
	Address() types.UniversalAddress
	CreateAuthenticatedMessage(data []byte) (*SignedMessage, error)
	SignMessage(data []byte) ([]byte, error)
}

// RecoverSigner checks that msg.Hash commits to msg.Payload and returns the address of the key
// that signed it.
func RecoverSigner(msg *SignedMessage) (types.UniversalAddress, error) {
	if msg == nil {
		return types.ZeroAddress, errors.New("missing signed message")
	}
	if len(msg.Signature) != signatureLength {
		return types.ZeroAddress, fmt.Errorf("signature must be %d bytes, got %d", signatureLength, len(msg.Signature))
	}
	if crypto.Keccak256Hash(msg.Payload) != common.Hash(msg.Hash) {
		return types.ZeroAddress, errors.New("payload digest mismatch")
	}

	sig := append([]byte{}, msg.Signature...)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(msg.Hash[:], sig)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("failed to recover signer: %w", err)
	}
	return types.UniversalAddressFromEVM(crypto.PubkeyToAddress(*pub)), nil
}
