package wormholeTransport

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// BatchID is the nonce attached to every publication. Messages are not batched.
const BatchID uint32 = 0

const messageAccountSeed = "message"

// PostMessageArgs is one publication request to the core bridge.
type PostMessageArgs struct {
	EmitterAddress types.UniversalAddress
	Payload        []byte
	// Signature is the emitter identity's signature over keccak256(Payload).
	Signature []byte
	// MessageAccount names the storage slot for this publication; reusing one is rejected.
	MessageAccount   common.Hash
	Nonce            uint32
	ConsistencyLevel uint8
}

// ITransport is the signed-messaging transport messages are published through.
type ITransport interface {
	// Address identifies the core bridge program; the adapter only uses the one its Config names.
	Address() types.UniversalAddress
	// MessageFee is the amount that must reach FeeCollector before PostMessage is accepted.
	MessageFee(ctx context.Context) (*uint256.Int, error)
	FeeCollector() types.UniversalAddress
	// PostMessage publishes and returns the emitter sequence assigned to the message.
	PostMessage(ctx context.Context, args *PostMessageArgs) (uint64, error)
}

// MessageAccountFor derives the publication slot for an outbox entry. One outbox entry maps to
// one slot, so a second publication of the same entry collides.
func MessageAccountFor(outboxRef string) common.Hash {
	return crypto.Keccak256Hash([]byte(messageAccountSeed), []byte(outboxRef))
}
