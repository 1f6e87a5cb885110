package message

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

/*
GuardianMessage is the payload every adapter publishes through the guardian network and accepts
back from it. The layout is packed big-endian and must stay byte-identical to the EVM adapter's
abi.encodePacked(srcAddr, sequence, dstChain, dstAddr, payloadHash):

	offset  0..32  src_addr
	offset 32..40  sequence      u64
	offset 40..42  dst_chain     u16
	offset 42..74  dst_addr
	offset 74..106 payload_hash
*/
type GuardianMessage struct {
	SrcAddr     types.UniversalAddress `json:"srcAddr"`
	Sequence    uint64                 `json:"sequence"`
	DstChain    uint16                 `json:"dstChain"`
	DstAddr     types.UniversalAddress `json:"dstAddr"`
	PayloadHash common.Hash            `json:"payloadHash"`
}

const (
	offsetSrcAddr     = 0
	offsetSequence    = offsetSrcAddr + types.UniversalAddressLength
	offsetDstChain    = offsetSequence + 8
	offsetDstAddr     = offsetDstChain + 2
	offsetPayloadHash = offsetDstAddr + types.UniversalAddressLength

	// MessageSize is the exact encoded length; anything else is rejected.
	MessageSize = offsetPayloadHash + common.HashLength
)

// Encode packs m into its 106-byte wire form.
func (m *GuardianMessage) Encode() []byte {
	buf := make([]byte, MessageSize)
	copy(buf[offsetSrcAddr:offsetSequence], m.SrcAddr[:])
	binary.BigEndian.PutUint64(buf[offsetSequence:offsetDstChain], m.Sequence)
	binary.BigEndian.PutUint16(buf[offsetDstChain:offsetDstAddr], m.DstChain)
	copy(buf[offsetDstAddr:offsetPayloadHash], m.DstAddr[:])
	copy(buf[offsetPayloadHash:MessageSize], m.PayloadHash[:])
	return buf
}

// Decode parses a wire-form message. The length is checked before any field is read.
func Decode(data []byte) (*GuardianMessage, error) {
	if len(data) != MessageSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidPayloadLength, MessageSize, len(data))
	}

	m := &GuardianMessage{}
	copy(m.SrcAddr[:], data[offsetSrcAddr:offsetSequence])
	m.Sequence = binary.BigEndian.Uint64(data[offsetSequence:offsetDstChain])
	m.DstChain = binary.BigEndian.Uint16(data[offsetDstChain:offsetDstAddr])
	copy(m.DstAddr[:], data[offsetDstAddr:offsetPayloadHash])
	copy(m.PayloadHash[:], data[offsetPayloadHash:MessageSize])
	return m, nil
}

// FromOutboxMessage builds the published form of an endpoint outbox entry.
func FromOutboxMessage(om *types.OutboxMessage) *GuardianMessage {
	return &GuardianMessage{
		SrcAddr:     om.SrcAddr,
		Sequence:    om.Sequence,
		DstChain:    om.DstChain,
		DstAddr:     om.DstAddr,
		PayloadHash: om.PayloadHash,
	}
}
