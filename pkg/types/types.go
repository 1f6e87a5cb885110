package types

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
)

// AdapterType identifies this adapter implementation to the endpoint and to off-chain tooling.
const AdapterType = "WormholeGuardiansAdapter-0.0.1"

// Config is the adapter's singleton settings record, stored under the "config" key.
type Config struct {
	// Admin is nil once authority has been discarded.
	Admin *UniversalAddress `json:"admin"`
	// PendingAdmin is set while a two-step transfer awaits its claim.
	PendingAdmin *UniversalAddress `json:"pendingAdmin"`

	// Endpoint is the identity of the local endpoint allowed to hand messages to the adapter.
	Endpoint UniversalAddress `json:"endpoint"`
	// BridgeProgram references the Wormhole core bridge used for publication.
	BridgeProgram UniversalAddress `json:"bridgeProgram"`
	// Finality is the confirmation level the core bridge must apply to publications.
	Finality config.Finality `json:"finality"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Admin != nil {
		out.Admin = c.Admin.Ptr()
	}
	if c.PendingAdmin != nil {
		out.PendingAdmin = c.PendingAdmin.Ptr()
	}
	return &out
}

// Peer binds a remote chain to the only contract trusted to emit messages from it.
type Peer struct {
	Chain    uint16           `json:"chain"`
	Contract UniversalAddress `json:"contract"`
}

// OutboxMessage is an outbound message held by the endpoint until adapters pick it up.
type OutboxMessage struct {
	Ref         string           `json:"ref"`
	SrcAddr     UniversalAddress `json:"srcAddr"`
	Sequence    uint64           `json:"sequence"`
	DstChain    uint16           `json:"dstChain"`
	DstAddr     UniversalAddress `json:"dstAddr"`
	PayloadHash common.Hash      `json:"payloadHash"`
}

// AttestMessageArgs is what the adapter hands to the endpoint for a verified inbound message.
// (SrcChain, SrcAddr, Sequence) is the idempotency key.
type AttestMessageArgs struct {
	AdapterID   UniversalAddress `json:"adapterId"`
	SrcChain    uint16           `json:"srcChain"`
	SrcAddr     UniversalAddress `json:"srcAddr"`
	Sequence    uint64           `json:"sequence"`
	DstChain    uint16           `json:"dstChain"`
	DstAddr     UniversalAddress `json:"dstAddr"`
	PayloadHash common.Hash      `json:"payloadHash"`
}
