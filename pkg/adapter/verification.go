package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/message"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// ReceivedMessage is an inbound message that passed every check and was attested.
type ReceivedMessage struct {
	SrcChain uint16
	// EmitterSequence is the core bridge sequence of the VAA, not the endpoint sequence.
	EmitterSequence uint64
	Message         *message.GuardianMessage
}

// RecvMessage verifies a guardian-signed envelope and attests it to the endpoint. The steps run
// in a fixed order and each one rejects the whole call:
//
//  1. the core bridge must be the configured one
//  2. the body digest must match the claimed digest, if any, and carry a guardian quorum
//  3. the payload must decode as a guardian message
//  4. the VAA emitter must be the registered peer for its chain
//  5. the message must be addressed to this chain
//
// The emitter comes from the signed body, never from the payload, since the quorum signature is
// the only thing that authenticates it. Replays are rejected by the endpoint.
func (a *Adapter) RecvMessage(ctx context.Context, env *guardian.SignedEnvelope) (res *ReceivedMessage, err error) {
	defer a.observe(OpRecvMessage, time.Now(), &err)

	if env == nil || env.VAA == nil {
		return nil, fmt.Errorf("%w: empty envelope", types.ErrInvalidVaa)
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := a.requireEndpoint(cfg); err != nil {
		return nil, err
	}
	if err := a.requireTransport(cfg); err != nil {
		return nil, err
	}

	v := env.VAA
	digest := v.SigningDigest()
	if env.ClaimedDigest != nil && *env.ClaimedDigest != digest {
		return nil, fmt.Errorf("%w: digest mismatch", types.ErrInvalidVaa)
	}
	if err := a.verifier.Verify(ctx, v); err != nil {
		return nil, err
	}

	msg, err := message.Decode(v.Payload)
	if err != nil {
		return nil, err
	}

	srcChain := uint16(v.EmitterChain)
	if _, err := a.peers.RequireEmitter(srcChain, types.UniversalAddressFromVAA(v.EmitterAddress)); err != nil {
		return nil, err
	}
	if msg.DstChain != uint16(a.localChain) {
		return nil, fmt.Errorf("%w: message is for chain %d, this is chain %d", types.ErrInvalidChain, msg.DstChain, uint16(a.localChain))
	}

	err = a.endpoint.AttestMessage(ctx, &types.AttestMessageArgs{
		AdapterID:   a.ID(),
		SrcChain:    srcChain,
		SrcAddr:     msg.SrcAddr,
		Sequence:    msg.Sequence,
		DstChain:    msg.DstChain,
		DstAddr:     msg.DstAddr,
		PayloadHash: msg.PayloadHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attest message: %w", err)
	}
	a.metrics.MessageAttested(chainLabel(srcChain))

	a.logger.Sugar().Infow("Attested message",
		"srcChain", srcChain,
		"srcAddr", msg.SrcAddr.Hex(),
		"sequence", msg.Sequence,
		"digest", digest.Hex(),
	)
	return &ReceivedMessage{
		SrcChain:        srcChain,
		EmitterSequence: v.Sequence,
		Message:         msg,
	}, nil
}
