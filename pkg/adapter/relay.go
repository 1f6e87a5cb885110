package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/message"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport"
)

// PickUpResult describes a completed relay.
type PickUpResult struct {
	Ref string
	// TransportSequence is the emitter sequence the core bridge assigned.
	TransportSequence uint64
	Fee               *uint256.Int
	Message           *message.GuardianMessage
}

// PickUpMessage relays one outbox entry: it takes the entry from the endpoint, pays the core
// bridge fee from payer when there is one, and publishes the encoded message under the adapter's
// emitter identity. On any failure after the pick up, the fee is refunded and the entry handed
// back to the endpoint, so the call either publishes exactly once or leaves nothing behind.
func (a *Adapter) PickUpMessage(ctx context.Context, ref string, payer types.UniversalAddress) (res *PickUpResult, err error) {
	defer a.observe(OpPickUpMessage, time.Now(), &err)

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
	consistencyLevel, err := cfg.Finality.Uint8()
	if err != nil {
		return nil, err
	}

	outbound, err := a.endpoint.PickUpMessage(ctx, ref, a.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to pick up message %s: %w", ref, err)
	}

	msg := message.FromOutboxMessage(outbound)
	res, err = a.publish(ctx, ref, payer, msg, consistencyLevel)
	if err != nil {
		if rerr := a.endpoint.ReturnMessage(context.WithoutCancel(ctx), ref, a.ID()); rerr != nil {
			a.logger.Sugar().Errorw("Failed to return message to endpoint",
				"ref", ref,
				"error", rerr,
				"cause", err,
			)
		}
		return nil, err
	}

	a.logger.Sugar().Infow("Relayed message",
		"ref", ref,
		"sequence", msg.Sequence,
		"dstChain", msg.DstChain,
		"transportSequence", res.TransportSequence,
		"fee", res.Fee.Dec(),
	)
	return res, nil
}

func (a *Adapter) publish(ctx context.Context, ref string, payer types.UniversalAddress, msg *message.GuardianMessage, consistencyLevel uint8) (*PickUpResult, error) {
	fee, err := a.transport.MessageFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query message fee: %w", err)
	}
	if fee == nil {
		fee = new(uint256.Int)
	}

	collector := a.transport.FeeCollector()
	feePaid := false
	if !fee.IsZero() {
		if err := a.ledger.Transfer(ctx, payer, collector, fee); err != nil {
			return nil, fmt.Errorf("failed to pay message fee: %w", err)
		}
		feePaid = true
		a.metrics.FeePaid()
	}

	refund := func(cause error) error {
		if !feePaid {
			return cause
		}
		if rerr := a.ledger.Transfer(context.WithoutCancel(ctx), collector, payer, fee); rerr != nil {
			a.logger.Sugar().Errorw("Failed to refund message fee",
				"ref", ref,
				"payer", payer.Hex(),
				"fee", fee.Dec(),
				"error", rerr,
			)
		}
		return cause
	}

	// Last point at which the caller can still back out.
	if err := ctx.Err(); err != nil {
		return nil, refund(err)
	}

	signed, err := a.signer.CreateAuthenticatedMessage(msg.Encode())
	if err != nil {
		return nil, refund(fmt.Errorf("failed to sign message: %w", err))
	}

	seq, err := a.transport.PostMessage(ctx, &wormholeTransport.PostMessageArgs{
		EmitterAddress:   a.signer.Address(),
		Payload:          signed.Payload,
		Signature:        signed.Signature,
		MessageAccount:   wormholeTransport.MessageAccountFor(ref),
		Nonce:            wormholeTransport.BatchID,
		ConsistencyLevel: consistencyLevel,
	})
	if err != nil {
		return nil, refund(fmt.Errorf("failed to post message: %w", err))
	}
	a.metrics.MessagePublished()

	return &PickUpResult{
		Ref:               ref,
		TransportSequence: seq,
		Fee:               fee,
		Message:           msg,
	}, nil
}
