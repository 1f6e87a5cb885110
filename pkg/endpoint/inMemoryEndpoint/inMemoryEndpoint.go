package inMemoryEndpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

type outboxEntry struct {
	message  types.OutboxMessage
	pickedUp map[types.UniversalAddress]bool
}

type attestationKey struct {
	srcChain uint16
	srcAddr  types.UniversalAddress
	sequence uint64
}

// InMemoryEndpoint is a process-local endpoint for devnets and tests.
type InMemoryEndpoint struct {
	address types.UniversalAddress
	logger  *zap.Logger

	mu           sync.Mutex
	adapters     map[types.UniversalAddress]bool
	outbox       map[string]*outboxEntry
	sequences    map[types.UniversalAddress]uint64
	attested     map[attestationKey]bool
	attestations []types.AttestMessageArgs
}

func NewInMemoryEndpoint(address types.UniversalAddress, logger *zap.Logger) *InMemoryEndpoint {
	return &InMemoryEndpoint{
		address:   address,
		logger:    logger,
		adapters:  make(map[types.UniversalAddress]bool),
		outbox:    make(map[string]*outboxEntry),
		sequences: make(map[types.UniversalAddress]uint64),
		attested:  make(map[attestationKey]bool),
	}
}

func (e *InMemoryEndpoint) Address() types.UniversalAddress {
	return e.address
}

// EnableAdapter allows adapterID to pick up and attest messages.
func (e *InMemoryEndpoint) EnableAdapter(adapterID types.UniversalAddress) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adapters[adapterID] = true
}

// SendMessage queues an outbound message from srcAddr and returns its outbox ref. Sequences are
// assigned per sender starting at zero.
func (e *InMemoryEndpoint) SendMessage(srcAddr types.UniversalAddress, dstChain uint16, dstAddr types.UniversalAddress, payloadHash common.Hash) *types.OutboxMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.sequences[srcAddr]
	e.sequences[srcAddr] = seq + 1

	msg := types.OutboxMessage{
		Ref:         uuid.New().String(),
		SrcAddr:     srcAddr,
		Sequence:    seq,
		DstChain:    dstChain,
		DstAddr:     dstAddr,
		PayloadHash: payloadHash,
	}
	e.outbox[msg.Ref] = &outboxEntry{
		message:  msg,
		pickedUp: make(map[types.UniversalAddress]bool),
	}
	e.logger.Sugar().Debugw("Queued outbox message", "ref", msg.Ref, "sequence", seq, "dstChain", dstChain)
	out := msg
	return &out
}

func (e *InMemoryEndpoint) PickUpMessage(ctx context.Context, ref string, adapterID types.UniversalAddress) (*types.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.adapters[adapterID] {
		return nil, errors.Wrapf(endpoint.ErrAdapterNotActive, "adapter %s", adapterID.Hex())
	}
	entry, ok := e.outbox[ref]
	if !ok {
		return nil, errors.Wrapf(endpoint.ErrMessageNotFound, "ref %s", ref)
	}
	if entry.pickedUp[adapterID] {
		return nil, errors.Wrapf(endpoint.ErrAlreadyPickedUp, "ref %s", ref)
	}
	entry.pickedUp[adapterID] = true

	msg := entry.message
	return &msg, nil
}

func (e *InMemoryEndpoint) ReturnMessage(ctx context.Context, ref string, adapterID types.UniversalAddress) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.outbox[ref]
	if !ok {
		return errors.Wrapf(endpoint.ErrMessageNotFound, "ref %s", ref)
	}
	if !entry.pickedUp[adapterID] {
		return errors.Wrapf(endpoint.ErrNotPickedUp, "ref %s", ref)
	}
	delete(entry.pickedUp, adapterID)
	return nil
}

func (e *InMemoryEndpoint) AttestMessage(ctx context.Context, args *types.AttestMessageArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.adapters[args.AdapterID] {
		return errors.Wrapf(endpoint.ErrAdapterNotActive, "adapter %s", args.AdapterID.Hex())
	}
	key := attestationKey{srcChain: args.SrcChain, srcAddr: args.SrcAddr, sequence: args.Sequence}
	if e.attested[key] {
		return fmt.Errorf("%w: chain %d sequence %d", endpoint.ErrDuplicateAttestation, args.SrcChain, args.Sequence)
	}
	e.attested[key] = true
	e.attestations = append(e.attestations, *args)
	return nil
}

// IsPickedUp reports whether adapterID currently holds the entry.
func (e *InMemoryEndpoint) IsPickedUp(ref string, adapterID types.UniversalAddress) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.outbox[ref]
	return ok && entry.pickedUp[adapterID]
}

// Attestations returns every attestation accepted so far, oldest first.
func (e *InMemoryEndpoint) Attestations() []types.AttestMessageArgs {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.AttestMessageArgs{}, e.attestations...)
}
