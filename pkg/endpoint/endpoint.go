package endpoint

import (
	"context"
	"errors"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

var (
	ErrMessageNotFound  = errors.New("outbox message not found")
	ErrAlreadyPickedUp  = errors.New("outbox message already picked up by adapter")
	ErrNotPickedUp      = errors.New("outbox message was not picked up by adapter")
	ErrAdapterNotActive = errors.New("adapter is not enabled on endpoint")

	// ErrDuplicateAttestation is returned when (src_chain, src_addr, sequence) was already
	// attested by the adapter.
	ErrDuplicateAttestation = types.ErrDuplicate
)

// IEndpoint is the local endpoint as seen by an adapter. The endpoint owns the outbox and the
// attestation bookkeeping; the adapter only drives it.
type IEndpoint interface {
	// Address identifies the endpoint. It must equal the endpoint recorded in the adapter Config.
	Address() types.UniversalAddress

	// PickUpMessage hands the outbox entry to adapterID and marks it picked up for that adapter.
	PickUpMessage(ctx context.Context, ref string, adapterID types.UniversalAddress) (*types.OutboxMessage, error)

	// ReturnMessage undoes a pick up so a later attempt can relay the entry again.
	ReturnMessage(ctx context.Context, ref string, adapterID types.UniversalAddress) error

	// AttestMessage records a verified inbound message. It is idempotent on
	// (SrcChain, SrcAddr, Sequence) in the sense that a repeat fails with ErrDuplicateAttestation.
	AttestMessage(ctx context.Context, args *types.AttestMessageArgs) error
}
