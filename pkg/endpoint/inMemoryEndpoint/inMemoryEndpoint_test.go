package inMemoryEndpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

var _ endpoint.IEndpoint = (*InMemoryEndpoint)(nil)

func addr(b byte) types.UniversalAddress {
	var a types.UniversalAddress
	a[31] = b
	return a
}

func Test_PickUpLifecycle(t *testing.T) {
	ctx := context.Background()
	ep := NewInMemoryEndpoint(addr(0xee), zap.NewNop())
	adapterID := addr(0xaa)

	msg := ep.SendMessage(addr(1), 2, addr(3), common.HexToHash("0x04"))
	assert.Equal(t, uint64(0), msg.Sequence)
	assert.NotEmpty(t, msg.Ref)

	_, err := ep.PickUpMessage(ctx, msg.Ref, adapterID)
	assert.True(t, errors.Is(err, endpoint.ErrAdapterNotActive))

	ep.EnableAdapter(adapterID)
	got, err := ep.PickUpMessage(ctx, msg.Ref, adapterID)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	assert.True(t, ep.IsPickedUp(msg.Ref, adapterID))

	_, err = ep.PickUpMessage(ctx, msg.Ref, adapterID)
	assert.True(t, errors.Is(err, endpoint.ErrAlreadyPickedUp))

	require.NoError(t, ep.ReturnMessage(ctx, msg.Ref, adapterID))
	assert.False(t, ep.IsPickedUp(msg.Ref, adapterID))
	_, err = ep.PickUpMessage(ctx, msg.Ref, adapterID)
	require.NoError(t, err)

	_, err = ep.PickUpMessage(ctx, "missing", adapterID)
	assert.True(t, errors.Is(err, endpoint.ErrMessageNotFound))
}

func Test_SequencesPerSender(t *testing.T) {
	ep := NewInMemoryEndpoint(addr(0xee), zap.NewNop())
	assert.Equal(t, uint64(0), ep.SendMessage(addr(1), 2, addr(3), common.Hash{}).Sequence)
	assert.Equal(t, uint64(1), ep.SendMessage(addr(1), 2, addr(3), common.Hash{}).Sequence)
	assert.Equal(t, uint64(0), ep.SendMessage(addr(9), 2, addr(3), common.Hash{}).Sequence)
}

func Test_AttestRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	ep := NewInMemoryEndpoint(addr(0xee), zap.NewNop())
	adapterID := addr(0xaa)
	ep.EnableAdapter(adapterID)

	args := &types.AttestMessageArgs{
		AdapterID: adapterID,
		SrcChain:  2,
		SrcAddr:   addr(1),
		Sequence:  5,
		DstChain:  1,
		DstAddr:   addr(3),
	}
	require.NoError(t, ep.AttestMessage(ctx, args))

	err := ep.AttestMessage(ctx, args)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicate))
	assert.Equal(t, "Duplicate", types.ErrorCode(err))

	next := *args
	next.Sequence = 6
	require.NoError(t, ep.AttestMessage(ctx, &next))
	assert.Len(t, ep.Attestations(), 2)
}
