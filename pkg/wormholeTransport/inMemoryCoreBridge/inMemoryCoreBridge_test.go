package inMemoryCoreBridge

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport"
)

var _ wormholeTransport.ITransport = (*InMemoryCoreBridge)(nil)

func newSigner(t *testing.T) transportSigner.ITransportSigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSigner(crypto.FromECDSA(key), zap.NewNop())
	require.NoError(t, err)
	return s
}

func postArgs(t *testing.T, signer transportSigner.ITransportSigner, ref string, payload []byte) *wormholeTransport.PostMessageArgs {
	signed, err := signer.CreateAuthenticatedMessage(payload)
	require.NoError(t, err)
	return &wormholeTransport.PostMessageArgs{
		EmitterAddress:   signer.Address(),
		Payload:          signed.Payload,
		Signature:        signed.Signature,
		MessageAccount:   wormholeTransport.MessageAccountFor(ref),
		Nonce:            wormholeTransport.BatchID,
		ConsistencyLevel: 32,
	}
}

func TestCoreBridge_SequencesAndMessageAccounts(t *testing.T) {
	ctx := context.Background()
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)
	signer := newSigner(t)

	seq, err := bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{1}))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	seq, err = bridge.PostMessage(ctx, postArgs(t, signer, "b", []byte{2}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	_, err = bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{3}))
	assert.True(t, errors.Is(err, ErrMessageAccountInUse))
	assert.Len(t, bridge.Published(), 2)
}

func TestCoreBridge_RejectsForgedEmitter(t *testing.T) {
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)

	args := postArgs(t, newSigner(t), "a", []byte{1})
	args.EmitterAddress[31] ^= 0xff
	_, err = bridge.PostMessage(context.Background(), args)
	assert.True(t, errors.Is(err, ErrInvalidEmitterSignature))
}

// Only the holder of the emitter key can publish as that emitter.
func TestCoreBridge_RejectsOtherKeyForEmitter(t *testing.T) {
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)
	emitter := newSigner(t)

	args := postArgs(t, newSigner(t), "a", []byte{1})
	args.EmitterAddress = emitter.Address()
	_, err = bridge.PostMessage(context.Background(), args)
	assert.True(t, errors.Is(err, ErrInvalidEmitterSignature))
	assert.Empty(t, bridge.Published())
}

func TestCoreBridge_ReportsAddress(t *testing.T) {
	bridge, err := NewInMemoryCoreBridge(Options{Address: types.UniversalAddress{31: 0x0b}, ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, types.UniversalAddress{31: 0x0b}, bridge.Address())
}

func TestCoreBridge_RejectsBadConsistencyLevel(t *testing.T) {
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)

	args := postArgs(t, newSigner(t), "a", []byte{1})
	args.ConsistencyLevel = 7
	_, err = bridge.PostMessage(context.Background(), args)
	assert.True(t, errors.Is(err, ErrInvalidConsistencyLevel))
}

func TestCoreBridge_RequiresFee(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemoryLedger()
	var collector, payer types.UniversalAddress
	collector[0], payer[0] = 0xfe, 0x01
	l.Credit(payer, uint256.NewInt(1000))

	bridge, err := NewInMemoryCoreBridge(Options{
		ChainID:      vaa.ChainIDSolana,
		MessageFee:   uint256.NewInt(100),
		FeeCollector: collector,
		Ledger:       l,
	}, zap.NewNop())
	require.NoError(t, err)
	signer := newSigner(t)

	_, err = bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{1}))
	assert.True(t, errors.Is(err, ErrFeeNotPaid))

	require.NoError(t, l.Transfer(ctx, payer, collector, uint256.NewInt(100)))
	_, err = bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{1}))
	require.NoError(t, err)

	// the same payment does not cover a second message
	_, err = bridge.PostMessage(ctx, postArgs(t, signer, "b", []byte{2}))
	assert.True(t, errors.Is(err, ErrFeeNotPaid))
}

func TestCoreBridge_FeeRequiresLedger(t *testing.T) {
	_, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana, MessageFee: uint256.NewInt(1)}, zap.NewNop())
	require.Error(t, err)
}

func TestCoreBridge_FailNext(t *testing.T) {
	ctx := context.Background()
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDSolana}, zap.NewNop())
	require.NoError(t, err)
	signer := newSigner(t)

	boom := errors.New("boom")
	bridge.FailNext(boom)
	_, err = bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{1}))
	assert.True(t, errors.Is(err, boom))

	seq, err := bridge.PostMessage(ctx, postArgs(t, signer, "a", []byte{1}))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
}

func TestCoreBridge_DevnetGuardiansSign(t *testing.T) {
	set, err := guardian.GenerateDevnetGuardianSet(0, 4)
	require.NoError(t, err)
	bridge, err := NewInMemoryCoreBridge(Options{ChainID: vaa.ChainIDEthereum, Guardians: set}, zap.NewNop())
	require.NoError(t, err)
	signer := newSigner(t)

	_, err = bridge.PostMessage(context.Background(), postArgs(t, signer, "a", []byte{9, 9}))
	require.NoError(t, err)

	published := bridge.Published()
	require.Len(t, published, 1)
	env := published[0].Envelope
	require.NotNil(t, env)

	verifier, err := set.Verifier()
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(context.Background(), env.VAA))

	raw, err := env.Marshal()
	require.NoError(t, err)
	parsed, err := vaa.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, vaa.ChainIDEthereum, parsed.EmitterChain)
	assert.Equal(t, signer.Address().ToVAAAddress(), parsed.EmitterAddress)
	assert.Equal(t, []byte{9, 9}, parsed.Payload)
	assert.Equal(t, uint8(32), parsed.ConsistencyLevel)
}
