package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint/inMemoryEndpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/events"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/message"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/metrics"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence/memory"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport/inMemoryCoreBridge"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func addr(b byte) types.UniversalAddress {
	var a types.UniversalAddress
	for i := range a {
		a[i] = b
	}
	return a
}

var (
	adminA        = addr(0xa1)
	adminB        = addr(0xb2)
	stranger      = addr(0xcc)
	endpointAddr  = addr(0xe0)
	bridgeProgram = addr(0xbb)
	payer         = addr(0x99)
	feeCollector  = addr(0xfc)
)

// countingLedger records every transfer the adapter makes.
type countingLedger struct {
	*ledger.InMemoryLedger
	transfers []*uint256.Int
}

func (c *countingLedger) Transfer(ctx context.Context, from, to types.UniversalAddress, amount *uint256.Int) error {
	if err := c.InMemoryLedger.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	c.transfers = append(c.transfers, new(uint256.Int).Set(amount))
	return nil
}

type harness struct {
	adapter   *Adapter
	endpoint  *inMemoryEndpoint.InMemoryEndpoint
	bridge    *inMemoryCoreBridge.InMemoryCoreBridge
	ledger    *countingLedger
	guardians *guardian.DevnetGuardianSet
	recorder  *events.Recorder
}

type harnessOptions struct {
	chain     vaa.ChainID
	// bridge is the address the wired core bridge reports; defaults to bridgeProgram.
	bridge    types.UniversalAddress
	fee       uint64
	guardians *guardian.DevnetGuardianSet
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	if opts.chain == vaa.ChainIDUnset {
		opts.chain = vaa.ChainIDSolana
	}
	if opts.bridge.IsZero() {
		opts.bridge = bridgeProgram
	}
	if opts.guardians == nil {
		set, err := guardian.GenerateDevnetGuardianSet(0, 4)
		require.NoError(t, err)
		opts.guardians = set
	}
	l := zap.NewNop()

	led := &countingLedger{InMemoryLedger: ledger.NewInMemoryLedger()}
	led.Credit(payer, uint256.NewInt(1_000_000))

	bridge, err := inMemoryCoreBridge.NewInMemoryCoreBridge(inMemoryCoreBridge.Options{
		Address:      opts.bridge,
		ChainID:      opts.chain,
		MessageFee:   uint256.NewInt(opts.fee),
		FeeCollector: feeCollector,
		Ledger:       led.InMemoryLedger,
		Guardians:    opts.guardians,
	}, l)
	require.NoError(t, err)

	emitterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSigner(crypto.FromECDSA(emitterKey), l)
	require.NoError(t, err)
	verifier, err := opts.guardians.Verifier()
	require.NoError(t, err)

	ep := inMemoryEndpoint.NewInMemoryEndpoint(endpointAddr, l)
	ep.EnableAdapter(signer.Address())

	recorder := events.NewRecorder()
	bus := events.NewBus(l)
	bus.Subscribe(recorder.Handle)

	a, err := NewAdapter(Config{LocalChain: opts.chain, Logger: l}, Dependencies{
		Store:     memory.NewMemoryPersistence(l),
		Verifier:  verifier,
		Endpoint:  ep,
		Transport: bridge,
		Ledger:    led,
		Signer:    signer,
		Emitter:   bus,
		Metrics:   metrics.NewAdapterMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	return &harness{
		adapter:   a,
		endpoint:  ep,
		bridge:    bridge,
		ledger:    led,
		guardians: opts.guardians,
		recorder:  recorder,
	}
}

func (h *harness) initialize(t *testing.T) {
	t.Helper()
	_, err := h.adapter.Initialize(context.Background(), adminA, endpointAddr, bridgeProgram, config.FinalityFinalized)
	require.NoError(t, err)
}

func (h *harness) inbound(t *testing.T, emitterChain vaa.ChainID, emitter types.UniversalAddress, payload []byte) *guardian.SignedEnvelope {
	t.Helper()
	env, err := h.guardians.Observe(&vaa.VAA{
		Timestamp:        time.Unix(1700000000, 0),
		EmitterChain:     emitterChain,
		EmitterAddress:   emitter.ToVAAAddress(),
		Sequence:         3,
		ConsistencyLevel: 32,
		Payload:          payload,
	})
	require.NoError(t, err)
	return env
}

func outboundPayload(dstChain uint16, sequence uint64) []byte {
	return (&message.GuardianMessage{
		SrcAddr:     addr(0x0a),
		Sequence:    sequence,
		DstChain:    dstChain,
		DstAddr:     addr(0x0d),
		PayloadHash: common.HexToHash("0xfeed"),
	}).Encode()
}

func TestNewAdapter_RequiresDependencies(t *testing.T) {
	_, err := NewAdapter(Config{LocalChain: vaa.ChainIDSolana}, Dependencies{})
	require.Error(t, err)
}

func TestAdapter_Initialize(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()

	_, err := h.adapter.GetConfig()
	assert.True(t, errors.Is(err, types.ErrNotInitialized))
	assert.True(t, errors.Is(h.adapter.TransferAdmin(ctx, adminA, adminB), types.ErrNotInitialized))

	_, err = h.adapter.Initialize(ctx, types.ZeroAddress, endpointAddr, bridgeProgram, config.FinalityFinalized)
	assert.True(t, errors.Is(err, types.ErrInvalidAdminZeroAddress))

	cfg, err := h.adapter.Initialize(ctx, adminA, endpointAddr, bridgeProgram, config.FinalityConfirmed)
	require.NoError(t, err)
	assert.Equal(t, adminA, *cfg.Admin)
	assert.Nil(t, cfg.PendingAdmin)

	_, err = h.adapter.Initialize(ctx, adminB, endpointAddr, bridgeProgram, config.FinalityConfirmed)
	assert.True(t, errors.Is(err, types.ErrAlreadyInitialized))

	level, err := h.adapter.ConsistencyLevel()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), level)
	assert.Equal(t, "WormholeGuardiansAdapter-0.0.1", h.adapter.AdapterType())
	assert.Equal(t, []events.EventType{events.EventTypeAdminUpdated}, h.recorder.Types())
}

func TestAdapter_TwoStepTransfer(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()

	assert.True(t, errors.Is(h.adapter.ClaimAdmin(ctx, adminA), types.ErrNoAdminUpdatePending))
	assert.True(t, errors.Is(h.adapter.TransferAdmin(ctx, stranger, adminB), types.ErrCallerNotAdmin))

	require.NoError(t, h.adapter.TransferAdmin(ctx, adminA, adminB))
	pending, err := h.adapter.GetPendingAdmin()
	require.NoError(t, err)
	assert.Equal(t, adminB, *pending)

	assert.True(t, errors.Is(h.adapter.TransferAdmin(ctx, adminA, stranger), types.ErrAdminTransferPending))
	assert.True(t, errors.Is(h.adapter.ClaimAdmin(ctx, stranger), types.ErrCallerNotAdmin))

	require.NoError(t, h.adapter.ClaimAdmin(ctx, adminB))
	current, err := h.adapter.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, adminB, *current)
	pending, err = h.adapter.GetPendingAdmin()
	require.NoError(t, err)
	assert.Nil(t, pending)

	assert.Equal(t, []events.EventType{
		events.EventTypeAdminUpdated,
		events.EventTypeAdminUpdateRequested,
		events.EventTypeAdminUpdated,
	}, h.recorder.Types())

	last, err := h.recorder.Events()[2].Decode()
	require.NoError(t, err)
	assert.Equal(t, &events.AdminUpdated{OldAdmin: adminA, NewAdmin: adminB}, last)
}

func TestAdapter_UpdateAndDiscard(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()

	assert.True(t, errors.Is(h.adapter.UpdateAdmin(ctx, adminA, types.ZeroAddress), types.ErrInvalidAdminZeroAddress))
	require.NoError(t, h.adapter.UpdateAdmin(ctx, adminA, adminB))
	assert.True(t, errors.Is(h.adapter.UpdateAdmin(ctx, adminA, adminA), types.ErrCallerNotAdmin))

	assert.True(t, errors.Is(h.adapter.DiscardAdmin(ctx, adminA), types.ErrCallerNotAdmin))
	require.NoError(t, h.adapter.DiscardAdmin(ctx, adminB))

	current, err := h.adapter.GetAdmin()
	require.NoError(t, err)
	assert.Nil(t, current)

	// nothing gated can succeed again
	assert.True(t, errors.Is(h.adapter.TransferAdmin(ctx, adminB, adminA), types.ErrCallerNotAdmin))
	assert.True(t, errors.Is(h.adapter.UpdateAdmin(ctx, adminB, adminA), types.ErrCallerNotAdmin))
	assert.True(t, errors.Is(h.adapter.ClaimAdmin(ctx, adminB), types.ErrCallerNotAdmin))
	assert.True(t, errors.Is(h.adapter.DiscardAdmin(ctx, adminB), types.ErrCallerNotAdmin))
	_, err = h.adapter.SetPeer(ctx, adminB, 2, addr(0x11))
	assert.True(t, errors.Is(err, types.ErrCallerNotAdmin))

	assert.Equal(t, events.EventTypeAdminDiscarded, h.recorder.Types()[2])
}

func TestAdapter_SetPeer(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()

	_, err := h.adapter.SetPeer(ctx, stranger, 2, addr(0x11))
	assert.True(t, errors.Is(err, types.ErrCallerNotAdmin))
	_, err = h.adapter.SetPeer(ctx, adminA, 0, addr(0x11))
	assert.True(t, errors.Is(err, types.ErrInvalidChain))
	_, err = h.adapter.SetPeer(ctx, adminA, 2, types.ZeroAddress)
	assert.True(t, errors.Is(err, types.ErrInvalidPeerZeroAddress))

	peer, err := h.adapter.SetPeer(ctx, adminA, 2, addr(0x11))
	require.NoError(t, err)
	assert.Equal(t, &types.Peer{Chain: 2, Contract: addr(0x11)}, peer)

	_, err = h.adapter.SetPeer(ctx, adminA, 2, addr(0x22))
	assert.True(t, errors.Is(err, types.ErrPeerAlreadySet))
	_, err = h.adapter.SetPeer(ctx, adminA, 2, addr(0x11))
	assert.True(t, errors.Is(err, types.ErrPeerAlreadySet))

	got, err := h.adapter.GetPeer(2)
	require.NoError(t, err)
	assert.Equal(t, addr(0x11), got.Contract)
	missing, err := h.adapter.GetPeer(3)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := h.adapter.GetPeers()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	seen := h.recorder.Types()
	assert.Equal(t, events.EventTypePeerAdded, seen[len(seen)-1])
}

func TestAdapter_RecvMessage(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()
	_, err := h.adapter.SetPeer(ctx, adminA, 2, addr(0x11))
	require.NoError(t, err)

	env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 7))
	res, err := h.adapter.RecvMessage(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), res.SrcChain)
	assert.Equal(t, uint64(7), res.Message.Sequence)
	assert.Equal(t, uint64(3), res.EmitterSequence)

	attested := h.endpoint.Attestations()
	require.Len(t, attested, 1)
	assert.Equal(t, types.AttestMessageArgs{
		AdapterID:   h.adapter.ID(),
		SrcChain:    2,
		SrcAddr:     addr(0x0a),
		Sequence:    7,
		DstChain:    1,
		DstAddr:     addr(0x0d),
		PayloadHash: common.HexToHash("0xfeed"),
	}, attested[0])

	t.Run("replay is a duplicate", func(t *testing.T) {
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrDuplicate))
		assert.Len(t, h.endpoint.Attestations(), 1)
	})

	t.Run("raw VAA round trip", func(t *testing.T) {
		raw, err := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 8)).Marshal()
		require.NoError(t, err)
		parsed, err := guardian.SignedEnvelopeFromVAA(raw)
		require.NoError(t, err)
		_, err = h.adapter.RecvMessage(ctx, parsed)
		require.NoError(t, err)
	})
}

func TestAdapter_RecvMessageRejections(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()
	_, err := h.adapter.SetPeer(ctx, adminA, 2, addr(0x11))
	require.NoError(t, err)

	t.Run("emitter is not the registered peer", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x22), outboundPayload(1, 1))
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrInvalidPeer))
	})

	t.Run("no peer for emitter chain", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDBSC, addr(0x11), outboundPayload(1, 1))
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrInvalidPeer))
	})

	t.Run("addressed to another chain", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(5, 1))
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrInvalidChain))
	})

	t.Run("payload of the wrong size", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 1)[:105])
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrInvalidPayloadLength))
	})

	t.Run("below quorum", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 1))
		env.VAA.Signatures = env.VAA.Signatures[:1]
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrBadQuorum))
	})

	t.Run("body tampered after signing", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 1))
		env.VAA.Payload[len(env.VAA.Payload)-1] ^= 0x01
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrBadQuorum))
	})

	t.Run("claimed digest mismatch", func(t *testing.T) {
		env := h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 1))
		wrong := common.HexToHash("0x01")
		env.ClaimedDigest = &wrong
		_, err := h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrInvalidVaa))
	})

	t.Run("empty envelope", func(t *testing.T) {
		_, err := h.adapter.RecvMessage(ctx, &guardian.SignedEnvelope{})
		assert.True(t, errors.Is(err, types.ErrInvalidVaa))
		_, err = h.adapter.RecvMessage(ctx, nil)
		assert.True(t, errors.Is(err, types.ErrInvalidVaa))
	})

	t.Run("signed by another guardian set", func(t *testing.T) {
		other, err := guardian.GenerateDevnetGuardianSet(0, 4)
		require.NoError(t, err)
		env, err := other.Observe(&vaa.VAA{
			Timestamp:      time.Unix(1700000000, 0),
			EmitterChain:   vaa.ChainIDEthereum,
			EmitterAddress: addr(0x11).ToVAAAddress(),
			Payload:        outboundPayload(1, 1),
		})
		require.NoError(t, err)
		_, err = h.adapter.RecvMessage(ctx, env)
		assert.True(t, errors.Is(err, types.ErrBadQuorum))
	})

	assert.Empty(t, h.endpoint.Attestations())
}

func TestAdapter_PickUpMessageWithoutFee(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)
	ctx := context.Background()

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.HexToHash("0xfeed"))
	res, err := h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.TransportSequence)
	assert.True(t, res.Fee.IsZero())
	assert.Empty(t, h.ledger.transfers)

	published := h.bridge.Published()
	require.Len(t, published, 1)
	assert.Equal(t, h.adapter.EmitterAddress(), published[0].Emitter)
	assert.Equal(t, uint8(32), published[0].ConsistencyLevel)
	assert.Equal(t, uint32(0), published[0].Nonce)

	decoded, err := message.Decode(published[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, message.FromOutboxMessage(out), decoded)

	_, err = h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.Error(t, err)
	assert.Len(t, h.bridge.Published(), 1)
}

func TestAdapter_PickUpMessageWithFee(t *testing.T) {
	h := newHarness(t, harnessOptions{fee: 250})
	h.initialize(t)
	ctx := context.Background()

	quote, err := h.adapter.QuoteDeliveryPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), quote.Uint64())

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	res, err := h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), res.Fee.Uint64())

	require.Len(t, h.ledger.transfers, 1)
	assert.Equal(t, uint64(250), h.ledger.transfers[0].Uint64())
	assert.Equal(t, uint64(250), h.ledger.Balance(feeCollector).Uint64())
	assert.Equal(t, uint64(1_000_000-250), h.ledger.Balance(payer).Uint64())
	assert.Len(t, h.bridge.Published(), 1)
}

func TestAdapter_PickUpMessageFeeFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{fee: 250})
	h.initialize(t)
	ctx := context.Background()

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	_, err := h.adapter.PickUpMessage(ctx, out.Ref, stranger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds))

	assert.Empty(t, h.bridge.Published())
	assert.False(t, h.endpoint.IsPickedUp(out.Ref, h.adapter.ID()))
}

func TestAdapter_PickUpMessagePublishFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{fee: 250})
	h.initialize(t)
	ctx := context.Background()

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	boom := errors.New("bridge unavailable")
	h.bridge.FailNext(boom)

	_, err := h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	// fee refunded, entry handed back
	assert.Equal(t, uint64(1_000_000), h.ledger.Balance(payer).Uint64())
	assert.True(t, h.ledger.Balance(feeCollector).IsZero())
	assert.False(t, h.endpoint.IsPickedUp(out.Ref, h.adapter.ID()))
	assert.Empty(t, h.bridge.Published())

	_, err = h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.NoError(t, err)
	assert.Len(t, h.bridge.Published(), 1)
}

func TestAdapter_PickUpMessageCancelled(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.initialize(t)

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.Error(t, err)
	assert.Empty(t, h.bridge.Published())
	assert.False(t, h.endpoint.IsPickedUp(out.Ref, h.adapter.ID()))
}

func TestAdapter_RejectsForeignEndpoint(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, err := h.adapter.Initialize(context.Background(), adminA, addr(0x42), bridgeProgram, config.FinalityFinalized)
	require.NoError(t, err)

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	_, err = h.adapter.PickUpMessage(context.Background(), out.Ref, payer)
	assert.True(t, errors.Is(err, types.ErrCallerNotEndpoint))
}

func TestAdapter_RejectsForeignBridge(t *testing.T) {
	h := newHarness(t, harnessOptions{bridge: addr(0x66)})
	h.initialize(t)
	ctx := context.Background()
	_, err := h.adapter.SetPeer(ctx, adminA, 2, addr(0x11))
	require.NoError(t, err)

	out := h.endpoint.SendMessage(addr(0x0a), 2, addr(0x0d), common.Hash{})
	_, err = h.adapter.PickUpMessage(ctx, out.Ref, payer)
	assert.True(t, errors.Is(err, types.ErrInvalidBridge))
	assert.Empty(t, h.bridge.Published())
	assert.Empty(t, h.ledger.transfers)

	_, err = h.adapter.RecvMessage(ctx, h.inbound(t, vaa.ChainIDEthereum, addr(0x11), outboundPayload(1, 1)))
	assert.True(t, errors.Is(err, types.ErrInvalidBridge))
	assert.Empty(t, h.endpoint.Attestations())
}

// A message relayed by the adapter on one chain is accepted by the adapter on the other.
func TestAdapter_CrossChainRoundTrip(t *testing.T) {
	set, err := guardian.GenerateDevnetGuardianSet(0, 7)
	require.NoError(t, err)
	ctx := context.Background()

	solana := newHarness(t, harnessOptions{chain: vaa.ChainIDSolana, guardians: set})
	ethereum := newHarness(t, harnessOptions{chain: vaa.ChainIDEthereum, guardians: set})
	solana.initialize(t)
	ethereum.initialize(t)

	_, err = ethereum.adapter.SetPeer(ctx, adminA, uint16(vaa.ChainIDSolana), solana.adapter.EmitterAddress())
	require.NoError(t, err)

	out := solana.endpoint.SendMessage(addr(0x0a), uint16(vaa.ChainIDEthereum), addr(0x0d), common.HexToHash("0xabcd"))
	_, err = solana.adapter.PickUpMessage(ctx, out.Ref, payer)
	require.NoError(t, err)

	published := solana.bridge.Published()
	require.Len(t, published, 1)
	raw, err := published[0].Envelope.Marshal()
	require.NoError(t, err)

	env, err := guardian.SignedEnvelopeFromVAA(raw)
	require.NoError(t, err)
	res, err := ethereum.adapter.RecvMessage(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, uint16(vaa.ChainIDSolana), res.SrcChain)

	attested := ethereum.endpoint.Attestations()
	require.Len(t, attested, 1)
	assert.Equal(t, out.SrcAddr, attested[0].SrcAddr)
	assert.Equal(t, out.Sequence, attested[0].Sequence)
	assert.Equal(t, out.PayloadHash, attested[0].PayloadHash)
}
