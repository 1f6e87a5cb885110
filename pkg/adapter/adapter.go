package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/admin"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/events"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/metrics"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/peers"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport"
)

// Operation names used for metrics and logs.
const (
	OpInitialize    = types.OpInitialize
	OpTransferAdmin = types.OpTransferAdmin
	OpClaimAdmin    = types.OpClaimAdmin
	OpUpdateAdmin   = types.OpUpdateAdmin
	OpDiscardAdmin  = types.OpDiscardAdmin
	OpSetPeer       = types.OpSetPeer
	OpPickUpMessage = types.OpPickUpMessage
	OpRecvMessage   = "recv_message"
)

// Dependencies are the collaborators an Adapter drives. All are required except Metrics.
type Dependencies struct {
	Store     persistence.IAdapterPersistence
	Verifier  guardian.IQuorumVerifier
	Endpoint  endpoint.IEndpoint
	Transport wormholeTransport.ITransport
	Ledger    ledger.ILedger
	Signer    transportSigner.ITransportSigner
	Emitter   events.IEventEmitter
	Metrics   *metrics.AdapterMetrics
}

type Config struct {
	LocalChain vaa.ChainID
	Logger     *zap.Logger
}

// Adapter is the Wormhole guardian adapter: it relays endpoint messages out through the core
// bridge and attests guardian-signed messages back into the endpoint.
type Adapter struct {
	localChain vaa.ChainID

	store     persistence.IAdapterPersistence
	peers     *peers.Registry
	verifier  guardian.IQuorumVerifier
	endpoint  endpoint.IEndpoint
	transport wormholeTransport.ITransport
	ledger    ledger.ILedger
	signer    transportSigner.ITransportSigner
	emitter   events.IEventEmitter
	metrics   *metrics.AdapterMetrics
	logger    *zap.Logger

	// adminMu serializes Config and peer writes from this process. Writers in other processes
	// are caught by the store's conflict detection.
	adminMu sync.Mutex
}

func NewAdapter(cfg Config, deps Dependencies) (*Adapter, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Verifier == nil:
		return nil, errors.New("verifier is required")
	case deps.Endpoint == nil:
		return nil, errors.New("endpoint is required")
	case deps.Transport == nil:
		return nil, errors.New("transport is required")
	case deps.Ledger == nil:
		return nil, errors.New("ledger is required")
	case deps.Signer == nil:
		return nil, errors.New("signer is required")
	case deps.Emitter == nil:
		return nil, errors.New("event emitter is required")
	}
	if cfg.LocalChain == vaa.ChainIDUnset {
		return nil, errors.New("local chain id is required")
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return &Adapter{
		localChain: cfg.LocalChain,
		store:      deps.Store,
		peers:      peers.NewRegistry(deps.Store, l),
		verifier:   deps.Verifier,
		endpoint:   deps.Endpoint,
		transport:  deps.Transport,
		ledger:     deps.Ledger,
		signer:     deps.Signer,
		emitter:    deps.Emitter,
		metrics:    deps.Metrics,
		logger:     l,
	}, nil
}

// ID is the identity the adapter presents to the endpoint. It is the emitter address, so it is
// stable for as long as the emitter key is.
func (a *Adapter) ID() types.UniversalAddress {
	return a.signer.Address()
}

func (a *Adapter) LocalChain() vaa.ChainID {
	return a.localChain
}

// Initialize creates the Config. It can succeed exactly once per store.
func (a *Adapter) Initialize(ctx context.Context, adminAddr, endpointAddr, bridgeProgram types.UniversalAddress, finality config.Finality) (cfg *types.Config, err error) {
	defer a.observe(OpInitialize, time.Now(), &err)

	a.adminMu.Lock()
	defer a.adminMu.Unlock()

	cfg, err = admin.Initialize(adminAddr, endpointAddr, bridgeProgram, finality)
	if err != nil {
		return nil, err
	}
	if err := a.store.InitConfig(cfg); err != nil {
		if errors.Is(err, persistence.ErrConfigExists) {
			return nil, types.ErrAlreadyInitialized
		}
		return nil, fmt.Errorf("failed to store config: %w", err)
	}

	a.logger.Sugar().Infow("Adapter initialized",
		"admin", adminAddr.Hex(),
		"endpoint", endpointAddr.Hex(),
		"bridgeProgram", bridgeProgram.Hex(),
		"finality", finality,
	)
	a.emit(ctx, &events.AdminUpdated{NewAdmin: adminAddr})
	return cfg.Clone(), nil
}

func (a *Adapter) TransferAdmin(ctx context.Context, caller, newAdmin types.UniversalAddress) (err error) {
	defer a.observe(OpTransferAdmin, time.Now(), &err)

	var ev *events.AdminUpdateRequested
	err = a.updateConfig(func(cfg *types.Config) error {
		var terr error
		ev, terr = admin.TransferAdmin(cfg, caller, newAdmin)
		return terr
	})
	if err != nil {
		return err
	}
	a.emit(ctx, ev)
	return nil
}

func (a *Adapter) ClaimAdmin(ctx context.Context, caller types.UniversalAddress) (err error) {
	defer a.observe(OpClaimAdmin, time.Now(), &err)

	var ev *events.AdminUpdated
	err = a.updateConfig(func(cfg *types.Config) error {
		var terr error
		ev, terr = admin.ClaimAdmin(cfg, caller)
		return terr
	})
	if err != nil {
		return err
	}
	a.emit(ctx, ev)
	return nil
}

func (a *Adapter) UpdateAdmin(ctx context.Context, caller, newAdmin types.UniversalAddress) (err error) {
	defer a.observe(OpUpdateAdmin, time.Now(), &err)

	var ev *events.AdminUpdated
	err = a.updateConfig(func(cfg *types.Config) error {
		var terr error
		ev, terr = admin.UpdateAdmin(cfg, caller, newAdmin)
		return terr
	})
	if err != nil {
		return err
	}
	a.emit(ctx, ev)
	return nil
}

func (a *Adapter) DiscardAdmin(ctx context.Context, caller types.UniversalAddress) (err error) {
	defer a.observe(OpDiscardAdmin, time.Now(), &err)

	var ev *events.AdminDiscarded
	err = a.updateConfig(func(cfg *types.Config) error {
		var terr error
		ev, terr = admin.DiscardAdmin(cfg, caller)
		return terr
	})
	if err != nil {
		return err
	}
	a.logger.Sugar().Warnw("Admin authority discarded", "admin", ev.Admin.Hex())
	a.emit(ctx, ev)
	return nil
}

// SetPeer registers the trusted contract for a remote chain. Only the admin may call it, and a
// chain can be registered once.
func (a *Adapter) SetPeer(ctx context.Context, caller types.UniversalAddress, chain uint16, contract types.UniversalAddress) (peer *types.Peer, err error) {
	defer a.observe(OpSetPeer, time.Now(), &err)

	a.adminMu.Lock()
	defer a.adminMu.Unlock()

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := admin.RequireAdmin(cfg, caller); err != nil {
		return nil, err
	}
	peer, err = a.peers.Register(chain, contract)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, &events.PeerAdded{Chain: peer.Chain, PeerContract: peer.Contract})
	return peer, nil
}

// GetConfig returns a copy of the Config, or NotInitialized.
func (a *Adapter) GetConfig() (*types.Config, error) {
	return a.loadConfig()
}

// GetAdmin returns the admin, or nil once authority is discarded.
func (a *Adapter) GetAdmin() (*types.UniversalAddress, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Admin, nil
}

func (a *Adapter) GetPendingAdmin() (*types.UniversalAddress, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.PendingAdmin, nil
}

// GetPeer returns the peer for chain, or nil.
func (a *Adapter) GetPeer(chain uint16) (*types.Peer, error) {
	return a.peers.Lookup(chain)
}

func (a *Adapter) GetPeers() ([]*types.Peer, error) {
	return a.peers.List()
}

// ConsistencyLevel is the core bridge consistency level publications are made with.
func (a *Adapter) ConsistencyLevel() (uint8, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.Finality.Uint8()
}

func (a *Adapter) AdapterType() string {
	return types.AdapterType
}

// QuoteDeliveryPrice is what a single pick up currently costs the payer.
func (a *Adapter) QuoteDeliveryPrice(ctx context.Context) (*uint256.Int, error) {
	return a.transport.MessageFee(ctx)
}

// EmitterAddress is the address remote peers must register for this adapter.
func (a *Adapter) EmitterAddress() types.UniversalAddress {
	return a.signer.Address()
}

func (a *Adapter) HealthCheck() error {
	return a.store.HealthCheck()
}

func (a *Adapter) loadConfig() (*types.Config, error) {
	cfg, err := a.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg == nil {
		return nil, types.ErrNotInitialized
	}
	return cfg, nil
}

func (a *Adapter) updateConfig(fn func(cfg *types.Config) error) error {
	a.adminMu.Lock()
	defer a.adminMu.Unlock()

	err := a.store.UpdateConfig(fn)
	if errors.Is(err, persistence.ErrConfigNotFound) {
		return types.ErrNotInitialized
	}
	return err
}

// requireEndpoint checks the wired endpoint is the one the Config trusts.
func (a *Adapter) requireEndpoint(cfg *types.Config) error {
	if a.endpoint.Address() != cfg.Endpoint {
		return types.ErrCallerNotEndpoint
	}
	return nil
}

// requireTransport checks the wired core bridge is the one the Config trusts.
func (a *Adapter) requireTransport(cfg *types.Config) error {
	if a.transport.Address() != cfg.BridgeProgram {
		return fmt.Errorf("%w: configured %s, wired %s", types.ErrInvalidBridge, cfg.BridgeProgram.Hex(), a.transport.Address().Hex())
	}
	return nil
}

// emit publishes an event for a change that has already committed. Delivery failures are logged
// only.
func (a *Adapter) emit(ctx context.Context, p events.Payload) {
	ev, err := events.NewEvent(p)
	if err != nil {
		a.logger.Sugar().Errorw("Failed to build event", "type", p.EventType(), "error", err)
		return
	}
	if err := a.emitter.Emit(ctx, ev); err != nil {
		a.logger.Sugar().Errorw("Failed to emit event", "type", ev.Type, "id", ev.ID, "error", err)
	}
}

func (a *Adapter) observe(op string, start time.Time, errp *error) {
	a.metrics.ObserveOperation(op, start, *errp)
	if *errp != nil {
		a.logger.Sugar().Debugw("Operation rejected", "operation", op, "code", types.ErrorCode(*errp), "error", *errp)
	}
}

func chainLabel(chain uint16) string {
	return vaa.ChainID(chain).String()
}
