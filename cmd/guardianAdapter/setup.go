package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/adapter"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint/inMemoryEndpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/events"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	badgerPersistence "github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence/badger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence/memory"
	redisPersistence "github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence/redis"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/wormholeTransport/inMemoryCoreBridge"
)

// devnetPayerBalance is what each --devnet-payers account starts with.
var devnetPayerBalance = uint256.NewInt(1_000_000_000_000_000_000)

type inProcessCollaborators struct {
	endpoint *inMemoryEndpoint.InMemoryEndpoint
	bridge   *inMemoryCoreBridge.InMemoryCoreBridge
	ledger   *ledger.InMemoryLedger
}

func newStore(cfg *config.AdapterServerConfig, l *zap.Logger) (persistence.IAdapterPersistence, error) {
	switch cfg.Persistence.Type {
	case config.PersistenceTypeBadger:
		return badgerPersistence.NewBadgerPersistence(cfg.Persistence.DataPath, l)
	case config.PersistenceTypeRedis:
		return redisPersistence.NewRedisPersistence(&redisPersistence.RedisConfig{
			Address:   cfg.Persistence.Redis.Address,
			Password:  cfg.Persistence.Redis.Password,
			DB:        cfg.Persistence.Redis.DB,
			KeyPrefix: cfg.Persistence.Redis.KeyPrefix,
		}, l)
	case config.PersistenceTypeMemory:
		return memory.NewMemoryPersistence(l), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Persistence.Type)
	}
}

// derivedAddress names an in-process account from a label when no address is configured.
func derivedAddress(label string) types.UniversalAddress {
	return types.UniversalAddress(crypto.Keccak256Hash([]byte(label)))
}

// loadEmitterSigner loads the emitter key. The same key gives the same emitter address across
// restarts, which is what remote peers register.
func loadEmitterSigner(cfg *config.AdapterServerConfig, l *zap.Logger) (*inMemoryTransportSigner.InMemoryTransportSigner, error) {
	var (
		signer *inMemoryTransportSigner.InMemoryTransportSigner
		err    error
	)
	if cfg.EmitterKeyFile != "" {
		signer, err = inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromFile(cfg.EmitterKeyFile, l)
	} else {
		signer, err = inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(cfg.EmitterKey, l)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load emitter key: %w", err)
	}
	return signer, nil
}

func buildDependencies(c *cli.Context, cfg *config.AdapterServerConfig, store persistence.IAdapterPersistence, l *zap.Logger) (*adapter.Dependencies, *inProcessCollaborators, error) {
	gsIndex := uint32(c.Uint("guardian-set-index"))

	guardianAddrs := make([]common.Address, 0, len(cfg.Guardians))
	for _, g := range cfg.Guardians {
		guardianAddrs = append(guardianAddrs, common.HexToAddress(g))
	}
	verifier, err := guardian.NewGuardianSetVerifier(gsIndex, guardianAddrs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create guardian verifier: %w", err)
	}

	var devnetGuardians *guardian.DevnetGuardianSet
	if len(cfg.DevnetGuardianKeys) > 0 {
		devnetGuardians, err = guardian.NewDevnetGuardianSet(gsIndex, cfg.DevnetGuardianKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load devnet guardian keys: %w", err)
		}
		for i, a := range devnetGuardians.Addresses() {
			if a != guardianAddrs[i] {
				return nil, nil, fmt.Errorf("devnet guardian key %d does not match guardian %s", i, guardianAddrs[i].Hex())
			}
		}
		l.Sugar().Warnw("Devnet guardian keys loaded; the in-process core bridge will sign VAAs")
	}

	signer, err := loadEmitterSigner(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	bridgeAddr := derivedAddress("core_bridge")
	if cfg.BridgeAddress != "" {
		if bridgeAddr, err = types.UniversalAddressFromHex(cfg.BridgeAddress); err != nil {
			return nil, nil, fmt.Errorf("invalid bridge address: %w", err)
		}
	}

	fee, err := uint256.FromDecimal(strings.TrimSpace(cfg.MessageFee))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid message fee %q: %w", cfg.MessageFee, err)
	}

	led := ledger.NewInMemoryLedger()
	for _, p := range c.StringSlice("devnet-payers") {
		payer, err := types.UniversalAddressFromHex(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid devnet payer %q: %w", p, err)
		}
		led.Credit(payer, devnetPayerBalance)
	}

	bridge, err := inMemoryCoreBridge.NewInMemoryCoreBridge(inMemoryCoreBridge.Options{
		Address:      bridgeAddr,
		ChainID:      cfg.ChainID,
		MessageFee:   fee,
		FeeCollector: derivedAddress("fee_collector"),
		Ledger:       led,
		Guardians:    devnetGuardians,
	}, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create core bridge: %w", err)
	}

	endpointAddr := derivedAddress("endpoint")
	if s := c.String("endpoint-address"); s != "" {
		if endpointAddr, err = types.UniversalAddressFromHex(s); err != nil {
			return nil, nil, fmt.Errorf("invalid endpoint address: %w", err)
		}
	}
	ep := inMemoryEndpoint.NewInMemoryEndpoint(endpointAddr, l)
	ep.EnableAdapter(signer.Address())

	bus := events.NewBus(l)
	bus.Subscribe(events.NewLoggingSink(l))
	if cfg.EventChannel != "" {
		rp, ok := store.(*redisPersistence.RedisPersistence)
		if !ok {
			return nil, nil, fmt.Errorf("event channel requires redis persistence")
		}
		sink, err := events.NewRedisSink(rp.Client(), cfg.EventChannel, l)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis event sink: %w", err)
		}
		bus.Subscribe(sink.Handle)
	}

	return &adapter.Dependencies{
			Store:     store,
			Verifier:  verifier,
			Endpoint:  ep,
			Transport: bridge,
			Ledger:    led,
			Signer:    signer,
			Emitter:   bus,
		}, &inProcessCollaborators{
			endpoint: ep,
			bridge:   bridge,
			ledger:   led,
		}, nil
}
