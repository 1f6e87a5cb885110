package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/adapter"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/logger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/metrics"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/node"
)

func main() {
	app := &cli.App{
		Name:  "guardian-adapter",
		Usage: "Wormhole guardian adapter server",
		Description: `Relays endpoint messages through the Wormhole core bridge and attests
guardian-signed messages from registered peers back into the endpoint.

This server provides:
- Two-step admin authority over the adapter configuration
- An append-only registry of trusted peers, one per remote chain
- Outbound relay: pick up, pay the message fee, publish under a stable emitter
- Inbound verification: guardian quorum, peer check, destination chain check, attest`,
		Version: "0.0.1",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP API port",
				EnvVars: []string{config.EnvAdapterPort},
			},
			&cli.IntFlag{
				Name:    "metrics-port",
				Value:   9090,
				Usage:   "Prometheus metrics port (0 disables)",
				EnvVars: []string{config.EnvAdapterMetricsPort},
			},
			&cli.StringFlag{
				Name:    "chain-id",
				Aliases: []string{"chain"},
				Value:   config.DefaultChainID.String(),
				Usage:   "Local Wormhole chain, by id or name",
				EnvVars: []string{config.EnvAdapterChainID},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Value:   string(config.PersistenceTypeMemory),
				Usage:   fmt.Sprintf("Persistence backend: %s", config.GetSupportedPersistenceTypesString()),
				EnvVars: []string{config.EnvAdapterPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				EnvVars: []string{config.EnvAdapterDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port)",
				EnvVars: []string{config.EnvAdapterRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvAdapterRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvAdapterRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvAdapterRedisKeyPrefix},
			},
			&cli.StringFlag{
				Name:    "event-channel",
				Usage:   "Redis pub/sub channel for adapter events (requires redis persistence)",
				EnvVars: []string{config.EnvAdapterEventChannel},
			},
			&cli.StringSliceFlag{
				Name:     "guardians",
				Usage:    "Guardian set addresses, in guardian index order",
				EnvVars:  []string{config.EnvAdapterGuardians},
				Required: true,
			},
			&cli.UintFlag{
				Name:  "guardian-set-index",
				Usage: "Index of the guardian set",
			},
			&cli.StringSliceFlag{
				Name:    "devnet-guardian-keys",
				Usage:   "Guardian private keys for the in-process core bridge (devnet only)",
				EnvVars: []string{config.EnvAdapterGuardianKeys},
			},
			&cli.StringFlag{
				Name:    "emitter-key",
				Usage:   "Emitter private key (hex); prefer --emitter-key-file or the environment",
				EnvVars: []string{config.EnvAdapterEmitterKey},
			},
			&cli.StringFlag{
				Name:    "emitter-key-file",
				Usage:   "File holding the emitter private key (hex)",
				EnvVars: []string{config.EnvAdapterEmitterKeyFile},
			},
			&cli.StringFlag{
				Name:    "bridge-address",
				Usage:   "Core bridge program address (hex); derived when empty",
				EnvVars: []string{config.EnvAdapterBridgeAddress},
			},
			&cli.StringFlag{
				Name:    "message-fee",
				Value:   "0",
				Usage:   "Core bridge message fee (decimal)",
				EnvVars: []string{config.EnvAdapterMessageFee},
			},
			&cli.StringFlag{
				Name:  "endpoint-address",
				Usage: "Identity of the in-process endpoint (hex); derived when empty",
			},
			&cli.StringSliceFlag{
				Name:  "devnet-payers",
				Usage: "Accounts funded on the in-process ledger (devnet only)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvAdapterVerbose},
			},
		},
		Action: runGuardianAdapter,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runGuardianAdapter(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	adapterConfig, err := parseAdapterConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := adapterConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := newStore(adapterConfig, l)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Sugar().Errorw("Failed to close persistence", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, collaborators, err := buildDependencies(c, adapterConfig, store, l)
	if err != nil {
		return err
	}
	deps.Metrics = metrics.NewAdapterMetrics(registry)

	a, err := adapter.NewAdapter(adapter.Config{LocalChain: adapterConfig.ChainID, Logger: l}, *deps)
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	l.Sugar().Infow("Guardian adapter configured",
		"chain", adapterConfig.ChainID.String(),
		"persistence", adapterConfig.Persistence.Type,
		"guardians", len(adapterConfig.Guardians),
		"emitter", a.EmitterAddress().Hex(),
		"endpoint", collaborators.endpoint.Address().Hex(),
		"bridge", collaborators.bridge.Address().Hex(),
		"feeCollector", collaborators.bridge.FeeCollector().Hex(),
	)

	n := node.NewNode(node.Config{
		Port:        adapterConfig.Port,
		MetricsPort: adapterConfig.MetricsPort,
		Gatherer:    registry,
		Logger:      l,
	}, a)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Sugar().Infow("Available endpoints",
		"admin", "POST /admin/*",
		"peers", "GET|POST /peers",
		"messages", "POST /messages/pickup, POST /messages/recv",
		"config", "GET /config")

	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("adapter stopped: %w", err)
	}
	l.Sugar().Info("Guardian adapter stopped")
	return nil
}

func parseAdapterConfig(c *cli.Context) (*config.AdapterServerConfig, error) {
	chainID, err := config.ParseChainID(c.String("chain-id"))
	if err != nil {
		return nil, err
	}

	cfg := &config.AdapterServerConfig{
		Port:        c.Int("port"),
		MetricsPort: c.Int("metrics-port"),
		ChainID:     chainID,
		Persistence: config.PersistenceConfig{
			Type:     config.PersistenceType(c.String("persistence-type")),
			DataPath: c.String("data-path"),
		},
		Guardians:          c.StringSlice("guardians"),
		DevnetGuardianKeys: c.StringSlice("devnet-guardian-keys"),
		EmitterKey:         c.String("emitter-key"),
		EmitterKeyFile:     c.String("emitter-key-file"),
		BridgeAddress:      c.String("bridge-address"),
		MessageFee:         c.String("message-fee"),
		EventChannel:       c.String("event-channel"),
		Debug:              c.Bool("verbose"),
	}
	if cfg.Persistence.Type == config.PersistenceTypeRedis {
		cfg.Persistence.Redis = &config.RedisPersistenceConfig{
			Address:   c.String("redis-address"),
			Password:  c.String("redis-password"),
			DB:        c.Int("redis-db"),
			KeyPrefix: c.String("redis-key-prefix"),
		}
	}
	return cfg, nil
}
