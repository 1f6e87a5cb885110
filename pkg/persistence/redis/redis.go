package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key layout in Redis
const (
	keyNamespace = "wga:"
	keySetPeers  = "peers:index" // Redis has no native prefix iteration
	opTimeout    = 5 * time.Second
)

// RedisPersistence is a persistence implementation backed by Redis, suitable for deployments
// where several adapter processes share one store. Units of work use WATCH/MULTI so a
// concurrent write to the same key aborts the transaction instead of being overwritten.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IAdapterPersistence = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key for multi-tenant setups, e.g. "solana:" yields
	// keys like "solana:wga:config".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

// Client exposes the underlying connection so other components (the event sink) can share it.
func (r *RedisPersistence) Client() redis.UniversalClient {
	return r.client
}

func (r *RedisPersistence) key(k string) string {
	return r.keyPrefix + keyNamespace + k
}

func (r *RedisPersistence) peerKey(chain uint16) string {
	return r.key(fmt.Sprintf("%s%04x", persistence.KeyPeerPrefix, chain))
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.key(persistence.KeySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, persistence.CurrentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != persistence.CurrentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.CurrentSchemaVersion)
	}

	return nil
}

func mapTxError(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return persistence.ErrConcurrentUpdate
	}
	return err
}

// InitConfig stores the first Config with SETNX
func (r *RedisPersistence) InitConfig(cfg *types.Config) error {
	data, err := persistence.MarshalConfig(cfg)
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	created, err := r.client.SetNX(ctx, r.key(persistence.KeyConfig), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save Config: %w", err)
	}
	if !created {
		return persistence.ErrConfigExists
	}
	return nil
}

// LoadConfig retrieves the Config
func (r *RedisPersistence) LoadConfig() (*types.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(persistence.KeyConfig)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Config: %w", err)
	}

	return persistence.UnmarshalConfig(data)
}

// UpdateConfig runs fn inside WATCH on the config key
func (r *RedisPersistence) UpdateConfig(fn func(cfg *types.Config) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := r.key(persistence.KeyConfig)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return persistence.ErrConfigNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load Config: %w", err)
		}

		cfg, err := persistence.UnmarshalConfig(data)
		if err != nil {
			return err
		}
		if err := fn(cfg); err != nil {
			return err
		}

		updated, err := persistence.MarshalConfig(cfg)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)

	return mapTxError(err)
}

// InsertPeer stores the peer and indexes its chain in one MULTI block
func (r *RedisPersistence) InsertPeer(peer *types.Peer) error {
	data, err := persistence.MarshalPeer(peer)
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := r.peerKey(peer.Chain)
	indexKey := r.key(keySetPeers)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check Peer: %w", err)
		}
		if exists > 0 {
			return persistence.ErrPeerExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, indexKey, peer.Chain)
			return nil
		})
		return err
	}, key)

	return mapTxError(err)
}

// LoadPeer retrieves the peer for a chain
func (r *RedisPersistence) LoadPeer(chain uint16) (*types.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.peerKey(chain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Peer: %w", err)
	}

	return persistence.UnmarshalPeer(data)
}

// ListPeers returns all peers sorted by chain
func (r *RedisPersistence) ListPeers() ([]*types.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	members, err := r.client.SMembers(ctx, r.key(keySetPeers)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list Peer chains: %w", err)
	}

	peers := make([]*types.Peer, 0, len(members))
	if len(members) == 0 {
		return peers, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		chain, err := strconv.ParseUint(m, 10, 16)
		if err != nil {
			r.logger.Sugar().Warnw("Invalid chain in peer index, skipping", "member", m)
			continue
		}
		keys = append(keys, r.peerKey(uint16(chain)))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Peers: %w", err)
	}

	for i, val := range values {
		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Missing or unexpected value for indexed Peer", "key", keys[i])
			continue
		}

		peer, err := persistence.UnmarshalPeer([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal Peer, skipping", "key", keys[i], "error", err)
			continue
		}

		peers = append(peers, peer)
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Chain < peers[j].Chain
	})

	return peers, nil
}

// Close closes the Redis client
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema key
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := r.client.Get(ctx, r.key(persistence.KeySchemaVersion)).Err(); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
