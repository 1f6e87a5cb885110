package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// BadgerPersistence is a disk-backed persistence implementation using Badger.
// Each unit of work is a Badger transaction; Badger's optimistic conflict detection rejects a
// transaction whose reads were overwritten by a concurrent commit.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IAdapterPersistence = (*BadgerPersistence)(nil)

// NewBadgerPersistence creates a new Badger-backed persistence layer.
// The database is opened at the specified path with SyncWrites enabled for durability.
// A background goroutine is started for garbage collection.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true // fsync on every write
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(persistence.KeySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(persistence.KeySchemaVersion), []byte(persistence.CurrentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != persistence.CurrentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.CurrentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic value log garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// getValue copies the value at key out of txn. Returns nil if the key does not exist.
func getValue(txn *badgerdb.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func mapConflict(err error) error {
	if errors.Is(err, badgerdb.ErrConflict) {
		return persistence.ErrConcurrentUpdate
	}
	return err
}

// InitConfig stores the first Config
func (b *BadgerPersistence) InitConfig(cfg *types.Config) error {
	data, err := persistence.MarshalConfig(cfg)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		existing, err := getValue(txn, []byte(persistence.KeyConfig))
		if err != nil {
			return err
		}
		if existing != nil {
			return persistence.ErrConfigExists
		}
		return txn.Set([]byte(persistence.KeyConfig), data)
	})
	return mapConflict(err)
}

// LoadConfig retrieves the Config
func (b *BadgerPersistence) LoadConfig() (*types.Config, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		data, err = getValue(txn, []byte(persistence.KeyConfig))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Config: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	return persistence.UnmarshalConfig(data)
}

// UpdateConfig reads, modifies and writes the Config in one transaction
func (b *BadgerPersistence) UpdateConfig(fn func(cfg *types.Config) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		data, err := getValue(txn, []byte(persistence.KeyConfig))
		if err != nil {
			return err
		}
		if data == nil {
			return persistence.ErrConfigNotFound
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
		return txn.Set([]byte(persistence.KeyConfig), updated)
	})
	return mapConflict(err)
}

// InsertPeer stores a peer if its chain has none
func (b *BadgerPersistence) InsertPeer(peer *types.Peer) error {
	data, err := persistence.MarshalPeer(peer)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	key := persistence.PeerKey(peer.Chain)
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		existing, err := getValue(txn, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return persistence.ErrPeerExists
		}
		return txn.Set(key, data)
	})
	return mapConflict(err)
}

// LoadPeer retrieves the peer for a chain
func (b *BadgerPersistence) LoadPeer(chain uint16) (*types.Peer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		data, err = getValue(txn, persistence.PeerKey(chain))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Peer: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	return persistence.UnmarshalPeer(data)
}

// ListPeers returns all peers; big-endian keys make prefix iteration chain-ordered
func (b *BadgerPersistence) ListPeers() ([]*types.Peer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	peers := make([]*types.Peer, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(persistence.KeyPeerPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			peer, err := persistence.UnmarshalPeer(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal Peer, skipping",
					"key", fmt.Sprintf("%x", item.Key()), "error", err)
				continue
			}

			peers = append(peers, peer)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Peers: %w", err)
	}

	return peers, nil
}

// Close stops GC and closes the database
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.gcCancel()
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the database is readable
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(persistence.KeySchemaVersion))
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		return nil
	})
}
