package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
	"go.uber.org/zap"
)

// MemoryPersistence is an in-memory implementation of IAdapterPersistence.
// Intended for tests and local devnet runs.
//
// All data is stored in memory and will be lost when the process exits.
// A single mutex makes every unit of work exclusive, so conflicting writers are serialized
// rather than rejected.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	cfg   *types.Config
	peers map[uint16]*types.Peer

	closed bool
}

var _ persistence.IAdapterPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer.
// Logs a warning since nothing survives a restart.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART",
			"hint", "set ADAPTER_PERSISTENCE_TYPE=badger or redis for durable storage")
	}

	return &MemoryPersistence{
		peers: make(map[uint16]*types.Peer),
	}
}

// InitConfig stores the first Config.
func (m *MemoryPersistence) InitConfig(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("cannot save nil Config")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}
	if m.cfg != nil {
		return persistence.ErrConfigExists
	}

	m.cfg = cfg.Clone()
	return nil
}

// LoadConfig retrieves the Config.
func (m *MemoryPersistence) LoadConfig() (*types.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	return m.cfg.Clone(), nil
}

// UpdateConfig applies fn under the write lock.
func (m *MemoryPersistence) UpdateConfig(fn func(cfg *types.Config) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}
	if m.cfg == nil {
		return persistence.ErrConfigNotFound
	}

	working := m.cfg.Clone()
	if err := fn(working); err != nil {
		return err
	}

	m.cfg = working
	return nil
}

// InsertPeer stores a peer for an unregistered chain.
func (m *MemoryPersistence) InsertPeer(peer *types.Peer) error {
	if peer == nil {
		return fmt.Errorf("cannot save nil Peer")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}
	if _, exists := m.peers[peer.Chain]; exists {
		return persistence.ErrPeerExists
	}

	p := *peer
	m.peers[peer.Chain] = &p
	return nil
}

// LoadPeer retrieves the peer for a chain.
func (m *MemoryPersistence) LoadPeer(chain uint16) (*types.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	peer, exists := m.peers[chain]
	if !exists {
		return nil, nil // Not found is not an error
	}

	p := *peer
	return &p, nil
}

// ListPeers returns all peers sorted by chain.
func (m *MemoryPersistence) ListPeers() ([]*types.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*types.Peer, 0, len(m.peers))
	for _, peer := range m.peers {
		p := *peer
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Chain < result[j].Chain
	})

	return result, nil
}

// Close marks the persistence layer as closed.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
