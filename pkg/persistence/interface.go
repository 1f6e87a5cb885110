package persistence

import "github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"

// IAdapterPersistence defines the keyed store behind the adapter's two record kinds:
// the singleton Config under "config" and one Peer per chain under ("peer", chain).
// All implementations must be thread-safe; the HTTP API calls into the adapter concurrently.
//
// Every mutating method is a single atomic unit of work. Writers that race on the same key are
// rejected, never interleaved.
type IAdapterPersistence interface {
	// Config

	// InitConfig stores the first Config.
	// Returns ErrConfigExists if a Config is already stored.
	InitConfig(cfg *types.Config) error

	// LoadConfig retrieves the Config.
	// Returns nil if the adapter has not been initialized, error only on storage failure.
	LoadConfig() (*types.Config, error)

	// UpdateConfig runs fn against a copy of the stored Config and writes the result back
	// atomically. If fn returns an error nothing is written and that error is returned unchanged.
	// Returns ErrConfigNotFound before initialization, ErrConcurrentUpdate when another writer
	// committed a change to the Config in between.
	UpdateConfig(fn func(cfg *types.Config) error) error

	// Peers

	// InsertPeer stores a peer for a chain that has none.
	// Returns ErrPeerExists if the chain already has a peer; peers are never overwritten.
	InsertPeer(peer *types.Peer) error

	// LoadPeer retrieves the peer registered for chain.
	// Returns nil if none is registered, error only on storage failure.
	LoadPeer(chain uint16) (*types.Peer, error)

	// ListPeers returns every registered peer sorted by chain (ascending).
	// Returns empty slice if no peers exist, error only on storage failure.
	ListPeers() ([]*types.Peer, error)

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return ErrClosed.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
