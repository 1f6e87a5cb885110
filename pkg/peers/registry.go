package peers

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// Registry is the append-only mapping from remote chain to the contract trusted to emit
// messages from it. Authorization is the caller's job; Register only enforces the data rules.
type Registry struct {
	store  persistence.IAdapterPersistence
	logger *zap.Logger
}

func NewRegistry(store persistence.IAdapterPersistence, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// ValidatePeer checks the registration rules that do not depend on stored state.
func ValidatePeer(chain uint16, contract types.UniversalAddress) error {
	if chain == 0 {
		return types.ErrInvalidChain
	}
	if contract.IsZero() {
		return types.ErrInvalidPeerZeroAddress
	}
	return nil
}

// Register binds chain to contract. A chain can be registered exactly once; a second call
// fails with PeerAlreadySet whatever the contract.
func (r *Registry) Register(chain uint16, contract types.UniversalAddress) (*types.Peer, error) {
	if err := ValidatePeer(chain, contract); err != nil {
		return nil, err
	}

	peer := &types.Peer{Chain: chain, Contract: contract}
	if err := r.store.InsertPeer(peer); err != nil {
		if errors.Is(err, persistence.ErrPeerExists) {
			return nil, types.ErrPeerAlreadySet
		}
		return nil, fmt.Errorf("failed to store peer for chain %d: %w", chain, err)
	}

	r.logger.Info("Registered peer",
		zap.Uint16("chain", chain),
		zap.String("contract", contract.Hex()),
	)
	return peer, nil
}

// Lookup returns the peer for chain, or nil when none is registered.
func (r *Registry) Lookup(chain uint16) (*types.Peer, error) {
	peer, err := r.store.LoadPeer(chain)
	if err != nil {
		return nil, fmt.Errorf("failed to load peer for chain %d: %w", chain, err)
	}
	return peer, nil
}

func (r *Registry) List() ([]*types.Peer, error) {
	return r.store.ListPeers()
}

// RequireEmitter fails with InvalidPeer unless (chain, emitter) is exactly the registered peer.
func (r *Registry) RequireEmitter(chain uint16, emitter types.UniversalAddress) (*types.Peer, error) {
	peer, err := r.Lookup(chain)
	if err != nil {
		return nil, err
	}
	if peer == nil || peer.Contract != emitter {
		return nil, types.ErrInvalidPeer
	}
	return peer, nil
}
