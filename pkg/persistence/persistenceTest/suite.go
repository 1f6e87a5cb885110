// Package persistenceTest holds the behavior every IAdapterPersistence backend must share.
package persistenceTest

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) persistence.IAdapterPersistence

func addr(b byte) types.UniversalAddress {
	var a types.UniversalAddress
	a[31] = b
	return a
}

func sampleConfig() *types.Config {
	return &types.Config{
		Admin:         addr(1).Ptr(),
		Endpoint:      addr(0xe),
		BridgeProgram: addr(0xb),
		Finality:      config.FinalityConfirmed,
	}
}

// RunSuite exercises the full IAdapterPersistence contract against newStore.
func RunSuite(t *testing.T, newStore Factory) {
	t.Run("ConfigLifecycle", func(t *testing.T) { testConfigLifecycle(t, newStore(t)) })
	t.Run("UpdateConfigAbortsOnError", func(t *testing.T) { testUpdateConfigAbort(t, newStore(t)) })
	t.Run("PeersAppendOnly", func(t *testing.T) { testPeersAppendOnly(t, newStore(t)) })
	t.Run("ListPeersSorted", func(t *testing.T) { testListPeersSorted(t, newStore(t)) })
	t.Run("ConcurrentPeerInsert", func(t *testing.T) { testConcurrentPeerInsert(t, newStore(t)) })
	t.Run("ConcurrentConfigUpdates", func(t *testing.T) { testConcurrentConfigUpdates(t, newStore(t)) })
	t.Run("Close", func(t *testing.T) { testClose(t, newStore(t)) })
}

func testConfigLifecycle(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.HealthCheck())

	cfg, err := store.LoadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg, "uninitialized store must return nil config")

	err = store.UpdateConfig(func(*types.Config) error { return nil })
	require.ErrorIs(t, err, persistence.ErrConfigNotFound)

	require.NoError(t, store.InitConfig(sampleConfig()))
	require.ErrorIs(t, store.InitConfig(sampleConfig()), persistence.ErrConfigExists)

	err = store.UpdateConfig(func(cfg *types.Config) error {
		cfg.PendingAdmin = addr(2).Ptr()
		return nil
	})
	require.NoError(t, err)

	loaded, err := store.LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, addr(1), *loaded.Admin)
	require.NotNil(t, loaded.PendingAdmin)
	assert.Equal(t, addr(2), *loaded.PendingAdmin)
	assert.Equal(t, config.FinalityConfirmed, loaded.Finality)

	// mutating a loaded copy must not leak into the store
	loaded.Admin = nil
	again, err := store.LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, again.Admin)
}

func testUpdateConfigAbort(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.InitConfig(sampleConfig()))

	boom := errors.New("rejected")
	err := store.UpdateConfig(func(cfg *types.Config) error {
		cfg.Admin = nil
		return boom
	})
	require.ErrorIs(t, err, boom)

	loaded, err := store.LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded.Admin, "failed unit of work must not commit")
}

func testPeersAppendOnly(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	peer, err := store.LoadPeer(2)
	require.NoError(t, err)
	assert.Nil(t, peer)

	require.NoError(t, store.InsertPeer(&types.Peer{Chain: 2, Contract: addr(0x11)}))
	err = store.InsertPeer(&types.Peer{Chain: 2, Contract: addr(0x22)})
	require.ErrorIs(t, err, persistence.ErrPeerExists)

	peer, err = store.LoadPeer(2)
	require.NoError(t, err)
	require.NotNil(t, peer)
	assert.Equal(t, addr(0x11), peer.Contract)
}

func testListPeersSorted(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	peers, err := store.ListPeers()
	require.NoError(t, err)
	assert.Empty(t, peers)

	for _, chain := range []uint16{300, 2, 0x0100, 23} {
		require.NoError(t, store.InsertPeer(&types.Peer{Chain: chain, Contract: addr(byte(chain))}))
	}

	peers, err = store.ListPeers()
	require.NoError(t, err)
	require.Len(t, peers, 4)
	chains := make([]uint16, 0, len(peers))
	for _, p := range peers {
		chains = append(chains, p.Chain)
	}
	assert.Equal(t, []uint16{2, 23, 0x0100, 300}, chains)
}

func testConcurrentPeerInsert(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	const writers = 8
	var wg sync.WaitGroup
	var committed atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.InsertPeer(&types.Peer{Chain: 5, Contract: addr(byte(i + 1))})
			if err == nil {
				committed.Add(1)
				return
			}
			if !errors.Is(err, persistence.ErrPeerExists) && !errors.Is(err, persistence.ErrConcurrentUpdate) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), committed.Load(), "exactly one registration may win")
}

func testConcurrentConfigUpdates(t *testing.T, store persistence.IAdapterPersistence) {
	defer func() { _ = store.Close() }()

	require.NoError(t, store.InitConfig(sampleConfig()))

	// every writer proposes only if nothing is pending; at most one can commit
	const writers = 8
	var wg sync.WaitGroup
	var committed atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.UpdateConfig(func(cfg *types.Config) error {
				if cfg.PendingAdmin != nil {
					return types.ErrAdminTransferPending
				}
				cfg.PendingAdmin = addr(byte(i + 10)).Ptr()
				return nil
			})
			if err == nil {
				committed.Add(1)
				return
			}
			if !errors.Is(err, types.ErrAdminTransferPending) && !errors.Is(err, persistence.ErrConcurrentUpdate) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), committed.Load())
}

func testClose(t *testing.T, store persistence.IAdapterPersistence) {
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "Close must be idempotent")

	require.ErrorIs(t, store.HealthCheck(), persistence.ErrClosed)
	_, err := store.LoadConfig()
	require.ErrorIs(t, err, persistence.ErrClosed)
	require.ErrorIs(t, store.InitConfig(sampleConfig()), persistence.ErrClosed)
	_, err = store.ListPeers()
	require.ErrorIs(t, err, persistence.ErrClosed)
	require.ErrorIs(t, store.InsertPeer(&types.Peer{Chain: 1, Contract: addr(1)}), persistence.ErrClosed)
}
