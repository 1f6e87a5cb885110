package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

func TestConfigSerialization_PreservesOptionalAdmins(t *testing.T) {
	var admin, pending types.UniversalAddress
	admin[0] = 0xaa
	pending[31] = 0xbb

	cfg := &types.Config{
		Admin:        &admin,
		PendingAdmin: &pending,
		Finality:     config.FinalityFinalized,
	}
	data, err := MarshalConfig(cfg)
	require.NoError(t, err)

	loaded, err := UnmarshalConfig(data)
	require.NoError(t, err)
	require.NotNil(t, loaded.Admin)
	require.NotNil(t, loaded.PendingAdmin)
	assert.Equal(t, admin, *loaded.Admin)
	assert.Equal(t, pending, *loaded.PendingAdmin)
	assert.Equal(t, config.FinalityFinalized, loaded.Finality)

	// discarded authority must survive a round trip as nil, not as the zero address
	cfg.Admin = nil
	cfg.PendingAdmin = nil
	data, err = MarshalConfig(cfg)
	require.NoError(t, err)
	loaded, err = UnmarshalConfig(data)
	require.NoError(t, err)
	assert.Nil(t, loaded.Admin)
	assert.Nil(t, loaded.PendingAdmin)
}

func TestSerialization_Errors(t *testing.T) {
	_, err := MarshalConfig(nil)
	require.Error(t, err)
	_, err = UnmarshalConfig(nil)
	require.Error(t, err)
	_, err = MarshalPeer(nil)
	require.Error(t, err)
	_, err = UnmarshalPeer([]byte("{not json"))
	require.Error(t, err)
}

func TestPeerKey(t *testing.T) {
	key := PeerKey(0x0102)
	assert.Equal(t, []byte("peer:\x01\x02"), key)

	chain, ok := ChainFromPeerKey(key)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0102), chain)

	_, ok = ChainFromPeerKey([]byte("config"))
	assert.False(t, ok)
}
