package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// MarshalConfig serializes a Config to JSON bytes.
func MarshalConfig(cfg *types.Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cannot marshal nil Config")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Config to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalConfig deserializes a Config from JSON bytes.
func UnmarshalConfig(data []byte) (*types.Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var cfg types.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Config: %w", err)
	}

	return &cfg, nil
}

// MarshalPeer serializes a Peer to JSON bytes.
func MarshalPeer(peer *types.Peer) ([]byte, error) {
	if peer == nil {
		return nil, fmt.Errorf("cannot marshal nil Peer")
	}

	return json.Marshal(peer)
}

// UnmarshalPeer deserializes a Peer from JSON bytes.
func UnmarshalPeer(data []byte) (*types.Peer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var peer types.Peer
	if err := json.Unmarshal(data, &peer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Peer: %w", err)
	}

	return &peer, nil
}
