package persistence

import (
	"encoding/binary"
	"errors"
)

var (
	ErrClosed           = errors.New("persistence layer is closed")
	ErrConfigExists     = errors.New("config already initialized")
	ErrConfigNotFound   = errors.New("config not initialized")
	ErrPeerExists       = errors.New("peer already registered for chain")
	ErrConcurrentUpdate = errors.New("concurrent update of the same record")
)

const (
	// KeyConfig is the semantic key of the singleton Config record.
	KeyConfig = "config"
	// KeyPeerPrefix prefixes every Peer record; the chain id follows as 2 big-endian bytes.
	KeyPeerPrefix = "peer:"
	// KeySchemaVersion records the layout version of stored records.
	KeySchemaVersion     = "metadata:schema_version"
	CurrentSchemaVersion = "v1"
)

// PeerKey returns the storage key for a chain's peer. Big-endian chain bytes keep peers
// ordered by chain under prefix iteration.
func PeerKey(chain uint16) []byte {
	key := make([]byte, len(KeyPeerPrefix)+2)
	copy(key, KeyPeerPrefix)
	binary.BigEndian.PutUint16(key[len(KeyPeerPrefix):], chain)
	return key
}

// ChainFromPeerKey is the inverse of PeerKey.
func ChainFromPeerKey(key []byte) (uint16, bool) {
	if len(key) != len(KeyPeerPrefix)+2 || string(key[:len(KeyPeerPrefix)]) != KeyPeerPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint16(key[len(KeyPeerPrefix):]), true
}
