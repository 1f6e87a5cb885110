package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// UniversalAddressLength is the width of every cross-chain address.
const UniversalAddressLength = 32

// UniversalAddress is a 32-byte chain-agnostic address. EVM addresses are left-padded with zeros.
type UniversalAddress [UniversalAddressLength]byte

// ZeroAddress is the all-zero universal address, never a valid admin or peer.
var ZeroAddress UniversalAddress

func (a UniversalAddress) IsZero() bool {
	return a == ZeroAddress
}

func (a UniversalAddress) Bytes() []byte {
	return a[:]
}

func (a UniversalAddress) Hex() string {
	return hexutil.Encode(a[:])
}

func (a UniversalAddress) String() string {
	return a.Hex()
}

// ToVAAAddress converts to the Wormhole SDK representation.
func (a UniversalAddress) ToVAAAddress() vaa.Address {
	return vaa.Address(a)
}

// Ptr returns a pointer to a copy of a.
func (a UniversalAddress) Ptr() *UniversalAddress {
	return &a
}

func (a UniversalAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

func (a *UniversalAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("universal address must be a hex string: %w", err)
	}
	parsed, err := UniversalAddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UniversalAddressFromHex parses a 0x-prefixed (or bare) hex string of up to 32 bytes.
// Shorter inputs, such as 20-byte EVM addresses, are left-padded.
func UniversalAddressFromHex(s string) (UniversalAddress, error) {
	var out UniversalAddress
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, fmt.Errorf("invalid universal address %q: %w", s, err)
	}
	if len(b) > UniversalAddressLength {
		return out, fmt.Errorf("universal address too long: %d bytes", len(b))
	}
	copy(out[UniversalAddressLength-len(b):], b)
	return out, nil
}

// UniversalAddressFromBytes left-pads b into a universal address.
func UniversalAddressFromBytes(b []byte) (UniversalAddress, error) {
	var out UniversalAddress
	if len(b) > UniversalAddressLength {
		return out, fmt.Errorf("universal address too long: %d bytes", len(b))
	}
	copy(out[UniversalAddressLength-len(b):], b)
	return out, nil
}

func UniversalAddressFromEVM(addr common.Address) UniversalAddress {
	var out UniversalAddress
	copy(out[UniversalAddressLength-common.AddressLength:], addr.Bytes())
	return out
}

func UniversalAddressFromVAA(addr vaa.Address) UniversalAddress {
	return UniversalAddress(addr)
}
