package types

import (
	"errors"
	"fmt"
)

// AdapterError is a rejected operation with a stable code. Codes are surfaced verbatim to API
// clients, so they must not change.
type AdapterError struct {
	Code    string
	Message string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAdapterError(code, message string) *AdapterError {
	return &AdapterError{Code: code, Message: message}
}

var (
	// authority
	ErrCallerNotAdmin          = newAdapterError("CallerNotAdmin", "Caller is not the admin")
	ErrAdminTransferPending    = newAdapterError("AdminTransferPending", "Admin transfer is already pending")
	ErrNoAdminUpdatePending    = newAdapterError("NoAdminUpdatePending", "No admin update is pending")
	ErrInvalidAdminZeroAddress = newAdapterError("InvalidAdminZeroAddress", "Admin cannot be the zero address")
	ErrAlreadyInitialized      = newAdapterError("AlreadyInitialized", "Adapter is already initialized")
	ErrNotInitialized          = newAdapterError("NotInitialized", "Adapter is not initialized")

	// registry
	ErrInvalidChain           = newAdapterError("InvalidChain", "Invalid chain ID")
	ErrInvalidPeerZeroAddress = newAdapterError("InvalidPeerZeroAddress", "Peer contract cannot be the zero address")
	ErrPeerAlreadySet         = newAdapterError("PeerAlreadySet", "Peer already set for chain")
	ErrInvalidPeer            = newAdapterError("InvalidPeer", "Invalid peer for emitter chain")

	// codec and verification
	ErrInvalidPayloadLength = newAdapterError("InvalidPayloadLength", "Invalid payload length")
	ErrInvalidVaa           = newAdapterError("InvalidVaa", "Invalid VAA")
	ErrBadQuorum            = newAdapterError("BadQuorum", "Guardian quorum signature verification failed")

	// collaborators
	ErrCallerNotEndpoint = newAdapterError("CallerNotEndpoint", "Caller is not the endpoint")
	ErrDuplicate         = newAdapterError("Duplicate", "Message already attested")
	ErrInvalidBridge     = newAdapterError("InvalidBridgeProgram", "Transport is not the configured bridge program")

	// request authentication
	ErrUnauthenticated = newAdapterError("Unauthenticated", "Request signature is missing or invalid")
)

var allAdapterErrors = []*AdapterError{
	ErrCallerNotAdmin,
	ErrAdminTransferPending,
	ErrNoAdminUpdatePending,
	ErrInvalidAdminZeroAddress,
	ErrAlreadyInitialized,
	ErrNotInitialized,
	ErrInvalidChain,
	ErrInvalidPeerZeroAddress,
	ErrPeerAlreadySet,
	ErrInvalidPeer,
	ErrInvalidPayloadLength,
	ErrInvalidVaa,
	ErrBadQuorum,
	ErrCallerNotEndpoint,
	ErrDuplicate,
	ErrInvalidBridge,
	ErrUnauthenticated,
}

// AsAdapterError returns the first AdapterError in err's chain.
func AsAdapterError(err error) (*AdapterError, bool) {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrorCode returns the code of the AdapterError in err's chain, or "Internal".
func ErrorCode(err error) string {
	if ae, ok := AsAdapterError(err); ok {
		return ae.Code
	}
	return "Internal"
}

// AdapterErrorFromCode looks up the sentinel for a code received over the wire.
func AdapterErrorFromCode(code string) (*AdapterError, bool) {
	for _, e := range allAdapterErrors {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}
