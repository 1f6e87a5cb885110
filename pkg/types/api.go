package types

import "github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"

// Request and response bodies of the adapter HTTP API.

// Operations a signed request can authorize.
const (
	OpInitialize    = "initialize"
	OpTransferAdmin = "transfer_admin"
	OpClaimAdmin    = "claim_admin"
	OpUpdateAdmin   = "update_admin"
	OpDiscardAdmin  = "discard_admin"
	OpSetPeer       = "set_peer"
	OpPickUpMessage = "pick_up_message"
)

// RequestHeader is part of every signed request payload. Op binds the signature to one
// operation, and Nonce plus Expiry keep it from being replayed.
type RequestHeader struct {
	Op     string `json:"op"`
	Nonce  string `json:"nonce"`
	Expiry int64  `json:"expiry"` // unix seconds
}

func (h RequestHeader) Header() RequestHeader {
	return h
}

// SignedRequest is implemented by every request type that embeds RequestHeader.
type SignedRequest interface {
	Header() RequestHeader
}

// The signer of an initialize request pays for it; it need not be the admin.
type InitializeRequest struct {
	RequestHeader
	Admin         UniversalAddress `json:"admin"`
	Endpoint      UniversalAddress `json:"endpoint"`
	BridgeProgram UniversalAddress `json:"bridgeProgram"`
	Finality      config.Finality  `json:"finality"`
}

// AdminRequest is signed by the caller; the recovered signer is the caller.
type AdminRequest struct {
	RequestHeader
	NewAdmin UniversalAddress `json:"newAdmin,omitempty"`
}

type SetPeerRequest struct {
	RequestHeader
	Chain    uint16           `json:"chain"`
	Contract UniversalAddress `json:"contract"`
}

// PickUpRequest is signed by the account that pays the message fee.
type PickUpRequest struct {
	RequestHeader
	Ref string `json:"ref"`
}

type PickUpResponse struct {
	Ref               string `json:"ref"`
	TransportSequence uint64 `json:"transportSequence"`
	Fee               string `json:"fee"`
}

// RecvRequest carries either a full serialized VAA or a body with detached signatures.
type RecvRequest struct {
	VAA        string   `json:"vaa,omitempty"`
	Body       string   `json:"body,omitempty"`
	Signatures []string `json:"signatures,omitempty"`
	Digest     string   `json:"digest,omitempty"`
	// GuardianSetIndex accompanies detached signatures; a full VAA carries its own.
	GuardianSetIndex uint32 `json:"guardianSetIndex,omitempty"`
}

type RecvResponse struct {
	SrcChain uint16 `json:"srcChain"`
	Sequence uint64 `json:"sequence"`
}

type QuoteResponse struct {
	Fee string `json:"fee"`
}

type ConfigResponse struct {
	Config           *Config          `json:"config"`
	AdapterType      string           `json:"adapterType"`
	ConsistencyLevel uint8            `json:"consistencyLevel"`
	EmitterAddress   UniversalAddress `json:"emitterAddress"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
