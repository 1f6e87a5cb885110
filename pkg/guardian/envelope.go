package guardian

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

const (
	vaaHeaderSize       = 1 + 4 + 1 // version, guardian set index, signature count
	vaaSignatureSize    = 1 + 65    // guardian index, r ‖ s ‖ v
	SignatureDataLength = 65
)

// SignedEnvelope is an inbound VAA. Guardians sign the digest of its body, so every body field,
// including the emitter, is authenticated once the quorum check passes.
type SignedEnvelope struct {
	VAA *vaa.VAA
	// ClaimedDigest, when set, must match the digest computed from the body.
	ClaimedDigest *common.Hash
}

// SignedEnvelopeFromVAA parses a serialized VAA.
func SignedEnvelopeFromVAA(raw []byte) (*SignedEnvelope, error) {
	v, err := vaa.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidVaa, err)
	}
	v.Signatures = normalizeSignatures(v.Signatures)
	return &SignedEnvelope{VAA: v}, nil
}

// SignedEnvelopeFromBody pairs a VAA body with signatures that travelled separately from it.
func SignedEnvelopeFromBody(guardianSetIndex uint32, body []byte, sigs []*vaa.Signature) (*SignedEnvelope, error) {
	// A header with no signatures lets vaa.Unmarshal parse the body alone.
	raw := make([]byte, vaaHeaderSize, vaaHeaderSize+len(body))
	raw[0] = vaa.SupportedVAAVersion
	binary.BigEndian.PutUint32(raw[1:5], guardianSetIndex)
	raw = append(raw, body...)

	v, err := vaa.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: body: %v", types.ErrInvalidVaa, err)
	}
	for i, sig := range sigs {
		if sig == nil {
			return nil, fmt.Errorf("%w: signature %d is empty", types.ErrInvalidVaa, i)
		}
	}
	v.Signatures = normalizeSignatures(sigs)
	return &SignedEnvelope{VAA: v}, nil
}

// Digest is the value guardians sign.
func (e *SignedEnvelope) Digest() common.Hash {
	return e.VAA.SigningDigest()
}

// Marshal returns the serialized VAA.
func (e *SignedEnvelope) Marshal() ([]byte, error) {
	return e.VAA.Marshal()
}

// Body returns the signed part of the VAA, the form detached signatures travel with.
func (e *SignedEnvelope) Body() ([]byte, error) {
	raw, err := e.VAA.Marshal()
	if err != nil {
		return nil, err
	}
	return raw[vaaHeaderSize+len(e.VAA.Signatures)*vaaSignatureSize:], nil
}

// ParseSignature decodes a detached 66-byte guardian signature (index ‖ r ‖ s ‖ v).
func ParseSignature(b []byte) (*vaa.Signature, error) {
	if len(b) != vaaSignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", types.ErrInvalidVaa, vaaSignatureSize, len(b))
	}
	sig := &vaa.Signature{Index: b[0]}
	copy(sig.Signature[:], b[1:])
	return sig, nil
}

// EncodeSignature is the inverse of ParseSignature.
func EncodeSignature(sig *vaa.Signature) []byte {
	out := make([]byte, 0, vaaSignatureSize)
	out = append(out, sig.Index)
	return append(out, sig.Signature[:]...)
}

// normalizeSignatures copies sigs with recovery ids in the 0/1 form that ecrecover expects;
// some signers emit 27/28.
func normalizeSignatures(sigs []*vaa.Signature) []*vaa.Signature {
	out := make([]*vaa.Signature, len(sigs))
	for i, sig := range sigs {
		if sig == nil {
			continue
		}
		c := *sig
		if c.Signature[SignatureDataLength-1] >= 27 {
			c.Signature[SignatureDataLength-1] -= 27
		}
		out[i] = &c
	}
	return out
}
