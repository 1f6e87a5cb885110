package node

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/guardian"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req types.InitializeRequest
	payer, ok := s.decodeSigned(w, r, types.OpInitialize, &req)
	if !ok {
		return
	}
	if _, err := req.Finality.Uint8(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Code: CodeBadRequest, Message: err.Error()})
		return
	}

	if _, err := s.adapter.Initialize(r.Context(), req.Admin, req.Endpoint, req.BridgeProgram, req.Finality); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Sugar().Infow("Adapter initialized over API", "payer", payer.Hex(), "admin", req.Admin.Hex())
	s.writeConfig(w, http.StatusCreated)
}

func (s *Server) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.AdminRequest
	caller, ok := s.decodeSigned(w, r, types.OpTransferAdmin, &req)
	if !ok {
		return
	}
	if err := s.adapter.TransferAdmin(r.Context(), caller, req.NewAdmin); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeConfig(w, http.StatusOK)
}

func (s *Server) handleClaimAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.AdminRequest
	caller, ok := s.decodeSigned(w, r, types.OpClaimAdmin, &req)
	if !ok {
		return
	}
	if err := s.adapter.ClaimAdmin(r.Context(), caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeConfig(w, http.StatusOK)
}

func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.AdminRequest
	caller, ok := s.decodeSigned(w, r, types.OpUpdateAdmin, &req)
	if !ok {
		return
	}
	if err := s.adapter.UpdateAdmin(r.Context(), caller, req.NewAdmin); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeConfig(w, http.StatusOK)
}

func (s *Server) handleDiscardAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.AdminRequest
	caller, ok := s.decodeSigned(w, r, types.OpDiscardAdmin, &req)
	if !ok {
		return
	}
	if err := s.adapter.DiscardAdmin(r.Context(), caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeConfig(w, http.StatusOK)
}

func (s *Server) handleSetPeer(w http.ResponseWriter, r *http.Request) {
	var req types.SetPeerRequest
	caller, ok := s.decodeSigned(w, r, types.OpSetPeer, &req)
	if !ok {
		return
	}
	peer, err := s.adapter.SetPeer(r.Context(), caller, req.Chain, req.Contract)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, peer)
}

func (s *Server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	peers, err := s.adapter.GetPeers()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if peers == nil {
		peers = []*types.Peer{}
	}
	s.writeJSON(w, http.StatusOK, peers)
}

// handleGetPeer accepts a numeric chain id or a chain name ("ethereum").
func (s *Server) handleGetPeer(w http.ResponseWriter, r *http.Request) {
	chain, err := parseChain(mux.Vars(r)["chain"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Code: CodeBadRequest, Message: err.Error()})
		return
	}
	peer, err := s.adapter.GetPeer(chain)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if peer == nil {
		s.writeJSON(w, http.StatusNotFound, types.ErrorResponse{
			Code:    CodeNotFound,
			Message: fmt.Sprintf("no peer registered for chain %d", chain),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, peer)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeConfig(w, http.StatusOK)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	fee, err := s.adapter.QuoteDeliveryPrice(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, types.QuoteResponse{Fee: fee.Dec()})
}

func (s *Server) handlePickUpMessage(w http.ResponseWriter, r *http.Request) {
	var req types.PickUpRequest
	payer, ok := s.decodeSigned(w, r, types.OpPickUpMessage, &req)
	if !ok {
		return
	}
	if req.Ref == "" {
		s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Code: CodeBadRequest, Message: "ref is required"})
		return
	}

	res, err := s.adapter.PickUpMessage(r.Context(), req.Ref, payer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, types.PickUpResponse{
		Ref:               res.Ref,
		TransportSequence: res.TransportSequence,
		Fee:               res.Fee.Dec(),
	})
}

func (s *Server) handleRecvMessage(w http.ResponseWriter, r *http.Request) {
	var req types.RecvRequest
	if !s.decode(w, r, &req) {
		return
	}

	env, err := envelopeFromRequest(&req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.adapter.RecvMessage(r.Context(), env)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, types.RecvResponse{
		SrcChain: res.SrcChain,
		Sequence: res.Message.Sequence,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.adapter.HealthCheck(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, types.ErrorResponse{Code: CodeInternal, Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// envelopeFromRequest accepts a full VAA or a body with detached signatures.
func envelopeFromRequest(req *types.RecvRequest) (*guardian.SignedEnvelope, error) {
	var env *guardian.SignedEnvelope
	if req.VAA != "" {
		raw, err := decodeHex(req.VAA)
		if err != nil {
			return nil, fmt.Errorf("%w: vaa: %v", types.ErrInvalidVaa, err)
		}
		if env, err = guardian.SignedEnvelopeFromVAA(raw); err != nil {
			return nil, err
		}
	} else {
		body, err := decodeHex(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: body: %v", types.ErrInvalidVaa, err)
		}
		sigs := make([]*vaa.Signature, 0, len(req.Signatures))
		for i, h := range req.Signatures {
			b, err := decodeHex(h)
			if err != nil {
				return nil, fmt.Errorf("%w: signature %d: %v", types.ErrInvalidVaa, i, err)
			}
			sig, err := guardian.ParseSignature(b)
			if err != nil {
				return nil, err
			}
			sigs = append(sigs, sig)
		}
		if env, err = guardian.SignedEnvelopeFromBody(req.GuardianSetIndex, body, sigs); err != nil {
			return nil, err
		}
	}

	if req.Digest != "" {
		b, err := decodeHex(req.Digest)
		if err != nil || len(b) != common.HashLength {
			return nil, fmt.Errorf("%w: digest must be 32 bytes of hex", types.ErrInvalidVaa)
		}
		digest := common.BytesToHash(b)
		env.ClaimedDigest = &digest
	}
	return env, nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func parseChain(s string) (uint16, error) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(n), nil
	}
	id, err := vaa.ChainIDFromString(s)
	if err != nil {
		return 0, fmt.Errorf("unknown chain %q", s)
	}
	return uint16(id), nil
}

func (s *Server) writeConfig(w http.ResponseWriter, status int) {
	cfg, err := s.adapter.GetConfig()
	if err != nil {
		s.writeError(w, err)
		return
	}
	level, err := cfg.Finality.Uint8()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, types.ConfigResponse{
		Config:           cfg,
		AdapterType:      s.adapter.AdapterType(),
		ConsistencyLevel: level,
		EmitterAddress:   s.adapter.EmitterAddress(),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, types.ErrorResponse{
			Code:    CodeBadRequest,
			Message: fmt.Sprintf("Failed to parse request: %v", err),
		})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Sugar().Errorw("Request failed", "code", body.Code, "error", err)
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}
