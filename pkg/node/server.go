package node

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/adapter"
)

/*
Server exposes the adapter over HTTP.

State-changing requests are signed. The body is { payload, hash, signature } where payload is
the JSON request below plus { op, nonce, expiry }, hash is keccak256(payload), and signature is
a secp256k1 signature over hash. The recovered signer is the caller.

Administration:
  POST /admin/initialize  { admin, endpoint, bridgeProgram, finality }
  POST /admin/transfer    { newAdmin }   proposes newAdmin; claim completes it
  POST /admin/claim       { }            current or pending admin
  POST /admin/update      { newAdmin }   single-step change, no transfer pending
  POST /admin/discard     { }            irreversible
  POST /peers             { chain, contract }

Messages:
  POST /messages/pickup   { ref }
    - Takes the outbox entry from the endpoint, charges the signer the core bridge fee, publishes
  POST /messages/recv     { vaa } or { body, signatures, guardianSetIndex, digest? }
    - Verifies the guardian quorum, checks the peer and destination chain, attests

Reads:
  GET /config, GET /peers, GET /peers/{chain}, GET /quote, GET /health

Errors are returned as { code, message } with the adapter's stable error codes.
*/

// Server handles HTTP requests for the adapter
type Server struct {
	adapter    *adapter.Adapter
	auth       *requestAuthenticator
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(a *adapter.Adapter, port int, logger *zap.Logger) *Server {
	s := &Server{
		adapter: a,
		auth:    newRequestAuthenticator(),
		logger:  logger,
	}

	r := mux.NewRouter()

	// Admin endpoints
	r.HandleFunc("/admin/initialize", s.handleInitialize).Methods(http.MethodPost)
	r.HandleFunc("/admin/transfer", s.handleTransferAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admin/claim", s.handleClaimAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admin/update", s.handleUpdateAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admin/discard", s.handleDiscardAdmin).Methods(http.MethodPost)

	// Peer endpoints
	r.HandleFunc("/peers", s.handleSetPeer).Methods(http.MethodPost)
	r.HandleFunc("/peers", s.handleListPeers).Methods(http.MethodGet)
	r.HandleFunc("/peers/{chain}", s.handleGetPeer).Methods(http.MethodGet)

	// Message endpoints
	r.HandleFunc("/messages/pickup", s.handlePickUpMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/recv", s.handleRecvMessage).Methods(http.MethodPost)

	r.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/quote", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
