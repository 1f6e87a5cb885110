package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// RequestLifetime is how long a signed request stays valid after the client builds it.
const RequestLifetime = 5 * time.Minute

var ErrNoSigner = errors.New("client has no signing key")

// AdapterClient talks to the adapter HTTP API. State-changing calls are signed with signer,
// whose address the server treats as the caller or payer.
type AdapterClient struct {
	baseURL    string
	httpClient *http.Client
	signer     transportSigner.ITransportSigner
	now        func() time.Time
}

// NewAdapterClient creates a new adapter client. signer may be nil for read-only use.
func NewAdapterClient(baseURL string, signer transportSigner.ITransportSigner) *AdapterClient {
	return &AdapterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     signer,
		now:        time.Now,
	}
}

// APIError is a non-2xx response. When the server returned a known adapter error code,
// Unwrap yields the matching sentinel so errors.Is works across the wire.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adapter returned status %d: %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if ae, ok := types.AdapterErrorFromCode(e.Code); ok {
		return ae
	}
	return nil
}

// Initialize is signed by the payer; req.Admin names the admin.
func (c *AdapterClient) Initialize(ctx context.Context, req types.InitializeRequest) (*types.ConfigResponse, error) {
	var res types.ConfigResponse
	req.RequestHeader = c.header(types.OpInitialize)
	if err := c.signed(ctx, "/admin/initialize", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdapterClient) TransferAdmin(ctx context.Context, newAdmin types.UniversalAddress) (*types.ConfigResponse, error) {
	return c.admin(ctx, "/admin/transfer", types.AdminRequest{RequestHeader: c.header(types.OpTransferAdmin), NewAdmin: newAdmin})
}

func (c *AdapterClient) ClaimAdmin(ctx context.Context) (*types.ConfigResponse, error) {
	return c.admin(ctx, "/admin/claim", types.AdminRequest{RequestHeader: c.header(types.OpClaimAdmin)})
}

func (c *AdapterClient) UpdateAdmin(ctx context.Context, newAdmin types.UniversalAddress) (*types.ConfigResponse, error) {
	return c.admin(ctx, "/admin/update", types.AdminRequest{RequestHeader: c.header(types.OpUpdateAdmin), NewAdmin: newAdmin})
}

func (c *AdapterClient) DiscardAdmin(ctx context.Context) (*types.ConfigResponse, error) {
	return c.admin(ctx, "/admin/discard", types.AdminRequest{RequestHeader: c.header(types.OpDiscardAdmin)})
}

func (c *AdapterClient) SetPeer(ctx context.Context, chain uint16, contract types.UniversalAddress) (*types.Peer, error) {
	var peer types.Peer
	req := types.SetPeerRequest{RequestHeader: c.header(types.OpSetPeer), Chain: chain, Contract: contract}
	if err := c.signed(ctx, "/peers", req, &peer); err != nil {
		return nil, err
	}
	return &peer, nil
}

// GetPeer looks up a peer by numeric chain id or chain name.
func (c *AdapterClient) GetPeer(ctx context.Context, chain string) (*types.Peer, error) {
	var peer types.Peer
	if err := c.do(ctx, http.MethodGet, "/peers/"+chain, nil, &peer); err != nil {
		return nil, err
	}
	return &peer, nil
}

func (c *AdapterClient) ListPeers(ctx context.Context) ([]*types.Peer, error) {
	var peers []*types.Peer
	if err := c.do(ctx, http.MethodGet, "/peers", nil, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

func (c *AdapterClient) GetConfig(ctx context.Context) (*types.ConfigResponse, error) {
	var res types.ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/config", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdapterClient) Quote(ctx context.Context) (*types.QuoteResponse, error) {
	var res types.QuoteResponse
	if err := c.do(ctx, http.MethodGet, "/quote", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PickUpMessage relays an outbox entry; the signer pays the message fee.
func (c *AdapterClient) PickUpMessage(ctx context.Context, ref string) (*types.PickUpResponse, error) {
	var res types.PickUpResponse
	req := types.PickUpRequest{RequestHeader: c.header(types.OpPickUpMessage), Ref: ref}
	if err := c.signed(ctx, "/messages/pickup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdapterClient) RecvMessage(ctx context.Context, req types.RecvRequest) (*types.RecvResponse, error) {
	var res types.RecvResponse
	if err := c.do(ctx, http.MethodPost, "/messages/recv", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdapterClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *AdapterClient) admin(ctx context.Context, path string, req types.AdminRequest) (*types.ConfigResponse, error) {
	var res types.ConfigResponse
	if err := c.signed(ctx, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *AdapterClient) header(op string) types.RequestHeader {
	return types.RequestHeader{
		Op:     op,
		Nonce:  uuid.New().String(),
		Expiry: c.now().Add(RequestLifetime).Unix(),
	}
}

// signed posts req wrapped in a signed envelope.
func (c *AdapterClient) signed(ctx context.Context, path string, req types.SignedRequest, out interface{}) error {
	if c.signer == nil {
		return ErrNoSigner
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	msg, err := c.signer.CreateAuthenticatedMessage(payload)
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, msg, out)
}

func (c *AdapterClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er types.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Code != "" {
			apiErr.Code, apiErr.Message = er.Code, er.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
