package node

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/transportSigner"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// MaxRequestLifetime bounds how far in the future a signed request may expire.
const MaxRequestLifetime = 10 * time.Minute

// requestAuthenticator verifies signed requests and remembers every accepted request hash until it
// expires, so a captured request cannot be submitted twice.
type requestAuthenticator struct {
	now func() time.Time

	mu   sync.Mutex
	seen map[common.Hash]int64
}

func newRequestAuthenticator() *requestAuthenticator {
	return &requestAuthenticator{
		now:  time.Now,
		seen: make(map[common.Hash]int64),
	}
}

// authenticate recovers the signer of msg and decodes its payload into req. The payload must
// name op and be unexpired.
func (ra *requestAuthenticator) authenticate(msg *transportSigner.SignedMessage, op string, req types.SignedRequest) (types.UniversalAddress, error) {
	signer, err := transportSigner.RecoverSigner(msg)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: %v", types.ErrUnauthenticated, err)
	}
	if err := json.Unmarshal(msg.Payload, req); err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: payload: %v", types.ErrUnauthenticated, err)
	}

	h := req.Header()
	if h.Op != op {
		return types.ZeroAddress, fmt.Errorf("%w: request is signed for %q, not %q", types.ErrUnauthenticated, h.Op, op)
	}
	if h.Nonce == "" {
		return types.ZeroAddress, fmt.Errorf("%w: nonce is required", types.ErrUnauthenticated)
	}
	now := ra.now().Unix()
	if h.Expiry <= now {
		return types.ZeroAddress, fmt.Errorf("%w: request expired", types.ErrUnauthenticated)
	}
	if h.Expiry > now+int64(MaxRequestLifetime/time.Second) {
		return types.ZeroAddress, fmt.Errorf("%w: expiry is more than %s away", types.ErrUnauthenticated, MaxRequestLifetime)
	}

	ra.mu.Lock()
	defer ra.mu.Unlock()
	for k, exp := range ra.seen {
		if exp <= now {
			delete(ra.seen, k)
		}
	}
	key := common.Hash(msg.Hash)
	if _, replay := ra.seen[key]; replay {
		return types.ZeroAddress, fmt.Errorf("%w: request already used", types.ErrUnauthenticated)
	}
	ra.seen[key] = h.Expiry
	return signer, nil
}

// decodeSigned reads a signed request envelope for op into req and returns its signer. It writes
// the error response itself and reports false when the request must not proceed.
func (s *Server) decodeSigned(w http.ResponseWriter, r *http.Request, op string, req types.SignedRequest) (types.UniversalAddress, bool) {
	var msg transportSigner.SignedMessage
	if !s.decode(w, r, &msg) {
		return types.ZeroAddress, false
	}
	signer, err := s.auth.authenticate(&msg, op, req)
	if err != nil {
		s.writeError(w, err)
		return types.ZeroAddress, false
	}
	return signer, true
}
