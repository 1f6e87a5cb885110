package node

import (
	"errors"
	"net/http"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/endpoint"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/ledger"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/persistence"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// Codes for collaborator failures that have no adapter error code.
const (
	CodeInternal          = "Internal"
	CodeBadRequest        = "BadRequest"
	CodeNotFound          = "NotFound"
	CodeMessageNotFound   = "MessageNotFound"
	CodeAlreadyPickedUp   = "AlreadyPickedUp"
	CodeInsufficientFunds = "InsufficientFunds"
	CodeConcurrentUpdate  = "ConcurrentUpdate"
)

var statusByCode = map[string]int{
	types.ErrCallerNotAdmin.Code:          http.StatusForbidden,
	types.ErrCallerNotEndpoint.Code:       http.StatusForbidden,
	types.ErrInvalidBridge.Code:           http.StatusForbidden,
	types.ErrUnauthenticated.Code:         http.StatusUnauthorized,
	types.ErrAdminTransferPending.Code:    http.StatusConflict,
	types.ErrNoAdminUpdatePending.Code:    http.StatusConflict,
	types.ErrAlreadyInitialized.Code:      http.StatusConflict,
	types.ErrPeerAlreadySet.Code:          http.StatusConflict,
	types.ErrDuplicate.Code:               http.StatusConflict,
	types.ErrNotInitialized.Code:          http.StatusPreconditionFailed,
	types.ErrInvalidAdminZeroAddress.Code: http.StatusBadRequest,
	types.ErrInvalidChain.Code:            http.StatusBadRequest,
	types.ErrInvalidPeerZeroAddress.Code:  http.StatusBadRequest,
	types.ErrInvalidPeer.Code:             http.StatusBadRequest,
	types.ErrInvalidPayloadLength.Code:    http.StatusBadRequest,
	types.ErrInvalidVaa.Code:              http.StatusBadRequest,
	types.ErrBadQuorum.Code:               http.StatusUnauthorized,
}

// errorResponse maps err to a status and body. Adapter errors keep their code; a few
// collaborator errors get their own; anything else is Internal.
func errorResponse(err error) (int, types.ErrorResponse) {
	if ae, ok := types.AsAdapterError(err); ok {
		status, known := statusByCode[ae.Code]
		if !known {
			status = http.StatusBadRequest
		}
		return status, types.ErrorResponse{Code: ae.Code, Message: err.Error()}
	}

	switch {
	case errors.Is(err, endpoint.ErrMessageNotFound):
		return http.StatusNotFound, types.ErrorResponse{Code: CodeMessageNotFound, Message: err.Error()}
	case errors.Is(err, endpoint.ErrAlreadyPickedUp):
		return http.StatusConflict, types.ErrorResponse{Code: CodeAlreadyPickedUp, Message: err.Error()}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, types.ErrorResponse{Code: CodeInsufficientFunds, Message: err.Error()}
	case errors.Is(err, persistence.ErrConcurrentUpdate):
		return http.StatusConflict, types.ErrorResponse{Code: CodeConcurrentUpdate, Message: err.Error()}
	}
	return http.StatusInternalServerError, types.ErrorResponse{Code: CodeInternal, Message: err.Error()}
}
