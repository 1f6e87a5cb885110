package admin

import (
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/config"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/events"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

// AuthorityState is the admin lifecycle position derived from a Config.
type AuthorityState uint8

const (
	StateUnset AuthorityState = iota
	StateActive
	StateTransferPending
	StateDiscarded
)

func (s AuthorityState) String() string {
	switch s {
	case StateUnset:
		return "Unset"
	case StateActive:
		return "Active"
	case StateTransferPending:
		return "TransferPending"
	case StateDiscarded:
		return "Discarded"
	default:
		return "Unknown"
	}
}

func StateOf(cfg *types.Config) AuthorityState {
	switch {
	case cfg == nil:
		return StateUnset
	case cfg.Admin == nil:
		return StateDiscarded
	case cfg.PendingAdmin != nil:
		return StateTransferPending
	default:
		return StateActive
	}
}

// Initialize builds the first Config. Callers are responsible for ensuring none exists yet.
func Initialize(adminAddr, endpoint, bridgeProgram types.UniversalAddress, finality config.Finality) (*types.Config, error) {
	if adminAddr.IsZero() {
		return nil, types.ErrInvalidAdminZeroAddress
	}
	if _, err := finality.Uint8(); err != nil {
		return nil, err
	}
	return &types.Config{
		Admin:         adminAddr.Ptr(),
		Endpoint:      endpoint,
		BridgeProgram: bridgeProgram,
		Finality:      finality,
	}, nil
}

// RequireAdmin fails with CallerNotAdmin unless caller is the current admin. Always fails once
// authority has been discarded.
func RequireAdmin(cfg *types.Config, caller types.UniversalAddress) error {
	if cfg == nil || cfg.Admin == nil || *cfg.Admin != caller {
		return types.ErrCallerNotAdmin
	}
	return nil
}

func requireNoPending(cfg *types.Config) error {
	if cfg.PendingAdmin != nil {
		return types.ErrAdminTransferPending
	}
	return nil
}

/*
The transition functions below mutate cfg only on success, so a failed call leaves the record
exactly as it was and the caller can abort its unit of work without rollback.

Claim policy: either the current admin or the pending admin may claim. When the current admin
claims, the pending admin still becomes the admin, which lets the old admin finish a transfer
on behalf of a recipient that cannot sign yet.
*/

// TransferAdmin starts a two-step transfer to newAdmin.
func TransferAdmin(cfg *types.Config, caller, newAdmin types.UniversalAddress) (*events.AdminUpdateRequested, error) {
	if err := RequireAdmin(cfg, caller); err != nil {
		return nil, err
	}
	if err := requireNoPending(cfg); err != nil {
		return nil, err
	}
	if newAdmin.IsZero() {
		return nil, types.ErrInvalidAdminZeroAddress
	}

	cfg.PendingAdmin = newAdmin.Ptr()
	return &events.AdminUpdateRequested{
		CurrentAdmin:  caller,
		ProposedAdmin: newAdmin,
	}, nil
}

// ClaimAdmin completes a pending transfer.
func ClaimAdmin(cfg *types.Config, caller types.UniversalAddress) (*events.AdminUpdated, error) {
	// discarded authority has no way back, not even through a stale pending transfer
	if cfg == nil || cfg.Admin == nil {
		return nil, types.ErrCallerNotAdmin
	}
	if cfg.PendingAdmin == nil {
		return nil, types.ErrNoAdminUpdatePending
	}
	if caller != *cfg.Admin && caller != *cfg.PendingAdmin {
		return nil, types.ErrCallerNotAdmin
	}

	oldAdmin := *cfg.Admin
	newAdmin := *cfg.PendingAdmin
	cfg.Admin = newAdmin.Ptr()
	cfg.PendingAdmin = nil
	return &events.AdminUpdated{OldAdmin: oldAdmin, NewAdmin: newAdmin}, nil
}

// UpdateAdmin replaces the admin in one step.
func UpdateAdmin(cfg *types.Config, caller, newAdmin types.UniversalAddress) (*events.AdminUpdated, error) {
	if cfg == nil {
		return nil, types.ErrCallerNotAdmin
	}
	if err := requireNoPending(cfg); err != nil {
		return nil, err
	}
	if err := RequireAdmin(cfg, caller); err != nil {
		return nil, err
	}
	if newAdmin.IsZero() {
		return nil, types.ErrInvalidAdminZeroAddress
	}

	oldAdmin := *cfg.Admin
	cfg.Admin = newAdmin.Ptr()
	cfg.PendingAdmin = nil
	return &events.AdminUpdated{OldAdmin: oldAdmin, NewAdmin: newAdmin}, nil
}

// DiscardAdmin permanently gives up admin authority.
func DiscardAdmin(cfg *types.Config, caller types.UniversalAddress) (*events.AdminDiscarded, error) {
	if cfg == nil {
		return nil, types.ErrCallerNotAdmin
	}
	if err := requireNoPending(cfg); err != nil {
		return nil, err
	}
	if err := RequireAdmin(cfg, caller); err != nil {
		return nil, err
	}

	cfg.Admin = nil
	cfg.PendingAdmin = nil
	return &events.AdminDiscarded{Admin: caller}, nil
}
