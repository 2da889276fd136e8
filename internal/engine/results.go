// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package engine

import (
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/aplane-algo/apvault/internal/protocol"
	"github.com/aplane-algo/apvault/internal/vault"
)

// OperationResult describes an applied vault operation
type OperationResult struct {
	Op         protocol.Op
	Controller types.Address
	Vault      types.Address
	Amount     uint64
	RequestID  string
	Digest     string // hex request digest

	// Balances after the operation
	ControllerBalance uint64
	VaultBalance      uint64
}

// VaultInfo holds data for the show command
type VaultInfo struct {
	Controller types.Address
	State      types.Address
	StateBump  uint8
	Vault      types.Address
	VaultBump  uint8

	Initialized  bool
	Record       vault.State
	Corrupt      error // non-nil when the stored record fails validation
	StateBalance uint64
	VaultBalance uint64
}
