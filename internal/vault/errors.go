// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

import (
	"errors"

	"github.com/aplane-algo/apvault/internal/derive"
)

var (
	// ErrAlreadyInitialized indicates a state record already exists for the controller
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrVaultNotFound indicates no state record exists for the controller
	ErrVaultNotFound = errors.New("vault not found")

	// ErrCorruptState indicates the stored record does not match its derivation.
	// It is never repaired in place.
	ErrCorruptState = errors.New("vault state is corrupt")

	// ErrInvalidAmount indicates a zero amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds indicates the controller cannot cover a deposit or rent
	ErrInsufficientFunds = errors.New("insufficient controller funds")

	// ErrInsufficientVaultBalance indicates the holding address cannot cover a withdrawal
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")

	// ErrUnauthorized indicates the controller did not co-sign the request
	ErrUnauthorized = errors.New("controller signature required")

	// ErrUnknownOperation indicates a request with an unsupported op
	ErrUnknownOperation = errors.New("unknown vault operation")

	// ErrDerivationExhausted indicates no canonical bump exists for the seeds
	ErrDerivationExhausted = derive.ErrDerivationExhausted
)
