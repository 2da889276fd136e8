// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import "errors"

var (
	// ErrInsufficientFunds indicates the source account cannot cover a debit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMissingAuthority indicates an account was debited or allocated
	// without a signature or a valid seed proof
	ErrMissingAuthority = errors.New("missing authority for account")

	// ErrAccountInUse indicates allocation of an account that already holds data
	ErrAccountInUse = errors.New("account already in use")

	// ErrNotOwner indicates a program touched data it does not own
	ErrNotOwner = errors.New("account not owned by executing program")

	// ErrProgramOwned indicates a transfer out of an account that holds program data
	ErrProgramOwned = errors.New("cannot transfer from program-owned account")

	// ErrDataSize indicates a write whose length differs from the allocation
	ErrDataSize = errors.New("data size does not match allocation")

	// ErrOverflow indicates a balance would exceed the maximum representable value
	ErrOverflow = errors.New("balance overflow")

	// ErrUnknownProgram indicates a request names a program that is not registered
	ErrUnknownProgram = errors.New("unknown program")

	// ErrReplay indicates a request body that was already applied
	ErrReplay = errors.New("request already processed")
)
