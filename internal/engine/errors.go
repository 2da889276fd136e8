// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package engine

import "errors"

var (
	// ErrNoKeySource indicates an operation needs a signing key but no key source is configured
	ErrNoKeySource = errors.New("no key source configured")

	// ErrNoSigningKey indicates no signing key is available for an address
	ErrNoSigningKey = errors.New("no signing key available for address")

	// ErrInvalidAmount indicates an invalid amount
	ErrInvalidAmount = errors.New("invalid amount")
)
