// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

// Rent is the storage pricing schedule. An account is rent-exempt when its
// balance covers (AccountOverhead + data length) * PerByte.
type Rent struct {
	PerByte         uint64
	AccountOverhead uint64
}

// DefaultRent prices storage at two years of 3480 units per byte-year
// with 128 bytes of per-account overhead.
var DefaultRent = Rent{
	PerByte:         6960,
	AccountOverhead: 128,
}

// Exempt returns the minimum balance for an account holding space bytes
func (r Rent) Exempt(space int) uint64 {
	if space < 0 {
		space = 0
	}
	return (r.AccountOverhead + uint64(space)) * r.PerByte
}
