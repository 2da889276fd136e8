// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package derive computes program-derived addresses.
//
// A derived address is the SHA-256 digest of a list of seeds, a one-byte bump
// and the namespace (program) address. Only digests that do NOT decode to a
// point on the edwards25519 curve are accepted, so no private key can ever sign
// for a derived address. The only way to authorize spending from one is to
// present the seeds and bump to the ledger, which re-derives the address under
// the executing program's namespace.
package derive

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

const (
	// MaxSeeds is the maximum number of seeds accepted by a derivation
	MaxSeeds = 16

	// MaxSeedLength is the maximum length of a single seed in bytes
	MaxSeedLength = 32

	// derivationMarker is appended after the namespace so derived digests
	// cannot collide with other uses of SHA-256 over the same inputs.
	derivationMarker = "ProgramDerivedAddress"
)

var (
	// ErrOnCurve indicates the candidate address is a valid curve point
	ErrOnCurve = errors.New("derived address is on the ed25519 curve")

	// ErrDerivationExhausted indicates no bump in 0..255 produced an off-curve address
	ErrDerivationExhausted = errors.New("no valid bump found for seeds")

	// ErrTooManySeeds indicates more than MaxSeeds seeds were supplied
	ErrTooManySeeds = errors.New("too many seeds")

	// ErrMaxSeedLength indicates a seed longer than MaxSeedLength
	ErrMaxSeedLength = errors.New("seed exceeds maximum length")
)

// CreateAddress derives the address for seeds and an explicit bump.
// Returns ErrOnCurve if the bump does not push the digest off the curve.
func CreateAddress(seeds [][]byte, bump uint8, namespace types.Address) (types.Address, error) {
	if err := checkSeeds(seeds); err != nil {
		return types.Address{}, err
	}

	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(namespace[:])
	h.Write([]byte(derivationMarker))

	var addr types.Address
	copy(addr[:], h.Sum(nil))

	if IsOnCurve(addr[:]) {
		return types.Address{}, ErrOnCurve
	}
	return addr, nil
}

// FindAddress searches bumps from 255 downwards and returns the first
// off-curve address together with its bump. That bump is the canonical one.
func FindAddress(seeds [][]byte, namespace types.Address) (types.Address, uint8, error) {
	if err := checkSeeds(seeds); err != nil {
		return types.Address{}, 0, err
	}

	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateAddress(seeds, uint8(bump), namespace)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return types.Address{}, 0, err
		}
	}
	return types.Address{}, 0, ErrDerivationExhausted
}

// IsCanonicalBump reports whether bump is the bump FindAddress would return
// for the same seeds and namespace.
func IsCanonicalBump(seeds [][]byte, bump uint8, namespace types.Address) bool {
	_, canonical, err := FindAddress(seeds, namespace)
	if err != nil {
		return false
	}
	return canonical == bump
}

// IsOnCurve reports whether b is the compressed encoding of an edwards25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManySeeds, len(seeds), MaxSeeds)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d is %d bytes (max %d)", ErrMaxSeedLength, i, len(seed), MaxSeedLength)
		}
	}
	return nil
}
