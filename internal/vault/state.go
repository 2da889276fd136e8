// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package vault

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

const (
	// DiscriminatorSize is the length of the account-type tag before the payload
	DiscriminatorSize = 8

	// StateSize is the payload length: stateBump, vaultBump
	StateSize = 2

	// AccountSize is the allocation for a state record
	AccountSize = DiscriminatorSize + StateSize
)

// stateDiscriminator tags vault state accounts
var stateDiscriminator = func() [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:VaultState"))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}()

// State is the persisted record of one vault. Both bumps are fixed at creation.
type State struct {
	StateBump uint8
	VaultBump uint8
}

// MarshalBinary encodes the record with its discriminator
func (s State) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, AccountSize)
	buf = append(buf, stateDiscriminator[:]...)
	buf = append(buf, s.StateBump, s.VaultBump)
	return buf, nil
}

// UnmarshalBinary decodes a record, rejecting wrong sizes and foreign discriminators
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) != AccountSize {
		return fmt.Errorf("%w: record is %d bytes, want %d", ErrCorruptState, len(data), AccountSize)
	}
	if !bytes.Equal(data[:DiscriminatorSize], stateDiscriminator[:]) {
		return fmt.Errorf("%w: account discriminator mismatch", ErrCorruptState)
	}
	s.StateBump = data[DiscriminatorSize]
	s.VaultBump = data[DiscriminatorSize+1]
	return nil
}
